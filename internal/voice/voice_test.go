package voice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestListener(t *testing.T) {
	l := NewListener(strings.NewReader("weather in paris\n\n  tomorrow?  \n"))

	text, err := l.Listen()
	require.NoError(t, err)
	assert.Equal(t, "weather in paris", text)

	_, err = l.Listen()
	assert.ErrorIs(t, err, ErrNotUnderstood)

	text, err = l.Listen()
	require.NoError(t, err)
	assert.Equal(t, "tomorrow?", text)

	_, err = l.Listen()
	assert.ErrorIs(t, err, io.EOF)
}

func ttsServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))

		var body ttsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Sunny in Paris", body.Text)
		assert.Equal(t, "eleven_monolingual_v1", body.ModelID)

		w.WriteHeader(status)
		w.Write([]byte("ID3fake"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSpeakerSpeakWritesFile(t *testing.T) {
	server := ttsServer(t, http.StatusOK)
	out := filepath.Join(t.TempDir(), "reply.mp3")

	s := NewSpeaker(SpeakerConfig{
		APIKey:     "secret",
		BaseURL:    server.URL,
		VoiceID:    "voice-1",
		Model:      "eleven_monolingual_v1",
		OutputPath: out,
	}, zap.NewNop())

	require.NoError(t, s.Speak(context.Background(), "  Sunny in Paris "))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ID3fake", string(data))
}

func TestSpeakerErrors(t *testing.T) {
	_, err := NewSpeaker(SpeakerConfig{}, zap.NewNop()).Synthesize(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)

	server := ttsServer(t, http.StatusUnauthorized)
	s := NewSpeaker(SpeakerConfig{
		APIKey:  "secret",
		BaseURL: server.URL,
		VoiceID: "voice-1",
		Model:   "eleven_monolingual_v1",
	}, zap.NewNop())
	_, err = s.Synthesize(context.Background(), "Sunny in Paris")
	assert.ErrorContains(t, err, "HTTP 401")
}
