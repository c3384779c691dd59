package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-agent/internal/history"
	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/bobby-s-dev/weather-agent/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAnswerer struct{}

func (stubAnswerer) Answer(ctx context.Context, query string) services.Result {
	return services.Result{
		Query:    query,
		Text:     "Weather in Paris:\n- Condition: Clear sky",
		Location: "paris",
		Date:     models.DateToken{Kind: models.Tomorrow},
	}
}

func (stubAnswerer) GetStats() map[string]interface{} {
	return map[string]interface{}{"success_count": 1}
}

type echoResponder struct{}

func (echoResponder) Respond(ctx context.Context, message string) string {
	return "🙂 you said: " + message
}

type stubSynthesizer struct {
	err error
}

func (s stubSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("ID3audio"), nil
}

func newTestApp(t *testing.T, speaker Synthesizer) (*fiber.App, *history.Store) {
	t.Helper()
	store, err := history.NewStore(filepath.Join(t.TempDir(), "api.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, NewHandler(stubAnswerer{}, echoResponder{}, store, speaker, zap.NewNop()), zap.NewNop())
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestGetWeather(t *testing.T) {
	app, _ := newTestApp(t, nil)

	var body map[string]string
	code := doJSON(t, app, http.MethodGet, "/api/v1/weather?q=Paris%20tomorrow", "", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Paris tomorrow", body["query"])
	assert.Equal(t, "paris", body["location"])
	assert.Equal(t, "tomorrow", body["date"])
	assert.Contains(t, body["response"], "Weather in Paris:")

	var errBody map[string]any
	code = doJSON(t, app, http.MethodGet, "/api/v1/weather", "", &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, errBody["success"])
}

type chatResponse struct {
	ChatID   string               `json:"chat_id"`
	Name     string               `json:"name"`
	Reply    string               `json:"reply"`
	Messages []models.ChatMessage `json:"messages"`
}

func TestChatFlow(t *testing.T) {
	app, _ := newTestApp(t, nil)

	var first chatResponse
	code := doJSON(t, app, http.MethodPost, "/api/v1/chat", `{"message": "Paris, today"}`, &first)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, first.ChatID)
	assert.Equal(t, "🙂 you said: Paris, today", first.Reply)
	assert.Len(t, first.Messages, 2)

	var second chatResponse
	code = doJSON(t, app, http.MethodPost, "/api/v1/chat",
		`{"chat_id": "`+first.ChatID+`", "message": "and tomorrow?"}`, &second)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, first.ChatID, second.ChatID)
	assert.Equal(t, "Paris, today", second.Name)
	require.Len(t, second.Messages, 4)
	assert.Equal(t, "assistant", second.Messages[3].Role)

	var chat models.Chat
	code = doJSON(t, app, http.MethodGet, "/api/v1/chats/"+first.ChatID, "", &chat)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, chat.Messages, 4)

	var list struct {
		Chats []models.Chat `json:"chats"`
	}
	code = doJSON(t, app, http.MethodGet, "/api/v1/chats", "", &list)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list.Chats, 1)
}

func TestChatValidation(t *testing.T) {
	app, _ := newTestApp(t, nil)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodPost, "/api/v1/chat", `{"message": ""}`, nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodPost, "/api/v1/chat", `{"chat_id": "abc", "message": "hi"}`, nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodPost, "/api/v1/chat", `{`, nil))
}

func TestGetChatNotFound(t *testing.T) {
	app, _ := newTestApp(t, nil)
	assert.Equal(t, http.StatusNotFound, doJSON(t, app, http.MethodGet, "/api/v1/chats/nope", "", nil))
}

func TestGetHistory(t *testing.T) {
	app, store := newTestApp(t, nil)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "Paris, today", "r1", "paris", "today"))
	require.NoError(t, store.Save(ctx, "Rome, today", "r2", "rome", "today"))

	var body struct {
		Queries []models.QueryRecord `json:"queries"`
	}
	code := doJSON(t, app, http.MethodGet, "/api/v1/history?location=Paris", "", &body)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body.Queries, 1)
	assert.Equal(t, "Paris, today", body.Queries[0].Query)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodGet, "/api/v1/history?limit=0", "", nil))
}

func TestPostSpeak(t *testing.T) {
	app, _ := newTestApp(t, stubSynthesizer{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/speak", strings.NewReader(`{"text": "Sunny"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	audio, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ID3audio", string(audio))
}

func TestPostSpeakUnavailable(t *testing.T) {
	app, _ := newTestApp(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable,
		doJSON(t, app, http.MethodPost, "/api/v1/speak", `{"text": "Sunny"}`, nil))

	failing, _ := newTestApp(t, stubSynthesizer{err: errors.New("quota")})
	assert.Equal(t, http.StatusBadGateway,
		doJSON(t, failing, http.MethodPost, "/api/v1/speak", `{"text": "Sunny"}`, nil))
}

func TestHealthAndNotFound(t *testing.T) {
	app, _ := newTestApp(t, nil)

	var health map[string]any
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/v1/health", "", &health))
	assert.Equal(t, "healthy", health["status"])

	var missing map[string]any
	require.Equal(t, http.StatusNotFound, doJSON(t, app, http.MethodGet, "/api/v1/nope", "", &missing))
	assert.Equal(t, "/api/v1/nope", missing["path"])
}

type slowResponder struct {
	delay time.Duration
}

func (s slowResponder) Respond(ctx context.Context, message string) string {
	time.Sleep(s.delay)
	return "reply to " + message
}

func TestConcurrentTurnsOnOneChat(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "api.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, NewHandler(stubAnswerer{}, slowResponder{delay: 50 * time.Millisecond}, store, nil, zap.NewNop()), zap.NewNop())

	const chatID = "3f1c9a52-7d4e-4b8a-9c21-5e6f7a8b9c0d"
	const turns = 4

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"chat_id": %q, "message": "turn %d"}`, chatID, i)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, -1)
			if assert.NoError(t, err) {
				resp.Body.Close()
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		}(i)
	}
	wg.Wait()

	chat, err := store.Chat(context.Background(), chatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 2*turns)
	for i, msg := range chat.Messages {
		if i%2 == 0 {
			assert.Equal(t, "user", msg.Role)
		} else {
			assert.Equal(t, "assistant", msg.Role)
			assert.Equal(t, "reply to "+chat.Messages[i-1].Content, msg.Content)
		}
	}
}

func TestChatLocksReleaseEntries(t *testing.T) {
	locks := newChatLocks()

	unlock := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		locks.Lock("a")()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second turn ran while the first held the lock")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-done
	assert.Empty(t, locks.locks)
}
