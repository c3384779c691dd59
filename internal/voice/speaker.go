package voice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("text-to-speech api key not configured")

type SpeakerConfig struct {
	APIKey     string
	BaseURL    string
	VoiceID    string
	Model      string
	OutputPath string
	Player     string // command that plays OutputPath, optional
	Timeout    time.Duration
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Speaker turns text into speech with the ElevenLabs API.
type Speaker struct {
	client *resty.Client
	config SpeakerConfig
	logger *zap.Logger
}

func NewSpeaker(config SpeakerConfig, logger *zap.Logger) *Speaker {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.elevenlabs.io/v1"
	}
	if config.OutputPath == "" {
		config.OutputPath = "response.mp3"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetHeader("Accept", "audio/mpeg").
		SetHeader("xi-api-key", config.APIKey)

	return &Speaker{client: client, config: config, logger: logger}
}

// Synthesize returns the spoken text as MP3 audio.
func (s *Speaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.config.APIKey == "" {
		return nil, ErrNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("nothing to speak")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("voice", s.config.VoiceID).
		SetBody(ttsRequest{
			Text:    text,
			ModelID: s.config.Model,
			VoiceSettings: voiceSettings{
				Stability:       0.5,
				SimilarityBoost: 0.5,
			},
		}).
		Post("/text-to-speech/{voice}")
	if err != nil {
		return nil, fmt.Errorf("text-to-speech request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("text-to-speech returned HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	s.logger.Debug("Synthesized speech",
		zap.String("voice", s.config.VoiceID),
		zap.Int("bytes", len(resp.Body())))

	return resp.Body(), nil
}

// Speak synthesizes text, writes it to the output file and plays it when a
// player command is configured.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	audio, err := s.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.config.OutputPath, audio, 0o644); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}

	fields := strings.Fields(s.config.Player)
	if len(fields) == 0 {
		return nil
	}

	args := append(fields[1:], s.config.OutputPath)
	if out, err := exec.CommandContext(ctx, fields[0], args...).CombinedOutput(); err != nil {
		return fmt.Errorf("audio player failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
