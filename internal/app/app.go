// Package app wires the weather assistant together from configuration.
package app

import (
	"context"
	"errors"

	"github.com/bobby-s-dev/weather-agent/internal/agent"
	"github.com/bobby-s-dev/weather-agent/internal/api"
	"github.com/bobby-s-dev/weather-agent/internal/config"
	"github.com/bobby-s-dev/weather-agent/internal/history"
	"github.com/bobby-s-dev/weather-agent/internal/interpreter"
	"github.com/bobby-s-dev/weather-agent/internal/llm"
	"github.com/bobby-s-dev/weather-agent/internal/scheduler"
	"github.com/bobby-s-dev/weather-agent/internal/services"
	"github.com/bobby-s-dev/weather-agent/internal/voice"
	"github.com/bobby-s-dev/weather-agent/pkg/client"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type App struct {
	Config    *config.Config
	Weather   *services.WeatherService
	Agent     *agent.Facade // nil without an LLM
	History   *history.Store
	Scheduler *scheduler.Scheduler
	Speaker   *voice.Speaker // nil without a text-to-speech key
	logger    *zap.Logger
}

// New builds every long-lived dependency once. Only the history database is
// required; missing API keys degrade features instead of failing.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := history.NewStore(cfg.History.DBPath, logger)
	if err != nil {
		return nil, err
	}

	prune, err := scheduler.NewScheduler(store, cfg.History.PruneSchedule, cfg.History.Retention, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	clientConfig := client.ClientConfig{
		Timeout:        cfg.WeatherAPI.Timeout,
		MaxAttempts:    cfg.Retry.MaxAttempts,
		RetryDelay:     cfg.Retry.Delay,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}

	interpreterOpts := []interpreter.Option{
		interpreter.WithTagger(interpreter.ProseTagger{}),
		interpreter.WithLocator(&fallbackLocator{
			locator:  client.NewIPLocator(cfg.WeatherAPI.IPInfoURL, cfg.WeatherAPI.Timeout, logger),
			fallback: interpreter.NormalizeLocation(cfg.Location.Default),
		}),
	}

	var model *llm.Model
	if cfg.LLMEnabled() {
		model, err = llm.NewOpenAICompatible(llm.Settings{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		}, logger)
		if err != nil {
			logger.Warn("LLM unavailable, continuing without it", zap.Error(err))
			model = nil
		}
	}
	if model != nil {
		interpreterOpts = append(interpreterOpts, interpreter.WithExtractor(interpreter.NewLLMExtractor(model)))
	}
	interp := interpreter.New(logger, interpreterOpts...)

	weather := services.NewWeatherService(
		newProvider(cfg, clientConfig, logger),
		client.NewWeatherAPIClient(cfg.WeatherAPI.WeatherAPIKey, cfg.WeatherAPI.WeatherAPIURL, clientConfig, logger),
		interp,
		nil,
		logger,
	)
	weather.SetRecorder(store)

	a := &App{
		Config:    cfg,
		Weather:   weather,
		History:   store,
		Scheduler: prune,
		logger:    logger,
	}

	if model != nil {
		a.Agent = agent.NewFacade(model, weather, logger,
			agent.WithHistory(store, cfg.Agent.HistoryLimit),
			agent.WithLocationFinder(interp),
			agent.WithMaxIterations(cfg.Agent.MaxIterations))
	}

	if cfg.Voice.ElevenLabsAPIKey != "" {
		a.Speaker = voice.NewSpeaker(voice.SpeakerConfig{
			APIKey:     cfg.Voice.ElevenLabsAPIKey,
			BaseURL:    cfg.Voice.ElevenLabsURL,
			VoiceID:    cfg.Voice.VoiceID,
			Model:      cfg.Voice.Model,
			OutputPath: cfg.Voice.OutputPath,
			Player:     cfg.Voice.Player,
		}, logger)
	}

	return a, nil
}

func newProvider(cfg *config.Config, clientConfig client.ClientConfig, logger *zap.Logger) services.WeatherProvider {
	if cfg.WeatherAPI.Provider == "openweather" {
		if cfg.WeatherAPI.OpenWeatherAPIKey != "" {
			return client.NewOpenWeatherClient(cfg.WeatherAPI.OpenWeatherAPIKey, cfg.WeatherAPI.OpenWeatherURL,
				cfg.WeatherAPI.ForecastCount, clientConfig, logger)
		}
		logger.Warn("OPENWEATHER_API_KEY not set, falling back to Open-Meteo")
	}
	return client.NewOpenMeteoClient(cfg.WeatherAPI.OpenMeteoURL, cfg.WeatherAPI.GeocodingURL, clientConfig, logger)
}

// Respond answers a chat message through the agent, or through the plain
// pipeline when no LLM is configured.
func (a *App) Respond(ctx context.Context, message string) string {
	if a.Agent != nil {
		return a.Agent.Run(ctx, message)
	}
	return a.Weather.Answer(ctx, message).Text
}

// Handler builds the HTTP handler, leaving optional collaborators unset
// rather than typed-nil.
func (a *App) Handler() *api.Handler {
	var speaker api.Synthesizer
	if a.Speaker != nil {
		speaker = a.Speaker
	}
	return api.NewHandler(a.Weather, a, a.History, speaker, a.logger)
}

func (a *App) Close() error {
	a.Scheduler.Stop()
	return a.History.Close()
}

// fallbackLocator uses the configured default city when IP lookup fails.
type fallbackLocator struct {
	locator  interpreter.Locator
	fallback string
}

func (l *fallbackLocator) Locate(ctx context.Context) (string, error) {
	city, err := l.locator.Locate(ctx)
	if err == nil {
		return city, nil
	}
	if l.fallback != "" {
		return l.fallback, nil
	}
	return "", multierr.Append(err, errNoDefaultLocation)
}

var errNoDefaultLocation = errors.New("no default location configured")
