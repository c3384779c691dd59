package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FIBER_PORT", "WEATHER_PROVIDER", "FORECAST_CNT", "LLM_API_KEY", "GEMINI_API_KEY",
		"LLM_MODEL", "LLM_TEMPERATURE", "AGENT_MAX_ITERATIONS", "MAX_ATTEMPTS", "RETRY_DELAY",
		"HISTORY_RETENTION", "HISTORY_PRUNE_SCHEDULE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "openweather", cfg.WeatherAPI.Provider)
	assert.Equal(t, 8, cfg.WeatherAPI.ForecastCount)
	assert.Equal(t, "gemini-1.5-flash", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, 720*time.Hour, cfg.History.Retention)
	assert.Equal(t, "@daily", cfg.History.PruneSchedule)
	assert.False(t, cfg.LLMEnabled())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("WEATHER_PROVIDER", "openmeteo")
	t.Setenv("FORECAST_CNT", "16")
	t.Setenv("AGENT_MAX_ITERATIONS", "3")
	t.Setenv("RETRY_DELAY", "2s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
	assert.True(t, cfg.LLMEnabled())
	assert.Equal(t, "openmeteo", cfg.WeatherAPI.Provider)
	assert.Equal(t, 16, cfg.WeatherAPI.ForecastCount)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	assert.Equal(t, 2*time.Second, cfg.Retry.Delay)
}

func TestParseHelpersFallBackToZero(t *testing.T) {
	assert.Zero(t, parseDuration("soon"))
	assert.Zero(t, parseInt("many"))
	assert.Zero(t, parseFloat("warm"))
}
