package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	WeatherAPI struct {
		Provider          string // openweather or openmeteo
		OpenWeatherAPIKey string
		OpenWeatherURL    string
		OpenMeteoURL      string
		GeocodingURL      string
		WeatherAPIKey     string
		WeatherAPIURL     string
		IPInfoURL         string
		ForecastCount     int
		Timeout           time.Duration
	}

	Location struct {
		Default string
	}

	LLM struct {
		APIKey      string
		BaseURL     string
		Model       string
		Temperature float64
	}

	Agent struct {
		MaxIterations int
		HistoryLimit  int
	}

	Voice struct {
		ElevenLabsAPIKey string
		ElevenLabsURL    string
		VoiceID          string
		Model            string
		OutputPath       string
		Player           string
	}

	History struct {
		DBPath        string
		Retention     time.Duration
		PruneSchedule string
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Retry struct {
		MaxAttempts int
		Delay       time.Duration
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "60s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	// Weather API configuration
	cfg.WeatherAPI.Provider = getEnv("WEATHER_PROVIDER", "openweather")
	cfg.WeatherAPI.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", "")
	cfg.WeatherAPI.OpenWeatherURL = getEnv("OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5")
	cfg.WeatherAPI.OpenMeteoURL = getEnv("OPENMETEO_URL", "https://api.open-meteo.com/v1")
	cfg.WeatherAPI.GeocodingURL = getEnv("GEOCODING_URL", "https://geocoding-api.open-meteo.com/v1")
	cfg.WeatherAPI.WeatherAPIKey = getEnv("WEATHERAPI_KEY", "")
	cfg.WeatherAPI.WeatherAPIURL = getEnv("WEATHERAPI_URL", "https://api.weatherapi.com/v1")
	cfg.WeatherAPI.IPInfoURL = getEnv("IPINFO_URL", "https://ipinfo.io/json")
	cfg.WeatherAPI.ForecastCount = parseInt(getEnv("FORECAST_CNT", "8"))
	cfg.WeatherAPI.Timeout = parseDuration(getEnv("WEATHER_HTTP_TIMEOUT", "10s"))

	cfg.Location.Default = getEnv("DEFAULT_LOCATION", "")

	// LLM configuration. GEMINI_API_KEY is honoured for older .env files.
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", getEnv("GEMINI_API_KEY", ""))
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	cfg.LLM.Model = getEnv("LLM_MODEL", "gemini-1.5-flash")
	cfg.LLM.Temperature = parseFloat(getEnv("LLM_TEMPERATURE", "0.7"))

	cfg.Agent.MaxIterations = parseInt(getEnv("AGENT_MAX_ITERATIONS", "5"))
	cfg.Agent.HistoryLimit = parseInt(getEnv("AGENT_HISTORY_LIMIT", "5"))

	// Voice configuration
	cfg.Voice.ElevenLabsAPIKey = getEnv("ELEVENLABS_API_KEY", "")
	cfg.Voice.ElevenLabsURL = getEnv("ELEVENLABS_URL", "https://api.elevenlabs.io/v1")
	cfg.Voice.VoiceID = getEnv("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM") // Rachel
	cfg.Voice.Model = getEnv("ELEVENLABS_MODEL", "eleven_monolingual_v1")
	cfg.Voice.OutputPath = getEnv("VOICE_OUTPUT_PATH", "response.mp3")
	cfg.Voice.Player = getEnv("VOICE_PLAYER", "")

	// History configuration
	cfg.History.DBPath = getEnv("HISTORY_DB_PATH", "weather_history.db")
	cfg.History.Retention = parseDuration(getEnv("HISTORY_RETENTION", "720h"))
	cfg.History.PruneSchedule = getEnv("HISTORY_PRUNE_SCHEDULE", "@daily")

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Retry configuration
	cfg.Retry.MaxAttempts = parseInt(getEnv("MAX_ATTEMPTS", "2"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "500ms"))

	return cfg, nil
}

// LLMEnabled reports whether an LLM collaborator is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLM.APIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}
