package client

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// WeatherAPIClient serves historical readings from WeatherAPI.com. The
// primary providers' free tiers have no history, hence the separate key.
type WeatherAPIClient struct {
	*BaseClient
	apiKey  string
	baseURL string
}

func NewWeatherAPIClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *WeatherAPIClient {
	baseClient := NewBaseClient("weatherapi", config, logger)
	if baseURL == "" {
		baseURL = "https://api.weatherapi.com/v1"
	}
	return &WeatherAPIClient{
		BaseClient: baseClient,
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// Historical returns the daily summary for date (YYYY-MM-DD). Dates that are
// today or later are rejected before any request is made.
func (c *WeatherAPIClient) Historical(ctx context.Context, location, date string) (*models.Snapshot, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	today := c.Now().Format(models.DateLayout)
	if day.Format(models.DateLayout) >= today {
		return nil, models.ErrDateNotPast
	}

	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi key is not configured", models.ErrUpstream)
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", location)
	params.Set("dt", date)

	data, err := c.Get(ctx, c.baseURL+"/history.json", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical weather: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid history payload", models.ErrNetworkFailure)
	}

	summary := gjson.GetBytes(data, "forecast.forecastday.0.day")
	if !summary.Exists() {
		return nil, fmt.Errorf("%w: no history for %s on %s", models.ErrNoData, location, date)
	}

	avgTemp := summary.Get("avgtemp_c").Float()
	feelsLike := avgTemp
	if hours := gjson.GetBytes(data, "forecast.forecastday.0.hour.#.feelslike_c").Array(); len(hours) > 0 {
		var total float64
		for _, h := range hours {
			total += h.Float()
		}
		feelsLike = round1(total / float64(len(hours)))
	}

	return &models.Snapshot{
		Location:      displayName(gjson.GetBytes(data, "location.name").String(), location),
		Date:          date,
		TemperatureC:  avgTemp,
		FeelsLikeC:    feelsLike,
		HumidityPct:   summary.Get("avghumidity").Float(),
		WindSpeedMS:   round1(summary.Get("maxwind_kph").Float() / 3.6),
		ConditionText: summary.Get("condition.text").String(),
		Source:        "weatherapi",
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
