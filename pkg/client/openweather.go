package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/bobby-s-dev/weather-agent/internal/models"
	"go.uber.org/zap"
)

type OpenWeatherClient struct {
	*BaseClient
	apiKey        string
	baseURL       string
	forecastCount int
}

type owCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

type owMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  float64 `json:"humidity"`
	Pressure  float64 `json:"pressure"`
}

type owWind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

type OpenWeatherCurrentResponse struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []owCondition `json:"weather"`
	Main    owMain        `json:"main"`
	Wind    owWind        `json:"wind"`
	Dt      int64         `json:"dt"`
	Name    string        `json:"name"`
}

type OpenWeatherForecastResponse struct {
	Cnt  int `json:"cnt"`
	List []struct {
		Dt      int64         `json:"dt"`
		Main    owMain        `json:"main"`
		Weather []owCondition `json:"weather"`
		Wind    owWind        `json:"wind"`
		DtTxt   string        `json:"dt_txt"`
	} `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

func NewOpenWeatherClient(apiKey, baseURL string, forecastCount int, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	baseClient := NewBaseClient("openweather", config, logger)
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	if forecastCount <= 0 {
		forecastCount = 8
	}
	return &OpenWeatherClient{
		BaseClient:    baseClient,
		apiKey:        apiKey,
		baseURL:       baseURL,
		forecastCount: forecastCount,
	}
}

func (c *OpenWeatherClient) Current(ctx context.Context, location string) (*models.Snapshot, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	data, err := c.Get(ctx, c.baseURL+"/weather", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	var response OpenWeatherCurrentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", models.ErrNetworkFailure, err)
	}

	return &models.Snapshot{
		Location:      displayName(response.Name, location),
		Date:          c.Now().Format(models.DateLayout),
		TemperatureC:  response.Main.Temp,
		FeelsLikeC:    response.Main.FeelsLike,
		HumidityPct:   response.Main.Humidity,
		WindSpeedMS:   response.Wind.Speed,
		ConditionText: firstDescription(response.Weather),
		Source:        "openweathermap",
	}, nil
}

// Forecast returns the first 3-hour entry that falls on today+daysAhead.
func (c *OpenWeatherClient) Forecast(ctx context.Context, location string, daysAhead int) (*models.Snapshot, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	params.Set("cnt", strconv.Itoa(c.forecastCount))

	data, err := c.Get(ctx, c.baseURL+"/forecast", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	var response OpenWeatherForecastResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse forecast response: %v", models.ErrNetworkFailure, err)
	}

	now := c.Now()
	target := now.AddDate(0, 0, daysAhead).Format(models.DateLayout)

	name := displayName(response.City.Name, location)

	for _, item := range response.List {
		if time.Unix(item.Dt, 0).In(now.Location()).Format(models.DateLayout) != target {
			continue
		}
		return &models.Snapshot{
			Location:      name,
			Date:          target,
			TemperatureC:  item.Main.Temp,
			FeelsLikeC:    item.Main.FeelsLike,
			HumidityPct:   item.Main.Humidity,
			WindSpeedMS:   item.Wind.Speed,
			ConditionText: firstDescription(item.Weather),
			Source:        "openweathermap",
		}, nil
	}

	c.logger.Debug("No forecast entry for target date",
		zap.String("location", location),
		zap.String("target", target),
		zap.Int("entries", len(response.List)))

	return nil, fmt.Errorf("%w: no forecast entry for %s", models.ErrNoData, target)
}

func firstDescription(conditions []owCondition) string {
	if len(conditions) == 0 {
		return ""
	}
	return conditions[0].Description
}
