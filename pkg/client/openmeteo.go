package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/weather-agent/internal/models"
	"go.uber.org/zap"
)

// OpenMeteoClient is the keyless alternative to OpenWeather. Locations are
// resolved to coordinates with the Open-Meteo geocoding API first.
type OpenMeteoClient struct {
	*BaseClient
	baseURL      string
	geocodingURL string
}

type OpenMeteoGeocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
	} `json:"results"`
}

type OpenMeteoCurrentResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		Time                string  `json:"time"`
		Temperature2M       float64 `json:"temperature_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		RelativeHumidity2M  float64 `json:"relative_humidity_2m"`
		WindSpeed10M        float64 `json:"wind_speed_10m"`
		WeatherCode         int     `json:"weather_code"`
	} `json:"current"`
}

type OpenMeteoHourlyResponse struct {
	Hourly struct {
		Time                []string  `json:"time"`
		Temperature2M       []float64 `json:"temperature_2m"`
		ApparentTemperature []float64 `json:"apparent_temperature"`
		RelativeHumidity2M  []float64 `json:"relative_humidity_2m"`
		WindSpeed10M        []float64 `json:"wind_speed_10m"`
		WeatherCode         []int     `json:"weather_code"`
	} `json:"hourly"`
}

type place struct {
	name     string
	lat, lon float64
}

func NewOpenMeteoClient(baseURL, geocodingURL string, config ClientConfig, logger *zap.Logger) *OpenMeteoClient {
	baseClient := NewBaseClient("openmeteo", config, logger)
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1"
	}
	if geocodingURL == "" {
		geocodingURL = "https://geocoding-api.open-meteo.com/v1"
	}
	return &OpenMeteoClient{
		BaseClient:   baseClient,
		baseURL:      baseURL,
		geocodingURL: geocodingURL,
	}
}

func (c *OpenMeteoClient) geocode(ctx context.Context, location string) (*place, error) {
	params := url.Values{}
	params.Set("name", location)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	data, err := c.Get(ctx, c.geocodingURL+"/search", params)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", location, err)
	}

	var response OpenMeteoGeocodingResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse geocoding response: %v", models.ErrNetworkFailure, err)
	}
	if len(response.Results) == 0 {
		return nil, fmt.Errorf("%w: %q", models.ErrLocationUnresolved, location)
	}

	r := response.Results[0]
	return &place{name: displayName(r.Name, location), lat: r.Latitude, lon: r.Longitude}, nil
}

func (c *OpenMeteoClient) Current(ctx context.Context, location string) (*models.Snapshot, error) {
	p, err := c.geocode(ctx, location)
	if err != nil {
		return nil, err
	}

	params := p.params()
	params.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,weather_code")

	data, err := c.Get(ctx, c.baseURL+"/forecast", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	var response OpenMeteoCurrentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", models.ErrNetworkFailure, err)
	}

	return &models.Snapshot{
		Location:      p.name,
		Date:          c.Now().Format(models.DateLayout),
		TemperatureC:  response.Current.Temperature2M,
		FeelsLikeC:    response.Current.ApparentTemperature,
		HumidityPct:   response.Current.RelativeHumidity2M,
		WindSpeedMS:   response.Current.WindSpeed10M,
		ConditionText: weatherCodeToDescription(response.Current.WeatherCode),
		Source:        "open-meteo",
	}, nil
}

// Forecast scans hourly entries (local time of the location) for today+daysAhead.
func (c *OpenMeteoClient) Forecast(ctx context.Context, location string, daysAhead int) (*models.Snapshot, error) {
	p, err := c.geocode(ctx, location)
	if err != nil {
		return nil, err
	}

	params := p.params()
	params.Set("hourly", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,weather_code")
	params.Set("forecast_days", strconv.Itoa(daysAhead+1))

	data, err := c.Get(ctx, c.baseURL+"/forecast", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	var response OpenMeteoHourlyResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse forecast response: %v", models.ErrNetworkFailure, err)
	}

	target := c.Now().AddDate(0, 0, daysAhead).Format(models.DateLayout)
	h := response.Hourly
	for i, ts := range h.Time {
		if !strings.HasPrefix(ts, target) {
			continue
		}
		if i >= len(h.Temperature2M) || i >= len(h.ApparentTemperature) || i >= len(h.RelativeHumidity2M) ||
			i >= len(h.WindSpeed10M) || i >= len(h.WeatherCode) {
			break
		}
		return &models.Snapshot{
			Location:      p.name,
			Date:          target,
			TemperatureC:  h.Temperature2M[i],
			FeelsLikeC:    h.ApparentTemperature[i],
			HumidityPct:   h.RelativeHumidity2M[i],
			WindSpeedMS:   h.WindSpeed10M[i],
			ConditionText: weatherCodeToDescription(h.WeatherCode[i]),
			Source:        "open-meteo",
		}, nil
	}

	return nil, fmt.Errorf("%w: no forecast entry for %s", models.ErrNoData, target)
}

func (p *place) params() url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(p.lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(p.lon, 'f', 4, 64))
	params.Set("wind_speed_unit", "ms")
	params.Set("timezone", "auto")
	return params
}

func weatherCodeToDescription(code int) string {
	// WMO Weather interpretation codes
	weatherCodes := map[int]string{
		0:  "Clear sky",
		1:  "Mainly clear",
		2:  "Partly cloudy",
		3:  "Overcast",
		45: "Foggy",
		48: "Depositing rime fog",
		51: "Light drizzle",
		53: "Moderate drizzle",
		55: "Dense drizzle",
		56: "Light freezing drizzle",
		57: "Dense freezing drizzle",
		61: "Slight rain",
		63: "Moderate rain",
		65: "Heavy rain",
		66: "Light freezing rain",
		67: "Heavy freezing rain",
		71: "Slight snow fall",
		73: "Moderate snow fall",
		75: "Heavy snow fall",
		77: "Snow grains",
		80: "Slight rain showers",
		81: "Moderate rain showers",
		82: "Violent rain showers",
		85: "Slight snow showers",
		86: "Heavy snow showers",
		95: "Thunderstorm",
		96: "Thunderstorm with slight hail",
		99: "Thunderstorm with heavy hail",
	}

	if desc, ok := weatherCodes[code]; ok {
		return desc
	}
	return "Unknown"
}
