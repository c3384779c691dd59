package formatter

import (
	"testing"

	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Location:      "New York",
		Date:          "2024-05-01",
		TemperatureC:  20,
		FeelsLikeC:    19,
		HumidityPct:   50,
		WindSpeedMS:   3,
		ConditionText: "clear sky",
	}
}

func TestFormatHeaders(t *testing.T) {
	tests := []struct {
		name   string
		token  models.DateToken
		header string
	}{
		{"today", models.DateToken{Kind: models.Today}, "Weather in New York:"},
		{"tomorrow", models.DateToken{Kind: models.Tomorrow}, "Weather forecast for New York tomorrow:"},
		{"yesterday", models.DateToken{Kind: models.Yesterday}, "Weather for New York yesterday:"},
		{"explicit", models.DateToken{Kind: models.Explicit, Date: "2024-05-01"}, "Historical weather for New York on 2024-05-01:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(sampleSnapshot(), tt.token)
			expected := tt.header + "\n" +
				"- Condition: Clear sky\n" +
				"- Temperature: 20°C (feels like 19°C)\n" +
				"- Humidity: 50%\n" +
				"- Wind: 3 m/s"
			assert.Equal(t, expected, got)
		})
	}
}

func TestFormatNoData(t *testing.T) {
	assert.Equal(t, MsgNoCurrentData, Format(nil, models.DateToken{Kind: models.Today}))
	assert.Equal(t, MsgNoForecastData, Format(nil, models.DateToken{Kind: models.Tomorrow}))
	assert.Equal(t, MsgNoYesterdayData, Format(nil, models.DateToken{Kind: models.Yesterday}))
	assert.Equal(t, MsgNoHistoricalData, Format(&models.Snapshot{}, models.DateToken{Kind: models.Explicit, Date: "2024-01-01"}))
}

func TestFormatDecimalsAndUnknownLocation(t *testing.T) {
	snapshot := &models.Snapshot{
		TemperatureC:  -2.5,
		FeelsLikeC:    -6.25,
		HumidityPct:   81,
		WindSpeedMS:   4.2,
		ConditionText: "LIGHT SNOW",
	}

	got := Format(snapshot, models.DateToken{})
	assert.Contains(t, got, "Weather in Unknown location:")
	assert.Contains(t, got, "- Condition: Light snow")
	assert.Contains(t, got, "-2.5°C (feels like -6.25°C)")
	assert.Contains(t, got, "- Wind: 4.2 m/s")
}

func TestHistoricalRoundTrip(t *testing.T) {
	snapshot := &models.Snapshot{
		Location:      "Paris",
		Date:          "2024-01-15",
		TemperatureC:  5.5,
		FeelsLikeC:    -1.2,
		HumidityPct:   80,
		WindSpeedMS:   4.2,
		ConditionText: "light rain",
	}

	text := Format(snapshot, models.DateToken{Kind: models.Explicit, Date: "2024-01-15"})
	fields, ok := ParseHistorical(text)
	require.True(t, ok, text)

	assert.Equal(t, map[string]string{
		"city":        "Paris",
		"date":        "2024-01-15",
		"condition":   "Light rain",
		"temperature": "5.5",
		"feels_like":  "-1.2",
		"humidity":    "80",
		"wind_speed":  "4.2",
	}, fields)
}

func TestParseHistoricalRejects(t *testing.T) {
	_, ok := ParseHistorical(MsgNoHistoricalData)
	assert.False(t, ok)

	_, ok = ParseHistorical(Format(sampleSnapshot(), models.DateToken{Kind: models.Today}))
	assert.False(t, ok)

	_, ok = ParseHistorical("")
	assert.False(t, ok)
}
