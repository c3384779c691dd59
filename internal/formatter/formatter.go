// Package formatter renders weather snapshots as the fixed text templates
// shown to users, and parses the historical template back.
package formatter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bobby-s-dev/weather-agent/internal/models"
)

// ErrorMarker prefixes historical failure messages.
const ErrorMarker = "Error:"

const (
	MsgNoCurrentData    = "Could not retrieve weather data."
	MsgNoForecastData   = "No forecast data available for tomorrow."
	MsgNoYesterdayData  = "No weather data available for yesterday."
	MsgNoHistoricalData = ErrorMarker + " no historical weather data available."
)

var historicalPattern = regexp.MustCompile(
	`^Historical weather for (.+) on (\d{4}-\d{2}-\d{2}):\n` +
		`- Condition: (.*)\n` +
		`- Temperature: (-?[0-9.]+)°C \(feels like (-?[0-9.]+)°C\)\n` +
		`- Humidity: (-?[0-9.]+)%\n` +
		`- Wind: (-?[0-9.]+) m/s$`)

// Format renders snapshot with the template for token. A nil or empty
// snapshot yields the fixed "no data" message for that token.
func Format(snapshot *models.Snapshot, token models.DateToken) string {
	if snapshot == nil || *snapshot == (models.Snapshot{}) {
		return noDataMessage(token)
	}

	location := displayName(snapshot.Location)

	var header string
	switch token.Kind {
	case models.Tomorrow:
		header = fmt.Sprintf("Weather forecast for %s tomorrow:", location)
	case models.Yesterday:
		header = fmt.Sprintf("Weather for %s yesterday:", location)
	case models.Explicit:
		date := snapshot.Date
		if date == "" {
			date = token.Date
		}
		header = fmt.Sprintf("Historical weather for %s on %s:", location, date)
	default:
		header = fmt.Sprintf("Weather in %s:", location)
	}

	return header + "\n" +
		"- Condition: " + capitalize(snapshot.ConditionText) + "\n" +
		"- Temperature: " + number(snapshot.TemperatureC) + "°C (feels like " + number(snapshot.FeelsLikeC) + "°C)\n" +
		"- Humidity: " + number(snapshot.HumidityPct) + "%\n" +
		"- Wind: " + number(snapshot.WindSpeedMS) + " m/s"
}

// ParseHistorical extracts the fields of a historical report produced by
// Format. It returns false for error messages and for text that does not
// match the template.
func ParseHistorical(text string) (map[string]string, bool) {
	if strings.HasPrefix(text, ErrorMarker) {
		return nil, false
	}

	m := historicalPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	return map[string]string{
		"city":        m[1],
		"date":        m[2],
		"condition":   m[3],
		"temperature": m[4],
		"feels_like":  m[5],
		"humidity":    m[6],
		"wind_speed":  m[7],
	}, true
}

func noDataMessage(token models.DateToken) string {
	switch token.Kind {
	case models.Tomorrow:
		return MsgNoForecastData
	case models.Yesterday:
		return MsgNoYesterdayData
	case models.Explicit:
		return MsgNoHistoricalData
	default:
		return MsgNoCurrentData
	}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func displayName(location string) string {
	if location == "" {
		return "Unknown location"
	}
	return location
}
