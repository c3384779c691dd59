package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-agent/internal/interpreter"
	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/tidwall/gjson"
	"github.com/tmc/langchaingo/llms"
)

const weatherToolName = "get_weather"

const MsgInvalidToolArgs = "Please specify both location and date (today/tomorrow/yesterday)"

var tools = []llms.Tool{
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name: weatherToolName,
			Description: "Useful for getting weather information for one location on one date. " +
				"Example: location \"New York\", date \"today\".",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "City or place name",
					},
					"date": map[string]any{
						"type":        "string",
						"description": "today, tomorrow, yesterday or a past date as YYYY-MM-DD",
					},
				},
				"required": []string{"location", "date"},
			},
		},
	},
}

type weatherArgs struct {
	location string
	date     models.DateToken
	raw      string
}

// parseWeatherArgs accepts the JSON arguments of a get_weather call. A single
// "input" string in "location, date" form is accepted as well.
func parseWeatherArgs(arguments string, now time.Time) (weatherArgs, bool) {
	if !gjson.Valid(arguments) {
		return weatherArgs{}, false
	}

	parsed := gjson.Parse(arguments)
	location := parsed.Get("location").String()
	date := parsed.Get("date").String()

	if input := parsed.Get("input"); location == "" && input.Exists() {
		parts := strings.Split(input.String(), ",")
		if len(parts) != 2 {
			return weatherArgs{}, false
		}
		location, date = parts[0], parts[1]
	}

	location = interpreter.NormalizeLocation(location)
	date = strings.TrimSpace(date)
	if location == "" || date == "" {
		return weatherArgs{}, false
	}

	token, ok := interpreter.ParseDate(date, now)
	if !ok {
		return weatherArgs{}, false
	}

	return weatherArgs{
		location: location,
		date:     token,
		raw:      fmt.Sprintf("%s, %s", location, date),
	}, true
}
