package interpreter

import (
	"regexp"
	"time"

	"github.com/bobby-s-dev/weather-agent/internal/models"
)

var (
	dateKeywordPattern = regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday|now|current)\b`)
	isoDatePattern     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
)

// ResolveDate classifies the date mentioned in text relative to now.
// Keywords win over ISO dates; anything unrecognised is today.
func ResolveDate(text string, now time.Time) models.DateToken {
	if m := dateKeywordPattern.FindStringSubmatch(text); m != nil {
		token, _ := models.ParseDateWord(m[1])
		return token
	}

	for _, candidate := range isoDatePattern.FindAllString(text, -1) {
		if token, ok := ClassifyDate(candidate, now); ok {
			return token
		}
	}

	return models.DateToken{Kind: models.Today}
}

// ParseDate accepts either a relative date word or a YYYY-MM-DD date.
func ParseDate(value string, now time.Time) (models.DateToken, bool) {
	if token, ok := models.ParseDateWord(value); ok {
		return token, true
	}
	return ClassifyDate(value, now)
}

// ClassifyDate maps a YYYY-MM-DD date onto today/tomorrow/yesterday when it
// is adjacent to now, and onto an explicit token otherwise.
func ClassifyDate(value string, now time.Time) (models.DateToken, bool) {
	day, err := time.ParseInLocation(models.DateLayout, value, now.Location())
	if err != nil {
		return models.DateToken{}, false
	}

	date := day.Format(models.DateLayout)
	switch date {
	case now.Format(models.DateLayout):
		return models.DateToken{Kind: models.Today}, true
	case now.AddDate(0, 0, 1).Format(models.DateLayout):
		return models.DateToken{Kind: models.Tomorrow}, true
	case now.AddDate(0, 0, -1).Format(models.DateLayout):
		return models.DateToken{Kind: models.Yesterday}, true
	}
	return models.DateToken{Kind: models.Explicit, Date: date}, true
}
