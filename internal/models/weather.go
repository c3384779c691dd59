package models

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrNetworkFailure          = errors.New("network failure")
	ErrNoData                  = errors.New("no matching weather data")
	ErrLocationUnresolved      = errors.New("location could not be resolved")
	ErrAgentIterationExhausted = errors.New("agent did not converge")
	ErrUpstream                = errors.New("upstream service error")
	ErrDateNotPast             = errors.New("historical date must be in the past")
)

type DateKind int

const (
	Today DateKind = iota
	Tomorrow
	Yesterday
	Explicit
)

func (k DateKind) String() string {
	switch k {
	case Tomorrow:
		return "tomorrow"
	case Yesterday:
		return "yesterday"
	case Explicit:
		return "explicit"
	default:
		return "today"
	}
}

// DateToken is the date classification of a query. The zero value is today.
type DateToken struct {
	Kind DateKind
	Date string // YYYY-MM-DD, set only for Explicit
}

func (d DateToken) String() string {
	if d.Kind == Explicit {
		return d.Date
	}
	return d.Kind.String()
}

// ParseDateWord maps a relative date word to its token.
func ParseDateWord(word string) (DateToken, bool) {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "today", "now", "current":
		return DateToken{Kind: Today}, true
	case "tomorrow":
		return DateToken{Kind: Tomorrow}, true
	case "yesterday":
		return DateToken{Kind: Yesterday}, true
	}
	return DateToken{}, false
}

// Snapshot is a normalized reading for one location and day.
type Snapshot struct {
	Location      string  `json:"location"`
	Date          string  `json:"date"`
	TemperatureC  float64 `json:"temperature_c"`
	FeelsLikeC    float64 `json:"feels_like_c"`
	HumidityPct   float64 `json:"humidity_pct"`
	WindSpeedMS   float64 `json:"wind_speed_ms"`
	ConditionText string  `json:"condition_text"`
	Source        string  `json:"source"`
}

type QueryRecord struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Query          string    `json:"query"`
	Response       string    `json:"response"`
	Location       string    `json:"location"`
	DateRequested  string    `json:"date_requested"`
	SentimentScore float64   `json:"sentiment_score"`
	SentimentLabel string    `json:"sentiment_label"`
}

type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Chat struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Messages  []ChatMessage `json:"messages"`
	UpdatedAt time.Time     `json:"updated_at"`
}
