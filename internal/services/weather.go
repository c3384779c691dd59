package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bobby-s-dev/weather-agent/internal/formatter"
	"github.com/bobby-s-dev/weather-agent/internal/models"
	"go.uber.org/zap"
)

const (
	MsgLocationUnresolved = "I couldn't tell which location you mean. Please specify a valid location."
	MsgHistoricalRejected = "Historical weather is only available for past dates."
)

type WeatherProvider interface {
	Current(ctx context.Context, location string) (*models.Snapshot, error)
	Forecast(ctx context.Context, location string, daysAhead int) (*models.Snapshot, error)
}

type HistoricalProvider interface {
	Historical(ctx context.Context, location, date string) (*models.Snapshot, error)
}

type Interpreter interface {
	Interpret(ctx context.Context, text string) (string, models.DateToken)
}

// Recorder persists answered queries.
type Recorder interface {
	Save(ctx context.Context, query, response, location, date string) error
}

// Result is one answered query.
type Result struct {
	Query    string           `json:"query"`
	Text     string           `json:"text"`
	Location string           `json:"location"`
	Date     models.DateToken `json:"-"`
}

// WeatherService is the query pipeline: interpret, dispatch to a provider,
// format. It never returns an error; every failure becomes text.
type WeatherService struct {
	provider    WeatherProvider
	historical  HistoricalProvider
	interpreter Interpreter
	recorder    Recorder
	clock       clock.Clock
	logger      *zap.Logger

	mu            sync.RWMutex
	lastQueryTime time.Time
	successCount  int
	failureCount  int
}

func NewWeatherService(provider WeatherProvider, historical HistoricalProvider, interpreter Interpreter, clk clock.Clock, logger *zap.Logger) *WeatherService {
	if clk == nil {
		clk = clock.New()
	}
	return &WeatherService{
		provider:    provider,
		historical:  historical,
		interpreter: interpreter,
		clock:       clk,
		logger:      logger,
	}
}

// SetRecorder enables history recording for Answer.
func (s *WeatherService) SetRecorder(r Recorder) {
	s.recorder = r
}

// Answer runs the whole pipeline for a free-text query.
func (s *WeatherService) Answer(ctx context.Context, query string) Result {
	location, date := s.interpreter.Interpret(ctx, query)
	text := s.Lookup(ctx, location, date)

	if s.recorder != nil && location != "" {
		if err := s.recorder.Save(ctx, query, text, location, date.String()); err != nil {
			s.logger.Warn("Failed to record query", zap.Error(err))
		}
	}

	return Result{Query: query, Text: text, Location: location, Date: date}
}

// Lookup fetches and formats the weather for an already interpreted query.
func (s *WeatherService) Lookup(ctx context.Context, location string, date models.DateToken) string {
	s.mu.Lock()
	s.lastQueryTime = s.clock.Now()
	s.mu.Unlock()

	if location == "" {
		s.recordOutcome(false)
		return MsgLocationUnresolved
	}

	snapshot, err := s.Fetch(ctx, location, date)
	if err != nil {
		s.recordOutcome(false)
		s.logger.Warn("Failed to fetch weather",
			zap.String("location", location),
			zap.String("date", date.String()),
			zap.Error(err))

		switch {
		case errors.Is(err, models.ErrDateNotPast):
			return MsgHistoricalRejected
		case errors.Is(err, models.ErrLocationUnresolved):
			return MsgLocationUnresolved
		}
		return formatter.Format(nil, date)
	}

	s.recordOutcome(true)
	return formatter.Format(snapshot, date)
}

// Fetch dispatches to the provider call that serves date.
func (s *WeatherService) Fetch(ctx context.Context, location string, date models.DateToken) (*models.Snapshot, error) {
	switch date.Kind {
	case models.Tomorrow:
		return s.provider.Forecast(ctx, location, 1)
	case models.Yesterday:
		return s.fetchHistorical(ctx, location, s.clock.Now().AddDate(0, 0, -1).Format(models.DateLayout))
	case models.Explicit:
		return s.fetchHistorical(ctx, location, date.Date)
	default:
		return s.provider.Current(ctx, location)
	}
}

func (s *WeatherService) fetchHistorical(ctx context.Context, location, date string) (*models.Snapshot, error) {
	if s.historical == nil {
		return nil, models.ErrUpstream
	}
	return s.historical.Historical(ctx, location, date)
}

func (s *WeatherService) recordOutcome(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.successCount++
	} else {
		s.failureCount++
	}
}

func (s *WeatherService) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"last_query_time": s.lastQueryTime,
		"success_count":   s.successCount,
		"failure_count":   s.failureCount,
	}
}
