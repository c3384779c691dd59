// Package interpreter turns a free-text weather question into a location
// token and a date token.
package interpreter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/bobby-s-dev/weather-agent/internal/models"
	"go.uber.org/zap"
)

// LocationExtractor asks an external model which place a query is about.
type LocationExtractor interface {
	ExtractLocation(ctx context.Context, text string) (string, error)
}

// Tagger finds place names in text.
type Tagger interface {
	Places(text string) ([]string, error)
}

// Locator resolves the caller's own city, e.g. from their IP address.
type Locator interface {
	Locate(ctx context.Context) (string, error)
}

type Interpreter struct {
	extractor LocationExtractor
	tagger    Tagger
	locator   Locator
	clock     clock.Clock
	logger    *zap.Logger
}

type Option func(*Interpreter)

func WithExtractor(e LocationExtractor) Option {
	return func(i *Interpreter) { i.extractor = e }
}

func WithTagger(t Tagger) Option {
	return func(i *Interpreter) { i.tagger = t }
}

func WithLocator(l Locator) Option {
	return func(i *Interpreter) { i.locator = l }
}

func WithClock(c clock.Clock) Option {
	return func(i *Interpreter) { i.clock = c }
}

func New(logger *zap.Logger, opts ...Option) *Interpreter {
	i := &Interpreter{
		clock:  clock.New(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret never fails: an unresolved location comes back empty and an
// unresolved date comes back as today.
func (i *Interpreter) Interpret(ctx context.Context, text string) (string, models.DateToken) {
	date := ResolveDate(text, i.clock.Now())

	location := i.MentionedLocation(ctx, text)
	if location == "" && i.locator != nil {
		location = i.tier("ip", func() (string, error) {
			return i.locator.Locate(ctx)
		})
	}

	i.logger.Debug("Interpreted query",
		zap.String("location", location),
		zap.String("date", date.String()))

	return location, date
}

// MentionedLocation only looks at the text itself and never falls back to
// the caller's own position.
func (i *Interpreter) MentionedLocation(ctx context.Context, text string) string {
	if location, ok := toolSyntaxLocation(text); ok {
		return location
	}

	if i.extractor != nil {
		if location := i.tier("llm", func() (string, error) {
			return i.extractor.ExtractLocation(ctx, text)
		}); location != "" {
			return location
		}
	}

	if i.tagger != nil {
		if location := i.tier("tagger", func() (string, error) {
			places, err := i.tagger.Places(text)
			if err != nil || len(places) == 0 {
				return "", err
			}
			return places[0], nil
		}); location != "" {
			return location
		}
	}

	return ""
}

// tier runs one resolution step; errors and panics count as "no answer".
func (i *Interpreter) tier(name string, fn func() (string, error)) (location string) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Warn("Location tier panicked",
				zap.String("tier", name),
				zap.String("panic", fmt.Sprint(r)))
			location = ""
		}
	}()

	result, err := fn()
	if err != nil {
		i.logger.Debug("Location tier gave no answer",
			zap.String("tier", name),
			zap.Error(err))
		return ""
	}
	return NormalizeLocation(result)
}

// NormalizeLocation lower-cases a place name and strips quotes and trailing
// punctuation. The literal "none" means no location.
func NormalizeLocation(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`.,!?;: \t\n")
	if s == "none" || s == "unknown" {
		return ""
	}
	return s
}

// A tool-syntax location is a bare place name, not a sentence.
const maxPlaceWords = 3

var (
	exactISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	questionWords = map[string]bool{
		"what": true, "what's": true, "whats": true, "how": true, "how's": true,
		"is": true, "will": true, "was": true, "does": true, "did": true,
		"weather": true,
	}
)

// toolSyntaxLocation handles the "location, date" form, e.g. "New York, today".
// Anything that reads like a question goes to the other tiers.
func toolSyntaxLocation(text string) (string, bool) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return "", false
	}

	date := strings.ToLower(strings.TrimSpace(parts[1]))
	if _, ok := models.ParseDateWord(date); !ok && !exactISODate.MatchString(date) {
		return "", false
	}

	location := NormalizeLocation(parts[0])
	if location == "" || !isPlaceName(location) {
		return "", false
	}
	return location, true
}

func isPlaceName(location string) bool {
	words := strings.Fields(location)
	if len(words) > maxPlaceWords {
		return false
	}
	for _, w := range words {
		if questionWords[w] {
			return false
		}
	}
	return true
}
