package interpreter

import (
	"context"
	"errors"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubExtractor struct {
	location string
	err      error
	calls    int
}

func (s *stubExtractor) ExtractLocation(ctx context.Context, text string) (string, error) {
	s.calls++
	return s.location, s.err
}

type stubTagger struct {
	places []string
	panics bool
}

func (s stubTagger) Places(text string) ([]string, error) {
	if s.panics {
		panic("tagger model missing")
	}
	return s.places, nil
}

type stubLocator struct {
	city string
	err  error
}

func (s stubLocator) Locate(ctx context.Context) (string, error) {
	return s.city, s.err
}

func newMockClock() *clock.Mock {
	c := clock.NewMock()
	c.Set(fixedNow)
	return c
}

func TestInterpretToolSyntax(t *testing.T) {
	extractor := &stubExtractor{location: "london"}
	i := New(zap.NewNop(), WithExtractor(extractor), WithClock(newMockClock()))

	location, date := i.Interpret(context.Background(), "New York, today")
	assert.Equal(t, "new york", location)
	assert.Equal(t, models.Today, date.Kind)
	assert.Zero(t, extractor.calls)
}

func TestInterpretQuestionWithCommaUsesExtractor(t *testing.T) {
	extractor := &stubExtractor{location: "london"}
	i := New(zap.NewNop(), WithExtractor(extractor), WithClock(newMockClock()))

	location, date := i.Interpret(context.Background(), "What's the weather in London, tomorrow")
	assert.Equal(t, "london", location)
	assert.Equal(t, models.Tomorrow, date.Kind)
	assert.Equal(t, 1, extractor.calls)
}

func TestInterpretUsesExtractorFirst(t *testing.T) {
	i := New(zap.NewNop(),
		WithExtractor(&stubExtractor{location: "  \"Paris.\" "}),
		WithTagger(stubTagger{places: []string{"rome"}}),
		WithClock(newMockClock()))

	location, date := i.Interpret(context.Background(), "Will it rain in Paris tomorrow?")
	assert.Equal(t, "paris", location)
	assert.Equal(t, models.Tomorrow, date.Kind)
}

func TestInterpretFallsThroughTiers(t *testing.T) {
	i := New(zap.NewNop(),
		WithExtractor(&stubExtractor{err: errors.New("quota exceeded")}),
		WithTagger(stubTagger{places: []string{"rome", "milan"}}),
		WithLocator(stubLocator{city: "berlin"}),
		WithClock(newMockClock()))

	location, _ := i.Interpret(context.Background(), "weather in Rome and Milan")
	assert.Equal(t, "rome", location)
}

func TestInterpretPanickingTierIsSkipped(t *testing.T) {
	i := New(zap.NewNop(),
		WithExtractor(&stubExtractor{location: "none"}),
		WithTagger(stubTagger{panics: true}),
		WithLocator(stubLocator{city: "berlin"}),
		WithClock(newMockClock()))

	location, date := i.Interpret(context.Background(), "how is the weather")
	assert.Equal(t, "berlin", location)
	assert.Equal(t, models.Today, date.Kind)
}

func TestInterpretUnresolved(t *testing.T) {
	i := New(zap.NewNop(),
		WithLocator(stubLocator{err: models.ErrLocationUnresolved}),
		WithClock(newMockClock()))

	location, date := i.Interpret(context.Background(), "is it sunny?")
	assert.Empty(t, location)
	assert.Equal(t, models.Today, date.Kind)
}

func TestMentionedLocationIgnoresLocator(t *testing.T) {
	i := New(zap.NewNop(), WithLocator(stubLocator{city: "berlin"}))
	assert.Empty(t, i.MentionedLocation(context.Background(), "is it sunny?"))
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "new york", NormalizeLocation(" New York! "))
	assert.Equal(t, "são paulo", NormalizeLocation("'São Paulo'"))
	assert.Empty(t, NormalizeLocation("None"))
	assert.Empty(t, NormalizeLocation("unknown."))
	assert.Empty(t, NormalizeLocation("   "))
}

func TestToolSyntaxLocation(t *testing.T) {
	location, ok := toolSyntaxLocation("Tokyo, 2024-01-01")
	assert.True(t, ok)
	assert.Equal(t, "tokyo", location)

	_, ok = toolSyntaxLocation("Paris, France")
	assert.False(t, ok)

	_, ok = toolSyntaxLocation("a, b, today")
	assert.False(t, ok)

	location, ok = toolSyntaxLocation("Rio de Janeiro, Tomorrow")
	assert.True(t, ok)
	assert.Equal(t, "rio de janeiro", location)

	for _, text := range []string{
		"Paris, sometime after 2024-01-01 maybe",
		"Paris, 2024-01-01 or so",
		"how is it in Oslo, today",
		"is it cold, today",
		"please check the forecast for Lima, today",
	} {
		_, ok = toolSyntaxLocation(text)
		assert.False(t, ok, text)
	}
}
