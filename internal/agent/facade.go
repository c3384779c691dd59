// Package agent runs the tool-calling conversation with the language model.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/bobby-s-dev/weather-agent/internal/sentiment"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const (
	minIterations     = 3
	maxIterations     = 5
	defaultHistoryCap = 5
)

const systemPrompt = `You are a friendly weather assistant.
Use the get_weather tool to look up weather. Call it with a location and a date, where the date
is "today", "tomorrow", "yesterday" or a past date formatted YYYY-MM-DD.
Answer the user in plain sentences using the tool output.`

type State int

const (
	StateIdle State = iota
	StateAwaitingToolResult
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingToolResult:
		return "awaiting_tool_result"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// WeatherLookup answers an already interpreted query.
type WeatherLookup interface {
	Lookup(ctx context.Context, location string, date models.DateToken) string
}

// History is the slice of the history store the agent needs.
type History interface {
	Save(ctx context.Context, query, response, location, date string) error
	Recent(ctx context.Context, location string, limit int) ([]models.QueryRecord, error)
}

// LocationFinder picks the place a prompt mentions, if any.
type LocationFinder interface {
	MentionedLocation(ctx context.Context, text string) string
}

// Outcome is the result of one Run.
type Outcome struct {
	Text        string
	State       State
	Invocations int
}

type Facade struct {
	model         llms.Model
	weather       WeatherLookup
	history       History
	locations     LocationFinder
	clock         clock.Clock
	maxIterations int
	historyLimit  int
	logger        *zap.Logger
}

type Option func(*Facade)

func WithHistory(h History, limit int) Option {
	return func(f *Facade) {
		f.history = h
		if limit > 0 {
			f.historyLimit = limit
		}
	}
}

func WithLocationFinder(l LocationFinder) Option {
	return func(f *Facade) { f.locations = l }
}

func WithClock(c clock.Clock) Option {
	return func(f *Facade) { f.clock = c }
}

// WithMaxIterations bounds tool invocations per run; values are clamped to 3..5.
func WithMaxIterations(n int) Option {
	return func(f *Facade) { f.maxIterations = clampIterations(n) }
}

func NewFacade(model llms.Model, weather WeatherLookup, logger *zap.Logger, opts ...Option) *Facade {
	f := &Facade{
		model:         model,
		weather:       weather,
		clock:         clock.New(),
		maxIterations: maxIterations,
		historyLimit:  defaultHistoryCap,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func clampIterations(n int) int {
	if n < minIterations {
		return minIterations
	}
	if n > maxIterations {
		return maxIterations
	}
	return n
}

// Run answers prompt. Failures come back as a "⚠️ Error:" message.
func (f *Facade) Run(ctx context.Context, prompt string) string {
	return f.Execute(ctx, prompt).Text
}

// Execute drives one conversation from idle to done or failed.
func (f *Facade) Execute(ctx context.Context, prompt string) Outcome {
	r := &run{facade: f, state: StateIdle}
	text, err := r.loop(ctx, prompt)
	if err != nil {
		r.state = StateFailed
		f.logger.Warn("Agent run failed",
			zap.Int("invocations", r.invocations),
			zap.Error(err))
		return Outcome{Text: errorText(err), State: r.state, Invocations: r.invocations}
	}

	r.state = StateDone
	emoji := sentiment.Emoji(sentiment.Polarity(prompt))
	return Outcome{Text: emoji + " " + text, State: r.state, Invocations: r.invocations}
}

func errorText(err error) string {
	return "⚠️ Error: " + err.Error()
}

// run holds the per-conversation state so a Facade can serve callers concurrently.
type run struct {
	facade      *Facade
	state       State
	invocations int
}

func (r *run) loop(ctx context.Context, prompt string) (string, error) {
	f := r.facade

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
	}
	if history := f.historyContext(ctx, prompt); history != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, history))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	for {
		resp, err := f.model.GenerateContent(ctx, messages, llms.WithTools(tools))
		if err != nil {
			return "", fmt.Errorf("%w: %v", models.ErrUpstream, err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%w: empty model response", models.ErrUpstream)
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			return strings.TrimSpace(choice.Content), nil
		}

		aiMessage := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMessage.Parts = append(aiMessage.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, call := range choice.ToolCalls {
			aiMessage.Parts = append(aiMessage.Parts, call)
		}
		messages = append(messages, aiMessage)

		for _, call := range choice.ToolCalls {
			if r.invocations >= f.maxIterations {
				return "", fmt.Errorf("%w: sorry, I could not finish answering within %d tool calls",
					models.ErrAgentIterationExhausted, f.maxIterations)
			}
			r.invocations++
			r.state = StateAwaitingToolResult

			result, err := f.invoke(ctx, call)
			if err != nil {
				return "", err
			}

			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: call.ID,
					Name:       call.FunctionCall.Name,
					Content:    result,
				}},
			})
		}
	}
}

func (f *Facade) invoke(ctx context.Context, call llms.ToolCall) (string, error) {
	if call.FunctionCall == nil || call.FunctionCall.Name != weatherToolName {
		name := ""
		if call.FunctionCall != nil {
			name = call.FunctionCall.Name
		}
		return "", fmt.Errorf("unknown tool %q", name)
	}

	args, ok := parseWeatherArgs(call.FunctionCall.Arguments, f.clock.Now())
	if !ok {
		f.logger.Debug("Invalid tool arguments", zap.String("arguments", call.FunctionCall.Arguments))
		return MsgInvalidToolArgs, nil
	}

	result := f.weather.Lookup(ctx, args.location, args.date)
	f.logger.Info("Tool invoked",
		zap.String("tool", weatherToolName),
		zap.String("location", args.location),
		zap.String("date", args.date.String()))

	if f.history != nil {
		if err := f.history.Save(ctx, args.raw, result, args.location, args.date.String()); err != nil {
			f.logger.Warn("Failed to record tool result", zap.Error(err))
		}
	}
	return result, nil
}

func (f *Facade) historyContext(ctx context.Context, prompt string) string {
	if f.history == nil || f.locations == nil {
		return ""
	}

	location := f.locations.MentionedLocation(ctx, prompt)
	if location == "" {
		return ""
	}

	records, err := f.history.Recent(ctx, location, f.historyLimit)
	if err != nil {
		f.logger.Warn("Failed to load history context", zap.String("location", location), zap.Error(err))
		return ""
	}
	return FormatHistory(records)
}

// FormatHistory renders previous exchanges as model context.
func FormatHistory(records []models.QueryRecord) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Previous interactions about this location:\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "- You asked: '%s' on %s\n", rec.Query, rec.Timestamp.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "  I responded: '%s'\n\n", rec.Response)
	}
	return b.String()
}
