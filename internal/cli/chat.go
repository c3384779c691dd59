package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/bobby-s-dev/weather-agent/internal/voice"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type chatFlags struct {
	voice bool
}

type responder interface {
	Respond(ctx context.Context, message string) string
}

type speaker interface {
	Speak(ctx context.Context, text string) error
}

type chatSaver interface {
	SaveChat(ctx context.Context, chatID, name string, messages []models.ChatMessage) error
}

func newChatCommand() *cobra.Command {
	flags := &chatFlags{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive weather conversation. Type exit to quit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			s := &session{
				responder: a,
				chats:     a.History,
				out:       cmd.OutOrStdout(),
				logger:    logger,
			}
			if flags.voice {
				if a.Speaker == nil {
					color.Yellow("⚠️ ELEVENLABS_API_KEY is not set, voice output is disabled")
				} else {
					s.speaker = a.Speaker
				}
			}

			return s.run(cmd.Context(), voice.NewListener(cmd.InOrStdin()))
		},
	}

	cmd.Flags().BoolVar(&flags.voice, "voice", false, "Speak replies aloud")

	return cmd
}

// session is one REPL conversation, saved as a chat transcript after every turn.
type session struct {
	responder responder
	speaker   speaker
	chats     chatSaver
	out       io.Writer
	logger    *zap.Logger

	id       string
	name     string
	messages []models.ChatMessage
}

func (s *session) run(ctx context.Context, listener *voice.Listener) error {
	s.id = uuid.NewString()
	prompt := color.New(color.FgCyan, color.Bold)
	agentLabel := color.New(color.FgGreen, color.Bold)

	fmt.Fprintln(s.out, "Ask me about the weather. Type exit to quit.")

	for {
		prompt.Fprint(s.out, "You: ")

		text, err := listener.Listen()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if errors.Is(err, voice.ErrNotUnderstood) {
			fmt.Fprintln(s.out, "Sorry, I didn't catch that.")
			continue
		}
		if err != nil {
			return err
		}

		if strings.EqualFold(text, "exit") || strings.EqualFold(text, "quit") {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}

		reply := s.turn(ctx, text)
		agentLabel.Fprint(s.out, "Agent: ")
		fmt.Fprintln(s.out, reply)

		if s.speaker != nil {
			if err := s.speaker.Speak(ctx, reply); err != nil {
				color.New(color.FgYellow).Fprintf(s.out, "⚠️ Voice output failed: %v\n", err)
			}
		}
	}
}

func (s *session) turn(ctx context.Context, text string) string {
	if s.name == "" {
		s.name = text
	}
	s.messages = append(s.messages, models.ChatMessage{Role: "user", Content: text, Timestamp: time.Now()})

	reply := s.responder.Respond(ctx, text)
	s.messages = append(s.messages, models.ChatMessage{Role: "assistant", Content: reply, Timestamp: time.Now()})

	if s.chats != nil {
		if err := s.chats.SaveChat(ctx, s.id, s.name, s.messages); err != nil {
			s.logger.Warn("Failed to save chat", zap.String("chat_id", s.id), zap.Error(err))
		}
	}
	return reply
}
