// Package cli implements the weather-agent terminal commands.
package cli

import (
	"github.com/bobby-s-dev/weather-agent/internal/app"
	"github.com/bobby-s-dev/weather-agent/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootFlagsDefinition struct {
	Debug bool
}

var rootFlags rootFlagsDefinition

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "weather-agent <command> [options]",
		Short:         "Ask about the weather in plain language.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().BoolVar(
		&rootFlags.Debug,
		"debug",
		false,
		"Enable debug logging",
	)

	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newChatCommand())

	return rootCmd
}

// newLogger keeps the terminal quiet unless --debug is given.
func newLogger() *zap.Logger {
	if rootFlags.Debug {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	return zap.NewNop()
}

func loadApp() (*app.App, *zap.Logger, error) {
	logger := newLogger()
	zap.ReplaceGlobals(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}
