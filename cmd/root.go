package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codepulse/internal/app"
	"github.com/fakeyudi/codepulse/internal/config"
	"github.com/fakeyudi/codepulse/internal/notify"
	"github.com/fakeyudi/codepulse/internal/report"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// logger is the process logger, configured in PersistentPreRunE.
var logger = slog.Default()

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "codepulse",
	Short:         "Passively measure coding time and summarize how you code",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		// Load and merge config files.
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openApp builds the application context for a one-shot command.
func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, app.Options{
		Config: cfg,
		Logger: logger,
		Warner: notify.New(cfg.Notifications(), logger),
	})
}

// renderer returns a report renderer for the command's output, styled only
// when stdout is a terminal.
func renderer(cmd *cobra.Command) *report.Renderer {
	out := cmd.OutOrStdout()
	styled := false
	if f, ok := out.(*os.File); ok {
		styled = report.IsTTY(f)
	}
	return report.New(out, styled)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
