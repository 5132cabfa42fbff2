// Package main provides the cadence binary entry point.
// Cadence is the follow-up and gate workflow engine for the internal task
// tracker: it decides which tasks are stale, which gate blocks them, what to
// do about them today, and how reliable each owner's follow-up history is.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/cadence/config"
)

const (
	Version = "0.3.0"
	appName = "cadence"
)

// Global flags shared by every subcommand.
var (
	flagConfig   string
	flagLogLevel string
	flagAs       string
	flagAdmin    bool
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Follow-up and gate workflow engine",
		Long: `Cadence tracks tasks with a follow-up cadence and an ordered chain of
external approval gates.

It answers four questions:
- which tasks are stale (daily list, with a recommended next action)
- which gate currently blocks a task, and who to contact
- which three stale tasks to clear in one sitting (focused batch)
- how reliable each owner's follow-up history is (scores)`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flagAs, "as", "", "Contact ID to act as")
	cmd.PersistentFlags().BoolVar(&flagAdmin, "admin", false, "Act with admin visibility")

	cmd.AddCommand(
		taskCmd(),
		noteCmd(),
		gateCmd(),
		restartCmd(),
		contactCmd(),
		projectCmd(),
		dailyCmd(),
		focusCmd(),
		scoresCmd(),
		healthCmd(),
		serveCmd(),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	}
}

// withApp loads config, starts the app, runs fn, and shuts down. Every
// subcommand that touches the store goes through here.
func withApp(fn func(ctx context.Context, app *App) error) error {
	logger := newLogger(flagLogLevel)
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).LoadWithOverride(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg, logger)
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Shutdown()

	return fn(ctx, app)
}

func newLogger(level string) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
