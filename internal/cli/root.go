// Package cli provides the command-line interface for cascade.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cascade-data/cascade/internal/cli/commands"
	"github.com/cascade-data/cascade/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

// Exit codes: 0 clean, 1 issues found (lint findings, failed tests, failed
// models), 2 fatal (config, parse, or database failure).
const (
	ExitOK     = 0
	ExitIssues = 1
	ExitFatal  = 2
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "cascade",
		Short: "cascade - dependency-aware SQL transformation engine",
		Long: `cascade builds schema-qualified SQL models against PostgreSQL.

Models are plain SQL files with a comment header declaring materialization
and dependencies. cascade orders them into a DAG, materializes them as
views, tables, or incrementally merged tables, and statically checks that
declared dependencies match what each model's SQL actually references.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))

			rt := &commands.Runtime{Config: cfg, Logger: logger}
			cmd.SetContext(commands.WithRuntime(cmd.Context(), rt))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./cascade.yaml)")
	rootCmd.PersistentFlags().String("models-dir", "", "Path to models directory")
	rootCmd.PersistentFlags().String("target-dir", "", "Path for compiled SQL and docs artifacts")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewCompileCommand())
	rootCmd.AddCommand(commands.NewLintCommand())
	rootCmd.AddCommand(commands.NewQualifyCommand())
	rootCmd.AddCommand(commands.NewTestCommand())
	rootCmd.AddCommand(commands.NewGraphCommand())
	rootCmd.AddCommand(commands.NewDocsCommand())
	rootCmd.AddCommand(commands.NewListCommand())

	return rootCmd
}

// Execute runs the root command and maps errors to exit codes. Cancellation
// via SIGINT or SIGTERM is honored between models, never mid-statement.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, commands.ErrIssuesFound):
		return ExitIssues
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFatal
	}
}
