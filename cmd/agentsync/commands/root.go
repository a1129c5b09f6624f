// Package commands implements the CLI commands for agentsync.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/errors"
	"github.com/spyrae/agentsync/internal/logging"
)

// version is set at build time via ldflags.
// Default to a development version for local builds.
var version = "0.1.0"

// Persistent flag values.
var (
	configFlag string
	verbosity  int
	quiet      bool
	logFormat  string
	logFile    string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "",
		"path to agentsync.yaml (default: discovered by walking up)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("agentsync version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

var rootCmd = &cobra.Command{
	Use:   "agentsync",
	Short: "Sync MCP servers and rules from Claude Code to other AI agents",
	Long: `agentsync propagates one authoritative configuration, Claude Code's
MCP server registry and its CLAUDE.md rules, to the tools that need
their own copy: Cursor, Codex, and Antigravity.

Servers are merged from three tiers (global ~/.claude.json, its
per-project block, and the project's .mcp.json; local beats project
beats global), deduplicated case-insensitively, filtered per target,
and rendered into each target's native format. Files agentsync does
not own are left untouched: Cursor's mcp.json keeps its sibling keys,
and Codex's config.toml is only rewritten between the agentsync
markers.`,
	Example: `  # Scaffold agentsync.yaml
  agentsync init

  # Preview what a sync would change
  agentsync sync --dry-run

  # Sync everything
  agentsync sync

  # Check targets for drift
  agentsync validate`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity
		if v == 0 {
			if val, ok := os.LookupEnv("AGENTSYNC_DEBUG"); ok && (val == "1" || val == "true") {
				v = 1
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	opts := &slog.HandlerOptions{Level: level}

	var primaryHandler slog.Handler
	switch logging.Format(logFormat) {
	case logging.FormatJSON:
		primaryHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	default:
		primaryHandler = logging.NewHandler(cmd.ErrOrStderr(), opts)
	}

	handlers := []slog.Handler{primaryHandler}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		// File output uses JSON format
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// loadConfig resolves and loads agentsync.yaml: the --config flag when
// given, otherwise discovered by walking up from the working directory.
func loadConfig() (*config.Config, error) {
	path := configFlag
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.NewSystemError(err, "")
		}
		path = config.Find(wd)
		if path == "" {
			return nil, errors.NewConfigError(errors.ErrConfigNotFound)
		}
	}

	cfg, err := config.LoadAndValidate(path)
	if err != nil {
		return nil, errors.NewConfigError(err)
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
