package commands

import (
	"github.com/spf13/cobra"

	"github.com/spyrae/agentsync/internal/errors"
	"github.com/spyrae/agentsync/internal/logging"
	"github.com/spyrae/agentsync/internal/sync"
	"github.com/spyrae/agentsync/internal/ui"
)

var (
	syncDryRun    bool
	syncMCPOnly   bool
	syncRulesOnly bool
	syncTargets   []string
	syncNoBackup  bool
)

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "show what would change without writing")
	syncCmd.Flags().BoolVar(&syncMCPOnly, "mcp-only", false, "sync MCP server configs only")
	syncCmd.Flags().BoolVar(&syncRulesOnly, "rules-only", false, "sync rules files only")
	syncCmd.Flags().StringSliceVarP(&syncTargets, "target", "t", nil, "sync only the named target(s)")
	syncCmd.Flags().BoolVar(&syncNoBackup, "no-backup", false, "skip backups before overwriting")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync MCP servers and rules to all configured targets",
	Long: `Sync reads the three source tiers, merges and deduplicates the
server set, filters it per target, and rewrites each target's files.
Files whose content would not change are left untouched, and modified
files are backed up first unless backups are disabled.

A failing target does not stop the others; the run reports each
target's outcome and exits non-zero if any failed.`,
	Example: `  # Sync everything
  agentsync sync

  # Preview without writing
  agentsync sync --dry-run

  # Only Cursor, only MCP servers
  agentsync sync --target cursor --mcp-only`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if syncMCPOnly && syncRulesOnly {
			return errors.NewUserError(nil, "flags --mcp-only and --rules-only are mutually exclusive")
		}
		return nil
	},
	RunE: runSync,
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine := sync.NewEngine(cfg, logging.FromContext(cmd.Context()))
	plan, err := engine.Run(sync.Options{
		DryRun:    syncDryRun,
		MCPOnly:   syncMCPOnly,
		RulesOnly: syncRulesOnly,
		Targets:   syncTargets,
		NoBackup:  syncNoBackup,
	})
	if err != nil {
		if errors.Is(err, errors.ErrUnknownTarget) {
			return errors.NewUserError(err, "Run 'agentsync status' to list configured targets")
		}
		return errors.NewSystemError(err, "")
	}

	if !quiet {
		ui.NewPrinter(cmd.OutOrStdout()).SyncPlan(plan)
	}

	if plan.Failed() {
		return errors.NewExitError(errors.New("one or more targets failed"), errors.ExitSystem)
	}
	return nil
}
