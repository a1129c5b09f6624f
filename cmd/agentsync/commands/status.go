package commands

import (
	"github.com/spf13/cobra"

	"github.com/spyrae/agentsync/internal/errors"
	"github.com/spyrae/agentsync/internal/logging"
	"github.com/spyrae/agentsync/internal/ui"
	"github.com/spyrae/agentsync/internal/validate"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a one-line drift summary per target",
	Long: `Status runs the same checks as validate and prints one line per
target: whether it is in sync, and the kinds of drift found if not.
The exit status is zero even when drift exists; use validate in
scripts that should fail on drift.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine := validate.NewEngine(cfg, logging.FromContext(cmd.Context()))
	report, err := engine.Run(nil)
	if err != nil {
		return errors.NewSystemError(err, "")
	}

	ui.NewPrinter(cmd.OutOrStdout()).Status(report)
	return nil
}
