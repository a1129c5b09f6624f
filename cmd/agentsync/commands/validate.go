package commands

import (
	"github.com/spf13/cobra"

	"github.com/spyrae/agentsync/internal/errors"
	"github.com/spyrae/agentsync/internal/logging"
	"github.com/spyrae/agentsync/internal/ui"
	"github.com/spyrae/agentsync/internal/validate"
)

var (
	validateVerbose bool
	validateTargets []string
)

func init() {
	validateCmd.Flags().BoolVar(&validateVerbose, "verbose", false, "also report passed checks")
	validateCmd.Flags().StringSliceVarP(&validateTargets, "target", "t", nil, "validate only the named target(s)")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check target files for drift against the source",
	Long: `Validate recomputes what each target should contain, parses what its
files actually contain, and reports the difference. Nothing is
written.

Findings:
  missing        a source server is absent from the target (error)
  excluded-leak  an excluded server is still in the target (error)
  unexpected     the target has a server no source tier declares (warning)
  section-leak   an excluded rules section is still in a rules file (error)

Warnings alone exit zero; errors exit non-zero.`,
	Example: `  # Validate all targets
  agentsync validate

  # Include passed checks
  agentsync validate --verbose`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine := validate.NewEngine(cfg, logging.FromContext(cmd.Context()))
	report, err := engine.Run(validateTargets)
	if err != nil {
		if errors.Is(err, errors.ErrUnknownTarget) {
			return errors.NewUserError(err, "Run 'agentsync status' to list configured targets")
		}
		return errors.NewSystemError(err, "")
	}

	if !quiet {
		ui.NewPrinter(cmd.OutOrStdout()).ValidationReport(report, validateVerbose)
	}

	if report.Failed() {
		return errors.NewExitError(errors.New("validation found drift"), errors.ExitUser)
	}
	return nil
}
