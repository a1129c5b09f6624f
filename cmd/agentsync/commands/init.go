package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/errors"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing agentsync.yaml")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold agentsync.yaml in the current directory",
	Long: `Init writes a commented agentsync.yaml scaffold with the three
default targets (cursor, codex, antigravity). Edit the paths and
exclusions to match your setup, then run 'agentsync sync'.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, _ []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return errors.NewSystemError(err, "")
	}

	path, err := config.WriteDefault(wd, initForce)
	if err != nil {
		if errors.Is(err, errors.ErrConfigExists) {
			return errors.NewUserError(err, "Use --force to overwrite")
		}
		return errors.NewSystemError(err, "")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit it to match your setup, then run: agentsync sync")
	return nil
}
