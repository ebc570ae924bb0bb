package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fluorite-flake/internal/cli"
	"fluorite-flake/internal/doctor"
	"fluorite-flake/internal/vendorcli"
)

// newDoctorCmd creates the environment check command.
func newDoctorCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the local environment for required tools",
		Long: `Probes the external tools fluorite-flake shells out to (node, pnpm,
git, and the vendor CLIs) and reports what is missing along with install
suggestions. Exits non-zero when a required tool is absent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := doctor.Run(cmd.Context(), vendorcli.NewExecRunner())

			if jsonOut {
				if err := cli.PrintStructured(os.Stdout, cli.FormatJSON, report); err != nil {
					return err
				}
			} else {
				cli.RenderDoctorReport(os.Stdout, report)
			}

			if !report.Healthy() {
				return fmt.Errorf("required tools are missing, see suggestions above")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	return cmd
}
