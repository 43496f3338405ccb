package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Checks whether the portal is reachable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := openApp()
		defer app.Close()

		result, err := app.fetcher.Probe(cmd.Context(), app.config.Portal.Url)
		if err != nil {
			return fmt.Errorf("could not reach %s: %w", result.Url, err)
		}
		fmt.Printf("%s answered %s in %s\n", result.Url, result.Status, result.Elapsed)
		if !result.Reachable() {
			return fmt.Errorf("%s is not serving requests", result.Url)
		}
		return nil
	},
}
