package commands

import (
	"casestatus-backend/internal/scrapers/ecourts"
	"fmt"

	"github.com/spf13/cobra"
)

var skipBrowsers *bool

func init() {
	skipBrowsers = installCmd.Flags().Bool("skip-browsers", false, "Only install the playwright driver, use this with portal.executable_path.")
	rootCmd.AddCommand(installCmd)
}

var installCmd = &cobra.Command{
	Use:   "install-browser [--skip-browsers]",
	Short: "Installs the playwright driver and browsers used to drive the portal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := ecourts.InstallDriver(*skipBrowsers)
		if err != nil {
			return fmt.Errorf("install playwright: %w", err)
		}
		return nil
	},
}
