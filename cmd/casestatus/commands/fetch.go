package commands

import (
	"casestatus-backend/internal/scrapers/ecourts"
	"encoding/json"
	"errors"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var fetchJson *bool

func init() {
	fetchJson = fetchCmd.Flags().Bool("json", false, "Print the outcome as json.")
	rootCmd.AddCommand(fetchCmd)
}

func queryFromArgs(args []string) ecourts.CaseQuery {
	return ecourts.CaseQuery{
		CaseType:   args[0],
		CaseNumber: args[1],
		FilingYear: args[2],
	}
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <case type> <case number> <filing year> [--json]",
	Short: "Fetches the status of a case from the portal and records the attempt.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := openApp()
		defer app.Close()

		err := app.instrument(cmd.Context())
		if err != nil {
			return err
		}

		outcome := app.orchestrator.Fetch(cmd.Context(), queryFromArgs(args))

		if *fetchJson {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			err := encoder.Encode(outcome)
			if err != nil {
				return err
			}
		} else if outcome.Success {
			t := newTable()
			t.AppendRow(table.Row{"Parties", outcome.Data.PartiesNames})
			t.AppendRow(table.Row{"Filing date", outcome.Data.FilingDate})
			t.AppendRow(table.Row{"Next hearing", outcome.Data.NextHearingDate})
			for _, link := range outcome.Data.DocumentLinks {
				t.AppendRow(table.Row{link.Date, link.Url})
			}
			t.Render()
		}

		if !outcome.Success {
			return errors.New(outcome.Message)
		}
		return nil
	},
}
