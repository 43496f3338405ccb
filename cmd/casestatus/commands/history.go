package commands

import (
	"casestatus-backend/internal/components/chrono"
	"casestatus-backend/internal/db"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit *int

func init() {
	historyLimit = historyCmd.Flags().IntP("limit", "n", 0, "The number of attempts to show, defaults to history_limit in the config.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [-n <limit>]",
	Short: "Prints the most recent attempts, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := openApp()
		defer app.Close()

		limit := app.config.HistoryLimit
		if *historyLimit > 0 {
			limit = *historyLimit
		}
		records, err := app.store.Recent(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "Time", "Case", "Status", "Details"})
		for _, r := range records {
			details := r.ErrorMessage
			if r.Status == db.STATUS_SUCCESS {
				details = fmt.Sprintf(
					"%s\nnext hearing %s, %d documents",
					r.Result.PartiesNames,
					r.Result.NextHearingDate,
					len(r.Result.DocumentLinks),
				)
			}
			t.AppendRow(table.Row{
				r.ID,
				r.Timestamp.In(app.clock.Location()).Format(chrono.TimestampLayout),
				fmt.Sprintf("%s %s/%s", r.Query.CaseType, r.Query.CaseNumber, r.Query.FilingYear),
				r.Status,
				details,
			})
		}
		t.Render()
		return nil
	},
}
