package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var downloadDir *string

func init() {
	downloadDir = downloadCmd.Flags().String("dir", "", "The directory to write documents to, defaults to documents.dir in the config.")
	rootCmd.AddCommand(downloadCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download <case type> <case number> <filing year> [--dir <path>]",
	Short: "Downloads the documents of the latest successful attempt for a case.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := openApp()
		defer app.Close()

		query := queryFromArgs(args).Normalize()
		record, found, err := app.store.LatestSuccess(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("read latest attempt: %w", err)
		}
		if !found {
			return fmt.Errorf("this case has not been fetched successfully yet, run fetch first")
		}
		if len(record.Result.DocumentLinks) == 0 {
			fmt.Println("The case has no documents.")
			return nil
		}

		dir := app.config.Documents.Dir
		if *downloadDir != "" {
			dir = *downloadDir
		}
		written, err := app.fetcher.Download(cmd.Context(), record.Result.DocumentLinks, dir)
		for _, path := range written {
			fmt.Println(path)
		}
		if err != nil {
			return fmt.Errorf("download documents: %w", err)
		}
		return nil
	},
}
