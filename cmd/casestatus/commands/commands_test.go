package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) (string, string) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "court_queries.db")
	configFile := filepath.Join(dir, "config.json5")
	err := os.WriteFile(configFile, []byte(fmt.Sprintf(`{
  database: { file: %q },
  documents: { dir: %q },
}`, dbPath, filepath.Join(dir, "documents"))), 0666)
	require.NoError(t, err)
	return configFile, dbPath
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestFetchFailureReturnsErrorAndClosesDatabase(t *testing.T) {
	configFile, dbPath := writeConfig(t)

	err := execute("fetch", "--config", configFile, "ZZZ", "1", "2023")
	require.EqualError(t, err, `Unknown case type "ZZZ".`)

	_, err = os.Stat(dbPath)
	require.NoError(t, err)
	// the write-ahead log is checkpointed and removed once the last connection closes
	_, err = os.Stat(dbPath + "-wal")
	require.True(t, os.IsNotExist(err), "database was left open")
}

func TestDownloadWithoutSuccessfulAttempt(t *testing.T) {
	configFile, dbPath := writeConfig(t)

	err := execute("download", "--config", configFile, "SUIT", "1", "2023")
	require.ErrorContains(t, err, "has not been fetched successfully yet")

	_, err = os.Stat(dbPath + "-wal")
	require.True(t, os.IsNotExist(err), "database was left open")
}

func TestHistoryOnEmptyDatabase(t *testing.T) {
	configFile, _ := writeConfig(t)
	require.NoError(t, execute("history", "--config", configFile, "-n", "5"))
}
