package main

import (
	devenv "casestatus-backend/dev/env"
	"casestatus-backend/internal/db"
	configlibsql "casestatus-backend/lib/configutil/libsql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const localDatabase = "<dev_state>/court_queries.db"

func create(recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		err = os.RemoveAll("dev/.state")
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	err = os.MkdirAll("dev/.state", 0777)
	if err != nil && !os.IsExist(err) {
		return err
	}

	database, err := configlibsql.Struct{File: localDatabase}.OpenDB(db.Schema)
	if err != nil {
		return fmt.Errorf("create %s: %w", localDatabase, err)
	}
	defer database.Close()

	path, err := devenv.ResolvePath(localDatabase)
	if err != nil {
		return err
	}
	slog.Info("attempt database ready", "path", path)

	_, err = os.Stat("config.local.json5")
	if os.IsNotExist(err) {
		abs, _ := filepath.Abs("config.local.json5")
		slog.Info("put local config overrides here", "path", abs)
	}

	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created sucessfully!")
}
