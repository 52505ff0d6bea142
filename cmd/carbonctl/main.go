package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rpggio/bluecarbon/internal/cli"
	"github.com/rpggio/bluecarbon/internal/config"
	"github.com/rpggio/bluecarbon/internal/domain/activity"
	"github.com/rpggio/bluecarbon/internal/domain/project"
	"github.com/rpggio/bluecarbon/internal/logging"
	"github.com/rpggio/bluecarbon/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// stdout carries command output; logs go to stderr.
	logger := logging.New(os.Stderr, cfg.Log.Level)

	app := &cli.App{DBPath: cfg.DB.Path, Logger: logger}
	app.Open = func(dbPath string) (func() error, error) {
		db, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, err
		}
		activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
		app.Activity = activitySvc
		app.Projects = project.NewService(sqlite.NewKVStore(db), logger,
			project.WithActivityLog(activitySvc),
			project.WithStrictTransitions(cfg.Store.StrictTransitions),
		)
		return db.Close, nil
	}

	err = cli.NewRootCmd(app).Execute()
	return errors.Join(err, app.Close())
}
