package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"o365sync/calendar/o365"
	"o365sync/internal/config"
	"o365sync/internal/sqlite"
	"o365sync/internal/syncer"
)

var SyncCommand = _syncCommand{
	Name:        "sync",
	Description: "Reconcile platform calendars with the remote service",
}

type _syncCommand struct {
	Name        string
	Description string
}

func (s _syncCommand) Run(ctx context.Context, cfg *config.Config, verbose bool, args []string) error {
	var userIDs Ints

	fs := flag.NewFlagSet(s.Name, flag.ExitOnError)
	fs.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "Usage of %s %s:\n", os.Args[0], fs.Name())
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
	}
	fs.Var(&userIDs, "user", "user id to sync (repeatable; default: every known user)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := sql.Open(sqlite.DriverName, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	storage := sqlite.NewStorage(db)

	tokens := o365.NewTokenManager(cfg.Credentials(), cfg.SessionToken())
	client := o365.NewClient(tokens)
	client.Verbose = verbose
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	sync := syncer.New(flag.CommandLine.Output(), client, storage)
	sync.PastDays = cfg.PastDays
	sync.FutureDays = cfg.FutureDays

	ids := []int64(userIDs)
	if len(ids) == 0 {
		ids, err = storage.Users(ctx)
		if err != nil {
			return err
		}
	}
	return sync.SyncAll(ctx, ids)
}
