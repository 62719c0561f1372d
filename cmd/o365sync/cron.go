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

var CronCommand = _cronCommand{
	Name:        "cron",
	Description: "Scheduled app-only read of the administrative mailbox",
}

type _cronCommand struct {
	Name        string
	Description string
}

func (c _cronCommand) Run(ctx context.Context, cfg *config.Config, verbose bool, args []string) error {
	var admin string

	fs := flag.NewFlagSet(c.Name, flag.ExitOnError)
	fs.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "Usage of %s %s:\n", os.Args[0], fs.Name())
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&admin, "admin", cfg.AdminUPN, "administrative mailbox to read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if admin == "" {
		return fmt.Errorf("no administrative mailbox configured, set O365SYNC_ADMIN_UPN or pass -admin")
	}
	if cfg.Tenant == "" {
		return fmt.Errorf("the app-only grant needs O365SYNC_TENANT")
	}

	// The cron context has no user session; acquire an app-only token up
	// front and run with it.
	tokens := o365.NewTokenManager(cfg.Credentials(), o365.Token{})
	appToken, err := tokens.AppToken(ctx)
	if err != nil {
		return err
	}

	client := o365.NewClient(o365.StaticToken(appToken))
	client.Verbose = verbose
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	db, err := sql.Open(sqlite.DriverName, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	storage := sqlite.NewStorage(db)

	sync := syncer.New(flag.CommandLine.Output(), client, storage)
	sync.PastDays = cfg.PastDays
	sync.FutureDays = cfg.FutureDays

	return sync.SyncAdmin(ctx, admin)
}
