package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"o365sync/internal/config"
)

func main() {
	var (
		envFile string
		verbose bool
	)
	flag.StringVar(&envFile, "env", "", "load the environment from this file first (default: .env when present)")
	flag.BoolVar(&verbose, "v", false, "verbose output")
	flag.Usage = usage
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		<-ch
		cancel()
	}()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintln(os.Stderr, "Unable to load environment file:", err)
			os.Exit(1)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case SyncCommand.Name:
		err = SyncCommand.Run(ctx, cfg, verbose, args[1:])
	case CronCommand.Name:
		err = CronCommand.Run(ctx, cfg, verbose, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "Usage of %s:\n", os.Args[0])
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s [options] <command> [command options]\n", os.Args[0])
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintf(w, "  %s\t%s\n", SyncCommand.Name, SyncCommand.Description)
	fmt.Fprintf(w, "  %s\t%s\n", CronCommand.Name, CronCommand.Description)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	flag.PrintDefaults()
}
