package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/booksearch/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "booksearch",
		Usage:    "Search the Open Library catalog from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		logger.Fatalf("application error: %v", err)
	}
}
