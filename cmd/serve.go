package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/booksearch/internal/formatter"
	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/server"
	"github.com/desertthunder/booksearch/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}
	defer r.Close()

	host := r.config.Server.Host
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	port := r.config.Server.Port
	if cmd.IsSet("port") {
		port = int(cmd.Int("port"))
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	srv := server.NewServer(addr, server.NewAPIRouter(r.engine, r.logger), r.logger)

	r.logger.Info("starting api server", "addr", addr, "catalog", r.catalog.Name())
	return srv.Run(ctx)
}

// History prints recorded search attempts, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	defer r.Close()

	var status models.SearchStatus
	if name := cmd.String("status"); name != "" {
		parsed, err := models.ParseSearchStatus(name)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		status = parsed
	}

	repo, err := r.searchRepository()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	records, err := repo.List(map[string]any{
		"status": status,
		"query":  cmd.String("query"),
		"limit":  int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		return r.writePlain("No searches recorded.\n")
	}

	data, err := formatter.HistoryToText(records)
	if err != nil {
		return err
	}
	if err := r.writePlain("%s", data); err != nil {
		return err
	}

	stats, err := repo.Stats()
	if err != nil {
		return err
	}
	return r.writePlainln("%d searches: %d succeeded, %d failed, %d superseded",
		stats.Total, stats.Succeeded, stats.Failed, stats.Superseded)
}
