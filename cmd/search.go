package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/booksearch/internal/detail"
	"github.com/desertthunder/booksearch/internal/formatter"
	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/shared"
	"github.com/desertthunder/booksearch/internal/tasks"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

const spinnerInterval = 100 * time.Millisecond

// Search submits one query and prints the resulting list.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := queryArg(cmd)
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if err := r.prepare(cmd); err != nil {
		return err
	}
	defer r.Close()

	out, err := r.awaitSearch(ctx, query)
	if err != nil {
		return fmt.Errorf("search for %q failed: %w", query, err)
	}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(format, query, out.Books, path)
		if err != nil {
			return err
		}
		r.logger.Info("results exported", "path", written, "count", len(out.Books))
		return r.writePlain("✓ Wrote %d results to %s\n", len(out.Books), written)
	}

	if cmd.Bool("json") {
		return r.writeJSON(out.Books, cmd.Bool("pretty"))
	}

	data, err := formatter.Render(format, query, out.Books)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Share searches for query, picks one result and saves its cover for sharing.
func (r *Runner) Share(ctx context.Context, cmd *cli.Command) error {
	query := queryArg(cmd)
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	index := int(cmd.Int("index"))
	if index < 0 {
		return fmt.Errorf("%w: index must not be negative", shared.ErrInvalidFlag)
	}

	if err := r.prepare(cmd); err != nil {
		return err
	}
	defer r.Close()

	if _, err := r.awaitSearch(ctx, query); err != nil {
		return fmt.Errorf("search for %q failed: %w", query, err)
	}

	book, err := r.bookAt(index)
	if err != nil {
		return err
	}

	action, err := r.shareBook(ctx, book, cmd.Bool("copy"), cmd.Bool("open"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(action, true)
	}
	r.writePlain("✓ Saved cover of %q\n", book.DisplayTitle())
	r.writePlain("  Path: %s\n", action.Path)
	r.writePlain("  URI:  %s\n", action.URI)
	return nil
}

// bookAt returns item index of the shared result list.
func (r *Runner) bookAt(index int) (models.Book, error) {
	book, ok := r.engine.List().At(index)
	if !ok {
		return models.Book{}, fmt.Errorf("%w: index %d of %d results", shared.ErrBookNotFound, index, r.engine.List().Len())
	}
	return book, nil
}

// shareBook prepares the share artifact for book and runs the requested hand-offs.
func (r *Runner) shareBook(ctx context.Context, book models.Book, copyURI, open bool) (*detail.ShareAction, error) {
	action, err := r.presenter.PrepareShare(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("failed to share %q: %w", book.DisplayTitle(), err)
	}

	if copyURI {
		if err := action.Copy(); err != nil {
			return action, err
		}
	}
	if open {
		if err := action.Open(); err != nil {
			return action, fmt.Errorf("failed to open %s: %w", action.Path, err)
		}
	}
	return action, nil
}

// awaitSearch submits query and spins a busy indicator on the progress writer until it resolves.
func (r *Runner) awaitSearch(ctx context.Context, query string) (tasks.Outcome, error) {
	pending := r.engine.Submit(ctx, query)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription(fmt.Sprintf("Searching %q", query)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pending.Done():
			_ = bar.Finish()
			return pending.Wait(ctx)
		case <-ctx.Done():
			_ = bar.Clear()
			return pending.Wait(ctx)
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}
