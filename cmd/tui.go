package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/booksearch/internal/shared"
	"github.com/desertthunder/booksearch/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultTUILog = "./tmp/booksearch-tui.log"

// TUI launches the interactive terminal UI for searching books.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = defaultTUILog
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.prepare(cmd); err != nil {
		return err
	}
	defer r.Close()

	model := ui.NewModel(ctx, r.engine, r.presenter)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
