package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/booksearch/internal/formatter"
	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/shared"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v3"
)

const shellPrompt = "books> "

const shellHelp = `Type a query to search. Commands:
  :list          show the current results
  :show N        show details for result N
  :share N       save the cover of result N
  :open N        save and open the cover of result N
  :status        show the search state and last error
  :help          show this help
  :quit          leave the shell
`

var shellCommands = []string{":list", ":show ", ":share ", ":open ", ":status", ":help", ":quit"}

// prompter reads lines from the user. Implemented by [liner.State].
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Shell runs the line-oriented search loop with persistent history.
func (r *Runner) Shell(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}
	defer r.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeShell)

	historyPath := cmd.String("history")
	if f, err := os.Open(historyPath); err == nil {
		if _, err := line.ReadHistory(f); err != nil {
			r.logger.Warn("failed to read shell history", "path", historyPath, "error", err)
		}
		f.Close()
	}
	defer r.saveHistory(line, historyPath)

	r.writePlain("Open Library search shell. Type :help for commands.\n")
	return r.runShell(ctx, line)
}

func (r *Runner) saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.logger.Warn("failed to create history directory", "path", path, "error", err)
		return
	}

	f, err := os.Create(path)
	if err != nil {
		r.logger.Warn("failed to write shell history", "path", path, "error", err)
		return
	}
	defer f.Close()

	if _, err := line.WriteHistory(f); err != nil {
		r.logger.Warn("failed to write shell history", "path", path, "error", err)
	}
}

func (r *Runner) runShell(ctx context.Context, p prompter) error {
	for ctx.Err() == nil {
		input, err := p.Prompt(shellPrompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			r.writePlain("\n")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		p.AppendHistory(input)

		quit, err := r.shellLine(ctx, input)
		if err != nil {
			r.logger.Debug("shell command failed", "input", input, "error", err)
			r.writePlain("✗ %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return nil
}

// shellLine runs one line of input. Lines without a leading colon are queries.
func (r *Runner) shellLine(ctx context.Context, input string) (bool, error) {
	if !strings.HasPrefix(input, ":") {
		if _, err := r.awaitSearch(ctx, input); err != nil {
			return false, err
		}
		return false, r.printResults()
	}

	name, arg, _ := strings.Cut(strings.TrimPrefix(input, ":"), " ")
	switch name {
	case "q", "quit", "exit":
		return true, nil
	case "h", "help":
		return false, r.writePlain(shellHelp)
	case "l", "list":
		return false, r.printResults()
	case "status":
		return false, r.printStatus()
	case "show":
		book, err := r.shellBook(arg)
		if err != nil {
			return false, err
		}
		return false, r.writePlain("%s\n", r.presenter.Render(book, 0))
	case "share", "open":
		book, err := r.shellBook(arg)
		if err != nil {
			return false, err
		}
		action, err := r.shareBook(ctx, book, false, name == "open")
		if err != nil {
			return false, err
		}
		return false, r.writePlain("✓ Saved cover to %s\n", action.Path)
	default:
		return false, fmt.Errorf("%w: unknown command :%s (try :help)", shared.ErrInvalidArgument, name)
	}
}

// shellBook resolves a 1-based position as printed by :list.
func (r *Runner) shellBook(arg string) (models.Book, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return models.Book{}, fmt.Errorf("%w: expected a result number, got %q", shared.ErrInvalidArgument, arg)
	}
	return r.bookAt(n - 1)
}

func (r *Runner) printResults() error {
	data, err := formatter.ToText(r.engine.LastQuery(), r.engine.List().Current())
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

func (r *Runner) printStatus() error {
	r.writePlain("State:   %s\n", r.engine.State())
	r.writePlain("Query:   %s\n", r.engine.LastQuery())
	r.writePlain("Results: %d (version %d)\n", r.engine.List().Len(), r.engine.List().Version())
	if err := r.engine.LastError(); err != nil {
		return r.writePlain("Error:   %v\n", err)
	}
	return nil
}

func completeShell(line string) []string {
	if !strings.HasPrefix(line, ":") {
		return nil
	}
	var matches []string
	for _, c := range shellCommands {
		if strings.HasPrefix(c, line) {
			matches = append(matches, c)
		}
	}
	return matches
}
