package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/booksearch/internal/detail"
	"github.com/desertthunder/booksearch/internal/repositories"
	"github.com/desertthunder/booksearch/internal/services"
	"github.com/desertthunder/booksearch/internal/shared"
	"github.com/desertthunder/booksearch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies not supplied through [RunnerOpts] are built from the loaded config the first time a command needs them.
type Runner struct {
	config     *shared.Config
	catalog    services.Catalog
	engine     *tasks.SearchEngine
	presenter  *detail.Presenter
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	progress   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Catalog    services.Catalog
	Presenter  *detail.Presenter
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Progress   io.Writer // busy indicator target, stderr by default
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Progress == nil {
		opts.Progress = os.Stderr
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		catalog:    opts.Catalog,
		presenter:  opts.Presenter,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		progress:   opts.Progress,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, shareCommand, tuiCommand, shellCommand, serveCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and anything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// loadConfig reads --config once. A missing file falls back to the embedded defaults.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	if r.config != nil {
		return nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}
	r.config = config
	return nil
}

// prepare loads config and builds the catalog, presenter and search engine.
func (r *Runner) prepare(cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))

	if r.catalog == nil {
		r.catalog = services.NewOpenLibraryServiceFromConfig(r.config.Catalog, shared.WithLogger(r.logger, "component", "catalog"))
	}

	if r.presenter == nil {
		r.presenter = detail.NewPresenter(detail.PresenterOpts{
			ShareDir:   r.config.Share.Dir,
			HTTPClient: r.httpClient,
			Logger:     shared.WithLogger(r.logger, "component", "detail"),
		})
	}

	if r.engine == nil {
		opts := tasks.EngineOpts{Catalog: r.catalog, Logger: shared.WithLogger(r.logger, "component", "engine")}
		if r.config.Database.RecordHistory {
			if repo, err := r.searchRepository(); err != nil {
				r.logger.Warn("search history disabled", "error", err)
			} else {
				opts.Recorder = repo
			}
		}

		engine, err := tasks.NewSearchEngine(opts)
		if err != nil {
			return fmt.Errorf("failed to create search engine: %w", err)
		}
		r.engine = engine
	}

	return nil
}

// searchRepository opens the configured database on first use.
func (r *Runner) searchRepository() (*repositories.SearchRepository, error) {
	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, err
		}
		r.db = db
	}
	return repositories.NewSearchRepository(r.db), nil
}

// Close stops the engine and closes the database.
func (r *Runner) Close() {
	if r.engine != nil {
		r.engine.Close()
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
	}
}

// queryArg joins all positional arguments so unquoted multi-word queries work.
func queryArg(cmd *cli.Command) string {
	return strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
