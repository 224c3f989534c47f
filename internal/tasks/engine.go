// package tasks implements the search orchestration between a catalog and a result list.
//
// The core abstraction is SearchEngine, which applies at most one in-flight search to the list.
// Transitions emit status updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/booksearch/internal/metrics"
	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/results"
	"github.com/desertthunder/booksearch/internal/services"
	"github.com/desertthunder/booksearch/internal/shared"
)

const defaultSearchTimeout = 15 * time.Second

// Recorder persists search attempts.
//
// Implemented by repositories.SearchRecorder. Errors are logged and otherwise ignored.
type Recorder interface {
	Record(record *models.SearchRecord) error
}

// EngineOpts configures a [SearchEngine].
type EngineOpts struct {
	Catalog  services.Catalog
	List     *results.List
	Logger   *log.Logger
	Timeout  time.Duration       // upper bound per search, defaults to 15s
	Recorder Recorder            // optional
	Updates  chan<- StatusUpdate // optional
}

// SearchEngine applies catalog searches to a result list.
type SearchEngine struct {
	catalog  services.Catalog
	list     *results.List
	logger   *log.Logger
	timeout  time.Duration
	recorder Recorder
	updates  chan<- StatusUpdate

	mu        sync.Mutex
	state     State
	current   uint64 // id of the submission allowed to resolve the state machine
	cancel    context.CancelFunc
	lastQuery string
	lastErr   error
	closed    bool
	wg        sync.WaitGroup
}

// NewSearchEngine creates a new SearchEngine.
func NewSearchEngine(opts EngineOpts) (*SearchEngine, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if opts.List == nil {
		opts.List = results.NewList()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultSearchTimeout
	}

	return &SearchEngine{
		catalog:  opts.Catalog,
		list:     opts.List,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		recorder: opts.Recorder,
		updates:  opts.Updates,
	}, nil
}

// List returns the list the engine writes to.
func (e *SearchEngine) List() *results.List { return e.list }

// Catalog returns the catalog the engine searches.
func (e *SearchEngine) Catalog() services.Catalog { return e.catalog }

// State returns the current state.
func (e *SearchEngine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Busy reports whether a search is in flight.
func (e *SearchEngine) Busy() bool {
	return e.State() == Searching
}

// LastError returns the error of the most recent applied search, nil after a success.
func (e *SearchEngine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// LastQuery returns the most recently submitted query.
func (e *SearchEngine) LastQuery() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastQuery
}

// sendUpdate sends a status update through the channel without blocking.
func (e *SearchEngine) sendUpdate(update StatusUpdate) {
	if e.updates == nil {
		return
	}
	select {
	case e.updates <- update:
	default:
	}
}

// Submit starts a search for query and returns immediately.
//
// A search already in flight is cancelled and its result discarded.
func (e *SearchEngine) Submit(ctx context.Context, query string) *Pending {
	p := newPending(query)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		p.resolve(Outcome{Query: query, Err: fmt.Errorf("%w: search engine closed", shared.ErrServiceUnavailable)})
		return p
	}

	if e.cancel != nil {
		e.cancel()
		e.logger.Debug("superseding in-flight search", "query", e.lastQuery)
	}

	e.current++
	id := e.current
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	e.cancel = cancel
	e.state = Searching
	e.lastQuery = query
	e.wg.Add(1)
	metrics.SearchInFlight.Set(1)
	e.mu.Unlock()

	e.logger.Info("searching catalog", "query", query, "catalog", e.catalog.Name())
	e.sendUpdate(searchingUpdate(query))

	go e.run(reqCtx, cancel, id, p)
	return p
}

// Search submits query and waits for its outcome.
func (e *SearchEngine) Search(ctx context.Context, query string) (Outcome, error) {
	return e.Submit(ctx, query).Wait(ctx)
}

func (e *SearchEngine) run(ctx context.Context, cancel context.CancelFunc, id uint64, p *Pending) {
	defer e.wg.Done()
	defer cancel()

	started := time.Now()
	books, err := e.catalog.Search(ctx, p.query)
	completed := time.Now()

	out := Outcome{Query: p.query, Duration: completed.Sub(started)}

	e.mu.Lock()
	if id != e.current {
		state := e.state
		e.mu.Unlock()

		out.Superseded = true
		out.Err = shared.ErrSuperseded
		e.logger.Debug("discarding superseded search", "query", p.query, "error", err)
		metrics.SearchesTotal.WithLabelValues(string(models.SearchSuperseded)).Inc()
		e.record(newRecord(p.query, started, completed, nil, models.SearchSuperseded))
		e.sendUpdate(supersededUpdate(p.query, state))
		p.resolve(out)
		return
	}

	if err != nil {
		e.lastErr = err
		out.Err = err
	} else {
		e.list.ReplaceAll(books)
		e.lastErr = nil
		out.Books = books
	}
	e.state = Idle
	e.cancel = nil
	metrics.SearchInFlight.Set(0)
	e.mu.Unlock()

	metrics.SearchDuration.Observe(out.Duration.Seconds())

	if err != nil {
		e.logFailure(p.query, err)
		metrics.SearchesTotal.WithLabelValues(string(models.SearchFailed)).Inc()
		metrics.SearchFailuresTotal.WithLabelValues(failureKind(err)).Inc()
		e.record(newRecord(p.query, started, completed, err, models.SearchFailed))
		e.sendUpdate(failedUpdate(p.query, err))
	} else {
		e.logger.Info("search complete", "query", p.query, "results", len(books), "duration", out.Duration)
		metrics.SearchesTotal.WithLabelValues(string(models.SearchSucceeded)).Inc()
		metrics.SearchResults.Observe(float64(len(books)))
		rec := newRecord(p.query, started, completed, nil, models.SearchSucceeded)
		rec.ResultCount = len(books)
		e.record(rec)
		e.sendUpdate(completedUpdate(p.query, len(books)))
	}

	p.resolve(out)
}

func (e *SearchEngine) logFailure(query string, err error) {
	if f, ok := shared.AsFailure(err); ok {
		e.logger.Error("search failed", "query", query, "kind", f.Kind, "status", f.StatusCode, "message", f.Message)
		return
	}
	e.logger.Error("search failed", "query", query, "error", err)
}

func (e *SearchEngine) record(r *models.SearchRecord) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(r); err != nil {
		e.logger.Warn("failed to record search", "query", r.Query, "error", err)
	}
}

// Close cancels any in-flight search and waits for it to finish.
//
// The cancelled search resolves as superseded. Later submissions fail immediately.
func (e *SearchEngine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.current++
	e.state = Idle
	metrics.SearchInFlight.Set(0)
	e.mu.Unlock()

	e.wg.Wait()
}

func newRecord(query string, started, completed time.Time, err error, status models.SearchStatus) *models.SearchRecord {
	r := &models.SearchRecord{
		RecordID:    shared.GenerateID(),
		Query:       query,
		Status:      status,
		StartedAt:   started,
		CompletedAt: completed,
	}
	if err == nil {
		return r
	}

	r.ErrorMessage = err.Error()
	r.FailureKind = failureKind(err)
	if f, ok := shared.AsFailure(err); ok {
		r.StatusCode = f.StatusCode
	}
	return r
}

func failureKind(err error) string {
	if f, ok := shared.AsFailure(err); ok {
		return f.Kind.String()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return shared.NetworkFailure.String()
	}
	return "unknown"
}
