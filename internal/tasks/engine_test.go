package tasks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/booksearch/internal/metrics"
	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/results"
	"github.com/desertthunder/booksearch/internal/services"
	"github.com/desertthunder/booksearch/internal/shared"
	tu "github.com/desertthunder/booksearch/internal/testing"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func catalogServer(t *testing.T, status int, body string) services.Catalog {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("expected path /search.json, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return services.NewOpenLibraryService(services.OpenLibraryOpts{BaseURL: server.URL})
}

func newEngine(t *testing.T, catalog services.Catalog, list *results.List, opts ...func(*EngineOpts)) *SearchEngine {
	t.Helper()
	o := EngineOpts{Catalog: catalog, List: list}
	for _, fn := range opts {
		fn(&o)
	}
	engine, err := NewSearchEngine(o)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func waitOutcome(t *testing.T, p *Pending) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case <-p.Done():
	case <-ctx.Done():
		t.Fatalf("search for %q did not resolve", p.Query())
	}
	out, _ := p.Outcome()
	return out
}

func drain(ch <-chan StatusUpdate) []StatusUpdate {
	var out []StatusUpdate
	for {
		select {
		case u := <-ch:
			out = append(out, u)
		default:
			return out
		}
	}
}

func TestSearchEngine(t *testing.T) {
	t.Run("NewSearchEngine", func(t *testing.T) {
		t.Run("requires a catalog", func(t *testing.T) {
			_, err := NewSearchEngine(EngineOpts{})
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("creates a list when none is given", func(t *testing.T) {
			engine, err := NewSearchEngine(EngineOpts{Catalog: &tu.MockCatalog{}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer engine.Close()
			if engine.List() == nil {
				t.Fatal("expected a list")
			}
			if engine.State() != Idle || engine.Busy() {
				t.Error("expected new engine to be idle")
			}
		})
	})

	t.Run("dune end to end", func(t *testing.T) {
		catalog := catalogServer(t, http.StatusOK, `{"docs":[{"title":"Dune","author_name":["Frank Herbert"],"cover_i":1}]}`)
		list := results.NewList()
		updates := make(chan StatusUpdate, 10)
		engine := newEngine(t, catalog, list, func(o *EngineOpts) { o.Updates = updates })

		changes, unsubscribe := list.Subscribe()
		defer unsubscribe()

		p := engine.Submit(context.Background(), "dune")
		if !engine.Busy() {
			t.Error("expected busy indicator to be set after submit")
		}

		out := waitOutcome(t, p)
		if out.Err != nil {
			t.Fatalf("expected no error, got %v", out.Err)
		}
		if engine.Busy() || engine.State() != Idle {
			t.Error("expected busy indicator to be cleared")
		}

		want := models.Book{
			Title:    "Dune",
			Author:   "Frank Herbert",
			CoverID:  1,
			CoverURL: "https://covers.openlibrary.org/b/id/1-M.jpg",
		}
		got := list.Current()
		if len(got) != 1 || got[0] != want {
			t.Errorf("expected [%+v], got %+v", want, got)
		}

		select {
		case c := <-changes:
			if c.Len != 1 {
				t.Errorf("expected change with 1 item, got %+v", c)
			}
		default:
			t.Error("expected list change notification")
		}

		seen := drain(updates)
		if len(seen) != 2 || seen[0].State != Searching || seen[1].State != Idle {
			t.Errorf("expected Searching then Idle updates, got %+v", seen)
		}
		if seen[1].Count != 1 {
			t.Errorf("expected completed update count 1, got %d", seen[1].Count)
		}
	})

	t.Run("no match yields empty list without failure", func(t *testing.T) {
		catalog := catalogServer(t, http.StatusOK, `{"docs":[]}`)
		list := results.NewList()
		list.ReplaceAll([]models.Book{{Title: "Previous"}})
		engine := newEngine(t, catalog, list)

		out := waitOutcome(t, engine.Submit(context.Background(), "zzzzzznomatch"))
		if out.Err != nil {
			t.Fatalf("expected no failure, got %v", out.Err)
		}
		if list.Len() != 0 {
			t.Errorf("expected empty list, got %+v", list.Current())
		}
		if engine.LastError() != nil {
			t.Errorf("expected no last error, got %v", engine.LastError())
		}
	})

	t.Run("server error leaves list untouched", func(t *testing.T) {
		catalog := catalogServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
		list := results.NewList()
		previous := []models.Book{{Title: "Kept"}}
		list.ReplaceAll(previous)
		version := list.Version()

		recorder := &tu.MockRecorder{}
		failedBefore := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("failed"))
		engine := newEngine(t, catalog, list, func(o *EngineOpts) { o.Recorder = recorder })

		out := waitOutcome(t, engine.Submit(context.Background(), "dune"))

		if !errors.Is(out.Err, shared.ErrNetwork) {
			t.Fatalf("expected network failure, got %v", out.Err)
		}
		if engine.Busy() {
			t.Error("expected busy indicator to be cleared")
		}
		if list.Version() != version || list.Current()[0].Title != "Kept" {
			t.Errorf("expected list to be untouched, got %+v", list.Current())
		}

		f, ok := shared.AsFailure(engine.LastError())
		if !ok || f.Kind != shared.NetworkFailure || f.StatusCode != 500 {
			t.Errorf("expected recorded network failure with status 500, got %v", engine.LastError())
		}

		records := recorder.Snapshot()
		if len(records) != 1 {
			t.Fatalf("expected 1 history record, got %d", len(records))
		}
		if records[0].Status != models.SearchFailed || records[0].StatusCode != 500 || records[0].FailureKind != "network" {
			t.Errorf("unexpected record %+v", records[0])
		}

		if got := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("failed")); got != failedBefore+1 {
			t.Errorf("expected failed counter to increase by 1, got %v -> %v", failedBefore, got)
		}
	})

	t.Run("success after failure clears last error", func(t *testing.T) {
		catalog := &tu.MockCatalog{Err: shared.NewFailure(shared.ParseFailure, 200, "bad", nil)}
		engine := newEngine(t, catalog, nil)

		waitOutcome(t, engine.Submit(context.Background(), "a"))
		if engine.LastError() == nil {
			t.Fatal("expected last error")
		}

		catalog.Err = nil
		catalog.Books = []models.Book{{Title: "A"}}
		waitOutcome(t, engine.Submit(context.Background(), "a"))
		if engine.LastError() != nil {
			t.Errorf("expected last error cleared, got %v", engine.LastError())
		}
	})

	t.Run("superseded request is cancelled and discarded", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		catalog := &tu.MockCatalog{}
		slow := tu.BlockingCatalog(release, []models.Book{{Title: "Slow"}})
		catalog.SearchFunc = func(ctx context.Context, query string) ([]models.Book, error) {
			if query == "slow" {
				return slow(ctx, query)
			}
			return []models.Book{{Title: "Fast"}}, nil
		}

		list := results.NewList()
		engine := newEngine(t, catalog, list)

		first := engine.Submit(context.Background(), "slow")
		second := engine.Submit(context.Background(), "fast")

		outFirst := waitOutcome(t, first)
		if !outFirst.Superseded || !errors.Is(outFirst.Err, shared.ErrSuperseded) {
			t.Errorf("expected first search to be superseded, got %+v", outFirst)
		}

		outSecond := waitOutcome(t, second)
		if !outSecond.Succeeded() {
			t.Fatalf("expected second search to succeed, got %+v", outSecond)
		}

		if got := list.Current(); len(got) != 1 || got[0].Title != "Fast" {
			t.Errorf("expected [Fast], got %+v", got)
		}
		if engine.Busy() {
			t.Error("expected idle engine")
		}
	})

	t.Run("late result of a superseded request never lands", func(t *testing.T) {
		release := make(chan struct{})
		catalog := &tu.MockCatalog{}
		catalog.SearchFunc = func(ctx context.Context, query string) ([]models.Book, error) {
			if query == "first" {
				<-release
				return []models.Book{{Title: "First"}}, nil
			}
			return []models.Book{{Title: "Second"}}, nil
		}

		list := results.NewList()
		recorder := &tu.MockRecorder{}
		engine := newEngine(t, catalog, list, func(o *EngineOpts) { o.Recorder = recorder })

		first := engine.Submit(context.Background(), "first")
		second := engine.Submit(context.Background(), "second")
		waitOutcome(t, second)
		version := list.Version()

		close(release)
		out := waitOutcome(t, first)

		if !out.Superseded || out.Books != nil {
			t.Errorf("expected discarded outcome, got %+v", out)
		}
		if list.Version() != version || list.Current()[0].Title != "Second" {
			t.Errorf("expected [Second] to stay installed, got %+v", list.Current())
		}
		if engine.State() != Idle {
			t.Errorf("expected idle, got %s", engine.State())
		}

		var superseded int
		for _, r := range recorder.Snapshot() {
			if r.Status == models.SearchSuperseded {
				superseded++
			}
		}
		if superseded != 1 {
			t.Errorf("expected one superseded record, got %d", superseded)
		}
	})

	t.Run("timeout is reported as a failure", func(t *testing.T) {
		catalog := &tu.MockCatalog{SearchFunc: tu.BlockingCatalog(make(chan struct{}), nil)}
		list := results.NewList()
		engine := newEngine(t, catalog, list, func(o *EngineOpts) { o.Timeout = 20 * time.Millisecond })

		out := waitOutcome(t, engine.Submit(context.Background(), "dune"))
		if !errors.Is(out.Err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", out.Err)
		}
		if engine.Busy() || list.Version() != 0 {
			t.Error("expected idle engine and untouched list")
		}
	})

	t.Run("recorder errors do not affect the search", func(t *testing.T) {
		catalog := &tu.MockCatalog{Books: []models.Book{{Title: "A"}}}
		recorder := &tu.MockRecorder{Err: errors.New("disk full")}
		engine := newEngine(t, catalog, nil, func(o *EngineOpts) { o.Recorder = recorder })

		out, err := engine.Search(context.Background(), "a")
		if err != nil || len(out.Books) != 1 {
			t.Errorf("expected successful search, got %+v (%v)", out, err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		catalog := &tu.MockCatalog{SearchFunc: tu.BlockingCatalog(make(chan struct{}), nil)}
		engine, err := NewSearchEngine(EngineOpts{Catalog: catalog})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p := engine.Submit(context.Background(), "dune")
		engine.Close()

		out := waitOutcome(t, p)
		if !out.Superseded {
			t.Errorf("expected in-flight search to be discarded, got %+v", out)
		}
		if engine.Busy() {
			t.Error("expected idle after close")
		}

		after := waitOutcome(t, engine.Submit(context.Background(), "again"))
		if !errors.Is(after.Err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable after close, got %v", after.Err)
		}

		engine.Close()
	})
}

func TestPending(t *testing.T) {
	t.Run("Wait honours context", func(t *testing.T) {
		p := newPending("dune")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if _, ok := p.Outcome(); ok {
			t.Error("expected unresolved pending")
		}
	})

	t.Run("resolves once", func(t *testing.T) {
		p := newPending("dune")
		p.resolve(Outcome{Query: "dune", Books: []models.Book{{Title: "Dune"}}})
		p.resolve(Outcome{Query: "dune", Err: errors.New("second")})

		out, err := p.Wait(context.Background())
		if err != nil || len(out.Books) != 1 {
			t.Errorf("expected first resolution to win, got %+v (%v)", out, err)
		}
	})
}

func TestState(t *testing.T) {
	if Idle.String() != "idle" || Searching.String() != "searching" {
		t.Errorf("unexpected state names %s/%s", Idle, Searching)
	}
}
