package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/booksearch/internal/models"
)

// Outcome is the resolution of one submission.
type Outcome struct {
	Query      string
	Books      []models.Book // nil unless the search succeeded and was applied
	Err        error
	Superseded bool
	Duration   time.Duration
}

// Succeeded reports whether the outcome was applied to the list.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && !o.Superseded
}

// Pending is the handle returned by [SearchEngine.Submit].
//
// It resolves exactly once.
type Pending struct {
	query   string
	done    chan struct{}
	once    sync.Once
	outcome Outcome
}

func newPending(query string) *Pending {
	return &Pending{query: query, done: make(chan struct{})}
}

func (p *Pending) Query() string { return p.query }

// Done is closed once the outcome is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the submission resolves or ctx ends.
//
// The returned error is the outcome's error, or ctx's error when ctx ended first.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, p.outcome.Err
	case <-ctx.Done():
		return Outcome{Query: p.query}, ctx.Err()
	}
}

// Outcome returns the outcome without blocking; ok is false while unresolved.
func (p *Pending) Outcome() (Outcome, bool) {
	select {
	case <-p.done:
		return p.outcome, true
	default:
		return Outcome{}, false
	}
}

func (p *Pending) resolve(o Outcome) {
	p.once.Do(func() {
		p.outcome = o
		close(p.done)
	})
}
