package tasks

import (
	"fmt"
)

// State of the search engine.
type State int

const (
	Idle State = iota
	Searching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	default:
		return ""
	}
}

// StatusUpdate represents a state transition of the engine.
//
// Used to send real-time updates to the CLI or UI layer for display.
type StatusUpdate struct {
	State      State  // State after the transition
	Query      string // Query the transition belongs to
	Count      int    // Number of books on success
	Err        error  // Failure, if any
	Superseded bool   // Result was discarded in favour of a newer query
	Message    string // Human-readable message for display
}

func searchingUpdate(query string) StatusUpdate {
	return StatusUpdate{
		State:   Searching,
		Query:   query,
		Message: fmt.Sprintf("Searching for %q...", query),
	}
}

func completedUpdate(query string, count int) StatusUpdate {
	return StatusUpdate{
		State:   Idle,
		Query:   query,
		Count:   count,
		Message: fmt.Sprintf("✓ %d result(s) for %q", count, query),
	}
}

func failedUpdate(query string, err error) StatusUpdate {
	return StatusUpdate{
		State:   Idle,
		Query:   query,
		Err:     err,
		Message: fmt.Sprintf("✗ %q: %v", query, err),
	}
}

func supersededUpdate(query string, current State) StatusUpdate {
	return StatusUpdate{
		State:      current,
		Query:      query,
		Superseded: true,
		Message:    fmt.Sprintf("Discarded results for %q", query),
	}
}
