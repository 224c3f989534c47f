package models

import (
	"fmt"
	"strings"
	"time"
)

// SearchStatus is how a search attempt resolved.
type SearchStatus string

const (
	SearchSucceeded  SearchStatus = "succeeded"
	SearchFailed     SearchStatus = "failed"
	SearchSuperseded SearchStatus = "superseded"
)

// Valid reports whether s is one of the known statuses.
func (s SearchStatus) Valid() bool {
	switch s {
	case SearchSucceeded, SearchFailed, SearchSuperseded:
		return true
	}
	return false
}

// ParseSearchStatus parses a case-insensitive status name.
func ParseSearchStatus(name string) (SearchStatus, error) {
	s := SearchStatus(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown search status %q", name)
	}
	return s, nil
}

// SearchRecord is the persisted history entry for one search attempt.
//
// It stores the outcome only, never the returned books.
type SearchRecord struct {
	RecordID     string       `json:"id"`
	Sequence     int64        `json:"sequence"`
	Query        string       `json:"query"`
	Status       SearchStatus `json:"status"`
	ResultCount  int          `json:"result_count"`
	FailureKind  string       `json:"failure_kind,omitempty"` // network, parse or empty
	StatusCode   int          `json:"status_code,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  time.Time    `json:"completed_at"`
	Created      time.Time    `json:"created_at"`
	Updated      time.Time    `json:"updated_at"`
	DeletedAt    *time.Time   `json:"deleted_at,omitempty"`
}

func (r *SearchRecord) ID() string           { return r.RecordID }
func (r *SearchRecord) CreatedAt() time.Time { return r.Created }
func (r *SearchRecord) UpdatedAt() time.Time { return r.Updated }

// Duration returns how long the attempt took.
func (r *SearchRecord) Duration() time.Duration {
	if r.CompletedAt.Before(r.StartedAt) {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Validate checks required fields and the status/result consistency.
func (r *SearchRecord) Validate() error {
	if r.RecordID == "" {
		return fmt.Errorf("search record ID is required")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid search status %q", r.Status)
	}
	if r.ResultCount < 0 {
		return fmt.Errorf("result count must not be negative")
	}
	if r.Status != SearchSucceeded && r.ResultCount != 0 {
		return fmt.Errorf("%s search cannot report results", r.Status)
	}
	return nil
}
