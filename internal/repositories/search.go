package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/shared"
)

const searchColumns = `id, sequence, query, status, result_count, failure_kind, status_code, error_message,
	started_at, completed_at, created_at, updated_at, deleted_at`

// SearchRepository implements [models.Repository] for [models.SearchRecord] persistence.
type SearchRepository struct {
	db *sql.DB
}

// NewSearchRepository creates a new [SearchRepository] with the given database connection
func NewSearchRepository(db *sql.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Create inserts a new search record with a sequence and, when missing, a generated ID
func (r *SearchRepository) Create(record *models.SearchRecord) error {
	if record.RecordID == "" {
		record.RecordID = shared.GenerateID()
	}

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "searches")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now()
	if record.Created.IsZero() {
		record.Created = now
	}
	record.Updated = record.Created
	record.Sequence = sequence

	query := `
		INSERT INTO searches (id, sequence, query, status, result_count, failure_kind, status_code, error_message,
			started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		record.RecordID, record.Sequence, record.Query, string(record.Status), record.ResultCount,
		record.FailureKind, record.StatusCode, record.ErrorMessage,
		record.StartedAt, record.CompletedAt, record.Created, record.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert search: %w", err)
	}

	return nil
}

// Record implements the search engine's recorder hook.
func (r *SearchRepository) Record(record *models.SearchRecord) error {
	return r.Create(record)
}

// Get retrieves a search record by ID, excluding soft-deleted records
func (r *SearchRepository) Get(id string) (*models.SearchRecord, error) {
	query := `SELECT ` + searchColumns + ` FROM searches WHERE id = ? AND deleted_at IS NULL`

	record, err := scanSearch(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: search %s", shared.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query search: %w", err)
	}

	return record, nil
}

// Update modifies the outcome fields of an existing search record
func (r *SearchRepository) Update(record *models.SearchRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	now := time.Now()

	query := `
		UPDATE searches
		SET status = ?, result_count = ?, failure_kind = ?, status_code = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(record.Status), record.ResultCount, record.FailureKind, record.StatusCode, record.ErrorMessage,
		record.CompletedAt, now, record.RecordID,
	)
	if err != nil {
		return fmt.Errorf("failed to update search: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: search %s not found or already deleted", shared.ErrRecordNotFound, record.RecordID)
	}

	record.Updated = now
	return nil
}

// Delete soft-deletes a search record by ID
func (r *SearchRepository) Delete(id string) error {
	query := `
		UPDATE searches
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete search: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: search %s not found or already deleted", shared.ErrRecordNotFound, id)
	}

	return nil
}

// List retrieves search records newest first, excluding soft-deleted records.
//
// Supported criteria: "status" (string or [models.SearchStatus]), "query" (substring match, case-insensitive)
// and "limit" (int, 0 for no limit).
func (r *SearchRepository) List(criteria map[string]any) ([]*models.SearchRecord, error) {
	query := `SELECT ` + searchColumns + ` FROM searches WHERE deleted_at IS NULL`
	args := []any{}

	switch status := criteria["status"].(type) {
	case models.SearchStatus:
		if status != "" {
			query += " AND status = ?"
			args = append(args, string(status))
		}
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	if q, ok := criteria["query"].(string); ok && q != "" {
		query += " AND LOWER(query) LIKE ?"
		args = append(args, "%"+strings.ToLower(q)+"%")
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	var records []*models.SearchRecord
	for rows.Next() {
		record, err := scanSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// SearchStats summarizes recorded attempts by status.
type SearchStats struct {
	Total      int
	Succeeded  int
	Failed     int
	Superseded int
}

// Stats counts non-deleted search records per status.
func (r *SearchRepository) Stats() (SearchStats, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM searches WHERE deleted_at IS NULL GROUP BY status`)
	if err != nil {
		return SearchStats{}, fmt.Errorf("failed to query search stats: %w", err)
	}
	defer rows.Close()

	var stats SearchStats
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return SearchStats{}, fmt.Errorf("failed to scan search stats: %w", err)
		}

		stats.Total += count
		switch models.SearchStatus(status) {
		case models.SearchSucceeded:
			stats.Succeeded = count
		case models.SearchFailed:
			stats.Failed = count
		case models.SearchSuperseded:
			stats.Superseded = count
		}
	}

	if err := rows.Err(); err != nil {
		return SearchStats{}, fmt.Errorf("row iteration error: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearch(row rowScanner) (*models.SearchRecord, error) {
	var (
		record       models.SearchRecord
		status       string
		failureKind  sql.NullString
		errorMessage sql.NullString
		deletedAt    sql.NullTime
	)

	err := row.Scan(
		&record.RecordID, &record.Sequence, &record.Query, &status, &record.ResultCount,
		&failureKind, &record.StatusCode, &errorMessage,
		&record.StartedAt, &record.CompletedAt, &record.Created, &record.Updated, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Status = models.SearchStatus(status)
	record.FailureKind = failureKind.String
	record.ErrorMessage = errorMessage.String
	if deletedAt.Valid {
		record.DeletedAt = &deletedAt.Time
	}

	return &record, nil
}
