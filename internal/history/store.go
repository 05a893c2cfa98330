// Package history persists executed statements in a local SQLite database.
package history

import (
	"database/sql"
	_ "embed"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one executed statement.
type Entry struct {
	ID             string
	ConnectionName string
	Query          string
	ExecutedAt     time.Time
	Duration       time.Duration
	RowCount       int
	Success        bool
	ErrorMessage   string
}

// Store manages query history persistence.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Add records an executed statement. Re-running a statement on the same
// connection replaces the earlier entry so history stays deduplicated with
// the most recent run on top.
func (s *Store) Add(entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`DELETE FROM query_history WHERE connection_name = ? AND query = ?`,
		entry.ConnectionName, entry.Query,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO query_history
		(id, connection_name, query, duration_ms, row_count, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ConnectionName,
		entry.Query,
		entry.Duration.Milliseconds(),
		entry.RowCount,
		entry.Success,
		entry.ErrorMessage,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Recent retrieves the most recent entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	return s.query(`
		SELECT id, connection_name, query, executed_at,
		       duration_ms, row_count, success, error_message
		FROM query_history
		ORDER BY executed_at DESC, rowid DESC
		LIMIT ?`, limit)
}

// Search finds entries whose statement text contains the given fragment.
func (s *Store) Search(fragment string, limit int) ([]Entry, error) {
	return s.query(`
		SELECT id, connection_name, query, executed_at,
		       duration_ms, row_count, success, error_message
		FROM query_history
		WHERE query LIKE ?
		ORDER BY executed_at DESC, rowid DESC
		LIMIT ?`, "%"+fragment+"%", limit)
}

// Prune keeps only the newest max entries.
func (s *Store) Prune(max int) error {
	_, err := s.db.Exec(`
		DELETE FROM query_history WHERE id NOT IN (
			SELECT id FROM query_history
			ORDER BY executed_at DESC, rowid DESC
			LIMIT ?
		)`, max)
	return err
}

func (s *Store) query(q string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		var executedAt string

		err := rows.Scan(
			&e.ID,
			&e.ConnectionName,
			&e.Query,
			&executedAt,
			&durationMs,
			&e.RowCount,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ExecutedAt, _ = time.Parse("2006-01-02 15:04:05", executedAt)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
