// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal records the outcome of every processed packing list in a
// SQLite database so repeated runs can skip documents already converted.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

// DefaultFile is the journal file name used when only a directory is known.
const DefaultFile = "cmr-journal.db"

// timeFormat has fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the journal database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the journal at path and ensures its schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			source_mod_time TEXT,
			status TEXT NOT NULL,
			output_path TEXT,
			reference TEXT,
			boxes INTEGER,
			total_weight INTEGER,
			error TEXT,
			converted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_source ON conversions(source_path)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores e, assigning an ID and timestamp when absent.
func (s *Store) Record(ctx context.Context, e types.JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ConvertedAt.IsZero() {
		e.ConvertedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions
			(id, source_path, source_mod_time, status, output_path, reference, boxes, total_weight, error, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SourcePath, formatTime(e.SourceModTime), string(e.Status), e.OutputPath,
		e.Reference, e.Boxes, e.TotalWeight, e.Error, formatTime(e.ConvertedAt),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.SourcePath, err)
	}
	return nil
}

// Converted reports whether path was converted successfully while it had
// the given modification time.
func (s *Store) Converted(ctx context.Context, path string, modTime time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM conversions
		WHERE source_path = ? AND status = ? AND source_mod_time = ?`,
		path, string(types.ConversionDone), formatTime(modTime),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	return n > 0, nil
}

// Failed reports whether the latest entry for path is a failure recorded
// while the file had the given modification time.
func (s *Store) Failed(ctx context.Context, path string, modTime time.Time) (bool, error) {
	var status, mod sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT status, source_mod_time FROM conversions
		WHERE source_path = ?
		ORDER BY converted_at DESC, rowid DESC LIMIT 1`,
		path,
	).Scan(&status, &mod)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	return status.String == string(types.ConversionFailed) && mod.String == formatTime(modTime), nil
}

// Query filters List and the exports. Zero values match everything.
type Query struct {
	Status types.ConversionStatus
	Source string
	Since  time.Time
	Limit  int
}

// List returns entries matching q, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]types.JournalEntry, error) {
	var (
		where []string
		args  []any
	)
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.Source != "" {
		where = append(where, "source_path = ?")
		args = append(args, q.Source)
	}
	if !q.Since.IsZero() {
		where = append(where, "converted_at >= ?")
		args = append(args, formatTime(q.Since))
	}

	query := `SELECT id, source_path, source_mod_time, status, output_path, reference,
		boxes, total_weight, error, converted_at FROM conversions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY converted_at DESC, rowid DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []types.JournalEntry
	for rows.Next() {
		var (
			e                  types.JournalEntry
			status             string
			modTime, converted sql.NullString
			output, ref, msg   sql.NullString
			boxes, weight      sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.SourcePath, &modTime, &status, &output, &ref,
			&boxes, &weight, &msg, &converted); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Status = types.ConversionStatus(status)
		e.SourceModTime = parseTime(modTime.String)
		e.ConvertedAt = parseTime(converted.String)
		e.OutputPath = output.String
		e.Reference = ref.String
		e.Error = msg.String
		e.Boxes = int(boxes.Int64)
		e.TotalWeight = int(weight.Int64)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
