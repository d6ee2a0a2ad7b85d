package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded job.
type Entry struct {
	ID           int64
	RunID        string
	Source       string
	Output       string
	Format       string
	Decoder      string
	Mode         string
	State        string
	FailedStage  string
	Error        string
	TagCount     int
	InputDeleted bool
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration reports how long the job took.
func (e Entry) Duration() time.Duration {
	if e.FinishedAt.Before(e.StartedAt) {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Filter narrows List results.
type Filter struct {
	// Limit caps the number of rows; zero means no limit.
	Limit  int
	RunID  string
	States []string
}

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends an entry and returns its row id.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if strings.TrimSpace(e.Source) == "" {
		return 0, fmt.Errorf("journal entry requires a source path")
	}
	if strings.TrimSpace(e.State) == "" {
		return 0, fmt.Errorf("journal entry requires a state")
	}
	started := e.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	finished := e.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO conversions (
            run_id, source_path, output_path, format, decoder, mode, state,
            failed_stage, error_message, tag_count, input_deleted, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID,
		e.Source,
		nullableString(e.Output),
		e.Format,
		nullableString(e.Decoder),
		nullableString(e.Mode),
		e.State,
		nullableString(e.FailedStage),
		nullableString(e.Error),
		e.TagCount,
		boolToInt(e.InputDeleted),
		started.UTC().Format(time.RFC3339Nano),
		finished.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert conversion: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if run := strings.TrimSpace(filter.RunID); run != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, run)
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			placeholders[i] = "?"
			args = append(args, state)
		}
		clauses = append(clauses, "state IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := "SELECT " + entryColumns + " FROM conversions"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversions: %w", err)
	}
	return entries, nil
}
