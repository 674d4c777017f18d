// Package store persists gtag calls in a SQLite journal.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"ganeo/internal/gtag"
	"ganeo/internal/transport"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("journal closed")

// Entry is one journaled gtag call.
type Entry struct {
	Seq       int64
	Command   gtag.Command
	Args      []any
	CreatedAt time.Time
}

// Journal appends every gtag call it receives to the gtag_calls table.
type Journal struct {
	db     *sql.DB
	dbPath string
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	closed bool
}

// JournalOption configures OpenJournal.
type JournalOption func(*Journal)

// WithJournalLogger sets the logger for write failures.
func WithJournalLogger(l *zap.Logger) JournalOption {
	return func(j *Journal) {
		if l != nil {
			j.logger = l
		}
	}
}

// WithJournalClock overrides created_at timestamps.
func WithJournalClock(now func() time.Time) JournalOption {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

// OpenJournal opens or creates the journal database at path.
func OpenJournal(path string, opts ...JournalOption) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps seq order equal to call order.
	db.SetMaxOpenConns(1)

	j := &Journal{
		db:     db,
		dbPath: path,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	if err := j.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return j, nil
}

func (j *Journal) ensureSchema() error {
	_, err := j.db.Exec(`
	CREATE TABLE IF NOT EXISTS gtag_calls (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		command TEXT NOT NULL,
		args_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_gtag_calls_command ON gtag_calls(command);
	`)
	return err
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.dbPath
}

// Gtag implements gtag.Transport. Write failures are logged, not returned.
func (j *Journal) Gtag(command gtag.Command, args ...any) {
	if err := j.Append(context.Background(), command, args...); err != nil {
		j.logger.Warn("journal append failed",
			zap.String("command", string(command)),
			zap.Error(err))
	}
}

// Append stores one call. Functions are recorded as "<func>".
func (j *Journal) Append(ctx context.Context, command gtag.Command, args ...any) error {
	data, err := json.Marshal(transport.Printable(args))
	if err != nil {
		return fmt.Errorf("failed to encode args: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO gtag_calls (command, args_json, created_at) VALUES (?, ?, ?)`,
		string(command), string(data), j.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert call: %w", err)
	}
	return nil
}

// Entries returns the most recent limit calls, oldest first. A limit of
// zero or less returns everything.
func (j *Journal) Entries(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT seq, command, args_json, created_at FROM gtag_calls ORDER BY seq`
	var queryArgs []any
	if limit > 0 {
		query = `SELECT seq, command, args_json, created_at FROM (
			SELECT seq, command, args_json, created_at FROM gtag_calls ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`
		queryArgs = append(queryArgs, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			command   string
			argsJSON  string
			createdAt string
		)
		if err := rows.Scan(&e.Seq, &command, &argsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Command = gtag.Command(command)
		if err := json.Unmarshal([]byte(argsJSON), &e.Args); err != nil {
			return nil, fmt.Errorf("row %d: failed to decode args: %w", e.Seq, err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("row %d: bad created_at: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of journaled calls.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gtag_calls`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count journal: %w", err)
	}
	return n, nil
}

// Close closes the database connection. Later appends return ErrClosed.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}
