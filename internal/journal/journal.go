// Package journal persists resolved calls to sqlite.
//
// DESIGN: The journal does not hook into the engine internals. It exposes an
// ordinary global-scope after/error registration via Hooks(), so persistence
// runs through the same pipeline as user hooks. Insert failures are logged
// and swallowed; a broken journal must not fail the call it is recording.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/manifoldhq/manifold/internal/hooks"
)

const schema = `
CREATE TABLE IF NOT EXISTS calls (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	call_id   TEXT NOT NULL,
	path      TEXT NOT NULL,
	method    TEXT NOT NULL,
	ok        INTEGER NOT NULL,
	error     TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_calls_path ON calls(path, method);
`

// Entry is one recorded call.
type Entry struct {
	CallID   string
	Path     string
	Method   string
	OK       bool
	Error    string
	Duration time.Duration
	At       time.Time
}

// Journal records resolved calls.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path. Use ":memory:" for
// an ephemeral journal in tests.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	// modernc sqlite is single-writer; avoid SQLITE_BUSY under concurrent hooks.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Hooks returns the global-scope registration that wires call recording.
func (j *Journal) Hooks() hooks.Map {
	return hooks.Map{
		After: hooks.Methods{hooks.AllMethods: {j.recordSuccess}},
		Error: hooks.Methods{hooks.AllMethods: {j.recordFailure}},
	}
}

func (j *Journal) recordSuccess(ctx *hooks.Context) error {
	j.insert(ctx, true, "")
	return nil
}

func (j *Journal) recordFailure(ctx *hooks.Context) error {
	errText := ""
	if ctx.Err != nil {
		errText = ctx.Err.Error()
	}
	j.insert(ctx, ctx.Err == nil, errText)
	return nil
}

func (j *Journal) insert(ctx *hooks.Context, ok bool, errText string) {
	_, err := j.db.Exec(
		`INSERT INTO calls (call_id, path, method, ok, error, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		ctx.CallID, ctx.Path, ctx.Method, ok, errText, time.Since(ctx.StartedAt).Milliseconds(),
	)
	if err != nil {
		log.Error().Err(err).Str("call_id", ctx.CallID).Msg("journal insert failed")
	}
}

// Recent returns the newest n entries, newest first.
func (j *Journal) Recent(n int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT call_id, path, method, ok, error, duration_ms, created_at
		 FROM calls ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		if err := rows.Scan(&e.CallID, &e.Path, &e.Method, &e.OK, &e.Error, &durationMs, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
