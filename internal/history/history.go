// Package history keeps an append-only journal of updater activity in a
// local SQLite database. The journal is advisory: callers treat write
// failures as debug-log material, so a missing or broken database never
// blocks a version check or an update.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, WAL-friendly

	"github.com/KarlQuerel/cursor-appimage-updater/internal/debug"
	appErrors "github.com/KarlQuerel/cursor-appimage-updater/internal/errors"
)

// Event classifies a journal entry.
type Event string

const (
	EventCheck    Event = "check"
	EventDownload Event = "download"
	EventActivate Event = "activate"
	EventUpdate   Event = "update"
)

// Entry outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Entry is one journal row.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Event     Event
	Version   string
	Outcome   string
	Detail    string
}

// Journal records and queries updater activity at a SQLite database path.
type Journal struct {
	dbPath string
	dsn    string
}

// New constructs a Journal for the database at dbPath. The database and its
// parent directory are created on first write.
func New(dbPath string) *Journal {
	return &Journal{
		dbPath: dbPath,
		dsn:    buildJournalDSN(dbPath),
	}
}

// buildJournalDSN creates a read-write-create WAL DSN for the given path.
func buildJournalDSN(dbPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(dbPath),
	}
	q := url.Values{}
	q.Set("mode", "rwc")
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", "3000")
	u.RawQuery = q.Encode()
	return u.String()
}

func (j *Journal) openDB(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(j.dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", j.dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			event TEXT NOT NULL,
			version TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}
	return db, nil
}

// Record appends one entry to the journal.
func (j *Journal) Record(ctx context.Context, event Event, version, outcome, detail string) error {
	db, err := j.openDB(ctx)
	if err != nil {
		return appErrors.New(appErrors.CodeHistoryError, "recording event", err)
	}
	defer func() {
		_ = db.Close()
	}()

	_, err = db.ExecContext(ctx, `
		INSERT INTO events (created_at, event, version, outcome, detail)
		VALUES (?, ?, ?, ?, ?)
	`, time.Now().UTC().Format(time.RFC3339), string(event), version, outcome, detail)
	if err != nil {
		return appErrors.New(appErrors.CodeHistoryError, "recording event", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first, at most limit rows.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	db, err := j.openDB(ctx)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeHistoryError, "listing events", err)
	}
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.QueryContext(ctx, `
		SELECT id, created_at, event, version, outcome, detail
		FROM events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeHistoryError, "listing events", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeHistoryError, "listing events", err)
	}
	return entries, nil
}

// LastUpdate returns the most recent successful update entry. A missing or
// unreadable journal reports absence, never an error.
func (j *Journal) LastUpdate(ctx context.Context) (Entry, bool) {
	db, err := j.openDB(ctx)
	if err != nil {
		debug.Logf("history: open for last update: %v", err)
		return Entry{}, false
	}
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.QueryContext(ctx, `
		SELECT id, created_at, event, version, outcome, detail
		FROM events
		WHERE event = ? AND outcome = ?
		ORDER BY id DESC
		LIMIT 1
	`, string(EventUpdate), OutcomeOK)
	if err != nil {
		debug.Logf("history: query last update: %v", err)
		return Entry{}, false
	}
	defer func() {
		_ = rows.Close()
	}()

	entries, err := scanEntries(rows)
	if err != nil || len(entries) == 0 {
		if err != nil {
			debug.Logf("history: scan last update: %v", err)
		}
		return Entry{}, false
	}
	return entries[0], true
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			createdAt string
			event     string
		)
		if err := rows.Scan(&entry.ID, &createdAt, &event, &entry.Version, &entry.Outcome, &entry.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		entry.Event = Event(event)
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			entry.Timestamp = ts
		}
		entries = append(entries, entry)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, rows.Err()
}
