// Package journal records install and apply runs in a SQLite table so
// failures can be inspected after the fact.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// State is the outcome of a recorded run.
type State int

const (
	StateRunning State = iota
	StateSucceeded
	StateSkipped
	StateFailed
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateSucceeded:
		return "Succeeded"
	case StateSkipped:
		return "Skipped"
	case StateFailed:
		return "Failed"
	case StateInterrupted:
		return "Interrupted"
	default:
		return "Unknown"
	}
}

// MarshalJSON serializes State as a lowercase string for JSON.
func (s State) MarshalJSON() ([]byte, error) {
	var str string
	switch s {
	case StateRunning:
		str = "running"
	case StateSucceeded:
		str = "succeeded"
	case StateSkipped:
		str = "skipped"
	case StateFailed:
		str = "failed"
	case StateInterrupted:
		str = "interrupted"
	default:
		str = "unknown"
	}
	return json.Marshal(str)
}

// UnmarshalJSON deserializes State from a string.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	switch str {
	case "succeeded":
		*s = StateSucceeded
	case "skipped":
		*s = StateSkipped
	case "failed":
		*s = StateFailed
	case "interrupted":
		*s = StateInterrupted
	default:
		*s = StateRunning
	}
	return nil
}

// Kind names the operation a run performed.
type Kind string

const (
	KindInstall  Kind = "install"
	KindApply    Kind = "apply"
	KindDownload Kind = "download"
)

// Entry is one recorded run.
type Entry struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Pack       string    `json:"pack"`
	State      State     `json:"state"`
	Message    string    `json:"message"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is zero while the run is unfinished.
func (e Entry) Duration() time.Duration {
	if e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Journal persists entries. A nil *Journal records nothing.
type Journal struct {
	Db *sql.DB
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	j, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// New wraps db and creates the runs table if it doesn't exist.
func New(db *sql.DB) (*Journal, error) {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		pack TEXT,
		state INTEGER NOT NULL,
		message TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}
	return &Journal{Db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j == nil || j.Db == nil {
		return nil
	}
	return j.Db.Close()
}

// Begin records the start of a run.
func (j *Journal) Begin(ctx context.Context, kind Kind, pack string) *Entry {
	e := &Entry{
		ID:        uuid.New().String(),
		Kind:      kind,
		Pack:      pack,
		State:     StateRunning,
		StartedAt: time.Now(),
	}
	if j == nil || j.Db == nil {
		return e
	}

	_, err := j.Db.ExecContext(context.WithoutCancel(ctx),
		`INSERT INTO runs (id, kind, pack, state, message, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Pack, int(e.State), "", e.StartedAt)
	if err != nil {
		log.Printf("journal: failed to record %s %s: %v", kind, pack, err)
	}
	return e
}

// Finish records the outcome of a run started with Begin.
func (j *Journal) Finish(ctx context.Context, e *Entry, state State, message string) {
	e.State = state
	e.Message = message
	e.FinishedAt = time.Now()
	if j == nil || j.Db == nil {
		return
	}

	_, err := j.Db.ExecContext(context.WithoutCancel(ctx),
		`UPDATE runs SET state = ?, message = ?, finished_at = ? WHERE id = ?`,
		int(e.State), e.Message, e.FinishedAt, e.ID)
	if err != nil {
		log.Printf("journal: failed to finish %s: %v", e.ID, err)
	}
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j == nil || j.Db == nil {
		return nil, nil
	}

	rows, err := j.Db.QueryContext(ctx, `
	SELECT id, kind, COALESCE(pack, ''), state, COALESCE(message, ''), started_at, finished_at
	FROM runs
	ORDER BY seq DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		var state int
		var finished sql.NullTime
		if err := rows.Scan(&e.ID, &kind, &e.Pack, &state, &e.Message, &e.StartedAt, &finished); err != nil {
			log.Printf("journal: error scanning run row: %v", err)
			continue
		}
		e.Kind = Kind(kind)
		e.State = State(state)
		if finished.Valid {
			e.FinishedAt = finished.Time
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
