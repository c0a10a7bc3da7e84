package events

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Journal is an append-only SQLite log of interaction events, kept for
// audit and replay. It implements [Sink]: appends triggered through the
// sink methods are fire-and-forget, with write failures counted rather
// than surfaced (the reporting instance must never care).
type Journal struct {
	db      *sql.DB
	mu      sync.Mutex
	dropped atomic.Uint64
}

var _ Sink = (*Journal)(nil)

// OpenJournal opens (or creates) the journal database at path.
// WAL mode is enabled for concurrent readers during appends.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migration: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// migrate creates the events table if it doesn't exist.
func (j *Journal) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS events (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		kind     TEXT NOT NULL,
		instance TEXT NOT NULL,
		element  TEXT,
		x        REAL,
		y        REAL,
		at       DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_instance ON events(instance, id);
	`
	if _, err := j.db.Exec(query); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

// Append writes one event synchronously. The sink methods route through
// here and discard the error; callers that need delivery guarantees can
// call Append directly.
func (j *Journal) Append(ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.Exec(
		`INSERT INTO events (kind, instance, element, x, y, at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(ev.Kind), ev.Instance, ev.Element, ev.X, ev.Y, ev.At,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Dropped returns how many fire-and-forget appends have failed since the
// journal was opened.
func (j *Journal) Dropped() uint64 { return j.dropped.Load() }

func (j *Journal) append(kind Kind, instance, element string, x, y float64) {
	err := j.Append(Event{Kind: kind, Instance: instance, Element: element, X: x, Y: y})
	if err != nil {
		j.dropped.Add(1)
	}
}

func (j *Journal) NodeClicked(instance, nodeID string) {
	j.append(KindNodeClick, instance, nodeID, 0, 0)
}

func (j *Journal) NodeDoubleClicked(instance, nodeID string) {
	j.append(KindNodeDoubleClick, instance, nodeID, 0, 0)
}

func (j *Journal) EdgeClicked(instance, edgeID string) {
	j.append(KindEdgeClick, instance, edgeID, 0, 0)
}

func (j *Journal) CanvasClicked(instance string) {
	j.append(KindCanvasClick, instance, "", 0, 0)
}

func (j *Journal) NodeDragEnded(instance, nodeID string, x, y float64) {
	j.append(KindNodeDragEnd, instance, nodeID, x, y)
}

func (j *Journal) NodeAdded(instance, nodeID string) {
	j.append(KindNodeAdded, instance, nodeID, 0, 0)
}

func (j *Journal) NodeRemoved(instance, nodeID string) {
	j.append(KindNodeRemoved, instance, nodeID, 0, 0)
}

func (j *Journal) EdgeAdded(instance, edgeID string) {
	j.append(KindEdgeAdded, instance, edgeID, 0, 0)
}

func (j *Journal) EdgeRemoved(instance, edgeID string) {
	j.append(KindEdgeRemoved, instance, edgeID, 0, 0)
}

// Recent returns up to limit events for the instance, newest first.
// A limit of 0 or less defaults to 100.
func (j *Journal) Recent(ctx context.Context, instance string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT kind, instance, element, x, y, at FROM events
		 WHERE instance = ? ORDER BY id DESC LIMIT ?`,
		instance, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var element sql.NullString
		if err := rows.Scan(&ev.Kind, &ev.Instance, &element, &ev.X, &ev.Y, &ev.At); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Element = element.String
		out = append(out, ev)
	}
	return out, rows.Err()
}
