// Package localdb is the on-disk store for one user's data: a snapshot of
// the last known server state, so the CLI can render while offline, and a
// durable queue of mutations made between invocations while offline.
package localdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/restrainapp/restrain/internal/models"
	_ "modernc.org/sqlite"
)

const dbFile = "restrain.db"

// Mutation kinds persisted in the pending queue.
const (
	KindToggle      = "toggle"
	KindAddHabit    = "add_habit"
	KindRemoveHabit = "remove_habit"
)

// Toggle is the queued payload for a completion toggle.
type Toggle struct {
	HabitID   string `json:"habit_id"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Notes     string `json:"notes,omitempty"`
}

// AddHabit is the queued payload for a habit creation.
type AddHabit struct {
	Habit models.Habit `json:"habit"`
}

// RemoveHabit is the queued payload for a habit removal.
type RemoveHabit struct {
	HabitID string `json:"habit_id"`
}

// Pending is one queued mutation awaiting connectivity.
type Pending struct {
	ID        int64
	Kind      string
	Payload   []byte
	CreatedAt time.Time
}

// DB wraps the local database connection.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the local database under baseDir and runs
// migrations.
func Open(baseDir string) (*DB, error) {
	dbPath := filepath.Join(baseDir, dbFile)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL for concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS habits (
			id   TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS entries (
			id   TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS pending_mutations (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			kind       TEXT NOT NULL,
			payload    TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
	`)
	return err
}

// SaveSnapshot replaces the stored server-state snapshot with the given
// collections. All-or-nothing.
func (d *DB) SaveSnapshot(habits []models.Habit, entries []models.HabitEntry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM habits"); err != nil {
		return fmt.Errorf("clear habits: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	for _, h := range habits {
		data, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("marshal habit %s: %w", h.ID, err)
		}
		if _, err := tx.Exec("INSERT INTO habits (id, data) VALUES (?, ?)", h.ID, string(data)); err != nil {
			return fmt.Errorf("insert habit %s: %w", h.ID, err)
		}
	}
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry %s: %w", e.ID, err)
		}
		if _, err := tx.Exec("INSERT INTO entries (id, data) VALUES (?, ?)", e.ID, string(data)); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// LoadSnapshot returns the stored server-state snapshot.
func (d *DB) LoadSnapshot() ([]models.Habit, []models.HabitEntry, error) {
	rows, err := d.conn.Query("SELECT data FROM habits ORDER BY id")
	if err != nil {
		return nil, nil, fmt.Errorf("query habits: %w", err)
	}
	var habits []models.Habit
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			rows.Close()
			return nil, nil, err
		}
		var h models.Habit
		if err := json.Unmarshal([]byte(data), &h); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("decode habit: %w", err)
		}
		habits = append(habits, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	rows, err = d.conn.Query("SELECT data FROM entries ORDER BY id")
	if err != nil {
		return nil, nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	var entries []models.HabitEntry
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, nil, err
		}
		var e models.HabitEntry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, nil, fmt.Errorf("decode entry: %w", err)
		}
		entries = append(entries, e)
	}
	return habits, entries, rows.Err()
}

// Enqueue appends a mutation to the durable pending queue.
func (d *DB) Enqueue(kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = d.conn.Exec(
		"INSERT INTO pending_mutations (kind, payload, created_at) VALUES (?, ?, ?)",
		kind, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("enqueue mutation: %w", err)
	}
	return nil
}

// PendingMutations returns queued mutations in submission order.
func (d *DB) PendingMutations() ([]Pending, error) {
	rows, err := d.conn.Query(
		"SELECT id, kind, payload, created_at FROM pending_mutations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	var out []Pending
	for rows.Next() {
		var p Pending
		var payload, created string
		if err := rows.Scan(&p.ID, &p.Kind, &payload, &created); err != nil {
			return nil, err
		}
		p.Payload = []byte(payload)
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			p.CreatedAt = t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePending removes one queued mutation after it was applied.
func (d *DB) DeletePending(id int64) error {
	_, err := d.conn.Exec("DELETE FROM pending_mutations WHERE id = ?", id)
	return err
}

// PendingCount returns the queue depth.
func (d *DB) PendingCount() (int, error) {
	var n int
	err := d.conn.QueryRow("SELECT COUNT(*) FROM pending_mutations").Scan(&n)
	return n, err
}
