// Package history keeps an append-only journal of vault-level events in
// a local SQLite database: container lifecycle and sync operations with
// timestamps. Entries never include service names, usernames, or
// secrets.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/picvet/lox/internal/events"
)

// CurrentSchemaVersion tracks the journal database layout.
const CurrentSchemaVersion = 1

// Operation labels a journal entry.
type Operation string

const (
	OpInit  Operation = "init"
	OpReset Operation = "reset"
	OpSeal  Operation = "seal"
	OpPush  Operation = "push"
	OpPull  Operation = "pull"
)

// Event is one journal entry.
type Event struct {
	ID        int64     `json:"id"`
	Operation Operation `json:"operation"`
	VaultPath string    `json:"vault_path"`
	RemoteID  string    `json:"remote_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder is implemented by journal backends.
type Recorder interface {
	Append(ev Event) error
	List(vaultPath string, limit int) ([]Event, error)
	Close() error
}

// Journal is the SQLite-backed event log.
type Journal struct {
	db     *sql.DB
	logger *events.Logger
}

// NewJournal opens the journal database, creating the schema when
// missing.
func NewJournal(dbPath string, logger *events.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	journal := &Journal{
		db:     db,
		logger: logger.WithField("component", "history_journal"),
	}

	if err := journal.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return journal, nil
}

// initialize creates tables and indexes.
func (j *Journal) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS vault_events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        operation TEXT NOT NULL,
        vault_path TEXT NOT NULL,
        remote_id TEXT,
        detail TEXT,
        created_at TIMESTAMP NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_vault_events_path
        ON vault_events(vault_path, created_at);

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := j.db.Exec(schema, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Append records an event. The timestamp is stamped here when unset.
func (j *Journal) Append(ev Event) error {
	if ev.Operation == "" {
		return fmt.Errorf("history: operation is required")
	}
	if ev.VaultPath == "" {
		return fmt.Errorf("history: vault path is required")
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.Exec(`
        INSERT INTO vault_events (operation, vault_path, remote_id, detail, created_at)
        VALUES (?, ?, ?, ?, ?)
    `, string(ev.Operation), ev.VaultPath, nullable(ev.RemoteID), nullable(ev.Detail), ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"operation":  string(ev.Operation),
		"vault_path": ev.VaultPath,
	}).Debug("Journal entry recorded")

	return nil
}

// List returns the most recent entries for a vault, newest first.
func (j *Journal) List(vaultPath string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.Query(`
        SELECT id, operation, vault_path, remote_id, detail, created_at
        FROM vault_events
        WHERE vault_path = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `, vaultPath, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var entries []Event
	for rows.Next() {
		var ev Event
		var op string
		var remoteID, detail sql.NullString

		if err := rows.Scan(&ev.ID, &op, &ev.VaultPath, &remoteID, &detail, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		ev.Operation = Operation(op)
		if remoteID.Valid {
			ev.RemoteID = remoteID.String
		}
		if detail.Valid {
			ev.Detail = detail.String
		}

		entries = append(entries, ev)
	}

	return entries, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// NopJournal discards events; used when history is disabled.
type NopJournal struct{}

func (NopJournal) Append(Event) error { return nil }

func (NopJournal) List(string, int) ([]Event, error) { return nil, nil }

func (NopJournal) Close() error { return nil }

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
