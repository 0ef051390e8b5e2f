// Package persistence keeps a write-only SQLite journal of completed turns.
// The journal is a record for later reading and export; a session is never
// restored from it.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/neo-haven/internal/engine"
)

// DB wraps a SQLite connection holding the turn journal.
type DB struct {
	conn *sqlx.DB
}

// Session is one played game.
type Session struct {
	ID         string `db:"id" json:"id"`
	StartedAt  string `db:"started_at" json:"started_at"`
	Population int    `db:"population" json:"population"`
	NoiseSeed  int64  `db:"noise_seed" json:"noise_seed"`
	Status     string `db:"status" json:"status"`
	Turns      int    `db:"turns" json:"turns"`
}

// TurnRecord is one journaled turn. Metrics and samples are stored as JSON.
type TurnRecord struct {
	ID          int64  `db:"id"`
	SessionID   string `db:"session_id"`
	Turn        int    `db:"turn"`
	Action      string `db:"action"`
	Narrative   string `db:"narrative"`
	Status      string `db:"status"`
	MetricsJSON string `db:"metrics_json"`
	SamplesJSON string `db:"samples_json"`
	RecordedAt  string `db:"recorded_at"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		population INTEGER NOT NULL,
		noise_seed INTEGER NOT NULL,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		turn INTEGER NOT NULL,
		action TEXT NOT NULL,
		narrative TEXT NOT NULL,
		status TEXT NOT NULL,
		metrics_json TEXT NOT NULL,
		samples_json TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		UNIQUE (session_id, turn)
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, turn);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// StartSession registers a new session and returns its id.
func (db *DB) StartSession(population int, noiseSeed int64) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO sessions (id, started_at, population, noise_seed, status) VALUES (?, ?, ?, ?, ?)",
		id, now(), population, noiseSeed, string(engine.Playing),
	)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	slog.Info("journal session started", "session", id, "population", population)
	return id, nil
}

// RecordTurn journals one completed turn and the session status it led to.
func (db *DB) RecordTurn(sessionID string, out engine.Outcome) error {
	metricsJSON, err := json.Marshal(out.State.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	samplesJSON, err := json.Marshal(out.Result.AgentSamples)
	if err != nil {
		return fmt.Errorf("marshal samples: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status := string(out.State.Status)
	if _, err := tx.Exec(`INSERT INTO turns
		(session_id, turn, action, narrative, status, metrics_json, samples_json, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, out.Previous.Turn, lastAction(out.State), out.Result.Narrative,
		status, string(metricsJSON), string(samplesJSON), now(),
	); err != nil {
		return fmt.Errorf("record turn %d: %w", out.Previous.Turn, err)
	}
	res, err := tx.Exec("UPDATE sessions SET status = ? WHERE id = ?", status, sessionID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record turn: unknown session %q", sessionID)
	}
	return tx.Commit()
}

func lastAction(s engine.State) string {
	if len(s.History) == 0 {
		return ""
	}
	return s.History[len(s.History)-1].Action
}

// Sessions lists every journaled session, newest first.
func (db *DB) Sessions() ([]Session, error) {
	var sessions []Session
	err := db.conn.Select(&sessions, `
		SELECT s.id, s.started_at, s.population, s.noise_seed, s.status,
		       (SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id) AS turns
		FROM sessions s
		ORDER BY s.started_at DESC`)
	return sessions, err
}

// Turns returns the journal of one session in turn order, or of every
// session when sessionID is empty.
func (db *DB) Turns(sessionID string) ([]TurnRecord, error) {
	var records []TurnRecord
	query := "SELECT * FROM turns ORDER BY id"
	args := []any{}
	if sessionID != "" {
		query = "SELECT * FROM turns WHERE session_id = ? ORDER BY turn"
		args = append(args, sessionID)
	}
	err := db.conn.Select(&records, query, args...)
	return records, err
}
