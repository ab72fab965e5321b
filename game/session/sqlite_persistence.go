package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wricardo/pegrace/game/service"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	config_name      TEXT NOT NULL,
	payload_json     TEXT NOT NULL,
	created_at       INTEGER NOT NULL,
	last_accessed_at INTEGER NOT NULL
)`

// SQLitePersistence implements SessionPersistence on an embedded SQLite database.
type SQLitePersistence struct {
	db            *sql.DB
	configManager service.ConfigManager
	timeout       time.Duration
}

// OpenSQLitePersistence opens (and creates when missing) the database at path.
func OpenSQLitePersistence(path string, configManager service.ConfigManager) (*SQLitePersistence, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &SQLitePersistence{db: db, configManager: configManager, timeout: 5 * time.Second}, nil
}

// Close releases the underlying connection.
func (sp *SQLitePersistence) Close() error {
	if sp == nil || sp.db == nil {
		return nil
	}
	return sp.db.Close()
}

func (sp *SQLitePersistence) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), sp.timeout)
}

// Save upserts the session row.
func (sp *SQLitePersistence) Save(session *service.Session) error {
	data, err := encodeSession(session, sp.configManager)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	ctx, cancel := sp.ctx()
	defer cancel()
	_, err = sp.db.ExecContext(ctx,
		`INSERT INTO sessions (id, config_name, payload_json, created_at, last_accessed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    config_name = excluded.config_name,
		    payload_json = excluded.payload_json,
		    last_accessed_at = excluded.last_accessed_at`,
		strings.ToLower(data.ID), data.ConfigName, string(payload),
		data.CreatedAt.UnixMilli(), data.LastAccessedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", data.ID, err)
	}
	return nil
}

// Load reads and restores one session.
func (sp *SQLitePersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := sp.ctx()
	defer cancel()

	var payload string
	err := sp.db.QueryRowContext(ctx, `SELECT payload_json FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return decodeSession(&data, sp.configManager)
}

// Delete removes the session row.
func (sp *SQLitePersistence) Delete(id string) error {
	ctx, cancel := sp.ctx()
	defer cancel()

	res, err := sp.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns every stored session ID, oldest first.
func (sp *SQLitePersistence) ListAll() ([]string, error) {
	ctx, cancel := sp.ctx()
	defer cancel()

	rows, err := sp.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists reports whether a row for id is stored.
func (sp *SQLitePersistence) Exists(id string) bool {
	ctx, cancel := sp.ctx()
	defer cancel()

	var one int
	err := sp.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&one)
	return err == nil
}
