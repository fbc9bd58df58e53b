// Package store provides storage backends for VisaDesk.
//
// This file implements an SQLite-backed store for sessions and leads.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
	"github.com/visadesk/visadesk/internal/models"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// LoadSessions reads the full session snapshot. Rows whose session document no
// longer parses are skipped with a warning; the conversation restarts fresh
// rather than wedging the store.
func (s *SQLiteStore) LoadSessions() (map[string]*models.Session, error) {
	rows, err := s.db.Query(`SELECT chat_id, session FROM sessions`)
	if err != nil {
		slog.Error("SQLiteStore LoadSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make(map[string]*models.Session)
	for rows.Next() {
		var chatID, doc string
		if err := rows.Scan(&chatID, &doc); err != nil {
			slog.Error("SQLiteStore LoadSessions scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		var sess models.Session
		if err := json.Unmarshal([]byte(doc), &sess); err != nil {
			slog.Warn("SQLiteStore skipping corrupt session row", "error", err, "chat_id", chatID)
			continue
		}
		sessions[chatID] = &sess
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore LoadSessions rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	slog.Debug("SQLiteStore LoadSessions succeeded", "count", len(sessions))
	return sessions, nil
}

// SaveSessions replaces the stored snapshot inside a single transaction.
func (s *SQLiteStore) SaveSessions(sessions map[string]*models.Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("SQLiteStore SaveSessions begin failed", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		slog.Error("SQLiteStore SaveSessions clear failed", "error", err)
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	now := time.Now().UTC()
	for chatID, sess := range sessions {
		doc, err := json.Marshal(sess)
		if err != nil {
			slog.Error("SQLiteStore SaveSessions marshal failed", "error", err, "chat_id", chatID)
			return fmt.Errorf("failed to marshal session for %s: %w", chatID, err)
		}
		if _, err := tx.Exec(`INSERT INTO sessions (chat_id, session, updated_at) VALUES (?, ?, ?)`, chatID, string(doc), now); err != nil {
			slog.Error("SQLiteStore SaveSessions insert failed", "error", err, "chat_id", chatID)
			return fmt.Errorf("failed to insert session for %s: %w", chatID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("SQLiteStore SaveSessions commit failed", "error", err)
		return fmt.Errorf("failed to commit sessions: %w", err)
	}
	slog.Debug("SQLiteStore SaveSessions succeeded", "count", len(sessions))
	return nil
}

// AddLead inserts one completed lead row.
func (s *SQLiteStore) AddLead(lead models.Lead) error {
	_, err := s.db.Exec(`INSERT INTO leads (timestamp, chat_id, name, flow, data) VALUES (?, ?, ?, ?, ?)`,
		lead.Timestamp, lead.ChatID, lead.Name, lead.Flow, lead.Data)
	if err != nil {
		slog.Error("SQLiteStore AddLead failed", "error", err, "chat_id", lead.ChatID)
		return fmt.Errorf("failed to insert lead for %s: %w", lead.ChatID, err)
	}
	slog.Debug("SQLiteStore AddLead succeeded", "chat_id", lead.ChatID, "flow", lead.Flow)
	return nil
}

// GetLeads returns all recorded leads in insertion order.
func (s *SQLiteStore) GetLeads() ([]models.Lead, error) {
	rows, err := s.db.Query(`SELECT timestamp, chat_id, name, flow, data FROM leads ORDER BY id`)
	if err != nil {
		slog.Error("SQLiteStore GetLeads query failed", "error", err)
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(&l.Timestamp, &l.ChatID, &l.Name, &l.Flow, &l.Data); err != nil {
			slog.Error("SQLiteStore GetLeads scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore GetLeads rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate lead rows: %w", err)
	}
	slog.Debug("SQLiteStore GetLeads succeeded", "count", len(leads))
	return leads, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
