// Package store provides storage backends for VisaDesk.
//
// This file implements a PostgreSQL-backed store for sessions and leads.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
	"github.com/visadesk/visadesk/internal/models"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// LoadSessions reads the full session snapshot.
func (s *PostgresStore) LoadSessions() (map[string]*models.Session, error) {
	rows, err := s.db.Query(`SELECT chat_id, session FROM sessions`)
	if err != nil {
		slog.Error("PostgresStore LoadSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make(map[string]*models.Session)
	for rows.Next() {
		var chatID, doc string
		if err := rows.Scan(&chatID, &doc); err != nil {
			slog.Error("PostgresStore LoadSessions scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		var sess models.Session
		if err := json.Unmarshal([]byte(doc), &sess); err != nil {
			slog.Warn("PostgresStore skipping corrupt session row", "error", err, "chat_id", chatID)
			continue
		}
		sessions[chatID] = &sess
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore LoadSessions rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	slog.Debug("PostgresStore LoadSessions succeeded", "count", len(sessions))
	return sessions, nil
}

// SaveSessions replaces the stored snapshot inside a single transaction.
func (s *PostgresStore) SaveSessions(sessions map[string]*models.Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("PostgresStore SaveSessions begin failed", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		slog.Error("PostgresStore SaveSessions clear failed", "error", err)
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	now := time.Now().UTC()
	for chatID, sess := range sessions {
		doc, err := json.Marshal(sess)
		if err != nil {
			slog.Error("PostgresStore SaveSessions marshal failed", "error", err, "chat_id", chatID)
			return fmt.Errorf("failed to marshal session for %s: %w", chatID, err)
		}
		if _, err := tx.Exec(`INSERT INTO sessions (chat_id, session, updated_at) VALUES ($1, $2, $3)`, chatID, string(doc), now); err != nil {
			slog.Error("PostgresStore SaveSessions insert failed", "error", err, "chat_id", chatID)
			return fmt.Errorf("failed to insert session for %s: %w", chatID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("PostgresStore SaveSessions commit failed", "error", err)
		return fmt.Errorf("failed to commit sessions: %w", err)
	}
	slog.Debug("PostgresStore SaveSessions succeeded", "count", len(sessions))
	return nil
}

// AddLead inserts one completed lead row.
func (s *PostgresStore) AddLead(lead models.Lead) error {
	_, err := s.db.Exec(`INSERT INTO leads (timestamp, chat_id, name, flow, data) VALUES ($1, $2, $3, $4, $5)`,
		lead.Timestamp, lead.ChatID, lead.Name, lead.Flow, lead.Data)
	if err != nil {
		slog.Error("PostgresStore AddLead failed", "error", err, "chat_id", lead.ChatID)
		return fmt.Errorf("failed to insert lead for %s: %w", lead.ChatID, err)
	}
	slog.Debug("PostgresStore AddLead succeeded", "chat_id", lead.ChatID, "flow", lead.Flow)
	return nil
}

// GetLeads returns all recorded leads in insertion order.
func (s *PostgresStore) GetLeads() ([]models.Lead, error) {
	rows, err := s.db.Query(`SELECT timestamp, chat_id, name, flow, data FROM leads ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore GetLeads query failed", "error", err)
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(&l.Timestamp, &l.ChatID, &l.Name, &l.Flow, &l.Data); err != nil {
			slog.Error("PostgresStore GetLeads scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore GetLeads rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate lead rows: %w", err)
	}
	slog.Debug("PostgresStore GetLeads succeeded", "count", len(leads))
	return leads, nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
