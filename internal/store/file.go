// Package store provides storage backends for VisaDesk.
//
// This file implements the default flat-file backend: sessions as a single
// JSON document and leads as an append-only CSV.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/visadesk/visadesk/internal/models"
)

// Constants for file store configuration
const (
	// DefaultDirPermissions defines the default permissions for state directories
	DefaultDirPermissions = 0755
	// DefaultFilePermissions defines the default permissions for state files
	DefaultFilePermissions = 0644
	// SessionsFileName is the JSON document holding the full session snapshot
	SessionsFileName = "sessions.json"
	// LeadsFileName is the CSV file holding completed lead records
	LeadsFileName = "leads.csv"
)

var leadsCSVHeader = []string{"timestamp", "chat_id", "name", "flow", "data"}

// FileStore persists sessions in sessions.json and leads in leads.csv inside
// a state directory. Session saves write the whole snapshot to a temp file and
// rename it into place, so a crash mid-write never leaves a torn document.
type FileStore struct {
	mu           sync.Mutex
	sessionsPath string
	leadsPath    string
}

// NewFileStore creates a file-backed store in the configured state directory,
// creating the directory if needed.
func NewFileStore(opts ...Option) (*FileStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	dir := cfg.StateDir
	if dir == "" {
		dir = "."
		slog.Debug("FileStore no state directory set, using working directory")
	}
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("FileStore failed to create state directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s := &FileStore{
		sessionsPath: filepath.Join(dir, SessionsFileName),
		leadsPath:    filepath.Join(dir, LeadsFileName),
	}
	slog.Debug("FileStore initialized", "sessions_path", s.sessionsPath, "leads_path", s.leadsPath)
	return s, nil
}

// LoadSessions reads the full session snapshot. A missing or corrupt document
// yields an empty map so a damaged file never blocks conversations.
func (s *FileStore) LoadSessions() (map[string]*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.sessionsPath)
	if os.IsNotExist(err) {
		slog.Debug("FileStore sessions file not found, starting empty", "path", s.sessionsPath)
		return make(map[string]*models.Session), nil
	}
	if err != nil {
		slog.Error("FileStore LoadSessions read failed", "error", err, "path", s.sessionsPath)
		return nil, fmt.Errorf("failed to read sessions file: %w", err)
	}

	sessions := make(map[string]*models.Session)
	if err := json.Unmarshal(raw, &sessions); err != nil {
		slog.Warn("FileStore sessions file is corrupt, starting empty", "error", err, "path", s.sessionsPath)
		return make(map[string]*models.Session), nil
	}
	slog.Debug("FileStore LoadSessions succeeded", "count", len(sessions))
	return sessions, nil
}

// SaveSessions writes the full session snapshot atomically via temp file and
// rename.
func (s *FileStore) SaveSessions(sessions map[string]*models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		slog.Error("FileStore SaveSessions marshal failed", "error", err)
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	tmp := s.sessionsPath + ".tmp"
	if err := os.WriteFile(tmp, raw, DefaultFilePermissions); err != nil {
		slog.Error("FileStore SaveSessions write failed", "error", err, "path", tmp)
		return fmt.Errorf("failed to write sessions file: %w", err)
	}
	if err := os.Rename(tmp, s.sessionsPath); err != nil {
		slog.Error("FileStore SaveSessions rename failed", "error", err, "path", s.sessionsPath)
		return fmt.Errorf("failed to replace sessions file: %w", err)
	}
	slog.Debug("FileStore SaveSessions succeeded", "count", len(sessions))
	return nil
}

// AddLead appends one lead row to leads.csv, writing the header first when the
// file is new.
func (s *FileStore) AddLead(lead models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, statErr := os.Stat(s.leadsPath)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.leadsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DefaultFilePermissions)
	if err != nil {
		slog.Error("FileStore AddLead open failed", "error", err, "path", s.leadsPath)
		return fmt.Errorf("failed to open leads file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(leadsCSVHeader); err != nil {
			slog.Error("FileStore AddLead header write failed", "error", err)
			return fmt.Errorf("failed to write leads header: %w", err)
		}
	}
	row := []string{lead.Timestamp.Format(time.RFC3339), lead.ChatID, lead.Name, lead.Flow, lead.Data}
	if err := w.Write(row); err != nil {
		slog.Error("FileStore AddLead row write failed", "error", err, "chat_id", lead.ChatID)
		return fmt.Errorf("failed to write lead row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		slog.Error("FileStore AddLead flush failed", "error", err, "chat_id", lead.ChatID)
		return fmt.Errorf("failed to flush lead row: %w", err)
	}
	slog.Debug("FileStore AddLead succeeded", "chat_id", lead.ChatID, "flow", lead.Flow)
	return nil
}

// GetLeads reads all recorded leads from leads.csv.
func (s *FileStore) GetLeads() ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.leadsPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		slog.Error("FileStore GetLeads open failed", "error", err, "path", s.leadsPath)
		return nil, fmt.Errorf("failed to open leads file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		slog.Error("FileStore GetLeads read failed", "error", err, "path", s.leadsPath)
		return nil, fmt.Errorf("failed to read leads file: %w", err)
	}

	var leads []models.Lead
	for i, row := range rows {
		if i == 0 || len(row) < 5 {
			continue // header or malformed row
		}
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			slog.Warn("FileStore GetLeads skipping row with bad timestamp", "error", err, "row", i)
			continue
		}
		leads = append(leads, models.Lead{Timestamp: ts, ChatID: row[1], Name: row[2], Flow: row[3], Data: row[4]})
	}
	slog.Debug("FileStore GetLeads succeeded", "count", len(leads))
	return leads, nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }
