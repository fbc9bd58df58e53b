// Package store provides storage backends for VisaDesk.
//
// Sessions are persisted as a whole snapshot (load the full map at the start
// of a turn, save the full map at the end) so that a process restart resumes
// every conversation exactly where it left off. Completed leads are recorded
// append-only. Backends: flat files (default), SQLite, and PostgreSQL.
package store

import (
	"strings"
	"sync"

	"github.com/visadesk/visadesk/internal/models"
)

// Store is the persistence abstraction used by the flow router and lead sink.
type Store interface {
	// LoadSessions returns the full session snapshot. A missing or corrupt
	// backing document yields an empty map, never an error that would block
	// conversations.
	LoadSessions() (map[string]*models.Session, error)

	// SaveSessions persists the full session snapshot atomically from the
	// caller's perspective.
	SaveSessions(sessions map[string]*models.Session) error

	// AddLead durably records a completed lead.
	AddLead(lead models.Lead) error

	// GetLeads returns all recorded leads in insertion order.
	GetLeads() ([]models.Lead, error)

	// Close releases backend resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN      string // database DSN; empty selects the file backend
	StateDir string // directory for file-backed state (sessions.json, leads.csv)
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithStateDir sets the directory used by the file backend.
func WithStateDir(dir string) Option {
	return func(o *Opts) { o.StateDir = dir }
}

// DetectDSNType inspects a DSN and reports which backend it selects:
// "postgres", "sqlite", or "file".
func DetectDSNType(dsn string) string {
	switch {
	case dsn == "":
		return "file"
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return "postgres"
	default:
		return "sqlite"
	}
}

// NewStore builds the store backend selected by the configured DSN.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch DetectDSNType(cfg.DSN) {
	case "postgres":
		return NewPostgresStore(opts...)
	case "sqlite":
		return NewSQLiteStore(opts...)
	default:
		return NewFileStore(opts...)
	}
}

// InMemoryStore is a map-backed store for tests. SaveSessions deep-copies the
// snapshot so later mutations by the caller do not leak into "persisted"
// state, matching the isolation a real backend provides.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	leads    []models.Lead
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*models.Session)}
}

func (s *InMemoryStore) LoadSessions() (map[string]*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySessions(s.sessions), nil
}

func (s *InMemoryStore) SaveSessions(sessions map[string]*models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = copySessions(sessions)
	return nil
}

func (s *InMemoryStore) AddLead(lead models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
	return nil
}

func (s *InMemoryStore) GetLeads() ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	leads := make([]models.Lead, len(s.leads))
	copy(leads, s.leads)
	return leads, nil
}

func (s *InMemoryStore) Close() error { return nil }

func copySessions(src map[string]*models.Session) map[string]*models.Session {
	dst := make(map[string]*models.Session, len(src))
	for id, sess := range src {
		c := *sess
		if sess.Personal != nil {
			c.Personal = make(map[models.PersonalField]string, len(sess.Personal))
			for k, v := range sess.Personal {
				c.Personal[k] = v
			}
		}
		if sess.Service.Data != nil {
			c.Service.Data = make(map[models.DataKey]string, len(sess.Service.Data))
			for k, v := range sess.Service.Data {
				c.Service.Data[k] = v
			}
		}
		dst[id] = &c
	}
	return dst
}
