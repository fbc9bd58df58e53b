package store

import (
	"testing"
	"time"

	"github.com/visadesk/visadesk/internal/models"
)

func TestPruneStaleSessions(t *testing.T) {
	s := NewInMemoryStore()

	fresh := models.NewSession()
	stale := models.NewSession()
	stale.UpdatedAt = time.Now().UTC().Add(-60 * 24 * time.Hour)

	if err := s.SaveSessions(map[string]*models.Session{
		"fresh": fresh,
		"stale": stale,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pruned, err := PruneStaleSessions(s, DefaultSessionMaxIdle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned session, got %d", pruned)
	}

	sessions, _ := s.LoadSessions()
	if _, ok := sessions["stale"]; ok {
		t.Error("stale session must be removed")
	}
	if _, ok := sessions["fresh"]; !ok {
		t.Error("fresh session must survive pruning")
	}
}

func TestPruneStaleSessionsNoop(t *testing.T) {
	s := NewInMemoryStore()
	if err := s.SaveSessions(map[string]*models.Session{"a": models.NewSession()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pruned, err := PruneStaleSessions(s, DefaultSessionMaxIdle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pruned != 0 {
		t.Errorf("expected no pruning, got %d", pruned)
	}
}
