package store

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultSessionMaxIdle is how long an untouched conversation is kept before
// the maintenance job drops it. Personal details collected in an abandoned
// session should not linger indefinitely.
const DefaultSessionMaxIdle = 30 * 24 * time.Hour

// PruneStaleSessions removes sessions that have not been updated within
// maxIdle and returns how many were dropped. The snapshot is only rewritten
// when something was actually removed.
func PruneStaleSessions(s Store, maxIdle time.Duration) (int, error) {
	sessions, err := s.LoadSessions()
	if err != nil {
		return 0, fmt.Errorf("failed to load sessions for pruning: %w", err)
	}

	cutoff := time.Now().UTC().Add(-maxIdle)
	pruned := 0
	for chatID, sess := range sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(sessions, chatID)
			pruned++
		}
	}

	if pruned == 0 {
		slog.Debug("Session pruning found nothing to remove", "sessions", len(sessions))
		return 0, nil
	}

	if err := s.SaveSessions(sessions); err != nil {
		return 0, fmt.Errorf("failed to save pruned sessions: %w", err)
	}
	slog.Info("Pruned stale sessions", "pruned", pruned, "remaining", len(sessions))
	return pruned, nil
}
