// Package leads records completed flow data and notifies the operator.
package leads

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/visadesk/visadesk/internal/models"
)

// Recorder durably persists lead records.
type Recorder interface {
	AddLead(lead models.Lead) error
}

// Notifier delivers the operator alert.
type Notifier interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Sink persists completed leads and alerts the configured admin number.
// Recording is the durable part; a failed notification is logged and the lead
// is kept regardless.
type Sink struct {
	recorder Recorder
	notifier Notifier
	adminID  string
}

// NewSink creates a lead sink. An empty adminID disables operator notifications.
func NewSink(recorder Recorder, notifier Notifier, adminID string) *Sink {
	if adminID == "" {
		slog.Warn("Lead sink created without admin number; operator notifications disabled")
	}
	return &Sink{recorder: recorder, notifier: notifier, adminID: adminID}
}

// Record builds a lead from the merged answers, persists it, and notifies the
// operator. Only the persistence error is returned; notification failures are
// non-fatal.
func (s *Sink) Record(ctx context.Context, chatID string, flowName string, merged map[string]string) error {
	lead := models.NewLead(chatID, flowName, merged)

	if err := s.recorder.AddLead(lead); err != nil {
		slog.Error("Lead sink failed to record lead", "error", err, "chat_id", chatID, "flow", flowName)
		return fmt.Errorf("failed to record lead: %w", err)
	}
	slog.Info("Lead recorded", "chat_id", chatID, "flow", flowName, "name", lead.Name)

	if s.adminID == "" {
		return nil
	}

	adminMsg := fmt.Sprintf("🔔 New Lead (%s)\nName: %s\nChat: %s\nData: %s\nTime: %s",
		flowName, lead.Name, chatID, lead.Data, lead.Timestamp.Format(time.RFC3339))
	if err := s.notifier.SendMessage(ctx, s.adminID, adminMsg); err != nil {
		slog.Error("Admin notify failed", "error", err, "chat_id", chatID, "flow", flowName)
	}
	return nil
}
