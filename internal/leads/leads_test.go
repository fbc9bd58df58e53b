package leads

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/visadesk/visadesk/internal/models"
	"github.com/visadesk/visadesk/internal/store"
)

type mockNotifier struct {
	sent []string
	to   []string
	err  error
}

func (m *mockNotifier) SendMessage(ctx context.Context, to string, body string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.sent = append(m.sent, body)
	return nil
}

func TestSinkRecordAndNotify(t *testing.T) {
	st := store.NewInMemoryStore()
	notifier := &mockNotifier{}
	sink := NewSink(st, notifier, "911234567890")

	merged := map[string]string{"name": "Asha", "country": "Canada", "ielts": "7.5"}
	if err := sink.Record(context.Background(), "4915551234567", "Canada PR", merged); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	leads, err := st.GetLeads()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(leads))
	}
	if leads[0].Flow != "Canada PR" || leads[0].Name != "Asha" {
		t.Errorf("unexpected lead: %+v", leads[0])
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 admin notification, got %d", len(notifier.sent))
	}
	if notifier.to[0] != "911234567890" {
		t.Errorf("expected notification to admin, got %q", notifier.to[0])
	}
	if !strings.Contains(notifier.sent[0], "New Lead (Canada PR)") {
		t.Errorf("unexpected admin message: %q", notifier.sent[0])
	}
}

func TestSinkNotifyFailureIsNonFatal(t *testing.T) {
	st := store.NewInMemoryStore()
	notifier := &mockNotifier{err: errors.New("network down")}
	sink := NewSink(st, notifier, "911234567890")

	err := sink.Record(context.Background(), "4915551234567", "Human Handoff", map[string]string{"message": "call me"})
	if err != nil {
		t.Fatalf("notify failure must not fail the record: %v", err)
	}

	leads, _ := st.GetLeads()
	if len(leads) != 1 {
		t.Errorf("lead must be recorded even when notify fails, got %d", len(leads))
	}
}

func TestSinkRecordFailure(t *testing.T) {
	sink := NewSink(failingRecorder{}, &mockNotifier{}, "911234567890")
	err := sink.Record(context.Background(), "4915551234567", "Work Permit", map[string]string{})
	if err == nil {
		t.Error("expected error when recording fails")
	}
}

func TestSinkWithoutAdmin(t *testing.T) {
	st := store.NewInMemoryStore()
	notifier := &mockNotifier{}
	sink := NewSink(st, notifier, "")

	if err := sink.Record(context.Background(), "4915551234567", "Tourist Visa", map[string]string{"days": "10"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("expected no notifications without admin number, got %d", len(notifier.sent))
	}
}

type failingRecorder struct{}

func (failingRecorder) AddLead(models.Lead) error { return errors.New("disk full") }
