package flow

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/visadesk/visadesk/internal/models"
)

// mockMessenger records outbound messages and canonicalizes recipients the way
// the real transports do.
type mockMessenger struct {
	sent      []sentMessage
	images    []sentImage
	sendErr   error
	imageErr  error
	receipts  chan models.Receipt
	responses chan models.Response
}

type sentMessage struct {
	to   string
	body string
}

type sentImage struct {
	to      string
	path    string
	caption string
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{
		receipts:  make(chan models.Receipt, 10),
		responses: make(chan models.Response, 10),
	}
}

func (m *mockMessenger) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, recipient)
	if len(digits) < 6 {
		return "", fmt.Errorf("invalid recipient %q", recipient)
	}
	return digits, nil
}

func (m *mockMessenger) SendMessage(ctx context.Context, to string, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMessage{to: to, body: body})
	return nil
}

func (m *mockMessenger) SendImage(ctx context.Context, to string, path string, caption string) error {
	if m.imageErr != nil {
		return m.imageErr
	}
	m.images = append(m.images, sentImage{to: to, path: path, caption: caption})
	return nil
}

func (m *mockMessenger) Start(ctx context.Context) error   { return nil }
func (m *mockMessenger) Stop() error                       { return nil }
func (m *mockMessenger) Receipts() <-chan models.Receipt   { return m.receipts }
func (m *mockMessenger) Responses() <-chan models.Response { return m.responses }

func (m *mockMessenger) lastBody(t *testing.T) string {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatal("expected at least one sent message")
	}
	return m.sent[len(m.sent)-1].body
}

// memStore is an in-package snapshot store so router tests do not depend on
// the store package.
type memStore struct {
	sessions map[string]*models.Session
	saves    int
	loadErr  error
	saveErr  error
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*models.Session)}
}

func (s *memStore) LoadSessions() (map[string]*models.Session, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.sessions, nil
}

func (s *memStore) SaveSessions(sessions map[string]*models.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions = sessions
	s.saves++
	return nil
}

// recordingSink captures lead records passed to the sink.
type recordingSink struct {
	records []recordedLead
	err     error
}

type recordedLead struct {
	chatID   string
	flowName string
	merged   map[string]string
}

func (s *recordingSink) Record(ctx context.Context, chatID string, flowName string, merged map[string]string) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, recordedLead{chatID: chatID, flowName: flowName, merged: merged})
	return nil
}

// newTestRouter wires a router over fresh mocks.
func newTestRouter() (*Router, *memStore, *mockMessenger, *recordingSink) {
	st := newMemStore()
	msg := newMockMessenger()
	sink := &recordingSink{}
	return NewRouter(st, msg, sink, ""), st, msg, sink
}

// turn delivers one inbound message from the test user.
func turn(t *testing.T, r *Router, body string) {
	t.Helper()
	resp := models.Response{From: "4915551234567", Body: body, SenderName: "Asha"}
	if err := r.HandleResponse(context.Background(), resp); err != nil {
		t.Fatalf("unexpected error handling %q: %v", body, err)
	}
}

const testChatID = "4915551234567"

// personalAnswers is a valid answer per personal field, in collection order.
var personalAnswers = []string{
	"Asha Verma",
	"+49 155 5123 4567",
	"asha@example.com",
	"30",
	"Berlin",
	"Germany",
	"Bachelor's Degree",
	"3",
}

// completePersonal walks the shared personal-details sub-flow to completion.
func completePersonal(t *testing.T, r *Router) {
	t.Helper()
	for _, answer := range personalAnswers {
		turn(t, r, answer)
	}
}
