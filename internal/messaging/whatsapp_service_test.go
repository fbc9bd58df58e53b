package messaging

import (
	"context"
	"testing"

	"github.com/visadesk/visadesk/internal/models"
	"github.com/visadesk/visadesk/internal/whatsapp"
)

func TestWhatsAppServiceCanonicalization(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())

	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+49 1555 123-4567", "4915551234567", false},
		{"1234567890", "1234567890", false},
		{"12345", "", true}, // too short
		{"", "", true},
		{"abc", "", true},
	}
	for _, c := range cases {
		got, err := svc.ValidateAndCanonicalizeRecipient(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ValidateAndCanonicalizeRecipient(%q): expected error, got %q", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateAndCanonicalizeRecipient(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ValidateAndCanonicalizeRecipient(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestWhatsAppServiceSendMessage(t *testing.T) {
	mock := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mock)

	if err := svc.SendMessage(context.Background(), "+49 1555 1234567", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Sent) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(mock.Sent))
	}
	if mock.Sent[0].To != "4915551234567" {
		t.Errorf("expected canonical recipient, got %q", mock.Sent[0].To)
	}

	// A sent receipt must be emitted.
	select {
	case r := <-svc.Receipts():
		if r.Status != models.StatusTypeSent {
			t.Errorf("expected sent receipt, got %q", r.Status)
		}
	default:
		t.Error("expected a receipt on the channel")
	}
}

func TestWhatsAppServiceSendImage(t *testing.T) {
	mock := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mock)

	if err := svc.SendImage(context.Background(), "4915551234567", "assets/welcome.jpg", "Hello! 👋"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Images) != 1 {
		t.Fatalf("expected 1 sent image, got %d", len(mock.Images))
	}
	if mock.Images[0].Caption != "Hello! 👋" {
		t.Errorf("expected caption preserved, got %q", mock.Images[0].Caption)
	}
}

func TestWhatsAppServiceRejectsInvalidRecipient(t *testing.T) {
	mock := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mock)

	if err := svc.SendMessage(context.Background(), "123", "hello"); err == nil {
		t.Error("expected error for short recipient")
	}
	if len(mock.Sent) != 0 {
		t.Errorf("expected no sends for invalid recipient, got %d", len(mock.Sent))
	}
}
