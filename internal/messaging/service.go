// Package messaging provides pluggable message delivery for VisaDesk.
package messaging

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/visadesk/visadesk/internal/models"
)

// Constants for messaging service configuration
const (
	// DefaultChannelBufferSize defines the default buffer size for receipt and response channels
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
	// MinPhoneNumberDigits is the minimum digit count for a canonical recipient
	MinPhoneNumberDigits = 6
)

// ErrServiceStopped is returned when a send is attempted after Stop.
var ErrServiceStopped = errors.New("messaging service stopped")

// nonDigitRegex strips everything but digits when canonicalizing recipients.
var nonDigitRegex = regexp.MustCompile(`\D`)

// Service defines a pluggable message delivery abstraction.
// It supports sending text and image messages and provides channels for
// receipt and inbound response events.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a recipient
	// identifier. Returns the canonicalized recipient and an error if
	// validation fails.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a text message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// SendImage sends the image at path with a caption to a recipient.
	// Transports without media support degrade to sending the caption.
	SendImage(ctx context.Context, to string, path string, caption string) error

	// Start begins any background processing (e.g., polling for events).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Receipts returns a channel of receipt events (sent, delivered, read).
	Receipts() <-chan models.Receipt

	// Responses returns a channel of incoming messages. Group-originated
	// messages never appear here.
	Responses() <-chan models.Response
}
