// Package models defines the core data structures for VisaDesk.
//
// It includes types for inbound messages, delivery receipts, and completed
// lead records, which are shared across modules.
package models

import (
	"encoding/json"
	"time"
)

// StatusType represents the delivery status of an outbound message.
type StatusType string

const (
	// StatusTypeSent indicates the message was sent.
	StatusTypeSent StatusType = "sent"
	// StatusTypeDelivered indicates the message was delivered.
	StatusTypeDelivered StatusType = "delivered"
	// StatusTypeRead indicates the message was read.
	StatusTypeRead StatusType = "read"
	// StatusTypeFailed indicates the message failed to send.
	StatusTypeFailed StatusType = "failed"
)

// Receipt represents a delivery receipt for an outbound message.
type Receipt struct {
	To     string     `json:"to"`
	Status StatusType `json:"status"`
	Time   int64      `json:"time"`
}

// Response represents an incoming message from a conversation.
type Response struct {
	From       string `json:"from"`
	Body       string `json:"body"`
	SenderName string `json:"sender_name,omitempty"`
	IsGroup    bool   `json:"is_group,omitempty"`
	Time       int64  `json:"time"`
}

// Lead is a completed flow's collected data, recorded for operator follow-up.
type Lead struct {
	Timestamp time.Time `json:"timestamp"`
	ChatID    string    `json:"chat_id"`
	Name      string    `json:"name"`
	Flow      string    `json:"flow"`
	Data      string    `json:"data"` // merged personal + service answers, JSON-encoded
}

// NewLead builds a lead record from a session snapshot. The merged answer map
// is serialized once here so every store backend persists an identical payload.
func NewLead(chatID string, flowName string, merged map[string]string) Lead {
	name := merged["name"]
	if name == "" {
		name = "Unknown"
	}
	data, err := json.Marshal(merged)
	if err != nil {
		// A map[string]string cannot fail to marshal; keep the lead anyway.
		data = []byte("{}")
	}
	return Lead{
		Timestamp: time.Now().UTC(),
		ChatID:    chatID,
		Name:      name,
		Flow:      flowName,
		Data:      string(data),
	}
}
