package models

import (
	"time"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation.
// Chat requests carry these as history; transcripts persist them in the conversations table.
type Message struct {
	Role      string    `json:"role"`                // "user", "assistant" or "system"
	Content   string    `json:"content"`             // The text content of the message
	Timestamp time.Time `json:"timestamp,omitempty"` // Time the message was recorded
}

// ExtractionResult is the structured lead data the model produced for a transcript.
type ExtractionResult struct {
	Email     string   `json:"email"`
	Name      string   `json:"name,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Company   string   `json:"company,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Summary   string   `json:"summary,omitempty"`
}
