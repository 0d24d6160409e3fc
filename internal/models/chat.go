package models

import "time"

// Chat message types within a turn.
const (
	MessageTypeUser      = "user"
	MessageTypeAssistant = "assistant"
)

// ChatMessage is one persisted half of a conversation turn. Records
// are append-only and linked by SessionID; a turn writes one user
// message and one assistant message.
type ChatMessage struct {
	ID          string               `json:"id" db:"id"`
	SessionID   string               `json:"sessionId" db:"session_id"`
	FirmID      string               `json:"firmId" db:"firm_id"`
	UserID      string               `json:"userId" db:"user_id"`
	MessageType string               `json:"messageType" db:"message_type"`
	Content     string               `json:"content" db:"content"`
	Intent      Intent               `json:"intent,omitempty" db:"intent"`
	Entities    []Entity             `json:"entities,omitempty" db:"entities"`
	Context     *ConversationContext `json:"context,omitempty" db:"context"`
	Actions     []ActionResult       `json:"actions,omitempty" db:"actions"`
	Suggestions []string             `json:"suggestions,omitempty" db:"suggestions"`
	CreatedAt   time.Time            `json:"createdAt" db:"created_at"`
}

// ConversationTurn groups the two records of one exchange.
type ConversationTurn struct {
	User      ChatMessage `json:"user"`
	Assistant ChatMessage `json:"assistant"`
}
