package models

import "time"

// ConversationContext carries the per-request identity and session
// state through the whole pipeline. It is constructed once by the
// server handler and read-only to every downstream component. FirmID
// and UserID come from the authentication layer, never from the
// request body.
type ConversationContext struct {
	SessionID        string    `json:"sessionId"`
	FirmID           string    `json:"firmId"`
	UserID           string    `json:"userId"`
	CurrentProjectID string    `json:"currentProjectId,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}
