// Package conversation persists turn history and session state. Both
// are best-effort: losing a history row or a cached session context
// degrades continuity, never the response.
package conversation

import (
	"context"
	"fmt"
	"time"

	"sylo-assistant/internal/common/logger"
	"sylo-assistant/internal/models"
	"sylo-assistant/internal/repository"
)

// DefaultSessionID mints a session identifier for callers that did
// not supply one.
func DefaultSessionID() string {
	return fmt.Sprintf("session_%d", time.Now().UnixMilli())
}

// Recorder appends conversation turns to the store.
type Recorder struct {
	store  repository.Store
	logger logger.Logger
}

func NewRecorder(store repository.Store, log logger.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "conversation"}),
	}
}

// Record writes both halves of a turn. A store failure is logged and
// swallowed; the turn's response has already been decided.
func (r *Recorder) Record(ctx context.Context, turn *models.ConversationTurn) {
	if err := r.store.SaveChatMessage(ctx, &turn.User); err != nil {
		r.logger.Warn("failed to record user message", map[string]interface{}{
			"sessionId": turn.User.SessionID,
			"error":     err.Error(),
		})
		return
	}
	if err := r.store.SaveChatMessage(ctx, &turn.Assistant); err != nil {
		r.logger.Warn("failed to record assistant message", map[string]interface{}{
			"sessionId": turn.Assistant.SessionID,
			"error":     err.Error(),
		})
	}
}
