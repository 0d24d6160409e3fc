// internal/conversation/session.go
package conversation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"sylo-assistant/internal/common/logger"
	"sylo-assistant/internal/models"
)

const sessionKeyPrefix = "assistant:session:"

// SessionStore caches the last ConversationContext per session so
// state like the current project survives across turns without the
// caller resending it. Redis being down only costs continuity.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewSessionStore(client *redis.Client, ttl time.Duration, log logger.Logger) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "session-store"}),
	}
}

// Load returns the cached context for a session, or nil on miss or
// cache failure.
func (s *SessionStore) Load(ctx context.Context, sessionID string) *models.ConversationContext {
	if s == nil || s.client == nil || sessionID == "" {
		return nil
	}

	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		s.logger.Warn("session load failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return nil
	}

	var convCtx models.ConversationContext
	if err := json.Unmarshal(data, &convCtx); err != nil {
		s.logger.Warn("session payload corrupt, dropping", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return nil
	}
	return &convCtx
}

// Save caches the turn's context, refreshing the TTL.
func (s *SessionStore) Save(ctx context.Context, convCtx *models.ConversationContext) {
	if s == nil || s.client == nil || convCtx == nil || convCtx.SessionID == "" {
		return
	}

	data, err := json.Marshal(convCtx)
	if err != nil {
		s.logger.Warn("session encode failed", map[string]interface{}{
			"sessionId": convCtx.SessionID,
			"error":     err.Error(),
		})
		return
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+convCtx.SessionID, data, s.ttl).Err(); err != nil {
		s.logger.Warn("session save failed", map[string]interface{}{
			"sessionId": convCtx.SessionID,
			"error":     err.Error(),
		})
	}
}
