// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sylo-assistant/internal/assistant/composer"
	"sylo-assistant/internal/assistant/dispatch"
	"sylo-assistant/internal/assistant/parser"
	"sylo-assistant/internal/assistant/suggest"
	"sylo-assistant/internal/common/auth"
	"sylo-assistant/internal/common/config"
	"sylo-assistant/internal/common/errors"
	"sylo-assistant/internal/common/logger"
	"sylo-assistant/internal/common/metrics"
	"sylo-assistant/internal/common/observability"
	"sylo-assistant/internal/conversation"
	"sylo-assistant/internal/models"
)

// messageRequest is the POST /api/assistant/message body. Identity
// fields are deliberately absent; they come from the auth layer.
type messageRequest struct {
	Message string          `json:"message"`
	Context *messageContext `json:"context,omitempty"`
}

type messageContext struct {
	SessionID        string `json:"sessionId,omitempty"`
	CurrentProjectID string `json:"currentProjectId,omitempty"`
}

// messageResponse is the success body for one turn.
type messageResponse struct {
	Response    string                `json:"response"`
	Actions     []models.ActionResult `json:"actions"`
	Suggestions []string              `json:"suggestions"`
	Intent      models.Intent         `json:"intent"`
	Confidence  float64               `json:"confidence"`
}

// AssistantHandler orchestrates the turn pipeline: parse, dispatch,
// compose, suggest, record.
type AssistantHandler struct {
	parser        *parser.Parser
	dispatcher    *dispatch.Dispatcher
	composer      *composer.Composer
	suggester     *suggest.Generator
	recorder      *conversation.Recorder
	sessions      *conversation.SessionStore
	errorHandler  *errors.ErrorHandler
	obs           *observability.Observability
	requestBudget time.Duration
	logger        logger.Logger
}

func NewAssistantHandler(
	cfg config.AssistantConfig,
	p *parser.Parser,
	d *dispatch.Dispatcher,
	c *composer.Composer,
	g *suggest.Generator,
	recorder *conversation.Recorder,
	sessions *conversation.SessionStore,
	obs *observability.Observability,
	log logger.Logger,
) *AssistantHandler {
	l := log.WithFields(map[string]interface{}{"component": "assistant-handler"})
	return &AssistantHandler{
		parser:        p,
		dispatcher:    d,
		composer:      c,
		suggester:     g,
		recorder:      recorder,
		sessions:      sessions,
		errorHandler:  errors.NewErrorHandler(l),
		obs:           obs,
		requestBudget: time.Duration(cfg.RequestBudget) * time.Millisecond,
		logger:        l,
	}
}

// HandleMessage runs one conversation turn. The whole turn runs
// under the configured budget so a slow model or store call cannot
// hold the request open indefinitely.
func (h *AssistantHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.requestBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestBudget)
		defer cancel()
	}
	requestID := RequestIDFromContext(ctx)
	start := time.Now()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		h.errorHandler.WriteError(w, requestID, errors.NewUnauthenticatedError("missing identity"))
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.WriteError(w, requestID, errors.NewInvalidInputError("request body must be valid JSON"))
		return
	}
	if req.Message == "" {
		h.errorHandler.WriteError(w, requestID, errors.NewMissingRequiredFieldError("message"))
		return
	}

	convCtx := h.buildContext(ctx, &req, identity)

	parsed, err := h.parser.Parse(ctx, req.Message, convCtx)
	if err != nil {
		h.recordTurnMetrics(ctx, models.IntentUnknown, "error", start)
		h.errorHandler.WriteError(w, requestID, err)
		return
	}

	// Suggestions do not depend on dispatch output; run them while
	// the actions execute.
	suggestionCh := make(chan []string, 1)
	go func() {
		suggestionCh <- h.suggester.Generate(convCtx)
	}()

	actions := h.dispatcher.Dispatch(ctx, parsed, convCtx)
	suggestions := <-suggestionCh

	response := h.composer.Compose(ctx, req.Message, parsed, convCtx, actions)

	turn := buildTurn(req.Message, response, parsed, actions, suggestions, convCtx)
	h.recorder.Record(ctx, turn)
	h.sessions.Save(ctx, convCtx)

	status := "ok"
	for _, a := range actions {
		if a.IsError() {
			status = "action_error"
		}
	}
	h.recordTurnMetrics(ctx, parsed.Intent, status, start)

	h.logger.Info("turn completed", map[string]interface{}{
		"requestId": requestID,
		"sessionId": convCtx.SessionID,
		"intent":    string(parsed.Intent),
		"status":    status,
		"duration":  time.Since(start).Milliseconds(),
	})

	writeJSON(w, http.StatusOK, messageResponse{
		Response:    response,
		Actions:     actions,
		Suggestions: suggestions,
		Intent:      parsed.Intent,
		Confidence:  parsed.Confidence,
	})
}

// buildContext assembles the per-turn context. Session state cached
// from earlier turns fills gaps the request body leaves, and the body
// wins where both are present.
func (h *AssistantHandler) buildContext(ctx context.Context, req *messageRequest, identity *auth.Identity) *models.ConversationContext {
	convCtx := &models.ConversationContext{
		FirmID:    identity.FirmID,
		UserID:    identity.UserID,
		Timestamp: time.Now().UTC(),
	}
	if req.Context != nil {
		convCtx.SessionID = req.Context.SessionID
		convCtx.CurrentProjectID = req.Context.CurrentProjectID
	}

	if convCtx.SessionID == "" {
		convCtx.SessionID = conversation.DefaultSessionID()
	} else if convCtx.CurrentProjectID == "" {
		if cached := h.sessions.Load(ctx, convCtx.SessionID); cached != nil && cached.FirmID == identity.FirmID {
			convCtx.CurrentProjectID = cached.CurrentProjectID
		}
	}
	return convCtx
}

func buildTurn(message, response string, parsed *models.ParsedIntent, actions []models.ActionResult, suggestions []string, convCtx *models.ConversationContext) *models.ConversationTurn {
	now := time.Now().UTC()
	return &models.ConversationTurn{
		User: models.ChatMessage{
			SessionID:   convCtx.SessionID,
			FirmID:      convCtx.FirmID,
			UserID:      convCtx.UserID,
			MessageType: models.MessageTypeUser,
			Content:     message,
			Intent:      parsed.Intent,
			Entities:    parsed.Entities,
			Context:     convCtx,
			CreatedAt:   now,
		},
		Assistant: models.ChatMessage{
			SessionID:   convCtx.SessionID,
			FirmID:      convCtx.FirmID,
			UserID:      convCtx.UserID,
			MessageType: models.MessageTypeAssistant,
			Content:     response,
			Intent:      parsed.Intent,
			Actions:     actions,
			Suggestions: suggestions,
			CreatedAt:   now,
		},
	}
}

func (h *AssistantHandler) recordTurnMetrics(ctx context.Context, intent models.Intent, status string, start time.Time) {
	elapsed := time.Since(start)
	metrics.AssistantTurnsTotal.WithLabelValues(string(intent)).Inc()
	metrics.TurnDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if h.obs != nil {
		h.obs.RecordTurnProcessed(ctx, status)
		h.obs.RecordTurnDuration(ctx, elapsed, status)
	}
}
