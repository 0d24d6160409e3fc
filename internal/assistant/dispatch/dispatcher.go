// Package dispatch executes the side effects a parsed intent asks
// for. Handlers are registered per intent; anything unregistered
// (including the unknown intent) resolves to an informational result
// rather than an error, so conversational messages stay cheap.
package dispatch

import (
	"context"

	"sylo-assistant/internal/common/errors"
	"sylo-assistant/internal/common/logger"
	"sylo-assistant/internal/common/metrics"
	"sylo-assistant/internal/models"
	"sylo-assistant/internal/repository"
)

// HandlerFunc executes one intent's side effects. A returned error
// never crosses the Dispatch boundary; it becomes an error-typed
// ActionResult so the turn can still be composed and logged.
type HandlerFunc func(ctx context.Context, entities map[string]string, convCtx *models.ConversationContext) (*models.ActionResult, error)

type Dispatcher struct {
	store    repository.Store
	handlers map[models.Intent]HandlerFunc
	logger   logger.Logger
}

func New(store repository.Store, log logger.Logger) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		handlers: make(map[models.Intent]HandlerFunc),
		logger:   log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
	d.Register(models.IntentCreateProject, d.handleCreateProject)
	d.Register(models.IntentCreateTask, d.handleCreateTask)
	d.Register(models.IntentCreateClient, d.handleCreateClient)
	d.Register(models.IntentGetProjectStatus, d.handleGetProjectStatus)
	d.Register(models.IntentSearchEntities, d.handleSearchEntities)
	return d
}

// Register binds a handler to an intent, replacing any existing one.
func (d *Dispatcher) Register(intent models.Intent, h HandlerFunc) {
	d.handlers[intent] = h
}

// Dispatch runs the handler for the parsed intent. The result list is
// always non-empty.
func (d *Dispatcher) Dispatch(ctx context.Context, parsed *models.ParsedIntent, convCtx *models.ConversationContext) []models.ActionResult {
	handler, ok := d.handlers[parsed.Intent]
	if !ok {
		return []models.ActionResult{{
			Type:        models.ActionTypeInfo,
			Description: "I understood your message but no action was needed.",
		}}
	}

	result, err := handler(ctx, entityMap(parsed.Entities), convCtx)
	if err != nil {
		stdErr := errors.Normalize(err)
		d.logger.Error("action handler failed", map[string]interface{}{
			"intent":    string(parsed.Intent),
			"errorCode": string(stdErr.Code),
			"error":     stdErr.Message,
			"firmId":    convCtx.FirmID,
		})
		metrics.AssistantTurnErrors.WithLabelValues(string(stdErr.Code)).Inc()
		result = &models.ActionResult{
			Type:        models.ActionTypeError,
			Description: stdErr.Message,
			Data: map[string]interface{}{
				"code":      string(stdErr.Code),
				"retryable": stdErr.Retryable,
			},
		}
	}

	metrics.ActionResultsTotal.WithLabelValues(result.Type).Inc()
	return []models.ActionResult{*result}
}

// entityMap flattens extracted entities into field name → value.
// Duplicate fields keep the last value seen.
func entityMap(entities []models.Entity) map[string]string {
	m := make(map[string]string, len(entities))
	for _, e := range entities {
		m[e.Type] = e.Value
	}
	return m
}
