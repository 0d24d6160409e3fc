// Package parser turns free text plus conversation context into a
// ParsedIntent by offering the action schema registry to the
// completion capability as callable functions.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"sylo-assistant/internal/assistant/ai"
	"sylo-assistant/internal/assistant/schema"
	"sylo-assistant/internal/common/errors"
	"sylo-assistant/internal/common/logger"
	"sylo-assistant/internal/models"
)

// Confidence is a placeholder heuristic, not a calibrated probability:
// a structured call means the model committed to an action, a decline
// means it did not.
const (
	StructuredCallConfidence = 0.9
	DeclinedConfidence       = 0.5
)

const systemPrompt = `You are an AI assistant for Sylo, a design studio management platform. You help interior designers, architects, and creative professionals manage their projects, clients, and tasks through natural conversation.

Your capabilities include creating and managing projects, tasks, and clients, scheduling meetings and deadlines, providing project status updates, and searching studio records.

You understand design industry terminology and workflows including creative project stages, interior design and architecture processes, and client presentation and approval cycles.

When the user asks for an action, select the matching function and supply its arguments. When no function applies, answer in plain text.`

type Parser struct {
	config   *Config
	client   ai.Client
	registry *schema.Registry
	logger   logger.Logger
}

func New(config *Config, client ai.Client, registry *schema.Registry, log logger.Logger) *Parser {
	return &Parser{
		config:   config,
		client:   client,
		registry: registry,
		logger:   log.WithFields(map[string]interface{}{"component": "parser"}),
	}
}

// Parse classifies one user message. A structured call maps to a
// ParsedIntent with entities drawn from the matched schema's declared
// fields; a decline maps to the unknown intent. A capability failure
// (unreachable, rate-limited, timed out, malformed output) surfaces
// as MODEL_UNAVAILABLE and is never downgraded to unknown, so outages
// stay visible to users asking action-requiring questions.
func (p *Parser) Parse(ctx context.Context, text string, convCtx *models.ConversationContext) (*models.ParsedIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	result, err := p.client.Complete(ctx, &ai.CompletionRequest{
		System:      systemPrompt,
		User:        text,
		Functions:   p.functionDefinitions(),
		Temperature: p.config.Temperature,
	})
	if err != nil {
		return nil, errors.NewModelUnavailableError(err)
	}

	if result.FunctionCall == nil {
		p.logger.Info("model declined structured call", map[string]interface{}{
			"sessionId": convCtx.SessionID,
		})
		return &models.ParsedIntent{
			Intent:       models.IntentUnknown,
			Confidence:   DeclinedConfidence,
			Entities:     []models.Entity{},
			OriginalText: text,
		}, nil
	}

	matched, ok := p.registry.Lookup(models.Intent(result.FunctionCall.Name))
	if !ok {
		return nil, errors.NewModelUnavailableError(
			fmt.Errorf("model selected unregistered function %q", result.FunctionCall.Name))
	}

	args, err := p.decodeArguments(matched, result.FunctionCall.Arguments)
	if err != nil {
		return nil, errors.NewModelUnavailableError(err)
	}

	parsed := &models.ParsedIntent{
		Intent:       matched.Intent,
		Confidence:   StructuredCallConfidence,
		Entities:     extractEntities(matched, args),
		OriginalText: text,
	}

	p.logger.Info("intent parsed", map[string]interface{}{
		"sessionId":   convCtx.SessionID,
		"intent":      string(parsed.Intent),
		"confidence":  parsed.Confidence,
		"entityCount": len(parsed.Entities),
	})

	return parsed, nil
}

// decodeArguments unmarshals and type-checks the model's arguments
// against the matched schema. Required-ness is not enforced here;
// missing required fields are a dispatch-level concern.
func (p *Parser) decodeArguments(s *schema.Schema, raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}

	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("malformed function arguments: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(s.ValidationSchema()),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return nil, fmt.Errorf("validate function arguments: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("arguments do not match schema %s: %s",
			s.Intent, strings.Join(details, "; "))
	}

	return args, nil
}

func (p *Parser) functionDefinitions() []ai.FunctionDefinition {
	schemas := p.registry.Schemas()
	defs := make([]ai.FunctionDefinition, len(schemas))
	for i, s := range schemas {
		defs[i] = ai.FunctionDefinition{
			Name:        string(s.Intent),
			Description: s.Description,
			Parameters:  s.Parameters(),
		}
	}
	return defs
}

// extractEntities walks the schema's declared fields in order; each
// non-empty argument becomes one entity. Arguments outside the
// declared field set are ignored, not errors.
func extractEntities(s *schema.Schema, args map[string]interface{}) []models.Entity {
	entities := make([]models.Entity, 0, len(args))
	for _, f := range s.Fields {
		v, ok := args[f.Name]
		if !ok {
			continue
		}
		value := coerceString(v)
		if value == "" {
			continue
		}
		entities = append(entities, models.Entity{
			Type:       f.Name,
			Value:      value,
			Confidence: StructuredCallConfidence,
		})
	}
	return entities
}

func coerceString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := coerceString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
