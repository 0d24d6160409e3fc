// Package composer renders the final natural-language reply for a
// turn from the parsed intent and the dispatcher's action results.
package composer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sylo-assistant/internal/assistant/ai"
	"sylo-assistant/internal/common/logger"
	"sylo-assistant/internal/models"
)

// FallbackResponse is returned whenever composition fails. A turn
// whose actions already committed must still produce a reply, so
// composition errors degrade rather than propagate.
const FallbackResponse = "I apologize, but I encountered an issue processing your request. Please try again."

const systemPrompt = `You are Sylo, a friendly and professional AI assistant for a design studio management platform. You speak to interior designers, architects, and creative professionals.

Compose a concise, warm reply to the user's message given the actions that were just performed. Confirm what was done, surface the key details (names, counts, statuses), and mention any action that failed so the user can retry it. Do not invent results that are not listed. Do not use markdown headings.`

type Composer struct {
	config *Config
	client ai.Client
	logger logger.Logger
}

func New(config *Config, client ai.Client, log logger.Logger) *Composer {
	return &Composer{
		config: config,
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "composer"}),
	}
}

// Compose renders a reply for the turn. It never returns an error:
// if the completion capability fails, the caller gets FallbackResponse.
func (c *Composer) Compose(ctx context.Context, text string, parsed *models.ParsedIntent, convCtx *models.ConversationContext, results []models.ActionResult) string {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := c.client.Complete(ctx, &ai.CompletionRequest{
		System:      systemPrompt,
		User:        composePrompt(text, parsed, convCtx, results),
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		c.logger.Warn("response composition failed, using fallback", map[string]interface{}{
			"intent": string(parsed.Intent),
			"error":  err.Error(),
		})
		return FallbackResponse
	}
	reply := strings.TrimSpace(result.Text)
	if reply == "" {
		return FallbackResponse
	}
	return reply
}

func composePrompt(text string, parsed *models.ParsedIntent, convCtx *models.ConversationContext, results []models.ActionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User message: %s\n", text)
	fmt.Fprintf(&b, "Detected intent: %s (confidence %.2f)\n", parsed.Intent, parsed.Confidence)
	if convCtx != nil && convCtx.CurrentProjectID != "" {
		fmt.Fprintf(&b, "Current project: %s\n", convCtx.CurrentProjectID)
	}
	if len(results) == 0 {
		b.WriteString("Actions performed: none\n")
		return b.String()
	}
	b.WriteString("Actions performed:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- [%s] %s", r.Type, r.Description)
		if len(r.Data) > 0 {
			if data, err := json.Marshal(r.Data); err == nil {
				fmt.Fprintf(&b, " %s", data)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
