// internal/assistant/ai/openai.go
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"sylo-assistant/internal/common/config"
	"sylo-assistant/internal/common/metrics"
)

// OpenAIClient implements Client against the OpenAI chat completion
// API using function calling.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}

	if len(req.Functions) > 0 {
		fns := make([]openai.FunctionDefinition, len(req.Functions))
		for i, f := range req.Functions {
			fns[i] = openai.FunctionDefinition{
				Name:        f.Name,
				Description: f.Description,
				Parameters:  f.Parameters,
			}
		}
		chatReq.Functions = fns
		chatReq.FunctionCall = "auto"
	}

	// A request offering functions is an intent parse; a bare prompt
	// is a compose call.
	operation := "compose"
	if len(req.Functions) > 0 {
		operation = "parse"
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	metrics.ModelCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: no choices")
	}

	msg := resp.Choices[0].Message
	if msg.FunctionCall != nil {
		return &CompletionResult{
			FunctionCall: &FunctionCall{
				Name:      msg.FunctionCall.Name,
				Arguments: json.RawMessage(msg.FunctionCall.Arguments),
			},
		}, nil
	}

	return &CompletionResult{Text: msg.Content}, nil
}

var (
	sharedOnce   sync.Once
	sharedClient Client
)

// Shared returns the process-wide completion client, constructed at
// most once. Concurrent first use cannot double-initialize.
func Shared(cfg config.OpenAIConfig) Client {
	sharedOnce.Do(func() {
		sharedClient = NewOpenAIClient(cfg)
	})
	return sharedClient
}
