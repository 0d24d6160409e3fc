package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sylo-assistant/internal/assistant/ai"
	"sylo-assistant/internal/assistant/schema"
	"sylo-assistant/internal/common/errors"
	"sylo-assistant/internal/common/logger"
	"sylo-assistant/internal/models"
)

type fakeCompletionClient struct {
	result *ai.CompletionResult
	err    error

	lastRequest *ai.CompletionRequest
}

func (f *fakeCompletionClient) Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResult, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestParser(t *testing.T, client ai.Client) *Parser {
	t.Helper()
	return New(
		&Config{Timeout: 2 * time.Second, Temperature: 0.3},
		client,
		schema.Default(),
		logger.Nop(),
	)
}

func testContext() *models.ConversationContext {
	return &models.ConversationContext{
		SessionID: "session_test",
		FirmID:    "firm_1",
		UserID:    "user_1",
		Timestamp: time.Now().UTC(),
	}
}

func TestParse_StructuredCall(t *testing.T) {
	client := &fakeCompletionClient{
		result: &ai.CompletionResult{
			FunctionCall: &ai.FunctionCall{
				Name: "create_project",
				Arguments: json.RawMessage(`{
					"name": "Lakeside Cafe",
					"clientName": "Maple & Co",
					"projectType": "interior",
					"budget": 50000
				}`),
			},
		},
	}
	p := newTestParser(t, client)

	parsed, err := p.Parse(context.Background(), "Create a project called Lakeside Cafe for Maple & Co", testContext())
	require.NoError(t, err)

	assert.Equal(t, models.IntentCreateProject, parsed.Intent)
	assert.Equal(t, StructuredCallConfidence, parsed.Confidence)
	assert.Equal(t, "Create a project called Lakeside Cafe for Maple & Co", parsed.OriginalText)

	// Entities follow schema field declaration order, not argument order.
	require.Len(t, parsed.Entities, 4)
	assert.Equal(t, "name", parsed.Entities[0].Type)
	assert.Equal(t, "Lakeside Cafe", parsed.Entities[0].Value)
	assert.Equal(t, "clientName", parsed.Entities[1].Type)
	assert.Equal(t, "Maple & Co", parsed.Entities[1].Value)
	assert.Equal(t, "projectType", parsed.Entities[2].Type)
	assert.Equal(t, "interior", parsed.Entities[2].Value)
	assert.Equal(t, "budget", parsed.Entities[3].Type)
	assert.Equal(t, "50000", parsed.Entities[3].Value)
	for _, e := range parsed.Entities {
		assert.Equal(t, StructuredCallConfidence, e.Confidence)
	}
}

func TestParse_DeclinedCall(t *testing.T) {
	client := &fakeCompletionClient{
		result: &ai.CompletionResult{Text: "I'm not sure what you mean."},
	}
	p := newTestParser(t, client)

	parsed, err := p.Parse(context.Background(), "asdf qwerty", testContext())
	require.NoError(t, err)

	assert.Equal(t, models.IntentUnknown, parsed.Intent)
	assert.Equal(t, DeclinedConfidence, parsed.Confidence)
	assert.Empty(t, parsed.Entities)
	assert.Equal(t, "asdf qwerty", parsed.OriginalText)
}

func TestParse_TransportFailure(t *testing.T) {
	client := &fakeCompletionClient{err: fmt.Errorf("connection refused")}
	p := newTestParser(t, client)

	parsed, err := p.Parse(context.Background(), "Create a project", testContext())
	require.Error(t, err)
	assert.Nil(t, parsed)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeModelUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestParse_UnregisteredFunction(t *testing.T) {
	client := &fakeCompletionClient{
		result: &ai.CompletionResult{
			FunctionCall: &ai.FunctionCall{
				Name:      "delete_everything",
				Arguments: json.RawMessage(`{}`),
			},
		},
	}
	p := newTestParser(t, client)

	_, err := p.Parse(context.Background(), "do something", testContext())
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeModelUnavailable, stdErr.Code)
}

func TestParse_MalformedArguments(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{
			name: "invalid json",
			args: `{"name": "Lakeside`,
		},
		{
			name: "wrong type",
			args: `{"name": "Studio Refresh", "clientName": "Maple & Co", "projectType": "interior", "budget": "a lot"}`,
		},
		{
			name: "enum violation",
			args: `{"name": "Studio Refresh", "clientName": "Maple & Co", "projectType": "landscaping"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeCompletionClient{
				result: &ai.CompletionResult{
					FunctionCall: &ai.FunctionCall{
						Name:      "create_project",
						Arguments: json.RawMessage(tt.args),
					},
				},
			}
			p := newTestParser(t, client)

			_, err := p.Parse(context.Background(), "Create a project", testContext())
			require.Error(t, err)

			var stdErr *errors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, errors.ErrCodeModelUnavailable, stdErr.Code)
		})
	}
}

func TestParse_IgnoresUndeclaredArguments(t *testing.T) {
	client := &fakeCompletionClient{
		result: &ai.CompletionResult{
			FunctionCall: &ai.FunctionCall{
				Name:      "create_client",
				Arguments: json.RawMessage(`{"name": "Maple & Co", "mood": "cheerful"}`),
			},
		},
	}
	p := newTestParser(t, client)

	parsed, err := p.Parse(context.Background(), "Add client Maple & Co", testContext())
	require.NoError(t, err)

	require.Len(t, parsed.Entities, 1)
	assert.Equal(t, "name", parsed.Entities[0].Type)
	assert.Equal(t, "Maple & Co", parsed.Entities[0].Value)
}

func TestParse_SkipsEmptyValues(t *testing.T) {
	client := &fakeCompletionClient{
		result: &ai.CompletionResult{
			FunctionCall: &ai.FunctionCall{
				Name:      "create_client",
				Arguments: json.RawMessage(`{"name": "Maple & Co", "email": "", "phone": "  "}`),
			},
		},
	}
	p := newTestParser(t, client)

	parsed, err := p.Parse(context.Background(), "Add client Maple & Co", testContext())
	require.NoError(t, err)
	require.Len(t, parsed.Entities, 1)
	assert.Equal(t, "name", parsed.Entities[0].Type)
}

func TestParse_SendsAllRegisteredFunctions(t *testing.T) {
	client := &fakeCompletionClient{
		result: &ai.CompletionResult{Text: "ok"},
	}
	p := newTestParser(t, client)

	_, err := p.Parse(context.Background(), "hello", testContext())
	require.NoError(t, err)
	require.NotNil(t, client.lastRequest)
	assert.Len(t, client.lastRequest.Functions, len(schema.Default().Schemas()))
	assert.NotEmpty(t, client.lastRequest.System)
}
