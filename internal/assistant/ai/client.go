// Package ai abstracts the language-model completion capability:
// given a prompt and a set of callable function schemas, the model
// either commits to one structured call or answers with free text.
// The parser and composer depend only on the Client interface, so
// tests substitute a deterministic fake.
package ai

import (
	"context"
	"encoding/json"
)

// FunctionDefinition is one callable action schema offered to the model.
type FunctionDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// CompletionRequest is a single capability invocation.
type CompletionRequest struct {
	System      string
	User        string
	Functions   []FunctionDefinition
	Temperature float32
	MaxTokens   int
}

// FunctionCall is the structured half of a completion result.
type FunctionCall struct {
	Name      string
	Arguments json.RawMessage
}

// CompletionResult carries either a structured call or free text,
// never both.
type CompletionResult struct {
	FunctionCall *FunctionCall
	Text         string
}

// Client is the completion capability consumed by the pipeline.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)
}
