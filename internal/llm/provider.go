// Package llm is a small provider-neutral client for structured JSON
// generation. It backs the optional LLM distractor strategy.
package llm

import (
	"context"
	"encoding/json"
	"net/http"
)

// Provider generates a structured response for a prompt.
type Provider interface {
	// Generate runs one completion. When req.Schema is set the provider
	// asks for JSON matching it and validates the result before returning.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID names the model requests are sent to.
	ModelID() string
}

// Request is a single-turn or multi-turn prompt.
type Request struct {
	System   string
	Messages []Message
	// Schema, when set, constrains the response to JSON.
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is who sent a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema document.
type Schema struct {
	// Name is a kebab-case identifier, also used as the cache key for the
	// compiled schema.
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a completed generation.
type Response struct {
	// Content is the JSON produced by the model.
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // "end" or "max_tokens"
}

// Usage is token accounting for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// defaultMaxTokens applies when a request leaves MaxTokens unset.
const defaultMaxTokens = 512

// complete is the shared tail of every backend: truncated output is an
// error, and content must satisfy the request schema.
func complete(req Request, content json.RawMessage, usage Usage, model, stop string) (*Response, error) {
	if stop == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	return &Response{Content: content, Usage: usage, Model: model, StopReason: stop}, nil
}

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

// resolveModel maps a short alias to a concrete model ID. Unknown names
// pass through.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}

// statusError classifies an HTTP status from a provider SDK error.
func statusError(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
