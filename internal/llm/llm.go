// Package llm defines the structured-extraction contract shared by the
// OpenAI, Gemini and Anthropic providers.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// OperationCVParse is the operation identifier for résumé structuring.
const OperationCVParse = "cv_parse"

// Payload is the input document sent to the provider.
type Payload struct {
	CVText string `json:"cv_text"`
}

// Request is one structured-extraction call.
type Request struct {
	Operation string
	Payload   Payload
}

// Structurer turns free text into a JSON object for the requested operation.
type Structurer interface {
	Structure(ctx context.Context, req Request) (json.RawMessage, error)
}

// ErrNotConfigured is returned when no provider is wired.
var ErrNotConfigured = errors.New("llm provider not configured")

// ErrUnknownOperation is returned for operations without a system prompt.
var ErrUnknownOperation = errors.New("unknown llm operation")

// PlaceholderClient is used when LLM_PROVIDER=none; every call fails so the
// caller takes its fallback path.
type PlaceholderClient struct{}

// Structure returns ErrNotConfigured.
func (PlaceholderClient) Structure(context.Context, Request) (json.RawMessage, error) {
	return nil, ErrNotConfigured
}

// Messages returns the system instructions and user content for req.
func Messages(req Request) (system string, user string, err error) {
	system, ok := Instructions(req.Operation)
	if !ok {
		return "", "", ErrUnknownOperation
	}
	b, err := json.Marshal(req.Payload)
	if err != nil {
		return "", "", err
	}
	return system, string(b), nil
}
