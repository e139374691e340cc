// Package service turns recovered résumé text into a StructuredResume through
// the configured LLM provider.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"resume-ingest/internal/llm"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/resume/model"
)

// CostCVParse is the number of credits one successful structuring consumes.
const CostCVParse = 10

// Ledger debits credits once a usable record has been produced.
type Ledger interface {
	Consume(ctx context.Context, userID string, amount int, reason string) (int, error)
}

// Client is the AI structuring client. A nil result from Structure means the
// caller must use its fallback parser.
type Client struct {
	LLM       llm.Structurer
	Ledger    Ledger
	Cost      int
	Operation string

	schema *llm.SchemaValidator
}

// NewClient wires an LLM provider and a credit ledger with the cv_parse defaults.
func NewClient(provider llm.Structurer, ledger Ledger) *Client {
	schema, err := llm.NewSchemaValidator(ResumeSchema())
	if err != nil {
		// ResumeSchema is static; a compile failure is a programming error.
		panic(err)
	}
	return &Client{
		LLM:       provider,
		Ledger:    ledger,
		Cost:      CostCVParse,
		Operation: llm.OperationCVParse,
		schema:    schema,
	}
}

// Structure makes one provider call and returns a coerced record, or nil when
// the provider fails, returns no JSON object, or credits cannot be consumed.
func (c *Client) Structure(ctx context.Context, userID, text string) *model.StructuredResume {
	if c == nil || c.LLM == nil {
		return nil
	}
	start := time.Now()
	req := llm.Request{Operation: c.operation(), Payload: llm.Payload{CVText: text}}

	raw, err := c.request(ctx, req)
	if err != nil {
		telemetry.Warn("structuring.failed", map[string]any{
			"operation":   req.Operation,
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	record, cleared := model.Repair(model.Coerce(raw))
	if len(cleared) > 0 {
		telemetry.Info("structuring.repaired", map[string]any{"fields": strings.Join(cleared, ",")})
	}

	if c.Ledger != nil {
		balance, err := c.Ledger.Consume(ctx, userID, c.cost(), req.Operation)
		if err != nil {
			telemetry.Warn("structuring.credits", map[string]any{
				"user_id": userID,
				"cost":    c.cost(),
				"error":   err.Error(),
			})
			return nil
		}
		telemetry.Info("structuring.credits", map[string]any{
			"user_id": userID,
			"cost":    c.cost(),
			"balance": balance,
		})
	}

	telemetry.Info("structuring.succeeded", map[string]any{
		"operation":   req.Operation,
		"experiences": len(record.Experiences),
		"skills":      len(record.Skills),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &record
}

// request performs the single provider call and decodes its JSON object.
func (c *Client) request(ctx context.Context, req llm.Request) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.LLM.Structure(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, err := extractJSONObject(string(resp))
	if err != nil {
		return nil, err
	}
	if c.schema != nil {
		if err := c.schema.Validate([]byte(payload)); err != nil {
			telemetry.Warn("structuring.schema_drift", map[string]any{
				"operation": req.Operation,
				"error":     err.Error(),
			})
		}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func (c *Client) operation() string {
	if c.Operation != "" {
		return c.Operation
	}
	return llm.OperationCVParse
}

func (c *Client) cost() int {
	if c.Cost > 0 {
		return c.Cost
	}
	return CostCVParse
}

func extractJSONObject(raw string) (string, error) {
	payload := strings.TrimSpace(raw)
	if payload == "" {
		return "", errors.New("empty llm response")
	}
	if json.Valid([]byte(payload)) && strings.HasPrefix(payload, "{") {
		return payload, nil
	}

	start := strings.Index(payload, "{")
	end := strings.LastIndex(payload, "}")
	if start == -1 || end == -1 || end <= start {
		return "", errors.New("no json object found")
	}

	candidate := payload[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", errors.New("invalid json object")
	}
	return candidate, nil
}
