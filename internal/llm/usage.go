package llm

import "resume-ingest/internal/shared/telemetry"

// Usage is the token accounting reported by a provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LogUsage records one provider response. usage may be nil.
func LogUsage(provider, model, operation string, usage *Usage) {
	fields := map[string]any{
		"provider":  provider,
		"model":     model,
		"operation": operation,
	}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}
