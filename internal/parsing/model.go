package parsing

import (
	"resume-ingest/internal/extract"
	"resume-ingest/resume/model"
)

// State is the position of one parse in the pipeline.
type State string

const (
	StateIdle              State = "idle"
	StateValidating        State = "validating"
	StateExtracting        State = "extracting"
	StateAIParsing         State = "ai_parsing"
	StateSucceeded         State = "succeeded"
	StateFallbackSucceeded State = "fallback_succeeded"
	StateFailed            State = "failed"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFallbackSucceeded || s == StateFailed
}

// Progress values reported on entry to each state.
const (
	progressValidating = 10
	progressExtracting = 30
	progressAIParsing  = 70
	progressDone       = 100
)

// File is an upload held in memory. Size is the declared size and may exceed
// len(Data) when the body was cut short by a size limit.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Data     []byte
}

// Request is one parse invocation.
type Request struct {
	UserID string
	File   *File
}

// Response is the caller-facing outcome. Errors are values; Parse never panics.
type Response struct {
	ID               string                  `json:"id"`
	Success          bool                    `json:"success"`
	State            State                   `json:"state"`
	Data             *model.StructuredResume `json:"data,omitempty"`
	Error            string                  `json:"error,omitempty"`
	ErrorCode        string                  `json:"error_code,omitempty"`
	RawText          string                  `json:"raw_text,omitempty"`
	ExtractionMethod extract.Method          `json:"extraction_method,omitempty"`
	Shortfall        int                     `json:"shortfall,omitempty"`
	UsedFallback     bool                    `json:"used_fallback"`
}

// ProgressFunc receives each state change with a non-decreasing percentage.
type ProgressFunc func(state State, progress int)
