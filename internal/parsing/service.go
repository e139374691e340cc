// Package parsing runs one upload through validation, extraction and
// structuring, and reports the outcome as a Response value.
package parsing

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-ingest/internal/extract"
	"resume-ingest/internal/fallback"
	"resume-ingest/internal/shared/metrics"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/internal/shared/util"
	"resume-ingest/resume/model"
	"resume-ingest/resume/service"
)

// MaxFileSize is the largest accepted upload.
const MaxFileSize int64 = 10 << 20

// Ledger reports a user's credit balance.
type Ledger interface {
	Balance(ctx context.Context, userID string) (int, error)
}

// Extractor produces text for an upload.
type Extractor interface {
	Extract(ctx context.Context, in extract.Input) extract.Result
}

// Structurer turns text into a record, or nil when the caller must fall back.
type Structurer interface {
	Structure(ctx context.Context, userID, text string) *model.StructuredResume
}

// Service is the pipeline orchestrator. It holds no per-call state and is
// safe for concurrent use.
type Service struct {
	Ledger      Ledger
	Extractor   Extractor
	AI          Structurer
	Fallback    func(text string) model.StructuredResume
	Cost        int
	MaxFileSize int64
}

// NewService wires the collaborators with the default cost and size limit.
func NewService(ledger Ledger, extractor Extractor, ai Structurer) *Service {
	return &Service{
		Ledger:      ledger,
		Extractor:   extractor,
		AI:          ai,
		Fallback:    fallback.Parse,
		Cost:        service.CostCVParse,
		MaxFileSize: MaxFileSize,
	}
}

type run struct {
	id       string
	userID   string
	state    State
	progress int
	report   ProgressFunc
	start    time.Time
}

func (r *run) transition(to State, progress int) {
	from := r.state
	r.state = to
	if progress > r.progress {
		r.progress = progress
	}
	fields := map[string]any{
		"parse_id":         r.id,
		"user_id":          r.userID,
		"state_transition": string(from) + "->" + string(to),
		"progress":         r.progress,
	}
	if to.Terminal() {
		fields["duration_ms"] = float64(time.Since(r.start).Microseconds()) / 1000.0
	}
	telemetry.Info("parse.status", fields)
	if r.report != nil {
		r.report(to, r.progress)
	}
}

// Parse runs the pipeline for one upload. It never panics and never returns a
// Go error; every outcome is described by the Response.
func (s *Service) Parse(ctx context.Context, req Request, progress ProgressFunc) (resp Response) {
	r := &run{
		id:     uuid.NewString(),
		userID: req.UserID,
		state:  StateIdle,
		report: progress,
		start:  time.Now(),
	}
	metrics.IncParseStarted()

	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("panic", map[string]any{
				"component": "parsing",
				"parse_id":  r.id,
				"error":     fmt.Sprint(rec),
				"stack":     string(debug.Stack()),
			})
			// The progress callback may be what panicked; do not call it again.
			r.report = nil
			resp = s.fail(r, Response{ExtractionMethod: resp.ExtractionMethod}, ErrorCodeInternal, msgInternal)
		}
		metrics.ObserveParseDurationMs(float64(time.Since(r.start).Microseconds()) / 1000.0)
	}()

	if strings.TrimSpace(req.UserID) == "" {
		return s.fail(r, Response{}, ErrorCodeNotAuthenticated, msgNotAuthenticated)
	}

	r.transition(StateValidating, progressValidating)
	if out, ok := s.validate(ctx, r, req); !ok {
		return out
	}
	telemetry.Info("parse.received", map[string]any{
		"parse_id":    r.id,
		"file_name":   req.File.Name,
		"file_size":   req.File.Size,
		"file_sha256": util.Fingerprint(req.File.Data),
	})

	r.transition(StateExtracting, progressExtracting)
	res := s.Extractor.Extract(ctx, extract.Input{
		FileName: req.File.Name,
		MimeType: req.File.MimeType,
		Data:     req.File.Data,
	})
	resp.ExtractionMethod = res.Method
	if !res.Success || strings.TrimSpace(res.Text) == "" {
		if code, ok := classifyContextErr(ctx.Err()); ok {
			return s.fail(r, resp, code, msgCanceled)
		}
		msg := sanitizeError(res.Error)
		if msg == "" {
			msg = msgNoText
		}
		return s.fail(r, resp, ErrorCodeExtractionFailed, msg)
	}
	metrics.IncExtractMethod(string(res.Method))
	resp.RawText = res.Text

	if code, ok := classifyContextErr(ctx.Err()); ok {
		return s.fail(r, resp, code, msgCanceled)
	}

	r.transition(StateAIParsing, progressAIParsing)
	var record *model.StructuredResume
	if s.AI != nil {
		record = s.AI.Structure(ctx, req.UserID, res.Text)
	}
	if record != nil {
		resp.Success = true
		resp.Data = record
		return s.finish(r, resp, StateSucceeded)
	}

	fb := s.fallbackParse(res.Text)
	resp.Success = true
	resp.Data = &fb
	resp.UsedFallback = true
	return s.finish(r, resp, StateFallbackSucceeded)
}

// validate runs the precondition checks in order; the first failure wins.
func (s *Service) validate(ctx context.Context, r *run, req Request) (Response, bool) {
	cost := s.cost()
	balance, err := s.balance(ctx, req.UserID)
	if err != nil {
		if code, ok := classifyContextErr(err); ok {
			return s.fail(r, Response{}, code, msgCanceled), false
		}
		telemetry.Error("parse.ledger", map[string]any{
			"parse_id": r.id,
			"error":    sanitizeError(err.Error()),
		})
		return s.fail(r, Response{}, ErrorCodeInternal, msgInternal), false
	}
	if balance < cost {
		out := Response{Shortfall: cost - balance}
		msg := fmt.Sprintf("insufficient credits: %d required, %d available", cost, balance)
		return s.fail(r, out, ErrorCodeInsufficientCredits, msg), false
	}

	f := req.File
	if f == nil || (len(f.Data) == 0 && f.Size <= 0) {
		return s.fail(r, Response{}, ErrorCodeNoFile, msgNoFile), false
	}
	size := f.Size
	if n := int64(len(f.Data)); n > size {
		size = n
	}
	if size > s.maxFileSize() {
		return s.fail(r, Response{}, ErrorCodeFileTooLarge, msgFileTooLarge), false
	}
	if !extract.Accepted(f.MimeType, f.Name, f.Data) {
		return s.fail(r, Response{}, ErrorCodeUnsupportedType, msgUnsupportedType), false
	}
	return Response{}, true
}

func (s *Service) balance(ctx context.Context, userID string) (int, error) {
	if s.Ledger == nil {
		return 0, fmt.Errorf("credit ledger not configured")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Ledger.Balance(ctx, userID)
}

func (s *Service) fallbackParse(text string) model.StructuredResume {
	if s.Fallback != nil {
		return s.Fallback(text)
	}
	return fallback.Parse(text)
}

func (s *Service) fail(r *run, resp Response, code, msg string) Response {
	resp.ID = r.id
	resp.Success = false
	resp.Data = nil
	resp.ErrorCode = code
	resp.Error = msg
	resp.State = StateFailed
	metrics.IncParseFailed()
	telemetry.Warn("parse.failed", map[string]any{
		"parse_id":          r.id,
		"error_code":        code,
		"extraction_method": string(resp.ExtractionMethod),
	})
	r.transition(StateFailed, progressDone)
	return resp
}

func (s *Service) finish(r *run, resp Response, state State) Response {
	resp.ID = r.id
	resp.State = state
	if state == StateFallbackSucceeded {
		metrics.IncParseFallback()
	} else {
		metrics.IncParseSucceeded()
	}
	r.transition(state, progressDone)
	return resp
}

func (s *Service) cost() int {
	if s.Cost > 0 {
		return s.Cost
	}
	return service.CostCVParse
}

func (s *Service) maxFileSize() int64 {
	if s.MaxFileSize > 0 {
		return s.MaxFileSize
	}
	return MaxFileSize
}
