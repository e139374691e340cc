// Package extract picks and runs exactly one text extraction strategy per upload.
package extract

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"resume-ingest/internal/shared/telemetry"
)

// Method names the strategy that produced the final text.
type Method string

const (
	MethodNativePDF Method = "native_pdf"
	MethodDocument  Method = "document"
	MethodOCR       Method = "ocr"
)

// MinNativeChars is the trimmed length under which a PDF text layer is treated
// as a scanned page and sent to OCR.
const MinNativeChars = 100

// ErrUnsupported is reported for uploads that are not a PDF, DOCX or image.
var ErrUnsupported = errors.New("unsupported file format")

// Result is the outcome of one extraction. Success implies non-blank Text.
type Result struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Method  Method `json:"method,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Input is an uploaded file held in memory.
type Input struct {
	FileName string
	MimeType string
	Data     []byte
}

// OCR recognizes images and page 1 of scanned PDFs.
type OCR interface {
	FromImage(ctx context.Context, image []byte) (string, error)
	FromPDF(ctx context.Context, pdf []byte) (string, error)
}

// TextFunc extracts text from an in-memory payload.
type TextFunc func(ctx context.Context, data []byte) (string, error)

// Selector routes uploads to native PDF, document or OCR extraction.
type Selector struct {
	OCR            OCR
	PDFText        TextFunc
	DocumentText   TextFunc
	MinNativeChars int
}

// NewSelector builds a Selector with the default PDF and DOCX readers.
func NewSelector(ocr OCR) *Selector {
	return &Selector{
		OCR:            ocr,
		PDFText:        NativePDFText,
		DocumentText:   DocumentText,
		MinNativeChars: MinNativeChars,
	}
}

// Extract runs the strategy for the upload's kind. It never panics and never
// returns a Go error; failures are carried in the Result.
func (s *Selector) Extract(ctx context.Context, in Input) (res Result) {
	start := time.Now()
	kind := DetectKind(in.MimeType, in.FileName, in.Data)
	escalated := false

	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("panic", map[string]any{
				"component": "extract",
				"error":     fmt.Sprint(r),
				"stack":     string(debug.Stack()),
			})
			res = failure(res.Method, fmt.Errorf("extraction crashed"))
		}
		telemetry.Info("extract.method", map[string]any{
			"kind":        string(kind),
			"method":      string(res.Method),
			"success":     res.Success,
			"escalated":   escalated,
			"chars":       len(res.Text),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
		})
	}()

	switch kind {
	case KindPDF:
		res.Method = MethodNativePDF
		text, err := s.pdfText()(ctx, in.Data)
		if err == nil && len(strings.TrimSpace(text)) >= s.minNative() {
			return success(MethodNativePDF, text)
		}
		if err != nil {
			telemetry.Warn("extract.native_pdf", map[string]any{"error": err.Error()})
		}
		escalated = true
		res.Method = MethodOCR
		return s.ocr(ctx, in.Data, true)
	case KindDOCX:
		res.Method = MethodDocument
		text, err := s.docText()(ctx, in.Data)
		if err != nil {
			return failure(MethodDocument, err)
		}
		return success(MethodDocument, text)
	case KindImage:
		res.Method = MethodOCR
		return s.ocr(ctx, in.Data, false)
	default:
		return failure("", fmt.Errorf("%w: %s", ErrUnsupported, describe(in)))
	}
}

func (s *Selector) ocr(ctx context.Context, data []byte, isPDF bool) Result {
	if s.OCR == nil {
		return failure(MethodOCR, errors.New("ocr not configured"))
	}
	var (
		text string
		err  error
	)
	if isPDF {
		text, err = s.OCR.FromPDF(ctx, data)
	} else {
		text, err = s.OCR.FromImage(ctx, data)
	}
	if err != nil {
		return failure(MethodOCR, err)
	}
	return success(MethodOCR, text)
}

func (s *Selector) pdfText() TextFunc {
	if s.PDFText != nil {
		return s.PDFText
	}
	return NativePDFText
}

func (s *Selector) docText() TextFunc {
	if s.DocumentText != nil {
		return s.DocumentText
	}
	return DocumentText
}

func (s *Selector) minNative() int {
	if s.MinNativeChars > 0 {
		return s.MinNativeChars
	}
	return MinNativeChars
}

func success(method Method, text string) Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{Success: false, Method: method, Error: "no text could be extracted from the document"}
	}
	return Result{Success: true, Text: trimmed, Method: method}
}

func failure(method Method, err error) Result {
	return Result{Success: false, Method: method, Error: err.Error()}
}

func describe(in Input) string {
	if in.MimeType != "" {
		return in.MimeType
	}
	if in.FileName != "" {
		return in.FileName
	}
	return "unknown"
}
