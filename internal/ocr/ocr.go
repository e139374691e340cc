// Package ocr recovers text from images and scanned PDFs.
//
// Only page 1 of a PDF is rasterized and recognized; pages after the first are
// ignored on purpose, so multi-page scans lose their later pages.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"resume-ingest/internal/shared/telemetry"
)

// ErrEmptyText is returned when the engine ran but recognized nothing.
var ErrEmptyText = errors.New("ocr recognized no text")

// Engine is a stateful OCR engine instance.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
	Close() error
}

// Provider acquires engine instances. Every acquired engine must be closed.
type Provider interface {
	Acquire(ctx context.Context) (Engine, error)
}

// Rasterizer renders the first page of a PDF to an encoded image.
type Rasterizer interface {
	FirstPage(ctx context.Context, pdf []byte) ([]byte, error)
}

// Adapter runs OCR with scoped engine lifetimes.
type Adapter struct {
	Engines Provider
	Raster  Rasterizer
}

// NewAdapter wires a provider and rasterizer. A nil rasterizer uses MuPDF.
func NewAdapter(engines Provider, raster Rasterizer) *Adapter {
	if raster == nil {
		raster = FitzRasterizer{Scale: RasterScale}
	}
	return &Adapter{Engines: engines, Raster: raster}
}

// FromImage recognizes an image file.
func (a *Adapter) FromImage(ctx context.Context, image []byte) (text string, err error) {
	defer recoverInto(&err)
	return a.recognize(ctx, image)
}

// FromPDF rasterizes page 1 of a PDF and recognizes it.
func (a *Adapter) FromPDF(ctx context.Context, pdf []byte) (text string, err error) {
	defer recoverInto(&err)
	if a.Raster == nil {
		return "", errors.New("ocr rasterizer not configured")
	}
	img, err := a.Raster.FirstPage(ctx, pdf)
	if err != nil {
		return "", err
	}
	return a.recognize(ctx, img)
}

func (a *Adapter) recognize(ctx context.Context, image []byte) (string, error) {
	if a.Engines == nil {
		return "", errors.New("ocr engine not configured")
	}
	engine, err := a.Engines.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire ocr engine: %w", err)
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			telemetry.Warn("ocr.engine", map[string]any{"event": "close_failed", "error": cerr.Error()})
		}
	}()

	raw, err := engine.Recognize(ctx, image)
	if err != nil {
		return "", err
	}
	text := Normalize(raw)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		telemetry.Error("panic", map[string]any{
			"component": "ocr",
			"error":     fmt.Sprint(r),
			"stack":     string(debug.Stack()),
		})
		*err = fmt.Errorf("ocr panic: %v", r)
	}
}
