package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// RasterScale is the zoom applied to page 1 of a scanned PDF (2× of 72 DPI).
const RasterScale = 2.0

// FitzRasterizer renders PDF pages in memory with MuPDF.
type FitzRasterizer struct {
	Scale float64
}

// FirstPage renders page 1 only and returns it PNG-encoded.
func (r FitzRasterizer) FirstPage(ctx context.Context, pdf []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scale := r.Scale
	if scale <= 0 {
		scale = RasterScale
	}
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf for raster: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, errors.New("pdf has no pages")
	}
	img, err := doc.ImageDPI(0, 72*scale)
	if err != nil {
		return nil, fmt.Errorf("render page 1: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page 1: %w", err)
	}
	return buf.Bytes(), nil
}
