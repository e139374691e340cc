package extract

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"resume-ingest/internal/layout"
)

const (
	// wordSpaceMultiplier is the fraction of the font size above which a
	// horizontal gap between glyphs separates two words.
	wordSpaceMultiplier = 0.3
	sameRowTolerance    = 2.0
	// runGap is the horizontal gap that separates two text runs on one row,
	// wide enough that word spaces never split a line.
	runGap = 30.0
)

// NativePDFText reads the text layer of every page and rebuilds reading order
// with the layout package.
func NativePDFText(ctx context.Context, data []byte) (text string, err error) {
	pages, err := pdfFragments(ctx, data)
	if err != nil {
		return "", err
	}
	return layout.ReconstructPages(pages), nil
}

func pdfFragments(ctx context.Context, data []byte) (pages [][]layout.Fragment, err error) {
	// ledongthuc/pdf panics on malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text layer: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, runsFromGlyphs(page.Content().Text))
	}
	return pages, nil
}

// runsFromGlyphs merges consecutive glyphs of the content stream into text
// runs anchored at their first glyph. Word spaces stay inside a run; a run
// ends on a row change, a backwards jump, or a gap of at least runGap.
func runsFromGlyphs(glyphs []pdf.Text) []layout.Fragment {
	var (
		out          []layout.Fragment
		cur          strings.Builder
		startX       float64
		startY       float64
		endX         float64
		lastHeight   float64
		pendingSpace bool
	)
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		out = append(out, layout.Fragment{Text: cur.String(), X: startX, Y: startY})
		cur.Reset()
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			if cur.Len() > 0 {
				pendingSpace = true
			}
			continue
		}
		if cur.Len() > 0 {
			size := g.FontSize
			if size <= 0 {
				size = lastHeight
			}
			wordGap := wordSpaceMultiplier * size
			if wordGap <= 0 {
				wordGap = 3
			}
			gap := g.X - endX
			switch {
			case math.Abs(g.Y-startY) > sameRowTolerance || gap >= runGap || gap < -size:
				flush()
			case pendingSpace || gap > wordGap:
				cur.WriteByte(' ')
			}
		}
		pendingSpace = false
		if cur.Len() == 0 {
			startX, startY = g.X, g.Y
		}
		cur.WriteString(g.S)
		endX = g.X + g.W
		if g.FontSize > 0 {
			lastHeight = g.FontSize
		}
	}
	flush()
	return out
}
