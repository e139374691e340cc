// Package layout rebuilds reading order from positioned text fragments of a PDF page.
package layout

import (
	"math"
	"sort"
	"strings"
)

const (
	// LineTolerance is the vertical distance under which two fragments share a line.
	LineTolerance = 5.0
	// MinColumnSpan is the horizontal span below which a page is single column.
	MinColumnSpan = 200.0
)

// Fragment is one positioned token from a page text layer. Y follows PDF user
// space: the origin is bottom-left, so the top of the page has the largest Y.
type Fragment struct {
	Text string
	X    float64
	Y    float64
}

type indexed struct {
	Fragment
	idx int
}

type column struct {
	anchor float64
	frags  []indexed
}

// ReconstructPages reconstructs each page and joins the pages with a newline.
func ReconstructPages(pages [][]Fragment) string {
	out := make([]string, 0, len(pages))
	for _, page := range pages {
		out = append(out, Reconstruct(page))
	}
	return strings.Join(out, "\n")
}

// Reconstruct orders one page of fragments top to bottom, left to right.
// Pages whose horizontal span reaches MinColumnSpan are split into columns that
// are emitted whole, left column first, separated by a blank line.
func Reconstruct(frags []Fragment) string {
	if len(frags) == 0 {
		return ""
	}
	items := make([]indexed, len(frags))
	minX, maxX := math.Inf(1), math.Inf(-1)
	for i, f := range frags {
		items[i] = indexed{Fragment: f, idx: i}
		minX = math.Min(minX, f.X)
		maxX = math.Max(maxX, f.X)
	}
	lines := groupLines(items)
	span := maxX - minX
	if span < MinColumnSpan {
		return joinLines(lines)
	}

	cols := clusterColumns(flatten(lines), span/3)
	if len(cols) == 1 {
		return joinLines(lines)
	}
	blocks := make([]string, 0, len(cols))
	for _, col := range cols {
		blocks = append(blocks, joinLines(groupLines(col.frags)))
	}
	return strings.Join(blocks, "\n\n")
}

// groupLines sorts by descending Y, starts a new line whenever a fragment sits
// more than LineTolerance below the current line anchor, and orders each line by X.
// Ties fall back to the emitted index so the order is total.
func groupLines(items []indexed) [][]indexed {
	byY := append([]indexed(nil), items...)
	sort.SliceStable(byY, func(i, j int) bool {
		if byY[i].Y != byY[j].Y {
			return byY[i].Y > byY[j].Y
		}
		if byY[i].X != byY[j].X {
			return byY[i].X < byY[j].X
		}
		return byY[i].idx < byY[j].idx
	})

	var lines [][]indexed
	start := 0
	for i := 1; i <= len(byY); i++ {
		if i < len(byY) && math.Abs(byY[i].Y-byY[start].Y) <= LineTolerance {
			continue
		}
		line := append([]indexed(nil), byY[start:i]...)
		sort.SliceStable(line, func(a, b int) bool {
			if line[a].X != line[b].X {
				return line[a].X < line[b].X
			}
			return line[a].idx < line[b].idx
		})
		lines = append(lines, line)
		start = i
	}
	return lines
}

func flatten(lines [][]indexed) []indexed {
	var out []indexed
	for _, line := range lines {
		out = append(out, line...)
	}
	return out
}

// clusterColumns assigns each fragment, in reading order, to the nearest column
// anchor within threshold and opens a new column otherwise. Columns come back
// left to right.
func clusterColumns(ordered []indexed, threshold float64) []column {
	var cols []column
	for _, f := range ordered {
		best := -1
		bestDist := math.Inf(1)
		for i, c := range cols {
			d := math.Abs(f.X - c.anchor)
			if d <= threshold && d < bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			cols = append(cols, column{anchor: f.X, frags: []indexed{f}})
			continue
		}
		cols[best].frags = append(cols[best].frags, f)
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].anchor < cols[j].anchor })
	return cols
}

func joinLines(lines [][]indexed) string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		parts := make([]string, 0, len(line))
		for _, f := range line {
			if text := strings.TrimSpace(f.Text); text != "" {
				parts = append(parts, text)
			}
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, strings.Join(parts, " "))
	}
	return strings.Join(out, "\n")
}
