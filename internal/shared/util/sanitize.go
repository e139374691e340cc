package util

import (
	"path/filepath"
	"strings"
)

const fallbackFileName = "upload"

// CleanFileName keeps only the last path element of a client-supplied name and
// strips separators and control characters. Empty or traversal-only names
// become "upload"; the extension is preserved for kind detection.
func CleanFileName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	switch name {
	case "", ".", "..", "/":
		return fallbackFileName
	}
	return name
}
