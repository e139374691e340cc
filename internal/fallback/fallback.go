// Package fallback builds a sparse StructuredResume from plain text with
// regular expressions only. It is used when AI structuring is unavailable.
package fallback

import (
	"regexp"
	"strings"
	"unicode"

	"resume-ingest/resume/model"
)

const (
	summaryLines    = 5
	summaryMaxRunes = 200
	minPhoneDigits  = 9
	maxPhoneDigits  = 15
)

var (
	reEmail = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	rePhone = regexp.MustCompile(`\+?\(?\d[\d \t().\-]{6,}\d`)
	reURL   = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>()"']+|\b(?:[a-z]{2,3}\.)?(?:linkedin|github)\.com/[^\s<>()"']+`)
)

// Parse never fails. Collections are always empty; only contact details,
// name, title and a short summary are filled.
func Parse(text string) model.StructuredResume {
	out := model.Empty()
	lines := nonBlankLines(text)
	if len(lines) > 0 {
		out.FullName = lines[0]
	}
	if len(lines) > 1 {
		out.Title = lines[1]
	}
	out.Email = firstEmail(text)
	out.Phone = firstPhone(text)

	for _, u := range reURL.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:")
		lower := strings.ToLower(u)
		switch {
		case strings.Contains(lower, "linkedin.com") && out.LinkedInURL == "":
			out.LinkedInURL = u
		case strings.Contains(lower, "github.com") && out.GitHubURL == "":
			out.GitHubURL = u
		default:
			out.OtherURLs = append(out.OtherURLs, u)
		}
	}

	out.Summary = summarize(lines)
	repaired, _ := model.Repair(out)
	return repaired.Normalize()
}

func nonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstEmail(text string) string {
	return reEmail.FindString(text)
}

// firstPhone returns the first digit group with a plausible phone length.
func firstPhone(text string) string {
	for _, m := range rePhone.FindAllString(text, -1) {
		n := 0
		for _, r := range m {
			if unicode.IsDigit(r) {
				n++
			}
		}
		if n >= minPhoneDigits && n <= maxPhoneDigits {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func summarize(lines []string) string {
	if len(lines) > summaryLines {
		lines = lines[:summaryLines]
	}
	joined := strings.Join(lines, " ")
	runes := []rune(joined)
	if len(runes) > summaryMaxRunes {
		joined = strings.TrimSpace(string(runes[:summaryMaxRunes]))
	}
	return joined
}
