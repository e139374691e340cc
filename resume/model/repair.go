package model

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Repair clears contact fields that do not hold a valid value and returns the
// names of the fields it touched. URLs without a scheme are upgraded to https
// before being checked.
func Repair(r StructuredResume) (StructuredResume, []string) {
	var cleared []string

	if r.Email != "" {
		r.Email = strings.TrimPrefix(r.Email, "mailto:")
		if validate.Var(r.Email, "email") != nil {
			r.Email = ""
			cleared = append(cleared, "email")
		}
	}

	fixURL := func(field string, value *string) {
		if *value == "" {
			return
		}
		fixed, ok := normalizeURL(*value)
		if !ok {
			*value = ""
			cleared = append(cleared, field)
			return
		}
		*value = fixed
	}
	fixURL("linkedin_url", &r.LinkedInURL)
	fixURL("portfolio_url", &r.PortfolioURL)
	fixURL("github_url", &r.GitHubURL)

	others := make([]string, 0, len(r.OtherURLs))
	for _, u := range r.OtherURLs {
		if fixed, ok := normalizeURL(u); ok {
			others = append(others, fixed)
			continue
		}
		cleared = append(cleared, "other_urls")
	}
	r.OtherURLs = others

	return r.Normalize(), cleared
}

func normalizeURL(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	v = strings.TrimRight(v, ".,;)")
	if v == "" {
		return "", false
	}
	lower := strings.ToLower(v)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		v = "https://" + v
	}
	if validate.Var(v, "http_url") != nil {
		return "", false
	}
	return v, true
}
