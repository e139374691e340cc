package service

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// ResumeSchema describes the provider output for cv_parse. It is checked
// leniently: violations are logged and the record is still coerced.
func ResumeSchema() map[string]any {
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type": "object",
		"required": []string{
			"full_name", "email", "phone", "experiences", "education",
			"skills", "languages", "certifications", "driving_license", "other_urls",
		},
		"properties": map[string]any{
			"full_name":   str,
			"title":       str,
			"email":       str,
			"phone":       str,
			"location":    str,
			"nationality": str,
			"summary":     str,
			"experiences": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"position":   str,
						"company":    str,
						"period":     str,
						"start_date": str,
						"end_date":   str,
						"missions":   stringArray(),
					},
				},
			},
			"education": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"degree":      str,
						"institution": str,
						"year":        str,
						"field":       str,
					},
				},
			},
			"skills": stringArray(),
			"languages": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"language": str,
						"level":    str,
					},
				},
			},
			"certifications":  stringArray(),
			"driving_license": stringArray(),
			"linkedin_url":    str,
			"portfolio_url":   str,
			"github_url":      str,
			"other_urls":      stringArray(),
		},
	}
}
