package model

import (
	"strconv"
	"strings"
)

// StructuredResume is the canonical résumé record returned to callers.
// Every slice is non-nil once the record has passed through Normalize or Coerce.
type StructuredResume struct {
	FullName       string       `json:"full_name"`
	Title          string       `json:"title"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	Location       string       `json:"location"`
	Nationality    string       `json:"nationality"`
	Summary        string       `json:"summary"`
	Experiences    []Experience `json:"experiences"`
	Education      []Education  `json:"education"`
	Skills         []string     `json:"skills"`
	Languages      []Language   `json:"languages"`
	Certifications []string     `json:"certifications"`
	DrivingLicense []string     `json:"driving_license"`
	LinkedInURL    string       `json:"linkedin_url"`
	PortfolioURL   string       `json:"portfolio_url"`
	GitHubURL      string       `json:"github_url"`
	OtherURLs      []string     `json:"other_urls"`
}

// Experience is one work history entry.
type Experience struct {
	Position  string   `json:"position"`
	Company   string   `json:"company"`
	Period    string   `json:"period"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Missions  []string `json:"missions"`
}

// Education is one diploma or training entry.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
	Field       string `json:"field"`
}

// Language is a spoken language with an optional proficiency level.
type Language struct {
	Language string `json:"language"`
	Level    string `json:"level"`
}

// Empty returns a record with every collection allocated and every scalar blank.
func Empty() StructuredResume {
	return StructuredResume{}.Normalize()
}

// Normalize allocates nil slices so the record always marshals arrays as [].
func (r StructuredResume) Normalize() StructuredResume {
	if r.Experiences == nil {
		r.Experiences = []Experience{}
	}
	for i := range r.Experiences {
		if r.Experiences[i].Missions == nil {
			r.Experiences[i].Missions = []string{}
		}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.Languages == nil {
		r.Languages = []Language{}
	}
	if r.Certifications == nil {
		r.Certifications = []string{}
	}
	if r.DrivingLicense == nil {
		r.DrivingLicense = []string{}
	}
	if r.OtherURLs == nil {
		r.OtherURLs = []string{}
	}
	return r
}

// Coerce builds a StructuredResume from an untrusted decoded JSON object.
// Array attributes that are missing or not arrays become empty, scalars that are
// missing or not representable as text become "".
func Coerce(raw map[string]any) StructuredResume {
	if raw == nil {
		return Empty()
	}
	out := StructuredResume{
		FullName:       scalar(lookup(raw, "full_name", "fullName", "name")),
		Title:          scalar(lookup(raw, "title", "professional_title", "job_title", "headline")),
		Email:          scalar(lookup(raw, "email")),
		Phone:          scalar(lookup(raw, "phone", "telephone", "phone_number")),
		Location:       scalar(lookup(raw, "location", "address", "city")),
		Nationality:    scalar(lookup(raw, "nationality")),
		Summary:        scalar(lookup(raw, "summary", "profile", "about")),
		Skills:         dedupeFold(stringList(lookup(raw, "skills", "competences"))),
		Certifications: stringList(lookup(raw, "certifications")),
		DrivingLicense: stringList(lookup(raw, "driving_license", "driving_licence", "driving_licenses", "drivingLicense")),
		LinkedInURL:    scalar(lookup(raw, "linkedin_url", "linkedinUrl", "linkedin")),
		PortfolioURL:   scalar(lookup(raw, "portfolio_url", "portfolioUrl", "portfolio", "website")),
		GitHubURL:      scalar(lookup(raw, "github_url", "githubUrl", "github")),
		OtherURLs:      stringList(lookup(raw, "other_urls", "otherUrls", "urls")),
	}

	for _, item := range objectList(lookup(raw, "experiences", "experience", "work_experience")) {
		out.Experiences = append(out.Experiences, Experience{
			Position:  scalar(lookup(item, "position", "title", "role")),
			Company:   scalar(lookup(item, "company", "employer")),
			Period:    scalar(lookup(item, "period", "dates")),
			StartDate: scalar(lookup(item, "start_date", "startDate", "start")),
			EndDate:   scalar(lookup(item, "end_date", "endDate", "end")),
			Missions:  stringList(lookup(item, "missions", "responsibilities", "tasks", "highlights")),
		})
	}
	for _, item := range objectList(lookup(raw, "education", "educations")) {
		out.Education = append(out.Education, Education{
			Degree:      scalar(lookup(item, "degree", "diploma")),
			Institution: scalar(lookup(item, "institution", "school")),
			Year:        scalar(lookup(item, "year", "date")),
			Field:       scalar(lookup(item, "field", "field_of_study")),
		})
	}
	if list, ok := lookup(raw, "languages").([]any); ok {
		for _, v := range list {
			switch t := v.(type) {
			case map[string]any:
				lang := Language{
					Language: scalar(lookup(t, "language", "name")),
					Level:    scalar(lookup(t, "level", "proficiency")),
				}
				if lang.Language != "" || lang.Level != "" {
					out.Languages = append(out.Languages, lang)
				}
			case string:
				if s := strings.TrimSpace(t); s != "" {
					out.Languages = append(out.Languages, Language{Language: s})
				}
			}
		}
	}
	return out.Normalize()
}

func lookup(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := scalar(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func objectList(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func dedupeFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
