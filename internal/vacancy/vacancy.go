package vacancy

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Vacancy is the typed view of a job posting stored in the vector index.
// It is built once at the retrieval boundary from the loosely-typed point
// payload; everything downstream works with this struct only.
type Vacancy struct {
	ID          string
	Score       float64
	Title       string
	Company     string
	Experience  string
	Description string
	Snippet     string
	URL         string
	SalaryText  string
	Role        string
	Area        string
	Active      bool
}

// payload mirrors the index payload including every alternate field name the
// ingestion pipeline has ever written. Salary fields are declared as any
// because old points carry structured salary objects which must be dropped.
type payload struct {
	Title        string `json:"title"`
	Name         string `json:"name"`
	Company      string `json:"company"`
	Employer     string `json:"employer"`
	Experience   string `json:"experience"`
	Description  string `json:"description"`
	Snippet      string `json:"snippet"`
	URL          string `json:"url"`
	AlternateURL string `json:"alternate_url"`
	SalaryText   any    `json:"salary_text"`
	SalaryStr    any    `json:"salary_str"`
	Salary       any    `json:"salary"`
	Role         string `json:"professional_roles_name"`
	Area         string `json:"area_name"`
	IsActive     bool   `json:"is_active"`
}

// FromPayload projects a raw index payload into a Vacancy.
//
// Field precedence: title falls back to name, company to employer, url to
// alternate_url. Salary is the first of salary_text, salary_str, salary that
// holds a non-empty string; structured salary values are discarded.
func FromPayload(id string, score float64, raw map[string]any) (*Vacancy, error) {
	var p payload

	cfg := &mapstructure.DecoderConfig{
		Result:           &p,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode point payload: %w", err)
	}

	return &Vacancy{
		ID:          id,
		Score:       score,
		Title:       firstNonEmpty(p.Title, p.Name),
		Company:     firstNonEmpty(p.Company, p.Employer),
		Experience:  strings.TrimSpace(p.Experience),
		Description: strings.TrimSpace(p.Description),
		Snippet:     strings.TrimSpace(p.Snippet),
		URL:         firstNonEmpty(p.URL, p.AlternateURL),
		SalaryText:  salaryString(p.SalaryText, p.SalaryStr, p.Salary),
		Role:        strings.TrimSpace(p.Role),
		Area:        strings.TrimSpace(p.Area),
		Active:      p.IsActive,
	}, nil
}

// Key returns the identity used to detect the same posting coming from
// different sources. Point IDs are not stable across re-ingestions, so the
// URL wins when present and a case-folded title::company pair is the
// fallback. An empty key means the posting cannot be identified at all.
func (v *Vacancy) Key() string {
	if v.URL != "" {
		return v.URL
	}

	title := strings.ToLower(strings.TrimSpace(v.Title))
	company := strings.ToLower(strings.TrimSpace(v.Company))
	if title == "" && company == "" {
		return ""
	}

	return title + "::" + company
}

// Text returns the free text used for summarization: description and
// snippet joined with a single space.
func (v *Vacancy) Text() string {
	return strings.TrimSpace(v.Description + " " + v.Snippet)
}

// Payload returns the index payload written on upsert.
func (v *Vacancy) Payload() map[string]any {
	return map[string]any{
		"title":                   v.Title,
		"company":                 v.Company,
		"experience":              v.Experience,
		"description":             v.Description,
		"snippet":                 v.Snippet,
		"url":                     v.URL,
		"salary_text":             v.SalaryText,
		"professional_roles_name": v.Role,
		"area_name":               v.Area,
		"is_active":               v.Active,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// salaryString picks the first candidate that is a plain non-empty string.
// Structured salary objects from old ingestion runs are not renderable and
// are dropped on purpose.
func salaryString(candidates ...any) string {
	for _, candidate := range candidates {
		if s, ok := candidate.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
