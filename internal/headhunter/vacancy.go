package headhunter

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/dima1799/jobradar-ai/internal/vacancy"
)

const (
	VacancyIDField         = "ID"
	VacancyEmployerIDField = "EmployerID"
)

type Vacancies struct {
	Items []*Vacancy
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	Salary struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
		Gross    bool   `json:"gross,omitempty"`
	} `json:"salary,omitempty"`
	Experience struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"experience,omitempty"`
	Employer struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Description  string `json:"description,omitempty"`
	Archived     bool   `json:"archived,omitempty"`
	Snippet      struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	ProfessionalRoles []struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"professional_roles,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

var (
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	spaceRe     = regexp.MustCompile(`\s+`)
	vacancyIDRe = regexp.MustCompile(`vacancy/(\d+)`)
)

// StripHTML flattens the hh.ru description markup into plain text.
func StripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// VacancyIDFromURL extracts the numeric posting id from an hh.ru vacancy
// URL. Returns an empty string when the URL does not look like one.
func VacancyIDFromURL(url string) string {
	m := vacancyIDRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// SalaryString renders the salary range the way the posting shows it,
// e.g. "от 200 000 до 300 000 RUR". Empty when no salary is declared.
func (va *Vacancy) SalaryString() string {
	var parts []string
	if va.Salary.From > 0 {
		parts = append(parts, "от "+formatAmount(va.Salary.From))
	}
	if va.Salary.To > 0 {
		parts = append(parts, "до "+formatAmount(va.Salary.To))
	}
	if len(parts) == 0 {
		return ""
	}
	if va.Salary.Currency != "" {
		parts = append(parts, va.Salary.Currency)
	}
	return strings.Join(parts, " ")
}

// formatAmount groups digits in thousands with spaces, matching how hh.ru
// renders salaries.
func formatAmount(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func (va *Vacancy) RolesString() string {
	names := make([]string, 0, len(va.ProfessionalRoles))
	for _, role := range va.ProfessionalRoles {
		if role.Name != "" {
			names = append(names, role.Name)
		}
	}
	return strings.Join(names, ", ")
}

func (va *Vacancy) snippetText() string {
	parts := make([]string, 0, 2)
	if va.Snippet.Responsibility != "" {
		parts = append(parts, StripHTML(va.Snippet.Responsibility))
	}
	if va.Snippet.Requirement != "" {
		parts = append(parts, StripHTML(va.Snippet.Requirement))
	}
	return strings.Join(parts, " ")
}

// ToDocument converts the API posting into the document shape stored in the
// vector index.
func (va *Vacancy) ToDocument() *vacancy.Vacancy {
	return &vacancy.Vacancy{
		ID:          va.ID,
		Title:       strings.TrimSpace(va.Name),
		Company:     strings.TrimSpace(va.Employer.Name),
		Experience:  va.Experience.Name,
		Description: StripHTML(va.Description),
		Snippet:     va.snippetText(),
		URL:         va.AlternateURL,
		SalaryText:  va.SalaryString(),
		Role:        va.RolesString(),
		Area:        va.Area.Name,
		Active:      !va.Archived,
	}
}

func (va *Vacancy) GetStringField(name string) string {
	switch name {
	case VacancyIDField:
		return va.ID
	case VacancyEmployerIDField:
		return va.Employer.ID

	default:
		return ""
	}
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

// Exclude function exclude vacancies from list by id.
func (v *Vacancies) Exclude(name string, targets []string) []string {
	var excluded []string
	for _, target := range targets {
		for idx, vacancy := range v.Items {
			if vacancy.GetStringField(name) == target {
				v.RemoveByIndex(idx)
				excluded = append(excluded, vacancy.ID)
				break
			}
		}
	}
	return excluded
}

// RemoveByIndex remove vacancy from list by index. Do not preserve order.
func (v *Vacancies) RemoveByIndex(idx int) {
	v.Items[idx] = v.Items[len(v.Items)-1]
	v.Items = v.Items[:len(v.Items)-1]
}
