package filtering

import (
	"context"
	"testing"

	"github.com/dima1799/jobradar-ai/internal/headhunter"
	"go.uber.org/zap"
)

func newVacancy(id, name, employerID, employerName, url string) *headhunter.Vacancy {
	v := &headhunter.Vacancy{ID: id, Name: name, AlternateURL: url}
	v.Employer.ID = employerID
	v.Employer.Name = employerName
	return v
}

func TestRunPipeline(t *testing.T) {
	vacancies := &headhunter.Vacancies{Items: []*headhunter.Vacancy{
		newVacancy("1", "Go Developer", "emp1", "Acme", "https://hh.ru/vacancy/1"),
		newVacancy("2", "Go Developer", "emp2", "Blocked Corp", "https://hh.ru/vacancy/2"),
		newVacancy("3", "Go Developer", "emp3", "Agency", "https://hh.ru/vacancy/1"),
		newVacancy("4", "", "", "", ""),
	}}

	cfg := &Config{Employers: []string{"emp2"}}
	deps := Deps{Logger: zap.NewNop()}

	result, err := Run(context.Background(), cfg, deps, DefaultSteps(), vacancies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Len() != 1 {
		t.Fatalf("expected 1 vacancy left, got %d: %+v", result.Len(), result.Items)
	}
	if result.Items[0].ID != "1" {
		t.Fatalf("expected vacancy 1 to survive, got %s", result.Items[0].ID)
	}
}

func TestRunSkipsDisabledSteps(t *testing.T) {
	vacancies := &headhunter.Vacancies{Items: []*headhunter.Vacancy{
		newVacancy("1", "Go Developer", "emp2", "Blocked Corp", "https://hh.ru/vacancy/1"),
	}}

	steps := DefaultSteps()
	DisableByName(steps, "employers", "testing")

	// The employers step would drop everything here if it ran.
	result, err := Run(context.Background(), &Config{Employers: []string{"emp2"}}, Deps{}, steps, vacancies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("disabled step must not drop vacancies, got %d left", result.Len())
	}
}

func TestDuplicatesKeepFirst(t *testing.T) {
	vacancies := &headhunter.Vacancies{Items: []*headhunter.Vacancy{
		newVacancy("1", "ML Engineer", "emp1", "Globex", ""),
		newVacancy("2", "ml engineer", "emp1", "GLOBEX", ""),
	}}

	result, _, err := NewDuplicates().Apply(context.Background(), Deps{}, vacancies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 1 || result.Items[0].ID != "1" {
		t.Fatalf("expected first posting kept, got %+v", result.Items)
	}
}

func TestDescribeReportsEmployers(t *testing.T) {
	steps := DefaultSteps()
	if err := steps[0].Validate(&Config{Employers: []string{"emp1", "emp2"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	statuses := Describe(steps)
	if len(statuses) != len(steps) {
		t.Fatalf("expected %d statuses, got %d", len(steps), len(statuses))
	}
	if statuses[0].Details["employers"] != "emp1,emp2" {
		t.Fatalf("unexpected employers detail: %+v", statuses[0])
	}
}
