package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/dima1799/jobradar-ai/internal/headhunter"
)

type unidentifiedFilter struct{}

// NewUnidentified creates a filter that drops postings without any identity
// signal. A vacancy with no URL, title or employer cannot be deduplicated
// or rendered, so indexing it only pollutes search results.
func NewUnidentified() Filter {
	return &unidentifiedFilter{}
}

func (f *unidentifiedFilter) Name() string { return "unidentified" }

func (f *unidentifiedFilter) Disable(string) {}

func (f *unidentifiedFilter) IsEnabled() bool { return true }

func (f *unidentifiedFilter) Validate(*Config) error { return nil }

func (f *unidentifiedFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	initial := v.Len()

	kept := make([]*headhunter.Vacancy, 0, initial)
	var dropped []string
	for _, item := range v.Items {
		if item.ToDocument().Key() == "" {
			dropped = append(dropped, item.ID)
			continue
		}
		kept = append(kept, item)
	}
	v.Items = kept

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("dropping unidentifiable vacancies",
			zap.Strings("dropped_vacancies", dropped),
			zap.Int("vacancies_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}
