package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/dima1799/jobradar-ai/internal/headhunter"
)

type duplicatesFilter struct{}

// NewDuplicates creates a filter that keeps only the first posting for each
// document identity. Agencies repost the same vacancy under fresh ids, so
// the posting id alone does not deduplicate anything.
func NewDuplicates() Filter {
	return &duplicatesFilter{}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Disable(string) {}

func (f *duplicatesFilter) IsEnabled() bool { return true }

func (f *duplicatesFilter) Validate(*Config) error { return nil }

func (f *duplicatesFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	initial := v.Len()

	seen := make(map[string]struct{}, initial)
	kept := make([]*headhunter.Vacancy, 0, initial)
	var dropped []string
	for _, item := range v.Items {
		key := item.ToDocument().Key()
		if _, dup := seen[key]; dup {
			dropped = append(dropped, item.ID)
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, item)
	}
	v.Items = kept

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("dropping duplicate vacancies",
			zap.Strings("dropped_vacancies", dropped),
			zap.Int("vacancies_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}
