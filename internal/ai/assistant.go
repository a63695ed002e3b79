package ai

import (
	"context"

	"github.com/dima1799/jobradar-ai/internal/vacancy"
)

// Assistant answers a free-form question using the retrieved vacancies as
// the only source of truth.
type Assistant interface {
	Answer(ctx context.Context, question string, vacancies []*vacancy.Vacancy) (string, error)
}
