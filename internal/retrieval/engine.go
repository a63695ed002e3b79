package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/dima1799/jobradar-ai/internal/embedding"
	"github.com/dima1799/jobradar-ai/internal/metrics"
	"github.com/dima1799/jobradar-ai/internal/qdrant"
	"github.com/dima1799/jobradar-ai/internal/vacancy"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 20 * time.Second

	// Page size for scroll-based enumeration.
	scrollPageSize = 256
)

// Index is the slice of the vector backend the engine depends on.
// qdrant.Client satisfies it; tests plug in fakes.
type Index interface {
	Query(ctx context.Context, vector []float32, limit int, filter *qdrant.Filter) ([]qdrant.ScoredPoint, error)
	Scroll(ctx context.Context, filter *qdrant.Filter, limit int, offset any) ([]qdrant.Point, any, error)
}

// Filter narrows retrieval to exact role/area matches. Both fields are
// optional.
type Filter struct {
	Role string
	Area string
}

func (f *Filter) conditions() []qdrant.FieldCondition {
	if f == nil {
		return nil
	}

	var conditions []qdrant.FieldCondition
	if f.Role != "" {
		conditions = append(conditions, qdrant.MustMatch("professional_roles_name", f.Role))
	}
	if f.Area != "" {
		conditions = append(conditions, qdrant.MustMatch("area_name", f.Area))
	}
	return conditions
}

// Engine answers ranked and filter-only vacancy lookups against the vector
// index. It is stateless and safe for concurrent use as long as the index
// and encoder clients are.
type Engine struct {
	index   Index
	encoder embedding.Encoder
	logger  *zap.Logger
	timeout time.Duration
}

func NewEngine(index Index, encoder embedding.Encoder, logger *zap.Logger, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Engine{index: index, encoder: encoder, logger: logger, timeout: timeout}
}

// Retrieve embeds the query and returns up to k active vacancies ranked by
// similarity. fetchWidth candidates are requested from the index because
// deduplication happens after ranking: near-duplicate postings would
// otherwise starve the result list below k.
//
// An empty result is a valid outcome. Backend and payload failures wrap
// qdrant.ErrUnavailable; partial pages are never returned as complete.
func (e *Engine) Retrieve(ctx context.Context, query string, k, fetchWidth int, filter *Filter) ([]*vacancy.Vacancy, error) {
	if fetchWidth < k {
		fetchWidth = k
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	results, err := e.retrieve(ctx, query, k, fetchWidth, filter)
	metrics.SearchDuration.WithLabelValues("vector").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Searches.WithLabelValues("vector", "error").Inc()
		return nil, err
	}

	metrics.Searches.WithLabelValues("vector", "ok").Inc()
	return results, nil
}

func (e *Engine) retrieve(ctx context.Context, query string, k, fetchWidth int, filter *Filter) ([]*vacancy.Vacancy, error) {
	vectors, err := e.encoder.Encode(ctx, []string{query}, true)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}

	hits, err := e.index.Query(ctx, vectors[0], fetchWidth, qdrant.ActiveOnly(filter.conditions()...))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	seen := make(map[string]struct{}, len(hits))
	results := make([]*vacancy.Vacancy, 0, k)
	for _, hit := range hits {
		v, err := vacancy.FromPayload(fmt.Sprint(hit.ID), hit.Score, hit.Payload)
		if err != nil {
			// A payload the projection cannot read means the page is
			// not trustworthy as a whole.
			return nil, fmt.Errorf("%w: point %v: %v", qdrant.ErrUnavailable, hit.ID, err)
		}

		key := v.Key()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		results = append(results, v)
		if len(results) >= k {
			break
		}
	}

	e.logger.Debug("retrieval done",
		zap.Int("hits", len(hits)),
		zap.Int("results", len(results)),
		zap.Int("fetch_width", fetchWidth),
	)

	return results, nil
}

// RetrieveByFilter enumerates active vacancies matching the exact role/area
// clauses without semantic ranking, in storage iteration order, applying
// the same identity deduplication. Either the full requested page succeeds
// or the call fails.
func (e *Engine) RetrieveByFilter(ctx context.Context, role, area string, limit int) ([]*vacancy.Vacancy, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	results, err := e.retrieveByFilter(ctx, role, area, limit)
	metrics.SearchDuration.WithLabelValues("filter").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Searches.WithLabelValues("filter", "error").Inc()
		return nil, err
	}

	metrics.Searches.WithLabelValues("filter", "ok").Inc()
	return results, nil
}

func (e *Engine) retrieveByFilter(ctx context.Context, role, area string, limit int) ([]*vacancy.Vacancy, error) {
	filter := &Filter{Role: role, Area: area}
	qf := qdrant.ActiveOnly(filter.conditions()...)

	seen := make(map[string]struct{})
	results := make([]*vacancy.Vacancy, 0, limit)

	var offset any
	for len(results) < limit {
		page := scrollPageSize
		if remaining := limit - len(results); remaining < page {
			page = remaining
		}

		points, next, err := e.index.Scroll(ctx, qf, page, offset)
		if err != nil {
			return nil, fmt.Errorf("scroll vacancies: %w", err)
		}

		for _, point := range points {
			v, err := vacancy.FromPayload(fmt.Sprint(point.ID), 0, point.Payload)
			if err != nil {
				return nil, fmt.Errorf("%w: point %v: %v", qdrant.ErrUnavailable, point.ID, err)
			}

			key := v.Key()
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			results = append(results, v)
			if len(results) >= limit {
				break
			}
		}

		if next == nil || len(points) == 0 {
			break
		}
		offset = next
	}

	return results, nil
}
