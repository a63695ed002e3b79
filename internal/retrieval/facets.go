package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dima1799/jobradar-ai/internal/metrics"
	"github.com/dima1799/jobradar-ai/internal/qdrant"
	"go.uber.org/zap"
)

const defaultFacetScanLimit = 5000

// Snapshot is one immutable view of the distinct filter values present in
// the active corpus. Callers must not mutate the slices.
type Snapshot struct {
	Roles       []string
	Areas       []string
	RefreshedAt time.Time
}

// FacetCache serves the role/area values the filter UI offers. Reads never
// touch the backend: they return the last published snapshot, which may be
// stale until the next Refresh.
type FacetCache struct {
	index  Index
	logger *zap.Logger

	mu       sync.RWMutex
	snapshot *Snapshot
}

func NewFacetCache(index Index, logger *zap.Logger) *FacetCache {
	return &FacetCache{
		index:    index,
		logger:   logger,
		snapshot: &Snapshot{},
	}
}

// Snapshot returns the last published facet view. Before the first
// successful Refresh both facet lists are empty.
func (c *FacetCache) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Refresh scans up to limitPoints active points and atomically replaces the
// published snapshot with the distinct sorted role and area values found.
// On error the previous snapshot stays in place.
func (c *FacetCache) Refresh(ctx context.Context, limitPoints int) error {
	if limitPoints <= 0 {
		limitPoints = defaultFacetScanLimit
	}

	roles := make(map[string]struct{})
	areas := make(map[string]struct{})

	scanned := 0
	var offset any
	for scanned < limitPoints {
		page := scrollPageSize
		if remaining := limitPoints - scanned; remaining < page {
			page = remaining
		}

		points, next, err := c.index.Scroll(ctx, qdrant.ActiveOnly(), page, offset)
		if err != nil {
			return fmt.Errorf("scan facets: %w", err)
		}
		scanned += len(points)

		for _, point := range points {
			collect(roles, point.Payload["professional_roles_name"])
			collect(areas, point.Payload["area_name"])
		}

		if next == nil || len(points) == 0 {
			break
		}
		offset = next
	}

	snapshot := &Snapshot{
		Roles:       sorted(roles),
		Areas:       sorted(areas),
		RefreshedAt: time.Now(),
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()

	metrics.FacetSnapshotSize.WithLabelValues("role").Set(float64(len(snapshot.Roles)))
	metrics.FacetSnapshotSize.WithLabelValues("area").Set(float64(len(snapshot.Areas)))

	c.logger.Info("facet snapshot refreshed",
		zap.Int("scanned", scanned),
		zap.Int("roles", len(snapshot.Roles)),
		zap.Int("areas", len(snapshot.Areas)),
	)

	return nil
}

func collect(set map[string]struct{}, value any) {
	s, ok := value.(string)
	if !ok {
		return
	}
	if s = strings.TrimSpace(s); s != "" {
		set[s] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for value := range set {
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
