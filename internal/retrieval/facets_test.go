package retrieval

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dima1799/jobradar-ai/internal/qdrant"
	"go.uber.org/zap"
)

func facetPoint(id, role, area string) qdrant.Point {
	return qdrant.Point{ID: id, Payload: map[string]any{
		"title":                   "Вакансия " + id,
		"professional_roles_name": role,
		"area_name":               area,
		"is_active":               true,
	}}
}

func TestFacetRefreshBuildsSortedDistinctValues(t *testing.T) {
	index := &fakeIndex{pages: [][]qdrant.Point{
		{
			facetPoint("1", "Программист", "Москва"),
			facetPoint("2", "Аналитик", "Санкт-Петербург"),
		},
		{
			facetPoint("3", "Программист", "Москва"),
			facetPoint("4", "  ", ""),
		},
	}}

	cache := NewFacetCache(index, zap.NewNop())
	if err := cache.Refresh(context.Background(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot := cache.Snapshot()
	if !reflect.DeepEqual(snapshot.Roles, []string{"Аналитик", "Программист"}) {
		t.Fatalf("unexpected roles: %v", snapshot.Roles)
	}
	if !reflect.DeepEqual(snapshot.Areas, []string{"Москва", "Санкт-Петербург"}) {
		t.Fatalf("unexpected areas: %v", snapshot.Areas)
	}
	if snapshot.RefreshedAt.IsZero() {
		t.Fatalf("expected RefreshedAt set")
	}
}

func TestFacetRefreshScansActiveOnly(t *testing.T) {
	index := &fakeIndex{}

	cache := NewFacetCache(index, zap.NewNop())
	if err := cache.Refresh(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if index.lastFilter == nil || len(index.lastFilter.Must) != 1 || index.lastFilter.Must[0].Key != "is_active" {
		t.Fatalf("expected is_active-only filter, got %+v", index.lastFilter)
	}
}

func TestFacetRefreshKeepsOldSnapshotOnError(t *testing.T) {
	good := &fakeIndex{pages: [][]qdrant.Point{{facetPoint("1", "Программист", "Москва")}}}

	cache := NewFacetCache(good, zap.NewNop())
	if err := cache.Refresh(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cache.index = &fakeIndex{scrollErr: qdrant.ErrUnavailable}
	err := cache.Refresh(context.Background(), 10)
	if !errors.Is(err, qdrant.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	snapshot := cache.Snapshot()
	if len(snapshot.Roles) != 1 || snapshot.Roles[0] != "Программист" {
		t.Fatalf("previous snapshot must survive a failed refresh, got %v", snapshot.Roles)
	}
}

func TestSnapshotBeforeFirstRefresh(t *testing.T) {
	cache := NewFacetCache(&fakeIndex{}, zap.NewNop())

	snapshot := cache.Snapshot()
	if len(snapshot.Roles) != 0 || len(snapshot.Areas) != 0 {
		t.Fatalf("expected empty snapshot before first refresh, got %+v", snapshot)
	}
	if !snapshot.RefreshedAt.IsZero() {
		t.Fatalf("expected zero RefreshedAt before first refresh")
	}
}
