package store

import (
	"context"
	"testing"

	"github.com/dayplan/autoplanner/internal/adapter"
	"github.com/dayplan/autoplanner/internal/adapter/memory"
	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
)

func newTestSeriesStore() *SeriesStore {
	return NewSeriesStore(memory.New())
}

func TestSeriesCreateRejectsEmptyTitle(t *testing.T) {
	s := newTestSeriesStore()
	err := s.Create(context.Background(), &model.Series{ID: "s1"})
	if !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected Validation for empty title, got %v", err)
	}
}

func TestSeriesCreateRejectsInvertedDateRange(t *testing.T) {
	s := newTestSeriesStore()
	start := model.Date("2026-08-01")
	end := model.Date("2026-07-01")
	err := s.Create(context.Background(), &model.Series{ID: "s1", Title: "S1", StartDate: &start, EndDate: &end})
	if !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected Validation for end before start, got %v", err)
	}
}

func TestSeriesCreateAndGetFullSeries(t *testing.T) {
	s := newTestSeriesStore()
	ctx := context.Background()
	if err := s.Create(ctx, &model.Series{ID: "s1", Title: "S1", Tags: []string{"health"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := s.GetFullSeries(ctx, "s1")
	if err != nil {
		t.Fatalf("GetFullSeries: %v", err)
	}
	if got.Title != "S1" {
		t.Fatalf("got title %q, want S1", got.Title)
	}
	// Defensive copy: mutating the returned series must not affect the store.
	got.Title = "mutated"
	got2, _ := s.GetFullSeries(ctx, "s1")
	if got2.Title != "S1" {
		t.Fatalf("expected store copy unaffected by caller mutation, got %q", got2.Title)
	}
}

func TestSeriesGetFullSeriesNotFound(t *testing.T) {
	s := newTestSeriesStore()
	_, err := s.GetFullSeries(context.Background(), "nope")
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestSeriesUpdateRejectsLockedSeries(t *testing.T) {
	s := newTestSeriesStore()
	ctx := context.Background()
	if err := s.Create(ctx, &model.Series{ID: "s1", Title: "S1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	locked := true
	if err := s.Update(ctx, "s1", adapter.SeriesFields{Locked: &locked}); err != nil {
		t.Fatalf("lock Update: %v", err)
	}
	newTitle := "renamed"
	err := s.Update(ctx, "s1", adapter.SeriesFields{Title: &newTitle})
	if !apperr.Is(err, apperr.Locked) {
		t.Fatalf("expected Locked error mutating a locked series, got %v", err)
	}
}

func TestSeriesUpdateAllowsUnlockOnly(t *testing.T) {
	s := newTestSeriesStore()
	ctx := context.Background()
	if err := s.Create(ctx, &model.Series{ID: "s1", Title: "S1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	locked := true
	if err := s.Update(ctx, "s1", adapter.SeriesFields{Locked: &locked}); err != nil {
		t.Fatalf("lock Update: %v", err)
	}
	unlocked := false
	if err := s.Update(ctx, "s1", adapter.SeriesFields{Locked: &unlocked}); err != nil {
		t.Fatalf("unlock-only Update should succeed on a locked series, got %v", err)
	}
	got, _ := s.GetFullSeries(ctx, "s1")
	if got.Locked {
		t.Fatalf("expected series to be unlocked")
	}
}

func TestSeriesDeleteNotFound(t *testing.T) {
	s := newTestSeriesStore()
	err := s.Delete(context.Background(), "nope")
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestSeriesTagIndexAddRemove(t *testing.T) {
	s := newTestSeriesStore()
	ctx := context.Background()
	if err := s.Create(ctx, &model.Series{ID: "s1", Title: "S1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.AddTag(ctx, "s1", "morning"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	tagged, err := s.GetSeriesByTag(ctx, "morning")
	if err != nil {
		t.Fatalf("GetSeriesByTag: %v", err)
	}
	if len(tagged) != 1 || tagged[0].ID != "s1" {
		t.Fatalf("expected s1 tagged morning, got %+v", tagged)
	}

	if err := s.RemoveTag(ctx, "s1", "morning"); err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	tagged, _ = s.GetSeriesByTag(ctx, "morning")
	if len(tagged) != 0 {
		t.Fatalf("expected no series tagged morning after removal, got %+v", tagged)
	}
}

func TestSeriesHydrateIsAdditiveNotOverwriting(t *testing.T) {
	a := memory.New()
	ctx := context.Background()
	if err := a.CreateSeries(ctx, &model.Series{ID: "s1", Title: "from-adapter"}); err != nil {
		t.Fatalf("adapter CreateSeries: %v", err)
	}

	s := NewSeriesStore(a)
	// Seed in-memory state directly, then hydrate: the adapter's "s1" must
	// not overwrite the already-present in-memory copy.
	s.byID["s1"] = &model.Series{ID: "s1", Title: "already-present"}
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	got, _ := s.GetFullSeries(ctx, "s1")
	if got.Title != "already-present" {
		t.Fatalf("Hydrate must not overwrite an existing in-memory entry, got %q", got.Title)
	}
}
