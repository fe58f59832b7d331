package store

import (
	"context"
	"testing"

	"github.com/dayplan/autoplanner/internal/adapter/memory"
	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
)

func newTestCompletionStore() *CompletionStore {
	return NewCompletionStore(memory.New())
}

func TestCompletionLogRejectsDuplicate(t *testing.T) {
	s := newTestCompletionStore()
	ctx := context.Background()
	if err := s.Log(ctx, &model.Completion{ID: "c1", SeriesID: "s1", Date: "2026-07-29"}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	err := s.Log(ctx, &model.Completion{ID: "c2", SeriesID: "s1", Date: "2026-07-29"})
	if !apperr.Is(err, apperr.Duplicate) {
		t.Fatalf("expected Duplicate for a second completion on the same date, got %v", err)
	}
}

func TestCompletionFirstAndLastCompletionDate(t *testing.T) {
	s := newTestCompletionStore()
	ctx := context.Background()
	for _, d := range []model.Date{"2026-07-20", "2026-07-10", "2026-07-25"} {
		if err := s.Log(ctx, &model.Completion{ID: "c-" + string(d), SeriesID: "s1", Date: d}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	first, ok := s.FirstCompletionDate(ctx, "s1")
	if !ok || first != "2026-07-10" {
		t.Fatalf("FirstCompletionDate = %v, %v; want 2026-07-10, true", first, ok)
	}
	last, ok := s.LastCompletionDate(ctx, "s1")
	if !ok || last != "2026-07-25" {
		t.Fatalf("LastCompletionDate = %v, %v; want 2026-07-25, true", last, ok)
	}
}

func TestCompletionCountInWindowIsInclusive(t *testing.T) {
	s := newTestCompletionStore()
	ctx := context.Background()
	for _, d := range []model.Date{"2026-07-10", "2026-07-15", "2026-07-20"} {
		if err := s.Log(ctx, &model.Completion{ID: "c-" + string(d), SeriesID: "s1", Date: d}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	count := s.CountInWindow(ctx, "s1", "2026-07-10", "2026-07-15")
	if count != 2 {
		t.Fatalf("CountInWindow(10..15) = %d, want 2", count)
	}
}

func TestCompletionDeleteRemovesFromIndex(t *testing.T) {
	s := newTestCompletionStore()
	ctx := context.Background()
	if err := s.Log(ctx, &model.Completion{ID: "c1", SeriesID: "s1", Date: "2026-07-29"}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := s.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.HasAnyForSeries(ctx, "s1") {
		t.Fatalf("expected no completions for s1 after delete")
	}
	if err := s.Delete(ctx, "c1"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound deleting an already-deleted completion, got %v", err)
	}
}

func TestCompletionOrderedByDate(t *testing.T) {
	s := newTestCompletionStore()
	ctx := context.Background()
	for _, d := range []model.Date{"2026-07-25", "2026-07-10", "2026-07-20"} {
		if err := s.Log(ctx, &model.Completion{ID: "c-" + string(d), SeriesID: "s1", Date: d}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	ordered := s.OrderedByDate(ctx, "s1")
	want := []model.Date{"2026-07-10", "2026-07-20", "2026-07-25"}
	if len(ordered) != len(want) {
		t.Fatalf("got %d completions, want %d", len(ordered), len(want))
	}
	for i, d := range want {
		if ordered[i].Date != d {
			t.Fatalf("ordered[%d].Date = %v, want %v", i, ordered[i].Date, d)
		}
	}
}
