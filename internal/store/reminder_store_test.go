package store

import (
	"context"
	"testing"

	"github.com/dayplan/autoplanner/internal/adapter/memory"
	"github.com/dayplan/autoplanner/internal/model"
)

func newTestReminderStore() *ReminderStore {
	return NewReminderStore(memory.New())
}

func TestReminderCreateAndGetBySeries(t *testing.T) {
	s := newTestReminderStore()
	ctx := context.Background()
	if err := s.Create(ctx, &model.Reminder{ID: "r1", SeriesID: "s1", OffsetMinutes: 10}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, &model.Reminder{ID: "r2", SeriesID: "s1", OffsetMinutes: 30}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got := s.GetBySeries(ctx, "s1")
	if len(got) != 2 {
		t.Fatalf("expected 2 reminders for s1, got %d", len(got))
	}
}

func TestReminderAcknowledgeIsPerDate(t *testing.T) {
	s := newTestReminderStore()
	ctx := context.Background()
	if err := s.Create(ctx, &model.Reminder{ID: "r1", SeriesID: "s1", OffsetMinutes: 10}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	asOf := model.DateTime("2026-07-29T09:00:00")
	if err := s.Acknowledge(ctx, "r1", "2026-07-29", asOf); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if !s.IsAcknowledged(ctx, "2026-07-29", "r1") {
		t.Fatalf("expected r1 acknowledged for 2026-07-29")
	}
	if s.IsAcknowledged(ctx, "2026-07-30", "r1") {
		t.Fatalf("expected r1 unacknowledged for a different date")
	}
}
