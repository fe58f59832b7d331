package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/dayplan/autoplanner/internal/adapter/memory"
	"github.com/dayplan/autoplanner/internal/condition"
	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *store.SeriesStore, *store.ReminderStore, *store.ExceptionStore) {
	t.Helper()
	a := memory.New()
	seriesStore := store.NewSeriesStore(a)
	completionStore := store.NewCompletionStore(a)
	exceptionStore := store.NewExceptionStore(a)
	reminderStore := store.NewReminderStore(a)
	condEval := condition.New(seriesStore, completionStore)
	return New(reminderStore, seriesStore, completionStore, exceptionStore, condEval, time.UTC), seriesStore, reminderStore, exceptionStore
}

func TestGetPendingFiresAfterOffset(t *testing.T) {
	m, seriesStore, reminderStore, _ := newTestManager(t)
	ctx := context.Background()
	tm := model.Time("09:00:00")
	if err := seriesStore.Create(ctx, &model.Series{
		ID: "s1", Title: "S1",
		Patterns: []*model.Pattern{{Kind: model.Daily, Time: &tm, Duration: 30}},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := reminderStore.Create(ctx, &model.Reminder{ID: "r1", SeriesID: "s1", OffsetMinutes: 15}); err != nil {
		t.Fatalf("Create reminder: %v", err)
	}

	before := model.DateTime("2026-07-29T08:40:00") // fireTime is 08:45
	pending, err := m.GetPending(ctx, before)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending reminders before fire time, got %+v", pending)
	}

	atFire := model.DateTime("2026-07-29T08:45:00")
	pending, err = m.GetPending(ctx, atFire)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) == 0 {
		t.Fatalf("expected a pending reminder at/after fire time")
	}
}

func TestAcknowledgeSuppressesFuturePending(t *testing.T) {
	m, seriesStore, reminderStore, _ := newTestManager(t)
	ctx := context.Background()
	tm := model.Time("09:00:00")
	if err := seriesStore.Create(ctx, &model.Series{
		ID: "s1", Title: "S1",
		Patterns: []*model.Pattern{{Kind: model.Daily, Time: &tm, Duration: 30}},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := reminderStore.Create(ctx, &model.Reminder{ID: "r1", SeriesID: "s1", OffsetMinutes: 15}); err != nil {
		t.Fatalf("Create reminder: %v", err)
	}

	asOf := model.DateTime("2026-07-29T09:00:00")
	pending, err := m.GetPending(ctx, asOf)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) == 0 {
		t.Fatalf("expected a pending reminder")
	}

	if err := m.Acknowledge(ctx, "r1", asOf); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}

	pending, err = m.GetPending(ctx, asOf)
	if err != nil {
		t.Fatalf("GetPending after ack: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending reminders after acknowledgement, got %+v", pending)
	}
}

func TestCheckEmitsPendingEntries(t *testing.T) {
	m, seriesStore, reminderStore, _ := newTestManager(t)
	ctx := context.Background()
	tm := model.Time("09:00:00")
	if err := seriesStore.Create(ctx, &model.Series{
		ID: "s1", Title: "S1",
		Patterns: []*model.Pattern{{Kind: model.Daily, Time: &tm, Duration: 30}},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := reminderStore.Create(ctx, &model.Reminder{ID: "r1", SeriesID: "s1", OffsetMinutes: 0}); err != nil {
		t.Fatalf("Create reminder: %v", err)
	}

	var emitted []Pending
	err := m.Check(ctx, "2026-07-29T09:00:00", func(p Pending) { emitted = append(emitted, p) })
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(emitted) == 0 {
		t.Fatalf("expected Check to emit at least one pending reminder")
	}
}

func TestGetPendingSkipsCancelledInstance(t *testing.T) {
	m, seriesStore, reminderStore, exceptionStore := newTestManager(t)
	ctx := context.Background()
	tm := model.Time("09:00:00")
	if err := seriesStore.Create(ctx, &model.Series{
		ID: "s1", Title: "S1",
		Patterns: []*model.Pattern{{Kind: model.Daily, Time: &tm, Duration: 30}},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := reminderStore.Create(ctx, &model.Reminder{ID: "r1", SeriesID: "s1", OffsetMinutes: 15}); err != nil {
		t.Fatalf("Create reminder: %v", err)
	}

	asOf := model.DateTime("2026-07-29T09:00:00")
	if err := exceptionStore.Create(ctx, &model.Exception{ID: "e1", SeriesID: "s1", Date: asOf.Date(), Type: model.ExceptionCancelled}); err != nil {
		t.Fatalf("Create exception: %v", err)
	}

	pending, err := m.GetPending(ctx, asOf)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected a cancelled instance's reminder to be skipped, got %+v", pending)
	}
}
