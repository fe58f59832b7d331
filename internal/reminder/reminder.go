// Package reminder implements the reminder manager (§4.7): pending
// computation over a series' today/tomorrow occurrences, acknowledgement,
// and a cron-driven warm-up loop adapted from the teacher's
// ScheduledJobScheduler ticker pattern.
package reminder

import (
	"context"
	"time"

	"github.com/dayplan/autoplanner/internal/condition"
	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/pattern"
	"github.com/dayplan/autoplanner/internal/store"
	"github.com/dayplan/autoplanner/internal/temporal"
)

// Pending is one due-or-overdue reminder occurrence.
type Pending struct {
	ReminderID model.ID
	SeriesID   model.ID
	Date       model.Date
	FireTime   model.DateTime
}

// Manager implements getPending/acknowledge/check over a ReminderStore
// (mutation requires the concrete store; readers alone can't acknowledge).
type Manager struct {
	reminders  *store.ReminderStore
	series     store.SeriesReader
	completion store.CompletionReader
	exception  store.ExceptionReader
	cond       *condition.Evaluator
	loc        *time.Location
}

func New(reminders *store.ReminderStore, series store.SeriesReader, completion store.CompletionReader, exception store.ExceptionReader, cond *condition.Evaluator, loc *time.Location) *Manager {
	return &Manager{reminders: reminders, series: series, completion: completion, exception: exception, cond: cond, loc: loc}
}

// Create persists a new reminder via the store (orchestrator calls this
// after minting an id and writing through the adapter).
func (m *Manager) Create(ctx context.Context, r *model.Reminder) error {
	return m.reminders.Create(ctx, r)
}

// GetPending implements §4.7's getPending(asOf): for each reminder, its
// series' occurrences on [date(asOf), date(asOf)+1] are considered;
// cancelled or already-completed dates are skipped, and a pending entry
// is emitted only when its fire time has arrived and it is unacknowledged.
func (m *Manager) GetPending(ctx context.Context, asOf model.DateTime) ([]Pending, error) {
	all, err := m.reminders.GetAllReminders(ctx)
	if err != nil {
		return nil, err
	}

	today := asOf.Date()
	window := []model.Date{today, today.AddDays(1)}

	var out []Pending
	for _, r := range all {
		s, err := m.series.GetFullSeries(ctx, r.SeriesID)
		if err != nil {
			continue
		}
		for _, d := range window {
			if exc, ok := m.exception.GetForInstance(ctx, r.SeriesID, d); ok && exc.Type == model.ExceptionCancelled {
				continue
			}
			if _, ok := m.completion.GetForDate(ctx, r.SeriesID, d); ok {
				continue
			}
			instTime, ok, err := m.resolveInstanceTime(ctx, s, d)
			if err != nil || !ok {
				continue
			}
			fireTime := instTime.AddMinutes(-r.OffsetMinutes, m.loc)
			if fireTime > asOf {
				continue
			}
			if m.reminders.IsAcknowledged(ctx, d, r.ID) {
				continue
			}
			out = append(out, Pending{ReminderID: r.ID, SeriesID: r.SeriesID, Date: d, FireTime: fireTime})
		}
	}
	return out, nil
}

// Acknowledge records an acknowledgement for every candidate date in
// [date(asOf)-1, date(asOf)+1], matching getPending's and yesterday's
// trailing-edge window (§4.7).
func (m *Manager) Acknowledge(ctx context.Context, id model.ID, asOf model.DateTime) error {
	today := asOf.Date()
	for _, d := range []model.Date{today.AddDays(-1), today, today.AddDays(1)} {
		if err := m.reminders.Acknowledge(ctx, id, d, asOf); err != nil {
			return err
		}
	}
	return nil
}

// Check is equivalent to GetPending followed by emitting each entry
// through the caller-supplied callback (the orchestrator's reminderDue
// event), per §4.7.
func (m *Manager) Check(ctx context.Context, asOf model.DateTime, emit func(Pending)) error {
	pending, err := m.GetPending(ctx, asOf)
	if err != nil {
		return err
	}
	for _, p := range pending {
		emit(p)
	}
	return nil
}

// resolveInstanceTime computes the time an occurrence of s on d would
// have, per the rescheduled-exception / allDay / pattern-time precedence
// in §4.7 (deliberately independent of chain adjustment, which the engine
// alone applies).
func (m *Manager) resolveInstanceTime(ctx context.Context, s *model.Series, d model.Date) (model.DateTime, bool, error) {
	if s.StartDate != nil && d.Before(*s.StartDate) {
		return "", false, nil
	}
	if s.EndDate != nil && !d.Before(*s.EndDate) {
		return "", false, nil
	}

	if exc, ok := m.exception.GetForInstance(ctx, s.ID, d); ok && exc.Type == model.ExceptionRescheduled && exc.NewTime != nil {
		return *exc.NewTime, true, nil
	}

	seriesStart := model.Date("")
	if s.StartDate != nil {
		seriesStart = *s.StartDate
	}

	for _, p := range s.Patterns {
		dates, err := pattern.Expand(p, d, d.AddDays(1), seriesStart)
		if err != nil {
			return "", false, err
		}
		if len(dates) == 0 {
			continue
		}
		if !m.cond.Evaluate(ctx, p.Condition, s.ID, d) {
			continue
		}
		if p.AllDay {
			return model.DateTime(temporal.MakeDateTime(d, "00:00:00")), true, nil
		}
		t := model.Time("09:00:00")
		if p.Time != nil {
			t = *p.Time
		}
		resolved, err := temporal.ResolveLocal(d, t, m.loc)
		if err != nil {
			return "", false, err
		}
		return model.DateTime(resolved.Format(temporal.DateTimeLayout)), true, nil
	}
	return "", false, nil
}
