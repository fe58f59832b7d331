package orchestrator

import (
	"context"

	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/reminder"
)

func (o *Orchestrator) GetSchedule(ctx context.Context, start, end model.Date) (*model.Schedule, error) {
	return o.scheduleEng.GetSchedule(ctx, start, end)
}

// GetConflicts returns the conflicts computed by the most recent
// triggerReflow, per §6.2 getConflicts.
func (o *Orchestrator) GetConflicts() []model.Conflict {
	return append([]model.Conflict(nil), o.cachedConflicts...)
}

func (o *Orchestrator) CreateReminder(ctx context.Context, r *model.Reminder) (model.ID, error) {
	if r.ID == "" {
		r.ID = o.newID()
	}
	if err := o.reminderMgr.Create(ctx, r); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (o *Orchestrator) GetPendingReminders(ctx context.Context, asOf model.DateTime) ([]reminder.Pending, error) {
	return o.reminderMgr.GetPending(ctx, asOf)
}

// CheckReminders runs GetPending and emits a reminderDue event per entry.
func (o *Orchestrator) CheckReminders(ctx context.Context, asOf model.DateTime) error {
	return o.reminderMgr.Check(ctx, asOf, func(p reminder.Pending) {
		o.emit(EventReminderDue, p)
	})
}

func (o *Orchestrator) AcknowledgeReminder(ctx context.Context, id model.ID, asOf model.DateTime) error {
	return o.reminderMgr.Acknowledge(ctx, id, asOf)
}

func (o *Orchestrator) EvaluateCondition(ctx context.Context, n *model.ConditionNode, seriesID model.ID, asOf model.Date) bool {
	return o.condEval.Evaluate(ctx, n, seriesID, asOf)
}

// GetActiveConditions returns the condition node of every pattern owned by
// seriesID that declares one and evaluates true on date — the set of
// per-pattern gates that would let that pattern's instance be built on
// that date (§4.5.2's buildInstance condition check, exposed read-only).
func (o *Orchestrator) GetActiveConditions(ctx context.Context, seriesID model.ID, date model.Date) ([]*model.ConditionNode, error) {
	s, err := o.seriesStore.GetFullSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	var active []*model.ConditionNode
	for _, p := range s.Patterns {
		if p.Condition == nil {
			continue
		}
		if o.condEval.Evaluate(ctx, p.Condition, seriesID, date) {
			active = append(active, p.Condition)
		}
	}
	return active, nil
}

// StartReminderScheduler wires a WarmupScheduler that checks reminders on
// a minute cadence and forwards due reminders as reminderDue events.
func (o *Orchestrator) StartReminderScheduler(ctx context.Context) (*reminder.WarmupScheduler, error) {
	sched := reminder.NewWarmupScheduler(o.reminderMgr, o.loc, func(p reminder.Pending) {
		o.emit(EventReminderDue, p)
	}, o.log)
	if err := sched.Start(ctx); err != nil {
		return nil, err
	}
	return sched, nil
}
