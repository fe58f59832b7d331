package orchestrator

import (
	"context"

	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
)

// GetInstance fetches the single schedule occurrence of seriesID on date,
// via a one-day engine query (§6.2 getInstance).
func (o *Orchestrator) GetInstance(ctx context.Context, seriesID model.ID, date model.Date) (*model.Instance, error) {
	sched, err := o.scheduleEng.GetSchedule(ctx, date, date.AddDays(1))
	if err != nil {
		return nil, err
	}
	for i := range sched.Instances {
		if sched.Instances[i].SeriesID == seriesID && sched.Instances[i].Date == date {
			inst := sched.Instances[i]
			return &inst, nil
		}
	}
	return nil, apperr.Newf(apperr.NonExistentInstance, "no instance of series %s on %s", seriesID, date)
}

// CancelInstance writes an ExceptionCancelled override for (seriesID,
// date). Cancelling an already-cancelled instance is a no-op error per
// §8 invariant (AlreadyCancelled).
func (o *Orchestrator) CancelInstance(ctx context.Context, seriesID model.ID, date model.Date) error {
	if exc, ok := o.exceptionStore.GetForInstance(ctx, seriesID, date); ok && exc.Type == model.ExceptionCancelled {
		return apperr.Newf(apperr.AlreadyCancelled, "instance %s/%s is already cancelled", seriesID, date)
	}
	if _, err := o.GetInstance(ctx, seriesID, date); err != nil {
		return err
	}
	exc := &model.Exception{ID: o.newID(), SeriesID: seriesID, Date: date, Type: model.ExceptionCancelled}
	if err := o.exceptionStore.Create(ctx, exc); err != nil {
		return err
	}
	o.triggerReflow(ctx, model.ExceptionScope())
	return nil
}

// RescheduleInstance writes an ExceptionRescheduled override moving the
// occurrence to newTime. Rescheduling a cancelled instance is rejected
// (CancelledInstance); the target instance must exist.
func (o *Orchestrator) RescheduleInstance(ctx context.Context, seriesID model.ID, date model.Date, newTime model.DateTime) error {
	if exc, ok := o.exceptionStore.GetForInstance(ctx, seriesID, date); ok && exc.Type == model.ExceptionCancelled {
		return apperr.Newf(apperr.CancelledInstance, "instance %s/%s is cancelled", seriesID, date)
	}
	if _, err := o.GetInstance(ctx, seriesID, date); err != nil {
		return err
	}
	exc := &model.Exception{ID: o.newID(), SeriesID: seriesID, Date: date, Type: model.ExceptionRescheduled, NewTime: &newTime}
	if err := o.exceptionStore.Create(ctx, exc); err != nil {
		return err
	}
	o.triggerReflow(ctx, model.ExceptionScope())
	return nil
}

// LogCompletion records that an instance happened, then re-runs reflow so
// adaptive-duration and cycling-title state pick up the new completion.
func (o *Orchestrator) LogCompletion(ctx context.Context, c *model.Completion) (model.ID, error) {
	if c.ID == "" {
		c.ID = o.newID()
	}
	if err := o.completionStore.Log(ctx, c); err != nil {
		return "", err
	}
	o.triggerReflow(ctx, model.CompletionScope())
	return c.ID, nil
}

func (o *Orchestrator) GetCompletions(ctx context.Context, seriesID model.ID) ([]*model.Completion, error) {
	return o.completionStore.GetCompletionsBySeries(ctx, seriesID)
}

func (o *Orchestrator) DeleteCompletion(ctx context.Context, id model.ID) error {
	if err := o.completionStore.Delete(ctx, id); err != nil {
		return err
	}
	o.triggerReflow(ctx, model.CompletionScope())
	return nil
}
