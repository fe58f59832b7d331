package orchestrator

import (
	"context"

	"github.com/dayplan/autoplanner/internal/adapter"
	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
)

// CreateSeries assigns ids to the series and its patterns, persists, and
// triggers a reflow scoped to the new series.
func (o *Orchestrator) CreateSeries(ctx context.Context, s *model.Series) (model.ID, error) {
	if s.ID == "" {
		s.ID = o.newID()
	}
	for _, p := range s.Patterns {
		if p.ID == "" {
			p.ID = o.newID()
		}
	}
	if err := o.seriesStore.Create(ctx, s); err != nil {
		return "", err
	}
	if err := o.condEval.RebuildIndex(ctx); err != nil {
		return "", err
	}
	o.triggerReflow(ctx, model.SeriesScope(s.ID))
	return s.ID, nil
}

func (o *Orchestrator) GetSeries(ctx context.Context, id model.ID) (*model.Series, error) {
	return o.seriesStore.GetFullSeries(ctx, id)
}

func (o *Orchestrator) GetAllSeries(ctx context.Context) ([]*model.Series, error) {
	return o.seriesStore.GetAllSeries(ctx)
}

func (o *Orchestrator) GetSeriesByTag(ctx context.Context, tag string) ([]*model.Series, error) {
	return o.seriesStore.GetSeriesByTag(ctx, tag)
}

func (o *Orchestrator) UpdateSeries(ctx context.Context, id model.ID, fields adapter.SeriesFields) error {
	if err := o.seriesStore.Update(ctx, id, fields); err != nil {
		return err
	}
	o.triggerReflow(ctx, model.SeriesScope(id))
	return nil
}

func (o *Orchestrator) Lock(ctx context.Context, id model.ID) error {
	locked := true
	return o.UpdateSeries(ctx, id, adapter.SeriesFields{Locked: &locked})
}

func (o *Orchestrator) Unlock(ctx context.Context, id model.ID) error {
	locked := false
	return o.UpdateSeries(ctx, id, adapter.SeriesFields{Locked: &locked})
}

// DeleteSeries enforces the delete preconditions in §8 invariant 13:
// refuses if any completion references the series, or if it is linked as
// a parent.
func (o *Orchestrator) DeleteSeries(ctx context.Context, id model.ID) error {
	if o.completionStore.HasAnyForSeries(ctx, id) {
		return apperr.Newf(apperr.CompletionsExist, "series %s has logged completions", id)
	}
	if o.linkStore.HasAsParent(ctx, id) {
		return apperr.Newf(apperr.LinkedChildrenExist, "series %s is linked as a parent", id)
	}
	if err := o.seriesStore.Delete(ctx, id); err != nil {
		return err
	}
	if err := o.condEval.RebuildIndex(ctx); err != nil {
		return err
	}
	o.triggerReflow(ctx, model.GlobalScope())
	return nil
}

// SplitSeries implements §4.8's split operation.
func (o *Orchestrator) SplitSeries(ctx context.Context, id model.ID, splitDate model.Date) (model.ID, error) {
	orig, err := o.seriesStore.GetFullSeries(ctx, id)
	if err != nil {
		return "", err
	}

	newSeries := orig.Clone()
	newSeries.ID = o.newID()
	newSeries.StartDate = &splitDate
	newSeries.EndDate = orig.EndDate
	for _, p := range newSeries.Patterns {
		p.ID = o.newID()
	}
	if err := o.seriesStore.Create(ctx, newSeries); err != nil {
		return "", err
	}

	if err := o.seriesStore.Update(ctx, id, adapter.SeriesFields{EndDate: &splitDate}); err != nil {
		return "", err
	}

	if err := o.mirrorConstraintsForSplit(ctx, id, newSeries.ID); err != nil {
		return "", err
	}
	if err := o.chainResolver.CopyForSplit(ctx, id, newSeries.ID); err != nil {
		return "", err
	}
	if err := o.condEval.RebuildIndex(ctx); err != nil {
		return "", err
	}

	o.triggerReflow(ctx, model.GlobalScope())
	return newSeries.ID, nil
}

// mirrorConstraintsForSplit duplicates any constraint naming origID by a
// concrete series id (not a tag — tags already cover the new series via
// its cloned Tags) so the new series inherits the same relational rules.
func (o *Orchestrator) mirrorConstraintsForSplit(ctx context.Context, origID, newID model.ID) error {
	all, err := o.constraintStore.GetAllConstraints(ctx)
	if err != nil {
		return err
	}
	for _, c := range all {
		mirrored := *c
		changed := false
		switch c.Type {
		case model.MustBeBefore:
			if c.FirstSeries == origID {
				mirrored.FirstSeries = newID
				changed = true
			}
			if c.SecondSeries == origID {
				mirrored.SecondSeries = newID
				changed = true
			}
		case model.CantBeNextTo:
			if c.Target.Kind == model.TargetSeries && c.Target.SeriesID == origID {
				mirrored.Target = model.SeriesTarget(newID)
				changed = true
			}
		case model.MustBeOnSameDay:
			if c.FirstSeries == origID {
				mirrored.FirstSeries = newID
				changed = true
			}
			if c.SecondTarget.Kind == model.TargetSeries && c.SecondTarget.SeriesID == origID {
				mirrored.SecondTarget = model.SeriesTarget(newID)
				changed = true
			}
		}
		if !changed {
			continue
		}
		mirrored.ID = o.newID()
		if err := o.constraintStore.Create(ctx, &mirrored); err != nil {
			return err
		}
	}
	return nil
}

// LinkSeries creates a parent->child chain link and triggers a link-scoped
// reflow.
func (o *Orchestrator) LinkSeries(ctx context.Context, parentID, childID model.ID, distance, earlyWobble, lateWobble int) (*model.Link, error) {
	l, err := o.chainResolver.Link(ctx, parentID, childID, distance, earlyWobble, lateWobble)
	if err != nil {
		return nil, err
	}
	o.triggerReflow(ctx, model.LinkScope())
	return l, nil
}

func (o *Orchestrator) UnlinkSeries(ctx context.Context, childID model.ID) error {
	if err := o.chainResolver.Unlink(ctx, childID); err != nil {
		return err
	}
	o.triggerReflow(ctx, model.LinkScope())
	return nil
}

func (o *Orchestrator) GetChainDepth(ctx context.Context, id model.ID) (int, error) {
	return o.chainResolver.GetChainDepth(ctx, id)
}

func (o *Orchestrator) AddConstraint(ctx context.Context, c *model.Constraint) (model.ID, error) {
	if c.ID == "" {
		c.ID = o.newID()
	}
	if err := o.constraintStore.Create(ctx, c); err != nil {
		return "", err
	}
	o.triggerReflow(ctx, model.ConstraintScope())
	return c.ID, nil
}

func (o *Orchestrator) RemoveConstraint(ctx context.Context, id model.ID) error {
	if err := o.constraintStore.Delete(ctx, id); err != nil {
		return err
	}
	o.triggerReflow(ctx, model.ConstraintScope())
	return nil
}

func (o *Orchestrator) GetConstraints(ctx context.Context) ([]*model.Constraint, error) {
	return o.constraintStore.GetAllConstraints(ctx)
}
