// Package chain implements link creation (with cycle/depth checking) and
// parent effective end-time resolution (§4.4).
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/store"
	"github.com/dayplan/autoplanner/internal/temporal"
)

// IDGenerator mints new entity ids; supplied by the caller (e.g. the
// orchestrator, backed by the adapter's id generation).
type IDGenerator func() model.ID

// Resolver implements link/chain operations over a LinkStore.
type Resolver struct {
	links   *store.LinkStore
	newID   IDGenerator
}

func New(links *store.LinkStore, newID IDGenerator) *Resolver {
	return &Resolver{links: links, newID: newID}
}

// Link creates parent->child, rejecting an already-linked child, a cycle,
// or a resulting depth beyond model.MaxChainDepth (§4.4).
func (r *Resolver) Link(ctx context.Context, parentID, childID model.ID, distance, earlyWobble, lateWobble int) (*model.Link, error) {
	if _, ok := r.links.GetByChild(ctx, childID); ok {
		return nil, apperr.Newf(apperr.Validation, "child %s already has a parent link", childID)
	}

	cur := parentID
	for i := 0; i < model.MaxChainDepth+1; i++ {
		if cur == childID {
			return nil, apperr.Newf(apperr.CycleDetected, "linking %s under %s would form a cycle", childID, parentID)
		}
		l, ok := r.links.GetByChild(ctx, cur)
		if !ok {
			break
		}
		cur = l.ParentID
	}

	parentDepth, err := r.GetChainDepth(ctx, parentID)
	if err != nil {
		return nil, err
	}
	newDepth := parentDepth + 1
	if newDepth > model.MaxChainDepth {
		return nil, apperr.Newf(apperr.ChainDepthExceeded, "link would exceed max chain depth of %d", model.MaxChainDepth)
	}

	l := &model.Link{
		ID:                 r.newID(),
		ParentID:           parentID,
		ChildID:            childID,
		DistanceMinutes:    distance,
		EarlyWobbleMinutes: earlyWobble,
		LateWobbleMinutes:  lateWobble,
	}
	if err := r.links.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Unlink removes the link pointing at childID. Idempotent.
func (r *Resolver) Unlink(ctx context.Context, childID model.ID) error {
	return r.links.Unlink(ctx, childID)
}

// GetChainDepth walks child->parent pointers, capping traversal at 33
// iterations as a belt-and-braces guard against a cyclic hydration
// anomaly (§4.4, §9).
func (r *Resolver) GetChainDepth(ctx context.Context, id model.ID) (int, error) {
	depth := 0
	cur := id
	for i := 0; i < 33; i++ {
		l, ok := r.links.GetByChild(ctx, cur)
		if !ok {
			return depth, nil
		}
		depth++
		cur = l.ParentID
	}
	return 0, fmt.Errorf("chain: depth traversal for %s exceeded 33 hops; possible corrupt cycle", id)
}

// CopyForSplit mirrors origID's incoming link (if any) to newID, used by
// splitSeries (§4.4, §4.8).
func (r *Resolver) CopyForSplit(ctx context.Context, origID, newID model.ID) error {
	l, ok := r.links.GetByChild(ctx, origID)
	if !ok {
		return nil
	}
	mirrored := &model.Link{
		ID:                 r.newID(),
		ParentID:           l.ParentID,
		ChildID:            newID,
		DistanceMinutes:    l.DistanceMinutes,
		EarlyWobbleMinutes: l.EarlyWobbleMinutes,
		LateWobbleMinutes:  l.LateWobbleMinutes,
	}
	return r.links.Create(ctx, mirrored)
}

// ParentEndTimeInput carries the date-specific facts the engine already
// knows about the parent instance being resolved.
type ParentEndTimeInput struct {
	Date Date

	// Completion, if non-nil, is the parent's completion for Date.
	Completion *model.Completion

	// Exception, if non-nil, is the parent's exception for Date.
	Exception *model.Exception

	// ChainEnd, if non-nil, is a previously-computed end time for the
	// parent on Date supplied by the engine for topo-sorted siblings.
	ChainEnd *model.DateTime

	// PatternTime is the parent pattern's time-of-day for Date, when the
	// pattern is non-allDay and carries an explicit or default time.
	PatternTime *model.Time

	// Duration is the parent's pattern-declared duration in minutes,
	// used whenever the end time must be derived rather than read
	// directly off a completion.
	Duration int

	Location *time.Location
}

type Date = model.Date

// GetParentEndTime computes the parent's effective end-time on Date,
// following the precedence in §4.4: completion end-time, then rescheduled
// exception + duration, then a supplied chain end, then the pattern's
// resolved time + duration.
func GetParentEndTime(in ParentEndTimeInput) (*model.DateTime, error) {
	if in.Completion != nil && in.Completion.EndTime != nil {
		dt := model.DateTime(temporal.MakeDateTime(in.Date, *in.Completion.EndTime))
		return &dt, nil
	}

	if in.Exception != nil && in.Exception.Type == model.ExceptionRescheduled && in.Exception.NewTime != nil {
		end := in.Exception.NewTime.AddMinutes(in.Duration, in.Location)
		return &end, nil
	}

	if in.ChainEnd != nil {
		end := *in.ChainEnd
		return &end, nil
	}

	if in.PatternTime != nil {
		resolved, err := temporal.ResolveLocal(in.Date, *in.PatternTime, in.Location)
		if err != nil {
			return nil, err
		}
		start := model.DateTime(resolved.Format(temporal.DateTimeLayout))
		end := start.AddMinutes(in.Duration, in.Location)
		return &end, nil
	}

	return nil, nil
}
