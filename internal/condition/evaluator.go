// Package condition implements the compositional boolean-tree evaluator
// over completion statistics and weekdays (§4.3), plus the reverse
// dependency index used to determine which series become dirty when
// another series' completions change.
package condition

import (
	"context"
	"sync"

	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/store"
)

// Evaluator evaluates condition trees and maintains the series->dependents
// reverse index.
type Evaluator struct {
	series     store.SeriesReader
	completion store.CompletionReader

	mu    sync.RWMutex
	index map[model.ID]map[model.ID]struct{} // X -> set of S that reference X
}

func New(series store.SeriesReader, completion store.CompletionReader) *Evaluator {
	return &Evaluator{
		series:     series,
		completion: completion,
		index:      make(map[model.ID]map[model.ID]struct{}),
	}
}

// RebuildIndex walks every series' patterns and records, for each
// completionCount node with seriesRef != self inside series S, an edge
// X -> S. Called on any series create/update/delete (§4.3).
func (e *Evaluator) RebuildIndex(ctx context.Context) error {
	all, err := e.series.GetAllSeries(ctx)
	if err != nil {
		return err
	}
	newIndex := make(map[model.ID]map[model.ID]struct{})
	for _, s := range all {
		for _, p := range s.Patterns {
			walkConditionRefs(p.Condition, func(x model.ID) {
				set, ok := newIndex[x]
				if !ok {
					set = make(map[model.ID]struct{})
					newIndex[x] = set
				}
				set[s.ID] = struct{}{}
			})
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = newIndex
	return nil
}

func walkConditionRefs(n *model.ConditionNode, record func(model.ID)) {
	if n == nil {
		return
	}
	switch n.Kind {
	case model.CondCompletionCount:
		if n.SeriesRef.Kind == model.SeriesRefOther {
			record(n.SeriesRef.ID)
		}
	case model.CondAnd, model.CondOr:
		for _, c := range n.Children {
			walkConditionRefs(c, record)
		}
	case model.CondNot:
		if len(n.Children) > 0 {
			walkConditionRefs(n.Children[0], record)
		}
	}
}

// Dependents returns the set of series ids whose conditions reference
// seriesID via a completionCount node.
func (e *Evaluator) Dependents(seriesID model.ID) []model.ID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	set, ok := e.index[seriesID]
	if !ok {
		return nil
	}
	out := make([]model.ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Evaluate evaluates a condition tree for seriesID as of asOfDate.
// Unknown node kinds evaluate to true — a deliberate forward-compatibility
// default (§4.3, §9 "Sum types over duck typing"); do not rely on this in
// new code.
func (e *Evaluator) Evaluate(ctx context.Context, n *model.ConditionNode, seriesID model.ID, asOf model.Date) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case model.CondWeekday:
		return n.Weekdays[asOf.Weekday()]
	case model.CondCompletionCount:
		return e.evaluateCompletionCount(ctx, n, seriesID, asOf)
	case model.CondAnd:
		for _, c := range n.Children {
			if !e.Evaluate(ctx, c, seriesID, asOf) {
				return false
			}
		}
		return true
	case model.CondOr:
		for _, c := range n.Children {
			if e.Evaluate(ctx, c, seriesID, asOf) {
				return true
			}
		}
		return false
	case model.CondNot:
		if len(n.Children) == 0 {
			return true
		}
		return !e.Evaluate(ctx, n.Children[0], seriesID, asOf)
	default:
		return true
	}
}

func (e *Evaluator) evaluateCompletionCount(ctx context.Context, n *model.ConditionNode, seriesID model.ID, asOf model.Date) bool {
	target := seriesID
	if n.SeriesRef.Kind == model.SeriesRefOther {
		target = n.SeriesRef.ID
	}

	anchor := asOf
	if n.SeriesRef.Kind == model.SeriesRefOther {
		if last, ok := e.completion.LastCompletionDate(ctx, target); ok {
			if absDays(last, asOf) <= 2*n.WindowDays {
				anchor = last
			}
		}
	}

	windowStart := anchor.AddDays(-(n.WindowDays - 1))
	count := e.completion.CountInWindow(ctx, target, windowStart, anchor)

	switch n.Comparison {
	case model.CmpLess:
		return count < n.Value
	case model.CmpLessEq:
		return count <= n.Value
	case model.CmpEq:
		return count == n.Value
	case model.CmpGreaterEq:
		return count >= n.Value
	case model.CmpGreater:
		return count > n.Value
	default:
		return true
	}
}

func absDays(a, b model.Date) int {
	d := int(a.DaysSinceEpoch() - b.DaysSinceEpoch())
	if d < 0 {
		return -d
	}
	return d
}
