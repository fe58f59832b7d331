// Package engine implements the schedule engine: buildSchedule's ordered
// stages (§4.5.2), per-day CSP reflow (§4.5.3), adaptive duration (§4.5.4),
// cycling titles (§4.5.5), and conflict detection (§4.5.6), composed over
// the store readers and the three caches (§4.6).
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/cache"
	"github.com/dayplan/autoplanner/internal/chain"
	"github.com/dayplan/autoplanner/internal/condition"
	"github.com/dayplan/autoplanner/internal/csp"
	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/store"
	"github.com/dayplan/autoplanner/internal/temporal"
)

// WakingStart and WakingEnd bound the waking window used by reflow's
// fixed/flexible classification (§4.5.3).
const (
	WakingStart = "07:00:00"
	WakingEnd   = "23:00:00"

	defaultTime = "09:00:00"
)

// Engine composes the store readers, the condition evaluator, the chain
// resolver, a CSP solver, and the three caches into buildSchedule.
type Engine struct {
	series     store.SeriesReader
	completion store.CompletionReader
	exception  store.ExceptionReader
	link       store.LinkReader
	constraint store.ConstraintReader

	cond  *condition.Evaluator
	chain *chain.Resolver
	solver csp.Solver

	patternCache  *cache.PatternDateCache
	scheduleCache *cache.ScheduleCache
	cspCache      *cache.CSPCache

	loc *time.Location
}

// Deps bundles an Engine's collaborators for construction.
type Deps struct {
	Series     store.SeriesReader
	Completion store.CompletionReader
	Exception  store.ExceptionReader
	Link       store.LinkReader
	Constraint store.ConstraintReader
	Condition  *condition.Evaluator
	Chain      *chain.Resolver
	Solver     csp.Solver
	Location   *time.Location
}

func New(d Deps) *Engine {
	solver := d.Solver
	if solver == nil {
		solver = csp.NewDefaultSolver()
	}
	return &Engine{
		series:        d.Series,
		completion:    d.Completion,
		exception:     d.Exception,
		link:          d.Link,
		constraint:    d.Constraint,
		cond:          d.Condition,
		chain:         d.Chain,
		solver:        solver,
		patternCache:  cache.NewPatternDateCache(),
		scheduleCache: cache.NewScheduleCache(256),
		cspCache:      cache.NewCSPCache(4096),
		loc:           d.Location,
	}
}

// Invalidate applies scope to the pattern-date cache (selectively) and
// always bumps/clears the schedule-result cache (§4.6).
func (e *Engine) Invalidate(scope model.InvalidationScope) {
	switch scope.Kind {
	case model.ScopeSeries:
		e.patternCache.EvictSeries(scope.SeriesID)
	case model.ScopeGlobal:
		e.patternCache.Clear()
	case model.ScopeLink, model.ScopeConstraint, model.ScopeException, model.ScopeCompletion:
		// pattern dates are independent of these inputs; no eviction.
	}
	e.scheduleCache.Invalidate()
}

// Stats reports the hit/miss counters required for testing (§4.6, §6.2
// getCacheStats).
func (e *Engine) Stats() cache.Stats {
	ph, pm := e.patternCache.Stats()
	ch, cm := e.cspCache.Stats()
	return cache.Stats{
		PatternHits: ph, PatternMisses: pm,
		CSPHits: ch, CSPMisses: cm,
		Generation: e.scheduleCache.Generation(),
	}
}

// GetSchedule is §4.5.1: end exclusive, end==start empty, end<start an
// error, cache-consulted by (start,end)+generation.
func (e *Engine) GetSchedule(ctx context.Context, start, end model.Date) (*model.Schedule, error) {
	if end.Before(start) {
		return nil, apperr.Newf(apperr.Validation, "getSchedule: end %s is before start %s", end, start)
	}
	if end == start {
		return &model.Schedule{Start: start, End: end}, nil
	}

	key := cache.ScheduleKey{Start: start, End: end}
	if sched, ok := e.scheduleCache.Get(key); ok {
		return sched, nil
	}

	sched, err := e.buildSchedule(ctx, start, end)
	if err != nil {
		return nil, err
	}
	e.scheduleCache.Put(key, sched)
	return sched.Clone(), nil
}

func minutesOfDay(t model.Time) int {
	if len(t) < 8 {
		return 0
	}
	h := int(t[0]-'0')*10 + int(t[1]-'0')
	m := int(t[3]-'0')*10 + int(t[4]-'0')
	return h*60 + m
}

func timeFromMinutes(m int) model.Time {
	if m < 0 {
		m = 0
	}
	h := (m / 60) % 24
	mi := m % 60
	return model.Time(fmt.Sprintf("%02d:%02d:00", h, mi))
}

// resolveLocal resolves d+t to an absolute instant in loc (handling DST
// gaps per temporal.ResolveLocal) and renders it back as a local DateTime.
func resolveLocal(d model.Date, t model.Time, loc *time.Location) (model.DateTime, error) {
	resolved, err := temporal.ResolveLocal(d, t, loc)
	if err != nil {
		return "", err
	}
	return model.DateTime(resolved.Format(temporal.DateTimeLayout)), nil
}
