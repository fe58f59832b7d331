package engine

import (
	"context"
	"sort"

	"github.com/dayplan/autoplanner/internal/cache"
	"github.com/dayplan/autoplanner/internal/chain"
	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/pattern"
)

// work is the engine's in-progress view of one instance, carrying the
// pattern-level fixed flag alongside the public model.Instance so reflow
// can fold it into Instance.Fixed without the model needing to know about
// patterns.
type work struct {
	inst         model.Instance
	patternFixed bool
}

// buildSchedule implements §4.5.2's eight ordered stages.
func (e *Engine) buildSchedule(ctx context.Context, start, end model.Date) (*model.Schedule, error) {
	// 1. Collect.
	all, err := e.series.GetAllSeries(ctx)
	if err != nil {
		return nil, err
	}
	seriesByID := make(map[model.ID]*model.Series, len(all))
	for _, s := range all {
		seriesByID[s.ID] = s
	}
	constraints, err := e.constraint.GetAllConstraints(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Candidate date sets, per series per pattern.
	type candidateSet struct {
		series       *model.Series
		patternDates [][]model.Date // parallel to series.Patterns
		union        map[model.Date]struct{}
	}
	candidates := make(map[model.ID]*candidateSet, len(all))
	for _, s := range all {
		cs := &candidateSet{series: s, patternDates: make([][]model.Date, len(s.Patterns)), union: make(map[model.Date]struct{})}
		seriesStart := model.Date("")
		if s.StartDate != nil {
			seriesStart = *s.StartDate
		}
		for pIdx, p := range s.Patterns {
			effectivePattern := p
			anchor := p.Anchor()
			if p.Kind == model.Weekly && p.WeeklyAnchor == nil {
				if first, ok := e.completion.FirstCompletionDate(ctx, s.ID); ok {
					effectivePattern = p.WithRuntimeAnchor(&first)
					anchor = &first
				}
			}
			key := cache.PatternDateKey{
				SeriesID:   s.ID,
				PatternIdx: pIdx,
				Start:      start,
				End:        end,
				Anchor:     cache.DedupeAnchor(anchor),
			}
			dates, ok := e.patternCache.Get(key)
			if !ok {
				dates, err = pattern.Expand(effectivePattern, start, end, seriesStart)
				if err != nil {
					return nil, err
				}
				e.patternCache.Put(key, dates)
			}
			if s.EndDate != nil {
				clipped := dates[:0:0]
				for _, d := range dates {
					if d.Before(*s.EndDate) {
						clipped = append(clipped, d)
					}
				}
				dates = clipped
			}
			cs.patternDates[pIdx] = dates
			for _, d := range dates {
				cs.union[d] = struct{}{}
			}
		}
		candidates[s.ID] = cs
	}

	// 3. Same-day restriction sets: firstSeries -> list of allowed-date sets
	// (a date must appear in every set to be allowed).
	sameDayAllowed := make(map[model.ID][]map[model.Date]struct{})
	for _, c := range constraints {
		if c.Type != model.MustBeOnSameDay {
			continue
		}
		targets := e.resolveTarget(ctx, c.SecondTarget)
		allowed := make(map[model.Date]struct{})
		for _, tid := range targets {
			if cs, ok := candidates[tid]; ok {
				for d := range cs.union {
					allowed[d] = struct{}{}
				}
			}
		}
		sameDayAllowed[c.FirstSeries] = append(sameDayAllowed[c.FirstSeries], allowed)
	}

	// 4. Topological sort for chain ordering.
	order := e.topoSort(ctx, all)

	// 5. Per-date instance generation.
	builtEndTimes := make(map[model.ID]map[model.Date]model.DateTime)
	builtDurations := make(map[model.ID]map[model.Date]int)
	cyclingOffset := make(map[model.ID]int)
	var built []work

	for _, s := range order {
		cs := candidates[s.ID]
		for pIdx, p := range s.Patterns {
			for _, d := range cs.patternDates[pIdx] {
				w, ok, err := e.buildInstance(ctx, s, p, d, sameDayAllowed, builtEndTimes, builtDurations, cyclingOffset)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				built = append(built, w)
				if _, exists := builtEndTimes[s.ID]; !exists {
					builtEndTimes[s.ID] = make(map[model.Date]model.DateTime)
					builtDurations[s.ID] = make(map[model.Date]int)
				}
				endTime := w.inst.Time.AddMinutes(w.inst.Duration, e.loc)
				builtEndTimes[s.ID][w.inst.Date] = endTime
				builtDurations[s.ID][w.inst.Date] = w.inst.Duration
			}
		}
	}

	// 6. Reflow.
	conflicts, err := e.reflow(ctx, built)
	if err != nil {
		return nil, err
	}

	// 7. Conflict detection.
	instances := make([]model.Instance, len(built))
	for i, w := range built {
		instances[i] = w.inst
	}
	conflicts = append(conflicts, e.detectConflicts(ctx, instances, constraints, seriesByID)...)

	// 8. Sort by time.
	sort.Slice(instances, func(i, j int) bool { return instances[i].Time.Before(instances[j].Time) })

	return &model.Schedule{Start: start, End: end, Instances: instances, Conflicts: conflicts}, nil
}

func (e *Engine) resolveTarget(ctx context.Context, t model.Target) []model.ID {
	if t.Kind == model.TargetSeries {
		return []model.ID{t.SeriesID}
	}
	matches, _ := e.series.GetSeriesByTag(ctx, t.Tag)
	out := make([]model.ID, len(matches))
	for i, s := range matches {
		out[i] = s.ID
	}
	return out
}

// topoSort orders series so a parent always precedes its children: roots
// first, then any series whose parent is already placed, then any
// remainder (orphans/cycles) in a stable order (§4.5.2 stage 4).
func (e *Engine) topoSort(ctx context.Context, all []*model.Series) []*model.Series {
	placed := make(map[model.ID]bool, len(all))
	var order []*model.Series
	remaining := make([]*model.Series, len(all))
	copy(remaining, all)
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].ID < remaining[j].ID })

	var next []*model.Series
	for _, s := range remaining {
		if _, ok := e.link.GetByChild(ctx, s.ID); !ok {
			order = append(order, s)
			placed[s.ID] = true
		} else {
			next = append(next, s)
		}
	}
	remaining = next

	for {
		var progressed []*model.Series
		var stillRemaining []*model.Series
		for _, s := range remaining {
			l, ok := e.link.GetByChild(ctx, s.ID)
			if ok && placed[l.ParentID] {
				progressed = append(progressed, s)
			} else {
				stillRemaining = append(stillRemaining, s)
			}
		}
		if len(progressed) == 0 {
			break
		}
		for _, s := range progressed {
			order = append(order, s)
			placed[s.ID] = true
		}
		remaining = stillRemaining
	}

	// Orphans/cycles: append remainder deterministically.
	order = append(order, remaining...)
	return order
}

func (e *Engine) buildInstance(
	ctx context.Context,
	s *model.Series,
	p *model.Pattern,
	d model.Date,
	sameDayAllowed map[model.ID][]map[model.Date]struct{},
	builtEndTimes map[model.ID]map[model.Date]model.DateTime,
	builtDurations map[model.ID]map[model.Date]int,
	cyclingOffset map[model.ID]int,
) (work, bool, error) {
	if s.EndDate != nil && !d.Before(*s.EndDate) {
		return work{}, false, nil
	}

	if !e.cond.Evaluate(ctx, p.Condition, s.ID, d) {
		return work{}, false, nil
	}

	for _, allowed := range sameDayAllowed[s.ID] {
		if _, ok := allowed[d]; !ok {
			return work{}, false, nil
		}
	}

	date := d
	var t model.DateTime
	explicit := false

	if exc, ok := e.exception.GetForInstance(ctx, s.ID, d); ok {
		switch exc.Type {
		case model.ExceptionCancelled:
			return work{}, false, nil
		case model.ExceptionRescheduled:
			if exc.NewTime != nil {
				t = *exc.NewTime
				date = t.Date()
				explicit = true
			}
		}
	}

	if t == "" {
		if p.AllDay {
			dt, err := e.resolveDateTime(d, "00:00:00")
			if err != nil {
				return work{}, false, err
			}
			t = dt
			explicit = true
		} else {
			patternTime := defaultTime
			if p.Time != nil {
				patternTime = string(*p.Time)
			}
			dt, err := e.resolveDateTime(d, model.Time(patternTime))
			if err != nil {
				return work{}, false, err
			}
			t = dt
			explicit = p.Time != nil
		}
	}

	preChainTime := t
	patternHasExplicitTime := p.Time != nil

	if !p.AllDay {
		if link, ok := e.link.GetByChild(ctx, s.ID); ok {
			var chainEnd *model.DateTime
			if m, ok := builtEndTimes[link.ParentID]; ok {
				if v, ok := m[d]; ok {
					chainEnd = &v
				}
			}
			comp, _ := e.completion.GetForDate(ctx, link.ParentID, d)
			exc, _ := e.exception.GetForInstance(ctx, link.ParentID, d)
			var excPtr *model.Exception
			if exc != nil {
				excPtr = exc
			}
			dur := 0
			if m, ok := builtDurations[link.ParentID]; ok {
				dur = m[d]
			}
			parentEnd, err := chain.GetParentEndTime(chain.ParentEndTimeInput{
				Date:       d,
				Completion: comp,
				Exception:  excPtr,
				ChainEnd:   chainEnd,
				Duration:   dur,
				Location:   e.loc,
			})
			if err != nil {
				return work{}, false, err
			}
			if parentEnd != nil {
				newTime := parentEnd.AddMinutes(link.DistanceMinutes, e.loc)
				t = newTime
				explicit = true
				if !patternHasExplicitTime {
					preChainTime = newTime
				}
			}
		}
	}

	duration := p.Duration
	if s.Adaptive != nil {
		if d2, ok := computeAdaptiveDuration(ctx, e.completion, s.ID, s.Adaptive); ok {
			duration = d2
		}
	}

	title := s.Title
	if s.Cycling != nil && len(s.Cycling.Items) > 0 {
		offset := cyclingOffset[s.ID]
		completions := e.completion.TotalCount(ctx, s.ID)
		title = computeCyclingTitle(s, completions, offset)
	}
	cyclingOffset[s.ID] = cyclingOffset[s.ID] + 1

	inst := model.Instance{
		SeriesID:               s.ID,
		Title:                  title,
		Date:                   date,
		Time:                   t,
		Duration:               duration,
		AllDay:                 p.AllDay,
		ExplicitTime:           explicit,
		PatternOriginalTime:    preChainTime,
		PatternHasExplicitTime: patternHasExplicitTime,
	}
	return work{inst: inst, patternFixed: p.Fixed}, true, nil
}

func (e *Engine) resolveDateTime(d model.Date, t model.Time) (model.DateTime, error) {
	return resolveLocal(d, t, e.loc)
}
