package engine

import (
	"context"
	"sort"

	"github.com/dayplan/autoplanner/internal/chain"
	"github.com/dayplan/autoplanner/internal/model"
)

type pairKey struct {
	a, b model.ID
}

func unorderedPair(a, b model.ID) pairKey {
	if a <= b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

// detectConflicts implements §4.5.6 over the post-reflow instances.
func (e *Engine) detectConflicts(ctx context.Context, instances []model.Instance, constraints []*model.Constraint, seriesByID map[model.ID]*model.Series) []model.Conflict {
	var out []model.Conflict

	byDate := make(map[model.Date][]model.Instance)
	for _, inst := range instances {
		byDate[inst.Date] = append(byDate[inst.Date], inst)
	}
	var dates []model.Date
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out = append(out, e.detectOverlap(dates, byDate)...)
	out = append(out, e.detectMustBeBefore(constraints, byDate)...)
	out = append(out, e.detectCantBeNextTo(ctx, constraints, dates, byDate, seriesByID)...)
	out = append(out, e.detectChainCannotFit(ctx, instances)...)

	return out
}

// intervalsOverlap compares same-day instance intervals using
// minutes-of-day arithmetic, which is immune to any local DST shift
// within the single day being compared.
func intervalsOverlap(aStart model.DateTime, aDur int, bStart model.DateTime, bDur int) bool {
	aMin := minutesOfDay(aStart.Time())
	bMin := minutesOfDay(bStart.Time())
	return aMin < bMin+bDur && bMin < aMin+aDur
}

func (e *Engine) detectOverlap(dates []model.Date, byDate map[model.Date][]model.Instance) []model.Conflict {
	firstSeen := make(map[pairKey]model.Date)
	var order []pairKey
	for _, d := range dates {
		insts := byDate[d]
		for i := 0; i < len(insts); i++ {
			if !insts[i].Fixed || insts[i].AllDay {
				continue
			}
			for j := i + 1; j < len(insts); j++ {
				if !insts[j].Fixed || insts[j].AllDay {
					continue
				}
				if insts[i].SeriesID == insts[j].SeriesID {
					continue
				}
				if intervalsOverlap(insts[i].Time, insts[i].Duration, insts[j].Time, insts[j].Duration) {
					key := unorderedPair(insts[i].SeriesID, insts[j].SeriesID)
					if _, seen := firstSeen[key]; !seen {
						firstSeen[key] = d
						order = append(order, key)
					}
				}
			}
		}
	}
	out := make([]model.Conflict, 0, len(order))
	for _, key := range order {
		out = append(out, model.Conflict{
			Type:    model.ConflictOverlap,
			Date:    firstSeen[key],
			SeriesA: key.a,
			SeriesB: key.b,
			Message: "overlapping fixed instances",
		})
	}
	return out
}

func (e *Engine) detectMustBeBefore(constraints []*model.Constraint, byDate map[model.Date][]model.Instance) []model.Conflict {
	var out []model.Conflict
	for _, c := range constraints {
		if c.Type != model.MustBeBefore {
			continue
		}
		for d, insts := range byDate {
			var first, second *model.Instance
			for i := range insts {
				if insts[i].SeriesID == c.FirstSeries {
					first = &insts[i]
				}
				if insts[i].SeriesID == c.SecondSeries {
					second = &insts[i]
				}
			}
			if first == nil || second == nil {
				continue
			}
			if !first.Time.Before(second.Time) {
				out = append(out, model.Conflict{
					Type:    model.ConflictOrdering,
					Date:    d,
					SeriesA: c.FirstSeries,
					SeriesB: c.SecondSeries,
					Message: "mustBeBefore violated",
				})
			}
		}
	}
	return out
}

func (e *Engine) detectCantBeNextTo(ctx context.Context, constraints []*model.Constraint, dates []model.Date, byDate map[model.Date][]model.Instance, seriesByID map[model.ID]*model.Series) []model.Conflict {
	var out []model.Conflict
	flagged := make(map[pairKey]bool)

	for _, c := range constraints {
		if c.Type != model.CantBeNextTo {
			continue
		}
		targets := e.resolveTarget(ctx, c.Target)
		targetSet := make(map[model.ID]bool, len(targets))
		for _, id := range targets {
			targetSet[id] = true
		}

		// (a) instance-based.
		seriesByDate := make(map[model.Date][]model.ID)
		for _, d := range dates {
			for _, inst := range byDate[d] {
				if targetSet[inst.SeriesID] {
					seriesByDate[d] = append(seriesByDate[d], inst.SeriesID)
				}
			}
		}
		for i := 0; i+1 < len(dates); i++ {
			d1, d2 := dates[i], dates[i+1]
			if d2 != d1.AddDays(1) {
				continue
			}
			for _, a := range seriesByDate[d1] {
				for _, b := range seriesByDate[d2] {
					if a == b {
						continue
					}
					key := unorderedPair(a, b)
					if !flagged[key] {
						flagged[key] = true
						out = append(out, model.Conflict{
							Type:    model.ConflictAdjacency,
							Date:    d1,
							SeriesA: a,
							SeriesB: b,
							Message: "cantBeNextTo violated (adjacent dates)",
						})
					}
				}
			}
		}

		// (b) pattern-based.
		ids := targets
		weekdaySets := make(map[model.ID]map[int]bool, len(ids))
		for _, id := range ids {
			s, ok := seriesByID[id]
			if !ok {
				continue
			}
			set := make(map[int]bool)
			for _, p := range s.Patterns {
				switch p.Kind {
				case model.Daily:
					for wd := 0; wd < 7; wd++ {
						set[wd] = true
					}
				case model.Weekly:
					for wd := 0; wd < 7; wd++ {
						if p.DaysOfWeek[wd] {
							set[wd] = true
						}
					}
				}
			}
			weekdaySets[id] = set
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				if a == b {
					continue
				}
				key := unorderedPair(a, b)
				if flagged[key] {
					continue
				}
				if weekdaysAdjacent(weekdaySets[a], weekdaySets[b]) {
					flagged[key] = true
					out = append(out, model.Conflict{
						Type:    model.ConflictAdjacency,
						SeriesA: a,
						SeriesB: b,
						Message: "cantBeNextTo violated (pattern weekdays adjacent)",
					})
				}
			}
		}
	}
	return out
}

func weekdaysAdjacent(a, b map[int]bool) bool {
	for da := range a {
		for db := range b {
			diff := da - db
			if diff < 0 {
				diff = -diff
			}
			if diff == 1 || diff == 6 {
				return true
			}
		}
	}
	return false
}

func (e *Engine) detectChainCannotFit(ctx context.Context, instances []model.Instance) []model.Conflict {
	byKey := make(map[model.ID]map[model.Date]model.Instance)
	for _, inst := range instances {
		m, ok := byKey[inst.SeriesID]
		if !ok {
			m = make(map[model.Date]model.Instance)
			byKey[inst.SeriesID] = m
		}
		m[inst.Date] = inst
	}

	links, err := e.link.GetAllLinks(ctx)
	if err != nil {
		return nil
	}

	var out []model.Conflict
	for _, l := range links {
		childByDate, ok := byKey[l.ChildID]
		if !ok {
			continue
		}
		for d, child := range childByDate {
			parent, ok := byKey[l.ParentID][d]
			if !ok {
				continue
			}
			comp, _ := e.completion.GetForDate(ctx, l.ParentID, d)
			exc, _ := e.exception.GetForInstance(ctx, l.ParentID, d)
			parentEndTime := parent.Time.AddMinutes(parent.Duration, e.loc)
			parentEnd, err := chain.GetParentEndTime(chain.ParentEndTimeInput{
				Date:       d,
				Completion: comp,
				Exception:  exc,
				ChainEnd:   &parentEndTime,
				Duration:   parent.Duration,
				Location:   e.loc,
			})
			if err != nil || parentEnd == nil {
				continue
			}

			target := minutesOfDay(parentEnd.Time()) + l.DistanceMinutes
			earliest := target - l.EarlyWobbleMinutes
			latest := target + l.LateWobbleMinutes

			checkTime := child.Time
			if child.PatternHasExplicitTime {
				checkTime = child.PatternOriginalTime
			}
			checkMinutes := minutesOfDay(checkTime.Time())
			if checkMinutes < earliest || checkMinutes > latest {
				out = append(out, model.Conflict{
					Type:    model.ConflictChainBound,
					Date:    d,
					SeriesA: l.ChildID,
					SeriesB: l.ParentID,
					Message: "chain-bound instance falls outside [parentEnd+distance-earlyWobble, parentEnd+distance+lateWobble]",
				})
			}
		}
	}
	return out
}
