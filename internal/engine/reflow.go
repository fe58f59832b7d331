package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/dayplan/autoplanner/internal/csp"
	"github.com/dayplan/autoplanner/internal/model"
)

// reflow implements §4.5.3: group by date, build a per-day CSP input,
// consult the CSP-result cache, and mutate built instances' times in
// place. Returns the conflicts the solver (or its cache entry) emitted.
func (e *Engine) reflow(ctx context.Context, built []work) ([]model.Conflict, error) {
	byDate := make(map[model.Date][]int) // date -> indices into built
	for i, w := range built {
		byDate[w.inst.Date] = append(byDate[w.inst.Date], i)
	}

	links, err := e.link.GetAllLinks(ctx)
	if err != nil {
		return nil, err
	}

	var conflicts []model.Conflict
	for date, idxs := range byDate {
		sort.Ints(idxs)

		seriesInputs := make([]csp.SeriesInput, len(idxs))
		idOf := make(map[model.ID]int, len(idxs)) // seriesID -> position within this date group
		for pos, bi := range idxs {
			w := &built[bi]
			id := fmt.Sprintf("%s::%d", w.inst.SeriesID, pos)
			idOf[w.inst.SeriesID] = pos

			mins := minutesOfDay(w.inst.Time.Time())
			fixed := w.patternFixed
			if w.inst.ExplicitTime {
				if mins < minutesOfDay(WakingStart) || mins > minutesOfDay(WakingEnd) {
					fixed = true
				}
			}
			if w.inst.AllDay {
				fixed = true
			}

			lo, hi := minutesOfDay(WakingStart), minutesOfDay(WakingEnd)
			seriesInputs[pos] = csp.SeriesInput{
				ID:          id,
				Fixed:       fixed,
				IdealTime:   mins,
				Duration:    w.inst.Duration,
				WindowStart: lo,
				WindowEnd:   hi,
			}
		}

		var chainInputs []csp.ChainInput
		for _, l := range links {
			childPos, childOK := idOf[l.ChildID]
			parentPos, parentOK := idOf[l.ParentID]
			if !childOK || !parentOK {
				continue
			}
			if comp, ok := e.completion.GetForDate(ctx, l.ParentID, date); ok && comp.EndTime != nil {
				seriesInputs[childPos].Fixed = true
				continue
			}
			parentEndMinutes := minutesOfDay(built[idxs[parentPos]].inst.Time.Time()) + built[idxs[parentPos]].inst.Duration
			chainInputs = append(chainInputs, csp.ChainInput{
				ChildID:     seriesInputs[childPos].ID,
				ParentEnd:   parentEndMinutes,
				Distance:    l.DistanceMinutes,
				EarlyWobble: l.EarlyWobbleMinutes,
				LateWobble:  l.LateWobbleMinutes,
			})
		}

		fingerprint := csp.Fingerprint(seriesInputs, chainInputs)
		result, ok := e.cspCache.Get(fingerprint)
		if !ok {
			result, err = e.solver.Solve(ctx, seriesInputs, chainInputs)
			if err != nil {
				return nil, err
			}
			e.cspCache.Put(fingerprint, result)
		}

		byID := make(map[string]int, len(result.Assignments))
		for _, a := range result.Assignments {
			byID[a.ID] = a.Time
		}
		for pos, bi := range idxs {
			id := seriesInputs[pos].ID
			if mins, ok := byID[id]; ok {
				built[bi].inst.Time = model.DateTime(string(date) + "T" + string(timeFromMinutes(mins)))
			}
			built[bi].inst.Fixed = seriesInputs[pos].Fixed
		}

		for _, c := range result.Conflicts {
			mt := model.ConflictCSP
			if c.Kind == csp.ConflictChainBound {
				mt = model.ConflictChainBound
			}
			conflicts = append(conflicts, model.Conflict{
				Type:    mt,
				Date:    date,
				SeriesA: seriesIDFromSynthetic(c.ID),
				Message: c.Message,
			})
		}
	}

	return conflicts, nil
}

func seriesIDFromSynthetic(id string) model.ID {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == ':' && i > 0 && id[i-1] == ':' {
			return model.ID(id[:i-1])
		}
	}
	return model.ID(id)
}
