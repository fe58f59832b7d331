package csp

import (
	"context"
	"sort"
)

// DefaultSolver is a deterministic, always-terminating greedy solver:
// fixed items are placed at their ideal time unmoved; flexible items are
// placed as close to their ideal time as possible within their window
// (intersected with any chain bound), searching outward in one-minute
// steps for a slot that does not overlap an already-placed item. When no
// such slot exists, the item is placed at its best-effort clamped target
// and a conflict is recorded — no item is ever dropped.
type DefaultSolver struct{}

func NewDefaultSolver() *DefaultSolver { return &DefaultSolver{} }

type interval struct {
	id         string
	start, end int
}

func (DefaultSolver) Solve(ctx context.Context, series []SeriesInput, chains []ChainInput) (Result, error) {
	chainByChild := make(map[string]ChainInput, len(chains))
	for _, c := range chains {
		chainByChild[c.ChildID] = c
	}

	fixed := make([]SeriesInput, 0, len(series))
	flexible := make([]SeriesInput, 0, len(series))
	for _, s := range series {
		if s.Fixed {
			fixed = append(fixed, s)
		} else {
			flexible = append(flexible, s)
		}
	}
	// Deterministic processing order.
	sort.Slice(fixed, func(i, j int) bool { return fixed[i].ID < fixed[j].ID })
	sort.Slice(flexible, func(i, j int) bool {
		_, ci := chainByChild[flexible[i].ID]
		_, cj := chainByChild[flexible[j].ID]
		if ci != cj {
			return ci // chain-bound items are more constrained; place first
		}
		if flexible[i].IdealTime != flexible[j].IdealTime {
			return flexible[i].IdealTime < flexible[j].IdealTime
		}
		return flexible[i].ID < flexible[j].ID
	})

	var placed []interval
	var out Result

	for _, s := range fixed {
		placed = append(placed, interval{id: s.ID, start: s.IdealTime, end: s.IdealTime + s.Duration})
		out.Assignments = append(out.Assignments, Assignment{ID: s.ID, Time: s.IdealTime})
	}

	for _, s := range flexible {
		lo, hi := s.WindowStart, s.WindowEnd
		var chainConflict bool
		if c, ok := chainByChild[s.ID]; ok {
			target := c.ParentEnd + c.Distance
			cLo := target - c.EarlyWobble
			cHi := target + c.LateWobble
			newLo, newHi := max(lo, cLo), min(hi, cHi)
			if newLo > newHi {
				chainConflict = true
				out.Conflicts = append(out.Conflicts, Conflict{
					Kind: ConflictChainBound, ID: s.ID,
					Message: "chain bound does not intersect waking window",
				})
				// Keep searching within the chain bound alone so the
				// item still lands close to where the chain wants it.
				lo, hi = cLo, cHi
			} else {
				lo, hi = newLo, newHi
			}
		}

		target := clamp(s.IdealTime, lo, hi)
		latestStart := hi - s.Duration
		if latestStart < lo {
			latestStart = lo
		}
		start, ok := findFreeSlot(target, s.Duration, lo, latestStart, placed)
		if !ok {
			start = target
			if !chainConflict {
				out.Conflicts = append(out.Conflicts, Conflict{
					Kind: ConflictOverlap, ID: s.ID,
					Message: "no overlap-free slot available within window",
				})
			}
		}
		placed = append(placed, interval{id: s.ID, start: start, end: start + s.Duration})
		out.Assignments = append(out.Assignments, Assignment{ID: s.ID, Time: start})
	}

	return out, nil
}

func findFreeSlot(target, duration, lo, hi int, placed []interval) (int, bool) {
	if lo > hi {
		if !overlapsAny(target, target+duration, placed) {
			return target, true
		}
		return 0, false
	}
	maxRadius := hi - lo
	for radius := 0; radius <= maxRadius; radius++ {
		if s := target - radius; s >= lo && !overlapsAny(s, s+duration, placed) {
			return s, true
		}
		if s := target + radius; s <= hi && !overlapsAny(s, s+duration, placed) {
			return s, true
		}
	}
	return 0, false
}

func overlapsAny(start, end int, placed []interval) bool {
	for _, p := range placed {
		if start < p.end && p.start < end {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if lo > hi {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
