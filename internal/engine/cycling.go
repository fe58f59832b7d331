package engine

import (
	"fmt"

	"github.com/dayplan/autoplanner/internal/model"
)

// computeCyclingTitle implements §4.5.5. completionCount is the series'
// current total completions; offset is the per-schedule-build,
// per-series instance counter (0, 1, 2, ...). Both gapLeap values are
// satisfied simultaneously by this formula: completionCount already only
// advances on real completions (gapLeap=true's "cancelled doesn't
// advance"), while offset advances once per built instance regardless of
// completion (gapLeap=false's "advances with each instance") — see
// DESIGN.md.
func computeCyclingTitle(s *model.Series, completionCount, offset int) string {
	cfg := s.Cycling
	n := len(cfg.Items)
	if n == 0 {
		return s.Title
	}
	idx := (completionCount + offset) % n

	if cfg.Mode == model.CyclingRandom {
		h := stringHash32(fmt.Sprintf("%s:%d", s.ID, completionCount+offset))
		idx = int(absInt32(h)) % n
	}

	return cfg.Items[idx]
}

// stringHash32 is a simple multiplicative (Java-style, base 31) 32-bit
// truncated hash, used for deterministic random-mode cycling.
func stringHash32(s string) int32 {
	var h int32
	for _, r := range s {
		h = 31*h + int32(r)
	}
	return h
}

func absInt32(v int32) int32 {
	if v == -2147483648 {
		return 0
	}
	if v < 0 {
		return -v
	}
	return v
}
