package engine

import (
	"context"
	"math"
	"sort"

	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/store"
)

// computeAdaptiveDuration implements §4.5.4: average of the last N
// completions' (endMinutes-startMinutes), multiplied and ceiled, with a
// floor of 1 minute. Completions lacking both times, or with a
// non-positive duration, are excluded. Returns (0, false) when no valid
// completion exists and cfg has no fallback — the pattern's own duration
// then applies.
func computeAdaptiveDuration(ctx context.Context, completions store.CompletionReader, seriesID model.ID, cfg *model.AdaptiveDurationConfig) (int, bool) {
	all, err := completions.GetCompletionsBySeries(ctx, seriesID)
	if err != nil {
		return 0, false
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })

	var durations []int
	for _, c := range all {
		if d, ok := c.DurationMinutes(); ok {
			durations = append(durations, d)
		}
	}

	if len(durations) == 0 {
		if cfg.Fallback != nil {
			return *cfg.Fallback, true
		}
		return 0, false
	}

	n := cfg.LastN
	if n <= 0 {
		n = 5
	}
	if n > len(durations) {
		n = len(durations)
	}
	tail := durations[len(durations)-n:]

	sum := 0
	for _, d := range tail {
		sum += d
	}
	avg := float64(sum) / float64(len(tail))

	mult := cfg.Multiplier
	if mult == 0 {
		mult = 1.0
	}
	result := int(math.Ceil(avg * mult))
	if result < 1 {
		result = 1
	}
	return result, true
}
