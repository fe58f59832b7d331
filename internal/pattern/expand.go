// Package pattern implements pure pattern-date expansion (§4.1): given a
// pattern descriptor, a window, and a series start, produce the sorted set
// of dates on which the pattern fires.
//
// Daily, everyNDays, monthly, and yearly expansion are generated through
// github.com/teambition/rrule-go (the same library the teacher uses for
// its recurring-series worker), then defensively re-filtered against our
// own day-of-month/leap-year guards so library edge-case behavior can
// never diverge from the specification's exact skip semantics. Weekly
// expansion is hand-rolled: its Monday-aligned grid and anchor-based
// cycling-identity interaction (§9 "weekly anchor semantics") has no
// faithful RRULE equivalent.
package pattern

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/temporal"
)

// Expand returns the sorted, deduplicated set of dates in
// [max(start, seriesStart), end) on which p fires.
func Expand(p *model.Pattern, start, end, seriesStart model.Date) ([]model.Date, error) {
	effectiveStart := start
	if seriesStart.After(start) {
		effectiveStart = seriesStart
	}
	if !effectiveStart.Before(end) {
		return nil, nil
	}

	switch p.Kind {
	case model.Daily:
		return expandDaily(effectiveStart, end)
	case model.EveryNDays:
		return expandEveryNDays(p, effectiveStart, end, seriesStart)
	case model.Weekly:
		return expandWeekly(p, start, end, effectiveStart, seriesStart)
	case model.Monthly:
		return expandMonthly(p, effectiveStart, end)
	case model.Yearly:
		return expandYearly(p, effectiveStart, end)
	default:
		return nil, fmt.Errorf("pattern: unknown kind %d", p.Kind)
	}
}

func toUTC(d model.Date) time.Time {
	t, _ := time.Parse(temporal.DateLayout, string(d))
	return t
}

func fromUTC(t time.Time) model.Date {
	return model.Date(t.Format(temporal.DateLayout))
}

// rruleBetween runs an rrule.RRule over [from, to) and returns dates,
// using exclusive "to" by subtracting a day from the inclusive call.
func rruleBetween(opt rrule.ROption, from, to time.Time) ([]time.Time, error) {
	opt.Dtstart = from
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("pattern: build rrule: %w", err)
	}
	// rrule.Between is inclusive on both ends; to make "to" exclusive we
	// ask for [from, to - 1 day] inclusive.
	upper := to.AddDate(0, 0, -1)
	if upper.Before(from) {
		return nil, nil
	}
	return r.Between(from, upper, true), nil
}

func expandDaily(start, end model.Date) ([]model.Date, error) {
	times, err := rruleBetween(rrule.ROption{Freq: rrule.DAILY, Interval: 1}, toUTC(start), toUTC(end))
	if err != nil {
		return nil, err
	}
	return toDates(times), nil
}

func expandEveryNDays(p *model.Pattern, effectiveStart, end, seriesStart model.Date) ([]model.Date, error) {
	n := p.N
	if n < 1 {
		n = 1
	}
	// Align to seriesStart by modular offset: generate the rrule anchored
	// at seriesStart itself (so the interval grid is fixed regardless of
	// where the query window starts), then clip to [effectiveStart, end).
	times, err := rruleBetween(rrule.ROption{Freq: rrule.DAILY, Interval: n}, toUTC(seriesStart), toUTC(end))
	if err != nil {
		return nil, err
	}
	out := make([]model.Date, 0, len(times))
	for _, t := range times {
		d := fromUTC(t)
		if !d.Before(effectiveStart) && d.Before(end) {
			out = append(out, d)
		}
	}
	return out, nil
}

func expandMonthly(p *model.Pattern, start, end model.Date) ([]model.Date, error) {
	if p.DayOfMonth < 1 || p.DayOfMonth > 31 {
		return nil, fmt.Errorf("pattern: invalid monthly day %d", p.DayOfMonth)
	}
	times, err := rruleBetween(rrule.ROption{Freq: rrule.MONTHLY, Interval: 1, Bymonthday: []int{p.DayOfMonth}}, toUTC(start), toUTC(end))
	if err != nil {
		return nil, err
	}
	out := make([]model.Date, 0, len(times))
	for _, t := range times {
		d := fromUTC(t)
		// Defensive re-guard: day > days-in-month never appears.
		if temporal.DaysInMonth(d.Year(), d.Month()) < p.DayOfMonth {
			continue
		}
		if d.Day() != p.DayOfMonth {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func expandYearly(p *model.Pattern, start, end model.Date) ([]model.Date, error) {
	if p.Month < 1 || p.Month > 12 || p.Day < 1 || p.Day > 31 {
		return nil, fmt.Errorf("pattern: invalid yearly month/day %d/%d", p.Month, p.Day)
	}
	times, err := rruleBetween(rrule.ROption{Freq: rrule.YEARLY, Interval: 1, Bymonth: []int{p.Month}, Bymonthday: []int{p.Day}}, toUTC(start), toUTC(end))
	if err != nil {
		return nil, err
	}
	out := make([]model.Date, 0, len(times))
	for _, t := range times {
		d := fromUTC(t)
		// Defensive re-guard: Feb-29 appears only on leap years.
		if p.Month == 2 && p.Day == 29 && !temporal.IsLeapYear(d.Year()) {
			continue
		}
		if d.Month() != p.Month || d.Day() != p.Day {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// expandWeekly hand-implements the Monday-aligned grid described in §4.1.
// The anchor carried by p (explicit or engine-supplied) is not read and
// does not shift the grid.
func expandWeekly(p *model.Pattern, start, end, effectiveStart, seriesStart model.Date) ([]model.Date, error) {
	// Find the Monday on or before effectiveStart.
	wd := effectiveStart.Weekday() // 0=Sunday..6=Saturday
	daysSinceMonday := (wd + 6) % 7
	monday := effectiveStart.AddDays(-daysSinceMonday)

	var out []model.Date
	for monday.Before(end) {
		for dow := 0; dow < 7; dow++ {
			if !p.DaysOfWeek[dow] {
				continue
			}
			offset := (dow - 1 + 7) % 7
			d := monday.AddDays(offset)
			if d.Before(start) || d.Before(effectiveStart) || d.Before(seriesStart) {
				continue
			}
			if !d.Before(end) {
				continue
			}
			out = append(out, d)
		}
		monday = monday.AddDays(7)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return dedup(out), nil
}

func toDates(times []time.Time) []model.Date {
	out := make([]model.Date, len(times))
	for i, t := range times {
		out[i] = fromUTC(t)
	}
	return out
}

func dedup(dates []model.Date) []model.Date {
	if len(dates) == 0 {
		return dates
	}
	out := dates[:1]
	for _, d := range dates[1:] {
		if d != out[len(out)-1] {
			out = append(out, d)
		}
	}
	return out
}
