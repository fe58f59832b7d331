// Package temporal defines the opaque, lexicographically-ordered date/time
// value types shared across the engine, plus the DST-aware local-to-epoch
// resolution used to place pattern-derived instances on the clock.
package temporal

import (
	"fmt"
	"time"
)

// DateLayout is the canonical on-the-wire date format: YYYY-MM-DD.
const DateLayout = "2006-01-02"

// TimeLayout is the canonical on-the-wire time-of-day format: HH:MM:SS.
const TimeLayout = "15:04:05"

// DateTimeLayout is the canonical on-the-wire datetime format.
const DateTimeLayout = "2006-01-02T15:04:05"

// Date is an opaque, lexicographically comparable calendar date.
type Date string

// Time is an opaque, lexicographically comparable time-of-day.
type Time string

// DateTime is an opaque, lexicographically comparable local datetime.
type DateTime string

// NewDate builds a Date from a time.Time, discarding time-of-day.
func NewDate(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate parses a YYYY-MM-DD string into a Date, validating the format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date(t.Format(DateLayout)), nil
}

// NormalizeTime accepts "HH:MM" or "HH:MM:SS" and returns the canonical
// HH:MM:SS form, appending ":00" to a five-character HH:MM input. An hour
// without a leading zero is padded only when seconds are present
// ("9:30:00" becomes "09:30:00"); "9:30" is rejected.
func NormalizeTime(s string) (Time, error) {
	if len(s) == 5 {
		s = s + ":00"
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", s, err)
	}
	return Time(t.Format(TimeLayout)), nil
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		// Dates are constructed only through ParseDate/NewDate; a parse
		// failure here means an invariant was already violated upstream.
		panic(fmt.Sprintf("temporal: corrupt date value %q", d))
	}
	return NewDate(t.AddDate(0, 0, n))
}

// Weekday returns the day of week as 0=Sunday..6=Saturday.
func (d Date) Weekday() int {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		panic(fmt.Sprintf("temporal: corrupt date value %q", d))
	}
	return int(t.Weekday())
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d < o }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d > o }

// Compare returns -1, 0, or 1 as d is less than, equal to, or greater than o.
func (d Date) Compare(o Date) int {
	switch {
	case d < o:
		return -1
	case d > o:
		return 1
	default:
		return 0
	}
}

// Year, Month, Day decompose the date.
func (d Date) Year() int {
	t, _ := time.Parse(DateLayout, string(d))
	return t.Year()
}

func (d Date) Month() int {
	t, _ := time.Parse(DateLayout, string(d))
	return int(t.Month())
}

func (d Date) Day() int {
	t, _ := time.Parse(DateLayout, string(d))
	return t.Day()
}

// DaysSinceEpoch returns a stable integer day index, useful for modular
// arithmetic (everyNDays alignment).
func (d Date) DaysSinceEpoch() int64 {
	t, _ := time.Parse(DateLayout, string(d))
	return t.Unix() / 86400
}

// DaysInMonth returns the number of days in the given year/month (1-12).
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsLeapYear reports whether year is a leap year.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// MakeDateTime combines a Date and a Time into a DateTime.
func MakeDateTime(d Date, t Time) DateTime {
	return DateTime(string(d) + "T" + string(t))
}

// Date extracts the Date portion of a DateTime.
func (dt DateTime) Date() Date {
	if len(dt) < 10 {
		return ""
	}
	return Date(dt[:10])
}

// Time extracts the Time portion of a DateTime.
func (dt DateTime) Time() Time {
	if len(dt) < 19 {
		return ""
	}
	return Time(dt[11:])
}

// Before reports whether dt is strictly before o.
func (dt DateTime) Before(o DateTime) bool { return dt < o }

// AddMinutes resolves dt to a wall-clock instant via loc (for correct
// calendar arithmetic across DST boundaries), adds n minutes, and
// re-renders as a local DateTime in the same location.
func (dt DateTime) AddMinutes(n int, loc *time.Location) DateTime {
	t, err := time.ParseInLocation(DateTimeLayout, string(dt), loc)
	if err != nil {
		panic(fmt.Sprintf("temporal: corrupt datetime value %q", dt))
	}
	return DateTime(t.Add(time.Duration(n) * time.Minute).Format(DateTimeLayout))
}

// DiffMinutes returns the number of minutes from a to b (b - a), resolved
// in loc so DST transitions are accounted for.
func DiffMinutes(a, b DateTime, loc *time.Location) int {
	ta, err := time.ParseInLocation(DateTimeLayout, string(a), loc)
	if err != nil {
		panic(fmt.Sprintf("temporal: corrupt datetime value %q", a))
	}
	tb, err := time.ParseInLocation(DateTimeLayout, string(b), loc)
	if err != nil {
		panic(fmt.Sprintf("temporal: corrupt datetime value %q", b))
	}
	return int(tb.Sub(ta).Minutes())
}

// ResolveLocal resolves a local wall-clock Date+Time in loc to an absolute
// instant. A wall-clock time that falls inside a spring-forward DST gap
// does not exist; we resolve it to the first valid instant at or after the
// requested time (the transition boundary itself), which is what a
// calendar app showing "02:30" on a 02:00->03:00 gap day is expected to do.
func ResolveLocal(d Date, t Time, loc *time.Location) (time.Time, error) {
	full := string(MakeDateTime(d, t))
	naive, err := time.ParseInLocation(DateTimeLayout, full, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve local time %s %s: %w", d, t, err)
	}

	// Round-trip check: if formatting naive back through loc reproduces the
	// requested wall clock, the time exists and there is no gap to resolve.
	if naive.Format(DateTimeLayout) == full {
		return naive, nil
	}

	// Nonexistent wall time: binary-search the surrounding window for the
	// DST transition instant and snap forward to it.
	lo := naive.Add(-3 * time.Hour)
	hi := naive.Add(3 * time.Hour)
	_, offLo := lo.Zone()
	_, offHi := hi.Zone()
	for i := 0; offLo == offHi && i < 8; i++ {
		lo = lo.Add(-3 * time.Hour)
		hi = hi.Add(3 * time.Hour)
		_, offLo = lo.Zone()
		_, offHi = hi.Zone()
	}
	if offLo == offHi {
		return time.Time{}, fmt.Errorf("resolve local time %s %s: no DST transition found near nonexistent wall time", d, t)
	}
	for hi.Sub(lo) > time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		_, offMid := mid.Zone()
		if offMid == offLo {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi, nil
}

// String implements fmt.Stringer for DateTime.
func (dt DateTime) String() string { return string(dt) }

// LoadLocation loads a named timezone, defaulting to UTC for an empty name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
