package model

// Completion records that an instance of a series actually happened on a
// date, optionally carrying start/end times. At most one completion exists
// per (SeriesID, Date) — enforced by the completion store.
type Completion struct {
	ID        ID
	SeriesID  ID
	Date      Date
	StartTime *Time
	EndTime   *Time
}

// Clone returns a deep copy of c (nil-safe).
func (c *Completion) Clone() *Completion {
	if c == nil {
		return nil
	}
	out := *c
	if c.StartTime != nil {
		t := *c.StartTime
		out.StartTime = &t
	}
	if c.EndTime != nil {
		t := *c.EndTime
		out.EndTime = &t
	}
	return &out
}

// DurationMinutes returns endMinutes-startMinutes when both times are
// present and end > start, else (0, false).
func (c *Completion) DurationMinutes() (int, bool) {
	if c.StartTime == nil || c.EndTime == nil {
		return 0, false
	}
	start := minutesOfDay(*c.StartTime)
	end := minutesOfDay(*c.EndTime)
	if end <= start {
		return 0, false
	}
	return end - start, true
}

func minutesOfDay(t Time) int {
	// Time is canonically HH:MM:SS.
	if len(t) < 8 {
		return 0
	}
	h := int(t[0]-'0')*10 + int(t[1]-'0')
	m := int(t[3]-'0')*10 + int(t[4]-'0')
	return h*60 + m
}
