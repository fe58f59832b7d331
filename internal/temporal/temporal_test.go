package temporal

import (
	"testing"
	"time"
)

func TestDateAddDaysAndCompare(t *testing.T) {
	d, err := ParseDate("2026-01-31")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	next := d.AddDays(1)
	if string(next) != "2026-02-01" {
		t.Fatalf("AddDays across month boundary = %s, want 2026-02-01", next)
	}
	if !d.Before(next) || !next.After(d) {
		t.Fatalf("Before/After inconsistent for %s, %s", d, next)
	}
	if d.Compare(d) != 0 {
		t.Fatalf("Compare(d, d) = %d, want 0", d.Compare(d))
	}
}

func TestDateWeekday(t *testing.T) {
	d, _ := ParseDate("2026-07-29") // a Wednesday
	if got := d.Weekday(); got != 3 {
		t.Fatalf("Weekday() = %d, want 3 (Wednesday)", got)
	}
}

func TestNormalizeTime(t *testing.T) {
	got, err := NormalizeTime("9:30")
	if err == nil {
		t.Fatalf("expected error for unpadded hour, got %s", got)
	}
	got, err = NormalizeTime("09:30")
	if err != nil {
		t.Fatalf("NormalizeTime(09:30): %v", err)
	}
	if string(got) != "09:30:00" {
		t.Fatalf("NormalizeTime(09:30) = %s, want 09:30:00", got)
	}
}

func TestDateTimeDateAndTime(t *testing.T) {
	dt := MakeDateTime(Date("2026-03-01"), Time("14:05:00"))
	if dt.Date() != Date("2026-03-01") {
		t.Fatalf("Date() = %s", dt.Date())
	}
	if dt.Time() != Time("14:05:00") {
		t.Fatalf("Time() = %s", dt.Time())
	}
}

func TestAddMinutesAcrossMidnight(t *testing.T) {
	dt := MakeDateTime(Date("2026-03-01"), Time("23:50:00"))
	got := dt.AddMinutes(20, time.UTC)
	want := MakeDateTime(Date("2026-03-02"), Time("00:10:00"))
	if got != want {
		t.Fatalf("AddMinutes = %s, want %s", got, want)
	}
}

func TestDiffMinutes(t *testing.T) {
	a := MakeDateTime(Date("2026-03-01"), Time("09:00:00"))
	b := MakeDateTime(Date("2026-03-01"), Time("09:45:00"))
	if got := DiffMinutes(a, b, time.UTC); got != 45 {
		t.Fatalf("DiffMinutes = %d, want 45", got)
	}
}

func TestResolveLocalSpringForwardGap(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2026-03-08 02:30 does not exist in America/New_York (clocks spring
	// forward from 02:00 to 03:00).
	resolved, err := ResolveLocal(Date("2026-03-08"), Time("02:30:00"), loc)
	if err != nil {
		t.Fatalf("ResolveLocal: %v", err)
	}
	if resolved.Hour() < 3 {
		t.Fatalf("ResolveLocal did not snap forward past the gap: %v", resolved)
	}
}

func TestResolveLocalOrdinaryTime(t *testing.T) {
	resolved, err := ResolveLocal(Date("2026-06-15"), Time("09:00:00"), time.UTC)
	if err != nil {
		t.Fatalf("ResolveLocal: %v", err)
	}
	if resolved.Format(DateTimeLayout) != "2026-06-15T09:00:00" {
		t.Fatalf("ResolveLocal = %s, want 2026-06-15T09:00:00", resolved.Format(DateTimeLayout))
	}
}

func TestIsLeapYear(t *testing.T) {
	cases := map[int]bool{2024: true, 2023: false, 1900: false, 2000: true}
	for year, want := range cases {
		if got := IsLeapYear(year); got != want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", year, got, want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(2024, 2); got != 29 {
		t.Fatalf("DaysInMonth(2024, Feb) = %d, want 29", got)
	}
	if got := DaysInMonth(2023, 2); got != 28 {
		t.Fatalf("DaysInMonth(2023, Feb) = %d, want 28", got)
	}
}
