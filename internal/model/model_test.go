package model

import "testing"

func TestSeriesCloneIsIndependent(t *testing.T) {
	start := Date("2026-07-01")
	s := &Series{
		ID:        "s1",
		Title:     "Original",
		StartDate: &start,
		Patterns:  []*Pattern{{ID: "p1", Kind: Daily, Duration: 30}},
		Tags:      []string{"health"},
		Cycling:   &CyclingConfig{Items: []string{"a", "b"}},
	}
	clone := s.Clone()

	clone.Title = "Mutated"
	*clone.StartDate = "2026-08-01"
	clone.Patterns[0].Duration = 999
	clone.Tags[0] = "mutated"
	clone.Cycling.Items[0] = "mutated"

	if s.Title != "Original" {
		t.Fatalf("mutating clone's Title affected original")
	}
	if *s.StartDate != "2026-07-01" {
		t.Fatalf("mutating clone's StartDate affected original")
	}
	if s.Patterns[0].Duration != 30 {
		t.Fatalf("mutating clone's Pattern affected original")
	}
	if s.Tags[0] != "health" {
		t.Fatalf("mutating clone's Tags affected original")
	}
	if s.Cycling.Items[0] != "a" {
		t.Fatalf("mutating clone's Cycling items affected original")
	}
}

func TestSeriesCloneNilSafe(t *testing.T) {
	var s *Series
	if s.Clone() != nil {
		t.Fatalf("expected nil Clone of a nil Series")
	}
}

func TestSeriesHasTag(t *testing.T) {
	s := &Series{Tags: []string{"a", "b"}}
	if !s.HasTag("a") {
		t.Fatalf("expected HasTag(a) to be true")
	}
	if s.HasTag("c") {
		t.Fatalf("expected HasTag(c) to be false")
	}
}

func TestPatternAnchorPrefersExplicitOverRuntime(t *testing.T) {
	explicit := Date("2026-07-01")
	runtime := Date("2026-07-10")
	p := &Pattern{WeeklyAnchor: &explicit}
	withRuntime := p.WithRuntimeAnchor(&runtime)
	if *withRuntime.Anchor() != explicit {
		t.Fatalf("expected explicit WeeklyAnchor to win over runtime anchor")
	}

	p2 := &Pattern{}
	withRuntime2 := p2.WithRuntimeAnchor(&runtime)
	if withRuntime2.Anchor() == nil || *withRuntime2.Anchor() != runtime {
		t.Fatalf("expected runtime anchor to apply when no explicit anchor is set")
	}
	if p2.Anchor() != nil {
		t.Fatalf("WithRuntimeAnchor must not mutate the receiver")
	}
}

func TestConditionNodeCloneIsIndependent(t *testing.T) {
	child := &ConditionNode{Kind: CondWeekday}
	n := &ConditionNode{Kind: CondAnd, Children: []*ConditionNode{child}}
	clone := n.Clone()
	clone.Children[0].Kind = CondOr
	if n.Children[0].Kind != CondWeekday {
		t.Fatalf("mutating clone's child affected original")
	}
}

func TestNewCompletionCountDefaultsWindowDays(t *testing.T) {
	node := NewCompletionCount(SeriesRef{Kind: SeriesRefSelf}, 0, CmpGreaterEq, 3)
	if node.WindowDays != 14 {
		t.Fatalf("WindowDays = %d, want default 14", node.WindowDays)
	}
	node2 := NewCompletionCount(SeriesRef{Kind: SeriesRefSelf}, 7, CmpGreaterEq, 3)
	if node2.WindowDays != 7 {
		t.Fatalf("WindowDays = %d, want 7", node2.WindowDays)
	}
}

func TestScheduleCloneIsIndependent(t *testing.T) {
	s := &Schedule{
		Start:     "2026-07-01",
		End:       "2026-07-02",
		Instances: []Instance{{SeriesID: "s1", Title: "A"}},
		Conflicts: []Conflict{{Type: ConflictOverlap}},
	}
	clone := s.Clone()
	clone.Instances[0].Title = "mutated"
	if s.Instances[0].Title != "A" {
		t.Fatalf("mutating clone's Instances affected original")
	}
}

func TestInvalidationScopeConstructors(t *testing.T) {
	if SeriesScope("s1").Kind != ScopeSeries || SeriesScope("s1").SeriesID != "s1" {
		t.Fatalf("SeriesScope did not set Kind/SeriesID correctly")
	}
	if GlobalScope().Kind != ScopeGlobal {
		t.Fatalf("GlobalScope did not set Kind correctly")
	}
}

func TestCompletionDurationMinutes(t *testing.T) {
	start := Time("09:00:00")
	end := Time("09:45:00")
	c := &Completion{StartTime: &start, EndTime: &end}
	d, ok := c.DurationMinutes()
	if !ok || d != 45 {
		t.Fatalf("DurationMinutes() = %d, %v; want 45, true", d, ok)
	}

	backwards := &Completion{StartTime: &end, EndTime: &start}
	if _, ok := backwards.DurationMinutes(); ok {
		t.Fatalf("expected DurationMinutes to reject end <= start")
	}

	missing := &Completion{StartTime: &start}
	if _, ok := missing.DurationMinutes(); ok {
		t.Fatalf("expected DurationMinutes to reject a missing end time")
	}
}

func TestSeriesTargetAndTagTarget(t *testing.T) {
	st := SeriesTarget("s1")
	if st.Kind != TargetSeries || st.SeriesID != "s1" {
		t.Fatalf("SeriesTarget() = %+v", st)
	}
	tt := TagTarget("health")
	if tt.Kind != TargetTag || tt.Tag != "health" {
		t.Fatalf("TagTarget() = %+v", tt)
	}
}
