// Package csp defines the per-day constraint-satisfaction contract used
// by reflow (§4.5.3) and a concrete deterministic solver. The solver
// itself is an external-shaped collaborator per the specification (only
// its input/output contract is fixed); DefaultSolver is the reference
// implementation this module ships so the engine is runnable end to end.
package csp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// SeriesInput is one per-day placement candidate, keyed by a synthetic
// "<seriesId>::<i>" id to keep multiple same-day instances of one series
// distinct (§4.5.3).
type SeriesInput struct {
	ID          string
	Fixed       bool
	IdealTime   int // minutes since midnight
	Duration    int // minutes
	WindowStart int // minutes since midnight
	WindowEnd   int // minutes since midnight
}

// ChainInput binds a child SeriesInput to a parent end-time plus wobble.
type ChainInput struct {
	ChildID     string
	ParentEnd   int // minutes since midnight
	Distance    int
	EarlyWobble int
	LateWobble  int
}

// Assignment is the solver's placement decision for one SeriesInput.
type Assignment struct {
	ID   string
	Time int // minutes since midnight
}

// ConflictKind distinguishes the two conflict shapes a solver may emit.
type ConflictKind int

const (
	ConflictOverlap ConflictKind = iota
	ConflictChainBound
)

// Conflict is a solver-level arrangement problem, later translated by the
// engine into a public model.Conflict for the affected date (§4.5.3).
type Conflict struct {
	Kind    ConflictKind
	ID      string
	OtherID string
	Message string
}

// Result is the solver's output: an assignment for every input id (no
// item is ever dropped) plus any conflicts encountered placing them.
type Result struct {
	Assignments []Assignment
	Conflicts   []Conflict
}

// Solver is the per-day CSP contract (§4.5.3): deterministic, always
// terminating, and best-effort when no perfect arrangement exists.
type Solver interface {
	Solve(ctx context.Context, series []SeriesInput, chains []ChainInput) (Result, error)
}

// Fingerprint computes a stable content address over sorted SeriesInput
// and ChainInput slices, used as the CSP-result cache key (§4.6). The
// cache is never invalidated: identical fingerprints always correspond to
// identical inputs, so a cached entry remains correct indefinitely.
func Fingerprint(series []SeriesInput, chains []ChainInput) string {
	s := append([]SeriesInput(nil), series...)
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
	c := append([]ChainInput(nil), chains...)
	sort.Slice(c, func(i, j int) bool { return c[i].ChildID < c[j].ChildID })

	buf := make([]byte, 0, 256)
	for _, si := range s {
		buf = fmt.Appendf(buf, "S|%s|%v|%d|%d|%d|%d\n", si.ID, si.Fixed, si.IdealTime, si.Duration, si.WindowStart, si.WindowEnd)
	}
	for _, ci := range c {
		buf = fmt.Appendf(buf, "C|%s|%d|%d|%d|%d\n", ci.ChildID, ci.ParentEnd, ci.Distance, ci.EarlyWobble, ci.LateWobble)
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}
