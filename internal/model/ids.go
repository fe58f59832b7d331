// Package model defines the engine's data model: series, patterns,
// conditions, completions, exceptions, links, constraints, reminders, and
// the invalidation-scope variant, per the schedule engine specification §3.
package model

import "github.com/dayplan/autoplanner/internal/temporal"

// ID is an opaque entity identifier. Generation is an external concern
// (the adapter / its id generator); the engine only ever compares ids for
// equality and uses them as map keys.
type ID string

// Date, Time, and DateTime alias the temporal package's opaque ordered
// value types so model consumers need not import temporal directly.
type (
	Date     = temporal.Date
	Time     = temporal.Time
	DateTime = temporal.DateTime
)

// TargetKind distinguishes the two variants a constraint/pattern target
// can take: a concrete series or a tag that resolves to a set of series.
type TargetKind int

const (
	TargetSeries TargetKind = iota
	TargetTag
)

// Target is the {seriesId} | {tag} variant used by constraint endpoints.
type Target struct {
	Kind TargetKind
	// SeriesID is set when Kind == TargetSeries.
	SeriesID ID
	// Tag is set when Kind == TargetTag.
	Tag string
}

func SeriesTarget(id ID) Target  { return Target{Kind: TargetSeries, SeriesID: id} }
func TagTarget(tag string) Target { return Target{Kind: TargetTag, Tag: tag} }
