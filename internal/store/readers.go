// Package store holds the engine's in-memory authoritative state: one
// store per primary entity collection, each owning its collection
// exclusively and exposing read-only copies to the rest of the engine
// through the reader interfaces below (§3 "Ownership summary", §9
// "Ownership & aliasing").
package store

import (
	"context"

	"github.com/dayplan/autoplanner/internal/model"
)

// SeriesReader is the read-only capability view other components receive
// instead of a handle to the series store itself.
type SeriesReader interface {
	GetFullSeries(ctx context.Context, id model.ID) (*model.Series, error)
	GetAllSeries(ctx context.Context) ([]*model.Series, error)
	GetSeriesByTag(ctx context.Context, tag string) ([]*model.Series, error)
}

// CompletionReader is the read-only capability view over logged
// completions.
type CompletionReader interface {
	GetCompletionsBySeries(ctx context.Context, seriesID model.ID) ([]*model.Completion, error)
	GetAllCompletions(ctx context.Context) ([]*model.Completion, error)
	GetForDate(ctx context.Context, seriesID model.ID, date model.Date) (*model.Completion, bool)
	LastCompletionDate(ctx context.Context, seriesID model.ID) (model.Date, bool)
	FirstCompletionDate(ctx context.Context, seriesID model.ID) (model.Date, bool)
	CountInWindow(ctx context.Context, seriesID model.ID, start, end model.Date) int
	HasAnyForSeries(ctx context.Context, seriesID model.ID) bool
	TotalCount(ctx context.Context, seriesID model.ID) int
}

// ExceptionReader is the read-only capability view over per-instance
// exceptions.
type ExceptionReader interface {
	GetAllExceptions(ctx context.Context) ([]*model.Exception, error)
	GetForInstance(ctx context.Context, seriesID model.ID, date model.Date) (*model.Exception, bool)
}

// LinkReader is the read-only capability view over parent->child chains.
type LinkReader interface {
	GetAllLinks(ctx context.Context) ([]*model.Link, error)
	GetByChild(ctx context.Context, childID model.ID) (*model.Link, bool)
	GetByParent(ctx context.Context, parentID model.ID) []*model.Link
	HasAsParent(ctx context.Context, seriesID model.ID) bool
}

// ConstraintReader is the read-only capability view over relational
// constraints.
type ConstraintReader interface {
	GetAllConstraints(ctx context.Context) ([]*model.Constraint, error)
}

// ReminderReader is the read-only capability view over reminders and
// their acknowledgements.
type ReminderReader interface {
	GetAllReminders(ctx context.Context) ([]*model.Reminder, error)
	GetBySeries(ctx context.Context, seriesID model.ID) []*model.Reminder
	IsAcknowledged(ctx context.Context, date model.Date, reminderID model.ID) bool
}
