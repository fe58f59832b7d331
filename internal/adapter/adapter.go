// Package adapter defines the external persistence contract (§6.1). The
// engine core never depends on a concrete database; it only depends on
// this interface, so any KV-shaped backing store can be substituted.
// Concrete adapters (e.g. a Postgres-backed one mirroring the teacher's
// pgx-based workers) are an external concern outside this module's scope.
package adapter

import (
	"context"

	"github.com/dayplan/autoplanner/internal/model"
)

// SeriesFields is the partial-update payload for updateSeries.
type SeriesFields struct {
	Title     *string
	StartDate *model.Date
	EndDate   *model.Date
	Locked    *bool
}

// Adapter is the minimum async persistence surface the engine requires.
// Every failure is surfaced unchanged to the caller (§7 "Propagation").
type Adapter interface {
	// Series
	CreateSeries(ctx context.Context, s *model.Series) error
	UpdateSeries(ctx context.Context, id model.ID, fields SeriesFields) error
	DeleteSeries(ctx context.Context, id model.ID) error
	GetSeriesByID(ctx context.Context, id model.ID) (*model.Series, error)
	GetAllSeries(ctx context.Context) ([]*model.Series, error)
	AddTagToSeries(ctx context.Context, id model.ID, tag string) error
	RemoveTagFromSeries(ctx context.Context, id model.ID, tag string) error

	// Patterns
	CreatePattern(ctx context.Context, seriesID model.ID, p *model.Pattern) error
	DeletePattern(ctx context.Context, id model.ID) error
	GetPatternsBySeries(ctx context.Context, seriesID model.ID) ([]*model.Pattern, error)
	SetPatternWeekdays(ctx context.Context, patternID model.ID, weekdays []string) error

	// Conditions
	CreateCondition(ctx context.Context, patternID model.ID, node *model.ConditionNode) (model.ID, error)
	DeleteCondition(ctx context.Context, id model.ID) error
	GetConditionsBySeries(ctx context.Context, seriesID model.ID) ([]*model.ConditionNode, error)

	// Completions
	CreateCompletion(ctx context.Context, c *model.Completion) error
	DeleteCompletion(ctx context.Context, id model.ID) error
	GetCompletionsBySeries(ctx context.Context, seriesID model.ID) ([]*model.Completion, error)
	GetAllCompletions(ctx context.Context) ([]*model.Completion, error)

	// Exceptions
	CreateInstanceException(ctx context.Context, e *model.Exception) error
	GetAllExceptions(ctx context.Context) ([]*model.Exception, error)

	// Links
	CreateLink(ctx context.Context, l *model.Link) error
	DeleteLink(ctx context.Context, id model.ID) error
	GetLinkByChild(ctx context.Context, childID model.ID) (*model.Link, error)
	GetAllLinks(ctx context.Context) ([]*model.Link, error)

	// Constraints
	CreateRelationalConstraint(ctx context.Context, c *model.Constraint) error
	DeleteRelationalConstraint(ctx context.Context, id model.ID) error
	GetAllRelationalConstraints(ctx context.Context) ([]*model.Constraint, error)

	// Cycling & adaptive duration
	SetCyclingConfig(ctx context.Context, seriesID model.ID, cfg *model.CyclingConfig) error
	SetCyclingItems(ctx context.Context, seriesID model.ID, items []string) error
	SetAdaptiveDuration(ctx context.Context, seriesID model.ID, cfg *model.AdaptiveDurationConfig) error

	// Reminders
	CreateReminder(ctx context.Context, r *model.Reminder) error
	GetAllReminders(ctx context.Context) ([]*model.Reminder, error)
	AcknowledgeReminder(ctx context.Context, id model.ID, date model.Date, asOf model.DateTime) error
	GetReminderAcksInRange(ctx context.Context, start, end model.Date) ([]model.AckKey, error)
}
