// Package memory is a reference in-memory implementation of
// adapter.Adapter, used by tests and by cmd/autoplannerd's demo CLI. A
// production deployment would swap this for a database-backed adapter
// without touching any other package.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dayplan/autoplanner/internal/adapter"
	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
)

// Adapter is a goroutine-safe map-backed store. It does not attempt
// transactional consistency across collections; the engine-side stores
// (internal/store) own consistency within a process.
type Adapter struct {
	mu sync.RWMutex

	series      map[model.ID]*model.Series
	patterns    map[model.ID]*model.Pattern  // patternID -> pattern
	patternOwner map[model.ID]model.ID       // patternID -> seriesID
	conditions  map[model.ID]*model.ConditionNode
	completions map[model.ID]*model.Completion
	exceptions  []*model.Exception
	links       map[model.ID]*model.Link
	constraints map[model.ID]*model.Constraint
	reminders   map[model.ID]*model.Reminder
	acks        map[model.AckKey]struct{}
}

// New returns an empty Adapter.
func New() *Adapter {
	return &Adapter{
		series:       make(map[model.ID]*model.Series),
		patterns:     make(map[model.ID]*model.Pattern),
		patternOwner: make(map[model.ID]model.ID),
		conditions:   make(map[model.ID]*model.ConditionNode),
		completions:  make(map[model.ID]*model.Completion),
		links:        make(map[model.ID]*model.Link),
		constraints:  make(map[model.ID]*model.Constraint),
		reminders:    make(map[model.ID]*model.Reminder),
		acks:         make(map[model.AckKey]struct{}),
	}
}

var _ adapter.Adapter = (*Adapter)(nil)

func (a *Adapter) CreateSeries(ctx context.Context, s *model.Series) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.series[s.ID] = s.Clone()
	return nil
}

func (a *Adapter) UpdateSeries(ctx context.Context, id model.ID, fields adapter.SeriesFields) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.series[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	if fields.Title != nil {
		s.Title = *fields.Title
	}
	if fields.StartDate != nil {
		s.StartDate = fields.StartDate
	}
	if fields.EndDate != nil {
		s.EndDate = fields.EndDate
	}
	if fields.Locked != nil {
		s.Locked = *fields.Locked
	}
	return nil
}

func (a *Adapter) DeleteSeries(ctx context.Context, id model.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.series, id)
	return nil
}

func (a *Adapter) GetSeriesByID(ctx context.Context, id model.ID) (*model.Series, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.series[id]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	return s.Clone(), nil
}

func (a *Adapter) GetAllSeries(ctx context.Context) ([]*model.Series, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*model.Series, 0, len(a.series))
	for _, s := range a.series {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (a *Adapter) AddTagToSeries(ctx context.Context, id model.ID, tag string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.series[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	s.Tags = append(s.Tags, tag)
	return nil
}

func (a *Adapter) RemoveTagFromSeries(ctx context.Context, id model.ID, tag string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.series[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	out := s.Tags[:0:0]
	for _, t := range s.Tags {
		if t != tag {
			out = append(out, t)
		}
	}
	s.Tags = out
	return nil
}

func (a *Adapter) CreatePattern(ctx context.Context, seriesID model.ID, p *model.Pattern) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.patterns[p.ID] = p.Clone()
	a.patternOwner[p.ID] = seriesID
	return nil
}

func (a *Adapter) DeletePattern(ctx context.Context, id model.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.patterns, id)
	delete(a.patternOwner, id)
	return nil
}

func (a *Adapter) GetPatternsBySeries(ctx context.Context, seriesID model.ID) ([]*model.Pattern, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*model.Pattern
	for id, owner := range a.patternOwner {
		if owner == seriesID {
			out = append(out, a.patterns[id].Clone())
		}
	}
	return out, nil
}

func (a *Adapter) SetPatternWeekdays(ctx context.Context, patternID model.ID, weekdays []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.patterns[patternID]
	if !ok {
		return apperr.Newf(apperr.NotFound, "pattern %s not found", patternID)
	}
	var set [7]bool
	names := map[string]int{"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3, "thursday": 4, "friday": 5, "saturday": 6}
	for _, w := range weekdays {
		if idx, ok := names[w]; ok {
			set[idx] = true
		}
	}
	p.DaysOfWeek = set
	return nil
}

func (a *Adapter) CreateCondition(ctx context.Context, patternID model.ID, node *model.ConditionNode) (model.ID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := model.ID(uuid.NewString())
	a.conditions[id] = node.Clone()
	return id, nil
}

func (a *Adapter) DeleteCondition(ctx context.Context, id model.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.conditions, id)
	return nil
}

func (a *Adapter) GetConditionsBySeries(ctx context.Context, seriesID model.ID) ([]*model.ConditionNode, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.series[seriesID]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "series %s not found", seriesID)
	}
	var out []*model.ConditionNode
	for _, p := range s.Patterns {
		if p.Condition != nil {
			out = append(out, p.Condition.Clone())
		}
	}
	return out, nil
}

func (a *Adapter) CreateCompletion(ctx context.Context, c *model.Completion) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.completions[c.ID] = c.Clone()
	return nil
}

func (a *Adapter) DeleteCompletion(ctx context.Context, id model.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.completions, id)
	return nil
}

func (a *Adapter) GetCompletionsBySeries(ctx context.Context, seriesID model.ID) ([]*model.Completion, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*model.Completion
	for _, c := range a.completions {
		if c.SeriesID == seriesID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (a *Adapter) GetAllCompletions(ctx context.Context) ([]*model.Completion, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*model.Completion, 0, len(a.completions))
	for _, c := range a.completions {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (a *Adapter) CreateInstanceException(ctx context.Context, e *model.Exception) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exceptions = append(a.exceptions, e.Clone())
	return nil
}

func (a *Adapter) GetAllExceptions(ctx context.Context) ([]*model.Exception, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*model.Exception, len(a.exceptions))
	for i, e := range a.exceptions {
		out[i] = e.Clone()
	}
	return out, nil
}

func (a *Adapter) CreateLink(ctx context.Context, l *model.Link) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.links[l.ID] = l.Clone()
	return nil
}

func (a *Adapter) DeleteLink(ctx context.Context, id model.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.links, id)
	return nil
}

func (a *Adapter) GetLinkByChild(ctx context.Context, childID model.ID) (*model.Link, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, l := range a.links {
		if l.ChildID == childID {
			return l.Clone(), nil
		}
	}
	return nil, apperr.Newf(apperr.NotFound, "no link for child %s", childID)
}

func (a *Adapter) GetAllLinks(ctx context.Context) ([]*model.Link, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*model.Link, 0, len(a.links))
	for _, l := range a.links {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (a *Adapter) CreateRelationalConstraint(ctx context.Context, c *model.Constraint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.constraints[c.ID] = c.Clone()
	return nil
}

func (a *Adapter) DeleteRelationalConstraint(ctx context.Context, id model.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.constraints, id)
	return nil
}

func (a *Adapter) GetAllRelationalConstraints(ctx context.Context) ([]*model.Constraint, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*model.Constraint, 0, len(a.constraints))
	for _, c := range a.constraints {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (a *Adapter) SetCyclingConfig(ctx context.Context, seriesID model.ID, cfg *model.CyclingConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.series[seriesID]
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", seriesID)
	}
	s.Cycling = cfg
	return nil
}

func (a *Adapter) SetCyclingItems(ctx context.Context, seriesID model.ID, items []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.series[seriesID]
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", seriesID)
	}
	if s.Cycling == nil {
		s.Cycling = &model.CyclingConfig{}
	}
	s.Cycling.Items = items
	return nil
}

func (a *Adapter) SetAdaptiveDuration(ctx context.Context, seriesID model.ID, cfg *model.AdaptiveDurationConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.series[seriesID]
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", seriesID)
	}
	s.Adaptive = cfg
	return nil
}

func (a *Adapter) CreateReminder(ctx context.Context, r *model.Reminder) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reminders[r.ID] = r.Clone()
	return nil
}

func (a *Adapter) GetAllReminders(ctx context.Context) ([]*model.Reminder, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*model.Reminder, 0, len(a.reminders))
	for _, r := range a.reminders {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (a *Adapter) AcknowledgeReminder(ctx context.Context, id model.ID, date model.Date, asOf model.DateTime) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks[model.AckKey{Date: date, ReminderID: id}] = struct{}{}
	return nil
}

func (a *Adapter) GetReminderAcksInRange(ctx context.Context, start, end model.Date) ([]model.AckKey, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.AckKey, 0, len(a.acks))
	for k := range a.acks {
		if !k.Date.Before(start) && k.Date.Before(end.AddDays(1)) {
			out = append(out, k)
		}
	}
	return out, nil
}
