package store

import (
	"context"
	"sync"

	"github.com/dayplan/autoplanner/internal/adapter"
	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
)

// CompletionStore owns the completion collection: at most one completion
// per (seriesId, date) (§3 "Completion").
type CompletionStore struct {
	mu       sync.RWMutex
	adapter  adapter.Adapter
	byID     map[model.ID]*model.Completion
	bySeries map[model.ID]map[model.Date]model.ID // seriesID -> date -> completionID
}

func NewCompletionStore(a adapter.Adapter) *CompletionStore {
	return &CompletionStore{
		adapter:  a,
		byID:     make(map[model.ID]*model.Completion),
		bySeries: make(map[model.ID]map[model.Date]model.ID),
	}
}

func (s *CompletionStore) indexLocked(c *model.Completion) {
	dates, ok := s.bySeries[c.SeriesID]
	if !ok {
		dates = make(map[model.Date]model.ID)
		s.bySeries[c.SeriesID] = dates
	}
	dates[c.Date] = c.ID
}

// Hydrate loads every completion the adapter knows about, additively.
func (s *CompletionStore) Hydrate(ctx context.Context) error {
	all, err := s.adapter.GetAllCompletions(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range all {
		if _, exists := s.byID[c.ID]; exists {
			continue
		}
		s.byID[c.ID] = c
		s.indexLocked(c)
	}
	return nil
}

// Log records a completion, failing with Duplicate if one already exists
// for (seriesId, date).
func (s *CompletionStore) Log(ctx context.Context, c *model.Completion) error {
	s.mu.RLock()
	if dates, ok := s.bySeries[c.SeriesID]; ok {
		if _, exists := dates[c.Date]; exists {
			s.mu.RUnlock()
			return apperr.Newf(apperr.Duplicate, "completion already logged for series %s on %s", c.SeriesID, c.Date)
		}
	}
	s.mu.RUnlock()

	if err := s.adapter.CreateCompletion(ctx, c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[c.ID] = c.Clone()
	s.indexLocked(c)
	return nil
}

// Delete removes a completion by id.
func (s *CompletionStore) Delete(ctx context.Context, id model.ID) error {
	s.mu.RLock()
	existing, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return apperr.Newf(apperr.NotFound, "completion %s not found", id)
	}

	if err := s.adapter.DeleteCompletion(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	if dates, ok := s.bySeries[existing.SeriesID]; ok {
		delete(dates, existing.Date)
	}
	return nil
}

func (s *CompletionStore) GetCompletionsBySeries(ctx context.Context, seriesID model.ID) ([]*model.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates, ok := s.bySeries[seriesID]
	if !ok {
		return nil, nil
	}
	out := make([]*model.Completion, 0, len(dates))
	for _, id := range dates {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

func (s *CompletionStore) GetAllCompletions(ctx context.Context) ([]*model.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Completion, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (s *CompletionStore) GetForDate(ctx context.Context, seriesID model.ID, date model.Date) (*model.Completion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates, ok := s.bySeries[seriesID]
	if !ok {
		return nil, false
	}
	id, ok := dates[date]
	if !ok {
		return nil, false
	}
	return s.byID[id].Clone(), true
}

// LastCompletionDate returns the most recent completion date for a
// series, used by the condition evaluator's cross-series anchor shift.
func (s *CompletionStore) LastCompletionDate(ctx context.Context, seriesID model.ID) (model.Date, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates, ok := s.bySeries[seriesID]
	if !ok || len(dates) == 0 {
		return "", false
	}
	var last model.Date
	found := false
	for d := range dates {
		if !found || d.After(last) {
			last = d
			found = true
		}
	}
	return last, found
}

// FirstCompletionDate returns the earliest completion date for a series,
// used as the weekly-pattern anchor (§9 "weekly anchor semantics").
func (s *CompletionStore) FirstCompletionDate(ctx context.Context, seriesID model.ID) (model.Date, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates, ok := s.bySeries[seriesID]
	if !ok || len(dates) == 0 {
		return "", false
	}
	var first model.Date
	found := false
	for d := range dates {
		if !found || d.Before(first) {
			first = d
			found = true
		}
	}
	return first, found
}

// CountInWindow counts completions for seriesID with date in [start, end]
// inclusive on both ends.
func (s *CompletionStore) CountInWindow(ctx context.Context, seriesID model.ID, start, end model.Date) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates, ok := s.bySeries[seriesID]
	if !ok {
		return 0
	}
	count := 0
	for d := range dates {
		if !d.Before(start) && !d.After(end) {
			count++
		}
	}
	return count
}

func (s *CompletionStore) HasAnyForSeries(ctx context.Context, seriesID model.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates, ok := s.bySeries[seriesID]
	return ok && len(dates) > 0
}

func (s *CompletionStore) TotalCount(ctx context.Context, seriesID model.ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySeries[seriesID])
}

// OrderedByDate returns a series' completions ordered by date ascending.
// The adaptive-duration computation sorts its own copy and does not call it.
func (s *CompletionStore) OrderedByDate(ctx context.Context, seriesID model.ID) []*model.Completion {
	all, _ := s.GetCompletionsBySeries(ctx, seriesID)
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].Date.Before(all[j-1].Date); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	return all
}

var _ CompletionReader = (*CompletionStore)(nil)
