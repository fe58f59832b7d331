package store

import (
	"context"
	"sync"
	"time"

	"github.com/dayplan/autoplanner/internal/adapter"
	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
)

// SeriesStore owns the series collection exclusively: readers return
// defensive copies, mutators write through the adapter, and hydrate is
// additive (§4.2).
type SeriesStore struct {
	mu      sync.RWMutex
	adapter adapter.Adapter
	byID    map[model.ID]*model.Series
	tagIdx  map[string]map[model.ID]struct{}
}

func NewSeriesStore(a adapter.Adapter) *SeriesStore {
	return &SeriesStore{
		adapter: a,
		byID:    make(map[model.ID]*model.Series),
		tagIdx:  make(map[string]map[model.ID]struct{}),
	}
}

// Hydrate loads every series the adapter knows about, filling the
// in-memory map only for ids not already present (additive; §4.2).
func (s *SeriesStore) Hydrate(ctx context.Context) error {
	all, err := s.adapter.GetAllSeries(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, series := range all {
		if _, exists := s.byID[series.ID]; exists {
			continue
		}
		s.byID[series.ID] = series
		s.indexTagsLocked(series)
	}
	return nil
}

func (s *SeriesStore) indexTagsLocked(series *model.Series) {
	for _, tag := range series.Tags {
		set, ok := s.tagIdx[tag]
		if !ok {
			set = make(map[model.ID]struct{})
			s.tagIdx[tag] = set
		}
		set[series.ID] = struct{}{}
	}
}

func (s *SeriesStore) unindexTagsLocked(series *model.Series) {
	for _, tag := range series.Tags {
		if set, ok := s.tagIdx[tag]; ok {
			delete(set, series.ID)
		}
	}
}

// Create validates and persists a new series.
func (s *SeriesStore) Create(ctx context.Context, series *model.Series) error {
	if series.Title == "" {
		return apperr.New(apperr.Validation, "series title must not be empty")
	}
	if series.StartDate != nil && series.EndDate != nil && !series.EndDate.After(*series.StartDate) {
		return apperr.New(apperr.Validation, "series endDate must be strictly after startDate")
	}
	now := time.Now()
	series.CreatedAt = now
	series.UpdatedAt = now

	if err := s.adapter.CreateSeries(ctx, series); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[series.ID] = series.Clone()
	s.indexTagsLocked(series)
	return nil
}

// Update applies a partial update, rejecting mutation of a locked series
// (unless the update is an unlock).
func (s *SeriesStore) Update(ctx context.Context, id model.ID, fields adapter.SeriesFields) error {
	s.mu.Lock()
	existing, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	isUnlockOnly := existing.Locked && fields.Locked != nil && !*fields.Locked &&
		fields.Title == nil && fields.StartDate == nil && fields.EndDate == nil
	if existing.Locked && !isUnlockOnly {
		s.mu.Unlock()
		return apperr.Newf(apperr.Locked, "series %s is locked", id)
	}

	updated := existing.Clone()
	if fields.Title != nil {
		if *fields.Title == "" {
			s.mu.Unlock()
			return apperr.New(apperr.Validation, "series title must not be empty")
		}
		updated.Title = *fields.Title
	}
	if fields.StartDate != nil {
		updated.StartDate = fields.StartDate
	}
	if fields.EndDate != nil {
		updated.EndDate = fields.EndDate
	}
	if fields.Locked != nil {
		updated.Locked = *fields.Locked
	}
	if updated.StartDate != nil && updated.EndDate != nil && !updated.EndDate.After(*updated.StartDate) {
		s.mu.Unlock()
		return apperr.New(apperr.Validation, "series endDate must be strictly after startDate")
	}
	updated.UpdatedAt = time.Now()
	s.mu.Unlock()

	if err := s.adapter.UpdateSeries(ctx, id, fields); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.unindexTagsLocked(s.byID[id])
	s.byID[id] = updated
	s.indexTagsLocked(updated)
	return nil
}

// Delete removes a series. Cross-store precondition checks (completions
// exist, linked as parent) are the orchestrator's responsibility, since a
// store never reaches into another store's state (§3 "Ownership
// summary").
func (s *SeriesStore) Delete(ctx context.Context, id model.ID) error {
	s.mu.Lock()
	existing, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	s.mu.Unlock()

	if err := s.adapter.DeleteSeries(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.unindexTagsLocked(existing)
	delete(s.byID, id)
	return nil
}

// AddTag adds a tag to a series.
func (s *SeriesStore) AddTag(ctx context.Context, id model.ID, tag string) error {
	s.mu.RLock()
	existing, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	if existing.HasTag(tag) {
		return nil
	}
	if err := s.adapter.AddTagToSeries(ctx, id, tag); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing.Tags = append(existing.Tags, tag)
	s.indexTagsLocked(existing)
	return nil
}

// RemoveTag removes a tag from a series.
func (s *SeriesStore) RemoveTag(ctx context.Context, id model.ID, tag string) error {
	s.mu.RLock()
	existing, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	if err := s.adapter.RemoveTagFromSeries(ctx, id, tag); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := existing.Tags[:0:0]
	for _, t := range existing.Tags {
		if t != tag {
			out = append(out, t)
		}
	}
	if set, ok := s.tagIdx[tag]; ok {
		delete(set, id)
	}
	existing.Tags = out
	return nil
}

// SetPatterns replaces the series' pattern list. Per §3 "Pattern", this is
// a transactional replace at the model layer: the caller (orchestrator) is
// responsible for deleting old condition subtrees via the adapter before
// persisting the new ones; this method only swaps the in-memory list once
// that has succeeded.
func (s *SeriesStore) SetPatterns(id model.ID, patterns []*model.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	existing.Patterns = patterns
	return nil
}

// SetCycling sets the series' cycling configuration in-memory (adapter
// write-through is the orchestrator's responsibility via SetCyclingConfig).
func (s *SeriesStore) SetCycling(id model.ID, cfg *model.CyclingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	existing.Cycling = cfg
	return nil
}

// SetAdaptive sets the series' adaptive-duration configuration in-memory.
func (s *SeriesStore) SetAdaptive(id model.ID, cfg *model.AdaptiveDurationConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "series %s not found", id)
	}
	existing.Adaptive = cfg
	return nil
}

// GetFullSeries backs a cache-aware lazy load: a miss in the in-memory map
// falls through to the adapter and hydrates on success (§4.2).
func (s *SeriesStore) GetFullSeries(ctx context.Context, id model.ID) (*model.Series, error) {
	s.mu.RLock()
	existing, ok := s.byID[id]
	s.mu.RUnlock()
	if ok {
		return existing.Clone(), nil
	}

	series, err := s.adapter.GetSeriesByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, apperr.Newf(apperr.NotFound, "series %s not found", id)
	}

	s.mu.Lock()
	if _, exists := s.byID[id]; !exists {
		s.byID[id] = series
		s.indexTagsLocked(series)
	}
	out := s.byID[id].Clone()
	s.mu.Unlock()
	return out, nil
}

// GetAllSeries returns defensive copies of every series currently held.
func (s *SeriesStore) GetAllSeries(ctx context.Context) ([]*model.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Series, 0, len(s.byID))
	for _, series := range s.byID {
		out = append(out, series.Clone())
	}
	return out, nil
}

// GetSeriesByTag resolves a tag to the set of series bearing it, via the
// tag index.
func (s *SeriesStore) GetSeriesByTag(ctx context.Context, tag string) ([]*model.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.tagIdx[tag]
	if !ok {
		return nil, nil
	}
	out := make([]*model.Series, 0, len(ids))
	for id := range ids {
		if series, ok := s.byID[id]; ok {
			out = append(out, series.Clone())
		}
	}
	return out, nil
}

var _ SeriesReader = (*SeriesStore)(nil)
