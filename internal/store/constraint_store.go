package store

import (
	"context"
	"sync"

	"github.com/dayplan/autoplanner/internal/adapter"
	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
)

// ConstraintStore owns cross-series relational constraints (§3
// "Constraint"). Tag targets are resolved at query time by the engine,
// not here.
type ConstraintStore struct {
	mu      sync.RWMutex
	adapter adapter.Adapter
	byID    map[model.ID]*model.Constraint
}

func NewConstraintStore(a adapter.Adapter) *ConstraintStore {
	return &ConstraintStore{adapter: a, byID: make(map[model.ID]*model.Constraint)}
}

// Hydrate loads every constraint the adapter knows about, additively.
func (s *ConstraintStore) Hydrate(ctx context.Context) error {
	all, err := s.adapter.GetAllRelationalConstraints(ctx)
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
	}
	return nil
}

func (s *ConstraintStore) Create(ctx context.Context, c *model.Constraint) error {
	if err := s.adapter.CreateRelationalConstraint(ctx, c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[c.ID] = c.Clone()
	return nil
}

func (s *ConstraintStore) Delete(ctx context.Context, id model.ID) error {
	s.mu.RLock()
	_, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return apperr.Newf(apperr.NotFound, "constraint %s not found", id)
	}
	if err := s.adapter.DeleteRelationalConstraint(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

func (s *ConstraintStore) GetAllConstraints(ctx context.Context) ([]*model.Constraint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Constraint, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c.Clone())
	}
	return out, nil
}

var _ ConstraintReader = (*ConstraintStore)(nil)
