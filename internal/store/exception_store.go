package store

import (
	"context"
	"sync"

	"github.com/dayplan/autoplanner/internal/adapter"
	"github.com/dayplan/autoplanner/internal/model"
)

// ExceptionStore owns per-instance exceptions, keyed by (seriesId, date)
// (§3 "Exception"). A later create for the same key overwrites the prior
// one, matching how rescheduling then cancelling the same instance (or
// vice versa) is expected to behave.
type ExceptionStore struct {
	mu      sync.RWMutex
	adapter adapter.Adapter
	byKey   map[string]*model.Exception
}

func NewExceptionStore(a adapter.Adapter) *ExceptionStore {
	return &ExceptionStore{adapter: a, byKey: make(map[string]*model.Exception)}
}

// Hydrate loads every exception the adapter knows about, additively.
func (s *ExceptionStore) Hydrate(ctx context.Context) error {
	all, err := s.adapter.GetAllExceptions(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range all {
		key := e.Key()
		if _, exists := s.byKey[key]; exists {
			continue
		}
		s.byKey[key] = e
	}
	return nil
}

// Create persists an exception, overwriting any prior exception for the
// same (seriesId, date) key.
func (s *ExceptionStore) Create(ctx context.Context, e *model.Exception) error {
	if err := s.adapter.CreateInstanceException(ctx, e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[e.Key()] = e.Clone()
	return nil
}

func (s *ExceptionStore) GetAllExceptions(ctx context.Context) ([]*model.Exception, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Exception, 0, len(s.byKey))
	for _, e := range s.byKey {
		out = append(out, e.Clone())
	}
	return out, nil
}

func (s *ExceptionStore) GetForInstance(ctx context.Context, seriesID model.ID, date model.Date) (*model.Exception, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byKey[string(seriesID)+"|"+string(date)]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

var _ ExceptionReader = (*ExceptionStore)(nil)
