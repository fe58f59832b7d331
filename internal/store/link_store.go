package store

import (
	"context"
	"sync"

	"github.com/dayplan/autoplanner/internal/adapter"
	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
)

// LinkStore owns parent->child chain relationships. Cycle/depth
// validation happens in internal/chain before Create is called; this
// store only enforces "a child has at most one parent" and persists.
type LinkStore struct {
	mu        sync.RWMutex
	adapter   adapter.Adapter
	byID      map[model.ID]*model.Link
	byChild   map[model.ID]model.ID // childID -> linkID
	byParent  map[model.ID]map[model.ID]struct{} // parentID -> set of linkID
}

func NewLinkStore(a adapter.Adapter) *LinkStore {
	return &LinkStore{
		adapter:  a,
		byID:     make(map[model.ID]*model.Link),
		byChild:  make(map[model.ID]model.ID),
		byParent: make(map[model.ID]map[model.ID]struct{}),
	}
}

func (s *LinkStore) indexLocked(l *model.Link) {
	s.byChild[l.ChildID] = l.ID
	set, ok := s.byParent[l.ParentID]
	if !ok {
		set = make(map[model.ID]struct{})
		s.byParent[l.ParentID] = set
	}
	set[l.ID] = struct{}{}
}

// Hydrate loads every link the adapter knows about, additively.
func (s *LinkStore) Hydrate(ctx context.Context) error {
	all, err := s.adapter.GetAllLinks(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range all {
		if _, exists := s.byID[l.ID]; exists {
			continue
		}
		s.byID[l.ID] = l
		s.indexLocked(l)
	}
	return nil
}

// Create persists a new link. Callers must have already validated against
// cycles/depth (internal/chain) and that the child is unlinked.
func (s *LinkStore) Create(ctx context.Context, l *model.Link) error {
	s.mu.RLock()
	if _, exists := s.byChild[l.ChildID]; exists {
		s.mu.RUnlock()
		return apperr.Newf(apperr.Validation, "child %s already linked to a parent", l.ChildID)
	}
	s.mu.RUnlock()

	if err := s.adapter.CreateLink(ctx, l); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[l.ID] = l.Clone()
	s.indexLocked(l)
	return nil
}

// Unlink removes the link pointing at childID. Idempotent: unlinking an
// already-unlinked child is a no-op success (§4.4).
func (s *LinkStore) Unlink(ctx context.Context, childID model.ID) error {
	s.mu.RLock()
	linkID, ok := s.byChild[childID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if err := s.adapter.DeleteLink(ctx, linkID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.byID[linkID]
	delete(s.byID, linkID)
	delete(s.byChild, childID)
	if set, ok := s.byParent[l.ParentID]; ok {
		delete(set, linkID)
	}
	return nil
}

func (s *LinkStore) GetAllLinks(ctx context.Context) ([]*model.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Link, 0, len(s.byID))
	for _, l := range s.byID {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (s *LinkStore) GetByChild(ctx context.Context, childID model.ID) (*model.Link, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byChild[childID]
	if !ok {
		return nil, false
	}
	return s.byID[id].Clone(), true
}

func (s *LinkStore) GetByParent(ctx context.Context, parentID model.ID) []*model.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.byParent[parentID]
	if !ok {
		return nil
	}
	out := make([]*model.Link, 0, len(set))
	for id := range set {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

func (s *LinkStore) HasAsParent(ctx context.Context, seriesID model.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.byParent[seriesID]
	return ok && len(set) > 0
}

var _ LinkReader = (*LinkStore)(nil)
