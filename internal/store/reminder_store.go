package store

import (
	"context"
	"sync"

	"github.com/dayplan/autoplanner/internal/adapter"
	"github.com/dayplan/autoplanner/internal/model"
)

// ReminderStore owns reminders and their per-(date, reminderId)
// acknowledgements (§3 "Reminder").
type ReminderStore struct {
	mu       sync.RWMutex
	adapter  adapter.Adapter
	byID     map[model.ID]*model.Reminder
	bySeries map[model.ID][]model.ID
	acked    map[model.AckKey]struct{}
}

func NewReminderStore(a adapter.Adapter) *ReminderStore {
	return &ReminderStore{
		adapter:  a,
		byID:     make(map[model.ID]*model.Reminder),
		bySeries: make(map[model.ID][]model.ID),
		acked:    make(map[model.AckKey]struct{}),
	}
}

// Hydrate loads every reminder and acknowledgement the adapter knows
// about, additively.
func (s *ReminderStore) Hydrate(ctx context.Context) error {
	all, err := s.adapter.GetAllReminders(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for _, r := range all {
		if _, exists := s.byID[r.ID]; exists {
			continue
		}
		s.byID[r.ID] = r
		s.bySeries[r.SeriesID] = append(s.bySeries[r.SeriesID], r.ID)
	}
	s.mu.Unlock()

	// A wide range is sufficient for the engine's own "today/tomorrow"
	// reminder window; a concrete adapter may choose to page this.
	acks, err := s.adapter.GetReminderAcksInRange(ctx, "0000-01-01", "9999-12-31")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range acks {
		s.acked[k] = struct{}{}
	}
	return nil
}

func (s *ReminderStore) Create(ctx context.Context, r *model.Reminder) error {
	if err := s.adapter.CreateReminder(ctx, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[r.ID] = r.Clone()
	s.bySeries[r.SeriesID] = append(s.bySeries[r.SeriesID], r.ID)
	return nil
}

func (s *ReminderStore) GetAllReminders(ctx context.Context) ([]*model.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Reminder, 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *ReminderStore) GetBySeries(ctx context.Context, seriesID model.ID) []*model.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.bySeries[seriesID]
	out := make([]*model.Reminder, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.byID[id]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Acknowledge records an acknowledgement for (date, id), preventing the
// same reminder from re-firing for that date (§4.7).
func (s *ReminderStore) Acknowledge(ctx context.Context, id model.ID, date model.Date, asOf model.DateTime) error {
	if err := s.adapter.AcknowledgeReminder(ctx, id, date, asOf); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked[model.AckKey{Date: date, ReminderID: id}] = struct{}{}
	return nil
}

func (s *ReminderStore) IsAcknowledged(ctx context.Context, date model.Date, reminderID model.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.acked[model.AckKey{Date: date, ReminderID: reminderID}]
	return ok
}

var _ ReminderReader = (*ReminderStore)(nil)
