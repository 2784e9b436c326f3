package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"storefront-analytics-tracker/internal/event"
)

// MemoryStore keeps events in insertion order. It backs tests and redis-less
// development setups.
type MemoryStore struct {
	mu     sync.RWMutex
	events []event.Event
	byID   map[uuid.UUID]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[uuid.UUID]int)}
}

func (s *MemoryStore) Append(ctx context.Context, ev event.Event) (uuid.UUID, error) {
	if ev.ID == uuid.Nil {
		return uuid.Nil, errors.New("event id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[ev.ID]; exists {
		return uuid.Nil, errors.New("duplicate event id")
	}
	s.byID[ev.ID] = len(s.events)
	s.events = append(s.events, ev)
	return ev.ID, nil
}

func (s *MemoryStore) MarkSynced(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	if s.events[idx].Synced {
		return false, nil
	}
	s.events[idx].Synced = true
	return true, nil
}

func (s *MemoryStore) ListPending(ctx context.Context, limit int) ([]event.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]event.Event, 0, limit)
	for _, ev := range s.events {
		if ev.Synced {
			continue
		}
		out = append(out, ev)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) CountPending(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, ev := range s.events {
		if !ev.Synced {
			n++
		}
	}
	return n, nil
}
