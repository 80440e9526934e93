package cache

import (
	"context"
	"sync"
	"time"

	"section-store/internal/domain"
	"section-store/internal/ports"
)

type stateEntry struct {
	state     domain.OAuthState
	expiresAt time.Time
}

// MemoryStateStore keeps OAuth states in process
type MemoryStateStore struct {
	mu     sync.Mutex
	now    func() time.Time
	states map[string]stateEntry
}

var _ ports.OAuthStateStore = (*MemoryStateStore)(nil)

func NewMemoryStateStore(clock ports.Clock) *MemoryStateStore {
	return &MemoryStateStore{now: clock.Now, states: map[string]stateEntry{}}
}

func (s *MemoryStateStore) Save(_ context.Context, state *domain.OAuthState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.states {
		if now.After(e.expiresAt) {
			delete(s.states, k)
		}
	}
	s.states[state.State] = stateEntry{state: *state, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (*domain.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.states[state]
	if !ok {
		return nil, nil
	}
	delete(s.states, state)
	if s.now().After(e.expiresAt) {
		return nil, nil
	}
	out := e.state
	return &out, nil
}

// MemoryDeduper remembers claimed delivery ids in process
type MemoryDeduper struct {
	mu     sync.Mutex
	now    func() time.Time
	ttl    time.Duration
	claims map[string]time.Time
}

var _ ports.DeliveryDeduper = (*MemoryDeduper)(nil)

func NewMemoryDeduper(clock ports.Clock, ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{now: clock.Now, ttl: ttl, claims: map[string]time.Time{}}
}

func (d *MemoryDeduper) Claim(_ context.Context, deliveryID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if at, ok := d.claims[deliveryID]; ok && now.Sub(at) < d.ttl {
		return false, nil
	}
	d.claims[deliveryID] = now
	return true, nil
}

func (d *MemoryDeduper) Release(_ context.Context, deliveryID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claims, deliveryID)
	return nil
}
