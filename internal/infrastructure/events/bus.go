package events

import (
	"context"
	"fmt"
	"sync"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/rs/zerolog"
)

// Subscription receives the events that match its filter
type Subscription struct {
	ID     string
	Filter *Filter
	Events chan domain.Event
	ctx    context.Context
	cancel context.CancelFunc
}

// Filter narrows a subscription by event type and shop domain
type Filter struct {
	Types      []string
	ShopDomain string
}

// Bus fans events out to in-process subscribers without blocking publishers
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	nextID int64
	logger zerolog.Logger
}

var _ ports.EventPublisher = (*Bus)(nil)

// NewBus creates an empty bus
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{subs: make(map[string]*Subscription), logger: logger}
}

// Subscribe registers a buffered subscription that ends with ctx
func (b *Bus) Subscribe(ctx context.Context, filter *Filter, buffer int) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	b.nextID++
	sub := &Subscription{
		ID:     fmt.Sprintf("sub-%d", b.nextID),
		Filter: filter,
		Events: make(chan domain.Event, buffer),
		ctx:    subCtx,
		cancel: cancel,
	}
	b.subs[sub.ID] = sub
	b.mu.Unlock()

	go func() {
		<-subCtx.Done()
		b.Unsubscribe(sub.ID)
	}()
	return sub
}

// Unsubscribe removes a subscription and closes its channel
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	sub.cancel()
	close(sub.Events)
}

// Publish delivers event to every matching subscriber; full buffers drop it
func (b *Bus) Publish(_ context.Context, event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !matches(event, sub.Filter) {
			continue
		}
		select {
		case sub.Events <- event:
		default:
			b.logger.Warn().
				Str("subscription", sub.ID).
				Str("type", event.Type).
				Msg("Subscriber buffer full, dropping event")
		}
	}
	return nil
}

// Close ends every subscription
func (b *Bus) Close() error {
	b.mu.RLock()
	ids := make([]string, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	for _, id := range ids {
		b.Unsubscribe(id)
	}
	return nil
}

// Subscribers reports the number of live subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func matches(event domain.Event, filter *Filter) bool {
	if filter == nil {
		return true
	}
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if t == event.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return filter.ShopDomain == "" || filter.ShopDomain == event.ShopDomain
}

// AuditLog writes every event on the bus to logger until ctx ends
func AuditLog(ctx context.Context, bus *Bus, logger zerolog.Logger) {
	sub := bus.Subscribe(ctx, nil, 64)
	go func() {
		for event := range sub.Events {
			logger.Info().
				Str("type", event.Type).
				Str("shop", event.ShopDomain).
				Str("itemType", string(event.ItemType)).
				Str("itemId", event.ItemID).
				Str("chargeId", event.ChargeRef).
				Time("occurredAt", event.OccurredAt).
				Msg("Entitlement event")
		}
	}()
}
