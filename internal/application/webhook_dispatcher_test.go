package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"section-store/internal/domain"

	"github.com/rs/zerolog"
)

type countingHandler struct {
	topic string
	calls int
	err   error
}

func (h *countingHandler) CanHandle(topic string) bool { return topic == h.topic }

func (h *countingHandler) Handle(context.Context, *domain.WebhookEvent) error {
	h.calls++
	return h.err
}

type memoryDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memoryDeduper) Claim(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *memoryDeduper) Release(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
	return nil
}

func TestDispatcherDedupesDeliveries(t *testing.T) {
	handler := &countingHandler{topic: domain.TopicAppUninstalled}
	metrics := &fakeMetrics{}
	d := NewWebhookDispatcher(&memoryDeduper{}, metrics, zerolog.Nop())
	d.RegisterHandler(handler)

	event := &domain.WebhookEvent{ID: "delivery-1", Topic: domain.TopicAppUninstalled, Shop: "a.myshopify.com", Verified: true}
	for i := 0; i < 3; i++ {
		if err := d.Dispatch(context.Background(), event); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}
	if handler.calls != 1 {
		t.Errorf("handler calls = %d, want 1", handler.calls)
	}
	want := []string{"webhook:app/uninstalled:ok", "webhook:app/uninstalled:duplicate", "webhook:app/uninstalled:duplicate"}
	for i, got := range metrics.outcomes {
		if got != want[i] {
			t.Errorf("metric %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestDispatcherReleasesFailedDelivery(t *testing.T) {
	handler := &countingHandler{topic: domain.TopicShopRedact, err: errors.New("cascade")}
	d := NewWebhookDispatcher(&memoryDeduper{}, nil, zerolog.Nop())
	d.RegisterHandler(handler)

	event := &domain.WebhookEvent{ID: "delivery-2", Topic: domain.TopicShopRedact, Verified: true}
	if err := d.Dispatch(context.Background(), event); err == nil {
		t.Fatal("Dispatch() swallowed handler error")
	}
	handler.err = nil
	if err := d.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("retry Dispatch() error = %v", err)
	}
	if handler.calls != 2 {
		t.Errorf("handler calls = %d, want 2", handler.calls)
	}
}

func TestDispatcherIgnoresUnknownAndRejectsUnverified(t *testing.T) {
	d := NewWebhookDispatcher(nil, nil, zerolog.Nop())
	d.RegisterHandler(&countingHandler{topic: domain.TopicShopRedact})

	if err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "orders/create", Verified: true}); err != nil {
		t.Errorf("unknown topic error = %v", err)
	}
	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: domain.TopicShopRedact})
	if !errors.Is(err, domain.ErrInvalidSession) {
		t.Errorf("unverified error = %v, want ErrInvalidSession", err)
	}
}
