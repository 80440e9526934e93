package application

import (
	"context"
	"fmt"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookHandler processes one kind of webhook topic
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook events to their handlers.
// Deliveries carrying an id are processed at most once while the dedupe
// window lasts; a failed delivery releases its id so the retry runs.
type WebhookDispatcher struct {
	handlers []WebhookHandler
	deduper  ports.DeliveryDeduper
	metrics  ports.Metrics
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a dispatcher. A nil deduper disables dedupe.
func NewWebhookDispatcher(deduper ports.DeliveryDeduper, metrics ports.Metrics, logger zerolog.Logger) *WebhookDispatcher {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &WebhookDispatcher{
		deduper: deduper,
		metrics: metrics,
		logger:  logger,
	}
}

// RegisterHandler adds a handler
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Dispatch runs every handler that accepts the event's topic
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	if !event.Verified {
		d.metrics.WebhookProcessed(event.Topic, "rejected")
		return fmt.Errorf("%w: unverified webhook", domain.ErrInvalidSession)
	}

	var matched []WebhookHandler
	for _, handler := range d.handlers {
		if handler.CanHandle(event.Topic) {
			matched = append(matched, handler)
		}
	}
	if len(matched) == 0 {
		d.logger.Debug().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler for webhook topic")
		d.metrics.WebhookProcessed(event.Topic, "ignored")
		return nil
	}

	if event.ID != "" && d.deduper != nil {
		claimed, err := d.deduper.Claim(ctx, event.ID)
		if err != nil {
			d.logger.Warn().Err(err).Str("webhookId", event.ID).Msg("Webhook dedupe unavailable, processing anyway")
		} else if !claimed {
			d.logger.Info().
				Str("topic", event.Topic).
				Str("shop", event.Shop).
				Str("webhookId", event.ID).
				Msg("Duplicate webhook delivery skipped")
			d.metrics.WebhookProcessed(event.Topic, "duplicate")
			return nil
		}
	}

	for _, handler := range matched {
		if err := handler.Handle(ctx, event); err != nil {
			d.metrics.WebhookProcessed(event.Topic, "error")
			if event.ID != "" && d.deduper != nil {
				if releaseErr := d.deduper.Release(ctx, event.ID); releaseErr != nil {
					d.logger.Warn().Err(releaseErr).Str("webhookId", event.ID).Msg("Failed to release webhook id")
				}
			}
			return fmt.Errorf("failed to handle %s webhook: %w", event.Topic, err)
		}
	}

	d.metrics.WebhookProcessed(event.Topic, "ok")
	return nil
}
