package webhook_handlers

import (
	"context"
	"fmt"

	"section-store/internal/domain"

	"github.com/rs/zerolog"
)

// ShopEraser removes everything stored for a shop
type ShopEraser interface {
	OnShopRedact(ctx context.Context, shopDomain string) error
}

// ShopRedactHandler handles shop/redact, sent 48 hours after uninstall
type ShopRedactHandler struct {
	logger zerolog.Logger
	eraser ShopEraser
}

// NewShopRedactHandler creates a new shop redact webhook handler
func NewShopRedactHandler(logger zerolog.Logger, eraser ShopEraser) *ShopRedactHandler {
	return &ShopRedactHandler{
		logger: logger,
		eraser: eraser,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ShopRedactHandler) CanHandle(topic string) bool {
	return topic == domain.TopicShopRedact
}

// Handle processes a shop redact webhook event
func (h *ShopRedactHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain, err := shopDomainOf(event)
	if err != nil {
		return fmt.Errorf("failed to parse shop redact webhook payload: %w", err)
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("Processing shop redact webhook event")

	return h.eraser.OnShopRedact(ctx, shopDomain)
}
