package webhook_handlers

import (
	"context"
	"fmt"

	"section-store/internal/domain"

	"github.com/rs/zerolog"
)

// PrivacyReconciler answers the customer privacy topics
type PrivacyReconciler interface {
	OnCustomersDataRequest(ctx context.Context, shopDomain string) (*domain.ShopDataSummary, error)
	OnCustomersRedact(ctx context.Context, shopDomain string) error
}

// CustomerHandler handles the customer privacy webhook events
type CustomerHandler struct {
	logger     zerolog.Logger
	reconciler PrivacyReconciler
}

// NewCustomerHandler creates a new customer webhook handler
func NewCustomerHandler(logger zerolog.Logger, reconciler PrivacyReconciler) *CustomerHandler {
	return &CustomerHandler{
		logger:     logger,
		reconciler: reconciler,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == domain.TopicCustomersDataRequest ||
		topic == domain.TopicCustomersRedact
}

// Handle processes a customer webhook event
func (h *CustomerHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain, err := shopDomainOf(event)
	if err != nil {
		return fmt.Errorf("failed to parse customer webhook payload: %w", err)
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("Processing customer webhook event")

	switch event.Topic {
	case domain.TopicCustomersDataRequest:
		_, err = h.reconciler.OnCustomersDataRequest(ctx, shopDomain)
	case domain.TopicCustomersRedact:
		err = h.reconciler.OnCustomersRedact(ctx, shopDomain)
	}
	return err
}
