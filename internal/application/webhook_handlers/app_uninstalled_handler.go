package webhook_handlers

import (
	"context"
	"fmt"

	"section-store/internal/domain"

	"github.com/rs/zerolog"
)

// UninstallReconciler reacts to the app being removed from a shop
type UninstallReconciler interface {
	OnAppUninstalled(ctx context.Context, shopDomain string) error
}

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger     zerolog.Logger
	reconciler UninstallReconciler
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger, reconciler UninstallReconciler) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:     logger,
		reconciler: reconciler,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle processes an app uninstalled webhook event
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain, err := shopDomainOf(event)
	if err != nil {
		return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("Processing app uninstalled webhook event")

	return h.reconciler.OnAppUninstalled(ctx, shopDomain)
}
