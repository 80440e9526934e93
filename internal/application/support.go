package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/rs/zerolog"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC
func SystemClock() ports.Clock { return systemClock{} }

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) PurchaseOutcome(domain.ItemType, string) {}
func (NopMetrics) InstallOutcome(string)                   {}
func (NopMetrics) WebhookProcessed(string, string)         {}

// activeShop loads a shop that currently has the app installed
func activeShop(ctx context.Context, tx ports.Tx, shopDomain string) (*domain.Shop, error) {
	shop, err := tx.Shops().GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil || !shop.IsActive {
		return nil, fmt.Errorf("%w: %s", domain.ErrShopNotFound, shopDomain)
	}
	return shop, nil
}

func publish(ctx context.Context, events ports.EventPublisher, logger zerolog.Logger, event domain.Event) {
	if err := events.Publish(ctx, event); err != nil {
		logger.Warn().
			Err(err).
			Str("event", event.Type).
			Str("shop", event.ShopDomain).
			Msg("Failed to publish domain event")
	}
}

// outcome names a result for metrics labels
func outcome(err error, fallback string) string {
	switch {
	case err == nil:
		return fallback
	case errors.Is(err, domain.ErrAlreadyOwned):
		return "already_owned"
	case errors.Is(err, domain.ErrPurchaseInFlight):
		return "in_flight"
	case errors.Is(err, domain.ErrBillingUnavailable):
		return "billing_unavailable"
	case errors.Is(err, domain.ErrNotEntitled):
		return "not_entitled"
	case errors.Is(err, domain.ErrInstallWriteFailed):
		return "write_failed"
	case domain.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
