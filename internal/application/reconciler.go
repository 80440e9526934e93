package application

import (
	"context"
	"fmt"
	"time"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/rs/zerolog"
)

// Reconciler applies platform lifecycle notifications to stored state.
// Notifications for unknown shops are acknowledged without changes so the
// platform stops retrying them.
type Reconciler struct {
	store  ports.Store
	events ports.EventPublisher
	clock  ports.Clock
	logger zerolog.Logger
}

// NewReconciler creates a lifecycle reconciler
func NewReconciler(store ports.Store, events ports.EventPublisher, clock ports.Clock, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		events: events,
		clock:  clock,
		logger: logger,
	}
}

// OnAppUninstalled deactivates the shop and cancels its live subscriptions.
// Purchases and installations are kept so a reinstall restores them.
func (r *Reconciler) OnAppUninstalled(ctx context.Context, shopDomain string) error {
	now := r.clock.Now()
	var shop *domain.Shop
	var cancelled int64
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		shop, err = tx.Shops().GetByDomain(ctx, shopDomain)
		if err != nil {
			return fmt.Errorf("failed to get shop: %w", err)
		}
		if shop == nil {
			return nil
		}
		uninstalledAt := now
		shop.IsActive = false
		shop.UninstalledAt = &uninstalledAt
		shop.AccessToken = ""
		shop.UpdatedAt = now
		if err := tx.Shops().Update(ctx, shop); err != nil {
			return fmt.Errorf("failed to deactivate shop: %w", err)
		}
		cancelled, err = tx.Subscriptions().CancelLive(ctx, shop.ID, now)
		if err != nil {
			return fmt.Errorf("failed to cancel subscriptions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if shop == nil {
		r.logger.Info().Str("shop", shopDomain).Msg("Uninstall for unknown shop ignored")
		return nil
	}

	r.logger.Info().
		Str("shop", shopDomain).
		Int64("cancelledSubscriptions", cancelled).
		Msg("App uninstalled, shop deactivated")
	r.announce(ctx, domain.EventShopUninstalled, shop, now)
	return nil
}

// OnCustomersDataRequest compiles what is stored about the shop and touches it.
// Delivering the compiled data happens outside this service.
func (r *Reconciler) OnCustomersDataRequest(ctx context.Context, shopDomain string) (*domain.ShopDataSummary, error) {
	now := r.clock.Now()
	var summary *domain.ShopDataSummary
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		summary = nil
		shop, err := tx.Shops().GetByDomain(ctx, shopDomain)
		if err != nil {
			return fmt.Errorf("failed to get shop: %w", err)
		}
		if shop == nil {
			return nil
		}

		purchases, err := tx.Purchases().ListByShop(ctx, shop.ID)
		if err != nil {
			return fmt.Errorf("failed to list purchases: %w", err)
		}
		installations, err := tx.Installations().ListByShop(ctx, shop.ID)
		if err != nil {
			return fmt.Errorf("failed to list installations: %w", err)
		}
		favorites, err := tx.Favorites().CountByShop(ctx, shop.ID)
		if err != nil {
			return fmt.Errorf("failed to count favorites: %w", err)
		}
		tickets, err := tx.Backoffice().CountSupportTickets(ctx, shop.ID)
		if err != nil {
			return fmt.Errorf("failed to count support tickets: %w", err)
		}
		sub, err := tx.Subscriptions().GetLive(ctx, shop.ID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		summary = &domain.ShopDataSummary{
			ShopID:          shop.ID,
			Domain:          shop.Domain,
			Purchases:       len(purchases),
			Installations:   len(installations),
			Favorites:       int(favorites),
			SupportTickets:  int(tickets),
			HasSubscription: sub != nil,
		}

		shop.UpdatedAt = now
		if err := tx.Shops().Update(ctx, shop); err != nil {
			return fmt.Errorf("failed to touch shop: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if summary == nil {
		r.logger.Info().Str("shop", shopDomain).Msg("Data request for unknown shop ignored")
		return nil, nil
	}

	r.logger.Info().
		Str("shop", shopDomain).
		Interface("data", summary).
		Msg("Customer data request compiled")
	return summary, nil
}

// OnCustomersRedact anonymises the shop record. Catalog counters and ledger
// entries are left as they are.
func (r *Reconciler) OnCustomersRedact(ctx context.Context, shopDomain string) error {
	now := r.clock.Now()
	var found bool
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		shop, err := tx.Shops().GetByDomain(ctx, shopDomain)
		if err != nil {
			return fmt.Errorf("failed to get shop: %w", err)
		}
		found = shop != nil
		if !found {
			return nil
		}
		shop.Domain = domain.RedactedDomain(shopDomain)
		shop.AccessToken = ""
		shop.Scopes = nil
		shop.IsActive = false
		shop.UpdatedAt = now
		if err := tx.Shops().Update(ctx, shop); err != nil {
			return fmt.Errorf("failed to redact shop: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		r.logger.Info().Str("shop", shopDomain).Msg("Customer redact for unknown shop ignored")
		return nil
	}
	r.logger.Info().Str("shop", shopDomain).Msg("Shop record anonymised")
	return nil
}

// OnShopRedact erases everything scoped to the shop in one unit of work.
// Section ledger entries are detached rather than deleted so catalog history
// survives. Any failure leaves the store untouched.
func (r *Reconciler) OnShopRedact(ctx context.Context, shopDomain string) error {
	var shop *domain.Shop
	counts := map[string]int64{}
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		shop, err = tx.Shops().GetByDomain(ctx, shopDomain)
		if err != nil {
			return fmt.Errorf("failed to get shop: %w", err)
		}
		if shop == nil {
			// anonymised earlier by customers/redact
			shop, err = tx.Shops().GetByDomain(ctx, domain.RedactedDomain(shopDomain))
			if err != nil {
				return fmt.Errorf("failed to get shop: %w", err)
			}
		}
		if shop == nil {
			return nil
		}

		steps := []struct {
			name string
			run  func() (int64, error)
		}{
			{"favorites", func() (int64, error) { return tx.Favorites().DeleteByShop(ctx, shop.ID) }},
			{"installations", func() (int64, error) { return tx.Installations().DeleteByShop(ctx, shop.ID) }},
			{"featureRequests", func() (int64, error) { return tx.Backoffice().DeleteFeatureRequests(ctx, shopDomain) }},
			{"supportTickets", func() (int64, error) { return tx.Backoffice().DeleteSupportTickets(ctx, shop.ID) }},
			{"bundlePurchases", func() (int64, error) { return tx.Purchases().DeleteByShop(ctx, shop.ID, domain.ItemBundle) }},
			{"subscriptions", func() (int64, error) { return tx.Subscriptions().DeleteByShop(ctx, shop.ID) }},
			{"detachedPurchases", func() (int64, error) { return tx.Purchases().DetachShop(ctx, shop.ID, domain.ItemSection) }},
		}
		for _, step := range steps {
			n, err := step.run()
			if err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
			counts[step.name] = n
		}
		if err := tx.Shops().Delete(ctx, shop.ID); err != nil {
			return fmt.Errorf("shop: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("shop", shopDomain).
			Msg("Shop redaction rolled back, manual follow-up required")
		return fmt.Errorf("%w: %v", domain.ErrCascadeFailure, err)
	}
	if shop == nil {
		r.logger.Info().Str("shop", shopDomain).Msg("Shop redact for unknown shop ignored")
		return nil
	}

	event := r.logger.Info().Str("shop", shopDomain)
	for name, n := range counts {
		event = event.Int64(name, n)
	}
	event.Msg("Shop redacted")
	r.announce(ctx, domain.EventShopRedacted, shop, r.clock.Now())
	return nil
}

func (r *Reconciler) announce(ctx context.Context, eventType string, shop *domain.Shop, at time.Time) {
	publish(ctx, r.events, r.logger, domain.Event{
		Type:       eventType,
		ShopID:     shop.ID,
		ShopDomain: shop.Domain,
		OccurredAt: at,
	})
}
