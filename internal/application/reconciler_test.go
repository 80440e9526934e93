package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/google/uuid"
)

// ownedAndInstalled gives the harness shop a bit of everything
func ownedAndInstalled(t *testing.T, h *harness) (*domain.Section, *domain.Bundle) {
	t.Helper()
	ctx := context.Background()
	section := h.seedSection(t, "Hero Banner", 0)
	bundled := h.seedSection(t, "Pricing", 10)
	bundle := h.seedBundle(t, "Starter", 0, bundled)

	if _, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID); err != nil {
		t.Fatalf("InitiatePurchase() error = %v", err)
	}
	if _, err := h.ledger.InitiateBundlePurchase(ctx, h.shop.Domain, bundle.ID); err != nil {
		t.Fatalf("InitiateBundlePurchase() error = %v", err)
	}
	if _, err := h.installer.Install(ctx, h.shop.Domain, section.ID, "101"); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	h.seedSubscription(t, h.shop, domain.SubscriptionActive)

	now := h.clock.Now()
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.Favorites().Insert(ctx, &domain.Favorite{ID: uuid.NewString(), ShopID: h.shop.ID, SectionID: section.ID, CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.Backoffice().CreateSupportTicket(ctx, &domain.SupportTicket{ID: uuid.NewString(), ShopID: h.shop.ID, Subject: "Help", Message: "Banner overlaps", Status: "open", CreatedAt: now}); err != nil {
			return err
		}
		return tx.Backoffice().CreateFeatureRequest(ctx, &domain.FeatureRequest{ID: uuid.NewString(), ShopDomain: h.shop.Domain, Title: "Dark mode", Votes: 1, CreatedAt: now})
	})
	return section, bundle
}

func (h *harness) storedShop(t *testing.T, id string) *domain.Shop {
	t.Helper()
	var shop *domain.Shop
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		var err error
		shop, err = tx.Shops().GetByID(ctx, id)
		return err
	})
	return shop
}

func TestOnAppUninstalledKeepsEntitlements(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section, _ := ownedAndInstalled(t, h)

	if err := h.reconciler.OnAppUninstalled(ctx, h.shop.Domain); err != nil {
		t.Fatalf("OnAppUninstalled() error = %v", err)
	}

	shop := h.storedShop(t, h.shop.ID)
	if shop.IsActive || shop.AccessToken != "" || shop.UninstalledAt == nil {
		t.Errorf("shop after uninstall = %+v", shop)
	}
	if !h.entitled(t, h.shop.ID, section.ID) {
		t.Error("purchases must survive uninstall")
	}
	var live *domain.Subscription
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		var err error
		live, err = tx.Subscriptions().GetLive(ctx, h.shop.ID)
		return err
	})
	if live != nil {
		t.Error("uninstall must cancel live subscriptions")
	}
	if h.events.count(domain.EventShopUninstalled) != 1 {
		t.Errorf("shop.uninstalled events = %d", h.events.count(domain.EventShopUninstalled))
	}

	if _, err := h.ledger.ListPurchases(ctx, h.shop.Domain); !errors.Is(err, domain.ErrShopNotFound) {
		t.Errorf("ListPurchases() on uninstalled shop error = %v", err)
	}
}

func TestLifecycleForUnknownShopIsNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ghost := "ghost.myshopify.com"

	if err := h.reconciler.OnAppUninstalled(ctx, ghost); err != nil {
		t.Errorf("OnAppUninstalled() error = %v", err)
	}
	summary, err := h.reconciler.OnCustomersDataRequest(ctx, ghost)
	if err != nil || summary != nil {
		t.Errorf("OnCustomersDataRequest() = %v, %v", summary, err)
	}
	if err := h.reconciler.OnCustomersRedact(ctx, ghost); err != nil {
		t.Errorf("OnCustomersRedact() error = %v", err)
	}
	if err := h.reconciler.OnShopRedact(ctx, ghost); err != nil {
		t.Errorf("OnShopRedact() error = %v", err)
	}
	if len(h.events.events) != 0 {
		t.Errorf("events for unknown shop: %+v", h.events.events)
	}
}

func TestOnCustomersDataRequest(t *testing.T) {
	h := newHarness(t)
	ownedAndInstalled(t, h)
	h.clock.Advance(5)

	summary, err := h.reconciler.OnCustomersDataRequest(context.Background(), h.shop.Domain)
	if err != nil {
		t.Fatalf("OnCustomersDataRequest() error = %v", err)
	}
	want := domain.ShopDataSummary{
		ShopID:          h.shop.ID,
		Domain:          h.shop.Domain,
		Purchases:       2,
		Installations:   1,
		Favorites:       1,
		SupportTickets:  1,
		HasSubscription: true,
	}
	if *summary != want {
		t.Errorf("summary = %+v, want %+v", *summary, want)
	}
	if shop := h.storedShop(t, h.shop.ID); !shop.UpdatedAt.Equal(h.clock.Now()) {
		t.Errorf("shop not touched: %v", shop.UpdatedAt)
	}
}

func TestOnCustomersRedactAnonymisesShop(t *testing.T) {
	h := newHarness(t)
	section, _ := ownedAndInstalled(t, h)

	if err := h.reconciler.OnCustomersRedact(context.Background(), h.shop.Domain); err != nil {
		t.Fatalf("OnCustomersRedact() error = %v", err)
	}
	shop := h.storedShop(t, h.shop.ID)
	if !shop.IsRedacted() || shop.Domain != domain.RedactedDomain(h.shop.Domain) {
		t.Errorf("domain = %q, want redacted", shop.Domain)
	}
	if strings.Contains(shop.Domain, "acme") {
		t.Errorf("redacted domain %q still names the shop", shop.Domain)
	}
	if shop.AccessToken != "" || len(shop.Scopes) != 0 || shop.IsActive {
		t.Errorf("shop after redact = %+v", shop)
	}
	if got := h.section(t, section.ID).PurchaseCount; got != 1 {
		t.Errorf("catalog counter changed to %d", got)
	}
}

func TestShopRedactAfterCustomersRedact(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ownedAndInstalled(t, h)

	if err := h.reconciler.OnCustomersRedact(ctx, h.shop.Domain); err != nil {
		t.Fatalf("OnCustomersRedact() error = %v", err)
	}
	if err := h.reconciler.OnShopRedact(ctx, h.shop.Domain); err != nil {
		t.Fatalf("OnShopRedact() error = %v", err)
	}
	if shop := h.storedShop(t, h.shop.ID); shop != nil {
		t.Errorf("anonymised shop survived shop redact: %+v", shop)
	}
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		installs, err := tx.Installations().ListByShop(ctx, h.shop.ID)
		if err != nil {
			return err
		}
		if len(installs) != 0 {
			t.Errorf("installations left: %d", len(installs))
		}
		return nil
	})
	if h.events.count(domain.EventShopRedacted) != 1 {
		t.Errorf("shop.redacted events = %d, want 1", h.events.count(domain.EventShopRedacted))
	}
}

func TestRedactedDomain(t *testing.T) {
	a := domain.RedactedDomain("acme.myshopify.com")
	if a != domain.RedactedDomain("ACME.myshopify.com") {
		t.Error("redacted domain must not depend on case")
	}
	if a == domain.RedactedDomain("other.myshopify.com") {
		t.Error("different shops share a redacted domain")
	}
}

func TestOnShopRedactErasesShopData(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section, bundle := ownedAndInstalled(t, h)

	if err := h.reconciler.OnShopRedact(ctx, h.shop.Domain); err != nil {
		t.Fatalf("OnShopRedact() error = %v", err)
	}

	if shop := h.storedShop(t, h.shop.ID); shop != nil {
		t.Errorf("shop survived redact: %+v", shop)
	}
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		purchases, err := tx.Purchases().ListByShop(ctx, h.shop.ID)
		if err != nil {
			return err
		}
		if len(purchases) != 0 {
			t.Errorf("purchases still linked to shop: %d", len(purchases))
		}
		installs, err := tx.Installations().ListByShop(ctx, h.shop.ID)
		if err != nil {
			return err
		}
		if len(installs) != 0 {
			t.Errorf("installations left: %d", len(installs))
		}
		favorites, err := tx.Favorites().CountByShop(ctx, h.shop.ID)
		if err != nil {
			return err
		}
		tickets, err := tx.Backoffice().CountSupportTickets(ctx, h.shop.ID)
		if err != nil {
			return err
		}
		if favorites != 0 || tickets != 0 {
			t.Errorf("favorites = %d, tickets = %d", favorites, tickets)
		}
		return nil
	})

	if got := h.section(t, section.ID).PurchaseCount; got != 1 {
		t.Errorf("section purchase count = %d, want 1", got)
	}
	var stored *domain.Bundle
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		var err error
		stored, err = tx.Catalog().GetBundle(ctx, bundle.ID)
		return err
	})
	if stored.PurchaseCount != 1 {
		t.Errorf("bundle purchase count = %d, want 1", stored.PurchaseCount)
	}
	if h.events.count(domain.EventShopRedacted) != 1 {
		t.Errorf("shop.redacted events = %d", h.events.count(domain.EventShopRedacted))
	}

	// a later install of the same domain starts from nothing
	fresh := h.seedShop(t, h.shop.Domain)
	if fresh.ID == h.shop.ID {
		t.Error("redacted shop id reused")
	}
	if h.entitled(t, fresh.ID, section.ID) {
		t.Error("redacted purchases leaked into the new shop")
	}
}

func TestOnShopRedactIsAllOrNothing(t *testing.T) {
	steps := []string{
		"favorites.delete",
		"installations.delete",
		"purchases.delete",
		"subscriptions.delete",
		"purchases.detach",
		"shops.delete",
	}

	for _, op := range steps {
		t.Run(op, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			section, _ := ownedAndInstalled(t, h)

			h.store.FailOn(op, errors.New("connection reset"))
			err := h.reconciler.OnShopRedact(ctx, h.shop.Domain)
			if !errors.Is(err, domain.ErrCascadeFailure) {
				t.Fatalf("OnShopRedact() error = %v, want ErrCascadeFailure", err)
			}
			h.store.FailOn(op, nil)

			if shop := h.storedShop(t, h.shop.ID); shop == nil {
				t.Fatal("shop deleted despite failure")
			}
			if !h.entitled(t, h.shop.ID, section.ID) {
				t.Error("purchases changed despite failure")
			}
			summary, err := h.reconciler.OnCustomersDataRequest(ctx, h.shop.Domain)
			if err != nil {
				t.Fatalf("OnCustomersDataRequest() error = %v", err)
			}
			if summary.Purchases != 2 || summary.Installations != 1 || summary.Favorites != 1 || !summary.HasSubscription {
				t.Errorf("data changed despite failure: %+v", summary)
			}
			if h.events.count(domain.EventShopRedacted) != 0 {
				t.Error("shop.redacted published for a rolled back redact")
			}
		})
	}
}
