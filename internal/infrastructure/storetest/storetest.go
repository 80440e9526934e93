// Package storetest holds the behaviour every ports.Store driver must share.
// Driver packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errRollback = errors.New("rollback")

// Run executes the suite against stores produced by newStore. Fixtures use
// random domains and slugs so drivers backed by a shared database can reuse it.
func Run(t *testing.T, newStore func(t *testing.T) ports.Store) {
	t.Run("ShopUpsertKeepsID", func(t *testing.T) { testShopUpsert(t, newStore(t)) })
	t.Run("PurchaseUniqueness", func(t *testing.T) { testPurchaseUniqueness(t, newStore(t)) })
	t.Run("PurchaseUpdateIfMatch", func(t *testing.T) { testUpdateIfMatch(t, newStore(t)) })
	t.Run("InstallationUpsert", func(t *testing.T) { testInstallationUpsert(t, newStore(t)) })
	t.Run("Counters", func(t *testing.T) { testCounters(t, newStore(t)) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("ShopScopedCleanup", func(t *testing.T) { testShopScopedCleanup(t, newStore(t)) })
	t.Run("Subscriptions", func(t *testing.T) { testSubscriptions(t, newStore(t)) })
}

func mustTx(t *testing.T, store ports.Store, fn ports.TxFunc) {
	t.Helper()
	if err := store.WithinTx(context.Background(), fn); err != nil {
		t.Fatalf("unit of work failed: %v", err)
	}
}

func seedShop(t *testing.T, store ports.Store) *domain.Shop {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	shop := &domain.Shop{
		Domain:      "shop-" + uuid.NewString()[:8] + ".myshopify.com",
		AccessToken: "sealed",
		Scopes:      []string{"read_themes", "write_themes"},
		IsActive:    true,
		InstalledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		return tx.Shops().Upsert(ctx, shop)
	})
	return shop
}

func seedSection(t *testing.T, store ports.Store, price int64) *domain.Section {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	section := &domain.Section{
		Name:      "Hero " + uuid.NewString()[:6],
		Slug:      "hero-" + uuid.NewString()[:8],
		Price:     decimal.New(price, 0),
		IsActive:  true,
		Content:   "{% schema %}{}{% endschema %}",
		CreatedAt: now,
		UpdatedAt: now,
	}
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		return tx.Catalog().UpsertSection(ctx, section)
	})
	return section
}

func newPurchase(shopID, sectionID string) *domain.Purchase {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Purchase{
		ID:           uuid.NewString(),
		ShopID:       shopID,
		ItemType:     domain.ItemSection,
		ItemID:       sectionID,
		Price:        decimal.New(29, 0),
		Currency:     domain.DefaultCurrency,
		Status:       domain.PurchasePending,
		AttemptToken: uuid.NewString(),
		AttemptedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func testShopUpsert(t *testing.T, store ports.Store) {
	shop := seedShop(t, store)
	again := *shop
	again.ID = ""
	again.AccessToken = "rotated"
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		return tx.Shops().Upsert(ctx, &again)
	})
	if again.ID != shop.ID {
		t.Fatalf("upsert id = %q, want %q", again.ID, shop.ID)
	}
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		got, err := tx.Shops().GetByDomain(ctx, shop.Domain)
		if err != nil {
			return err
		}
		if got == nil || got.AccessToken != "rotated" {
			t.Errorf("GetByDomain = %+v, want rotated token", got)
		}
		missing, err := tx.Shops().GetByDomain(ctx, "missing.myshopify.com")
		if err != nil {
			return err
		}
		if missing != nil {
			t.Errorf("GetByDomain(missing) = %+v, want nil", missing)
		}
		return nil
	})
}

func testPurchaseUniqueness(t *testing.T, store ports.Store) {
	shop := seedShop(t, store)
	section := seedSection(t, store, 29)
	first := newPurchase(shop.ID, section.ID)
	first.ChargeRef = "ch_" + uuid.NewString()
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		return tx.Purchases().Insert(ctx, first)
	})

	tests := []struct {
		name   string
		mutate func(p *domain.Purchase)
	}{
		{"same shop and item", func(p *domain.Purchase) {}},
		{"same charge ref", func(p *domain.Purchase) {
			p.ItemID = uuid.NewString()
			p.ChargeRef = first.ChargeRef
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dup := newPurchase(shop.ID, section.ID)
			tt.mutate(dup)
			err := store.WithinTx(context.Background(), func(ctx context.Context, tx ports.Tx) error {
				return tx.Purchases().Insert(ctx, dup)
			})
			if !errors.Is(err, domain.ErrConflict) {
				t.Fatalf("Insert error = %v, want ErrConflict", err)
			}
		})
	}

	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		got, err := tx.Purchases().GetByChargeRef(ctx, first.ChargeRef)
		if err != nil {
			return err
		}
		if got == nil || got.ID != first.ID || !got.Price.Equal(first.Price) {
			t.Errorf("GetByChargeRef = %+v, want %s", got, first.ID)
		}
		return nil
	})
}

func testUpdateIfMatch(t *testing.T, store ports.Store) {
	shop := seedShop(t, store)
	section := seedSection(t, store, 29)
	p := newPurchase(shop.ID, section.ID)
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		return tx.Purchases().Insert(ctx, p)
	})

	staleToken := p.AttemptToken
	next := *p
	next.AttemptToken = uuid.NewString()
	next.ChargeRef = "ch_" + uuid.NewString()

	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		ok, err := tx.Purchases().UpdateIfMatch(ctx, &next, domain.PurchasePending, staleToken)
		if err != nil {
			return err
		}
		if !ok {
			t.Error("first UpdateIfMatch = false, want true")
		}
		ok, err = tx.Purchases().UpdateIfMatch(ctx, &next, domain.PurchasePending, staleToken)
		if err != nil {
			return err
		}
		if ok {
			t.Error("UpdateIfMatch with stale token = true, want false")
		}
		ok, err = tx.Purchases().UpdateIfMatch(ctx, &next, domain.PurchaseFailed, next.AttemptToken)
		if err != nil {
			return err
		}
		if ok {
			t.Error("UpdateIfMatch with wrong status = true, want false")
		}
		return nil
	})

	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		got, err := tx.Purchases().Get(ctx, shop.ID, domain.ItemSection, section.ID)
		if err != nil {
			return err
		}
		if got.ChargeRef != next.ChargeRef || got.AttemptToken != next.AttemptToken {
			t.Errorf("stored entry = %+v, want charge %s", got, next.ChargeRef)
		}
		return nil
	})
}

func testInstallationUpsert(t *testing.T, store ports.Store) {
	shop := seedShop(t, store)
	section := seedSection(t, store, 0)
	now := time.Now().UTC().Truncate(time.Millisecond)

	install := func(themeID string) bool {
		var created bool
		mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
			var err error
			created, err = tx.Installations().Upsert(ctx, &domain.Installation{
				ShopID: shop.ID, SectionID: section.ID, ThemeID: themeID, ThemeName: "Dawn",
				IsActive: true, InstalledAt: now, CreatedAt: now, UpdatedAt: now,
			})
			return err
		})
		return created
	}

	if !install("t1") {
		t.Error("first install created = false")
	}
	if install("t1") {
		t.Error("repeat install created = true")
	}
	if !install("t2") {
		t.Error("second theme created = false")
	}

	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		rows, err := tx.Installations().ListByShop(ctx, shop.ID)
		if err != nil {
			return err
		}
		if len(rows) != 2 {
			t.Errorf("installations = %d, want 2", len(rows))
		}
		return nil
	})
}

func testCounters(t *testing.T, store ports.Store) {
	section := seedSection(t, store, 29)
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		for i := 0; i < 3; i++ {
			if err := tx.Catalog().IncrementSectionPurchases(ctx, section.ID); err != nil {
				return err
			}
		}
		return tx.Catalog().IncrementSectionInstalls(ctx, section.ID)
	})
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		got, err := tx.Catalog().GetSection(ctx, section.ID)
		if err != nil {
			return err
		}
		if got.PurchaseCount != 3 || got.InstallCount != 1 {
			t.Errorf("counters = %d/%d, want 3/1", got.PurchaseCount, got.InstallCount)
		}
		return nil
	})
}

func testRollback(t *testing.T, store ports.Store) {
	shop := seedShop(t, store)
	section := seedSection(t, store, 29)
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx ports.Tx) error {
		if err := tx.Purchases().Insert(ctx, newPurchase(shop.ID, section.ID)); err != nil {
			return err
		}
		if err := tx.Catalog().IncrementSectionPurchases(ctx, section.ID); err != nil {
			return err
		}
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("WithinTx error = %v, want rollback", err)
	}
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		p, err := tx.Purchases().Get(ctx, shop.ID, domain.ItemSection, section.ID)
		if err != nil {
			return err
		}
		if p != nil {
			t.Errorf("purchase survived rollback: %+v", p)
		}
		s, err := tx.Catalog().GetSection(ctx, section.ID)
		if err != nil {
			return err
		}
		if s.PurchaseCount != 0 {
			t.Errorf("purchase count = %d after rollback, want 0", s.PurchaseCount)
		}
		return nil
	})
}

func testShopScopedCleanup(t *testing.T, store ports.Store) {
	shop := seedShop(t, store)
	section := seedSection(t, store, 29)
	now := time.Now().UTC().Truncate(time.Millisecond)

	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.Purchases().Insert(ctx, newPurchase(shop.ID, section.ID)); err != nil {
			return err
		}
		bundlePurchase := newPurchase(shop.ID, uuid.NewString())
		bundlePurchase.ItemType = domain.ItemBundle
		if err := tx.Purchases().Insert(ctx, bundlePurchase); err != nil {
			return err
		}
		if err := tx.Favorites().Insert(ctx, &domain.Favorite{ShopID: shop.ID, SectionID: section.ID, CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.Backoffice().CreateSupportTicket(ctx, &domain.SupportTicket{ShopID: shop.ID, Subject: "help", CreatedAt: now}); err != nil {
			return err
		}
		return tx.Backoffice().CreateFeatureRequest(ctx, &domain.FeatureRequest{ShopDomain: shop.Domain, Title: "more", CreatedAt: now})
	})

	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		checks := []struct {
			name string
			run  func() (int64, error)
		}{
			{"bundle purchases", func() (int64, error) { return tx.Purchases().DeleteByShop(ctx, shop.ID, domain.ItemBundle) }},
			{"section purchases", func() (int64, error) { return tx.Purchases().DetachShop(ctx, shop.ID, domain.ItemSection) }},
			{"favorites", func() (int64, error) { return tx.Favorites().DeleteByShop(ctx, shop.ID) }},
			{"tickets", func() (int64, error) { return tx.Backoffice().DeleteSupportTickets(ctx, shop.ID) }},
			{"feature requests", func() (int64, error) { return tx.Backoffice().DeleteFeatureRequests(ctx, shop.Domain) }},
		}
		for _, c := range checks {
			n, err := c.run()
			if err != nil {
				return err
			}
			if n != 1 {
				t.Errorf("%s affected = %d, want 1", c.name, n)
			}
		}
		return tx.Shops().Delete(ctx, shop.ID)
	})

	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		rows, err := tx.Purchases().ListByShop(ctx, shop.ID)
		if err != nil {
			return err
		}
		if len(rows) != 0 {
			t.Errorf("purchases still scoped to shop: %d", len(rows))
		}
		got, err := tx.Shops().GetByID(ctx, shop.ID)
		if err != nil {
			return err
		}
		if got != nil {
			t.Errorf("shop survived delete: %+v", got)
		}
		return nil
	})
}

func testSubscriptions(t *testing.T, store ports.Store) {
	shop := seedShop(t, store)
	now := time.Now().UTC().Truncate(time.Millisecond)
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		return tx.Subscriptions().Create(ctx, &domain.Subscription{
			ShopID: shop.ID, PlanName: "Plus", Price: decimal.New(19, 0),
			Status: domain.SubscriptionTrial, StartedAt: now, CreatedAt: now, UpdatedAt: now,
		})
	})
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		live, err := tx.Subscriptions().GetLive(ctx, shop.ID)
		if err != nil {
			return err
		}
		if live == nil {
			t.Fatal("GetLive = nil, want trial subscription")
		}
		n, err := tx.Subscriptions().CancelLive(ctx, shop.ID, now)
		if err != nil {
			return err
		}
		if n != 1 {
			t.Errorf("CancelLive = %d, want 1", n)
		}
		return nil
	})
	mustTx(t, store, func(ctx context.Context, tx ports.Tx) error {
		live, err := tx.Subscriptions().GetLive(ctx, shop.ID)
		if err != nil {
			return err
		}
		if live != nil {
			t.Errorf("GetLive after cancel = %+v, want nil", live)
		}
		return nil
	})
}
