package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestPricedPurchaseLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hero := h.seedSection(t, "Hero Banner", 29)

	result, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, hero.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() error = %v", err)
	}
	if !result.Pending() || result.ConfirmationURL == "" {
		t.Fatalf("InitiatePurchase() = %+v, want pending with confirmation url", result)
	}
	if result.Reused {
		t.Error("first attempt reported as reused")
	}

	if h.billing.created() != 1 {
		t.Fatalf("charges created = %d, want 1", h.billing.created())
	}
	req := h.billing.requests[0]
	if !req.Amount.Equal(decimal.New(29, 0)) || req.Currency != "USD" {
		t.Errorf("charge amount = %s %s, want 29 USD", req.Amount, req.Currency)
	}
	if req.Name != "Hero Banner Section" {
		t.Errorf("charge name = %q", req.Name)
	}
	if !strings.Contains(req.ReturnURL, "shop=acme.myshopify.com") || !req.Test {
		t.Errorf("charge request = %+v", req)
	}
	if h.entitled(t, h.shop.ID, hero.ID) {
		t.Fatal("pending purchase must not entitle")
	}

	chargeRef := result.Purchase.ChargeRef
	h.billing.setStatus(chargeRef, ports.ChargeActive)

	confirmed, err := h.ledger.ConfirmPurchase(ctx, h.shop.Domain, chargeRef)
	if err != nil {
		t.Fatalf("ConfirmPurchase() error = %v", err)
	}
	if confirmed.Status != domain.PurchaseCompleted || confirmed.CompletedAt == nil {
		t.Fatalf("confirmed purchase = %+v", confirmed)
	}
	if got := h.section(t, hero.ID).PurchaseCount; got != 1 {
		t.Errorf("purchase count = %d, want 1", got)
	}
	if !h.entitled(t, h.shop.ID, hero.ID) {
		t.Error("completed purchase must entitle")
	}

	again, err := h.ledger.ConfirmPurchase(ctx, h.shop.Domain, chargeRef)
	if err != nil {
		t.Fatalf("second ConfirmPurchase() error = %v", err)
	}
	if again.ID != confirmed.ID {
		t.Errorf("second confirm returned %s, want %s", again.ID, confirmed.ID)
	}
	if got := h.section(t, hero.ID).PurchaseCount; got != 1 {
		t.Errorf("purchase count after repeat confirm = %d, want 1", got)
	}
	if got := h.events.count(domain.EventPurchaseCompleted); got != 1 {
		t.Errorf("purchase.completed events = %d, want 1", got)
	}

	if _, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, hero.ID); !errors.Is(err, domain.ErrAlreadyOwned) {
		t.Fatalf("InitiatePurchase() after completion error = %v, want ErrAlreadyOwned", err)
	}
	if h.billing.created() != 1 {
		t.Errorf("charges created = %d, want 1", h.billing.created())
	}
}

func TestPendingAttemptPolicy(t *testing.T) {
	tests := []struct {
		name        string
		status      ports.ChargeStatus
		wantErr     error
		wantReused  bool
		wantCharges int
	}{
		{name: "live charge is reused", status: ports.ChargePending, wantReused: true, wantCharges: 1},
		{name: "declined charge is replaced", status: ports.ChargeDeclined, wantCharges: 2},
		{name: "expired charge is replaced", status: ports.ChargeExpired, wantCharges: 2},
		{name: "approved charge completes", status: ports.ChargeAccepted, wantErr: domain.ErrAlreadyOwned, wantCharges: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			section := h.seedSection(t, "Testimonials", 15)

			first, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
			if err != nil {
				t.Fatalf("InitiatePurchase() error = %v", err)
			}
			h.billing.setStatus(first.Purchase.ChargeRef, tt.status)

			second, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("second InitiatePurchase() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("second InitiatePurchase() error = %v", err)
			}

			if got := h.billing.created(); got != tt.wantCharges {
				t.Errorf("charges created = %d, want %d", got, tt.wantCharges)
			}
			if second != nil {
				if second.Reused != tt.wantReused {
					t.Errorf("Reused = %v, want %v", second.Reused, tt.wantReused)
				}
				if tt.wantReused && second.ConfirmationURL != first.ConfirmationURL {
					t.Errorf("reused url = %q, want %q", second.ConfirmationURL, first.ConfirmationURL)
				}
				if !tt.wantReused && second.Purchase.ChargeRef == first.Purchase.ChargeRef {
					t.Error("replacement kept the dead charge")
				}
			}

			var entries []*domain.Purchase
			h.tx(t, func(ctx context.Context, tx ports.Tx) error {
				var err error
				entries, err = tx.Purchases().ListByShop(ctx, h.shop.ID)
				return err
			})
			if len(entries) != 1 {
				t.Errorf("ledger entries = %d, want 1", len(entries))
			}
		})
	}
}

func TestClaimWithoutChargeBlocksUntilStale(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section := h.seedSection(t, "Logo List", 9)

	now := h.clock.Now()
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		return tx.Purchases().Insert(ctx, &domain.Purchase{
			ID:           uuid.NewString(),
			ShopID:       h.shop.ID,
			ItemType:     domain.ItemSection,
			ItemID:       section.ID,
			ItemName:     section.Name,
			Price:        section.Price,
			Currency:     domain.DefaultCurrency,
			Status:       domain.PurchasePending,
			AttemptToken: "crashed-attempt",
			AttemptedAt:  now,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	})

	if _, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID); !errors.Is(err, domain.ErrPurchaseInFlight) {
		t.Fatalf("InitiatePurchase() error = %v, want ErrPurchaseInFlight", err)
	}
	if !domain.IsRetryable(domain.ErrPurchaseInFlight) {
		t.Error("in-flight should be retryable")
	}

	h.clock.Advance(3 * time.Minute)
	result, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() after ttl error = %v", err)
	}
	if !result.Pending() || h.billing.created() != 1 {
		t.Fatalf("stale claim not reclaimed: %+v, charges %d", result, h.billing.created())
	}
	if result.Purchase.AttemptToken == "crashed-attempt" {
		t.Error("reclaim must rotate the attempt token")
	}
}

func TestBillingUnavailableLeavesRetryableEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section := h.seedSection(t, "Countdown", 19)

	h.billing.createErr = errors.New("503 service unavailable")
	_, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if !errors.Is(err, domain.ErrBillingUnavailable) {
		t.Fatalf("InitiatePurchase() error = %v, want ErrBillingUnavailable", err)
	}
	if p := h.purchase(t, h.shop.ID, domain.ItemSection, section.ID); p == nil || p.Status != domain.PurchaseFailed {
		t.Fatalf("entry after billing failure = %+v, want failed", p)
	}

	h.billing.createErr = nil
	result, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if !result.Pending() {
		t.Errorf("retry = %+v, want pending", result)
	}
}

func TestFreeSectionCompletesImmediately(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section := h.seedSection(t, "Announcement Bar", 0)

	result, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() error = %v", err)
	}
	if result.Pending() || !result.Purchase.Completed() {
		t.Fatalf("free purchase = %+v, want completed", result)
	}
	if !strings.HasPrefix(result.Purchase.ChargeRef, domain.FreeChargePrefix) {
		t.Errorf("charge ref = %q, want free- prefix", result.Purchase.ChargeRef)
	}
	if !result.Purchase.Price.Equal(decimal.Zero) {
		t.Errorf("price = %s, want 0", result.Purchase.Price)
	}

	if _, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID); !errors.Is(err, domain.ErrAlreadyOwned) {
		t.Fatalf("second free purchase error = %v, want ErrAlreadyOwned", err)
	}
	if got := h.section(t, section.ID).PurchaseCount; got != 1 {
		t.Errorf("purchase count = %d, want 1", got)
	}
	if h.billing.created() != 0 {
		t.Errorf("free purchase reached billing %d times", h.billing.created())
	}
}

func TestConfirmPurchaseErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section := h.seedSection(t, "FAQ", 12)
	other := h.seedShop(t, "other.myshopify.com")

	result, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() error = %v", err)
	}
	chargeRef := result.Purchase.ChargeRef

	if _, err := h.ledger.ConfirmPurchase(ctx, h.shop.Domain, "999999"); !errors.Is(err, domain.ErrUnknownCharge) {
		t.Errorf("unknown charge error = %v", err)
	}
	if _, err := h.ledger.ConfirmPurchase(ctx, other.Domain, chargeRef); !errors.Is(err, domain.ErrUnknownCharge) {
		t.Errorf("foreign charge error = %v", err)
	}
	if _, err := h.ledger.ConfirmPurchase(ctx, h.shop.Domain, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty charge error = %v", err)
	}

	if _, err := h.ledger.ConfirmPurchase(ctx, h.shop.Domain, chargeRef); !errors.Is(err, domain.ErrChargeNotApproved) {
		t.Errorf("pending charge error = %v, want ErrChargeNotApproved", err)
	}

	h.billing.getErr = errors.New("timeout")
	if _, err := h.ledger.ConfirmPurchase(ctx, h.shop.Domain, chargeRef); !errors.Is(err, domain.ErrBillingUnavailable) {
		t.Errorf("gateway down error = %v, want ErrBillingUnavailable", err)
	}
	h.billing.getErr = nil

	h.billing.setStatus(chargeRef, ports.ChargeDeclined)
	if _, err := h.ledger.ConfirmPurchase(ctx, h.shop.Domain, chargeRef); !errors.Is(err, domain.ErrChargeDeclined) {
		t.Fatalf("declined charge error = %v, want ErrChargeDeclined", err)
	}
	if p := h.purchase(t, h.shop.ID, domain.ItemSection, section.ID); p.Status != domain.PurchaseFailed {
		t.Errorf("status after decline = %s, want failed", p.Status)
	}
	if h.events.count(domain.EventPurchaseFailed) != 1 {
		t.Errorf("purchase.failed events = %d, want 1", h.events.count(domain.EventPurchaseFailed))
	}
	if h.entitled(t, h.shop.ID, section.ID) {
		t.Error("declined purchase must not entitle")
	}
}

func TestCancelKeepsOpenChargeConfirmable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section := h.seedSection(t, "Video Hero", 39)

	first, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() error = %v", err)
	}
	chargeRef := first.Purchase.ChargeRef

	cancelled, err := h.ledger.FailPurchase(ctx, h.shop.Domain, chargeRef)
	if err != nil {
		t.Fatalf("FailPurchase() error = %v", err)
	}
	if cancelled.Status != domain.PurchasePending {
		t.Errorf("status after cancel with open charge = %s, want pending", cancelled.Status)
	}
	if h.events.count(domain.EventPurchaseFailed) != 0 {
		t.Error("open charge must not publish purchase.failed")
	}

	retry, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() after cancel error = %v", err)
	}
	if !retry.Reused || retry.Purchase.ChargeRef != chargeRef || h.billing.created() != 1 {
		t.Errorf("retry = %+v, charges created = %d, want the open charge reused", retry, h.billing.created())
	}

	// the merchant approves the first confirmation screen after all
	h.billing.setStatus(chargeRef, ports.ChargeActive)
	confirmed, err := h.ledger.ConfirmPurchase(ctx, h.shop.Domain, chargeRef)
	if err != nil {
		t.Fatalf("ConfirmPurchase() of approved charge error = %v", err)
	}
	if !confirmed.Completed() || !h.entitled(t, h.shop.ID, section.ID) {
		t.Errorf("approved charge did not entitle: %+v", confirmed)
	}
	if got := h.section(t, section.ID).PurchaseCount; got != 1 {
		t.Errorf("purchase count = %d, want 1", got)
	}
}

func TestCancelDeadCharge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section := h.seedSection(t, "Video Hero", 39)

	first, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() error = %v", err)
	}
	chargeRef := first.Purchase.ChargeRef
	h.billing.setStatus(chargeRef, ports.ChargeDeclined)

	for i := 0; i < 2; i++ {
		cancelled, err := h.ledger.FailPurchase(ctx, h.shop.Domain, chargeRef)
		if err != nil {
			t.Fatalf("FailPurchase() #%d error = %v", i+1, err)
		}
		if cancelled.Status != domain.PurchaseFailed {
			t.Errorf("FailPurchase() #%d status = %s, want failed", i+1, cancelled.Status)
		}
	}
	if h.events.count(domain.EventPurchaseFailed) != 1 {
		t.Errorf("purchase.failed events = %d, want 1", h.events.count(domain.EventPurchaseFailed))
	}

	retry, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() after failure error = %v", err)
	}
	if retry.Purchase.ID != first.Purchase.ID {
		t.Error("retry must reuse the ledger entry")
	}
	if retry.Reused || retry.Purchase.ChargeRef == chargeRef || h.billing.created() != 2 {
		t.Errorf("retry = %+v, want a replacement charge", retry)
	}
}

func TestFailedEntryWithApprovedChargeCompletes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section := h.seedSection(t, "Video Hero", 39)

	first, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() error = %v", err)
	}
	chargeRef := first.Purchase.ChargeRef
	h.billing.setStatus(chargeRef, ports.ChargeExpired)
	if _, err := h.ledger.FailPurchase(ctx, h.shop.Domain, chargeRef); err != nil {
		t.Fatalf("FailPurchase() error = %v", err)
	}

	h.billing.setStatus(chargeRef, ports.ChargeAccepted)
	if _, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID); !errors.Is(err, domain.ErrAlreadyOwned) {
		t.Fatalf("InitiatePurchase() error = %v, want ErrAlreadyOwned", err)
	}
	if h.billing.created() != 1 {
		t.Errorf("charges created = %d, want 1", h.billing.created())
	}
	if !h.entitled(t, h.shop.ID, section.ID) {
		t.Error("approved charge on a failed entry must entitle")
	}
}

func TestFailPurchaseLeavesCompletedEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section := h.seedSection(t, "Video Hero", 39)

	first, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() error = %v", err)
	}
	chargeRef := first.Purchase.ChargeRef
	h.billing.setStatus(chargeRef, ports.ChargeActive)
	if _, err := h.ledger.ConfirmPurchase(ctx, h.shop.Domain, chargeRef); err != nil {
		t.Fatalf("ConfirmPurchase() error = %v", err)
	}

	h.billing.setStatus(chargeRef, ports.ChargeCancelled)
	entry, err := h.ledger.FailPurchase(ctx, h.shop.Domain, chargeRef)
	if err != nil {
		t.Fatalf("FailPurchase() error = %v", err)
	}
	if !entry.Completed() || !h.entitled(t, h.shop.ID, section.ID) {
		t.Errorf("completed entry changed by cancel: %+v", entry)
	}
}

func TestBundlePurchaseEntitlesContainedSections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.seedSection(t, "Pricing Table", 25)
	b := h.seedSection(t, "Comparison", 25)
	outside := h.seedSection(t, "Map", 10)
	bundle := h.seedBundle(t, "Conversion Kit", 39, a, b)

	result, err := h.ledger.InitiateBundlePurchase(ctx, h.shop.Domain, bundle.ID)
	if err != nil {
		t.Fatalf("InitiateBundlePurchase() error = %v", err)
	}
	if h.billing.requests[0].Name != "Conversion Kit Bundle" {
		t.Errorf("charge name = %q", h.billing.requests[0].Name)
	}
	h.billing.setStatus(result.Purchase.ChargeRef, ports.ChargeActive)
	if _, err := h.ledger.ConfirmPurchase(ctx, h.shop.Domain, result.Purchase.ChargeRef); err != nil {
		t.Fatalf("ConfirmPurchase() error = %v", err)
	}

	if !h.entitled(t, h.shop.ID, a.ID) || !h.entitled(t, h.shop.ID, b.ID) {
		t.Error("bundle must entitle its sections")
	}
	if h.entitled(t, h.shop.ID, outside.ID) {
		t.Error("bundle must not entitle sections outside it")
	}
	if got := h.section(t, a.ID).PurchaseCount; got != 0 {
		t.Errorf("section purchase count = %d, want 0", got)
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

	// owning the bundle does not block buying a section directly
	if _, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, a.ID); err != nil {
		t.Errorf("direct purchase of bundled section error = %v", err)
	}
}

func TestPlusSubscriptionEntitlement(t *testing.T) {
	h := newHarness(t)
	plus := h.seedSection(t, "Lookbook", 49)
	plus.IsPlus = true
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		return tx.Catalog().UpsertSection(ctx, plus)
	})
	regular := h.seedSection(t, "Newsletter", 5)

	if h.entitled(t, h.shop.ID, plus.ID) {
		t.Fatal("no subscription must not entitle")
	}
	h.seedSubscription(t, h.shop, domain.SubscriptionTrial)
	if !h.entitled(t, h.shop.ID, plus.ID) {
		t.Error("trial subscription must entitle plus sections")
	}
	if h.entitled(t, h.shop.ID, regular.ID) {
		t.Error("subscription must not entitle non-plus sections")
	}

	if err := h.reconciler.OnAppUninstalled(context.Background(), h.shop.Domain); err != nil {
		t.Fatalf("OnAppUninstalled() error = %v", err)
	}
	if h.entitled(t, h.shop.ID, plus.ID) {
		t.Error("cancelled subscription must not entitle")
	}
}

func TestInitiatePurchaseRejectsUnknownTargets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section := h.seedSection(t, "Gallery", 10)

	tests := []struct {
		name    string
		shop    string
		item    string
		bundle  bool
		wantErr error
	}{
		{name: "unknown shop", shop: "ghost.myshopify.com", item: section.ID, wantErr: domain.ErrShopNotFound},
		{name: "unknown section", shop: h.shop.Domain, item: "missing", wantErr: domain.ErrSectionNotFound},
		{name: "unknown bundle", shop: h.shop.Domain, item: "missing", bundle: true, wantErr: domain.ErrBundleNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.bundle {
				_, err = h.ledger.InitiateBundlePurchase(ctx, tt.shop, tt.item)
			} else {
				_, err = h.ledger.InitiatePurchase(ctx, tt.shop, tt.item)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConcurrentInitiateCreatesOneCharge(t *testing.T) {
	h := newHarness(t)
	section := h.seedSection(t, "Slideshow", 29)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.ledger.InitiatePurchase(context.Background(), h.shop.Domain, section.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && !errors.Is(err, domain.ErrPurchaseInFlight) {
			t.Errorf("unexpected error %v", err)
		}
	}
	if got := h.billing.created(); got != 1 {
		t.Errorf("charges created = %d, want 1", got)
	}
}

func TestConcurrentConfirmCountsOnce(t *testing.T) {
	h := newHarness(t)
	section := h.seedSection(t, "Instagram Feed", 29)

	result, err := h.ledger.InitiatePurchase(context.Background(), h.shop.Domain, section.ID)
	if err != nil {
		t.Fatalf("InitiatePurchase() error = %v", err)
	}
	h.billing.setStatus(result.Purchase.ChargeRef, ports.ChargeActive)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.ledger.ConfirmPurchase(context.Background(), h.shop.Domain, result.Purchase.ChargeRef); err != nil {
				t.Errorf("ConfirmPurchase() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := h.section(t, section.ID).PurchaseCount; got != 1 {
		t.Errorf("purchase count = %d, want 1", got)
	}
	if got := h.events.count(domain.EventPurchaseCompleted); got != 1 {
		t.Errorf("purchase.completed events = %d, want 1", got)
	}
}

func TestCompletionRollsBackWithCounter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	section := h.seedSection(t, "Footer", 0)

	h.store.FailOn("sections.increment_purchases", errors.New("disk full"))
	if _, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID); err == nil {
		t.Fatal("InitiatePurchase() succeeded with failing counter")
	}
	if p := h.purchase(t, h.shop.ID, domain.ItemSection, section.ID); p != nil {
		t.Errorf("entry survived a failed completion: %+v", p)
	}

	h.store.FailOn("sections.increment_purchases", nil)
	if _, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, section.ID); err != nil {
		t.Fatalf("InitiatePurchase() error = %v", err)
	}
	if got := h.section(t, section.ID).PurchaseCount; got != 1 {
		t.Errorf("purchase count = %d, want 1", got)
	}
}

func TestListPurchases(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	free := h.seedSection(t, "Divider", 0)
	paid := h.seedSection(t, "Reviews", 19)

	if _, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, free.ID); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(time.Second)
	if _, err := h.ledger.InitiatePurchase(ctx, h.shop.Domain, paid.ID); err != nil {
		t.Fatal(err)
	}

	purchases, err := h.ledger.ListPurchases(ctx, h.shop.Domain)
	if err != nil {
		t.Fatalf("ListPurchases() error = %v", err)
	}
	if len(purchases) != 2 {
		t.Fatalf("purchases = %d, want 2", len(purchases))
	}
	if purchases[0].ItemID != free.ID || purchases[1].Status != domain.PurchasePending {
		t.Errorf("unexpected purchases %+v %+v", purchases[0], purchases[1])
	}
}
