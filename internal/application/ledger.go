package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerConfig tunes purchase handling
type LedgerConfig struct {
	// ReturnURL is where the platform sends the merchant after approving a charge
	ReturnURL string
	// TestCharges creates charges that are never billed
	TestCharges bool
	// PendingClaimTTL is how long a claim without a charge blocks new attempts
	PendingClaimTTL time.Duration
}

// Ledger owns purchase ledger entries and decides entitlement
type Ledger struct {
	store   ports.Store
	billing ports.BillingGateway
	vault   ports.CredentialVault
	events  ports.EventPublisher
	metrics ports.Metrics
	clock   ports.Clock
	logger  zerolog.Logger
	cfg     LedgerConfig
	newRef  func() string
}

// NewLedger creates the entitlement ledger
func NewLedger(
	store ports.Store,
	billing ports.BillingGateway,
	vault ports.CredentialVault,
	events ports.EventPublisher,
	metrics ports.Metrics,
	clock ports.Clock,
	logger zerolog.Logger,
	cfg LedgerConfig,
) (*Ledger, error) {
	newRef, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create reference generator: %w", err)
	}
	if cfg.PendingClaimTTL <= 0 {
		cfg.PendingClaimTTL = 2 * time.Minute
	}
	return &Ledger{
		store:   store,
		billing: billing,
		vault:   vault,
		events:  events,
		metrics: metrics,
		clock:   clock,
		logger:  logger,
		cfg:     cfg,
		newRef:  newRef,
	}, nil
}

type purchasable struct {
	itemType domain.ItemType
	id       string
	name     string
	price    decimal.Decimal
	free     bool
}

func (p purchasable) intent() domain.PurchaseIntent {
	if p.free {
		return domain.FreeIntent{}
	}
	return domain.PricedIntent{Amount: p.price, Currency: domain.DefaultCurrency}
}

func (p purchasable) chargeName() string {
	if p.itemType == domain.ItemBundle {
		return p.name + " Bundle"
	}
	return p.name + " Section"
}

// InitiatePurchase starts acquiring a section. Free sections complete at once;
// priced sections return the confirmation URL of a pending charge.
func (l *Ledger) InitiatePurchase(ctx context.Context, shopDomain, sectionID string) (*domain.PurchaseResult, error) {
	var shop *domain.Shop
	var item purchasable
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		if shop, err = activeShop(ctx, tx, shopDomain); err != nil {
			return err
		}
		section, err := tx.Catalog().GetSection(ctx, sectionID)
		if err != nil {
			return fmt.Errorf("failed to get section: %w", err)
		}
		if section == nil || !section.IsActive {
			return fmt.Errorf("%w: %s", domain.ErrSectionNotFound, sectionID)
		}
		item = purchasable{
			itemType: domain.ItemSection,
			id:       section.ID,
			name:     section.Name,
			price:    section.Price,
			free:     section.Free(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.acquire(ctx, shop, item)
}

// InitiateBundlePurchase starts acquiring a bundle
func (l *Ledger) InitiateBundlePurchase(ctx context.Context, shopDomain, bundleID string) (*domain.PurchaseResult, error) {
	var shop *domain.Shop
	var item purchasable
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		if shop, err = activeShop(ctx, tx, shopDomain); err != nil {
			return err
		}
		bundle, err := tx.Catalog().GetBundle(ctx, bundleID)
		if err != nil {
			return fmt.Errorf("failed to get bundle: %w", err)
		}
		if bundle == nil || !bundle.IsActive {
			return fmt.Errorf("%w: %s", domain.ErrBundleNotFound, bundleID)
		}
		item = purchasable{
			itemType: domain.ItemBundle,
			id:       bundle.ID,
			name:     bundle.Name,
			price:    bundle.BundlePrice,
			free:     bundle.Free(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.acquire(ctx, shop, item)
}

func (l *Ledger) acquire(ctx context.Context, shop *domain.Shop, item purchasable) (*domain.PurchaseResult, error) {
	var result *domain.PurchaseResult
	var err error
	switch intent := item.intent().(type) {
	case domain.FreeIntent:
		result, err = l.acquireFree(ctx, shop, item)
	case domain.PricedIntent:
		result, err = l.acquirePriced(ctx, shop, item, intent)
	default:
		err = fmt.Errorf("%w: unsupported purchase intent %T", domain.ErrInvalidInput, intent)
	}

	label := "completed"
	if result != nil && result.Pending() {
		label = "pending"
		if result.Reused {
			label = "reused"
		}
	}
	l.metrics.PurchaseOutcome(item.itemType, outcome(err, label))
	return result, err
}

func (l *Ledger) newEntry(shop *domain.Shop, item purchasable, now time.Time) *domain.Purchase {
	return &domain.Purchase{
		ID:           uuid.NewString(),
		ShopID:       shop.ID,
		ItemType:     item.itemType,
		ItemID:       item.id,
		ItemName:     item.name,
		Price:        item.price,
		Currency:     domain.DefaultCurrency,
		Status:       domain.PurchasePending,
		AttemptToken: l.newRef(),
		AttemptedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (l *Ledger) acquireFree(ctx context.Context, shop *domain.Shop, item purchasable) (*domain.PurchaseResult, error) {
	now := l.clock.Now()
	var entry *domain.Purchase
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		existing, err := tx.Purchases().Get(ctx, shop.ID, item.itemType, item.id)
		if err != nil {
			return fmt.Errorf("failed to get purchase: %w", err)
		}
		if existing != nil && existing.Completed() {
			return domain.ErrAlreadyOwned
		}
		if existing == nil {
			existing = l.newEntry(shop, item, now)
			if err := tx.Purchases().Insert(ctx, existing); err != nil {
				return err
			}
		}
		existing.Price = decimal.Zero
		existing.ChargeRef = domain.FreeChargePrefix + l.newRef()
		existing.ConfirmationURL = ""

		won, err := l.complete(ctx, tx, existing, now)
		if err != nil {
			return err
		}
		if !won {
			return domain.ErrAlreadyOwned
		}
		entry = existing
		return nil
	})
	if errors.Is(err, domain.ErrConflict) {
		// a concurrent request inserted the entry first
		err = domain.ErrAlreadyOwned
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("shop", shop.Domain).
		Str("itemType", string(item.itemType)).
		Str("itemId", item.id).
		Msg("Free item acquired")
	l.announce(ctx, domain.EventPurchaseCompleted, shop, entry)
	return &domain.PurchaseResult{Purchase: entry}, nil
}

func (l *Ledger) acquirePriced(ctx context.Context, shop *domain.Shop, item purchasable, intent domain.PricedIntent) (*domain.PurchaseResult, error) {
	claimed, outstanding, err := l.claim(ctx, shop, item)
	if err != nil {
		return nil, err
	}
	if outstanding != nil {
		return l.resolveOutstanding(ctx, shop, item, intent, outstanding)
	}
	return l.charge(ctx, shop, item, intent, claimed)
}

// claim reserves the (shop, item) entry for a new charge attempt. An entry
// that already carries a charge is returned as outstanding instead, failed or
// not, since only the platform knows whether that charge can still be paid.
func (l *Ledger) claim(ctx context.Context, shop *domain.Shop, item purchasable) (claimed, outstanding *domain.Purchase, err error) {
	now := l.clock.Now()
	err = l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		claimed, outstanding = nil, nil

		existing, err := tx.Purchases().Get(ctx, shop.ID, item.itemType, item.id)
		if err != nil {
			return fmt.Errorf("failed to get purchase: %w", err)
		}
		switch {
		case existing == nil:
			entry := l.newEntry(shop, item, now)
			if err := tx.Purchases().Insert(ctx, entry); err != nil {
				return err
			}
			claimed = entry
			return nil
		case existing.Completed():
			return domain.ErrAlreadyOwned
		case existing.ChargeRef != "":
			outstanding = existing
			return nil
		case existing.Status == domain.PurchasePending && now.Sub(existing.AttemptedAt) < l.cfg.PendingClaimTTL:
			return domain.ErrPurchaseInFlight
		}

		// failed attempts without a charge and stale claims that never reached the gateway
		claimed, err = l.reclaim(ctx, tx, existing, item, now)
		return err
	})
	if errors.Is(err, domain.ErrConflict) {
		return nil, nil, l.lostClaim(ctx, shop, item)
	}
	return claimed, outstanding, err
}

// lostClaim classifies an insert that lost the uniqueness race
func (l *Ledger) lostClaim(ctx context.Context, shop *domain.Shop, item purchasable) error {
	var winner *domain.Purchase
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		winner, err = tx.Purchases().Get(ctx, shop.ID, item.itemType, item.id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to get purchase: %w", err)
	}
	if winner != nil && winner.Completed() {
		return domain.ErrAlreadyOwned
	}
	return domain.ErrPurchaseInFlight
}

func (l *Ledger) reclaim(ctx context.Context, tx ports.Tx, entry *domain.Purchase, item purchasable, now time.Time) (*domain.Purchase, error) {
	prevStatus, prevToken := entry.Status, entry.AttemptToken

	entry.Status = domain.PurchasePending
	entry.AttemptToken = l.newRef()
	entry.AttemptedAt = now
	entry.ItemName = item.name
	entry.Price = item.price
	entry.ChargeRef = ""
	entry.ConfirmationURL = ""
	entry.UpdatedAt = now

	won, err := tx.Purchases().UpdateIfMatch(ctx, entry, prevStatus, prevToken)
	if err != nil {
		return nil, fmt.Errorf("failed to reclaim purchase: %w", err)
	}
	if !won {
		return nil, domain.ErrPurchaseInFlight
	}
	return entry, nil
}

// resolveOutstanding applies the pending-attempt policy: a charge the merchant
// can still approve is handed back, an approved one completes the entry and a
// dead one is replaced by a new charge.
func (l *Ledger) resolveOutstanding(ctx context.Context, shop *domain.Shop, item purchasable, intent domain.PricedIntent, entry *domain.Purchase) (*domain.PurchaseResult, error) {
	creds, err := l.vault.Credentials(shop)
	if err != nil {
		return nil, fmt.Errorf("failed to open shop credentials: %w", err)
	}
	charge, err := l.billing.GetCharge(ctx, creds, entry.ChargeRef)
	if err != nil {
		l.logger.Error().Err(err).Str("shop", shop.Domain).Str("chargeId", entry.ChargeRef).Msg("Failed to get outstanding charge")
		return nil, fmt.Errorf("%w: %v", domain.ErrBillingUnavailable, err)
	}

	switch {
	case charge.Status.Approved():
		if _, err := l.completeCharge(ctx, shop, entry.ChargeRef); err != nil {
			return nil, err
		}
		return nil, domain.ErrAlreadyOwned

	case charge.Status.Dead():
		now := l.clock.Now()
		var claimed *domain.Purchase
		err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
			current, err := tx.Purchases().Get(ctx, shop.ID, item.itemType, item.id)
			if err != nil {
				return fmt.Errorf("failed to get purchase: %w", err)
			}
			switch {
			case current == nil:
				return domain.ErrPurchaseInFlight
			case current.Completed():
				return domain.ErrAlreadyOwned
			case current.AttemptToken != entry.AttemptToken:
				return domain.ErrPurchaseInFlight
			}
			claimed, err = l.reclaim(ctx, tx, current, item, now)
			return err
		})
		if err != nil {
			return nil, err
		}
		l.logger.Info().
			Str("shop", shop.Domain).
			Str("deadChargeId", entry.ChargeRef).
			Str("chargeStatus", string(charge.Status)).
			Msg("Replacing dead charge")
		return l.charge(ctx, shop, item, intent, claimed)

	default:
		if entry.Status == domain.PurchaseFailed {
			revived, err := l.revive(ctx, entry)
			if err != nil {
				return nil, err
			}
			entry = revived
		}
		return &domain.PurchaseResult{
			Purchase:        entry,
			ConfirmationURL: entry.ConfirmationURL,
			Reused:          true,
		}, nil
	}
}

// revive puts a failed entry whose charge is still open back to pending
func (l *Ledger) revive(ctx context.Context, entry *domain.Purchase) (*domain.Purchase, error) {
	now := l.clock.Now()
	pending := *entry
	pending.Status = domain.PurchasePending
	pending.UpdatedAt = now
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		won, err := tx.Purchases().UpdateIfMatch(ctx, &pending, domain.PurchaseFailed, entry.AttemptToken)
		if err != nil {
			return fmt.Errorf("failed to revive purchase: %w", err)
		}
		if !won {
			return domain.ErrPurchaseInFlight
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (l *Ledger) returnURL(shop *domain.Shop) string {
	if l.cfg.ReturnURL == "" {
		return ""
	}
	return l.cfg.ReturnURL + "?shop=" + url.QueryEscape(shop.Domain)
}

// charge creates the platform charge for a claimed entry and records it
func (l *Ledger) charge(ctx context.Context, shop *domain.Shop, item purchasable, intent domain.PricedIntent, entry *domain.Purchase) (*domain.PurchaseResult, error) {
	creds, err := l.vault.Credentials(shop)
	if err != nil {
		l.abandon(ctx, shop, entry)
		return nil, fmt.Errorf("failed to open shop credentials: %w", err)
	}

	charge, err := l.billing.CreateCharge(ctx, creds, ports.ChargeRequest{
		Name:      item.chargeName(),
		Amount:    intent.Amount,
		Currency:  intent.Currency,
		ReturnURL: l.returnURL(shop),
		Test:      l.cfg.TestCharges,
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("shop", shop.Domain).
			Str("itemId", item.id).
			Msg("Failed to create charge")
		l.abandon(ctx, shop, entry)
		return nil, fmt.Errorf("%w: %v", domain.ErrBillingUnavailable, err)
	}

	now := l.clock.Now()
	err = l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		entry.ChargeRef = charge.ID
		entry.ConfirmationURL = charge.ConfirmationURL
		entry.UpdatedAt = now
		won, err := tx.Purchases().UpdateIfMatch(ctx, entry, domain.PurchasePending, entry.AttemptToken)
		if err != nil {
			return fmt.Errorf("failed to record charge: %w", err)
		}
		if !won {
			return domain.ErrPurchaseInFlight
		}
		return nil
	})
	if err != nil {
		l.logger.Warn().
			Err(err).
			Str("shop", shop.Domain).
			Str("chargeId", charge.ID).
			Msg("Charge created but not recorded")
		return nil, err
	}

	l.logger.Info().
		Str("shop", shop.Domain).
		Str("itemId", item.id).
		Str("chargeId", charge.ID).
		Str("amount", intent.Amount.String()).
		Msg("Charge created, awaiting merchant approval")
	return &domain.PurchaseResult{Purchase: entry, ConfirmationURL: charge.ConfirmationURL}, nil
}

// abandon marks a claimed attempt failed so the next attempt can reclaim it
func (l *Ledger) abandon(ctx context.Context, shop *domain.Shop, entry *domain.Purchase) {
	now := l.clock.Now()
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		failed := *entry
		failed.Status = domain.PurchaseFailed
		failed.UpdatedAt = now
		_, err := tx.Purchases().UpdateIfMatch(ctx, &failed, domain.PurchasePending, entry.AttemptToken)
		return err
	})
	if err != nil {
		l.logger.Error().Err(err).Str("shop", shop.Domain).Str("purchaseId", entry.ID).Msg("Failed to mark purchase failed")
	}
}

// complete is the single completion primitive: it flips a non-completed entry
// to completed and bumps the item's purchase counter in the same unit of work.
// It reports false when the entry was completed or replaced concurrently.
func (l *Ledger) complete(ctx context.Context, tx ports.Tx, entry *domain.Purchase, now time.Time) (bool, error) {
	if entry.Completed() {
		return false, nil
	}
	prevStatus, prevToken := entry.Status, entry.AttemptToken

	completedAt := now
	entry.Status = domain.PurchaseCompleted
	entry.CompletedAt = &completedAt
	entry.UpdatedAt = now

	won, err := tx.Purchases().UpdateIfMatch(ctx, entry, prevStatus, prevToken)
	if err != nil {
		return false, fmt.Errorf("failed to complete purchase: %w", err)
	}
	if !won {
		return false, nil
	}

	switch entry.ItemType {
	case domain.ItemBundle:
		err = tx.Catalog().IncrementBundlePurchases(ctx, entry.ItemID)
	default:
		err = tx.Catalog().IncrementSectionPurchases(ctx, entry.ItemID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to increment purchase count: %w", err)
	}
	return true, nil
}

// completeCharge completes the entry holding chargeRef
func (l *Ledger) completeCharge(ctx context.Context, shop *domain.Shop, chargeRef string) (*domain.Purchase, error) {
	now := l.clock.Now()
	var entry *domain.Purchase
	var won bool
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		entry, err = tx.Purchases().GetByChargeRef(ctx, chargeRef)
		if err != nil {
			return fmt.Errorf("failed to get purchase: %w", err)
		}
		if entry == nil || entry.ShopID != shop.ID {
			return domain.ErrUnknownCharge
		}
		if won, err = l.complete(ctx, tx, entry, now); err != nil {
			return err
		}
		if won {
			return nil
		}
		entry, err = tx.Purchases().GetByChargeRef(ctx, chargeRef)
		if err != nil {
			return fmt.Errorf("failed to get purchase: %w", err)
		}
		if entry == nil || !entry.Completed() {
			return domain.ErrPurchaseInFlight
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if won {
		l.logger.Info().
			Str("shop", shop.Domain).
			Str("chargeId", chargeRef).
			Str("itemId", entry.ItemID).
			Msg("Purchase completed")
		l.metrics.PurchaseOutcome(entry.ItemType, "confirmed")
		l.announce(ctx, domain.EventPurchaseCompleted, shop, entry)
	}
	return entry, nil
}

// ConfirmPurchase completes the entry for an approved charge. Confirming an
// already completed entry succeeds without touching the counters.
func (l *Ledger) ConfirmPurchase(ctx context.Context, shopDomain, chargeRef string) (*domain.Purchase, error) {
	if chargeRef == "" {
		return nil, fmt.Errorf("%w: charge id is required", domain.ErrInvalidInput)
	}

	shop, entry, err := l.lookupCharge(ctx, shopDomain, chargeRef)
	if err != nil {
		return nil, err
	}
	if entry.Completed() {
		return entry, nil
	}

	creds, err := l.vault.Credentials(shop)
	if err != nil {
		return nil, fmt.Errorf("failed to open shop credentials: %w", err)
	}
	charge, err := l.billing.GetCharge(ctx, creds, chargeRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBillingUnavailable, err)
	}

	switch {
	case charge.Status.Approved():
		return l.completeCharge(ctx, shop, chargeRef)
	case charge.Status.Dead():
		if _, err := l.failCharge(ctx, shop, chargeRef); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: charge %s is %s", domain.ErrChargeDeclined, chargeRef, charge.Status)
	default:
		return nil, fmt.Errorf("%w: charge %s is %s", domain.ErrChargeNotApproved, chargeRef, charge.Status)
	}
}

// FailPurchase handles the merchant leaving the approval screen. The entry
// only fails once the platform reports the charge dead; a charge that can
// still be approved keeps its entry pending so a later approval confirms.
func (l *Ledger) FailPurchase(ctx context.Context, shopDomain, chargeRef string) (*domain.Purchase, error) {
	if chargeRef == "" {
		return nil, fmt.Errorf("%w: charge id is required", domain.ErrInvalidInput)
	}
	shop, entry, err := l.lookupCharge(ctx, shopDomain, chargeRef)
	if err != nil {
		return nil, err
	}
	if entry.Completed() || entry.Status == domain.PurchaseFailed {
		return entry, nil
	}

	creds, err := l.vault.Credentials(shop)
	if err != nil {
		return nil, fmt.Errorf("failed to open shop credentials: %w", err)
	}
	charge, err := l.billing.GetCharge(ctx, creds, chargeRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBillingUnavailable, err)
	}

	switch {
	case charge.Status.Dead():
		return l.failCharge(ctx, shop, chargeRef)
	case charge.Status.Approved():
		return l.completeCharge(ctx, shop, chargeRef)
	default:
		l.logger.Info().
			Str("shop", shopDomain).
			Str("chargeId", chargeRef).
			Str("chargeStatus", string(charge.Status)).
			Msg("Charge still open, purchase stays pending")
		return entry, nil
	}
}

func (l *Ledger) lookupCharge(ctx context.Context, shopDomain, chargeRef string) (*domain.Shop, *domain.Purchase, error) {
	var shop *domain.Shop
	var entry *domain.Purchase
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		shop, err = tx.Shops().GetByDomain(ctx, shopDomain)
		if err != nil {
			return fmt.Errorf("failed to get shop: %w", err)
		}
		if shop == nil {
			return fmt.Errorf("%w: %s", domain.ErrShopNotFound, shopDomain)
		}
		entry, err = tx.Purchases().GetByChargeRef(ctx, chargeRef)
		if err != nil {
			return fmt.Errorf("failed to get purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if entry == nil || entry.ShopID != shop.ID {
		l.logger.Warn().
			Str("shop", shopDomain).
			Str("chargeId", chargeRef).
			Msg("Charge does not match any purchase of this shop")
		return nil, nil, domain.ErrUnknownCharge
	}
	return shop, entry, nil
}

func (l *Ledger) failCharge(ctx context.Context, shop *domain.Shop, chargeRef string) (*domain.Purchase, error) {
	now := l.clock.Now()
	var entry *domain.Purchase
	var changed bool
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		entry, err = tx.Purchases().GetByChargeRef(ctx, chargeRef)
		if err != nil {
			return fmt.Errorf("failed to get purchase: %w", err)
		}
		if entry == nil || entry.ShopID != shop.ID {
			return domain.ErrUnknownCharge
		}
		if entry.Status != domain.PurchasePending {
			changed = false
			return nil
		}
		token := entry.AttemptToken
		entry.Status = domain.PurchaseFailed
		entry.UpdatedAt = now
		changed, err = tx.Purchases().UpdateIfMatch(ctx, entry, domain.PurchasePending, token)
		if err != nil {
			return fmt.Errorf("failed to mark purchase failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		l.logger.Info().Str("shop", shop.Domain).Str("chargeId", chargeRef).Msg("Purchase failed")
		l.metrics.PurchaseOutcome(entry.ItemType, "failed")
		l.announce(ctx, domain.EventPurchaseFailed, shop, entry)
	}
	return entry, nil
}

// IsEntitled reports whether the shop may install the section: it bought the
// section, bought a bundle containing it, or the section is Plus and the shop
// holds a trial or active subscription
func (l *Ledger) IsEntitled(ctx context.Context, shopID, sectionID string) (bool, error) {
	var entitled bool
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		entitled, err = entitledIn(ctx, tx, shopID, sectionID)
		return err
	})
	return entitled, err
}

func entitledIn(ctx context.Context, tx ports.Tx, shopID, sectionID string) (bool, error) {
	direct, err := tx.Purchases().Get(ctx, shopID, domain.ItemSection, sectionID)
	if err != nil {
		return false, fmt.Errorf("failed to get purchase: %w", err)
	}
	if direct != nil && direct.Completed() {
		return true, nil
	}

	bundles, err := tx.Catalog().ListBundlesContaining(ctx, sectionID)
	if err != nil {
		return false, fmt.Errorf("failed to list bundles: %w", err)
	}
	for _, bundle := range bundles {
		p, err := tx.Purchases().Get(ctx, shopID, domain.ItemBundle, bundle.ID)
		if err != nil {
			return false, fmt.Errorf("failed to get bundle purchase: %w", err)
		}
		if p != nil && p.Completed() {
			return true, nil
		}
	}

	section, err := tx.Catalog().GetSection(ctx, sectionID)
	if err != nil {
		return false, fmt.Errorf("failed to get section: %w", err)
	}
	if section == nil || !section.IsPlus {
		return false, nil
	}
	sub, err := tx.Subscriptions().GetLive(ctx, shopID)
	if err != nil {
		return false, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub != nil, nil
}

// ListPurchases returns the shop's ledger entries, oldest first
func (l *Ledger) ListPurchases(ctx context.Context, shopDomain string) ([]*domain.Purchase, error) {
	var purchases []*domain.Purchase
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		shop, err := activeShop(ctx, tx, shopDomain)
		if err != nil {
			return err
		}
		purchases, err = tx.Purchases().ListByShop(ctx, shop.ID)
		if err != nil {
			return fmt.Errorf("failed to list purchases: %w", err)
		}
		return nil
	})
	return purchases, err
}

func (l *Ledger) announce(ctx context.Context, eventType string, shop *domain.Shop, entry *domain.Purchase) {
	publish(ctx, l.events, l.logger, domain.Event{
		Type:       eventType,
		ShopID:     shop.ID,
		ShopDomain: shop.Domain,
		ItemType:   entry.ItemType,
		ItemID:     entry.ItemID,
		ChargeRef:  entry.ChargeRef,
		Attributes: map[string]string{"price": entry.Price.String(), "currency": entry.Currency},
		OccurredAt: l.clock.Now(),
	})
}
