package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType identifies what a ledger entry grants
type ItemType string

const (
	ItemSection ItemType = "section"
	ItemBundle  ItemType = "bundle"
)

// PurchaseStatus is the state of a ledger entry
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

// DefaultCurrency is the only currency one-time application charges are billed in
const DefaultCurrency = "USD"

// FreeChargePrefix marks synthetic charge references of free acquisitions
const FreeChargePrefix = "free-"

// Purchase is one entitlement ledger entry. There is at most one entry per
// (shop, item type, item) and it never leaves the completed state.
type Purchase struct {
	ID              string          `json:"id"`
	ShopID          string          `json:"shop_id,omitempty"` // empty once the shop was redacted
	ItemType        ItemType        `json:"item_type"`
	ItemID          string          `json:"item_id"`
	ItemName        string          `json:"item_name"`
	Price           decimal.Decimal `json:"price"` // snapshot at initiation
	Currency        string          `json:"currency"`
	ChargeRef       string          `json:"charge_ref,omitempty"`
	ConfirmationURL string          `json:"confirmation_url,omitempty"`
	Status          PurchaseStatus  `json:"status"`
	AttemptToken    string          `json:"-"`
	AttemptedAt     time.Time       `json:"attempted_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Completed reports whether the entry grants its item
func (p *Purchase) Completed() bool {
	return p.Status == PurchaseCompleted
}

// PurchaseIntent is how an item is acquired: FreeIntent or PricedIntent
type PurchaseIntent interface {
	isPurchaseIntent()
}

// FreeIntent acquires an item without contacting the billing gateway
type FreeIntent struct{}

// PricedIntent acquires an item through a merchant-approved charge
type PricedIntent struct {
	Amount   decimal.Decimal
	Currency string
}

func (FreeIntent) isPurchaseIntent()   {}
func (PricedIntent) isPurchaseIntent() {}

// PurchaseResult is returned when a purchase is initiated
type PurchaseResult struct {
	Purchase        *Purchase `json:"purchase"`
	ConfirmationURL string    `json:"confirmation_url,omitempty"`
	// Reused is set when an outstanding charge is handed back instead of a new one
	Reused bool `json:"reused"`
}

// Pending reports whether the merchant still has to approve a charge
func (r *PurchaseResult) Pending() bool {
	return r.Purchase != nil && r.Purchase.Status == PurchasePending
}
