package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Section is a purchasable theme section
type Section struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	IsFree        bool            `json:"is_free"`
	IsPro         bool            `json:"is_pro"`
	IsPlus        bool            `json:"is_plus"`
	IsActive      bool            `json:"is_active"`
	Content       string          `json:"-"`
	PurchaseCount int64           `json:"purchase_count"`
	InstallCount  int64           `json:"install_count"`
	Rating        float64         `json:"rating"`
	ReviewCount   int64           `json:"review_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Free reports whether acquiring the section needs no billing approval
func (s *Section) Free() bool {
	return s.IsFree || s.Price.Sign() <= 0
}

// AssetKey is the theme file the section is written to
func (s *Section) AssetKey() string {
	return "sections/" + s.Slug + ".liquid"
}

// Bundle groups sections sold together at a discount
type Bundle struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Description     string          `json:"description"`
	RegularPrice    decimal.Decimal `json:"regular_price"`
	BundlePrice     decimal.Decimal `json:"bundle_price"`
	DiscountPercent int             `json:"discount_percent"`
	IsActive        bool            `json:"is_active"`
	SectionIDs      []string        `json:"section_ids"` // ordered
	PurchaseCount   int64           `json:"purchase_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Free reports whether the bundle costs nothing
func (b *Bundle) Free() bool {
	return b.BundlePrice.Sign() <= 0
}

// Contains reports whether the bundle grants the section
func (b *Bundle) Contains(sectionID string) bool {
	for _, id := range b.SectionIDs {
		if id == sectionID {
			return true
		}
	}
	return false
}

// Favorite marks a section a merchant starred
type Favorite struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	SectionID string    `json:"section_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SupportTicket is written by the back office; the core only removes it on shop redaction
type SupportTicket struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// FeatureRequest is keyed by shop domain rather than shop id
type FeatureRequest struct {
	ID          string    `json:"id"`
	ShopDomain  string    `json:"shop_domain"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Votes       int       `json:"votes"`
	CreatedAt   time.Time `json:"created_at"`
}
