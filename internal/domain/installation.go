package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installation records that a section was written into a theme.
// Unique per (shop, section, theme).
type Installation struct {
	ID          string    `json:"id"`
	ShopID      string    `json:"shop_id"`
	SectionID   string    `json:"section_id"`
	ThemeID     string    `json:"theme_id"`
	ThemeName   string    `json:"theme_name"`
	IsActive    bool      `json:"is_active"`
	InstalledAt time.Time `json:"installed_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InstallResult is returned by an install
type InstallResult struct {
	Installation *Installation `json:"installation"`
	Created      bool          `json:"created"`
}

// ThemeInstallations groups a shop's installations by theme
type ThemeInstallations struct {
	ThemeID       string          `json:"theme_id"`
	ThemeName     string          `json:"theme_name"`
	Installations []*Installation `json:"installations"`
}

// Theme is a storefront theme as reported by the platform
type Theme struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// SubscriptionStatus is the state of a Plus plan subscription
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Subscription is a recurring plan; trial and active ones cover Plus sections
type Subscription struct {
	ID          string             `json:"id"`
	ShopID      string             `json:"shop_id"`
	PlanName    string             `json:"plan_name"`
	Price       decimal.Decimal    `json:"price"`
	Status      SubscriptionStatus `json:"status"`
	StartedAt   time.Time          `json:"started_at"`
	EndsAt      *time.Time         `json:"ends_at,omitempty"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Live reports whether the subscription currently grants Plus sections
func (s *Subscription) Live() bool {
	return s.Status == SubscriptionTrial || s.Status == SubscriptionActive
}
