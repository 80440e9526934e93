package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Shop represents a merchant store that installed the app
type Shop struct {
	ID            string     `json:"id"`
	Domain        string     `json:"domain"`
	AccessToken   string     `json:"-"` // sealed; only the token manager can open it
	Scopes        []string   `json:"scopes"`
	IsActive      bool       `json:"is_active"`
	InstalledAt   time.Time  `json:"installed_at"`
	UninstalledAt *time.Time `json:"uninstalled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RedactedDomainPrefix replaces the shop domain once customer data was redacted
const RedactedDomainPrefix = "redacted-"

// RedactedDomain is the anonymised stand-in for shopDomain. It is derived
// from the domain alone so a later shop/redact for the same domain still
// finds the record.
func RedactedDomain(shopDomain string) string {
	return RedactedDomainPrefix + uuid.NewSHA1(uuid.NameSpaceDNS, []byte(strings.ToLower(shopDomain))).String()
}

// IsRedacted reports whether the shop was anonymised by a customer redact request
func (s *Shop) IsRedacted() bool {
	return strings.HasPrefix(s.Domain, RedactedDomainPrefix)
}

// ValidShopDomain checks the permanent *.myshopify.com hostname format
func ValidShopDomain(shop string) bool {
	if !strings.HasSuffix(shop, ".myshopify.com") {
		return false
	}
	name := strings.TrimSuffix(shop, ".myshopify.com")
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

// ShopDataSummary is what a customer data request compiles about a shop
type ShopDataSummary struct {
	ShopID          string `json:"shop_id"`
	Domain          string `json:"domain"`
	Purchases       int    `json:"purchases"`
	Installations   int    `json:"installations"`
	Favorites       int    `json:"favorites"`
	SupportTickets  int    `json:"support_tickets"`
	HasSubscription bool   `json:"has_subscription"`
}
