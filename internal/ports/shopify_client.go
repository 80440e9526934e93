package ports

import (
	"context"
	"net/url"

	"section-store/internal/domain"

	"github.com/shopspring/decimal"
)

// ShopCredentials authorise Admin API calls for one shop
type ShopCredentials struct {
	Domain      string
	AccessToken string
}

// ChargeStatus as reported by the billing platform
type ChargeStatus string

const (
	ChargePending   ChargeStatus = "pending"
	ChargeAccepted  ChargeStatus = "accepted"
	ChargeActive    ChargeStatus = "active"
	ChargeDeclined  ChargeStatus = "declined"
	ChargeExpired   ChargeStatus = "expired"
	ChargeCancelled ChargeStatus = "cancelled"
)

// Approved reports whether the merchant approved the charge
func (s ChargeStatus) Approved() bool {
	return s == ChargeAccepted || s == ChargeActive
}

// Dead reports whether the charge can never be approved
func (s ChargeStatus) Dead() bool {
	return s == ChargeDeclined || s == ChargeExpired || s == ChargeCancelled
}

// ChargeRequest describes a one-time charge
type ChargeRequest struct {
	Name      string
	Amount    decimal.Decimal
	Currency  string
	ReturnURL string
	Test      bool
}

// Charge is a charge handle returned by the platform
type Charge struct {
	ID              string
	ConfirmationURL string
	Status          ChargeStatus
}

// BillingGateway creates charges and reports their status
type BillingGateway interface {
	CreateCharge(ctx context.Context, creds ShopCredentials, req ChargeRequest) (*Charge, error)
	GetCharge(ctx context.Context, creds ShopCredentials, chargeID string) (*Charge, error)
}

// ThemeStore reads themes and writes theme assets
type ThemeStore interface {
	// GetTheme fails with domain.ErrThemeNotFound when the theme does not exist
	GetTheme(ctx context.Context, creds ShopCredentials, themeID string) (*domain.Theme, error)
	ListThemes(ctx context.Context, creds ShopCredentials) ([]domain.Theme, error)
	WriteAsset(ctx context.Context, creds ShopCredentials, themeID, key, value string) error
}

// ShopifyAuth covers the OAuth install handshake and webhook registration
type ShopifyAuth interface {
	AuthorizeURL(shop, state, redirectURI string, scopes []string) string
	VerifyCallback(callback *url.URL) (bool, error)
	ExchangeToken(ctx context.Context, shop, code string) (string, error)
	RegisterWebhooks(ctx context.Context, creds ShopCredentials, topics []string, address string) error
}
