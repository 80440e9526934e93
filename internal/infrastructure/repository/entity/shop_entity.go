package entity

import (
	"time"

	"section-store/internal/domain"

	"github.com/shopspring/decimal"
)

// MongoShopDoc represents a shop in MongoDB
type MongoShopDoc struct {
	ID            string     `bson:"_id"`
	Domain        string     `bson:"domain"`
	AccessToken   string     `bson:"accessToken"`
	Scopes        []string   `bson:"scopes"`
	IsActive      bool       `bson:"isActive"`
	InstalledAt   time.Time  `bson:"installedAt"`
	UninstalledAt *time.Time `bson:"uninstalledAt,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopDoc) ToDomain() *domain.Shop {
	return &domain.Shop{
		ID:            d.ID,
		Domain:        d.Domain,
		AccessToken:   d.AccessToken,
		Scopes:        d.Scopes,
		IsActive:      d.IsActive,
		InstalledAt:   d.InstalledAt,
		UninstalledAt: d.UninstalledAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// MongoShopDocFromDomain converts a domain entity to a MongoDB document
func MongoShopDocFromDomain(shop *domain.Shop) *MongoShopDoc {
	return &MongoShopDoc{
		ID:            shop.ID,
		Domain:        shop.Domain,
		AccessToken:   shop.AccessToken,
		Scopes:        shop.Scopes,
		IsActive:      shop.IsActive,
		InstalledAt:   shop.InstalledAt,
		UninstalledAt: shop.UninstalledAt,
		CreatedAt:     shop.CreatedAt,
		UpdatedAt:     shop.UpdatedAt,
	}
}

// Amounts are stored as decimal strings; BSON has no codec for decimal.Decimal.
func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
