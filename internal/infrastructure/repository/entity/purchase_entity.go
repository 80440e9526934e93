package entity

import (
	"time"

	"section-store/internal/domain"
)

// MongoPurchaseDoc represents a ledger entry in MongoDB
type MongoPurchaseDoc struct {
	ID              string     `bson:"_id"`
	ShopID          string     `bson:"shopId"`
	ItemType        string     `bson:"itemType"`
	ItemID          string     `bson:"itemId"`
	ItemName        string     `bson:"itemName"`
	Price           string     `bson:"price"`
	Currency        string     `bson:"currency"`
	ChargeRef       string     `bson:"chargeRef"`
	ConfirmationURL string     `bson:"confirmationUrl"`
	Status          string     `bson:"status"`
	AttemptToken    string     `bson:"attemptToken"`
	AttemptedAt     time.Time  `bson:"attemptedAt"`
	CompletedAt     *time.Time `bson:"completedAt,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt"`
	UpdatedAt       time.Time  `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoPurchaseDoc) ToDomain() *domain.Purchase {
	return &domain.Purchase{
		ID:              d.ID,
		ShopID:          d.ShopID,
		ItemType:        domain.ItemType(d.ItemType),
		ItemID:          d.ItemID,
		ItemName:        d.ItemName,
		Price:           amount(d.Price),
		Currency:        d.Currency,
		ChargeRef:       d.ChargeRef,
		ConfirmationURL: d.ConfirmationURL,
		Status:          domain.PurchaseStatus(d.Status),
		AttemptToken:    d.AttemptToken,
		AttemptedAt:     d.AttemptedAt,
		CompletedAt:     d.CompletedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// MongoPurchaseDocFromDomain converts a domain entity to a MongoDB document
func MongoPurchaseDocFromDomain(p *domain.Purchase) *MongoPurchaseDoc {
	return &MongoPurchaseDoc{
		ID:              p.ID,
		ShopID:          p.ShopID,
		ItemType:        string(p.ItemType),
		ItemID:          p.ItemID,
		ItemName:        p.ItemName,
		Price:           p.Price.String(),
		Currency:        p.Currency,
		ChargeRef:       p.ChargeRef,
		ConfirmationURL: p.ConfirmationURL,
		Status:          string(p.Status),
		AttemptToken:    p.AttemptToken,
		AttemptedAt:     p.AttemptedAt,
		CompletedAt:     p.CompletedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
