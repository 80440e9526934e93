package entity

import (
	"time"

	"section-store/internal/domain"
)

// MongoInstallationDoc represents a theme installation in MongoDB
type MongoInstallationDoc struct {
	ID          string    `bson:"_id"`
	ShopID      string    `bson:"shopId"`
	SectionID   string    `bson:"sectionId"`
	ThemeID     string    `bson:"themeId"`
	ThemeName   string    `bson:"themeName"`
	IsActive    bool      `bson:"isActive"`
	InstalledAt time.Time `bson:"installedAt"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoInstallationDoc) ToDomain() *domain.Installation {
	return &domain.Installation{
		ID:          d.ID,
		ShopID:      d.ShopID,
		SectionID:   d.SectionID,
		ThemeID:     d.ThemeID,
		ThemeName:   d.ThemeName,
		IsActive:    d.IsActive,
		InstalledAt: d.InstalledAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoSubscriptionDoc represents a plan subscription in MongoDB
type MongoSubscriptionDoc struct {
	ID          string     `bson:"_id"`
	ShopID      string     `bson:"shopId"`
	PlanName    string     `bson:"planName"`
	Price       string     `bson:"price"`
	Status      string     `bson:"status"`
	StartedAt   time.Time  `bson:"startedAt"`
	EndsAt      *time.Time `bson:"endsAt,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoSubscriptionDoc) ToDomain() *domain.Subscription {
	return &domain.Subscription{
		ID:          d.ID,
		ShopID:      d.ShopID,
		PlanName:    d.PlanName,
		Price:       amount(d.Price),
		Status:      domain.SubscriptionStatus(d.Status),
		StartedAt:   d.StartedAt,
		EndsAt:      d.EndsAt,
		CancelledAt: d.CancelledAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoSubscriptionDocFromDomain converts a domain entity to a MongoDB document
func MongoSubscriptionDocFromDomain(s *domain.Subscription) *MongoSubscriptionDoc {
	return &MongoSubscriptionDoc{
		ID:          s.ID,
		ShopID:      s.ShopID,
		PlanName:    s.PlanName,
		Price:       s.Price.String(),
		Status:      string(s.Status),
		StartedAt:   s.StartedAt,
		EndsAt:      s.EndsAt,
		CancelledAt: s.CancelledAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
