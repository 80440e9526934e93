package entity

import (
	"time"

	"section-store/internal/domain"
)

// MongoSectionDoc represents a catalog section in MongoDB
type MongoSectionDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Slug          string    `bson:"slug"`
	Description   string    `bson:"description"`
	Category      string    `bson:"category"`
	Price         string    `bson:"price"`
	IsFree        bool      `bson:"isFree"`
	IsPro         bool      `bson:"isPro"`
	IsPlus        bool      `bson:"isPlus"`
	IsActive      bool      `bson:"isActive"`
	Content       string    `bson:"content"`
	PurchaseCount int64     `bson:"purchaseCount"`
	InstallCount  int64     `bson:"installCount"`
	Rating        float64   `bson:"rating"`
	ReviewCount   int64     `bson:"reviewCount"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoSectionDoc) ToDomain() *domain.Section {
	return &domain.Section{
		ID:            d.ID,
		Name:          d.Name,
		Slug:          d.Slug,
		Description:   d.Description,
		Category:      d.Category,
		Price:         amount(d.Price),
		IsFree:        d.IsFree,
		IsPro:         d.IsPro,
		IsPlus:        d.IsPlus,
		IsActive:      d.IsActive,
		Content:       d.Content,
		PurchaseCount: d.PurchaseCount,
		InstallCount:  d.InstallCount,
		Rating:        d.Rating,
		ReviewCount:   d.ReviewCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// MongoSectionDocFromDomain converts a domain entity to a MongoDB document
func MongoSectionDocFromDomain(s *domain.Section) *MongoSectionDoc {
	return &MongoSectionDoc{
		ID:            s.ID,
		Name:          s.Name,
		Slug:          s.Slug,
		Description:   s.Description,
		Category:      s.Category,
		Price:         s.Price.String(),
		IsFree:        s.IsFree,
		IsPro:         s.IsPro,
		IsPlus:        s.IsPlus,
		IsActive:      s.IsActive,
		Content:       s.Content,
		PurchaseCount: s.PurchaseCount,
		InstallCount:  s.InstallCount,
		Rating:        s.Rating,
		ReviewCount:   s.ReviewCount,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// MongoBundleDoc represents a bundle in MongoDB
type MongoBundleDoc struct {
	ID              string    `bson:"_id"`
	Name            string    `bson:"name"`
	Slug            string    `bson:"slug"`
	Description     string    `bson:"description"`
	RegularPrice    string    `bson:"regularPrice"`
	BundlePrice     string    `bson:"bundlePrice"`
	DiscountPercent int       `bson:"discountPercent"`
	IsActive        bool      `bson:"isActive"`
	SectionIDs      []string  `bson:"sectionIds"`
	PurchaseCount   int64     `bson:"purchaseCount"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoBundleDoc) ToDomain() *domain.Bundle {
	return &domain.Bundle{
		ID:              d.ID,
		Name:            d.Name,
		Slug:            d.Slug,
		Description:     d.Description,
		RegularPrice:    amount(d.RegularPrice),
		BundlePrice:     amount(d.BundlePrice),
		DiscountPercent: d.DiscountPercent,
		IsActive:        d.IsActive,
		SectionIDs:      append([]string(nil), d.SectionIDs...),
		PurchaseCount:   d.PurchaseCount,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// MongoBundleDocFromDomain converts a domain entity to a MongoDB document
func MongoBundleDocFromDomain(b *domain.Bundle) *MongoBundleDoc {
	return &MongoBundleDoc{
		ID:              b.ID,
		Name:            b.Name,
		Slug:            b.Slug,
		Description:     b.Description,
		RegularPrice:    b.RegularPrice.String(),
		BundlePrice:     b.BundlePrice.String(),
		DiscountPercent: b.DiscountPercent,
		IsActive:        b.IsActive,
		SectionIDs:      b.SectionIDs,
		PurchaseCount:   b.PurchaseCount,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// MongoFavoriteDoc represents a favorite in MongoDB
type MongoFavoriteDoc struct {
	ID        string    `bson:"_id"`
	ShopID    string    `bson:"shopId"`
	SectionID string    `bson:"sectionId"`
	CreatedAt time.Time `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoFavoriteDoc) ToDomain() *domain.Favorite {
	return &domain.Favorite{ID: d.ID, ShopID: d.ShopID, SectionID: d.SectionID, CreatedAt: d.CreatedAt}
}

// MongoSupportTicketDoc represents a support ticket in MongoDB
type MongoSupportTicketDoc struct {
	ID        string    `bson:"_id"`
	ShopID    string    `bson:"shopId"`
	Subject   string    `bson:"subject"`
	Message   string    `bson:"message"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"createdAt"`
}

// MongoFeatureRequestDoc represents a feature request in MongoDB
type MongoFeatureRequestDoc struct {
	ID          string    `bson:"_id"`
	ShopDomain  string    `bson:"shopDomain"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Votes       int       `bson:"votes"`
	CreatedAt   time.Time `bson:"createdAt"`
}
