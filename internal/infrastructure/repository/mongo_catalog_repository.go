package repository

import (
	"context"
	"fmt"

	"section-store/internal/domain"
	"section-store/internal/infrastructure/repository/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalogRepository implements CatalogRepository using MongoDB
type MongoCatalogRepository struct {
	sections *mongo.Collection
	bundles  *mongo.Collection
}

// GetSection retrieves a section by id
func (r *MongoCatalogRepository) GetSection(ctx context.Context, id string) (*domain.Section, error) {
	var doc entity.MongoSectionDoc
	found, err := findOne(ctx, r.sections, bson.M{"_id": id}, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToDomain(), nil
}

// GetSectionBySlug retrieves a section by slug
func (r *MongoCatalogRepository) GetSectionBySlug(ctx context.Context, slug string) (*domain.Section, error) {
	var doc entity.MongoSectionDoc
	found, err := findOne(ctx, r.sections, bson.M{"slug": slug}, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToDomain(), nil
}

// ListSections lists sections ordered by name
func (r *MongoCatalogRepository) ListSections(ctx context.Context, activeOnly bool) ([]*domain.Section, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.sections.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer cursor.Close(ctx)

	var sections []*domain.Section
	for cursor.Next(ctx) {
		var doc entity.MongoSectionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode section: %w", err)
		}
		sections = append(sections, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return sections, nil
}

// UpsertSection saves a section keyed by slug, preserving its counters
func (r *MongoCatalogRepository) UpsertSection(ctx context.Context, section *domain.Section) error {
	doc := entity.MongoSectionDocFromDomain(section)
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	filter := bson.M{"slug": section.Slug}
	update := bson.M{
		"$set": bson.M{
			"name":        doc.Name,
			"description": doc.Description,
			"category":    doc.Category,
			"price":       doc.Price,
			"isFree":      doc.IsFree,
			"isPro":       doc.IsPro,
			"isPlus":      doc.IsPlus,
			"isActive":    doc.IsActive,
			"content":     doc.Content,
			"rating":      doc.Rating,
			"reviewCount": doc.ReviewCount,
			"updatedAt":   doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":           doc.ID,
			"purchaseCount": int64(0),
			"installCount":  int64(0),
			"createdAt":     doc.CreatedAt,
		},
	}
	if _, err := r.sections.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return writeErr("save section", err)
	}

	var stored entity.MongoSectionDoc
	if _, err := findOne(ctx, r.sections, filter, &stored); err != nil {
		return fmt.Errorf("failed to reload section: %w", err)
	}
	section.ID = stored.ID
	section.PurchaseCount = stored.PurchaseCount
	section.InstallCount = stored.InstallCount
	section.CreatedAt = stored.CreatedAt
	return nil
}

func (r *MongoCatalogRepository) increment(ctx context.Context, collection *mongo.Collection, id, field string, notFound error) error {
	result, err := collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: 1}})
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return notFound
	}
	return nil
}

// IncrementSectionPurchases bumps the section purchase counter
func (r *MongoCatalogRepository) IncrementSectionPurchases(ctx context.Context, id string) error {
	return r.increment(ctx, r.sections, id, "purchaseCount", domain.ErrSectionNotFound)
}

// IncrementSectionInstalls bumps the section install counter
func (r *MongoCatalogRepository) IncrementSectionInstalls(ctx context.Context, id string) error {
	return r.increment(ctx, r.sections, id, "installCount", domain.ErrSectionNotFound)
}

// GetBundle retrieves a bundle by id
func (r *MongoCatalogRepository) GetBundle(ctx context.Context, id string) (*domain.Bundle, error) {
	var doc entity.MongoBundleDoc
	found, err := findOne(ctx, r.bundles, bson.M{"_id": id}, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToDomain(), nil
}

// ListBundlesContaining lists bundles that grant the section
func (r *MongoCatalogRepository) ListBundlesContaining(ctx context.Context, sectionID string) ([]*domain.Bundle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.bundles.Find(ctx, bson.M{"sectionIds": sectionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entity.MongoBundleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bundles: %w", err)
	}
	bundles := make([]*domain.Bundle, 0, len(docs))
	for i := range docs {
		bundles = append(bundles, docs[i].ToDomain())
	}
	return bundles, nil
}

// UpsertBundle saves a bundle keyed by slug, preserving its counter
func (r *MongoCatalogRepository) UpsertBundle(ctx context.Context, bundle *domain.Bundle) error {
	doc := entity.MongoBundleDocFromDomain(bundle)
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	filter := bson.M{"slug": bundle.Slug}
	update := bson.M{
		"$set": bson.M{
			"name":            doc.Name,
			"description":     doc.Description,
			"regularPrice":    doc.RegularPrice,
			"bundlePrice":     doc.BundlePrice,
			"discountPercent": doc.DiscountPercent,
			"isActive":        doc.IsActive,
			"sectionIds":      doc.SectionIDs,
			"updatedAt":       doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":           doc.ID,
			"purchaseCount": int64(0),
			"createdAt":     doc.CreatedAt,
		},
	}
	if _, err := r.bundles.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return writeErr("save bundle", err)
	}

	var stored entity.MongoBundleDoc
	if _, err := findOne(ctx, r.bundles, filter, &stored); err != nil {
		return fmt.Errorf("failed to reload bundle: %w", err)
	}
	bundle.ID = stored.ID
	bundle.PurchaseCount = stored.PurchaseCount
	bundle.CreatedAt = stored.CreatedAt
	return nil
}

// IncrementBundlePurchases bumps the bundle purchase counter
func (r *MongoCatalogRepository) IncrementBundlePurchases(ctx context.Context, id string) error {
	return r.increment(ctx, r.bundles, id, "purchaseCount", domain.ErrBundleNotFound)
}
