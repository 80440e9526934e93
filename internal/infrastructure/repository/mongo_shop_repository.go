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

// MongoShopRepository implements ShopRepository using MongoDB
type MongoShopRepository struct {
	collection *mongo.Collection
}

// GetByID retrieves a shop by id
func (r *MongoShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	var doc entity.MongoShopDoc
	found, err := findOne(ctx, r.collection, bson.M{"_id": id}, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToDomain(), nil
}

// GetByDomain retrieves a shop by its myshopify domain
func (r *MongoShopRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var doc entity.MongoShopDoc
	found, err := findOne(ctx, r.collection, bson.M{"domain": shopDomain}, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToDomain(), nil
}

// Upsert saves the shop keyed by domain. An existing shop keeps its id and
// creation time; both are written back into shop.
func (r *MongoShopRepository) Upsert(ctx context.Context, shop *domain.Shop) error {
	doc := entity.MongoShopDocFromDomain(shop)
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"domain": shop.Domain}
	update := bson.M{
		"$set": bson.M{
			"accessToken":   doc.AccessToken,
			"scopes":        doc.Scopes,
			"isActive":      doc.IsActive,
			"installedAt":   doc.InstalledAt,
			"uninstalledAt": doc.UninstalledAt,
			"updatedAt":     doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":       doc.ID,
			"createdAt": doc.CreatedAt,
		},
	}
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return writeErr("save shop", err)
	}

	var stored entity.MongoShopDoc
	if _, err := findOne(ctx, r.collection, filter, &stored); err != nil {
		return fmt.Errorf("failed to reload shop: %w", err)
	}
	shop.ID = stored.ID
	shop.CreatedAt = stored.CreatedAt
	return nil
}

// Update replaces a stored shop
func (r *MongoShopRepository) Update(ctx context.Context, shop *domain.Shop) error {
	doc := entity.MongoShopDocFromDomain(shop)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": shop.ID}, doc)
	if err != nil {
		return writeErr("update shop", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrShopNotFound
	}
	return nil
}

// Delete removes a shop
func (r *MongoShopRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete shop: %w", err)
	}
	return nil
}
