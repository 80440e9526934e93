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

// MongoPurchaseRepository implements PurchaseRepository using MongoDB
type MongoPurchaseRepository struct {
	collection *mongo.Collection
}

func (r *MongoPurchaseRepository) findOne(ctx context.Context, filter bson.M) (*domain.Purchase, error) {
	var doc entity.MongoPurchaseDoc
	found, err := findOne(ctx, r.collection, filter, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	if !found {
		return nil, nil
	}
	return doc.ToDomain(), nil
}

// Get retrieves the entry for (shop, item type, item)
func (r *MongoPurchaseRepository) Get(ctx context.Context, shopID string, itemType domain.ItemType, itemID string) (*domain.Purchase, error) {
	return r.findOne(ctx, bson.M{"shopId": shopID, "itemType": string(itemType), "itemId": itemID})
}

// GetByChargeRef retrieves the entry holding a charge reference
func (r *MongoPurchaseRepository) GetByChargeRef(ctx context.Context, chargeRef string) (*domain.Purchase, error) {
	if chargeRef == "" {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"chargeRef": chargeRef})
}

// ListByShop lists a shop's entries, oldest first
func (r *MongoPurchaseRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Purchase, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"shopId": shopID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer cursor.Close(ctx)

	var purchases []*domain.Purchase
	for cursor.Next(ctx) {
		var doc entity.MongoPurchaseDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode purchase: %w", err)
		}
		purchases = append(purchases, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return purchases, nil
}

// Insert adds a new entry; the partial unique indexes reject duplicates
func (r *MongoPurchaseRepository) Insert(ctx context.Context, purchase *domain.Purchase) error {
	if purchase.ID == "" {
		purchase.ID = uuid.NewString()
	}
	if _, err := r.collection.InsertOne(ctx, entity.MongoPurchaseDocFromDomain(purchase)); err != nil {
		return writeErr("insert purchase", err)
	}
	return nil
}

// UpdateIfMatch replaces the entry while status and attempt token still match
func (r *MongoPurchaseRepository) UpdateIfMatch(ctx context.Context, purchase *domain.Purchase, status domain.PurchaseStatus, attemptToken string) (bool, error) {
	filter := bson.M{
		"_id":          purchase.ID,
		"status":       string(status),
		"attemptToken": attemptToken,
	}
	result, err := r.collection.ReplaceOne(ctx, filter, entity.MongoPurchaseDocFromDomain(purchase))
	if err != nil {
		return false, writeErr("update purchase", err)
	}
	return result.MatchedCount == 1, nil
}

// DeleteByShop removes a shop's entries of one item type
func (r *MongoPurchaseRepository) DeleteByShop(ctx context.Context, shopID string, itemType domain.ItemType) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"shopId": shopID, "itemType": string(itemType)})
	if err != nil {
		return 0, fmt.Errorf("failed to delete purchases: %w", err)
	}
	return result.DeletedCount, nil
}

// DetachShop clears the shop of a shop's entries of one item type
func (r *MongoPurchaseRepository) DetachShop(ctx context.Context, shopID string, itemType domain.ItemType) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"shopId": shopID, "itemType": string(itemType)},
		bson.M{"$set": bson.M{"shopId": ""}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to detach purchases: %w", err)
	}
	return result.ModifiedCount, nil
}
