package repository

import (
	"context"
	"fmt"
	"time"

	"section-store/internal/domain"
	"section-store/internal/infrastructure/repository/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoInstallationRepository implements InstallationRepository using MongoDB
type MongoInstallationRepository struct {
	collection *mongo.Collection
}

func installationKey(shopID, sectionID, themeID string) bson.M {
	return bson.M{"shopId": shopID, "sectionId": sectionID, "themeId": themeID}
}

// Get retrieves the installation of a section into a theme
func (r *MongoInstallationRepository) Get(ctx context.Context, shopID, sectionID, themeID string) (*domain.Installation, error) {
	var doc entity.MongoInstallationDoc
	found, err := findOne(ctx, r.collection, installationKey(shopID, sectionID, themeID), &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}
	if !found {
		return nil, nil
	}
	return doc.ToDomain(), nil
}

// Upsert records the installation in a single upsert keyed by
// (shop, section, theme) and reports whether it inserted the document
func (r *MongoInstallationRepository) Upsert(ctx context.Context, installation *domain.Installation) (bool, error) {
	id := installation.ID
	if id == "" {
		id = uuid.NewString()
	}
	filter := installationKey(installation.ShopID, installation.SectionID, installation.ThemeID)
	update := bson.M{
		"$set": bson.M{
			"themeName": installation.ThemeName,
			"isActive":  true,
			"updatedAt": installation.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":         id,
			"installedAt": installation.InstalledAt,
			"createdAt":   installation.CreatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, writeErr("save installation", err)
	}

	var stored entity.MongoInstallationDoc
	if _, err := findOne(ctx, r.collection, filter, &stored); err != nil {
		return false, fmt.Errorf("failed to reload installation: %w", err)
	}
	*installation = *stored.ToDomain()
	return result.UpsertedCount == 1, nil
}

// ListByShop lists a shop's installations in install order
func (r *MongoInstallationRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Installation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "installedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"shopId": shopID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list installations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entity.MongoInstallationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode installations: %w", err)
	}
	installations := make([]*domain.Installation, 0, len(docs))
	for i := range docs {
		installations = append(installations, docs[i].ToDomain())
	}
	return installations, nil
}

// DeleteByShop removes a shop's installations
func (r *MongoInstallationRepository) DeleteByShop(ctx context.Context, shopID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"shopId": shopID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete installations: %w", err)
	}
	return result.DeletedCount, nil
}

// MongoSubscriptionRepository implements SubscriptionRepository using MongoDB
type MongoSubscriptionRepository struct {
	collection *mongo.Collection
}

func liveFilter(shopID string) bson.M {
	return bson.M{
		"shopId": shopID,
		"status": bson.M{"$in": bson.A{string(domain.SubscriptionTrial), string(domain.SubscriptionActive)}},
	}
}

// Create stores a subscription
func (r *MongoSubscriptionRepository) Create(ctx context.Context, subscription *domain.Subscription) error {
	if subscription.ID == "" {
		subscription.ID = uuid.NewString()
	}
	if _, err := r.collection.InsertOne(ctx, entity.MongoSubscriptionDocFromDomain(subscription)); err != nil {
		return writeErr("create subscription", err)
	}
	return nil
}

// GetLive retrieves the shop's trial or active subscription
func (r *MongoSubscriptionRepository) GetLive(ctx context.Context, shopID string) (*domain.Subscription, error) {
	var doc entity.MongoSubscriptionDoc
	found, err := findOne(ctx, r.collection, liveFilter(shopID), &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if !found {
		return nil, nil
	}
	return doc.ToDomain(), nil
}

// CancelLive cancels every live subscription of the shop
func (r *MongoSubscriptionRepository) CancelLive(ctx context.Context, shopID string, at time.Time) (int64, error) {
	update := bson.M{"$set": bson.M{
		"status":      string(domain.SubscriptionCancelled),
		"cancelledAt": at,
		"updatedAt":   at,
	}}
	result, err := r.collection.UpdateMany(ctx, liveFilter(shopID), update)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel subscriptions: %w", err)
	}
	return result.ModifiedCount, nil
}

// DeleteByShop removes a shop's subscriptions
func (r *MongoSubscriptionRepository) DeleteByShop(ctx context.Context, shopID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"shopId": shopID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	return result.DeletedCount, nil
}
