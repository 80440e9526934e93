package repository

import (
	"context"
	"errors"
	"fmt"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	shopsCollection           = "shops"
	sectionsCollection        = "sections"
	bundlesCollection         = "bundles"
	purchasesCollection       = "purchases"
	installationsCollection   = "installations"
	subscriptionsCollection   = "subscriptions"
	favoritesCollection       = "favorites"
	supportTicketsCollection  = "support_tickets"
	featureRequestsCollection = "feature_requests"
)

// MongoStore implements ports.Store on MongoDB. Units of work run inside
// multi-document transactions, so the deployment must be a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore creates a new MongoDB store
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, db: db}
}

var _ ports.Store = (*MongoStore)(nil)

// EnsureIndexes creates the unique indexes the ledger relies on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		shopsCollection: {
			{Keys: bson.D{{Key: "domain", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		sectionsCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		bundlesCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "sectionIds", Value: 1}}},
		},
		purchasesCollection: {
			{
				Keys: bson.D{{Key: "shopId", Value: 1}, {Key: "itemType", Value: 1}, {Key: "itemId", Value: 1}},
				// detached entries of redacted shops are exempt
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"shopId": bson.M{"$gt": ""}}),
			},
			{
				Keys: bson.D{{Key: "chargeRef", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"chargeRef": bson.M{"$gt": ""}}),
			},
		},
		installationsCollection: {
			{
				Keys:    bson.D{{Key: "shopId", Value: 1}, {Key: "sectionId", Value: 1}, {Key: "themeId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		subscriptionsCollection: {
			{Keys: bson.D{{Key: "shopId", Value: 1}, {Key: "status", Value: 1}}},
		},
		favoritesCollection: {
			{Keys: bson.D{{Key: "shopId", Value: 1}, {Key: "sectionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		supportTicketsCollection: {
			{Keys: bson.D{{Key: "shopId", Value: 1}}},
		},
		featureRequestsCollection: {
			{Keys: bson.D{{Key: "shopDomain", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

// WithinTx runs fn in a transaction. The driver retries fn on transient
// errors, so fn must not keep state from an aborted attempt.
func (s *MongoStore) WithinTx(ctx context.Context, fn ports.TxFunc) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &mongoTx{db: s.db})
	})
	return err
}

type mongoTx struct {
	db *mongo.Database
}

func (t *mongoTx) Shops() ports.ShopRepository {
	return &MongoShopRepository{collection: t.db.Collection(shopsCollection)}
}

func (t *mongoTx) Catalog() ports.CatalogRepository {
	return &MongoCatalogRepository{
		sections: t.db.Collection(sectionsCollection),
		bundles:  t.db.Collection(bundlesCollection),
	}
}

func (t *mongoTx) Purchases() ports.PurchaseRepository {
	return &MongoPurchaseRepository{collection: t.db.Collection(purchasesCollection)}
}

func (t *mongoTx) Installations() ports.InstallationRepository {
	return &MongoInstallationRepository{collection: t.db.Collection(installationsCollection)}
}

func (t *mongoTx) Subscriptions() ports.SubscriptionRepository {
	return &MongoSubscriptionRepository{collection: t.db.Collection(subscriptionsCollection)}
}

func (t *mongoTx) Favorites() ports.FavoriteRepository {
	return &MongoFavoriteRepository{collection: t.db.Collection(favoritesCollection)}
}

func (t *mongoTx) Backoffice() ports.BackofficeRepository {
	return &MongoBackofficeRepository{
		tickets:  t.db.Collection(supportTicketsCollection),
		requests: t.db.Collection(featureRequestsCollection),
	}
}

// writeErr maps unique index violations to domain.ErrConflict
func writeErr(action string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", action, domain.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// findOne decodes a single document; a missing one is (false, nil)
func findOne(ctx context.Context, collection *mongo.Collection, filter interface{}, out interface{}) (bool, error) {
	err := collection.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
