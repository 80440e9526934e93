package storage

import (
	"context"
	"fmt"

	"section-store/internal/config"
	"section-store/internal/infrastructure/postgres"
	"section-store/internal/infrastructure/repository"
	"section-store/internal/ports"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Open connects the configured driver and prepares its schema. The returned
// func releases the connection.
func Open(ctx context.Context, cfg config.Store, logger zerolog.Logger) (ports.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		if err := postgres.RunMigrations(db); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		logger.Info().Msg("Connected to PostgreSQL")
		return postgres.NewStore(db), func() { sqlDB.Close() }, nil

	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		store := repository.NewMongoStore(client, client.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("Connected to MongoDB")
		return store, func() { client.Disconnect(context.Background()) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
