// Package postgres is the relational Store driver. Uniqueness rules live in
// partial unique indexes so concurrent writers are arbitrated by the database.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres. Unique violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

// Store implements ports.Store on a gorm connection
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ ports.Store = (*Store)(nil)

// WithinTx runs fn in a database transaction
func (s *Store) WithinTx(ctx context.Context, fn ports.TxFunc) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &pgTx{db: db})
	})
}

type pgTx struct {
	db *gorm.DB
}

func (t *pgTx) Shops() ports.ShopRepository                 { return &ShopRepository{db: t.db} }
func (t *pgTx) Catalog() ports.CatalogRepository            { return &CatalogRepository{db: t.db} }
func (t *pgTx) Purchases() ports.PurchaseRepository         { return &PurchaseRepository{db: t.db} }
func (t *pgTx) Installations() ports.InstallationRepository { return &InstallationRepository{db: t.db} }
func (t *pgTx) Subscriptions() ports.SubscriptionRepository { return &SubscriptionRepository{db: t.db} }
func (t *pgTx) Favorites() ports.FavoriteRepository         { return &FavoriteRepository{db: t.db} }
func (t *pgTx) Backoffice() ports.BackofficeRepository      { return &BackofficeRepository{db: t.db} }

// translate maps driver errors onto domain errors
func translate(action string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to %s: %w", action, domain.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// first loads one row into out and reports whether it existed
func first(db *gorm.DB, out interface{}, query string, args ...interface{}) (bool, error) {
	err := db.Where(query, args...).Take(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
