package ports

import (
	"context"
	"time"

	"section-store/internal/domain"
)

// Store opens units of work. Every multi-step transition runs inside one
// WithinTx call and reaches the repositories only through the Tx it is given,
// so all writes of the transition commit or roll back together.
type Store interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// TxFunc is the body of a unit of work. Returning an error rolls it back.
type TxFunc func(ctx context.Context, tx Tx) error

// Tx exposes the repositories bound to one unit of work
type Tx interface {
	Shops() ShopRepository
	Catalog() CatalogRepository
	Purchases() PurchaseRepository
	Installations() InstallationRepository
	Subscriptions() SubscriptionRepository
	Favorites() FavoriteRepository
	Backoffice() BackofficeRepository
}

// Lookups return (nil, nil) when nothing matches.

// ShopRepository persists shops
type ShopRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Shop, error)
	GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error)
	// Upsert inserts by domain or overwrites the existing row, keeping its ID
	Upsert(ctx context.Context, shop *domain.Shop) error
	Update(ctx context.Context, shop *domain.Shop) error
	Delete(ctx context.Context, id string) error
}

// CatalogRepository persists sections and bundles
type CatalogRepository interface {
	GetSection(ctx context.Context, id string) (*domain.Section, error)
	GetSectionBySlug(ctx context.Context, slug string) (*domain.Section, error)
	ListSections(ctx context.Context, activeOnly bool) ([]*domain.Section, error)
	UpsertSection(ctx context.Context, section *domain.Section) error
	IncrementSectionPurchases(ctx context.Context, id string) error
	IncrementSectionInstalls(ctx context.Context, id string) error

	GetBundle(ctx context.Context, id string) (*domain.Bundle, error)
	ListBundlesContaining(ctx context.Context, sectionID string) ([]*domain.Bundle, error)
	UpsertBundle(ctx context.Context, bundle *domain.Bundle) error
	IncrementBundlePurchases(ctx context.Context, id string) error
}

// PurchaseRepository persists ledger entries
type PurchaseRepository interface {
	Get(ctx context.Context, shopID string, itemType domain.ItemType, itemID string) (*domain.Purchase, error)
	GetByChargeRef(ctx context.Context, chargeRef string) (*domain.Purchase, error)
	ListByShop(ctx context.Context, shopID string) ([]*domain.Purchase, error)
	// Insert fails with domain.ErrConflict when the (shop, item type, item)
	// pair or the charge reference is taken
	Insert(ctx context.Context, purchase *domain.Purchase) error
	// UpdateIfMatch overwrites the entry only while its stored status and
	// attempt token still equal the given ones; false means it lost the race
	UpdateIfMatch(ctx context.Context, purchase *domain.Purchase, status domain.PurchaseStatus, attemptToken string) (bool, error)
	DeleteByShop(ctx context.Context, shopID string, itemType domain.ItemType) (int64, error)
	// DetachShop clears the shop of every entry of the given type
	DetachShop(ctx context.Context, shopID string, itemType domain.ItemType) (int64, error)
}

// InstallationRepository persists installations
type InstallationRepository interface {
	Get(ctx context.Context, shopID, sectionID, themeID string) (*domain.Installation, error)
	// Upsert is one conditional write keyed by (shop, section, theme);
	// created is true only for the call that inserted the row
	Upsert(ctx context.Context, installation *domain.Installation) (created bool, err error)
	ListByShop(ctx context.Context, shopID string) ([]*domain.Installation, error)
	DeleteByShop(ctx context.Context, shopID string) (int64, error)
}

// SubscriptionRepository persists Plus plan subscriptions
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *domain.Subscription) error
	GetLive(ctx context.Context, shopID string) (*domain.Subscription, error)
	CancelLive(ctx context.Context, shopID string, at time.Time) (int64, error)
	DeleteByShop(ctx context.Context, shopID string) (int64, error)
}

// FavoriteRepository persists favorites
type FavoriteRepository interface {
	Get(ctx context.Context, shopID, sectionID string) (*domain.Favorite, error)
	Insert(ctx context.Context, favorite *domain.Favorite) error
	Delete(ctx context.Context, id string) error
	CountByShop(ctx context.Context, shopID string) (int64, error)
	DeleteByShop(ctx context.Context, shopID string) (int64, error)
}

// BackofficeRepository covers rows written by the admin surface
type BackofficeRepository interface {
	CreateSupportTicket(ctx context.Context, ticket *domain.SupportTicket) error
	CreateFeatureRequest(ctx context.Context, request *domain.FeatureRequest) error
	CountSupportTickets(ctx context.Context, shopID string) (int64, error)
	DeleteSupportTickets(ctx context.Context, shopID string) (int64, error)
	DeleteFeatureRequests(ctx context.Context, shopDomain string) (int64, error)
}
