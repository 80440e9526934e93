package ports

import (
	"context"
	"time"

	"section-store/internal/domain"
)

// EncryptionService seals secrets at rest
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// CredentialVault turns stored shops into API credentials and back
type CredentialVault interface {
	Seal(accessToken string) (string, error)
	Credentials(shop *domain.Shop) (ShopCredentials, error)
}

// OAuthStateStore keeps install states until the callback consumes them
type OAuthStateStore interface {
	Save(ctx context.Context, state *domain.OAuthState, ttl time.Duration) error
	// Consume returns (nil, nil) for unknown or already consumed states
	Consume(ctx context.Context, state string) (*domain.OAuthState, error)
}

// DeliveryDeduper suppresses duplicate webhook deliveries
type DeliveryDeduper interface {
	// Claim is true for the first caller with a given delivery id
	Claim(ctx context.Context, deliveryID string) (bool, error)
	Release(ctx context.Context, deliveryID string) error
}

// EventPublisher announces committed transitions
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}

// Metrics records workflow outcomes
type Metrics interface {
	PurchaseOutcome(itemType domain.ItemType, outcome string)
	InstallOutcome(outcome string)
	WebhookProcessed(topic, result string)
}

// Clock is injected so claim expiry can be tested
type Clock interface {
	Now() time.Time
}
