package shopify

import (
	"fmt"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/rs/zerolog"
)

// TokenManager seals access tokens before storage and opens them for API calls
type TokenManager struct {
	encryptionSvc ports.EncryptionService
	logger        zerolog.Logger
}

var _ ports.CredentialVault = (*TokenManager)(nil)

// NewTokenManager creates a new token manager
func NewTokenManager(encryptionSvc ports.EncryptionService, logger zerolog.Logger) *TokenManager {
	return &TokenManager{
		encryptionSvc: encryptionSvc,
		logger:        logger,
	}
}

// Seal encrypts an access token before storage
func (tm *TokenManager) Seal(accessToken string) (string, error) {
	if accessToken == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	sealed, err := tm.encryptionSvc.Encrypt(accessToken)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}
	return sealed, nil
}

// Credentials decrypts the stored token of an installed shop
func (tm *TokenManager) Credentials(shop *domain.Shop) (ports.ShopCredentials, error) {
	if shop == nil || shop.AccessToken == "" {
		return ports.ShopCredentials{}, fmt.Errorf("%w: shop has no access token", domain.ErrShopNotFound)
	}
	token, err := tm.encryptionSvc.Decrypt(shop.AccessToken)
	if err != nil {
		tm.logger.Error().
			Err(err).
			Str("shop", shop.Domain).
			Msg("Failed to decrypt access token")
		return ports.ShopCredentials{}, fmt.Errorf("failed to decrypt token: %w", err)
	}
	return ports.ShopCredentials{Domain: shop.Domain, AccessToken: token}, nil
}
