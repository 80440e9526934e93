package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/rs/zerolog"
)

// ShopServiceConfig holds the app settings used during install
type ShopServiceConfig struct {
	AppURL   string
	Scopes   []string
	StateTTL time.Duration
}

// ShopService onboards shops through OAuth and resolves them for requests
type ShopService struct {
	store  ports.Store
	auth   ports.ShopifyAuth
	states ports.OAuthStateStore
	vault  ports.CredentialVault
	clock  ports.Clock
	logger zerolog.Logger
	cfg    ShopServiceConfig
}

// NewShopService creates the shop onboarding service
func NewShopService(
	store ports.Store,
	auth ports.ShopifyAuth,
	states ports.OAuthStateStore,
	vault ports.CredentialVault,
	clock ports.Clock,
	logger zerolog.Logger,
	cfg ShopServiceConfig,
) *ShopService {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	return &ShopService{
		store:  store,
		auth:   auth,
		states: states,
		vault:  vault,
		clock:  clock,
		logger: logger,
		cfg:    cfg,
	}
}

func (s *ShopService) redirectURI() string {
	return s.cfg.AppURL + "/auth/callback"
}

// BeginInstall issues an OAuth state and returns the authorization URL
func (s *ShopService) BeginInstall(ctx context.Context, shop, returnURL string) (string, error) {
	if !domain.ValidShopDomain(shop) {
		return "", fmt.Errorf("%w: invalid shop domain %q", domain.ErrInvalidInput, shop)
	}

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	now := s.clock.Now()
	state := &domain.OAuthState{
		Shop:      shop,
		State:     hex.EncodeToString(stateBytes),
		Scopes:    s.cfg.Scopes,
		ReturnURL: returnURL,
		ExpiresAt: now.Add(s.cfg.StateTTL),
		CreatedAt: now,
	}
	if err := s.states.Save(ctx, state, s.cfg.StateTTL); err != nil {
		return "", fmt.Errorf("failed to save oauth state: %w", err)
	}

	s.logger.Info().
		Str("shop", shop).
		Strs("scopes", s.cfg.Scopes).
		Msg("Starting OAuth install")
	return s.auth.AuthorizeURL(shop, state.State, s.redirectURI(), s.cfg.Scopes), nil
}

// CompleteInstall verifies the OAuth callback, stores the sealed access token
// and activates the shop. A shop that installed before keeps its id, and with
// it every purchase and installation it made.
func (s *ShopService) CompleteInstall(ctx context.Context, callback *url.URL) (*domain.Shop, *domain.OAuthState, error) {
	query := callback.Query()
	shopDomain := query.Get("shop")
	code := query.Get("code")
	stateValue := query.Get("state")
	if shopDomain == "" || code == "" || stateValue == "" {
		return nil, nil, fmt.Errorf("%w: missing shop, code or state", domain.ErrInvalidInput)
	}
	if !domain.ValidShopDomain(shopDomain) {
		return nil, nil, fmt.Errorf("%w: invalid shop domain %q", domain.ErrInvalidInput, shopDomain)
	}

	valid, err := s.auth.VerifyCallback(callback)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify callback: %w", err)
	}
	if !valid {
		return nil, nil, fmt.Errorf("%w: callback signature mismatch", domain.ErrInvalidSession)
	}

	state, err := s.states.Consume(ctx, stateValue)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	now := s.clock.Now()
	if state == nil || state.Shop != shopDomain || state.Expired(now) {
		return nil, nil, domain.ErrInvalidState
	}

	token, err := s.auth.ExchangeToken(ctx, shopDomain, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to exchange token: %w", err)
	}
	sealed, err := s.vault.Seal(token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to seal access token: %w", err)
	}

	shop := &domain.Shop{
		Domain:      shopDomain,
		AccessToken: sealed,
		Scopes:      state.Scopes,
		IsActive:    true,
		InstalledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.Shops().Upsert(ctx, shop); err != nil {
			return fmt.Errorf("failed to save shop: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	creds := ports.ShopCredentials{Domain: shopDomain, AccessToken: token}
	if err := s.auth.RegisterWebhooks(ctx, creds, domain.LifecycleTopics(), s.cfg.AppURL+"/webhooks"); err != nil {
		// the shop is usable without them; the next install retries
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to register lifecycle webhooks")
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Str("shopId", shop.ID).
		Msg("Shop installed")
	return shop, state, nil
}

// ResolveShop returns the active shop with the given domain
func (s *ShopService) ResolveShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var shop *domain.Shop
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		shop, err = activeShop(ctx, tx, shopDomain)
		return err
	})
	return shop, err
}
