package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"section-store/internal/domain"
	"section-store/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// DefaultAPIVersion is the Admin API version requests are pinned to
const DefaultAPIVersion = "2024-10"

// RetryConfig controls how often throttled or failed Admin API calls are retried
type RetryConfig struct {
	MaxRetries int
}

// DefaultRetryConfig retries a call up to three times
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3}
}

// Client adapts go-shopify to the billing, theme and OAuth ports
type Client struct {
	apiKey      string
	app         goshopify.App
	apiVersion  string
	retryConfig RetryConfig
	logger      zerolog.Logger
}

var (
	_ ports.BillingGateway = (*Client)(nil)
	_ ports.ThemeStore     = (*Client)(nil)
	_ ports.ShopifyAuth    = (*Client)(nil)
)

// NewClient creates a new Shopify client adapter
func NewClient(apiKey, apiSecret, redirectURL string, retryConfig RetryConfig, logger zerolog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		app: goshopify.App{
			ApiKey:      apiKey,
			ApiSecret:   apiSecret,
			RedirectUrl: redirectURL,
		},
		apiVersion:  DefaultAPIVersion,
		retryConfig: retryConfig,
		logger:      logger,
	}
}

// WithAPIVersion pins requests to version; an empty version keeps the default
func (c *Client) WithAPIVersion(version string) *Client {
	if version != "" {
		c.apiVersion = version
	}
	return c
}

// createClient is a helper to create a goshopify client
func (c *Client) createClient(creds ports.ShopCredentials) (*goshopify.Client, error) {
	opts := []goshopify.Option{goshopify.WithVersion(c.apiVersion)}
	if c.retryConfig.MaxRetries > 0 {
		opts = append(opts, goshopify.WithRetry(c.retryConfig.MaxRetries))
	}
	client, err := goshopify.NewClient(c.app, creds.Domain, creds.AccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Authentication methods

// AuthorizeURL builds the OAuth grant URL. go-shopify's AuthorizeUrl has no
// per-call redirect_uri, so the query is assembled here.
func (c *Client) AuthorizeURL(shop, state, redirectURI string, scopes []string) string {
	query := url.Values{}
	query.Set("client_id", c.apiKey)
	query.Set("scope", strings.Join(scopes, ","))
	query.Set("redirect_uri", redirectURI)
	query.Set("state", state)

	c.logger.Debug().
		Str("shop", shop).
		Strs("scopes", scopes).
		Msg("Generated OAuth authorization URL")

	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, query.Encode())
}

// VerifyCallback checks the hmac of an OAuth callback
func (c *Client) VerifyCallback(callback *url.URL) (bool, error) {
	ok, err := c.app.VerifyAuthorizationURL(callback)
	if err != nil {
		return false, fmt.Errorf("failed to verify callback: %w", err)
	}
	return ok, nil
}

func (c *Client) ExchangeToken(ctx context.Context, shop, code string) (string, error) {
	token, err := c.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	return token, nil
}

// Webhook API

// RegisterWebhooks subscribes the shop to each topic. Topics that are
// already registered are reported by Shopify as 422 and skipped.
func (c *Client) RegisterWebhooks(ctx context.Context, creds ports.ShopCredentials, topics []string, address string) error {
	client, err := c.createClient(creds)
	if err != nil {
		return err
	}
	var failed []string
	for _, topic := range topics {
		_, err := client.Webhook.Create(ctx, goshopify.Webhook{
			Topic:   topic,
			Address: address,
			Format:  "json",
		})
		if err != nil && statusOf(err) != http.StatusUnprocessableEntity {
			c.logger.Error().
				Err(err).
				Str("shop", creds.Domain).
				Str("topic", topic).
				Msg("Failed to register webhook")
			failed = append(failed, topic)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to register webhooks: %s", strings.Join(failed, ", "))
	}
	return nil
}

// Billing API

func (c *Client) CreateCharge(ctx context.Context, creds ports.ShopCredentials, req ports.ChargeRequest) (*ports.Charge, error) {
	if req.Currency != "" && req.Currency != domain.DefaultCurrency {
		c.logger.Warn().
			Str("shop", creds.Domain).
			Str("currency", req.Currency).
			Msg("Rejected charge in unsupported currency")
		return nil, fmt.Errorf("%w: application charges are billed in %s, not %s", domain.ErrInvalidInput, domain.DefaultCurrency, req.Currency)
	}
	client, err := c.createClient(creds)
	if err != nil {
		return nil, err
	}

	price := req.Amount
	test := req.Test
	created, err := client.ApplicationCharge.Create(ctx, goshopify.ApplicationCharge{
		Name:      req.Name,
		Price:     &price,
		ReturnURL: req.ReturnURL,
		Test:      &test,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application charge: %w", err)
	}
	return toCharge(created), nil
}

func (c *Client) GetCharge(ctx context.Context, creds ports.ShopCredentials, chargeID string) (*ports.Charge, error) {
	id, err := parseID(chargeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnknownCharge, err)
	}
	client, err := c.createClient(creds)
	if err != nil {
		return nil, err
	}
	charge, err := client.ApplicationCharge.Get(ctx, id, nil)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCharge, chargeID)
		}
		return nil, fmt.Errorf("failed to get application charge: %w", err)
	}
	return toCharge(charge), nil
}

func toCharge(charge *goshopify.ApplicationCharge) *ports.Charge {
	return &ports.Charge{
		ID:              strconv.FormatUint(charge.Id, 10),
		ConfirmationURL: charge.ConfirmationURL,
		Status:          chargeStatus(string(charge.Status)),
	}
}

// chargeStatus maps platform statuses; frozen charges are treated as pending
func chargeStatus(status string) ports.ChargeStatus {
	switch s := ports.ChargeStatus(strings.ToLower(status)); s {
	case ports.ChargeAccepted, ports.ChargeActive, ports.ChargeDeclined, ports.ChargeExpired, ports.ChargeCancelled:
		return s
	default:
		return ports.ChargePending
	}
}

// Theme API

func (c *Client) GetTheme(ctx context.Context, creds ports.ShopCredentials, themeID string) (*domain.Theme, error) {
	id, err := parseID(themeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrThemeNotFound, err)
	}
	client, err := c.createClient(creds)
	if err != nil {
		return nil, err
	}
	theme, err := client.Theme.Get(ctx, id, nil)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrThemeNotFound, themeID)
		}
		return nil, fmt.Errorf("failed to get theme: %w", err)
	}
	return toTheme(*theme), nil
}

func (c *Client) ListThemes(ctx context.Context, creds ports.ShopCredentials) ([]domain.Theme, error) {
	client, err := c.createClient(creds)
	if err != nil {
		return nil, err
	}
	themes, err := client.Theme.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	out := make([]domain.Theme, 0, len(themes))
	for _, theme := range themes {
		out = append(out, *toTheme(theme))
	}
	return out, nil
}

func (c *Client) WriteAsset(ctx context.Context, creds ports.ShopCredentials, themeID, key, value string) error {
	id, err := parseID(themeID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrThemeNotFound, err)
	}
	client, err := c.createClient(creds)
	if err != nil {
		return err
	}
	if _, err := client.Asset.Update(ctx, id, goshopify.Asset{Key: key, Value: value}); err != nil {
		return fmt.Errorf("failed to write asset %s: %w", key, err)
	}
	return nil
}

func toTheme(theme goshopify.Theme) *domain.Theme {
	return &domain.Theme{
		ID:   strconv.FormatUint(theme.Id, 10),
		Name: theme.Name,
		Role: string(theme.Role),
	}
}

func parseID(id string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", id)
	}
	return n, nil
}

// statusOf extracts the HTTP status go-shopify attached to an error, or 0
func statusOf(err error) int {
	var rateLimited goshopify.RateLimitError
	if errors.As(err, &rateLimited) {
		return rateLimited.Status
	}
	var responseErr goshopify.ResponseError
	if errors.As(err, &responseErr) {
		return responseErr.Status
	}
	var responseErrPtr *goshopify.ResponseError
	if errors.As(err, &responseErrPtr) && responseErrPtr != nil {
		return responseErrPtr.Status
	}
	return 0
}
