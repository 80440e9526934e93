package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"section-store/internal/domain"
	"section-store/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func TestChargeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want ports.ChargeStatus
	}{
		{"pending", ports.ChargePending},
		{"accepted", ports.ChargeAccepted},
		{"ACTIVE", ports.ChargeActive},
		{"declined", ports.ChargeDeclined},
		{"expired", ports.ChargeExpired},
		{"cancelled", ports.ChargeCancelled},
		{"frozen", ports.ChargePending},
		{"", ports.ChargePending},
	}
	for _, tt := range tests {
		if got := chargeStatus(tt.in); got != tt.want {
			t.Errorf("chargeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAuthorizeURL(t *testing.T) {
	c := NewClient("key123", "secret", "", DefaultRetryConfig(), zerolog.Nop())
	raw := c.AuthorizeURL("acme.myshopify.com", "st&ate", "https://app.example.com/auth/callback", []string{"read_themes", "write_themes"})

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	if u.Host != "acme.myshopify.com" || u.Path != "/admin/oauth/authorize" {
		t.Errorf("url = %s", raw)
	}
	q := u.Query()
	checks := map[string]string{
		"client_id":    "key123",
		"scope":        "read_themes,write_themes",
		"redirect_uri": "https://app.example.com/auth/callback",
		"state":        "st&ate",
	}
	for k, want := range checks {
		if got := q.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestWithAPIVersion(t *testing.T) {
	c := NewClient("key", "secret", "", DefaultRetryConfig(), zerolog.Nop())
	if c.WithAPIVersion("").apiVersion != DefaultAPIVersion {
		t.Errorf("empty version replaced the default: %q", c.apiVersion)
	}
	if c.WithAPIVersion("2025-01").apiVersion != "2025-01" {
		t.Errorf("version = %q, want 2025-01", c.apiVersion)
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID(" 1001 "); err != nil || id != 1001 {
		t.Errorf("parseID = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "abc", "-4"} {
		if _, err := parseID(bad); err == nil {
			t.Errorf("parseID(%q) accepted", bad)
		}
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"response error", goshopify.ResponseError{Status: http.StatusNotFound}, http.StatusNotFound},
		{"wrapped", fmt.Errorf("get theme: %w", goshopify.ResponseError{Status: http.StatusUnprocessableEntity}), http.StatusUnprocessableEntity},
		{"rate limited", goshopify.RateLimitError{ResponseError: goshopify.ResponseError{Status: http.StatusTooManyRequests}}, http.StatusTooManyRequests},
		{"plain", errors.New("dial tcp: timeout"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusOf(tt.err); got != tt.want {
				t.Errorf("statusOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInvalidIDsShortCircuit(t *testing.T) {
	c := NewClient("key", "secret", "", RetryConfig{}, zerolog.Nop())
	creds := ports.ShopCredentials{Domain: "acme.myshopify.com", AccessToken: "shpat"}
	ctx := context.Background()

	if _, err := c.GetTheme(ctx, creds, "not-a-number"); !errors.Is(err, domain.ErrThemeNotFound) {
		t.Errorf("GetTheme() error = %v, want ErrThemeNotFound", err)
	}
	if _, err := c.GetCharge(ctx, creds, "free-abc"); !errors.Is(err, domain.ErrUnknownCharge) {
		t.Errorf("GetCharge() error = %v, want ErrUnknownCharge", err)
	}
	if err := c.WriteAsset(ctx, creds, "", "sections/a.liquid", "x"); !errors.Is(err, domain.ErrThemeNotFound) {
		t.Errorf("WriteAsset() error = %v, want ErrThemeNotFound", err)
	}
	_, err := c.CreateCharge(ctx, creds, ports.ChargeRequest{Name: "Hero", Amount: decimal.New(29, 0), Currency: "EUR"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("CreateCharge() in EUR error = %v, want ErrInvalidInput", err)
	}
}

func TestWebhookVerifier(t *testing.T) {
	v := NewWebhookVerifier("shpss_secret")
	payload := []byte(`{"shop_domain":"acme.myshopify.com"}`)
	signature := v.Sign(payload)

	if err := v.Verify(payload, signature); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	tests := []struct {
		name      string
		payload   []byte
		signature string
	}{
		{"tampered body", []byte(`{"shop_domain":"evil.myshopify.com"}`), signature},
		{"missing header", payload, ""},
		{"not base64", payload, "%%%"},
		{"other secret", payload, NewWebhookVerifier("other").Sign(payload)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.Verify(tt.payload, tt.signature); !errors.Is(err, domain.ErrInvalidSession) {
				t.Errorf("Verify() error = %v, want ErrInvalidSession", err)
			}
		})
	}

	if err := NewWebhookVerifier("").Verify(payload, signature); err == nil || errors.Is(err, domain.ErrInvalidSession) {
		t.Errorf("unconfigured verifier error = %v", err)
	}
}

type reverseCipher struct{ fail bool }

func (c reverseCipher) Encrypt(s string) (string, error) {
	return "enc:" + s, nil
}

func (c reverseCipher) Decrypt(s string) (string, error) {
	if c.fail || !strings.HasPrefix(s, "enc:") {
		return "", errors.New("bad ciphertext")
	}
	return strings.TrimPrefix(s, "enc:"), nil
}

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager(reverseCipher{}, zerolog.Nop())

	sealed, err := tm.Seal("shpat_123")
	if err != nil || sealed != "enc:shpat_123" {
		t.Fatalf("Seal() = %q, %v", sealed, err)
	}
	if _, err := tm.Seal(""); err == nil {
		t.Error("Seal(\"\") accepted")
	}

	creds, err := tm.Credentials(&domain.Shop{Domain: "acme.myshopify.com", AccessToken: sealed})
	if err != nil {
		t.Fatalf("Credentials() error = %v", err)
	}
	if creds.AccessToken != "shpat_123" || creds.Domain != "acme.myshopify.com" {
		t.Errorf("creds = %+v", creds)
	}

	if _, err := tm.Credentials(&domain.Shop{Domain: "gone.myshopify.com"}); !errors.Is(err, domain.ErrShopNotFound) {
		t.Errorf("uninstalled shop error = %v, want ErrShopNotFound", err)
	}
	broken := NewTokenManager(reverseCipher{fail: true}, zerolog.Nop())
	if _, err := broken.Credentials(&domain.Shop{AccessToken: sealed}); err == nil {
		t.Error("Credentials() with undecryptable token succeeded")
	}
}
