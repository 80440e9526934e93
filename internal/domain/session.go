package domain

import (
	"context"
	"time"
)

// OAuthState is the CSRF state issued when a shop starts the install flow
type OAuthState struct {
	Shop      string    `json:"shop"`
	State     string    `json:"state"`
	Scopes    []string  `json:"scopes"`
	ReturnURL string    `json:"return_url"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the state can no longer complete an install
func (s *OAuthState) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SessionClaims are the verified fields of an embedded app session token
type SessionClaims struct {
	Shop      string
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

type contextKey string

const sessionKey contextKey = "shop_session"

// WithSession stores the verified session in ctx
func WithSession(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, sessionKey, claims)
}

// SessionFromContext returns the session placed by the session token middleware
func SessionFromContext(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(sessionKey).(*SessionClaims)
	return claims, ok && claims != nil
}

// ShopFromContext returns the shop domain of the current session, or ""
func ShopFromContext(ctx context.Context) string {
	if claims, ok := SessionFromContext(ctx); ok {
		return claims.Shop
	}
	return ""
}
