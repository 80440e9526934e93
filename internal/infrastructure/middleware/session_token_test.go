package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"section-store/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	testKey    = "api-key"
	testSecret = "api-secret"
)

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims SessionTokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func validClaims() SessionTokenClaims {
	now := time.Now()
	return SessionTokenClaims{
		Dest:      "https://demo.myshopify.com",
		SessionID: "sid-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://demo.myshopify.com/admin",
			Subject:   "42",
			Audience:  jwt.ClaimStrings{testKey},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func TestSessionVerifier(t *testing.T) {
	verifier := NewSessionVerifier(testKey, testSecret)

	tests := []struct {
		name    string
		token   func() string
		wantErr bool
	}{
		{
			name:  "valid",
			token: func() string { return sign(t, jwt.SigningMethodHS256, testSecret, validClaims()) },
		},
		{
			name:    "wrong secret",
			token:   func() string { return sign(t, jwt.SigningMethodHS256, "other", validClaims()) },
			wantErr: true,
		},
		{
			name:    "wrong algorithm",
			token:   func() string { return sign(t, jwt.SigningMethodHS512, testSecret, validClaims()) },
			wantErr: true,
		},
		{
			name: "other app",
			token: func() string {
				c := validClaims()
				c.Audience = jwt.ClaimStrings{"someone-else"}
				return sign(t, jwt.SigningMethodHS256, testSecret, c)
			},
			wantErr: true,
		},
		{
			name: "expired",
			token: func() string {
				c := validClaims()
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return sign(t, jwt.SigningMethodHS256, testSecret, c)
			},
			wantErr: true,
		},
		{
			name: "not a shop",
			token: func() string {
				c := validClaims()
				c.Dest = "https://evil.example.com"
				c.Issuer = "https://evil.example.com/admin"
				return sign(t, jwt.SigningMethodHS256, testSecret, c)
			},
			wantErr: true,
		},
		{
			name: "issuer mismatch",
			token: func() string {
				c := validClaims()
				c.Issuer = "https://other.myshopify.com/admin"
				return sign(t, jwt.SigningMethodHS256, testSecret, c)
			},
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func() string { return "not.a.token" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := verifier.Verify(tt.token())
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidSession) {
					t.Fatalf("Verify() error = %v, want ErrInvalidSession", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if session.Shop != "demo.myshopify.com" || session.UserID != "42" || session.SessionID != "sid-1" {
				t.Errorf("session = %+v", session)
			}
		})
	}
}

func TestSessionTokenMiddleware(t *testing.T) {
	var seen string
	handler := SessionTokenMiddleware(NewSessionVerifier(testKey, testSecret), zerolog.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = domain.ShopFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/purchases", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if rec.Header().Get("X-Shopify-Retry-Invalid-Session-Request") != "1" {
			t.Error("retry header missing")
		}
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/purchases", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, testSecret, validClaims()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if seen != "demo.myshopify.com" {
			t.Errorf("shop in context = %q", seen)
		}
	})
}
