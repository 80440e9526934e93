package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"section-store/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// SessionTokenClaims are the claims of an embedded app session token
type SessionTokenClaims struct {
	Dest      string `json:"dest"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// SessionVerifier validates session tokens issued by the admin for this app
type SessionVerifier struct {
	apiKey    string
	apiSecret []byte
	leeway    time.Duration
}

func NewSessionVerifier(apiKey, apiSecret string) *SessionVerifier {
	return &SessionVerifier{
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		leeway:    5 * time.Second,
	}
}

// Verify checks signature, audience and lifetime, and returns the session it names
func (v *SessionVerifier) Verify(tokenString string) (*domain.SessionClaims, error) {
	claims := &SessionTokenClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.apiSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}
	if !token.Valid {
		return nil, domain.ErrInvalidSession
	}

	shop, err := shopFromDest(claims.Dest)
	if err != nil {
		return nil, err
	}
	if claims.Issuer != "" {
		issuer, err := url.Parse(claims.Issuer)
		if err != nil || issuer.Host != shop {
			return nil, fmt.Errorf("%w: issuer %q does not match destination", domain.ErrInvalidSession, claims.Issuer)
		}
	}

	session := &domain.SessionClaims{
		Shop:      shop,
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func shopFromDest(dest string) (string, error) {
	parsed, err := url.Parse(dest)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: missing destination", domain.ErrInvalidSession)
	}
	host := strings.ToLower(parsed.Host)
	if !strings.HasSuffix(host, ".myshopify.com") {
		return "", fmt.Errorf("%w: destination %q is not a shop", domain.ErrInvalidSession, host)
	}
	return host, nil
}

// SessionTokenMiddleware rejects requests without a valid bearer session token
// and puts the verified session in the request context
func SessionTokenMiddleware(verifier *SessionVerifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				unauthorized(w, "authentication required")
				return
			}

			session, err := verifier.Verify(tokenString)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("path", r.URL.Path).
					Msg("Rejected session token")
				unauthorized(w, "invalid session token")
				return
			}

			ctx := domain.WithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Shopify-Retry-Invalid-Session-Request", "1")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

