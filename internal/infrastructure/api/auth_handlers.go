package api

import (
	"context"
	"net/http"
	"net/url"

	"section-store/internal/domain"

	"github.com/rs/zerolog"
)

// Shops onboards shops through OAuth
type Shops interface {
	BeginInstall(ctx context.Context, shop, returnURL string) (string, error)
	CompleteInstall(ctx context.Context, callback *url.URL) (*domain.Shop, *domain.OAuthState, error)
	ResolveShop(ctx context.Context, shopDomain string) (*domain.Shop, error)
}

// oauthInitHandler initiates the OAuth flow
func oauthInitHandler(shops Shops, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := r.URL.Query().Get("shop")
		if shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		authURL, err := shops.BeginInstall(r.Context(), shop, r.URL.Query().Get("return_url"))
		if err != nil {
			writeError(w, logger, r, err)
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// oauthCallbackHandler completes the install and sends the merchant into the app
func oauthCallbackHandler(shops Shops, apiKey string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("shop") == "" || q.Get("code") == "" || q.Get("state") == "" {
			http.Error(w, "Missing required parameters", http.StatusBadRequest)
			return
		}

		shop, state, err := shops.CompleteInstall(r.Context(), r.URL)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("shop", q.Get("shop")).
				Msg("OAuth callback rejected")
			writeError(w, logger, r, err)
			return
		}

		redirectURL := "https://" + shop.Domain + "/admin/apps/" + apiKey
		if state != nil && state.ReturnURL != "" {
			redirectURL = state.ReturnURL
		}

		logger.Info().
			Str("shop", shop.Domain).
			Str("returnURL", redirectURL).
			Msg("Redirecting after successful OAuth")
		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}
