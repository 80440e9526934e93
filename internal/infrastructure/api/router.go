package api

import (
	"encoding/json"
	"net/http"

	"section-store/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Server holds everything the HTTP surface is wired to
type Server struct {
	APIKey       string
	Shops        Shops
	Purchases    Purchases
	Installs     Installations
	Catalog      Catalog
	Verifier     SignatureVerifier
	Dispatcher   Dispatcher
	Clock        ports.Clock
	Logger       zerolog.Logger
	SwaggerFile  string
	MetricsRoute http.Handler
	Instrument   func(http.Handler) http.Handler // wraps every route
	Session      func(http.Handler) http.Handler // authenticates /api
}

// NewRouter builds the application router
func NewRouter(s Server) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if s.Instrument != nil {
		r.Use(s.Instrument)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*.myshopify.com", "https://admin.shopify.com"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if s.MetricsRoute != nil {
		r.Handle("/metrics", s.MetricsRoute)
	}
	if s.SwaggerFile != "" {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
		r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, r, s.SwaggerFile)
		})
	}

	// OAuth routes
	r.Get("/auth", oauthInitHandler(s.Shops, s.Logger))
	r.Get("/auth/callback", oauthCallbackHandler(s.Shops, s.APIKey, s.Logger))

	r.Post("/webhooks", webhookHandler(s.Verifier, s.Dispatcher, s.Clock, s.Logger))

	merchant := NewMerchantHandlers(s.Purchases, s.Installs, s.Catalog, s.Shops, s.Logger)
	r.Get("/billing/return", merchant.BillingReturn(s.APIKey))

	r.Route("/api", func(r chi.Router) {
		if s.Session != nil {
			r.Use(s.Session)
		}
		merchant.Routes(r)
	})
	return r
}
