package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"section-store/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Purchases is the entitlement ledger as seen by the HTTP layer
type Purchases interface {
	InitiatePurchase(ctx context.Context, shopDomain, sectionID string) (*domain.PurchaseResult, error)
	InitiateBundlePurchase(ctx context.Context, shopDomain, bundleID string) (*domain.PurchaseResult, error)
	ConfirmPurchase(ctx context.Context, shopDomain, chargeRef string) (*domain.Purchase, error)
	FailPurchase(ctx context.Context, shopDomain, chargeRef string) (*domain.Purchase, error)
	IsEntitled(ctx context.Context, shopID, sectionID string) (bool, error)
	ListPurchases(ctx context.Context, shopDomain string) ([]*domain.Purchase, error)
}

// Installations writes sections into themes
type Installations interface {
	Install(ctx context.Context, shopDomain, sectionID, themeID string) (*domain.InstallResult, error)
	ListThemes(ctx context.Context, shopDomain string) ([]domain.Theme, error)
	ListInstallations(ctx context.Context, shopDomain string) ([]domain.ThemeInstallations, error)
}

// Catalog lists sections and keeps favorites
type Catalog interface {
	ListSections(ctx context.Context) ([]*domain.Section, error)
	ToggleFavorite(ctx context.Context, shopDomain, sectionID string) (bool, error)
}

// MerchantHandlers serve the embedded app API. Every route runs behind the
// session token middleware, so the shop always comes from the request context.
type MerchantHandlers struct {
	purchases     Purchases
	installations Installations
	catalog       Catalog
	shops         Shops
	logger        zerolog.Logger
}

func NewMerchantHandlers(purchases Purchases, installations Installations, catalog Catalog, shops Shops, logger zerolog.Logger) *MerchantHandlers {
	return &MerchantHandlers{
		purchases:     purchases,
		installations: installations,
		catalog:       catalog,
		shops:         shops,
		logger:        logger,
	}
}

// Routes mounts the merchant API
func (h *MerchantHandlers) Routes(r chi.Router) {
	r.Get("/sections", h.ListSections)
	r.Post("/sections/{id}/purchase", h.PurchaseSection)
	r.Get("/sections/{id}/entitlement", h.Entitlement)
	r.Post("/sections/{id}/install", h.InstallSection)
	r.Post("/bundles/{id}/purchase", h.PurchaseBundle)
	r.Get("/billing/confirm", h.ConfirmCharge)
	r.Get("/billing/cancel", h.CancelCharge)
	r.Get("/themes", h.ListThemes)
	r.Get("/installations", h.ListInstallations)
	r.Get("/purchases", h.ListPurchases)
	r.Post("/favorites/{sectionId}/toggle", h.ToggleFavorite)
}

type purchaseResponse struct {
	Status          domain.PurchaseStatus `json:"status"`
	Purchase        *domain.Purchase      `json:"purchase"`
	ConfirmationURL string                `json:"confirmationUrl,omitempty"`
	Reused          bool                  `json:"reused,omitempty"`
}

func newPurchaseResponse(result *domain.PurchaseResult) purchaseResponse {
	resp := purchaseResponse{Purchase: result.Purchase, Reused: result.Reused}
	if result.Purchase != nil {
		resp.Status = result.Purchase.Status
	}
	if result.Pending() {
		resp.ConfirmationURL = result.ConfirmationURL
	}
	return resp
}

func (h *MerchantHandlers) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.catalog.ListSections(r.Context())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sections": sections})
}

func (h *MerchantHandlers) PurchaseSection(w http.ResponseWriter, r *http.Request) {
	result, err := h.purchases.InitiatePurchase(r.Context(), domain.ShopFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPurchaseResponse(result))
}

func (h *MerchantHandlers) PurchaseBundle(w http.ResponseWriter, r *http.Request) {
	result, err := h.purchases.InitiateBundlePurchase(r.Context(), domain.ShopFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPurchaseResponse(result))
}

func (h *MerchantHandlers) ConfirmCharge(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.purchases.ConfirmPurchase(r.Context(), domain.ShopFromContext(r.Context()), r.URL.Query().Get("charge_id"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": purchase.Status, "purchase": purchase})
}

func (h *MerchantHandlers) CancelCharge(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.purchases.FailPurchase(r.Context(), domain.ShopFromContext(r.Context()), r.URL.Query().Get("charge_id"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(purchase.Status)})
}

func (h *MerchantHandlers) Entitlement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	shop, err := h.shops.ResolveShop(ctx, domain.ShopFromContext(ctx))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	entitled, err := h.purchases.IsEntitled(ctx, shop.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"entitled": entitled})
}

type installRequest struct {
	ThemeID string `json:"themeId"`
}

func (h *MerchantHandlers) InstallSection(w http.ResponseWriter, r *http.Request) {
	var req installRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, h.logger, r, fmt.Errorf("%w: malformed body: %v", domain.ErrInvalidInput, err))
		return
	}
	result, err := h.installations.Install(r.Context(), domain.ShopFromContext(r.Context()), chi.URLParam(r, "id"), req.ThemeID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (h *MerchantHandlers) ListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.installations.ListThemes(r.Context(), domain.ShopFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"themes": themes})
}

func (h *MerchantHandlers) ListInstallations(w http.ResponseWriter, r *http.Request) {
	groups, err := h.installations.ListInstallations(r.Context(), domain.ShopFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"themes": groups})
}

func (h *MerchantHandlers) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.ListPurchases(r.Context(), domain.ShopFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"purchases": purchases})
}

func (h *MerchantHandlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	on, err := h.catalog.ToggleFavorite(r.Context(), domain.ShopFromContext(r.Context()), chi.URLParam(r, "sectionId"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isFavorite": on})
}

// BillingReturn is where the platform sends the merchant after the approval
// screen. It runs outside the embedded frame, so the shop comes from the query
// and the ledger checks the charge belongs to it. The merchant is sent back
// into the app either way.
func (h *MerchantHandlers) BillingReturn(apiKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		shop := q.Get("shop")
		chargeRef := q.Get("charge_id")
		if !domain.ValidShopDomain(shop) {
			writeError(w, h.logger, r, fmt.Errorf("%w: shop %q", domain.ErrInvalidInput, shop))
			return
		}

		outcome := "completed"
		if _, err := h.purchases.ConfirmPurchase(r.Context(), shop, chargeRef); err != nil {
			switch StatusFor(err) {
			case http.StatusPaymentRequired:
				outcome = "declined"
			case http.StatusConflict:
				outcome = "pending"
			default:
				writeError(w, h.logger, r, err)
				return
			}
		}

		target := url.URL{
			Scheme:   "https",
			Host:     shop,
			Path:     "/admin/apps/" + apiKey,
			RawQuery: url.Values{"purchase": {outcome}, "charge_id": {chargeRef}}.Encode(),
		}
		http.Redirect(w, r, target.String(), http.StatusFound)
	}
}
