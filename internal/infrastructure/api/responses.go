package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"section-store/internal/domain"

	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// StatusFor maps workflow errors onto HTTP statuses
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAlreadyOwned),
		errors.Is(err, domain.ErrPurchaseInFlight),
		errors.Is(err, domain.ErrChargeNotApproved):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBillingUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrChargeDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrNotEntitled):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInstallWriteFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError logs unexpected failures and hides their detail from the client
func writeError(w http.ResponseWriter, logger zerolog.Logger, r *http.Request, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		message = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: message, Retryable: domain.IsRetryable(err)})
}
