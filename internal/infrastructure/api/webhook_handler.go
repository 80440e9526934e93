package api

import (
	"context"
	"io"
	"net/http"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/rs/zerolog"
)

const maxWebhookBody = 1 << 20

// SignatureVerifier checks a delivery's HMAC header against its raw body
type SignatureVerifier interface {
	Verify(payload []byte, signature string) error
}

// Dispatcher routes verified deliveries to their handlers
type Dispatcher interface {
	Dispatch(ctx context.Context, event *domain.WebhookEvent) error
}

// webhookHandler handles lifecycle webhook deliveries. Any failure after
// verification answers 500 so the platform redelivers.
func webhookHandler(verifier SignatureVerifier, dispatcher Dispatcher, clock ports.Clock, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			logger.Warn().Msg("Missing X-Shopify-Topic header")
			http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read webhook payload")
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if err := verifier.Verify(payload, r.Header.Get("X-Shopify-Hmac-Sha256")); err != nil {
			logger.Warn().Err(err).Str("topic", topic).Msg("Webhook signature verification failed")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		deliveryID := r.Header.Get("X-Shopify-Webhook-Id")
		if deliveryID == "" {
			deliveryID = r.Header.Get("X-Shopify-Event-Id")
		}
		event := &domain.WebhookEvent{
			ID:         deliveryID,
			Topic:      topic,
			Shop:       r.Header.Get("X-Shopify-Shop-Domain"),
			Payload:    payload,
			Verified:   true,
			ReceivedAt: clock.Now(),
		}

		if err := dispatcher.Dispatch(r.Context(), event); err != nil {
			logger.Error().
				Err(err).
				Str("topic", topic).
				Str("shop", event.Shop).
				Str("webhookId", deliveryID).
				Msg("Failed to dispatch webhook event")

			// Return 500 to trigger a redelivery
			http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
	}
}
