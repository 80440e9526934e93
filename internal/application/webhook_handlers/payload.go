package webhook_handlers

import (
	"encoding/json"
	"errors"

	"section-store/internal/domain"
)

type shopPayload struct {
	ShopDomain      string `json:"shop_domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
	Domain          string `json:"domain"`
}

// shopDomainOf picks the shop from the delivery header, falling back to
// the payload fields the lifecycle topics carry.
func shopDomainOf(event *domain.WebhookEvent) (string, error) {
	if event.Shop != "" {
		return event.Shop, nil
	}
	var payload shopPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return "", err
	}
	for _, candidate := range []string{payload.ShopDomain, payload.MyshopifyDomain, payload.Domain} {
		if candidate != "" {
			return candidate, nil
		}
	}
	return "", errors.New("payload carries no shop domain")
}
