package domain

import "time"

// Lifecycle webhook topics the app subscribes to
const (
	TopicAppUninstalled       = "app/uninstalled"
	TopicCustomersDataRequest = "customers/data_request"
	TopicCustomersRedact      = "customers/redact"
	TopicShopRedact           = "shop/redact"
)

// LifecycleTopics returns the topics registered after install
func LifecycleTopics() []string {
	return []string{TopicAppUninstalled, TopicCustomersDataRequest, TopicCustomersRedact, TopicShopRedact}
}

// WebhookEvent is a verified webhook delivery
type WebhookEvent struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Shop       string    `json:"shop"`
	Payload    []byte    `json:"payload"`
	Verified   bool      `json:"verified"`
	ReceivedAt time.Time `json:"received_at"`
}

// Domain events published after a transition committed
const (
	EventPurchaseCompleted = "purchase.completed"
	EventPurchaseFailed    = "purchase.failed"
	EventSectionInstalled  = "section.installed"
	EventShopUninstalled   = "shop.uninstalled"
	EventShopRedacted      = "shop.redacted"
)

// Event is an entitlement state change announced to other services
type Event struct {
	Type       string            `json:"type"`
	ShopID     string            `json:"shop_id"`
	ShopDomain string            `json:"shop_domain"`
	ItemType   ItemType          `json:"item_type,omitempty"`
	ItemID     string            `json:"item_id,omitempty"`
	ChargeRef  string            `json:"charge_ref,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
