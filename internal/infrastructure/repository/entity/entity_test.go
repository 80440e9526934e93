package entity

import (
	"testing"
	"time"

	"section-store/internal/domain"

	"github.com/shopspring/decimal"
)

func TestAmountFallsBackToZero(t *testing.T) {
	tests := []struct {
		in   string
		want decimal.Decimal
	}{
		{"29", decimal.New(29, 0)},
		{"19.99", decimal.New(1999, -2)},
		{"", decimal.Zero},
		{"abc", decimal.Zero},
	}
	for _, tt := range tests {
		if got := amount(tt.in); !got.Equal(tt.want) {
			t.Errorf("amount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPurchaseDocKeepsLedgerFields(t *testing.T) {
	completed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &domain.Purchase{
		ID:           "p1",
		ShopID:       "s1",
		ItemType:     domain.ItemBundle,
		ItemID:       "b1",
		Price:        decimal.New(3900, -2),
		Currency:     "USD",
		ChargeRef:    "1001",
		Status:       domain.PurchaseCompleted,
		AttemptToken: "tok",
		CompletedAt:  &completed,
	}

	doc := MongoPurchaseDocFromDomain(p)
	if doc.Price != "39" || doc.ItemType != "bundle" || doc.AttemptToken != "tok" {
		t.Errorf("doc = %+v", doc)
	}
	back := doc.ToDomain()
	if !back.Price.Equal(p.Price) || back.Status != domain.PurchaseCompleted || !back.CompletedAt.Equal(completed) {
		t.Errorf("ToDomain() = %+v", back)
	}
}
