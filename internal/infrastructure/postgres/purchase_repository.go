package postgres

import (
	"context"

	"section-store/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PurchaseRepository persists ledger entries
type PurchaseRepository struct {
	db *gorm.DB
}

func (r *PurchaseRepository) one(ctx context.Context, query string, args ...interface{}) (*domain.Purchase, error) {
	var m PurchaseModel
	found, err := first(r.db.WithContext(ctx), &m, query, args...)
	if err != nil {
		return nil, translate("get purchase", err)
	}
	if !found {
		return nil, nil
	}
	return toDomainPurchase(&m), nil
}

func (r *PurchaseRepository) Get(ctx context.Context, shopID string, itemType domain.ItemType, itemID string) (*domain.Purchase, error) {
	return r.one(ctx, "shop_id = ? AND item_type = ? AND item_id = ?", shopID, string(itemType), itemID)
}

func (r *PurchaseRepository) GetByChargeRef(ctx context.Context, chargeRef string) (*domain.Purchase, error) {
	if chargeRef == "" {
		return nil, nil
	}
	return r.one(ctx, "charge_ref = ?", chargeRef)
}

func (r *PurchaseRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Purchase, error) {
	var rows []PurchaseModel
	if err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, translate("list purchases", err)
	}
	purchases := make([]*domain.Purchase, 0, len(rows))
	for i := range rows {
		purchases = append(purchases, toDomainPurchase(&rows[i]))
	}
	return purchases, nil
}

func (r *PurchaseRepository) Insert(ctx context.Context, purchase *domain.Purchase) error {
	if purchase.ID == "" {
		purchase.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(toPurchaseModel(purchase)).Error; err != nil {
		return translate("insert purchase", err)
	}
	return nil
}

// UpdateIfMatch is a compare-and-set on (status, attempt_token)
func (r *PurchaseRepository) UpdateIfMatch(ctx context.Context, purchase *domain.Purchase, status domain.PurchaseStatus, attemptToken string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&PurchaseModel{}).
		Where("id = ? AND status = ? AND attempt_token = ?", purchase.ID, string(status), attemptToken).
		Updates(purchaseColumns(toPurchaseModel(purchase)))
	if result.Error != nil {
		return false, translate("update purchase", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *PurchaseRepository) DeleteByShop(ctx context.Context, shopID string, itemType domain.ItemType) (int64, error) {
	result := r.db.WithContext(ctx).Where("shop_id = ? AND item_type = ?", shopID, string(itemType)).Delete(&PurchaseModel{})
	if result.Error != nil {
		return 0, translate("delete purchases", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *PurchaseRepository) DetachShop(ctx context.Context, shopID string, itemType domain.ItemType) (int64, error) {
	result := r.db.WithContext(ctx).Model(&PurchaseModel{}).
		Where("shop_id = ? AND item_type = ?", shopID, string(itemType)).
		UpdateColumn("shop_id", "")
	if result.Error != nil {
		return 0, translate("detach purchases", result.Error)
	}
	return result.RowsAffected, nil
}
