package postgres

import (
	"context"

	"section-store/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShopRepository persists shops
type ShopRepository struct {
	db *gorm.DB
}

func (r *ShopRepository) get(ctx context.Context, query string, arg string) (*domain.Shop, error) {
	var m ShopModel
	found, err := first(r.db.WithContext(ctx), &m, query, arg)
	if err != nil {
		return nil, translate("get shop", err)
	}
	if !found {
		return nil, nil
	}
	return toDomainShop(&m), nil
}

func (r *ShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *ShopRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	return r.get(ctx, "domain = ?", shopDomain)
}

// Upsert inserts by domain or overwrites the row, keeping its id and created_at
func (r *ShopRepository) Upsert(ctx context.Context, shop *domain.Shop) error {
	m := toShopModel(shop)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "scopes", "is_active", "installed_at", "uninstalled_at", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return translate("upsert shop", err)
	}

	stored, err := r.GetByDomain(ctx, shop.Domain)
	if err != nil {
		return err
	}
	shop.ID = stored.ID
	shop.CreatedAt = stored.CreatedAt
	return nil
}

func (r *ShopRepository) Update(ctx context.Context, shop *domain.Shop) error {
	m := toShopModel(shop)
	result := r.db.WithContext(ctx).Model(&ShopModel{}).Where("id = ?", shop.ID).Updates(map[string]interface{}{
		"domain":         m.Domain,
		"access_token":   m.AccessToken,
		"scopes":         m.Scopes,
		"is_active":      m.IsActive,
		"installed_at":   m.InstalledAt,
		"uninstalled_at": m.UninstalledAt,
		"updated_at":     m.UpdatedAt,
	})
	if result.Error != nil {
		return translate("update shop", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrShopNotFound
	}
	return nil
}

func (r *ShopRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ShopModel{}).Error; err != nil {
		return translate("delete shop", err)
	}
	return nil
}
