package postgres

import (
	"context"
	"time"

	"section-store/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InstallationRepository persists installations
type InstallationRepository struct {
	db *gorm.DB
}

func (r *InstallationRepository) Get(ctx context.Context, shopID, sectionID, themeID string) (*domain.Installation, error) {
	var m InstallationModel
	found, err := first(r.db.WithContext(ctx), &m, "shop_id = ? AND section_id = ? AND theme_id = ?", shopID, sectionID, themeID)
	if err != nil {
		return nil, translate("get installation", err)
	}
	if !found {
		return nil, nil
	}
	return toDomainInstallation(&m), nil
}

// xmax is zero only for rows the statement inserted
const upsertInstallationSQL = `
INSERT INTO installations (id, shop_id, section_id, theme_id, theme_name, is_active, installed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, TRUE, ?, ?, ?)
ON CONFLICT (shop_id, section_id, theme_id)
DO UPDATE SET theme_name = EXCLUDED.theme_name, is_active = TRUE, updated_at = EXCLUDED.updated_at
RETURNING (xmax = 0) AS inserted`

func (r *InstallationRepository) Upsert(ctx context.Context, installation *domain.Installation) (bool, error) {
	id := installation.ID
	if id == "" {
		id = uuid.NewString()
	}
	var row struct{ Inserted bool }
	err := r.db.WithContext(ctx).Raw(upsertInstallationSQL,
		id, installation.ShopID, installation.SectionID, installation.ThemeID, installation.ThemeName,
		installation.InstalledAt, installation.CreatedAt, installation.UpdatedAt,
	).Scan(&row).Error
	if err != nil {
		return false, translate("upsert installation", err)
	}

	stored, err := r.Get(ctx, installation.ShopID, installation.SectionID, installation.ThemeID)
	if err != nil {
		return false, err
	}
	*installation = *stored
	return row.Inserted, nil
}

func (r *InstallationRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Installation, error) {
	var rows []InstallationModel
	if err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("installed_at ASC").Find(&rows).Error; err != nil {
		return nil, translate("list installations", err)
	}
	installations := make([]*domain.Installation, 0, len(rows))
	for i := range rows {
		installations = append(installations, toDomainInstallation(&rows[i]))
	}
	return installations, nil
}

func (r *InstallationRepository) DeleteByShop(ctx context.Context, shopID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Delete(&InstallationModel{})
	if result.Error != nil {
		return 0, translate("delete installations", result.Error)
	}
	return result.RowsAffected, nil
}

// SubscriptionRepository persists Plus plan subscriptions
type SubscriptionRepository struct {
	db *gorm.DB
}

var liveStatuses = []string{string(domain.SubscriptionTrial), string(domain.SubscriptionActive)}

func (r *SubscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m := &SubscriptionModel{
		ID:          s.ID,
		ShopID:      s.ShopID,
		PlanName:    s.PlanName,
		Price:       s.Price,
		Status:      string(s.Status),
		StartedAt:   s.StartedAt,
		EndsAt:      s.EndsAt,
		CancelledAt: s.CancelledAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate("create subscription", err)
	}
	return nil
}

func (r *SubscriptionRepository) GetLive(ctx context.Context, shopID string) (*domain.Subscription, error) {
	var m SubscriptionModel
	found, err := first(r.db.WithContext(ctx).Order("created_at DESC"), &m, "shop_id = ? AND status IN ?", shopID, liveStatuses)
	if err != nil {
		return nil, translate("get subscription", err)
	}
	if !found {
		return nil, nil
	}
	return toDomainSubscription(&m), nil
}

func (r *SubscriptionRepository) CancelLive(ctx context.Context, shopID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&SubscriptionModel{}).
		Where("shop_id = ? AND status IN ?", shopID, liveStatuses).
		Updates(map[string]interface{}{
			"status":       string(domain.SubscriptionCancelled),
			"cancelled_at": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return 0, translate("cancel subscriptions", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *SubscriptionRepository) DeleteByShop(ctx context.Context, shopID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Delete(&SubscriptionModel{})
	if result.Error != nil {
		return 0, translate("delete subscriptions", result.Error)
	}
	return result.RowsAffected, nil
}
