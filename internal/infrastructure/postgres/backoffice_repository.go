package postgres

import (
	"context"

	"section-store/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FavoriteRepository persists favorites
type FavoriteRepository struct {
	db *gorm.DB
}

func (r *FavoriteRepository) Get(ctx context.Context, shopID, sectionID string) (*domain.Favorite, error) {
	var m FavoriteModel
	found, err := first(r.db.WithContext(ctx), &m, "shop_id = ? AND section_id = ?", shopID, sectionID)
	if err != nil {
		return nil, translate("get favorite", err)
	}
	if !found {
		return nil, nil
	}
	return &domain.Favorite{ID: m.ID, ShopID: m.ShopID, SectionID: m.SectionID, CreatedAt: m.CreatedAt.UTC()}, nil
}

func (r *FavoriteRepository) Insert(ctx context.Context, f *domain.Favorite) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	m := &FavoriteModel{ID: f.ID, ShopID: f.ShopID, SectionID: f.SectionID, CreatedAt: f.CreatedAt}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate("insert favorite", err)
	}
	return nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&FavoriteModel{}).Error; err != nil {
		return translate("delete favorite", err)
	}
	return nil
}

func (r *FavoriteRepository) CountByShop(ctx context.Context, shopID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&FavoriteModel{}).Where("shop_id = ?", shopID).Count(&n).Error; err != nil {
		return 0, translate("count favorites", err)
	}
	return n, nil
}

func (r *FavoriteRepository) DeleteByShop(ctx context.Context, shopID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Delete(&FavoriteModel{})
	if result.Error != nil {
		return 0, translate("delete favorites", result.Error)
	}
	return result.RowsAffected, nil
}

// BackofficeRepository covers rows written by the admin surface
type BackofficeRepository struct {
	db *gorm.DB
}

func (r *BackofficeRepository) CreateSupportTicket(ctx context.Context, t *domain.SupportTicket) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	m := &SupportTicketModel{ID: t.ID, ShopID: t.ShopID, Subject: t.Subject, Message: t.Message, Status: t.Status, CreatedAt: t.CreatedAt}
	if m.Status == "" {
		m.Status = "open"
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate("create support ticket", err)
	}
	return nil
}

func (r *BackofficeRepository) CreateFeatureRequest(ctx context.Context, fr *domain.FeatureRequest) error {
	if fr.ID == "" {
		fr.ID = uuid.NewString()
	}
	m := &FeatureRequestModel{ID: fr.ID, ShopDomain: fr.ShopDomain, Title: fr.Title, Description: fr.Description, Votes: fr.Votes, CreatedAt: fr.CreatedAt}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate("create feature request", err)
	}
	return nil
}

func (r *BackofficeRepository) CountSupportTickets(ctx context.Context, shopID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&SupportTicketModel{}).Where("shop_id = ?", shopID).Count(&n).Error; err != nil {
		return 0, translate("count support tickets", err)
	}
	return n, nil
}

func (r *BackofficeRepository) DeleteSupportTickets(ctx context.Context, shopID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Delete(&SupportTicketModel{})
	if result.Error != nil {
		return 0, translate("delete support tickets", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *BackofficeRepository) DeleteFeatureRequests(ctx context.Context, shopDomain string) (int64, error) {
	result := r.db.WithContext(ctx).Where("shop_domain = ?", shopDomain).Delete(&FeatureRequestModel{})
	if result.Error != nil {
		return 0, translate("delete feature requests", result.Error)
	}
	return result.RowsAffected, nil
}
