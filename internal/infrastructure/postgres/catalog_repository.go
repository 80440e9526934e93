package postgres

import (
	"context"

	"section-store/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository persists sections and bundles
type CatalogRepository struct {
	db *gorm.DB
}

func (r *CatalogRepository) section(ctx context.Context, query, arg string) (*domain.Section, error) {
	var m SectionModel
	found, err := first(r.db.WithContext(ctx), &m, query, arg)
	if err != nil {
		return nil, translate("get section", err)
	}
	if !found {
		return nil, nil
	}
	return toDomainSection(&m), nil
}

func (r *CatalogRepository) GetSection(ctx context.Context, id string) (*domain.Section, error) {
	return r.section(ctx, "id = ?", id)
}

func (r *CatalogRepository) GetSectionBySlug(ctx context.Context, slug string) (*domain.Section, error) {
	return r.section(ctx, "slug = ?", slug)
}

func (r *CatalogRepository) ListSections(ctx context.Context, activeOnly bool) ([]*domain.Section, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []SectionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translate("list sections", err)
	}
	sections := make([]*domain.Section, 0, len(rows))
	for i := range rows {
		sections = append(sections, toDomainSection(&rows[i]))
	}
	return sections, nil
}

// UpsertSection writes catalog fields by slug; counters are never overwritten
func (r *CatalogRepository) UpsertSection(ctx context.Context, section *domain.Section) error {
	m := toSectionModel(section)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.PurchaseCount, m.InstallCount = 0, 0
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "category", "price", "is_free", "is_pro", "is_plus",
			"is_active", "content", "rating", "review_count", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return translate("upsert section", err)
	}

	stored, err := r.GetSectionBySlug(ctx, section.Slug)
	if err != nil {
		return err
	}
	*section = *stored
	return nil
}

func (r *CatalogRepository) increment(ctx context.Context, model interface{}, column, id string, notFound error) error {
	result := r.db.WithContext(ctx).Model(model).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if result.Error != nil {
		return translate("increment "+column, result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound
	}
	return nil
}

func (r *CatalogRepository) IncrementSectionPurchases(ctx context.Context, id string) error {
	return r.increment(ctx, &SectionModel{}, "purchase_count", id, domain.ErrSectionNotFound)
}

func (r *CatalogRepository) IncrementSectionInstalls(ctx context.Context, id string) error {
	return r.increment(ctx, &SectionModel{}, "install_count", id, domain.ErrSectionNotFound)
}

func (r *CatalogRepository) GetBundle(ctx context.Context, id string) (*domain.Bundle, error) {
	var m BundleModel
	found, err := first(r.db.WithContext(ctx), &m, "id = ?", id)
	if err != nil {
		return nil, translate("get bundle", err)
	}
	if !found {
		return nil, nil
	}
	return toDomainBundle(&m), nil
}

func (r *CatalogRepository) ListBundlesContaining(ctx context.Context, sectionID string) ([]*domain.Bundle, error) {
	var rows []BundleModel
	err := r.db.WithContext(ctx).Where("? = ANY(section_ids)", sectionID).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, translate("list bundles", err)
	}
	bundles := make([]*domain.Bundle, 0, len(rows))
	for i := range rows {
		bundles = append(bundles, toDomainBundle(&rows[i]))
	}
	return bundles, nil
}

func (r *CatalogRepository) UpsertBundle(ctx context.Context, bundle *domain.Bundle) error {
	m := toBundleModel(bundle)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.PurchaseCount = 0
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "regular_price", "bundle_price", "discount_percent",
			"is_active", "section_ids", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return translate("upsert bundle", err)
	}

	var stored BundleModel
	if _, err := first(r.db.WithContext(ctx), &stored, "slug = ?", bundle.Slug); err != nil {
		return translate("reload bundle", err)
	}
	*bundle = *toDomainBundle(&stored)
	return nil
}

func (r *CatalogRepository) IncrementBundlePurchases(ctx context.Context, id string) error {
	return r.increment(ctx, &BundleModel{}, "purchase_count", id, domain.ErrBundleNotFound)
}
