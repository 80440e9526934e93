package postgres

import (
	"time"

	"section-store/internal/domain"
)

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toShopModel(s *domain.Shop) *ShopModel {
	return &ShopModel{
		ID:            s.ID,
		Domain:        s.Domain,
		AccessToken:   s.AccessToken,
		Scopes:        append([]string{}, s.Scopes...),
		IsActive:      s.IsActive,
		InstalledAt:   s.InstalledAt,
		UninstalledAt: s.UninstalledAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toDomainShop(m *ShopModel) *domain.Shop {
	return &domain.Shop{
		ID:            m.ID,
		Domain:        m.Domain,
		AccessToken:   m.AccessToken,
		Scopes:        []string(m.Scopes),
		IsActive:      m.IsActive,
		InstalledAt:   m.InstalledAt.UTC(),
		UninstalledAt: utcPtr(m.UninstalledAt),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func toSectionModel(s *domain.Section) *SectionModel {
	return &SectionModel{
		ID:            s.ID,
		Name:          s.Name,
		Slug:          s.Slug,
		Description:   s.Description,
		Category:      s.Category,
		Price:         s.Price,
		IsFree:        s.IsFree,
		IsPro:         s.IsPro,
		IsPlus:        s.IsPlus,
		IsActive:      s.IsActive,
		Content:       s.Content,
		PurchaseCount: s.PurchaseCount,
		InstallCount:  s.InstallCount,
		Rating:        s.Rating,
		ReviewCount:   s.ReviewCount,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toDomainSection(m *SectionModel) *domain.Section {
	return &domain.Section{
		ID:            m.ID,
		Name:          m.Name,
		Slug:          m.Slug,
		Description:   m.Description,
		Category:      m.Category,
		Price:         m.Price,
		IsFree:        m.IsFree,
		IsPro:         m.IsPro,
		IsPlus:        m.IsPlus,
		IsActive:      m.IsActive,
		Content:       m.Content,
		PurchaseCount: m.PurchaseCount,
		InstallCount:  m.InstallCount,
		Rating:        m.Rating,
		ReviewCount:   m.ReviewCount,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func toBundleModel(b *domain.Bundle) *BundleModel {
	return &BundleModel{
		ID:              b.ID,
		Name:            b.Name,
		Slug:            b.Slug,
		Description:     b.Description,
		RegularPrice:    b.RegularPrice,
		BundlePrice:     b.BundlePrice,
		DiscountPercent: b.DiscountPercent,
		IsActive:        b.IsActive,
		SectionIDs:      append([]string{}, b.SectionIDs...),
		PurchaseCount:   b.PurchaseCount,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toDomainBundle(m *BundleModel) *domain.Bundle {
	return &domain.Bundle{
		ID:              m.ID,
		Name:            m.Name,
		Slug:            m.Slug,
		Description:     m.Description,
		RegularPrice:    m.RegularPrice,
		BundlePrice:     m.BundlePrice,
		DiscountPercent: m.DiscountPercent,
		IsActive:        m.IsActive,
		SectionIDs:      []string(m.SectionIDs),
		PurchaseCount:   m.PurchaseCount,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

func toPurchaseModel(p *domain.Purchase) *PurchaseModel {
	return &PurchaseModel{
		ID:              p.ID,
		ShopID:          p.ShopID,
		ItemType:        string(p.ItemType),
		ItemID:          p.ItemID,
		ItemName:        p.ItemName,
		Price:           p.Price,
		Currency:        p.Currency,
		ChargeRef:       p.ChargeRef,
		ConfirmationURL: p.ConfirmationURL,
		Status:          string(p.Status),
		AttemptToken:    p.AttemptToken,
		AttemptedAt:     p.AttemptedAt,
		CompletedAt:     p.CompletedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toDomainPurchase(m *PurchaseModel) *domain.Purchase {
	return &domain.Purchase{
		ID:              m.ID,
		ShopID:          m.ShopID,
		ItemType:        domain.ItemType(m.ItemType),
		ItemID:          m.ItemID,
		ItemName:        m.ItemName,
		Price:           m.Price,
		Currency:        m.Currency,
		ChargeRef:       m.ChargeRef,
		ConfirmationURL: m.ConfirmationURL,
		Status:          domain.PurchaseStatus(m.Status),
		AttemptToken:    m.AttemptToken,
		AttemptedAt:     m.AttemptedAt.UTC(),
		CompletedAt:     utcPtr(m.CompletedAt),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

// purchaseColumns lists every mutable column so zero values are written too
func purchaseColumns(m *PurchaseModel) map[string]interface{} {
	return map[string]interface{}{
		"shop_id":          m.ShopID,
		"item_type":        m.ItemType,
		"item_id":          m.ItemID,
		"item_name":        m.ItemName,
		"price":            m.Price,
		"currency":         m.Currency,
		"charge_ref":       m.ChargeRef,
		"confirmation_url": m.ConfirmationURL,
		"status":           m.Status,
		"attempt_token":    m.AttemptToken,
		"attempted_at":     m.AttemptedAt,
		"completed_at":     m.CompletedAt,
		"updated_at":       m.UpdatedAt,
	}
}

func toDomainInstallation(m *InstallationModel) *domain.Installation {
	return &domain.Installation{
		ID:          m.ID,
		ShopID:      m.ShopID,
		SectionID:   m.SectionID,
		ThemeID:     m.ThemeID,
		ThemeName:   m.ThemeName,
		IsActive:    m.IsActive,
		InstalledAt: m.InstalledAt.UTC(),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func toDomainSubscription(m *SubscriptionModel) *domain.Subscription {
	return &domain.Subscription{
		ID:          m.ID,
		ShopID:      m.ShopID,
		PlanName:    m.PlanName,
		Price:       m.Price,
		Status:      domain.SubscriptionStatus(m.Status),
		StartedAt:   m.StartedAt.UTC(),
		EndsAt:      utcPtr(m.EndsAt),
		CancelledAt: utcPtr(m.CancelledAt),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}
