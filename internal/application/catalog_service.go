package application

import (
	"context"
	"fmt"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BundleSeed is a bundle whose sections are referenced by slug
type BundleSeed struct {
	Bundle       *domain.Bundle
	SectionSlugs []string
}

// CatalogService reads the catalog and keeps merchant favorites
type CatalogService struct {
	store  ports.Store
	clock  ports.Clock
	logger zerolog.Logger
}

// NewCatalogService creates a catalog service
func NewCatalogService(store ports.Store, clock ports.Clock, logger zerolog.Logger) *CatalogService {
	return &CatalogService{store: store, clock: clock, logger: logger}
}

// ListSections returns the active sections
func (c *CatalogService) ListSections(ctx context.Context) ([]*domain.Section, error) {
	var sections []*domain.Section
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		sections, err = tx.Catalog().ListSections(ctx, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}

// ToggleFavorite stars or unstars a section and reports the new state
func (c *CatalogService) ToggleFavorite(ctx context.Context, shopDomain, sectionID string) (bool, error) {
	var favorite bool
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		shop, err := activeShop(ctx, tx, shopDomain)
		if err != nil {
			return err
		}
		section, err := tx.Catalog().GetSection(ctx, sectionID)
		if err != nil {
			return fmt.Errorf("failed to get section: %w", err)
		}
		if section == nil {
			return fmt.Errorf("%w: %s", domain.ErrSectionNotFound, sectionID)
		}

		existing, err := tx.Favorites().Get(ctx, shop.ID, sectionID)
		if err != nil {
			return fmt.Errorf("failed to get favorite: %w", err)
		}
		if existing != nil {
			favorite = false
			return tx.Favorites().Delete(ctx, existing.ID)
		}
		favorite = true
		return tx.Favorites().Insert(ctx, &domain.Favorite{
			ID:        uuid.NewString(),
			ShopID:    shop.ID,
			SectionID: sectionID,
			CreatedAt: c.clock.Now(),
		})
	})
	return favorite, err
}

// Seed upserts sections and bundles by slug in one unit of work. Purchase and
// install counters of existing rows are preserved.
func (c *CatalogService) Seed(ctx context.Context, sections []*domain.Section, bundles []BundleSeed) error {
	now := c.clock.Now()
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		ids := map[string]string{}
		for _, section := range sections {
			if section.Slug == "" {
				return fmt.Errorf("%w: section %q has no slug", domain.ErrInvalidInput, section.Name)
			}
			section.CreatedAt = now
			section.UpdatedAt = now
			if err := tx.Catalog().UpsertSection(ctx, section); err != nil {
				return fmt.Errorf("failed to upsert section %s: %w", section.Slug, err)
			}
			ids[section.Slug] = section.ID
		}

		for _, seed := range bundles {
			seed.Bundle.SectionIDs = seed.Bundle.SectionIDs[:0]
			for _, slug := range seed.SectionSlugs {
				id, ok := ids[slug]
				if !ok {
					existing, err := tx.Catalog().GetSectionBySlug(ctx, slug)
					if err != nil {
						return fmt.Errorf("failed to get section %s: %w", slug, err)
					}
					if existing == nil {
						return fmt.Errorf("%w: bundle %s references unknown section %s", domain.ErrInvalidInput, seed.Bundle.Slug, slug)
					}
					id = existing.ID
				}
				seed.Bundle.SectionIDs = append(seed.Bundle.SectionIDs, id)
			}
			seed.Bundle.CreatedAt = now
			seed.Bundle.UpdatedAt = now
			if err := tx.Catalog().UpsertBundle(ctx, seed.Bundle); err != nil {
				return fmt.Errorf("failed to upsert bundle %s: %w", seed.Bundle.Slug, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info().
		Int("sections", len(sections)).
		Int("bundles", len(bundles)).
		Msg("Catalog seeded")
	return nil
}
