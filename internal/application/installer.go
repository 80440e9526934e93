package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EntitlementChecker decides whether a shop may install a section
type EntitlementChecker interface {
	IsEntitled(ctx context.Context, shopID, sectionID string) (bool, error)
}

// Installer projects entitlements into merchant themes
type Installer struct {
	store       ports.Store
	themes      ports.ThemeStore
	vault       ports.CredentialVault
	entitlement EntitlementChecker
	events      ports.EventPublisher
	metrics     ports.Metrics
	clock       ports.Clock
	logger      zerolog.Logger
}

// NewInstaller creates an installation projector
func NewInstaller(
	store ports.Store,
	themes ports.ThemeStore,
	vault ports.CredentialVault,
	entitlement EntitlementChecker,
	events ports.EventPublisher,
	metrics ports.Metrics,
	clock ports.Clock,
	logger zerolog.Logger,
) *Installer {
	return &Installer{
		store:       store,
		themes:      themes,
		vault:       vault,
		entitlement: entitlement,
		events:      events,
		metrics:     metrics,
		clock:       clock,
		logger:      logger,
	}
}

// Install writes the section into the theme and records the installation.
// Installing the same section into the same theme again rewrites the asset
// but never adds a second record or counts twice.
func (i *Installer) Install(ctx context.Context, shopDomain, sectionID, themeID string) (*domain.InstallResult, error) {
	result, err := i.install(ctx, shopDomain, sectionID, themeID)
	label := "reinstalled"
	if result != nil && result.Created {
		label = "installed"
	}
	i.metrics.InstallOutcome(outcome(err, label))
	return result, err
}

func (i *Installer) install(ctx context.Context, shopDomain, sectionID, themeID string) (*domain.InstallResult, error) {
	if themeID == "" {
		return nil, fmt.Errorf("%w: theme id is required", domain.ErrInvalidInput)
	}

	var shop *domain.Shop
	var section *domain.Section
	err := i.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		if shop, err = activeShop(ctx, tx, shopDomain); err != nil {
			return err
		}
		section, err = tx.Catalog().GetSection(ctx, sectionID)
		if err != nil {
			return fmt.Errorf("failed to get section: %w", err)
		}
		if section == nil {
			return fmt.Errorf("%w: %s", domain.ErrSectionNotFound, sectionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entitled, err := i.entitlement.IsEntitled(ctx, shop.ID, section.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check entitlement: %w", err)
	}
	if !entitled {
		i.logger.Warn().Str("shop", shop.Domain).Str("sectionId", section.ID).Msg("Install rejected, no entitlement")
		return nil, domain.ErrNotEntitled
	}

	creds, err := i.vault.Credentials(shop)
	if err != nil {
		return nil, fmt.Errorf("failed to open shop credentials: %w", err)
	}

	theme, err := i.themes.GetTheme(ctx, creds, themeID)
	if err != nil {
		if errors.Is(err, domain.ErrThemeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInstallWriteFailed, err)
	}

	if err := i.themes.WriteAsset(ctx, creds, themeID, section.AssetKey(), section.Content); err != nil {
		i.logger.Error().
			Err(err).
			Str("shop", shop.Domain).
			Str("themeId", themeID).
			Str("asset", section.AssetKey()).
			Msg("Failed to write theme asset")
		return nil, fmt.Errorf("%w: %v", domain.ErrInstallWriteFailed, err)
	}

	now := i.clock.Now()
	installation := &domain.Installation{}
	var created bool
	err = i.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		*installation = domain.Installation{
			ID:          uuid.NewString(),
			ShopID:      shop.ID,
			SectionID:   section.ID,
			ThemeID:     themeID,
			ThemeName:   theme.Name,
			IsActive:    true,
			InstalledAt: now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		var err error
		created, err = tx.Installations().Upsert(ctx, installation)
		if err != nil {
			return fmt.Errorf("failed to record installation: %w", err)
		}
		if !created {
			return nil
		}
		if err := tx.Catalog().IncrementSectionInstalls(ctx, section.ID); err != nil {
			return fmt.Errorf("failed to increment install count: %w", err)
		}
		return nil
	})
	if errors.Is(err, domain.ErrConflict) {
		// a concurrent install of the same section into the same theme inserted first
		var existing *domain.Installation
		getErr := i.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
			var err error
			existing, err = tx.Installations().Get(ctx, shop.ID, section.ID, themeID)
			return err
		})
		if getErr != nil {
			return nil, fmt.Errorf("failed to get installation: %w", getErr)
		}
		if existing == nil {
			return nil, err
		}
		installation, created, err = existing, false, nil
	}
	if err != nil {
		return nil, err
	}

	i.logger.Info().
		Str("shop", shop.Domain).
		Str("sectionId", section.ID).
		Str("themeId", themeID).
		Bool("created", created).
		Msg("Section installed")
	if created {
		publish(ctx, i.events, i.logger, domain.Event{
			Type:       domain.EventSectionInstalled,
			ShopID:     shop.ID,
			ShopDomain: shop.Domain,
			ItemType:   domain.ItemSection,
			ItemID:     section.ID,
			Attributes: map[string]string{"theme_id": themeID, "theme_name": theme.Name},
			OccurredAt: now,
		})
	}
	return &domain.InstallResult{Installation: installation, Created: created}, nil
}

// ListThemes returns the storefront themes of the shop
func (i *Installer) ListThemes(ctx context.Context, shopDomain string) ([]domain.Theme, error) {
	var shop *domain.Shop
	err := i.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		shop, err = activeShop(ctx, tx, shopDomain)
		return err
	})
	if err != nil {
		return nil, err
	}
	creds, err := i.vault.Credentials(shop)
	if err != nil {
		return nil, fmt.Errorf("failed to open shop credentials: %w", err)
	}
	themes, err := i.themes.ListThemes(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	return themes, nil
}

// ListInstallations groups the shop's installations by theme
func (i *Installer) ListInstallations(ctx context.Context, shopDomain string) ([]domain.ThemeInstallations, error) {
	var rows []*domain.Installation
	err := i.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		shop, err := activeShop(ctx, tx, shopDomain)
		if err != nil {
			return err
		}
		rows, err = tx.Installations().ListByShop(ctx, shop.ID)
		if err != nil {
			return fmt.Errorf("failed to list installations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byTheme := map[string]*domain.ThemeInstallations{}
	first := map[string]time.Time{}
	var order []string
	for _, row := range rows {
		group, ok := byTheme[row.ThemeID]
		if !ok {
			group = &domain.ThemeInstallations{ThemeID: row.ThemeID, ThemeName: row.ThemeName}
			byTheme[row.ThemeID] = group
			first[row.ThemeID] = row.InstalledAt
			order = append(order, row.ThemeID)
		}
		if row.InstalledAt.Before(first[row.ThemeID]) {
			first[row.ThemeID] = row.InstalledAt
		}
		group.Installations = append(group.Installations, row)
	}
	// oldest theme first; theme ids are numeric so equal times compare by length first
	sort.Slice(order, func(a, b int) bool {
		ta, tb := first[order[a]], first[order[b]]
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		if len(order[a]) != len(order[b]) {
			return len(order[a]) < len(order[b])
		}
		return order[a] < order[b]
	})

	groups := make([]domain.ThemeInstallations, 0, len(order))
	for _, id := range order {
		groups = append(groups, *byTheme[id])
	}
	return groups, nil
}
