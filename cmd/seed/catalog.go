package main

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"section-store/internal/application"
	"section-store/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Sections []sectionEntry `yaml:"sections"`
	Bundles  []bundleEntry  `yaml:"bundles"`
}

type sectionEntry struct {
	Name        string  `yaml:"name"`
	Slug        string  `yaml:"slug"`
	Description string  `yaml:"description"`
	Category    string  `yaml:"category"`
	Price       string  `yaml:"price"`
	Free        bool    `yaml:"free"`
	Pro         bool    `yaml:"pro"`
	Plus        bool    `yaml:"plus"`
	Inactive    bool    `yaml:"inactive"`
	Rating      float64 `yaml:"rating"`
	Content     string  `yaml:"content"`
}

type bundleEntry struct {
	Name         string   `yaml:"name"`
	Slug         string   `yaml:"slug"`
	Description  string   `yaml:"description"`
	RegularPrice string   `yaml:"regular_price"`
	BundlePrice  string   `yaml:"bundle_price"`
	Inactive     bool     `yaml:"inactive"`
	Sections     []string `yaml:"sections"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if price.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("negative price %q", raw)
	}
	return price, nil
}

// discountPercent is the whole-percent saving of the bundle price
func discountPercent(regular, bundle decimal.Decimal) int {
	if regular.Sign() <= 0 || bundle.Cmp(regular) >= 0 {
		return 0
	}
	saved := regular.Sub(bundle).Mul(decimal.New(100, 0)).Div(regular)
	return int(saved.IntPart())
}

// parseCatalog reads a catalog document into seed input
func parseCatalog(r io.Reader) ([]*domain.Section, []application.BundleSeed, error) {
	var file catalogFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	seen := map[string]bool{}
	sections := make([]*domain.Section, 0, len(file.Sections))
	for i, entry := range file.Sections {
		if entry.Name == "" {
			return nil, nil, fmt.Errorf("section %d has no name", i)
		}
		slug := entry.Slug
		if slug == "" {
			slug = slugify(entry.Name)
		}
		if seen[slug] {
			return nil, nil, fmt.Errorf("duplicate section slug %q", slug)
		}
		seen[slug] = true

		price, err := parsePrice(entry.Price)
		if err != nil {
			return nil, nil, fmt.Errorf("section %s: %w", slug, err)
		}
		sections = append(sections, &domain.Section{
			Name:        entry.Name,
			Slug:        slug,
			Description: entry.Description,
			Category:    entry.Category,
			Price:       price,
			IsFree:      entry.Free || price.Sign() == 0,
			IsPro:       entry.Pro,
			IsPlus:      entry.Plus,
			IsActive:    !entry.Inactive,
			Rating:      entry.Rating,
			Content:     entry.Content,
		})
	}

	bundles := make([]application.BundleSeed, 0, len(file.Bundles))
	for i, entry := range file.Bundles {
		if entry.Name == "" {
			return nil, nil, fmt.Errorf("bundle %d has no name", i)
		}
		slug := entry.Slug
		if slug == "" {
			slug = slugify(entry.Name)
		}
		if len(entry.Sections) == 0 {
			return nil, nil, fmt.Errorf("bundle %s has no sections", slug)
		}
		regular, err := parsePrice(entry.RegularPrice)
		if err != nil {
			return nil, nil, fmt.Errorf("bundle %s: %w", slug, err)
		}
		price, err := parsePrice(entry.BundlePrice)
		if err != nil {
			return nil, nil, fmt.Errorf("bundle %s: %w", slug, err)
		}
		bundles = append(bundles, application.BundleSeed{
			Bundle: &domain.Bundle{
				Name:            entry.Name,
				Slug:            slug,
				Description:     entry.Description,
				RegularPrice:    regular,
				BundlePrice:     price,
				DiscountPercent: discountPercent(regular, price),
				IsActive:        !entry.Inactive,
			},
			SectionSlugs: entry.Sections,
		})
	}
	return sections, bundles, nil
}
