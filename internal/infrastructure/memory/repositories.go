package memory

import (
	"context"
	"sort"
	"time"

	"section-store/internal/domain"

	"github.com/google/uuid"
)

type shopRepo struct{ t *tx }

func (r shopRepo) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	if err := r.t.fault("shops.get"); err != nil {
		return nil, err
	}
	if s, ok := r.t.data.shops[id]; ok {
		return copyShop(s), nil
	}
	return nil, nil
}

func (r shopRepo) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	if err := r.t.fault("shops.get"); err != nil {
		return nil, err
	}
	for _, s := range r.t.data.shops {
		if s.Domain == shopDomain {
			return copyShop(s), nil
		}
	}
	return nil, nil
}

func (r shopRepo) Upsert(ctx context.Context, shop *domain.Shop) error {
	if err := r.t.fault("shops.upsert"); err != nil {
		return err
	}
	for id, s := range r.t.data.shops {
		if s.Domain == shop.Domain {
			shop.ID = id
			shop.CreatedAt = s.CreatedAt
			r.t.data.shops[id] = copyShop(shop)
			return nil
		}
	}
	if shop.ID == "" {
		shop.ID = uuid.NewString()
	}
	r.t.data.shops[shop.ID] = copyShop(shop)
	return nil
}

func (r shopRepo) Update(ctx context.Context, shop *domain.Shop) error {
	if err := r.t.fault("shops.update"); err != nil {
		return err
	}
	if _, ok := r.t.data.shops[shop.ID]; !ok {
		return domain.ErrShopNotFound
	}
	for id, s := range r.t.data.shops {
		if id != shop.ID && s.Domain == shop.Domain {
			return domain.ErrConflict
		}
	}
	r.t.data.shops[shop.ID] = copyShop(shop)
	return nil
}

func (r shopRepo) Delete(ctx context.Context, id string) error {
	if err := r.t.fault("shops.delete"); err != nil {
		return err
	}
	delete(r.t.data.shops, id)
	return nil
}

type catalogRepo struct{ t *tx }

func (r catalogRepo) GetSection(ctx context.Context, id string) (*domain.Section, error) {
	if s, ok := r.t.data.sections[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

func (r catalogRepo) GetSectionBySlug(ctx context.Context, slug string) (*domain.Section, error) {
	for _, s := range r.t.data.sections {
		if s.Slug == slug {
			c := *s
			return &c, nil
		}
	}
	return nil, nil
}

func (r catalogRepo) ListSections(ctx context.Context, activeOnly bool) ([]*domain.Section, error) {
	var out []*domain.Section
	for _, s := range r.t.data.sections {
		if activeOnly && !s.IsActive {
			continue
		}
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r catalogRepo) UpsertSection(ctx context.Context, section *domain.Section) error {
	for id, s := range r.t.data.sections {
		if s.Slug == section.Slug {
			section.ID = id
			section.PurchaseCount = s.PurchaseCount
			section.InstallCount = s.InstallCount
			section.CreatedAt = s.CreatedAt
			c := *section
			r.t.data.sections[id] = &c
			return nil
		}
	}
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	c := *section
	r.t.data.sections[section.ID] = &c
	return nil
}

func (r catalogRepo) IncrementSectionPurchases(ctx context.Context, id string) error {
	if err := r.t.fault("sections.increment_purchases"); err != nil {
		return err
	}
	s, ok := r.t.data.sections[id]
	if !ok {
		return domain.ErrSectionNotFound
	}
	s.PurchaseCount++
	return nil
}

func (r catalogRepo) IncrementSectionInstalls(ctx context.Context, id string) error {
	if err := r.t.fault("sections.increment_installs"); err != nil {
		return err
	}
	s, ok := r.t.data.sections[id]
	if !ok {
		return domain.ErrSectionNotFound
	}
	s.InstallCount++
	return nil
}

func (r catalogRepo) GetBundle(ctx context.Context, id string) (*domain.Bundle, error) {
	if b, ok := r.t.data.bundles[id]; ok {
		return copyBundle(b), nil
	}
	return nil, nil
}

func (r catalogRepo) ListBundlesContaining(ctx context.Context, sectionID string) ([]*domain.Bundle, error) {
	var out []*domain.Bundle
	for _, b := range r.t.data.bundles {
		if b.Contains(sectionID) {
			out = append(out, copyBundle(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r catalogRepo) UpsertBundle(ctx context.Context, bundle *domain.Bundle) error {
	for id, b := range r.t.data.bundles {
		if b.Slug == bundle.Slug {
			bundle.ID = id
			bundle.PurchaseCount = b.PurchaseCount
			bundle.CreatedAt = b.CreatedAt
			r.t.data.bundles[id] = copyBundle(bundle)
			return nil
		}
	}
	if bundle.ID == "" {
		bundle.ID = uuid.NewString()
	}
	r.t.data.bundles[bundle.ID] = copyBundle(bundle)
	return nil
}

func (r catalogRepo) IncrementBundlePurchases(ctx context.Context, id string) error {
	if err := r.t.fault("bundles.increment_purchases"); err != nil {
		return err
	}
	b, ok := r.t.data.bundles[id]
	if !ok {
		return domain.ErrBundleNotFound
	}
	b.PurchaseCount++
	return nil
}

type purchaseRepo struct{ t *tx }

func (r purchaseRepo) Get(ctx context.Context, shopID string, itemType domain.ItemType, itemID string) (*domain.Purchase, error) {
	if err := r.t.fault("purchases.get"); err != nil {
		return nil, err
	}
	for _, p := range r.t.data.purchases {
		if p.ShopID == shopID && p.ItemType == itemType && p.ItemID == itemID {
			return copyPurchase(p), nil
		}
	}
	return nil, nil
}

func (r purchaseRepo) GetByChargeRef(ctx context.Context, chargeRef string) (*domain.Purchase, error) {
	if chargeRef == "" {
		return nil, nil
	}
	for _, p := range r.t.data.purchases {
		if p.ChargeRef == chargeRef {
			return copyPurchase(p), nil
		}
	}
	return nil, nil
}

func (r purchaseRepo) ListByShop(ctx context.Context, shopID string) ([]*domain.Purchase, error) {
	var out []*domain.Purchase
	for _, p := range r.t.data.purchases {
		if p.ShopID == shopID {
			out = append(out, copyPurchase(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r purchaseRepo) taken(p *domain.Purchase) bool {
	for id, existing := range r.t.data.purchases {
		if id == p.ID {
			continue
		}
		if p.ShopID != "" && existing.ShopID == p.ShopID && existing.ItemType == p.ItemType && existing.ItemID == p.ItemID {
			return true
		}
		if p.ChargeRef != "" && existing.ChargeRef == p.ChargeRef {
			return true
		}
	}
	return false
}

func (r purchaseRepo) Insert(ctx context.Context, purchase *domain.Purchase) error {
	if err := r.t.fault("purchases.insert"); err != nil {
		return err
	}
	if purchase.ID == "" {
		purchase.ID = uuid.NewString()
	}
	if r.taken(purchase) {
		return domain.ErrConflict
	}
	r.t.data.purchases[purchase.ID] = copyPurchase(purchase)
	return nil
}

func (r purchaseRepo) UpdateIfMatch(ctx context.Context, purchase *domain.Purchase, status domain.PurchaseStatus, attemptToken string) (bool, error) {
	if err := r.t.fault("purchases.update"); err != nil {
		return false, err
	}
	current, ok := r.t.data.purchases[purchase.ID]
	if !ok || current.Status != status || current.AttemptToken != attemptToken {
		return false, nil
	}
	if r.taken(purchase) {
		return false, domain.ErrConflict
	}
	r.t.data.purchases[purchase.ID] = copyPurchase(purchase)
	return true, nil
}

func (r purchaseRepo) DeleteByShop(ctx context.Context, shopID string, itemType domain.ItemType) (int64, error) {
	if err := r.t.fault("purchases.delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, p := range r.t.data.purchases {
		if p.ShopID == shopID && p.ItemType == itemType {
			delete(r.t.data.purchases, id)
			n++
		}
	}
	return n, nil
}

func (r purchaseRepo) DetachShop(ctx context.Context, shopID string, itemType domain.ItemType) (int64, error) {
	if err := r.t.fault("purchases.detach"); err != nil {
		return 0, err
	}
	var n int64
	for _, p := range r.t.data.purchases {
		if p.ShopID == shopID && p.ItemType == itemType {
			p.ShopID = ""
			n++
		}
	}
	return n, nil
}

type installationRepo struct{ t *tx }

func (r installationRepo) Get(ctx context.Context, shopID, sectionID, themeID string) (*domain.Installation, error) {
	for _, i := range r.t.data.installations {
		if i.ShopID == shopID && i.SectionID == sectionID && i.ThemeID == themeID {
			c := *i
			return &c, nil
		}
	}
	return nil, nil
}

func (r installationRepo) Upsert(ctx context.Context, installation *domain.Installation) (bool, error) {
	if err := r.t.fault("installations.upsert"); err != nil {
		return false, err
	}
	for _, i := range r.t.data.installations {
		if i.ShopID == installation.ShopID && i.SectionID == installation.SectionID && i.ThemeID == installation.ThemeID {
			i.ThemeName = installation.ThemeName
			i.IsActive = true
			i.UpdatedAt = installation.UpdatedAt
			*installation = *i
			return false, nil
		}
	}
	if installation.ID == "" {
		installation.ID = uuid.NewString()
	}
	c := *installation
	r.t.data.installations[installation.ID] = &c
	return true, nil
}

func (r installationRepo) ListByShop(ctx context.Context, shopID string) ([]*domain.Installation, error) {
	var out []*domain.Installation
	for _, i := range r.t.data.installations {
		if i.ShopID == shopID {
			c := *i
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].InstalledAt.Before(out[b].InstalledAt) })
	return out, nil
}

func (r installationRepo) DeleteByShop(ctx context.Context, shopID string) (int64, error) {
	if err := r.t.fault("installations.delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, i := range r.t.data.installations {
		if i.ShopID == shopID {
			delete(r.t.data.installations, id)
			n++
		}
	}
	return n, nil
}

type subscriptionRepo struct{ t *tx }

func (r subscriptionRepo) Create(ctx context.Context, subscription *domain.Subscription) error {
	if subscription.ID == "" {
		subscription.ID = uuid.NewString()
	}
	c := *subscription
	r.t.data.subscriptions[subscription.ID] = &c
	return nil
}

func (r subscriptionRepo) GetLive(ctx context.Context, shopID string) (*domain.Subscription, error) {
	for _, s := range r.t.data.subscriptions {
		if s.ShopID == shopID && s.Live() {
			c := *s
			return &c, nil
		}
	}
	return nil, nil
}

func (r subscriptionRepo) CancelLive(ctx context.Context, shopID string, at time.Time) (int64, error) {
	if err := r.t.fault("subscriptions.cancel"); err != nil {
		return 0, err
	}
	var n int64
	for _, s := range r.t.data.subscriptions {
		if s.ShopID == shopID && s.Live() {
			cancelledAt := at
			s.Status = domain.SubscriptionCancelled
			s.CancelledAt = &cancelledAt
			s.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (r subscriptionRepo) DeleteByShop(ctx context.Context, shopID string) (int64, error) {
	if err := r.t.fault("subscriptions.delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, s := range r.t.data.subscriptions {
		if s.ShopID == shopID {
			delete(r.t.data.subscriptions, id)
			n++
		}
	}
	return n, nil
}

type favoriteRepo struct{ t *tx }

func (r favoriteRepo) Get(ctx context.Context, shopID, sectionID string) (*domain.Favorite, error) {
	for _, f := range r.t.data.favorites {
		if f.ShopID == shopID && f.SectionID == sectionID {
			c := *f
			return &c, nil
		}
	}
	return nil, nil
}

func (r favoriteRepo) Insert(ctx context.Context, favorite *domain.Favorite) error {
	for _, f := range r.t.data.favorites {
		if f.ShopID == favorite.ShopID && f.SectionID == favorite.SectionID {
			return domain.ErrConflict
		}
	}
	if favorite.ID == "" {
		favorite.ID = uuid.NewString()
	}
	c := *favorite
	r.t.data.favorites[favorite.ID] = &c
	return nil
}

func (r favoriteRepo) Delete(ctx context.Context, id string) error {
	delete(r.t.data.favorites, id)
	return nil
}

func (r favoriteRepo) CountByShop(ctx context.Context, shopID string) (int64, error) {
	var n int64
	for _, f := range r.t.data.favorites {
		if f.ShopID == shopID {
			n++
		}
	}
	return n, nil
}

func (r favoriteRepo) DeleteByShop(ctx context.Context, shopID string) (int64, error) {
	if err := r.t.fault("favorites.delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, f := range r.t.data.favorites {
		if f.ShopID == shopID {
			delete(r.t.data.favorites, id)
			n++
		}
	}
	return n, nil
}

type backofficeRepo struct{ t *tx }

func (r backofficeRepo) CreateSupportTicket(ctx context.Context, ticket *domain.SupportTicket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	c := *ticket
	r.t.data.tickets[ticket.ID] = &c
	return nil
}

func (r backofficeRepo) CreateFeatureRequest(ctx context.Context, request *domain.FeatureRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	c := *request
	r.t.data.requests[request.ID] = &c
	return nil
}

func (r backofficeRepo) CountSupportTickets(ctx context.Context, shopID string) (int64, error) {
	var n int64
	for _, t := range r.t.data.tickets {
		if t.ShopID == shopID {
			n++
		}
	}
	return n, nil
}

func (r backofficeRepo) DeleteSupportTickets(ctx context.Context, shopID string) (int64, error) {
	if err := r.t.fault("support_tickets.delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, t := range r.t.data.tickets {
		if t.ShopID == shopID {
			delete(r.t.data.tickets, id)
			n++
		}
	}
	return n, nil
}

func (r backofficeRepo) DeleteFeatureRequests(ctx context.Context, shopDomain string) (int64, error) {
	if err := r.t.fault("feature_requests.delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, fr := range r.t.data.requests {
		if fr.ShopDomain == shopDomain {
			delete(r.t.data.requests, id)
			n++
		}
	}
	return n, nil
}
