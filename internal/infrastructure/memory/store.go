// Package memory is an in-process Store. A unit of work runs against a copy of
// the data under one lock and the copy replaces the data only when the unit
// of work succeeds, so a failing transition leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"sync"

	"section-store/internal/domain"
	"section-store/internal/ports"
)

type data struct {
	shops         map[string]*domain.Shop
	sections      map[string]*domain.Section
	bundles       map[string]*domain.Bundle
	purchases     map[string]*domain.Purchase
	installations map[string]*domain.Installation
	subscriptions map[string]*domain.Subscription
	favorites     map[string]*domain.Favorite
	tickets       map[string]*domain.SupportTicket
	requests      map[string]*domain.FeatureRequest
}

func newData() *data {
	return &data{
		shops:         map[string]*domain.Shop{},
		sections:      map[string]*domain.Section{},
		bundles:       map[string]*domain.Bundle{},
		purchases:     map[string]*domain.Purchase{},
		installations: map[string]*domain.Installation{},
		subscriptions: map[string]*domain.Subscription{},
		favorites:     map[string]*domain.Favorite{},
		tickets:       map[string]*domain.SupportTicket{},
		requests:      map[string]*domain.FeatureRequest{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.shops {
		c.shops[k] = copyShop(v)
	}
	for k, v := range d.sections {
		s := *v
		c.sections[k] = &s
	}
	for k, v := range d.bundles {
		c.bundles[k] = copyBundle(v)
	}
	for k, v := range d.purchases {
		c.purchases[k] = copyPurchase(v)
	}
	for k, v := range d.installations {
		i := *v
		c.installations[k] = &i
	}
	for k, v := range d.subscriptions {
		s := *v
		c.subscriptions[k] = &s
	}
	for k, v := range d.favorites {
		f := *v
		c.favorites[k] = &f
	}
	for k, v := range d.tickets {
		t := *v
		c.tickets[k] = &t
	}
	for k, v := range d.requests {
		r := *v
		c.requests[k] = &r
	}
	return c
}

// Store keeps everything in maps guarded by one mutex. Units of work are
// serialised, which makes it the reference behaviour for the real drivers.
type Store struct {
	mu     sync.Mutex
	data   *data
	faults map[string]error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{data: newData(), faults: map[string]error{}}
}

var _ ports.Store = (*Store)(nil)

// WithinTx runs fn against a private copy and publishes it when fn succeeds
func (s *Store) WithinTx(ctx context.Context, fn ports.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(ctx, &tx{data: work, faults: s.faults}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// FailOn makes the named repository operation fail with err until cleared
// with a nil err. Operation names look like "shops.delete".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

type tx struct {
	data   *data
	faults map[string]error
}

func (t *tx) fault(op string) error {
	if err, ok := t.faults[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (t *tx) Shops() ports.ShopRepository                 { return shopRepo{t} }
func (t *tx) Catalog() ports.CatalogRepository            { return catalogRepo{t} }
func (t *tx) Purchases() ports.PurchaseRepository         { return purchaseRepo{t} }
func (t *tx) Installations() ports.InstallationRepository { return installationRepo{t} }
func (t *tx) Subscriptions() ports.SubscriptionRepository { return subscriptionRepo{t} }
func (t *tx) Favorites() ports.FavoriteRepository         { return favoriteRepo{t} }
func (t *tx) Backoffice() ports.BackofficeRepository      { return backofficeRepo{t} }

func copyShop(s *domain.Shop) *domain.Shop {
	c := *s
	c.Scopes = append([]string(nil), s.Scopes...)
	if s.UninstalledAt != nil {
		at := *s.UninstalledAt
		c.UninstalledAt = &at
	}
	return &c
}

func copyBundle(b *domain.Bundle) *domain.Bundle {
	c := *b
	c.SectionIDs = append([]string(nil), b.SectionIDs...)
	return &c
}

func copyPurchase(p *domain.Purchase) *domain.Purchase {
	c := *p
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}
