package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"section-store/internal/domain"
	"section-store/internal/infrastructure/memory"
	"section-store/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeBilling struct {
	mu        sync.Mutex
	charges   map[string]*ports.Charge
	requests  []ports.ChargeRequest
	createErr error
	getErr    error
	seq       int
}

func newFakeBilling() *fakeBilling {
	return &fakeBilling{charges: map[string]*ports.Charge{}}
}

func (b *fakeBilling) CreateCharge(_ context.Context, creds ports.ShopCredentials, req ports.ChargeRequest) (*ports.Charge, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.createErr != nil {
		return nil, b.createErr
	}
	b.seq++
	charge := &ports.Charge{
		ID:              fmt.Sprintf("%d", 1000+b.seq),
		ConfirmationURL: fmt.Sprintf("https://%s/admin/charges/%d/confirm", creds.Domain, 1000+b.seq),
		Status:          ports.ChargePending,
	}
	b.charges[charge.ID] = charge
	b.requests = append(b.requests, req)
	c := *charge
	return &c, nil
}

func (b *fakeBilling) GetCharge(_ context.Context, _ ports.ShopCredentials, chargeID string) (*ports.Charge, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	charge, ok := b.charges[chargeID]
	if !ok {
		return nil, fmt.Errorf("charge %s not found", chargeID)
	}
	c := *charge
	return &c, nil
}

func (b *fakeBilling) setStatus(chargeID string, status ports.ChargeStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.charges[chargeID].Status = status
}

func (b *fakeBilling) created() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

type fakeThemes struct {
	mu       sync.Mutex
	themes   map[string]domain.Theme
	writes   []string
	getErr   error
	writeErr error
}

func newFakeThemes() *fakeThemes {
	return &fakeThemes{themes: map[string]domain.Theme{
		"101": {ID: "101", Name: "Dawn", Role: "main"},
		"102": {ID: "102", Name: "Sense", Role: "unpublished"},
	}}
}

func (f *fakeThemes) GetTheme(_ context.Context, _ ports.ShopCredentials, themeID string) (*domain.Theme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	theme, ok := f.themes[themeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrThemeNotFound, themeID)
	}
	return &theme, nil
}

func (f *fakeThemes) ListThemes(_ context.Context, _ ports.ShopCredentials) ([]domain.Theme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []domain.Theme{f.themes["101"], f.themes["102"]}, nil
}

func (f *fakeThemes) WriteAsset(_ context.Context, _ ports.ShopCredentials, themeID, key, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, themeID+":"+key)
	return nil
}

// fakeVault seals by prefixing
type fakeVault struct{}

func (fakeVault) Seal(token string) (string, error) { return "sealed:" + token, nil }

func (fakeVault) Credentials(shop *domain.Shop) (ports.ShopCredentials, error) {
	if !strings.HasPrefix(shop.AccessToken, "sealed:") {
		return ports.ShopCredentials{}, errors.New("no access token")
	}
	return ports.ShopCredentials{Domain: shop.Domain, AccessToken: strings.TrimPrefix(shop.AccessToken, "sealed:")}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *fakePublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *fakeMetrics) record(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, s)
}

func (m *fakeMetrics) PurchaseOutcome(itemType domain.ItemType, outcome string) {
	m.record("purchase:" + string(itemType) + ":" + outcome)
}
func (m *fakeMetrics) InstallOutcome(outcome string) { m.record("install:" + outcome) }
func (m *fakeMetrics) WebhookProcessed(topic, result string) {
	m.record("webhook:" + topic + ":" + result)
}

type fakeAuth struct {
	mu          sync.Mutex
	validHMAC   bool
	exchangeErr error
	webhookErr  error
	registered  []string
}

func (a *fakeAuth) AuthorizeURL(shop, state, redirectURI string, scopes []string) string {
	return fmt.Sprintf("https://%s/admin/oauth/authorize?client_id=key&scope=%s&redirect_uri=%s&state=%s",
		shop, url.QueryEscape(strings.Join(scopes, ",")), url.QueryEscape(redirectURI), state)
}

func (a *fakeAuth) VerifyCallback(*url.URL) (bool, error) { return a.validHMAC, nil }

func (a *fakeAuth) ExchangeToken(_ context.Context, shop, code string) (string, error) {
	if a.exchangeErr != nil {
		return "", a.exchangeErr
	}
	return "shpat_" + code, nil
}

func (a *fakeAuth) RegisterWebhooks(_ context.Context, _ ports.ShopCredentials, topics []string, address string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, topic := range topics {
		a.registered = append(a.registered, topic+"->"+address)
	}
	return a.webhookErr
}

type fakeStates struct {
	mu     sync.Mutex
	states map[string]*domain.OAuthState
}

func (s *fakeStates) Save(_ context.Context, state *domain.OAuthState, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states == nil {
		s.states = map[string]*domain.OAuthState{}
	}
	c := *state
	s.states[state.State] = &c
	return nil
}

func (s *fakeStates) Consume(_ context.Context, state string) (*domain.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, ok := s.states[state]
	if !ok {
		return nil, nil
	}
	delete(s.states, state)
	return saved, nil
}

// harness wires the workflow services over an in-memory store
type harness struct {
	store      *memory.Store
	clock      *fakeClock
	billing    *fakeBilling
	themes     *fakeThemes
	events     *fakePublisher
	metrics    *fakeMetrics
	ledger     *Ledger
	installer  *Installer
	reconciler *Reconciler
	shop       *domain.Shop
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:   memory.NewStore(),
		clock:   newFakeClock(),
		billing: newFakeBilling(),
		themes:  newFakeThemes(),
		events:  &fakePublisher{},
		metrics: &fakeMetrics{},
	}
	logger := zerolog.Nop()

	ledger, err := NewLedger(h.store, h.billing, fakeVault{}, h.events, h.metrics, h.clock, logger, LedgerConfig{
		ReturnURL:       "https://app.example.com/billing/return",
		TestCharges:     true,
		PendingClaimTTL: 2 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}
	h.ledger = ledger
	h.installer = NewInstaller(h.store, h.themes, fakeVault{}, ledger, h.events, h.metrics, h.clock, logger)
	h.reconciler = NewReconciler(h.store, h.events, h.clock, logger)
	h.shop = h.seedShop(t, "acme.myshopify.com")
	return h
}

func (h *harness) tx(t *testing.T, fn ports.TxFunc) {
	t.Helper()
	if err := h.store.WithinTx(context.Background(), fn); err != nil {
		t.Fatalf("unit of work failed: %v", err)
	}
}

func (h *harness) seedShop(t *testing.T, shopDomain string) *domain.Shop {
	t.Helper()
	now := h.clock.Now()
	shop := &domain.Shop{
		Domain:      shopDomain,
		AccessToken: "sealed:shpat_seed",
		Scopes:      []string{"read_themes", "write_themes"},
		IsActive:    true,
		InstalledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		return tx.Shops().Upsert(ctx, shop)
	})
	return shop
}

func (h *harness) seedSection(t *testing.T, name string, price int64) *domain.Section {
	t.Helper()
	now := h.clock.Now()
	section := &domain.Section{
		Name:      name,
		Slug:      strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Price:     decimal.New(price, 0),
		IsFree:    price == 0,
		IsActive:  true,
		Content:   "<section>{{ section.settings.title }}</section>",
		CreatedAt: now,
		UpdatedAt: now,
	}
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		return tx.Catalog().UpsertSection(ctx, section)
	})
	return section
}

func (h *harness) seedBundle(t *testing.T, name string, price int64, sections ...*domain.Section) *domain.Bundle {
	t.Helper()
	now := h.clock.Now()
	bundle := &domain.Bundle{
		Name:         name,
		Slug:         strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		RegularPrice: decimal.New(price*2, 0),
		BundlePrice:  decimal.New(price, 0),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, s := range sections {
		bundle.SectionIDs = append(bundle.SectionIDs, s.ID)
	}
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		return tx.Catalog().UpsertBundle(ctx, bundle)
	})
	return bundle
}

func (h *harness) seedSubscription(t *testing.T, shop *domain.Shop, status domain.SubscriptionStatus) {
	t.Helper()
	now := h.clock.Now()
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		return tx.Subscriptions().Create(ctx, &domain.Subscription{
			ID:        uuid.NewString(),
			ShopID:    shop.ID,
			PlanName:  "Plus",
			Price:     decimal.New(19, 0),
			Status:    status,
			StartedAt: now,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
}

func (h *harness) section(t *testing.T, id string) *domain.Section {
	t.Helper()
	var section *domain.Section
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		var err error
		section, err = tx.Catalog().GetSection(ctx, id)
		return err
	})
	return section
}

func (h *harness) purchase(t *testing.T, shopID string, itemType domain.ItemType, itemID string) *domain.Purchase {
	t.Helper()
	var p *domain.Purchase
	h.tx(t, func(ctx context.Context, tx ports.Tx) error {
		var err error
		p, err = tx.Purchases().Get(ctx, shopID, itemType, itemID)
		return err
	})
	return p
}

func (h *harness) entitled(t *testing.T, shopID, sectionID string) bool {
	t.Helper()
	ok, err := h.ledger.IsEntitled(context.Background(), shopID, sectionID)
	if err != nil {
		t.Fatalf("IsEntitled() error = %v", err)
	}
	return ok
}
