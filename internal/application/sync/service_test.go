package sync

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/marketsync/backend/internal/domain/listing"
	"github.com/marketsync/backend/internal/domain/product"
	"github.com/marketsync/backend/internal/domain/reconcile"
	"github.com/marketsync/backend/internal/domain/run"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/marketsync/backend/internal/infrastructure/erp"
	"github.com/marketsync/backend/internal/infrastructure/marketplace"
)

// fakeListings is an in-memory listing.Repository keyed by article. The
// tests run against a single store, so the store argument is ignored for
// lookups and asserted by the callers that care.
type fakeListings struct {
	mu   sync.Mutex
	rows map[string]*listing.Listing
}

func newFakeListings(rows ...*listing.Listing) *fakeListings {
	f := &fakeListings{rows: make(map[string]*listing.Listing)}
	for _, l := range rows {
		f.rows[l.Article] = l
	}
	return f
}

func (f *fakeListings) FindByArticle(_ context.Context, _, article string) (*listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[article]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListings) FindAllByStore(_ context.Context, _ string) ([]listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	articles := make([]string, 0, len(f.rows))
	for a := range f.rows {
		articles = append(articles, a)
	}
	sort.Strings(articles)
	out := make([]listing.Listing, 0, len(articles))
	for _, a := range articles {
		out = append(out, *f.rows[a])
	}
	return out, nil
}

func (f *fakeListings) FindUnpublished(ctx context.Context, store string) ([]listing.Listing, error) {
	all, _ := f.FindAllByStore(ctx, store)
	out := make([]listing.Listing, 0, len(all))
	for _, l := range all {
		if !l.IsPublished() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeListings) ExistingArticles(_ context.Context, _ string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[string]struct{}, len(f.rows))
	for a := range f.rows {
		set[a] = struct{}{}
	}
	return set, nil
}

func (f *fakeListings) Save(_ context.Context, l *listing.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	f.rows[l.Article] = &cp
	return nil
}

func (f *fakeListings) UpdatePrice(_ context.Context, _, article string, price decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[article]
	if !ok {
		return shared.ErrNotFound
	}
	l.Price = price
	return nil
}

func (f *fakeListings) UpdateQuantity(_ context.Context, _, article string, quantity decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[article]
	if !ok {
		return shared.ErrNotFound
	}
	l.Quantity = quantity
	return nil
}

func (f *fakeListings) get(article string) *listing.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[article]
}

var _ listing.Repository = (*fakeListings)(nil)

// fakeProperties is an in-memory product.Repository.
type fakeProperties struct {
	rows map[string]product.Properties
}

func newFakeProperties(rows ...product.Properties) *fakeProperties {
	f := &fakeProperties{rows: make(map[string]product.Properties)}
	for _, p := range rows {
		f.rows[p.Article] = p
	}
	return f
}

func (f *fakeProperties) FindByArticle(_ context.Context, _, article string) (*product.Properties, error) {
	p, ok := f.rows[article]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProperties) FindByStore(_ context.Context, _ string) (map[string]product.Properties, error) {
	out := make(map[string]product.Properties, len(f.rows))
	for a, p := range f.rows {
		out[a] = p
	}
	return out, nil
}

func (f *fakeProperties) Save(_ context.Context, p *product.Properties) error {
	f.rows[p.Article] = *p
	return nil
}

func (f *fakeProperties) SaveBatch(ctx context.Context, rows []product.Properties) error {
	for i := range rows {
		if err := f.Save(ctx, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

var _ product.Repository = (*fakeProperties)(nil)

// fakeRuns records every persisted sync run.
type fakeRuns struct {
	mu    sync.Mutex
	saved []run.Run
}

func (f *fakeRuns) Save(_ context.Context, r *run.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, *r)
	return nil
}

func (f *fakeRuns) FindRecent(_ context.Context, _ string, limit int) ([]run.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]run.Run, len(f.saved))
	copy(out, f.saved)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRuns) last() *run.Run {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return nil
	}
	r := f.saved[len(f.saved)-1]
	return &r
}

var _ run.Repository = (*fakeRuns)(nil)

// fakeERP returns a canned stock snapshot.
type fakeERP struct {
	lines []erp.StockLine
	err   error
}

func (f *fakeERP) GetStock(_ context.Context, _ []string) ([]erp.StockLine, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.lines, nil
}

// fakeImages maps articles to hosted URLs.
type fakeImages struct {
	urls map[string][]string
	err  error
}

func (f *fakeImages) URLs(_ context.Context, article string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.urls[article], nil
}

// MockGateway is a mock implementation of MarketplaceGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) UpdatePrice(ctx context.Context, marketplaceID string, price decimal.Decimal) error {
	args := m.Called(ctx, marketplaceID, price)
	return args.Error(0)
}

func (m *MockGateway) UpdateQuantity(ctx context.Context, marketplaceID, article string, quantity decimal.Decimal) error {
	args := m.Called(ctx, marketplaceID, article, quantity)
	return args.Error(0)
}

func (m *MockGateway) ReportItems(ctx context.Context, articles []string) ([]marketplace.ReportItem, error) {
	args := m.Called(ctx, articles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.ReportItem), args.Error(1)
}

func (m *MockGateway) TriggerUpload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// stubReconciler emits one payload per record, rejecting the configured
// articles, without touching a reference catalog.
type stubReconciler struct {
	reject map[string]struct{}
	err    error
	got    []reconcile.InventoryRecord
}

func (s *stubReconciler) Reconcile(_ context.Context, records []reconcile.InventoryRecord) ([]reconcile.ListingPayload, *reconcile.BatchReport, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	s.got = records
	report := &reconcile.BatchReport{Total: len(records)}
	payloads := make([]reconcile.ListingPayload, 0, len(records))
	for _, rec := range records {
		if _, drop := s.reject[rec.Article]; drop {
			report.Rejected++
			report.Rejections = append(report.Rejections, reconcile.Rejection{
				Article: rec.Article, Attribute: "model", Reason: "no candidates",
			})
			continue
		}
		report.Assembled++
		payloads = append(payloads, reconcile.ListingPayload{
			Title:     "Apple iPhone 13 128GB/ Blue",
			Article:   rec.Article,
			Price:     rec.Price,
			Vendor:    "Apple",
			Model:     "iPhone 13",
			Color:     "Blue",
			GoodsType: "Мобильные телефоны",
			Category:  "Телефоны",
		})
	}
	return payloads, report, nil
}

func publishedListing(store, article, marketplaceID string, price, quantity decimal.Decimal) *listing.Listing {
	l, _ := listing.New(store, article)
	l.Price = price
	l.Quantity = quantity
	if marketplaceID != "" {
		l.MarketplaceID = &marketplaceID
	}
	return l
}

func newTestService(erpClient ERPClient, gateway MarketplaceGateway, images ImageLocator, rec Reconciler, listings listing.Repository, props product.Repository, runs run.Repository) *Service {
	return NewService(
		Settings{Store: "store-1", Warehouses: []string{"wh-1"}},
		erpClient, gateway, images, rec, listings, props, runs, nil,
	)
}
