// Package catalog holds the product and customer lists shared by every order
// session. Lists are replaced wholesale on each load.
package catalog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"orderdesk/models"
	"orderdesk/normalizer"
	"orderdesk/notify"
	"orderdesk/pricing"
)

// Reader is the read side of the catalog handed to sessions and the merge pipeline
type Reader interface {
	ProductByCode(code string) (models.Product, bool)
	CustomerByCode(code string) (models.Customer, bool)
	Price(code string) decimal.Decimal
}

// Fetcher loads raw catalog rows from the remote sheet
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]models.RawProduct, error)
	FetchCustomers(ctx context.Context) ([]models.RawCustomer, error)
}

// Status is a point-in-time view of the store
type Status struct {
	ProductCount     int  `json:"productCount"`
	CustomerCount    int  `json:"customerCount"`
	LoadingProducts  bool `json:"loadingProducts"`
	LoadingCustomers bool `json:"loadingCustomers"`
}

// list is one independently loaded collection with its loading state
type list struct {
	loading bool
	gen     uint64
}

// Store is the in-memory catalog. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	products  []models.Product
	productIx map[string]int
	customers []models.Customer
	customIx  map[string]int
	prodState list
	custState list
	reporter  notify.Reporter
}

var _ Reader = (*Store)(nil)

// NewStore creates an empty store. A nil reporter logs failures only.
func NewStore(reporter notify.Reporter) *Store {
	if reporter == nil {
		reporter = notify.LogReporter{}
	}
	return &Store{
		productIx: map[string]int{},
		customIx:  map[string]int{},
		reporter:  reporter,
	}
}

// ProductByCode returns the first product with exactly this code
func (s *Store) ProductByCode(code string) (models.Product, bool) {
	if code == "" {
		return models.Product{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.productIx[code]
	if !ok {
		return models.Product{}, false
	}
	return s.products[i], true
}

// CustomerByCode returns the customer with exactly this code
func (s *Store) CustomerByCode(code string) (models.Customer, bool) {
	if code == "" {
		return models.Customer{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.customIx[code]
	if !ok {
		return models.Customer{}, false
	}
	return s.customers[i], true
}

// Price is the price a new line for code would take; zero for unknown codes
func (s *Store) Price(code string) decimal.Decimal {
	p, ok := s.ProductByCode(code)
	if !ok {
		return decimal.Zero
	}
	return pricing.ResolvePrice(p)
}

// Products returns a copy of the product list
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product(nil), s.products...)
}

// Customers returns a copy of the customer list
func (s *Store) Customers() []models.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Customer(nil), s.customers...)
}

// Status reports list sizes and loading flags
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		ProductCount:     len(s.products),
		CustomerCount:    len(s.customers),
		LoadingProducts:  s.prodState.loading,
		LoadingCustomers: s.custState.loading,
	}
}

// SetProducts replaces the product list
func (s *Store) SetProducts(products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setProductsLocked(products)
}

// SetCustomers replaces the customer list
func (s *Store) SetCustomers(customers []models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCustomersLocked(customers)
}

func (s *Store) setProductsLocked(products []models.Product) {
	s.products = append([]models.Product(nil), products...)
	s.productIx = make(map[string]int, len(products))
	for i, p := range s.products {
		if p.Code == "" {
			continue
		}
		if _, dup := s.productIx[p.Code]; !dup {
			s.productIx[p.Code] = i
		}
	}
}

func (s *Store) setCustomersLocked(customers []models.Customer) {
	s.customers = append([]models.Customer(nil), customers...)
	s.customIx = make(map[string]int, len(customers))
	for i, c := range s.customers {
		if _, dup := s.customIx[c.Code]; !dup {
			s.customIx[c.Code] = i
		}
	}
}

// begin marks a list as loading and issues a new generation
func (s *Store) begin(l *list) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.gen++
	l.loading = true
	return l.gen
}

// LoadProducts fetches and replaces the product list. On failure the previous
// list is kept. A response overtaken by a newer request is discarded.
func (s *Store) LoadProducts(ctx context.Context, f Fetcher) error {
	gen := s.begin(&s.prodState)
	raw, err := f.FetchProducts(ctx)
	if err != nil {
		s.finish(&s.prodState, gen)
		err = fmt.Errorf("failed to load products: %w", err)
		s.reporter.Report(ctx, notify.Failure("LoadProducts", err))
		return err
	}

	products := normalizer.NormalizeProducts(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.prodState.gen {
		log.Printf("⚠️  LoadProducts: discarding stale response (generation %d, latest %d)", gen, s.prodState.gen)
		return nil
	}
	s.prodState.loading = false
	s.setProductsLocked(products)
	log.Printf("✅ LoadProducts: loaded %d products", len(products))
	return nil
}

// LoadCustomers fetches and replaces the customer list, like LoadProducts
func (s *Store) LoadCustomers(ctx context.Context, f Fetcher) error {
	gen := s.begin(&s.custState)
	raw, err := f.FetchCustomers(ctx)
	if err != nil {
		s.finish(&s.custState, gen)
		err = fmt.Errorf("failed to load customers: %w", err)
		s.reporter.Report(ctx, notify.Failure("LoadCustomers", err))
		return err
	}

	customers := normalizer.NormalizeCustomers(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.custState.gen {
		log.Printf("⚠️  LoadCustomers: discarding stale response (generation %d, latest %d)", gen, s.custState.gen)
		return nil
	}
	s.custState.loading = false
	s.setCustomersLocked(customers)
	log.Printf("✅ LoadCustomers: loaded %d customers", len(customers))
	return nil
}

// finish clears the loading flag if gen is still the latest request
func (s *Store) finish(l *list, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == l.gen {
		l.loading = false
	}
}

// Load fetches products and customers concurrently. One list failing does not
// stop the other; the first error is returned.
func (s *Store) Load(ctx context.Context, f Fetcher) error {
	var g errgroup.Group
	g.Go(func() error { return s.LoadProducts(ctx, f) })
	g.Go(func() error { return s.LoadCustomers(ctx, f) })
	return g.Wait()
}

// SearchProducts matches q case-insensitively against code, name, vendor and
// series. An empty query matches everything. limit <= 0 means no limit.
func (s *Store) SearchProducts(q string, limit int) []models.Product {
	q = strings.ToLower(strings.TrimSpace(q))
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Product
	for _, p := range s.products {
		if q != "" && !containsAny(q, p.Code, p.Name, p.Vendor, p.Series) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// SearchCustomers matches q case-insensitively against code, name and store names
func (s *Store) SearchCustomers(q string, limit int) []models.Customer {
	q = strings.ToLower(strings.TrimSpace(q))
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Customer
	for _, c := range s.customers {
		if q != "" && !containsAny(q, c.Code, c.Name, c.StoreName, c.ChainStoreName) {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func containsAny(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Snapshot captures both lists for persistence
func (s *Store) Snapshot(now time.Time) models.CatalogSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CatalogSnapshot{
		Version:   models.CatalogSnapshotVersion,
		SavedAt:   now,
		Products:  append([]models.Product{}, s.products...),
		Customers: append([]models.Customer{}, s.customers...),
	}
}

// Restore replaces both lists from a snapshot, filling defaults first
func (s *Store) Restore(snap models.CatalogSnapshot, now time.Time) {
	snap.Normalize(now)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setProductsLocked(snap.Products)
	s.setCustomersLocked(snap.Customers)
	log.Printf("✅ Catalog Restore: %d products, %d customers (snapshot v%d from %s)",
		len(s.products), len(s.customers), snap.Version, snap.SavedAt.Format(time.RFC3339))
}
