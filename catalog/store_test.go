package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/models"
	"orderdesk/notify"
	"orderdesk/utils"
)

type fakeFetcher struct {
	products     []models.RawProduct
	customers    []models.RawCustomer
	productErr   error
	customerErr  error
	productCalls int
	mu           sync.Mutex
}

func (f *fakeFetcher) FetchProducts(context.Context) ([]models.RawProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	return f.products, f.productErr
}

func (f *fakeFetcher) FetchCustomers(context.Context) ([]models.RawCustomer, error) {
	return f.customers, f.customerErr
}

func num(v int64) utils.Number { return utils.NewNumber(decimal.NewFromInt(v)) }

func sampleFetcher() *fakeFetcher {
	return &fakeFetcher{
		products: []models.RawProduct{
			{ProductID: "P1", Name: "Pen", Status: "啟用中", PriceDistribution: num(80), PriceRetail: num(100)},
			{ProductID: "P2", Name: "Ink", PriceRetail: num(50)},
			{ProductID: "P3", Name: "Free sample"},
		},
		customers: []models.RawCustomer{
			{CustomerCode: "C1", CustomerName: "Alpha", StoreName: "Downtown"},
			{CustomerCode: "C2", CustomerName: "Beta"},
		},
	}
}

func TestLoadAndLookup(t *testing.T) {
	store := NewStore(notify.Nop{})
	require.NoError(t, store.Load(context.Background(), sampleFetcher()))

	p, ok := store.ProductByCode("P1")
	require.True(t, ok)
	assert.Equal(t, "Pen", p.Name)

	_, ok = store.ProductByCode("nope")
	assert.False(t, ok)
	_, ok = store.ProductByCode("")
	assert.False(t, ok)

	c, ok := store.CustomerByCode("C1")
	require.True(t, ok)
	assert.Equal(t, "Downtown", c.StoreName)

	assert.True(t, store.Price("P1").Equal(decimal.NewFromInt(80)))
	assert.True(t, store.Price("P2").Equal(decimal.NewFromInt(50)))
	assert.True(t, store.Price("P3").IsZero())
	assert.True(t, store.Price("missing").IsZero())

	status := store.Status()
	assert.Equal(t, 3, status.ProductCount)
	assert.Equal(t, 2, status.CustomerCount)
	assert.False(t, status.LoadingProducts)
	assert.False(t, status.LoadingCustomers)
}

func TestLoadFailureKeepsPreviousData(t *testing.T) {
	feed := notify.NewFeed(10)
	store := NewStore(feed)
	f := sampleFetcher()
	require.NoError(t, store.Load(context.Background(), f))

	f.productErr = errors.New("quota exceeded")
	err := store.Load(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	assert.Len(t, store.Products(), 3)
	assert.False(t, store.Status().LoadingProducts)

	events := feed.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "LoadProducts", events[0].Source)
	assert.Contains(t, events[0].Message, "quota exceeded")
}

// blockingFetcher holds the first products request until released
type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (f *blockingFetcher) FetchProducts(context.Context) ([]models.RawProduct, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	if call == 1 {
		close(f.started)
		<-f.release
		return []models.RawProduct{{ProductID: "OLD"}}, nil
	}
	return []models.RawProduct{{ProductID: "NEW"}}, nil
}

func (f *blockingFetcher) FetchCustomers(context.Context) ([]models.RawCustomer, error) {
	return nil, nil
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	store := NewStore(notify.Nop{})
	f := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}

	done := make(chan error, 1)
	go func() { done <- store.LoadProducts(context.Background(), f) }()
	<-f.started
	assert.True(t, store.Status().LoadingProducts)

	require.NoError(t, store.LoadProducts(context.Background(), f))
	close(f.release)
	require.NoError(t, <-done)

	products := store.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "NEW", products[0].Code)
	assert.False(t, store.Status().LoadingProducts)
}

func TestSearch(t *testing.T) {
	store := NewStore(nil)
	require.NoError(t, store.Load(context.Background(), sampleFetcher()))

	assert.Len(t, store.SearchProducts("", 0), 3)
	assert.Len(t, store.SearchProducts("", 2), 2)
	got := store.SearchProducts("INK", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "P2", got[0].Code)

	customers := store.SearchCustomers("downtown", 0)
	require.Len(t, customers, 1)
	assert.Equal(t, "C1", customers[0].Code)
	assert.Empty(t, store.SearchCustomers("zzz", 0))
}

func TestSnapshotRestore(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore(nil)
	require.NoError(t, store.Load(context.Background(), sampleFetcher()))

	snap := store.Snapshot(now)
	assert.Equal(t, models.CatalogSnapshotVersion, snap.Version)

	restored := NewStore(nil)
	restored.Restore(snap, now)
	assert.Equal(t, store.Products(), restored.Products())
	assert.Equal(t, store.Customers(), restored.Customers())

	// An old snapshot without version or states still restores
	legacy := models.CatalogSnapshot{
		Products:  []models.Product{{Code: "X"}},
		Customers: []models.Customer{{Code: "C9"}},
	}
	restored.Restore(legacy, now)
	p, ok := restored.ProductByCode("X")
	require.True(t, ok)
	assert.Equal(t, models.ProductStateInactive, p.State)
	c, ok := restored.CustomerByCode("C9")
	require.True(t, ok)
	assert.Equal(t, "C9", c.ID)
}
