package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"orderdesk/catalog"
	"orderdesk/merge"
	"orderdesk/models"
	"orderdesk/notify"
	"orderdesk/repository"
	"orderdesk/session"
	"orderdesk/tabs"
)

type fixture struct {
	transport *fakeTransport
	store     *catalog.Store
	book      *merge.Book
	tabs      *tabs.Manager
	feed      *notify.Feed
	sync      *SyncService
	orders    *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{transport: sampleTransport(), feed: notify.NewFeed(10)}
	f.store = catalog.NewStore(f.feed)
	f.book = merge.NewBook(f.store, merge.PolicyReplace, f.feed)
	f.tabs = tabs.NewManager(f.store)
	f.sync = NewSyncService(f.transport, f.store, f.book)
	f.orders = NewOrderService(f.transport, f.book, f.tabs, f.feed)
	return f
}

func TestSyncInitializeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.sync.Initialize(ctx))
		}()
	}
	wg.Wait()
	require.NoError(t, f.sync.Initialize(ctx))

	assert.Equal(t, 1, f.transport.orderFetches)
	assert.True(t, f.sync.Status().Initialized)
	assert.Equal(t, 2, f.store.Status().ProductCount)
	require.Len(t, f.book.Orders(), 1)
	assert.Equal(t, "100", f.book.Orders()[0].Items[0].PriceDistribution.String())
}

func TestSyncInitializeFailureCanRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.transport.fetchErr = errors.New("offline")

	require.Error(t, f.sync.Initialize(ctx))
	st := f.sync.Status()
	assert.False(t, st.Initializing)
	assert.False(t, st.Initialized)
	assert.Contains(t, st.LastError, "offline")
	assert.Equal(t, 1, f.transport.orderFetches)
	assert.NotEmpty(t, f.feed.Events())

	f.transport.fetchErr = nil
	require.NoError(t, f.sync.Initialize(ctx))
	assert.True(t, f.sync.Status().Initialized)
}

func TestSyncInitializeLoadsOrdersWhenCustomersFail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.transport.customersErr = errors.New("customers sheet missing")

	err := f.sync.Initialize(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customers sheet missing")

	assert.Equal(t, 2, f.store.Status().ProductCount)
	assert.Equal(t, 1, f.transport.orderFetches)
	orders := f.book.Orders()
	require.Len(t, orders, 1)
	// customer falls back to a stub built from the order row
	assert.Equal(t, "Shop", orders[0].Customer.Name)
	assert.False(t, f.sync.Status().Initialized)

	f.transport.customersErr = nil
	require.NoError(t, f.sync.Initialize(ctx))
	assert.Equal(t, 1, f.store.Status().CustomerCount)
}

func draftOrder(t *testing.T, f *fixture, tabID, serial string) {
	t.Helper()
	s, err := f.tabs.Session(tabID)
	require.NoError(t, err)
	c, _ := f.store.CustomerByCode("C1")
	require.NoError(t, s.SetCustomer(&c))
	p, _ := f.store.ProductByCode("P1")
	_, err = s.AddItem(p, 3)
	require.NoError(t, err)
	require.NoError(t, s.UpdateHeaderInfo(session.HeaderUpdate{SerialNumber: &serial}))
}

func TestSubmitNewOrderTab(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sync.Initialize(ctx))
	f.transport.lines = append(f.transport.lines, models.RawOrderLine{SerialNumber: "S2", CustomerCode: "C1", Code: "P1", Quantity: num(3)})
	f.transport.result = &models.SubmitResult{SerialNumber: "S2", Items: []models.RowAssignment{{Code: "P1", RowNumber: 42}}}

	draftOrder(t, f, "order-1", "S2")
	result, err := f.orders.SubmitTab(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "S2", result.SerialNumber)
	assert.Equal(t, []models.SubmitAction{models.SubmitCreate}, f.transport.actions)

	order, ok := f.book.BySerial("S2")
	require.True(t, ok)
	assert.Equal(t, 42, order.Items[0].RowNumber)

	s, _ := f.tabs.Session("order-1")
	assert.Equal(t, session.StateEmpty, s.State())
}

func TestSubmitEditTabClosesIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sync.Initialize(ctx))

	info, created, err := f.orders.OpenOrder("S1")
	require.NoError(t, err)
	assert.True(t, created)

	_, err = f.orders.SubmitTab(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.SubmitAction{models.SubmitUpdate}, f.transport.actions)
	_, err = f.tabs.Tab(info.ID)
	assert.ErrorIs(t, err, tabs.ErrTabNotFound)

	_, _, err = f.orders.OpenOrder("nope")
	assert.ErrorIs(t, err, merge.ErrOrderNotFound)
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sync.Initialize(ctx))
	f.transport.submitErr = errors.New("序號重複")

	draftOrder(t, f, "order-1", "S9")
	_, err := f.orders.SubmitTab(ctx, "order-1")
	var submitErr *session.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "序號重複", err.Error())

	s, _ := f.tabs.Session("order-1")
	assert.Equal(t, session.StateDrafting, s.State())
	assert.Equal(t, 3, s.TotalQuantity())
}

func TestShip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sync.Initialize(ctx))
	before := f.transport.orderFetches

	_, err := f.orders.Ship(ctx, ShipmentRequest{Date: "2024/6/1"})
	assert.ErrorIs(t, err, session.ErrValidation)

	_, err = f.orders.Ship(ctx, ShipmentRequest{Quantities: map[string]string{"missing": "1"}})
	assert.ErrorIs(t, err, session.ErrValidation)

	result, err := f.orders.Ship(ctx, ShipmentRequest{Date: "2024/6/1", Quantities: map[string]string{"S1-0": "9", "S1-1": "1"}})
	require.NoError(t, err)
	assert.Equal(t, "SH-1", result.ShipmentID)
	require.Len(t, f.transport.shipments, 1)
	payload := f.transport.shipments[0]
	assert.Equal(t, "2024-06-01", payload.Date)
	assert.Equal(t, []models.ShipmentLine{
		{SerialNumber: "S1", Code: "P1", OrderRowNumber: 10, Quantity: 2},
		{SerialNumber: "S1", Code: "P2", OrderRowNumber: 11, Quantity: 1},
	}, payload.Lines)
	assert.Equal(t, before+1, f.transport.orderFetches)

	_, err = f.orders.Ship(ctx, ShipmentRequest{SelectAll: []string{"Shop"}})
	require.NoError(t, err)
	assert.Len(t, f.transport.shipments[1].Lines, 2)
}

func TestSnapshotSaveRestore(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	repo := repository.NewSnapshotRepository(db)
	require.NoError(t, repo.Migrate(ctx))

	f := newFixture(t)
	require.NoError(t, f.sync.Initialize(ctx))
	draftOrder(t, f, "order-1", "S5")
	f.tabs.NewOrderTab()

	saved, err := NewSnapshotService(repo, f.store, f.tabs).Save(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.SnapshotKind{models.SnapshotCatalog, models.SnapshotSession, models.SnapshotTabs}, saved.Kinds)

	store := catalog.NewStore(nil)
	manager := tabs.NewManager(store)
	restored, err := NewSnapshotService(repo, store, manager).Restore(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.SnapshotKind{models.SnapshotCatalog, models.SnapshotTabs}, restored.Kinds)

	assert.Equal(t, 2, store.Status().ProductCount)
	assert.Equal(t, f.tabs.Tabs(), manager.Tabs())
	s, err := manager.Session("order-1")
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalQuantity())
	assert.Equal(t, "300", s.TotalAmount().String())
}

func TestSnapshotRestoreSessionOnly(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	repo := repository.NewSnapshotRepository(db)
	require.NoError(t, repo.Migrate(ctx))

	f := newFixture(t)
	require.NoError(t, f.sync.Initialize(ctx))
	draftOrder(t, f, "order-1", "S6")
	_, err = NewSnapshotService(repo, f.store, f.tabs).Save(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, models.SnapshotTabs))

	manager := tabs.NewManager(f.store)
	restored, err := NewSnapshotService(repo, f.store, manager).Restore(ctx)
	require.NoError(t, err)
	assert.Contains(t, restored.Kinds, models.SnapshotSession)
	s, _ := manager.ActiveSession()
	assert.Equal(t, "S6", s.Data().OrderInfo.SerialNumber)
}

func TestSnapshotRestoreSkipsSessionOfOtherMode(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	repo := repository.NewSnapshotRepository(db)
	require.NoError(t, repo.Migrate(ctx))

	payload := `{"version":1,"mode":"edit","data":{"orderInfo":{"serialNumber":"S1"},"salesItems":[{"code":"P1","quantity":2}]}}`
	require.NoError(t, repo.Save(ctx, models.SnapshotSession, models.SessionSnapshotVersion, []byte(payload)))

	f := newFixture(t)
	restored, err := NewSnapshotService(repo, f.store, f.tabs).Restore(ctx)
	require.NoError(t, err)
	assert.NotContains(t, restored.Kinds, models.SnapshotSession)

	s, err := f.tabs.ActiveSession()
	require.NoError(t, err)
	assert.Equal(t, models.SessionNew, s.Mode())
	assert.Empty(t, s.Data().SalesItems)
}

type fakeRenderer struct {
	calls int
	html  string
}

func (r *fakeRenderer) PDF(_ context.Context, html string) ([]byte, error) {
	r.calls++
	r.html = html
	return []byte("%PDF-1.4"), nil
}

func (r *fakeRenderer) PNG(_ context.Context, html string) ([]byte, error) {
	r.calls++
	r.html = html
	img := image.NewRGBA(image.Rect(0, 0, 1200, 600))
	for x := 0; x < 1200; x++ {
		img.Set(x, x%600, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestCatalogServiceRender(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sync.Initialize(context.Background()))
	renderer := &fakeRenderer{}
	svc := NewCatalogService(f.store, renderer, NewPreviewCache(t.TempDir()))

	html, err := svc.RenderPivotHTML(context.Background())
	require.NoError(t, err)
	assert.Contains(t, html, "<h2>Mugs</h2>")
	assert.Contains(t, html, "NT$ 100")
	assert.Equal(t, 1, strings.Count(html, "<th>Red</th>"))

	pdf, err := svc.GeneratePDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(pdf))

	raw, ct, err := svc.GeneratePNG(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.NotEmpty(t, raw)
}

func TestCatalogServicePreviewIsCached(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sync.Initialize(context.Background()))
	renderer := &fakeRenderer{}
	svc := NewCatalogService(f.store, renderer, NewPreviewCache(t.TempDir()))

	thumb, ct, err := svc.GeneratePNG(context.Background(), "thumb")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)
	img, _, err := image.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())

	again, _, err := svc.GeneratePNG(context.Background(), "thumb")
	require.NoError(t, err)
	assert.Equal(t, thumb, again)
	assert.Equal(t, 1, renderer.calls)
}
