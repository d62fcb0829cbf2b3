package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"orderdesk/app/controller"
	"orderdesk/catalog"
	"orderdesk/merge"
	"orderdesk/models"
	"orderdesk/notify"
	"orderdesk/pivot"
	"orderdesk/repository"
	"orderdesk/service"
	"orderdesk/tabs"
	"orderdesk/utils"
)

type stubTransport struct {
	lines     []models.RawOrderLine
	submitErr error
	salesErr  error
}

func n(v int64) utils.Number { return utils.NewNumber(decimal.NewFromInt(v)) }

func (s *stubTransport) Fetch(context.Context, models.FetchKind) (json.RawMessage, error) {
	return json.RawMessage("[]"), nil
}

func (s *stubTransport) FetchProducts(context.Context) ([]models.RawProduct, error) {
	return []models.RawProduct{
		{ProductID: "P1", Status: "啟用中", Name: "Mug", PriceDistribution: n(100), TableTitle: "Mugs", TableRowTitle: "Red", TableColTitle: "S"},
		{ProductID: "P2", Status: "停用", Name: "Cup", PriceRetail: n(80)},
	}, nil
}

func (s *stubTransport) FetchCustomers(context.Context) ([]models.RawCustomer, error) {
	return []models.RawCustomer{{CustomerCode: "C1", CustomerName: "Shop"}}, nil
}

func (s *stubTransport) FetchOrderLines(context.Context) ([]models.RawOrderLine, error) {
	return s.lines, nil
}

func (s *stubTransport) FetchSales(context.Context) ([]models.RawSale, error) {
	if s.salesErr != nil {
		return nil, s.salesErr
	}
	return []models.RawSale{
		{SalesID: "SL-1", SalesDate: "2024/05/03", Customer: "Shop", ProductID: "P1", ProductName: "Mug", Quantity: n(2), UnitPrice: n(100), Cost: n(120)},
		{SalesID: "SL-2", SalesDate: "2024-06-10", Customer: "Shop", ProductID: "P1", ProductName: "Mug", Quantity: n(1), Subtotal: n(90)},
	}, nil
}

func (s *stubTransport) SubmitOrder(_ context.Context, _ models.SubmitAction, p models.OrderPayload) (*models.SubmitResult, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	for i, item := range p.Items {
		s.lines = append(s.lines, models.RawOrderLine{
			SerialNumber: p.SerialNumber, CustomerCode: p.Customer.Code, CustomerName: p.Customer.Name,
			Code: item.Code, Quantity: n(int64(item.Quantity)), RowNumber: 20 + i,
		})
	}
	return &models.SubmitResult{SerialNumber: p.SerialNumber}, nil
}

func (s *stubTransport) SubmitShipment(context.Context, models.ShipmentPayload) (*models.SubmitResult, error) {
	return &models.SubmitResult{ShipmentID: "SH-1"}, nil
}

type stubPrinter struct{ store *catalog.Store }

func (p stubPrinter) Pivot() *pivot.Catalog { return pivot.Group(p.store.Products()) }

func (p stubPrinter) RenderPivotHTML(context.Context) (string, error) { return "<html></html>", nil }

func (p stubPrinter) GeneratePDF(context.Context) ([]byte, error) { return []byte("%PDF"), nil }

func (p stubPrinter) GeneratePNG(context.Context, string) ([]byte, string, error) {
	return nil, "", errors.New("no chrome")
}

type harness struct {
	handler   http.Handler
	transport *stubTransport
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	repo := repository.NewSnapshotRepository(gdb)
	require.NoError(t, repo.Migrate(ctx))

	transport := &stubTransport{lines: []models.RawOrderLine{
		{SerialNumber: "S1", CustomerCode: "C1", CustomerName: "Shop", Code: "P1", Quantity: n(2), RowNumber: 10},
		{SerialNumber: "V1", Kind: "view-only", CustomerCode: "C1", Code: "P1", Quantity: n(1)},
	}}
	feed := notify.NewFeed(10)
	store := catalog.NewStore(feed)
	book := merge.NewBook(store, merge.PolicyReplace, feed)
	manager := tabs.NewManager(store)
	syncSvc := service.NewSyncService(transport, store, book)
	orders := service.NewOrderService(transport, book, manager, feed)
	snapshots := service.NewSnapshotService(repo, store, manager)

	handler := SetupRoutes(&Controllers{
		Admin:   controller.NewAdminController(syncSvc, store, book, snapshots, feed),
		Catalog: controller.NewCatalogController(store, syncSvc, stubPrinter{store: store}),
		Order:   controller.NewOrderController(book, syncSvc, orders),
		Tab:     controller.NewTabController(manager, store, orders),
		Report:  controller.NewReportController(book, orders, transport),
	})
	return &harness{handler: handler, transport: transport}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type sessionView struct {
	State         string           `json:"state"`
	Data          models.OrderData `json:"data"`
	TotalQuantity int              `json:"totalQuantity"`
	TotalAmount   decimal.Decimal  `json:"totalAmount"`
}

func TestPingAndMethods(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	assert.Equal(t, http.StatusMethodNotAllowed, h.do(t, http.MethodPost, "/ping", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/nope", nil).Code)
}

func TestInitializeAndCatalog(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/admin/init", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decode[map[string]any](t, rec)
	assert.Equal(t, float64(2), status["orderCount"])

	products := decode[[]models.Product](t, h.do(t, http.MethodGet, "/catalog/products?q=mug", nil))
	require.Len(t, products, 1)
	assert.Equal(t, "P1", products[0].Code)

	customers := decode[[]models.Customer](t, h.do(t, http.MethodGet, "/catalog/customers?q=shop", nil))
	require.Len(t, customers, 1)

	rec = h.do(t, http.MethodGet, "/catalog/pivot", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Mugs"`)

	rec = h.do(t, http.MethodGet, "/catalog/pivot.pdf", nil)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = h.do(t, http.MethodGet, "/catalog/pivot.png?size=thumb", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"no chrome"}`, rec.Body.String())
}

func TestOrderEntryFlow(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/admin/init", nil).Code)

	rec := h.do(t, http.MethodPost, "/tabs/order-1/items", map[string]string{"code": "P1", "quantity": "3"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[sessionView](t, rec)
	assert.Equal(t, "drafting", view.State)
	assert.Equal(t, "300", view.TotalAmount.String())
	lineID := view.Data.SalesItems[0].LineID

	rec = h.do(t, http.MethodPatch, "/tabs/order-1/items/"+lineID, map[string]string{"quantity": "abc"})
	view = decode[sessionView](t, rec)
	assert.Equal(t, 0, view.TotalQuantity)
	assert.Len(t, view.Data.SalesItems, 1)

	rec = h.do(t, http.MethodPost, "/tabs/order-1/items/batch", []map[string]string{
		{"code": "P1", "quantity": "2"}, {"code": "P2", "quantity": "0"}, {"code": "ZZ", "quantity": "5"},
	})
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["added"])

	rec = h.do(t, http.MethodPost, "/tabs/order-1/submit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing customer")

	rec = h.do(t, http.MethodPut, "/tabs/order-1/customer", map[string]string{"code": "C1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodPatch, "/tabs/order-1/header", map[string]string{"serialNumber": "S2", "date": "2024/05/01"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-05-01", decode[sessionView](t, rec).Data.OrderInfo.Date)

	rec = h.do(t, http.MethodPost, "/tabs/order-1/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/orders/S2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode[map[string]any](t, rec)
	assert.Equal(t, float64(2), order["totalQuantity"])

	view = decode[sessionView](t, h.do(t, http.MethodGet, "/tabs/order-1/session", nil))
	assert.Equal(t, "empty", view.State)
}

func TestSubmitFailureIsBadGateway(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/admin/init", nil).Code)
	h.transport.submitErr = errors.New("sheet locked")

	h.do(t, http.MethodPut, "/tabs/order-1/customer", map[string]string{"code": "C1"})
	h.do(t, http.MethodPost, "/tabs/order-1/items", map[string]string{"code": "P1", "quantity": "1"})
	h.do(t, http.MethodPatch, "/tabs/order-1/header", map[string]string{"serialNumber": "S3"})

	rec := h.do(t, http.MethodPost, "/tabs/order-1/submit", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"sheet locked"}`, rec.Body.String())

	events := decode[[]notify.Event](t, h.do(t, http.MethodGet, "/notifications", nil))
	require.NotEmpty(t, events)
	assert.Equal(t, "Submit", events[len(events)-1].Source)
}

func TestTabsAndOrders(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/admin/init", nil).Code)

	orders := decode[[]map[string]any](t, h.do(t, http.MethodGet, "/orders", nil))
	assert.Len(t, orders, 2)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/orders/none", nil).Code)

	rec := h.do(t, http.MethodPost, "/orders/S1/open", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = h.do(t, http.MethodPost, "/orders/S1/open", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/orders/V1/open", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = h.do(t, http.MethodPost, "/tabs/view-V1/items", map[string]string{"code": "P1", "quantity": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPost, "/tabs/open", map[string]string{"type": "sales-list"})
	require.Equal(t, http.StatusOK, rec.Code)
	sales := decode[models.TabInfo](t, rec)
	assert.Equal(t, "Sales", sales.Label)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/tabs/"+sales.ID+"/session", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/tabs/open", map[string]string{"type": "new-order"}).Code)

	assert.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/tabs", nil).Code)
	tabList := decode[[]models.TabInfo](t, h.do(t, http.MethodGet, "/tabs", nil))
	assert.Len(t, tabList, 5)

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodPut, "/tabs/order-1/active", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPut, "/tabs/zzz/active", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodDelete, "/tabs/order-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, "/tabs/order-1", nil).Code)
}

func TestReportsAndShipments(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/admin/init", nil).Code)

	sales := decode[map[string]any](t, h.do(t, http.MethodGet, "/reports/sales?q=S1", nil))
	assert.Len(t, sales["lines"], 1)

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/reports/payments", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/reports/products?from=2000-01-01&to=2100-01-01", nil).Code)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/shipments", map[string]any{}).Code)
	rec := h.do(t, http.MethodPost, "/shipments", map[string]any{"quantities": map[string]string{"S1-0": "1"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "SH-1", decode[models.SubmitResult](t, rec).ShipmentID)
}

func TestSnapshotEndpoints(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/admin/init", nil).Code)

	rec := h.do(t, http.MethodPost, "/admin/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[service.SnapshotResult](t, rec).Kinds, 3)

	rec = h.do(t, http.MethodPost, "/admin/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[service.SnapshotResult](t, rec).Kinds, 2)
}

func TestLedgerReport(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/reports/ledger?from=2024-05-01&to=2024-05-31", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ledger := decode[struct {
		Months []map[string]any `json:"months"`
		Lines  []map[string]any `json:"lines"`
	}](t, rec)
	require.Len(t, ledger.Lines, 1)
	assert.Equal(t, "2024-05-03", ledger.Lines[0]["date"])
	require.Len(t, ledger.Months, 1)
	assert.Equal(t, "2024-05", ledger.Months[0]["month"])

	h.transport.salesErr = &service.RemoteError{Message: "sales sheet missing"}
	rec = h.do(t, http.MethodGet, "/reports/ledger", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"sales sheet missing"}`, rec.Body.String())
}
