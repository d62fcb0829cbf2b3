package controller

import (
	"context"
	"net/http"
	"time"

	"orderdesk/merge"
	"orderdesk/models"
	"orderdesk/report"
	"orderdesk/service"
)

// SalesFetcher reads the sales sheet
type SalesFetcher interface {
	FetchSales(ctx context.Context) ([]models.RawSale, error)
}

// ReportController serves the read-only sales views and batch shipments
type ReportController struct {
	book   *merge.Book
	orders *service.OrderService
	sales  SalesFetcher
	now    func() time.Time
}

// NewReportController creates a new ReportController
func NewReportController(book *merge.Book, orders *service.OrderService, sales SalesFetcher) *ReportController {
	return &ReportController{book: book, orders: orders, sales: sales, now: time.Now}
}

type salesResponse struct {
	Summary report.Summary         `json:"summary"`
	Groups  []report.CustomerGroup `json:"groups"`
	Lines   []report.SaleLine      `json:"lines"`
}

// Sales handles GET /reports/sales?q=
func (c *ReportController) Sales(w http.ResponseWriter, r *http.Request) {
	now := c.now()
	lines := report.FilterLines(report.SalesLines(c.book.Orders(), now), r.URL.Query().Get("q"))
	if lines == nil {
		lines = []report.SaleLine{}
	}
	groups := report.GroupByCustomer(lines)
	if groups == nil {
		groups = []report.CustomerGroup{}
	}
	writeJSON(w, "SalesReport", http.StatusOK, salesResponse{
		Summary: report.SalesSummary(lines, now),
		Groups:  groups,
		Lines:   lines,
	})
}

// Payments handles GET /reports/payments?q=
func (c *ReportController) Payments(w http.ResponseWriter, r *http.Request) {
	stats := report.PaymentStats(c.book.Orders(), r.URL.Query().Get("q"))
	writeJSON(w, "PaymentReport", http.StatusOK, stats)
}

// Products handles GET /reports/products?from=&to=&q=
func (c *ReportController) Products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats := report.ProductStats(c.book.Orders(), q.Get("from"), q.Get("to"), q.Get("q"))
	writeJSON(w, "ProductReport", http.StatusOK, stats)
}

type ledgerResponse struct {
	Months []report.MonthTotal `json:"months"`
	Lines  []report.LedgerLine `json:"lines"`
}

// Ledger handles GET /reports/ledger?from=&to=&q=
// It reads the sales sheet on every call; the sheet is not cached.
func (c *ReportController) Ledger(w http.ResponseWriter, r *http.Request) {
	raw, err := c.sales.FetchSales(r.Context())
	if err != nil {
		writeError(w, "LedgerReport", err)
		return
	}
	q := r.URL.Query()
	lines := report.FilterLedger(report.LedgerLines(raw), q.Get("from"), q.Get("to"), q.Get("q"))
	writeJSON(w, "LedgerReport", http.StatusOK, ledgerResponse{
		Months: report.LedgerByMonth(lines),
		Lines:  lines,
	})
}

// Ship handles POST /shipments
func (c *ReportController) Ship(w http.ResponseWriter, r *http.Request) {
	var req service.ShipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Ship", err)
		return
	}
	result, err := c.orders.Ship(r.Context(), req)
	if err != nil {
		writeError(w, "Ship", err)
		return
	}
	writeJSON(w, "Ship", http.StatusOK, result)
}
