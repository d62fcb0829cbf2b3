package controller

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"orderdesk/merge"
	"orderdesk/models"
	"orderdesk/pricing"
	"orderdesk/service"
)

// OrderController handles the confirmed order list
type OrderController struct {
	book   *merge.Book
	sync   service.SyncServiceInterface
	orders *service.OrderService
}

// NewOrderController creates a new OrderController
func NewOrderController(book *merge.Book, sync service.SyncServiceInterface, orders *service.OrderService) *OrderController {
	return &OrderController{book: book, sync: sync, orders: orders}
}

type orderResponse struct {
	models.Order
	TotalQuantity int                      `json:"totalQuantity"`
	Breakdown     *models.PricingBreakdown `json:"breakdown"`
}

func toOrderResponse(o models.Order) orderResponse {
	return orderResponse{Order: o, TotalQuantity: o.TotalQuantity(), Breakdown: pricing.Calculate(o.Items)}
}

// List handles GET /orders
func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	orders := c.book.Orders()
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, "ListOrders", http.StatusOK, out)
}

// Reload handles POST /orders/reload
func (c *OrderController) Reload(w http.ResponseWriter, r *http.Request) {
	if err := c.sync.ReloadOrders(r.Context()); err != nil {
		writeError(w, "ReloadOrders", err)
		return
	}
	writeJSON(w, "ReloadOrders", http.StatusOK, map[string]int{"orderCount": len(c.book.Orders())})
}

// Get handles GET /orders/{serial}
func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	order, ok := c.book.BySerial(serial)
	if !ok {
		writeError(w, "GetOrder", fmt.Errorf("%w: %s", merge.ErrOrderNotFound, serial))
		return
	}
	writeJSON(w, "GetOrder", http.StatusOK, toOrderResponse(order))
}

type openResponse struct {
	Tab     models.TabInfo `json:"tab"`
	Created bool           `json:"created"`
}

// Open handles POST /orders/{serial}/open
func (c *OrderController) Open(w http.ResponseWriter, r *http.Request) {
	info, created, err := c.orders.OpenOrder(chi.URLParam(r, "serial"))
	if err != nil {
		writeError(w, "OpenOrder", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, "OpenOrder", status, openResponse{Tab: info, Created: created})
}
