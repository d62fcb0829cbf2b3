package controller

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"orderdesk/catalog"
	"orderdesk/models"
	"orderdesk/service"
	"orderdesk/session"
	"orderdesk/tabs"
	"orderdesk/utils"
)

// TabController handles the open tabs and the order session of each tab
type TabController struct {
	tabs    *tabs.Manager
	catalog *catalog.Store
	orders  *service.OrderService
}

// NewTabController creates a new TabController
func NewTabController(manager *tabs.Manager, store *catalog.Store, orders *service.OrderService) *TabController {
	return &TabController{tabs: manager, catalog: store, orders: orders}
}

// List handles GET /tabs
func (c *TabController) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "ListTabs", http.StatusOK, c.tabs.Tabs())
}

// Create handles POST /tabs and opens an empty new-order tab
func (c *TabController) Create(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "CreateTab", http.StatusCreated, c.tabs.NewOrderTab())
}

type openTabRequest struct {
	Type  models.TabType `json:"type"`
	Label string         `json:"label"`
}

// Open handles POST /tabs/open for the single-instance tabs
func (c *TabController) Open(w http.ResponseWriter, r *http.Request) {
	var req openTabRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "OpenTab", err)
		return
	}
	info, err := c.tabs.OpenOrSwitch(req.Type, req.Label)
	if err != nil {
		writeError(w, "OpenTab", err)
		return
	}
	writeJSON(w, "OpenTab", http.StatusOK, info)
}

// SetActive handles PUT /tabs/{id}/active
func (c *TabController) SetActive(w http.ResponseWriter, r *http.Request) {
	if err := c.tabs.SetActive(chi.URLParam(r, "id")); err != nil {
		writeError(w, "SetActiveTab", err)
		return
	}
	writeJSON(w, "SetActiveTab", http.StatusOK, c.tabs.Active())
}

// Close handles DELETE /tabs/{id}
func (c *TabController) Close(w http.ResponseWriter, r *http.Request) {
	if err := c.tabs.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, "CloseTab", err)
		return
	}
	writeJSON(w, "CloseTab", http.StatusOK, c.tabs.Tabs())
}

type sessionResponse struct {
	TabID         string                   `json:"tabId"`
	Mode          models.SessionMode       `json:"mode"`
	State         session.State            `json:"state"`
	Data          models.OrderData         `json:"data"`
	TotalQuantity int                      `json:"totalQuantity"`
	TotalAmount   decimal.Decimal          `json:"totalAmount"`
	Breakdown     *models.PricingBreakdown `json:"breakdown"`
}

func (c *TabController) session(w http.ResponseWriter, r *http.Request, op string) (*session.Session, bool) {
	s, err := c.tabs.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, op, err)
		return nil, false
	}
	return s, true
}

func sessionView(r *http.Request, s *session.Session) sessionResponse {
	return sessionResponse{
		TabID:         chi.URLParam(r, "id"),
		Mode:          s.Mode(),
		State:         s.State(),
		Data:          s.Data(),
		TotalQuantity: s.TotalQuantity(),
		TotalAmount:   s.TotalAmount(),
		Breakdown:     s.Breakdown(),
	}
}

func (c *TabController) writeSession(w http.ResponseWriter, r *http.Request, op string, s *session.Session) {
	writeJSON(w, op, http.StatusOK, sessionView(r, s))
}

// GetSession handles GET /tabs/{id}/session
func (c *TabController) GetSession(w http.ResponseWriter, r *http.Request) {
	if s, ok := c.session(w, r, "GetSession"); ok {
		c.writeSession(w, r, "GetSession", s)
	}
}

type customerRequest struct {
	Code string `json:"code"`
}

// SetCustomer handles PUT /tabs/{id}/customer. A blank code clears the
// customer; an unknown code selects a stub carrying only the code.
func (c *TabController) SetCustomer(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r, "SetCustomer")
	if !ok {
		return
	}
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "SetCustomer", err)
		return
	}
	var customer *models.Customer
	if req.Code != "" {
		found, ok := c.catalog.CustomerByCode(req.Code)
		if !ok {
			log.Printf("⚠️  SetCustomer: unknown customer %s, using stub", req.Code)
			found = models.Customer{ID: "c-" + req.Code, Code: req.Code}
		}
		customer = &found
	}
	if err := s.SetCustomer(customer); err != nil {
		writeError(w, "SetCustomer", err)
		return
	}
	c.writeSession(w, r, "SetCustomer", s)
}

type addItemRequest struct {
	Code     string `json:"code"`
	Quantity string `json:"quantity"`
}

// AddItem handles POST /tabs/{id}/items
func (c *TabController) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r, "AddItem")
	if !ok {
		return
	}
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "AddItem", err)
		return
	}
	product, ok := c.catalog.ProductByCode(req.Code)
	if !ok {
		writeError(w, "AddItem", fmt.Errorf("%w: unknown product %q", session.ErrValidation, req.Code))
		return
	}
	if _, err := s.AddItem(product, utils.ParseQuantity(req.Quantity)); err != nil {
		writeError(w, "AddItem", err)
		return
	}
	c.writeSession(w, r, "AddItem", s)
}

type batchResponse struct {
	Added   int             `json:"added"`
	Session sessionResponse `json:"session"`
}

// AddBatch handles POST /tabs/{id}/items/batch with the cells of a pivot grid
func (c *TabController) AddBatch(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r, "AddBatch")
	if !ok {
		return
	}
	var req []session.Selection
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "AddBatch", err)
		return
	}
	added, err := s.AddBatch(req)
	if err != nil {
		writeError(w, "AddBatch", err)
		return
	}
	writeJSON(w, "AddBatch", http.StatusOK, batchResponse{Added: added, Session: sessionView(r, s)})
}

// updateItemRequest takes raw inputs; malformed numbers become zero
type updateItemRequest struct {
	Quantity        *string `json:"quantity"`
	Price           *string `json:"priceDistribution"`
	ShippedQuantity *string `json:"shippedQuantity"`
}

// UpdateItem handles PATCH /tabs/{id}/items/{lineId}
func (c *TabController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r, "UpdateItem")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "UpdateItem", err)
		return
	}
	var update session.ItemUpdate
	if req.Quantity != nil {
		q := utils.ParseQuantity(*req.Quantity)
		update.Quantity = &q
	}
	if req.Price != nil {
		p := utils.ParseAmount(*req.Price)
		update.Price = &p
	}
	if req.ShippedQuantity != nil {
		q := utils.ParseQuantity(*req.ShippedQuantity)
		update.ShippedQuantity = &q
	}
	if _, err := s.UpdateItem(chi.URLParam(r, "lineId"), update); err != nil {
		writeError(w, "UpdateItem", err)
		return
	}
	c.writeSession(w, r, "UpdateItem", s)
}

// RemoveItem handles DELETE /tabs/{id}/items/{lineId}
func (c *TabController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r, "RemoveItem")
	if !ok {
		return
	}
	if err := s.RemoveItem(chi.URLParam(r, "lineId")); err != nil {
		writeError(w, "RemoveItem", err)
		return
	}
	c.writeSession(w, r, "RemoveItem", s)
}

// ReorderItems handles PUT /tabs/{id}/items/order with the full list of line ids
func (c *TabController) ReorderItems(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r, "ReorderItems")
	if !ok {
		return
	}
	var lineIDs []string
	if err := decodeJSON(r, &lineIDs); err != nil {
		writeError(w, "ReorderItems", err)
		return
	}
	if err := s.ReorderItems(lineIDs); err != nil {
		writeError(w, "ReorderItems", err)
		return
	}
	c.writeSession(w, r, "ReorderItems", s)
}

// UpdateHeader handles PATCH /tabs/{id}/header
func (c *TabController) UpdateHeader(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r, "UpdateHeader")
	if !ok {
		return
	}
	var req session.HeaderUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "UpdateHeader", err)
		return
	}
	if err := s.UpdateHeaderInfo(req); err != nil {
		writeError(w, "UpdateHeader", err)
		return
	}
	c.writeSession(w, r, "UpdateHeader", s)
}

// Submit handles POST /tabs/{id}/submit
func (c *TabController) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := c.orders.SubmitTab(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Submit", err)
		return
	}
	writeJSON(w, "Submit", http.StatusOK, result)
}

// Clear handles POST /tabs/{id}/clear
func (c *TabController) Clear(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r, "Clear")
	if !ok {
		return
	}
	if err := s.Clear(); err != nil {
		writeError(w, "Clear", err)
		return
	}
	c.writeSession(w, r, "Clear", s)
}
