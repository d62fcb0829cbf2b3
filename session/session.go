// Package session implements the draft of one order tab: customer, lines and
// header, plus the submit cycle against the remote sheet.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"orderdesk/catalog"
	"orderdesk/models"
	"orderdesk/pricing"
	"orderdesk/utils"
)

// State is the lifecycle state of a session
type State string

const (
	StateEmpty      State = "empty"
	StateDrafting   State = "drafting"
	StateSubmitting State = "submitting"
)

var (
	ErrSubmitting   = errors.New("order is being submitted")
	ErrReadOnly     = errors.New("order is view-only")
	ErrLineNotFound = errors.New("line not found")
	ErrValidation   = errors.New("invalid order")
)

// SubmitError is a failed submission. Error returns the transport message as is.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }

func (e *SubmitError) Unwrap() error { return e.Err }

// Submitter sends an order to the remote sheet
type Submitter interface {
	SubmitOrder(ctx context.Context, action models.SubmitAction, payload models.OrderPayload) (*models.SubmitResult, error)
}

// ItemUpdate is a partial line update; nil fields are left alone
type ItemUpdate struct {
	Quantity        *int             `json:"quantity,omitempty"`
	Price           *decimal.Decimal `json:"priceDistribution,omitempty"`
	ShippedQuantity *int             `json:"shippedQuantity,omitempty"`
}

// HeaderUpdate is a partial header update; nil fields are left alone
type HeaderUpdate struct {
	Date              *string             `json:"date,omitempty"`
	SerialNumber      *string             `json:"serialNumber,omitempty"`
	PaperSerialNumber *string             `json:"paperSerialNumber,omitempty"`
	Status            *models.OrderStatus `json:"status,omitempty"`
}

// Selection is one cell of a batch entry grid
type Selection struct {
	Code     string `json:"code"`
	Quantity string `json:"quantity"`
}

// Session is the draft owned by one order tab. It is safe for concurrent use;
// all reads return copies.
type Session struct {
	mu         sync.Mutex
	mode       models.SessionMode
	data       models.OrderData
	submitting bool
	catalog    catalog.Reader
	now        func() time.Time
}

// New creates an empty session in the given mode
func New(cat catalog.Reader, mode models.SessionMode) *Session {
	s := &Session{mode: mode, catalog: cat, now: time.Now}
	s.data = s.emptyData()
	return s
}

func (s *Session) emptyData() models.OrderData {
	return models.OrderData{
		SalesItems: []models.SalesItem{},
		OrderInfo: models.OrderInfo{
			Date:   utils.Today(s.now()),
			Status: models.OrderStatusPending,
			Kind:   models.OrderKindEditable,
		},
	}
}

// Mode returns the session mode
func (s *Session) Mode() models.SessionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// State derives the lifecycle state from the draft content
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.submitting:
		return StateSubmitting
	case s.data.SelectedCustomer != nil || len(s.data.SalesItems) > 0:
		return StateDrafting
	}
	return StateEmpty
}

// Data returns a deep copy of the draft
func (s *Session) Data() models.OrderData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// TotalQuantity sums the line quantities
func (s *Session) TotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	qty, _ := pricing.Totals(s.data.SalesItems)
	return qty
}

// TotalAmount sums the line totals
func (s *Session) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, amount := pricing.Totals(s.data.SalesItems)
	return amount
}

// Breakdown returns the per-line pricing of the draft
func (s *Session) Breakdown() *models.PricingBreakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Calculate(s.data.SalesItems)
}

// mutable must be called with mu held
func (s *Session) mutable() error {
	if s.submitting {
		return ErrSubmitting
	}
	if s.mode == models.SessionView {
		return ErrReadOnly
	}
	return nil
}

// SetCustomer selects the customer and recomputes every line against the
// current catalog price. Lines whose code the catalog does not know keep their
// price. Passing nil clears the customer without recomputing.
func (s *Session) SetCustomer(customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	if customer == nil {
		s.data.SelectedCustomer = nil
		s.data.OrderInfo.Customer = nil
		return nil
	}
	c := *customer
	s.data.SelectedCustomer = &c
	info := c
	s.data.OrderInfo.Customer = &info

	for i, item := range s.data.SalesItems {
		var price *decimal.Decimal
		if _, ok := s.catalog.ProductByCode(item.Code); ok {
			p := s.catalog.Price(item.Code)
			price = &p
		}
		s.data.SalesItems[i] = pricing.Recompute(item, price)
	}
	return nil
}

// AddItem appends a line for product at its resolved price
func (s *Session) AddItem(product models.Product, qty int) (models.SalesItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return models.SalesItem{}, err
	}
	item := s.newLine(product, qty)
	s.data.SalesItems = append(s.data.SalesItems, item)
	return item, nil
}

func (s *Session) newLine(product models.Product, qty int) models.SalesItem {
	price := pricing.ResolvePrice(product)
	item := models.SalesItem{
		Product:  product,
		LineID:   uuid.NewString(),
		Quantity: qty,
		Time:     s.now(),
	}
	return pricing.Recompute(item, &price)
}

// AddBatch adds one line per selection with a positive quantity. Selections
// with a zero or non-numeric quantity, or a code the catalog does not know,
// are skipped. It returns the number of lines added.
func (s *Session) AddBatch(selections []Selection) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return 0, err
	}
	added := 0
	for _, sel := range selections {
		qty := utils.ParseQuantity(sel.Quantity)
		if qty <= 0 {
			continue
		}
		code := strings.TrimSpace(sel.Code)
		product, ok := s.catalog.ProductByCode(code)
		if !ok {
			log.Printf("⚠️  AddBatch: unknown product code %q skipped", code)
			continue
		}
		s.data.SalesItems = append(s.data.SalesItems, s.newLine(product, qty))
		added++
	}
	return added, nil
}

func (s *Session) indexOf(lineID string) int {
	for i, item := range s.data.SalesItems {
		if item.LineID == lineID {
			return i
		}
	}
	return -1
}

// UpdateItem applies a partial update to a line and recomputes its total
func (s *Session) UpdateItem(lineID string, update ItemUpdate) (models.SalesItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return models.SalesItem{}, err
	}
	i := s.indexOf(lineID)
	if i < 0 {
		return models.SalesItem{}, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	item := s.data.SalesItems[i]
	if update.Quantity != nil {
		item = pricing.WithQuantity(item, *update.Quantity)
	}
	if update.Price != nil {
		item = pricing.WithPrice(item, *update.Price)
	}
	if update.ShippedQuantity != nil {
		item.ShippedQuantity = clamp(*update.ShippedQuantity, 0, item.Quantity)
	}
	s.data.SalesItems[i] = item
	return item, nil
}

// UpdateQuantity sets a line quantity from raw input; malformed input is zero
func (s *Session) UpdateQuantity(lineID, raw string) (models.SalesItem, error) {
	qty := utils.ParseQuantity(raw)
	return s.UpdateItem(lineID, ItemUpdate{Quantity: &qty})
}

// UpdatePrice sets a line price from raw input; malformed input is zero
func (s *Session) UpdatePrice(lineID, raw string) (models.SalesItem, error) {
	price := utils.ParseAmount(raw)
	return s.UpdateItem(lineID, ItemUpdate{Price: &price})
}

// RemoveItem deletes a line
func (s *Session) RemoveItem(lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	i := s.indexOf(lineID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	s.data.SalesItems = append(s.data.SalesItems[:i], s.data.SalesItems[i+1:]...)
	return nil
}

// ReorderItems puts the lines in the given order. lineIDs must name every
// line exactly once.
func (s *Session) ReorderItems(lineIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	if len(lineIDs) != len(s.data.SalesItems) {
		return fmt.Errorf("%w: expected %d line ids, got %d", ErrValidation, len(s.data.SalesItems), len(lineIDs))
	}
	byID := make(map[string]models.SalesItem, len(s.data.SalesItems))
	for _, item := range s.data.SalesItems {
		byID[item.LineID] = item
	}
	reordered := make([]models.SalesItem, 0, len(lineIDs))
	for _, id := range lineIDs {
		item, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrLineNotFound, id)
		}
		delete(byID, id)
		reordered = append(reordered, item)
	}
	s.data.SalesItems = reordered
	return nil
}

// UpdateHeaderInfo applies a partial header update
func (s *Session) UpdateHeaderInfo(update HeaderUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	info := &s.data.OrderInfo
	if update.Date != nil {
		info.Date = utils.NormalizeDate(*update.Date)
	}
	if update.SerialNumber != nil {
		if s.mode == models.SessionEdit && info.SerialNumber != "" && strings.TrimSpace(*update.SerialNumber) != info.SerialNumber {
			return fmt.Errorf("%w: serial number of a saved order cannot change", ErrValidation)
		}
		info.SerialNumber = strings.TrimSpace(*update.SerialNumber)
	}
	if update.PaperSerialNumber != nil {
		info.PaperSerialNumber = strings.TrimSpace(*update.PaperSerialNumber)
	}
	if update.Status != nil {
		info.Status = *update.Status
	}
	return nil
}

// Clear resets the draft to an empty order
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	s.data = s.emptyData()
	return nil
}

// Load replaces the draft with a confirmed order, for editing or viewing
func (s *Session) Load(order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitting
	}
	customer := order.Customer
	info := order.OrderInfo.Clone()
	infoCustomer := customer
	info.Customer = &infoCustomer
	if info.Status == "" {
		info.Status = models.OrderStatusPending
	}

	items := models.CloneItems(order.Items)
	if items == nil {
		items = []models.SalesItem{}
	}
	for i := range items {
		if items[i].LineID == "" {
			items[i].LineID = uuid.NewString()
		}
		items[i] = pricing.Recompute(items[i], nil)
	}
	s.data = models.OrderData{SelectedCustomer: &customer, SalesItems: items, OrderInfo: info}
	return nil
}

func (s *Session) validateLocked() error {
	var missing []string
	if s.data.SelectedCustomer == nil {
		missing = append(missing, "customer")
	}
	if len(s.data.SalesItems) == 0 {
		missing = append(missing, "at least one item")
	}
	if strings.TrimSpace(s.data.OrderInfo.SerialNumber) == "" {
		missing = append(missing, "serial number")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// payloadLocked builds the submission body. Lines are enriched with the
// catalog's descriptive fields; quantities and prices stay as drafted.
func (s *Session) payloadLocked() models.OrderPayload {
	items := models.CloneItems(s.data.SalesItems)
	for i, item := range items {
		p, ok := s.catalog.ProductByCode(item.Code)
		if !ok {
			continue
		}
		item.ID = p.ID
		item.Name = p.Name
		item.Series = p.Series
		item.Vendor = p.Vendor
		item.Remark = p.Remark
		item.Model = p.Model
		item.State = p.State
		item.Barcode = p.Barcode
		item.PriceRetail = p.PriceRetail
		item.TableTitle = p.TableTitle
		item.TableRowTitle = p.TableRowTitle
		item.TableColTitle = p.TableColTitle
		items[i] = item
	}
	info := s.data.OrderInfo.Clone()
	customer := *s.data.SelectedCustomer
	info.Customer = &customer
	return models.OrderPayload{
		SerialNumber: info.SerialNumber,
		Customer:     customer,
		Items:        items,
		OrderInfo:    info,
	}
}

// Submit validates the draft and sends it: create for new orders, update for
// edited ones. On success the draft is cleared; on failure it is kept and a
// *SubmitError carries the transport message.
func (s *Session) Submit(ctx context.Context, sub Submitter) (*models.SubmitResult, error) {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.validateLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	action := models.SubmitCreate
	if s.mode == models.SessionEdit {
		action = models.SubmitUpdate
	}
	payload := s.payloadLocked()
	s.submitting = true
	s.mu.Unlock()

	result, err := sub.SubmitOrder(ctx, action, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		log.Printf("❌ Submit: %s %s failed: %v", action, payload.SerialNumber, err)
		return nil, &SubmitError{Message: err.Error(), Err: err}
	}
	if result == nil {
		result = &models.SubmitResult{}
	}
	if result.SerialNumber == "" {
		result.SerialNumber = payload.SerialNumber
	}
	log.Printf("✅ Submit: %s %s with %d lines", action, result.SerialNumber, len(payload.Items))
	s.data = s.emptyData()
	return result, nil
}

// Snapshot captures the draft for persistence
func (s *Session) Snapshot(now time.Time) models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionSnapshot{
		Version: models.SessionSnapshotVersion,
		SavedAt: now,
		Mode:    s.mode,
		Data:    s.data.Clone(),
	}
}

// Restore replaces the draft from a snapshot. Line totals are recomputed.
// The session keeps its own mode; the snapshot's mode is not applied.
func (s *Session) Restore(snap models.SessionSnapshot, now time.Time) error {
	snap.Normalize(now)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitting
	}
	data := snap.Data.Clone()
	for i := range data.SalesItems {
		data.SalesItems[i] = pricing.Recompute(data.SalesItems[i], nil)
	}
	s.data = data
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
