package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusPartiallyShipped OrderStatus = "partially-shipped"
	OrderStatusShipped          OrderStatus = "shipped"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

// OrderKind classifies whether a confirmed order may be reopened for editing.
// It is stored on the order record instead of being derived from the serial number.
type OrderKind string

const (
	OrderKindEditable OrderKind = "editable"
	OrderKindViewOnly OrderKind = "view-only"
)

// SalesItem is an order line: a product plus quantity and derived total.
// TotalPrice always equals Quantity * PriceDistribution; use the pricing
// package to mutate either operand.
type SalesItem struct {
	Product
	LineID          string          `json:"lineId"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Time            time.Time       `json:"time"`
	RowNumber       int             `json:"rowNumber,omitempty"`
	ShippedQuantity int             `json:"shippedQuantity,omitempty"`
}

// OrderInfo is the order header
type OrderInfo struct {
	Date              string           `json:"date"`
	SerialNumber      string           `json:"serialNumber"`
	PaperSerialNumber string           `json:"paperSerialNumber,omitempty"`
	Customer          *Customer        `json:"customer,omitempty"`
	Status            OrderStatus      `json:"status"`
	PriceDistribution *decimal.Decimal `json:"priceDistribution,omitempty"`
	Kind              OrderKind        `json:"kind,omitempty"`
}

// Order is a confirmed order as reconciled from the sheet
type Order struct {
	ID        string      `json:"id"`
	OrderInfo OrderInfo   `json:"orderInfo"`
	Customer  Customer    `json:"customer"`
	Items     []SalesItem `json:"items"`
}

// TotalQuantity sums the line quantities
func (o Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// TotalAmount sums the line totals
func (o Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// Editable reports whether the order may be opened in an edit session
func (o Order) Editable() bool {
	return o.OrderInfo.Kind != OrderKindViewOnly
}

// OrderData is the draft held by one order session
type OrderData struct {
	SelectedCustomer *Customer   `json:"selectedCustomer"`
	SalesItems       []SalesItem `json:"salesItems"`
	OrderInfo        OrderInfo   `json:"orderInfo"`
}

// Clone returns a deep copy; sessions never hand out their own slices.
func (d OrderData) Clone() OrderData {
	out := OrderData{
		SalesItems: CloneItems(d.SalesItems),
		OrderInfo:  d.OrderInfo.Clone(),
	}
	if d.SelectedCustomer != nil {
		c := *d.SelectedCustomer
		out.SelectedCustomer = &c
	}
	return out
}

// Clone returns a deep copy of the header
func (i OrderInfo) Clone() OrderInfo {
	out := i
	if i.Customer != nil {
		c := *i.Customer
		out.Customer = &c
	}
	if i.PriceDistribution != nil {
		p := *i.PriceDistribution
		out.PriceDistribution = &p
	}
	return out
}

// Clone returns a deep copy of the order
func (o Order) Clone() Order {
	out := o
	out.OrderInfo = o.OrderInfo.Clone()
	out.Items = CloneItems(o.Items)
	return out
}

// CloneItems copies a line slice. A nil slice stays nil.
func CloneItems(items []SalesItem) []SalesItem {
	if items == nil {
		return nil
	}
	out := make([]SalesItem, len(items))
	copy(out, items)
	return out
}

// SubmitAction is the mutation requested from the sheet
type SubmitAction string

const (
	SubmitCreate   SubmitAction = "create"
	SubmitUpdate   SubmitAction = "update"
	SubmitShipment SubmitAction = "shipment"
)

// OrderPayload is the body sent with a create or update action
type OrderPayload struct {
	SerialNumber string      `json:"serialNumber,omitempty"`
	Customer     Customer    `json:"customer"`
	Items        []SalesItem `json:"items"`
	OrderInfo    OrderInfo   `json:"orderInfo"`
}

// ShipmentLine is one shipped quantity against an order row
type ShipmentLine struct {
	SerialNumber   string `json:"serialNumber"`
	Code           string `json:"code"`
	OrderRowNumber int    `json:"orderRowNumber"`
	Quantity       int    `json:"quantity"`
}

// ShipmentPayload is the body sent with a shipment action
type ShipmentPayload struct {
	Date  string         `json:"date"`
	Lines []ShipmentLine `json:"items"`
}

// RowAssignment maps a line code to the sheet row the server wrote it to
type RowAssignment struct {
	Code      string `json:"code"`
	RowNumber int    `json:"rowNumber"`
}

// SubmitResult is the data returned by a successful submission
type SubmitResult struct {
	SerialNumber string          `json:"serialNumber,omitempty"`
	Items        []RowAssignment `json:"items,omitempty"`
	UpdatedRows  []int           `json:"updatedRows,omitempty"`
	ShipmentID   string          `json:"shipmentId,omitempty"`
}
