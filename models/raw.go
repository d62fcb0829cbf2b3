package models

import (
	"encoding/json"

	"orderdesk/utils"
)

// FetchKind selects the sheet a fetch reads from
type FetchKind string

const (
	FetchProducts  FetchKind = "products"
	FetchSales     FetchKind = "sales"
	FetchOrders    FetchKind = "orders"
	FetchCustomers FetchKind = "customers"
	FetchAll       FetchKind = "all"
)

// RawProduct is a product row as returned by the sheet.
// Several column names have changed over time; the normalizer picks the first
// non-empty alias.
type RawProduct struct {
	ProductID         string       `json:"productId"`
	Code              string       `json:"code"`
	Status            string       `json:"status"`
	Name              string       `json:"name"`
	Brand             string       `json:"brand"`
	Vendor            string       `json:"vendor"`
	Vender            string       `json:"vender"`
	Series            string       `json:"series"`
	SeriesList        string       `json:"seriesList"`
	Model             string       `json:"model"`
	Colors            string       `json:"colors"`
	Remark            string       `json:"remark"`
	RowNumber         int          `json:"rowNumber"`
	TableTitle        string       `json:"tableTitle"`
	TableRowTitle     string       `json:"tableRowTitle"`
	TableColTitle     string       `json:"tableColTitle"`
	PriceRetail       utils.Number `json:"priceRetail"`
	PriceDistribution utils.Number `json:"priceDistribution"`
}

// RawCustomer is a customer row as returned by the sheet
type RawCustomer struct {
	State          string `json:"state"`
	CustomerCode   string `json:"customerCode"`
	CustomerName   string `json:"customerName"`
	StoreName      string `json:"storeName"`
	ChainStoreName string `json:"chainStoreName"`
	RowNumber      int    `json:"rowNumber"`
}

// RawOrderLine is the canonical raw order contract: one row per order line.
// Lines sharing SerialNumber (or OrderID when the serial is blank) belong to
// the same order. Transport adapters convert every other payload shape into
// this one before the merge pipeline sees it.
type RawOrderLine struct {
	SerialNumber      string       `json:"serialNumber"`
	OrderID           string       `json:"orderId"`
	Date              string       `json:"date"`
	Status            string       `json:"status"`
	Remark            string       `json:"remark"`
	Kind              string       `json:"kind"`
	CustomerCode      string       `json:"customerCode"`
	CustomerName      string       `json:"customerName"`
	StoreName         string       `json:"storeName"`
	ChainStoreName    string       `json:"chainStoreName"`
	Code              string       `json:"code"`
	ProductID         string       `json:"productId"`
	Quantity          utils.Number `json:"quantity"`
	PriceDistribution utils.Number `json:"priceDistribution"`
	ShippedQuantity   utils.Number `json:"shippedQuantity"`
	RowNumber         int          `json:"rowNumber"`
}

// RawOrder is the pre-grouped order shape: header, customer and lines nested
type RawOrder struct {
	SelectedCustomer RawOrderCustomer `json:"selectedCustomer"`
	SalesItems       []RawOrderItem   `json:"salesItems"`
	OrderInfo        RawOrderInfo     `json:"orderInfo"`
}

// RawOrderCustomer is the customer block of a pre-grouped order
type RawOrderCustomer struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	StoreName      string `json:"storeName"`
	ChainStoreName string `json:"chainStoreName"`
}

// RawOrderItem is one line of a pre-grouped order
type RawOrderItem struct {
	Code              string       `json:"code"`
	ProductID         string       `json:"productId"`
	Quantity          utils.Number `json:"quantity"`
	PriceDistribution utils.Number `json:"priceDistribution"`
	ShippedQuantity   utils.Number `json:"shippedQuantity"`
	RowNumber         int          `json:"rowNumber"`
}

// RawOrderInfo is the header block of a pre-grouped order
type RawOrderInfo struct {
	Date         string `json:"date"`
	SerialNumber string `json:"serialNumber"`
	Status       string `json:"status"`
	Remark       string `json:"remark"`
	Kind         string `json:"kind"`
}

// RawSale is a row of the sales sheet
type RawSale struct {
	SalesID         string       `json:"salesId"`
	SalesDate       string       `json:"salesDate"`
	Customer        string       `json:"customer"`
	CustomerOrderNo string       `json:"customerOrderNo"`
	ItemNo          string       `json:"itemNo"`
	ProductID       string       `json:"productId"`
	ProductName     string       `json:"productName"`
	Quantity        utils.Number `json:"quantity"`
	UnitPrice       utils.Number `json:"unitPrice"`
	Subtotal        utils.Number `json:"subtotal"`
	OrderRef        string       `json:"orderRef"`
	Year            utils.Number `json:"year"`
	Month           utils.Number `json:"month"`
	Cost            utils.Number `json:"cost"`
	Profit          utils.Number `json:"profit"`
	RowNumber       int          `json:"rowNumber"`
}

// Envelope is the response wrapper of the sheet web app.
// Data is either an array or an object keyed by fetch kind.
type Envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}
