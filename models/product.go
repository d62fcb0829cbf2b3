package models

import "github.com/shopspring/decimal"

func init() {
	// Sheets and the UI exchange prices as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductState is the sales state of a catalog product
type ProductState string

const (
	ProductStateActive       ProductState = "active"
	ProductStateInactive     ProductState = "inactive"
	ProductStatePreorder     ProductState = "preorder"
	ProductStateDiscontinued ProductState = "discontinued"
)

// Valid reports whether s is one of the known states
func (s ProductState) Valid() bool {
	switch s {
	case ProductStateActive, ProductStateInactive, ProductStatePreorder, ProductStateDiscontinued:
		return true
	}
	return false
}

// Product represents a catalog product.
// Code is the business key shared with the sheet; ID is assigned locally on
// every load and must not be used to join across reloads.
type Product struct {
	ID                int             `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Series            string          `json:"series"`
	Vendor            string          `json:"vendor"`
	Remark            string          `json:"remark"`
	Model             string          `json:"model"`
	PriceRetail       decimal.Decimal `json:"priceRetail"`
	PriceDistribution decimal.Decimal `json:"priceDistribution"`
	State             ProductState    `json:"state"`
	Barcode           string          `json:"barcode,omitempty"`
	TableTitle        string          `json:"tableTitle,omitempty"`
	TableRowTitle     string          `json:"tableRowTitle,omitempty"`
	TableColTitle     string          `json:"tableColTitle,omitempty"`
}

// DisplayName is the vendor and series joined, falling back to the name.
func (p Product) DisplayName() string {
	switch {
	case p.Vendor != "" && p.Series != "":
		return p.Vendor + " " + p.Series
	case p.Vendor != "":
		return p.Vendor
	case p.Series != "":
		return p.Series
	}
	return p.Name
}
