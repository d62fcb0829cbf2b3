package models

import "github.com/shopspring/decimal"

// PricingLine represents pricing information for a single order line
type PricingLine struct {
	LineID    string          `json:"lineId"`
	Code      string          `json:"code"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unitPrice"` // Distribution price applied to the line
	LineTotal decimal.Decimal `json:"lineTotal"`
	Free      bool            `json:"free,omitempty"` // Zero unit price
}

// PricingBreakdown represents the complete pricing calculation result
type PricingBreakdown struct {
	Total         decimal.Decimal `json:"total"`
	TotalQuantity int             `json:"totalQuantity"`
	LineCount     int             `json:"lineCount"`
	Lines         []PricingLine   `json:"lines"`
}
