package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"orderdesk/models"
	"orderdesk/utils"
)

// LedgerLine is one row of the sales sheet, the record of goods actually sold
type LedgerLine struct {
	SalesID         string          `json:"salesId"`
	Date            string          `json:"date"`
	Month           string          `json:"month"`
	Customer        string          `json:"customer"`
	CustomerOrderNo string          `json:"customerOrderNo,omitempty"`
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Cost            decimal.Decimal `json:"cost"`
	Profit          decimal.Decimal `json:"profit"`
	OrderRef        string          `json:"orderRef,omitempty"`
	RowNumber       int             `json:"rowNumber,omitempty"`
}

// LedgerLines converts sales sheet rows. A blank subtotal is quantity times
// unit price; a blank profit is subtotal minus cost when a cost is recorded.
func LedgerLines(raw []models.RawSale) []LedgerLine {
	lines := make([]LedgerLine, 0, len(raw))
	for _, r := range raw {
		qty := r.Quantity.Int()
		subtotal := r.Subtotal.Decimal
		if subtotal.IsZero() {
			subtotal = r.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(qty)))
		}
		profit := r.Profit.Decimal
		if profit.IsZero() && !r.Cost.Decimal.IsZero() {
			profit = subtotal.Sub(r.Cost.Decimal)
		}
		date := utils.NormalizeDate(r.SalesDate)
		lines = append(lines, LedgerLine{
			SalesID:         strings.TrimSpace(r.SalesID),
			Date:            date,
			Month:           ledgerMonth(r, date),
			Customer:        utils.FirstNonEmpty(r.Customer, UnknownCustomer),
			CustomerOrderNo: strings.TrimSpace(r.CustomerOrderNo),
			ProductID:       utils.FirstNonEmpty(r.ProductID, r.ItemNo),
			ProductName:     utils.FirstNonEmpty(r.ProductName, r.ProductID, r.ItemNo),
			Quantity:        qty,
			UnitPrice:       r.UnitPrice.Decimal,
			Subtotal:        subtotal,
			Cost:            r.Cost.Decimal,
			Profit:          profit,
			OrderRef:        strings.TrimSpace(r.OrderRef),
			RowNumber:       r.RowNumber,
		})
	}
	return lines
}

// ledgerMonth prefers the sheet's year and month columns over the date
func ledgerMonth(r models.RawSale, date string) string {
	year, month := r.Year.Int(), r.Month.Int()
	if year > 0 && month >= 1 && month <= 12 {
		return fmt.Sprintf("%04d-%02d", year, month)
	}
	if len(date) >= 7 && date[4] == '-' {
		return date[:7]
	}
	return ""
}

// FilterLedger keeps lines dated within [from, to] whose sales id, customer
// or product contains q. The range applies only when both ends are given.
func FilterLedger(lines []LedgerLine, from, to, q string) []LedgerLine {
	from, to = utils.NormalizeDate(from), utils.NormalizeDate(to)
	q = strings.ToLower(strings.TrimSpace(q))
	out := []LedgerLine{}
	for _, l := range lines {
		if from != "" && to != "" && (l.Date < from || l.Date > to) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(l.SalesID), q) &&
			!strings.Contains(strings.ToLower(l.Customer), q) &&
			!strings.Contains(strings.ToLower(l.ProductName), q) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// MonthTotal is the ledger summed over one month
type MonthTotal struct {
	Month    string          `json:"month"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
	Cost     decimal.Decimal `json:"cost"`
	Profit   decimal.Decimal `json:"profit"`
}

// LedgerByMonth totals lines per month, oldest first. Lines without a month
// are left out.
func LedgerByMonth(lines []LedgerLine) []MonthTotal {
	byMonth := map[string]*MonthTotal{}
	for _, l := range lines {
		if l.Month == "" {
			continue
		}
		m, ok := byMonth[l.Month]
		if !ok {
			m = &MonthTotal{Month: l.Month, Revenue: decimal.Zero, Cost: decimal.Zero, Profit: decimal.Zero}
			byMonth[l.Month] = m
		}
		m.Quantity += l.Quantity
		m.Revenue = m.Revenue.Add(l.Subtotal)
		m.Cost = m.Cost.Add(l.Cost)
		m.Profit = m.Profit.Add(l.Profit)
	}
	out := make([]MonthTotal, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
