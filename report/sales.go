// Package report derives the sales list, customer groupings and statistics
// views from the confirmed order list.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/models"
	"orderdesk/utils"
)

// UnknownCustomer labels lines whose order carries no customer name
const UnknownCustomer = "Unknown customer"

// SaleLine is one order line flattened with its order header
type SaleLine struct {
	ID                string             `json:"id"`
	OrderID           string             `json:"orderId"`
	SerialNumber      string             `json:"serialNumber"`
	Date              string             `json:"date"`
	Customer          string             `json:"customer"`
	CustomerCode      string             `json:"customerCode"`
	Code              string             `json:"code"`
	ProductName       string             `json:"productName"`
	ProductModel      string             `json:"productModel"`
	Quantity          int                `json:"quantity"`
	ShippedQuantity   int                `json:"shippedQuantity"`
	RowNumber         int                `json:"rowNumber"`
	PriceDistribution decimal.Decimal    `json:"priceDistribution"`
	TotalPrice        decimal.Decimal    `json:"totalPrice"`
	Status            models.OrderStatus `json:"status"`
}

// SalesLines flattens orders into sale lines. Orders without a date take today's.
func SalesLines(orders []models.Order, now time.Time) []SaleLine {
	var lines []SaleLine
	for _, order := range orders {
		serial := utils.FirstNonEmpty(order.OrderInfo.SerialNumber, order.ID)
		date := utils.FirstNonEmpty(order.OrderInfo.Date, utils.Today(now))
		customer := utils.FirstNonEmpty(order.Customer.Name, UnknownCustomer)
		status := order.OrderInfo.Status
		if status == "" {
			status = models.OrderStatusPending
		}
		for i, item := range order.Items {
			lines = append(lines, SaleLine{
				ID:                fmt.Sprintf("%s-%d", order.ID, i),
				OrderID:           order.ID,
				SerialNumber:      serial,
				Date:              date,
				Customer:          customer,
				CustomerCode:      order.Customer.Code,
				Code:              item.Code,
				ProductName:       item.DisplayName(),
				ProductModel:      item.Model,
				Quantity:          item.Quantity,
				ShippedQuantity:   item.ShippedQuantity,
				RowNumber:         item.RowNumber,
				PriceDistribution: item.PriceDistribution,
				TotalPrice:        item.TotalPrice,
				Status:            status,
			})
		}
	}
	return lines
}

// FilterLines keeps lines whose serial number, customer or product name
// contains q, ignoring case. An empty query keeps everything.
func FilterLines(lines []SaleLine, q string) []SaleLine {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return lines
	}
	var out []SaleLine
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l.SerialNumber), q) ||
			strings.Contains(strings.ToLower(l.Customer), q) ||
			strings.Contains(strings.ToLower(l.ProductName), q) {
			out = append(out, l)
		}
	}
	return out
}

// CustomerGroup is the lines of one customer with totals
type CustomerGroup struct {
	Customer    string          `json:"customer"`
	Items       []SaleLine      `json:"items"`
	TotalQty    int             `json:"totalQty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// GroupByCustomer groups lines by customer name in first-appearance order
func GroupByCustomer(lines []SaleLine) []CustomerGroup {
	var groups []CustomerGroup
	index := map[string]int{}
	for _, l := range lines {
		i, ok := index[l.Customer]
		if !ok {
			i = len(groups)
			index[l.Customer] = i
			groups = append(groups, CustomerGroup{Customer: l.Customer, TotalAmount: decimal.Zero})
		}
		g := &groups[i]
		g.Items = append(g.Items, l)
		g.TotalQty += l.Quantity
		g.TotalAmount = g.TotalAmount.Add(l.TotalPrice)
	}
	return groups
}

// Summary is the headline numbers of the sales list
type Summary struct {
	TotalSales     int             `json:"totalSales"`
	ThisMonthSales int             `json:"thisMonthSales"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	AverageOrder   decimal.Decimal `json:"averageOrder"`
}

// SalesSummary counts lines, lines dated in now's month, the amount and the
// average amount per line
func SalesSummary(lines []SaleLine, now time.Time) Summary {
	s := Summary{TotalSales: len(lines), TotalAmount: decimal.Zero, AverageOrder: decimal.Zero}
	month := now.Format("2006-01")
	for _, l := range lines {
		s.TotalAmount = s.TotalAmount.Add(l.TotalPrice)
		if strings.HasPrefix(utils.NormalizeDate(l.Date), month) {
			s.ThisMonthSales++
		}
	}
	if s.TotalSales > 0 {
		s.AverageOrder = s.TotalAmount.Div(decimal.NewFromInt(int64(s.TotalSales))).Round(2)
	}
	return s
}
