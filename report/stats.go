package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"orderdesk/models"
	"orderdesk/utils"
)

// PaymentStat is the amount owed by one customer.
// The sheet does not record payments yet, so PaidAmount is always zero.
type PaymentStat struct {
	Customer     string          `json:"customer"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	PaidAmount   decimal.Decimal `json:"paidAmount"`
	UnpaidAmount decimal.Decimal `json:"unpaidAmount"`
	OrderCount   int             `json:"orderCount"`
}

// PaymentStats totals orders per customer, filtered by customer name
func PaymentStats(orders []models.Order, q string) []PaymentStat {
	var stats []PaymentStat
	index := map[string]int{}
	for _, order := range orders {
		customer := utils.FirstNonEmpty(order.Customer.Name, UnknownCustomer)
		i, ok := index[customer]
		if !ok {
			i = len(stats)
			index[customer] = i
			stats = append(stats, PaymentStat{Customer: customer, TotalAmount: decimal.Zero, PaidAmount: decimal.Zero})
		}
		s := &stats[i]
		s.TotalAmount = s.TotalAmount.Add(order.TotalAmount())
		s.UnpaidAmount = s.TotalAmount.Sub(s.PaidAmount)
		s.OrderCount++
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return stats
	}
	var out []PaymentStat
	for _, s := range stats {
		if strings.Contains(strings.ToLower(s.Customer), q) {
			out = append(out, s)
		}
	}
	return out
}

// ProductStat is the sales of one product
type ProductStat struct {
	ProductName   string          `json:"productName"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	OrderCount    int             `json:"orderCount"`
}

// ProductStats totals lines per product name for orders dated within
// [from, to]. The range applies only when both ends are given.
func ProductStats(orders []models.Order, from, to, q string) []ProductStat {
	from, to = utils.NormalizeDate(from), utils.NormalizeDate(to)
	var stats []ProductStat
	index := map[string]int{}
	for _, order := range orders {
		date := utils.NormalizeDate(order.OrderInfo.Date)
		if from != "" && to != "" && (date < from || date > to) {
			continue
		}
		for _, item := range order.Items {
			name := utils.FirstNonEmpty(item.Name, item.Code)
			i, ok := index[name]
			if !ok {
				i = len(stats)
				index[name] = i
				stats = append(stats, ProductStat{ProductName: name, TotalAmount: decimal.Zero})
			}
			s := &stats[i]
			s.TotalQuantity += item.Quantity
			s.TotalAmount = s.TotalAmount.Add(item.TotalPrice)
			s.OrderCount++
		}
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return stats
	}
	var out []ProductStat
	for _, s := range stats {
		if strings.Contains(strings.ToLower(s.ProductName), q) {
			out = append(out, s)
		}
	}
	return out
}
