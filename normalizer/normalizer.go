// Package normalizer turns raw sheet rows into canonical catalog entities.
// Every function here is pure apart from logging.
package normalizer

import (
	"log"
	"strings"

	"orderdesk/models"
	"orderdesk/utils"
)

// NormalizeCustomers drops rows without a code and keeps the first row for
// each code, in input order. ID mirrors Code.
func NormalizeCustomers(raw []models.RawCustomer) []models.Customer {
	seen := make(map[string]struct{}, len(raw))
	customers := make([]models.Customer, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		code := strings.TrimSpace(r.CustomerCode)
		if code == "" {
			skipped++
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		customers = append(customers, models.Customer{
			ID:             code,
			Code:           code,
			Name:           strings.TrimSpace(r.CustomerName),
			StoreName:      strings.TrimSpace(r.StoreName),
			ChainStoreName: strings.TrimSpace(r.ChainStoreName),
		})
	}
	if skipped > 0 {
		log.Printf("⚠️  NormalizeCustomers: skipped %d rows without customer code", skipped)
	}
	return customers
}

// NormalizeProducts assigns sequential 1-based IDs in input order. Code comes
// from productId, falling back to code. Products are not deduplicated.
func NormalizeProducts(raw []models.RawProduct) []models.Product {
	products := make([]models.Product, 0, len(raw))
	for i, r := range raw {
		products = append(products, models.Product{
			ID:                i + 1,
			Code:              utils.FirstNonEmpty(r.ProductID, r.Code),
			Name:              strings.TrimSpace(r.Name),
			Series:            utils.FirstNonEmpty(r.Series, r.SeriesList),
			Vendor:            utils.FirstNonEmpty(r.Vendor, r.Vender, r.Brand),
			Remark:            utils.FirstNonEmpty(r.Remark, r.Colors),
			Model:             strings.TrimSpace(r.Model),
			PriceRetail:       r.PriceRetail.Decimal,
			PriceDistribution: r.PriceDistribution.Decimal,
			State:             ProductStateFromStatus(r.Status),
			TableTitle:        strings.TrimSpace(r.TableTitle),
			TableRowTitle:     strings.TrimSpace(r.TableRowTitle),
			TableColTitle:     strings.TrimSpace(r.TableColTitle),
		})
	}
	return products
}

// FlattenOrders converts pre-grouped orders into the flat line contract.
// An order without lines yields nothing.
func FlattenOrders(raw []models.RawOrder) []models.RawOrderLine {
	var lines []models.RawOrderLine
	for _, order := range raw {
		info := order.OrderInfo
		customer := order.SelectedCustomer
		for _, item := range order.SalesItems {
			lines = append(lines, models.RawOrderLine{
				SerialNumber:      strings.TrimSpace(info.SerialNumber),
				Date:              info.Date,
				Status:            info.Status,
				Remark:            info.Remark,
				Kind:              info.Kind,
				CustomerCode:      strings.TrimSpace(customer.Code),
				CustomerName:      customer.Name,
				StoreName:         customer.StoreName,
				ChainStoreName:    customer.ChainStoreName,
				Code:              strings.TrimSpace(item.Code),
				ProductID:         strings.TrimSpace(item.ProductID),
				Quantity:          item.Quantity,
				PriceDistribution: item.PriceDistribution,
				ShippedQuantity:   item.ShippedQuantity,
				RowNumber:         item.RowNumber,
			})
		}
	}
	return lines
}
