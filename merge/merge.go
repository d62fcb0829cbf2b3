// Package merge reconciles raw order rows from the sheet with the catalog into
// canonical orders, and keeps the loaded order list.
package merge

import (
	"log"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"orderdesk/catalog"
	"orderdesk/models"
	"orderdesk/normalizer"
	"orderdesk/pricing"
	"orderdesk/utils"
)

// StubProductID marks a line whose product the catalog does not know
const StubProductID = -1

// customerStubPrefix prefixes the ID of customers synthesized from order rows
const customerStubPrefix = "c-"

type group struct {
	order models.Order
	lines []models.RawOrderLine
}

// Merge groups raw lines into orders by serial number, falling back to the
// order id; lines with neither are skipped. Orders keep first-appearance
// order and lines keep input order. Products and customers come from cat,
// with stubs synthesized on a miss. A non-zero raw price wins over the
// catalog price.
func Merge(lines []models.RawOrderLine, cat catalog.Reader) []models.Order {
	var groups []*group
	byKey := map[string]*group{}
	skipped := 0
	for _, line := range lines {
		key := utils.FirstNonEmpty(line.SerialNumber, line.OrderID)
		if key == "" {
			skipped++
			continue
		}
		g, ok := byKey[key]
		if !ok {
			g = &group{order: models.Order{ID: key}}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.lines = append(g.lines, line)
	}
	if skipped > 0 {
		log.Printf("⚠️  Merge: skipped %d order lines without serial number or order id", skipped)
	}

	orders := make([]models.Order, 0, len(groups))
	for _, g := range groups {
		orders = append(orders, buildOrder(g.order.ID, g.lines, cat))
	}
	return orders
}

// header takes each field from the first line that has it
func header(lines []models.RawOrderLine) models.RawOrderLine {
	var h models.RawOrderLine
	for _, l := range lines {
		fill(&h.Date, l.Date)
		fill(&h.Status, l.Status)
		fill(&h.Remark, l.Remark)
		fill(&h.Kind, l.Kind)
		fill(&h.CustomerCode, l.CustomerCode)
		fill(&h.CustomerName, l.CustomerName)
		fill(&h.StoreName, l.StoreName)
		fill(&h.ChainStoreName, l.ChainStoreName)
	}
	return h
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

func buildOrder(key string, lines []models.RawOrderLine, cat catalog.Reader) models.Order {
	h := header(lines)
	customer := resolveCustomer(h, cat)

	status, ok := normalizer.OrderStatusFromLabel(h.Status)
	if !ok {
		log.Printf("⚠️  Merge: order %s has unknown status %q, using %s", key, h.Status, status)
	}
	infoCustomer := customer
	order := models.Order{
		ID:       key,
		Customer: customer,
		OrderInfo: models.OrderInfo{
			Date:              utils.NormalizeDate(h.Date),
			SerialNumber:      key,
			PaperSerialNumber: h.Remark,
			Customer:          &infoCustomer,
			Status:            status,
			Kind:              normalizer.OrderKindFromRaw(h.Kind),
		},
		Items: make([]models.SalesItem, 0, len(lines)),
	}
	for i, line := range lines {
		order.Items = append(order.Items, buildItem(key, i, line, cat))
	}
	return order
}

func resolveCustomer(h models.RawOrderLine, cat catalog.Reader) models.Customer {
	if c, ok := cat.CustomerByCode(h.CustomerCode); ok {
		return c
	}
	if h.CustomerCode != "" {
		log.Printf("⚠️  Merge: customer %s not in catalog, using order data", h.CustomerCode)
	}
	// no code means no identity to share between orders
	id := ""
	if h.CustomerCode != "" {
		id = customerStubPrefix + h.CustomerCode
	}
	return models.Customer{
		ID:             id,
		Code:           h.CustomerCode,
		Name:           h.CustomerName,
		StoreName:      h.StoreName,
		ChainStoreName: h.ChainStoreName,
	}
}

func resolveProduct(line models.RawOrderLine, cat catalog.Reader) (models.Product, bool) {
	code := strings.TrimSpace(line.Code)
	if p, ok := cat.ProductByCode(code); ok {
		return p, true
	}
	productID := strings.TrimSpace(line.ProductID)
	if p, ok := cat.ProductByCode(productID); ok {
		return p, true
	}
	code = utils.FirstNonEmpty(code, productID)
	return models.Product{
		ID:    StubProductID,
		Code:  code,
		Name:  code,
		State: models.ProductStateInactive,
	}, false
}

func buildItem(key string, i int, line models.RawOrderLine, cat catalog.Reader) models.SalesItem {
	product, found := resolveProduct(line, cat)
	if !found {
		log.Printf("⚠️  Merge: order %s line %d product %q not in catalog", key, i+1, product.Code)
	}

	var price decimal.Decimal
	switch {
	case !line.PriceDistribution.IsZero():
		price = line.PriceDistribution.Decimal
	case found:
		price = pricing.ResolvePrice(product)
	default:
		price = decimal.Zero
	}

	qty := line.Quantity.Int()
	shipped := line.ShippedQuantity.Int()
	if shipped > qty {
		shipped = qty
	}
	item := models.SalesItem{
		Product:         product,
		LineID:          key + ":" + strconv.Itoa(i+1),
		Quantity:        qty,
		RowNumber:       line.RowNumber,
		ShippedQuantity: shipped,
	}
	return pricing.Recompute(item, &price)
}
