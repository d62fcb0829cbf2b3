package normalizer

import (
	"strings"

	"orderdesk/models"
)

// activeStatusLabel is the only sheet status that marks a product as sellable
const activeStatusLabel = "啟用中"

var productStateLabels = map[models.ProductState]string{
	models.ProductStateActive:       "啟用中",
	models.ProductStateInactive:     "停用",
	models.ProductStatePreorder:     "預購中",
	models.ProductStateDiscontinued: "售完停產",
}

var orderStatusLabels = map[models.OrderStatus]string{
	models.OrderStatusPending:          "待處理",
	models.OrderStatusPartiallyShipped: "部分出貨",
	models.OrderStatusShipped:          "已出貨",
	models.OrderStatusCompleted:        "已完成",
	models.OrderStatusCancelled:        "已取消",
}

var orderStatusByLabel = func() map[string]models.OrderStatus {
	m := make(map[string]models.OrderStatus, len(orderStatusLabels)*2)
	for status, label := range orderStatusLabels {
		m[label] = status
		m[string(status)] = status
	}
	// Spellings seen in older sheets
	m["處理中"] = models.OrderStatusPending
	m["partially_shipped"] = models.OrderStatusPartiallyShipped
	m["canceled"] = models.OrderStatusCancelled
	return m
}()

// ProductStateFromStatus maps a sheet status to a product state.
// Only the active label counts as active.
func ProductStateFromStatus(status string) models.ProductState {
	if strings.TrimSpace(status) == activeStatusLabel {
		return models.ProductStateActive
	}
	return models.ProductStateInactive
}

// ProductStateLabel returns the sheet label of a product state
func ProductStateLabel(state models.ProductState) string {
	if label, ok := productStateLabels[state]; ok {
		return label
	}
	return productStateLabels[models.ProductStateInactive]
}

// OrderStatusFromLabel maps a sheet label or canonical value to an order status.
// ok is false for unknown non-blank input; the status is then pending.
func OrderStatusFromLabel(raw string) (status models.OrderStatus, ok bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return models.OrderStatusPending, true
	}
	if status, found := orderStatusByLabel[key]; found {
		return status, true
	}
	return models.OrderStatusPending, false
}

// OrderStatusLabel returns the sheet label of an order status
func OrderStatusLabel(status models.OrderStatus) string {
	if label, ok := orderStatusLabels[status]; ok {
		return label
	}
	return orderStatusLabels[models.OrderStatusPending]
}

// OrderKindFromRaw reads the stored order classification. Anything that is not
// explicitly view-only is editable.
func OrderKindFromRaw(raw string) models.OrderKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(models.OrderKindViewOnly), "view_only", "viewonly", "readonly", "唯讀":
		return models.OrderKindViewOnly
	}
	return models.OrderKindEditable
}
