package models

// TabType identifies what a workspace tab shows
type TabType string

const (
	TabNewOrder    TabType = "new-order"
	TabEditOrder   TabType = "edit-order"
	TabViewOrder   TabType = "view-order"
	TabCatalogView TabType = "catalog-view"
	TabOrderList   TabType = "order-list"
	TabSalesList   TabType = "sales-list"
	TabPurchase    TabType = "purchase"
	TabPayments    TabType = "payments"
)

// Valid reports whether t is a known tab type
func (t TabType) Valid() bool {
	switch t {
	case TabNewOrder, TabEditOrder, TabViewOrder, TabCatalogView,
		TabOrderList, TabSalesList, TabPurchase, TabPayments:
		return true
	}
	return false
}

// HasSession reports whether tabs of this type own an order session
func (t TabType) HasSession() bool {
	return t == TabNewOrder || t == TabEditOrder || t == TabViewOrder
}

// SessionMode decides what a session may do with its draft
type SessionMode string

const (
	SessionNew  SessionMode = "new"  // submits with the create action
	SessionEdit SessionMode = "edit" // submits with the update action
	SessionView SessionMode = "view" // read-only
)

// TabInfo is the read view of one tab
type TabInfo struct {
	ID                string  `json:"id"`
	Type              TabType `json:"type"`
	Label             string  `json:"label"`
	OrderSerialNumber string  `json:"orderSerialNumber,omitempty"`
	Active            bool    `json:"active"`
}
