package models

// Customer represents a store customer. Code is unique; ID mirrors Code for
// customers coming from the sheet.
type Customer struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	StoreName      string `json:"storeName"`
	ChainStoreName string `json:"chainStoreName"`
}
