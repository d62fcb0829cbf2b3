package service

import (
	"context"
	"encoding/json"
	"sync"

	"orderdesk/models"
	"orderdesk/utils"

	"github.com/shopspring/decimal"
)

type fakeTransport struct {
	mu           sync.Mutex
	products     []models.RawProduct
	customers    []models.RawCustomer
	lines        []models.RawOrderLine
	fetchErr     error
	customersErr error
	submitErr    error
	result       *models.SubmitResult

	orderFetches int
	submitted    []models.OrderPayload
	actions      []models.SubmitAction
	shipments    []models.ShipmentPayload
}

var _ TransportInterface = (*fakeTransport)(nil)

func num(v int64) utils.Number { return utils.NewNumber(decimal.NewFromInt(v)) }

func (f *fakeTransport) Fetch(context.Context, models.FetchKind) (json.RawMessage, error) {
	return json.RawMessage("[]"), f.fetchErr
}

func (f *fakeTransport) FetchProducts(context.Context) ([]models.RawProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products, f.fetchErr
}

func (f *fakeTransport) FetchCustomers(context.Context) ([]models.RawCustomer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.customersErr != nil {
		return nil, f.customersErr
	}
	return f.customers, f.fetchErr
}

func (f *fakeTransport) FetchOrderLines(context.Context) ([]models.RawOrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderFetches++
	return f.lines, f.fetchErr
}

func (f *fakeTransport) FetchSales(context.Context) ([]models.RawSale, error) {
	return nil, f.fetchErr
}

func (f *fakeTransport) SubmitOrder(_ context.Context, action models.SubmitAction, payload models.OrderPayload) (*models.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.actions = append(f.actions, action)
	f.submitted = append(f.submitted, payload)
	return f.result, nil
}

func (f *fakeTransport) SubmitShipment(_ context.Context, payload models.ShipmentPayload) (*models.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.shipments = append(f.shipments, payload)
	return &models.SubmitResult{ShipmentID: "SH-1"}, nil
}

func sampleTransport() *fakeTransport {
	return &fakeTransport{
		products: []models.RawProduct{
			{ProductID: "P1", Status: "啟用中", Name: "Mug", PriceDistribution: num(100), TableTitle: "Mugs", TableRowTitle: "Red", TableColTitle: "S"},
			{ProductID: "P2", Status: "啟用中", Name: "Cup", PriceDistribution: num(50), TableTitle: "Mugs", TableRowTitle: "Red", TableColTitle: "L"},
		},
		customers: []models.RawCustomer{{CustomerCode: "C1", CustomerName: "Shop"}},
		lines: []models.RawOrderLine{
			{SerialNumber: "S1", CustomerCode: "C1", CustomerName: "Shop", Code: "P1", Quantity: num(2), RowNumber: 10},
			{SerialNumber: "S1", CustomerCode: "C1", CustomerName: "Shop", Code: "P2", Quantity: num(4), RowNumber: 11},
		},
	}
}
