package service

import (
	"context"
	"encoding/json"

	"orderdesk/models"
)

// TransportInterface defines the contract for the remote sheet backend
type TransportInterface interface {
	Fetch(ctx context.Context, kind models.FetchKind) (json.RawMessage, error)
	FetchProducts(ctx context.Context) ([]models.RawProduct, error)
	FetchCustomers(ctx context.Context) ([]models.RawCustomer, error)
	FetchOrderLines(ctx context.Context) ([]models.RawOrderLine, error)
	FetchSales(ctx context.Context) ([]models.RawSale, error)
	SubmitOrder(ctx context.Context, action models.SubmitAction, payload models.OrderPayload) (*models.SubmitResult, error)
	SubmitShipment(ctx context.Context, payload models.ShipmentPayload) (*models.SubmitResult, error)
}
