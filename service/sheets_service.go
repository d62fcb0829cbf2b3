package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"orderdesk/models"
)

const sheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// SheetsService talks to the Apps Script web app in front of the spreadsheet.
// Implements TransportInterface
type SheetsService struct {
	baseURL string
	client  *http.Client
}

// NewSheetsService creates a web app client. With a credentials path the
// requests carry service account tokens; otherwise they are anonymous.
func NewSheetsService(ctx context.Context, baseURL, credentialsPath string, timeout time.Duration) (*SheetsService, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("SHEETS_WEBAPP_URL is not set")
	}
	opts := []option.ClientOption{option.WithoutAuthentication()}
	if credentialsPath != "" {
		opts = []option.ClientOption{option.WithCredentialsFile(credentialsPath), option.WithScopes(sheetsScope)}
	}
	client, _, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets http client: %w", err)
	}
	client.Timeout = timeout
	log.Printf("✓ Sheets web app client ready (authenticated=%t)", credentialsPath != "")
	return NewSheetsServiceWithClient(baseURL, client), nil
}

// NewSheetsServiceWithClient uses the given HTTP client as is
func NewSheetsServiceWithClient(baseURL string, client *http.Client) *SheetsService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SheetsService{baseURL: baseURL, client: client}
}

// Ensure SheetsService implements TransportInterface
var _ TransportInterface = (*SheetsService)(nil)

func (s *SheetsService) get(ctx context.Context, params url.Values) ([]byte, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid web app url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	return body, nil
}

// Fetch reads one sheet (or all of them) and returns the unwrapped data
func (s *SheetsService) Fetch(ctx context.Context, kind models.FetchKind) (json.RawMessage, error) {
	body, err := s.get(ctx, url.Values{"action": {"fetch"}, "type": {string(kind)}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", kind, err)
	}
	return unwrapEnvelope(body, kind)
}

// FetchProducts reads the product sheet
func (s *SheetsService) FetchProducts(ctx context.Context) ([]models.RawProduct, error) {
	data, err := s.Fetch(ctx, models.FetchProducts)
	if err != nil {
		return nil, err
	}
	return decodeList[models.RawProduct](data, models.FetchProducts)
}

// FetchCustomers reads the customer sheet
func (s *SheetsService) FetchCustomers(ctx context.Context) ([]models.RawCustomer, error) {
	data, err := s.Fetch(ctx, models.FetchCustomers)
	if err != nil {
		return nil, err
	}
	return decodeList[models.RawCustomer](data, models.FetchCustomers)
}

// FetchOrderLines reads the order sheet in either payload shape
func (s *SheetsService) FetchOrderLines(ctx context.Context) ([]models.RawOrderLine, error) {
	data, err := s.Fetch(ctx, models.FetchOrders)
	if err != nil {
		return nil, err
	}
	return decodeOrderLines(data)
}

// FetchSales reads the sales sheet
func (s *SheetsService) FetchSales(ctx context.Context) ([]models.RawSale, error) {
	data, err := s.Fetch(ctx, models.FetchSales)
	if err != nil {
		return nil, err
	}
	return decodeList[models.RawSale](data, models.FetchSales)
}

func (s *SheetsService) submit(ctx context.Context, action models.SubmitAction, param string, payload any) (*models.SubmitResult, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", action, err)
	}
	body, err := s.get(ctx, url.Values{"action": {string(action)}, param: {string(encoded)}})
	if err != nil {
		return nil, err
	}
	data, err := unwrapEnvelope(body, "")
	if err != nil {
		return nil, err
	}
	return decodeSubmitResult(data)
}

// SubmitOrder sends a create or update action
func (s *SheetsService) SubmitOrder(ctx context.Context, action models.SubmitAction, payload models.OrderPayload) (*models.SubmitResult, error) {
	if action != models.SubmitCreate && action != models.SubmitUpdate {
		return nil, fmt.Errorf("unsupported order action %q", action)
	}
	return s.submit(ctx, action, "orderData", payload)
}

// SubmitShipment sends a shipment action
func (s *SheetsService) SubmitShipment(ctx context.Context, payload models.ShipmentPayload) (*models.SubmitResult, error) {
	return s.submit(ctx, models.SubmitShipment, "shipmentData", payload)
}
