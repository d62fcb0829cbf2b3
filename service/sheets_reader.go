package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"orderdesk/models"
)

// ErrReadOnlyTransport is returned by submissions on the direct sheet reader
var ErrReadOnlyTransport = errors.New("transport is read-only")

// DefaultSheetRanges maps each fetch kind to the tab holding its rows
var DefaultSheetRanges = map[models.FetchKind]string{
	models.FetchProducts:  "products",
	models.FetchCustomers: "customers",
	models.FetchOrders:    "orders",
	models.FetchSales:     "sales",
}

// ValuesGetter reads one range of a spreadsheet as rows of cells
type ValuesGetter interface {
	GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)
}

type sheetsValues struct {
	svc *sheets.Service
}

func (v sheetsValues) GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// SheetsReader reads the spreadsheet directly through the Sheets API.
// The first row of every tab is the header; header cells are the JSON field
// names of the raw records. It cannot submit orders.
// Implements TransportInterface
type SheetsReader struct {
	values        ValuesGetter
	spreadsheetID string
	ranges        map[models.FetchKind]string
}

// NewSheetsReader creates a reader authenticated with a service account file
func NewSheetsReader(ctx context.Context, spreadsheetID, credentialsPath string) (*SheetsReader, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("SHEETS_SPREADSHEET_ID is not set")
	}
	if credentialsPath == "" {
		return nil, fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS environment variable is not set")
	}
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsPath), option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	log.Printf("✓ Sheets API reader ready for spreadsheet %s", spreadsheetID)
	return NewSheetsReaderWithValues(sheetsValues{svc: svc}, spreadsheetID), nil
}

// NewSheetsReaderWithValues uses the given range reader
func NewSheetsReaderWithValues(values ValuesGetter, spreadsheetID string) *SheetsReader {
	ranges := make(map[models.FetchKind]string, len(DefaultSheetRanges))
	for k, v := range DefaultSheetRanges {
		ranges[k] = v
	}
	return &SheetsReader{values: values, spreadsheetID: spreadsheetID, ranges: ranges}
}

// Ensure SheetsReader implements TransportInterface
var _ TransportInterface = (*SheetsReader)(nil)

// rowsToRecords turns a header row plus data rows into JSON objects.
// Blank rows are skipped; rowNumber is the 1-based sheet row.
func rowsToRecords(rows [][]interface{}) []map[string]interface{} {
	if len(rows) == 0 {
		return []map[string]interface{}{}
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(cell))
	}

	records := make([]map[string]interface{}, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec := map[string]interface{}{}
		blank := true
		for j, cell := range row {
			if j >= len(header) || header[j] == "" || header[j] == "rowNumber" {
				continue
			}
			v := strings.TrimSpace(fmt.Sprint(cell))
			if v != "" {
				blank = false
			}
			rec[header[j]] = v
		}
		if blank {
			continue
		}
		rec["rowNumber"] = i + 2
		records = append(records, rec)
	}
	return records
}

// Fetch reads one tab, or every tab keyed by kind for FetchAll
func (r *SheetsReader) Fetch(ctx context.Context, kind models.FetchKind) (json.RawMessage, error) {
	if kind == models.FetchAll {
		all := map[models.FetchKind]json.RawMessage{}
		for _, k := range []models.FetchKind{models.FetchProducts, models.FetchSales, models.FetchOrders, models.FetchCustomers} {
			data, err := r.Fetch(ctx, k)
			if err != nil {
				return nil, err
			}
			all[k] = data
		}
		return json.Marshal(all)
	}

	readRange, ok := r.ranges[kind]
	if !ok {
		return nil, fmt.Errorf("unknown fetch type %q", kind)
	}
	rows, err := r.values.GetValues(ctx, r.spreadsheetID, readRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", readRange, err)
	}
	data, err := json.Marshal(rowsToRecords(rows))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s rows: %w", kind, err)
	}
	return data, nil
}

// FetchProducts reads the product tab
func (r *SheetsReader) FetchProducts(ctx context.Context) ([]models.RawProduct, error) {
	data, err := r.Fetch(ctx, models.FetchProducts)
	if err != nil {
		return nil, err
	}
	return decodeList[models.RawProduct](data, models.FetchProducts)
}

// FetchCustomers reads the customer tab
func (r *SheetsReader) FetchCustomers(ctx context.Context) ([]models.RawCustomer, error) {
	data, err := r.Fetch(ctx, models.FetchCustomers)
	if err != nil {
		return nil, err
	}
	return decodeList[models.RawCustomer](data, models.FetchCustomers)
}

// FetchOrderLines reads the order tab, one row per order line
func (r *SheetsReader) FetchOrderLines(ctx context.Context) ([]models.RawOrderLine, error) {
	data, err := r.Fetch(ctx, models.FetchOrders)
	if err != nil {
		return nil, err
	}
	return decodeList[models.RawOrderLine](data, models.FetchOrders)
}

// FetchSales reads the sales tab
func (r *SheetsReader) FetchSales(ctx context.Context) ([]models.RawSale, error) {
	data, err := r.Fetch(ctx, models.FetchSales)
	if err != nil {
		return nil, err
	}
	return decodeList[models.RawSale](data, models.FetchSales)
}

// SubmitOrder is not supported by the direct reader
func (r *SheetsReader) SubmitOrder(context.Context, models.SubmitAction, models.OrderPayload) (*models.SubmitResult, error) {
	return nil, ErrReadOnlyTransport
}

// SubmitShipment is not supported by the direct reader
func (r *SheetsReader) SubmitShipment(context.Context, models.ShipmentPayload) (*models.SubmitResult, error) {
	return nil, ErrReadOnlyTransport
}
