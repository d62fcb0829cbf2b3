package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"orderdesk/merge"
	"orderdesk/models"
	"orderdesk/notify"
	"orderdesk/report"
	"orderdesk/session"
	"orderdesk/tabs"
	"orderdesk/utils"
)

// The transport submits sessions directly
var _ session.Submitter = TransportInterface(nil)

// ShipmentRequest is a batch shipment entered on the sales list.
// Quantities are raw inputs keyed by sale line id; SelectAll ships every line
// of the named customers in full before Quantities are applied.
type ShipmentRequest struct {
	Date       string            `json:"date"`
	SelectAll  []string          `json:"selectAll,omitempty"`
	Quantities map[string]string `json:"quantities"`
}

// OrderService runs the submission flows that span the session, the order
// book and the tab list.
type OrderService struct {
	transport TransportInterface
	book      *merge.Book
	tabs      *tabs.Manager
	reporter  notify.Reporter
	now       func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(transport TransportInterface, book *merge.Book, manager *tabs.Manager, reporter notify.Reporter) *OrderService {
	if reporter == nil {
		reporter = notify.LogReporter{}
	}
	return &OrderService{transport: transport, book: book, tabs: manager, reporter: reporter, now: time.Now}
}

// OpenOrder opens (or switches to) the tab editing a confirmed order
func (s *OrderService) OpenOrder(serial string) (models.TabInfo, bool, error) {
	order, ok := s.book.BySerial(serial)
	if !ok {
		return models.TabInfo{}, false, fmt.Errorf("%w: %s", merge.ErrOrderNotFound, serial)
	}
	return s.tabs.OpenOrder(order)
}

// SubmitTab submits the session of a tab. On success the order list is
// reloaded, rows assigned by a create are recorded and an edit tab is closed.
// A failed reload does not fail the submission.
func (s *OrderService) SubmitTab(ctx context.Context, tabID string) (*models.SubmitResult, error) {
	tab, err := s.tabs.Tab(tabID)
	if err != nil {
		return nil, err
	}
	sess, err := s.tabs.Session(tabID)
	if err != nil {
		return nil, err
	}
	mode := sess.Mode()

	result, err := sess.Submit(ctx, s.transport)
	if err != nil {
		var submitErr *session.SubmitError
		if errors.As(err, &submitErr) {
			s.reporter.Report(ctx, notify.Failure("Submit", err))
		}
		return nil, err
	}

	if err := s.book.Load(ctx, s.transport); err != nil {
		log.Printf("⚠️  SubmitTab: order reload after %s failed: %v", result.SerialNumber, err)
	}
	if mode == models.SessionNew && len(result.Items) > 0 {
		if err := s.book.UpdateRowNumbers(result.SerialNumber, result.Items); err != nil {
			log.Printf("⚠️  SubmitTab: %v", err)
		}
	}
	if tab.Type == models.TabEditOrder {
		if err := s.tabs.Close(tabID); err != nil {
			log.Printf("⚠️  SubmitTab: closing %s: %v", tabID, err)
		}
	}
	s.reporter.Report(ctx, notify.Info("Submit", fmt.Sprintf("order %s saved", result.SerialNumber)))
	return result, nil
}

// Ship submits a batch shipment over the current order lines and reloads the
// order list on success.
func (s *OrderService) Ship(ctx context.Context, req ShipmentRequest) (*models.SubmitResult, error) {
	draft := report.NewShipmentDraft(report.SalesLines(s.book.Orders(), s.now()))
	for _, customer := range req.SelectAll {
		draft.SelectAll(customer, true)
	}
	for lineID, raw := range req.Quantities {
		if _, err := draft.Set(lineID, raw); err != nil {
			return nil, fmt.Errorf("%w: %v", session.ErrValidation, err)
		}
	}

	date := utils.NormalizeDate(req.Date)
	if date == "" {
		date = utils.Today(s.now())
	}
	payload := draft.Payload(date)
	if len(payload.Lines) == 0 {
		return nil, fmt.Errorf("%w: no shipment quantities entered", session.ErrValidation)
	}

	result, err := s.transport.SubmitShipment(ctx, payload)
	if err != nil {
		log.Printf("❌ Ship: %v", err)
		s.reporter.Report(ctx, notify.Failure("Shipment", err))
		return nil, &session.SubmitError{Message: err.Error(), Err: err}
	}
	log.Printf("✅ Ship: %d lines shipped on %s", len(payload.Lines), date)
	if err := s.book.Load(ctx, s.transport); err != nil {
		log.Printf("⚠️  Ship: order reload failed: %v", err)
	}
	return result, nil
}
