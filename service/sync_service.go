package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"orderdesk/catalog"
	"orderdesk/merge"
)

// The transport feeds both stores directly
var (
	_ catalog.Fetcher = TransportInterface(nil)
	_ merge.Fetcher   = TransportInterface(nil)
)

// SyncService runs the startup sequence and the manual reloads.
// Implements SyncServiceInterface
type SyncService struct {
	transport TransportInterface
	catalog   *catalog.Store
	book      *merge.Book

	mu           sync.Mutex
	initializing bool
	initialized  bool
	lastErr      error
}

// NewSyncService creates a new SyncService
func NewSyncService(transport TransportInterface, store *catalog.Store, book *merge.Book) *SyncService {
	return &SyncService{transport: transport, catalog: store, book: book}
}

// Ensure SyncService implements SyncServiceInterface
var _ SyncServiceInterface = (*SyncService)(nil)

// Initialize loads the catalog and then the orders, which need the catalog to
// resolve products. Orders load after both catalog loads finish, whether or not
// they succeeded. Any failure leaves the service uninitialized so it can be retried.
func (s *SyncService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initializing || s.initialized {
		s.mu.Unlock()
		log.Printf("⏭️  Initialize: already running or done")
		return nil
	}
	s.initializing = true
	s.mu.Unlock()

	log.Printf("🔄 Initialize: loading products and customers")
	catalogErr := s.catalog.Load(ctx, s.transport)
	if catalogErr != nil {
		log.Printf("⚠️  Initialize: catalog incomplete, orders will use stubs: %v", catalogErr)
	}
	log.Printf("🔄 Initialize: loading orders")
	err := errors.Join(catalogErr, s.book.Load(ctx, s.transport))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.initializing = false
	s.lastErr = err
	if err != nil {
		log.Printf("❌ Initialize: %v", err)
		return fmt.Errorf("failed to initialize: %w", err)
	}
	s.initialized = true
	status := s.catalog.Status()
	log.Printf("🎉 Initialize completed: %d products, %d customers, %d orders",
		status.ProductCount, status.CustomerCount, len(s.book.Orders()))
	return nil
}

// ReloadCatalog refreshes products and customers
func (s *SyncService) ReloadCatalog(ctx context.Context) error {
	if err := s.catalog.Load(ctx, s.transport); err != nil {
		return fmt.Errorf("failed to reload catalog: %w", err)
	}
	return nil
}

// ReloadOrders refreshes the order book
func (s *SyncService) ReloadOrders(ctx context.Context) error {
	if err := s.book.Load(ctx, s.transport); err != nil {
		return fmt.Errorf("failed to reload orders: %w", err)
	}
	return nil
}

// Status reports the startup flags
func (s *SyncService) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SyncStatus{Initializing: s.initializing, Initialized: s.initialized}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
