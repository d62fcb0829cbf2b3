package service

import "context"

// SyncStatus reports the startup sequence flags
type SyncStatus struct {
	Initializing bool   `json:"initializing"`
	Initialized  bool   `json:"initialized"`
	LastError    string `json:"lastError,omitempty"`
}

// SyncServiceInterface defines the contract for loading remote data
type SyncServiceInterface interface {
	// Initialize loads products and customers concurrently, then orders.
	// It runs once; concurrent and repeated calls return without loading again.
	Initialize(ctx context.Context) error
	ReloadCatalog(ctx context.Context) error
	ReloadOrders(ctx context.Context) error
	Status() SyncStatus
}
