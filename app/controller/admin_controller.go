package controller

import (
	"context"
	"net/http"

	"orderdesk/catalog"
	"orderdesk/merge"
	"orderdesk/notify"
	"orderdesk/service"
)

// Snapshotter saves and restores the client state
type Snapshotter interface {
	Save(ctx context.Context) (service.SnapshotResult, error)
	Restore(ctx context.Context) (service.SnapshotResult, error)
}

// AdminController handles startup, status, snapshots and notifications
type AdminController struct {
	sync      service.SyncServiceInterface
	catalog   *catalog.Store
	book      *merge.Book
	snapshots Snapshotter
	feed      *notify.Feed
}

// NewAdminController creates a new AdminController
func NewAdminController(sync service.SyncServiceInterface, store *catalog.Store, book *merge.Book, snapshots Snapshotter, feed *notify.Feed) *AdminController {
	return &AdminController{sync: sync, catalog: store, book: book, snapshots: snapshots, feed: feed}
}

type statusResponse struct {
	Sync          service.SyncStatus `json:"sync"`
	Catalog       catalog.Status     `json:"catalog"`
	OrderCount    int                `json:"orderCount"`
	LoadingOrders bool               `json:"loadingOrders"`
	OrderPolicy   merge.Policy       `json:"orderPolicy"`
}

func (c *AdminController) status() statusResponse {
	return statusResponse{
		Sync:          c.sync.Status(),
		Catalog:       c.catalog.Status(),
		OrderCount:    len(c.book.Orders()),
		LoadingOrders: c.book.Loading(),
		OrderPolicy:   c.book.Policy(),
	}
}

// Initialize handles POST /admin/init
func (c *AdminController) Initialize(w http.ResponseWriter, r *http.Request) {
	if err := c.sync.Initialize(r.Context()); err != nil {
		writeError(w, "Initialize", err)
		return
	}
	writeJSON(w, "Initialize", http.StatusOK, c.status())
}

// Status handles GET /admin/status
func (c *AdminController) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "Status", http.StatusOK, c.status())
}

// Snapshot handles POST /admin/snapshot
func (c *AdminController) Snapshot(w http.ResponseWriter, r *http.Request) {
	result, err := c.snapshots.Save(r.Context())
	if err != nil {
		writeError(w, "Snapshot", err)
		return
	}
	writeJSON(w, "Snapshot", http.StatusOK, result)
}

// Restore handles POST /admin/restore
func (c *AdminController) Restore(w http.ResponseWriter, r *http.Request) {
	result, err := c.snapshots.Restore(r.Context())
	if err != nil {
		writeError(w, "Restore", err)
		return
	}
	writeJSON(w, "Restore", http.StatusOK, result)
}

// Notifications handles GET /notifications; ?clear=true empties the feed
func (c *AdminController) Notifications(w http.ResponseWriter, r *http.Request) {
	events := c.feed.Events()
	if r.URL.Query().Get("clear") == "true" {
		c.feed.Clear()
	}
	writeJSON(w, "Notifications", http.StatusOK, events)
}
