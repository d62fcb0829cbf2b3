package merge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"orderdesk/catalog"
	"orderdesk/models"
	"orderdesk/notify"
)

var ErrOrderNotFound = errors.New("order not found")

// Policy decides how a fresh load combines with the orders already held
type Policy string

const (
	// PolicyReplace drops the held list and keeps only the server's
	PolicyReplace Policy = "replace"
	// PolicyMergeBySerial updates held orders by serial, appends new ones and
	// keeps orders the server no longer returns
	PolicyMergeBySerial Policy = "merge"
)

// ParsePolicy reads a policy name; anything unknown is PolicyReplace
func ParsePolicy(s string) Policy {
	if Policy(strings.ToLower(strings.TrimSpace(s))) == PolicyMergeBySerial {
		return PolicyMergeBySerial
	}
	return PolicyReplace
}

// Fetcher loads raw order lines from the remote sheet
type Fetcher interface {
	FetchOrderLines(ctx context.Context) ([]models.RawOrderLine, error)
}

// Book is the in-memory list of confirmed orders. It is safe for concurrent use.
type Book struct {
	mu       sync.RWMutex
	orders   []models.Order
	policy   Policy
	loading  bool
	gen      uint64
	catalog  catalog.Reader
	reporter notify.Reporter
}

// NewBook creates an empty book
func NewBook(cat catalog.Reader, policy Policy, reporter notify.Reporter) *Book {
	if reporter == nil {
		reporter = notify.LogReporter{}
	}
	if policy == "" {
		policy = PolicyReplace
	}
	return &Book{catalog: cat, policy: policy, reporter: reporter}
}

// Policy returns the reload policy
func (b *Book) Policy() Policy { return b.policy }

// Loading reports whether a load is in flight
func (b *Book) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

// Load fetches order lines, merges them against the catalog and applies the
// book's policy. On failure the held orders are kept. A response overtaken by
// a newer load is discarded.
func (b *Book) Load(ctx context.Context, f Fetcher) error {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.loading = true
	b.mu.Unlock()

	lines, err := f.FetchOrderLines(ctx)
	if err != nil {
		b.mu.Lock()
		if gen == b.gen {
			b.loading = false
		}
		b.mu.Unlock()
		err = fmt.Errorf("failed to load orders: %w", err)
		b.reporter.Report(ctx, notify.Failure("LoadOrders", err))
		return err
	}

	orders := Merge(lines, b.catalog)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		log.Printf("⚠️  LoadOrders: discarding stale response (generation %d, latest %d)", gen, b.gen)
		return nil
	}
	b.loading = false
	b.applyLocked(orders)
	log.Printf("✅ LoadOrders: %d orders from %d lines (policy=%s)", len(orders), len(lines), b.policy)
	return nil
}

// Apply combines orders into the book using its policy
func (b *Book) Apply(orders []models.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applyLocked(orders)
}

func (b *Book) applyLocked(orders []models.Order) {
	if b.policy != PolicyMergeBySerial {
		b.orders = cloneOrders(orders)
		return
	}
	index := make(map[string]int, len(b.orders))
	for i, o := range b.orders {
		index[o.ID] = i
	}
	for _, o := range orders {
		if i, ok := index[o.ID]; ok {
			b.orders[i] = o.Clone()
			continue
		}
		index[o.ID] = len(b.orders)
		b.orders = append(b.orders, o.Clone())
	}
}

// Orders returns a copy of the held orders
func (b *Book) Orders() []models.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneOrders(b.orders)
}

// BySerial returns one order
func (b *Book) BySerial(serial string) (models.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.orders {
		if o.ID == serial {
			return o.Clone(), true
		}
	}
	return models.Order{}, false
}

// UpdateRowNumbers records the sheet rows assigned to an order's lines.
// Assignments are matched to lines by code in order, so repeated codes take
// successive rows.
func (b *Book) UpdateRowNumbers(serial string, assignments []models.RowAssignment) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if b.orders[i].ID != serial {
			continue
		}
		used := make([]bool, len(b.orders[i].Items))
		for _, a := range assignments {
			for j, item := range b.orders[i].Items {
				if !used[j] && item.Code == a.Code {
					b.orders[i].Items[j].RowNumber = a.RowNumber
					used[j] = true
					break
				}
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrOrderNotFound, serial)
}

func cloneOrders(orders []models.Order) []models.Order {
	out := make([]models.Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}
