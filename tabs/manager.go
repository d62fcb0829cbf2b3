// Package tabs manages the set of open workspace tabs and the order session
// each order tab owns. Exactly one tab is active at any time.
package tabs

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"orderdesk/catalog"
	"orderdesk/models"
	"orderdesk/session"
)

var (
	ErrTabNotFound = errors.New("tab not found")
	ErrNoSession   = errors.New("tab has no order session")
	ErrInvalidTab  = errors.New("invalid tab")
)

const newOrderIDPrefix = "order-"

var defaultLabels = map[models.TabType]string{
	models.TabCatalogView: "Catalog",
	models.TabOrderList:   "Orders",
	models.TabSalesList:   "Sales",
	models.TabPurchase:    "Purchase",
	models.TabPayments:    "Payments",
}

type tab struct {
	id      string
	typ     models.TabType
	label   string
	serial  string
	session *session.Session
}

func (t *tab) info(activeID string) models.TabInfo {
	return models.TabInfo{
		ID:                t.id,
		Type:              t.typ,
		Label:             t.label,
		OrderSerialNumber: t.serial,
		Active:            t.id == activeID,
	}
}

// Manager owns the open tabs. It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	tabs     []*tab
	activeID string
	counters map[models.TabType]int
	catalog  catalog.Reader
}

// NewManager starts with a single empty new-order tab
func NewManager(cat catalog.Reader) *Manager {
	m := &Manager{counters: map[models.TabType]int{}, catalog: cat}
	m.newOrderTabLocked()
	return m
}

func (m *Manager) newOrderTabLocked() *tab {
	m.counters[models.TabNewOrder]++
	n := m.counters[models.TabNewOrder]
	t := &tab{
		id:      newOrderIDPrefix + strconv.Itoa(n),
		typ:     models.TabNewOrder,
		label:   fmt.Sprintf("New order #%d", n),
		session: session.New(m.catalog, models.SessionNew),
	}
	m.tabs = append(m.tabs, t)
	m.activeID = t.id
	return t
}

func (m *Manager) findLocked(id string) (int, *tab) {
	for i, t := range m.tabs {
		if t.id == id {
			return i, t
		}
	}
	return -1, nil
}

// NewOrderTab opens and activates a new empty order tab
func (m *Manager) NewOrderTab() models.TabInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newOrderTabLocked().info(m.activeID)
}

// OpenOrder activates the tab already holding the order, or opens one.
// View-only orders open in a read-only view tab. created reports whether a
// new tab was opened.
func (m *Manager) OpenOrder(order models.Order) (info models.TabInfo, created bool, err error) {
	serial := strings.TrimSpace(order.OrderInfo.SerialNumber)
	if serial == "" {
		serial = strings.TrimSpace(order.ID)
	}
	if serial == "" {
		return models.TabInfo{}, false, fmt.Errorf("%w: order has no serial number", ErrInvalidTab)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tabs {
		if t.serial == serial {
			m.activeID = t.id
			return t.info(m.activeID), false, nil
		}
	}

	typ, mode, prefix, label := models.TabEditOrder, models.SessionEdit, "edit-", "Edit "
	if !order.Editable() {
		typ, mode, prefix, label = models.TabViewOrder, models.SessionView, "view-", "View "
	}
	s := session.New(m.catalog, mode)
	if err := s.Load(order); err != nil {
		return models.TabInfo{}, false, fmt.Errorf("failed to load order %s: %w", serial, err)
	}
	m.counters[typ]++
	t := &tab{id: prefix + serial, typ: typ, label: label + serial, serial: serial, session: s}
	m.tabs = append(m.tabs, t)
	m.activeID = t.id
	log.Printf("✅ OpenOrder: opened %s tab for %s", typ, serial)
	return t.info(m.activeID), true, nil
}

// OpenOrSwitch activates the tab of a singleton type, opening it if needed.
// An empty label takes the type's default.
func (m *Manager) OpenOrSwitch(typ models.TabType, label string) (models.TabInfo, error) {
	if !typ.Valid() || typ.HasSession() {
		return models.TabInfo{}, fmt.Errorf("%w: %q cannot be opened directly", ErrInvalidTab, typ)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tabs {
		if t.typ == typ {
			m.activeID = t.id
			return t.info(m.activeID), nil
		}
	}
	if label == "" {
		label = defaultLabels[typ]
	}
	m.counters[typ]++
	t := &tab{id: string(typ) + "-" + uuid.NewString(), typ: typ, label: label}
	m.tabs = append(m.tabs, t)
	m.activeID = t.id
	return t.info(m.activeID), nil
}

// Close removes a tab. Closing the last tab opens a fresh new-order tab;
// closing the active tab activates the most recently added remaining tab.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, _ := m.findLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTabNotFound, id)
	}
	m.tabs = append(m.tabs[:i], m.tabs[i+1:]...)
	if len(m.tabs) == 0 {
		m.newOrderTabLocked()
		return nil
	}
	if m.activeID == id {
		m.activeID = m.tabs[len(m.tabs)-1].id
	}
	return nil
}

// SetActive activates a tab
func (m *Manager) SetActive(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, _ := m.findLocked(id); i < 0 {
		return fmt.Errorf("%w: %s", ErrTabNotFound, id)
	}
	m.activeID = id
	return nil
}

// Active returns the active tab
func (m *Manager) Active() models.TabInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, t := m.findLocked(m.activeID)
	return t.info(m.activeID)
}

// Tabs lists the tabs in the order they were opened
func (m *Manager) Tabs() []models.TabInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TabInfo, 0, len(m.tabs))
	for _, t := range m.tabs {
		out = append(out, t.info(m.activeID))
	}
	return out
}

// Tab returns one tab
func (m *Manager) Tab(id string) (models.TabInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, t := m.findLocked(id)
	if t == nil {
		return models.TabInfo{}, fmt.Errorf("%w: %s", ErrTabNotFound, id)
	}
	return t.info(m.activeID), nil
}

// Session returns the order session of a tab
func (m *Manager) Session(id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, t := m.findLocked(id)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTabNotFound, id)
	}
	if t.session == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	return t.session, nil
}

// ActiveSession returns the session of the active tab
func (m *Manager) ActiveSession() (*session.Session, error) {
	m.mu.Lock()
	id := m.activeID
	m.mu.Unlock()
	return m.Session(id)
}

// TabBySerial finds the tab holding an order
func (m *Manager) TabBySerial(serial string) (models.TabInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tabs {
		if serial != "" && t.serial == serial {
			return t.info(m.activeID), true
		}
	}
	return models.TabInfo{}, false
}

// Snapshot captures the tabs, their drafts and the counters
func (m *Manager) Snapshot(now time.Time) models.TabsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := models.TabsSnapshot{
		Version:     models.TabsSnapshotVersion,
		SavedAt:     now,
		ActiveTabID: m.activeID,
		Counters:    make(map[models.TabType]int, len(m.counters)),
	}
	for typ, n := range m.counters {
		snap.Counters[typ] = n
	}
	for _, t := range m.tabs {
		ts := models.TabSnapshot{ID: t.id, Type: t.typ, Label: t.label, OrderSerialNumber: t.serial}
		if t.session != nil {
			s := t.session.Snapshot(now)
			ts.Session = &s
		}
		snap.Tabs = append(snap.Tabs, ts)
	}
	return snap
}

// Restore replaces all tabs from a snapshot. Older snapshot versions are
// migrated first. An empty snapshot leaves one fresh new-order tab.
func (m *Manager) Restore(snap models.TabsSnapshot, now time.Time) error {
	snap.Normalize(now)

	tabs := make([]*tab, 0, len(snap.Tabs))
	counters := make(map[models.TabType]int, len(snap.Counters))
	for typ, n := range snap.Counters {
		counters[typ] = n
	}
	for _, ts := range snap.Tabs {
		t := &tab{id: ts.ID, typ: ts.Type, label: ts.Label, serial: ts.OrderSerialNumber}
		if t.typ.HasSession() {
			t.session = session.New(m.catalog, modeFor(t.typ))
			if ts.Session != nil {
				if err := t.session.Restore(*ts.Session, now); err != nil {
					return fmt.Errorf("failed to restore tab %s: %w", ts.ID, err)
				}
			}
		}
		if t.typ == models.TabNewOrder {
			if n, err := strconv.Atoi(strings.TrimPrefix(t.id, newOrderIDPrefix)); err == nil && n > counters[models.TabNewOrder] {
				counters[models.TabNewOrder] = n
			}
		}
		tabs = append(tabs, t)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tabs = tabs
	m.counters = counters
	m.activeID = snap.ActiveTabID
	if len(m.tabs) == 0 {
		m.newOrderTabLocked()
	}
	log.Printf("✅ Tabs Restore: %d tabs (active=%s)", len(m.tabs), m.activeID)
	return nil
}

func modeFor(typ models.TabType) models.SessionMode {
	switch typ {
	case models.TabEditOrder:
		return models.SessionEdit
	case models.TabViewOrder:
		return models.SessionView
	}
	return models.SessionNew
}
