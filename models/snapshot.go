package models

import (
	"time"

	"github.com/google/uuid"

	"orderdesk/utils"
)

const (
	CatalogSnapshotVersion = 1
	SessionSnapshotVersion = 1
	// TabsSnapshotVersion 1 carried a single orderCounter; 2 keeps one counter per tab type.
	TabsSnapshotVersion = 2
)

// SnapshotKind names one independently persisted piece of client state
type SnapshotKind string

const (
	SnapshotCatalog SnapshotKind = "catalog"
	SnapshotSession SnapshotKind = "session"
	SnapshotTabs    SnapshotKind = "tabs"
)

// CatalogSnapshot is the persisted product and customer lists
type CatalogSnapshot struct {
	Version   int        `json:"version"`
	SavedAt   time.Time  `json:"savedAt"`
	Products  []Product  `json:"products"`
	Customers []Customer `json:"customers"`
}

// Normalize fills defaults for fields absent in older snapshots
func (s *CatalogSnapshot) Normalize(now time.Time) {
	if s.Version == 0 {
		s.Version = CatalogSnapshotVersion
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = now
	}
	if s.Products == nil {
		s.Products = []Product{}
	}
	if s.Customers == nil {
		s.Customers = []Customer{}
	}
	for i := range s.Products {
		if !s.Products[i].State.Valid() {
			s.Products[i].State = ProductStateInactive
		}
	}
	for i := range s.Customers {
		if s.Customers[i].ID == "" {
			s.Customers[i].ID = s.Customers[i].Code
		}
	}
}

// SessionSnapshot is the persisted draft of one order session
type SessionSnapshot struct {
	Version int         `json:"version"`
	SavedAt time.Time   `json:"savedAt"`
	Mode    SessionMode `json:"mode"`
	Data    OrderData   `json:"data"`
}

// Normalize fills defaults for fields absent in older snapshots.
// Line totals are not touched here; the session recomputes them on restore.
func (s *SessionSnapshot) Normalize(now time.Time) {
	if s.Version == 0 {
		s.Version = SessionSnapshotVersion
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = now
	}
	switch s.Mode {
	case SessionNew, SessionEdit, SessionView:
	default:
		if s.Data.OrderInfo.SerialNumber != "" && s.Data.OrderInfo.Kind != "" {
			s.Mode = SessionEdit
		} else {
			s.Mode = SessionNew
		}
	}
	if s.Data.OrderInfo.Status == "" {
		s.Data.OrderInfo.Status = OrderStatusPending
	}
	if s.Data.OrderInfo.Date == "" {
		s.Data.OrderInfo.Date = utils.Today(now)
	}
	if s.Data.SalesItems == nil {
		s.Data.SalesItems = []SalesItem{}
	}
	for i := range s.Data.SalesItems {
		item := &s.Data.SalesItems[i]
		if item.LineID == "" {
			item.LineID = uuid.NewString()
		}
		if item.Time.IsZero() {
			item.Time = now
		}
		if item.Quantity < 0 {
			item.Quantity = 0
		}
		if !item.State.Valid() {
			item.State = ProductStateInactive
		}
	}
}

// TabSnapshot is one persisted tab
type TabSnapshot struct {
	ID                string           `json:"id"`
	Type              TabType          `json:"type"`
	Label             string           `json:"label"`
	OrderSerialNumber string           `json:"orderSerialNumber,omitempty"`
	Session           *SessionSnapshot `json:"session,omitempty"`
}

// TabsSnapshot is the persisted tab list with its counters
type TabsSnapshot struct {
	Version     int             `json:"version"`
	SavedAt     time.Time       `json:"savedAt"`
	ActiveTabID string          `json:"activeTabId"`
	Tabs        []TabSnapshot   `json:"tabs"`
	Counters    map[TabType]int `json:"counters,omitempty"`
	// OrderCounter is read from version 1 snapshots only
	OrderCounter int `json:"orderCounter,omitempty"`
}

// Normalize migrates version 1 snapshots and fills defaults
func (s *TabsSnapshot) Normalize(now time.Time) {
	if s.Version < TabsSnapshotVersion {
		if s.Counters == nil && s.OrderCounter > 0 {
			s.Counters = map[TabType]int{TabNewOrder: s.OrderCounter}
		}
		s.OrderCounter = 0
		s.Version = TabsSnapshotVersion
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = now
	}
	if s.Counters == nil {
		s.Counters = map[TabType]int{}
	}

	kept := s.Tabs[:0]
	for _, tab := range s.Tabs {
		if tab.ID == "" {
			continue
		}
		if !tab.Type.Valid() {
			tab.Type = TabNewOrder
		}
		if tab.Session != nil {
			tab.Session.Normalize(now)
		}
		kept = append(kept, tab)
	}
	s.Tabs = kept

	found := false
	for _, tab := range s.Tabs {
		if tab.ID == s.ActiveTabID {
			found = true
			break
		}
	}
	if !found {
		s.ActiveTabID = ""
		if len(s.Tabs) > 0 {
			s.ActiveTabID = s.Tabs[len(s.Tabs)-1].ID
		}
	}
}

// SnapshotRecord is the database row holding one serialized snapshot
type SnapshotRecord struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Kind      SnapshotKind `gorm:"size:32;uniqueIndex" json:"kind"`
	Version   int          `json:"version"`
	Payload   string       `gorm:"type:text" json:"payload"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// TableName overrides the gorm default
func (SnapshotRecord) TableName() string {
	return "client_snapshots"
}
