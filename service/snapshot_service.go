package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"orderdesk/catalog"
	"orderdesk/models"
	"orderdesk/repository"
	"orderdesk/tabs"
)

// SnapshotResult lists which kinds were written or read
type SnapshotResult struct {
	Kinds  []models.SnapshotKind `json:"kinds"`
	Errors []string              `json:"errors,omitempty"`
}

// SnapshotService persists the catalog, the active draft and the tab list as
// three independent snapshots. One kind failing does not stop the others.
type SnapshotService struct {
	repo    repository.SnapshotRepositoryInterface
	catalog *catalog.Store
	tabs    *tabs.Manager
	now     func() time.Time
}

// NewSnapshotService creates a new SnapshotService
func NewSnapshotService(repo repository.SnapshotRepositoryInterface, store *catalog.Store, manager *tabs.Manager) *SnapshotService {
	return &SnapshotService{repo: repo, catalog: store, tabs: manager, now: time.Now}
}

func (s *SnapshotService) save(ctx context.Context, kind models.SnapshotKind, version int, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}
	return s.repo.Save(ctx, kind, version, payload)
}

// Save writes all three snapshots
func (s *SnapshotService) Save(ctx context.Context) (SnapshotResult, error) {
	now := s.now()
	var result SnapshotResult
	var errs []error
	record := func(kind models.SnapshotKind, err error) {
		if err != nil {
			errs = append(errs, err)
			result.Errors = append(result.Errors, err.Error())
			return
		}
		result.Kinds = append(result.Kinds, kind)
	}

	record(models.SnapshotCatalog, s.save(ctx, models.SnapshotCatalog, models.CatalogSnapshotVersion, s.catalog.Snapshot(now)))
	if sess, err := s.tabs.ActiveSession(); err == nil {
		record(models.SnapshotSession, s.save(ctx, models.SnapshotSession, models.SessionSnapshotVersion, sess.Snapshot(now)))
	} else if err := s.repo.Delete(ctx, models.SnapshotSession); err != nil {
		record(models.SnapshotSession, err)
	}
	record(models.SnapshotTabs, s.save(ctx, models.SnapshotTabs, models.TabsSnapshotVersion, s.tabs.Snapshot(now)))

	log.Printf("✅ SaveSnapshots: saved %v", result.Kinds)
	return result, errors.Join(errs...)
}

func (s *SnapshotService) load(ctx context.Context, kind models.SnapshotKind, v any) (bool, error) {
	rec, err := s.repo.Load(ctx, kind)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(rec.Payload), v); err != nil {
		return false, fmt.Errorf("failed to decode %s snapshot: %w", kind, err)
	}
	return true, nil
}

// Restore reads back whatever snapshots exist. The tab snapshot carries every
// tab's draft; the separate session snapshot is applied to the active tab only
// when no tab snapshot exists and the active session has the same mode.
func (s *SnapshotService) Restore(ctx context.Context) (SnapshotResult, error) {
	now := s.now()
	var result SnapshotResult
	var errs []error
	fail := func(err error) {
		errs = append(errs, err)
		result.Errors = append(result.Errors, err.Error())
	}

	var cat models.CatalogSnapshot
	if ok, err := s.load(ctx, models.SnapshotCatalog, &cat); err != nil {
		fail(err)
	} else if ok {
		s.catalog.Restore(cat, now)
		result.Kinds = append(result.Kinds, models.SnapshotCatalog)
	}

	var tabsSnap models.TabsSnapshot
	tabsRestored := false
	if ok, err := s.load(ctx, models.SnapshotTabs, &tabsSnap); err != nil {
		fail(err)
	} else if ok {
		if err := s.tabs.Restore(tabsSnap, now); err != nil {
			fail(err)
		} else {
			tabsRestored = true
			result.Kinds = append(result.Kinds, models.SnapshotTabs)
		}
	}

	if !tabsRestored {
		var sessSnap models.SessionSnapshot
		if ok, err := s.load(ctx, models.SnapshotSession, &sessSnap); err != nil {
			fail(err)
		} else if ok {
			sessSnap.Normalize(now)
			if sess, err := s.tabs.ActiveSession(); err != nil {
				fail(err)
			} else if sessSnap.Mode != sess.Mode() {
				log.Printf("⚠️  RestoreSnapshots: session snapshot is %s, active tab is %s; skipped", sessSnap.Mode, sess.Mode())
			} else if err := sess.Restore(sessSnap, now); err != nil {
				fail(err)
			} else {
				result.Kinds = append(result.Kinds, models.SnapshotSession)
			}
		}
	}

	log.Printf("✅ RestoreSnapshots: restored %v", result.Kinds)
	return result, errors.Join(errs...)
}
