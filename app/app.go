package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"orderdesk/app/controller"
	"orderdesk/app/router"
	"orderdesk/catalog"
	"orderdesk/config"
	"orderdesk/db"
	"orderdesk/merge"
	"orderdesk/notify"
	"orderdesk/repository"
	"orderdesk/service"
	"orderdesk/tabs"
)

// App holds the wired application
type App struct {
	Handler http.Handler
	Sync    *service.SyncService

	closers []func() error
}

// Close releases connections opened by Initialize
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("⚠️  Close: %v", err)
		}
	}
}

// NewTransport picks the sheet backend named by cfg.Transport
func NewTransport(ctx context.Context, cfg config.Config) (service.TransportInterface, error) {
	switch cfg.Transport {
	case config.TransportWebApp:
		svc, err := service.NewSheetsService(ctx, cfg.WebAppURL, cfg.CredentialsPath, cfg.HTTPTimeout)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case config.TransportSheets:
		reader, err := service.NewSheetsReader(ctx, cfg.SpreadsheetID, cfg.CredentialsPath)
		if err != nil {
			return nil, err
		}
		return reader, nil
	}
	return nil, fmt.Errorf("unknown TRANSPORT %q (want %s or %s)", cfg.Transport, config.TransportWebApp, config.TransportSheets)
}

// Initialize initializes the application
func Initialize(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{}

	feed := notify.NewFeed(cfg.FeedSize)
	reporters := notify.Multi{notify.LogReporter{}, feed}
	if cfg.NATSURL != "" {
		natsReporter, err := notify.NewNATSReporter(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			log.Printf("⚠️  NATS unavailable, notifications stay local: %v", err)
		} else {
			reporters = append(reporters, natsReporter)
			a.closers = append(a.closers, natsReporter.Close)
		}
	}

	transport, err := NewTransport(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transport: %w", err)
	}

	gdb, err := db.OpenSnapshotStore(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.closers = append(a.closers, db.CloseDB)
	snapshotRepo := repository.NewSnapshotRepository(gdb)
	if err := snapshotRepo.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}

	store := catalog.NewStore(reporters)
	book := merge.NewBook(store, merge.ParsePolicy(cfg.OrderReloadPolicy), reporters)
	manager := tabs.NewManager(store)

	a.Sync = service.NewSyncService(transport, store, book)
	orderService := service.NewOrderService(transport, book, manager, reporters)
	snapshotService := service.NewSnapshotService(snapshotRepo, store, manager)
	catalogService := service.NewCatalogService(store, service.NewChromeRenderer(cfg.ChromePath, cfg.HTTPTimeout), nil)

	if _, err := snapshotService.Restore(ctx); err != nil {
		log.Printf("⚠️  Initialize: snapshot restore incomplete: %v", err)
	}

	controllers := &router.Controllers{
		Admin:   controller.NewAdminController(a.Sync, store, book, snapshotService, feed),
		Catalog: controller.NewCatalogController(store, a.Sync, catalogService),
		Order:   controller.NewOrderController(book, a.Sync, orderService),
		Tab:     controller.NewTabController(manager, store, orderService),
		Report:  controller.NewReportController(book, orderService, transport),
	}
	a.Handler = router.SetupRoutes(controllers)

	if cfg.AutoInitialize {
		go func() {
			if err := a.Sync.Initialize(context.Background()); err != nil {
				log.Printf("⚠️  Initial load failed, retry with POST /admin/init: %v", err)
			}
		}()
	}
	return a, nil
}
