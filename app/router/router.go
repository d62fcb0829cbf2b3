package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"orderdesk/app/controller"
)

type Controllers struct {
	Admin   *controller.AdminController
	Catalog *controller.CatalogController
	Order   *controller.OrderController
	Tab     *controller.TabController
	Report  *controller.ReportController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// SetupRoutes builds the HTTP API. chi answers 405 for known paths with the
// wrong method.
func SetupRoutes(c *Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ping", pingHandler)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/init", c.Admin.Initialize)
		r.Get("/status", c.Admin.Status)
		r.Post("/snapshot", c.Admin.Snapshot)
		r.Post("/restore", c.Admin.Restore)
	})
	r.Get("/notifications", c.Admin.Notifications)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/products", c.Catalog.Products)
		r.Get("/customers", c.Catalog.Customers)
		r.Post("/reload", c.Catalog.Reload)
		r.Get("/pivot", c.Catalog.Pivot)
		r.Get("/pivot.html", c.Catalog.PivotHTML)
		r.Get("/pivot.pdf", c.Catalog.PivotPDF)
		r.Get("/pivot.png", c.Catalog.PivotPNG)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", c.Order.List)
		r.Post("/reload", c.Order.Reload)
		r.Get("/{serial}", c.Order.Get)
		r.Post("/{serial}/open", c.Order.Open)
	})

	r.Route("/tabs", func(r chi.Router) {
		r.Get("/", c.Tab.List)
		r.Post("/", c.Tab.Create)
		r.Post("/open", c.Tab.Open)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", c.Tab.Close)
			r.Put("/active", c.Tab.SetActive)
			r.Get("/session", c.Tab.GetSession)
			r.Put("/customer", c.Tab.SetCustomer)
			r.Post("/items", c.Tab.AddItem)
			r.Post("/items/batch", c.Tab.AddBatch)
			r.Put("/items/order", c.Tab.ReorderItems)
			r.Patch("/items/{lineId}", c.Tab.UpdateItem)
			r.Delete("/items/{lineId}", c.Tab.RemoveItem)
			r.Patch("/header", c.Tab.UpdateHeader)
			r.Post("/submit", c.Tab.Submit)
			r.Post("/clear", c.Tab.Clear)
		})
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/sales", c.Report.Sales)
		r.Get("/payments", c.Report.Payments)
		r.Get("/products", c.Report.Products)
		r.Get("/ledger", c.Report.Ledger)
	})
	r.Post("/shipments", c.Report.Ship)

	return r
}
