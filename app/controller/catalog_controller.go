package controller

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"orderdesk/catalog"
	"orderdesk/pivot"
	"orderdesk/service"
)

const defaultSearchLimit = 50

// CatalogPrinter renders the pivot tables
type CatalogPrinter interface {
	Pivot() *pivot.Catalog
	RenderPivotHTML(ctx context.Context) (string, error)
	GeneratePDF(ctx context.Context) ([]byte, error)
	GeneratePNG(ctx context.Context, size string) ([]byte, string, error)
}

// CatalogController handles product and customer lookups and catalog printing
type CatalogController struct {
	catalog *catalog.Store
	sync    service.SyncServiceInterface
	printer CatalogPrinter
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(store *catalog.Store, sync service.SyncServiceInterface, printer CatalogPrinter) *CatalogController {
	return &CatalogController{catalog: store, sync: sync, printer: printer}
}

func searchLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultSearchLimit
}

// Products handles GET /catalog/products?q=&limit=
func (c *CatalogController) Products(w http.ResponseWriter, r *http.Request) {
	products := c.catalog.SearchProducts(r.URL.Query().Get("q"), searchLimit(r))
	writeJSON(w, "Products", http.StatusOK, products)
}

// Customers handles GET /catalog/customers?q=&limit=
func (c *CatalogController) Customers(w http.ResponseWriter, r *http.Request) {
	customers := c.catalog.SearchCustomers(r.URL.Query().Get("q"), searchLimit(r))
	writeJSON(w, "Customers", http.StatusOK, customers)
}

// Reload handles POST /catalog/reload
func (c *CatalogController) Reload(w http.ResponseWriter, r *http.Request) {
	if err := c.sync.ReloadCatalog(r.Context()); err != nil {
		writeError(w, "ReloadCatalog", err)
		return
	}
	writeJSON(w, "ReloadCatalog", http.StatusOK, c.catalog.Status())
}

// Pivot handles GET /catalog/pivot
func (c *CatalogController) Pivot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "Pivot", http.StatusOK, c.printer.Pivot())
}

// PivotHTML handles GET /catalog/pivot.html
func (c *CatalogController) PivotHTML(w http.ResponseWriter, r *http.Request) {
	html, err := c.printer.RenderPivotHTML(r.Context())
	if err != nil {
		writeError(w, "PivotHTML", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// PivotPDF handles GET /catalog/pivot.pdf
func (c *CatalogController) PivotPDF(w http.ResponseWriter, r *http.Request) {
	pdf, err := c.printer.GeneratePDF(r.Context())
	if err != nil {
		writeError(w, "PivotPDF", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.pdf"`)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
	log.Printf("✅ PivotPDF: sent %d bytes", len(pdf))
}

// PivotPNG handles GET /catalog/pivot.png?size=thumb|medium
func (c *CatalogController) PivotPNG(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := c.printer.GeneratePNG(r.Context(), r.URL.Query().Get("size"))
	if err != nil {
		writeError(w, "PivotPNG", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
