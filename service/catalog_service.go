package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"orderdesk/catalog"
	"orderdesk/models"
	"orderdesk/pivot"
	"orderdesk/pricing"
	"orderdesk/utils"
)

//go:embed templates/pivot.html
var templateFS embed.FS

var pivotTemplate = template.Must(template.ParseFS(templateFS, "templates/pivot.html"))

// Renderer turns an HTML document into a PDF or a PNG screenshot
type Renderer interface {
	PDF(ctx context.Context, html string) ([]byte, error)
	PNG(ctx context.Context, html string) ([]byte, error)
}

// CatalogService renders the pivot tables of the product catalog
type CatalogService struct {
	catalog  *catalog.Store
	renderer Renderer
	cache    *PreviewCache
	now      func() time.Time
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(store *catalog.Store, renderer Renderer, cache *PreviewCache) *CatalogService {
	if cache == nil {
		cache = NewPreviewCache("")
	}
	return &CatalogService{catalog: store, renderer: renderer, cache: cache, now: time.Now}
}

// Pivot groups the current products into tables
func (s *CatalogService) Pivot() *pivot.Catalog {
	return pivot.Group(s.catalog.Products())
}

type cellView struct {
	Filled bool
	Active bool
	Code   string
	Name   string
	Price  string
}

type rowView struct {
	Title string
	Cells []cellView
}

type tableView struct {
	Title string
	Cols  []string
	Rows  []rowView
}

func buildTableViews(c *pivot.Catalog) []tableView {
	views := make([]tableView, 0, len(c.Tables))
	for _, t := range c.Tables {
		v := tableView{Title: t.Title, Cols: t.Cols}
		for i, row := range t.Grid() {
			rv := rowView{Title: t.Rows[i]}
			for _, p := range row {
				if p == nil {
					rv.Cells = append(rv.Cells, cellView{})
					continue
				}
				rv.Cells = append(rv.Cells, cellView{
					Filled: true,
					Active: p.State == models.ProductStateActive,
					Code:   p.Code,
					Name:   p.DisplayName(),
					Price:  utils.FormatNTD(pricing.ResolvePrice(*p)),
				})
			}
			v.Rows = append(v.Rows, rv)
		}
		views = append(views, v)
	}
	return views
}

// RenderPivotHTML renders the catalog tables as a printable page
func (s *CatalogService) RenderPivotHTML(ctx context.Context) (string, error) {
	data := struct {
		Title     string
		Generated string
		Tables    []tableView
	}{
		Title:     "Product catalog",
		Generated: s.now().Format("2006-01-02 15:04"),
		Tables:    buildTableViews(s.Pivot()),
	}
	var buf bytes.Buffer
	if err := pivotTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// GeneratePDF prints the pivot page
func (s *CatalogService) GeneratePDF(ctx context.Context) ([]byte, error) {
	html, err := s.RenderPivotHTML(ctx)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.PDF(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	log.Printf("✅ GeneratePDF: %d bytes", len(pdf))
	return pdf, nil
}

// GeneratePNG screenshots the pivot page. With a size the screenshot is
// shrunk to a JPEG preview and cached by page content.
func (s *CatalogService) GeneratePNG(ctx context.Context, size string) (data []byte, contentType string, err error) {
	html, err := s.RenderPivotHTML(ctx)
	if err != nil {
		return nil, "", err
	}

	var key string
	var preview PreviewSize
	if size != "" {
		preview = ParsePreviewSize(size)
		key, err = s.contentKey()
		if err != nil {
			return nil, "", err
		}
		if cached, ok := s.cache.Get(key, preview); ok {
			log.Printf("✓ GeneratePNG: cache hit %s", s.cache.Path(key, preview))
			return cached, "image/jpeg", nil
		}
	}

	shot, err := s.renderer.PNG(ctx, html)
	if err != nil {
		return nil, "", fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if size == "" {
		return shot, "image/png", nil
	}

	optimized, err := OptimizeImage(shot, preview)
	if err != nil {
		return nil, "", err
	}
	if err := s.cache.Put(key, preview, optimized); err != nil {
		log.Printf("⚠️  GeneratePNG: %v", err)
	}
	return optimized, "image/jpeg", nil
}

// contentKey hashes the grouped tables so identical catalogs share a cache entry
func (s *CatalogService) contentKey() (string, error) {
	raw, err := json.Marshal(s.Pivot())
	if err != nil {
		return "", fmt.Errorf("failed to encode pivot: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8]), nil
}

// ChromeRenderer renders with a headless Chrome through chromedp
type ChromeRenderer struct {
	chromePath string
	timeout    time.Duration
}

// NewChromeRenderer creates a renderer. An empty path is auto-detected.
func NewChromeRenderer(chromePath string, timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{chromePath: detectChromePath(chromePath), timeout: timeout}
}

// detectChromePath checks the configured path, then common installation paths
func detectChromePath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
		log.Printf("⚠️  CHROME_PATH %s not found, probing common paths", configured)
	}
	for _, path := range []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (r *ChromeRenderer) run(ctx context.Context, html string, capture chromedp.Action) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	return chromedp.Run(chromeCtx,
		chromedp.EmulateViewport(1123, 794),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(`document.fonts.ready`, nil),
		capture,
	)
}

// PDF prints the document on A4 landscape
func (r *ChromeRenderer) PDF(ctx context.Context, html string) ([]byte, error) {
	var pdf []byte
	err := r.run(ctx, html, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		pdf, _, err = page.PrintToPDF().
			WithPrintBackground(true).
			WithLandscape(true).
			WithPaperWidth(8.27).
			WithPaperHeight(11.69).
			WithPreferCSSPageSize(true).
			Do(ctx)
		return err
	}))
	return pdf, err
}

// PNG captures the full page
func (r *ChromeRenderer) PNG(ctx context.Context, html string) ([]byte, error) {
	var buf []byte
	// quality 100 keeps PNG encoding
	err := r.run(ctx, html, chromedp.FullScreenshot(&buf, 100))
	return buf, err
}
