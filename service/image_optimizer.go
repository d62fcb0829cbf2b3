package service

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// PreviewSize selects the dimensions of a catalog preview image
type PreviewSize string

const (
	PreviewThumb  PreviewSize = "thumb"
	PreviewMedium PreviewSize = "medium"
)

const (
	// DefaultCacheDir holds rendered previews between requests
	DefaultCacheDir = "cache/previews"

	qualityThumb  = 60
	qualityMedium = 75
	// max dimension
	maxSizeThumb  = 300
	maxSizeMedium = 800
)

// ParsePreviewSize maps a query value to a size; anything unknown is medium
func ParsePreviewSize(raw string) PreviewSize {
	if PreviewSize(raw) == PreviewThumb {
		return PreviewThumb
	}
	if raw != "" && PreviewSize(raw) != PreviewMedium {
		log.Printf("⚠️  Unknown size '%s', defaulting to medium", raw)
	}
	return PreviewMedium
}

// OptimizeImage decodes a PNG or JPEG screenshot, shrinks it so the longer side
// fits the size and re-encodes it as JPEG.
func OptimizeImage(imageData []byte, size PreviewSize) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	maxDim, quality := maxSizeMedium, qualityMedium
	if size == PreviewThumb {
		maxDim, quality = maxSizeThumb, qualityThumb
	}

	var out image.Image = img
	b := img.Bounds()
	if b.Dx() > maxDim || b.Dy() > maxDim {
		// 0 keeps the aspect ratio
		if b.Dx() >= b.Dy() {
			out = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			out = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
		log.Printf("🔄 Resizing %s preview: %dx%d -> %dx%d", format, b.Dx(), b.Dy(), out.Bounds().Dx(), out.Bounds().Dy())
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	log.Printf("✓ Preview optimized: size=%s, quality=%d, output_size=%d bytes", size, quality, buf.Len())
	return buf.Bytes(), nil
}

// PreviewCache stores optimized previews on disk keyed by content hash and size
type PreviewCache struct {
	dir string
}

// NewPreviewCache creates a cache rooted at dir
func NewPreviewCache(dir string) *PreviewCache {
	if dir == "" {
		dir = DefaultCacheDir
	}
	return &PreviewCache{dir: dir}
}

// Path returns the file for a key and size
func (c *PreviewCache) Path(key string, size PreviewSize) string {
	return filepath.Join(c.dir, fmt.Sprintf("pivot_%s_%s.jpg", key, size))
}

// Get reads a cached preview
func (c *PreviewCache) Get(key string, size PreviewSize) ([]byte, bool) {
	data, err := os.ReadFile(c.Path(key, size))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes a preview, creating the cache directory if needed
func (c *PreviewCache) Put(key string, size PreviewSize, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	path := c.Path(key, size)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	log.Printf("✓ Preview cached: %s", path)
	return nil
}
