package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ironsheep/handseg-mcp/internal/segerr"
)

// ImageCache provides thread-safe caching of decoded page and word images.
//
// Decoding is the I/O collaborator of the segmentation pipeline: a missing or
// undecodable page surfaces as segerr.KindPageNotFound (or KindWordNotFound
// for word images) and is never retried.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
// Batch runs over many pages should evict each page once it is processed.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves a page image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG, and GIF. The image is cached under the
// exact path string provided.
//
// # Errors
//
//   - segerr.KindPageNotFound if the file cannot be opened or decoded
func (c *ImageCache) Load(path string) (image.Image, error) {
	return c.load(path, segerr.KindPageNotFound)
}

// LoadWord is Load for a standalone word image; failures are reported as
// segerr.KindWordNotFound.
func (c *ImageCache) LoadWord(path string) (image.Image, error) {
	return c.load(path, segerr.KindWordNotFound)
}

func (c *ImageCache) load(path string, kind segerr.Kind) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, segerr.Wrap(kind, "load", fmt.Errorf("failed to open image: %w", err))
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, segerr.Wrap(kind, "load", fmt.Errorf("failed to decode image %s: %w", path, err))
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len reports how many images are cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// PageInfo describes a loaded page before segmentation.
type PageInfo struct {
	// Width is the page width in pixels.
	Width int `json:"width"`

	// Height is the page height in pixels.
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif", or "unknown", from the file extension.
	Format string `json:"format"`

	// Channels is 1 for single-channel rasters and 3 otherwise. Pages with
	// more than one channel are converted to intensity before segmentation.
	Channels int `json:"channels"`

	// ScaledWidth is the page width after rescaling to the reference height.
	ScaledWidth int `json:"scaled_width"`

	// ScaledHeight is the reference height, or Height when rescaling is off.
	ScaledHeight int `json:"scaled_height"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadPageInfo loads a page through the cache and reports its geometry at
// native and reference scale.
func LoadPageInfo(cache *ImageCache, path string, refHeight int) (*PageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, segerr.Wrap(segerr.KindPageNotFound, "load", fmt.Errorf("failed to stat file: %w", err))
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	channels := 3
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		channels = 1
	}

	b := img.Bounds()
	info := &PageInfo{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        format,
		Channels:      channels,
		ScaledWidth:   b.Dx(),
		ScaledHeight:  b.Dy(),
		FileSizeBytes: stat.Size(),
	}
	if refHeight > 0 && b.Dy() > 0 {
		info.ScaledHeight = refHeight
		info.ScaledWidth = int(float64(b.Dx())*float64(refHeight)/float64(b.Dy()) + 0.5)
	}
	return info, nil
}
