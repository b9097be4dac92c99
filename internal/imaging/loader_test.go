package imaging

import (
	"errors"
	"image"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/handseg-mcp/internal/segerr"
)

func TestImageCache_Load(t *testing.T) {
	path := writePNG(t, "page.png", createPage(64, 32))
	cache := NewImageCache()

	img, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 32), img.Bounds())
	assert.Equal(t, 1, cache.Len())

	again, err := cache.Load(path)
	require.NoError(t, err)
	assert.Same(t, img.(*image.RGBA), again.(*image.RGBA))
}

func TestImageCache_NotFound(t *testing.T) {
	cache := NewImageCache()
	missing := filepath.Join(t.TempDir(), "nope.png")

	_, err := cache.Load(missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, segerr.ErrPageNotFound))

	_, err = cache.LoadWord(missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, segerr.ErrWordNotFound))
	assert.Zero(t, cache.Len())
}

func TestImageCache_Undecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, SavePNG(createPage(2, 2), path))
	require.NoError(t, writeBytes(path, []byte("not an image")))

	_, err := NewImageCache().Load(path)
	assert.True(t, errors.Is(err, segerr.ErrPageNotFound))
}

func TestImageCache_EvictAndClear(t *testing.T) {
	a := writePNG(t, "a.png", createPage(4, 4))
	b := writePNG(t, "b.png", createPage(4, 4))
	cache := NewImageCache()

	_, err := cache.Load(a)
	require.NoError(t, err)
	_, err = cache.Load(b)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	cache.Evict(a)
	assert.Equal(t, 1, cache.Len())
	cache.Evict("never-loaded")
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Zero(t, cache.Len())
}

func TestImageCache_ConcurrentLoad(t *testing.T) {
	path := writePNG(t, "page.png", createPage(16, 16))
	cache := NewImageCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Load(path)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, cache.Len())
}

func TestLoadPageInfo(t *testing.T) {
	path := writePNG(t, "page.png", createPage(200, 100))

	info, err := LoadPageInfo(NewImageCache(), path, 512)
	require.NoError(t, err)

	assert.Equal(t, 200, info.Width)
	assert.Equal(t, 100, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 3, info.Channels)
	assert.Equal(t, 512, info.ScaledHeight)
	assert.Equal(t, 1024, info.ScaledWidth)
	assert.Positive(t, info.FileSizeBytes)
}

func TestLoadPageInfo_GrayPage(t *testing.T) {
	path := writePNG(t, "gray.png", image.NewGray(image.Rect(0, 0, 10, 10)))

	info, err := LoadPageInfo(NewImageCache(), path, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, 10, info.ScaledHeight)
}
