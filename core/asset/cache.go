package asset

import (
	"context"
	"io"
	"sync"

	"FableStudio/logger"
)

// DefaultDurationMs is the assumed duration of an asset whose buffer could
// not be resolved. Affected clips keep this length for layout and
// hit-testing and are skipped during scheduling.
const DefaultDurationMs int64 = 3000

// Loader resolves an asset id to its raw bytes.
type Loader func(ctx context.Context, assetID string) (io.ReadCloser, error)

// Cache resolves asset ids to decoded audio buffers and keeps them for the
// lifetime of the session. Each id is resolved at most once; a failed
// resolution is non-fatal and leaves the asset without a buffer.
type Cache struct {
	loader Loader

	mu       sync.RWMutex
	buffers  map[string]*Buffer
	resolved map[string]bool // ids already attempted, success or not
}

// NewCache creates a session asset cache backed by the given loader.
func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:   loader,
		buffers:  make(map[string]*Buffer),
		resolved: make(map[string]bool),
	}
}

// Get returns the decoded buffer for an asset id, or nil if the asset has
// not been resolved or its resolution failed.
func (c *Cache) Get(assetID string) *Buffer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buffers[assetID]
}

// DurationMs returns the total duration of an asset, falling back to
// DefaultDurationMs when no buffer is available.
func (c *Cache) DurationMs(assetID string) int64 {
	if buf := c.Get(assetID); buf != nil {
		return buf.DurationMs
	}
	return DefaultDurationMs
}

// Resolve fetches and decodes an asset once. Subsequent calls for the same
// id are no-ops, whether the first attempt succeeded or failed.
func (c *Cache) Resolve(ctx context.Context, assetID string) *Buffer {
	c.mu.Lock()
	if c.resolved[assetID] {
		buf := c.buffers[assetID]
		c.mu.Unlock()
		return buf
	}
	c.resolved[assetID] = true
	c.mu.Unlock()

	buf, err := c.load(ctx, assetID)
	if err != nil {
		logger.Warn("Asset resolution failed, clip will use assumed duration",
			logger.String("assetId", assetID),
			logger.ErrorField(err))
		return nil
	}

	c.mu.Lock()
	c.buffers[assetID] = buf
	c.mu.Unlock()

	logger.Debug("Asset resolved",
		logger.String("assetId", assetID),
		logger.Int64("durationMs", buf.DurationMs))
	return buf
}

// ResolveAll resolves every asset id in the list, skipping known ones.
func (c *Cache) ResolveAll(ctx context.Context, assetIDs []string) {
	for _, id := range assetIDs {
		c.Resolve(ctx, id)
	}
}

func (c *Cache) load(ctx context.Context, assetID string) (*Buffer, error) {
	r, err := c.loader(ctx, assetID)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeWAV(data)
}
