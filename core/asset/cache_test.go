package asset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
)

// countingLoader serves canned bytes per asset id and counts fetches.
type countingLoader struct {
	mu    sync.Mutex
	data  map[string][]byte
	calls map[string]int
}

func newCountingLoader(data map[string][]byte) *countingLoader {
	return &countingLoader{data: data, calls: make(map[string]int)}
}

func (l *countingLoader) load(ctx context.Context, assetID string) (io.ReadCloser, error) {
	l.mu.Lock()
	l.calls[assetID]++
	payload, ok := l.data[assetID]
	l.mu.Unlock()
	if !ok {
		return nil, errors.New("asset not found")
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (l *countingLoader) callCount(assetID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[assetID]
}

func TestResolveDecodesAndCaches(t *testing.T) {
	wav := buildWAV(t, 1, 8000, 8000) // one second of mono audio
	loader := newCountingLoader(map[string][]byte{"a": wav})
	c := NewCache(loader.load)

	buf := c.Resolve(context.Background(), "a")
	if buf == nil {
		t.Fatalf("Resolve returned nil for a decodable asset")
	}
	if buf.DurationMs != 1000 {
		t.Errorf("DurationMs = %d, want 1000", buf.DurationMs)
	}
	if got := c.Get("a"); got != buf {
		t.Errorf("Get returned a different buffer")
	}
	if got := c.DurationMs("a"); got != 1000 {
		t.Errorf("DurationMs = %d, want the decoded 1000", got)
	}
}

func TestResolveFetchesEachAssetOnce(t *testing.T) {
	wav := buildWAV(t, 1, 8000, 4000)
	loader := newCountingLoader(map[string][]byte{"a": wav})
	c := NewCache(loader.load)

	ctx := context.Background()
	c.Resolve(ctx, "a")
	c.Resolve(ctx, "a")
	c.ResolveAll(ctx, []string{"a", "a"})

	if got := loader.callCount("a"); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}
}

func TestFailedResolutionFallsBackToAssumedDuration(t *testing.T) {
	loader := newCountingLoader(map[string][]byte{})
	c := NewCache(loader.load)

	if buf := c.Resolve(context.Background(), "missing"); buf != nil {
		t.Fatalf("Resolve returned a buffer for a missing asset")
	}
	if got := c.Get("missing"); got != nil {
		t.Errorf("Get returned a buffer after a failed resolution")
	}
	if got := c.DurationMs("missing"); got != DefaultDurationMs {
		t.Errorf("DurationMs = %d, want the fallback %d", got, DefaultDurationMs)
	}

	// The failure is remembered; no retry storms.
	c.Resolve(context.Background(), "missing")
	if got := loader.callCount("missing"); got != 1 {
		t.Errorf("loader called %d times after a failure, want 1", got)
	}
}

func TestUndecodableAssetIsNonFatal(t *testing.T) {
	loader := newCountingLoader(map[string][]byte{"garbage": []byte("not a wav file")})
	c := NewCache(loader.load)

	if buf := c.Resolve(context.Background(), "garbage"); buf != nil {
		t.Fatalf("Resolve returned a buffer for undecodable bytes")
	}
	if got := c.DurationMs("garbage"); got != DefaultDurationMs {
		t.Errorf("DurationMs = %d, want the fallback %d", got, DefaultDurationMs)
	}
}
