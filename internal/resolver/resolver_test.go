package resolver

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/monitoragent/stream-monitor/internal/logger"
)

func newTestResolver(fetch func(ctx context.Context) (string, error)) *implResolver {
	r := &implResolver{
		pageURL:  "https://example.com/live",
		cacheTTL: 15 * time.Minute,
		logger:   logger.Discard(),
		fetch:    fetch,
		now:      time.Now,
	}
	return r
}

func TestGetURLCaching(t *testing.T) {
	ctx := context.Background()
	fetches := 0
	r := newTestResolver(func(ctx context.Context) (string, error) {
		fetches++
		return "https://cdn.example.com/manifest.m3u8", nil
	})

	first, err := r.GetURL(ctx, false)
	if err != nil {
		t.Fatalf("GetURL() error = %v", err)
	}

	// Repeated calls within the cache window never fetch again.
	for i := 0; i < 5; i++ {
		got, err := r.GetURL(ctx, false)
		if err != nil {
			t.Fatalf("GetURL() error = %v", err)
		}
		if got != first {
			t.Errorf("cached URL changed: %v != %v", got, first)
		}
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
}

func TestGetURLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	fetches := 0
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newTestResolver(func(ctx context.Context) (string, error) {
		fetches++
		return "https://cdn.example.com/manifest.m3u8", nil
	})
	r.now = func() time.Time { return now }

	if _, err := r.GetURL(ctx, false); err != nil {
		t.Fatalf("GetURL() error = %v", err)
	}

	// After the window elapses, the next call triggers exactly one fetch.
	now = now.Add(16 * time.Minute)
	if _, err := r.GetURL(ctx, false); err != nil {
		t.Fatalf("GetURL() error = %v", err)
	}
	if fetches != 2 {
		t.Errorf("fetches = %d, want 2", fetches)
	}
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newTestResolver(func(ctx context.Context) (string, error) {
		return "https://cdn.example.com/manifest.m3u8", nil
	})
	r.now = func() time.Time { return now }

	if _, ok := r.Cached(); ok {
		t.Fatal("Cached() ok before any resolution")
	}

	want, err := r.GetURL(ctx, false)
	if err != nil {
		t.Fatalf("GetURL() error = %v", err)
	}
	if got, ok := r.Cached(); !ok || got != want {
		t.Errorf("Cached() = %v, %v, want %v, true", got, ok, want)
	}

	// Expired entries are not reported.
	now = now.Add(16 * time.Minute)
	if _, ok := r.Cached(); ok {
		t.Error("Cached() ok after expiry")
	}
}

func TestGetURLForceRefresh(t *testing.T) {
	ctx := context.Background()
	fetches := 0
	r := newTestResolver(func(ctx context.Context) (string, error) {
		fetches++
		return "https://cdn.example.com/manifest.m3u8", nil
	})

	if _, err := r.GetURL(ctx, false); err != nil {
		t.Fatalf("GetURL() error = %v", err)
	}
	if _, err := r.GetURL(ctx, true); err != nil {
		t.Fatalf("GetURL(force) error = %v", err)
	}
	if fetches != 2 {
		t.Errorf("fetches = %d, want 2", fetches)
	}
}

func TestGetURLFetchError(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(func(ctx context.Context) (string, error) {
		return "", ErrNoManifestFound
	})

	_, err := r.GetURL(ctx, false)
	if !errors.Is(err, ErrNoManifestFound) {
		t.Errorf("GetURL() error = %v, want ErrNoManifestFound", err)
	}
}

func TestExpiryBoundedByEmbeddedExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newTestResolver(nil)
	r.now = func() time.Time { return now }

	// Embedded expiry sooner than the TTL wins.
	soon := now.Add(5 * time.Minute)
	url := "https://cdn.example.com/manifest.m3u8?te=" + formatUnix(soon)
	if got := r.expiryFor(url); !got.Equal(soon) {
		t.Errorf("expiryFor() = %v, want embedded %v", got, soon)
	}

	// Embedded expiry beyond the TTL is ignored.
	late := now.Add(2 * time.Hour)
	url = "https://cdn.example.com/manifest.m3u8?te=" + formatUnix(late)
	if got := r.expiryFor(url); !got.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("expiryFor() = %v, want TTL bound %v", got, now.Add(15*time.Minute))
	}

	// No embedded expiry falls back to the TTL.
	if got := r.expiryFor("https://cdn.example.com/manifest.m3u8"); !got.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("expiryFor() = %v, want %v", got, now.Add(15*time.Minute))
	}
}

func formatUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
