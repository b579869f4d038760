package resolver

import (
	"context"
	"regexp"
	"strconv"
	"time"
)

// Stream URLs carry an expiry parameter like te=<unix seconds>.
var reExpiryParam = regexp.MustCompile(`te=(\d+)`)

// GetURL returns the cached manifest URL while it is still valid, and
// otherwise fetches a fresh one from the live page.
func (r *implResolver) GetURL(ctx context.Context, forceRefresh bool) (ManifestURL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !forceRefresh && r.cached.Value != "" && r.now().Before(r.cached.ExpiresAt) {
		r.logger.Info(ctx, "Using cached stream URL (still valid)")
		return r.cached, nil
	}

	r.logger.Info(ctx, "Fetching fresh stream URL...")
	url, err := r.fetch(ctx)
	if err != nil {
		return ManifestURL{}, err
	}

	r.cached = ManifestURL{
		Value:     url,
		ExpiresAt: r.expiryFor(url),
	}
	r.logger.Info(ctx, "Fresh URL obtained, valid until %s", r.cached.ExpiresAt.Format(time.RFC3339))
	return r.cached, nil
}

// Cached reports the last resolved manifest URL while it is still valid.
func (r *implResolver) Cached() (ManifestURL, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached.Value == "" || !r.now().Before(r.cached.ExpiresAt) {
		return ManifestURL{}, false
	}
	return r.cached, true
}

// expiryFor computes a conservative cache expiry: the configured TTL,
// bounded above by the expiry embedded in the URL when one is present.
func (r *implResolver) expiryFor(url string) time.Time {
	expiry := r.now().Add(r.cacheTTL)

	if embedded, ok := extractEmbeddedExpiry(url); ok && embedded.Before(expiry) {
		return embedded
	}
	return expiry
}

// extractEmbeddedExpiry parses the te= unix-seconds parameter from a
// manifest URL, when present.
func extractEmbeddedExpiry(url string) (time.Time, bool) {
	m := reExpiryParam.FindStringSubmatch(url)
	if m == nil {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}
