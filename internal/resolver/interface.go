package resolver

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoManifestFound means the page loaded but no request matching the
	// manifest pattern was observed within the bounded wait.
	ErrNoManifestFound = errors.New("no manifest URL found")

	// ErrNavigationFailed means the page itself could not be loaded.
	ErrNavigationFailed = errors.New("page navigation failed")
)

// ManifestURL is a time-limited media access URL. Immutable once issued;
// a refresh supersedes it with a new value.
type ManifestURL struct {
	Value     string
	ExpiresAt time.Time
}

// Resolver obtains and caches the stream manifest URL. It never retries
// internally; retry policy belongs to the caller.
type Resolver interface {
	GetURL(ctx context.Context, forceRefresh bool) (ManifestURL, error)

	// Cached returns the last resolved manifest URL without fetching.
	// ok is false when nothing has been resolved yet or the cached
	// value has expired.
	Cached() (ManifestURL, bool)
}
