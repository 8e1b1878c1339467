package catalog

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// relatedNamer fetches a related entity's name by URL.
type relatedNamer interface {
	RelatedName(ctx context.Context, url string) (string, error)
}

// Lookup resolves related-entity references (URLs) to display names.
// It is shared by every resolution in a session, so each URL is fetched at
// most once. Failures are cached as Unknown and never surface as errors.
type Lookup struct {
	src     relatedNamer
	metrics *Metrics
	logger  *slog.Logger

	mu      sync.RWMutex
	names   map[string]string
	flights singleflight.Group
}

func newLookup(src relatedNamer, metrics *Metrics, logger *slog.Logger) *Lookup {
	return &Lookup{
		src:     src,
		metrics: metrics,
		logger:  logger,
		names:   make(map[string]string),
	}
}

// Name returns the display name for url. A cached name returns immediately,
// a pending fetch is joined, otherwise the name is fetched and cached.
func (l *Lookup) Name(ctx context.Context, url string) string {
	if url == "" {
		return Unknown
	}
	if name, ok := l.get(url); ok {
		l.metrics.cache(cacheRelated, resultHit)
		return name
	}
	l.metrics.cache(cacheRelated, resultMiss)

	v, _, shared := l.flights.Do(url, func() (any, error) {
		if name, ok := l.get(url); ok {
			return name, nil
		}

		l.metrics.InFlight.Inc()
		name, err := l.src.RelatedName(ctx, url)
		l.metrics.InFlight.Dec()
		l.metrics.remote("related", err)

		if err != nil {
			l.logger.Warn("catalog: related lookup failed", "url", url, "err", err)
			name = Unknown
		} else if name == "" {
			name = Unknown
		}

		l.mu.Lock()
		l.names[url] = name
		l.mu.Unlock()
		return name, nil
	})
	if shared {
		l.metrics.cache(cacheRelated, resultShare)
	}
	return v.(string)
}

// Cached returns the name for url without fetching.
func (l *Lookup) Cached(url string) (string, bool) {
	return l.get(url)
}

// Len returns the number of cached names.
func (l *Lookup) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.names)
}

// Purge clears all cached names.
func (l *Lookup) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.names)
}

func (l *Lookup) get(url string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	name, ok := l.names[url]
	return name, ok
}
