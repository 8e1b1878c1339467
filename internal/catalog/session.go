package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Defaults for a new Session.
const (
	DefaultRelatedField = "homeworld"
	DefaultPageCacheTTL = 5 * time.Minute
)

// Session owns every cache, pending set and store for one run of the
// application. Create it once at startup and Close it on exit.
type Session struct {
	id       string
	registry *prometheus.Registry
	metrics  *Metrics
	logger   *slog.Logger

	lister   *Lister
	resolver *Resolver
	lookup   *Lookup
	store    *Store
}

type sessionConfig struct {
	relatedField   string
	pageCacheTTL   time.Duration
	entityCacheMax int
	entityCacheTTL time.Duration
	logger         *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

// WithRelatedField sets the entity field that holds a related-entity URL.
// An empty name disables related lookups.
func WithRelatedField(field string) SessionOption {
	return func(c *sessionConfig) { c.relatedField = field }
}

// WithPageCacheTTL sets how long list pages are reused. Zero disables the
// page cache so every GetPage reads the remote.
func WithPageCacheTTL(ttl time.Duration) SessionOption {
	return func(c *sessionConfig) { c.pageCacheTTL = ttl }
}

// WithEntityCacheLimits bounds the resolver cache. Zero for either value
// means no limit.
func WithEntityCacheLimits(maxEntries int, ttl time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.entityCacheMax = maxEntries
		c.entityCacheTTL = ttl
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = l }
}

// NewSession wires a Session over src.
func NewSession(src Source, opts ...SessionOption) *Session {
	cfg := sessionConfig{
		relatedField: DefaultRelatedField,
		pageCacheTTL: DefaultPageCacheTTL,
	}
	for _, o := range opts {
		o(&cfg)
	}

	id := uuid.NewString()
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("session", id)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	store := NewStore()
	lookup := newLookup(src, metrics, logger)

	cache := NewCache(cfg.entityCacheMax, cfg.entityCacheTTL, func(entityID string) {
		if store.Forget(entityID) {
			logger.Debug("catalog: dropped edits of evicted entity", "id", entityID)
		}
	})

	return &Session{
		id:       id,
		registry: reg,
		metrics:  metrics,
		logger:   logger,
		lister:   newLister(src, cfg.pageCacheTTL, metrics, logger),
		resolver: &Resolver{
			src:          src,
			lookup:       lookup,
			overlay:      store,
			relatedField: cfg.relatedField,
			cache:        cache,
			metrics:      metrics,
			logger:       logger,
		},
		lookup: lookup,
		store:  store,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Registry returns the session's Prometheus registry.
func (s *Session) Registry() *prometheus.Registry { return s.registry }

// Metrics returns the session's collectors.
func (s *Session) Metrics() *Metrics { return s.metrics }

// Store returns the favorites and edit store.
func (s *Session) Store() *Store { return s.store }

// Lookup returns the shared related-name cache.
func (s *Session) Lookup() *Lookup { return s.lookup }

// GetPage returns one page of entity references.
func (s *Session) GetPage(ctx context.Context, pageNumber, pageSize int, searchTerm string) (Page, error) {
	return s.lister.GetPage(ctx, pageNumber, pageSize, searchTerm)
}

// Resolve returns the full detail for entityID with local edits overlaid.
func (s *Session) Resolve(ctx context.Context, entityID string) (EntityDetail, error) {
	return s.resolver.Resolve(ctx, entityID)
}

// Cached returns a resolved detail without touching the network.
func (s *Session) Cached(entityID string) (EntityDetail, bool) {
	return s.resolver.Cached(entityID)
}

// AddFavorite snapshots detail into the favorites collection.
func (s *Session) AddFavorite(detail EntityDetail) { s.store.AddFavorite(detail) }

// RemoveFavorite removes entityID from the favorites collection.
func (s *Session) RemoveFavorite(entityID string) { s.store.RemoveFavorite(entityID) }

// IsFavorite reports whether entityID is a favorite.
func (s *Session) IsFavorite(entityID string) bool { return s.store.IsFavorite(entityID) }

// ListFavorites returns the favorites in insertion order.
func (s *Session) ListFavorites() []FavoriteEntry { return s.store.ListFavorites() }

// ApplyEdit records a local override for one field.
func (s *Session) ApplyEdit(entityID, field, value string) {
	s.store.ApplyEdit(entityID, field, value)
}

// Edits returns the local edits for entityID.
func (s *Session) Edits(entityID string) []LocalEdit { return s.store.Edits(entityID) }

// Close releases every cache and clears the store. Fetches still in flight
// finish on their own; their results are discarded with the session.
func (s *Session) Close() error {
	s.lister.Purge()
	s.resolver.Purge()
	s.lookup.Purge()
	s.store.Reset()
	s.logger.Debug("catalog: session closed")
	return nil
}
