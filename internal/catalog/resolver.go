package catalog

import (
	"context"
	"errors"
	"log/slog"
	"maps"

	"golang.org/x/sync/singleflight"

	"github.com/smileynet/roster/internal/remote"
)

// ErrEmptyID is returned when Resolve is called without an entity ID.
var ErrEmptyID = errors.New("catalog: empty entity ID")

// entityFetcher fetches a full entity by ID.
type entityFetcher interface {
	Entity(ctx context.Context, id string) (remote.Entity, error)
}

// overlayer applies local edits to a resolved detail.
type overlayer interface {
	Overlay(d EntityDetail) EntityDetail
}

// Resolver expands entity IDs into full details. Concurrent callers for the
// same ID share one remote fetch; successful results are cached, failures
// are not, so a later call retries.
type Resolver struct {
	src          entityFetcher
	lookup       *Lookup
	overlay      overlayer
	relatedField string
	cache        *Cache
	metrics      *Metrics
	logger       *slog.Logger

	flights singleflight.Group // pending set keyed by entity ID
}

// Resolve returns the detail for entityID with current local edits overlaid.
//
// Cancelling ctx stops the wait, not the fetch: the in-flight resolution runs
// to completion (bounded by the remote timeout) and its result is cached.
func (r *Resolver) Resolve(ctx context.Context, entityID string) (EntityDetail, error) {
	if entityID == "" {
		return EntityDetail{}, ErrEmptyID
	}

	if d, ok := r.cache.Get(entityID); ok {
		r.metrics.cache(cacheEntity, resultHit)
		return r.overlay.Overlay(d), nil
	}
	r.metrics.cache(cacheEntity, resultMiss)

	fetchCtx := context.WithoutCancel(ctx)
	ch := r.flights.DoChan(entityID, func() (any, error) {
		return r.fetch(fetchCtx, entityID)
	})

	select {
	case res := <-ch:
		if res.Shared {
			r.metrics.cache(cacheEntity, resultShare)
		}
		if res.Err != nil {
			return EntityDetail{}, res.Err
		}
		return r.overlay.Overlay(res.Val.(EntityDetail)), nil
	case <-ctx.Done():
		return EntityDetail{}, ctx.Err()
	}
}

// Cached returns the cached detail with edits overlaid, without fetching.
func (r *Resolver) Cached(entityID string) (EntityDetail, bool) {
	d, ok := r.cache.Get(entityID)
	if !ok {
		return EntityDetail{}, false
	}
	return r.overlay.Overlay(d), true
}

// Purge empties the entity cache.
func (r *Resolver) Purge() {
	r.cache.Invalidate()
}

// fetch runs inside the flight for entityID. The flight entry is removed by
// singleflight when fetch returns, whatever the outcome.
func (r *Resolver) fetch(ctx context.Context, entityID string) (EntityDetail, error) {
	// A caller that missed the cache just before the previous flight stored
	// its result lands here; serve it without a second request.
	if d, ok := r.cache.Get(entityID); ok {
		return d, nil
	}

	r.metrics.InFlight.Inc()
	e, err := r.src.Entity(ctx, entityID)
	r.metrics.InFlight.Dec()
	r.metrics.remote("entity", err)
	if err != nil {
		r.logger.Debug("catalog: resolve failed", "id", entityID, "err", err)
		return EntityDetail{}, err
	}

	d := EntityDetail{
		ID:           entityID,
		Fields:       maps.Clone(e.Properties),
		RelatedField: r.relatedField,
	}
	if d.Fields == nil {
		d.Fields = make(map[string]string)
	}
	if ref := d.Fields[r.relatedField]; r.relatedField != "" && ref != "" {
		d.RelatedName = r.lookup.Name(ctx, ref)
	}

	r.cache.Set(entityID, d)
	r.logger.Debug("catalog: resolved", "id", entityID, "name", d.Fields["name"], "related", d.RelatedName)
	return d, nil
}
