package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/smileynet/roster/internal/remote"
)

// ErrInvalidPage is returned for a page number or size below 1.
var ErrInvalidPage = errors.New("catalog: page number and size must be positive")

// pageCacheSize bounds how many distinct (page, size, search) results are kept.
const pageCacheSize = 64

// pageLister lists one page of the remote collection.
type pageLister interface {
	List(ctx context.Context, q remote.ListQuery) (remote.ListResponse, error)
}

// Lister fetches pages of entity references.
//
// Callers that change the search term are expected to restart at page 1;
// Lister itself treats every (page, size, search) triple independently.
type Lister struct {
	src     pageLister
	pages   *expirable.LRU[string, Page] // nil when page caching is off
	metrics *Metrics
	logger  *slog.Logger
}

func newLister(src pageLister, ttl time.Duration, metrics *Metrics, logger *slog.Logger) *Lister {
	l := &Lister{src: src, metrics: metrics, logger: logger}
	if ttl > 0 {
		l.pages = expirable.NewLRU[string, Page](pageCacheSize, nil, ttl)
	}
	return l
}

// GetPage returns page pageNumber of size pageSize, filtered by name when
// searchTerm is non-blank. Failures are returned as-is and never cached.
func (l *Lister) GetPage(ctx context.Context, pageNumber, pageSize int, searchTerm string) (Page, error) {
	if pageNumber < 1 || pageSize < 1 {
		return Page{}, fmt.Errorf("%w: page=%d size=%d", ErrInvalidPage, pageNumber, pageSize)
	}
	search := strings.TrimSpace(searchTerm)
	key := fmt.Sprintf("%d|%d|%s", pageNumber, pageSize, search)

	if l.pages != nil {
		if p, ok := l.pages.Get(key); ok {
			l.metrics.cache(cachePage, resultHit)
			return p.clone(), nil
		}
		l.metrics.cache(cachePage, resultMiss)
	}

	l.metrics.InFlight.Inc()
	resp, err := l.src.List(ctx, remote.ListQuery{Page: pageNumber, Limit: pageSize, Search: search})
	l.metrics.InFlight.Dec()
	l.metrics.remote("list", err)
	if err != nil {
		l.logger.Debug("catalog: list failed", "page", pageNumber, "search", search, "err", err)
		return Page{}, err
	}

	p := buildPage(resp, pageNumber, pageSize, search)
	if l.pages != nil {
		l.pages.Add(key, p)
	}
	return p.clone(), nil
}

// Purge drops all cached pages.
func (l *Lister) Purge() {
	if l.pages != nil {
		l.pages.Purge()
	}
}

// buildPage normalizes either response shape into a Page.
func buildPage(resp remote.ListResponse, number, size int, search string) Page {
	refs := remote.Normalize(resp)
	p := Page{
		Number: number,
		Size:   size,
		Search: search,
		Items:  make([]EntityReference, len(refs)),
	}
	for i, r := range refs {
		p.Items[i] = EntityReference{ID: r.UID, Name: r.Name, URL: r.URL}
	}

	switch v := resp.(type) {
	case remote.Paginated:
		p.TotalPages = v.TotalPages
		p.TotalRecords = v.TotalRecords
		p.HasNext = v.Next != "" || (v.TotalPages > 0 && number < v.TotalPages)
		p.HasPrevious = v.Previous != "" || number > 1
	case remote.SearchResult:
		// Search answers are a single unpaginated page.
		p.TotalPages = 1
		p.TotalRecords = len(p.Items)
	}
	return p
}
