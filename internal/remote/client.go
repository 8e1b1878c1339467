// Package remote reads entities from a paginated REST catalog.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Defaults used when no option overrides them.
const (
	DefaultBaseURL  = "https://www.swapi.tech/api"
	DefaultResource = "people"
	DefaultTimeout  = 10 * time.Second
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// ListQuery selects one page of the collection.
type ListQuery struct {
	Page   int
	Limit  int
	Search string // Empty means no name filter.
}

// Client issues GET requests against the catalog endpoints.
type Client struct {
	baseURL   string
	resource  string
	timeout   time.Duration
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. "https://www.swapi.tech/api".
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithResource sets the collection path segment, e.g. "people".
func WithResource(r string) Option {
	return func(c *Client) { c.resource = strings.Trim(r, "/") }
}

// WithTimeout bounds every request. Expiry is reported as NetworkFailure.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		resource: DefaultResource,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// EntityURL returns the detail URL for id.
func (c *Client) EntityURL(id string) string {
	return c.baseURL + "/" + c.resource + "/" + url.PathEscape(id)
}

// List fetches one page of the collection, optionally filtered by name.
func (c *Client) List(ctx context.Context, q ListQuery) (ListResponse, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		params.Set("name", q.Search)
	}
	u := c.baseURL + "/" + c.resource + "?" + params.Encode()

	data, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	return decodeList(u, data)
}

// Entity fetches the full record for id.
func (c *Client) Entity(ctx context.Context, id string) (Entity, error) {
	u := c.EntityURL(id)
	data, err := c.get(ctx, u)
	if err != nil {
		return Entity{}, err
	}
	return decodeEntity(u, data)
}

// RelatedName fetches the record at an absolute related-entity URL and
// returns its name property.
func (c *Client) RelatedName(ctx context.Context, relatedURL string) (string, error) {
	data, err := c.get(ctx, relatedURL)
	if err != nil {
		return "", err
	}
	return decodeRelatedName(relatedURL, data)
}

// get performs a bounded GET and classifies every failure as a *FetchError.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Kind: NetworkFailure, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s", c.timeout)
		}
		c.logger.Debug("remote: request failed", "url", u, "err", err)
		return nil, &FetchError{Kind: NetworkFailure, URL: u, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("remote: response", "url", u, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &FetchError{Kind: NonOkStatus, Code: resp.StatusCode, URL: u}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Kind: NetworkFailure, URL: u, Err: err}
	}
	return data, nil
}
