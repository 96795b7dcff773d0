// Package remote talks to the bookmark processing/search service.
//
// Each operation performs exactly one HTTP exchange. Success bodies are
// decoded and passed through the matching normalize function; any non-2xx
// answer becomes a *StatusError and its body is left unread.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/brainsync/internal/domain"
	"github.com/MrSnakeDoc/brainsync/internal/logger"
	"github.com/MrSnakeDoc/brainsync/internal/normalize"
	"github.com/MrSnakeDoc/brainsync/internal/utils"
)

const (
	DefaultTimeout     = 15 * time.Second
	DefaultSearchLimit = 10
	DefaultTagsLimit   = 20
)

// Options configures a Client.
type Options struct {
	BaseURL string        // ex: http://192.168.1.40:8090
	Timeout time.Duration // per-request deadline, 0 = DefaultTimeout

	// IncludeNSFW is sent with every search request.
	IncludeNSFW bool

	// HTTPClient overrides the default transport (tests, proxies).
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	baseURL     *url.URL
	timeout     time.Duration
	includeNSFW bool
	http        *http.Client
	logger      logger.Logger
}

// New validates opts and builds a Client.
func New(opts Options, log logger.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}

	return &Client{
		baseURL:     base,
		timeout:     timeout,
		includeNSFW: opts.IncludeNSFW,
		http:        httpClient,
		logger:      log,
	}, nil
}

// BaseURL returns the service root the client was configured with.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// ─────────────────────────────────────────────────────────────────
// Bookmarks
// ─────────────────────────────────────────────────────────────────

// List fetches the bookmark listing for the given filters.
func (c *Client) List(ctx context.Context, filters domain.Filters) ([]domain.Bookmark, error) {
	v, err := c.do(ctx, "list bookmarks", http.MethodGet, "/bookmarks", filters.Query(), nil, true)
	if err != nil {
		return nil, err
	}
	return normalize.Bookmarks(v), nil
}

// Get fetches a single bookmark.
func (c *Client) Get(ctx context.Context, id int64) (domain.Bookmark, error) {
	v, err := c.do(ctx, "get bookmark", http.MethodGet, bookmarkPath(id), nil, nil, true)
	if err != nil {
		return domain.Bookmark{}, err
	}
	return normalize.Bookmark(v), nil
}

// Add submits a URL and returns the representation the service produced
// immediately, usually still pending or processing.
func (c *Client) Add(ctx context.Context, rawURL string) (domain.Bookmark, error) {
	body := struct {
		URL string `json:"url"`
	}{URL: rawURL}

	v, err := c.do(ctx, "add bookmark", http.MethodPost, "/bookmarks", nil, body, true)
	if err != nil {
		return domain.Bookmark{}, err
	}
	return normalize.Bookmark(v), nil
}

// Remove deletes a bookmark. The response body is ignored.
func (c *Client) Remove(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "delete bookmark", http.MethodDelete, bookmarkPath(id), nil, nil, false)
	return err
}

// ─────────────────────────────────────────────────────────────────
// Stats
// ─────────────────────────────────────────────────────────────────

// Stats fetches the processing counters.
func (c *Client) Stats(ctx context.Context) (domain.ProcessingStats, error) {
	v, err := c.do(ctx, "get stats", http.MethodGet, "/stats/processing", nil, nil, true)
	if err != nil {
		return domain.ProcessingStats{}, err
	}
	return normalize.Stats(v), nil
}

// Categories fetches per-category counts.
func (c *Client) Categories(ctx context.Context) ([]domain.CategoryStats, error) {
	v, err := c.do(ctx, "get categories", http.MethodGet, "/stats/categories", nil, nil, true)
	if err != nil {
		return nil, err
	}
	return normalize.Categories(v), nil
}

// Tags fetches the most used tags. limit <= 0 uses DefaultTagsLimit.
func (c *Client) Tags(ctx context.Context, limit int) ([]domain.TagStats, error) {
	if limit <= 0 {
		limit = DefaultTagsLimit
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}

	v, err := c.do(ctx, "get tags", http.MethodGet, "/stats/tags", q, nil, true)
	if err != nil {
		return nil, err
	}
	return normalize.Tags(v), nil
}

// ─────────────────────────────────────────────────────────────────
// Search & health
// ─────────────────────────────────────────────────────────────────

type searchRequest struct {
	Query       string `json:"query"`
	Limit       int    `json:"limit"`
	IncludeNSFW bool   `json:"include_nsfw"`
}

// Search runs a ranked search. The service only accepts a JSON body on
// POST /search; a query-string GET is rejected with 405.
func (c *Client) Search(ctx context.Context, query string, limit int) (normalize.SearchResponse, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	body := searchRequest{Query: query, Limit: limit, IncludeNSFW: c.includeNSFW}

	v, err := c.do(ctx, "search", http.MethodPost, "/search", nil, body, true)
	if err != nil {
		return normalize.SearchResponse{}, err
	}
	return normalize.SearchResults(v), nil
}

// Health returns nil when the service answers /health with a 2xx.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, false)
	return err
}

// ─────────────────────────────────────────────────────────────────
// Transport
// ─────────────────────────────────────────────────────────────────

func bookmarkPath(id int64) string {
	return "/bookmarks/" + strconv.FormatInt(id, 10)
}

// do performs one exchange. With decode set, a 2xx body is decoded into a
// generic value (numbers kept as json.Number); an empty body decodes to nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, decode bool) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("remote request failed",
			logger.String("op", op),
			logger.String("method", method),
			logger.String("path", path),
			logger.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer utils.DrainClose(resp.Body)

	c.logger.Debug("remote request",
		logger.String("op", op),
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(op, resp)
	}
	if !decode {
		return nil, nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return v, nil
}
