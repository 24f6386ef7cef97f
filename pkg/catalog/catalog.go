package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/andesco/catalogproxy/pkg/config"

	log "github.com/sirupsen/logrus"
)

// TopTag selects the scraped top-250 listing instead of the search API.
const TopTag = "top250"

const (
	acceptJSON = "application/json, text/plain, */*"
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Item is a single normalized catalog entry.
type Item struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Poster string `json:"poster"`
	Rate   string `json:"rate"`
	Year   string `json:"year"`
}

// Result is the success envelope returned to clients.
type Result struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	List    []Item `json:"list"`
}

// ErrorResponse is the failure envelope returned to clients.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Lister returns the items selected by a validated query.
type Lister interface {
	List(ctx context.Context, q Query) ([]Item, error)
}

// Client fetches and normalizes catalog data from the upstream site.
type Client struct {
	SearchURL string
	TopURL    string
	Referer   string
	UserAgent string
	Timeout   time.Duration
	Images    ImageRewriter

	httpClient *http.Client
}

// NewClient builds a Client from the upstream and image settings.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		SearchURL: cfg.Upstream.SearchURL,
		TopURL:    cfg.Upstream.TopURL,
		Referer:   cfg.Upstream.Referer,
		UserAgent: cfg.Upstream.UserAgent,
		Timeout:   cfg.Upstream.Timeout,
		Images: ImageRewriter{
			Host:  cfg.Images.Host,
			Proxy: cfg.Images.Proxy,
		},
		httpClient: &http.Client{},
	}
}

// List dispatches q to the scrape or search strategy.
func (c *Client) List(ctx context.Context, q Query) ([]Item, error) {
	if q.IsTop() {
		return c.Top(ctx, q.PageStart)
	}
	return c.Search(ctx, q)
}

type searchResponse struct {
	Subjects []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Cover string `json:"cover"`
		Rate  string `json:"rate"`
	} `json:"subjects"`
}

// Search queries the upstream JSON search endpoint.
func (c *Client) Search(ctx context.Context, q Query) ([]Item, error) {
	u, err := url.Parse(c.SearchURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing search URL: %w", err)
	}
	v := u.Query()
	v.Set("type", q.Type)
	v.Set("tag", q.Tag)
	v.Set("sort", "recommend")
	v.Set("page_limit", strconv.Itoa(q.PageSize))
	v.Set("page_start", strconv.Itoa(q.PageStart))
	u.RawQuery = v.Encode()

	body, err := c.fetch(ctx, "search", u.String(), acceptJSON)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %v", ErrUpstreamParse, err)
	}

	items := make([]Item, 0, len(resp.Subjects))
	for _, s := range resp.Subjects {
		items = append(items, Item{
			ID:     s.ID,
			Title:  s.Title,
			Poster: c.Images.Rewrite(s.Cover),
			Rate:   s.Rate,
		})
	}
	return items, nil
}

// Top scrapes one page of the top-250 listing starting at offset start.
func (c *Client) Top(ctx context.Context, start int) ([]Item, error) {
	u, err := url.Parse(c.TopURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing top URL: %w", err)
	}
	v := u.Query()
	v.Set("start", strconv.Itoa(start))
	v.Set("filter", "")
	u.RawQuery = v.Encode()

	body, err := c.fetch(ctx, "top", u.String(), acceptHTML)
	if err != nil {
		return nil, err
	}

	return ParseTop(body, c.Images)
}

// fetch performs a single bounded GET and returns the response body.
func (c *Client) fetch(ctx context.Context, strategy, target, accept string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request for %s: %w", target, err)
	}
	req.Header.Set("Accept", accept)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Referer != "" {
		req.Header.Set("Referer", c.Referer)
	}

	if os.Getenv("LOG_URLS") == "true" {
		log.WithField("strategy", strategy).Debug(target)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			observeUpstream(strategy, "timeout", start)
			return nil, fmt.Errorf("%w after %s", ErrUpstreamTimeout, c.Timeout)
		}
		observeUpstream(strategy, "error", start)
		return nil, fmt.Errorf("error fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observeUpstream(strategy, strconv.Itoa(resp.StatusCode), start)
		return nil, fmt.Errorf("%w: status %d from %s", ErrUpstreamHTTP, resp.StatusCode, target)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			observeUpstream(strategy, "timeout", start)
			return nil, fmt.Errorf("%w after %s", ErrUpstreamTimeout, c.Timeout)
		}
		observeUpstream(strategy, "error", start)
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	observeUpstream(strategy, strconv.Itoa(resp.StatusCode), start)
	return body, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
