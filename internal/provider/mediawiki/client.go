// Package mediawiki implements the provider boundary against a live
// MediaWiki Action API endpoint (e.g. https://en.wikipedia.org/w/api.php).
//
// All calls go through a shared rate limiter so the solver can issue
// provider round-trips freely without owning any politeness policy.
// Continuation tokens map 1:1 onto the API's continue parameters.
package mediawiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agentic-research/catsieve/internal/provider"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"golang.org/x/time/rate"
)

const defaultBatch = 500

// Client is a provider.Provider backed by the MediaWiki Action API.
type Client struct {
	endpoint  string
	hc        *http.Client
	limiter   *rate.Limiter
	userAgent string
	batch     int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithRateLimit bounds requests per second against the endpoint.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithUserAgent sets the User-Agent header; wiki APIs require a
// descriptive one.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithBatchSize overrides the per-request result limit (mostly for tests).
func WithBatchSize(n int) Option {
	return func(c *Client) { c.batch = n }
}

// New returns a Client for the given api.php endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:  endpoint,
		hc:        &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(10), 1),
		userAgent: "catsieve (https://github.com/agentic-research/catsieve)",
		batch:     defaultBatch,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// precompiled extraction paths
var (
	pathError      = jp.MustParseString("$.error.info")
	pathPages      = jp.MustParseString("$.query.pages[*]")
	pathCatMembers = jp.MustParseString("$.query.categorymembers[*]")
	pathCategories = jp.MustParseString("$.query.pages[0].categories[*]")
	pathLinks      = jp.MustParseString("$.query.pages[0].links[*]")
	pathBacklinks  = jp.MustParseString("$.query.backlinks[*]")
)

// Resolve implements provider.Provider.
func (c *Client) Resolve(ctx context.Context, title string) (provider.Page, error) {
	doc, err := c.do(ctx, "resolve", title, url.Values{
		"action": {"query"},
		"titles": {title},
	})
	if err != nil {
		return provider.Page{}, err
	}
	pages := pathPages.Get(doc)
	if len(pages) == 0 {
		return provider.Page{}, provider.NewPermanent("resolve", title, provider.ErrNotFound)
	}
	pg := asPage(pages[0])
	if _, missing := field(pages[0], "missing"); missing || pg.Title == "" {
		return provider.Page{}, provider.NewPermanent("resolve", title, provider.ErrNotFound)
	}
	return pg, nil
}

// Members implements provider.Provider.
func (c *Client) Members(ctx context.Context, title string, dir provider.Direction, cont string) ([]provider.Page, string, error) {
	params := url.Values{"action": {"query"}}
	var extract jp.Expr
	var contKey string

	limit := fmt.Sprintf("%d", c.batch)
	switch dir {
	case provider.Sub:
		params.Set("list", "categorymembers")
		params.Set("cmtitle", title)
		params.Set("cmlimit", limit)
		extract, contKey = pathCatMembers, "cmcontinue"
	case provider.Super:
		params.Set("prop", "categories")
		params.Set("titles", title)
		params.Set("cllimit", limit)
		extract, contKey = pathCategories, "clcontinue"
	case provider.LinksOut:
		params.Set("prop", "links")
		params.Set("titles", title)
		params.Set("pllimit", limit)
		extract, contKey = pathLinks, "plcontinue"
	case provider.LinksIn:
		params.Set("list", "backlinks")
		params.Set("bltitle", title)
		params.Set("bllimit", limit)
		extract, contKey = pathBacklinks, "blcontinue"
	default:
		return nil, "", provider.NewPermanent("members", title, fmt.Errorf("unknown direction %v", dir))
	}
	if cont != "" {
		params.Set(contKey, cont)
	}

	doc, err := c.do(ctx, "members", title, params)
	if err != nil {
		return nil, "", err
	}

	raw := extract.Get(doc)
	out := make([]provider.Page, 0, len(raw))
	for _, r := range raw {
		out = append(out, asPage(r))
	}

	next := ""
	if v, ok := field(doc, "continue"); ok {
		if tok, ok := field(v, contKey); ok {
			next, _ = tok.(string)
		}
	}
	return out, next, nil
}

// Attributes implements provider.Provider. Quality scores are not part of
// the core API, so HasQuality is always false here.
func (c *Client) Attributes(ctx context.Context, page provider.Page) (*provider.Attributes, error) {
	doc, err := c.do(ctx, "attributes", page.Title, url.Values{
		"action": {"query"},
		"prop":   {"info"},
		"titles": {page.Title},
	})
	if err != nil {
		return nil, err
	}
	pages := pathPages.Get(doc)
	if len(pages) == 0 {
		return nil, provider.NewPermanent("attributes", page.Title, provider.ErrNotFound)
	}
	attrs := &provider.Attributes{Namespace: intField(pages[0], "ns")}
	if _, ok := field(pages[0], "redirect"); ok {
		attrs.Redirect = true
	}
	return attrs, nil
}

// do performs one rate-limited API round-trip and returns the parsed
// response document. HTTP 429 and 5xx are transient; other failures are
// permanent.
func (c *Client) do(ctx context.Context, op, title string, params url.Values) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, provider.NewPermanent(op, title, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, provider.NewTransient(op, title, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewTransient(op, title, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, provider.NewTransient(op, title, fmt.Errorf("http %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, provider.NewPermanent(op, title, fmt.Errorf("http %d", resp.StatusCode))
	}

	doc, err := oj.Parse(body)
	if err != nil {
		return nil, provider.NewPermanent(op, title, fmt.Errorf("parse response: %w", err))
	}
	if errs := pathError.Get(doc); len(errs) > 0 {
		return nil, provider.NewPermanent(op, title, fmt.Errorf("api error: %v", errs[0]))
	}
	return doc, nil
}

// asPage converts one API page object. Identity is the title: link and
// category lists carry no pageid, so the title is the only key every
// endpoint returns, and a page reached along different directions must
// intern to the same identity.
func asPage(v any) provider.Page {
	title := stringField(v, "title")
	return provider.Page{
		ID:        title,
		Title:     title,
		Namespace: intField(v, "ns"),
	}
}

func field(v any, key string) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	val, ok := m[key]
	return val, ok
}

func stringField(v any, key string) string {
	val, _ := field(v, key)
	s, _ := val.(string)
	return s
}

func intField(v any, key string) int {
	val, ok := field(v, key)
	if !ok {
		return 0
	}
	switch n := val.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
