// Package ghdb fetches dorks from the Exploit-DB Google Hacking Database.
// Entries are handed to the workspace as plain {dork, title} pairs; nothing in
// this package touches the block model.
package ghdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
	"github.com/xkilldash9x/dorkbuilder/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodySize caps a single DataTables response.
const maxBodySize = 8 << 20

// HTTPDoer is the part of *http.Client the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the GHDB DataTables endpoint.
type Client struct {
	httpClient  HTTPDoer
	baseURL     *url.URL
	origin      string
	pageSize    int
	concurrency int
	userAgent   string
	limiter     *rate.Limiter
	logger      *zap.Logger
	now         func() time.Time
}

// NewClient builds a client from configuration. A nil httpClient gets a plain
// *http.Client with the configured timeout.
func NewClient(cfg config.GHDBConfig, httpClient HTTPDoer, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ghdb configuration: %w", err)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ghdb base url %q", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     base,
		origin:      base.Scheme + "://" + base.Host,
		pageSize:    cfg.PageSize,
		concurrency: cfg.Concurrency,
		userAgent:   cfg.UserAgent,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		logger:      logger.Named("ghdb"),
		now:         time.Now,
	}, nil
}

// PageSize returns the configured page length.
func (c *Client) PageSize() int { return c.pageSize }

// Fetch returns one page of entries, newest first. length <= 0 uses the
// configured page size.
func (c *Client) Fetch(ctx context.Context, term string, start, length int) (*schemas.GHDBPage, error) {
	if start < 0 {
		return nil, fmt.Errorf("start must not be negative, got %d", start)
	}
	if length <= 0 {
		length = c.pageSize
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ghdb rate limiter: %w", err)
	}

	reqURL := c.pageURL(term, start, length)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ghdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	// The DataTables backend only answers JSON to XHR-looking requests.
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("Fetching GHDB page.", zap.String("term", term), zap.Int("start", start), zap.Int("length", length))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ghdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ghdb returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read ghdb response: %w", err)
	}

	page, err := c.decode(body)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Fetched GHDB page.",
		zap.String("term", term),
		zap.Int("entries", len(page.Entries)),
		zap.Int("records_filtered", page.RecordsFiltered))
	return page, nil
}

// FetchPages fetches pages [0, pages) concurrently and merges them in page
// order, dropping entries whose id was already seen. Totals come from the
// first page.
func (c *Client) FetchPages(ctx context.Context, term string, pages int) (*schemas.GHDBPage, error) {
	if pages <= 0 {
		pages = 1
	}
	results := make([]*schemas.GHDBPage, pages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := 0; i < pages; i++ {
		i := i
		g.Go(func() error {
			page, err := c.Fetch(gctx, term, i*c.pageSize, c.pageSize)
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			results[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &schemas.GHDBPage{
		Draw:            results[0].Draw,
		RecordsTotal:    results[0].RecordsTotal,
		RecordsFiltered: results[0].RecordsFiltered,
	}
	seen := make(map[string]struct{})
	for _, page := range results {
		for _, e := range page.Entries {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			merged.Entries = append(merged.Entries, e)
		}
	}
	return merged, nil
}

// pageURL builds the DataTables server-side processing query.
func (c *Client) pageURL(term string, start, length int) string {
	q := url.Values{}
	q.Set("draw", "1")
	columns := []struct {
		data      string
		orderable bool
	}{
		{"date", true},
		{"url_title", false},
		{"cat_id", false},
	}
	for i, col := range columns {
		prefix := "columns[" + strconv.Itoa(i) + "]"
		q.Set(prefix+"[data]", col.data)
		q.Set(prefix+"[name]", col.data)
		q.Set(prefix+"[searchable]", "true")
		q.Set(prefix+"[orderable]", strconv.FormatBool(col.orderable))
		q.Set(prefix+"[search][value]", "")
		q.Set(prefix+"[search][regex]", "false")
	}
	q.Set("order[0][column]", "0")
	q.Set("order[0][dir]", "desc")
	q.Set("start", strconv.Itoa(start))
	q.Set("length", strconv.Itoa(length))
	q.Set("search[value]", strings.TrimSpace(term))
	q.Set("search[regex]", "false")
	q.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10))

	u := *c.baseURL
	u.RawQuery = q.Encode()
	return u.String()
}

// rawPage mirrors the DataTables response envelope.
type rawPage struct {
	Draw            int      `json:"draw"`
	RecordsTotal    int      `json:"recordsTotal"`
	RecordsFiltered int      `json:"recordsFiltered"`
	Data            []rawRow `json:"data"`
}

// rawRow is one GHDB row. The category arrives either as a nested object or
// as a plain cat_id string depending on the requested columns.
type rawRow struct {
	ID       jsoniter.RawMessage `json:"id"`
	Date     string              `json:"date"`
	URLTitle string              `json:"url_title"`
	CatID    jsoniter.RawMessage `json:"cat_id"`
	Category *struct {
		TitleSM  string `json:"title_sm"`
		CatTitle string `json:"cat_title"`
	} `json:"category"`
}

func (r rawRow) category() string {
	if r.Category != nil {
		if s := strings.TrimSpace(r.Category.TitleSM); s != "" {
			return s
		}
		if s := strings.TrimSpace(r.Category.CatTitle); s != "" {
			return s
		}
	}
	var s string
	if len(r.CatID) > 0 && json.Unmarshal(r.CatID, &s) == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

func (r rawRow) id() string {
	if len(r.ID) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(r.ID, &s) == nil {
		return strings.TrimSpace(s)
	}
	var n int64
	if json.Unmarshal(r.ID, &n) == nil && n > 0 {
		return strconv.FormatInt(n, 10)
	}
	return ""
}

func (c *Client) decode(body []byte) (*schemas.GHDBPage, error) {
	var raw rawPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse ghdb response: %w", err)
	}
	if raw.Data == nil {
		return nil, fmt.Errorf("failed to parse ghdb response: missing data array")
	}

	page := &schemas.GHDBPage{
		Draw:            raw.Draw,
		RecordsTotal:    raw.RecordsTotal,
		RecordsFiltered: raw.RecordsFiltered,
		Entries:         make([]schemas.GHDBEntry, 0, len(raw.Data)),
	}
	dropped := 0
	for _, row := range raw.Data {
		e, ok := toEntry(row, c.origin)
		if !ok {
			dropped++
			continue
		}
		page.Entries = append(page.Entries, e)
	}
	if dropped > 0 {
		c.logger.Debug("Dropped unparsable GHDB rows.", zap.Int("count", dropped))
	}
	return page, nil
}
