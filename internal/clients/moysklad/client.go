package moysklad

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"catalog-sync-service/internal/clients"
)

const defaultBaseURL = "https://api.moysklad.ru/api/remap/1.2"

// Client is a MoySklad REST API client with offset pagination, rate limiting
// and retry on 429/5xx.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	rateLimiter *rate.Limiter
	retrier     *clients.Retrier
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithRateLimit overrides the requests-per-second limit.
func WithRateLimit(rps int) Option {
	return func(c *Client) { c.rateLimiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetrier overrides the retry policy.
func WithRetrier(r *clients.Retrier) Option {
	return func(c *Client) { c.retrier = r }
}

// NewClient creates a MoySklad API client authenticated with a bearer token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		token:       token,
		rateLimiter: rate.NewLimiter(rate.Limit(5), 1), // MoySklad allows ~45 req / 3s
		retrier:     clients.NewRetrier(clients.DefaultRetryConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListProductFolders pages through /entity/productfolder and returns the
// complete remote category list.
func (c *Client) ListProductFolders(ctx context.Context, pageSize int) ([]ProductFolder, error) {
	return listPaginated[ProductFolder](ctx, c, "/entity/productfolder", pageSize, nil)
}

// ListProducts pages through /entity/product with images expanded and returns
// the complete remote product list. The page size here is deliberately
// smaller than for folders because the image embed inflates each row.
func (c *Client) ListProducts(ctx context.Context, pageSize int) ([]Product, error) {
	params := url.Values{}
	params.Set("order", "updated,desc")
	params.Set("expand", "images")
	return listPaginated[Product](ctx, c, "/entity/product", pageSize, params)
}

// StockAll fetches the current-stock report in a single call and indexes it
// by assortment external ID.
func (c *Client) StockAll(ctx context.Context) (map[string]float64, error) {
	body, err := c.doRequest(ctx, "/report/stock/all/current", nil)
	if err != nil {
		return nil, err
	}

	var rows []StockRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse stock report: %w", err)
	}

	stock := make(map[string]float64, len(rows))
	for _, row := range rows {
		if id := row.ExternalID(); id != "" {
			stock[id] = row.Stock
		}
	}
	return stock, nil
}

// listPaginated walks an offset-paginated collection until a short page or
// the server-reported total is reached, whichever comes first. The second
// condition guards against a total that never shrinks.
func listPaginated[T any](ctx context.Context, c *Client, path string, pageSize int, extra url.Values) ([]T, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	var all []T
	offset := 0
	for {
		params := url.Values{}
		for k, vs := range extra {
			for _, v := range vs {
				params.Add(k, v)
			}
		}
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(offset))

		body, err := c.doRequest(ctx, path, params)
		if err != nil {
			return nil, err
		}

		var page listEnvelope[T]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to parse %s response: %w", path, err)
		}

		all = append(all, page.Rows...)

		if len(page.Rows) < pageSize || len(all) >= page.Meta.Size {
			return all, nil
		}
		offset += pageSize
	}
}

// doRequest performs a rate-limited GET against the API and returns the
// response body. Non-2xx responses become *APIError.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	resp, err := c.retrier.DoHTTP(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json;charset=utf-8")
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("moysklad: request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("moysklad: reading response from %s failed: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
