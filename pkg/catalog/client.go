// Package catalog provides the client for the semantic product-match
// service. The service owns the embedding model and the vector index; this
// client only speaks its HTTP contract and is treated as a black box.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/batimetric/pricing-engine/internal/resilience"
)

const defaultTopK = 5

// MatchRequest asks the service for products matching a free-text query.
type MatchRequest struct {
	QueryText      string `json:"query_text"`
	TopK           int    `json:"top_k"`
	CategoryFilter string `json:"category_filter,omitempty"`
}

// Hit is one ranked product match. RawDistance is whatever distance metric
// the service uses; Confidence = 1/(1+distance) is a monotonic transform of
// it, not a calibrated probability.
type Hit struct {
	Label       string  `json:"label"`
	UnitPrice   float64 `json:"unit_price"`
	Unit        string  `json:"unit,omitempty"`
	Category    string  `json:"category,omitempty"`
	URL         string  `json:"url,omitempty"`
	ProductID   string  `json:"product_id,omitempty"`
	RawDistance float64 `json:"raw_distance"`
	Confidence  float64 `json:"confidence"`
}

// Stats reports the size of the indexed catalog.
type Stats struct {
	Collection   string `json:"collection"`
	ProductCount int    `json:"product_count"`
}

// Client is the semantic-match service interface.
type Client interface {
	// Match returns ranked product hits for a query, best first. An empty
	// slice means no match; it is not an error.
	Match(ctx context.Context, req MatchRequest) ([]Hit, error)
	// CollectionStats returns index statistics for health reporting.
	CollectionStats(ctx context.Context) (*Stats, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables
// limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithMaxAttempts overrides the total number of attempts per request,
// including the first try. 1 disables retries.
func WithMaxAttempts(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.retry.MaxAttempts = n
		}
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a client for the match service at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		retry:   resilience.DefaultRetryConfig(),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type matchResponse struct {
	Results []Hit `json:"results"`
}

func (c *httpClient) Match(ctx context.Context, req MatchRequest) ([]Hit, error) {
	if req.QueryText == "" {
		return nil, eris.New("catalog: query text is required")
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "catalog: rate limit wait")
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: marshal request")
	}

	out, err := resilience.Do(ctx, c.retry, "catalog.match", func(ctx context.Context) (matchResponse, error) {
		return c.doMatch(ctx, body)
	})
	if err != nil {
		return nil, err
	}

	for i := range out.Results {
		out.Results[i].Confidence = 1.0 / (1.0 + out.Results[i].RawDistance)
	}
	return out.Results, nil
}

func (c *httpClient) doMatch(ctx context.Context, body []byte) (matchResponse, error) {
	var out matchResponse

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/match", bytes.NewReader(body))
	if err != nil {
		return out, eris.Wrap(err, "catalog: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return out, eris.Wrap(err, "catalog: match request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := eris.Errorf("catalog: match returned %d: %s", resp.StatusCode, string(b))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return out, resilience.NewTransientError(err, resp.StatusCode)
		}
		return out, err
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, eris.Wrap(err, "catalog: decode response")
	}
	return out, nil
}

func (c *httpClient) CollectionStats(ctx context.Context) (*Stats, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats", nil)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: create stats request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: stats request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("catalog: stats returned %d", resp.StatusCode)
	}

	var s Stats
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, eris.Wrap(err, "catalog: decode stats")
	}
	return &s, nil
}
