// Package profitshare is a client for the ProfitShare affiliate API.
//
// Every request goes through a RoundTripper that adds the Date, X-PS-Client,
// X-PS-Accept and X-PS-Auth headers computed by internal/signer.
package profitshare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/shopmindai/profitshare/internal/config"
	"github.com/shopmindai/profitshare/internal/model"
	"github.com/shopmindai/profitshare/internal/observers"
	"github.com/shopmindai/profitshare/internal/retry"
	"github.com/shopmindai/profitshare/internal/signer"
)

const (
	productsRoute    = "affiliate-products/"
	advertisersRoute = "affiliate-advertisers/"
)

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	semaphore  *semaphore.Weighted
	retryCfg   retry.RetryConfig
}

type options struct {
	now       func() time.Time
	transport http.RoundTripper
	publisher observers.EventPublisher
}

type Option func(*options)

// WithClock overrides the time source used for the Date header.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTransport sets the RoundTripper that carries signed requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithPublisher reports every signed request to p.
func WithPublisher(p observers.EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

func NewClient(cfg *config.ClientFlags, logger *zap.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{now: time.Now, transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	baseURL, err := url.Parse(normalizeURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	delays, err := cfg.GetRetryDelaysAsDuration()
	if err != nil {
		return nil, err
	}

	var sem *semaphore.Weighted
	if cfg.RateLimit > 0 {
		sem = semaphore.NewWeighted(int64(cfg.RateLimit))
		logger.Info("client semaphore initialized", zap.Int("rate_limit", cfg.RateLimit))
	} else {
		logger.Info("rate limiting disabled")
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &authTransport{
				signer:     signer.NewSigner(cfg.APIUser, cfg.APIKey),
				underlying: o.transport,
				now:        o.now,
				publisher:  o.publisher,
			},
		},
		logger:    logger,
		semaphore: sem,
		retryCfg: retry.RetryConfig{
			MaxRetries:    cfg.MaxRetries,
			Delays:        delays,
			IsRetryableFn: isRetryable,
		},
	}, nil
}

func normalizeURL(u string) string {
	u = strings.TrimRight(u, "/")
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u
}

// ProductsQuery builds the affiliate-products query in the order the API
// documents it. Brackets are left unescaped on purpose.
func ProductsQuery(params model.ListProductsParams) signer.QueryParams {
	var q signer.QueryParams
	if params.Page > 0 {
		q = q.Add("page", params.Page)
	}
	if params.Advertisers != "" {
		q = q.Add("filters[advertiser]", params.Advertisers)
	}
	if params.PartNo != "" {
		q = q.Add("filters[part_no]", params.PartNo)
	}
	return q
}

func (c *Client) ListProducts(ctx context.Context, params model.ListProductsParams) (*model.ProductResponse, error) {
	var out model.ProductResponse
	if err := c.get(ctx, productsRoute, ProductsQuery(params), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAdvertisers(ctx context.Context) (*model.AdvertiserResponse, error) {
	var out model.AdvertiserResponse
	if err := c.get(ctx, advertisersRoute, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, route string, query signer.QueryParams, out any) error {
	if err := query.Validate(); err != nil {
		return fmt.Errorf("invalid %s query: %w", route, err)
	}

	if c.semaphore != nil {
		if err := c.semaphore.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("failed to acquire semaphore: %w", err)
		}
		defer c.semaphore.Release(1)
	}

	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + route
	endpoint.RawQuery = query.Encode()

	var body []byte
	err := retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		var err error
		body, err = c.do(ctx, endpoint.String())
		if err != nil {
			c.logger.Warn("profitshare request failed",
				zap.String("route", route),
				zap.Error(err),
			)
		}
		return err
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request failed: %w", err)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
	return body, nil
}

func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, signer.ErrInvalidInput) {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
