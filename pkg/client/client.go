// Package client provides the HTTP client for the order endpoints: the
// paginated per-domain record listing and the domain directory.
package client

import (
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for endpoint requests.
var (
	pageRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_page_requests_total",
		Help: "Total requests to the order endpoints by endpoint and status",
	}, []string{"endpoint", "status"})

	pageRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orders_page_request_duration_seconds",
		Help:    "Order endpoint request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_fetch_errors_total",
		Help: "Total failed fetches by error kind",
	}, []string{"kind"})
)

// Endpoint labels.
const (
	endpointPage    = "page"
	endpointDomains = "domains"
)

// Remote method names appended to "<host>/<resource>/".
const (
	PagePath    = "getRequestFsspResponse"
	DomainsPath = "getRequestFsspResponseCountDomain"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL hosts the domain directory, e.g. "https://main.techlegal.ru".
	BaseURL string

	// Resource is the path segment between host and method name.
	Resource string

	// Token is the static access token sent with every request (REQUIRED).
	Token string

	// Timeout bounds every request.
	Timeout time.Duration

	// SqueezeText asks the endpoint for size-reduced record text.
	// Counting does not depend on it.
	SqueezeText bool

	// UserAgent header, optional.
	UserAgent string
}

// DefaultConfig returns the configuration the original deployment used.
func DefaultConfig(token string) Config {
	return Config{
		BaseURL:     "https://main.techlegal.ru",
		Resource:    "api",
		Token:       token,
		Timeout:     30 * time.Second,
		SqueezeText: true,
		UserAgent:   "domain-order-counter/1.0",
	}
}

// Client talks to the order endpoints. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Resource == "" {
		cfg.Resource = "api"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log.With().Str("component", "client").Logger(),
	}, nil
}

// FetchPage requests count records starting at offset from domain.
// Every failure is returned as a *FetchError.
func (c *Client) FetchPage(ctx context.Context, domain string, offset, count int) (Page, error) {
	form := url.Values{}
	form.Set("token", c.config.Token)
	form.Set("count", strconv.Itoa(count))
	form.Set("isSqueezeText", boolFlag(c.config.SqueezeText))
	form.Set("offset", strconv.Itoa(offset))

	body, err := c.post(ctx, endpointPage, c.methodURL(domain, PagePath), form)
	if err != nil {
		return Page{}, err
	}

	records, err := decodeArray(body)
	if err != nil {
		c.recordError(endpointPage, err)
		return Page{}, err
	}

	c.logger.Debug().
		Str("domain", domain).
		Int("offset", offset).
		Int("count", len(records)).
		Msg("Page fetched")

	return Page{Records: records}, nil
}

// FetchDomains returns the base URLs of every domain known to the directory,
// in directory order. Entries without a domain are skipped.
func (c *Client) FetchDomains(ctx context.Context) ([]string, error) {
	form := url.Values{}
	form.Set("token", c.config.Token)

	body, err := c.post(ctx, endpointDomains, c.methodURL(c.config.BaseURL, DomainsPath), form)
	if err != nil {
		return nil, err
	}

	records, err := decodeArray(body)
	if err != nil {
		c.recordError(endpointDomains, err)
		return nil, err
	}

	domains := make([]string, 0, len(records))
	for i, raw := range records {
		var entry struct {
			Domain string `json:"domain"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			c.logger.Warn().Err(err).Int("index", i).Msg("Skipping malformed domain entry")
			continue
		}
		if entry.Domain == "" {
			continue
		}
		domains = append(domains, entry.Domain)
	}

	c.logger.Info().Int("domains", len(domains)).Msg("Domain list fetched")
	return domains, nil
}

// post sends a form-encoded POST and returns the body of a 200 response.
func (c *Client) post(ctx context.Context, endpoint, target string, form url.Values) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		pageRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		fe := &FetchError{Kind: KindConnection, Message: "create request", Err: err}
		c.recordError(endpoint, fe)
		return nil, fe
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fe := &FetchError{Kind: classifyTransportError(err), Message: "POST " + target, Err: err}
		c.recordError(endpoint, fe)
		pageRequestsTotal.WithLabelValues(endpoint, string(fe.Kind)).Inc()
		return nil, fe
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fe := &FetchError{Kind: classifyTransportError(err), Message: "read response body", Err: err}
		c.recordError(endpoint, fe)
		pageRequestsTotal.WithLabelValues(endpoint, string(fe.Kind)).Inc()
		return nil, fe
	}

	pageRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		fe := &FetchError{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    snippet(body),
		}
		c.recordError(endpoint, fe)
		return nil, fe
	}

	return body, nil
}

func (c *Client) recordError(endpoint string, err error) {
	kind := KindOf(err)
	fetchErrorsTotal.WithLabelValues(string(kind)).Inc()

	var fe *FetchError
	status := 0
	if errors.As(err, &fe) {
		status = fe.StatusCode
	}
	c.logger.Warn().
		Err(err).
		Str("endpoint", endpoint).
		Str("error_kind", string(kind)).
		Int("status_code", status).
		Msg("Fetch failed")
}

func (c *Client) methodURL(host, method string) string {
	return strings.TrimRight(host, "/") + "/" + strings.Trim(c.config.Resource, "/") + "/" + method
}

// classifyTransportError separates timeouts from other transport failures.
func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindConnection
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SetHTTPClient sets a custom HTTP client (for testing). The configured
// timeout is applied when the given client has none.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client.Timeout == 0 {
		client.Timeout = c.config.Timeout
	}
	c.httpClient = client
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
