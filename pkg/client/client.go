package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the local development address of the platform API.
const DefaultBaseURL = "http://localhost:8000"

// Client is the main darkwatch API client
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialProvider
	limiter     *rate.Limiter
	observer    RequestObserver
	now         func() time.Time
}

// RequestObserver receives one call per completed HTTP round trip.
// status is 0 when the request never got a response.
type RequestObserver interface {
	ObserveRequest(method, path string, status int, elapsed time.Duration)
}

// Config holds the client configuration
type Config struct {
	BaseURL     string             // API base URL (default: DefaultBaseURL)
	Credentials CredentialProvider // Token source (default: empty in-memory store)
	Timeout     time.Duration      // HTTP client timeout (default: 30s)
	HTTPClient  *http.Client       // Optional custom HTTP client
	RateLimit   float64            // Requests per second, 0 disables limiting
	Burst       int                // Limiter burst (default: 1)
	Tracing     bool               // Wrap the transport with OpenTelemetry instrumentation
	Observer    RequestObserver    // Optional metrics hook
}

// NewClient creates a new darkwatch API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Credentials == nil {
		cfg.Credentials = NewStaticCredentials("")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}
	if cfg.Tracing {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		traced := *httpClient
		traced.Transport = otelhttp.NewTransport(base)
		httpClient = &traced
	}

	c := &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  httpClient,
		credentials: cfg.Credentials,
		observer:    cfg.Observer,
		now:         time.Now,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// SetToken stores the bearer token for authenticated requests
func (c *Client) SetToken(token string) error {
	return c.credentials.SetToken(token)
}

// GetToken returns the current bearer token
func (c *Client) GetToken() (string, error) {
	return c.credentials.GetToken()
}

// BaseURL returns the API base URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an authenticated JSON request
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	return c.do(ctx, method, path, body, result, true)
}

// doPublic performs a JSON request without requiring a stored token
func (c *Client) doPublic(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	return c.do(ctx, method, path, body, result, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}, auth bool) error {
	var reqBody io.Reader
	if body != nil {
		if method == http.MethodPatch || method == http.MethodPut {
			scrubbed, err := scrubSecrets(body)
			if err != nil {
				return fmt.Errorf("failed to prepare request body: %w", err)
			}
			body = scrubbed
		}
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if body != nil {
		header.Set("Content-Type", "application/json")
	}
	return c.send(ctx, method, path, reqBody, header, result, auth)
}

// send attaches credentials, performs the round trip and decodes the response.
func (c *Client) send(ctx context.Context, method, path string, reqBody io.Reader, header http.Header, result interface{}, auth bool) error {
	if auth {
		token, err := bearerToken(c.credentials, c.now())
		if err != nil {
			return err
		}
		header.Set("Authorization", "Bearer "+token)
	} else if token, err := c.credentials.GetToken(); err == nil && token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = header
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, path, 0, start)
		return remoteError("request failed", err)
	}
	defer resp.Body.Close()
	c.observe(method, path, resp.StatusCode, start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return remoteError("failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return remoteError("failed to parse response", err)
		}
	}

	return nil
}

func (c *Client) observe(method, path string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, path, status, time.Since(start))
	}
}

// Companies returns the company management service
func (c *Client) Companies() *CompanyService {
	return &CompanyService{client: c}
}

// PlatformUsers returns the platform user management service
func (c *Client) PlatformUsers() *PlatformUserService {
	return &PlatformUserService{client: c}
}

// Invoices returns the invoice service
func (c *Client) Invoices() *InvoiceService {
	return &InvoiceService{client: c}
}

// Payments returns the payment service
func (c *Client) Payments() *PaymentService {
	return &PaymentService{client: c}
}

// Subscriptions returns the subscription service
func (c *Client) Subscriptions() *SubscriptionService {
	return &SubscriptionService{client: c}
}

// Sites returns the monitored site and scraper execution service
func (c *Client) Sites() *SiteService {
	return &SiteService{client: c}
}

// Scrapers returns the scraper module service
func (c *Client) Scrapers() *ScraperService {
	return &ScraperService{client: c}
}

// TelegramAccounts returns the telegram account service
func (c *Client) TelegramAccounts() *TelegramAccountService {
	return &TelegramAccountService{client: c}
}

// Plans returns the plan management service
func (c *Client) Plans() *PlanService {
	return &PlanService{client: c}
}

// MonitoredResources returns the monitored resource service
func (c *Client) MonitoredResources() *MonitoredResourceService {
	return &MonitoredResourceService{client: c}
}

// Alerts returns the alert service
func (c *Client) Alerts() *AlertService {
	return &AlertService{client: c}
}

// Settings returns the account settings service
func (c *Client) Settings() *SettingsService {
	return &SettingsService{client: c}
}
