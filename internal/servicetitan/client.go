package servicetitan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

// tokenRefreshBuffer refreshes the OAuth token this long before its actual
// expiry so in-flight requests never race the cutoff.
const tokenRefreshBuffer = 60 * time.Second

// Client is a ServiceTitan API client covering the CRM, JPM, dispatch,
// marketing, telecom, accounting, pricebook, and settings surfaces the
// booking flow touches.
type Client struct {
	baseURL      string
	authURL      string
	clientID     string
	clientSecret string
	tenantID     string
	appKey       string
	httpClient   *http.Client
	logger       *logging.Logger

	// OAuth 2.0 token management
	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	authGroup   singleflight.Group
}

// Config holds configuration for the ServiceTitan client
type Config struct {
	BaseURL      string // e.g. "https://api.servicetitan.io"
	AuthURL      string // e.g. "https://auth.servicetitan.io/connect/token"
	ClientID     string // OAuth 2.0 client ID
	ClientSecret string // OAuth 2.0 client secret
	TenantID     string
	AppKey       string
	Timeout      time.Duration
}

// New creates a new ServiceTitan client
func New(cfg Config, logger *logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("servicetitan: BaseURL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("servicetitan: ClientID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("servicetitan: ClientSecret is required")
	}
	if cfg.TenantID == "" {
		return nil, fmt.Errorf("servicetitan: TenantID is required")
	}
	if cfg.AppKey == "" {
		return nil, fmt.Errorf("servicetitan: AppKey is required")
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = "https://auth.servicetitan.io/connect/token"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		authURL:      authURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tenantID:     cfg.TenantID,
		appKey:       cfg.AppKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// SearchCustomers looks up active customers by 10-digit phone number.
// GET /crm/v2/tenant/{tenant}/customers?phone={phone}
func (c *Client) SearchCustomers(ctx context.Context, phone string) ([]Customer, error) {
	params := url.Values{}
	params.Set("phone", phone)
	params.Set("active", "true")

	var page Page[Customer]
	if err := c.get(ctx, c.tenantPath("crm", "customers"), params, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// CreateCustomer creates a customer record together with its first location.
// POST /crm/v2/tenant/{tenant}/customers
func (c *Client) CreateCustomer(ctx context.Context, nc NewCustomer) (*Customer, error) {
	var created Customer
	if err := c.send(ctx, http.MethodPost, c.tenantPath("crm", "customers"), nc, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetLocations lists the locations tied to a customer.
// GET /crm/v2/tenant/{tenant}/locations?customerId={id}
func (c *Client) GetLocations(ctx context.Context, customerID int64) ([]Location, error) {
	params := url.Values{}
	params.Set("customerId", strconv.FormatInt(customerID, 10))

	var page Page[Location]
	if err := c.get(ctx, c.tenantPath("crm", "locations"), params, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// CreateLocation adds a service address to an existing customer.
// POST /crm/v2/tenant/{tenant}/locations
func (c *Client) CreateLocation(ctx context.Context, nl NewLocation) (*Location, error) {
	var created Location
	if err := c.send(ctx, http.MethodPost, c.tenantPath("crm", "locations"), nl, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateJob books a job with one appointment.
// POST /jpm/v2/tenant/{tenant}/jobs
func (c *Client) CreateJob(ctx context.Context, nj NewJob) (*Job, error) {
	var created Job
	if err := c.send(ctx, http.MethodPost, c.tenantPath("jpm", "jobs"), nj, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// JobsCreatedSince lists a customer's jobs created at or after the given
// instant. Used by the booking dedupe check.
// GET /jpm/v2/tenant/{tenant}/jobs?customerId={id}&createdOnOrAfter={ts}
func (c *Client) JobsCreatedSince(ctx context.Context, customerID int64, since time.Time) ([]Job, error) {
	params := url.Values{}
	params.Set("customerId", strconv.FormatInt(customerID, 10))
	params.Set("createdOnOrAfter", since.UTC().Format(time.RFC3339))

	var page Page[Job]
	if err := c.get(ctx, c.tenantPath("jpm", "jobs"), params, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// GetCapacity asks dispatch which arrival windows have technician capacity.
// POST /dispatch/v2/tenant/{tenant}/capacity
func (c *Client) GetCapacity(ctx context.Context, req CapacityRequest) (*CapacityResponse, error) {
	var resp CapacityResponse
	if err := c.send(ctx, http.MethodPost, c.tenantPath("dispatch", "capacity"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BusinessUnits lists the tenant's business units.
// GET /settings/v2/tenant/{tenant}/business-units
func (c *Client) BusinessUnits(ctx context.Context) ([]BusinessUnit, error) {
	var page Page[BusinessUnit]
	if err := c.get(ctx, c.tenantPath("settings", "business-units"), nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// JobTypes lists the tenant's job types.
// GET /jpm/v2/tenant/{tenant}/job-types
func (c *Client) JobTypes(ctx context.Context) ([]JobType, error) {
	var page Page[JobType]
	if err := c.get(ctx, c.tenantPath("jpm", "job-types"), nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// Campaigns lists the tenant's marketing campaigns.
// GET /marketing/v2/tenant/{tenant}/campaigns
func (c *Client) Campaigns(ctx context.Context) ([]Campaign, error) {
	var page Page[Campaign]
	if err := c.get(ctx, c.tenantPath("marketing", "campaigns"), nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// CallsFrom lists telecom calls received from a phone number since the given
// instant.
// GET /telecom/v2/tenant/{tenant}/calls
func (c *Client) CallsFrom(ctx context.Context, phone string, since time.Time) ([]Call, error) {
	params := url.Values{}
	params.Set("phoneNumber", phone)
	params.Set("createdOnOrAfter", since.UTC().Format(time.RFC3339))

	var page Page[Call]
	if err := c.get(ctx, c.tenantPath("telecom", "calls"), params, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// InvoicesForJob lists the invoices attached to a job.
// GET /accounting/v2/tenant/{tenant}/invoices?jobId={id}
func (c *Client) InvoicesForJob(ctx context.Context, jobID int64) ([]Invoice, error) {
	params := url.Values{}
	params.Set("jobId", strconv.FormatInt(jobID, 10))

	var page Page[Invoice]
	if err := c.get(ctx, c.tenantPath("accounting", "invoices"), params, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// AddInvoiceItem appends a line item to an invoice.
// PATCH /accounting/v2/tenant/{tenant}/invoices/{id}/items
func (c *Client) AddInvoiceItem(ctx context.Context, invoiceID int64, item InvoiceItem) error {
	path := fmt.Sprintf("%s/%d/items", c.tenantPath("accounting", "invoices"), invoiceID)
	return c.send(ctx, http.MethodPatch, path, item, nil)
}

// PricebookServices pages through the pricebook's service SKUs.
// GET /pricebook/v2/tenant/{tenant}/services
func (c *Client) PricebookServices(ctx context.Context, page, pageSize int) (*Page[PricebookService], error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))

	var out Page[PricebookService]
	if err := c.get(ctx, c.tenantPath("pricebook", "services"), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// tenantPath builds /{module}/v2/tenant/{tenant}/{resource}.
func (c *Client) tenantPath(module, resource string) string {
	return fmt.Sprintf("/%s/v2/tenant/%s/%s", module, c.tenantID, resource)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return fmt.Errorf("servicetitan: authentication failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("servicetitan: failed to create request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("servicetitan: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("servicetitan: failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("servicetitan: failed to marshal payload: %w", err)
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return fmt.Errorf("servicetitan: authentication failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("servicetitan: failed to create request: %w", err)
	}
	c.setHeaders(req, token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("servicetitan: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return newAPIError(resp, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("servicetitan: failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("ST-App-Key", c.appKey)
	req.Header.Set("Accept", "application/json")
}

// ensureToken returns a valid access token, re-authenticating when the cached
// one is within tokenRefreshBuffer of expiry. Concurrent callers share a
// single refresh via singleflight.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && time.Now().Add(tokenRefreshBuffer).Before(c.tokenExpiry) {
		token := c.accessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.authGroup.Do("token", func() (any, error) {
		// Another caller may have refreshed while we waited on the group.
		c.mu.Lock()
		if c.accessToken != "" && time.Now().Add(tokenRefreshBuffer).Before(c.tokenExpiry) {
			token := c.accessToken
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()
		return c.authenticate(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// authenticate performs OAuth 2.0 client credentials authentication
func (c *Client) authenticate(ctx context.Context) (string, error) {
	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", newAPIError(resp, "connect/token")
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("auth response contained no access token")
	}

	c.mu.Lock()
	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	c.mu.Unlock()

	c.logger.Debug("servicetitan token refreshed", "expires_in", tokenResp.ExpiresIn)
	return tokenResp.AccessToken, nil
}
