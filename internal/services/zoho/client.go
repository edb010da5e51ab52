package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"wholesale/internal/config"
	"wholesale/internal/logger"
	"wholesale/internal/models"

	"gorm.io/gorm"
)

const (
	maxAttempts   = 3
	baseBackoff   = 2 * time.Second
	maxBackoff    = 5 * time.Minute
	tokenSkew     = 60 * time.Second
	itemsPerPage  = 200
	defaultExpiry = 3600
)

// Client wraps every outbound Zoho call with OAuth token caching, exponential
// backoff and a shared rate-limit cooldown. The cooldown is process-wide: any
// call that trips the rate limit blocks all subsequent calls, related or not,
// until the window passes. Construct exactly one per process.
type Client struct {
	cfg        *config.Config
	db         *gorm.DB
	logger     *logger.Logger
	httpClient *http.Client

	mu               sync.Mutex
	accessToken      string
	tokenExpiry      time.Time
	rateLimitedUntil time.Time
	rateLimitStreak  int

	// overridable in tests
	sleep func(time.Duration)
	now   func() time.Time
}

func NewClient(cfg *config.Config, db *gorm.DB, logger *logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		db:     db,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// ListItems fetches one page of inventory items sorted by last-modified
// descending, the order the reconciler's incremental early-stop depends on.
func (c *Client) ListItems(ctx context.Context, page int) ([]Item, bool, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("per_page", fmt.Sprintf("%d", itemsPerPage))
	q.Set("sort_column", "last_modified_time")
	q.Set("sort_order", "D")

	var resp struct {
		Code        int         `json:"code"`
		Message     string      `json:"message"`
		Items       []Item      `json:"items"`
		PageContext pageContext `json:"page_context"`
	}
	if err := c.doJSON(ctx, "list_items", http.MethodGet, "/items", q, nil, &resp); err != nil {
		return nil, false, err
	}
	if resp.Code != 0 {
		return nil, false, fmt.Errorf("list items failed: %s", resp.Message)
	}
	return resp.Items, resp.PageContext.HasMorePage, nil
}

func (c *Client) GetItemGroup(ctx context.Context, groupID string) (*ItemGroup, error) {
	var resp struct {
		Code      int       `json:"code"`
		Message   string    `json:"message"`
		ItemGroup ItemGroup `json:"item_group"`
	}
	if err := c.doJSON(ctx, "get_item_group", http.MethodGet, "/itemgroups/"+groupID, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("get item group failed: %s", resp.Message)
	}
	return &resp.ItemGroup, nil
}

// GetItemImage returns the raw image bytes and content type for an item, or
// an error when the item has no image.
func (c *Client) GetItemImage(ctx context.Context, itemID string) ([]byte, string, error) {
	return c.doRaw(ctx, "get_item_image", "/items/"+itemID+"/image")
}

func (c *Client) GetItemGroupImage(ctx context.Context, groupID string) ([]byte, string, error) {
	return c.doRaw(ctx, "get_item_group_image", "/itemgroups/"+groupID+"/image")
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var resp struct {
		Code       int        `json:"code"`
		Message    string     `json:"message"`
		Categories []Category `json:"categories"`
	}
	if err := c.doJSON(ctx, "list_categories", http.MethodGet, "/categories", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("list categories failed: %s", resp.Message)
	}
	return resp.Categories, nil
}

func (c *Client) ListPricebooks(ctx context.Context) ([]Pricebook, error) {
	var resp struct {
		Code       int         `json:"code"`
		Message    string      `json:"message"`
		Pricebooks []Pricebook `json:"pricebooks"`
	}
	if err := c.doJSON(ctx, "list_pricebooks", http.MethodGet, "/pricebooks", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("list pricebooks failed: %s", resp.Message)
	}
	return resp.Pricebooks, nil
}

func (c *Client) ListPricebookItems(ctx context.Context, pricebookID string) ([]PricebookItem, error) {
	var resp struct {
		Code      int    `json:"code"`
		Message   string `json:"message"`
		Pricebook struct {
			PricebookItems []PricebookItem `json:"pricebook_items"`
		} `json:"pricebook"`
	}
	if err := c.doJSON(ctx, "list_pricebook_items", http.MethodGet, "/pricebooks/"+pricebookID, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("list pricebook items failed: %s", resp.Message)
	}
	return resp.Pricebook.PricebookItems, nil
}

func (c *Client) CreateContact(ctx context.Context, contact *Contact) (*Contact, error) {
	var resp struct {
		Code    int     `json:"code"`
		Message string  `json:"message"`
		Contact Contact `json:"contact"`
	}
	if err := c.doJSON(ctx, "create_contact", http.MethodPost, "/contacts", nil, contact, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("create contact failed: %s", resp.Message)
	}
	return &resp.Contact, nil
}

func (c *Client) CreateSalesOrder(ctx context.Context, so *SalesOrder) (*SalesOrder, error) {
	var resp struct {
		Code       int        `json:"code"`
		Message    string     `json:"message"`
		SalesOrder SalesOrder `json:"salesorder"`
	}
	if err := c.doJSON(ctx, "create_sales_order", http.MethodPost, "/salesorders", nil, so, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("create sales order failed: %s", resp.Message)
	}
	return &resp.SalesOrder, nil
}

func (c *Client) doJSON(ctx context.Context, opName, method, path string, query url.Values, payload, out interface{}) error {
	body, _, err := c.execute(ctx, opName, method, path, query, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, opName, path string) ([]byte, string, error) {
	return c.execute(ctx, opName, http.MethodGet, path, nil, nil)
}

// execute runs one logical call with up to maxAttempts HTTP attempts. Before
// every attempt it waits out the shared rate-limit cooldown. A rate-limited
// response extends the cooldown (doubling per consecutive event, capped at
// maxBackoff); any other failure backs off per-call without touching the
// shared state. A successful response resets the consecutive counter.
func (c *Client) execute(ctx context.Context, opName, method, path string, query url.Values, payload interface{}) ([]byte, string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.waitForCooldown(ctx); err != nil {
			return nil, "", err
		}

		token, err := c.ensureToken(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("token refresh failed: %w", err)
		}

		body, contentType, status, err := c.attempt(ctx, token, method, path, query, payload)
		c.logCall(opName, method, status, err)

		if err == nil {
			c.mu.Lock()
			c.rateLimitStreak = 0
			c.mu.Unlock()
			return body, contentType, nil
		}
		lastErr = err

		if isRateLimited(status, body) {
			c.extendCooldown()
			continue
		}
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			// Permanent client error, retrying will not help.
			return nil, "", err
		}
		if attempt < maxAttempts {
			c.sleep(callBackoff(attempt))
		}
	}

	return nil, "", fmt.Errorf("%s failed after %d attempts: %w", opName, maxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, token, method, path string, query url.Values, payload interface{}) ([]byte, string, int, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, "", 0, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.ZohoAPIBase+path, reqBody)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	q := req.URL.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if c.cfg.ZohoOrganizationID != "" {
		q.Set("organization_id", c.cfg.ZohoOrganizationID)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, "", resp.StatusCode, fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(body))
	}

	return body, resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

// ensureToken returns a cached access token, refreshing when it is within
// tokenSkew of expiry. Refresh is idempotent, so two overlapping callers both
// refreshing is harmless.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && c.now().Before(c.tokenExpiry.Add(-tokenSkew)) {
		token := c.accessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	q := url.Values{}
	q.Set("refresh_token", c.cfg.ZohoRefreshToken)
	q.Set("client_id", c.cfg.ZohoClientID)
	q.Set("client_secret", c.cfg.ZohoClientSecret)
	q.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ZohoAccountsBase+"/oauth/v2/token?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed: %d - %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.Error != "" {
		return "", fmt.Errorf("token refresh rejected: %s", tokenResp.Error)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	if tokenResp.ExpiresIn <= 0 {
		tokenResp.ExpiresIn = defaultExpiry
	}

	c.mu.Lock()
	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	c.mu.Unlock()

	return tokenResp.AccessToken, nil
}

func (c *Client) waitForCooldown(ctx context.Context) error {
	c.mu.Lock()
	wait := c.rateLimitedUntil.Sub(c.now())
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.logger.Warn("zoho rate limited, waiting %s", wait)
	c.sleep(wait)
	return ctx.Err()
}

// extendCooldown pushes the shared cooldown out, doubling per consecutive
// rate-limit event up to the cap. A later cooldown always wins or ties, so
// overlapping callers extending at once is safe.
func (c *Client) extendCooldown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rateLimitStreak++
	backoff := baseBackoff << (c.rateLimitStreak - 1)
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}
	until := c.now().Add(backoff)
	if until.After(c.rateLimitedUntil) {
		c.rateLimitedUntil = until
	}
	c.logger.Warn("zoho rate limit hit (streak %d), cooling down for %s", c.rateLimitStreak, backoff)
}

// logCall records the API call audit row. Failures here are swallowed;
// observability must never break the call it observes.
func (c *Client) logCall(endpoint, method string, status int, callErr error) {
	entry := &models.APICallLog{
		Endpoint:   endpoint,
		Method:     method,
		StatusCode: status,
		Success:    callErr == nil,
	}
	if callErr != nil {
		msg := callErr.Error()
		if len(msg) > 500 {
			msg = msg[:500]
		}
		entry.ErrorMessage = &msg
	}
	if err := c.db.Create(entry).Error; err != nil {
		c.logger.Debug("failed to write api call log: %v", err)
	}
}

func isRateLimited(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "too many requests") || strings.Contains(lower, "access denied")
}

func callBackoff(attempt int) time.Duration {
	backoff := baseBackoff << (attempt - 1)
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}
	return backoff
}
