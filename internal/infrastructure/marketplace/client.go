// Package marketplace implements the REST client for the marketplace API:
// OAuth client-credentials tokens, autoload report reads and per-item price
// and stock updates.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/infrastructure/cache"
	"github.com/marketsync/backend/internal/infrastructure/config"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response
	// defaultReportPageSize is the API limit on ids per report query, used
	// when the configured page size is absent
	defaultReportPageSize = 100
	// tokenExpiryMargin is subtracted from the token TTL so a cached token
	// never reaches the API right at its expiry
	tokenExpiryMargin = 60 * time.Second
)

// Client talks to the marketplace REST API for one account.
type Client struct {
	cfg        config.MarketplaceConfig
	httpClient *http.Client
	tokens     cache.TokenCache
	logger     *zap.Logger
}

// NewClient creates a marketplace client. The token cache may be shared
// between instances serving the same account.
func NewClient(cfg config.MarketplaceConfig, tokens cache.TokenCache, logger *zap.Logger) *Client {
	if tokens == nil {
		tokens = cache.NewMemoryTokenCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens: tokens,
		logger: logger,
	}
}

// UpdatePrice pushes a new price for a published listing.
func (c *Client) UpdatePrice(ctx context.Context, marketplaceID string, price decimal.Decimal) error {
	body := priceUpdateRequest{Price: price.IntPart()}
	path := fmt.Sprintf("/core/v1/items/%s/update_price", url.PathEscape(marketplaceID))
	_, err := c.doRequest(ctx, http.MethodPost, path, nil, body)
	return err
}

// UpdateQuantity pushes a new stock quantity for a published listing.
func (c *Client) UpdateQuantity(ctx context.Context, marketplaceID, article string, quantity decimal.Decimal) error {
	body := stockUpdateRequest{
		Stocks: []stockUpdateItem{{
			ExternalID: article,
			ItemID:     marketplaceID,
			Quantity:   quantity.IntPart(),
		}},
	}
	_, err := c.doRequest(ctx, http.MethodPut, "/stock-management/1/stocks", nil, body)
	return err
}

// ReportItems fetches the autoload report rows for the given articles. The
// API bounds the number of ids per query, so the article list is chunked
// transparently using the configured page size.
func (c *Client) ReportItems(ctx context.Context, articles []string) ([]ReportItem, error) {
	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultReportPageSize
	}

	var all []ReportItem
	for start := 0; start < len(articles); start += pageSize {
		end := start + pageSize
		if end > len(articles) {
			end = len(articles)
		}
		query := url.Values{"query": {strings.Join(articles[start:end], "|")}}
		raw, err := c.doRequest(ctx, http.MethodGet, "/autoload/v2/reports/items", query, nil)
		if err != nil {
			return nil, err
		}
		var resp reportItemsResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("marketplace: failed to parse report response: %w", err)
		}
		all = append(all, resp.Items...)
	}
	return all, nil
}

// TriggerUpload asks the marketplace to pull the autoload feed now.
func (c *Client) TriggerUpload(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/autoload/v1/upload", nil, nil)
	return err
}

// doRequest performs one authorized API call. A 401 invalidates the cached
// token and the call is retried once with a fresh one.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}

		raw, status, err := c.send(ctx, method, path, query, body, token)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized && attempt == 0 {
			c.logger.Debug("marketplace token rejected, refreshing")
			if err := c.tokens.Delete(ctx, c.cfg.ClientID); err != nil {
				return nil, err
			}
			continue
		}
		if status < 200 || status >= 300 {
			var apiErr apiError
			if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
				return nil, fmt.Errorf("marketplace: %s %s: %d - %s", method, path, status, apiErr.Error.Message)
			}
			return nil, fmt.Errorf("marketplace: %s %s: unexpected status %d", method, path, status)
		}
		return raw, nil
	}
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, token string) ([]byte, int, error) {
	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, err
	}
	return raw, resp.StatusCode, nil
}

// accessToken returns a cached token or mints a new one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	token, err := c.tokens.Get(ctx, c.cfg.ClientID)
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/token/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("marketplace: token request failed: %d - %s", resp.StatusCode, string(raw))
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", fmt.Errorf("marketplace: malformed token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("marketplace: token response carried no access token")
	}

	ttl := time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin
	if ttl > 0 {
		if err := c.tokens.Set(ctx, c.cfg.ClientID, tr.AccessToken, ttl); err != nil {
			return "", err
		}
	}
	return tr.AccessToken, nil
}
