package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/crypto"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// ClobClient is the REST client for the Polymarket CLOB (Central Limit
// Order Book) API. The bot uses it for live order submission.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	address    string
	hmacAuth   *crypto.HMACAuth
	log        *slog.Logger
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// address is the funding wallet address sent in the auth headers.
// auth is the HMAC credential blob; it may be nil in dry-run setups where
// the client is never asked to submit.
func NewClobClient(baseURL, address string, auth *crypto.HMACAuth, log *slog.Logger) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		address:  address,
		hmacAuth: auth,
		log:      log.With("component", "clob"),
	}
}

// SubmitTrade submits a market order for the intent and reports success. It
// never returns an error to the caller; failures are logged and read as
// false, so the bot skips the ledger update for that intent.
func (c *ClobClient) SubmitTrade(ctx context.Context, intent domain.TradeIntent) bool {
	if c.hmacAuth == nil {
		c.log.Error("live trade requested without API credentials", "market_id", intent.MarketID)
		return false
	}

	payload := map[string]any{
		"market":  intent.MarketID,
		"outcome": string(intent.Side),
		"side":    string(intent.Action),
		"size":    intent.Amount,
		"price":   intent.Price,
		"type":    "FOK",
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/order", payload)
	if err != nil {
		c.log.Error("order submission failed",
			"market_id", intent.MarketID,
			"side", intent.Side,
			"action", intent.Action,
			"error", err)
		return false
	}

	var result APIOrderResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		c.log.Error("order response decode failed", "market_id", intent.MarketID, "error", err)
		return false
	}
	if !result.Success {
		c.log.Error("order rejected",
			"market_id", intent.MarketID,
			"status", result.Status,
			"error_msg", result.ErrorMsg)
		return false
	}

	c.log.Info("order accepted",
		"market_id", intent.MarketID,
		"order_id", result.OrderID,
		"side", intent.Side,
		"amount", intent.Amount,
		"price", intent.Price)
	return true
}

// doAuthenticatedRequest builds, signs (HMAC), sends, and reads an HTTP
// request against the CLOB API. It returns the raw response body.
func (c *ClobClient) doAuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range c.hmacAuth.L2Headers(c.address, method, path, bodyStr) {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
