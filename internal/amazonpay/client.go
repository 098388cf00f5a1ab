package amazonpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/rentkit/payflow/internal/config"
	obsmetrics "github.com/rentkit/payflow/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	headerIdempotencyKey = "x-amz-pay-Idempotency-Key"
	headerPublicKeyID    = "x-amz-pay-Public-Key-Id"

	defaultMaxRetries = 3
)

// Client is a typed HTTP client for the processor API. Mutating calls
// take a caller-supplied idempotency key which is preserved across
// retries of the same attempt. The client mutates no local state.
type Client struct {
	baseURL     string
	storeID     string
	publicKeyID string
	maxRetries  int

	httpClient *http.Client
	log        *zap.Logger
	obsMetrics *obsmetrics.Metrics

	// injectable for tests
	sleep  func(time.Duration)
	jitter func() float64
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSleep overrides the retry sleep function.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithJitter overrides the retry jitter source.
func WithJitter(fn func() float64) Option {
	return func(c *Client) { c.jitter = fn }
}

// NewClient builds a processor client from config.
func NewClient(cfg config.AmazonPayConfig, log *zap.Logger, m *obsmetrics.Metrics, opts ...Option) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	c := &Client{
		baseURL:     cfg.BaseURL,
		storeID:     cfg.StoreID,
		publicKeyID: cfg.PublicKeyID,
		maxRetries:  maxRetries,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		log:         log.Named("amazonpay.client"),
		obsMetrics:  m,
		sleep:       time.Sleep,
		jitter:      rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StoreID returns the configured merchant store identifier.
func (c *Client) StoreID() string { return c.storeID }

func (c *Client) CreateCheckoutSession(ctx context.Context, req *CreateCheckoutSessionRequest, key IdempotencyKey) (*CheckoutSession, error) {
	var out CheckoutSession
	if err := c.do(ctx, "create_checkout_session", http.MethodPost, "/v2/checkoutSessions", key, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCheckoutSession(ctx context.Context, checkoutSessionID string) (*CheckoutSession, error) {
	var out CheckoutSession
	path := "/v2/checkoutSessions/" + url.PathEscape(checkoutSessionID)
	if err := c.do(ctx, "get_checkout_session", http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCheckoutSession(ctx context.Context, checkoutSessionID string, req *UpdateCheckoutSessionRequest) (*CheckoutSession, error) {
	var out CheckoutSession
	path := "/v2/checkoutSessions/" + url.PathEscape(checkoutSessionID)
	if err := c.do(ctx, "update_checkout_session", http.MethodPatch, path, "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteCheckoutSession(ctx context.Context, checkoutSessionID string, req *CompleteCheckoutSessionRequest, key IdempotencyKey) (*CheckoutSession, error) {
	var out CheckoutSession
	path := "/v2/checkoutSessions/" + url.PathEscape(checkoutSessionID) + "/complete"
	if err := c.do(ctx, "complete_checkout_session", http.MethodPost, path, key, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCharge(ctx context.Context, req *CreateChargeRequest, key IdempotencyKey) (*Charge, error) {
	var out Charge
	if err := c.do(ctx, "create_charge", http.MethodPost, "/v2/charges", key, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCharge(ctx context.Context, chargeID string) (*Charge, error) {
	var out Charge
	path := "/v2/charges/" + url.PathEscape(chargeID)
	if err := c.do(ctx, "get_charge", http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CaptureCharge(ctx context.Context, chargeID string, req *CaptureChargeRequest, key IdempotencyKey) (*Charge, error) {
	var out Charge
	path := "/v2/charges/" + url.PathEscape(chargeID) + "/capture"
	if err := c.do(ctx, "capture_charge", http.MethodPost, path, key, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelCharge(ctx context.Context, chargeID string, req *CancelChargeRequest, key IdempotencyKey) (*Charge, error) {
	var out Charge
	path := "/v2/charges/" + url.PathEscape(chargeID) + "/cancel"
	if err := c.do(ctx, "cancel_charge", http.MethodDelete, path, key, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateRefund(ctx context.Context, req *CreateRefundRequest, key IdempotencyKey) (*Refund, error) {
	var out Refund
	if err := c.do(ctx, "create_refund", http.MethodPost, "/v2/refunds", key, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRefund(ctx context.Context, refundID string) (*Refund, error) {
	var out Refund
	path := "/v2/refunds/" + url.PathEscape(refundID)
	if err := c.do(ctx, "get_refund", http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetChargePermission(ctx context.Context, chargePermissionID string) (*ChargePermission, error) {
	var out ChargePermission
	path := "/v2/chargePermissions/" + url.PathEscape(chargePermissionID)
	if err := c.do(ctx, "get_charge_permission", http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBuyer(ctx context.Context, buyerToken string) (*Buyer, error) {
	var out Buyer
	path := "/v2/buyers/" + url.PathEscape(buyerToken)
	if err := c.do(ctx, "get_buyer", http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do issues one logical call: request, classify, retry on {429,500,503}
// with exponential backoff plus jitter, preserving the idempotency key.
func (c *Client) do(ctx context.Context, operation, method, path string, key IdempotencyKey, body, out any) error {
	start := time.Now()

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("amazon pay %s: encode request: %w", operation, err)
		}
		payload = encoded
	}

	var attempt int
	for {
		status, respBody, err := c.send(ctx, method, path, key, payload)
		if err != nil {
			c.obsMetrics.RecordGatewayRequest(operation, "transport_error", time.Since(start))
			return &TransportError{Operation: operation, Err: err}
		}

		if status >= 200 && status < 300 {
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					c.obsMetrics.RecordGatewayRequest(operation, "decode_error", time.Since(start))
					return fmt.Errorf("amazon pay %s: decode response: %w", operation, err)
				}
			}
			c.obsMetrics.RecordGatewayRequest(operation, "success", time.Since(start))
			return nil
		}

		httpErr := newHTTPStatusError(operation, status, respBody)
		if httpErr.Retryable() && attempt < c.maxRetries {
			attempt++
			delay := c.backoffDelay(attempt)
			c.log.Info("amazon pay api retry",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", c.maxRetries),
				zap.Duration("delay", delay),
				zap.Int("status", status),
				zap.String("reason_code", httpErr.ReasonCode),
			)
			c.obsMetrics.RecordGatewayRetry(operation)
			select {
			case <-ctx.Done():
				c.obsMetrics.RecordGatewayRequest(operation, "canceled", time.Since(start))
				return ctx.Err()
			default:
			}
			c.sleep(delay)
			continue
		}

		c.obsMetrics.RecordGatewayRequest(operation, "error", time.Since(start))
		return httpErr
	}
}

func (c *Client) send(ctx context.Context, method, path string, key IdempotencyKey, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.publicKeyID != "" {
		req.Header.Set(headerPublicKeyID, c.publicKeyID)
	}
	if key != "" {
		req.Header.Set(headerIdempotencyKey, string(key))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// backoffDelay returns 2^(n-1) seconds plus uniform jitter in [0,1)s.
func (c *Client) backoffDelay(attempt int) time.Duration {
	base := math.Pow(2, float64(attempt-1))
	return time.Duration((base + c.jitter()) * float64(time.Second))
}
