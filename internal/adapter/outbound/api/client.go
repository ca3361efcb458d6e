// Package api is the HTTP adapter for the storefront's remote REST API.
// It implements outbound.Gateway.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/feastflow/storefront/internal/domain/analytics"
	"github.com/feastflow/storefront/internal/domain/menu"
	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/domain/session"
	"github.com/feastflow/storefront/internal/port/outbound"
)

// DefaultBaseURL is used when neither an option nor the environment sets one.
const DefaultBaseURL = "http://localhost:5000/api"

// Defaults for the circuit breaker.
const (
	DefaultBreakerFailures = 5
	DefaultBreakerTimeout  = 30 * time.Second
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// errServerFailure marks a 5xx response inside the breaker.
var errServerFailure = errors.New("server failure")

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

// Client calls the remote REST API.
type Client struct {
	baseURL     string
	timeout     time.Duration
	httpClient  *http.Client
	credentials outbound.CredentialSource

	hookMu         sync.RWMutex
	onUnauthorized func()

	breakerFailures uint32
	breakerTimeout  time.Duration
	breaker         *gobreaker.CircuitBreaker[*response]

	durations prometheus.ObserverVec
	requestID func() string
	logger    *slog.Logger
}

// NewClient creates a new API client.
// It reads FEASTFLOW_API_BASE_URL and FEASTFLOW_API_TIMEOUT by default.
// Options can be used to override the defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:         envOrDefault("FEASTFLOW_API_BASE_URL", DefaultBaseURL),
		timeout:         parseDurationEnv("FEASTFLOW_API_TIMEOUT", 10*time.Second),
		breakerFailures: DefaultBreakerFailures,
		breakerTimeout:  DefaultBreakerTimeout,
		requestID:       uuid.NewString,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	failures := c.breakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "api",
		MaxRequests: 1,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about server health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return c
}

// OnUnauthorized replaces the unauthorized hook after construction.
func (c *Client) OnUnauthorized(fn func()) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onUnauthorized = fn
}

// BreakerState reports the circuit breaker state ("closed", "open", "half-open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Login exchanges email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (*outbound.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return authResult("login", resp)
}

// Register creates an account and returns its credential.
func (c *Client) Register(ctx context.Context, name, email, password string) (*outbound.AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var resp authResponse
	if err := c.doJSON(ctx, "register", http.MethodPost, "/auth/register", body, &resp); err != nil {
		return nil, err
	}
	return authResult("register", resp)
}

func authResult(op string, resp authResponse) (*outbound.AuthResult, error) {
	if resp.Token == "" {
		return nil, &outbound.GatewayError{Op: op, Status: http.StatusOK, Message: "response carried no token"}
	}
	return &outbound.AuthResult{Credential: resp.Token, Identity: resp.User}, nil
}

// GetProfile returns the identity behind the current credential.
func (c *Client) GetProfile(ctx context.Context) (*session.Identity, error) {
	data, err := c.do(ctx, "getProfile", http.MethodGet, "/auth/profile", nil)
	if err != nil {
		return nil, err
	}
	id, err := decodeOne[session.Identity](data, "user")
	if err != nil {
		return nil, decodeError("getProfile", err)
	}
	return id, nil
}

// ListMenu returns all menu items.
func (c *Client) ListMenu(ctx context.Context) ([]menu.Item, error) {
	data, err := c.do(ctx, "listMenu", http.MethodGet, "/menu", nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[wireMenuItem](data, "items")
	if err != nil {
		return nil, decodeError("listMenu", err)
	}
	out := make([]menu.Item, len(items))
	for i, it := range items {
		out[i] = it.toDomain()
	}
	return out, nil
}

// CreateMenuItem adds a menu item.
func (c *Client) CreateMenuItem(ctx context.Context, p menu.Payload) (*menu.Item, error) {
	return c.saveMenuItem(ctx, "createMenuItem", http.MethodPost, "/menu", p)
}

// UpdateMenuItem replaces a menu item.
func (c *Client) UpdateMenuItem(ctx context.Context, id string, p menu.Payload) (*menu.Item, error) {
	return c.saveMenuItem(ctx, "updateMenuItem", http.MethodPut, "/menu/"+url.PathEscape(id), p)
}

func (c *Client) saveMenuItem(ctx context.Context, op, method, path string, p menu.Payload) (*menu.Item, error) {
	data, err := c.do(ctx, op, method, path, toMenuPayload(p))
	if err != nil {
		return nil, err
	}
	w, err := decodeOne[wireMenuItem](data, "item")
	if err != nil {
		return nil, decodeError(op, err)
	}
	it := w.toDomain()
	return &it, nil
}

// DeleteMenuItem removes a menu item.
func (c *Client) DeleteMenuItem(ctx context.Context, id string) error {
	_, err := c.do(ctx, "deleteMenuItem", http.MethodDelete, "/menu/"+url.PathEscape(id), nil)
	return err
}

// CreateOrder places an order.
func (c *Client) CreateOrder(ctx context.Context, d order.Draft) (*order.Order, error) {
	data, err := c.do(ctx, "createOrder", http.MethodPost, "/orders", d)
	if err != nil {
		return nil, err
	}
	w, err := decodeOne[wireOrder](data, "order")
	if err != nil {
		return nil, decodeError("createOrder", err)
	}
	o := w.toDomain()
	return &o, nil
}

// ListMyOrders returns the signed-in customer's orders.
func (c *Client) ListMyOrders(ctx context.Context) ([]order.Order, error) {
	return c.listOrders(ctx, "listMyOrders", "/orders/my")
}

// ListAllOrders returns one page of all orders (admin).
func (c *Client) ListAllOrders(ctx context.Context, page int) ([]order.Order, error) {
	if page < 1 {
		page = 1
	}
	return c.listOrders(ctx, "listAllOrders", "/orders?page="+strconv.Itoa(page))
}

func (c *Client) listOrders(ctx context.Context, op, path string) ([]order.Order, error) {
	data, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	ws, err := decodeList[wireOrder](data, "orders")
	if err != nil {
		return nil, decodeError(op, err)
	}
	return toOrders(ws), nil
}

// UpdateOrderStatus sets an order's status (admin).
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	path := "/orders/" + url.PathEscape(id) + "/status"
	_, err := c.do(ctx, "updateOrderStatus", http.MethodPut, path, statusRequest{Status: status})
	return err
}

// GetAnalytics returns the daily report for the inclusive date range.
func (c *Client) GetAnalytics(ctx context.Context, startDate, endDate string) (*analytics.Report, error) {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	var report analytics.Report
	if err := c.doJSON(ctx, "getAnalytics", http.MethodGet, "/analytics/daily?"+q.Encode(), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// doJSON performs a request and unmarshals the body into result.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body, result any) error {
	data, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return decodeError(op, err)
		}
	}
	return nil
}

// do performs an HTTP request and returns the body of a 2xx response.
// Other outcomes become *outbound.AuthError or *outbound.GatewayError.
func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	credential := ""
	if c.credentials != nil {
		credential = c.credentials.Credential()
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.send(ctx, method, path, payload, credential)
	})
	if c.durations != nil {
		c.durations.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, &outbound.GatewayError{Op: op, Cause: err}
	case err != nil && !errors.Is(err, errServerFailure):
		return nil, &outbound.GatewayError{Op: op, Cause: err}
	}

	if resp.status >= 200 && resp.status < 300 {
		return resp.body, nil
	}
	return nil, c.statusError(op, resp, credential != "")
}

// send performs one round trip. 5xx responses are returned together with
// errServerFailure so they count against the breaker.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, credential string) (*response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+credential)
	}
	reqID := c.requestID()
	httpReq.Header.Set("X-Request-ID", reqID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("api request", "method", method, "path", path, "status", httpResp.StatusCode, "request_id", reqID)

	resp := &response{status: httpResp.StatusCode, body: respBody}
	if resp.status >= 500 {
		return resp, errServerFailure
	}
	return resp, nil
}

// statusError maps a non-2xx response onto the error taxonomy.
func (c *Client) statusError(op string, resp *response, sentCredential bool) error {
	msg := serverMessage(resp.body)
	authOp := op == "login" || op == "register"

	switch {
	case authOp && (resp.status == http.StatusBadRequest || resp.status == http.StatusUnauthorized):
		return &outbound.AuthError{Op: op, Status: resp.status, Message: msg}
	case resp.status == http.StatusUnauthorized:
		if sentCredential {
			c.logger.Info("credential rejected, clearing session", "op", op)
			c.hookMu.RLock()
			hook := c.onUnauthorized
			c.hookMu.RUnlock()
			if hook != nil {
				hook()
			}
		}
		return &outbound.AuthError{Op: op, Status: resp.status, Message: msg}
	default:
		return &outbound.GatewayError{Op: op, Status: resp.status, Message: msg}
	}
}

func serverMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.text() != "" {
		return e.text()
	}
	return ""
}

func decodeError(op string, err error) error {
	return &outbound.GatewayError{Op: op, Status: http.StatusOK, Message: "unexpected response: " + err.Error()}
}

// Helper functions for env var parsing.

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func parseDurationEnv(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	// Try parsing as seconds (integer).
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	// Try parsing as duration string.
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultVal
}

// Compile-time interface verification.
var _ outbound.Gateway = (*Client)(nil)
