package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"

	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/domain/session"
)

// HealthResponse is the body served on /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
}

// BreakerProbe reports the gateway circuit breaker state.
type BreakerProbe interface {
	BreakerState() string
}

// SessionProbe reports the session readiness.
type SessionProbe interface {
	State() session.State
}

// HealthChecker summarises the watcher's moving parts. Any probe may be nil.
type HealthChecker struct {
	breaker BreakerProbe
	session SessionProbe
	orders  *order.View
	version string
}

func NewHealthChecker(breaker BreakerProbe, sess SessionProbe, orders *order.View, version string) *HealthChecker {
	return &HealthChecker{breaker: breaker, session: sess, orders: orders, version: version}
}

const notConfigured = "not configured"

// Check reports every probe. Only an open breaker makes the result unhealthy.
func (h *HealthChecker) Check() HealthResponse {
	gateway, ok := h.gatewayCheck()
	resp := HealthResponse{
		Status: "healthy",
		Checks: map[string]string{
			"gateway":    gateway,
			"session":    h.sessionCheck(),
			"orders":     h.ordersCheck(),
			"goroutines": strconv.Itoa(runtime.NumGoroutine()),
		},
		Version: h.version,
	}
	if !ok {
		resp.Status = "unhealthy"
	}
	return resp
}

func (h *HealthChecker) gatewayCheck() (string, bool) {
	switch {
	case h.breaker == nil:
		return notConfigured, true
	case h.breaker.BreakerState() == "open":
		return "degraded: breaker open", false
	default:
		return "ok: breaker " + h.breaker.BreakerState(), true
	}
}

func (h *HealthChecker) sessionCheck() string {
	if h.session == nil {
		return notConfigured
	}
	return h.session.State().String()
}

func (h *HealthChecker) ordersCheck() string {
	switch {
	case h.orders == nil:
		return notConfigured
	case h.orders.Closed():
		return "closed"
	default:
		return fmt.Sprintf("ok: %d held", h.orders.Len())
	}
}

// Handler serves Check as JSON, with 503 when unhealthy.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := h.Check()
		code := http.StatusOK
		if resp.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	})
}
