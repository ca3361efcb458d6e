package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/domain/session"
)

// discardLogger returns a logger that discards all output (for tests)
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type breakerStub string

func (b breakerStub) BreakerState() string { return string(b) }

type sessionStub session.State

func (s sessionStub) State() session.State { return session.State(s) }

func watchedView() *order.View {
	v := order.NewView()
	v.Restore([]order.Order{{ID: "o1", Status: order.StatusPreparing}, {ID: "o2", Status: order.StatusDelivered}})
	return v
}

func TestHealthChecker_Healthy(t *testing.T) {
	hc := NewHealthChecker(breakerStub("closed"), sessionStub(session.StateAuthenticated), watchedView(), "test-version")

	health := hc.Check()

	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	if health.Version != "test-version" {
		t.Errorf("Version = %q, want test-version", health.Version)
	}
	if health.Checks["gateway"] != "ok: breaker closed" {
		t.Errorf("gateway check = %q", health.Checks["gateway"])
	}
	if health.Checks["session"] != "authenticated" {
		t.Errorf("session check = %q, want authenticated", health.Checks["session"])
	}
	if health.Checks["orders"] != "ok: 2 held" {
		t.Errorf("orders check = %q, want %q", health.Checks["orders"], "ok: 2 held")
	}
}

func TestHealthChecker_NilComponents(t *testing.T) {
	hc := NewHealthChecker(nil, nil, nil, "")
	health := hc.Check()

	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	for _, name := range []string{"gateway", "session", "orders"} {
		if health.Checks[name] != "not configured" {
			t.Errorf("%s = %q, want 'not configured'", name, health.Checks[name])
		}
	}
	if _, ok := health.Checks["goroutines"]; !ok {
		t.Error("goroutines check missing")
	}
}

func TestHealthChecker_BreakerOpenIsUnhealthy(t *testing.T) {
	hc := NewHealthChecker(breakerStub("open"), nil, nil, "")

	rec := httptest.NewRecorder()
	hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var body HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", body.Status)
	}
	if body.Checks["gateway"] != "degraded: breaker open" {
		t.Errorf("gateway = %q", body.Checks["gateway"])
	}
}

func TestHealthChecker_ClosedView(t *testing.T) {
	v := watchedView()
	v.Close()
	health := NewHealthChecker(nil, nil, v, "").Check()

	if health.Checks["orders"] != "closed" {
		t.Errorf("orders = %q, want closed", health.Checks["orders"])
	}
}
