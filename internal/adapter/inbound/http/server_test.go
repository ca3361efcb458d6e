package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/feastflow/storefront/internal/domain/order"
)

func newTestServer(opts ...Option) (*Server, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return NewServer(reg, opts...), reg
}

func TestServer_Routes(t *testing.T) {
	view := watchedView()
	srv, reg := newTestServer(WithOrders(view))
	probe := prometheus.NewCounter(prometheus.CounterOpts{Name: "feastflow_probe_total", Help: "probe"})
	reg.MustRegister(probe)
	probe.Inc()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	var orders []order.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	assert.Len(t, orders, 2)

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "feastflow_probe_total 1")
	assert.Contains(t, string(body), `feastflow_status_requests_total{route="/orders",status="ok"} 1`)
}

func TestServer_OrdersWithoutView(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RequestIDEchoed(t *testing.T) {
	srv, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestServer_StartAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv, _ := newTestServer(WithAddr("127.0.0.1:0"))
	require.NoError(t, srv.Listen())
	assert.False(t, strings.HasSuffix(srv.Addr(), ":0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + srv.Addr() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	http.DefaultClient.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ListenFails(t *testing.T) {
	srv, _ := newTestServer(WithAddr("256.0.0.1:99999"))
	assert.Error(t, srv.Start(context.Background()))
}
