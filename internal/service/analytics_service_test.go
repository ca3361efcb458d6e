package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastflow/storefront/internal/adapter/outbound/notify"
	"github.com/feastflow/storefront/internal/domain/analytics"
	"github.com/feastflow/storefront/internal/domain/validation"
	"github.com/feastflow/storefront/internal/port/outbound"
)

func newAnalytics(gw *fakeGateway) (*AnalyticsService, *notify.Recorder) {
	rec := notify.NewRecorder()
	s := NewAnalyticsService(gw, rec)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC) }
	return s, rec
}

func TestAnalytics_DefaultRange(t *testing.T) {
	var start, end string
	s, _ := newAnalytics(&fakeGateway{getAnalytics: func(_ context.Context, a, b string) (*analytics.Report, error) {
		start, end = a, b
		return &analytics.Report{}, nil
	}})

	rep, err := s.Daily(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", start)
	assert.Equal(t, "2026-03-10", end)
	assert.Equal(t, analytics.Period{Start: "2026-03-03", End: "2026-03-10"}, rep.Period)
}

func TestAnalytics_KeepsServerPeriod(t *testing.T) {
	s, _ := newAnalytics(&fakeGateway{getAnalytics: func(context.Context, string, string) (*analytics.Report, error) {
		return &analytics.Report{Period: analytics.Period{Start: "2026-01-01T00:00:00Z", End: "2026-01-31T23:59:59Z"}}, nil
	}})

	rep, err := s.Daily(context.Background(), "2026-01-01", "2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01T00:00:00Z", rep.Period.Start)
}

func TestAnalytics_BadRangeNeverCallsGateway(t *testing.T) {
	gw := &fakeGateway{}
	s, _ := newAnalytics(gw)

	_, err := s.Daily(context.Background(), "2026-02-10", "2026-02-01")
	assert.ErrorIs(t, err, validation.ErrInvalid)
	_, err = s.Daily(context.Background(), "yesterday", "")
	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.Zero(t, gw.calls.Load())
}

func TestAnalytics_GatewayFailure(t *testing.T) {
	s, rec := newAnalytics(&fakeGateway{getAnalytics: func(context.Context, string, string) (*analytics.Report, error) {
		return nil, &outbound.AuthError{Op: "getAnalytics", Status: 403}
	}})

	_, err := s.Daily(context.Background(), "", "")
	assert.ErrorIs(t, err, outbound.ErrAuth)
	assert.Equal(t, []string{"Failed to load analytics"}, rec.Texts())
}
