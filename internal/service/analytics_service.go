package service

import (
	"context"
	"time"

	"github.com/feastflow/storefront/internal/domain/analytics"
	"github.com/feastflow/storefront/internal/port/outbound"
)

// AnalyticsService loads the admin sales report.
type AnalyticsService struct {
	gateway  outbound.Gateway
	notifier outbound.Notifier
	now      func() time.Time
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(gateway outbound.Gateway, notifier outbound.Notifier) *AnalyticsService {
	return &AnalyticsService{gateway: gateway, notifier: notifier, now: time.Now}
}

// Daily returns the report for the inclusive range. Empty dates default
// to the last seven days.
func (s *AnalyticsService) Daily(ctx context.Context, start, end string) (*analytics.Report, error) {
	rng, err := analytics.ParseRange(start, end, s.now())
	if err != nil {
		return nil, err
	}

	rep, err := s.gateway.GetAnalytics(ctx, rng.StartParam(), rng.EndParam())
	if err != nil {
		s.notifier.Error(outbound.UserMessage(err, "Failed to load analytics"))
		return nil, err
	}
	if rep.Period.Start == "" {
		rep.Period = analytics.Period{Start: rng.StartParam(), End: rng.EndParam()}
	}
	return rep, nil
}
