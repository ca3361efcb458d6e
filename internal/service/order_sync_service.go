package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/port/outbound"
)

// DefaultStatusEvent is the push event carrying order status changes.
const DefaultStatusEvent = "orderStatusUpdated"

// OrderSyncService loads the customer's orders into a view and keeps the
// view current from push events.
type OrderSyncService struct {
	gateway  outbound.Gateway
	push     outbound.PushChannel
	event    string
	notifier outbound.Notifier
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

// NewOrderSyncService creates an OrderSyncService. An empty event name
// means DefaultStatusEvent.
func NewOrderSyncService(gateway outbound.Gateway, push outbound.PushChannel, event string, notifier outbound.Notifier, logger *slog.Logger, metrics *Metrics) *OrderSyncService {
	if event == "" {
		event = DefaultStatusEvent
	}
	return &OrderSyncService{
		gateway:  gateway,
		push:     push,
		event:    event,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// LoadMine fetches the signed-in customer's orders into view. A result
// that arrives after a newer fetch began, or after the view was closed,
// is discarded.
func (s *OrderSyncService) LoadMine(ctx context.Context, view *order.View) error {
	tok := view.BeginFetch()
	orders, err := s.gateway.ListMyOrders(ctx)
	if err != nil {
		s.notifier.Error(outbound.UserMessage(err, "Failed to load orders"))
		return err
	}
	if !view.CompleteFetch(tok, orders) {
		s.logger.Debug("discarding superseded order fetch")
	}
	return nil
}

// HandleEvent reconciles one push event into view. It reports whether an
// order changed. Events for orders the view does not hold are ignored.
func (s *OrderSyncService) HandleEvent(view *order.View, ev outbound.PushEvent) bool {
	_, ok := s.handle(view, ev)
	return ok
}

func (s *OrderSyncService) handle(view *order.View, ev outbound.PushEvent) (string, bool) {
	var se order.StatusEvent
	if err := json.Unmarshal(ev.Payload, &se); err != nil || se.OrderID == "" {
		s.metrics.pushEvent("malformed")
		s.logger.Warn("dropping malformed status event", "event", ev.Name, "payload", string(ev.Payload))
		return "", false
	}

	if !view.Apply(se, s.now()) {
		s.metrics.pushEvent("ignored")
		s.logger.Debug("status event for unknown order", "order_id", se.OrderID)
		return "", false
	}

	s.metrics.pushEvent("applied")
	s.logger.Info("order status updated", "order_id", se.OrderID, "status", se.Status)
	s.notifier.Success("Order status updated: " + string(se.Status))
	return se.OrderID, true
}

// Watch applies status events to view until ctx is cancelled, then tears
// the subscription down.
func (s *OrderSyncService) Watch(ctx context.Context, view *order.View) error {
	return s.WatchFunc(ctx, view, nil)
}

// WatchFunc is Watch with a callback run after each applied event.
func (s *OrderSyncService) WatchFunc(ctx context.Context, view *order.View, onApplied func(order.Order)) error {
	sub, err := s.push.Subscribe(ctx, s.event)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return sub.Err()
			}
			if view.Closed() {
				return nil
			}
			id, applied := s.handle(view, ev)
			if !applied || onApplied == nil {
				continue
			}
			if o, found := view.Get(id); found {
				onApplied(o)
			}
		}
	}
}
