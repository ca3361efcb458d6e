package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/feastflow/storefront/internal/adapter/outbound/cel"
	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/domain/validation"
	"github.com/feastflow/storefront/internal/port/outbound"
)

// AdminOrderService backs the admin order board.
type AdminOrderService struct {
	gateway  outbound.Gateway
	filter   *cel.Filter
	notifier outbound.Notifier
	logger   *slog.Logger
	view     *order.View
}

// NewAdminOrderService creates an AdminOrderService with an empty view.
// filter may be nil, in which case Filter is unavailable.
func NewAdminOrderService(gateway outbound.Gateway, filter *cel.Filter, notifier outbound.Notifier, logger *slog.Logger) *AdminOrderService {
	return &AdminOrderService{
		gateway:  gateway,
		filter:   filter,
		notifier: notifier,
		logger:   logger,
		view:     order.NewView(),
	}
}

// View returns the orders view the board shows.
func (s *AdminOrderService) View() *order.View {
	return s.view
}

// Load fetches one page of all orders into the view.
func (s *AdminOrderService) Load(ctx context.Context, page int) ([]order.Order, error) {
	tok := s.view.BeginFetch()
	orders, err := s.gateway.ListAllOrders(ctx, page)
	if err != nil {
		s.notifier.Error("Failed to load orders")
		return nil, err
	}
	if !s.view.CompleteFetch(tok, orders) {
		s.logger.Debug("discarding superseded admin order fetch", "page", page)
	}
	return s.view.Orders(), nil
}

// UpdateStatus sets an order's status. The view shows the new status
// immediately and reverts if the gateway call fails.
func (s *AdminOrderService) UpdateStatus(ctx context.Context, id, status string) error {
	st, err := order.ParseStatus(status)
	if err != nil {
		return validation.NewValidationError("status", "Please select a valid status")
	}

	err = WithRollback(ctx, Optimistic[[]order.Order]{
		Snapshot: s.view.Snapshot,
		Apply:    func() { s.view.SetStatus(id, st) },
		Commit: func(ctx context.Context) error {
			return s.gateway.UpdateOrderStatus(ctx, id, st)
		},
		Restore: s.view.Restore,
	})
	if err != nil {
		s.logger.Error("failed to update order status", "order_id", id, "status", st, "error", err)
		s.notifier.Error(outbound.UserMessage(err, "Failed to update status"))
		return err
	}
	s.notifier.Success("Order status updated")
	return nil
}

// Filter returns the view's orders matching a CEL expression such as
// `order.status == "preparing" && order.total > 20`.
func (s *AdminOrderService) Filter(ctx context.Context, expr string) ([]order.Order, error) {
	if s.filter == nil {
		return nil, errors.New("order filtering is not configured")
	}
	out, err := s.filter.Apply(ctx, expr, s.view.Orders())
	if errors.Is(err, cel.ErrInvalidExpression) {
		return nil, validation.NewValidationError("filter", err.Error())
	}
	return out, err
}
