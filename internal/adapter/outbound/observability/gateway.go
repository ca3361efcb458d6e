// Package observability decorates outbound ports with OpenTelemetry spans,
// counters and structured logs, and sets up the process-wide providers.
package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/feastflow/storefront/internal/domain/analytics"
	"github.com/feastflow/storefront/internal/domain/menu"
	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/domain/session"
	"github.com/feastflow/storefront/internal/port/outbound"
)

const tracerName = "github.com/feastflow/storefront/internal/adapter/outbound/observability/gateway"

// Gateway decorates an outbound.Gateway with tracing, logging, and metrics.
type Gateway struct {
	inner   outbound.Gateway
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics gatewayMetrics
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(g *Gateway) {
		g.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(g *Gateway) {
		g.metrics = newGatewayMetrics(m)
	}
}

// NewGateway wraps inner.
func NewGateway(inner outbound.Gateway, opts ...Option) *Gateway {
	g := &Gateway{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newGatewayMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.tracer == nil {
		g.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return g
}

func (g *Gateway) Login(ctx context.Context, email, password string) (*outbound.AuthResult, error) {
	ctx, span := g.start(ctx, "login")
	defer span.End()

	res, err := g.inner.Login(ctx, email, password)
	if err != nil {
		return nil, g.handleError(ctx, span, "login", err, "login failed")
	}
	g.done(ctx, span, "login", attribute.String("user.role", string(res.Identity.Role)))
	return res, nil
}

func (g *Gateway) Register(ctx context.Context, name, email, password string) (*outbound.AuthResult, error) {
	ctx, span := g.start(ctx, "register")
	defer span.End()

	res, err := g.inner.Register(ctx, name, email, password)
	if err != nil {
		return nil, g.handleError(ctx, span, "register", err, "registration failed")
	}
	g.done(ctx, span, "register", attribute.String("user.role", string(res.Identity.Role)))
	return res, nil
}

func (g *Gateway) GetProfile(ctx context.Context) (*session.Identity, error) {
	ctx, span := g.start(ctx, "getProfile")
	defer span.End()

	id, err := g.inner.GetProfile(ctx)
	if err != nil {
		return nil, g.handleError(ctx, span, "getProfile", err, "failed to load profile")
	}
	g.done(ctx, span, "getProfile", attribute.String("user.id", id.ID))
	return id, nil
}

func (g *Gateway) ListMenu(ctx context.Context) ([]menu.Item, error) {
	ctx, span := g.start(ctx, "listMenu")
	defer span.End()

	items, err := g.inner.ListMenu(ctx)
	if err != nil {
		return nil, g.handleError(ctx, span, "listMenu", err, "failed to load menu")
	}
	g.done(ctx, span, "listMenu", attribute.Int("menu.items", len(items)))
	return items, nil
}

func (g *Gateway) CreateMenuItem(ctx context.Context, p menu.Payload) (*menu.Item, error) {
	ctx, span := g.start(ctx, "createMenuItem", attribute.String("menu.name", p.Name))
	defer span.End()

	it, err := g.inner.CreateMenuItem(ctx, p)
	if err != nil {
		return nil, g.handleError(ctx, span, "createMenuItem", err, "failed to create menu item")
	}
	g.done(ctx, span, "createMenuItem", attribute.String("menu.id", it.ID))
	return it, nil
}

func (g *Gateway) UpdateMenuItem(ctx context.Context, id string, p menu.Payload) (*menu.Item, error) {
	ctx, span := g.start(ctx, "updateMenuItem", attribute.String("menu.id", id))
	defer span.End()

	it, err := g.inner.UpdateMenuItem(ctx, id, p)
	if err != nil {
		return nil, g.handleError(ctx, span, "updateMenuItem", err, "failed to update menu item", slog.String("menu.id", id))
	}
	g.done(ctx, span, "updateMenuItem")
	return it, nil
}

func (g *Gateway) DeleteMenuItem(ctx context.Context, id string) error {
	ctx, span := g.start(ctx, "deleteMenuItem", attribute.String("menu.id", id))
	defer span.End()

	if err := g.inner.DeleteMenuItem(ctx, id); err != nil {
		return g.handleError(ctx, span, "deleteMenuItem", err, "failed to delete menu item", slog.String("menu.id", id))
	}
	g.done(ctx, span, "deleteMenuItem")
	return nil
}

func (g *Gateway) CreateOrder(ctx context.Context, d order.Draft) (*order.Order, error) {
	ctx, span := g.start(ctx, "createOrder",
		attribute.Int("order.lines", len(d.Items)),
		attribute.String("order.payment_method", string(d.PaymentMethod)))
	defer span.End()

	o, err := g.inner.CreateOrder(ctx, d)
	if err != nil {
		return nil, g.handleError(ctx, span, "createOrder", err, "failed to place order")
	}
	g.done(ctx, span, "createOrder", attribute.String("order.id", o.ID))
	return o, nil
}

func (g *Gateway) ListMyOrders(ctx context.Context) ([]order.Order, error) {
	ctx, span := g.start(ctx, "listMyOrders")
	defer span.End()

	orders, err := g.inner.ListMyOrders(ctx)
	if err != nil {
		return nil, g.handleError(ctx, span, "listMyOrders", err, "failed to load orders")
	}
	g.done(ctx, span, "listMyOrders", attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (g *Gateway) ListAllOrders(ctx context.Context, page int) ([]order.Order, error) {
	ctx, span := g.start(ctx, "listAllOrders", attribute.Int("orders.page", page))
	defer span.End()

	orders, err := g.inner.ListAllOrders(ctx, page)
	if err != nil {
		return nil, g.handleError(ctx, span, "listAllOrders", err, "failed to load orders", slog.Int("orders.page", page))
	}
	g.done(ctx, span, "listAllOrders", attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (g *Gateway) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	ctx, span := g.start(ctx, "updateOrderStatus",
		attribute.String("order.id", id),
		attribute.String("order.status", string(status)))
	defer span.End()

	if err := g.inner.UpdateOrderStatus(ctx, id, status); err != nil {
		return g.handleError(ctx, span, "updateOrderStatus", err, "failed to update order status", slog.String("order.id", id))
	}
	g.done(ctx, span, "updateOrderStatus")
	return nil
}

func (g *Gateway) GetAnalytics(ctx context.Context, startDate, endDate string) (*analytics.Report, error) {
	ctx, span := g.start(ctx, "getAnalytics",
		attribute.String("analytics.start", startDate),
		attribute.String("analytics.end", endDate))
	defer span.End()

	rep, err := g.inner.GetAnalytics(ctx, startDate, endDate)
	if err != nil {
		return nil, g.handleError(ctx, span, "getAnalytics", err, "failed to load analytics")
	}
	g.done(ctx, span, "getAnalytics", attribute.Int("analytics.days", len(rep.Daily)))
	return rep, nil
}

func (g *Gateway) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return g.tracer.Start(ctx, "Gateway."+op, trace.WithAttributes(attrs...))
}

func (g *Gateway) done(ctx context.Context, span trace.Span, op string, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	g.metrics.recordCall(ctx, op, "ok")
	g.logger.LogAttrs(ctx, slog.LevelDebug, "gateway call succeeded", slog.String("op", op))
}

func (g *Gateway) handleError(ctx context.Context, span trace.Span, op string, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	outcome := errorKind(err)
	g.metrics.recordCall(ctx, op, outcome)

	attrs = append(attrs, slog.String("op", op), slog.String("error", err.Error()))
	level := slog.LevelError
	if outcome == "auth" || outcome == "canceled" {
		level = slog.LevelWarn
	}
	g.logger.LogAttrs(ctx, level, msg, attrs...)
	return err
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, outbound.ErrAuth):
		return "auth"
	case errors.Is(err, outbound.ErrUnreachable):
		return "unreachable"
	default:
		return "error"
	}
}

type gatewayMetrics struct {
	calls metric.Int64Counter
}

func newGatewayMetrics(m metric.Meter) gatewayMetrics {
	if m == nil {
		return gatewayMetrics{}
	}
	calls, _ := m.Int64Counter("feastflow.gateway.calls", metric.WithDescription("Number of gateway calls by operation and outcome"))
	return gatewayMetrics{calls: calls}
}

func (m gatewayMetrics) recordCall(ctx context.Context, op, outcome string) {
	if m.calls != nil {
		m.calls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("gateway.op", op),
			attribute.String("gateway.outcome", outcome)))
	}
}

var _ outbound.Gateway = (*Gateway)(nil)
