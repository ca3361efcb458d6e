package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/feastflow/storefront/internal/domain/analytics"
	"github.com/feastflow/storefront/internal/domain/menu"
	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/domain/session"
	"github.com/feastflow/storefront/internal/port/outbound"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeGateway implements outbound.Gateway. Unset funcs return zero values.
type fakeGateway struct {
	calls atomic.Int32

	login             func(ctx context.Context, email, password string) (*outbound.AuthResult, error)
	register          func(ctx context.Context, name, email, password string) (*outbound.AuthResult, error)
	getProfile        func(ctx context.Context) (*session.Identity, error)
	listMenu          func(ctx context.Context) ([]menu.Item, error)
	createMenuItem    func(ctx context.Context, p menu.Payload) (*menu.Item, error)
	updateMenuItem    func(ctx context.Context, id string, p menu.Payload) (*menu.Item, error)
	deleteMenuItem    func(ctx context.Context, id string) error
	createOrder       func(ctx context.Context, d order.Draft) (*order.Order, error)
	listMyOrders      func(ctx context.Context) ([]order.Order, error)
	listAllOrders     func(ctx context.Context, page int) ([]order.Order, error)
	updateOrderStatus func(ctx context.Context, id string, status order.Status) error
	getAnalytics      func(ctx context.Context, start, end string) (*analytics.Report, error)
}

func (f *fakeGateway) Login(ctx context.Context, email, password string) (*outbound.AuthResult, error) {
	f.calls.Add(1)
	if f.login == nil {
		return &outbound.AuthResult{}, nil
	}
	return f.login(ctx, email, password)
}

func (f *fakeGateway) Register(ctx context.Context, name, email, password string) (*outbound.AuthResult, error) {
	f.calls.Add(1)
	if f.register == nil {
		return &outbound.AuthResult{}, nil
	}
	return f.register(ctx, name, email, password)
}

func (f *fakeGateway) GetProfile(ctx context.Context) (*session.Identity, error) {
	f.calls.Add(1)
	if f.getProfile == nil {
		return &session.Identity{}, nil
	}
	return f.getProfile(ctx)
}

func (f *fakeGateway) ListMenu(ctx context.Context) ([]menu.Item, error) {
	f.calls.Add(1)
	if f.listMenu == nil {
		return nil, nil
	}
	return f.listMenu(ctx)
}

func (f *fakeGateway) CreateMenuItem(ctx context.Context, p menu.Payload) (*menu.Item, error) {
	f.calls.Add(1)
	if f.createMenuItem == nil {
		return &menu.Item{Name: p.Name, Price: p.Price}, nil
	}
	return f.createMenuItem(ctx, p)
}

func (f *fakeGateway) UpdateMenuItem(ctx context.Context, id string, p menu.Payload) (*menu.Item, error) {
	f.calls.Add(1)
	if f.updateMenuItem == nil {
		return &menu.Item{ID: id, Name: p.Name, Price: p.Price}, nil
	}
	return f.updateMenuItem(ctx, id, p)
}

func (f *fakeGateway) DeleteMenuItem(ctx context.Context, id string) error {
	f.calls.Add(1)
	if f.deleteMenuItem == nil {
		return nil
	}
	return f.deleteMenuItem(ctx, id)
}

func (f *fakeGateway) CreateOrder(ctx context.Context, d order.Draft) (*order.Order, error) {
	f.calls.Add(1)
	if f.createOrder == nil {
		return &order.Order{ID: "order-1", Status: order.StatusReceived}, nil
	}
	return f.createOrder(ctx, d)
}

func (f *fakeGateway) ListMyOrders(ctx context.Context) ([]order.Order, error) {
	f.calls.Add(1)
	if f.listMyOrders == nil {
		return nil, nil
	}
	return f.listMyOrders(ctx)
}

func (f *fakeGateway) ListAllOrders(ctx context.Context, page int) ([]order.Order, error) {
	f.calls.Add(1)
	if f.listAllOrders == nil {
		return nil, nil
	}
	return f.listAllOrders(ctx, page)
}

func (f *fakeGateway) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	f.calls.Add(1)
	if f.updateOrderStatus == nil {
		return nil
	}
	return f.updateOrderStatus(ctx, id, status)
}

func (f *fakeGateway) GetAnalytics(ctx context.Context, start, end string) (*analytics.Report, error) {
	f.calls.Add(1)
	if f.getAnalytics == nil {
		return &analytics.Report{}, nil
	}
	return f.getAnalytics(ctx, start, end)
}

var _ outbound.Gateway = (*fakeGateway)(nil)

// fakePush hands out one subscription fed by the test.
type fakePush struct {
	mu     sync.Mutex
	sub    *fakeSubscription
	event  string
	dialed chan struct{}
	err    error
}

func newFakePush() *fakePush {
	return &fakePush{dialed: make(chan struct{})}
}

func (p *fakePush) Subscribe(_ context.Context, event string) (outbound.Subscription, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.event = event
	p.sub = &fakeSubscription{events: make(chan outbound.PushEvent)}
	close(p.dialed)
	return p.sub, nil
}

func (p *fakePush) subscription() *fakeSubscription {
	<-p.dialed
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sub
}

type fakeSubscription struct {
	events chan outbound.PushEvent
	closed atomic.Bool
	once   sync.Once
	err    error
}

func (s *fakeSubscription) Events() <-chan outbound.PushEvent { return s.events }
func (s *fakeSubscription) Err() error                        { return s.err }
func (s *fakeSubscription) Close() error {
	s.closed.Store(true)
	return nil
}

// end simulates the server going away.
func (s *fakeSubscription) end(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.events)
	})
}
