package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/domain/validation"
	"github.com/feastflow/storefront/internal/port/outbound"
)

// DefaultPaymentDelay is how long the simulated online payment takes.
const DefaultPaymentDelay = 2 * time.Second

// CheckoutForm is the delivery and payment input.
type CheckoutForm struct {
	Name          string
	Address       string
	Phone         string
	PaymentMethod string
}

// Receipt is the outcome of a placed order.
type Receipt struct {
	Order *order.Order
	// CartCleared is false when the order was placed but the cart could not
	// be emptied afterwards.
	CartCleared bool
	// PaymentSettled is closed once the payment step has finished.
	PaymentSettled <-chan struct{}
}

// CheckoutService turns the cart into an order.
type CheckoutService struct {
	gateway      outbound.Gateway
	cart         *CartService
	notifier     outbound.Notifier
	logger       *slog.Logger
	metrics      *Metrics
	paymentDelay time.Duration
	afterFunc    func(time.Duration, func())
}

// NewCheckoutService creates a CheckoutService. A non-positive delay
// means DefaultPaymentDelay.
func NewCheckoutService(gateway outbound.Gateway, cart *CartService, notifier outbound.Notifier, logger *slog.Logger, metrics *Metrics, paymentDelay time.Duration) *CheckoutService {
	if paymentDelay <= 0 {
		paymentDelay = DefaultPaymentDelay
	}
	return &CheckoutService{
		gateway:      gateway,
		cart:         cart,
		notifier:     notifier,
		logger:       logger,
		metrics:      metrics,
		paymentDelay: paymentDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// PlaceOrder validates the form and the cart, creates the order and
// empties the cart. A gateway failure leaves the cart untouched. A failure
// to empty the cart after the order exists is reported through
// Receipt.CartCleared, never as an error.
//
// Online payment methods finish asynchronously after the payment delay;
// PaymentSettled is closed when they do.
func (s *CheckoutService) PlaceOrder(ctx context.Context, form CheckoutForm) (*Receipt, error) {
	details := order.DeliveryDetails{
		Name:    validation.Clean(form.Name),
		Address: validation.Clean(form.Address),
		Phone:   validation.Clean(form.Phone),
	}
	method := order.ParsePaymentMethod(form.PaymentMethod)

	verr := &validation.ValidationError{}
	if err := validation.Struct(details); err != nil {
		var ve *validation.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		verr.Fields = append(verr.Fields, ve.Fields...)
	}
	if !method.Known() {
		verr.Add("paymentMethod", "Please select a valid payment method")
	}

	lines := s.cart.Lines()
	if len(lines) == 0 {
		verr.Add("cart", "Your cart is empty")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	draft := order.Draft{
		Items:         make([]order.DraftItem, 0, len(lines)),
		Delivery:      details,
		PaymentMethod: method,
	}
	for _, l := range lines {
		draft.Items = append(draft.Items, order.DraftItem{MenuItemID: l.ID, Quantity: l.Quantity})
	}

	placed, err := s.gateway.CreateOrder(ctx, draft)
	s.metrics.checkout(string(method), err)
	if err != nil {
		s.logger.Error("failed to place order", "error", err)
		s.notifier.Error(outbound.UserMessage(err, "Failed to place order"))
		return nil, err
	}

	receipt := &Receipt{Order: placed, CartCleared: true}
	if err := s.cart.Clear(ctx); err != nil {
		receipt.CartCleared = false
		s.logger.Warn("order placed but cart not cleared", "order_id", placed.ID, "error", err)
	}

	settled := make(chan struct{})
	receipt.PaymentSettled = settled
	if !method.Online() {
		s.notifier.Success("Order placed successfully! (Cash on delivery)")
		close(settled)
		return receipt, nil
	}

	s.notifier.Success("Redirecting to " + method.Label() + "...")
	s.afterFunc(s.paymentDelay, func() {
		s.notifier.Success("Payment successful! Order placed.")
		close(settled)
	})
	return receipt, nil
}
