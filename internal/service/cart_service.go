package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/feastflow/storefront/internal/domain/cart"
	"github.com/feastflow/storefront/internal/domain/validation"
	"github.com/feastflow/storefront/internal/port/outbound"
)

// CartSnapshot is a point-in-time copy of the cart with its totals.
type CartSnapshot struct {
	Lines      []cart.Line     `json:"lines"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// CartService is the single source of truth for the pending order.
// Every mutation persists the full line list under outbound.KeyCart while
// holding the lock, so concurrent calls apply in call order.
type CartService struct {
	storage  outbound.Storage
	notifier outbound.Notifier
	logger   *slog.Logger
	metrics  *Metrics

	mu   sync.Mutex
	cart *cart.Cart
}

// NewCartService creates a CartService and loads the persisted cart.
// Missing or unusable data yields an empty cart.
func NewCartService(ctx context.Context, storage outbound.Storage, notifier outbound.Notifier, logger *slog.Logger, metrics *Metrics) *CartService {
	s := &CartService{
		storage:  storage,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
	s.cart = cart.New(s.load(ctx))
	return s
}

func (s *CartService) load(ctx context.Context) []cart.Line {
	data, err := s.storage.Get(ctx, outbound.KeyCart)
	if errors.Is(err, outbound.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn("failed to read persisted cart, starting empty", "error", err)
		return nil
	}
	lines, err := cart.Decode(data)
	if err != nil {
		perr := &outbound.PersistenceError{Key: outbound.KeyCart, Err: err}
		s.logger.Debug("ignoring persisted cart", "error", perr)
		return nil
	}
	return lines
}

// AddItem adds one unit of item.
func (s *CartService) AddItem(ctx context.Context, item cart.Item) (cart.AddResult, error) {
	item.ID = validation.Clean(item.ID)
	if item.ID == "" {
		return 0, validation.NewValidationError("id", "Item id is required")
	}

	var res cart.AddResult
	_, err := s.mutate(ctx, "add", func(c *cart.Cart) bool {
		res = c.Add(item)
		return true
	})
	if err != nil {
		return 0, err
	}

	if res == cart.Incremented {
		s.notifier.Success("Quantity updated")
	} else {
		s.notifier.Success(item.Name + " added to cart")
	}
	return res, nil
}

// IncreaseQty adds one to the line with id. Unknown ids are a no-op.
func (s *CartService) IncreaseQty(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, "increase", func(c *cart.Cart) bool {
		return c.Increase(id)
	})
	return err
}

// DecreaseQty subtracts one from the line with id, removing the line
// instead of letting it reach zero. Unknown ids are a no-op.
func (s *CartService) DecreaseQty(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, "decrease", func(c *cart.Cart) bool {
		return c.Decrease(id)
	})
	return err
}

// RemoveItem removes the line with id. Unknown ids are a no-op.
func (s *CartService) RemoveItem(ctx context.Context, id string) error {
	removed, err := s.mutate(ctx, "remove", func(c *cart.Cart) bool {
		return c.Remove(id)
	})
	if err != nil {
		return err
	}
	if removed {
		s.notifier.Success("Item removed")
	}
	return nil
}

// Clear empties the cart and persists the empty list.
func (s *CartService) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, "clear", func(c *cart.Cart) bool {
		c.Clear()
		return true
	})
	return err
}

// Erase empties the cart and deletes the persisted key. Memory is
// cleared even when the delete fails.
func (s *CartService) Erase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Clear()
	err := s.storage.Delete(ctx, outbound.KeyCart)
	s.metrics.cartMutation("erase", err)
	if err != nil {
		return fmt.Errorf("erase persisted cart: %w", err)
	}
	return nil
}

// mutate applies fn under the lock and persists when fn reports a change.
// A failed write restores the previous lines.
func (s *CartService) mutate(ctx context.Context, op string, fn func(*cart.Cart) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.cart.Clone()
	if !fn(s.cart) {
		return false, nil
	}

	err := s.persist(ctx)
	s.metrics.cartMutation(op, err)
	if err != nil {
		s.cart = before
		s.logger.Error("failed to persist cart", "op", op, "error", err)
		return false, err
	}
	return true, nil
}

// persist writes the current lines. Caller must hold s.mu.
func (s *CartService) persist(ctx context.Context) error {
	data, err := cart.Encode(s.cart.Lines())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Set(ctx, outbound.KeyCart, data); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// Lines returns a copy of the current lines.
func (s *CartService) Lines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

// TotalItems returns the sum of quantities.
func (s *CartService) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalItems()
}

// TotalPrice returns the sum of line subtotals.
func (s *CartService) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice()
}

// IsEmpty reports whether the cart has no lines.
func (s *CartService) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IsEmpty()
}

// Snapshot returns the lines and totals read under one lock.
func (s *CartService) Snapshot() CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartSnapshot{
		Lines:      s.cart.Lines(),
		TotalItems: s.cart.TotalItems(),
		TotalPrice: s.cart.TotalPrice(),
	}
}
