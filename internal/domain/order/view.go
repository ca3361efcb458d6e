package order

import (
	"sync"
	"time"
)

// StatusEvent is a pushed status change.
type StatusEvent struct {
	OrderID string `json:"orderId"`
	Status  Status `json:"status"`
}

// FetchToken identifies one fetch started on a View.
type FetchToken uint64

// View holds the orders one screen is showing. Its contents change only
// through a completed fetch, a matching status event, or an explicit
// replace/restore. It is safe for concurrent use.
type View struct {
	mu     sync.RWMutex
	orders []Order
	gen    uint64
	closed bool
}

// NewView returns an empty view.
func NewView() *View {
	return &View{}
}

// BeginFetch starts a fetch and invalidates any fetch begun earlier.
func (v *View) BeginFetch() FetchToken {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	return FetchToken(v.gen)
}

// CompleteFetch installs orders if tok is still the latest fetch and the
// view is open. It reports whether the result was applied.
func (v *View) CompleteFetch(tok FetchToken, orders []Order) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || uint64(tok) != v.gen {
		return false
	}
	v.orders = cloneAll(orders)
	return true
}

// Close discards any in-flight fetch; later results are dropped.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.gen++
}

// Closed reports whether Close was called.
func (v *View) Closed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.closed
}

// Apply replaces the status of the order matching ev.OrderID with the
// event's value, whatever it is. Events for orders not held here are
// ignored. It reports whether an order changed.
func (v *View) Apply(ev StatusEvent, at time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.orders {
		if v.orders[i].ID == ev.OrderID {
			v.orders[i].Status = ev.Status
			v.orders[i].StatusUpdatedAt = at
			return true
		}
	}
	return false
}

// SetStatus replaces one order's status without stamping it as pushed.
func (v *View) SetStatus(id string, status Status) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.orders {
		if v.orders[i].ID == id {
			v.orders[i].Status = status
			return true
		}
	}
	return false
}

// Get returns a copy of the order with id.
func (v *View) Get(id string) (Order, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, o := range v.orders {
		if o.ID == id {
			return o.Clone(), true
		}
	}
	return Order{}, false
}

// Orders returns a copy of all held orders.
func (v *View) Orders() []Order {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneAll(v.orders)
}

// Len returns the number of held orders.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.orders)
}

// Snapshot is equivalent to Orders; it pairs with Restore.
func (v *View) Snapshot() []Order {
	return v.Orders()
}

// Restore puts back a snapshot taken earlier.
func (v *View) Restore(orders []Order) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.orders = cloneAll(orders)
}

func cloneAll(orders []Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}
