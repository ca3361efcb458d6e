// Package order models orders as seen by the storefront client, the
// delivery status progression and the locally held order views that
// push events are reconciled into.
package order

import (
	"fmt"
	"strings"
)

// Status is one stage of the delivery progression. Values outside the
// known set are carried verbatim.
type Status string

const (
	StatusReceived       Status = "received"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
)

// Statuses lists the known stages in delivery order.
var Statuses = []Status{
	StatusReceived,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
}

var statusLabels = map[Status]string{
	StatusReceived:       "Order Received",
	StatusPreparing:      "Preparing",
	StatusOutForDelivery: "Out for Delivery",
	StatusDelivered:      "Delivered",
}

// Known reports whether s is one of Statuses.
func (s Status) Known() bool {
	_, ok := statusLabels[s]
	return ok
}

// Step returns the position of s in Statuses, or -1 for unknown values.
func (s Status) Step() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Label returns the display label. Unknown values fall back to the raw
// value with underscores as spaces, or "Unknown" when empty.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	if s == "" {
		return "Unknown"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

// Badge is the upper-case form printed on invoices.
func (s Status) Badge() string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

// ParseStatus accepts only known statuses.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.TrimSpace(v))
	if !s.Known() {
		return "", fmt.Errorf("unknown order status %q", v)
	}
	return s, nil
}
