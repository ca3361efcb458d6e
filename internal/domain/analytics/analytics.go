// Package analytics holds the daily sales report shown on the admin
// dashboard and the figures derived from it.
package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/domain/validation"
)

// DateLayout is the wire and input format of report dates.
const DateLayout = "2006-01-02"

// DefaultRange is the span used when no dates are given.
const DefaultRange = 7 * 24 * time.Hour

// Day is one day's aggregate.
type Day struct {
	Date    string          `json:"_id"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// PopularItem is how many units of an item were sold.
type PopularItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// PaymentShare counts orders per payment method.
type PaymentShare struct {
	Method string `json:"_id"`
	Count  int    `json:"count"`
}

// Totals covers the whole period.
type Totals struct {
	TotalOrders  int             `json:"totalOrders"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// Period is the reported range as the server echoed it.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Report is the analytics response.
type Report struct {
	Daily          []Day          `json:"daily"`
	PopularItems   []PopularItem  `json:"popularItems"`
	PaymentMethods []PaymentShare `json:"paymentMethods"`
	Totals         Totals         `json:"totals"`
	Period         Period         `json:"period"`
}

// AverageOrderValue is revenue per order, zero without orders.
func (r Report) AverageOrderValue() decimal.Decimal {
	if r.Totals.TotalOrders <= 0 {
		return decimal.Zero
	}
	return r.Totals.TotalRevenue.Div(decimal.NewFromInt(int64(r.Totals.TotalOrders))).Round(2)
}

// Trend is the direction of daily revenue over the period.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// RevenueTrend compares the last day's revenue with the first day's.
func (r Report) RevenueTrend() Trend {
	if len(r.Daily) < 2 {
		return TrendNeutral
	}
	if r.Daily[len(r.Daily)-1].Revenue.GreaterThan(r.Daily[0].Revenue) {
		return TrendUp
	}
	return TrendDown
}

// PaymentLabel names a payment method bucket.
func PaymentLabel(method string) string {
	pm := order.PaymentMethod(method)
	switch {
	case pm.Known():
		return pm.Label()
	case method == "":
		return "Other"
	default:
		return method
	}
}

// ShortName trims long item names for narrow charts and tables.
func ShortName(name string) string {
	if name == "" {
		return "Unknown"
	}
	r := []rune(name)
	if len(r) > 15 {
		return string(r[:12]) + "..."
	}
	return name
}

// Range is a validated inclusive date span.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartParam returns Start formatted for the query string.
func (r Range) StartParam() string { return r.Start.Format(DateLayout) }

// EndParam returns End formatted for the query string.
func (r Range) EndParam() string { return r.End.Format(DateLayout) }

// ParseRange validates start and end. Missing values default to the
// last seven days ending at now.
func ParseRange(start, end string, now time.Time) (Range, error) {
	verr := &validation.ValidationError{}

	rng := Range{
		Start: dateOnly(now.Add(-DefaultRange)),
		End:   dateOnly(now),
	}
	if start != "" {
		t, err := time.Parse(DateLayout, start)
		if err != nil {
			verr.Add("startDate", fmt.Sprintf("Start date must be %s", "YYYY-MM-DD"))
		}
		rng.Start = t
	}
	if end != "" {
		t, err := time.Parse(DateLayout, end)
		if err != nil {
			verr.Add("endDate", fmt.Sprintf("End date must be %s", "YYYY-MM-DD"))
		}
		rng.End = t
	}
	if err := verr.OrNil(); err != nil {
		return Range{}, err
	}
	if rng.Start.After(rng.End) {
		return Range{}, validation.NewValidationError("startDate", "Start date must not be after end date")
	}
	return rng, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
