package cel

import (
	"path/filepath"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/feastflow/storefront/internal/domain/order"
)

// NewOrderEnvironment creates the CEL environment for order filters. It declares:
//   - order: map with id, status, total, items, item_count, customer, phone,
//     address, payment_method and created_at
//   - glob(pattern, s): shell-style match
//   - status_step(status): position in the delivery sequence, -1 when unknown
func NewOrderEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),
		ext.Sets(),
		cel.CrossTypeNumericComparisons(true),

		cel.Variable("order", cel.MapType(cel.StringType, cel.DynType)),

		cel.Function("glob",
			cel.Overload("glob_string_string",
				[]*cel.Type{cel.StringType, cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(func(pattern, name ref.Val) ref.Val {
					p, _ := pattern.Value().(string)
					n, _ := name.Value().(string)
					matched, _ := filepath.Match(p, n)
					return types.Bool(matched)
				}),
			),
		),

		cel.Function("status_step",
			cel.Overload("status_step_string",
				[]*cel.Type{cel.StringType},
				cel.IntType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					s, _ := v.Value().(string)
					return types.Int(order.Status(s).Step())
				}),
			),
		),
	)
}

// BuildActivation maps an order onto the "order" variable.
func BuildActivation(o order.Order) map[string]any {
	items := make([]any, 0, len(o.Lines))
	for _, l := range o.Lines {
		price, _ := l.UnitPrice.Float64()
		items = append(items, map[string]any{
			"id":       l.MenuItemID,
			"name":     l.DisplayName(),
			"quantity": int64(l.Quantity),
			"price":    price,
		})
	}
	total, _ := o.TotalPrice.Float64()

	return map[string]any{
		"order": map[string]any{
			"id":             o.ID,
			"status":         string(o.Status),
			"total":          total,
			"items":          items,
			"item_count":     int64(o.ItemCount()),
			"customer":       o.Delivery.Name,
			"phone":          o.Delivery.Phone,
			"address":        o.Delivery.Address,
			"payment_method": string(o.PaymentMethod),
			"created_at":     o.CreatedAt,
		},
	}
}
