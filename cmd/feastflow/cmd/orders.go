package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/feastflow/storefront/internal/domain/order"
)

var (
	ordersPage  int
	ordersAdmin bool
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List orders and manage their status",
}

var ordersMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your orders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.requireSession(ctx, false); err != nil {
				return err
			}
			view := order.NewView()
			if err := a.orders.LoadMine(ctx, view); err != nil {
				return err
			}
			return printOrders(a, view.Orders())
		})
	},
}

var ordersAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List all orders (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.requireSession(ctx, true); err != nil {
				return err
			}
			orders, err := a.admin.Load(ctx, ordersPage)
			if err != nil {
				return err
			}
			return printOrders(a, orders)
		})
	},
}

var ordersStatusCmd = &cobra.Command{
	Use:   "status <order-id> <status>",
	Short: "Set an order's status (admin)",
	Long: `Set an order's status. Valid statuses: received, preparing,
out_for_delivery, delivered.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.requireSession(ctx, true); err != nil {
				return err
			}
			if _, err := a.admin.Load(ctx, ordersPage); err != nil {
				return err
			}
			if err := a.admin.UpdateStatus(ctx, args[0], args[1]); err != nil {
				return err
			}
			if o, ok := a.admin.View().Get(args[0]); ok {
				return printOrders(a, []order.Order{o})
			}
			return nil
		})
	},
}

var ordersFilterCmd = &cobra.Command{
	Use:   "filter <expression>",
	Short: "Filter all orders with a CEL expression (admin)",
	Long: `Filter the loaded page of orders with a CEL expression over "order".

Fields: order.id, order.status, order.total, order.items, order.item_count,
order.customer, order.phone, order.address, order.payment_method,
order.created_at. status_step(s) gives a status's position in delivery order.

Examples:
  feastflow orders filter 'order.status == "preparing"'
  feastflow orders filter 'order.total > 20.0 && order.payment_method == "cash"'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.requireSession(ctx, true); err != nil {
				return err
			}
			if _, err := a.admin.Load(ctx, ordersPage); err != nil {
				return err
			}
			orders, err := a.admin.Filter(ctx, args[0])
			if err != nil {
				return err
			}
			return printOrders(a, orders)
		})
	},
}

var ordersInvoiceCmd = &cobra.Command{
	Use:   "invoice <order-id>",
	Short: "Print an order's invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.requireSession(ctx, ordersAdmin); err != nil {
				return err
			}
			var view *order.View
			if ordersAdmin {
				if _, err := a.admin.Load(ctx, ordersPage); err != nil {
					return err
				}
				view = a.admin.View()
			} else {
				view = order.NewView()
				if err := a.orders.LoadMine(ctx, view); err != nil {
					return err
				}
			}
			o, ok := view.Get(args[0])
			if !ok {
				return fmt.Errorf("order %q not found", args[0])
			}
			return printInvoice(a, order.NewInvoice(o))
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{ordersAllCmd, ordersStatusCmd, ordersFilterCmd, ordersInvoiceCmd} {
		c.Flags().IntVar(&ordersPage, "page", 1, "page of all orders to load")
	}
	ordersInvoiceCmd.Flags().BoolVar(&ordersAdmin, "all", false, "look the order up among all orders (admin)")

	ordersCmd.AddCommand(ordersMineCmd, ordersAllCmd, ordersStatusCmd, ordersFilterCmd, ordersInvoiceCmd)
	rootCmd.AddCommand(ordersCmd)
}

func printInvoice(a *app, inv order.Invoice) error {
	return a.out.print(inv, func(w io.Writer) {
		row(w, "Invoice", inv.Number)
		row(w, "Order", inv.OrderID)
		if !inv.Date.IsZero() {
			row(w, "Date", inv.Date.Local().Format("2006-01-02"))
		}
		row(w, "Bill to", inv.BillTo.Name)
		row(w, "", inv.BillTo.Address)
		row(w, "", inv.BillTo.Phone)
		row(w, "Payment", inv.PaymentMethod)
		row(w, "Status", inv.Status)
		fmt.Fprintln(w)
		row(w, "ITEM", "QTY", "PRICE", "AMOUNT")
		for _, l := range inv.Lines {
			row(w, l.DisplayName(), l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal().StringFixed(2))
		}
		fmt.Fprintln(w)
		row(w, "", "", "Subtotal", inv.Subtotal.StringFixed(2))
		row(w, "", "", "GST (5%)", inv.GST.StringFixed(2))
		row(w, "", "", "Total", inv.GrandTotal.StringFixed(2))
	})
}
