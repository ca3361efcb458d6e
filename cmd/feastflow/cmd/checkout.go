package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/service"
)

var checkoutForm service.CheckoutForm

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for the cart",
	Long: `Place an order for everything in the cart and empty it.

Payment methods: paytm, gpay, phonepe, cash (default). Online methods
wait for the payment step before returning.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.requireSession(ctx, false); err != nil {
				return err
			}
			receipt, err := a.checkout.PlaceOrder(ctx, checkoutForm)
			if err != nil {
				return err
			}
			if !receipt.CartCleared {
				a.logger.Warn("order placed but the cart could not be emptied; run \"feastflow cart clear\"")
			}
			select {
			case <-receipt.PaymentSettled:
			case <-ctx.Done():
				return ctx.Err()
			}
			return printOrders(a, []order.Order{*receipt.Order})
		})
	},
}

func init() {
	f := checkoutCmd.Flags()
	f.StringVar(&checkoutForm.Name, "name", "", "recipient name")
	f.StringVar(&checkoutForm.Address, "address", "", "delivery address")
	f.StringVar(&checkoutForm.Phone, "phone", "", "contact phone")
	f.StringVar(&checkoutForm.PaymentMethod, "payment", string(order.DefaultPaymentMethod), "payment method: paytm, gpay, phonepe or cash")
	rootCmd.AddCommand(checkoutCmd)
}

func printOrders(a *app, orders []order.Order) error {
	return a.out.print(orders, func(w io.Writer) {
		row(w, "ID", "STATUS", "ITEMS", "TOTAL", "PAYMENT", "PLACED")
		for _, o := range orders {
			placed := ""
			if !o.CreatedAt.IsZero() {
				placed = o.CreatedAt.Local().Format("2006-01-02 15:04")
			}
			row(w, o.ID, o.Status.Label(), o.ItemCount(), o.TotalPrice.StringFixed(2), o.PaymentMethod.Label(), placed)
		}
	})
}
