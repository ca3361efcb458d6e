package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/feastflow/storefront/internal/service"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and edit the cart",
	Long: `The cart is kept in local storage and survives restarts. It is
emptied on logout and after an order is placed.`,
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cart lines and totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			return printCart(a, a.cart.Snapshot())
		})
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <menu-item-id>",
	Short: "Add one unit of a menu item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if _, err := a.menu.List(ctx); err != nil {
				return err
			}
			item, ok := a.menu.Find(args[0])
			if !ok {
				return fmt.Errorf("menu item %q not found", args[0])
			}
			if _, err := a.cart.AddItem(ctx, item.CartItem()); err != nil {
				return err
			}
			return printCart(a, a.cart.Snapshot())
		})
	},
}

var cartIncCmd = &cobra.Command{
	Use:   "inc <menu-item-id>",
	Short: "Increase a line's quantity by one",
	Args:  cobra.ExactArgs(1),
	RunE:  cartLineCommand(func(a *app) func(context.Context, string) error { return a.cart.IncreaseQty }),
}

var cartDecCmd = &cobra.Command{
	Use:   "dec <menu-item-id>",
	Short: "Decrease a line's quantity by one, removing it at zero",
	Args:  cobra.ExactArgs(1),
	RunE:  cartLineCommand(func(a *app) func(context.Context, string) error { return a.cart.DecreaseQty }),
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <menu-item-id>",
	Short: "Remove a line",
	Args:  cobra.ExactArgs(1),
	RunE:  cartLineCommand(func(a *app) func(context.Context, string) error { return a.cart.RemoveItem }),
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.cart.Clear(ctx); err != nil {
				return err
			}
			return printCart(a, a.cart.Snapshot())
		})
	},
}

func init() {
	cartCmd.AddCommand(cartShowCmd, cartAddCmd, cartIncCmd, cartDecCmd, cartRemoveCmd, cartClearCmd)
	rootCmd.AddCommand(cartCmd)
}

// cartLineCommand runs a per-line cart mutation and prints the result.
func cartLineCommand(op func(*app) func(context.Context, string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := op(a)(ctx, args[0]); err != nil {
				return err
			}
			return printCart(a, a.cart.Snapshot())
		})
	}
}

func printCart(a *app, snap service.CartSnapshot) error {
	return a.out.print(snap, func(w io.Writer) {
		if len(snap.Lines) == 0 {
			fmt.Fprintln(w, "Your cart is empty")
			return
		}
		row(w, "ID", "NAME", "QTY", "PRICE", "SUBTOTAL")
		for _, l := range snap.Lines {
			row(w, l.ID, l.Name, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal().StringFixed(2))
		}
		row(w, "", "TOTAL", snap.TotalItems, "", snap.TotalPrice.StringFixed(2))
	})
}
