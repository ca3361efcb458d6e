package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/feastflow/storefront/internal/domain/analytics"
)

var (
	analyticsStart string
	analyticsEnd   string
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show the sales report (admin)",
	Long: `Show daily orders and revenue, the most popular items and the payment
method split. Dates are YYYY-MM-DD; the default range is the last 7 days.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.requireSession(ctx, true); err != nil {
				return err
			}
			report, err := a.analytics.Daily(ctx, analyticsStart, analyticsEnd)
			if err != nil {
				return err
			}
			return printReport(a, report)
		})
	},
}

func init() {
	analyticsCmd.Flags().StringVar(&analyticsStart, "start", "", "first day (YYYY-MM-DD)")
	analyticsCmd.Flags().StringVar(&analyticsEnd, "end", "", "last day (YYYY-MM-DD)")
	rootCmd.AddCommand(analyticsCmd)
}

func printReport(a *app, r *analytics.Report) error {
	return a.out.print(r, func(w io.Writer) {
		row(w, "Period", fmt.Sprintf("%s to %s", r.Period.Start, r.Period.End))
		row(w, "Orders", r.Totals.TotalOrders)
		row(w, "Revenue", r.Totals.TotalRevenue.StringFixed(2))
		row(w, "Average order", r.AverageOrderValue().StringFixed(2))
		row(w, "Trend", r.RevenueTrend())

		fmt.Fprintln(w)
		row(w, "DAY", "ORDERS", "REVENUE")
		for _, d := range r.Daily {
			row(w, d.Date, d.Orders, d.Revenue.StringFixed(2))
		}

		fmt.Fprintln(w)
		row(w, "ITEM", "SOLD")
		for _, p := range r.PopularItems {
			row(w, analytics.ShortName(p.Name), p.Quantity)
		}

		fmt.Fprintln(w)
		row(w, "PAYMENT", "ORDERS")
		for _, p := range r.PaymentMethods {
			row(w, analytics.PaymentLabel(p.Method), p.Count)
		}
	})
}
