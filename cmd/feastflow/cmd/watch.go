package cmd

import (
	"context"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	statushttp "github.com/feastflow/storefront/internal/adapter/inbound/http"
	"github.com/feastflow/storefront/internal/domain/order"
)

var watchMetricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow your orders' status live",
	Long: `Load your orders and apply status updates pushed by the server until
interrupted.

With --metrics-addr (or metrics.addr in the config) a local status server
exposes /metrics, /health and /orders while watching.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, runWatch)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve /metrics, /health and /orders on this address")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, gracefulSignals()...)
	defer stop()

	if err := a.requireSession(ctx, false); err != nil {
		return err
	}

	view := order.NewView()
	defer view.Close()
	if err := a.orders.LoadMine(ctx, view); err != nil {
		return err
	}
	if err := printOrders(a, view.Orders()); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	watchCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	addr := watchMetricsAddr
	if addr == "" {
		addr = a.cfg.Metrics.Addr
	}
	if addr != "" {
		srv := statushttp.NewServer(a.registry,
			statushttp.WithAddr(addr),
			statushttp.WithLogger(a.logger),
			statushttp.WithOrders(view),
			statushttp.WithHealthChecker(statushttp.NewHealthChecker(a.client, a.session, view, Version)),
		)
		if err := srv.Listen(); err != nil {
			return err
		}
		g.Go(func() error { return srv.Start(watchCtx) })
	}

	g.Go(func() error {
		defer cancel()
		return a.orders.WatchFunc(watchCtx, view, func(o order.Order) {
			if err := printOrders(a, []order.Order{o}); err != nil {
				a.logger.Warn("failed to print order", "error", err)
			}
		})
	})

	return g.Wait()
}
