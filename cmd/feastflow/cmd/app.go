package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/feastflow/storefront/internal/adapter/outbound/api"
	"github.com/feastflow/storefront/internal/adapter/outbound/cel"
	"github.com/feastflow/storefront/internal/adapter/outbound/memory"
	"github.com/feastflow/storefront/internal/adapter/outbound/notify"
	"github.com/feastflow/storefront/internal/adapter/outbound/observability"
	"github.com/feastflow/storefront/internal/adapter/outbound/redis"
	"github.com/feastflow/storefront/internal/adapter/outbound/socketio"
	"github.com/feastflow/storefront/internal/adapter/outbound/sqlite"
	"github.com/feastflow/storefront/internal/adapter/outbound/state"
	"github.com/feastflow/storefront/internal/config"
	"github.com/feastflow/storefront/internal/domain/session"
	"github.com/feastflow/storefront/internal/port/outbound"
	"github.com/feastflow/storefront/internal/service"
)

var (
	errNotLoggedIn = errors.New("not logged in: run \"feastflow login\" first")
	errAdminOnly   = errors.New("this command requires an admin account")
)

// app holds everything one command invocation needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      *printer
	registry *prometheus.Registry
	metrics  *service.Metrics

	storage outbound.Storage
	client  *api.Client
	gateway outbound.Gateway
	push    *socketio.Client

	cart      *service.CartService
	session   *service.SessionService
	menu      *service.MenuService
	checkout  *service.CheckoutService
	orders    *service.OrderSyncService
	admin     *service.AdminOrderService
	analytics *service.AnalyticsService

	closers []func(context.Context) error
}

// newApp loads configuration and wires the adapters and services.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	out, err := newPrinter(cmd.OutOrStdout(), outputFormat)
	if err != nil {
		return nil, err
	}

	// Logs go to stderr; stdout carries command output.
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	if file := config.ConfigFileUsed(); file != "" {
		logger.Debug("loaded config", "file", file)
	}

	a := &app{cfg: cfg, logger: logger, out: out}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := a.wire(ctx, cmd.ErrOrStderr()); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, stderr io.Writer) error {
	cfg := a.cfg

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = service.NewMetrics(a.registry)

	instruments, shutdown, err := observability.Setup("feastflow", Version, cfg.Trace, stderr)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)

	storage, closeStorage, err := openStorage(ctx, cfg.Storage, a.logger)
	if err != nil {
		return err
	}
	a.storage = storage
	if closeStorage != nil {
		a.closers = append(a.closers, func(context.Context) error { return closeStorage() })
	}

	notifier := notify.NewConsole(stderr, a.logger)

	a.cart = service.NewCartService(ctx, storage, notifier, a.logger, a.metrics)

	// The client reads the credential from the session service, which in
	// turn needs the gateway; the closure breaks the cycle.
	var sess *service.SessionService
	credential := outbound.CredentialFunc(func() string {
		if sess == nil {
			return ""
		}
		return sess.Credential()
	})

	a.client = api.NewClient(
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithTimeout(cfg.APITimeout()),
		api.WithBreaker(uint32(cfg.API.Breaker.MaxFailures), cfg.BreakerOpenTimeout()),
		api.WithCredentials(credential),
		api.WithDurationObserver(a.metrics.GatewayDuration),
		api.WithLogger(a.logger),
	)
	a.gateway = observability.NewGateway(a.client,
		observability.WithLogger(a.logger),
		observability.WithTracer(instruments.Tracer("feastflow/gateway")),
		observability.WithMeter(instruments.Meter("feastflow/gateway")),
	)

	sess = service.NewSessionService(a.gateway, storage, a.cart, notifier, a.logger, a.metrics)
	a.session = sess
	a.client.OnUnauthorized(sess.HandleUnauthorized)

	a.push = socketio.NewClient(cfg.PushURL(),
		socketio.WithAuthToken(sess.Credential),
		socketio.WithLogger(a.logger),
	)

	filter, err := cel.NewFilter()
	if err != nil {
		return fmt.Errorf("failed to build order filter: %w", err)
	}

	a.menu = service.NewMenuService(a.gateway, notifier, a.logger)
	a.checkout = service.NewCheckoutService(a.gateway, a.cart, notifier, a.logger, a.metrics, cfg.PaymentDelay())
	a.orders = service.NewOrderSyncService(a.gateway, a.push, cfg.Push.Event, notifier, a.logger, a.metrics)
	a.admin = service.NewAdminOrderService(a.gateway, filter, notifier, a.logger)
	a.analytics = service.NewAnalyticsService(a.gateway, notifier)
	return nil
}

// Close releases storage and flushes telemetry, newest first.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// requireSession restores the persisted session and checks access.
func (a *app) requireSession(ctx context.Context, adminOnly bool) error {
	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	switch a.session.Session().Guard(adminOnly) {
	case session.AccessGranted:
		return nil
	case session.AccessHome:
		return errAdminOnly
	default:
		return errNotLoggedIn
	}
}

// openStorage builds the configured storage driver. The returned close
// func is nil when there is nothing to release.
func openStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (outbound.Storage, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStorage(), nil, nil
	case config.DriverSQLite:
		if err := ensureDir(cfg.Path); err != nil {
			return nil, nil, err
		}
		db, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.DriverRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		st := redis.NewStorage(client, redis.WithNamespace(cfg.Namespace))
		return st, st.Close, nil
	case config.DriverFile, "":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, nil, err
		}
		return state.NewFileStateStore(cfg.Path, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// parseLogLevel converts a log level string to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// withApp runs fn with a wired app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			a.logger.Warn("shutdown incomplete", "error", cerr)
		}
	}()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}
