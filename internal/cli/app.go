package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/triage/internal/config"
	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/pkg/adapters/file"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/adapters/redis"
	"github.com/aretw0/triage/pkg/adapters/sqldb"
	"github.com/aretw0/triage/pkg/observability"
	"github.com/aretw0/triage/pkg/persistence/middleware"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/aretw0/triage/pkg/session"
)

// App wires every component a command needs from a Config.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Catalog *Catalog
	Engine  *runtime.Engine
	Metrics *observability.Metrics
	Store   ports.SessionStore
	Ledger  *sqldb.Ledger
	Manager *session.Manager

	closers []io.Closer
}

// NewApp builds the application. Logs go to stderr so stdout stays free for
// the questionnaire and JSON output.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	return NewAppWithLogger(ctx, cfg, createLogger(cfg, os.Stderr))
}

// NewAppWithLogger is NewApp with an explicit logger.
func NewAppWithLogger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	catalog, err := NewCatalog(ctx, cfg.Modules.Builtin, cfg.Modules.Dir)
	if err != nil {
		return nil, fmt.Errorf("error loading modules: %w", err)
	}
	app.Catalog = catalog

	app.Metrics = observability.NewMetrics()
	hooks := observability.LoggingHooks(logger).Chain(app.Metrics.Hooks())
	app.Engine = runtime.NewEngine(catalog,
		runtime.WithLogger(logger),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithHaltOnTopSeverity(cfg.Engine.HaltOnTopSeverity),
	)

	var locker ports.DistributedLocker
	switch cfg.Store.Backend {
	case config.BackendFile:
		app.Store = file.NewStore(cfg.Store.Dir)
	case config.BackendRedis:
		rs := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
			redis.WithPrefix(cfg.Store.Redis.Prefix),
			redis.WithTTL(cfg.Store.Redis.TTL),
		)
		app.closers = append(app.closers, rs)
		app.Store = rs
		locker = redis.NewLocker(rs.Client(), cfg.Store.Redis.Prefix+"lock:")
	default:
		app.Store = memory.NewStore()
	}

	mws, err := storeMiddleware(cfg.Security)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Store = middleware.Chain(app.Store, mws...)

	managerOpts := []session.Option{
		session.WithLogger(logger),
		session.WithLockTTL(cfg.Store.LockTTL),
	}
	if locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker))
	}

	if cfg.Ledger.Driver != "" {
		dialect, err := sqldb.ParseDialect(cfg.Ledger.Driver)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		ledger, err := sqldb.Open(ctx, dialect, cfg.Ledger.DSN)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("error opening outcome ledger: %w", err)
		}
		app.Ledger = ledger
		app.closers = append(app.closers, ledger)
		managerOpts = append(managerOpts, session.WithLedger(ledger))
	}

	app.Manager = session.NewManager(app.Engine, catalog, app.Store, managerOpts...)
	logger.Debug("App ready",
		"store", cfg.Store.Backend,
		"modules_dir", cfg.Modules.Dir,
		"ledger", cfg.Ledger.Driver,
	)
	return app, nil
}

// storeMiddleware masks PII before encrypting; the first middleware is
// outermost.
func storeMiddleware(sec config.SecurityConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(sec.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(sec.PIIPatterns)
		if err != nil {
			return nil, fmt.Errorf("security.pii_patterns: %w", err)
		}
		mws = append(mws, pii)
	}
	if sec.EncryptionKey != "" {
		active, err := middleware.ParseKey(sec.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("security.encryption_key: %w", err)
		}
		var fallback [][]byte
		for _, k := range sec.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("security.fallback_keys: %w", err)
			}
			fallback = append(fallback, key)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

// Close releases the store and ledger connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Watch streams reloaded module documents. Failed reloads are logged.
func (a *App) Watch(ctx context.Context) (<-chan string, error) {
	return a.Catalog.Watch(ctx, func(err error) {
		a.Logger.Error("Module reload failed", "err", err)
	})
}

func createLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return logging.NewWithWriter(w, logging.ParseLevel(cfg.LogLevel), cfg.LogFormat == "json")
}
