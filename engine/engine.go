// Package engine wires the signals subsystems together. It creates the
// extension registry, the handler registry, the notifier with its default
// middleware chain and the account service, and opens units of work bound
// to the configured database.
//
// This package exists to break the import cycle: the signal package knows
// nothing about stores, extensions or accounts, and those packages import
// signal. The engine sits above all of them and below the application layer.
package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/signals"
	"github.com/xraph/signals/account"
	"github.com/xraph/signals/ext"
	mw "github.com/xraph/signals/middleware"
	"github.com/xraph/signals/observability"
	"github.com/xraph/signals/signal"
	"github.com/xraph/signals/store"
	"github.com/xraph/signals/uow"
)

// dbProvider is implemented by stores backed by database/sql.
type dbProvider interface {
	DB() *sql.DB
}

type registration struct {
	kind    signal.Kind
	source  signal.Source
	handler signal.Handler
}

// Engine owns a notifier and the components raising through it.
type Engine struct {
	store      store.Store
	db         *sql.DB
	extensions *ext.Registry
	registry   *signal.Registry
	notifier   *signal.Notifier
	accounts   *account.Service
	logger     *slog.Logger

	exts         []ext.Extension
	mws          []mw.Middleware
	handlers     []registration
	maxDepth     int
	slow         time.Duration
	skipProfiles bool
	dbConfigured bool
	txOpts       *sql.TxOptions

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger shared by every component the engine builds.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) {
		if l != nil {
			eng.logger = l
		}
	}
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.exts = append(eng.exts, e)
	}
}

// WithMiddleware adds middleware to the engine's chain. User middleware
// runs inside the default recover, tracing, metrics and logging layers.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithHandler registers h for (kind, source) after the built-in handlers.
func WithHandler(kind signal.Kind, source signal.Source, h signal.Handler) Option {
	return func(eng *Engine) {
		eng.handlers = append(eng.handlers, registration{kind: kind, source: source, handler: h})
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// When set, the tracing middleware uses this provider instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, both the metrics middleware and the observability extension
// use this provider instead of the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// WithMaxDepth bounds how deeply handlers may raise further events.
func WithMaxDepth(depth int) Option {
	return func(eng *Engine) {
		eng.maxDepth = depth
	}
}

// WithSlowThreshold makes the logging middleware warn about handlers that
// run longer than d. Zero disables the warning.
func WithSlowThreshold(d time.Duration) Option {
	return func(eng *Engine) {
		eng.slow = d
	}
}

// WithDB sets the database units of work begin transactions on. Stores
// exposing DB() supply it automatically.
func WithDB(db *sql.DB) Option {
	return func(eng *Engine) {
		eng.db = db
		eng.dbConfigured = true
	}
}

// WithTxOptions sets the isolation level and read-only flag for scopes
// opened by Begin and Atomic.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(eng *Engine) {
		eng.txOpts = opts
	}
}

// WithoutProfiles skips registering the profile handler for saved users.
func WithoutProfiles() Option {
	return func(eng *Engine) {
		eng.skipProfiles = true
	}
}

// New creates an Engine over the given store.
func New(st store.Store, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, signals.ErrNoStore
	}

	eng := &Engine{
		store:    st,
		logger:   slog.Default(),
		maxDepth: signal.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if !eng.dbConfigured {
		if p, ok := st.(dbProvider); ok {
			eng.db = p.DB()
		}
	}

	logger := eng.logger
	eng.extensions = ext.NewRegistry(logger)

	// Register the observability metrics extension first so user
	// extensions observe the same ordering the counters do.
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/xraph/signals/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)
	for _, e := range eng.exts {
		eng.extensions.Register(e)
	}

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracer := eng.tracerProvider.Tracer("github.com/xraph/signals")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/xraph/signals")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	// Build default middleware stack: recover → tracing → metrics → logging.
	defaultMws := []mw.Middleware{
		mw.Recover(logger),
		tracingMw,
		metricsMw,
		mw.Logging(logger, eng.slow),
	}
	allMws := make([]signal.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	eng.registry = signal.NewRegistry()
	eng.notifier = signal.New(eng.registry,
		signal.WithLogger(logger),
		signal.WithMiddleware(allMws...),
		signal.WithObserver(eng.extensions),
		signal.WithMaxDepth(eng.maxDepth),
	)

	eng.accounts = account.NewService(st, eng.notifier, logger)
	if !eng.skipProfiles {
		eng.notifier.Register(signal.PostSave, account.SourceUser, account.NewProfileHandler(st, logger))
	}
	for _, r := range eng.handlers {
		eng.notifier.Register(r.kind, r.source, r.handler)
	}

	logger.Debug("signals engine built",
		slog.Int("handlers", eng.registry.Len()),
		slog.Int("extensions", len(eng.extensions.Extensions())),
		slog.Int("max_depth", eng.maxDepth),
		slog.Bool("transactional", eng.db != nil),
	)

	return eng, nil
}

// Register adds h for (kind, source) after any handlers already there.
func (eng *Engine) Register(kind signal.Kind, source signal.Source, h signal.Handler) {
	eng.notifier.Register(kind, source, h)
}

// Raise dispatches an event through the engine's notifier.
func (eng *Engine) Raise(ctx context.Context, kind signal.Kind, source signal.Source, payload any, meta signal.Metadata, opts ...signal.RaiseOption) error {
	return eng.notifier.Raise(ctx, kind, source, payload, meta, opts...)
}

// Begin opens a unit of work. Without a database the scope is detached and
// stores fall back to compensating their writes on rollback.
func (eng *Engine) Begin(ctx context.Context) (*uow.Scope, error) {
	return uow.Begin(ctx, eng.db, eng.scopeOptions()...)
}

// Atomic runs fn inside a new unit of work, committing when fn returns nil
// and rolling back otherwise.
func (eng *Engine) Atomic(ctx context.Context, fn func(ctx context.Context, s *uow.Scope) error) error {
	return uow.Atomic(ctx, eng.db, fn, eng.scopeOptions()...)
}

func (eng *Engine) scopeOptions() []uow.Option {
	opts := []uow.Option{
		uow.WithObserver(eng.extensions),
		uow.WithLogger(eng.logger),
	}
	if eng.txOpts != nil {
		opts = append(opts, uow.WithTxOptions(eng.txOpts))
	}
	return opts
}

// Shutdown notifies extensions and closes the store.
func (eng *Engine) Shutdown(ctx context.Context) error {
	eng.extensions.EmitShutdown(ctx)
	return eng.store.Close()
}

// Notifier returns the engine's notifier.
func (eng *Engine) Notifier() *signal.Notifier { return eng.notifier }

// Registry returns the handler registry.
func (eng *Engine) Registry() *signal.Registry { return eng.registry }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Accounts returns the account service.
func (eng *Engine) Accounts() *account.Service { return eng.accounts }

// Store returns the underlying store.
func (eng *Engine) Store() store.Store { return eng.store }

// DB returns the database units of work run on, or nil.
func (eng *Engine) DB() *sql.DB { return eng.db }

// Logger returns the engine's logger.
func (eng *Engine) Logger() *slog.Logger { return eng.logger }
