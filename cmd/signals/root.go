package main

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/xraph/signals"
	"github.com/xraph/signals/account"
	audithook "github.com/xraph/signals/audit_hook"
	"github.com/xraph/signals/engine"
	"github.com/xraph/signals/internal/logging"
	"github.com/xraph/signals/relay"
	"github.com/xraph/signals/signal"
	"github.com/xraph/signals/store"
	"github.com/xraph/signals/store/memory"
	"github.com/xraph/signals/store/postgres"
	"github.com/xraph/signals/store/sqlite"
)

// globalFlags holds the persistent flags shared by every subcommand.
// Non-empty values override the loaded configuration.
type globalFlags struct {
	configPath string
	driver     string
	dsn        string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "signals",
		Short: "Synchronous in-process change notification",
		Long: `signals raises events on the caller's goroutine and runs every registered
handler before returning. A handler failure inside a unit of work dooms the
whole transaction, including writes made by other handlers.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&flags.driver, "driver", "", "store driver: memory, sqlite or postgres")
	pf.StringVar(&flags.dsn, "dsn", "", "data source name for sqlite or postgres")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newDemoCmd(flags), newVersionCmd())
	return root
}

// load reads the configuration and applies flag overrides.
func (f *globalFlags) load() (signals.Config, error) {
	cfg, err := signals.LoadConfig(f.configPath)
	if err != nil {
		return cfg, err
	}
	if f.driver != "" {
		cfg.Driver = f.driver
	}
	if f.dsn != "" {
		cfg.DSN = f.dsn
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, cfg.Validate()
}

// openStore opens and migrates the store selected by cfg.Driver.
func openStore(ctx context.Context, cfg signals.Config, logger *slog.Logger) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Driver {
	case "memory":
		st = memory.New()
	case "sqlite":
		st, err = sqlite.Open(cfg.DSN, sqlite.WithLogger(logger))
	case "postgres":
		st, err = postgres.Open(ctx, cfg.DSN, postgres.WithLogger(logger))
	default:
		err = fmt.Errorf("%w: unknown driver %q", signals.ErrInvalidConfig, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// buildEngine opens the configured store and builds an engine over it with
// audit logging and, when a Redis address is configured, the post-commit
// relay. The returned cleanup shuts the engine down.
func buildEngine(ctx context.Context, cfg signals.Config, logger *slog.Logger, opts ...engine.Option) (*engine.Engine, func(), error) {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMaxDepth(cfg.MaxDepth),
		engine.WithSlowThreshold(cfg.SlowHandlerThreshold),
		engine.WithExtension(audithook.New(audithook.NewLogRecorder(logger))),
	}

	var rdb goredis.UniversalClient
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		pub := relay.NewRedisPublisher(rdb, cfg.RelayStream)
		engOpts = append(engOpts, engine.WithHandler(signal.PostSave, account.SourceUser,
			relay.NewHandler(pub, relay.WithLogger(logger))))
	}
	engOpts = append(engOpts, opts...)

	eng, err := engine.New(st, engOpts...)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if shutdownErr := eng.Shutdown(context.Background()); shutdownErr != nil {
			logger.Warn("engine shutdown failed", slog.String("error", shutdownErr.Error()))
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	return eng, cleanup, nil
}

func newLogger(cmd *cobra.Command, cfg signals.Config) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
}
