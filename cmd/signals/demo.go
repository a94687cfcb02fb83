package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/signals"
	"github.com/xraph/signals/account"
	"github.com/xraph/signals/engine"
	"github.com/xraph/signals/internal/goid"
	"github.com/xraph/signals/signal"
	"github.com/xraph/signals/uow"
)

var errDemoRollback = errors.New("demo: triggering rollback")

func newDemoCmd(flags *globalFlags) *cobra.Command {
	demo := &cobra.Command{
		Use:   "demo",
		Short: "Run a dispatch demonstration",
	}
	demo.AddCommand(
		newBlockingCmd(flags),
		newThreadCmd(flags),
		newRollbackCmd(flags),
	)
	return demo
}

// runWithEngine loads the configuration, builds an engine with the extra
// options and hands it to fn.
func runWithEngine(cmd *cobra.Command, flags *globalFlags, fn func(context.Context, *engine.Engine, signals.Config) error, opts ...engine.Option) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	eng, cleanup, err := buildEngine(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(ctx, eng, cfg)
}

func demoUsername(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// ──────────────────────────────────────────────────
// Blocking dispatch
// ──────────────────────────────────────────────────

func newBlockingCmd(flags *globalFlags) *cobra.Command {
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   "blocking",
		Short: "Show that a slow handler blocks the save that raised it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBlocking(cmd, flags, delay)
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", 0, "handler sleep (default from config demo_delay)")
	return cmd
}

func runBlocking(cmd *cobra.Command, flags *globalFlags, delay time.Duration) error {
	out := cmd.OutOrStdout()
	var handlerElapsed time.Duration

	sleeper := func(cfg signals.Config) signal.Handler {
		if delay <= 0 {
			delay = cfg.DemoDelay
		}
		return signal.Named("demo.sleep", signal.HandlerFunc(func(context.Context, *signal.Event) error {
			start := time.Now()
			fmt.Fprintf(out, "handler: sleeping for %v\n", delay)
			time.Sleep(delay)
			handlerElapsed = time.Since(start)
			return nil
		}))
	}

	return runWithEngine(cmd, flags, func(ctx context.Context, eng *engine.Engine, cfg signals.Config) error {
		eng.Register(signal.PostSave, account.SourceUser, sleeper(cfg))

		start := time.Now()
		if _, err := eng.Accounts().CreateUser(ctx, nil, demoUsername("blocking"), ""); err != nil {
			return err
		}
		printBlocking(out, handlerElapsed, time.Since(start))
		return nil
	})
}

func printBlocking(w io.Writer, handler, total time.Duration) {
	fmt.Fprintf(w, "handler elapsed: %v\n", handler.Round(time.Millisecond))
	fmt.Fprintf(w, "save elapsed:    %v\n", total.Round(time.Millisecond))
	fmt.Fprintf(w, "save blocked on handler: %t\n", total >= handler)
}

// ──────────────────────────────────────────────────
// Same goroutine
// ──────────────────────────────────────────────────

func newThreadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "thread",
		Short: "Show that handlers run on the caller's goroutine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			var handlerID uint64
			probe := signal.Named("demo.goroutine", signal.HandlerFunc(func(context.Context, *signal.Event) error {
				handlerID = goid.Current()
				return nil
			}))

			return runWithEngine(cmd, flags, func(ctx context.Context, eng *engine.Engine, _ signals.Config) error {
				callerID := goid.Current()
				if _, err := eng.Accounts().CreateUser(ctx, nil, demoUsername("thread"), ""); err != nil {
					return err
				}
				fmt.Fprintf(out, "caller goroutine:  %d\n", callerID)
				fmt.Fprintf(out, "handler goroutine: %d\n", handlerID)
				fmt.Fprintf(out, "same goroutine: %t\n", callerID == handlerID)
				return nil
			}, engine.WithHandler(signal.PostSave, account.SourceUser, probe))
		},
	}
}

// ──────────────────────────────────────────────────
// Rollback
// ──────────────────────────────────────────────────

func newRollbackCmd(flags *globalFlags) *cobra.Command {
	var failIn string
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Show that a failure inside a unit of work discards handler writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []engine.Option
			switch failIn {
			case "handler":
				opts = append(opts, engine.WithHandler(signal.PostSave, account.SourceUser,
					signal.Named("demo.fail", signal.HandlerFunc(func(context.Context, *signal.Event) error {
						return errDemoRollback
					}))))
			case "caller":
			default:
				return fmt.Errorf("--fail-in must be handler or caller, got %q", failIn)
			}
			return runWithEngine(cmd, flags, func(ctx context.Context, eng *engine.Engine, _ signals.Config) error {
				return runRollback(ctx, cmd.OutOrStdout(), eng, failIn == "caller")
			}, opts...)
		},
	}
	cmd.Flags().StringVar(&failIn, "fail-in", "handler", "where the failure happens: handler or caller")
	return cmd
}

func runRollback(ctx context.Context, out io.Writer, eng *engine.Engine, callerFails bool) error {
	const username = "testuser"

	err := eng.Atomic(ctx, func(ctx context.Context, s *uow.Scope) error {
		_, createErr := eng.Accounts().CreateUser(ctx, s, username, "")
		if createErr != nil {
			fmt.Fprintf(out, "create failed: %v\n", createErr)
		}
		profile, err := eng.Accounts().ProfileExists(ctx, s, username)
		if err != nil {
			return fmt.Errorf("check profile inside scope: %w", err)
		}
		fmt.Fprintf(out, "profile inside scope: %t\n", profile)
		fmt.Fprintf(out, "scope rollback-only: %t\n", s.RollbackOnly())
		if callerFails {
			return errDemoRollback
		}
		// Swallow the handler failure; the scope still refuses to commit.
		return nil
	})
	fmt.Fprintf(out, "unit of work: %v\n", err)

	userExists, err := eng.Accounts().UserExists(ctx, nil, username)
	if err != nil {
		return err
	}
	profileExists, err := eng.Accounts().ProfileExists(ctx, nil, username)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "user exists: %t\n", userExists)
	fmt.Fprintf(out, "profile exists: %t\n", profileExists)
	return nil
}
