package ext_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/signals/ext"
	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnSignalRaised(_ context.Context, _ *signal.Event) error {
	e.calls = append(e.calls, "OnSignalRaised")
	return nil
}

func (e *allHooksExt) OnSignalDispatched(_ context.Context, _ *signal.Event, _ int, _ time.Duration) error {
	e.calls = append(e.calls, "OnSignalDispatched")
	return nil
}

func (e *allHooksExt) OnHandlerFailed(_ context.Context, _ *signal.Event, _ *signal.HandlerFailure) error {
	e.calls = append(e.calls, "OnHandlerFailed")
	return nil
}

func (e *allHooksExt) OnScopeCommitted(_ context.Context, _ id.ScopeID) error {
	e.calls = append(e.calls, "OnScopeCommitted")
	return nil
}

func (e *allHooksExt) OnScopeRolledBack(_ context.Context, _ id.ScopeID, _ error) error {
	e.calls = append(e.calls, "OnScopeRolledBack")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// raisedOnlyExt implements only SignalRaised.
type raisedOnlyExt struct {
	calls []string
}

func (e *raisedOnlyExt) Name() string { return "raised-only" }

func (e *raisedOnlyExt) OnSignalRaised(_ context.Context, _ *signal.Event) error {
	e.calls = append(e.calls, "OnSignalRaised")
	return nil
}

// failingExt returns an error from its hook.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnShutdown(_ context.Context) error {
	return errors.New("hook exploded")
}

// orderExt records its name into a shared slice.
type orderExt struct {
	name string
	log  *[]string
}

func (e *orderExt) Name() string { return e.name }

func (e *orderExt) OnSignalRaised(_ context.Context, _ *signal.Event) error {
	*e.log = append(*e.log, e.name)
	return nil
}

func testEvent() *signal.Event {
	return &signal.Event{ID: id.NewEventID(), Kind: signal.PostSave, Source: "account.user"}
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	ro := &raisedOnlyExt{}
	r.Register(all)
	r.Register(ro)

	if got := len(r.Extensions()); got != 2 {
		t.Fatalf("expected 2 extensions, got %d", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	ro := &raisedOnlyExt{}
	r.Register(all)
	r.Register(ro)

	ctx := context.Background()
	e := testEvent()

	r.EmitSignalRaised(ctx, e)
	if len(all.calls) != 1 || all.calls[0] != "OnSignalRaised" {
		t.Fatalf("all: expected [OnSignalRaised], got %v", all.calls)
	}
	if len(ro.calls) != 1 || ro.calls[0] != "OnSignalRaised" {
		t.Fatalf("ro: expected [OnSignalRaised], got %v", ro.calls)
	}

	// Only all implements OnSignalDispatched → ro not called.
	r.EmitSignalDispatched(ctx, e, 1, time.Millisecond)
	if len(all.calls) != 2 || all.calls[1] != "OnSignalDispatched" {
		t.Fatalf("all: expected OnSignalDispatched as 2nd, got %v", all.calls)
	}
	if len(ro.calls) != 1 {
		t.Fatalf("ro: should still have 1 call, got %v", ro.calls)
	}
}

func TestRegistry_AllHooksFire(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	e := testEvent()
	scopeID := id.NewScopeID()

	r.EmitSignalRaised(ctx, e)
	r.EmitSignalDispatched(ctx, e, 2, time.Second)
	r.EmitHandlerFailed(ctx, e, &signal.HandlerFailure{Handler: "h", Err: errors.New("fail")})
	r.EmitScopeCommitted(ctx, scopeID)
	r.EmitScopeRolledBack(ctx, scopeID, errors.New("doomed"))
	r.EmitShutdown(ctx)

	expected := []string{
		"OnSignalRaised", "OnSignalDispatched", "OnHandlerFailed",
		"OnScopeCommitted", "OnScopeRolledBack", "OnShutdown",
	}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(all.calls), all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	var buf bytes.Buffer
	r := ext.NewRegistry(slog.New(slog.NewTextHandler(&buf, nil)))
	all := &allHooksExt{}
	r.Register(&failingExt{})
	r.Register(all)

	r.EmitShutdown(context.Background())

	if len(all.calls) != 1 {
		t.Fatalf("expected later extension to still fire, got %v", all.calls)
	}
	if !strings.Contains(buf.String(), "hook exploded") {
		t.Fatalf("expected hook error to be logged, got %q", buf.String())
	}
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := ext.NewRegistry(slog.Default())
	ctx := context.Background()
	e := testEvent()

	// None of these should panic.
	r.EmitSignalRaised(ctx, e)
	r.EmitSignalDispatched(ctx, e, 0, 0)
	r.EmitHandlerFailed(ctx, e, &signal.HandlerFailure{})
	r.EmitScopeCommitted(ctx, id.NewScopeID())
	r.EmitScopeRolledBack(ctx, id.NewScopeID(), nil)
	r.EmitShutdown(ctx)
}

func TestRegistry_MultipleExtensionsOrderPreserved(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	var log []string
	for _, name := range []string{"first", "second", "third"} {
		r.Register(&orderExt{name: name, log: &log})
	}

	r.EmitSignalRaised(context.Background(), testEvent())

	expected := []string{"first", "second", "third"}
	if len(log) != len(expected) {
		t.Fatalf("expected %d calls, got %v", len(expected), log)
	}
	for i, want := range expected {
		if log[i] != want {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want)
		}
	}
}

func TestRegistry_ObservesNotifier(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	reg := signal.NewRegistry()
	reg.Register(signal.PostSave, "account.user", signal.HandlerFunc(func(context.Context, *signal.Event) error {
		return errors.New("fail")
	}))
	n := signal.New(reg, signal.WithObserver(r))

	_ = n.Raise(context.Background(), signal.PostSave, "account.user", nil, signal.Metadata{})

	expected := []string{"OnSignalRaised", "OnHandlerFailed"}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}
