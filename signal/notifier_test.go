package signal_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/signals"
	"github.com/xraph/signals/internal/goid"
	"github.com/xraph/signals/signal"
)

const srcRecord signal.Source = "test.record"

// ──────────────────────────────────────────────────
// Test doubles
// ──────────────────────────────────────────────────

// fakeScope records rollback marks.
type fakeScope struct {
	causes []error
}

func (s *fakeScope) MarkRollback(cause error) { s.causes = append(s.causes, cause) }

// recordingObserver records lifecycle notifications.
type recordingObserver struct {
	calls    []string
	handlers int
	failure  *signal.HandlerFailure
}

func (o *recordingObserver) EmitSignalRaised(_ context.Context, _ *signal.Event) {
	o.calls = append(o.calls, "raised")
}

func (o *recordingObserver) EmitSignalDispatched(_ context.Context, _ *signal.Event, handlers int, _ time.Duration) {
	o.calls = append(o.calls, "dispatched")
	o.handlers = handlers
}

func (o *recordingObserver) EmitHandlerFailed(_ context.Context, _ *signal.Event, f *signal.HandlerFailure) {
	o.calls = append(o.calls, "failed")
	o.failure = f
}

func logTo(log *[]string, name string) signal.Handler {
	return signal.Named(name, signal.HandlerFunc(func(_ context.Context, _ *signal.Event) error {
		*log = append(*log, name)
		return nil
	}))
}

func newNotifier(opts ...signal.Option) *signal.Notifier {
	opts = append([]signal.Option{signal.WithLogger(slog.Default())}, opts...)
	return signal.New(signal.NewRegistry(), opts...)
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRaise_InvokesInRegistrationOrder(t *testing.T) {
	n := newNotifier()
	var log []string
	for _, name := range []string{"first", "second", "third", "fourth"} {
		n.Register(signal.PostSave, srcRecord, logTo(&log, name))
	}

	if err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}); err != nil {
		t.Fatalf("Raise: %v", err)
	}

	want := []string{"first", "second", "third", "fourth"}
	if len(log) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestRaise_RunsOnCallerGoroutine(t *testing.T) {
	n := newNotifier()
	var inside uint64
	n.Register(signal.PostSave, srcRecord, signal.HandlerFunc(func(_ context.Context, _ *signal.Event) error {
		inside = goid.Current()
		return nil
	}))

	caller := goid.Current()
	if err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if inside != caller {
		t.Fatalf("handler ran on goroutine %d, caller on %d", inside, caller)
	}
}

func TestRaise_BlocksUntilHandlersFinish(t *testing.T) {
	n := newNotifier()
	delays := []time.Duration{30 * time.Millisecond, 20 * time.Millisecond, 10 * time.Millisecond}
	var sum time.Duration
	for _, d := range delays {
		d := d
		sum += d
		n.Register(signal.PostSave, srcRecord, signal.HandlerFunc(func(_ context.Context, _ *signal.Event) error {
			time.Sleep(d)
			return nil
		}))
	}

	start := time.Now()
	if err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if elapsed := time.Since(start); elapsed < sum {
		t.Fatalf("Raise returned after %s, expected at least %s", elapsed, sum)
	}
}

func TestRaise_NoHandlersIsNoOp(t *testing.T) {
	obs := &recordingObserver{}
	n := newNotifier(signal.WithObserver(obs))
	scope := &fakeScope{}

	if err := n.Raise(context.Background(), signal.PostDelete, srcRecord, "x", signal.Metadata{}, signal.InScope(scope)); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if len(scope.causes) != 0 {
		t.Errorf("scope should be untouched, got %v", scope.causes)
	}
	if obs.handlers != 0 || len(obs.calls) != 2 {
		t.Errorf("expected raised+dispatched with 0 handlers, got %v (%d)", obs.calls, obs.handlers)
	}
}

func TestRaise_OnlyMatchingKeyFires(t *testing.T) {
	n := newNotifier()
	var log []string
	n.Register(signal.PostSave, srcRecord, logTo(&log, "record-post-save"))
	n.Register(signal.PreSave, srcRecord, logTo(&log, "record-pre-save"))
	n.Register(signal.PostSave, "test.other", logTo(&log, "other-post-save"))

	if err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if len(log) != 1 || log[0] != "record-post-save" {
		t.Fatalf("expected [record-post-save], got %v", log)
	}
}

func TestRaise_DuplicateRegistrationRunsTwice(t *testing.T) {
	n := newNotifier()
	var log []string
	h := logTo(&log, "dup")
	n.Register(signal.PostSave, srcRecord, h)
	n.Register(signal.PostSave, srcRecord, h)

	if err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected handler to run twice, got %v", log)
	}
}

func TestRaise_DeliversPayloadAndMetadata(t *testing.T) {
	n := newNotifier()
	var got *signal.Event
	n.Register(signal.PostSave, srcRecord, signal.HandlerFunc(func(_ context.Context, e *signal.Event) error {
		got = e
		return nil
	}))

	meta := signal.Metadata{Created: true, UpdateFields: []string{"name"}}
	if err := n.Raise(context.Background(), signal.PostSave, srcRecord, "payload", meta); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if got == nil {
		t.Fatal("handler not called")
	}
	if got.Payload != "payload" || !got.Meta.Created || got.Meta.UpdateFields[0] != "name" {
		t.Errorf("unexpected event %+v", got)
	}
	if got.Kind != signal.PostSave || got.Source != srcRecord {
		t.Errorf("unexpected key %s", got.Key())
	}
	if got.ID.IsNil() || got.RaisedAt.IsZero() {
		t.Errorf("expected id and timestamp, got %+v", got)
	}
	if got.Scope != nil {
		t.Errorf("expected no scope outside InScope, got %v", got.Scope)
	}
}

func TestRaise_FailureStopsDispatchAndMarksScope(t *testing.T) {
	obs := &recordingObserver{}
	n := newNotifier(signal.WithObserver(obs))
	var log []string
	boom := errors.New("boom")

	n.Register(signal.PostSave, srcRecord, logTo(&log, "before"))
	n.Register(signal.PostSave, srcRecord, signal.Named("failing", signal.HandlerFunc(func(_ context.Context, _ *signal.Event) error {
		return boom
	})))
	n.Register(signal.PostSave, srcRecord, logTo(&log, "after"))

	scope := &fakeScope{}
	err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}, signal.InScope(scope))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, signals.ErrHandlerFailure) {
		t.Errorf("expected ErrHandlerFailure, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped handler error, got %v", err)
	}

	var f *signal.HandlerFailure
	if !errors.As(err, &f) {
		t.Fatalf("expected *HandlerFailure, got %T", err)
	}
	if f.Handler != "failing" || f.Position != 1 || f.Kind != signal.PostSave || f.Source != srcRecord {
		t.Errorf("unexpected failure %+v", f)
	}

	if len(log) != 1 || log[0] != "before" {
		t.Errorf("expected only the handler before the failure to run, got %v", log)
	}
	if len(scope.causes) != 1 || !errors.Is(scope.causes[0], boom) {
		t.Errorf("expected scope marked with the failure, got %v", scope.causes)
	}
	if obs.failure == nil || obs.failure.Handler != "failing" {
		t.Errorf("observer not told about the failure: %v", obs.calls)
	}
}

func TestRaise_FailureOutsideScope(t *testing.T) {
	n := newNotifier()
	n.Register(signal.PostSave, srcRecord, signal.HandlerFunc(func(_ context.Context, _ *signal.Event) error {
		return errors.New("no scope")
	}))

	err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{})
	if !errors.Is(err, signals.ErrHandlerFailure) {
		t.Fatalf("expected ErrHandlerFailure, got %v", err)
	}
}

func TestRaise_PanicMarksScopeAndPropagates(t *testing.T) {
	n := newNotifier()
	n.Register(signal.PostSave, srcRecord, signal.HandlerFunc(func(_ context.Context, _ *signal.Event) error {
		panic("kaboom")
	}))

	scope := &fakeScope{}
	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Fatalf("expected panic to propagate, recovered %v", r)
			}
		}()
		_ = n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}, signal.InScope(scope))
	}()

	if len(scope.causes) != 1 || !errors.Is(scope.causes[0], signals.ErrHandlerFailure) {
		t.Fatalf("expected scope marked after panic, got %v", scope.causes)
	}
}

func TestRaise_MiddlewareWrapsEachHandler(t *testing.T) {
	var log []string
	mw := func(tag string) signal.Middleware {
		return func(ctx context.Context, c *signal.Call, next signal.Next) error {
			log = append(log, tag+">"+c.Handler)
			err := next(ctx)
			log = append(log, tag+"<"+c.Handler)
			return err
		}
	}
	n := newNotifier(signal.WithMiddleware(mw("outer"), mw("inner")))
	n.Register(signal.PostSave, srcRecord, logTo(&log, "h"))

	if err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}); err != nil {
		t.Fatalf("Raise: %v", err)
	}

	want := []string{"outer>h", "inner>h", "h", "inner<h", "outer<h"}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestRaise_RecursionBoundedByMaxDepth(t *testing.T) {
	n := newNotifier(signal.WithMaxDepth(3))
	calls := 0
	n.Register(signal.PostSave, srcRecord, signal.HandlerFunc(func(ctx context.Context, e *signal.Event) error {
		calls++
		return n.Raise(ctx, signal.PostSave, srcRecord, nil, signal.Metadata{}, signal.InScope(e.Scope))
	}))

	scope := &fakeScope{}
	err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}, signal.InScope(scope))
	if !errors.Is(err, signals.ErrMaxDepthExceeded) {
		t.Fatalf("expected ErrMaxDepthExceeded, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 nested handler calls, got %d", calls)
	}
	if len(scope.causes) == 0 {
		t.Error("expected scope to be marked")
	}
}

func TestRaise_ObserverSeesSuccessfulDispatch(t *testing.T) {
	obs := &recordingObserver{}
	n := newNotifier(signal.WithObserver(obs))
	var log []string
	n.Register(signal.PostSave, srcRecord, logTo(&log, "a"))
	n.Register(signal.PostSave, srcRecord, logTo(&log, "b"))

	if err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if len(obs.calls) != 2 || obs.calls[0] != "raised" || obs.calls[1] != "dispatched" {
		t.Fatalf("unexpected observer calls %v", obs.calls)
	}
	if obs.handlers != 2 {
		t.Errorf("expected 2 handlers reported, got %d", obs.handlers)
	}
}

func TestDepth(t *testing.T) {
	n := newNotifier()
	var inner int
	n.Register(signal.PostSave, srcRecord, signal.HandlerFunc(func(ctx context.Context, _ *signal.Event) error {
		inner = signal.Depth(ctx)
		return nil
	}))

	if d := signal.Depth(context.Background()); d != 0 {
		t.Fatalf("expected depth 0 outside dispatch, got %d", d)
	}
	if err := n.Raise(context.Background(), signal.PostSave, srcRecord, nil, signal.Metadata{}); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if inner != 1 {
		t.Errorf("expected depth 1 inside handler, got %d", inner)
	}
}
