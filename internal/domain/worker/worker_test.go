package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/engine-core/engine/internal/domain/evalsurface"
	"github.com/engine-core/engine/internal/domain/router"
	"github.com/engine-core/engine/internal/domain/tester"
)

// stubBuilder serves fixed always-match filters and pass-through
// policies.
type stubBuilder struct{}

func (stubBuilder) BuildPolicy(context.Context, string) (evalsurface.Policy, error) {
	return stubPolicy{}, nil
}

func (stubBuilder) BuildFilter(context.Context, string) (evalsurface.Filter, error) {
	return stubFilter{}, nil
}

func (stubBuilder) AssetsOf(context.Context, string) (map[string]struct{}, error) {
	return map[string]struct{}{"stub": {}}, nil
}

type stubPolicy struct{}

func (stubPolicy) Evaluate(_ context.Context, event *evalsurface.Event, _ evalsurface.TraceSink) (evalsurface.EvalResult, error) {
	if event.Fields == nil {
		event.Fields = map[string]any{}
	}
	event.Fields["seen"] = true
	return evalsurface.EvalResult{Event: event}, nil
}

type stubFilter struct{}

func (stubFilter) Matches(context.Context, *evalsurface.Event) bool { return true }

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	w := New(router.New(stubBuilder{}), tester.New(stubBuilder{}))
	w.Start()
	t.Cleanup(w.Stop)
	return w
}

func TestWorkerAdminRoundTrip(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	e := router.Entry{Name: "r1", PolicyName: "p", FilterName: "f", Priority: 7}
	if err := w.AddRouterEntry(ctx, e); err != nil {
		t.Fatalf("AddRouterEntry: %v", err)
	}
	if err := w.EnableRouterEntry(ctx, "r1"); err != nil {
		t.Fatalf("EnableRouterEntry: %v", err)
	}

	got, err := w.GetRouterEntry(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRouterEntry: %v", err)
	}
	if got.Priority != 7 || got.State != router.Enabled {
		t.Errorf("entry = %+v", got)
	}

	entries, err := w.GetRouterEntries(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("GetRouterEntries = %v, %v", entries, err)
	}

	if err := w.ChangeRouterPriority(ctx, "r1", 3); err != nil {
		t.Fatalf("ChangeRouterPriority: %v", err)
	}
	if err := w.RebuildRouterEntry(ctx, "r1"); err != nil {
		t.Fatalf("RebuildRouterEntry: %v", err)
	}
	if err := w.RemoveRouterEntry(ctx, "r1"); err != nil {
		t.Fatalf("RemoveRouterEntry: %v", err)
	}
	if _, err := w.GetRouterEntry(ctx, "r1"); !errors.Is(err, router.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWorkerTesterRoundTrip(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	if err := w.AddTesterEntry(ctx, tester.Entry{Name: "t1", PolicyName: "p"}); err != nil {
		t.Fatalf("AddTesterEntry: %v", err)
	}
	if err := w.EnableTesterEntry(ctx, "t1"); err != nil {
		t.Fatalf("EnableTesterEntry: %v", err)
	}

	assets, err := w.GetTesterAssets(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTesterAssets: %v", err)
	}
	if _, ok := assets["stub"]; !ok {
		t.Errorf("assets = %v", assets)
	}

	result, err := w.IngestTest(ctx, &evalsurface.Event{}, tester.Options{Name: "t1"})
	if err != nil {
		t.Fatalf("IngestTest: %v", err)
	}
	if result.Event.Fields["seen"] != true {
		t.Error("policy did not run")
	}
}

func TestWorkerPostEvent(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	if err := w.AddRouterEntry(ctx, router.Entry{Name: "r1", PolicyName: "p", FilterName: "f", Priority: 1}); err != nil {
		t.Fatalf("AddRouterEntry: %v", err)
	}
	if err := w.EnableRouterEntry(ctx, "r1"); err != nil {
		t.Fatalf("EnableRouterEntry: %v", err)
	}

	event := &evalsurface.Event{Raw: "payload"}
	result, err := w.PostEvent(ctx, event)
	if err != nil {
		t.Fatalf("PostEvent: %v", err)
	}
	if result.Event.Fields["seen"] != true {
		t.Error("event was not evaluated")
	}
}

func TestWorkerPostEventNoMatch(t *testing.T) {
	w := newTestWorker(t)
	_, err := w.PostEvent(context.Background(), &evalsurface.Event{})
	if !errors.Is(err, router.ErrNoMatch) {
		t.Fatalf("err = %v, want router.ErrNoMatch", err)
	}
}

func TestWorkerFIFOOrdering(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	// Issue a sequence of dependent admin calls; FIFO processing means
	// each sees the effects of the previous one.
	if err := w.AddRouterEntry(ctx, router.Entry{Name: "a", PolicyName: "p", FilterName: "f", Priority: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.EnableRouterEntry(ctx, "a"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := w.ChangeRouterPriority(ctx, "a", 9); err != nil {
		t.Fatalf("change: %v", err)
	}
	e, err := w.GetRouterEntry(ctx, "a")
	if err != nil || e.Priority != 9 || e.State != router.Enabled {
		t.Fatalf("entry = %+v, err = %v", e, err)
	}
}

func TestWorkerStopRefusesNewWork(t *testing.T) {
	w := New(router.New(stubBuilder{}), tester.New(stubBuilder{}))
	w.Start()
	w.Stop()

	if err := w.AddRouterEntry(context.Background(), router.Entry{Name: "a", PolicyName: "p", FilterName: "f", Priority: 1}); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
	if _, err := w.PostEvent(context.Background(), &evalsurface.Event{}); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
}

func TestWorkerStopIdempotent(t *testing.T) {
	w := New(router.New(stubBuilder{}), tester.New(stubBuilder{}))
	w.Start()
	w.Stop()
	w.Stop()
}

func TestWorkerQueueDepth(t *testing.T) {
	w := New(router.New(stubBuilder{}), tester.New(stubBuilder{}))
	// Not started: queued items accumulate.
	if err := w.submit(func() {}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := w.QueueDepth(); got != 1 {
		t.Errorf("QueueDepth = %d, want 1", got)
	}
	w.Start()
	w.Stop()
	if got := w.QueueDepth(); got != 0 {
		t.Errorf("QueueDepth after drain = %d, want 0", got)
	}
}
