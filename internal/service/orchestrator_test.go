package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/engine-core/engine/internal/adapter/outbound/filterexpr"
	"github.com/engine-core/engine/internal/adapter/outbound/store"
	"github.com/engine-core/engine/internal/domain/evalsurface"
	"github.com/engine-core/engine/internal/domain/orchestrator"
	"github.com/engine-core/engine/internal/domain/router"
	"github.com/engine-core/engine/internal/domain/tester"
	"github.com/engine-core/engine/internal/domain/worker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockWorker is an in-memory orchestrator.Worker with per-method error
// injection, so fan-out, rollback, and divergence paths can be driven
// deterministically without real worker goroutines.
type mockWorker struct {
	mu            sync.Mutex
	routerEntries map[string]router.Entry
	testerEntries map[string]tester.Entry
	depth         int
	rebuildCount  int

	errAddRouter     error
	errEnableRouter  error
	errRemoveRouter  error
	errRebuildRouter error
	errAddTester     error
	errRemoveTester  error

	lastEvent   *evalsurface.Event
	ingestBlock bool // IngestTest blocks until the context is done
}

func newMockWorker() *mockWorker {
	return &mockWorker{
		routerEntries: map[string]router.Entry{},
		testerEntries: map[string]tester.Entry{},
	}
}

func (w *mockWorker) Start() {}
func (w *mockWorker) Stop()  {}

func (w *mockWorker) AddRouterEntry(_ context.Context, e router.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.errAddRouter != nil {
		return w.errAddRouter
	}
	e.State = router.Disabled
	w.routerEntries[e.Name] = e
	return nil
}

func (w *mockWorker) RemoveRouterEntry(_ context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.errRemoveRouter != nil {
		return w.errRemoveRouter
	}
	delete(w.routerEntries, name)
	return nil
}

func (w *mockWorker) GetRouterEntry(_ context.Context, name string) (router.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.routerEntries[name]
	if !ok {
		return router.Entry{}, router.ErrNotFound
	}
	return e, nil
}

func (w *mockWorker) EnableRouterEntry(_ context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.errEnableRouter != nil {
		return w.errEnableRouter
	}
	e, ok := w.routerEntries[name]
	if !ok {
		return router.ErrNotFound
	}
	e.State = router.Enabled
	w.routerEntries[name] = e
	return nil
}

func (w *mockWorker) RebuildRouterEntry(_ context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.errRebuildRouter != nil {
		return w.errRebuildRouter
	}
	if _, ok := w.routerEntries[name]; !ok {
		return router.ErrNotFound
	}
	w.rebuildCount++
	return nil
}

func (w *mockWorker) ChangeRouterPriority(_ context.Context, name string, priority int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.routerEntries[name]
	if !ok {
		return router.ErrNotFound
	}
	e.Priority = priority
	w.routerEntries[name] = e
	return nil
}

func (w *mockWorker) GetRouterEntries(context.Context) ([]router.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]router.Entry, 0, len(w.routerEntries))
	for _, e := range w.routerEntries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (w *mockWorker) AddTesterEntry(_ context.Context, e tester.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.errAddTester != nil {
		return w.errAddTester
	}
	e.State = tester.Disabled
	w.testerEntries[e.Name] = e
	return nil
}

func (w *mockWorker) RemoveTesterEntry(_ context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.errRemoveTester != nil {
		return w.errRemoveTester
	}
	delete(w.testerEntries, name)
	return nil
}

func (w *mockWorker) GetTesterEntry(_ context.Context, name string) (tester.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.testerEntries[name]
	if !ok {
		return tester.Entry{}, tester.ErrNotFound
	}
	return e, nil
}

func (w *mockWorker) EnableTesterEntry(_ context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.testerEntries[name]
	if !ok {
		return tester.ErrNotFound
	}
	e.State = tester.Enabled
	w.testerEntries[name] = e
	return nil
}

func (w *mockWorker) RebuildTesterEntry(_ context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.testerEntries[name]; !ok {
		return tester.ErrNotFound
	}
	w.rebuildCount++
	return nil
}

func (w *mockWorker) GetTesterEntries(context.Context) ([]tester.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]tester.Entry, 0, len(w.testerEntries))
	for _, e := range w.testerEntries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (w *mockWorker) GetTesterAssets(_ context.Context, name string) (map[string]struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.testerEntries[name]; !ok {
		return nil, tester.ErrNotFound
	}
	return map[string]struct{}{name + "-asset": {}}, nil
}

func (w *mockWorker) PostEvent(_ context.Context, event *evalsurface.Event) (evalsurface.EvalResult, error) {
	w.mu.Lock()
	w.lastEvent = event
	w.mu.Unlock()
	return evalsurface.EvalResult{Event: event}, nil
}

func (w *mockWorker) IngestTest(ctx context.Context, event *evalsurface.Event, _ tester.Options) (evalsurface.EvalResult, error) {
	if w.ingestBlock {
		<-ctx.Done()
		return evalsurface.EvalResult{}, ctx.Err()
	}
	return evalsurface.EvalResult{Event: event}, nil
}

func (w *mockWorker) QueueDepth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.depth
}

func (w *mockWorker) hasRouterEntry(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.routerEntries[name]
	return ok
}

// testEnv builds an orchestrator over n mock workers and a memory store.
func testEnv(n int) (*Orchestrator, []*mockWorker, *store.MemoryStore) {
	mocks := make([]*mockWorker, n)
	workers := make([]orchestrator.Worker, n)
	for i := range mocks {
		mocks[i] = newMockWorker()
		workers[i] = mocks[i]
	}
	mem := store.NewMemoryStore()
	orch := NewOrchestrator(workers, mem, 50*time.Millisecond, testLogger(), nil)
	return orch, mocks, mem
}

var routerEntryFixture = router.Entry{
	Name: "t", PolicyName: "p", FilterName: "f", Priority: 10,
}

// --- Validation ---

func TestPostRouterEntryValidation(t *testing.T) {
	orch, mocks, _ := testEnv(2)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry router.Entry
		want  error
	}{
		{"empty name", router.Entry{Name: "", PolicyName: "p", FilterName: "f", Priority: 10}, ErrEmptyName},
		{"empty policy", router.Entry{Name: "t", PolicyName: "", FilterName: "f", Priority: 10}, ErrEmptyName},
		{"empty filter", router.Entry{Name: "t", PolicyName: "p", FilterName: "", Priority: 10}, ErrEmptyName},
		{"zero priority", router.Entry{Name: "t", PolicyName: "p", FilterName: "f", Priority: 0}, ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := orch.PostRouterEntry(ctx, tt.entry); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	// No worker was mutated by any rejected request.
	for i, m := range mocks {
		if entries, _ := m.GetRouterEntries(ctx); len(entries) != 0 {
			t.Errorf("worker %d mutated by rejected request: %v", i, entries)
		}
	}
}

// --- Fan-out and persistence ---

func TestPostRouterEntryFanOut(t *testing.T) {
	orch, mocks, mem := testEnv(3)
	ctx := context.Background()

	if err := orch.PostRouterEntry(ctx, routerEntryFixture); err != nil {
		t.Fatalf("PostRouterEntry: %v", err)
	}

	var firstID string
	for i, m := range mocks {
		e, err := m.GetRouterEntry(ctx, "t")
		if err != nil {
			t.Fatalf("worker %d missing entry: %v", i, err)
		}
		if e.State != router.Enabled {
			t.Errorf("worker %d entry not enabled", i)
		}
		if e.ID == "" {
			t.Errorf("worker %d entry has no generated ID", i)
		}
		if firstID == "" {
			firstID = e.ID
		} else if e.ID != firstID {
			t.Errorf("worker %d holds a different ID: %q vs %q", i, e.ID, firstID)
		}
	}

	doc, err := mem.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.RouterEntries) != 1 || doc.RouterEntries[0].Name != "t" {
		t.Errorf("persisted doc = %+v", doc)
	}
}

func TestPostRouterEntryPartialFailureRollsBack(t *testing.T) {
	orch, mocks, mem := testEnv(5)
	ctx := context.Background()

	// Worker #3 of 5 rejects the add.
	mocks[2].errAddRouter = errors.New("builder failed")

	err := orch.PostRouterEntry(ctx, routerEntryFixture)
	if err == nil {
		t.Fatal("expected fan-out error")
	}
	for i, m := range mocks {
		if m.hasRouterEntry("t") {
			t.Errorf("worker %d still contains the rolled-back entry", i)
		}
	}
	if orch.Diverged() {
		t.Error("a clean rollback must not latch divergence")
	}

	doc, _ := mem.Load()
	if len(doc.RouterEntries) != 0 {
		t.Errorf("failed admin call must not persist: %+v", doc)
	}
}

func TestRollbackFailureLatchesDivergence(t *testing.T) {
	orch, mocks, _ := testEnv(3)
	ctx := context.Background()

	mocks[1].errAddRouter = errors.New("builder failed")
	mocks[0].errRemoveRouter = errors.New("remove failed")

	err := orch.PostRouterEntry(ctx, routerEntryFixture)
	if !errors.Is(err, ErrDiverged) {
		t.Fatalf("err = %v, want ErrDiverged", err)
	}
	if !orch.Diverged() {
		t.Fatal("divergence must be latched")
	}

	// Every subsequent admin call is refused before validation.
	mocks[0].errRemoveRouter = nil
	if err := orch.DeleteRouterEntry(ctx, "anything"); !errors.Is(err, ErrDiverged) {
		t.Errorf("post-divergence admin call: err = %v, want ErrDiverged", err)
	}
	if _, err := orch.GetRouterEntries(ctx); !errors.Is(err, ErrDiverged) {
		t.Errorf("post-divergence read: err = %v, want ErrDiverged", err)
	}
}

func TestDeleteRouterEntry(t *testing.T) {
	orch, mocks, mem := testEnv(2)
	ctx := context.Background()

	if err := orch.PostRouterEntry(ctx, routerEntryFixture); err != nil {
		t.Fatalf("PostRouterEntry: %v", err)
	}
	if err := orch.DeleteRouterEntry(ctx, "t"); err != nil {
		t.Fatalf("DeleteRouterEntry: %v", err)
	}
	for i, m := range mocks {
		if m.hasRouterEntry("t") {
			t.Errorf("worker %d still contains deleted entry", i)
		}
	}
	doc, _ := mem.Load()
	if len(doc.RouterEntries) != 0 {
		t.Errorf("persisted doc not updated after delete: %+v", doc)
	}
}

func TestReloadRouterEntry(t *testing.T) {
	orch, mocks, _ := testEnv(3)
	ctx := context.Background()

	if err := orch.PostRouterEntry(ctx, routerEntryFixture); err != nil {
		t.Fatalf("PostRouterEntry: %v", err)
	}
	if err := orch.ReloadRouterEntry(ctx, "t"); err != nil {
		t.Fatalf("ReloadRouterEntry: %v", err)
	}
	for i, m := range mocks {
		if m.rebuildCount != 1 {
			t.Errorf("worker %d rebuild count = %d, want 1", i, m.rebuildCount)
		}
	}
}

func TestChangeEntryPriority(t *testing.T) {
	orch, mocks, mem := testEnv(2)
	ctx := context.Background()

	if err := orch.PostRouterEntry(ctx, routerEntryFixture); err != nil {
		t.Fatalf("PostRouterEntry: %v", err)
	}
	for i := 0; i < 2; i++ { // idempotent: same call twice, same state
		if err := orch.ChangeEntryPriority(ctx, "t", 42); err != nil {
			t.Fatalf("ChangeEntryPriority (issue %d): %v", i, err)
		}
	}
	for i, m := range mocks {
		e, _ := m.GetRouterEntry(ctx, "t")
		if e.Priority != 42 {
			t.Errorf("worker %d priority = %d, want 42", i, e.Priority)
		}
	}
	doc, _ := mem.Load()
	if doc.RouterEntries[0].Priority != 42 {
		t.Errorf("persisted priority = %d", doc.RouterEntries[0].Priority)
	}
}

// Property from the spec: after any admin sequence, every worker's entry
// list equals the persisted document.
func TestWorkersMatchPersistedAfterAdminSequence(t *testing.T) {
	orch, mocks, mem := testEnv(3)
	ctx := context.Background()

	steps := []func() error{
		func() error { return orch.PostRouterEntry(ctx, routerEntryFixture) },
		func() error {
			return orch.PostRouterEntry(ctx, router.Entry{Name: "u", PolicyName: "p", FilterName: "f", Priority: 20})
		},
		func() error { return orch.ChangeEntryPriority(ctx, "t", 30) },
		func() error { return orch.PostTesterEntry(ctx, tester.Entry{Name: "tt", PolicyName: "p"}) },
		func() error { return orch.DeleteRouterEntry(ctx, "u") },
	}
	for si, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", si, err)
		}
		doc, err := mem.Load()
		if err != nil {
			t.Fatalf("step %d: Load: %v", si, err)
		}
		for wi, m := range mocks {
			entries, _ := m.GetRouterEntries(ctx)
			if len(entries) != len(doc.RouterEntries) {
				t.Fatalf("step %d worker %d: %d router entries, persisted %d",
					si, wi, len(entries), len(doc.RouterEntries))
			}
			for i := range entries {
				if entries[i].Name != doc.RouterEntries[i].Name ||
					entries[i].Priority != doc.RouterEntries[i].Priority {
					t.Errorf("step %d worker %d entry %d: %+v != persisted %+v",
						si, wi, i, entries[i], doc.RouterEntries[i])
				}
			}
		}
	}
}

// --- Tester admin ---

func TestPostTesterEntryAndAssets(t *testing.T) {
	orch, mocks, _ := testEnv(2)
	ctx := context.Background()

	if err := orch.PostTesterEntry(ctx, tester.Entry{Name: "tt", PolicyName: "p"}); err != nil {
		t.Fatalf("PostTesterEntry: %v", err)
	}
	for i, m := range mocks {
		e, err := m.GetTesterEntry(ctx, "tt")
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
		if e.State != tester.Enabled {
			t.Errorf("worker %d tester entry not enabled", i)
		}
	}

	assets, err := orch.GetTesterAssets(ctx, "tt")
	if err != nil {
		t.Fatalf("GetTesterAssets: %v", err)
	}
	if _, ok := assets["tt-asset"]; !ok {
		t.Errorf("assets = %v", assets)
	}
}

func TestPostTesterEntryValidation(t *testing.T) {
	orch, _, _ := testEnv(1)
	if err := orch.PostTesterEntry(context.Background(), tester.Entry{Name: "", PolicyName: "p"}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
}

// --- Event ingestion ---

func TestPostStrEvent(t *testing.T) {
	orch, mocks, _ := testEnv(2)
	ctx := context.Background()

	// Worker 0 is busier; dispatch must pick worker 1.
	mocks[0].depth = 5

	if _, err := orch.PostStrEvent(ctx, "3:/route:payload"); err != nil {
		t.Fatalf("PostStrEvent: %v", err)
	}
	if mocks[0].lastEvent != nil {
		t.Error("busy worker received the event")
	}
	got := mocks[1].lastEvent
	if got == nil {
		t.Fatal("least-busy worker did not receive the event")
	}
	if got.Queue != "3" || got.Location != "/route" || got.Raw != "payload" {
		t.Errorf("event = %+v", got)
	}
}

func TestPostStrEventProtocolError(t *testing.T) {
	orch, mocks, _ := testEnv(1)
	if _, err := orch.PostStrEvent(context.Background(), ""); !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
	if mocks[0].lastEvent != nil {
		t.Error("rejected event must not be dispatched")
	}
}

func TestIngestTestValidation(t *testing.T) {
	orch, _, _ := testEnv(1)
	_, err := orch.IngestTest(context.Background(), "3:loc:log", tester.Options{Name: ""})
	if !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
}

func TestIngestTestTimeout(t *testing.T) {
	orch, mocks, _ := testEnv(1)
	mocks[0].ingestBlock = true

	start := time.Now()
	_, err := orch.IngestTest(context.Background(), "3:loc:log", tester.Options{Name: "tt"})
	if !errors.Is(err, ErrTestTimeout) {
		t.Fatalf("err = %v, want ErrTestTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v, configured 50ms", elapsed)
	}
}

func TestIngestTestResult(t *testing.T) {
	orch, _, _ := testEnv(1)
	result, err := orch.IngestTest(context.Background(), "3:loc:log line", tester.Options{Name: "tt"})
	if err != nil {
		t.Fatalf("IngestTest: %v", err)
	}
	if result.Event == nil || result.Event.Raw != "log line" {
		t.Errorf("result = %+v", result)
	}
}

// --- Lifecycle ---

func TestStopPersistsFinalState(t *testing.T) {
	orch, _, mem := testEnv(2)
	ctx := context.Background()

	orch.Start()
	if err := orch.PostTesterEntry(ctx, tester.Entry{Name: "tt", PolicyName: "p"}); err != nil {
		t.Fatalf("PostTesterEntry: %v", err)
	}
	orch.Stop()

	doc, err := mem.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.TesterEntries) != 1 || doc.TesterEntries[0].Name != "tt" {
		t.Errorf("final persisted doc = %+v", doc)
	}
}

// --- End to end over real workers ---

// newRealPool builds n production workers over a shared CEL builder with
// one always-matching filter and one tagging policy registered.
func newRealPool(t *testing.T, n int) []orchestrator.Worker {
	t.Helper()
	builder, err := filterexpr.NewBuilder()
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	builder.RegisterPolicy("p", filterexpr.Definition{Expression: `raw != ""`, Assets: []string{"p"}})
	builder.RegisterFilter("f", filterexpr.Definition{Expression: `queue == "3"`})

	workers := make([]orchestrator.Worker, n)
	for i := range workers {
		workers[i] = worker.New(router.New(builder), tester.New(builder))
	}
	return workers
}

func TestEndToEndProductionPath(t *testing.T) {
	workers := newRealPool(t, 2)
	mem := store.NewMemoryStore()
	orch := NewOrchestrator(workers, mem, 0, testLogger(), nil)

	orch.Start()
	defer orch.Stop()
	ctx := context.Background()

	if err := orch.PostRouterEntry(ctx, routerEntryFixture); err != nil {
		t.Fatalf("PostRouterEntry: %v", err)
	}

	result, err := orch.PostStrEvent(ctx, "3:/var/log/auth.log:Failed password for root")
	if err != nil {
		t.Fatalf("PostStrEvent: %v", err)
	}
	if result.Event.Fields["_policy_result"] != true {
		t.Errorf("fields = %v", result.Event.Fields)
	}

	// Non-matching queue digit falls through every filter.
	if _, err := orch.PostStrEvent(ctx, "7:loc:other"); !errors.Is(err, router.ErrNoMatch) {
		t.Errorf("err = %v, want router.ErrNoMatch", err)
	}
}

func TestEndToEndTesterPath(t *testing.T) {
	workers := newRealPool(t, 1)
	orch := NewOrchestrator(workers, store.NewMemoryStore(), 0, testLogger(), nil)

	orch.Start()
	defer orch.Stop()
	ctx := context.Background()

	if err := orch.PostTesterEntry(ctx, tester.Entry{Name: "sandbox", PolicyName: "p"}); err != nil {
		t.Fatalf("PostTesterEntry: %v", err)
	}

	result, err := orch.IngestTest(ctx, "3:loc:some log", tester.Options{
		Name: "sandbox", TraceLevel: evalsurface.TraceAll,
	})
	if err != nil {
		t.Fatalf("IngestTest: %v", err)
	}
	if len(result.Trace) == 0 {
		t.Error("TraceAll run produced no trace lines")
	}
}
