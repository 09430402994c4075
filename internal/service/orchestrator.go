package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	imetrics "github.com/engine-core/engine/internal/adapter/inbound/metrics"
	"github.com/engine-core/engine/internal/domain/orchestrator"
)

// defaultTestTimeout is the configured tester ingest timeout when none is
// given to NewOrchestrator.
const defaultTestTimeout = 1000 * time.Millisecond

// Orchestrator fans admin requests out to every worker, dispatches
// events to the least-busy worker, and persists the common state after
// every successful admin call. Modeled on
// PolicyAdminService's validate -> mutate -> persist -> reload sequence,
// generalized across N interchangeable workers with rollback.
type Orchestrator struct {
	workers     []orchestrator.Worker
	store       orchestrator.Store
	testTimeout time.Duration
	logger      *slog.Logger
	metrics     *imetrics.Metrics

	mu       sync.Mutex // serializes admin calls: single writer to the store
	started  bool
	diverged atomic.Bool
}

// NewOrchestrator constructs an Orchestrator over workers and store. A
// zero testTimeout defaults to 1000ms. metrics may be nil.
func NewOrchestrator(workers []orchestrator.Worker, store orchestrator.Store, testTimeout time.Duration, logger *slog.Logger, m *imetrics.Metrics) *Orchestrator {
	if testTimeout <= 0 {
		testTimeout = defaultTestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		workers:     workers,
		store:       store,
		testTimeout: testTimeout,
		logger:      logger,
		metrics:     m,
	}
}

// Start spawns every worker's processing thread.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return
	}
	for _, w := range o.workers {
		w.Start()
	}
	o.started = true
	o.logger.Info("orchestrator started", "workers", len(o.workers))
}

// Stop drains in-flight work, joins every worker thread, and persists
// final tester trace state. The snapshot is taken before the workers
// are joined: reads are served by the worker goroutines, which stop
// answering once joined. The admin mutex is held throughout, so no
// admin call can slip between the snapshot and the join.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		return
	}

	var doc orchestrator.Document
	var snapErr error
	if len(o.workers) > 0 {
		doc, snapErr = o.snapshotLocked(context.Background())
	}

	for _, w := range o.workers {
		w.Stop()
	}
	o.started = false

	if len(o.workers) == 0 {
		return
	}
	if snapErr != nil {
		o.logger.Error("failed to snapshot state on stop", "error", snapErr)
		return
	}
	if err := o.store.Save(doc); err != nil {
		o.logger.Error("failed to persist tester state on stop", "error", err)
	}
}

// Diverged reports whether a failed rollback has latched the
// orchestrator into the fatal divergence state.
func (o *Orchestrator) Diverged() bool {
	return o.diverged.Load()
}

func (o *Orchestrator) checkNotDiverged() error {
	if o.diverged.Load() {
		return ErrDiverged
	}
	return nil
}

// leastBusy returns the worker currently reporting the smallest queue
// depth, refreshing the per-worker depth gauge along the way.
func (o *Orchestrator) leastBusy() (orchestrator.Worker, error) {
	if len(o.workers) == 0 {
		return nil, ErrNoWorkers
	}
	best := o.workers[0]
	bestDepth := best.QueueDepth()
	o.observeQueueDepth(0, bestDepth)
	for i, w := range o.workers[1:] {
		d := w.QueueDepth()
		o.observeQueueDepth(i+1, d)
		if d < bestDepth {
			best, bestDepth = w, d
		}
	}
	return best, nil
}

func (o *Orchestrator) observeQueueDepth(workerIdx, depth int) {
	if o.metrics == nil {
		return
	}
	o.metrics.WorkerQueueDepth.WithLabelValues(strconv.Itoa(workerIdx)).Set(float64(depth))
}

// observeFanout records the outcome and duration of one admin call.
func (o *Orchestrator) observeFanout(op string, start time.Time, err error) {
	if o.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, ErrDiverged):
		result = "diverged"
	case err != nil:
		result = "error"
	}
	o.metrics.AdminFanoutTotal.WithLabelValues(op, result).Inc()
	o.metrics.AdminFanoutDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// persistLocked reads the common router/tester state from worker 0 (every
// worker agrees by construction) and writes it to the store. Callers
// must hold o.mu.
func (o *Orchestrator) persistLocked(ctx context.Context) error {
	doc, err := o.snapshotLocked(ctx)
	if err != nil {
		return fmt.Errorf("snapshot state for persistence: %w", err)
	}
	if err := o.store.Save(doc); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (o *Orchestrator) snapshotLocked(ctx context.Context) (orchestrator.Document, error) {
	if len(o.workers) == 0 {
		return orchestrator.Document{}, nil
	}
	w := o.workers[0]
	routerEntries, err := w.GetRouterEntries(ctx)
	if err != nil {
		return orchestrator.Document{}, err
	}
	testerEntries, err := w.GetTesterEntries(ctx)
	if err != nil {
		return orchestrator.Document{}, err
	}
	return orchestrator.Document{RouterEntries: routerEntries, TesterEntries: testerEntries}, nil
}

// diverge latches the orchestrator into the fatal divergence state after
// a compensating rollback call itself failed.
func (o *Orchestrator) diverge(cause error) error {
	o.diverged.Store(true)
	o.logger.Error("orchestrator diverged: rollback compensation failed", "cause", cause)
	return fmt.Errorf("%w: %v", ErrDiverged, cause)
}
