// Package worker implements the single-threaded execution context that
// owns one router and one tester: the unit the orchestrator fans admin
// calls out to and multiplexes events onto.
package worker

import (
	"context"
	"sync"

	"github.com/engine-core/engine/internal/domain/router"
	"github.com/engine-core/engine/internal/domain/tester"
)

// Worker owns one Router and one Tester and processes work items
// (admin requests and event-ingestion requests) one at a time, in
// arrival order, on a single goroutine.
type Worker struct {
	Router *router.Router
	Tester *tester.Tester

	inbox chan func()
	done  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// defaultQueueSize is the inbox capacity used by New.
const defaultQueueSize = 256

// New constructs a Worker over the given router and tester, with an
// inbox capacity of 256. Call Start before submitting any work.
func New(r *router.Router, t *tester.Tester) *Worker {
	return NewWithQueueSize(r, t, defaultQueueSize)
}

// NewWithQueueSize is like New but lets the caller size the inbox
// channel, matching the configured worker queue depth.
func NewWithQueueSize(r *router.Router, t *tester.Tester, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Worker{
		Router: r,
		Tester: t,
		inbox:  make(chan func(), queueSize),
		done:   make(chan struct{}),
	}
}

// Start spawns the worker's single processing goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case fn, ok := <-w.inbox:
			if !ok {
				return
			}
			fn()
		case <-w.done:
			w.drain()
			return
		}
	}
}

// drain runs every work item already queued before exiting, so a
// submitter blocked on a reply channel is never stranded by Stop.
func (w *Worker) drain() {
	for {
		select {
		case fn, ok := <-w.inbox:
			if !ok {
				return
			}
			fn()
		default:
			return
		}
	}
}

// Stop signals termination, drains in-flight work, refuses new
// submissions from the moment it is called, and joins the processing
// goroutine. Stop is idempotent.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()
	close(w.done)
	w.wg.Wait()
}

// submit enqueues fn for execution on the worker goroutine. It returns
// ErrStopped instead of enqueueing once Stop has been called.
func (w *Worker) submit(fn func()) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	w.mu.Unlock()
	w.inbox <- fn
	return nil
}

// call runs fn on the worker goroutine and blocks for its result, or
// until ctx is done.
func call[T any](w *Worker, ctx context.Context, fn func() T) (T, error) {
	var zero T
	replyCh := make(chan T, 1)
	if err := w.submit(func() { replyCh <- fn() }); err != nil {
		return zero, err
	}
	select {
	case v := <-replyCh:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
