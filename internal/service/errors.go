// Package service implements the orchestrator application service: admin
// fan-out with rollback, event dispatch to the least-busy worker,
// persistence, and the divergence latch — built over the Worker and
// Store ports in internal/domain/orchestrator.
package service

import "errors"

var (
	// ErrEmptyName is a user validation error: an entry name was empty.
	ErrEmptyName = errors.New("service: entry name must not be empty")
	// ErrInvalidPriority is a user validation error: priority <= 0.
	ErrInvalidPriority = errors.New("service: priority must be > 0")
	// ErrDiverged is fatal: a prior rollback failed and workers may now
	// disagree. The orchestrator refuses further admin calls until
	// restarted.
	ErrDiverged = errors.New("service: orchestrator has diverged, restart required")
	// ErrTestTimeout is returned by IngestTest when the configured test
	// timeout elapses before a result arrives.
	ErrTestTimeout = errors.New("service: test evaluation timed out")
	// ErrProtocol is returned by PostStrEvent when the raw event fails
	// wire-framing validation.
	ErrProtocol = errors.New("service: malformed event framing")
	// ErrNoWorkers is returned when the orchestrator has no workers to
	// dispatch to.
	ErrNoWorkers = errors.New("service: orchestrator has no workers")
)
