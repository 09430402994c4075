// Package orchestrator defines the ports the orchestrator service is
// built over: Worker (one interchangeable pipeline) and Store (the
// persisted configuration document). Production implementations live in
// internal/domain/worker and internal/adapter/outbound/store; mock
// implementations for tests are defined alongside the service's tests.
package orchestrator

import (
	"context"

	"github.com/engine-core/engine/internal/domain/evalsurface"
	"github.com/engine-core/engine/internal/domain/router"
	"github.com/engine-core/engine/internal/domain/tester"
)

// Worker is the orchestrator's view of one interchangeable pipeline. All
// methods are safe to call concurrently; a Worker implementation
// serializes them internally.
type Worker interface {
	Start()
	Stop()

	AddRouterEntry(ctx context.Context, e router.Entry) error
	RemoveRouterEntry(ctx context.Context, name string) error
	GetRouterEntry(ctx context.Context, name string) (router.Entry, error)
	EnableRouterEntry(ctx context.Context, name string) error
	RebuildRouterEntry(ctx context.Context, name string) error
	ChangeRouterPriority(ctx context.Context, name string, priority int) error
	GetRouterEntries(ctx context.Context) ([]router.Entry, error)

	AddTesterEntry(ctx context.Context, e tester.Entry) error
	RemoveTesterEntry(ctx context.Context, name string) error
	GetTesterEntry(ctx context.Context, name string) (tester.Entry, error)
	EnableTesterEntry(ctx context.Context, name string) error
	RebuildTesterEntry(ctx context.Context, name string) error
	GetTesterEntries(ctx context.Context) ([]tester.Entry, error)
	GetTesterAssets(ctx context.Context, name string) (map[string]struct{}, error)

	PostEvent(ctx context.Context, event *evalsurface.Event) (evalsurface.EvalResult, error)
	IngestTest(ctx context.Context, event *evalsurface.Event, opts tester.Options) (evalsurface.EvalResult, error)

	QueueDepth() int
}

// Document is the single persisted configuration document:
// the common router/tester entry state shared by every worker.
type Document struct {
	RouterEntries []router.Entry `json:"router_entries"`
	TesterEntries []tester.Entry `json:"tester_entries"`
}

// Store persists and retrieves the Document. Implementations must
// provide read-your-writes for the orchestrator.
type Store interface {
	Load() (Document, error)
	Save(Document) error
}
