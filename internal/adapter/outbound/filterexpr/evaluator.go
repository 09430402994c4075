// Package filterexpr is a CEL-based reference implementation of the
// evalsurface.Builder port: it compiles policy and filter assets as CEL
// expressions evaluated against an event's HLP field map. It exists so
// this module is runnable and testable end-to-end even though the real
// asset builder is an external collaborator out of scope
// here.
package filterexpr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/engine-core/engine/internal/domain/evalsurface"
)

// maxExpressionLength bounds CEL source size accepted from an admin
// request.
const maxExpressionLength = 2048

// maxCostBudget caps CEL evaluation cost to prevent a pathological
// expression from stalling a worker.
const maxCostBudget = 100_000

// evalTimeout bounds a single CEL evaluation; the tester/router treat a
// timeout as an evaluation error, never an unwound worker thread.
const evalTimeout = 2 * time.Second

// Evaluator compiles and runs CEL expressions over event field maps.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator builds the CEL environment shared by every compiled
// policy and filter: a single "event" variable holding the HLP field
// map, plus the event's raw framing fields.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("raw", cel.StringType),
		cel.Variable("queue", cel.StringType),
		cel.Variable("location", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("filterexpr: build cel environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Compile parses and type-checks expr, returning a ready-to-run program.
func (e *Evaluator) Compile(expr string) (cel.Program, error) {
	if len(expr) > maxExpressionLength {
		return nil, fmt.Errorf("filterexpr: expression too long: %d bytes", len(expr))
	}
	if expr == "" {
		return nil, errors.New("filterexpr: expression is empty")
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("filterexpr: compile: %w", issues.Err())
	}

	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
	)
	if err != nil {
		return nil, fmt.Errorf("filterexpr: program: %w", err)
	}
	return prg, nil
}

// activation builds the CEL variable bindings for event.
func activation(event *evalsurface.Event) map[string]any {
	fields := event.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return map[string]any{
		"event":    fields,
		"raw":      event.Raw,
		"queue":    event.Queue,
		"location": event.Location,
	}
}

// evalBool runs prg against event and requires a boolean result.
func evalBool(prg cel.Program, event *evalsurface.Event) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	result, _, err := prg.ContextEval(ctx, activation(event))
	if err != nil {
		return false, fmt.Errorf("filterexpr: evaluate: %w", err)
	}
	b, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filterexpr: expression did not return bool, got %T", result.Value())
	}
	return b, nil
}
