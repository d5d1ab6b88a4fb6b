// Package broker defines the distributed task broker abstraction the
// runtime requires per spec §6: a named-callable registry, fire-and-forget
// enqueueing, and periodic (cron-driven) triggers. It is the Go shape of
// the external collaborator named in spec §1 ("the runtime requires only:
// a task-broker abstraction that can register a named callable, enqueue
// invocations, and register periodic schedules").
//
// A reference in-process implementation lives in broker/inprocess so the
// module runs standalone; production deployments are expected to supply
// their own Broker backed by a real queue.
package broker

import (
	"context"

	"github.com/bittoy/pipeline/types"
	"github.com/robfig/cron/v3"
)

// Handle is passed as the first argument to every registered TaskFunc,
// mirroring the source's celery `bind=true` task handle whose `.name`
// attribute yields the task's registered broker name.
type Handle interface {
	Name() string
}

// TaskFunc is the broker-registered callable shape. It has no return value
// by design: the Task Wrapper (package taskwrapper) is the only caller
// that ever constructs one, and it already converts node function errors
// into logged, suppressed failures before reaching the broker.
type TaskFunc func(ctx context.Context, handle Handle, args ...any)

// Broker is the contract the runtime requires from its distributed task
// queue: register_task, enqueue and register_periodic from spec §6, plus
// a cron.Schedule as the "cron-schedule primitive accepting named
// positional cron fields".
type Broker interface {
	// RegisterTask indexes fn under name and returns a dispatch closure
	// that enqueues an invocation of it. Re-registering an existing name
	// is an error (duplicate registration).
	RegisterTask(name string, fn TaskFunc) (types.DispatchFunc, error)

	// RegisterPeriodic arranges for the task already registered under
	// name to be enqueued, with args, every time schedule fires.
	RegisterPeriodic(name string, schedule cron.Schedule, args []any) error

	// Start begins dispatching periodic triggers.
	Start()
	// Stop drains in-flight cron triggers and halts dispatching.
	Stop()
}
