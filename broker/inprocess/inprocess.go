// Package inprocess is the reference Broker implementation: a
// goroutine-dispatched task registry plus a robfig/cron-driven periodic
// trigger, standing in for a real external task queue so the module runs
// and is testable standalone. It generalizes the mutex-guarded map
// registry pattern of the teacher's engine/registry.go (RuleComponentRegistry)
// from a component-type index to a broker-task index.
package inprocess

import (
	"context"
	"fmt"
	"sync"

	"github.com/bittoy/pipeline/broker"
	"github.com/bittoy/pipeline/types"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type handle struct{ name string }

func (h handle) Name() string { return h.name }

// Broker is the in-process reference implementation of broker.Broker.
type Broker struct {
	mu     sync.RWMutex
	tasks  map[string]broker.TaskFunc
	cron   *cron.Cron
	logger zerolog.Logger
}

// New returns an empty, unstarted Broker.
func New(logger zerolog.Logger) *Broker {
	return &Broker{
		tasks:  make(map[string]broker.TaskFunc),
		cron:   cron.New(),
		logger: logger,
	}
}

// RegisterTask indexes fn under name. Re-registration under an existing
// name fails, matching the broker contract's duplicate-registration rule.
func (b *Broker) RegisterTask(name string, fn broker.TaskFunc) (types.DispatchFunc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.tasks[name]; exists {
		return nil, fmt.Errorf("task already registered: %q", name)
	}
	b.tasks[name] = fn
	return func(ctx context.Context, args ...any) error {
		return b.Enqueue(ctx, name, args...)
	}, nil
}

// Enqueue dispatches the named task on its own goroutine and returns
// immediately (fire-and-forget, matching the broker contract's
// asynchronous dispatch).
func (b *Broker) Enqueue(ctx context.Context, name string, args ...any) error {
	b.mu.RLock()
	fn, ok := b.tasks[name]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("enqueue: unknown task %q", name)
	}
	go fn(ctx, handle{name: name}, args...)
	return nil
}

// RegisterPeriodic arranges for name to be enqueued with args every time
// schedule fires. name must already be registered via RegisterTask.
func (b *Broker) RegisterPeriodic(name string, schedule cron.Schedule, args []any) error {
	b.mu.RLock()
	_, ok := b.tasks[name]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("register_periodic: unknown task %q", name)
	}
	b.cron.Schedule(schedule, cron.FuncJob(func() {
		if err := b.Enqueue(context.Background(), name, args...); err != nil {
			b.logger.Error().Err(err).Str("task", name).Msg("failed to enqueue periodic task")
		}
	}))
	return nil
}

// Start begins firing periodic triggers on their own goroutine.
func (b *Broker) Start() { b.cron.Start() }

// Stop waits for any in-flight cron job to finish, then halts the
// scheduler. It does not wait for goroutines Enqueue has already spawned.
func (b *Broker) Stop() {
	<-b.cron.Stop().Done()
}
