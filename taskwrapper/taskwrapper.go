// Package taskwrapper implements the Task Wrapper adapter from spec §4.5:
// it runs a node's raw function, fans its result out through the graph,
// and contains every failure so that one bad task can never take down a
// worker process. It is grounded on
// original_source/src/core/task.py's _task_wrapper, redesigned per
// spec §9's Design Notes: Python's exception-based control flow becomes an
// explicit error return captured at this boundary and logged, never
// propagated.
package taskwrapper

import (
	"context"
	"fmt"
	"time"

	"github.com/bittoy/pipeline/broker"
	"github.com/bittoy/pipeline/graph"
	"github.com/bittoy/pipeline/metrics"
	"github.com/bittoy/pipeline/types"
	"github.com/rs/zerolog"
)

// Wrap adapts fn into a broker.TaskFunc that fans its result out to
// outputIDs via g.SendResult. Used for Flow and Delta node-process tasks
// (whose own output_ids drive the fan-out) and for every Spring CronTask
// (whose task-specific output_ids drive it instead).
func Wrap(logger zerolog.Logger, g *graph.Graph, fn types.Function, outputIDs []string) broker.TaskFunc {
	return func(ctx context.Context, handle broker.Handle, args ...any) {
		logger.Info().Str("task", handle.Name()).Msg("running task")
		start := time.Now()

		result, err := runContained(ctx, fn, args...)

		status := "ok"
		switch {
		case err != nil:
			status = "error"
			logger.Error().Err(err).Str("task", handle.Name()).Msg("task failed to execute")
		case result != nil:
			g.SendResult(ctx, logger, result, outputIDs)
		}

		metrics.TasksDispatched.WithLabelValues(handle.Name(), status).Inc()
		metrics.TaskDuration.WithLabelValues(handle.Name()).Observe(time.Since(start).Seconds())
	}
}

// WrapBare adapts fn into a broker.TaskFunc with no fan-out: it is used
// for a Spring's own node-process task, whose result routing is handled
// entirely by its CronTasks instead (spec §4.4 point 3).
func WrapBare(logger zerolog.Logger, fn types.Function) broker.TaskFunc {
	return func(ctx context.Context, handle broker.Handle, args ...any) {
		logger.Info().Str("task", handle.Name()).Msg("running task")
		start := time.Now()

		_, err := runContained(ctx, fn, args...)

		status := "ok"
		if err != nil {
			status = "error"
			logger.Error().Err(err).Str("task", handle.Name()).Msg("task failed to execute")
		}

		metrics.TasksDispatched.WithLabelValues(handle.Name(), status).Inc()
		metrics.TaskDuration.WithLabelValues(handle.Name()).Observe(time.Since(start).Seconds())
	}
}

// runContained invokes fn and converts any panic into an error, so that a
// misbehaving node can never crash the goroutine the broker dispatched it
// on — the Go analogue of the source's blanket `except Exception`.
func runContained(ctx context.Context, fn types.Function, args ...any) (result types.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, args...)
}
