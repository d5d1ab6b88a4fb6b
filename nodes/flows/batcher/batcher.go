// Package batcher implements the reference time-windowed batcher Flow
// from spec §4.8: it coalesces bursts of inbound records into a single
// downstream emission per window of `timeframe` seconds, with exactly one
// outstanding waiter per instance. Grounded on
// original_source/src/extensions/flows/simple_array_batcher.py's
// ArrayBatcher and spec §4.8/§5's concurrency discipline.
package batcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bittoy/pipeline/config"
	"github.com/bittoy/pipeline/metrics"
	"github.com/bittoy/pipeline/nodes/base"
	"github.com/bittoy/pipeline/registry"
	"github.com/bittoy/pipeline/types"
)

func init() {
	_ = registry.Default.Register(types.KindFlow, "batcher", New)
}

// Flow coalesces inbound records into one downstream emission per window.
type Flow struct {
	base.Base

	outputs   []string
	timeframe time.Duration

	mu         sync.Mutex
	buffer     []types.Record
	isBatching bool
}

func bodySpec() *config.Spec {
	return &config.Spec{Fields: map[string]*config.FieldSpec{
		"processing": {Required: true, Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
			"outputs": {Required: true, Seq: &config.SeqSpec{
				Elem: &config.FieldSpec{Kind: config.KindString}, MinLen: 1,
			}},
			"timeframe": {Kind: config.KindInt, Default: 5},
		}}},
	}}
}

// New validates body against the batcher Flow's schema.
func New(name string, body types.Configuration) (types.Node, error) {
	validated, err := config.Validate(bodySpec(), body)
	if err != nil {
		return nil, fmt.Errorf("batcher flow %q: %w", name, err)
	}

	proc := validated["processing"].(map[string]any)
	outputs, err := toStringSlice(proc["outputs"])
	if err != nil {
		return nil, fmt.Errorf("batcher flow %q: outputs: %w", name, err)
	}
	timeframeSeconds := proc["timeframe"].(int)

	return &Flow{
		Base:      base.New(types.KindFlow, name),
		outputs:   outputs,
		timeframe: time.Duration(timeframeSeconds) * time.Second,
	}, nil
}

// Connect is a no-op, per spec §4.4 (Flow connect/shutdown default to
// no-ops).
func (f *Flow) Connect() error { return nil }

// Shutdown is a no-op.
func (f *Flow) Shutdown() error { return nil }

// OutputIDs returns the configured downstream readers.
func (f *Flow) OutputIDs() []string { return f.outputs }

// PeriodicTasks is always empty: Flows never own periodic tasks.
func (f *Flow) PeriodicTasks() []types.TaskSpec { return nil }

// LocalFunction implements the coalescing algorithm from spec §4.8: a
// single Record is promoted to a length-1 slice, appended to the buffer
// under the mutex; if a waiter is already sleeping out the window, this
// call returns immediately with no payload. Otherwise this call becomes
// the waiter: it releases the lock, sleeps the window, then re-acquires
// the lock, snapshots and clears the buffer, and returns the snapshot.
func (f *Flow) LocalFunction() types.Function {
	return func(ctx context.Context, args ...any) (types.Payload, error) {
		var data types.Payload
		if len(args) > 0 {
			data = args[0]
		}
		incoming := types.Records(data)

		f.mu.Lock()
		f.buffer = append(f.buffer, incoming...)
		if f.isBatching {
			f.mu.Unlock()
			return nil, nil
		}
		f.isBatching = true
		f.mu.Unlock()

		select {
		case <-time.After(f.timeframe):
		case <-ctx.Done():
		}

		f.mu.Lock()
		snapshot := f.buffer
		f.buffer = nil
		f.isBatching = false
		f.mu.Unlock()

		metrics.BatcherFlushes.WithLabelValues(f.Name()).Inc()
		return snapshot, nil
	}
}

func toStringSlice(v any) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a sequence")
	}
	out := make([]string, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("element %d: expected a string", i)
		}
		out[i] = s
	}
	return out, nil
}
