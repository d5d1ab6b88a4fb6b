// Package types defines the node/payload/configuration vocabulary shared
// across the pipeline runtime: the plugin registry, the graph, the cron
// scheduler, the task wrapper and every concrete node implementation all
// depend on this package and nothing else in the runtime.
package types

import "context"

// Kind tags which of the three node variants a Node is. It doubles as the
// first component of a node's broker task name and its graph id prefix.
type Kind string

const (
	KindSpring Kind = "spring"
	KindFlow   Kind = "flow"
	KindDelta  Kind = "delta"
)

// Configuration is a node's validated, per-instance configuration tree.
type Configuration map[string]any

// Copy returns a shallow copy, safe to hand to a node constructor without
// letting it mutate the tree the loader is still walking.
func (c Configuration) Copy() Configuration {
	out := make(Configuration, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Record is a single payload element: a mapping of string keys to
// JSON-compatible values.
type Record = map[string]any

// Payload is either a single Record or an ordered sequence of Records.
// Nodes exchange payloads as this unrefined `any`; Records normalizes
// either shape into a slice for receivers that expect a sequence.
type Payload = any

// Records promotes a single Record to a length-1 sequence and normalizes
// slice shapes; it returns nil for anything else (including a nil payload).
func Records(p Payload) []Record {
	switch v := p.(type) {
	case nil:
		return nil
	case []Record:
		return v
	case map[string]any:
		return []Record{v}
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			if r, ok := item.(map[string]any); ok {
				out = append(out, r)
			}
		}
		return out
	default:
		return nil
	}
}

// Function is the raw, unwrapped processing callable a node registers.
// For Springs it is invoked with the CronTask's own args; for Flows and
// Deltas the inbound payload is passed as the first argument.
type Function func(ctx context.Context, args ...any) (Payload, error)

// TaskSpec is a Writer's declarative description of one periodic task,
// handed to the CronTask constructor by the App Controller. It never
// imports the cron package itself, which keeps the dependency one-way
// (cron depends on types, not the reverse).
type TaskSpec struct {
	Name      string
	Schedule  string
	Args      []any
	OutputIDs []string
}

// DispatchFunc enqueues an invocation of a node's registered broker task.
// Graph.SendResult calls a reader's Dispatch, never its LocalFunction
// directly, so that fan-out always goes through the broker.
type DispatchFunc func(ctx context.Context, args ...any) error

// Node is the contract every Spring, Flow and Delta satisfies.
type Node interface {
	ID() string
	Name() string
	Kind() Kind
	Connect() error
	Shutdown() error
	LocalFunction() Function
	// Dispatch enqueues a broker invocation of this node's node-process
	// task. It only works once SetDispatch has been called by the App
	// Controller during node registration.
	Dispatch(ctx context.Context, args ...any) error
	SetDispatch(fn DispatchFunc)
}

// Writer is satisfied by Spring and Flow: both own periodic tasks (Flow's
// list is always empty, per Design Notes).
type Writer interface {
	Node
	PeriodicTasks() []TaskSpec
}

// Reader is satisfied by Flow and Delta: both expose output ids that the
// CronTask topology check and the Task Wrapper fan out to.
type Reader interface {
	Node
	OutputIDs() []string
}

// Spring is a writer-only node: a cron-triggered producer.
type Spring interface {
	Writer
}

// Flow is both a writer and a reader: an intermediate transform.
type Flow interface {
	Writer
	Reader
}

// Delta is a reader-only node: a terminal sink.
type Delta interface {
	Reader
}
