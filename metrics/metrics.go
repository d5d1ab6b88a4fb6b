// Package metrics exposes the Prometheus instrumentation surface for the
// runtime, generalized from the teacher's engine/metrics.go (which
// counted rule-chain HTTP requests) to the pipeline's own dispatch/flush
// points.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// TasksDispatched counts every broker task invocation the Task
	// Wrapper runs, labeled by task name and outcome ("ok"/"error").
	TasksDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "broker",
			Name:      "tasks_dispatched_total",
			Help:      "Total broker task invocations handled by the Task Wrapper.",
		},
		[]string{"task", "status"},
	)

	// TaskDuration measures wall-clock time of each Task Wrapper
	// invocation (the node's LocalFunction plus any result fan-out), per
	// task name.
	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pipeline",
			Subsystem: "broker",
			Name:      "task_duration_seconds",
			Help:      "Task Wrapper invocation latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"task"},
	)

	// NodesRegistered tracks graph population at startup, per kind.
	NodesRegistered = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pipeline",
			Subsystem: "graph",
			Name:      "nodes_registered",
			Help:      "Nodes currently registered in the graph.",
		},
		[]string{"kind"},
	)

	// BatcherFlushes counts time-window flushes emitted by batcher Flows,
	// labeled by node name.
	BatcherFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "flow",
			Name:      "batcher_flushes_total",
			Help:      "Batcher Flow window flushes.",
		},
		[]string{"node"},
	)
)

func init() {
	prometheus.MustRegister(TasksDispatched, TaskDuration, NodesRegistered, BatcherFlushes)
}
