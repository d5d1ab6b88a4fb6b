// Package graph implements the process-wide name → node index described
// by §4.3: populated once during single-threaded startup and read through
// an RWMutex read lock thereafter, with a best-effort fan-out dispatch. It generalizes
// original_source/core/graph.py's NodeGraph (register_node/get/
// iter_over_nodes/send_result), adding the best-effort semantics §4.3
// calls for explicitly (the source's send_result stops at the first
// failure; this redesign does not).
package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/bittoy/pipeline/metrics"
	"github.com/bittoy/pipeline/types"
	"github.com/rs/zerolog"
)

// Graph holds every node the App Controller has registered.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]types.Node
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]types.Node)}
}

// Register inserts a node under name. Re-registration under an existing
// name is a fatal duplicate-registration error.
func (g *Graph) Register(name string, n types.Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("duplicate node registration: %q", name)
	}
	g.nodes[name] = n
	metrics.NodesRegistered.WithLabelValues(string(n.Kind())).Inc()
	return nil
}

// Get looks up a node by name.
func (g *Graph) Get(name string) (types.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[name]
	return n, ok
}

// Iter returns every registered node whose kind is among kinds, or every
// node if kinds is empty.
func (g *Graph) Iter(kinds ...types.Kind) []types.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]types.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if len(kinds) == 0 || kindIn(n.Kind(), kinds) {
			out = append(out, n)
		}
	}
	return out
}

func kindIn(k types.Kind, kinds []types.Kind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// SendResult enqueues an invocation of each reader's registered broker
// task with payload as its argument, in list order. A missing reader or
// an enqueue failure is logged and does not stop the remaining readers —
// fan-out is best-effort, per §4.3 and the Task Wrapper contract in §4.5.
func (g *Graph) SendResult(ctx context.Context, logger zerolog.Logger, payload types.Payload, readers []string) {
	for _, name := range readers {
		node, ok := g.Get(name)
		if !ok {
			logger.Error().Str("reader", name).Msg("send_result: reader does not exist")
			continue
		}
		if err := node.Dispatch(ctx, payload); err != nil {
			logger.Error().Err(err).Str("reader", name).Msg("send_result: failed to enqueue reader")
		}
	}
}
