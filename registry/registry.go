// Package registry is the Node Registry (Modules) component: it indexes
// concrete node constructors by (kind, class id) and instantiates them by
// name. It generalizes the teacher's engine/registry.go map-based
// RuleComponentRegistry from a single NodeType key to the pipeline's
// (Kind, id) pair, matching the per-language "Modules" class in
// original_source/src/core/modules.py (three per-kind dicts collapsed
// here into one map keyed by the pair).
package registry

import (
	"fmt"
	"sync"

	"github.com/bittoy/pipeline/types"
)

// Constructor builds a Node from its body configuration. Only the
// `configuration` header has been validated when it is called; the
// constructor validates the rest against the node's own schema. It is the
// Go analogue of the source's `from_configuration` classmethod.
type Constructor func(name string, body types.Configuration) (types.Node, error)

type key struct {
	kind types.Kind
	id   string
}

// Registry discovers node implementations at process startup (via each
// node package's init() calling Register on Default) and resolves
// (kind, id) pairs to constructors thereafter.
type Registry struct {
	mu    sync.RWMutex
	items map[key]Constructor
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{items: make(map[key]Constructor)}
}

// Default is the process-wide registry every reference node implementation
// registers itself into from its own package init().
var Default = New()

// Register indexes a constructor under (kind, id). A duplicate (kind, id)
// registration is a fatal configuration error, per the Node Registry
// contract.
func (r *Registry) Register(kind types.Kind, id string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{kind, id}
	if _, exists := r.items[k]; exists {
		return fmt.Errorf("node type already registered: (%s, %s)", kind, id)
	}
	r.items[k] = ctor
	return nil
}

// New instantiates the node registered under (kind, id) with the given
// instance name and body configuration. Lookup failure is reported as
// "unknown node type", per §4.2.
func (r *Registry) New(kind types.Kind, id string, name string, body types.Configuration) (types.Node, error) {
	r.mu.RLock()
	ctor, ok := r.items[key{kind, id}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown node type: (%s, %s)", kind, id)
	}
	return ctor(name, body)
}

// Len reports how many (kind, id) constructors are registered — used by
// the App Controller's load() to log discovery results.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
