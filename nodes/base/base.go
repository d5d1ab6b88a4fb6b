// Package base provides the embeddable node scaffolding shared by every
// concrete Spring, Flow and Delta: id/name/kind accessors and the
// dispatch-closure slot that Graph.SendResult calls into.
package base

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bittoy/pipeline/types"
)

// Base implements the common fraction of types.Node. Concrete node types
// embed it and supply LocalFunction, Connect, Shutdown (and, for Writers
// and Readers, PeriodicTasks/OutputIDs) themselves.
type Base struct {
	kind     types.Kind
	name     string
	dispatch types.DispatchFunc
}

// New returns a Base for a node of the given kind and instance name.
func New(kind types.Kind, name string) Base {
	return Base{kind: kind, name: name}
}

func (b *Base) ID() string        { return fmt.Sprintf("%s-%s", b.kind, b.name) }
func (b *Base) Name() string      { return b.name }
func (b *Base) Kind() types.Kind  { return b.kind }

// SetDispatch is called once, by the App Controller, right after this
// node's node-process task is registered with the broker.
func (b *Base) SetDispatch(fn types.DispatchFunc) { b.dispatch = fn }

// Dispatch enqueues a broker invocation of this node's node-process task.
func (b *Base) Dispatch(ctx context.Context, args ...any) error {
	if b.dispatch == nil {
		return errors.New("node " + b.ID() + ": dispatch function not registered")
	}
	return b.dispatch(ctx, args...)
}

// TrimStrings strips leading/trailing whitespace from every string value
// in a raw configuration map, one level deep — configuration authors
// routinely leave stray indentation around YAML scalars.
func TrimStrings(cfg types.Configuration) {
	for k, v := range cfg {
		if s, ok := v.(string); ok {
			cfg[k] = strings.TrimSpace(s)
		}
	}
}
