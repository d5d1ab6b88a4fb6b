// Package jstransform implements a reference Flow that runs an arbitrary
// per-record JavaScript transform via goja. Grounded on the teacher's
// components/transform/js_filter_node.go and utils/js/js_engine.go (pooled
// goja VMs precompiled once, reused per call), adapted from a boolean
// filter to a record-returning transform.
package jstransform

import (
	"context"
	"fmt"
	"sync"

	"github.com/bittoy/pipeline/config"
	"github.com/bittoy/pipeline/nodes/base"
	"github.com/bittoy/pipeline/registry"
	"github.com/bittoy/pipeline/types"
	"github.com/dop251/goja"
)

func init() {
	_ = registry.Default.Register(types.KindFlow, "jstransform", New)
}

const funcTemplate = "function transform(record) { %s }\ntransform;"

// Flow runs a user script against each inbound record and forwards
// whatever object the script returns.
type Flow struct {
	base.Base

	outputs []string
	program *goja.Program
	pool    *sync.Pool
}

func bodySpec() *config.Spec {
	return &config.Spec{Fields: map[string]*config.FieldSpec{
		"processing": {Required: true, Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
			"outputs": {Required: true, Seq: &config.SeqSpec{
				Elem: &config.FieldSpec{Kind: config.KindString}, MinLen: 1,
			}},
			"script": {Required: true, Kind: config.KindString},
		}}},
	}}
}

// New compiles the configured script once and sets up a VM pool.
func New(name string, body types.Configuration) (types.Node, error) {
	validated, err := config.Validate(bodySpec(), body)
	if err != nil {
		return nil, fmt.Errorf("jstransform flow %q: %w", name, err)
	}

	proc := validated["processing"].(map[string]any)
	outputs, err := stringSlice(proc["outputs"])
	if err != nil {
		return nil, fmt.Errorf("jstransform flow %q: outputs: %w", name, err)
	}

	script := fmt.Sprintf(funcTemplate, proc["script"].(string))
	program, err := goja.Compile("transform.js", script, true)
	if err != nil {
		return nil, fmt.Errorf("jstransform flow %q: compiling script: %w", name, err)
	}

	f := &Flow{
		Base:    base.New(types.KindFlow, name),
		outputs: outputs,
		program: program,
	}
	f.pool = &sync.Pool{New: func() any {
		vm := goja.New()
		if _, err := vm.RunProgram(f.program); err != nil {
			panic(fmt.Sprintf("jstransform: failed to prime VM: %v", err))
		}
		return vm
	}}
	return f, nil
}

func (f *Flow) Connect() error                  { return nil }
func (f *Flow) Shutdown() error                 { return nil }
func (f *Flow) OutputIDs() []string             { return f.outputs }
func (f *Flow) PeriodicTasks() []types.TaskSpec { return nil }

// LocalFunction runs `transform(record)` for each inbound record, keeping
// only the records whose result is itself an object.
func (f *Flow) LocalFunction() types.Function {
	return func(ctx context.Context, args ...any) (types.Payload, error) {
		var data types.Payload
		if len(args) > 0 {
			data = args[0]
		}
		records := types.Records(data)

		vm := f.pool.Get().(*goja.Runtime)
		defer f.pool.Put(vm)

		fn, ok := goja.AssertFunction(vm.Get("transform"))
		if !ok {
			return nil, fmt.Errorf("jstransform %q: transform is not a function", f.Name())
		}

		out := make([]types.Record, 0, len(records))
		for _, record := range records {
			res, err := fn(goja.Undefined(), vm.ToValue(record))
			if err != nil {
				return nil, fmt.Errorf("jstransform %q: %w", f.Name(), err)
			}
			if transformed, ok := res.Export().(map[string]any); ok {
				out = append(out, transformed)
			}
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	}
}

func stringSlice(v any) ([]string, error) {
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
