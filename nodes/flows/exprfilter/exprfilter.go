// Package exprfilter implements a reference filter Flow that keeps only
// the records of an inbound sequence for which a boolean expr-lang
// expression evaluates true. Grounded on the teacher's
// components/transform/expr_filter_node.go (ExprFilterNode), adapted from
// a single-message rule-chain filter to a per-record sequence filter
// matching this runtime's Payload model.
package exprfilter

import (
	"context"
	"fmt"

	"github.com/bittoy/pipeline/config"
	"github.com/bittoy/pipeline/nodes/base"
	"github.com/bittoy/pipeline/registry"
	"github.com/bittoy/pipeline/types"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

func init() {
	_ = registry.Default.Register(types.KindFlow, "exprfilter", New)
}

// Flow drops records for which the configured expression is false.
type Flow struct {
	base.Base

	outputs []string
	program *vm.Program
}

func bodySpec() *config.Spec {
	return &config.Spec{Fields: map[string]*config.FieldSpec{
		"processing": {Required: true, Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
			"outputs": {Required: true, Seq: &config.SeqSpec{
				Elem: &config.FieldSpec{Kind: config.KindString}, MinLen: 1,
			}},
			"expr": {Required: true, Kind: config.KindString},
		}}},
	}}
}

// New compiles the configured expression and validates body.
func New(name string, body types.Configuration) (types.Node, error) {
	validated, err := config.Validate(bodySpec(), body)
	if err != nil {
		return nil, fmt.Errorf("exprfilter flow %q: %w", name, err)
	}

	proc := validated["processing"].(map[string]any)
	outputs, err := stringSlice(proc["outputs"])
	if err != nil {
		return nil, fmt.Errorf("exprfilter flow %q: outputs: %w", name, err)
	}

	program, err := expr.Compile(proc["expr"].(string), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("exprfilter flow %q: compiling expr: %w", name, err)
	}

	return &Flow{
		Base:    base.New(types.KindFlow, name),
		outputs: outputs,
		program: program,
	}, nil
}

func (f *Flow) Connect() error                  { return nil }
func (f *Flow) Shutdown() error                 { return nil }
func (f *Flow) OutputIDs() []string             { return f.outputs }
func (f *Flow) PeriodicTasks() []types.TaskSpec { return nil }

// LocalFunction evaluates the compiled expression against each inbound
// record, with the record itself bound to `record`, and keeps only the
// records for which it evaluates true. A wholly empty result returns no
// payload rather than an empty slice, so the Task Wrapper skips fan-out.
func (f *Flow) LocalFunction() types.Function {
	return func(ctx context.Context, args ...any) (types.Payload, error) {
		var data types.Payload
		if len(args) > 0 {
			data = args[0]
		}
		records := types.Records(data)

		kept := make([]types.Record, 0, len(records))
		for _, record := range records {
			out, err := vm.Run(f.program, map[string]any{"record": record})
			if err != nil {
				return nil, fmt.Errorf("exprfilter %q: %w", f.Name(), err)
			}
			if matched, ok := out.(bool); ok && matched {
				kept = append(kept, record)
			}
		}
		if len(kept) == 0 {
			return nil, nil
		}
		return kept, nil
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
