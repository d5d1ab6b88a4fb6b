package crontask

import (
	"context"
	"testing"

	"github.com/bittoy/pipeline/graph"
	"github.com/bittoy/pipeline/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNode struct {
	name    string
	kind    types.Kind
	outputs []string
}

func (n *stubNode) ID() string                                      { return string(n.kind) + "-" + n.name }
func (n *stubNode) Name() string                                    { return n.name }
func (n *stubNode) Kind() types.Kind                                { return n.kind }
func (n *stubNode) Connect() error                                  { return nil }
func (n *stubNode) Shutdown() error                                 { return nil }
func (n *stubNode) LocalFunction() types.Function                   { return nil }
func (n *stubNode) SetDispatch(fn types.DispatchFunc)               {}
func (n *stubNode) Dispatch(ctx context.Context, args ...any) error { return nil }
func (n *stubNode) OutputIDs() []string                             { return n.outputs }

// springStub is a writer-only node: unlike stubNode, it does not implement
// types.Reader at all, matching a real Spring (e.g.
// nodes/springs/postgresql.Spring has no OutputIDs method).
type springStub struct {
	name string
}

func (n *springStub) ID() string                                      { return "spring-" + n.name }
func (n *springStub) Name() string                                    { return n.name }
func (n *springStub) Kind() types.Kind                                { return types.KindSpring }
func (n *springStub) Connect() error                                  { return nil }
func (n *springStub) Shutdown() error                                 { return nil }
func (n *springStub) LocalFunction() types.Function                   { return nil }
func (n *springStub) SetDispatch(fn types.DispatchFunc)               {}
func (n *springStub) Dispatch(ctx context.Context, args ...any) error { return nil }

func TestParseScheduleDefaultsMissingFields(t *testing.T) {
	sched, err := ParseSchedule("*/5 * * * *")
	require.NoError(t, err)
	assert.NotNil(t, sched)

	_, err = ParseSchedule("*/5 *")
	require.NoError(t, err)

	_, err = ParseSchedule("1 2 3 4 5 6")
	require.Error(t, err)
}

func TestBuildDetectsCycle(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.Register("a", &stubNode{name: "a", kind: types.KindFlow, outputs: []string{"b"}}))
	require.NoError(t, g.Register("b", &stubNode{name: "b", kind: types.KindFlow, outputs: []string{"a"}}))

	_, err := Build(g, zerolog.Nop(), types.KindSpring, "s", types.TaskSpec{
		Name: "t", Schedule: "* * * * *", OutputIDs: []string{"a"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed loop")
}

func TestBuildDetectsMissingNode(t *testing.T) {
	g := graph.New()
	_, err := Build(g, zerolog.Nop(), types.KindSpring, "s", types.TaskSpec{
		Name: "t", Schedule: "* * * * *", OutputIDs: []string{"ghost"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestBuildRejectsSpringAsOutput(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.Register("other", &springStub{name: "other"}))

	_, err := Build(g, zerolog.Nop(), types.KindSpring, "s", types.TaskSpec{
		Name: "t", Schedule: "* * * * *", OutputIDs: []string{"other"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Spring")
}

func TestBuildAllowsTerminalSink(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.Register("es", &stubNode{name: "es", kind: types.KindDelta}))

	task, err := Build(g, zerolog.Nop(), types.KindSpring, "pg", types.TaskSpec{
		Name: "refresh", Schedule: "* * * * *", OutputIDs: []string{"es"},
	})
	require.NoError(t, err)
	assert.Equal(t, "spring-pg-refresh-schedule", task.Name)
}
