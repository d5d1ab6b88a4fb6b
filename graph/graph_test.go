package graph

import (
	"context"
	"testing"

	"github.com/bittoy/pipeline/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNode struct {
	name     string
	kind     types.Kind
	dispatch types.DispatchFunc
}

func (n *stubNode) ID() string                          { return string(n.kind) + "-" + n.name }
func (n *stubNode) Name() string                         { return n.name }
func (n *stubNode) Kind() types.Kind                     { return n.kind }
func (n *stubNode) Connect() error                       { return nil }
func (n *stubNode) Shutdown() error                      { return nil }
func (n *stubNode) LocalFunction() types.Function        { return nil }
func (n *stubNode) SetDispatch(fn types.DispatchFunc)    { n.dispatch = fn }
func (n *stubNode) Dispatch(ctx context.Context, args ...any) error {
	return n.dispatch(ctx, args...)
}

func TestRegisterAndGet(t *testing.T) {
	g := New()
	n := &stubNode{name: "a", kind: types.KindDelta}
	require.NoError(t, g.Register("a", n))

	got, ok := g.Get("a")
	require.True(t, ok)
	assert.Same(t, types.Node(n), got)
}

func TestRegisterDuplicateFails(t *testing.T) {
	g := New()
	require.NoError(t, g.Register("a", &stubNode{name: "a", kind: types.KindDelta}))

	err := g.Register("a", &stubNode{name: "a", kind: types.KindDelta})
	require.Error(t, err)
}

func TestIterFiltersByKind(t *testing.T) {
	g := New()
	require.NoError(t, g.Register("s", &stubNode{name: "s", kind: types.KindSpring}))
	require.NoError(t, g.Register("f", &stubNode{name: "f", kind: types.KindFlow}))
	require.NoError(t, g.Register("d", &stubNode{name: "d", kind: types.KindDelta}))

	springsAndDeltas := g.Iter(types.KindSpring, types.KindDelta)
	assert.Len(t, springsAndDeltas, 2)

	all := g.Iter()
	assert.Len(t, all, 3)
}

func TestSendResultBestEffort(t *testing.T) {
	g := New()
	var got []any
	ok := &stubNode{name: "ok", kind: types.KindDelta}
	ok.SetDispatch(func(ctx context.Context, args ...any) error {
		got = args
		return nil
	})
	require.NoError(t, g.Register("ok", ok))

	failing := &stubNode{name: "failing", kind: types.KindDelta}
	failing.SetDispatch(func(ctx context.Context, args ...any) error {
		return assert.AnError
	})
	require.NoError(t, g.Register("failing", failing))

	logger := zerolog.Nop()
	// "missing" does not exist in the graph; "failing" errors on dispatch.
	// Neither should stop "ok" from being reached.
	g.SendResult(context.Background(), logger, "payload", []string{"missing", "failing", "ok"})

	require.Len(t, got, 1)
	assert.Equal(t, "payload", got[0])
}
