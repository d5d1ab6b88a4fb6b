package taskwrapper

import (
	"context"
	"errors"
	"testing"

	"github.com/bittoy/pipeline/broker"
	"github.com/bittoy/pipeline/graph"
	"github.com/bittoy/pipeline/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHandle struct{ name string }

func (h testHandle) Name() string { return h.name }

func TestWrapFansOutOnSuccess(t *testing.T) {
	g := graph.New()
	var got types.Payload
	dispatched := false
	n := &fakeReaderNode{dispatch: func(ctx context.Context, args ...any) error {
		dispatched = true
		if len(args) > 0 {
			got = args[0]
		}
		return nil
	}}
	require.NoError(t, g.Register("sink", n))

	fn := func(ctx context.Context, args ...any) (types.Payload, error) {
		return []types.Record{{"a": 1}}, nil
	}
	wrapped := Wrap(zerolog.Nop(), g, fn, []string{"sink"})
	wrapped(context.Background(), testHandle{"t"}, 1)

	assert.True(t, dispatched)
	assert.NotNil(t, got)
}

func TestWrapContainsErrorAndSkipsFanOut(t *testing.T) {
	g := graph.New()
	dispatched := false
	n := &fakeReaderNode{dispatch: func(ctx context.Context, args ...any) error {
		dispatched = true
		return nil
	}}
	require.NoError(t, g.Register("sink", n))

	fn := func(ctx context.Context, args ...any) (types.Payload, error) {
		return nil, errors.New("boom")
	}
	wrapped := Wrap(zerolog.Nop(), g, fn, []string{"sink"})

	assert.NotPanics(t, func() {
		wrapped(context.Background(), testHandle{"t"})
	})
	assert.False(t, dispatched)
}

func TestWrapContainsPanic(t *testing.T) {
	g := graph.New()
	fn := func(ctx context.Context, args ...any) (types.Payload, error) {
		panic("kaboom")
	}
	wrapped := Wrap(zerolog.Nop(), g, fn, nil)

	assert.NotPanics(t, func() {
		wrapped(context.Background(), testHandle{"t"})
	})
}

func TestWrapBareNeverFansOut(t *testing.T) {
	fn := func(ctx context.Context, args ...any) (types.Payload, error) {
		return []types.Record{{"a": 1}}, nil
	}
	wrapped := WrapBare(zerolog.Nop(), fn)
	assert.NotPanics(t, func() {
		wrapped(context.Background(), testHandle{"t"})
	})
}

// fakeReaderNode is a minimal types.Node + types.Reader for exercising
// Graph.SendResult from within this package's tests.
type fakeReaderNode struct {
	dispatch func(ctx context.Context, args ...any) error
}

func (n *fakeReaderNode) ID() string                   { return "sink" }
func (n *fakeReaderNode) Name() string                 { return "sink" }
func (n *fakeReaderNode) Kind() types.Kind             { return types.KindDelta }
func (n *fakeReaderNode) Connect() error                { return nil }
func (n *fakeReaderNode) Shutdown() error               { return nil }
func (n *fakeReaderNode) LocalFunction() types.Function { return nil }
func (n *fakeReaderNode) SetDispatch(fn types.DispatchFunc) {}
func (n *fakeReaderNode) Dispatch(ctx context.Context, args ...any) error {
	return n.dispatch(ctx, args...)
}
func (n *fakeReaderNode) OutputIDs() []string { return nil }

var _ broker.Handle = testHandle{}
