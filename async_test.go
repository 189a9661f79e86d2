package thirdvm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fetchCtxt struct {
	calls int
}

// countingDispatcher resolves `fetch` after two polls, mimicking a host
// operation that completes asynchronously: the first Dispatch call
// reports pending, the second succeeds and pushes a fixed value.
type countingDispatcher struct{}

func (countingDispatcher) Dispatch(ctx context.Context, vm *Forth[*fetchCtxt], hdr *EntryHeader) error {
	vm.HostCtxt.calls++
	if vm.HostCtxt.calls < 2 {
		return errPendingCallAgain
	}
	return stackErr(vm.dataStack.Push(WordData(99)))
}

func TestAsyncForthPendingThenResolves(t *testing.T) {
	ctxt := &fetchCtxt{}
	asyncTable := []AsyncBuiltinEntry{
		{Hdr: EntryHeader{Name: NewFaStrString("fetch"), Kind: KindAsyncBuiltin}},
	}

	vm, err := New[*fetchCtxt](
		WithHostContext[*fetchCtxt](ctxt),
		WithAsyncBuiltins[*fetchCtxt](asyncTable, countingDispatcher{}),
	)
	require.NoError(t, err)

	a := NewAsyncForth(vm)
	ctx := context.Background()
	a.SetLine(ctx, "fetch")

	action, err := a.Step(ctx)
	require.NoError(t, err)
	require.Equal(t, ActionPending, action)
	require.Equal(t, 1, ctxt.calls)

	action, err = a.Step(ctx)
	require.NoError(t, err)
	require.Equal(t, ActionContinue, action)
	require.Equal(t, 2, ctxt.calls)

	v, err := vm.dataStack.Pop()
	require.NoError(t, err)
	require.Equal(t, int64(99), v.Data())

	action, err = a.Step(ctx)
	require.NoError(t, err)
	require.Equal(t, ActionDone, action)
}

type failDispatcher struct{}

func (failDispatcher) Dispatch(ctx context.Context, vm *Forth[*fetchCtxt], hdr *EntryHeader) error {
	return NewError(ErrInternalError)
}

func TestAsyncForthErrorClearsStacks(t *testing.T) {
	ctxt := &fetchCtxt{}
	asyncTable := []AsyncBuiltinEntry{
		{Hdr: EntryHeader{Name: NewFaStrString("boom"), Kind: KindAsyncBuiltin}},
	}
	vm, err := New[*fetchCtxt](
		WithHostContext[*fetchCtxt](ctxt),
		WithAsyncBuiltins[*fetchCtxt](asyncTable, failDispatcher{}),
	)
	require.NoError(t, err)
	require.NoError(t, vm.dataStack.Push(WordData(1)))

	a := NewAsyncForth(vm)
	ctx := context.Background()
	a.SetLine(ctx, "boom")

	_, err = a.Step(ctx)
	require.Error(t, err)
	require.Equal(t, 0, vm.dataStack.Len())
}
