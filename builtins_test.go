package thirdvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func popAll(t *testing.T, vm *Forth[struct{}]) []int64 {
	t.Helper()
	var out []int64
	for vm.dataStack.Len() > 0 {
		v, err := vm.dataStack.Pop()
		require.NoError(t, err)
		out = append(out, v.Data())
	}
	// reverse so out[0] is the bottom of stack
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func pushAll(t *testing.T, vm *Forth[struct{}], vals ...int64) {
	t.Helper()
	for _, v := range vals {
		require.NoError(t, vm.dataStack.Push(WordData(v)))
	}
}

func TestSwapBuiltin(t *testing.T) {
	vm := newTestVM(t)
	pushAll(t, vm, 1, 2)
	require.NoError(t, swap[struct{}](vm))
	require.Equal(t, []int64{2, 1}, popAll(t, vm))
}

func TestRotBuiltin(t *testing.T) {
	vm := newTestVM(t)
	pushAll(t, vm, 1, 2, 3)
	require.NoError(t, rot[struct{}](vm))
	require.Equal(t, []int64{2, 3, 1}, popAll(t, vm))
}

func TestOverBuiltin(t *testing.T) {
	vm := newTestVM(t)
	pushAll(t, vm, 1, 2)
	require.NoError(t, over[struct{}](vm))
	require.Equal(t, []int64{1, 2, 1}, popAll(t, vm))
}

func TestDup2Builtin(t *testing.T) {
	vm := newTestVM(t)
	pushAll(t, vm, 1, 2)
	require.NoError(t, dup2[struct{}](vm))
	require.Equal(t, []int64{1, 2, 1, 2}, popAll(t, vm))
}

func TestStarSlash(t *testing.T) {
	vm := newTestVM(t)
	pushAll(t, vm, 10, 3, 5) // (10*3)/5 = 6
	require.NoError(t, wordStarSlash[struct{}](vm))
	require.Equal(t, []int64{6}, popAll(t, vm))
}

func TestStarSlashDivideByZero(t *testing.T) {
	vm := newTestVM(t)
	pushAll(t, vm, 10, 3, 0)
	require.ErrorIs(t, wordStarSlash[struct{}](vm), ErrDivideByZero)
}

func TestMinMax(t *testing.T) {
	vm := newTestVM(t)
	pushAll(t, vm, 3, 7)
	require.NoError(t, wordMax[struct{}](vm))
	require.Equal(t, []int64{7}, popAll(t, vm))

	pushAll(t, vm, 3, 7)
	require.NoError(t, wordMin[struct{}](vm))
	require.Equal(t, []int64{3}, popAll(t, vm))
}

func TestZeroComparisons(t *testing.T) {
	vm := newTestVM(t)
	pushAll(t, vm, -1)
	require.NoError(t, zeroLess[struct{}](vm))
	require.Equal(t, []int64{-1}, popAll(t, vm))

	pushAll(t, vm, 1)
	require.NoError(t, zeroGreater[struct{}](vm))
	require.Equal(t, []int64{-1}, popAll(t, vm))

	pushAll(t, vm, 0)
	require.NoError(t, zeroEqual[struct{}](vm))
	require.Equal(t, []int64{-1}, popAll(t, vm))
}

func TestReturnStackShuffle(t *testing.T) {
	vm := newTestVM(t)
	pushAll(t, vm, 9)
	require.NoError(t, dataToReturnStack[struct{}](vm))
	require.Equal(t, 1, vm.returnStack.Len())
	require.NoError(t, returnToDataStack[struct{}](vm))
	require.Equal(t, []int64{9}, popAll(t, vm))
}
