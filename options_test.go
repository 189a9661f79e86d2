package thirdvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultOptions(t *testing.T) {
	vm, err := New[struct{}]()
	require.NoError(t, err)
	require.Equal(t, defaultDictBytes, vm.DictCapacity())
}

func TestNewWithDictionarySize(t *testing.T) {
	vm, err := New[struct{}](WithDictionarySize[struct{}](256))
	require.NoError(t, err)
	require.Equal(t, 256, vm.DictCapacity())
}

func TestNewWithCustomBuiltins(t *testing.T) {
	var called bool
	only := []BuiltinEntry[struct{}]{
		builtin[struct{}]("noop", func(vm *Forth[struct{}]) error {
			called = true
			return nil
		}),
	}
	vm, err := New[struct{}](WithBuiltins(only))
	require.NoError(t, err)

	vm.Input.SetLine("noop")
	require.NoError(t, vm.ProcessLine())
	require.True(t, called)
}

func TestNewWithHostContext(t *testing.T) {
	vm, err := New[int](WithHostContext[int](7))
	require.NoError(t, err)
	require.Equal(t, 7, vm.HostCtxt)
}
