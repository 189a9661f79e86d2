package thirdvm

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestWordData(t *testing.T) {
	w := WordData(-17)
	require.Equal(t, int64(-17), w.Data())
}

func TestWordFloat(t *testing.T) {
	w := WordFloat(3.5)
	require.InDelta(t, 3.5, w.Float(), 1e-9)
}

func TestWordPtr(t *testing.T) {
	var x int
	w := WordPtr(unsafe.Pointer(&x))
	require.Equal(t, unsafe.Pointer(&x), w.Ptr())
}

func TestWordIsNil(t *testing.T) {
	require.True(t, Word{}.IsNil())
	require.False(t, WordData(1).IsNil())
}

func TestBoolWord(t *testing.T) {
	require.Equal(t, int64(-1), boolWord(true).Data())
	require.Equal(t, int64(0), boolWord(false).Data())
}
