package thirdvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFaStrEqual(t *testing.T) {
	a := NewFaStrString("dup")
	b := NewFaStrString("dup")
	require.True(t, a.Equal(b))
}

func TestFaStrNotEqual(t *testing.T) {
	a := NewFaStrString("dup")
	b := NewFaStrString("swap")
	require.False(t, a.Equal(b))
}

func TestFaStrTruncatesLongNames(t *testing.T) {
	long := "this-identifier-is-definitely-longer-than-thirty-one-bytes"
	f := NewFaStrString(long)
	require.Len(t, f.Bytes(), maxNameLen)
	require.Equal(t, long[:maxNameLen], f.String())
}

func TestFaStrIsZero(t *testing.T) {
	require.True(t, FaStr{}.IsZero())
	require.False(t, NewFaStrString("x").IsZero())
}

func TestLenHashLen(t *testing.T) {
	lh := NewLenHash([]byte("abcd"))
	require.Equal(t, 4, lh.Len())
}

func TestLenHashCollisionFallsBackToBytes(t *testing.T) {
	// Force a (hash,len) collision between different bytes of the same
	// length: equality must still require identical bytes.
	a := NewFaStrString("abcd")
	b := FaStr{b: []byte("abce"), lenHash: a.lenHash}
	require.False(t, a.Equal(b))
}
