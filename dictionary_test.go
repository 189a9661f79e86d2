package thirdvm

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type hostCtxt struct{}

func TestDictionaryBumpWordAligned(t *testing.T) {
	b := NewDictionaryBump(make([]byte, 64))

	_, err := b.BumpU8()
	require.NoError(t, err)
	require.Equal(t, 1, b.Used())

	_, err = Bump[Word](b)
	require.NoError(t, err)
	// The single leading byte forces padding up to Word's 8-byte
	// alignment before the cell itself is carved out.
	require.Equal(t, int(unsafe.Sizeof(Word{}))+int(unsafe.Alignof(Word{})), b.Used())
}

func TestDictionaryBumpOutOfMemory(t *testing.T) {
	b := NewDictionaryBump(make([]byte, 2))
	_, err := b.BumpU8s(3)
	require.ErrorIs(t, err, BumpErrOutOfMemory)
}

func TestDictionaryBumpStrLowercasesAndTruncates(t *testing.T) {
	b := NewDictionaryBump(make([]byte, 64))
	fastr, err := b.BumpStr("DUP")
	require.NoError(t, err)
	require.Equal(t, "dup", fastr.String())

	long := "THIS-IDENTIFIER-IS-DEFINITELY-LONGER-THAN-THIRTY-ONE-BYTES"
	fastr, err = b.BumpStr(long)
	require.NoError(t, err)
	require.Equal(t, asciiLower(long[:maxNameLen]), fastr.String())
}

func TestDictionaryBumpStrRejectsNonASCII(t *testing.T) {
	b := NewDictionaryBump(make([]byte, 64))
	_, err := b.BumpStr("caf\xc3\xa9")
	require.ErrorIs(t, err, BumpErrNonASCII)
}

func TestDictionaryBumpContains(t *testing.T) {
	b := NewDictionaryBump(make([]byte, 16))
	p, err := b.BumpU8()
	require.NoError(t, err)
	require.True(t, b.Contains(p))

	var outside int
	require.False(t, b.Contains(unsafe.Pointer(&outside)))
}

func TestDictionaryEntryPFA(t *testing.T) {
	b := NewDictionaryBump(make([]byte, 256))
	entry, err := Bump[DictionaryEntry[hostCtxt]](b)
	require.NoError(t, err)
	entry.Hdr.Len = 2

	cell0, err := BumpWrite[Word](b, WordData(7))
	require.NoError(t, err)
	_, err = BumpWrite[Word](b, WordData(8))
	require.NoError(t, err)

	require.Equal(t, cell0, entry.PFA())
}

func TestZeroFromRewindsCursor(t *testing.T) {
	b := NewDictionaryBump(make([]byte, 32))
	_, err := b.BumpU8s(10)
	require.NoError(t, err)
	mark := b.Used()
	_, err = b.BumpU8s(5)
	require.NoError(t, err)

	b.ZeroFrom(mark)
	require.Equal(t, mark, b.Used())
}
