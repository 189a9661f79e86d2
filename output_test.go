package thirdvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutputBufPushStr(t *testing.T) {
	o := NewOutputBuf(make([]byte, 16))
	require.NoError(t, o.PushStr("hi"))
	require.Equal(t, "hi", string(o.Bytes()))
}

func TestOutputBufFull(t *testing.T) {
	o := NewOutputBuf(make([]byte, 2))
	require.ErrorIs(t, o.PushStr("too long"), OutputErrFull)
}

func TestOutputBufReset(t *testing.T) {
	o := NewOutputBuf(make([]byte, 16))
	require.NoError(t, o.PushStr("hi"))
	o.Reset()
	require.Equal(t, 0, o.Len())
	require.NoError(t, o.PushStr("bye"))
	require.Equal(t, "bye", string(o.Bytes()))
}

func TestOutputBufPrintf(t *testing.T) {
	o := NewOutputBuf(make([]byte, 16))
	require.NoError(t, o.Printf("%d ", 42))
	require.Equal(t, "42 ", string(o.Bytes()))
}
