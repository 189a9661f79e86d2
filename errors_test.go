package thirdvm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIsBareKind(t *testing.T) {
	err := NewError(ErrDivideByZero)
	require.ErrorIs(t, err, ErrDivideByZero)
	require.NotErrorIs(t, err, ErrBadWordOffset)
}

func TestErrorWrapsCause(t *testing.T) {
	err := WrapError(ErrStack, StackErrEmpty)
	require.ErrorIs(t, err, ErrStack)
	require.True(t, errors.Is(err, StackErrEmpty))
}

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrDivideByZero)
	require.Equal(t, "divide by zero", err.Error())
}
