package thirdvm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestVM(t *testing.T) *Forth[struct{}] {
	t.Helper()
	vm, err := New[struct{}]()
	require.NoError(t, err)
	return vm
}

func runLine(t *testing.T, vm *Forth[struct{}], line string) string {
	t.Helper()
	vm.Input.SetLine(line)
	err := vm.ProcessLine()
	require.NoError(t, err)
	out := string(vm.Output.Bytes())
	vm.Output.Reset()
	return out
}

func runLineErr(vm *Forth[struct{}], line string) error {
	vm.Input.SetLine(line)
	err := vm.ProcessLine()
	vm.Output.Reset()
	return err
}

func TestArithmeticAndPrint(t *testing.T) {
	vm := newTestVM(t)
	out := runLine(t, vm, "3 4 + .")
	require.Equal(t, "7 ok.\n", out)
}

func TestDefineAndCallWord(t *testing.T) {
	vm := newTestVM(t)
	_, err := vm.dataStack.Peek()
	require.Error(t, err)

	out := runLine(t, vm, ": square dup * ;")
	require.Equal(t, "ok.\n", out)

	out = runLine(t, vm, "5 square .")
	require.Equal(t, "25 ok.\n", out)
}

func TestIfElseThen(t *testing.T) {
	vm := newTestVM(t)
	runLine(t, vm, ": sign dup 0< if drop -1 else 0> if 1 else 0 then then ;")

	out := runLine(t, vm, "-5 sign .")
	require.Equal(t, "-1 ok.\n", out)

	out = runLine(t, vm, "5 sign .")
	require.Equal(t, "1 ok.\n", out)

	out = runLine(t, vm, "0 sign .")
	require.Equal(t, "0 ok.\n", out)
}

func TestDoLoopAccumulates(t *testing.T) {
	vm := newTestVM(t)
	runLine(t, vm, ": sum3 0 3 0 do i + loop ;")
	out := runLine(t, vm, "sum3 .")
	require.Equal(t, "3 ok.\n", out)
}

func TestDoLoopLeaveExitsEarly(t *testing.T) {
	vm := newTestVM(t)
	runLine(t, vm, ": f 10 0 do i . i 3 = if leave then loop ;")

	done := make(chan string, 1)
	go func() {
		done <- runLine(t, vm, "f")
	}()

	select {
	case out := <-done:
		require.Equal(t, "0 1 2 3 ok.\n", out)
	case <-time.After(2 * time.Second):
		t.Fatal("leave did not terminate the enclosing do-loop")
	}
}

func TestForgetRemovesWord(t *testing.T) {
	vm := newTestVM(t)
	runLine(t, vm, ": tmp 1 ;")
	out := runLine(t, vm, "tmp .")
	require.Equal(t, "1 ok.\n", out)

	usedBefore := vm.DictUsed()
	runLine(t, vm, "forget tmp")
	require.Less(t, vm.DictUsed(), usedBefore)

	err := runLineErr(vm, "tmp")
	require.ErrorIs(t, err, ErrLookupFailed)
}

func TestForgetBuiltinRejected(t *testing.T) {
	vm := newTestVM(t)
	err := runLineErr(vm, "forget dup")
	require.ErrorIs(t, err, ErrCantForgetBuiltins)
}

func TestDivideByZero(t *testing.T) {
	vm := newTestVM(t)
	err := runLineErr(vm, "1 0 /")
	require.ErrorIs(t, err, ErrDivideByZero)
}

func TestUnknownWord(t *testing.T) {
	vm := newTestVM(t)
	err := runLineErr(vm, "bogus-word")
	require.ErrorIs(t, err, ErrLookupFailed)
}

func TestStringLiteral(t *testing.T) {
	vm := newTestVM(t)
	out := runLine(t, vm, `." hello"`)
	require.Equal(t, "hellook.\n", out)
}

func TestCompiledStringLiteral(t *testing.T) {
	vm := newTestVM(t)
	runLine(t, vm, `: greet ." hi there" ;`)
	out := runLine(t, vm, "greet")
	require.Equal(t, "hi thereok.\n", out)
}

func TestConstantAndVariable(t *testing.T) {
	vm := newTestVM(t)
	runLine(t, vm, "42 constant answer")
	out := runLine(t, vm, "answer .")
	require.Equal(t, "42 ok.\n", out)

	runLine(t, vm, "variable counter")
	runLine(t, vm, "5 counter !")
	out = runLine(t, vm, "counter @ .")
	require.Equal(t, "5 ok.\n", out)

	runLine(t, vm, "1 counter w+ @ .")
}

func TestFloatArithmetic(t *testing.T) {
	vm := newTestVM(t)
	w1 := WordFloat(1.5)
	w2 := WordFloat(2.5)
	require.NoError(t, vm.dataStack.Push(w1))
	require.NoError(t, vm.dataStack.Push(w2))
	require.NoError(t, floatAdd[struct{}](vm))

	res, err := vm.dataStack.Pop()
	require.NoError(t, err)
	require.InDelta(t, 4.0, res.Float(), 1e-9)
}

func TestCompileOnlyWordOutsideDefinition(t *testing.T) {
	vm := newTestVM(t)
	err := runLineErr(vm, "if")
	require.ErrorIs(t, err, ErrInterpretingCompileOnlyWord)
}

func TestElseWithoutIf(t *testing.T) {
	vm := newTestVM(t)
	err := runLineErr(vm, ": bad else then ;")
	require.ErrorIs(t, err, ErrElseBeforeIf)
}

func TestMultiLineScript(t *testing.T) {
	vm := newTestVM(t)
	lines := []string{
		": double 2 * ;",
		"10 double .",
		"20 double .",
	}
	var got []string
	for _, l := range lines {
		got = append(got, strings.TrimSpace(runLine(t, vm, l)))
	}
	require.Equal(t, []string{"ok.", "20 ok.", "40 ok."}, got)
}
