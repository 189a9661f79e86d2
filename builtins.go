package thirdvm

import (
	"math"
	"unsafe"
)

// builtin is a convenience constructor for a static BuiltinEntry, used to
// assemble FullBuiltins below. name is wrapped via NewFaStrString, so it
// must already satisfy FaStr's length and ASCII constraints; nothing
// checks this here, and a longer name is cut to maxNameLen bytes.
func builtin[T any](name string, fn WordFunc[T]) BuiltinEntry[T] {
	return BuiltinEntry[T]{
		Hdr:  EntryHeader{Name: NewFaStrString(name), Kind: KindStaticBuiltin, Len: 0},
		Func: fn,
	}
}

// FullBuiltins returns the complete static builtin table for host context
// type T: arithmetic, stack shuffling, I/O, control-structure code
// generation helpers, and the internal compiled-code opcodes that `:`
// definitions thread through. A host passes this (or a trimmed subset of
// it, for a restricted dialect) to NewForth.
func FullBuiltins[T any]() []BuiltinEntry[T] {
	return []BuiltinEntry[T]{
		builtin[T]("+", wordAdd[T]),
		builtin[T]("-", wordMinus[T]),
		builtin[T]("*", wordMul[T]),
		builtin[T]("/", wordDiv[T]),
		builtin[T]("mod", wordMod[T]),
		builtin[T]("/mod", wordDivMod[T]),
		builtin[T]("*/", wordStarSlash[T]),
		builtin[T]("*/mod", wordStarSlashMod[T]),
		builtin[T]("abs", wordAbs[T]),
		builtin[T]("negate", wordNegate[T]),
		builtin[T]("min", wordMin[T]),
		builtin[T]("max", wordMax[T]),

		builtin[T]("f+", floatAdd[T]),
		builtin[T]("f-", floatMinus[T]),
		builtin[T]("f*", floatMul[T]),
		builtin[T]("f/", floatDiv[T]),
		builtin[T]("fmod", floatMod[T]),
		builtin[T]("f/mod", floatDivMod[T]),
		builtin[T]("fabs", floatAbs[T]),
		builtin[T]("fnegate", floatNegate[T]),
		builtin[T]("fmin", floatMin[T]),
		builtin[T]("fmax", floatMax[T]),

		builtin[T]("0=", zeroEqual[T]),
		builtin[T]("0<", zeroLess[T]),
		builtin[T]("0>", zeroGreater[T]),
		builtin[T]("=", wordEqual[T]),
		builtin[T](">", wordGreater[T]),
		builtin[T]("<", wordLess[T]),
		builtin[T]("not", wordInvert[T]),
		builtin[T]("and", wordAnd[T]),

		builtin[T]("dup", dup[T]),
		builtin[T]("2dup", dup2[T]),
		builtin[T]("drop", dsDrop[T]),
		builtin[T]("2drop", dsDrop2[T]),
		builtin[T]("swap", swap[T]),
		builtin[T]("2swap", swap2[T]),
		builtin[T]("over", over[T]),
		builtin[T]("2over", over2[T]),
		builtin[T]("rot", rot[T]),

		builtin[T]("d>r", dataToReturnStack[T]),
		builtin[T]("r>d", returnToDataStack[T]),
		builtin[T]("2d>2r", data2ToReturn2Stack[T]),

		builtin[T]("i", loopI[T]),
		builtin[T]("i'", loopITick[T]),
		builtin[T]("j", loopJ[T]),
		builtin[T]("leave", loopLeave[T]),

		builtin[T](".", popPrint[T]),
		builtin[T]("u.", unsignedPopPrint[T]),
		builtin[T]("f.", floatPopPrint[T]),
		builtin[T]("emit", emit[T]),
		builtin[T]("space", space[T]),
		builtin[T]("spaces", spaces[T]),
		builtin[T]("cr", cr[T]),

		builtin[T]("w+", varAdd[T]),
		builtin[T]("@", varLoad[T]),
		builtin[T]("!", varStore[T]),
		builtin[T]("0", zeroConst[T]),
		builtin[T]("1", oneConst[T]),
		builtin[T]("constant", constantWord[T]),
		builtin[T]("variable", variableWord[T]),
		builtin[T]("(constant)", constantOp[T]),
		builtin[T]("(variable)", variableOp[T]),

		builtin[T](":", colonBuiltin[T]),
		builtin[T]("forget", forgetBuiltin[T]),

		builtin[T]("(literal)", literalOp[T]),
		builtin[T]("(jmp)", jumpOp[T]),
		builtin[T]("(jump-zero)", jumpIfZeroOp[T]),
		builtin[T]("(jmp-doloop)", jumpDoLoopOp[T]),
		builtin[T]("(write-str)", writeStrOp[T]),
		builtin[T]("(skip-literal)", skipLiteralOp[T]),
	}
}

func colonBuiltin[T any](vm *Forth[T]) error { return vm.Colon() }
func forgetBuiltin[T any](vm *Forth[T]) error { return vm.Forget() }

func pop2[T any](vm *Forth[T]) (Word, Word, error) {
	b, err := vm.dataStack.Pop()
	if err != nil {
		return Word{}, Word{}, stackErr(err)
	}
	a, err := vm.dataStack.Pop()
	if err != nil {
		return Word{}, Word{}, stackErr(err)
	}
	return a, b, nil
}

func wordAdd[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordData(a.Data() + b.Data())))
}

func wordMinus[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordData(a.Data() - b.Data())))
}

func wordMul[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordData(a.Data() * b.Data())))
}

func wordDiv[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	if b.Data() == 0 {
		return NewError(ErrDivideByZero)
	}
	return stackErr(vm.dataStack.Push(WordData(a.Data() / b.Data())))
}

func wordMod[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	if b.Data() == 0 {
		return NewError(ErrDivideByZero)
	}
	return stackErr(vm.dataStack.Push(WordData(a.Data() % b.Data())))
}

func wordDivMod[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	if b.Data() == 0 {
		return NewError(ErrDivideByZero)
	}
	rem := a.Data() % b.Data()
	quot := a.Data() / b.Data()
	if err := stackErr(vm.dataStack.Push(WordData(rem))); err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordData(quot)))
}

func wordStarSlash[T any](vm *Forth[T]) error {
	c, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	if c.Data() == 0 {
		return NewError(ErrDivideByZero)
	}
	v := (a.Data() * b.Data()) / c.Data()
	return stackErr(vm.dataStack.Push(WordData(v)))
}

func wordStarSlashMod[T any](vm *Forth[T]) error {
	c, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	if c.Data() == 0 {
		return NewError(ErrDivideByZero)
	}
	prod := a.Data() * b.Data()
	rem := prod % c.Data()
	quot := prod / c.Data()
	if err := stackErr(vm.dataStack.Push(WordData(rem))); err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordData(quot)))
}

func wordAbs[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	v := a.Data()
	if v < 0 {
		v = -v
	}
	return stackErr(vm.dataStack.Push(WordData(v)))
}

func wordNegate[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(WordData(-a.Data())))
}

func wordMin[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	v := a.Data()
	if b.Data() < v {
		v = b.Data()
	}
	return stackErr(vm.dataStack.Push(WordData(v)))
}

func wordMax[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	v := a.Data()
	if b.Data() > v {
		v = b.Data()
	}
	return stackErr(vm.dataStack.Push(WordData(v)))
}

func floatAdd[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordFloat(a.Float() + b.Float())))
}

func floatMinus[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordFloat(a.Float() - b.Float())))
}

func floatMul[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordFloat(a.Float() * b.Float())))
}

func floatDiv[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	if b.Float() == 0 {
		return NewError(ErrDivideByZero)
	}
	return stackErr(vm.dataStack.Push(WordFloat(a.Float() / b.Float())))
}

func floatMod[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	if b.Float() == 0 {
		return NewError(ErrDivideByZero)
	}
	return stackErr(vm.dataStack.Push(WordFloat(math.Mod(a.Float(), b.Float()))))
}

func floatDivMod[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	if b.Float() == 0 {
		return NewError(ErrDivideByZero)
	}
	rem := math.Mod(a.Float(), b.Float())
	quot := a.Float() / b.Float()
	if err := stackErr(vm.dataStack.Push(WordFloat(rem))); err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordFloat(quot)))
}

func floatAbs[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(WordFloat(math.Abs(a.Float()))))
}

func floatNegate[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(WordFloat(-a.Float())))
}

func floatMin[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordFloat(math.Min(a.Float(), b.Float()))))
}

func floatMax[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordFloat(math.Max(a.Float(), b.Float()))))
}

func zeroEqual[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(boolWord(a.Data() == 0)))
}

func zeroLess[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(boolWord(a.Data() < 0)))
}

func zeroGreater[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(boolWord(a.Data() > 0)))
}

func wordEqual[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(boolWord(a.Data() == b.Data())))
}

func wordGreater[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(boolWord(a.Data() > b.Data())))
}

func wordLess[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(boolWord(a.Data() < b.Data())))
}

func wordInvert[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(WordData(^a.Data())))
}

func wordAnd[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(WordData(a.Data() & b.Data())))
}

func dup[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Peek()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(a))
}

func dup2[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.PeekBackN(1)
	if err != nil {
		return stackErr(err)
	}
	b, err := vm.dataStack.PeekBackN(0)
	if err != nil {
		return stackErr(err)
	}
	if err := vm.dataStack.Push(a); err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(b))
}

func dsDrop[T any](vm *Forth[T]) error {
	_, err := vm.dataStack.Pop()
	return stackErr(err)
}

func dsDrop2[T any](vm *Forth[T]) error {
	if _, err := vm.dataStack.Pop(); err != nil {
		return stackErr(err)
	}
	_, err := vm.dataStack.Pop()
	return stackErr(err)
}

func swap[T any](vm *Forth[T]) error {
	a, b, err := pop2(vm)
	if err != nil {
		return err
	}
	if err := vm.dataStack.Push(b); err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(a))
}

func swap2[T any](vm *Forth[T]) error {
	d, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	c, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	b, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	for _, w := range []Word{c, d, a, b} {
		if err := vm.dataStack.Push(w); err != nil {
			return stackErr(err)
		}
	}
	return nil
}

func over[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.PeekBackN(1)
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(a))
}

func over2[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.PeekBackN(3)
	if err != nil {
		return stackErr(err)
	}
	b, err := vm.dataStack.PeekBackN(2)
	if err != nil {
		return stackErr(err)
	}
	if err := vm.dataStack.Push(a); err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(b))
}

func rot[T any](vm *Forth[T]) error {
	c, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	b, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	for _, w := range []Word{b, c, a} {
		if err := vm.dataStack.Push(w); err != nil {
			return stackErr(err)
		}
	}
	return nil
}

func dataToReturnStack[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.returnStack.Push(a))
}

func returnToDataStack[T any](vm *Forth[T]) error {
	a, err := vm.returnStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(a))
}

// data2ToReturn2Stack is the do-loop setup word `2d>2r`: it moves the
// index,limit pair from the data stack onto the return stack so `i`/`j`
// can read it without disturbing the data stack.
func data2ToReturn2Stack[T any](vm *Forth[T]) error {
	limit, index, err := pop2(vm)
	if err != nil {
		return err
	}
	if err := vm.returnStack.Push(limit); err != nil {
		return stackErr(err)
	}
	return stackErr(vm.returnStack.Push(index))
}

func loopI[T any](vm *Forth[T]) error {
	v, err := vm.returnStack.Peek()
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(v))
}

func loopITick[T any](vm *Forth[T]) error {
	v, err := vm.returnStack.PeekBackN(1)
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(v))
}

func loopJ[T any](vm *Forth[T]) error {
	v, err := vm.returnStack.PeekBackN(2)
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.dataStack.Push(v))
}

// loopLeave forces the enclosing do-loop to exit: it sets the loop index
// to limit-1 so the next (jmp-doloop) check (index+1 == limit) succeeds
// and falls through.
func loopLeave[T any](vm *Forth[T]) error {
	limit, err := vm.returnStack.PeekBackN(1)
	if err != nil {
		return stackErr(err)
	}
	return stackErr(vm.returnStack.OverwriteBackN(0, WordData(limit.Data()-1)))
}

// outputErr wraps a non-nil OutputBuf error as ErrOutput, and passes nil
// through, like stackErr and bumpErr.
func outputErr(err error) error {
	if err == nil {
		return nil
	}
	return WrapError(ErrOutput, err)
}

func popPrint[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return outputErr(vm.Output.Printf("%d ", a.Data()))
}

func unsignedPopPrint[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return outputErr(vm.Output.Printf("%d ", uint32(a.Data32())))
}

func floatPopPrint[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return outputErr(vm.Output.Printf("%g ", a.Float()))
}

func emit[T any](vm *Forth[T]) error {
	a, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	return outputErr(vm.Output.PushBStr([]byte{byte(a.Data32())}))
}

func space[T any](vm *Forth[T]) error {
	return outputErr(vm.Output.PushStr(" "))
}

func spaces[T any](vm *Forth[T]) error {
	n, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	count := n.Data()
	if count < 0 {
		count = 0
	}
	for i := int64(0); i < count; i++ {
		if err := vm.Output.PushStr(" "); err != nil {
			return WrapError(ErrOutput, err)
		}
	}
	return nil
}

func cr[T any](vm *Forth[T]) error {
	return outputErr(vm.Output.PushStr("\n"))
}

// varAdd implements `w+`: pop a *Word host-pointer cell and an amount of
// cells, bounds-checking the pointer against the dictionary arena before
// advancing it by that many Words.
func varAdd[T any](vm *Forth[T]) error {
	ptrWord, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	amount, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	if !vm.dictAlloc.Contains(ptrWord.Ptr()) {
		return NewError(ErrNullPointerInCFA)
	}
	p := (*Word)(ptrWord.Ptr())
	offset := amount.Data() * int64(unsafe.Sizeof(Word{}))
	return stackErr(vm.dataStack.Push(WordPtr(unsafe.Add(unsafe.Pointer(p), offset))))
}

func varLoad[T any](vm *Forth[T]) error {
	ptrWord, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	if !vm.dictAlloc.Contains(ptrWord.Ptr()) {
		return NewError(ErrNullPointerInCFA)
	}
	p := (*Word)(ptrWord.Ptr())
	return stackErr(vm.dataStack.Push(*p))
}

func varStore[T any](vm *Forth[T]) error {
	ptrWord, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	val, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	if !vm.dictAlloc.Contains(ptrWord.Ptr()) {
		return NewError(ErrNullPointerInCFA)
	}
	p := (*Word)(ptrWord.Ptr())
	*p = val
	return nil
}

func zeroConst[T any](vm *Forth[T]) error {
	return stackErr(vm.dataStack.Push(WordData(0)))
}

func oneConst[T any](vm *Forth[T]) error {
	return stackErr(vm.dataStack.Push(WordData(1)))
}

// constantOp is `(constant)`: the Func installed by `constant name` --
// it reads its own dictionary entry's one-cell parameter field (holding
// the fixed value given at definition time) off the just-pushed call
// frame for this very invocation, and pushes that value. Unlike a
// closure captured per definition, this keeps every `constant` word
// sharing one function value, with the per-word state living entirely
// in the arena the way every other dictionary entry's body does.
func constantOp[T any](vm *Forth[T]) error {
	cc, err := vm.callStack.PeekPtrBackN(0)
	if err != nil {
		return stackErr(err)
	}
	v, ok := cc.wordAtCurIdx()
	if !ok {
		return NewError(ErrInternalError)
	}
	return stackErr(vm.dataStack.Push(v))
}

// variableOp is `(variable)`: the Func installed by `variable name` --
// pushes the address of its own one-cell parameter field (the variable's
// backing storage) rather than its value.
func variableOp[T any](vm *Forth[T]) error {
	cc, err := vm.callStack.PeekPtrBackN(0)
	if err != nil {
		return stackErr(err)
	}
	p, err := cc.ptrAtRel(0)
	if err != nil {
		return NewError(ErrInternalError)
	}
	return stackErr(vm.dataStack.Push(WordPtr(unsafe.Pointer(p))))
}

// constantWord implements `constant`: read a name, pop a value, and
// compile a one-cell dictionary entry whose Func is (constant) and whose
// parameter field holds that fixed value.
func constantWord[T any](vm *Forth[T]) error {
	vm.Input.Advance()
	name, ok := vm.Input.CurWord()
	if !ok {
		return ErrColonCompileMissingName
	}
	val, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	fastr, err := vm.dictAlloc.BumpStr(name)
	if err != nil {
		return bumpErr(err)
	}
	entry, err := Bump[DictionaryEntry[T]](vm.dictAlloc)
	if err != nil {
		return bumpErr(err)
	}
	if _, err := BumpWrite[Word](vm.dictAlloc, val); err != nil {
		return bumpErr(err)
	}
	*entry = DictionaryEntry[T]{
		Hdr:  EntryHeader{Name: fastr, Kind: KindRuntimeBuiltin, Len: 1},
		Func: constantOp[T],
		Link: vm.runDictTail,
	}
	vm.runDictTail = entry
	return nil
}

// variableWord implements `variable`: read a name and allocate a
// one-cell dictionary entry whose Func is (variable); the zero-valued
// parameter field cell is the variable's backing storage, and (variable)
// pushes its address rather than its contents.
func variableWord[T any](vm *Forth[T]) error {
	vm.Input.Advance()
	name, ok := vm.Input.CurWord()
	if !ok {
		return ErrColonCompileMissingName
	}
	fastr, err := vm.dictAlloc.BumpStr(name)
	if err != nil {
		return bumpErr(err)
	}
	entry, err := Bump[DictionaryEntry[T]](vm.dictAlloc)
	if err != nil {
		return bumpErr(err)
	}
	if _, err := Bump[Word](vm.dictAlloc); err != nil {
		return bumpErr(err)
	}
	*entry = DictionaryEntry[T]{
		Hdr:  EntryHeader{Name: fastr, Kind: KindRuntimeBuiltin, Len: 1},
		Func: variableOp[T],
		Link: vm.runDictTail,
	}
	vm.runDictTail = entry
	return nil
}

// literalOp is `(literal)`: push the inline data word that follows it in
// the caller's compiled body, then skip past it.
func literalOp[T any](vm *Forth[T]) error {
	cc, err := vm.callerFrame()
	if err != nil {
		return err
	}
	w, err := cc.getNextWord()
	if err != nil {
		return err
	}
	if err := cc.Offset(1); err != nil {
		return err
	}
	return stackErr(vm.dataStack.Push(w))
}

// jumpOp is `(jmp)`: unconditionally offset the caller's idx by the
// inline delta that follows.
func jumpOp[T any](vm *Forth[T]) error {
	cc, err := vm.callerFrame()
	if err != nil {
		return err
	}
	delta, err := cc.getNextVal()
	if err != nil {
		return err
	}
	return cc.Offset(delta)
}

// jumpIfZeroOp is `(jump-zero)`: pop the data stack; if zero, offset by
// the inline delta, otherwise skip past it (fall through).
func jumpIfZeroOp[T any](vm *Forth[T]) error {
	cc, err := vm.callerFrame()
	if err != nil {
		return err
	}
	delta, err := cc.getNextVal()
	if err != nil {
		return err
	}
	cond, err := vm.dataStack.Pop()
	if err != nil {
		return stackErr(err)
	}
	if cond.Data() == 0 {
		return cc.Offset(delta)
	}
	return cc.Offset(1)
}

// jumpDoLoopOp is `(jmp-doloop)`: increment the loop index on the return
// stack; unless the incremented index equals the limit, store it and jump
// back by the inline delta, otherwise drop the index/limit pair and fall
// through past the loop. An index that is already past the limit keeps
// looping.
func jumpDoLoopOp[T any](vm *Forth[T]) error {
	cc, err := vm.callerFrame()
	if err != nil {
		return err
	}
	delta, err := cc.getNextVal()
	if err != nil {
		return err
	}

	indexPtr, err := vm.returnStack.PeekPtrBackN(0)
	if err != nil {
		return stackErr(err)
	}
	limit, err := vm.returnStack.PeekBackN(1)
	if err != nil {
		return stackErr(err)
	}
	next := indexPtr.Data() + 1
	if next != limit.Data() {
		*indexPtr = WordData(next)
		return cc.Offset(delta)
	}
	if _, err := vm.returnStack.Pop(); err != nil {
		return stackErr(err)
	}
	if _, err := vm.returnStack.Pop(); err != nil {
		return stackErr(err)
	}
	return cc.Offset(1)
}

// writeStrOp is `(write-str)`: the inline word is a byte length; the
// literal's bytes immediately follow it (packed into whole Word cells) in
// the caller's compiled body.
func writeStrOp[T any](vm *Forth[T]) error {
	cc, err := vm.callerFrame()
	if err != nil {
		return err
	}
	lenVal, err := cc.getNextVal()
	if err != nil {
		return err
	}
	n := int(lenVal)
	strBase, err := cc.ptrAtRel(1)
	if err != nil {
		return err
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(strBase)), n)
	if err := vm.Output.PushBStr(b); err != nil {
		return WrapError(ErrOutput, err)
	}
	wordSize := int(unsafe.Sizeof(Word{}))
	words := (n + wordSize - 1) / wordSize
	return cc.Offset(int32(1 + words))
}

// skipLiteralOp is `(skip-literal)`: discard the inline data word that
// follows, advancing past it without touching the data stack. Used by
// hosts that want to compile a literal for its side-effecting neighbor
// (e.g. a jump target annotation) without materializing it.
func skipLiteralOp[T any](vm *Forth[T]) error {
	cc, err := vm.callerFrame()
	if err != nil {
		return err
	}
	return cc.Offset(1)
}
