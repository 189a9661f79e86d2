package thirdvm

import "unsafe"

// interpret is the single driver function installed as every
// DictionaryEntry's Func: it walks the entry's compiled body one cell at
// a time, dispatching each cell as either a nested call (its Word holds
// an *EntryHeader) or letting a special builtin (literal, jump, etc.)
// consume extra inline cells via the active CallContext. It is the only
// function that ever advances a CallContext's idx past a plain call.
func (vm *Forth[T]) interpret() error {
	for {
		cc, err := vm.callStack.PeekPtrBackN(0)
		if err != nil {
			return WrapError(ErrCallStackCorrupted, err)
		}

		w, ok := cc.wordAtCurIdx()
		if !ok {
			return nil
		}

		eh := (*EntryHeader)(w.Ptr())
		if eh == nil {
			return NewError(ErrNullPointerInCFA)
		}

		at := cc.idx
		if err := cc.Offset(1); err != nil {
			return err
		}

		vm.traceStep(at, cc.eh, eh)

		if err := vm.dispatch(eh); err != nil {
			return err
		}
	}
}

// dispatch invokes the entry named by eh, pushing and popping its own
// CallContext frame. Special compiled-code builtins ((literal), (jmp),
// ...) receive the caller's frame implicitly by reading vm.callStack's
// top *before* this call, via getNextWord/getNextVal on the frame this
// function pushes for them -- so those builtins actually want the
// *caller's* frame, handled by giving them a read-through to it: their
// own frame's idx/len are irrelevant since they are KindStaticBuiltin
// with Len 0, and they consult vm.callerFrame() instead.
func (vm *Forth[T]) dispatch(eh *EntryHeader) error {
	switch eh.Kind {
	case KindDictionary, KindRuntimeBuiltin:
		// Runtime builtins are allocated as DictionaryEntry slots (see
		// AddBuiltin, constantWord, variableWord) so they can own their
		// interned name bytes; their Len is 0 for AddBuiltin entries and 1
		// for constant/variable entries, whose one cell (constant) and
		// (variable) read from this frame, so they share the
		// dictionary-call path rather than the static-builtin one below.
		de := (*DictionaryEntry[T])(ptrOf(eh))
		cc := newCallContext[T](&de.Hdr, de.Hdr.Len)
		if err := stackErr(vm.callStack.Push(cc)); err != nil {
			return err
		}
		err := de.Func(vm)
		if _, perr := vm.callStack.Pop(); perr != nil {
			return stackErr(perr)
		}
		return err
	case KindStaticBuiltin:
		bi := (*BuiltinEntry[T])(ptrOf(eh))
		cc := newCallContext[T](&bi.Hdr, 0)
		if err := stackErr(vm.callStack.Push(cc)); err != nil {
			return err
		}
		err := bi.Func(vm)
		if _, perr := vm.callStack.Pop(); perr != nil {
			return stackErr(perr)
		}
		return err
	case KindAsyncBuiltin:
		return vm.dispatchAsync(eh)
	default:
		return NewError(ErrInternalError)
	}
}

// callerFrame returns the frame one below the top of the call stack: the
// frame of the definition that is currently invoking the builtin at the
// top (used by (literal)/(jmp)/(jump-zero)/(jmp-doloop)/(write-str) to
// read and skip the inline operand cells that live in *their caller's*
// body, not their own).
func (vm *Forth[T]) callerFrame() (*CallContext[T], error) {
	cc, err := vm.callStack.PeekPtrBackN(1)
	if err != nil {
		return nil, WrapError(ErrCallStackCorrupted, err)
	}
	return cc, nil
}

// ptrOf is a named unsafe.Pointer conversion from *EntryHeader, used to
// recover the concrete entry variant eh was read as the first field of.
func ptrOf(eh *EntryHeader) unsafe.Pointer { return unsafe.Pointer(eh) }
