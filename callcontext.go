package thirdvm

import "unsafe"

// CallContext describes the in-progress execution of one compiled body:
// a pointer to the entry being executed, the index of the next cell to
// run, and that entry's parameter-field length. idx is always <= len;
// eh must outlive the frame.
//
// interpret() advances idx past an opcode cell before dispatching it, so
// by the time a builtin runs with this frame as its *caller's* frame
// (see Forth.callerFrame), idx already points at that opcode's first
// inline operand, if it has one. getNextWord/getNextVal/ptrAtRel read
// relative to that position without assuming how many operands the
// caller consumes; Offset then commits however many cells were used.
type CallContext[T any] struct {
	eh  *EntryHeader
	idx uint16
	len uint16
}

// newCallContext builds a frame for eh, starting at cell 0.
func newCallContext[T any](eh *EntryHeader, length uint16) CallContext[T] {
	return CallContext[T]{eh: eh, idx: 0, len: length}
}

// Offset advances idx by delta (which may be negative, for backward
// jumps), reporting ErrBadWordOffset if the result would fall outside
// [0, len].
func (cc *CallContext[T]) Offset(delta int32) error {
	next := int32(cc.idx) + delta
	if next < 0 || next > int32(cc.len) {
		return ErrBadWordOffset
	}
	cc.idx = uint16(next)
	return nil
}

// pfa returns a pointer to the start of the entry's compiled body. Only
// meaningful when cc.eh.Kind == KindDictionary or KindRuntimeBuiltin.
func (cc *CallContext[T]) pfa() *Word {
	de := (*DictionaryEntry[T])(unsafe.Pointer(cc.eh))
	return de.PFA()
}

func (cc *CallContext[T]) ptrAtIdx(idx uint16) *Word {
	base := cc.pfa()
	return (*Word)(unsafe.Pointer(uintptr(unsafe.Pointer(base)) + uintptr(idx)*unsafe.Sizeof(Word{})))
}

func (cc *CallContext[T]) wordAtIdx(idx uint16) Word {
	return *cc.ptrAtIdx(idx)
}

// wordAtCurIdx returns the cell at the current idx, or ok=false if idx
// has reached len (the body is exhausted).
func (cc *CallContext[T]) wordAtCurIdx() (Word, bool) {
	if cc.idx >= cc.len {
		return Word{}, false
	}
	return cc.wordAtIdx(cc.idx), true
}

// getNextWord reads the inline operand cell at the current idx, without
// advancing; used by builtins that consume an inline argument belonging
// to their caller's body (the opcode cell itself was already consumed by
// interpret's dispatch loop).
func (cc *CallContext[T]) getNextWord() (Word, error) {
	if int(cc.idx) >= int(cc.len) {
		return Word{}, ErrBadWordOffset
	}
	return cc.wordAtIdx(cc.idx), nil
}

// getNextVal is getNextWord read as a signed 32-bit value (a jump offset
// or similar inline literal).
func (cc *CallContext[T]) getNextVal() (int32, error) {
	w, err := cc.getNextWord()
	if err != nil {
		return 0, err
	}
	return w.Data32(), nil
}

// ptrAtRel returns a pointer to the cell rel positions past the current
// idx (rel=0 is the same cell getNextWord reads), for builtins with more
// than one inline operand, such as (write-str)'s length cell followed by
// its packed string bytes.
func (cc *CallContext[T]) ptrAtRel(rel uint16) (*Word, error) {
	idx := cc.idx + rel
	if int(idx) >= int(cc.len) {
		return nil, ErrBadWordOffset
	}
	return cc.ptrAtIdx(idx), nil
}
