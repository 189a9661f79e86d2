package thirdvm

import "unsafe"

// Mode distinguishes interpreting input immediately from compiling it into
// a dictionary definition's parameter field.
type Mode uint8

const (
	// ModeRun interprets each token as it is read.
	ModeRun Mode = iota
	// ModeCompile appends tokens into the word currently being defined.
	ModeCompile
)

// Forth is the VM: the interpreter/compiler context, excluding nothing --
// stacks, dictionary arena, tokenizer and output buffer are all held here,
// alongside the opaque host context value threaded through every builtin
// call. T is the host context type; it carries no methods the VM itself
// depends on.
type Forth[T any] struct {
	mode Mode

	dataStack   Stack[Word]
	returnStack Stack[Word]
	callStack   Stack[CallContext[T]]

	dictAlloc   *DictionaryBump
	runDictTail *DictionaryEntry[T]

	Input  *WordStrBuf
	Output *OutputBuf

	HostCtxt T

	builtins      []BuiltinEntry[T]
	asyncBuiltins []AsyncBuiltinEntry
	dispatcher    AsyncDispatcher[T]

	logf func(mess string, args ...interface{})

	// traceFuncWidth/traceCodeWidth are running column widths for tracef's
	// aligned output, widened as longer names are seen -- mirroring the
	// teacher's vm.funcWidth/vm.codeWidth in internals.go, which never
	// shrink once grown.
	traceFuncWidth int
	traceCodeWidth int
}

// NewForth constructs a VM over caller-owned buffers. Construction fails
// only if a required buffer has zero usable capacity.
func NewForth[T any](
	dataBuf, returnBuf []Word,
	callBuf []CallContext[T],
	dictBuf []byte,
	input *WordStrBuf,
	output *OutputBuf,
	hostCtxt T,
	builtins []BuiltinEntry[T],
) (*Forth[T], error) {
	if len(dataBuf) == 0 || len(returnBuf) == 0 || len(callBuf) == 0 || len(dictBuf) == 0 {
		return nil, NewError(ErrInternalError)
	}
	return &Forth[T]{
		mode:        ModeRun,
		dataStack:   NewStack(dataBuf),
		returnStack: NewStack(returnBuf),
		callStack:   NewStack(callBuf),
		dictAlloc:   NewDictionaryBump(dictBuf),
		Input:       input,
		Output:      output,
		HostCtxt:    hostCtxt,
		builtins:    builtins,
	}, nil
}

// SetLogf installs a trace-logging sink; process_line and interpret emit
// one line per executed cell when it is non-nil.
func (f *Forth[T]) SetLogf(logf func(mess string, args ...interface{})) {
	f.logf = logf
}

func (f *Forth[T]) tracef(mess string, args ...interface{}) {
	if f.logf != nil {
		f.logf(mess, args...)
	}
}

// traceStep emits one trace line per executed cell, in the teacher's
// "% *v.% -*v r:%v s:%v" style (internals.go's vm.step): the word whose
// body is executing, the cell about to run within it, and the live
// return/data stacks. A no-op when no logf is installed, so the hot path
// costs nothing when tracing is off.
func (f *Forth[T]) traceStep(idx uint16, caller, callee *EntryHeader) {
	if f.logf == nil {
		return
	}
	callerName := "?"
	if caller != nil {
		callerName = caller.Name.String()
	}
	calleeName := callee.Name.String()
	if len(callerName) > f.traceFuncWidth {
		f.traceFuncWidth = len(callerName)
	}
	if len(calleeName) > f.traceCodeWidth {
		f.traceCodeWidth = len(calleeName)
	}
	f.tracef("@%v % *v.% -*v r:%v s:%v", idx,
		f.traceFuncWidth, callerName,
		f.traceCodeWidth, calleeName,
		f.returnStack.Slice(), f.dataStack.Slice())
}

// DictUsed and DictCapacity expose the dictionary arena's bump-allocator
// bookkeeping, handy for a host's diagnostics or `.free-dict`-style words.
func (f *Forth[T]) DictUsed() int     { return f.dictAlloc.Used() }
func (f *Forth[T]) DictCapacity() int { return f.dictAlloc.Capacity() }

// AddBuiltin registers a runtime builtin: a builtin added after
// construction, whose name is interned into the dictionary arena (so it
// is a KindRuntimeBuiltin, distinct from the static builtins supplied at
// construction).
func (f *Forth[T]) AddBuiltin(name string, fn WordFunc[T]) error {
	fastr, err := f.dictAlloc.BumpStr(name)
	if err != nil {
		return bumpErr(err)
	}
	return f.addBuiltinFastr(fastr, fn)
}

func (f *Forth[T]) addBuiltinFastr(name FaStr, fn WordFunc[T]) error {
	// Runtime builtins are represented exactly like dictionary entries for
	// list-walking purposes: allocate a DictionaryEntry-shaped slot whose
	// Func is the builtin itself (len 0, so interpret's body-walk is a
	// no-op if ever mistakenly invoked on it) and whose Kind flags it as
	// a builtin rather than a user definition.
	entry, err := Bump[DictionaryEntry[T]](f.dictAlloc)
	if err != nil {
		return bumpErr(err)
	}
	*entry = DictionaryEntry[T]{
		Hdr:  EntryHeader{Name: name, Kind: KindRuntimeBuiltin, Len: 0},
		Func: fn,
		Link: f.runDictTail,
	}
	f.runDictTail = entry
	return nil
}

// asciiLower matches BumpStr's own folding so a dictionary entry interned
// from user input compares equal to a lookup key built from input typed
// in any case.
func asciiLower(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}

// findInBuiltins scans the static builtin table by name.
func (f *Forth[T]) findInBuiltins(name string) *BuiltinEntry[T] {
	fastr := NewFaStrString(asciiLower(name))
	for i := range f.builtins {
		if f.builtins[i].Hdr.Name.Equal(fastr) {
			return &f.builtins[i]
		}
	}
	return nil
}

// findInDict walks the linked list of user/runtime definitions by name,
// most-recent first.
func (f *Forth[T]) findInDict(name string) *DictionaryEntry[T] {
	fastr := NewFaStrString(asciiLower(name))
	for de := f.runDictTail; de != nil; de = de.Link {
		if de.Hdr.Name.Equal(fastr) {
			return de
		}
	}
	return nil
}

// findWord resolves name to its EntryHeader, trying user definitions
// first, then the static builtin table, then the async builtin markers,
// so a dictionary entry with a builtin's name shadows that builtin.
func (f *Forth[T]) findWord(name string) *EntryHeader {
	if de := f.findInDict(name); de != nil {
		return &de.Hdr
	}
	if bi := f.findInBuiltins(name); bi != nil {
		return &bi.Hdr
	}
	if ab := f.findInAsyncBuiltins(name); ab != nil {
		return &ab.Hdr
	}
	return nil
}

func parseNum(word string) (int32, bool) {
	neg := false
	i := 0
	if len(word) == 0 {
		return 0, false
	}
	if word[0] == '-' || word[0] == '+' {
		neg = word[0] == '-'
		i++
	}
	if i == len(word) {
		return 0, false
	}
	var v int64
	for ; i < len(word); i++ {
		c := word[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int64(c-'0')
		if v > 1<<32 {
			return 0, false
		}
	}
	if neg {
		v = -v
	}
	if v < -(1<<31) || v > (1<<31)-1 {
		return 0, false
	}
	return int32(v), true
}

type lookupKind uint8

const (
	lookupDict lookupKind = iota
	lookupBuiltin
	lookupLiteral
	lookupSemicolon
	lookupIf
	lookupElse
	lookupThen
	lookupDo
	lookupLoop
	lookupLParen
	lookupLQuote
	lookupAsync
)

type lookupResult[T any] struct {
	kind lookupKind
	de   *DictionaryEntry[T]
	bi   *BuiltinEntry[T]
	ab   *AsyncBuiltinEntry
	val  int32
}

// findInAsyncBuiltins scans the async builtin marker table by name.
func (f *Forth[T]) findInAsyncBuiltins(name string) *AsyncBuiltinEntry {
	fastr := NewFaStrString(asciiLower(name))
	for i := range f.asyncBuiltins {
		if f.asyncBuiltins[i].Hdr.Name.Equal(fastr) {
			return &f.asyncBuiltins[i]
		}
	}
	return nil
}

// lookup classifies a single token per spec.md §4.5/§6: the reserved
// control-structure tokens first, then dictionary/builtin/literal.
func (f *Forth[T]) lookup(word string) (lookupResult[T], error) {
	switch word {
	case ";":
		return lookupResult[T]{kind: lookupSemicolon}, nil
	case "if":
		return lookupResult[T]{kind: lookupIf}, nil
	case "else":
		return lookupResult[T]{kind: lookupElse}, nil
	case "then":
		return lookupResult[T]{kind: lookupThen}, nil
	case "do":
		return lookupResult[T]{kind: lookupDo}, nil
	case "loop":
		return lookupResult[T]{kind: lookupLoop}, nil
	case "(":
		return lookupResult[T]{kind: lookupLParen}, nil
	case `."`:
		return lookupResult[T]{kind: lookupLQuote}, nil
	default:
		if de := f.findInDict(word); de != nil {
			return lookupResult[T]{kind: lookupDict, de: de}, nil
		}
		if bi := f.findInBuiltins(word); bi != nil {
			return lookupResult[T]{kind: lookupBuiltin, bi: bi}, nil
		}
		if ab := f.findInAsyncBuiltins(word); ab != nil {
			return lookupResult[T]{kind: lookupAsync, ab: ab}, nil
		}
		if val, ok := parseNum(word); ok {
			return lookupResult[T]{kind: lookupLiteral, val: val}, nil
		}
		return lookupResult[T]{}, ErrLookupFailed
	}
}

// ProcessLine tokenizes and executes (or compiles) the line currently
// loaded into f.Input, exactly as spec.md §4.5 describes, appending
// "ok.\n" to the output on clean completion.
func (f *Forth[T]) ProcessLine() error {
	for {
		f.Input.Advance()
		word, ok := f.Input.CurWord()
		if !ok {
			break
		}

		lr, err := f.lookup(word)
		if err != nil {
			return err
		}

		switch lr.kind {
		case lookupDict:
			f.traceStep(0, nil, &lr.de.Hdr)
			if err := f.dispatch(&lr.de.Hdr); err != nil {
				return err
			}
		case lookupBuiltin:
			f.traceStep(0, nil, &lr.bi.Hdr)
			if err := f.dispatch(&lr.bi.Hdr); err != nil {
				return err
			}
		case lookupAsync:
			f.traceStep(0, nil, &lr.ab.Hdr)
			if err := f.dispatch(&lr.ab.Hdr); err != nil {
				return err
			}
		case lookupLiteral:
			if err := stackErr(f.dataStack.Push(WordData(int64(lr.val)))); err != nil {
				return err
			}
		case lookupLParen:
			if _, err := f.munchComment(); err != nil {
				return err
			}
		case lookupLQuote:
			if err := f.Input.AdvanceStr(); err != nil {
				return err
			}
			lit, _ := f.Input.CurStrLiteral()
			if err := f.Output.PushStr(lit); err != nil {
				return WrapError(ErrOutput, err)
			}
		case lookupSemicolon, lookupIf, lookupElse, lookupThen, lookupDo, lookupLoop:
			return NewError(ErrInterpretingCompileOnlyWord)
		}
	}
	if err := f.Output.PushStr("ok.\n"); err != nil {
		return WrapError(ErrOutput, err)
	}
	return nil
}

// munchComment consumes tokens until one ends with ')', emitting nothing.
func (f *Forth[T]) munchComment() (uint16, error) {
	for {
		f.Input.Advance()
		word, ok := f.Input.CurWord()
		if !ok {
			return 0, nil
		}
		if len(word) > 0 && word[len(word)-1] == ')' {
			return 0, nil
		}
	}
}

// munchOne reads one token in compile mode and emits its threaded-code
// representation into the dictionary arena, updating *length by the
// number of cells appended. It returns 0 (with no error) at ';' or end of
// input, signaling the enclosing loop to stop.
func (f *Forth[T]) munchOne(length *uint16) (uint16, error) {
	start := *length
	f.Input.Advance()
	word, ok := f.Input.CurWord()
	if !ok {
		return 0, nil
	}

	lr, err := f.lookup(word)
	if err != nil {
		return 0, err
	}

	switch lr.kind {
	case lookupIf:
		return f.munchIf(length)
	case lookupElse:
		return 0, ErrElseBeforeIf
	case lookupThen:
		return 0, ErrThenBeforeIf
	case lookupSemicolon:
		return 0, nil
	case lookupDo:
		return f.munchDo(length)
	case lookupLoop:
		return 0, ErrLoopBeforeDo
	case lookupLParen:
		// A comment emits nothing; munch the token after it instead, so
		// that a 0 return keeps meaning ';' or end of input.
		if _, err := f.munchComment(); err != nil {
			return 0, err
		}
		return f.munchOne(length)
	case lookupLQuote:
		return f.munchStr(length)
	case lookupDict:
		if err := f.emitPtr(unsafe.Pointer(&lr.de.Hdr)); err != nil {
			return 0, err
		}
		*length++
	case lookupBuiltin:
		if err := f.emitPtr(unsafe.Pointer(&lr.bi.Hdr)); err != nil {
			return 0, err
		}
		*length++
	case lookupAsync:
		if err := f.emitPtr(unsafe.Pointer(&lr.ab.Hdr)); err != nil {
			return 0, err
		}
		*length++
	case lookupLiteral:
		literalHdr := f.findWord("(literal)")
		if literalHdr == nil {
			return 0, ErrWordNotInDict
		}
		if err := f.emitPtr(unsafe.Pointer(literalHdr)); err != nil {
			return 0, err
		}
		if err := f.emitData(int64(lr.val)); err != nil {
			return 0, err
		}
		*length += 2
	}
	return *length - start, nil
}

func (f *Forth[T]) emitPtr(p unsafe.Pointer) error {
	_, err := BumpWrite[Word](f.dictAlloc, WordPtr(p))
	return bumpErr(err)
}

func (f *Forth[T]) emitData(v int64) error {
	_, err := BumpWrite[Word](f.dictAlloc, WordData(v))
	return bumpErr(err)
}

// munchIf implements the if/then and if/else/then control-structure code
// generation described in spec.md §4.4. Each jump offset is added to the
// index of the offset cell that follows the jump instruction, which is
// where the caller's idx stands when the jump builtin runs.
func (f *Forth[T]) munchIf(length *uint16) (uint16, error) {
	start := *length

	cjHdr := f.findWord("(jump-zero)")
	if cjHdr == nil {
		return 0, ErrWordNotInDict
	}
	if err := f.emitPtr(unsafe.Pointer(cjHdr)); err != nil {
		return 0, err
	}
	cjOffsetPtr, err := Bump[Word](f.dictAlloc)
	if err != nil {
		return 0, bumpErr(err)
	}
	*length += 2

	elseThen := false
	ifStart := *length
	for {
		n, err := f.munchOne(length)
		switch {
		case err == ErrElseBeforeIf:
			elseThen = true
		case err == ErrThenBeforeIf:
		case err != nil:
			return 0, err
		case n == 0:
			return 0, ErrIfWithoutThen
		default:
			continue
		}
		break
	}

	delta := *length - ifStart
	if !elseThen {
		*cjOffsetPtr = WordData(int64(delta) + 1)
		return *length - start, nil
	}
	*cjOffsetPtr = WordData(int64(delta) + 3)

	jmpHdr := f.findWord("(jmp)")
	if jmpHdr == nil {
		return 0, ErrWordNotInDict
	}
	if err := f.emitPtr(unsafe.Pointer(jmpHdr)); err != nil {
		return 0, err
	}
	jmpOffsetPtr, err := Bump[Word](f.dictAlloc)
	if err != nil {
		return 0, bumpErr(err)
	}
	*length += 2

	elseStart := *length
	for {
		n, err := f.munchOne(length)
		switch {
		case err == ErrElseBeforeIf:
			return 0, ErrDuplicateElse
		case err == ErrThenBeforeIf:
		case err != nil:
			return 0, err
		case n == 0:
			return 0, ErrIfElseWithoutThen
		default:
			continue
		}
		break
	}

	delta = *length - elseStart
	*jmpOffsetPtr = WordData(int64(delta) + 1)
	return *length - start, nil
}

// munchDo implements do/loop code generation per spec.md §4.4.
func (f *Forth[T]) munchDo(length *uint16) (uint16, error) {
	start := *length

	shuttleHdr := f.findWord("2d>2r")
	if shuttleHdr == nil {
		return 0, ErrWordNotInDict
	}
	if err := f.emitPtr(unsafe.Pointer(shuttleHdr)); err != nil {
		return 0, err
	}
	*length++

	doStart := *length
	for {
		n, err := f.munchOne(length)
		switch {
		case err == ErrLoopBeforeDo:
		case err != nil:
			return 0, err
		case n == 0:
			return 0, ErrDoWithoutLoop
		default:
			continue
		}
		break
	}

	delta := *length - doStart
	offset := -(int32(delta) + 1)
	doLoopHdr := f.findWord("(jmp-doloop)")
	if doLoopHdr == nil {
		return 0, ErrWordNotInDict
	}
	if err := f.emitPtr(unsafe.Pointer(doLoopHdr)); err != nil {
		return 0, err
	}
	if err := f.emitData(int64(offset)); err != nil {
		return 0, err
	}
	*length += 2

	return *length - start, nil
}

// munchStr implements `."` code generation: emit (write-str), the byte
// length, then the literal's bytes padded to cell boundary.
func (f *Forth[T]) munchStr(length *uint16) (uint16, error) {
	start := *length

	if err := f.Input.AdvanceStr(); err != nil {
		return 0, ErrLQuoteMissingRQuote
	}
	lit, ok := f.Input.CurStrLiteral()
	if !ok {
		return 0, ErrLQuoteMissingRQuote
	}
	if len(lit) > 0xFFFF {
		return 0, ErrLiteralStringTooLong
	}

	writeStrHdr := f.findWord("(write-str)")
	if writeStrHdr == nil {
		return 0, ErrWordNotInDict
	}
	if err := f.emitPtr(unsafe.Pointer(writeStrHdr)); err != nil {
		return 0, err
	}
	if err := f.emitData(int64(len(lit))); err != nil {
		return 0, err
	}
	*length += 2

	strPtr, err := f.dictAlloc.BumpU8s(max(len(lit), 1))
	if err != nil {
		return 0, bumpErr(err)
	}
	dst := unsafe.Slice((*byte)(strPtr), len(lit))
	copy(dst, lit)

	wordSize := int(unsafe.Sizeof(Word{}))
	wordsWritten := (len(lit) + wordSize - 1) / wordSize
	if wordsWritten == 0 {
		wordsWritten = 0
	}
	*length += uint16(wordsWritten)

	return *length - start, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Colon implements the `:` builtin: read a name, reserve (but don't yet
// link) a DictionaryEntry header, and munch tokens into its parameter
// field until `;` finalizes it.
func (f *Forth[T]) Colon() error {
	f.Input.Advance()
	name, ok := f.Input.CurWord()
	if !ok {
		return ErrColonCompileMissingName
	}

	oldMode := f.mode
	f.mode = ModeCompile
	defer func() { f.mode = oldMode }()

	fastr, err := f.dictAlloc.BumpStr(name)
	if err != nil {
		return bumpErr(err)
	}

	dictBase, err := Bump[DictionaryEntry[T]](f.dictAlloc)
	if err != nil {
		return bumpErr(err)
	}

	var length uint16
	for {
		munched, err := f.munchOne(&length)
		if err != nil {
			return err
		}
		if munched != 0 {
			continue
		}
		word, ok := f.Input.CurWord()
		if ok && word == ";" {
			*dictBase = DictionaryEntry[T]{
				Hdr:  EntryHeader{Name: fastr, Kind: KindDictionary, Len: length},
				Func: (*Forth[T]).interpret,
				Link: f.runDictTail,
			}
			f.runDictTail = dictBase
			return nil
		}
		if !ok {
			return ErrColonCompileMissingSemicolon
		}
		// any other token means munchOne returned 0 via a bare ';'
		// check above; reaching here with a non-empty, non-';' word is
		// unreachable because munchOne only returns 0 for ';' or EOF.
	}
}

// Forget implements the `forget` builtin per spec.md §4.6.
func (f *Forth[T]) Forget() error {
	f.Input.Advance()
	word, ok := f.Input.CurWord()
	if !ok {
		return ErrForgetWithoutWordName
	}

	defn := f.findInDict(word)
	if defn == nil {
		if f.findInBuiltins(word) != nil {
			return ErrCantForgetBuiltins
		}
		return ErrForgetNotInDict
	}

	addr := unsafe.Pointer(defn)
	off := f.dictAlloc.offsetOf(addr)
	if off < 0 || off > f.dictAlloc.Used() {
		return ErrInternalError
	}

	f.runDictTail = defn.Link
	f.dictAlloc.ZeroFrom(off)
	return nil
}
