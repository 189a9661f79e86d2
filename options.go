package thirdvm

// VMOption configures a Forth VM at construction time, in the functional-
// options idiom: each option mutates a vmOptions struct before New builds
// the VM from it.
type VMOption[T any] func(*vmOptions[T])

type vmOptions[T any] struct {
	dataBuf    []Word
	returnBuf  []Word
	callBuf    []CallContext[T]
	dictBuf    []byte
	outputBuf  []byte
	builtins   []BuiltinEntry[T]
	asyncTable []AsyncBuiltinEntry
	dispatcher AsyncDispatcher[T]
	hostCtxt   T
	logf       func(string, ...interface{})
}

const (
	defaultStackDepth = 256
	defaultCallDepth  = 64
	defaultDictBytes  = 16 * 1024
	defaultOutputSize = 4 * 1024
)

func defaultOptions[T any]() vmOptions[T] {
	return vmOptions[T]{
		dataBuf:   make([]Word, defaultStackDepth),
		returnBuf: make([]Word, defaultStackDepth),
		callBuf:   make([]CallContext[T], defaultCallDepth),
		dictBuf:   make([]byte, defaultDictBytes),
		outputBuf: make([]byte, defaultOutputSize),
		builtins:  FullBuiltins[T](),
	}
}

// WithStackDepths overrides the data/return stack capacities (in cells).
func WithStackDepths[T any](dataDepth, returnDepth int) VMOption[T] {
	return func(o *vmOptions[T]) {
		o.dataBuf = make([]Word, dataDepth)
		o.returnBuf = make([]Word, returnDepth)
	}
}

// WithCallDepth overrides the call-context stack's nesting limit.
func WithCallDepth[T any](depth int) VMOption[T] {
	return func(o *vmOptions[T]) {
		o.callBuf = make([]CallContext[T], depth)
	}
}

// WithDictionarySize overrides the dictionary arena's byte capacity.
func WithDictionarySize[T any](bytes int) VMOption[T] {
	return func(o *vmOptions[T]) {
		o.dictBuf = make([]byte, bytes)
	}
}

// WithOutputSize overrides the output buffer's byte capacity.
func WithOutputSize[T any](bytes int) VMOption[T] {
	return func(o *vmOptions[T]) {
		o.outputBuf = make([]byte, bytes)
	}
}

// WithBuiltins replaces the static builtin table entirely (e.g. to ship a
// restricted dialect); the default is FullBuiltins[T]().
func WithBuiltins[T any](builtins []BuiltinEntry[T]) VMOption[T] {
	return func(o *vmOptions[T]) {
		o.builtins = builtins
	}
}

// WithAsyncBuiltins registers the async builtin markers and the
// dispatcher that resolves them; see async.go.
func WithAsyncBuiltins[T any](table []AsyncBuiltinEntry, dispatcher AsyncDispatcher[T]) VMOption[T] {
	return func(o *vmOptions[T]) {
		o.asyncTable = table
		o.dispatcher = dispatcher
	}
}

// WithHostContext supplies the opaque value threaded to every builtin
// call as vm.HostCtxt.
func WithHostContext[T any](ctxt T) VMOption[T] {
	return func(o *vmOptions[T]) {
		o.hostCtxt = ctxt
	}
}

// WithLogf installs a trace sink invoked once per executed cell.
func WithLogf[T any](logf func(string, ...interface{})) VMOption[T] {
	return func(o *vmOptions[T]) {
		o.logf = logf
	}
}

// New builds a Forth VM from options, allocating every buffer itself at
// its default size or at the size a With* option gives. All-default
// construction always succeeds; it fails only through NewForth's
// zero-capacity guard, which a zero data, return, call or dictionary size
// triggers.
func New[T any](opts ...VMOption[T]) (*Forth[T], error) {
	o := defaultOptions[T]()
	for _, opt := range opts {
		opt(&o)
	}

	vm, err := NewForth[T](
		o.dataBuf, o.returnBuf, o.callBuf, o.dictBuf,
		NewWordStrBuf(), NewOutputBuf(o.outputBuf),
		o.hostCtxt, o.builtins,
	)
	if err != nil {
		return nil, err
	}
	vm.SetLogf(o.logf)
	vm.asyncBuiltins = o.asyncTable
	vm.dispatcher = o.dispatcher
	return vm, nil
}
