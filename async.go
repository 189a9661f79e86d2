package thirdvm

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// errPendingCallAgain is returned by an AsyncDispatcher when the pending
// operation hasn't resolved yet: the scheduler must call Step again
// without advancing past the async builtin's call cell, so the same
// dispatch happens next time around.
var errPendingCallAgain = NewError(ErrPendingCallAgain)

// AsyncDispatcher resolves an async builtin marker against the host
// context, mirroring the reference's AsyncBuiltins trait. Dispatch may
// return errPendingCallAgain to request another Step before the call is
// considered complete; any other error aborts the line and clears the
// data, return and call stacks (see AsyncForth.Step).
type AsyncDispatcher[T any] interface {
	Dispatch(ctx context.Context, vm *Forth[T], hdr *EntryHeader) error
}

// AsyncDispatcherFunc adapts a plain function to AsyncDispatcher.
type AsyncDispatcherFunc[T any] func(ctx context.Context, vm *Forth[T], hdr *EntryHeader) error

func (f AsyncDispatcherFunc[T]) Dispatch(ctx context.Context, vm *Forth[T], hdr *EntryHeader) error {
	return f(ctx, vm, hdr)
}

// dispatchAsync runs eh through the installed dispatcher without a
// context (used from the synchronous interpret() path, where an async
// builtin executed outside AsyncForth.Step has no caller-supplied
// context to hand the dispatcher). It cannot retry on errPendingCallAgain
// the way AsyncForth.Step does -- a pending result here is surfaced to
// the caller as a plain error, since ProcessLine runs one word to
// completion per call.
func (vm *Forth[T]) dispatchAsync(eh *EntryHeader) error {
	if vm.dispatcher == nil {
		return NewError(ErrInternalError)
	}
	return vm.dispatcher.Dispatch(context.Background(), vm, eh)
}

// ProcessAction reports what AsyncForth.Step did on a single call.
type ProcessAction uint8

const (
	// ActionDone means the line finished; Output holds the full reply.
	ActionDone ProcessAction = iota
	// ActionContinue means more synchronous work remains this line.
	ActionContinue
	// ActionPending means an async builtin is still awaiting its host
	// operation; Step must be called again without new input.
	ActionPending
)

// AsyncForth wraps a Forth[T] with cooperative, single-step scheduling:
// each Step call executes at most one top-level dispatch (one token's
// worth of work, or one re-poll of a pending async builtin) and returns
// control to the caller, so a host can interleave many concurrent VMs on
// one goroutine -- or, via RunConcurrent, drive many lines to completion
// in parallel across goroutines using errgroup.
type AsyncForth[T any] struct {
	vm      *Forth[T]
	pending bool
}

// NewAsyncForth wraps vm for step-at-a-time execution.
func NewAsyncForth[T any](vm *Forth[T]) *AsyncForth[T] {
	return &AsyncForth[T]{vm: vm}
}

// VM exposes the underlying Forth instance for direct stack/output access
// between Step calls.
func (a *AsyncForth[T]) VM() *Forth[T] { return a.vm }

// SetLine loads a new line of input and clears any stale pending state,
// ready for repeated Step calls.
func (a *AsyncForth[T]) SetLine(ctx context.Context, line string) {
	a.vm.Input.SetLine(line)
	a.pending = false
}

// Step executes one unit of work: either the next token on the input
// line, or (if the previous Step left an async call pending) another
// poll of that same call. A non-pending error, including a cancelled or
// expired ctx, clears the data, return and call stacks before being
// returned, mirroring the reference's "abandon the line" recovery.
func (a *AsyncForth[T]) Step(ctx context.Context) (ProcessAction, error) {
	if err := ctx.Err(); err != nil {
		a.clearOnError()
		return ActionDone, err
	}

	if a.pending {
		cc, err := a.vm.callStack.PeekPtrBackN(0)
		if err != nil {
			return ActionDone, WrapError(ErrCallStackCorrupted, err)
		}
		eh := cc.eh
		err = a.vm.dispatcher.Dispatch(ctx, a.vm, eh)
		return a.settle(err)
	}

	a.vm.Input.Advance()
	word, ok := a.vm.Input.CurWord()
	if !ok {
		if err := a.vm.Output.PushStr("ok.\n"); err != nil {
			return ActionDone, WrapError(ErrOutput, err)
		}
		return ActionDone, nil
	}

	lr, err := a.vm.lookup(word)
	if err != nil {
		a.clearOnError()
		return ActionDone, err
	}

	switch lr.kind {
	case lookupDict, lookupBuiltin:
		hdr := &lr.bi.Hdr
		if lr.kind == lookupDict {
			hdr = &lr.de.Hdr
		}
		// Synchronous dispatch manages its own call-stack frame, so it
		// never leaves anything for settle to pop.
		if err := a.vm.dispatch(hdr); err != nil {
			a.clearOnError()
			return ActionDone, err
		}
		return ActionContinue, nil
	case lookupAsync:
		cc := newCallContext[T](&lr.ab.Hdr, 0)
		if err := stackErr(a.vm.callStack.Push(cc)); err != nil {
			a.clearOnError()
			return ActionDone, err
		}
		err := a.vm.dispatcher.Dispatch(ctx, a.vm, &lr.ab.Hdr)
		return a.settle(err)
	case lookupLiteral:
		if err := stackErr(a.vm.dataStack.Push(WordData(int64(lr.val)))); err != nil {
			a.clearOnError()
			return ActionDone, err
		}
		return ActionContinue, nil
	case lookupLParen:
		if _, err := a.vm.munchComment(); err != nil {
			a.clearOnError()
			return ActionDone, err
		}
		return ActionContinue, nil
	case lookupLQuote:
		if err := a.vm.Input.AdvanceStr(); err != nil {
			a.clearOnError()
			return ActionDone, err
		}
		lit, _ := a.vm.Input.CurStrLiteral()
		if err := a.vm.Output.PushStr(lit); err != nil {
			a.clearOnError()
			return ActionDone, WrapError(ErrOutput, err)
		}
		return ActionContinue, nil
	default:
		a.clearOnError()
		return ActionDone, NewError(ErrInterpretingCompileOnlyWord)
	}
}

func (a *AsyncForth[T]) settle(err error) (ProcessAction, error) {
	if err == nil {
		if _, perr := a.vm.callStack.Pop(); perr != nil {
			return ActionDone, stackErr(perr)
		}
		a.pending = false
		return ActionContinue, nil
	}
	if errors.Is(err, ErrPendingCallAgain) {
		a.pending = true
		return ActionPending, nil
	}
	a.clearOnError()
	return ActionDone, err
}

func (a *AsyncForth[T]) clearOnError() {
	a.vm.dataStack.Clear()
	a.vm.returnStack.Clear()
	a.vm.callStack.Clear()
	a.pending = false
}

// RunLine drives Step to completion for a single line, the convenience
// entry point for a host that doesn't need to interleave VMs itself.
func (a *AsyncForth[T]) RunLine(ctx context.Context, line string) error {
	a.SetLine(ctx, line)
	for {
		action, err := a.Step(ctx)
		if err != nil {
			return err
		}
		if action == ActionDone {
			return nil
		}
	}
}

// RunConcurrent drives one AsyncForth per line to completion in parallel,
// stopping at the first error (context.Context cancellation propagates to
// the remaining lines), via golang.org/x/sync/errgroup.
func RunConcurrent[T any](ctx context.Context, machines []*AsyncForth[T], lines []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range machines {
		i := i
		g.Go(func() error {
			return machines[i].RunLine(ctx, lines[i])
		})
	}
	return g.Wait()
}
