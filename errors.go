package thirdvm

import "fmt"

// Error is the VM's error taxonomy, modeled as an enum-with-cause in the
// style of the teacher's typed error values (progError, storError, ...)
// rather than a flat set of sentinel strings: most kinds stand alone, but
// Stack/Bump errors carry their sub-error as Cause.
type Error struct {
	Kind  ErrorKind
	Cause error
}

// ErrorKind enumerates the taxonomy from spec.md §7.
type ErrorKind uint8

const (
	_ ErrorKind = iota

	// Input/parse
	ErrLookupFailed
	ErrBadStrLiteral
	ErrColonCompileMissingName
	ErrColonCompileMissingSemicolon
	ErrForgetWithoutWordName
	ErrForgetNotInDict
	ErrWordNotInDict

	// Compile
	ErrIfWithoutThen
	ErrIfElseWithoutThen
	ErrDuplicateElse
	ErrDoWithoutLoop
	ErrElseBeforeIf
	ErrThenBeforeIf
	ErrLoopBeforeDo
	ErrLQuoteMissingRQuote
	ErrLiteralStringTooLong

	// Runtime
	ErrStack
	ErrCallStackCorrupted
	ErrNullPointerInCFA
	ErrDivideByZero
	ErrLoopCountIsNegative
	ErrBadWordOffset

	// Resource
	ErrBump
	ErrNonASCII

	// Mode
	ErrInterpretingCompileOnlyWord
	ErrCantForgetBuiltins

	// Integrity
	ErrInternalError

	// Output
	ErrOutput

	// Async (never user-visible; caught by the async driver)
	ErrPendingCallAgain
)

var errorKindText = map[ErrorKind]string{
	ErrLookupFailed:                 "unknown word",
	ErrBadStrLiteral:                "malformed string literal",
	ErrColonCompileMissingName:      ": missing a name to define",
	ErrColonCompileMissingSemicolon: ": missing closing ;",
	ErrForgetWithoutWordName:        "forget without a word name",
	ErrForgetNotInDict:              "forget: not in dictionary",
	ErrWordNotInDict:                "required builtin missing from dictionary",
	ErrIfWithoutThen:                "if without then",
	ErrIfElseWithoutThen:            "if/else without then",
	ErrDuplicateElse:                "duplicate else",
	ErrDoWithoutLoop:                "do without loop",
	ErrElseBeforeIf:                 "else outside if",
	ErrThenBeforeIf:                 "then outside if",
	ErrLoopBeforeDo:                 "loop outside do",
	ErrLQuoteMissingRQuote:          `." missing closing "`,
	ErrLiteralStringTooLong:         "literal string too long",
	ErrStack:                        "stack error",
	ErrCallStackCorrupted:           "call stack corrupted",
	ErrNullPointerInCFA:             "null pointer in compiled body",
	ErrDivideByZero:                 "divide by zero",
	ErrLoopCountIsNegative:          "loop count is negative",
	ErrBadWordOffset:                "bad word offset",
	ErrBump:                         "dictionary arena error",
	ErrNonASCII:                     "non-ASCII identifier",
	ErrInterpretingCompileOnlyWord:  "compile-only word used outside compile mode",
	ErrCantForgetBuiltins:           "cannot forget a builtin",
	ErrInternalError:                "internal error: invariant violated",
	ErrOutput:                       "output error",
	ErrPendingCallAgain:             "pending: call again",
}

// NewError builds a bare Error of the given kind.
func NewError(kind ErrorKind) Error { return Error{Kind: kind} }

// WrapError builds an Error of the given kind carrying cause, the way
// Error::Stack(StackError) and Error::Bump(BumpError) carry a sub-error in
// the reference.
func WrapError(kind ErrorKind, cause error) Error { return Error{Kind: kind, Cause: cause} }

func (e Error) Error() string {
	text := errorKindText[e.Kind]
	if text == "" {
		text = fmt.Sprintf("error(%d)", e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", text, e.Cause)
	}
	return text
}

func (e Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, ErrLookupFailed) work against a bare ErrorKind.
func (e Error) Is(target error) bool {
	if k, ok := target.(ErrorKind); ok {
		return e.Kind == k
	}
	return false
}

func (k ErrorKind) Error() string { return Error{Kind: k}.Error() }

func stackErr(err error) error {
	if err == nil {
		return nil
	}
	return WrapError(ErrStack, err)
}

func bumpErr(err error) error {
	if err == nil {
		return nil
	}
	return WrapError(ErrBump, err)
}
