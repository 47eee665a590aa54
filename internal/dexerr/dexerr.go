// Package dexerr implements the non-catchable RuntimeError channel: errors
// that always propagate to the outermost caller instead of being routed
// through a function's exception handler table.
package dexerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the RuntimeError variant.
type Kind int

const (
	InvokeOnNonExistingFunction Kind = iota
	RegisterOutOfBounds
	WrongNumberOfParameters
	BadJumpTarget
	CastError
	Unimplemented
	UnknownStatic
	UnknownField
)

func (k Kind) String() string {
	switch k {
	case InvokeOnNonExistingFunction:
		return "InvokeOnNonExistingFunction"
	case RegisterOutOfBounds:
		return "RegisterOutOfBounds"
	case WrongNumberOfParameters:
		return "WrongNumberOfParameters"
	case BadJumpTarget:
		return "BadJumpTarget"
	case CastError:
		return "CastError"
	case Unimplemented:
		return "Unimplemented"
	case UnknownStatic:
		return "UnknownStatic"
	case UnknownField:
		return "UnknownField"
	default:
		return "Unknown"
	}
}

// RuntimeError is the non-catchable error a frame terminates with. It is
// never routed through a handler table (see Stack.String / handler lookup
// in the interpreter), only ever propagated.
type RuntimeError struct {
	Kind     Kind
	Detail   string
	Expected int
	Got      int
}

func (e *RuntimeError) Error() string {
	switch e.Kind {
	case InvokeOnNonExistingFunction:
		return fmt.Sprintf("invoke on non-existing function %q", e.Detail)
	case WrongNumberOfParameters:
		return fmt.Sprintf("wrong number of parameters (expected %d, got %d)", e.Expected, e.Got)
	case CastError:
		return fmt.Sprintf("cast error: %s", e.Detail)
	case Unimplemented:
		return fmt.Sprintf("unimplemented: %s", e.Detail)
	case RegisterOutOfBounds:
		return "register out of bounds"
	case BadJumpTarget:
		return "bad jump target"
	case UnknownStatic:
		return fmt.Sprintf("unknown static variable %q", e.Detail)
	case UnknownField:
		return fmt.Sprintf("unknown instance field %q", e.Detail)
	default:
		return e.Kind.String()
	}
}

func NewInvokeOnNonExistingFunction(name string) *RuntimeError {
	return &RuntimeError{Kind: InvokeOnNonExistingFunction, Detail: name}
}

func NewRegisterOutOfBounds() *RuntimeError {
	return &RuntimeError{Kind: RegisterOutOfBounds}
}

func NewWrongNumberOfParameters(expected, got int) *RuntimeError {
	return &RuntimeError{Kind: WrongNumberOfParameters, Expected: expected, Got: got}
}

func NewBadJumpTarget() *RuntimeError {
	return &RuntimeError{Kind: BadJumpTarget}
}

func NewCastError(desc string) *RuntimeError {
	return &RuntimeError{Kind: CastError, Detail: desc}
}

func NewUnimplemented(desc string) *RuntimeError {
	return &RuntimeError{Kind: Unimplemented, Detail: desc}
}

// NewUnknownStatic and NewUnknownField back the strict-fields mode, where
// reads of missing statics/fields (and writes to undeclared statics) abort
// the frame instead of warning and producing Void.
func NewUnknownStatic(name string) *RuntimeError {
	return &RuntimeError{Kind: UnknownStatic, Detail: name}
}

func NewUnknownField(name string) *RuntimeError {
	return &RuntimeError{Kind: UnknownField, Detail: name}
}

// Stack is the minimal interface RuntimeErrorStack needs from a call stack;
// satisfied by module.CallStack without dexerr importing module (which
// would create an import cycle since module constructs RuntimeErrorStacks).
type Stack interface {
	String() string
}

// RuntimeErrorStack pairs a RuntimeError with the call stack active when it
// was raised.
type RuntimeErrorStack struct {
	Err   *RuntimeError
	Stack Stack
}

func NewStack(err *RuntimeError, stack Stack) *RuntimeErrorStack {
	return &RuntimeErrorStack{Err: err, Stack: stack}
}

func (r *RuntimeErrorStack) Error() string {
	return r.Report()
}

// Report renders the top-level "Error: ...\n\tin ...\n\tin ..." form used
// for unhandled-error output.
func (r *RuntimeErrorStack) Report() string {
	return fmt.Sprintf("Error: %s\n%s", r.Err.Error(), r.Stack.String())
}

// Wrap attaches stage context to a lower-level cause, keeping the cause
// reachable through Unwrap/Cause. Lowering failures (decode, control-flow
// analysis) pass through here so the skipped-method report names the stage
// that broke.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}
