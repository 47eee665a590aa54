package module

import (
	"fmt"

	"github.com/maekoos/dex-ir/internal/dexerr"
	"github.com/maekoos/dex-ir/runtime"
)

// InvokeResult is the only shape an invocation ever produces: a normal
// return value, a catchable exception, or a non-catchable runtime error.
type InvokeResult interface {
	invokeResult()
}

// Ok carries a normal return value (Void for void methods).
type Ok struct {
	Value runtime.Value
}

// Exception carries a thrown instance plus the call stack at the throw
// site. It is catchable by the caller's handler table.
type Exception struct {
	Instance *runtime.Instance
	Stack    *CallStack
}

// RuntimeErr carries a non-catchable error; it always propagates to the
// outermost caller.
type RuntimeErr struct {
	Err *dexerr.RuntimeErrorStack
}

func (Ok) invokeResult()         {}
func (Exception) invokeResult()  {}
func (RuntimeErr) invokeResult() {}

func (r Ok) String() string { return fmt.Sprintf("Ok(%v)", r.Value) }

func (r Exception) String() string {
	return fmt.Sprintf("Exception(%s)\n%s", r.Instance.TypeName, r.Stack)
}

func (r RuntimeErr) String() string { return r.Err.Report() }

// runtimeErr builds the RuntimeErr variant from an error kind and the
// stack active when it was raised.
func runtimeErr(err *dexerr.RuntimeError, stack *CallStack) InvokeResult {
	return RuntimeErr{Err: dexerr.NewStack(err, stack)}
}
