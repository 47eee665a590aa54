package module

import (
	"fmt"

	"github.com/maekoos/dex-ir/ir"
	"github.com/maekoos/dex-ir/runtime"
)

// NativeFunc is the signature of a host-provided function. Natives live
// in the same flat namespace as interpreted functions and receive the
// module so they can reach statics and invoke back in.
type NativeFunc func(params []runtime.Value, cs *CallStack, env *Module) InvokeResult

// Function is either an interpreted body or a native one.
type Function interface {
	run(params []runtime.Value, cs *CallStack, env *Module) InvokeResult

	// BuildIR renders the function for the module's IR dump.
	BuildIR(name string) string
}

// Interpreted wraps a finished IR function.
type Interpreted struct {
	Fn *ir.Function
}

func (f Interpreted) run(params []runtime.Value, cs *CallStack, env *Module) InvokeResult {
	return runInterpreted(f.Fn, params, cs, env)
}

func (f Interpreted) BuildIR(name string) string {
	return buildFunctionIR(f.Fn, name)
}

// Native wraps a host function pointer.
type Native struct {
	Fn NativeFunc
}

func (f Native) run(params []runtime.Value, cs *CallStack, env *Module) InvokeResult {
	return f.Fn(params, cs, env)
}

func (f Native) BuildIR(name string) string {
	return fmt.Sprintf("native func %q;", name)
}
