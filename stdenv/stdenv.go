// Package stdenv registers the native functions that stand in for the
// host class library. They live under the same flat namespace as
// interpreted functions, so a program's invoke-static on println lands
// here without any special dispatch.
package stdenv

import (
	"fmt"

	"github.com/maekoos/dex-ir/internal/dexerr"
	"github.com/maekoos/dex-ir/internal/dexlog"
	"github.com/maekoos/dex-ir/module"
	"github.com/maekoos/dex-ir/runtime"
)

// AddAll registers the whole catalogue on a freshly constructed module.
func AddAll(m *module.Module) {
	dexlog.Info("initializing java environment")

	m.AddStatic("CLASS_java__lang__System__out")

	m.AddFunction("CLASS_java__lang__Object____init__", module.Native{Fn: objectInit})
	m.AddFunction("CLASS_java__io__PrintStream__println", module.Native{Fn: printStreamPrintln})

	addStringBuilder(m)
}

func objectInit(_ []runtime.Value, _ *module.CallStack, _ *module.Module) module.InvokeResult {
	return module.Ok{Value: runtime.VVoid{}}
}

// printStreamPrintln prints its second argument (the first is the stream
// instance). Instances of the string pseudo-type are decoded by reading
// the data field and concatenating its chars.
func printStreamPrintln(params []runtime.Value, _ *module.CallStack, env *module.Module) module.InvokeResult {
	dexlog.Debugf("println: %v", params)
	if len(params) != 2 {
		dexlog.Errorf("unsupported number of parameters in print stream println: %d", len(params))
		return module.Ok{Value: runtime.VVoid{}}
	}

	switch v := params[1].(type) {
	case runtime.VI32:
		fmt.Fprintln(env.Out, int32(v))
	case runtime.VInstance:
		if s, ok := runtime.StringFromInstance(v.Inst); ok {
			fmt.Fprintln(env.Out, s)
		} else {
			fmt.Fprintf(env.Out, "%v\n", v.Inst)
		}
	default:
		fmt.Fprintf(env.Out, "%v\n", params[1])
	}

	return module.Ok{Value: runtime.VVoid{}}
}

func castInstance(v runtime.Value, cs *module.CallStack) (*runtime.Instance, module.InvokeResult) {
	inst, ok := v.(runtime.VInstance)
	if !ok {
		return nil, module.RuntimeErr{Err: dexerr.NewStack(dexerr.NewCastError(fmt.Sprintf("%T as instance", v)), cs)}
	}
	return inst.Inst, nil
}
