package stdenv

import (
	"fmt"

	"github.com/maekoos/dex-ir/internal/dexerr"
	"github.com/maekoos/dex-ir/internal/dexlog"
	"github.com/maekoos/dex-ir/module"
	"github.com/maekoos/dex-ir/runtime"
)

func addStringBuilder(m *module.Module) {
	m.AddFunction("CLASS_java__lang__StringBuilder____init__", module.Native{Fn: stringBuilderInit})
	m.AddFunction("CLASS_java__lang__StringBuilder__append", module.Native{Fn: stringBuilderAppend})
	m.AddFunction("CLASS_java__lang__StringBuilder__toString", module.Native{Fn: stringBuilderToString})
}

// stringBuilderInit turns the receiver into an empty builder: a typed
// instance with a char-array value field.
func stringBuilderInit(params []runtime.Value, cs *module.CallStack, _ *module.Module) module.InvokeResult {
	if len(params) != 1 {
		return module.RuntimeErr{Err: dexerr.NewStack(
			dexerr.NewUnimplemented(fmt.Sprintf("multiple init arguments (%d)", len(params))), cs)}
	}

	inst, errRes := castInstance(params[0], cs)
	if errRes != nil {
		return errRes
	}

	inst.TypeName = "java_lang_StringBuilder"
	inst.PutField("value", runtime.VArray{})

	return module.Ok{Value: runtime.VVoid{}}
}

// append and toString are placeholders for now: they validate their
// receiver, then report themselves as unimplemented.
func stringBuilderAppend(params []runtime.Value, cs *module.CallStack, _ *module.Module) module.InvokeResult {
	if len(params) < 2 {
		return module.RuntimeErr{Err: dexerr.NewStack(
			dexerr.NewUnimplemented("no params to append function"), cs)}
	}

	if _, errRes := castInstance(params[0], cs); errRes != nil {
		return errRes
	}

	dexlog.Debugf("stringbuilder append: %v", params[1])
	return module.RuntimeErr{Err: dexerr.NewStack(
		dexerr.NewUnimplemented("java.lang.StringBuilder.append"), cs)}
}

func stringBuilderToString(params []runtime.Value, cs *module.CallStack, _ *module.Module) module.InvokeResult {
	dexlog.Debugf("stringbuilder toString: %v", params)
	return module.RuntimeErr{Err: dexerr.NewStack(
		dexerr.NewUnimplemented("java.lang.StringBuilder.toString"), cs)}
}
