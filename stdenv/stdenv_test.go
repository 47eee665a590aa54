package stdenv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maekoos/dex-ir/internal/dexerr"
	"github.com/maekoos/dex-ir/module"
	"github.com/maekoos/dex-ir/runtime"
)

func newEnv(t *testing.T) (*module.Module, *bytes.Buffer) {
	t.Helper()

	m := module.New("test")
	AddAll(m)

	var buf bytes.Buffer
	m.Out = &buf
	return m, &buf
}

func TestObjectInitReturnsVoid(t *testing.T) {
	m, _ := newEnv(t)

	res := m.Run("CLASS_java__lang__Object____init__", nil)
	require.Equal(t, module.Ok{Value: runtime.VVoid{}}, res)
}

func TestSystemOutIsDeclared(t *testing.T) {
	m, _ := newEnv(t)

	v, ok := m.GetStatic("CLASS_java__lang__System__out")
	require.True(t, ok)
	require.Equal(t, runtime.VVoid{}, v)
}

func TestPrintlnString(t *testing.T) {
	m, buf := newEnv(t)

	s := runtime.ToValue(runtime.LitString("hello"))
	res := m.Run("CLASS_java__io__PrintStream__println", []runtime.Value{runtime.VVoid{}, s})
	require.Equal(t, module.Ok{Value: runtime.VVoid{}}, res)
	require.Equal(t, "hello\n", buf.String())
}

func TestPrintlnInt(t *testing.T) {
	m, buf := newEnv(t)

	res := m.Run("CLASS_java__io__PrintStream__println", []runtime.Value{runtime.VVoid{}, runtime.VI32(-3)})
	require.Equal(t, module.Ok{Value: runtime.VVoid{}}, res)
	require.Equal(t, "-3\n", buf.String())
}

func TestStringBuilderInit(t *testing.T) {
	m, _ := newEnv(t)

	recv := runtime.VInstance{Inst: runtime.NewInstance()}
	res := m.Run("CLASS_java__lang__StringBuilder____init__", []runtime.Value{recv})
	require.Equal(t, module.Ok{Value: runtime.VVoid{}}, res)

	require.Equal(t, "java_lang_StringBuilder", recv.Inst.TypeName)
	v, ok := recv.Inst.GetField("value")
	require.True(t, ok)
	require.IsType(t, runtime.VArray{}, v)
}

func TestStringBuilderAppendUnimplemented(t *testing.T) {
	m, _ := newEnv(t)

	recv := runtime.VInstance{Inst: runtime.NewInstance()}
	res := m.Run("CLASS_java__lang__StringBuilder__append", []runtime.Value{recv, runtime.VI32(1)})
	re, ok := res.(module.RuntimeErr)
	require.True(t, ok, "expected RuntimeErr, got %v", res)
	require.Equal(t, dexerr.Unimplemented, re.Err.Err.Kind)
}
