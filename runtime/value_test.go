package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToSingleIsTotal(t *testing.T) {
	inst := NewInstance()

	cases := []struct {
		name string
		v    Value
		want int32
	}{
		{"void", VVoid{}, 0},
		{"char", VChar('A'), 65},
		{"i32", VI32(-7), -7},
		{"i64 low bits", VI64(0x1_0000_0005), 5},
		{"instance", VInstance{Inst: inst}, 1},
		{"array", VArray{}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.v.ToSingle())
		})
	}
}

func TestStringLiteralRoundTrip(t *testing.T) {
	v := ToValue(LitString("hi there"))

	inst, ok := v.(VInstance)
	require.True(t, ok)
	require.Equal(t, "java_lang_string", inst.Inst.TypeName)

	s, ok := StringFromInstance(inst.Inst)
	require.True(t, ok)
	require.Equal(t, "hi there", s)
}

func TestStringLiteralsAreFreshInstances(t *testing.T) {
	a := ToValue(LitString("x")).(VInstance)
	b := ToValue(LitString("x")).(VInstance)
	require.NotSame(t, a.Inst, b.Inst)
}

func TestInstanceFields(t *testing.T) {
	inst := NewInstance()

	_, ok := inst.GetField("missing")
	require.False(t, ok)

	inst.PutField("count", VI32(3))
	v, ok := inst.GetField("count")
	require.True(t, ok)
	require.Equal(t, VI32(3), v)
}

func TestNewVoidArrayHasZeroLength(t *testing.T) {
	arr := NewVoidArray(16)
	require.Len(t, arr.Elements, 0)
	require.Equal(t, 16, cap(arr.Elements))
}
