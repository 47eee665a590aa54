package dexir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatClassName(t *testing.T) {
	cases := []struct {
		descriptor string
		want       string
	}{
		{"Ljava/lang/Object;", "CLASS_java__lang__Object"},
		{"Ljava/io/PrintStream;", "CLASS_java__io__PrintStream"},
		{"LMain;", "CLASS_Main"},
		{"Lcom/example/My__Weird;", "CLASS_com__example__My____Weird"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatClassName(tc.descriptor), tc.descriptor)
	}
}

func TestFormatMemberName(t *testing.T) {
	require.Equal(t, "__init__", FormatMemberName("<init>"))
	require.Equal(t, "println", FormatMemberName("println"))
	require.Equal(t, "my____field", FormatMemberName("my__field"))
}

func TestMethodKey(t *testing.T) {
	require.Equal(t, "CLASS_java__lang__Object____init__", MethodKey("Ljava/lang/Object;", "<init>"))
	require.Equal(t, "CLASS_java__io__PrintStream__println", MethodKey("Ljava/io/PrintStream;", "println"))
}

func TestStaticKey(t *testing.T) {
	require.Equal(t, "CLASS_java__lang__System__out", StaticKey("Ljava/lang/System;", "out"))
}
