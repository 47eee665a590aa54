package dexerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStack struct{}

func (fakeStack) String() string { return "\tin \"f\"\n\tin \"root\"" }

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("bad payload magic")

	wrapped := Wrap(cause, "decoding code units")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, "decoding code units: bad payload magic", wrapped.Error())
}

func TestReportFormat(t *testing.T) {
	rs := NewStack(NewInvokeOnNonExistingFunction("nope"), fakeStack{})

	report := rs.Report()
	require.Contains(t, report, `Error: invoke on non-existing function "nope"`)
	require.Contains(t, report, `in "f"`)
	require.Contains(t, report, `in "root"`)
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  *RuntimeError
		want string
	}{
		{NewWrongNumberOfParameters(2, 1), "wrong number of parameters (expected 2, got 1)"},
		{NewRegisterOutOfBounds(), "register out of bounds"},
		{NewBadJumpTarget(), "bad jump target"},
		{NewCastError("Void as instance"), "cast error: Void as instance"},
		{NewUnimplemented("cmp-long"), "unimplemented: cmp-long"},
		{NewUnknownStatic("CLASS_M__X"), `unknown static variable "CLASS_M__X"`},
		{NewUnknownField("data"), `unknown instance field "data"`},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.err.Error())
	}
}
