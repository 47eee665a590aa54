package decode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, insns []uint16) []Instruction {
	t.Helper()

	q := NewCursor(insns)
	var out []Instruction
	for {
		ins, err := Next(q)
		if errors.Is(err, ErrEOF) {
			break
		}
		require.NoError(t, err)
		out = append(out, ins)
	}
	return out
}

func TestCursorIncrAndJump(t *testing.T) {
	q := NewCursor([]uint16{0x2211, 0x4433})

	b, err := q.Incr()
	require.NoError(t, err)
	require.Equal(t, byte(0x11), b)

	require.NoError(t, q.Jump(2))
	b, err = q.Incr()
	require.NoError(t, err)
	require.Equal(t, byte(0x33), b)

	q.JumpBack()
	b, err = q.Incr()
	require.NoError(t, err)
	require.Equal(t, byte(0x22), b)
}

func TestCursorEOF(t *testing.T) {
	q := NewCursor([]uint16{0x000e})

	_, err := q.Incr()
	require.NoError(t, err)
	_, err = q.Incr()
	require.NoError(t, err)
	require.True(t, q.IsEmpty())

	_, err = q.Incr()
	require.ErrorIs(t, err, ErrEOF)
}

func TestDecodeOperandShapes(t *testing.T) {
	insns := decodeAll(t, []uint16{
		0xf012,         // const/4 v0, #-1 (nibble f)
		0x0113, 0xfffe, // const/16 v1, #-2
		0x011a, 0x0007, // const-string v1, string@7
		0x21b0,         // add-int/2addr v1, v2
		0x00d8, 0x7f01, // add-int/lit8 v0, v1, #127
		0x2132, 0x0004, // if-eq v1, v2, +4
		0x0244, 0x0301, // aget v2, v1, v3
		0x2071, 0x0005, 0x0010, // invoke-static {v0, v1}, method@5
	})
	require.Len(t, insns, 8)

	require.Equal(t, OpConst4, insns[0].Op)
	require.Equal(t, uint32(0), insns[0].A)
	require.Equal(t, uint32(0xf), insns[0].B)

	require.Equal(t, OpConst16, insns[1].Op)
	require.Equal(t, uint32(1), insns[1].A)
	require.Equal(t, int16(-2), int16(uint16(insns[1].B)))

	require.Equal(t, OpConstString, insns[2].Op)
	require.Equal(t, uint32(7), insns[2].B)

	require.Equal(t, OpAddInt2Addr, insns[3].Op)
	require.Equal(t, uint32(1), insns[3].A)
	require.Equal(t, uint32(2), insns[3].B)

	require.Equal(t, OpAddIntLit8, insns[4].Op)
	require.Equal(t, uint32(0), insns[4].A)
	require.Equal(t, uint32(1), insns[4].B)
	require.Equal(t, uint32(127), insns[4].C)

	require.Equal(t, OpIfEq, insns[5].Op)
	require.Equal(t, uint32(1), insns[5].A)
	require.Equal(t, uint32(2), insns[5].B)
	require.Equal(t, uint32(4), insns[5].C)

	require.Equal(t, OpAget, insns[6].Op)
	require.Equal(t, uint32(2), insns[6].A)
	require.Equal(t, uint32(1), insns[6].B)
	require.Equal(t, uint32(3), insns[6].C)

	require.Equal(t, OpInvokeStatic, insns[7].Op)
	require.Equal(t, uint32(5), insns[7].B)
	require.Equal(t, uint8(2), insns[7].Argc)
	require.Equal(t, [5]uint8{0, 1, 0, 0, 0}, insns[7].Args)
}

func TestDecodePackedSwitchPayload(t *testing.T) {
	insns := decodeAll(t, []uint16{
		0x002b, 0x0004, 0x0000, // packed-switch v0, payload at +4 words
		0x000e, // return-void
		// payload
		0x0100,         // magic
		0x0002,         // size
		0x000a, 0x0000, // first key 10
		0x0003, 0x0000, // target +3
		0x0005, 0x0000, // target +5
	})

	require.Equal(t, OpPackedSwitch, insns[0].Op)
	require.Equal(t, uint32(0), insns[0].A)
	require.Equal(t, int32(10), insns[0].FirstKey)
	require.Equal(t, []int32{3, 5}, insns[0].Targets)

	require.Equal(t, OpReturnVoid, insns[1].Op)

	// The payload was blanked: everything after the return decodes as nop.
	for _, ins := range insns[2:] {
		require.Equal(t, OpNop, ins.Op)
	}
}

func TestDecodeSparseSwitchPayload(t *testing.T) {
	insns := decodeAll(t, []uint16{
		0x012c, 0x0004, 0x0000, // sparse-switch v1, payload at +4 words
		0x000e,
		// payload
		0x0200,         // magic
		0x0002,         // size
		0x00ff, 0x0000, // key 255
		0xffff, 0xffff, // key -1
		0x0003, 0x0000, // target +3
		0x0007, 0x0000, // target +7
	})

	require.Equal(t, OpSparseSwitch, insns[0].Op)
	require.Equal(t, []int32{255, -1}, insns[0].Keys)
	require.Equal(t, []int32{3, 7}, insns[0].Targets)
}

func TestDecodeFillArrayDataPayload(t *testing.T) {
	insns := decodeAll(t, []uint16{
		0x0026, 0x0004, 0x0000, // fill-array-data v0, payload at +4 words
		0x000e,
		// payload
		0x0300,         // magic
		0x0001,         // element width 1
		0x0004, 0x0000, // size 4
		0x0201, 0x0403, // data 1 2 3 4
	})

	require.Equal(t, OpFillArrayData, insns[0].Op)
	require.Equal(t, uint16(1), insns[0].ElementWidth)
	require.Equal(t, []byte{1, 2, 3, 4}, insns[0].Data)
}

func TestDecodeBadPayloadMagic(t *testing.T) {
	q := NewCursor([]uint16{
		0x002b, 0x0003, 0x0000, // packed-switch, payload at +3 words
		0x0200, // sparse-switch magic, not packed-switch's
		0x0000,
	})

	_, err := Next(q)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrEOF)
}

func TestDecodeTruncatedOperands(t *testing.T) {
	// const/16 needs a second code unit.
	q := NewCursor([]uint16{0x0113})

	_, err := Next(q)
	require.Error(t, err)
}

// reserialize re-packs the fixed-length header of a decoded instruction;
// used to check that decoding loses nothing.
func reserialize(t *testing.T, ins Instruction) []byte {
	t.Helper()

	out := []byte{byte(ins.Op)}
	switch FormatOf(ins.Op) {
	case Fmt10x:
		out = append(out, 0)
	case Fmt10t, Fmt11x:
		out = append(out, byte(ins.A))
	case Fmt11n, Fmt12x:
		out = append(out, byte(ins.A)|byte(ins.B)<<4)
	case Fmt21c, Fmt21s, Fmt21t:
		out = append(out, byte(ins.A), byte(ins.B), byte(ins.B>>8))
	case Fmt22b, Fmt23x:
		out = append(out, byte(ins.A), byte(ins.B), byte(ins.C))
	case Fmt22c, Fmt22t:
		out = append(out, byte(ins.A)|byte(ins.B)<<4, byte(ins.C), byte(ins.C>>8))
	case Fmt35c:
		out = append(out,
			byte(ins.Args[4])|ins.Argc<<4,
			byte(ins.B), byte(ins.B>>8),
			ins.Args[0]|ins.Args[1]<<4,
			ins.Args[2]|ins.Args[3]<<4)
	default:
		t.Fatalf("reserialize does not support format %d", FormatOf(ins.Op))
	}
	return out
}

func TestDecodeRoundTripsHeaders(t *testing.T) {
	insns := []uint16{
		0xf012,
		0x0113, 0xfffe,
		0x011a, 0x0007,
		0x21b0,
		0x00d8, 0x7f01,
		0x2132, 0x0004,
		0x0244, 0x0301,
		0x2071, 0x0005, 0x0010,
		0x010f,
	}

	var want []byte
	for _, u := range insns {
		want = append(want, byte(u&0xff), byte(u>>8))
	}

	var got []byte
	for _, ins := range decodeAll(t, insns) {
		got = append(got, reserialize(t, ins)...)
	}
	require.Equal(t, want, got)
}
