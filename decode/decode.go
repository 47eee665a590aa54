package decode

import (
	"fmt"

	"github.com/maekoos/dex-ir/internal/dexlog"
)

// Instruction is one decoded instruction. A single flat struct carries
// every format's operands (the same packing idea as a raw code unit):
// which fields are meaningful depends on the opcode's format.
//
// Operands are stored raw and unsigned; sign extension of 8/16-bit
// immediates happens when the IR is emitted, not here. The exceptions are
// the payload fields, whose layout the payload format fixes on its own.
type Instruction struct {
	Op Opcode

	// A, B, C in dex manpage order. For nibble formats (11n, 12x, 22c,
	// 22s, 22t) A is the low nibble and B the high nibble of the first
	// operand byte.
	A uint32
	B uint32
	C uint32

	// Wide holds the 64-bit literal of a 51l instruction.
	Wide uint64

	// Argc and Args hold a 35c-family call's argument registers.
	Argc uint8
	Args [5]uint8

	// Payload of the pseudo-instructions.
	FirstKey     int32   // packed-switch
	Targets      []int32 // packed-switch and sparse-switch
	Keys         []int32 // sparse-switch, parallel to Targets
	ElementWidth uint16  // fill-array-data
	Data         []byte  // fill-array-data
}

// Words is the instruction's length in 16-bit code units. Payload data
// does not count: it is blanked at decode time and the stream positions
// only ever account for the 31t header.
func (i Instruction) Words() int { return opcodes[i.Op].format.words() }

func (i Instruction) String() string { return i.Op.String() }

// Next decodes one instruction from the cursor. ErrEOF between
// instructions is the normal loop terminator; ErrEOF in the middle of an
// operand, a bad payload magic or a negative pseudo-offset are reported
// as decode errors.
func Next(q *Cursor) (Instruction, error) {
	opByte, err := q.Incr()
	if err != nil {
		// Only a clean end: the opcode byte is an instruction boundary.
		return Instruction{}, err
	}

	op := Opcode(opByte)
	ins := Instruction{Op: op}

	switch op {
	case OpPackedSwitch:
		return decodePackedSwitch(q, ins)
	case OpSparseSwitch:
		return decodeSparseSwitch(q, ins)
	case OpFillArrayData:
		return decodeFillArrayData(q, ins)
	}

	if err := readFormat(q, opcodes[op].format, &ins); err != nil {
		return Instruction{}, fmt.Errorf("%s: truncated operands: %w", op, err)
	}
	return ins, nil
}

// readFormat unpacks the operand bytes of a fixed-length format into ins.
// Layouts follow the dex instruction-format table; all multi-byte joins
// are little-endian.
func readFormat(q *Cursor, f Format, ins *Instruction) error {
	b := make([]byte, 0, 9)
	for i := 0; i < f.words()*2-1; i++ {
		v, err := q.Incr()
		if err != nil {
			return err
		}
		b = append(b, v)
	}

	switch f {
	case Fmt10x:
		// opcode byte plus one ignored byte
	case Fmt10t:
		ins.A = uint32(b[0])
	case Fmt20t:
		ins.A = join16(b[1], b[2])
	case Fmt30t:
		ins.A = join32(b[1], b[2], b[3], b[4])
	case Fmt11n, Fmt12x:
		ins.A, ins.B = splitByte(b[0])
	case Fmt11x:
		ins.A = uint32(b[0])
	case Fmt21c, Fmt21h, Fmt21s, Fmt21t, Fmt20bc:
		ins.A = uint32(b[0])
		ins.B = join16(b[1], b[2])
	case Fmt22x:
		ins.A = uint32(b[0])
		ins.B = join16(b[1], b[2])
	case Fmt22b:
		ins.A = uint32(b[0])
		ins.B = uint32(b[1])
		ins.C = uint32(b[2])
	case Fmt22c, Fmt22s, Fmt22t, Fmt22cs:
		ins.A, ins.B = splitByte(b[0])
		ins.C = join16(b[1], b[2])
	case Fmt23x:
		ins.A = uint32(b[0])
		ins.B = uint32(b[1])
		ins.C = uint32(b[2])
	case Fmt31c, Fmt31i, Fmt31t:
		ins.A = uint32(b[0])
		ins.B = join32(b[1], b[2], b[3], b[4])
	case Fmt32x:
		ins.A = join16(b[1], b[2])
		ins.B = join16(b[3], b[4])
	case Fmt35c, Fmt35mi, Fmt35ms:
		g, count := splitByte(b[0])
		ins.B = join16(b[1], b[2])
		c, d := splitByte(b[3])
		e, f := splitByte(b[4])
		ins.Argc = uint8(count)
		ins.Args = [5]uint8{uint8(c), uint8(d), uint8(e), uint8(f), uint8(g)}
	case Fmt3rc, Fmt3rmi, Fmt3rms:
		ins.A = uint32(b[0])
		ins.B = join16(b[1], b[2])
		ins.C = join16(b[3], b[4])
	case Fmt51l:
		ins.A = uint32(b[0])
		ins.Wide = join64(b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
	default:
		return fmt.Errorf("unhandled instruction format %d", f)
	}
	return nil
}

// jumpToPayload decodes the 31t header shared by the three
// pseudo-instructions and dives the cursor to the payload's first byte.
// The offset is in words from the header's first code unit; the header
// itself already consumed 5 operand bytes, hence offset·2 − 5.
func jumpToPayload(q *Cursor, ins *Instruction) error {
	if err := readFormat(q, Fmt31t, ins); err != nil {
		return fmt.Errorf("%s: truncated operands: %w", ins.Op, err)
	}

	offset := int32(ins.B)
	if offset < 0 {
		dexlog.Errorf("%s: payload offset is negative", ins.Op)
		return fmt.Errorf("%s: negative payload offset %d", ins.Op, offset)
	}

	if err := q.Jump(offset*2 - 5); err != nil {
		return fmt.Errorf("%s: payload offset out of range: %w", ins.Op, err)
	}
	return nil
}

// expectMagic consumes and blanks the payload's two magic bytes.
func expectMagic(q *Cursor, op Opcode, ident byte) error {
	for _, want := range []byte{0x00, ident} {
		got, err := q.IncrBlank()
		if err != nil {
			return fmt.Errorf("%s: truncated payload magic: %w", op, err)
		}
		if got != want {
			return fmt.Errorf("%s: bad payload magic byte %#02x (want %#02x)", op, got, want)
		}
	}
	return nil
}

func payload16(q *Cursor) (uint16, error) {
	b0, err := q.IncrBlank()
	if err != nil {
		return 0, err
	}
	b1, err := q.IncrBlank()
	if err != nil {
		return 0, err
	}
	return uint16(join16(b0, b1)), nil
}

func payload32(q *Cursor) (uint32, error) {
	var b [4]byte
	for i := range b {
		v, err := q.IncrBlank()
		if err != nil {
			return 0, err
		}
		b[i] = v
	}
	return join32(b[0], b[1], b[2], b[3]), nil
}

func decodePackedSwitch(q *Cursor, ins Instruction) (Instruction, error) {
	if err := jumpToPayload(q, &ins); err != nil {
		return Instruction{}, err
	}
	if err := expectMagic(q, ins.Op, 0x01); err != nil {
		return Instruction{}, err
	}

	size, err := payload16(q)
	if err != nil {
		return Instruction{}, fmt.Errorf("packed-switch: truncated payload: %w", err)
	}
	firstKey, err := payload32(q)
	if err != nil {
		return Instruction{}, fmt.Errorf("packed-switch: truncated payload: %w", err)
	}
	ins.FirstKey = int32(firstKey)

	ins.Targets = make([]int32, 0, size)
	for i := 0; i < int(size); i++ {
		t, err := payload32(q)
		if err != nil {
			return Instruction{}, fmt.Errorf("packed-switch: truncated payload: %w", err)
		}
		ins.Targets = append(ins.Targets, int32(t))
	}

	q.JumpBack()
	return ins, nil
}

func decodeSparseSwitch(q *Cursor, ins Instruction) (Instruction, error) {
	if err := jumpToPayload(q, &ins); err != nil {
		return Instruction{}, err
	}
	if err := expectMagic(q, ins.Op, 0x02); err != nil {
		return Instruction{}, err
	}

	size, err := payload16(q)
	if err != nil {
		return Instruction{}, fmt.Errorf("sparse-switch: truncated payload: %w", err)
	}

	// Keys first, then targets: two parallel arrays in pair order.
	ins.Keys = make([]int32, 0, size)
	ins.Targets = make([]int32, 0, size)
	for i := 0; i < int(size); i++ {
		k, err := payload32(q)
		if err != nil {
			return Instruction{}, fmt.Errorf("sparse-switch: truncated payload: %w", err)
		}
		ins.Keys = append(ins.Keys, int32(k))
	}
	for i := 0; i < int(size); i++ {
		t, err := payload32(q)
		if err != nil {
			return Instruction{}, fmt.Errorf("sparse-switch: truncated payload: %w", err)
		}
		ins.Targets = append(ins.Targets, int32(t))
	}

	q.JumpBack()
	return ins, nil
}

func decodeFillArrayData(q *Cursor, ins Instruction) (Instruction, error) {
	if err := jumpToPayload(q, &ins); err != nil {
		return Instruction{}, err
	}
	if err := expectMagic(q, ins.Op, 0x03); err != nil {
		return Instruction{}, err
	}

	width, err := payload16(q)
	if err != nil {
		return Instruction{}, fmt.Errorf("fill-array-data: truncated payload: %w", err)
	}
	size, err := payload32(q)
	if err != nil {
		return Instruction{}, fmt.Errorf("fill-array-data: truncated payload: %w", err)
	}
	ins.ElementWidth = width

	ins.Data = make([]byte, 0, int(size)*int(width))
	for i := 0; i < int(size)*int(width); i++ {
		v, err := q.IncrBlank()
		if err != nil {
			return Instruction{}, fmt.Errorf("fill-array-data: truncated payload: %w", err)
		}
		ins.Data = append(ins.Data, v)
	}

	q.JumpBack()
	return ins, nil
}

func splitByte(b byte) (lo, hi uint32) {
	return uint32(b & 0xf), uint32(b >> 4)
}

func join16(b0, b1 byte) uint32 {
	return uint32(b0) | uint32(b1)<<8
}

func join32(b0, b1, b2, b3 byte) uint32 {
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24
}

func join64(b0, b1, b2, b3, b4, b5, b6, b7 byte) uint64 {
	return uint64(b0) | uint64(b1)<<8 | uint64(b2)<<16 | uint64(b3)<<24 |
		uint64(b4)<<32 | uint64(b5)<<40 | uint64(b6)<<48 | uint64(b7)<<56
}
