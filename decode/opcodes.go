package decode

// Format names follow the dex instruction-format convention: the first
// digit is the length in 16-bit code units, the second the number of
// registers, and the letter the kind of extra operand.
type Format int

const (
	Fmt10x Format = iota
	Fmt10t
	Fmt20t
	Fmt30t
	Fmt11n
	Fmt11x
	Fmt12x
	Fmt21c
	Fmt21h
	Fmt21s
	Fmt21t
	Fmt22b
	Fmt22c
	Fmt22s
	Fmt22t
	Fmt22x
	Fmt23x
	Fmt31c
	Fmt31i
	Fmt31t
	Fmt32x
	Fmt35c
	Fmt3rc
	Fmt51l
	Fmt20bc
	Fmt22cs
	Fmt35mi
	Fmt35ms
	Fmt3rmi
	Fmt3rms
)

// words gives a format's instruction length in 16-bit code units.
func (f Format) words() int {
	switch f {
	case Fmt10x, Fmt10t, Fmt11n, Fmt11x, Fmt12x:
		return 1
	case Fmt20t, Fmt21c, Fmt21h, Fmt21s, Fmt21t, Fmt22b, Fmt22c, Fmt22s, Fmt22t, Fmt22x, Fmt23x, Fmt20bc, Fmt22cs:
		return 2
	case Fmt30t, Fmt31c, Fmt31i, Fmt31t, Fmt32x, Fmt35c, Fmt3rc, Fmt35mi, Fmt35ms, Fmt3rmi, Fmt3rms:
		return 3
	case Fmt51l:
		return 5
	default:
		return 1
	}
}

// Opcode is the low byte of an instruction's first code unit.
type Opcode byte

// Opcodes referenced by name, mostly those the code generator and the
// control-flow analyser dispatch on. Any opcode without a case in the code
// generator is still decoded (the stream must stay aligned) but reaches the
// IR as an unimplemented sentinel.
const (
	OpNop              Opcode = 0x00
	OpMoveResult       Opcode = 0x0a
	OpMoveResultWide   Opcode = 0x0b
	OpMoveResultObject Opcode = 0x0c
	OpMoveException    Opcode = 0x0d
	OpReturnVoid       Opcode = 0x0e
	OpReturn           Opcode = 0x0f
	OpReturnWide       Opcode = 0x10
	OpReturnObject     Opcode = 0x11
	OpConst4           Opcode = 0x12
	OpConst16          Opcode = 0x13
	OpConstString      Opcode = 0x1a
	OpNewInstance      Opcode = 0x22
	OpNewArray         Opcode = 0x23
	OpFillArrayData    Opcode = 0x26
	OpThrow            Opcode = 0x27
	OpGoto             Opcode = 0x28
	OpGoto16           Opcode = 0x29
	OpGoto32           Opcode = 0x2a
	OpPackedSwitch     Opcode = 0x2b
	OpSparseSwitch     Opcode = 0x2c
	OpIfEq             Opcode = 0x32
	OpIfNe             Opcode = 0x33
	OpIfLt             Opcode = 0x34
	OpIfGe             Opcode = 0x35
	OpIfGt             Opcode = 0x36
	OpIfLe             Opcode = 0x37
	OpIfEqz            Opcode = 0x38
	OpIfNez            Opcode = 0x39
	OpIfLtz            Opcode = 0x3a
	OpIfGez            Opcode = 0x3b
	OpIfGtz            Opcode = 0x3c
	OpIfLez            Opcode = 0x3d
	OpAget             Opcode = 0x44
	OpAgetWide         Opcode = 0x45
	OpAgetObject       Opcode = 0x46
	OpAgetBoolean      Opcode = 0x47
	OpAput             Opcode = 0x4b
	OpAputObject       Opcode = 0x4d
	OpIget             Opcode = 0x52
	OpIgetObject       Opcode = 0x54
	OpIput             Opcode = 0x59
	OpIputObject       Opcode = 0x5b
	OpSget             Opcode = 0x60
	OpSgetObject       Opcode = 0x62
	OpSput             Opcode = 0x67
	OpSputObject       Opcode = 0x69
	OpInvokeVirtual    Opcode = 0x6e
	OpInvokeSuper      Opcode = 0x6f
	OpInvokeDirect     Opcode = 0x70
	OpInvokeStatic     Opcode = 0x71
	OpInvokeInterface  Opcode = 0x72
	OpAddInt2Addr      Opcode = 0xb0
	OpAddIntLit16      Opcode = 0xd0
	OpAddIntLit8       Opcode = 0xd8
	OpMulIntLit8       Opcode = 0xda
	OpDivIntLit8       Opcode = 0xdb
	OpRemIntLit8       Opcode = 0xdc
)

type opdef struct {
	name   string
	format Format
}

// opcodes is the complete 256-entry dispatch table, odexed extensions
// included. Unassigned opcodes get "unused" 10x entries so a corrupt stream
// still decodes deterministically instead of derailing alignment.
var opcodes = buildOpcodeTable()

func buildOpcodeTable() [256]opdef {
	var t [256]opdef
	for i := range t {
		t[i] = opdef{name: "unused", format: Fmt10x}
	}

	set := func(op Opcode, name string, f Format) { t[op] = opdef{name: name, format: f} }
	run := func(start Opcode, f Format, names ...string) {
		for i, n := range names {
			set(start+Opcode(i), n, f)
		}
	}

	set(0x00, "nop", Fmt10x)
	run(0x01, Fmt12x, "move")
	run(0x02, Fmt22x, "move/from16")
	run(0x03, Fmt32x, "move/16")
	run(0x04, Fmt12x, "move-wide")
	run(0x05, Fmt22x, "move-wide/from16")
	run(0x06, Fmt32x, "move-wide/16")
	run(0x07, Fmt12x, "move-object")
	run(0x08, Fmt22x, "move-object/from16")
	run(0x09, Fmt32x, "move-object/16")
	run(0x0a, Fmt11x, "move-result", "move-result-wide", "move-result-object", "move-exception")
	set(0x0e, "return-void", Fmt10x)
	run(0x0f, Fmt11x, "return", "return-wide", "return-object")
	set(0x12, "const/4", Fmt11n)
	set(0x13, "const/16", Fmt21s)
	set(0x14, "const", Fmt31i)
	set(0x15, "const/high16", Fmt21h)
	set(0x16, "const-wide/16", Fmt21s)
	set(0x17, "const-wide/32", Fmt31i)
	set(0x18, "const-wide", Fmt51l)
	set(0x19, "const-wide/high16", Fmt21h)
	set(0x1a, "const-string", Fmt21c)
	set(0x1b, "const-string/jumbo", Fmt31c)
	set(0x1c, "const-class", Fmt21c)
	run(0x1d, Fmt11x, "monitor-enter", "monitor-exit")
	set(0x1f, "check-cast", Fmt21c)
	set(0x20, "instance-of", Fmt22c)
	set(0x21, "array-length", Fmt12x)
	set(0x22, "new-instance", Fmt21c)
	set(0x23, "new-array", Fmt22c)
	set(0x24, "filled-new-array", Fmt35c)
	set(0x25, "filled-new-array/range", Fmt3rc)
	set(0x26, "fill-array-data", Fmt31t)
	set(0x27, "throw", Fmt11x)
	set(0x28, "goto", Fmt10t)
	set(0x29, "goto/16", Fmt20t)
	set(0x2a, "goto/32", Fmt30t)
	set(0x2b, "packed-switch", Fmt31t)
	set(0x2c, "sparse-switch", Fmt31t)
	run(0x2d, Fmt23x, "cmpl-float", "cmpg-float", "cmpl-double", "cmpg-double", "cmp-long")
	run(0x32, Fmt22t, "if-eq", "if-ne", "if-lt", "if-ge", "if-gt", "if-le")
	run(0x38, Fmt21t, "if-eqz", "if-nez", "if-ltz", "if-gez", "if-gtz", "if-lez")
	run(0x44, Fmt23x, "aget", "aget-wide", "aget-object", "aget-boolean", "aget-byte", "aget-char", "aget-short",
		"aput", "aput-wide", "aput-object", "aput-boolean", "aput-byte", "aput-char", "aput-short")
	run(0x52, Fmt22c, "iget", "iget-wide", "iget-object", "iget-boolean", "iget-byte", "iget-char", "iget-short",
		"iput", "iput-wide", "iput-object", "iput-boolean", "iput-byte", "iput-char", "iput-short")
	run(0x60, Fmt21c, "sget", "sget-wide", "sget-object", "sget-boolean", "sget-byte", "sget-char", "sget-short",
		"sput", "sput-wide", "sput-object", "sput-boolean", "sput-byte", "sput-char", "sput-short")
	run(0x6e, Fmt35c, "invoke-virtual", "invoke-super", "invoke-direct", "invoke-static", "invoke-interface")
	run(0x74, Fmt3rc, "invoke-virtual/range", "invoke-super/range", "invoke-direct/range", "invoke-static/range", "invoke-interface/range")
	run(0x7b, Fmt12x, "neg-int", "not-int", "neg-long", "not-long", "neg-float", "neg-double",
		"int-to-long", "int-to-float", "int-to-double", "long-to-int", "long-to-float", "long-to-double",
		"float-to-int", "float-to-long", "float-to-double", "double-to-int", "double-to-long", "double-to-float",
		"int-to-byte", "int-to-char", "int-to-short")
	run(0x90, Fmt23x, "add-int", "sub-int", "mul-int", "div-int", "rem-int", "and-int", "or-int", "xor-int", "shl-int", "shr-int", "ushr-int",
		"add-long", "sub-long", "mul-long", "div-long", "rem-long", "and-long", "or-long", "xor-long", "shl-long", "shr-long", "ushr-long",
		"add-float", "sub-float", "mul-float", "div-float", "rem-float",
		"add-double", "sub-double", "mul-double", "div-double", "rem-double")
	run(0xb0, Fmt12x, "add-int/2addr", "sub-int/2addr", "mul-int/2addr", "div-int/2addr", "rem-int/2addr", "and-int/2addr", "or-int/2addr", "xor-int/2addr", "shl-int/2addr", "shr-int/2addr", "ushr-int/2addr",
		"add-long/2addr", "sub-long/2addr", "mul-long/2addr", "div-long/2addr", "rem-long/2addr", "and-long/2addr", "or-long/2addr", "xor-long/2addr", "shl-long/2addr", "shr-long/2addr", "ushr-long/2addr",
		"add-float/2addr", "sub-float/2addr", "mul-float/2addr", "div-float/2addr", "rem-float/2addr",
		"add-double/2addr", "sub-double/2addr", "mul-double/2addr", "div-double/2addr", "rem-double/2addr")
	run(0xd0, Fmt22s, "add-int/lit16", "rsub-int", "mul-int/lit16", "div-int/lit16", "rem-int/lit16", "and-int/lit16", "or-int/lit16", "xor-int/lit16")
	run(0xd8, Fmt22b, "add-int/lit8", "rsub-int/lit8", "mul-int/lit8", "div-int/lit8", "rem-int/lit8", "and-int/lit8", "or-int/lit8", "xor-int/lit8", "shl-int/lit8", "shr-int/lit8", "ushr-int/lit8")
	set(0xe3, "iget-volatile", Fmt22c)
	set(0xe4, "iput-volatile", Fmt22c)
	set(0xe5, "sget-volatile", Fmt21c)
	set(0xe6, "sput-volatile", Fmt21c)
	set(0xe7, "iget-object-volatile", Fmt22c)
	set(0xe8, "iget-wide-volatile", Fmt22c)
	set(0xe9, "iput-wide-volatile", Fmt22c)
	set(0xea, "sget-wide-volatile", Fmt21c)
	set(0xeb, "sput-wide-volatile", Fmt21c)
	set(0xec, "breakpoint", Fmt10x)
	set(0xed, "throw-verification-error", Fmt20bc)
	set(0xee, "execute-inline", Fmt35mi)
	set(0xef, "execute-inline/range", Fmt3rmi)
	set(0xf0, "invoke-object-init/range", Fmt3rc)
	set(0xf1, "return-void-barrier", Fmt10x)
	set(0xf2, "iget-quick", Fmt22cs)
	set(0xf3, "iget-wide-quick", Fmt22cs)
	set(0xf4, "iget-object-quick", Fmt22cs)
	set(0xf5, "iput-quick", Fmt22cs)
	set(0xf6, "iput-wide-quick", Fmt22cs)
	set(0xf7, "iput-object-quick", Fmt22cs)
	set(0xf8, "invoke-virtual-quick", Fmt35ms)
	set(0xf9, "invoke-virtual-quick/range", Fmt3rms)
	set(0xfa, "invoke-super-quick", Fmt35ms)
	set(0xfb, "invoke-super-quick/range", Fmt3rms)
	set(0xfc, "iput-object-volatile", Fmt22c)
	set(0xfd, "sget-object-volatile", Fmt21c)
	set(0xfe, "sput-object-volatile", Fmt21c)

	return t
}

func (op Opcode) String() string { return opcodes[op].name }

// FormatOf exposes an opcode's operand layout.
func FormatOf(op Opcode) Format { return opcodes[op].format }
