// Package ir holds the interpreter IR: the Instruction sum type emitted by
// the code generator and executed by the interpreter, plus the
// FunctionBuilder the per-block emission runs through.
package ir

import "github.com/maekoos/dex-ir/runtime"

// Op tags which variant an Instruction is. A single flat struct carries all
// variants' fields rather than one Go type per variant, since most fields
// below are genuinely shared across variants (Reg/RegB/RegC, a target
// label).
type Op int

const (
	OpLabel Op = iota
	OpNop
	OpMoveResult
	OpMoveException
	OpReturn
	OpConstSet
	OpNewInstance
	OpNewArray
	OpFillArrayData
	OpGoTo
	OpIf
	OpArrayGet
	OpInstanceGet
	OpInstancePut
	OpStaticGet
	OpStaticPut
	OpInvoke
	OpBinOp2Addr
	OpBinOpLit
	OpUnimplemented
)

type MoveKind int

const (
	MoveSingle MoveKind = iota
	MoveObject
	MoveWide
)

type ReturnKind int

const (
	ReturnVoidKind ReturnKind = iota
	ReturnSingle
	ReturnObject
	ReturnWide
)

// IfKind enumerates the register-vs-register comparators. All six are
// represented here so the IR builder never has to stub the tag itself, only
// its evaluation.
type IfKind int

const (
	IfEq IfKind = iota
	IfNe
	IfLt
	IfGe
	IfGt
	IfLe
)

// GetPutKind distinguishes the width/shape of an array or field access.
type GetPutKind int

const (
	GPSingle GetPutKind = iota
	GPObject
	GPWide
	GPBoolean
	GPByte
	GPChar
	GPShort
)

// InvokeKind records which dex invoke- form produced the call. Virtual,
// Direct and Static are dispatched identically by flat name; there is no
// v-table. The interpreter rejects Super and Interface as unimplemented.
type InvokeKind int

const (
	InvokeVirtual InvokeKind = iota
	InvokeSuper
	InvokeDirect
	InvokeStatic
	InvokeInterface
)

// BinOpKind enumerates the integer ALU ops BinOp2Addr/BinOpLit carry.
type BinOpKind int

const (
	AddInt BinOpKind = iota
	SubInt
	MulInt
	DivInt
	RemInt
	AndInt
	OrInt
	XorInt
	ShlInt
	ShrInt
	UshrInt
)

// Instruction is one emitted interpreter IR instruction. Which fields are
// meaningful depends on Op; see the per-Op doc below each field group.
type Instruction struct {
	Op Op

	Label int // OpLabel

	MoveKind   MoveKind   // OpMoveResult
	ReturnKind ReturnKind // OpReturn
	IfKind     IfKind     // OpIf
	GetPutKind GetPutKind // OpArrayGet/OpInstanceGet/OpInstancePut/OpStaticGet/OpStaticPut
	InvokeKind InvokeKind // OpInvoke
	BinOpKind  BinOpKind  // OpBinOp2Addr/OpBinOpLit

	Reg  int // primary dest (MoveResult/MoveException/ConstSet/NewInstance/ArrayGet dst/InstanceGet dst/StaticGet dst/BinOp2Addr dst-and-src/BinOpLit dst), Return's single/object register
	RegB int // ArrayGet arr / InstanceGet|Put instance / BinOp2Addr|Lit src
	RegC int // ArrayGet idx

	HasReg bool // false for Return(Void) and OpNop/OpLabel, which carry no register operand

	Lit     runtime.Literal // OpConstSet
	LitI32  int32           // OpBinOpLit immediate
	TypeIdx int             // OpNewInstance/OpNewArray
	Size    int             // OpNewArray capacity

	Field      string // OpInstanceGet/OpInstancePut
	StaticName string // OpStaticGet/OpStaticPut

	MethodName string // OpInvoke
	Argc       int    // OpInvoke
	Args       [5]int // OpInvoke register indices

	TargetLabel int // OpGoTo/OpIf

	FillValues []runtime.Value // OpFillArrayData

	Detail string // OpUnimplemented diagnostic
}

// HandlerTable maps an exception type name to the label id to jump to, for
// instructions lexically inside the try-range it was folded from.
type HandlerTable map[string]int

// Stored pairs an emitted instruction with the handler-table index in
// effect when it was emitted (nil if none).
type Stored struct {
	Instr   Instruction
	Handler *int
}
