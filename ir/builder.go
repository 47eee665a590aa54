package ir

import "github.com/maekoos/dex-ir/runtime"

// FunctionBuilder accumulates emitted instructions for one method, tagging
// each with whichever handler table is in effect when it is pushed.
type FunctionBuilder struct {
	nRegs     int
	nParams   int
	hasReturn bool

	instructions []Stored
	nextHandler  *int
	handlers     []HandlerTable
}

func NewFunctionBuilder() *FunctionBuilder {
	return &FunctionBuilder{}
}

func (b *FunctionBuilder) SetNRegs(n int)       { b.nRegs = n }
func (b *FunctionBuilder) SetNParams(n int)     { b.nParams = n }
func (b *FunctionBuilder) SetReturn(hasRet bool) { b.hasReturn = hasRet }
func (b *FunctionBuilder) SetHandlers(h []HandlerTable) { b.handlers = h }

// SetNextHandler arms the handler index that the next pushed instruction
// will be tagged with; consumed (cleared) by that push.
func (b *FunctionBuilder) SetNextHandler(h *int) { b.nextHandler = h }

func (b *FunctionBuilder) push(instr Instruction) {
	b.instructions = append(b.instructions, Stored{Instr: instr, Handler: b.nextHandler})
	b.nextHandler = nil
}

func (b *FunctionBuilder) Label(id int) { b.push(Instruction{Op: OpLabel, Label: id}) }
func (b *FunctionBuilder) Nop()         { b.push(Instruction{Op: OpNop}) }

func (b *FunctionBuilder) MoveResult(kind MoveKind, reg int) {
	b.push(Instruction{Op: OpMoveResult, MoveKind: kind, Reg: reg, HasReg: true})
}

func (b *FunctionBuilder) MoveException(reg int) {
	b.push(Instruction{Op: OpMoveException, Reg: reg, HasReg: true})
}

func (b *FunctionBuilder) ReturnVoid() {
	b.push(Instruction{Op: OpReturn, ReturnKind: ReturnVoidKind})
}

func (b *FunctionBuilder) Return(kind ReturnKind, reg int) {
	b.push(Instruction{Op: OpReturn, ReturnKind: kind, Reg: reg, HasReg: true})
}

func (b *FunctionBuilder) ConstSet(reg int, lit runtime.Literal) {
	b.push(Instruction{Op: OpConstSet, Reg: reg, HasReg: true, Lit: lit})
}

func (b *FunctionBuilder) NewInstance(reg, typeIdx int) {
	b.push(Instruction{Op: OpNewInstance, Reg: reg, HasReg: true, TypeIdx: typeIdx})
}

func (b *FunctionBuilder) NewArray(reg, size, typeIdx int) {
	b.push(Instruction{Op: OpNewArray, Reg: reg, HasReg: true, Size: size, TypeIdx: typeIdx})
}

// FillArrayData converts the raw payload bytes the decoder produced into
// Values according to elementWidth (1 or 4) and emits the IR instruction.
func (b *FunctionBuilder) FillArrayData(reg int, elementWidth int, data []byte) error {
	values, err := decodeArrayData(elementWidth, data)
	if err != nil {
		return err
	}
	b.push(Instruction{Op: OpFillArrayData, Reg: reg, HasReg: true, FillValues: values})
	return nil
}

func (b *FunctionBuilder) GoTo(targetLabel int) {
	b.push(Instruction{Op: OpGoTo, TargetLabel: targetLabel})
}

func (b *FunctionBuilder) If(kind IfKind, a, bReg, targetLabel int) {
	b.push(Instruction{Op: OpIf, IfKind: kind, Reg: a, RegB: bReg, TargetLabel: targetLabel, HasReg: true})
}

func (b *FunctionBuilder) ArrayGet(kind GetPutKind, dst, arr, idx int) {
	b.push(Instruction{Op: OpArrayGet, GetPutKind: kind, Reg: dst, RegB: arr, RegC: idx, HasReg: true})
}

func (b *FunctionBuilder) InstanceGet(kind GetPutKind, dst, inst int, field string) {
	b.push(Instruction{Op: OpInstanceGet, GetPutKind: kind, Reg: dst, RegB: inst, Field: field, HasReg: true})
}

func (b *FunctionBuilder) InstancePut(kind GetPutKind, src, inst int, field string) {
	b.push(Instruction{Op: OpInstancePut, GetPutKind: kind, Reg: src, RegB: inst, Field: field, HasReg: true})
}

func (b *FunctionBuilder) StaticGet(kind GetPutKind, reg int, name string) {
	b.push(Instruction{Op: OpStaticGet, GetPutKind: kind, Reg: reg, StaticName: name, HasReg: true})
}

func (b *FunctionBuilder) StaticPut(kind GetPutKind, reg int, name string) {
	b.push(Instruction{Op: OpStaticPut, GetPutKind: kind, Reg: reg, StaticName: name, HasReg: true})
}

func (b *FunctionBuilder) Invoke(kind InvokeKind, name string, argc int, args [5]int) {
	b.push(Instruction{Op: OpInvoke, InvokeKind: kind, MethodName: name, Argc: argc, Args: args})
}

func (b *FunctionBuilder) BinOp2Addr(kind BinOpKind, dstAndSrc, src int) {
	b.push(Instruction{Op: OpBinOp2Addr, BinOpKind: kind, Reg: dstAndSrc, RegB: src, HasReg: true})
}

func (b *FunctionBuilder) BinOpLit(kind BinOpKind, dst, src int, lit int32) {
	b.push(Instruction{Op: OpBinOpLit, BinOpKind: kind, Reg: dst, RegB: src, LitI32: lit, HasReg: true})
}

// Unimplemented records an opcode the IR builder recognised in the decoder
// output but chose not to translate. The interpreter only reaches the
// sentinel if the source program actually uses the opcode.
func (b *FunctionBuilder) Unimplemented(detail string) {
	b.push(Instruction{Op: OpUnimplemented, Detail: detail})
}

// Function is the finished body of an Interpreted method.
type Function struct {
	NRegs        int
	NParams      int
	HasReturn    bool
	Instructions []Stored
	Handlers     []HandlerTable
}

func (b *FunctionBuilder) Build() *Function {
	return &Function{
		NRegs:        b.nRegs,
		NParams:      b.nParams,
		HasReturn:    b.hasReturn,
		Instructions: b.instructions,
		Handlers:     b.handlers,
	}
}

func decodeArrayData(elementWidth int, data []byte) ([]runtime.Value, error) {
	switch elementWidth {
	case 1:
		out := make([]runtime.Value, len(data))
		for i, bt := range data {
			out[i] = runtime.VI32(int32(bt)) // zero-extension
		}
		return out, nil
	case 4:
		if len(data)%4 != 0 {
			return nil, errArrayDataUneven
		}
		out := make([]runtime.Value, len(data)/4)
		for i := range out {
			v := int32(data[i*4]) | int32(data[i*4+1])<<8 | int32(data[i*4+2])<<16 | int32(data[i*4+3])<<24
			out[i] = runtime.VI32(v)
		}
		return out, nil
	case 0:
		return nil, errArrayDataZeroWidth
	default:
		return nil, errArrayDataWidthUnsupported
	}
}
