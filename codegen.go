package dexir

import (
	"fmt"

	"github.com/maekoos/dex-ir/cfa"
	"github.com/maekoos/dex-ir/decode"
	"github.com/maekoos/dex-ir/dexfile"
	"github.com/maekoos/dex-ir/internal/dexerr"
	"github.com/maekoos/dex-ir/internal/dexlog"
	"github.com/maekoos/dex-ir/ir"
	"github.com/maekoos/dex-ir/runtime"
)

// generateCode lowers one method body to interpreter IR: decode the code
// units, analyse control flow, then walk the blocks in order emitting
// labels and instructions into the builder. Every emitted instruction
// inherits its block's handler reference.
func generateCode(c *dexfile.Code, m *dexfile.EncodedMethod, dex *dexfile.DexFile, fnb *ir.FunctionBuilder) error {
	isInstance := !m.AccessFlags.IsStatic()
	nParams := len(m.Proto.Parameters)
	if isInstance {
		nParams++
	}

	fnb.SetNRegs(c.RegistersSize)
	fnb.SetNParams(nParams)
	fnb.SetReturn(m.Proto.ReturnType != "V")

	q := decode.NewCursor(c.Insns)
	var insns []decode.Instruction
	for {
		ins, err := decode.Next(q)
		if err == decode.ErrEOF {
			dexlog.Debug("reached the end of the code stream")
			break
		}
		if err != nil {
			return dexerr.Wrap(err, "decoding code units")
		}
		insns = append(insns, ins)
	}

	blocks, handlers, err := cfa.Analyse(insns, c.Tries)
	if err != nil {
		return dexerr.Wrap(err, "control-flow analysis")
	}

	irHandlers := make([]ir.HandlerTable, len(handlers))
	for i, h := range handlers {
		irHandlers[i] = ir.HandlerTable(h)
	}
	fnb.SetHandlers(irHandlers)

	lastTarget := -1
	for _, id := range cfa.SortedIDs(blocks) {
		block := blocks[id]

		linearOnly := len(block.Entries) == 1 && block.Entries[0] == lastTarget
		if len(block.Entries) != 0 && !linearOnly || block.IsHandler {
			fnb.Label(id)
		}

		for _, ins := range block.Body {
			fnb.SetNextHandler(block.Handler)
			if err := emit(ins, block, dex, fnb); err != nil {
				return err
			}
		}

		lastTarget = id
	}

	return nil
}

// emit translates one decoded instruction into its IR form. Opcodes the
// workload never exercises become unimplemented sentinels: the
// interpreter only reaches them if the source program uses them.
func emit(ins decode.Instruction, block *cfa.BasicBlock, dex *dexfile.DexFile, fnb *ir.FunctionBuilder) error {
	switch ins.Op {
	case decode.OpNop:
		// Alignment padding and blanked payload words; nothing to emit.

	case decode.OpMoveResult:
		fnb.MoveResult(ir.MoveSingle, int(ins.A))
	case decode.OpMoveResultObject:
		fnb.MoveResult(ir.MoveObject, int(ins.A))
	case decode.OpMoveException:
		fnb.MoveException(int(ins.A))

	case decode.OpReturnVoid:
		fnb.ReturnVoid()
	case decode.OpReturn:
		fnb.Return(ir.ReturnSingle, int(ins.A))
	case decode.OpReturnObject:
		fnb.Return(ir.ReturnObject, int(ins.A))

	case decode.OpConst4:
		fnb.ConstSet(int(ins.A), runtime.LitInt32(signExtend4(ins.B)))
	case decode.OpConst16:
		fnb.ConstSet(int(ins.A), runtime.LitInt32(int32(int16(uint16(ins.B)))))
	case decode.OpConstString:
		s, err := stringAt(dex, int(ins.B))
		if err != nil {
			return err
		}
		fnb.ConstSet(int(ins.A), runtime.LitString(s))

	case decode.OpNewInstance:
		fnb.NewInstance(int(ins.A), int(ins.B))
	case decode.OpNewArray:
		fnb.NewArray(int(ins.A), int(ins.B), int(ins.C))
	case decode.OpFillArrayData:
		if err := fnb.FillArrayData(int(ins.A), int(ins.ElementWidth), ins.Data); err != nil {
			return err
		}

	case decode.OpGoto, decode.OpGoto16, decode.OpGoto32:
		fnb.GoTo(block.Exits[0])

	case decode.OpIfEq:
		fnb.If(ir.IfEq, int(ins.A), int(ins.B), block.Exits[1])
	case decode.OpIfNe:
		fnb.If(ir.IfNe, int(ins.A), int(ins.B), block.Exits[1])
	case decode.OpIfLt:
		fnb.If(ir.IfLt, int(ins.A), int(ins.B), block.Exits[1])
	case decode.OpIfGe:
		fnb.If(ir.IfGe, int(ins.A), int(ins.B), block.Exits[1])
	case decode.OpIfGt:
		fnb.If(ir.IfGt, int(ins.A), int(ins.B), block.Exits[1])
	case decode.OpIfLe:
		fnb.If(ir.IfLe, int(ins.A), int(ins.B), block.Exits[1])

	case decode.OpAget:
		fnb.ArrayGet(ir.GPSingle, int(ins.A), int(ins.B), int(ins.C))
	case decode.OpAgetObject:
		fnb.ArrayGet(ir.GPObject, int(ins.A), int(ins.B), int(ins.C))
	case decode.OpAgetBoolean:
		fnb.ArrayGet(ir.GPBoolean, int(ins.A), int(ins.B), int(ins.C))

	case decode.OpIget:
		name, err := fieldName(dex, int(ins.C), false)
		if err != nil {
			return err
		}
		fnb.InstanceGet(ir.GPSingle, int(ins.A), int(ins.B), name)
	case decode.OpIgetObject:
		name, err := fieldName(dex, int(ins.C), false)
		if err != nil {
			return err
		}
		fnb.InstanceGet(ir.GPObject, int(ins.A), int(ins.B), name)
	case decode.OpIput:
		name, err := fieldName(dex, int(ins.C), false)
		if err != nil {
			return err
		}
		fnb.InstancePut(ir.GPSingle, int(ins.A), int(ins.B), name)
	case decode.OpIputObject:
		name, err := fieldName(dex, int(ins.C), false)
		if err != nil {
			return err
		}
		fnb.InstancePut(ir.GPObject, int(ins.A), int(ins.B), name)

	case decode.OpSget:
		name, err := fieldName(dex, int(ins.B), true)
		if err != nil {
			return err
		}
		fnb.StaticGet(ir.GPSingle, int(ins.A), name)
	case decode.OpSgetObject:
		name, err := fieldName(dex, int(ins.B), true)
		if err != nil {
			return err
		}
		fnb.StaticGet(ir.GPObject, int(ins.A), name)
	case decode.OpSput:
		name, err := fieldName(dex, int(ins.B), true)
		if err != nil {
			return err
		}
		fnb.StaticPut(ir.GPSingle, int(ins.A), name)
	case decode.OpSputObject:
		name, err := fieldName(dex, int(ins.B), true)
		if err != nil {
			return err
		}
		fnb.StaticPut(ir.GPObject, int(ins.A), name)

	case decode.OpInvokeVirtual:
		return emitInvoke(ir.InvokeVirtual, ins, dex, fnb)
	case decode.OpInvokeDirect:
		return emitInvoke(ir.InvokeDirect, ins, dex, fnb)
	case decode.OpInvokeStatic:
		return emitInvoke(ir.InvokeStatic, ins, dex, fnb)

	case decode.OpAddInt2Addr:
		fnb.BinOp2Addr(ir.AddInt, int(ins.A), int(ins.B))
	case decode.OpAddIntLit8:
		fnb.BinOpLit(ir.AddInt, int(ins.A), int(ins.B), int32(int8(uint8(ins.C))))
	case decode.OpDivIntLit8:
		fnb.BinOpLit(ir.DivInt, int(ins.A), int(ins.B), int32(int8(uint8(ins.C))))

	default:
		dexlog.Debugf("unimplemented opcode in IR builder: %s", ins.Op)
		fnb.Unimplemented(ins.Op.String())
	}

	return nil
}

func emitInvoke(kind ir.InvokeKind, ins decode.Instruction, dex *dexfile.DexFile, fnb *ir.FunctionBuilder) error {
	name, err := methodFullName(dex, int(ins.B))
	if err != nil {
		return err
	}

	var args [5]int
	for i, a := range ins.Args {
		args[i] = int(a)
	}
	fnb.Invoke(kind, name, int(ins.Argc), args)
	return nil
}

func stringAt(dex *dexfile.DexFile, idx int) (string, error) {
	if idx < 0 || idx >= len(dex.Strings) {
		return "", fmt.Errorf("string index %d out of range", idx)
	}
	return dex.Strings[idx], nil
}

func methodFullName(dex *dexfile.DexFile, idx int) (string, error) {
	if idx < 0 || idx >= len(dex.Methods) {
		return "", fmt.Errorf("method index %d out of range", idx)
	}
	m := dex.Methods[idx]
	return MethodKey(m.Definer, m.Name), nil
}

// fieldName resolves a field-pool index. Statics use the flat namespaced
// key; instance fields keep their plain name.
func fieldName(dex *dexfile.DexFile, idx int, isStatic bool) (string, error) {
	if idx < 0 || idx >= len(dex.Fields) {
		return "", fmt.Errorf("field index %d out of range", idx)
	}
	f := dex.Fields[idx]
	if isStatic {
		return StaticKey(f.Definer, f.Name), nil
	}
	return f.Name, nil
}

// signExtend4 widens a const/4 nibble to its signed 32-bit value.
func signExtend4(v uint32) int32 {
	if v&0x8 != 0 {
		return int32(v) - 16
	}
	return int32(v)
}
