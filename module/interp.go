package module

import (
	"fmt"

	"github.com/maekoos/dex-ir/internal/dexerr"
	"github.com/maekoos/dex-ir/internal/dexlog"
	"github.com/maekoos/dex-ir/ir"
	"github.com/maekoos/dex-ir/runtime"
)

// frame is the runtime state of one in-progress interpreted call.
type frame struct {
	fn        *ir.Function
	registers []runtime.Value
	labels    map[int]int

	returnValue  runtime.Value
	curException *runtime.Instance

	cs  *CallStack
	env *Module
}

// frameResult lets instruction handlers terminate the frame: res is nil
// while execution should continue.
type frameResult struct {
	res InvokeResult
}

// runInterpreted executes one interpreted function: bind parameters,
// index labels, then fetch/execute until a return, a propagated error, or
// the end of the instruction list (which yields Ok(Void), covering void
// methods whose ReturnVoid is not the literal last slot).
func runInterpreted(fn *ir.Function, params []runtime.Value, cs *CallStack, env *Module) InvokeResult {
	if len(params) != fn.NParams {
		return runtimeErr(dexerr.NewWrongNumberOfParameters(fn.NParams, len(params)), cs)
	}

	f := &frame{
		fn:        fn,
		registers: make([]runtime.Value, fn.NRegs),
		labels:    make(map[int]int),
		cs:        cs,
		env:       env,
	}
	for i := range f.registers {
		f.registers[i] = runtime.VVoid{}
	}
	// Parameters occupy the highest-numbered registers.
	for i, p := range params {
		f.registers[fn.NRegs-fn.NParams+i] = p
	}
	f.returnValue = runtime.VVoid{}

	for i, stored := range fn.Instructions {
		if stored.Instr.Op == ir.OpLabel {
			f.labels[stored.Instr.Label] = i
		}
	}

	pc := 0
	for pc < len(fn.Instructions) {
		stored := fn.Instructions[pc]
		pc++

		if r := f.step(stored, &pc); r.res != nil {
			return r.res
		}
	}

	return Ok{Value: runtime.VVoid{}}
}

func (f *frame) step(stored ir.Stored, pc *int) frameResult {
	ins := stored.Instr

	switch ins.Op {
	case ir.OpLabel, ir.OpNop:

	case ir.OpMoveResult:
		return f.moveResult(ins)

	case ir.OpMoveException:
		if f.curException == nil {
			return f.fail(dexerr.NewUnimplemented("move-exception without a pending exception"))
		}
		if r := f.set(ins.Reg, runtime.VInstance{Inst: f.curException}); r.res != nil {
			return r
		}
		f.curException = nil

	case ir.OpReturn:
		return f.returnFrom(ins)

	case ir.OpConstSet:
		return f.set(ins.Reg, runtime.ToValue(ins.Lit))

	case ir.OpGoTo:
		return f.jump(ins.TargetLabel, pc)

	case ir.OpIf:
		return f.ifTest(ins, pc)

	case ir.OpNewInstance:
		return f.set(ins.Reg, runtime.VInstance{Inst: runtime.NewInstance()})

	case ir.OpNewArray:
		return f.set(ins.Reg, runtime.NewVoidArray(ins.Size))

	case ir.OpFillArrayData:
		values := make([]runtime.Value, len(ins.FillValues))
		copy(values, ins.FillValues)
		return f.set(ins.Reg, runtime.VArray{Elements: values})

	case ir.OpArrayGet:
		return f.arrayGet(ins)

	case ir.OpInstanceGet:
		return f.instanceGet(ins)

	case ir.OpInstancePut:
		return f.instancePut(ins)

	case ir.OpStaticGet:
		return f.staticGet(ins)

	case ir.OpStaticPut:
		return f.staticPut(ins)

	case ir.OpInvoke:
		return f.invoke(ins, stored, pc)

	case ir.OpBinOp2Addr:
		return f.binOp2Addr(ins)

	case ir.OpBinOpLit:
		return f.binOpLit(ins, stored, pc)

	case ir.OpUnimplemented:
		return f.fail(dexerr.NewUnimplemented(ins.Detail))

	default:
		return f.fail(dexerr.NewUnimplemented(fmt.Sprintf("interpreter op %d", ins.Op)))
	}

	return frameResult{}
}

// get reads a register, failing the frame on an out-of-range index.
func (f *frame) get(idx int) (runtime.Value, frameResult) {
	if idx < 0 || idx >= len(f.registers) {
		return nil, f.fail(dexerr.NewRegisterOutOfBounds())
	}
	return f.registers[idx], frameResult{}
}

// set writes a register, failing the frame on an out-of-range index.
func (f *frame) set(idx int, v runtime.Value) frameResult {
	if idx < 0 || idx >= len(f.registers) {
		return f.fail(dexerr.NewRegisterOutOfBounds())
	}
	f.registers[idx] = v
	return frameResult{}
}

func (f *frame) fail(err *dexerr.RuntimeError) frameResult {
	return frameResult{res: runtimeErr(err, f.cs)}
}

// jump moves the program counter to a label, failing on unknown targets.
func (f *frame) jump(label int, pc *int) frameResult {
	idx, ok := f.labels[label]
	if !ok {
		return f.fail(dexerr.NewBadJumpTarget())
	}
	*pc = idx
	return frameResult{}
}

// throw routes an exception through the current instruction's handler
// table. No handler reference, or no entry matching the exception's type,
// terminates the frame with a catchable Exception; a declared target with
// no label is a structural error.
func (f *frame) throw(e *runtime.Instance, stored ir.Stored, pc *int) frameResult {
	if stored.Handler == nil {
		return frameResult{res: Exception{Instance: e, Stack: f.cs}}
	}

	handlerIdx := *stored.Handler
	if handlerIdx < 0 || handlerIdx >= len(f.fn.Handlers) {
		return f.fail(dexerr.NewBadJumpTarget())
	}
	dexlog.Debugf("throw exception to handler %d", handlerIdx)

	for typeName, target := range f.fn.Handlers[handlerIdx] {
		if !f.env.TypeMatches(e.TypeName, typeName) {
			continue
		}
		dexlog.Debugf("found a suitable handler: %d", target)

		f.curException = e
		return f.jump(target, pc)
	}

	return frameResult{res: Exception{Instance: e, Stack: f.cs}}
}

func (f *frame) moveResult(ins ir.Instruction) frameResult {
	switch ins.MoveKind {
	case ir.MoveSingle:
		if _, ok := f.returnValue.(runtime.VI32); !ok {
			dexlog.Warnf("move-result expected a single value, got %T", f.returnValue)
		}
	case ir.MoveObject:
		if _, ok := f.returnValue.(runtime.VInstance); !ok {
			dexlog.Warnf("move-result expected an instance, got %T", f.returnValue)
		}
	case ir.MoveWide:
		return f.fail(dexerr.NewUnimplemented("move-result-wide"))
	}

	if r := f.set(ins.Reg, f.returnValue); r.res != nil {
		return r
	}
	f.returnValue = runtime.VVoid{}
	return frameResult{}
}

func (f *frame) returnFrom(ins ir.Instruction) frameResult {
	switch ins.ReturnKind {
	case ir.ReturnVoidKind:
		return frameResult{res: Ok{Value: runtime.VVoid{}}}
	case ir.ReturnSingle:
		v, r := f.get(ins.Reg)
		if r.res != nil {
			return r
		}
		return frameResult{res: Ok{Value: runtime.VI32(v.ToSingle())}}
	case ir.ReturnObject:
		v, r := f.get(ins.Reg)
		if r.res != nil {
			return r
		}
		return frameResult{res: Ok{Value: v}}
	default:
		return f.fail(dexerr.NewUnimplemented("return-wide"))
	}
}

func (f *frame) ifTest(ins ir.Instruction, pc *int) frameResult {
	va, r := f.get(ins.Reg)
	if r.res != nil {
		return r
	}
	vb, r := f.get(ins.RegB)
	if r.res != nil {
		return r
	}

	a, okA := va.(runtime.VI32)
	b, okB := vb.(runtime.VI32)
	if !okA || !okB {
		return f.fail(dexerr.NewUnimplemented(fmt.Sprintf("if over %T and %T", va, vb)))
	}

	var cond bool
	switch ins.IfKind {
	case ir.IfEq:
		cond = a == b
	case ir.IfNe:
		cond = a != b
	case ir.IfLt:
		cond = a < b
	case ir.IfGe:
		cond = a >= b
	case ir.IfGt:
		cond = a > b
	case ir.IfLe:
		cond = a <= b
	}

	if cond {
		return f.jump(ins.TargetLabel, pc)
	}
	return frameResult{}
}

func (f *frame) arrayGet(ins ir.Instruction) frameResult {
	idxVal, r := f.get(ins.RegC)
	if r.res != nil {
		return r
	}
	idx, ok := idxVal.(runtime.VI32)
	if !ok {
		return f.fail(dexerr.NewCastError(fmt.Sprintf("%T as index", idxVal)))
	}

	arrVal, r := f.get(ins.RegB)
	if r.res != nil {
		return r
	}
	arr, ok := arrVal.(runtime.VArray)
	if !ok {
		return f.fail(dexerr.NewCastError(fmt.Sprintf("%T as array", arrVal)))
	}

	switch ins.GetPutKind {
	case ir.GPSingle, ir.GPBoolean, ir.GPObject:
		if int(idx) < 0 || int(idx) >= len(arr.Elements) {
			// Bounds failures should eventually throw; fatal for now.
			return f.fail(dexerr.NewUnimplemented(fmt.Sprintf("array index %d out of bounds (len %d)", idx, len(arr.Elements))))
		}
		return f.set(ins.Reg, arr.Elements[idx])
	default:
		return f.fail(dexerr.NewUnimplemented("aget kind"))
	}
}

func (f *frame) instanceGet(ins ir.Instruction) frameResult {
	objVal, r := f.get(ins.RegB)
	if r.res != nil {
		return r
	}
	obj, ok := objVal.(runtime.VInstance)
	if !ok {
		dexlog.Error("error originated in instance-get")
		return f.fail(dexerr.NewCastError(fmt.Sprintf("%T as instance", objVal)))
	}

	fieldValue, found := obj.Inst.GetField(ins.Field)
	if !found {
		if f.env.cfg.StrictFields {
			return f.fail(dexerr.NewUnknownField(ins.Field))
		}
		dexlog.Warnf("access to un-set field %q", ins.Field)
		fieldValue = runtime.VVoid{}
	}

	switch ins.GetPutKind {
	case ir.GPSingle:
		if _, ok := fieldValue.(runtime.VI32); !ok {
			if f.env.cfg.StrictFields {
				return f.fail(dexerr.NewCastError(fmt.Sprintf("%T as single", fieldValue)))
			}
			dexlog.Warn("ignoring cast-error while running instance get - single")
		}
	case ir.GPObject:
		if _, ok := fieldValue.(runtime.VInstance); !ok {
			if f.env.cfg.StrictFields {
				return f.fail(dexerr.NewCastError(fmt.Sprintf("%T as instance", fieldValue)))
			}
			dexlog.Warn("ignoring cast-error while running instance get - object")
		}
	default:
		return f.fail(dexerr.NewUnimplemented("iget kind"))
	}

	return f.set(ins.Reg, fieldValue)
}

func (f *frame) instancePut(ins ir.Instruction) frameResult {
	objVal, r := f.get(ins.RegB)
	if r.res != nil {
		return r
	}
	obj, ok := objVal.(runtime.VInstance)
	if !ok {
		dexlog.Error("error originated in instance-put")
		return f.fail(dexerr.NewCastError(fmt.Sprintf("%T as instance", objVal)))
	}

	src, r := f.get(ins.Reg)
	if r.res != nil {
		return r
	}

	switch ins.GetPutKind {
	case ir.GPSingle:
		if _, ok := src.(runtime.VI32); !ok {
			if f.env.cfg.StrictFields {
				return f.fail(dexerr.NewCastError(fmt.Sprintf("%T as single", src)))
			}
			dexlog.Warn("ignoring cast error (-> single)")
		}
	case ir.GPObject:
		if _, ok := src.(runtime.VInstance); !ok {
			if f.env.cfg.StrictFields {
				return f.fail(dexerr.NewCastError(fmt.Sprintf("%T as instance", src)))
			}
			dexlog.Warn("ignoring cast error (-> instance)")
		}
	default:
		return f.fail(dexerr.NewUnimplemented("iput kind"))
	}

	obj.Inst.PutField(ins.Field, src)
	return frameResult{}
}

func (f *frame) staticGet(ins ir.Instruction) frameResult {
	v, found := f.env.GetStatic(ins.StaticName)
	if !found {
		if f.env.cfg.StrictFields {
			return f.fail(dexerr.NewUnknownStatic(ins.StaticName))
		}
		dexlog.Warnf("could not find the specified static variable: %s", ins.StaticName)
		v = runtime.VVoid{}
	}

	switch ins.GetPutKind {
	case ir.GPSingle, ir.GPObject:
		return f.set(ins.Reg, v)
	default:
		return f.fail(dexerr.NewUnimplemented("sget kind"))
	}
}

func (f *frame) staticPut(ins ir.Instruction) frameResult {
	v, r := f.get(ins.Reg)
	if r.res != nil {
		return r
	}

	// Writes normally declare a static on first use; strict mode requires
	// the declaration to already exist.
	if f.env.cfg.StrictFields {
		if _, found := f.env.GetStatic(ins.StaticName); !found {
			return f.fail(dexerr.NewUnknownStatic(ins.StaticName))
		}
	}

	switch ins.GetPutKind {
	case ir.GPSingle, ir.GPObject:
		f.env.SetStatic(ins.StaticName, v)
		return frameResult{}
	default:
		return f.fail(dexerr.NewUnimplemented("sput kind"))
	}
}

func (f *frame) invoke(ins ir.Instruction, stored ir.Stored, pc *int) frameResult {
	switch ins.InvokeKind {
	case ir.InvokeDirect, ir.InvokeStatic, ir.InvokeVirtual:
	default:
		return f.fail(dexerr.NewUnimplemented("invoke kind"))
	}

	args := make([]runtime.Value, 0, ins.Argc)
	for i := 0; i < ins.Argc; i++ {
		v, r := f.get(ins.Args[i])
		if r.res != nil {
			return r
		}
		args = append(args, v)
	}

	cs := Extend(ins.MethodName, f.cs)
	switch rv := f.env.Invoke(ins.MethodName, cs, args).(type) {
	case Ok:
		f.returnValue = rv.Value
	case Exception:
		r := f.throw(rv.Instance, stored, pc)
		if exc, ok := r.res.(Exception); ok {
			// Uncaught here: keep the stack of the original throw site.
			exc.Stack = rv.Stack
			return frameResult{res: exc}
		}
		return r
	default:
		return frameResult{res: rv}
	}
	return frameResult{}
}

func (f *frame) binOp2Addr(ins ir.Instruction) frameResult {
	dst, r := f.get(ins.Reg)
	if r.res != nil {
		return r
	}
	src, r := f.get(ins.RegB)
	if r.res != nil {
		return r
	}

	switch ins.BinOpKind {
	case ir.AddInt:
		return f.set(ins.Reg, runtime.VI32(dst.ToSingle()+src.ToSingle()))
	default:
		return f.fail(dexerr.NewUnimplemented(fmt.Sprintf("binop/2addr kind %d", ins.BinOpKind)))
	}
}

func (f *frame) binOpLit(ins ir.Instruction, stored ir.Stored, pc *int) frameResult {
	src, r := f.get(ins.RegB)
	if r.res != nil {
		return r
	}

	switch ins.BinOpKind {
	case ir.AddInt:
		return f.set(ins.Reg, runtime.VI32(src.ToSingle()+ins.LitI32))
	case ir.DivInt:
		if ins.LitI32 == 0 {
			e := runtime.NewInstance()
			e.TypeName = "Ljava/lang/ArithmeticException;"
			e.PutField("value", runtime.ToValue(runtime.LitString("/ by zero")))
			return f.throw(e, stored, pc)
		}
		return f.set(ins.Reg, runtime.VI32(src.ToSingle()/ins.LitI32))
	default:
		return f.fail(dexerr.NewUnimplemented(fmt.Sprintf("binop/lit kind %d", ins.BinOpKind)))
	}
}
