package runtime

// Literal is the sum type ConstSet carries before it is materialised into a
// Value: Int32 | Wide64 | String(utf8) | Class(type-index).
type Literal interface {
	literal()
}

type LitInt32 int32
type LitWide64 int64
type LitString string
type LitClass int

func (LitInt32) literal()  {}
func (LitWide64) literal() {}
func (LitString) literal() {}
func (LitClass) literal()  {}

// stringLiteralType is the distinguished type name a String literal
// materialises as; println and friends recognise it.
const stringLiteralType = "java_lang_string"

// ToValue converts a Literal to a Value. A String literal always allocates
// a fresh Instance; subsequent identity is by reference, not by value.
func ToValue(lit Literal) Value {
	switch v := lit.(type) {
	case LitInt32:
		return VI32(v)
	case LitWide64:
		return VI64(v)
	case LitString:
		inst := NewInstance()
		inst.TypeName = stringLiteralType
		chars := make([]Value, 0, len(string(v)))
		for _, r := range string(v) {
			chars = append(chars, VChar(r))
		}
		inst.PutField("data", VArray{Elements: chars})
		return VInstance{Inst: inst}
	case LitClass:
		// Class literals are otherwise out of this core's scope (no
		// reflection); represented as their raw type index so a program
		// that merely threads one through to a native stub still runs.
		return VI32(int32(v))
	default:
		return VVoid{}
	}
}

// StringFromInstance reverses the String literal conversion: reads the
// "data" field of a java_lang_string instance and concatenates its Chars.
// Used by the standard environment's println.
func StringFromInstance(inst *Instance) (string, bool) {
	if inst.TypeName != stringLiteralType {
		return "", false
	}
	v, ok := inst.GetField("data")
	if !ok {
		return "", false
	}
	arr, ok := v.(VArray)
	if !ok {
		return "", false
	}
	out := make([]rune, 0, len(arr.Elements))
	for _, e := range arr.Elements {
		c, ok := e.(VChar)
		if !ok {
			return "", false
		}
		out = append(out, rune(c))
	}
	return string(out), true
}
