// Package dexfile declares the pre-parsed dex container model this module
// consumes. Parsing the binary container (string pool, type pool, method
// pool, class definitions) is an external collaborator's job; everything
// here arrives with strings already resolved and indices already checked
// against their pools.
package dexfile

// AccessFlags is the subset of method access flags the code generator
// cares about.
type AccessFlags uint32

const (
	AccPublic AccessFlags = 0x1
	AccStatic AccessFlags = 0x8
)

func (f AccessFlags) IsStatic() bool { return f&AccStatic != 0 }

// FieldRef resolves a field-pool index: the defining class's type
// descriptor and the field's plain name.
type FieldRef struct {
	Definer string
	Name    string
}

// MethodRef resolves a method-pool index.
type MethodRef struct {
	Definer string
	Name    string
}

// Prototype is a method's declared shape. Parameter and return types are
// dex type descriptors ("I", "V", "Ljava/lang/String;", ...).
type Prototype struct {
	Parameters []string
	ReturnType string
}

// TryHandler is one typed catch arm: the exception type descriptor and the
// word-address of the handler's first instruction.
type TryHandler struct {
	TypeName string
	Addr     uint32
}

// Try is one try-range in a method's try-table. StartAddr and InsnCount
// are in 16-bit code units, not instructions.
type Try struct {
	StartAddr uint32
	InsnCount uint16
	Handlers  []TryHandler
}

// Code is a method's executable body: the register count, the raw 16-bit
// code units, and the try-table.
type Code struct {
	RegistersSize int
	Insns         []uint16
	Tries         []Try
}

// EncodedMethod pairs a method's identity with its (optional) code.
// Abstract and native methods carry a nil Code.
type EncodedMethod struct {
	Name        string
	Proto       Prototype
	AccessFlags AccessFlags
	Code        *Code
}

// ClassDef is one class definition: its type descriptor and its methods.
type ClassDef struct {
	Type    string
	Methods []EncodedMethod
}

// DexFile is the whole pre-parsed container. Strings, Fields and Methods
// are the flat pools that instruction operands index into.
type DexFile struct {
	Strings []string
	Types   []string
	Fields  []FieldRef
	Methods []MethodRef
	Classes []ClassDef
}
