// Package bytecode defines the data glox's virtual machine operates on:
// the tagged Value type, the heap Object variants, the per-function Chunk
// of compiled instructions, and the open-addressed Table used for globals,
// method tables, field tables, and the string-intern table.
//
// These four types are kept in one package deliberately. Chunk holds
// Values in its constant pool, Object variants (Function, Instance, Class)
// hold Chunks and Tables, and Table is keyed by interned String objects —
// they are tightly coupled, and splitting them across packages would mean
// either import cycles or an exported-everything escape hatch that buys
// nothing.
package bytecode

import "math"

// ValueKind tags the four variants a Value can hold.
type ValueKind uint8

const (
	ValNil ValueKind = iota
	ValBool
	ValNumber
	ValObj
)

// Value is glox's tagged dynamic value. It is a plain struct rather than
// an interface so that Nil, Bool, and Number values never allocate or box;
// only ValObj carries a pointer onto the managed heap.
type Value struct {
	Kind   ValueKind
	Bool   bool
	Number float64
	Obj    Obj
}

// NilVal is the singleton nil value.
var NilVal = Value{Kind: ValNil}

func BoolVal(b bool) Value   { return Value{Kind: ValBool, Bool: b} }
func NumberVal(n float64) Value { return Value{Kind: ValNumber, Number: n} }
func ObjVal(o Obj) Value     { return Value{Kind: ValObj, Obj: o} }

func (v Value) IsNil() bool    { return v.Kind == ValNil }
func (v Value) IsBool() bool   { return v.Kind == ValBool }
func (v Value) IsNumber() bool { return v.Kind == ValNumber }
func (v Value) IsObj() bool    { return v.Kind == ValObj }

func (v Value) IsObjType(t ObjType) bool {
	return v.Kind == ValObj && v.Obj.Type() == t
}

// IsFalsey implements glox's truthiness rule: nil and false are falsey,
// everything else — including 0 and "" — is truthy.
func (v Value) IsFalsey() bool {
	return v.Kind == ValNil || (v.Kind == ValBool && !v.Bool)
}

// ValuesEqual is structural for Nil/Bool/Number and reference (identity)
// equality for Obj: two strings compare equal only when they are the same
// interned object.
func ValuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValNil:
		return true
	case ValBool:
		return a.Bool == b.Bool
	case ValNumber:
		return a.Number == b.Number // NaN != NaN falls out of IEEE-754 ==
	case ValObj:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// IsNaN reports whether a numeric value is the IEEE-754 NaN.
func (v Value) IsNaN() bool {
	return v.Kind == ValNumber && math.IsNaN(v.Number)
}
