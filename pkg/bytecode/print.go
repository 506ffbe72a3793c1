package bytecode

import (
	"strconv"
)

// ValueString renders v the way PRINT and the disassembler do: numbers in
// minimal decimal form, booleans as true/false, nil as "nil", strings as
// their raw bytes, and every callable/class kind with the conventional
// bracketed form. Upvalues are never printed — there is no source-level
// expression that can produce one.
func ValueString(v Value) string {
	switch v.Kind {
	case ValNil:
		return "nil"
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case ValObj:
		return ObjString_(v.Obj)
	default:
		return "<invalid value>"
	}
}

// ObjString_ renders a heap object the way PRINT does. Named with a
// trailing underscore to avoid colliding with the ObjString type.
func ObjString_(o Obj) string {
	switch obj := o.(type) {
	case *ObjString:
		return obj.Chars
	case *ObjFunction:
		if obj.Name == nil {
			return "<script>"
		}
		return "<fn " + obj.Name.Chars + ">"
	case *ObjNative:
		return "<native fn>"
	case *ObjClosure:
		return ObjString_(obj.Function)
	case *ObjClass:
		return obj.Name.Chars
	case *ObjInstance:
		return obj.Class.Name.Chars + " instance"
	case *ObjBoundMethod:
		return ObjString_(obj.Method)
	case *ObjUpvalue:
		return "<upvalue>"
	default:
		return "<obj>"
	}
}
