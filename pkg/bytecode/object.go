package bytecode

// ObjType tags the eight heap-object variants glox allocates. Value's
// IsObjType checks this tag; the marking and printing paths use Go type
// switches on the concrete variant instead.
type ObjType uint8

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeUpvalue
	ObjTypeClosure
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

func (t ObjType) String() string {
	switch t {
	case ObjTypeString:
		return "String"
	case ObjTypeFunction:
		return "Function"
	case ObjTypeNative:
		return "Native"
	case ObjTypeUpvalue:
		return "Upvalue"
	case ObjTypeClosure:
		return "Closure"
	case ObjTypeClass:
		return "Class"
	case ObjTypeInstance:
		return "Instance"
	case ObjTypeBoundMethod:
		return "BoundMethod"
	default:
		return "Unknown"
	}
}

// Obj is the common interface every heap object satisfies: a type tag plus
// the mark bit and allocation-list link the garbage collector needs. Every
// concrete type embeds the same objHeader, which supplies the mark-bit and
// allocation-link methods.
type Obj interface {
	Type() ObjType
	IsMarked() bool
	SetMarked(bool)
	Next() Obj
	SetNext(Obj)
}

// objHeader is embedded in every concrete Obj variant. It is unexported:
// code outside this package reaches the mark bit and allocation link only
// through the Obj interface, the same way the collector does.
type objHeader struct {
	marked bool
	next   Obj
}

func (h *objHeader) IsMarked() bool  { return h.marked }
func (h *objHeader) SetMarked(m bool) { h.marked = m }
func (h *objHeader) Next() Obj       { return h.next }
func (h *objHeader) SetNext(o Obj)   { h.next = o }

// ObjString is glox's immutable, interned string. Two strings with equal
// bytes are always the same *ObjString once interned, which is what makes
// Value's Obj-identity equality correct for strings.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *ObjString) Type() ObjType { return ObjTypeString }

// HashString computes the FNV-1a hash glox uses for both the intern table
// and the general-purpose Table.
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// ObjFunction is a compiled function body: its arity, the number of
// upvalues its closures must allocate, its own Chunk, and an optional name
// (nil for the top-level script function).
type ObjFunction struct {
	objHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString
}

func (f *ObjFunction) Type() ObjType { return ObjTypeFunction }

// NativeFn is the signature every native (host-implemented) function must
// have: it receives its arguments as a slice and returns a single Value,
// or a non-nil error that the VM raises as a runtime error. It must not trigger garbage collection other than through the VM's
// standard allocator.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a host function so it can be called like any other
// glox-level callable.
type ObjNative struct {
	objHeader
	Name    string
	Arity   int
	Fn      NativeFn
}

func (n *ObjNative) Type() ObjType { return ObjTypeNative }

// ObjUpvalue is a captured-variable cell. While Open is true, StackSlot
// indexes the owning VM's operand stack; once closed, the value lives in
// Closed instead and StackSlot is meaningless. Reads/writes of an upvalue
// go through the VM (vm.readUpvalue/writeUpvalue) since that's the only
// place that has the stack to index into: a slot index here stands in for
// a raw pointer, keeping the implementation free of unsafe.Pointer while
// preserving the same open/closed state machine and sharing-by-identity
// behavior.
type ObjUpvalue struct {
	objHeader
	Open      bool
	StackSlot int
	Closed    Value
	Next      *ObjUpvalue // intrusive link in the VM's open-upvalue list
}

func (u *ObjUpvalue) Type() ObjType { return ObjTypeUpvalue }

// ObjClosure pairs a Function with the upvalues it captured at creation
// time. It is a non-owning reference to the Function — functions are
// shared by every closure created from the same CLOSURE opcode site.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) Type() ObjType { return ObjTypeClosure }

// ObjClass is a named bag of methods. Single inheritance is implemented by
// copying the superclass's method table into the subclass's at the
// INHERIT opcode; there is no runtime superclass chain walk except for
// GET_SUPER/SUPER_INVOKE, which look the method up on the explicit
// superclass object the compiler threads through.
type ObjClass struct {
	objHeader
	Name    *ObjString
	Methods Table
}

func (c *ObjClass) Type() ObjType { return ObjTypeClass }

// ObjInstance is an object of some Class, with its own field table.
type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields Table
}

func (i *ObjInstance) Type() ObjType { return ObjTypeInstance }

// ObjBoundMethod fuses a receiver with a method closure, produced by
// GET_PROPERTY when the named property is a method rather than a field.
type ObjBoundMethod struct {
	objHeader
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) Type() ObjType { return ObjTypeBoundMethod }
