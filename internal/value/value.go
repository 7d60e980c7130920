// Package value implements the Faeyne runtime value model: the tagged sum
// type of Nil, Bool, Atom, String, Int, Float, and Function, plus the value
// stack those values are pushed onto and popped off during interpretation.
// The stack is a slice of Value cells, not a byte buffer (see stack.go).
//
// Grounded on original_source/src/value.rs (ValueType/IRValue, the
// push/pop_TYPE contract) and original_source/src/stack.rs (the aligned
// byte buffer), translated into a Go-idiomatic tagged struct the way the
// teacher's internal/vm/value.go models its own Value as a small closed set
// of variants rather than a boxed interface for the hot path.
package value

import (
	"fmt"
	"faeyne/internal/bytecode"
	"faeyne/internal/strtable"
)

// Tag identifies which variant a Value or a stack cell holds.
type Tag uint8

const (
	TagNil Tag = iota
	TagBool
	TagAtom
	TagString
	TagInt
	TagFloat
	TagFunc
)

func (t Tag) String() string {
	switch t {
	case TagNil:
		return "nil"
	case TagBool:
		return "bool"
	case TagAtom:
		return "atom"
	case TagString:
		return "string"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagFunc:
		return "func"
	default:
		return "unknown"
	}
}

// SelectorAtom maps a Tag to the reserved type-reflection atom id spec.md
// §6.1 and §6.3's system(:type) rely on.
func (t Tag) SelectorAtom() strtable.Id {
	switch t {
	case TagNil:
		return strtable.Nil
	case TagBool:
		return strtable.TypeBool
	case TagAtom:
		return strtable.TypeAtom
	case TagString:
		return strtable.TypeString
	case TagInt:
		return strtable.TypeInt
	case TagFloat:
		return strtable.TypeFloat
	case TagFunc:
		return strtable.TypeFunc
	default:
		panic("value: unknown tag has no selector atom")
	}
}

// SharedString is a reference-counted immutable UTF-8 byte sequence. Cloning
// a Value holding one increments Count; dropping the last handle frees it.
// Single-threaded execution (spec.md §5) means the count never needs to be
// atomic.
type SharedString struct {
	bytes []byte
	count int
}

func NewSharedString(s string) *SharedString {
	return &SharedString{bytes: []byte(s), count: 1}
}

func (s *SharedString) String() string { return string(s.bytes) }
func (s *SharedString) Bytes() []byte  { return s.bytes }
func (s *SharedString) Len() int       { return len(s.bytes) }

// Refs reports the current share count, used by tests to verify the
// "no leaks" invariant of spec.md §8 without a weak-reference mechanism.
func (s *SharedString) Refs() int { return s.count }

// Retain adds one logical owner.
func (s *SharedString) Retain() *SharedString {
	s.count++
	return s
}

// Release drops one logical owner. Returns true once the last share is gone.
func (s *SharedString) Release() bool {
	s.count--
	if s.count < 0 {
		panic("value: SharedString released more times than retained")
	}
	return s.count == 0
}

// FuncKind distinguishes the four Function variants of spec.md §3.
type FuncKind uint8

const (
	FuncNative FuncKind = iota // NativeLambda: bytecode + captured closure
	FuncGlobal                 // GlobalRef: borrowed reference to a global def
	FuncHostPure
	FuncHostStateful
)

// NativeLambda is a user-defined function compiled to bytecode, carrying its
// captured environment (the flattened free-variable snapshot taken at
// CaptureClosure time).
type NativeLambda struct {
	Name      string
	ArgIDs    []strtable.Id
	Chunk     *bytecode.Chunk
	FreeVars  []strtable.Id
	Closure   map[strtable.Id]Value
	refs      int
}

// NewNativeLambda builds a NativeLambda with one initial owning share.
func NewNativeLambda(name string, argIDs []strtable.Id, chunk *bytecode.Chunk, freeVars []strtable.Id, closure map[strtable.Id]Value) *NativeLambda {
	return &NativeLambda{
		Name:     name,
		ArgIDs:   argIDs,
		Chunk:    chunk,
		FreeVars: freeVars,
		Closure:  closure,
		refs:     1,
	}
}

func (l *NativeLambda) Retain() *NativeLambda {
	l.refs++
	return l
}

func (l *NativeLambda) Release() bool {
	l.refs--
	if l.refs < 0 {
		panic("value: NativeLambda released more times than retained")
	}
	return l.refs == 0
}

// HostFn is a native Go implementation of an FFI effect: (args) -> (result, error).
type HostFn func(args []Value) (Value, error)

// HostClosure is a HostFn bundled with private captured state (spec.md §3,
// HostStateful), e.g. an open file handle or database connection. It is
// reference counted the same way a NativeLambda is, because several Function
// values can alias the same host closure (e.g. system(:read_file) handed out
// twice).
type HostClosure struct {
	Name string
	Fn   HostFn
	refs int
}

// NewHostClosure builds a HostClosure with one initial owning share.
func NewHostClosure(name string, fn HostFn) *HostClosure {
	return &HostClosure{Name: name, Fn: fn, refs: 1}
}

func (h *HostClosure) Retain() *HostClosure {
	h.refs++
	return h
}

func (h *HostClosure) Release() bool {
	h.refs--
	if h.refs < 0 {
		panic("value: HostClosure released more times than retained")
	}
	return h.refs == 0
}

// Function is the tagged union of the four function variants of spec.md §3.
type Function struct {
	Kind FuncKind

	Native *NativeLambda // FuncNative
	Global strtable.Id   // FuncGlobal: id to resolve lazily in the global scope
	Pure   HostFn        // FuncHostPure
	Host   *HostClosure  // FuncHostStateful
}

// Arity reports how many arguments this function expects, when statically
// known. HostPure/HostStateful report -1: arity for FFI callables is
// enforced inside the Go closure itself, not by the Call opcode.
func (f *Function) Arity(globals GlobalLookup) int {
	switch f.Kind {
	case FuncNative:
		return len(f.Native.ArgIDs)
	case FuncGlobal:
		if def, ok := globals.LookupGlobal(f.Global); ok {
			return len(def.ArgIDs)
		}
		return -1
	default:
		return -1
	}
}

// GlobalLookup is the narrow interface Function.Arity needs from a global
// scope, avoiding an import cycle with package scope.
type GlobalLookup interface {
	LookupGlobal(id strtable.Id) (*GlobalDef, bool)
}

// GlobalDef is a global-scope function definition: signature plus body. It
// lives in package value (rather than scope) because Function.Global must
// resolve against it without scope importing value importing scope.
type GlobalDef struct {
	Name   string
	ArgIDs []strtable.Id
	Chunk  *bytecode.Chunk
}

// Value is the tagged runtime value. Only one of the payload fields is
// meaningful, selected by Tag — mirroring original_source's IRValue enum,
// but as a flat struct since Go has no sum types.
type Value struct {
	Tag Tag

	boolVal   bool
	atomVal   strtable.Id
	stringVal *SharedString
	intVal    int64
	floatVal  float64
	funcVal   *Function
}

func Nil() Value                 { return Value{Tag: TagNil} }
func Bool(b bool) Value          { return Value{Tag: TagBool, boolVal: b} }
func Atom(id strtable.Id) Value  { return Value{Tag: TagAtom, atomVal: id} }
func Int(i int64) Value          { return Value{Tag: TagInt, intVal: i} }
func Float(f float64) Value      { return Value{Tag: TagFloat, floatVal: f} }
func Func(f *Function) Value     { return Value{Tag: TagFunc, funcVal: f} }

// String wraps an already-owned SharedString share; the caller transfers
// ownership of that one share to the returned Value.
func String(s *SharedString) Value { return Value{Tag: TagString, stringVal: s} }

// NewString interns a fresh owned SharedString from a plain Go string.
func NewString(s string) Value { return String(NewSharedString(s)) }

func (v Value) IsNil() bool { return v.Tag == TagNil }

func (v Value) AsBool() (bool, bool) {
	if v.Tag != TagBool {
		return false, false
	}
	return v.boolVal, true
}

func (v Value) AsAtom() (strtable.Id, bool) {
	if v.Tag != TagAtom {
		return 0, false
	}
	return v.atomVal, true
}

func (v Value) AsString() (*SharedString, bool) {
	if v.Tag != TagString {
		return nil, false
	}
	return v.stringVal, true
}

func (v Value) AsInt() (int64, bool) {
	if v.Tag != TagInt {
		return 0, false
	}
	return v.intVal, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.Tag != TagFloat {
		return 0, false
	}
	return v.floatVal, true
}

func (v Value) AsFunc() (*Function, bool) {
	if v.Tag != TagFunc {
		return nil, false
	}
	return v.funcVal, true
}

// Clone produces a new logical share of v, incrementing the refcount of any
// heap payload it owns. This is what scope resolution and PushFrom do: the
// scope keeps its share, the stack gets a fresh one.
func (v Value) Clone() Value {
	switch v.Tag {
	case TagString:
		v.stringVal.Retain()
	case TagFunc:
		switch v.funcVal.Kind {
		case FuncNative:
			v.funcVal.Native.Retain()
		case FuncHostStateful:
			v.funcVal.Host.Retain()
		}
	}
	return v
}

// Drop releases whatever heap share this Value owns. Must be called exactly
// once per logical owner (stack cell, scope slot, ...) to satisfy the "no
// leaks" invariant of spec.md §8.
func (v Value) Drop() {
	switch v.Tag {
	case TagString:
		v.stringVal.Release()
	case TagFunc:
		switch v.funcVal.Kind {
		case FuncNative:
			v.funcVal.Native.Release()
		case FuncHostStateful:
			v.funcVal.Host.Release()
		}
	}
}

// Equal implements the cross-variant equality rules of spec.md §3: same
// variant compares by value (strings by content, functions by handle
// identity), cross-variant is always false.
func Equal(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagNil:
		return true
	case TagBool:
		return a.boolVal == b.boolVal
	case TagAtom:
		return a.atomVal == b.atomVal
	case TagString:
		if a.stringVal == b.stringVal {
			return true
		}
		return string(a.stringVal.bytes) == string(b.stringVal.bytes)
	case TagInt:
		return a.intVal == b.intVal
	case TagFloat:
		return a.floatVal == b.floatVal
	case TagFunc:
		return sameFunctionIdentity(a.funcVal, b.funcVal)
	default:
		return false
	}
}

func sameFunctionIdentity(a, b *Function) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case FuncNative:
		return a.Native == b.Native
	case FuncGlobal:
		return a.Global == b.Global
	case FuncHostPure:
		return fmt.Sprintf("%p", a.Pure) == fmt.Sprintf("%p", b.Pure)
	case FuncHostStateful:
		return a.Host == b.Host
	default:
		return false
	}
}
