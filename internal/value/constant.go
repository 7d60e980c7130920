package value

import (
	"faeyne/internal/bytecode"
	"faeyne/internal/strtable"
)

// FromConst converts a compile-time constant-pool entry into a runtime
// owned Value, the job OpPushConst performs at each hit (spec.md §4.3).
func FromConst(c bytecode.Const) Value {
	switch c.Kind {
	case bytecode.ConstNil:
		return Nil()
	case bytecode.ConstBool:
		return Bool(c.Bool)
	case bytecode.ConstAtom:
		return Atom(strtable.Id(c.Atom))
	case bytecode.ConstString:
		return NewString(c.Str)
	case bytecode.ConstInt:
		return Int(c.Int)
	case bytecode.ConstFloat:
		return Float(c.Float)
	case bytecode.ConstGlobalRef:
		return Func(&Function{Kind: FuncGlobal, Global: strtable.Id(c.Global)})
	default:
		panic("value: unknown Const kind")
	}
}
