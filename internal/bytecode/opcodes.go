// Package bytecode is the compiled representation a Faeyne function body is
// translated to: a flat OpCode stream plus a constant pool, in the shape
// spec.md §3's "Instruction array" and §4.3 describe. Structurally this is
// the teacher's own internal/bytecode package (OpCode/Chunk/DebugInfo);
// the opcode set itself is replaced with the opcodes spec.md §3-§4 define
// instead of the teacher's general-purpose scripting opcode set.
package bytecode

// OpCode is one Faeyne instruction. Every opcode here corresponds 1:1 to a
// row of spec.md §4.3's step-semantics table.
type OpCode byte

const (
	// OpPushConst reads the next inline constant-pool index and pushes it.
	OpPushConst OpCode = iota
	// OpPushFrom resolves a variable slot in the current scope and pushes a
	// cloned Value.
	OpPushFrom
	// OpPopTo pops the top value into a variable slot.
	OpPopTo
	// OpBinOp applies a builtin binary operator (see package ops).
	OpBinOp
	// OpCall pops a callee and its arguments and invokes it.
	OpCall
	// OpRetBig returns from the enclosing function.
	OpRetBig
	// OpRetSmall jumps forward past the remaining arms of a match block.
	OpRetSmall
	// OpMatch evaluates a scrutinee against an inline arm table.
	OpMatch
	// OpCaptureClosure builds a NativeLambda from an inline template.
	OpCaptureClosure
)

func (op OpCode) String() string {
	switch op {
	case OpPushConst:
		return "PushConst"
	case OpPushFrom:
		return "PushFrom"
	case OpPopTo:
		return "PopTo"
	case OpBinOp:
		return "BinOp"
	case OpCall:
		return "Call"
	case OpRetBig:
		return "RetBig"
	case OpRetSmall:
		return "RetSmall"
	case OpMatch:
		return "Match"
	case OpCaptureClosure:
		return "CaptureClosure"
	default:
		return "Unknown"
	}
}
