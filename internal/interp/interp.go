// Package interp is the Faeyne instruction interpreter of spec.md §4.3: the
// fetch/decode/execute loop over a function's bytecode.Chunk, the call stack
// of suspended instruction cursors, and the Call/RetBig/RetSmall stack
// discipline that must stay balanced across early returns from nested match
// arms.
//
// Grounded on the teacher's own internal/vm/vm.go Run loop — the same shape
// (a slice of frames, a `for frameCount > 0` loop, fetch opcode, bounds
// check, dispatch switch) — generalized from the teacher's general-purpose
// opcode set to spec.md §4.3's nine Faeyne opcodes, and from the teacher's
// []Value locals array to the scope-chain model of package scope.
package interp

import (
	"faeyne/internal/bytecode"
	"faeyne/internal/ops"
	"faeyne/internal/scope"
	"faeyne/internal/strtable"
	"faeyne/internal/value"
	"faeyne/internal/vmerrors"
)

const defaultMaxFrames = 1024

// callFrame is one suspended (or active) instruction array, the unit spec.md
// §4.3 calls "call stack of suspended instruction arrays".
type callFrame struct {
	chunk *bytecode.Chunk
	ip    int
	sc    *scope.Frame

	// ownedScopes are every scope.Frame created for this call (the root
	// argument scope, plus one per entered match arm) in creation order;
	// used to guarantee every owned Value is dropped exactly once whether
	// the frame exits through RetBig, an early return inside a match arm,
	// or a propagated error.
	ownedScopes []*scope.Frame

	// calleeOwned holds the Function Value whose share the Call opcode
	// transferred from the stack to this frame's lifetime (NativeLambda
	// calls only); zero-value Nil for the root Run frame and for GlobalRef
	// calls, where Drop is a no-op.
	calleeOwned value.Value
}

func (f *callFrame) pushScope(parent *scope.Frame) *scope.Frame {
	s := scope.NewSubScope(parent)
	f.ownedScopes = append(f.ownedScopes, s)
	return s
}

// closeTopScope restores sc to the scope active before the most recently
// pushed one, dropping the closed scope's owned values. Used by OpRetSmall,
// which is always the end of exactly one entered match arm.
func (f *callFrame) closeTopScope(parentOfTop *scope.Frame) {
	n := len(f.ownedScopes)
	if n == 0 {
		return
	}
	top := f.ownedScopes[n-1]
	f.ownedScopes = f.ownedScopes[:n-1]
	top.Drop()
	f.sc = parentOfTop
}

func (f *callFrame) dropAllOwned() {
	for i := len(f.ownedScopes) - 1; i >= 0; i-- {
		f.ownedScopes[i].Drop()
	}
	f.ownedScopes = nil
	f.calleeOwned.Drop()
}

// Interpreter is one isolated execution of a Faeyne program: its own value
// stack, global table, and string table (spec.md §5: "a separate
// interpreter with its own value universe" per embedding).
type Interpreter struct {
	Stack     *value.Stack
	Globals   *scope.Global
	Table     *strtable.Table
	MaxFrames int

	frames []callFrame
}

// New builds an Interpreter with the given stack capacity.
func New(table *strtable.Table, globals *scope.Global, maxStack int) *Interpreter {
	return &Interpreter{
		Stack:     value.NewStack(maxStack),
		Globals:   globals,
		Table:     table,
		MaxFrames: defaultMaxFrames,
	}
}

func dbg(d bytecode.DebugInfo) vmerrors.Span {
	return vmerrors.Span{Line: d.Line, Col: d.Col}
}

// Run executes chunk to completion from a fresh root scope (no closure) in
// which args are bound to argIDs and `self` to self, returning the single
// Value it produces or the first error encountered. This is the entry point spec.md §6.2 drives with `main`.
func (vm *Interpreter) Run(chunk *bytecode.Chunk, args []value.Value, argIDs []strtable.Id, self *value.Function) (value.Value, error) {
	root := scope.NewSubScope(nil)
	for i, id := range argIDs {
		root.BindArg(id, args[i])
	}
	root.BindSelf(self)

	vm.frames = append(vm.frames, callFrame{chunk: chunk, ip: 0, sc: root, ownedScopes: []*scope.Frame{root}})

	result, err := vm.loop()
	if err != nil {
		// Unwind every still-suspended frame, dropping owned scopes so a
		// propagated error doesn't leak the closures/locals of callers that
		// never got to run their own RetBig (spec.md §4.1 stack-destructor
		// invariant, applied to the scope side as well as the value side).
		for i := range vm.frames {
			vm.frames[i].dropAllOwned()
		}
		vm.frames = nil
		vm.Stack.Drop()
		return value.Value{}, err
	}
	return result, nil
}

func (vm *Interpreter) loop() (value.Value, error) {
	for len(vm.frames) > 0 {
		frame := &vm.frames[len(vm.frames)-1]

		if frame.ip >= len(frame.chunk.Code) {
			return value.Value{}, vmerrors.Bug("instruction cursor ran past end of chunk")
		}

		op := bytecode.OpCode(frame.chunk.Code[frame.ip])
		debug := frame.chunk.GetDebugInfo(frame.ip)
		frame.ip++

		switch op {
		case bytecode.OpPushConst:
			idx := frame.chunk.ReadU32(frame.ip)
			frame.ip += 4
			if int(idx) >= len(frame.chunk.Constants) {
				return value.Value{}, vmerrors.Bug("constant pool index out of range")
			}
			v := value.FromConst(frame.chunk.Constants[idx])
			if err := vm.Stack.Push(v); err != nil {
				v.Drop()
				return value.Value{}, vmerrors.StackOverflow()
			}

		case bytecode.OpPushFrom:
			id := strtable.Id(frame.chunk.ReadU32(frame.ip))
			frame.ip += 4
			v, ok := scope.Resolve(frame.sc, id)
			if !ok {
				return value.Value{}, vmerrors.UndefinedName(dbg(debug), vm.Table.Text(id))
			}
			if err := vm.Stack.Push(v); err != nil {
				v.Drop()
				return value.Value{}, vmerrors.StackOverflow()
			}

		case bytecode.OpPopTo:
			id := strtable.Id(frame.chunk.ReadU32(frame.ip))
			frame.ip += 4
			v, err := vm.Stack.Pop()
			if err != nil {
				return value.Value{}, vmerrors.Bug("over pop")
			}
			if id == strtable.Self {
				v.Drop()
				return value.Value{}, vmerrors.IllegalSelfRef(dbg(debug))
			}
			if !scope.Assign(frame.sc, id, v) {
				v.Drop()
				return value.Value{}, vmerrors.Bug("tried setting a non-existent id")
			}

		case bytecode.OpBinOp:
			kind := ops.Kind(frame.chunk.Code[frame.ip])
			frame.ip++
			if err := ops.Apply(vm.Stack, vm.Table, kind, dbg(debug)); err != nil {
				return value.Value{}, vmerrors.Stacked(dbg(debug), err.(*vmerrors.VMError))
			}

		case bytecode.OpCall:
			argc := frame.chunk.ReadU32(frame.ip)
			frame.ip += 4
			if err := vm.handleCall(int(argc), dbg(debug)); err != nil {
				return value.Value{}, err
			}

		case bytecode.OpRetBig:
			v, err := vm.Stack.Pop()
			if err != nil {
				return value.Value{}, vmerrors.Bug("RetBig with empty stack")
			}
			frame.dropAllOwned()
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return v, nil
			}
			if err := vm.Stack.Push(v); err != nil {
				v.Drop()
				return value.Value{}, vmerrors.StackOverflow()
			}

		case bytecode.OpRetSmall:
			target := frame.chunk.ReadU32(frame.ip)
			n := len(frame.ownedScopes)
			var parent *scope.Frame
			if n >= 2 {
				parent = frame.ownedScopes[n-2]
			}
			frame.closeTopScope(parent)
			frame.ip = int(target)

		case bytecode.OpMatch:
			if err := vm.handleMatch(frame, dbg(debug)); err != nil {
				return value.Value{}, err
			}

		case bytecode.OpCaptureClosure:
			idx := frame.chunk.ReadU32(frame.ip)
			frame.ip += 4
			if int(idx) >= len(frame.chunk.Lambdas) {
				return value.Value{}, vmerrors.Bug("lambda template index out of range")
			}
			tmpl := frame.chunk.Lambdas[idx]
			lambda := buildClosure(frame.sc, tmpl)
			if err := vm.Stack.Push(value.Func(&value.Function{Kind: value.FuncNative, Native: lambda})); err != nil {
				lambda.Release()
				return value.Value{}, vmerrors.StackOverflow()
			}

		default:
			return value.Value{}, vmerrors.Bug("unknown opcode")
		}
	}
	return value.Value{}, vmerrors.Bug("frame stack emptied without a terminating RetBig")
}

func buildClosure(surrounding *scope.Frame, tmpl bytecode.LambdaTemplate) *value.NativeLambda {
	free := toIDs(tmpl.FreeVars)
	args := toIDs(tmpl.ArgIDs)
	captured := scope.Capture(surrounding, free, args)
	return value.NewNativeLambda(tmpl.Name, args, tmpl.Body, free, captured)
}

func toIDs(raw []uint32) []strtable.Id {
	out := make([]strtable.Id, len(raw))
	for i, r := range raw {
		out[i] = strtable.Id(r)
	}
	return out
}
