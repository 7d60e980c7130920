// Package scope implements the Faeyne scope chain of spec.md §3/§4.2:
// Global / SubScope / StaticClosure frames, variable resolution, assignment,
// and closure capture by value-snapshot.
//
// Grounded on the teacher's own internal/vm/vm.go ScopeFrame (a
// map[string]Value local table with a parent pointer, used there for
// if/while/for block scoping) — generalized here into the three-variant
// chain spec.md §3 names, keyed by strtable.Id instead of by name.
package scope

import (
	"faeyne/internal/strtable"
	"faeyne/internal/value"
)

// GlobalDef mirrors value.GlobalDef; scope owns the global table because
// resolving a GlobalRef Function at Call time requires looking one up
// (spec.md §4.2 "global functions resolve lazily at call time").
type GlobalDef = value.GlobalDef

// Global is the program-wide table of function definitions, initialized
// once from the translator's output and alive for the program's lifetime
// (spec.md §3 Lifecycles).
type Global struct {
	defs map[strtable.Id]*GlobalDef
}

func NewGlobal() *Global {
	return &Global{defs: make(map[strtable.Id]*GlobalDef)}
}

// Define registers a global function definition. Re-adding an id already
// defined fails with UnreachableCase (spec.md §4.2).
func (g *Global) Define(id strtable.Id, def *GlobalDef) (ok bool) {
	if _, exists := g.defs[id]; exists {
		return false
	}
	g.defs[id] = def
	return true
}

// LookupGlobal implements value.GlobalLookup.
func (g *Global) LookupGlobal(id strtable.Id) (*GlobalDef, bool) {
	d, ok := g.defs[id]
	return d, ok
}

// Names returns every currently defined global's name mapped back to its
// id, used by the translator to seed name resolution when compiling
// incrementally into an already-populated table (internal/repl's
// line-by-line sessions) and by its "did you mean" diagnostics.
func (g *Global) Names() map[string]strtable.Id {
	out := make(map[string]strtable.Id, len(g.defs))
	for id, def := range g.defs {
		out[def.Name] = id
	}
	return out
}

// Frame is one link of the runtime scope chain: either a SubScope (its own
// local table, writable, with a parent) or a StaticClosure (a captured
// snapshot, read-only, no parent — spec.md §3).
type Frame struct {
	locals      map[strtable.Id]value.Value
	declaredSet map[strtable.Id]bool
	parent      *Frame
	isClosure   bool // true for StaticClosure frames: no parent, read-only
	selfFunc    *value.Function
}

// NewSubScope creates a writable local frame parented by parent (nil at the
// top of a non-lambda call).
func NewSubScope(parent *Frame) *Frame {
	return &Frame{locals: make(map[strtable.Id]value.Value), parent: parent}
}

// NewClosureFrame wraps a captured snapshot as a StaticClosure: no parent,
// per spec.md §3.
func NewClosureFrame(captured map[strtable.Id]value.Value, self *value.Function) *Frame {
	return &Frame{locals: captured, isClosure: true, selfFunc: self}
}

// BindSelf records the function handle `self` refers to inside this frame
// (spec.md §4.2: self is a sentinel substituted at Call time, not a
// back-pointer stored in the closure map).
func (f *Frame) BindSelf(self *value.Function) {
	f.selfFunc = self
}

// Declare pre-registers id as belonging to this frame without giving it a
// value yet, matching the Variable Table's "vector of Option<Value> slots"
// — reading it before a PopTo writes to it is an UndefinedName, not a panic,
// because Declare alone does not populate locals.
func (f *Frame) Declare(id strtable.Id) {
	if f.declaredSet == nil {
		f.declaredSet = make(map[strtable.Id]bool)
	}
	f.declaredSet[id] = true
}

// BindArg declares id in this frame and gives it an initial value in one
// step, used when a Call binds the callee's arguments into its fresh frame.
func (f *Frame) BindArg(id strtable.Id, v value.Value) {
	f.Declare(id)
	f.locals[id] = v
}

// Resolve walks innermost -> outermost, returning a cloned Value (spec.md
// §4.2: "resolve(id) ... returns a cloned Value"). self (id 22) is handled
// specially: it always resolves to the frame chain's bound selfFunc.
func Resolve(f *Frame, id strtable.Id) (value.Value, bool) {
	if id == strtable.Self {
		for cur := f; cur != nil; cur = cur.parent {
			if cur.selfFunc != nil {
				return value.Func(cur.selfFunc).Clone(), true
			}
		}
		return value.Value{}, false
	}
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.locals[id]; ok {
			return v.Clone(), true
		}
		if cur.declaredSet[id] {
			// Declared in this frame but never assigned: shadows any
			// same-named outer binding, and reading it is unresolved rather
			// than falling through to the parent's value.
			return value.Value{}, false
		}
	}
	return value.Value{}, false
}

// Assign writes to the slot for id in the innermost SubScope only (spec.md
// §4.2: "assign(id, v) writes to the slot for id in the innermost scope").
// Closure (StaticClosure) frames are not writable targets for Assign.
//
// An id not yet declared in f is declared on the spot rather than rejected:
// spec.md's PopTo opcode (§3 "pop top value; store in slot i") carries no
// separate declare step, since both `let x = ...` and `x = ...` compile to
// the same PopTo — the distinction between introducing a name and updating
// one is enforced earlier, at compile time, by the translator tracking which
// names are already bound in the lexical scope it is emitting for.
func Assign(f *Frame, id strtable.Id, v value.Value) bool {
	if id == strtable.Self {
		return false
	}
	if f.isClosure {
		return false
	}
	if !f.declaredSet[id] {
		f.Declare(id)
	} else if old, ok := f.locals[id]; ok {
		old.Drop()
	}
	f.locals[id] = v
	return true
}

// Drop releases every Value this frame owns, required when a frame is
// discarded (a Call returns, or a match sub-scope's arm finishes) so the
// closure/local snapshot doesn't leak its shares.
func (f *Frame) Drop() {
	for _, v := range f.locals {
		v.Drop()
	}
}

// Capture produces a flattened closure snapshot: for each free variable not
// also present in args, resolve it in the surrounding chain and bind it by
// value (spec.md §4.2 capture(freevars, args)). Missing free variables that
// are also allowed escapes (args, self) are simply omitted — they're filled
// in when the lambda is actually called.
func Capture(surrounding *Frame, freeVars []strtable.Id, args []strtable.Id) map[strtable.Id]value.Value {
	isArg := make(map[strtable.Id]bool, len(args))
	for _, a := range args {
		isArg[a] = true
	}
	captured := make(map[strtable.Id]value.Value, len(freeVars))
	for _, id := range freeVars {
		if isArg[id] || id == strtable.Self {
			continue
		}
		if v, ok := Resolve(surrounding, id); ok {
			captured[id] = v
		}
	}
	return captured
}
