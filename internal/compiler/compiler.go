// internal/compiler/compiler.go
//
// Package compiler translates a parsed Faeyne program into bytecode: one
// internal/bytecode.Chunk per top-level def, registered into a
// internal/scope.Global table interp.Interpreter.Run executes against.
//
// Grounded on the teacher's own two-pass hoisting shape
// (internal/compiler/hoisting_compiler.go: collect every top-level
// declaration's name before compiling any body, so forward references and
// mutual recursion resolve) — generalized here from the teacher's
// single-chunk, visitor-dispatched script compiler to a type-switch
// compiler producing one Chunk per Faeyne def/lambda, consuming
// ConstGlobalRef (internal/bytecode/chunk.go) for the cross-def references
// the teacher's model had no equivalent for.
package compiler

import (
	"faeyne/internal/bytecode"
	"faeyne/internal/ops"
	"faeyne/internal/parser"
	"faeyne/internal/scope"
	"faeyne/internal/strtable"
	"faeyne/internal/value"
	"faeyne/internal/vmerrors"
)

// Compile translates every def in prog into a fresh Global def table. The
// first pass interns every def name and checks for duplicates (spec.md §4.2
// UnreachableCase) before compiling any body, which is what lets two defs
// call each other regardless of which one appears first in source.
func Compile(prog *parser.Program, table *strtable.Table) (*scope.Global, error) {
	globals := scope.NewGlobal()
	if _, err := CompileInto(prog, table, globals); err != nil {
		return nil, err
	}
	return globals, nil
}

// CompileInto compiles every def in prog and registers it into the
// already-live globals/table pair, returning the names just added. This is
// the incremental path internal/repl uses: each line's defs become callable
// by every later line without losing what earlier lines already defined.
func CompileInto(prog *parser.Program, table *strtable.Table, globals *scope.Global) ([]string, error) {
	known := globals.Names()

	ids := make([]strtable.Id, len(prog.Defs))
	for i, def := range prog.Defs {
		if def.Name == "self" {
			return nil, vmerrors.IllegalSelfRef(def.Span)
		}
		if _, exists := known[def.Name]; exists {
			return nil, vmerrors.UnreachableCase(def.Span, def.Name, len(def.Params))
		}
		id := table.Intern(def.Name)
		known[def.Name] = id
		ids[i] = id
	}

	names := make([]string, len(prog.Defs))
	for i, def := range prog.Defs {
		chunk, argIDs, err := compileDef(def, table, known)
		if err != nil {
			return nil, err
		}
		gdef := &value.GlobalDef{Name: def.Name, ArgIDs: argIDs, Chunk: chunk}
		if !globals.Define(ids[i], gdef) {
			return nil, vmerrors.UnreachableCase(def.Span, def.Name, len(def.Params))
		}
		names[i] = def.Name
	}
	return names, nil
}

// CompileStandalone compiles a single def for name resolution against an
// existing globals table without ever registering it there. internal/repl
// uses this for each line's synthetic `def main() { ... }` wrapper: the
// wrapper must see every previously defined global, but it is re-run fresh
// on every line rather than accumulating as a permanent (and immediately
// duplicate) global definition.
func CompileStandalone(def *parser.DefStmt, table *strtable.Table, globals *scope.Global) (*bytecode.Chunk, []strtable.Id, error) {
	if def.Name == "self" {
		return nil, nil, vmerrors.IllegalSelfRef(def.Span)
	}
	known := globals.Names()
	known[def.Name] = table.Intern(def.Name)
	return compileDef(def, table, known)
}

func compileDef(def *parser.DefStmt, table *strtable.Table, globalNames map[string]strtable.Id) (*bytecode.Chunk, []strtable.Id, error) {
	for _, p := range def.Params {
		if p == "self" {
			return nil, nil, vmerrors.IllegalSelfRef(def.Span)
		}
	}

	fc := &funcCompiler{table: table, globalNames: globalNames}
	chunk := bytecode.NewChunk(def.Name)

	argIDs := make([]strtable.Id, len(def.Params))
	bound := make(map[string]bool, len(def.Params))
	for i, p := range def.Params {
		argIDs[i] = table.Intern(p)
		bound[p] = true
	}

	terminated, err := fc.compileBody(chunk, def.Body, bound, true)
	if err != nil {
		return nil, nil, err
	}
	if !terminated {
		chunk.EmitRetBig(dbgOf(def.Span))
	}
	return chunk, argIDs, nil
}

func dbgOf(span vmerrors.Span) bytecode.DebugInfo {
	return bytecode.DebugInfo{Line: span.Line, Col: span.Col}
}

// binOpKind maps a parsed operator token to its package ops.Kind, the
// finalized surface syntax of SPEC_FULL.md's operator precedence table:
// keyword and/or/symbol ^ for strict booleans, &,|,^^ for int bitwise.
func binOpKind(op string) (ops.Kind, bool) {
	switch op {
	case "+":
		return ops.Add, true
	case "-":
		return ops.Sub, true
	case "*":
		return ops.Mul, true
	case "/":
		return ops.Div, true
	case "//":
		return ops.IntDiv, true
	case "%":
		return ops.Modulo, true
	case "**":
		return ops.Pow, true
	case "==":
		return ops.Equal, true
	case "!=":
		return ops.NotEqual, true
	case "<":
		return ops.Smaller, true
	case ">":
		return ops.Bigger, true
	case "<=":
		return ops.SmallerEq, true
	case ">=":
		return ops.BiggerEq, true
	case "and":
		return ops.And, true
	case "or":
		return ops.Or, true
	case "^":
		return ops.Xor, true
	case "&":
		return ops.DoubleAnd, true
	case "|":
		return ops.DoubleOr, true
	case "^^":
		return ops.DoubleXor, true
	default:
		return 0, false
	}
}

// literalToConst converts a match arm's literal pattern node (always one of
// the six literal kinds; parser.parsePatternLiteral never produces anything
// else) into the Const payload bytecode.Pattern.Literal carries.
func literalToConst(e parser.Expr, table *strtable.Table) bytecode.Const {
	switch lit := e.(type) {
	case *parser.IntLit:
		return bytecode.Const{Kind: bytecode.ConstInt, Int: lit.Value}
	case *parser.FloatLit:
		return bytecode.Const{Kind: bytecode.ConstFloat, Float: lit.Value}
	case *parser.StringLit:
		return bytecode.Const{Kind: bytecode.ConstString, Str: lit.Value}
	case *parser.BoolLit:
		return bytecode.Const{Kind: bytecode.ConstBool, Bool: lit.Value}
	case *parser.NilLit:
		return bytecode.Const{Kind: bytecode.ConstNil}
	case *parser.AtomLit:
		return bytecode.Const{Kind: bytecode.ConstAtom, Atom: uint32(table.Intern(":" + lit.Name))}
	default:
		return bytecode.Const{Kind: bytecode.ConstNil}
	}
}
