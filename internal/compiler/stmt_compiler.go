// internal/compiler/stmt_compiler.go
//
// funcCompiler emits one function's (def or lambda) body into a single
// bytecode.Chunk: statement-list/tail-value semantics, expression emission,
// and the Match-table construction both real `match` expressions and the
// short-circuit &&/|| desugar (DESIGN.md's Open Question resolution) share.
//
// Grounded on the teacher's own StmtCompiler (internal/compiler/stmt_compiler.go)
// for the general shape of a per-function emitter walking a statement list
// into a Chunk, adapted from the teacher's OpJumpIfFalse/OpLoop jump-patching
// idiom to Faeyne's OpMatch/OpRetSmall join-point patching.
package compiler

import (
	"faeyne/internal/bytecode"
	"faeyne/internal/parser"
	"faeyne/internal/strtable"
	"faeyne/internal/vmerrors"
)

// funcCompiler is stateless aside from the table and the set of known
// top-level def names; every method takes the Chunk being built and the set
// of names bound so far explicitly, so the same funcCompiler value compiles
// a def's own body and every lambda nested inside it.
type funcCompiler struct {
	table       *strtable.Table
	globalNames map[string]strtable.Id
}

// compileBody emits stmts in order. The last statement, if an ExprStmt,
// leaves its value on the stack as the body's produced value (spec.md §4.4
// "the translator ... discards the value of every non-tail statement");
// every other statement's expression value is popped into the reserved
// Underscore slot. Returns terminated=true when the body ended in an
// explicit `return`, which already emitted OpRetBig itself — the caller
// must not emit a second one.
//
// topLevel marks a body with no enclosing closure frame (a def's own body,
// or a match arm/short-circuit branch nested directly inside one): every
// name referenced there that isn't bound so far or a known global is
// unresolvable by construction, so compileIdent raises a compile-time
// UndefinedName instead of leaving it for a runtime PushFrom to discover.
// Lambda bodies pass topLevel=false, since a bare name there may legally
// resolve through a captured enclosing scope no single function sees.
func (fc *funcCompiler) compileBody(chunk *bytecode.Chunk, stmts []parser.Stmt, bound map[string]bool, topLevel bool) (terminated bool, err error) {
	if len(stmts) == 0 {
		idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstNil})
		chunk.EmitPushConst(idx, bytecode.DebugInfo{})
		return false, nil
	}

	for i, stmt := range stmts {
		isLast := i == len(stmts)-1

		switch s := stmt.(type) {
		case *parser.ReturnStmt:
			d := dbgOf(s.Span)
			if s.Value != nil {
				if err := fc.compileExpr(chunk, s.Value, bound, topLevel); err != nil {
					return false, err
				}
			} else {
				idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstNil})
				chunk.EmitPushConst(idx, d)
			}
			chunk.EmitRetBig(d)
			return true, nil

		case *parser.LetStmt:
			if s.Name == "self" {
				return false, vmerrors.IllegalSelfRef(s.Span)
			}
			d := dbgOf(s.Span)
			if err := fc.compileExpr(chunk, s.Value, bound, topLevel); err != nil {
				return false, err
			}
			id := fc.table.Intern(s.Name)
			chunk.EmitPopTo(uint32(id), d)
			bound[s.Name] = true
			if isLast {
				idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstNil})
				chunk.EmitPushConst(idx, d)
			}

		case *parser.AssignStmt:
			if s.Name == "self" {
				return false, vmerrors.IllegalSelfRef(s.Span)
			}
			if topLevel && !bound[s.Name] {
				sugg := suggestName(s.Name, fc.candidateNames(bound))
				return false, &vmerrors.VMError{Kind: vmerrors.KindUndefinedName, Span: s.Span, Name: s.Name, Suggestion: sugg}
			}
			d := dbgOf(s.Span)
			if err := fc.compileExpr(chunk, s.Value, bound, topLevel); err != nil {
				return false, err
			}
			id := fc.table.Intern(s.Name)
			chunk.EmitPopTo(uint32(id), d)
			if isLast {
				idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstNil})
				chunk.EmitPushConst(idx, d)
			}

		case *parser.ExprStmt:
			if err := fc.compileExpr(chunk, s.Expr, bound, topLevel); err != nil {
				return false, err
			}
			if !isLast {
				chunk.EmitPopTo(uint32(strtable.Underscore), bytecode.DebugInfo{})
			}

		default:
			return false, vmerrors.Bug("unknown statement node")
		}
	}
	return false, nil
}

func (fc *funcCompiler) compileExpr(chunk *bytecode.Chunk, expr parser.Expr, bound map[string]bool, topLevel bool) error {
	switch e := expr.(type) {
	case *parser.IntLit:
		idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstInt, Int: e.Value})
		chunk.EmitPushConst(idx, dbgOf(e.Span))

	case *parser.FloatLit:
		idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstFloat, Float: e.Value})
		chunk.EmitPushConst(idx, dbgOf(e.Span))

	case *parser.StringLit:
		idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstString, Str: e.Value})
		chunk.EmitPushConst(idx, dbgOf(e.Span))

	case *parser.BoolLit:
		idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstBool, Bool: e.Value})
		chunk.EmitPushConst(idx, dbgOf(e.Span))

	case *parser.NilLit:
		idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstNil})
		chunk.EmitPushConst(idx, dbgOf(e.Span))

	case *parser.AtomLit:
		id := fc.table.Intern(":" + e.Name)
		idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstAtom, Atom: uint32(id)})
		chunk.EmitPushConst(idx, dbgOf(e.Span))

	case *parser.Ident:
		return fc.compileIdent(chunk, e, bound, topLevel)

	case *parser.BinaryExpr:
		if err := fc.compileExpr(chunk, e.Left, bound, topLevel); err != nil {
			return err
		}
		if err := fc.compileExpr(chunk, e.Right, bound, topLevel); err != nil {
			return err
		}
		kind, ok := binOpKind(e.Op)
		if !ok {
			return vmerrors.Bug("unknown binary operator " + e.Op)
		}
		chunk.EmitBinOp(byte(kind), dbgOf(e.Span))

	case *parser.LogicalExpr:
		return fc.compileLogical(chunk, e, bound, topLevel)

	case *parser.CallExpr:
		if err := fc.compileExpr(chunk, e.Callee, bound, topLevel); err != nil {
			return err
		}
		for _, a := range e.Args {
			if err := fc.compileExpr(chunk, a, bound, topLevel); err != nil {
				return err
			}
		}
		chunk.EmitCall(uint32(len(e.Args)), dbgOf(e.Span))

	case *parser.LambdaExpr:
		return fc.compileLambda(chunk, e.Params, e.Body, e.Span)

	case *parser.MatchExpr:
		return fc.compileMatch(chunk, e, bound, topLevel)

	case *parser.MatchFnExpr:
		body := matchFnBody(e)
		return fc.compileLambda(chunk, []string{matchFnArg}, body, e.Span)

	default:
		return vmerrors.Bug("unknown expression node")
	}
	return nil
}

func (fc *funcCompiler) compileIdent(chunk *bytecode.Chunk, e *parser.Ident, bound map[string]bool, topLevel bool) error {
	if e.Name == "self" {
		chunk.EmitPushFrom(uint32(strtable.Self), dbgOf(e.Span))
		return nil
	}
	if e.Name == "_" {
		return vmerrors.Sig(e.Span, "_ is a write-only binding and cannot be read")
	}
	if gid, isGlobal := fc.globalNames[e.Name]; isGlobal && !bound[e.Name] {
		idx := chunk.AddConstant(bytecode.Const{Kind: bytecode.ConstGlobalRef, Global: uint32(gid)})
		chunk.EmitPushConst(idx, dbgOf(e.Span))
		return nil
	}
	if topLevel && !bound[e.Name] {
		sugg := suggestName(e.Name, fc.candidateNames(bound))
		return &vmerrors.VMError{Kind: vmerrors.KindUndefinedName, Span: e.Span, Name: e.Name, Suggestion: sugg}
	}
	chunk.EmitPushFrom(uint32(fc.table.Intern(e.Name)), dbgOf(e.Span))
	return nil
}

// compileLogical lowers && / || to a two-arm Match instead of a BinOp, the
// way DESIGN.md's short-circuit Open Question was resolved: && takes false
// without evaluating the right side, || takes the left side's own value
// without re-evaluating it, both via a match on whether the left side is
// exactly `false`.
func (fc *funcCompiler) compileLogical(chunk *bytecode.Chunk, e *parser.LogicalExpr, bound map[string]bool, topLevel bool) error {
	if err := fc.compileExpr(chunk, e.Left, bound, topLevel); err != nil {
		return err
	}
	d := dbgOf(e.Span)
	falseLit := bytecode.Const{Kind: bytecode.ConstBool, Bool: false}

	if e.Op == "&&" {
		patterns := []bytecode.Pattern{
			{Kind: bytecode.PatternLiteral, Literal: falseLit},
			{Kind: bytecode.PatternWildcard},
		}
		bodies := []func() (bool, error){
			func() (bool, error) {
				idx := chunk.AddConstant(falseLit)
				chunk.EmitPushConst(idx, d)
				return false, nil
			},
			func() (bool, error) {
				return false, fc.compileExpr(chunk, e.Right, bound, topLevel)
			},
		}
		return fc.compileMatchArms(chunk, patterns, bodies, d)
	}

	lhsID := fc.table.Intern("$or_lhs")
	patterns := []bytecode.Pattern{
		{Kind: bytecode.PatternLiteral, Literal: falseLit},
		{Kind: bytecode.PatternBinding, BindID: uint32(lhsID)},
	}
	bodies := []func() (bool, error){
		func() (bool, error) {
			return false, fc.compileExpr(chunk, e.Right, bound, topLevel)
		},
		func() (bool, error) {
			chunk.EmitPushFrom(uint32(lhsID), d)
			return false, nil
		},
	}
	return fc.compileMatchArms(chunk, patterns, bodies, d)
}

func (fc *funcCompiler) compileMatch(chunk *bytecode.Chunk, e *parser.MatchExpr, bound map[string]bool, topLevel bool) error {
	if err := fc.compileExpr(chunk, e.Scrutinee, bound, topLevel); err != nil {
		return err
	}

	patterns := make([]bytecode.Pattern, len(e.Arms))
	bodies := make([]func() (bool, error), len(e.Arms))
	for i := range e.Arms {
		arm := e.Arms[i]
		switch arm.Pattern.Kind {
		case parser.PatternWildcard:
			patterns[i] = bytecode.Pattern{Kind: bytecode.PatternWildcard}
		case parser.PatternBinding:
			if arm.Pattern.Bind == "self" {
				return vmerrors.IllegalSelfRef(e.Span)
			}
			patterns[i] = bytecode.Pattern{Kind: bytecode.PatternBinding, BindID: uint32(fc.table.Intern(arm.Pattern.Bind))}
		case parser.PatternLiteral:
			patterns[i] = bytecode.Pattern{Kind: bytecode.PatternLiteral, Literal: literalToConst(arm.Pattern.Literal, fc.table)}
		default:
			return vmerrors.Bug("unknown pattern kind")
		}

		armBody := arm.Body
		armBound := cloneBoundSet(bound)
		if arm.Pattern.Kind == parser.PatternBinding {
			armBound[arm.Pattern.Bind] = true
		}
		bodies[i] = func() (bool, error) {
			return fc.compileBody(chunk, armBody, armBound, topLevel)
		}
	}
	return fc.compileMatchArms(chunk, patterns, bodies, dbgOf(e.Span))
}

// compileMatchArms lays out an OpMatch instruction followed by each arm's
// body in turn, patching every non-terminated arm's trailing OpRetSmall to
// jump to the shared join point once all arm bodies have been emitted — the
// teacher's own jump-patch-after-the-fact idiom (VisitIfStmt's
// jumpIfFalsePos/jumpOverElsePos), generalized from a two-branch if/else to
// an arbitrary-arity match table.
func (fc *funcCompiler) compileMatchArms(chunk *bytecode.Chunk, patterns []bytecode.Pattern, bodies []func() (bool, error), d bytecode.DebugInfo) error {
	tableIdx := chunk.AddMatchTable(bytecode.MatchTable{Arms: patterns, Span: d})
	chunk.EmitMatch(tableIdx, d)

	var retSmallIPs []int
	for i, body := range bodies {
		chunk.Matches[tableIdx].Arms[i].Target = chunk.Here()
		terminated, err := body()
		if err != nil {
			return err
		}
		if !terminated {
			retSmallIPs = append(retSmallIPs, chunk.Here())
			chunk.EmitRetSmall(0, d)
		}
	}

	join := uint32(chunk.Here())
	for _, ip := range retSmallIPs {
		chunk.PatchRetSmallTarget(ip, join)
	}
	return nil
}

const matchFnArg = "$0"

// matchFnBody reduces `match fn { arms }` to the body of a one-argument
// lambda matching on that argument, so compileLambda handles both forms
// uniformly (spec.md §4.4's "array as function" idiom).
func matchFnBody(e *parser.MatchFnExpr) []parser.Stmt {
	return []parser.Stmt{&parser.ExprStmt{Expr: &parser.MatchExpr{
		Scrutinee: &parser.Ident{Name: matchFnArg, Span: e.Span},
		Arms:      e.Arms,
		Span:      e.Span,
	}}}
}

// compileLambda builds a LambdaTemplate: its own Chunk, compiled with a
// fresh bound set seeded from params only, plus the free-variable list
// (hoisting_compiler.go's freeVarsOfBody) CaptureClosure needs to snapshot
// the enclosing scope at the point the lambda is created.
func (fc *funcCompiler) compileLambda(chunk *bytecode.Chunk, params []string, body []parser.Stmt, span vmerrors.Span) error {
	for _, p := range params {
		if p == "self" {
			return vmerrors.IllegalSelfRef(span)
		}
	}

	argIDs := make([]uint32, len(params))
	bound := make(map[string]bool, len(params))
	for i, p := range params {
		argIDs[i] = uint32(fc.table.Intern(p))
		bound[p] = true
	}

	bodyChunk := bytecode.NewChunk("<lambda>")
	terminated, err := fc.compileBody(bodyChunk, body, bound, false)
	if err != nil {
		return err
	}
	if !terminated {
		bodyChunk.EmitRetBig(dbgOf(span))
	}

	freeNames := freeVarsOfBody(body, params, fc.globalNames)
	freeIDs := make([]uint32, len(freeNames))
	for i, n := range freeNames {
		freeIDs[i] = uint32(fc.table.Intern(n))
	}

	tmpl := bytecode.LambdaTemplate{
		Name:     "<lambda>",
		ArgIDs:   argIDs,
		FreeVars: freeIDs,
		Body:     bodyChunk,
		IsSelf:   referencesSelf(body),
	}
	idx := chunk.AddLambda(tmpl)
	chunk.EmitCaptureClosure(idx, dbgOf(span))
	return nil
}

func cloneBoundSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
