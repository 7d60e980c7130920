// internal/compiler/hoisting_compiler.go
//
// Closure free-variable analysis and the "did you mean" suggestion helper
// for undefined-name compile errors.
//
// Grounded on the teacher's own HoistingCompiler
// (internal/compiler/hoisting_compiler.go): the teacher walks a function
// body once before code generation to collect every name it will need to
// resolve ahead of time. Here that same one-pass-before-codegen walk is
// repurposed from "collect top-level function names" to "collect the names
// a lambda body references that its own parameters don't bind" — the set
// OpCaptureClosure needs frozen into a closure at creation time.
package compiler

import (
	"sort"

	"github.com/agnivade/levenshtein"

	"faeyne/internal/parser"
	"faeyne/internal/strtable"
)

// freeVarsOfBody returns, in sorted order, every name body references that
// is neither one of params nor a known top-level def. A name resolved by
// globals is looked up lazily by the interpreter at call time (ConstGlobalRef)
// and never needs to be captured.
func freeVarsOfBody(body []parser.Stmt, params []string, globals map[string]strtable.Id) []string {
	bound := make(map[string]bool, len(params))
	for _, p := range params {
		bound[p] = true
	}
	free := map[string]bool{}
	collectStmtsFree(body, bound, globals, free)

	names := make([]string, 0, len(free))
	for n := range free {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectStmtsFree(stmts []parser.Stmt, bound map[string]bool, globals map[string]strtable.Id, free map[string]bool) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *parser.LetStmt:
			collectExprFree(s.Value, bound, globals, free)
			bound[s.Name] = true
		case *parser.AssignStmt:
			collectExprFree(s.Value, bound, globals, free)
		case *parser.ExprStmt:
			collectExprFree(s.Expr, bound, globals, free)
		case *parser.ReturnStmt:
			if s.Value != nil {
				collectExprFree(s.Value, bound, globals, free)
			}
		}
	}
}

// collectExprFree does not recurse into a nested LambdaExpr/MatchFnExpr's
// raw identifiers — it instead asks for THAT lambda's own free-variable set
// (computed independently, with its own fresh bound set seeded from its own
// params) and bubbles up whatever isn't already bound at this level. This
// mirrors how scope.Capture/Resolve actually work at runtime: a
// twice-nested closure resolves its outer free variables by walking up
// through its immediate parent's captured frame, not by some flattened
// whole-program analysis, so a nested lambda's capture list is exactly what
// this level needs to also capture (minus whatever this level binds itself).
func collectExprFree(expr parser.Expr, bound map[string]bool, globals map[string]strtable.Id, free map[string]bool) {
	switch e := expr.(type) {
	case *parser.Ident:
		if e.Name == "self" || e.Name == "_" {
			return
		}
		if bound[e.Name] {
			return
		}
		if _, isGlobal := globals[e.Name]; isGlobal {
			return
		}
		free[e.Name] = true

	case *parser.BinaryExpr:
		collectExprFree(e.Left, bound, globals, free)
		collectExprFree(e.Right, bound, globals, free)

	case *parser.LogicalExpr:
		collectExprFree(e.Left, bound, globals, free)
		collectExprFree(e.Right, bound, globals, free)

	case *parser.CallExpr:
		collectExprFree(e.Callee, bound, globals, free)
		for _, a := range e.Args {
			collectExprFree(a, bound, globals, free)
		}

	case *parser.LambdaExpr:
		nested := freeVarsOfBody(e.Body, e.Params, globals)
		for _, n := range nested {
			if !bound[n] {
				free[n] = true
			}
		}

	case *parser.MatchFnExpr:
		nested := freeVarsOfBody(matchFnBody(e), []string{matchFnArg}, globals)
		for _, n := range nested {
			if !bound[n] {
				free[n] = true
			}
		}

	case *parser.MatchExpr:
		collectExprFree(e.Scrutinee, bound, globals, free)
		for _, arm := range e.Arms {
			armBound := cloneBoundSet(bound)
			if arm.Pattern.Kind == parser.PatternBinding {
				armBound[arm.Pattern.Bind] = true
			}
			collectStmtsFree(arm.Body, armBound, globals, free)
		}
	}
}

// referencesSelf reports whether body mentions `self` anywhere reachable
// without crossing into a nested lambda's own body (a nested lambda resolves
// its own `self` independently when it is itself captured).
func referencesSelf(body []parser.Stmt) bool {
	found := false

	var walkStmts func([]parser.Stmt)
	var walkExpr func(parser.Expr)

	walkExpr = func(e parser.Expr) {
		if found || e == nil {
			return
		}
		switch x := e.(type) {
		case *parser.Ident:
			if x.Name == "self" {
				found = true
			}
		case *parser.BinaryExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *parser.LogicalExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *parser.CallExpr:
			walkExpr(x.Callee)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *parser.MatchExpr:
			walkExpr(x.Scrutinee)
			for _, arm := range x.Arms {
				walkStmts(arm.Body)
			}
		}
	}

	walkStmts = func(stmts []parser.Stmt) {
		for _, stmt := range stmts {
			if found {
				return
			}
			switch s := stmt.(type) {
			case *parser.LetStmt:
				walkExpr(s.Value)
			case *parser.AssignStmt:
				walkExpr(s.Value)
			case *parser.ExprStmt:
				walkExpr(s.Expr)
			case *parser.ReturnStmt:
				if s.Value != nil {
					walkExpr(s.Value)
				}
			}
		}
	}

	walkStmts(body)
	return found
}

// candidateNames is the name universe suggestName searches: everything
// bound at this point in compilation plus every known top-level def.
func (fc *funcCompiler) candidateNames(bound map[string]bool) map[string]bool {
	out := make(map[string]bool, len(bound)+len(fc.globalNames))
	for n := range bound {
		out[n] = true
	}
	for n := range fc.globalNames {
		out[n] = true
	}
	return out
}

// suggestName picks the closest candidate to name by edit distance, the
// "did you mean" hint vmerrors.VMError.Suggestion carries. Returns "" when
// nothing is close enough to be a plausible typo rather than a coincidence.
func suggestName(name string, candidates map[string]bool) string {
	best := ""
	bestDist := -1
	for c := range candidates {
		if c == name {
			continue
		}
		d := levenshtein.ComputeDistance(name, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	if best == "" {
		return ""
	}
	threshold := len(name)/2 + 1
	if threshold < 2 {
		threshold = 2
	}
	if bestDist > threshold {
		return ""
	}
	return best
}
