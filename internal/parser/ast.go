// internal/parser/ast.go
package parser

import "faeyne/internal/vmerrors"

// Expr is any Faeyne expression node. Kept as a plain interface with a
// visitor-free type switch in the compiler, matching the shape of the
// teacher's own Expr tree (internal/parser/ast.go) but built around
// Faeyne's own node set instead of the teacher's general-purpose grammar.
type Expr interface{ exprNode() }

type IntLit struct {
	Value int64
	Span  vmerrors.Span
}

type FloatLit struct {
	Value float64
	Span  vmerrors.Span
}

type StringLit struct {
	Value string
	Span  vmerrors.Span
}

type BoolLit struct {
	Value bool
	Span  vmerrors.Span
}

type NilLit struct{ Span vmerrors.Span }

// AtomLit is a `:name` literal; Name excludes the leading colon.
type AtomLit struct {
	Name string
	Span vmerrors.Span
}

// Ident is a bare identifier reference, including `self`.
type Ident struct {
	Name string
	Span vmerrors.Span
}

type BinaryExpr struct {
	Left, Right Expr
	Op          string
	Span        vmerrors.Span
}

// LogicalExpr is the short-circuit `&&`/`||` form, kept distinct from
// BinaryExpr so the compiler can lower it to a conditional Match instead of
// a BinOp opcode (DESIGN.md's Open Question resolution for short-circuit).
type LogicalExpr struct {
	Left, Right Expr
	Op          string // "&&" or "||"
	Span        vmerrors.Span
}

type CallExpr struct {
	Callee Expr
	Args   []Expr
	Span   vmerrors.Span
}

// LambdaExpr is `fn(params) -> { body }`.
type LambdaExpr struct {
	Params []string
	Body   []Stmt
	Span   vmerrors.Span
}

// MatchExpr is `match scrutinee { pattern => body, ... }`.
type MatchExpr struct {
	Scrutinee Expr
	Arms      []MatchArm
	Span      vmerrors.Span
}

// MatchFnExpr is the match-lambda form `match fn { pattern => body, ... }`:
// a one-argument lambda whose body is a Match on its sole argument
// (spec.md §4.4's "array as function" idiom).
type MatchFnExpr struct {
	Arms []MatchArm
	Span vmerrors.Span
}

// Pattern is one match arm's left-hand side.
type Pattern struct {
	Kind    PatternKind
	Literal Expr   // set when Kind == PatternLiteral
	Bind    string // set when Kind == PatternBinding
}

type PatternKind int

const (
	PatternWildcard PatternKind = iota
	PatternLiteral
	PatternBinding
)

type MatchArm struct {
	Pattern Pattern
	Body    []Stmt
}

func (*IntLit) exprNode()      {}
func (*FloatLit) exprNode()    {}
func (*StringLit) exprNode()   {}
func (*BoolLit) exprNode()     {}
func (*NilLit) exprNode()      {}
func (*AtomLit) exprNode()     {}
func (*Ident) exprNode()       {}
func (*BinaryExpr) exprNode()  {}
func (*LogicalExpr) exprNode() {}
func (*CallExpr) exprNode()    {}
func (*LambdaExpr) exprNode()  {}
func (*MatchExpr) exprNode()   {}
func (*MatchFnExpr) exprNode() {}
