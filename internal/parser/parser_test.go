package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faeyne/internal/lexer"
)

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	tokens, err := lexer.NewScanner(src).ScanTokens()
	require.NoError(t, err)
	prog, err := NewParser(tokens, "test").Parse()
	require.NoError(t, err)
	return prog
}

func TestParseMinimalDef(t *testing.T) {
	prog := mustParse(t, `def main() { 1 + 1 }`)
	require.Len(t, prog.Defs, 1)
	def := prog.Defs[0]
	assert.Equal(t, "main", def.Name)
	assert.Empty(t, def.Params)
	require.Len(t, def.Body, 1)
	exprStmt, ok := def.Body[0].(*ExprStmt)
	require.True(t, ok)
	bin, ok := exprStmt.Expr.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
}

func TestParseShortCircuitVsStrictBoolean(t *testing.T) {
	prog := mustParse(t, `def f() { (1 < 2) || false }`)
	expr := prog.Defs[0].Body[0].(*ExprStmt).Expr
	_, ok := expr.(*LogicalExpr)
	assert.True(t, ok, "|| must desugar to LogicalExpr, not BinaryExpr")

	prog2 := mustParse(t, `def g(a, b) { a and b }`)
	expr2 := prog2.Defs[0].Body[0].(*ExprStmt).Expr
	bin, ok := expr2.(*BinaryExpr)
	require.True(t, ok, "'and' must compile to a strict BinaryExpr")
	assert.Equal(t, "and", bin.Op)
}

func TestParsePipeDesugarsToCall(t *testing.T) {
	prog := mustParse(t, `def f(x) { x |> double |> inc }`)
	expr := prog.Defs[0].Body[0].(*ExprStmt).Expr
	outer, ok := expr.(*CallExpr)
	require.True(t, ok)
	callee, ok := outer.Callee.(*Ident)
	require.True(t, ok)
	assert.Equal(t, "inc", callee.Name)
	require.Len(t, outer.Args, 1)
	inner, ok := outer.Args[0].(*CallExpr)
	require.True(t, ok)
	assert.Equal(t, "double", inner.Callee.(*Ident).Name)
	assert.Equal(t, "x", inner.Args[0].(*Ident).Name)
}

func TestParseMatchArms(t *testing.T) {
	prog := mustParse(t, `def f(n) { match n { :ok => 2, 2 => true, _ => 0 } }`)
	m := prog.Defs[0].Body[0].(*ExprStmt).Expr.(*MatchExpr)
	require.Len(t, m.Arms, 3)
	assert.Equal(t, PatternLiteral, m.Arms[0].Pattern.Kind)
	atom, ok := m.Arms[0].Pattern.Literal.(*AtomLit)
	require.True(t, ok)
	assert.Equal(t, "ok", atom.Name)
	assert.Equal(t, PatternWildcard, m.Arms[2].Pattern.Kind)
}

func TestParseMatchFnIsOneArgLambda(t *testing.T) {
	prog := mustParse(t, `def f() {
		match fn {
			0 => 1,
			n => n * 2
		}
	}`)
	_, ok := prog.Defs[0].Body[0].(*ExprStmt).Expr.(*MatchFnExpr)
	assert.True(t, ok)
}

func TestParseLambdaAndSelfRecursion(t *testing.T) {
	prog := mustParse(t, `def f() {
		let fact = fn(n) -> {
			match n {
				0 => 1,
				_ => n * self(n - 1)
			}
		}
		fact(4)
	}`)
	let := prog.Defs[0].Body[0].(*LetStmt)
	lambda, ok := let.Value.(*LambdaExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"n"}, lambda.Params)
}

func TestParseLetAssignReturn(t *testing.T) {
	prog := mustParse(t, `def f() {
		let x = 1
		x = x + 1
		return x
	}`)
	require.Len(t, prog.Defs[0].Body, 3)
	_, isLet := prog.Defs[0].Body[0].(*LetStmt)
	_, isAssign := prog.Defs[0].Body[1].(*AssignStmt)
	ret, isReturn := prog.Defs[0].Body[2].(*ReturnStmt)
	assert.True(t, isLet)
	assert.True(t, isAssign)
	require.True(t, isReturn)
	assert.NotNil(t, ret.Value)
}

func TestParseBareReturn(t *testing.T) {
	prog := mustParse(t, `def f() { return }`)
	ret := prog.Defs[0].Body[0].(*ReturnStmt)
	assert.Nil(t, ret.Value)
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	prog := mustParse(t, `def f() { 2 ** 3 ** 2 }`)
	top := prog.Defs[0].Body[0].(*ExprStmt).Expr.(*BinaryExpr)
	assert.Equal(t, "**", top.Op)
	_, leftIsLit := top.Left.(*IntLit)
	assert.True(t, leftIsLit)
	right, ok := top.Right.(*BinaryExpr)
	require.True(t, ok, "2 ** 3 ** 2 must associate as 2 ** (3 ** 2)")
	assert.Equal(t, "**", right.Op)
}

func TestParseUnaryMinusDesugarsToSubtractionFromZero(t *testing.T) {
	prog := mustParse(t, `def f() { -5 }`)
	bin := prog.Defs[0].Body[0].(*ExprStmt).Expr.(*BinaryExpr)
	assert.Equal(t, "-", bin.Op)
	left, ok := bin.Left.(*IntLit)
	require.True(t, ok)
	assert.Equal(t, int64(0), left.Value)
}

func TestParseSyntaxErrorReported(t *testing.T) {
	tokens, err := lexer.NewScanner(`def f( { 1 }`).ScanTokens()
	require.NoError(t, err)
	_, perr := NewParser(tokens, "bad.fy").Parse()
	assert.Error(t, perr)
}
