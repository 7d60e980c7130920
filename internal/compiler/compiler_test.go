package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faeyne/internal/lexer"
	"faeyne/internal/parser"
	"faeyne/internal/scope"
	"faeyne/internal/strtable"
	"faeyne/internal/vmerrors"
)

func mustParseProgram(t *testing.T, src string) *parser.Program {
	t.Helper()
	tokens, err := lexer.NewScanner(src).ScanTokens()
	require.NoError(t, err)
	prog, err := parser.NewParser(tokens, "test").Parse()
	require.NoError(t, err)
	return prog
}

func TestCompileRegistersEveryDef(t *testing.T) {
	table := strtable.New()
	prog := mustParseProgram(t, `
		def main() { helper(1) }
		def helper(n) { n }
	`)
	globals, err := Compile(prog, table)
	require.NoError(t, err)

	_, ok := globals.LookupGlobal(strtable.Main)
	assert.True(t, ok)
	_, ok = globals.LookupGlobal(table.Intern("helper"))
	assert.True(t, ok)
}

func TestCompileRejectsDuplicateGlobalNames(t *testing.T) {
	table := strtable.New()
	prog := mustParseProgram(t, `
		def main() { 1 }
		def main() { 2 }
	`)
	_, err := Compile(prog, table)
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.KindUnreachable))
}

func TestCompileRejectsSelfAsADefName(t *testing.T) {
	table := strtable.New()
	prog := &parser.Program{Defs: []*parser.DefStmt{{Name: "self"}}}
	_, err := Compile(prog, table)
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.KindIllegalSelf))
}

func TestCompileRejectsSelfAsAParamName(t *testing.T) {
	table := strtable.New()
	// The parser never yields `self` as a parameter name (it is a keyword
	// token), so the AST is built directly, as for the def-name case above.
	prog := &parser.Program{Defs: []*parser.DefStmt{{Name: "f", Params: []string{"self"}}}}
	_, err := Compile(prog, table)
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.KindIllegalSelf))
}

func TestUndefinedTopLevelNameSuggestsAClosestMatch(t *testing.T) {
	table := strtable.New()
	prog := mustParseProgram(t, `
		def helper() { 1 }
		def main() { hlper }
	`)
	_, err := Compile(prog, table)
	require.Error(t, err)
	ve, ok := err.(*vmerrors.VMError)
	require.True(t, ok)
	assert.Equal(t, vmerrors.KindUndefinedName, ve.Kind)
	assert.Equal(t, "helper", ve.Suggestion)
}

func TestCapturedNameInsideALambdaIsNotFlaggedAsUndefined(t *testing.T) {
	table := strtable.New()
	prog := mustParseProgram(t, `
		def main() {
			let v = 1
			let f = fn(x) -> { x + v }
			f(1)
		}
	`)
	_, err := Compile(prog, table)
	assert.NoError(t, err, "a name resolved only at lambda-call time through a closure must not be rejected at compile time")
}

func TestCompileIntoAddsNewDefsWithoutDisturbingExisting(t *testing.T) {
	table := strtable.New()
	globals := scope.NewGlobal()

	firstProg := mustParseProgram(t, `def helper(n) { n + 1 }`)
	added, err := CompileInto(firstProg, table, globals)
	require.NoError(t, err)
	assert.Equal(t, []string{"helper"}, added)

	secondProg := mustParseProgram(t, `def other(n) { helper(n) }`)
	added, err = CompileInto(secondProg, table, globals)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, added)

	_, ok := globals.LookupGlobal(table.Intern("helper"))
	assert.True(t, ok)
	_, ok = globals.LookupGlobal(table.Intern("other"))
	assert.True(t, ok)
}

func TestCompileIntoRejectsRedefiningAnExistingGlobal(t *testing.T) {
	table := strtable.New()
	globals := scope.NewGlobal()

	firstProg := mustParseProgram(t, `def helper(n) { n }`)
	_, err := CompileInto(firstProg, table, globals)
	require.NoError(t, err)

	secondProg := mustParseProgram(t, `def helper(n) { n * 2 }`)
	_, err = CompileInto(secondProg, table, globals)
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.KindUnreachable))
}

// TestCompileStandaloneNeverRegistersItsDef checks the contract internal/repl's
// synthetic `def main() { ... }` wrapper depends on: compiling the same name
// twice through CompileStandalone must not start failing as a duplicate the
// way a second CompileInto call would.
func TestCompileStandaloneNeverRegistersItsDef(t *testing.T) {
	table := strtable.New()
	globals := scope.NewGlobal()

	firstLine := mustParseProgram(t, `def main() { 1 }`)
	_, _, err := CompileStandalone(firstLine.Defs[0], table, globals)
	require.NoError(t, err)

	_, ok := globals.LookupGlobal(strtable.Main)
	assert.False(t, ok, "CompileStandalone must never register its def into globals")

	secondLine := mustParseProgram(t, `def main() { 2 }`)
	_, _, err = CompileStandalone(secondLine.Defs[0], table, globals)
	assert.NoError(t, err, "a second standalone compile of the same wrapper name must not collide")
}

func TestCompileStandaloneSeesEarlierCompileIntoGlobals(t *testing.T) {
	table := strtable.New()
	globals := scope.NewGlobal()

	helperLine := mustParseProgram(t, `def helper(n) { n * 2 }`)
	_, err := CompileInto(helperLine, table, globals)
	require.NoError(t, err)

	exprLine := mustParseProgram(t, `def main() { helper(21) }`)
	_, _, err = CompileStandalone(exprLine.Defs[0], table, globals)
	assert.NoError(t, err)
}

func TestBinOpKindCoversEveryOperatorToken(t *testing.T) {
	ops := []string{"+", "-", "*", "/", "//", "%", "**", "==", "!=", "<", ">", "<=", ">=", "and", "or", "^", "&", "|", "^^"}
	for _, op := range ops {
		_, ok := binOpKind(op)
		assert.True(t, ok, "operator %q must map to a known ops.Kind", op)
	}
	_, ok := binOpKind("nonsense")
	assert.False(t, ok)
}
