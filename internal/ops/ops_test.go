package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faeyne/internal/strtable"
	"faeyne/internal/value"
	"faeyne/internal/vmerrors"
)

// applyOn pushes a then b onto a fresh stack, applies kind, and returns the
// single pushed result — Apply's own documented contract (spec.md §4.3's
// BinOp row: "consumes two operands, pushes one").
func applyOn(t *testing.T, table *strtable.Table, kind Kind, a, b value.Value) (value.Value, error) {
	t.Helper()
	stack := value.NewStack(8)
	require.NoError(t, stack.Push(a))
	require.NoError(t, stack.Push(b))
	if err := Apply(stack, table, kind, vmerrors.Span{}); err != nil {
		return value.Value{}, err
	}
	assert.Equal(t, 1, stack.Len(), "BinOp must leave exactly one value on the stack")
	result, ok := stack.Peek()
	require.True(t, ok)
	return result, nil
}

func TestArithmeticIntStaysInt(t *testing.T) {
	table := strtable.New()
	result, err := applyOn(t, table, Add, value.Int(2), value.Int(3))
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 5, i)
}

func TestDivisionAlwaysWidensToFloat(t *testing.T) {
	table := strtable.New()
	result, err := applyOn(t, table, Div, value.Int(7), value.Int(2))
	require.NoError(t, err)
	f, ok := result.AsFloat()
	require.True(t, ok)
	assert.Equal(t, 3.5, f)
}

func TestIntDivKeepsIntAndFloorsTowardNegativeInfinity(t *testing.T) {
	table := strtable.New()
	result, err := applyOn(t, table, IntDiv, value.Int(-7), value.Int(2))
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, -4, i)
}

func TestModuloIsEuclidean(t *testing.T) {
	table := strtable.New()
	result, err := applyOn(t, table, Modulo, value.Int(-7), value.Int(3))
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 2, i)
}

func TestDivisionByZeroIsSig(t *testing.T) {
	table := strtable.New()
	_, err := applyOn(t, table, Div, value.Int(1), value.Int(0))
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.KindSig))
}

func TestAddConcatenatesStringsAndCoercesNonStrings(t *testing.T) {
	table := strtable.New()
	result, err := applyOn(t, table, Add, value.NewString("n="), value.Int(4))
	require.NoError(t, err)
	s, ok := result.AsString()
	require.True(t, ok)
	assert.Equal(t, "n=4", s.String())
}

func TestEqualityAcrossVariantsIsFalse(t *testing.T) {
	table := strtable.New()
	result, err := applyOn(t, table, Equal, value.Int(3), value.NewString("3"))
	require.NoError(t, err)
	b, ok := result.AsBool()
	require.True(t, ok)
	assert.False(t, b)
}

func TestComparisonRequiresMatchingTypes(t *testing.T) {
	table := strtable.New()
	_, err := applyOn(t, table, Smaller, value.Int(1), value.Float(2))
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.KindSig))
}

func TestAtomsHaveNoOrdering(t *testing.T) {
	table := strtable.New()
	_, err := applyOn(t, table, Smaller, value.Atom(strtable.Ok), value.Atom(strtable.Err))
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.KindSig))
}

func TestBoolBitwiseRequiresTwoBools(t *testing.T) {
	table := strtable.New()
	_, err := applyOn(t, table, And, value.Bool(true), value.Int(1))
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.KindSig))

	result, err := applyOn(t, table, Xor, value.Bool(true), value.Bool(false))
	require.NoError(t, err)
	b, ok := result.AsBool()
	require.True(t, ok)
	assert.True(t, b)
}

func TestLenSelectorOnStringReportsByteLength(t *testing.T) {
	s := value.NewString("hello")
	args := []value.Value{value.Atom(strtable.Len)}
	result, matched := Len(s, args)
	require.True(t, matched)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 5, i)
}

func TestLenSelectorOnNativeLambdaReportsArity(t *testing.T) {
	lambda := value.NewNativeLambda("f", []strtable.Id{1, 2, 3}, nil, nil, nil)
	defer lambda.Release()
	callee := value.Func(&value.Function{Kind: value.FuncNative, Native: lambda})
	args := []value.Value{value.Atom(strtable.Len)}
	result, matched := Len(callee, args)
	require.True(t, matched)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 3, i)
}

func TestLenSelectorDoesNotMatchUnrelatedShapes(t *testing.T) {
	_, matched := Len(value.Int(5), []value.Value{value.Atom(strtable.Len)})
	assert.False(t, matched)
}
