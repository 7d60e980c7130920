// Package ops implements the builtin binary operators of spec.md §4.5:
// arithmetic, comparison, and logical/bitwise, type-directed over the six
// Value variants. Grounded on original_source/src/basic_ops.rs's BinOp enum
// and handle_bin dispatcher, generalized from its single implemented case
// (Equal) to the full operator table the spec describes, in the style of
// the teacher's own arithmetic switch in internal/vm/vm.go's OpAdd/OpSub/...
// cases.
package ops

import (
	"math"

	"faeyne/internal/strtable"
	"faeyne/internal/value"
	"faeyne/internal/vmerrors"
)

// Kind is one BinOp opcode operand, matching original_source's BinOp enum
// order (Add..DoubleXor) so a disassembler dump lines up with the Rust
// reference implementation's own opcode numbering.
type Kind byte

const (
	Add Kind = iota
	Sub
	Mul
	Div
	IntDiv
	Modulo
	Pow

	Equal
	NotEqual
	Smaller
	Bigger
	SmallerEq
	BiggerEq

	And
	Or
	Xor

	DoubleAnd
	DoubleOr
	DoubleXor
)

func sig(span vmerrors.Span, msg string) error { return vmerrors.Sig(span, msg) }

// Len implements the `:len` selector sugar (SPEC_FULL.md supplemented
// feature #3, reserved id 3): calling a String with a single `:len` atom
// argument reports its byte length, and calling a user-defined lambda the
// same way reports its declared arity, instead of raising NoneCallable.
// Returns matched=false (and leaves callee/args untouched) for every other
// shape, so callers fall back to their normal Call or NoneCallable path.
func Len(callee value.Value, args []value.Value) (result value.Value, matched bool) {
	if len(args) != 1 {
		return value.Value{}, false
	}
	id, ok := args[0].AsAtom()
	if !ok || id != strtable.Len {
		return value.Value{}, false
	}

	if s, ok := callee.AsString(); ok {
		args[0].Drop()
		return value.Int(int64(s.Len())), true
	}
	if fn, ok := callee.AsFunc(); ok && fn.Kind == value.FuncNative {
		args[0].Drop()
		return value.Int(int64(len(fn.Native.ArgIDs))), true
	}
	return value.Value{}, false
}

// Apply pops b then a from stack, applies kind, and pushes exactly one
// result — the contract spec.md §4.3's BinOp row requires ("Consumes two
// operands, pushes one").
func Apply(stack *value.Stack, table *strtable.Table, kind Kind, span vmerrors.Span) error {
	b, err := stack.Pop()
	if err != nil {
		return vmerrors.Bug("over pop applying BinOp")
	}
	a, err := stack.Pop()
	if err != nil {
		b.Drop()
		return vmerrors.Bug("over pop applying BinOp")
	}

	result, err := apply(table, kind, a, b, span)
	a.Drop()
	b.Drop()
	if err != nil {
		return err
	}
	if pushErr := stack.Push(result); pushErr != nil {
		result.Drop()
		return vmerrors.StackOverflow()
	}
	return nil
}

func apply(table *strtable.Table, kind Kind, a, b value.Value, span vmerrors.Span) (value.Value, error) {
	switch kind {
	case Add:
		return add(table, a, b, span)
	case Sub, Mul, Div, IntDiv, Modulo, Pow:
		return arith(kind, a, b, span)
	case Equal:
		return value.Bool(value.Equal(a, b)), nil
	case NotEqual:
		return value.Bool(!value.Equal(a, b)), nil
	case Smaller, Bigger, SmallerEq, BiggerEq:
		return compare(kind, a, b, span)
	case And, Or, Xor:
		return boolBitwise(kind, a, b, span)
	case DoubleAnd, DoubleOr, DoubleXor:
		return intBitwise(kind, a, b, span)
	default:
		return value.Value{}, vmerrors.Bug("unknown BinOp kind")
	}
}

func add(table *strtable.Table, a, b value.Value, span vmerrors.Span) (value.Value, error) {
	if as, ok := a.AsString(); ok {
		if bs, ok := b.AsString(); ok {
			return value.NewString(as.String() + bs.String()), nil
		}
		return value.NewString(as.String() + value.ToDisplayString(b, table)), nil
	}
	if bs, ok := b.AsString(); ok {
		return value.NewString(value.ToDisplayString(a, table) + bs.String()), nil
	}
	return arith(Add, a, b, span)
}

func bothNumeric(a, b value.Value) (af, bf float64, bothInt bool, ai, bi int64, ok bool) {
	ai, aIsInt := a.AsInt()
	bi, bIsInt := b.AsInt()
	if aIsInt && bIsInt {
		return 0, 0, true, ai, bi, true
	}
	af, aIsF := a.AsFloat()
	bf, bIsF := b.AsFloat()
	if aIsInt {
		af = float64(ai)
		aIsF = true
	}
	if bIsInt {
		bf = float64(bi)
		bIsF = true
	}
	if aIsF && bIsF {
		return af, bf, false, 0, 0, true
	}
	return 0, 0, false, 0, 0, false
}

func arith(kind Kind, a, b value.Value, span vmerrors.Span) (value.Value, error) {
	af, bf, bothInt, ai, bi, ok := bothNumeric(a, b)
	if !ok {
		return value.Value{}, sig(span, "arithmetic operator requires two numbers")
	}

	switch kind {
	case Add:
		if bothInt {
			return value.Int(ai + bi), nil
		}
		return value.Float(af + bf), nil
	case Sub:
		if bothInt {
			return value.Int(ai - bi), nil
		}
		return value.Float(af - bf), nil
	case Mul:
		if bothInt {
			return value.Int(ai * bi), nil
		}
		return value.Float(af * bf), nil
	case Div:
		// Open Question resolution (SPEC_FULL.md): `/` always widens to
		// Float, `//` is the integer-preserving path.
		if bothInt {
			if bi == 0 {
				return value.Value{}, sig(span, "division by zero")
			}
			return value.Float(float64(ai) / float64(bi)), nil
		}
		if bf == 0 {
			return value.Value{}, sig(span, "division by zero")
		}
		return value.Float(af / bf), nil
	case IntDiv:
		if bothInt {
			if bi == 0 {
				return value.Value{}, sig(span, "division by zero")
			}
			return value.Int(floorDivInt(ai, bi)), nil
		}
		if bf == 0 {
			return value.Value{}, sig(span, "division by zero")
		}
		return value.Float(math.Floor(af / bf)), nil
	case Modulo:
		if bothInt {
			if bi == 0 {
				return value.Value{}, sig(span, "division by zero")
			}
			return value.Int(euclideanModInt(ai, bi)), nil
		}
		if bf == 0 {
			return value.Value{}, sig(span, "division by zero")
		}
		return value.Float(euclideanModFloat(af, bf)), nil
	case Pow:
		if bothInt {
			if bi < 0 {
				return value.Float(math.Pow(float64(ai), float64(bi))), nil
			}
			return value.Int(intPow(ai, bi)), nil
		}
		return value.Float(math.Pow(af, bf)), nil
	default:
		return value.Value{}, vmerrors.Bug("unreachable arith kind")
	}
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func euclideanModInt(a, b int64) int64 {
	m := a % b
	if m < 0 {
		if b < 0 {
			m -= b
		} else {
			m += b
		}
	}
	return m
}

func euclideanModFloat(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		if b < 0 {
			m -= b
		} else {
			m += b
		}
	}
	return m
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func compare(kind Kind, a, b value.Value, span vmerrors.Span) (value.Value, error) {
	if a.Tag != b.Tag {
		return value.Value{}, sig(span, "ordering comparison requires matching types")
	}
	if a.Tag == value.TagAtom {
		// Open Question resolution (SPEC_FULL.md): atom ordering is an error.
		return value.Value{}, sig(span, "atoms have no defined ordering")
	}

	var less, greater bool
	switch a.Tag {
	case value.TagInt:
		ai, _ := a.AsInt()
		bi, _ := b.AsInt()
		less, greater = ai < bi, ai > bi
	case value.TagFloat:
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		less, greater = af < bf, af > bf
	case value.TagString:
		as, _ := a.AsString()
		bs, _ := b.AsString()
		less, greater = as.String() < bs.String(), as.String() > bs.String()
	case value.TagBool:
		ab, _ := a.AsBool()
		bb, _ := b.AsBool()
		ai, bi := boolOrd(ab), boolOrd(bb)
		less, greater = ai < bi, ai > bi
	default:
		return value.Value{}, sig(span, "type has no defined ordering")
	}

	switch kind {
	case Smaller:
		return value.Bool(less), nil
	case Bigger:
		return value.Bool(greater), nil
	case SmallerEq:
		return value.Bool(!greater), nil
	case BiggerEq:
		return value.Bool(!less), nil
	default:
		return value.Value{}, vmerrors.Bug("unreachable compare kind")
	}
}

func boolOrd(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolBitwise(kind Kind, a, b value.Value, span vmerrors.Span) (value.Value, error) {
	ab, ok1 := a.AsBool()
	bb, ok2 := b.AsBool()
	if !ok1 || !ok2 {
		return value.Value{}, sig(span, "and/or/^ require two bools")
	}
	switch kind {
	case And:
		return value.Bool(ab && bb), nil
	case Or:
		return value.Bool(ab || bb), nil
	case Xor:
		return value.Bool(ab != bb), nil
	default:
		return value.Value{}, vmerrors.Bug("unreachable bool bitwise kind")
	}
}

func intBitwise(kind Kind, a, b value.Value, span vmerrors.Span) (value.Value, error) {
	ai, ok1 := a.AsInt()
	bi, ok2 := b.AsInt()
	if !ok1 || !ok2 {
		return value.Value{}, sig(span, "&/|/^^ bitwise forms require two ints")
	}
	switch kind {
	case DoubleAnd:
		return value.Int(ai & bi), nil
	case DoubleOr:
		return value.Int(ai | bi), nil
	case DoubleXor:
		return value.Int(ai ^ bi), nil
	default:
		return value.Value{}, vmerrors.Bug("unreachable int bitwise kind")
	}
}
