package interp

import (
	"faeyne/internal/bytecode"
	"faeyne/internal/strtable"
	"faeyne/internal/value"
	"faeyne/internal/vmerrors"
)

// handleMatch implements spec.md §4.4: pop the scrutinee, try each arm in
// source order (Wildcard always matches, Literal matches by value equality,
// Variable-binding always matches and binds), jump to the winning arm's
// body, or raise MatchError if every arm was tried and none applied.
//
// Every selected arm — binding or not — gets a freshly pushed sub-scope.
// This keeps OpRetSmall's restore logic uniform: it always has exactly one
// scope to close per match entered, whether or not that arm's pattern
// happened to bind a name.
func (vm *Interpreter) handleMatch(frame *callFrame, span vmerrors.Span) error {
	idx := frame.chunk.ReadU32(frame.ip)
	frame.ip += 4
	if int(idx) >= len(frame.chunk.Matches) {
		return vmerrors.Bug("match table index out of range")
	}
	table := frame.chunk.Matches[idx]

	scrutinee, err := vm.Stack.Pop()
	if err != nil {
		return vmerrors.Bug("Match with empty stack")
	}

	for _, arm := range table.Arms {
		switch arm.Kind {
		case bytecode.PatternWildcard:
			return vm.enterArm(frame, arm, scrutinee)

		case bytecode.PatternLiteral:
			lit := value.FromConst(arm.Literal)
			matched := value.Equal(scrutinee, lit)
			lit.Drop()
			if matched {
				return vm.enterArm(frame, arm, scrutinee)
			}

		case bytecode.PatternBinding:
			return vm.enterArm(frame, arm, scrutinee)

		default:
			scrutinee.Drop()
			return vmerrors.Bug("unknown pattern kind")
		}
	}

	scrutinee.Drop()
	return vmerrors.Match(span)
}

// enterArm pushes the arm's sub-scope, binds the scrutinee into it when the
// arm is a Variable-binding pattern (otherwise the scrutinee is consumed and
// dropped, matching Wildcard/Literal arms that don't need it by name), and
// jumps the frame's cursor to the arm's body.
func (vm *Interpreter) enterArm(frame *callFrame, arm bytecode.Pattern, scrutinee value.Value) error {
	sub := frame.pushScope(frame.sc)
	if arm.Kind == bytecode.PatternBinding {
		sub.BindArg(strtable.Id(arm.BindID), scrutinee)
	} else {
		scrutinee.Drop()
	}
	frame.sc = sub
	frame.ip = arm.Target
	return nil
}
