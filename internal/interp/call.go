package interp

import (
	"fmt"

	"faeyne/internal/ops"
	"faeyne/internal/scope"
	"faeyne/internal/value"
	"faeyne/internal/vmerrors"
)

// handleCall implements the Call row of spec.md §4.3's table: pop the
// callee, pop argc arguments in reverse order, then dispatch on the
// callee's Function variant. NativeLambda/GlobalRef push a new suspended
// bytecode frame; HostPure/HostStateful execute inline and push their
// single result, never growing the call stack.
func (vm *Interpreter) handleCall(argc int, span vmerrors.Span) error {
	calleeVal, err := vm.Stack.Pop()
	if err != nil {
		return vmerrors.Bug("Call with no callee on stack")
	}

	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, perr := vm.Stack.Pop()
		if perr != nil {
			for j := i + 1; j < argc; j++ {
				args[j].Drop()
			}
			calleeVal.Drop()
			return vmerrors.Bug("Call: fewer arguments on stack than argc")
		}
		args[i] = v
	}

	fn, ok := calleeVal.AsFunc()
	if !ok {
		if lenResult, matched := ops.Len(calleeVal, args); matched {
			calleeVal.Drop()
			return vm.pushResult(lenResult)
		}
		repr := value.ToDisplayString(calleeVal, vm.Table)
		calleeVal.Drop()
		for _, a := range args {
			a.Drop()
		}
		return vmerrors.NoneCallable(span, repr)
	}
	if fn.Kind == value.FuncNative {
		if lenResult, matched := ops.Len(calleeVal, args); matched {
			calleeVal.Drop()
			return vm.pushResult(lenResult)
		}
	}

	switch fn.Kind {
	case value.FuncNative:
		return vm.callNative(fn, calleeVal, args, span)
	case value.FuncGlobal:
		return vm.callGlobal(fn, calleeVal, args, span)
	case value.FuncHostPure:
		result, herr := fn.Pure(args)
		calleeVal.Drop()
		if herr != nil {
			return wrapHostErr(span, herr)
		}
		return vm.pushResult(result)
	case value.FuncHostStateful:
		result, herr := fn.Host.Fn(args)
		calleeVal.Drop()
		if herr != nil {
			return wrapHostErr(span, herr)
		}
		return vm.pushResult(result)
	default:
		calleeVal.Drop()
		for _, a := range args {
			a.Drop()
		}
		return vmerrors.Bug("unknown Function kind")
	}
}

func wrapHostErr(span vmerrors.Span, err error) error {
	if ve, ok := err.(*vmerrors.VMError); ok {
		return vmerrors.Stacked(span, ve)
	}
	return vmerrors.Stacked(span, vmerrors.Sig(span, err.Error()))
}

func (vm *Interpreter) pushResult(v value.Value) error {
	if err := vm.Stack.Push(v); err != nil {
		v.Drop()
		return vmerrors.StackOverflow()
	}
	return nil
}

func (vm *Interpreter) callNative(fn *value.Function, calleeVal value.Value, args []value.Value, span vmerrors.Span) error {
	lambda := fn.Native
	if len(args) != len(lambda.ArgIDs) {
		for _, a := range args {
			a.Drop()
		}
		calleeVal.Drop()
		return vmerrors.Sig(span, fmt.Sprintf("%s expects %d argument(s), got %d", lambda.Name, len(lambda.ArgIDs), len(args)))
	}

	if len(vm.frames) >= vm.MaxFrames {
		for _, a := range args {
			a.Drop()
		}
		calleeVal.Drop()
		return vmerrors.StackOverflow()
	}

	closureFrame := scope.NewClosureFrame(lambda.Closure, fn)
	root := scope.NewSubScope(closureFrame)
	for i, id := range lambda.ArgIDs {
		root.BindArg(id, args[i])
	}
	root.BindSelf(fn)

	vm.frames = append(vm.frames, callFrame{
		chunk:       lambda.Chunk,
		ip:          0,
		sc:          root,
		ownedScopes: []*scope.Frame{root},
		calleeOwned: calleeVal, // transfers the stack's Function share to the frame's lifetime
	})
	return nil
}

func (vm *Interpreter) callGlobal(fn *value.Function, calleeVal value.Value, args []value.Value, span vmerrors.Span) error {
	def, ok := vm.Globals.LookupGlobal(fn.Global)
	if !ok {
		for _, a := range args {
			a.Drop()
		}
		calleeVal.Drop()
		return vmerrors.Bug("GlobalRef points at an undefined global")
	}
	if len(args) != len(def.ArgIDs) {
		for _, a := range args {
			a.Drop()
		}
		calleeVal.Drop()
		return vmerrors.Sig(span, fmt.Sprintf("%s expects %d argument(s), got %d", def.Name, len(def.ArgIDs), len(args)))
	}

	if len(vm.frames) >= vm.MaxFrames {
		for _, a := range args {
			a.Drop()
		}
		calleeVal.Drop()
		return vmerrors.StackOverflow()
	}

	// A global definition has no enclosing closure (spec.md §3: Global
	// scope is a flat id -> (signature, instructions) mapping).
	root := scope.NewSubScope(nil)
	for i, id := range def.ArgIDs {
		root.BindArg(id, args[i])
	}
	root.BindSelf(fn)
	calleeVal.Drop() // FuncGlobal carries no heap payload; nothing to keep alive.

	vm.frames = append(vm.frames, callFrame{
		chunk:       def.Chunk,
		ip:          0,
		sc:          root,
		ownedScopes: []*scope.Frame{root},
	})
	return nil
}
