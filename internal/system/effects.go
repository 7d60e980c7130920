package system

import (
	"fmt"
	"os"
	"path/filepath"

	"faeyne/internal/strtable"
	"faeyne/internal/value"
	"faeyne/internal/vmerrors"
)

func sig(msg string) error { return vmerrors.Sig(vmerrors.Span{}, msg) }

func (r *Registry) println(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("println expects exactly one argument")
	}
	fmt.Println(value.ToDisplayString(args[0], r.table))
	return args[0], nil
}

func (r *Registry) toString(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("to_string expects exactly one argument")
	}
	if _, ok := args[0].AsString(); ok {
		return args[0], nil
	}
	text := value.ToDisplayString(args[0], r.table)
	args[0].Drop()
	return value.NewString(text), nil
}

func (r *Registry) typeOf(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("type expects exactly one argument")
	}
	atom := args[0].Tag.SelectorAtom()
	args[0].Drop()
	return value.Atom(atom), nil
}

func (r *Registry) readFile(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("read_file expects one path argument")
	}
	path, err := wantString(args[0], "read_file's argument")
	if err != nil {
		return value.Value{}, err
	}
	contents, readErr := os.ReadFile(path)
	if readErr != nil {
		return value.Atom(strtable.Err), nil
	}
	return value.NewString(string(contents)), nil
}

func (r *Registry) writeFile(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("write_file expects a path and contents")
	}
	path, err := wantString(args[0], "write_file's first argument")
	if err != nil {
		args[1].Drop()
		return value.Value{}, err
	}
	content, err := wantString(args[1], "write_file's second argument")
	if err != nil {
		return value.Value{}, err
	}
	if werr := os.WriteFile(path, []byte(content), 0o644); werr != nil {
		return value.Atom(strtable.Err), nil
	}
	return value.Atom(strtable.Ok), nil
}

func (r *Registry) deleteFile(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("delete_file expects one path argument")
	}
	path, err := wantString(args[0], "delete_file's argument")
	if err != nil {
		return value.Value{}, err
	}
	if rerr := os.Remove(path); rerr != nil {
		return value.Atom(strtable.Err), nil
	}
	return value.Atom(strtable.Ok), nil
}

func (r *Registry) makeDir(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("make_dir expects one path argument")
	}
	path, err := wantString(args[0], "make_dir's argument")
	if err != nil {
		return value.Value{}, err
	}
	if merr := os.Mkdir(path, 0o755); merr != nil {
		return value.Atom(strtable.Err), nil
	}
	return value.Atom(strtable.Ok), nil
}

func (r *Registry) deleteDir(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("delete_dir expects one path argument")
	}
	path, err := wantString(args[0], "delete_dir's argument")
	if err != nil {
		return value.Value{}, err
	}
	if rerr := os.Remove(path); rerr != nil {
		return value.Atom(strtable.Err), nil
	}
	return value.Atom(strtable.Ok), nil
}

// readDir returns a match-lambda-shaped "array": a FuncHostPure closure
// indexed by integer, returning the n-th directory entry's path as a
// String or Nil once the index runs past the end (spec.md §6.3).
func (r *Registry) readDir(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("read_dir expects one path argument")
	}
	path, err := wantString(args[0], "read_dir's argument")
	if err != nil {
		return value.Value{}, err
	}
	entries, rerr := os.ReadDir(path)
	if rerr != nil {
		return value.Atom(strtable.Err), nil
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = filepath.Join(path, e.Name())
	}

	indexFn := func(idxArgs []value.Value) (value.Value, error) {
		if len(idxArgs) != 1 {
			for _, a := range idxArgs {
				a.Drop()
			}
			return value.Value{}, sig("read_dir's array expects one integer index")
		}
		n, ok := idxArgs[0].AsInt()
		idxArgs[0].Drop()
		if !ok {
			return value.Value{}, sig("read_dir's array index must be an int")
		}
		if n < 0 || int(n) >= len(paths) {
			return value.Nil(), nil
		}
		return value.NewString(paths[n]), nil
	}
	return value.Func(&value.Function{Kind: value.FuncHostPure, Pure: indexFn}), nil
}
