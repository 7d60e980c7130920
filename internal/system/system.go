// Package system builds the Faeyne host effect library: the single callable
// `system` Value spec.md §6.2/§6.3 hands to `main`, and the per-selector
// FFI closures it dispatches to (println, to_string, type, file/dir
// effects, and the supplemented kv-store effect).
//
// Grounded on original_source/src/system.rs's get_system/FreeHandle: every
// closure `system` can hand out is built once and tracked by a Registry
// (the Go stand-in for FreeHandle) so cmd/faeyne can release them
// deterministically at shutdown, rather than relying purely on Go's GC to
// decide when the effect table's captured state (file handles, open
// databases) goes away.
package system

import (
	"github.com/google/uuid"

	"faeyne/internal/strtable"
	"faeyne/internal/value"
	"faeyne/internal/vmerrors"
)

// Registry is the live set of host closures `system` has handed out,
// plus whatever OS-level resources they opened (currently: sqlite
// handles from :kv_open). Call Close once, after the interpreter has
// finished running, to release every tracked share and resource.
type Registry struct {
	table *strtable.Table

	handles []*value.HostClosure
	dbs     []closer

	kvOpenAtom strtable.Id
	kvGetAtom  strtable.Id
	kvPutAtom  strtable.Id
}

type closer interface{ Close() error }

// NewRegistry prepares a Registry against table, interning the selector
// atoms the kv-store effect needs that aren't in strtable's reserved set.
//
// Interning here goes through TryIntern rather than the blocking Intern: an
// embedder that builds several Registry instances against one shared Table
// concurrently (spec.md §5's host-embedding note) must not have one
// Registry's setup stall waiting on another's lock hold, so a lost race
// surfaces as a SyncError the embedder can retry instead of deadlocking.
func NewRegistry(table *strtable.Table) (*Registry, error) {
	kvOpenAtom, ok := table.TryIntern(":kv_open")
	if !ok {
		return nil, vmerrors.SyncError("string table busy interning :kv_open")
	}
	kvGetAtom, ok := table.TryIntern(":get")
	if !ok {
		return nil, vmerrors.SyncError("string table busy interning :get")
	}
	kvPutAtom, ok := table.TryIntern(":put")
	if !ok {
		return nil, vmerrors.SyncError("string table busy interning :put")
	}
	return &Registry{
		table:      table,
		kvOpenAtom: kvOpenAtom,
		kvGetAtom:  kvGetAtom,
		kvPutAtom:  kvPutAtom,
	}, nil
}

// track wraps fn in a HostClosure with one permanent owning share held by
// the registry itself, so handing the closure out to running code (via
// Retain, see dispatch) never risks it being released out from under a
// still-live reference.
func (r *Registry) track(name string, fn value.HostFn) *value.HostClosure {
	hc := value.NewHostClosure(name+"-"+uuid.NewString()[:8], fn)
	r.handles = append(r.handles, hc)
	return hc
}

// lend hands out a fresh Value sharing hc, retaining on hc's behalf; the
// permanent share `track` created keeps hc alive regardless of how many of
// these lent-out shares the running program drops.
func lend(hc *value.HostClosure) value.Value {
	hc.Retain()
	return value.Func(&value.Function{Kind: value.FuncHostStateful, Host: hc})
}

// Build constructs the `system` Value: a HostStateful Function that, given
// an Atom selector, returns the Function implementing that effect (spec.md
// §6.2).
func (r *Registry) Build() value.Value {
	println_ := r.track("println", r.println)
	toString := r.track("to_string", r.toString)
	typeOf := r.track("type", r.typeOf)
	readFile := r.track("read_file", r.readFile)
	writeFile := r.track("write_file", r.writeFile)
	deleteFile := r.track("delete_file", r.deleteFile)
	readDir := r.track("read_dir", r.readDir)
	makeDir := r.track("make_dir", r.makeDir)
	deleteDir := r.track("delete_dir", r.deleteDir)
	kvOpen := r.track("kv_open", r.kvOpen)

	dispatch := func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			for _, a := range args {
				a.Drop()
			}
			return value.Value{}, vmerrors.Sig(vmerrors.Span{}, "system expects exactly one atom selector")
		}
		sel, ok := args[0].AsAtom()
		args[0].Drop()
		if !ok {
			return value.Value{}, vmerrors.Sig(vmerrors.Span{}, "system expects an atom selector")
		}

		switch sel {
		case strtable.Println:
			return lend(println_), nil
		case strtable.ToString:
			return lend(toString), nil
		case strtable.TypeAtomSelf:
			return lend(typeOf), nil
		case strtable.ReadFile:
			return lend(readFile), nil
		case strtable.WriteFile:
			return lend(writeFile), nil
		case strtable.DeleteFile:
			return lend(deleteFile), nil
		case strtable.ReadDir:
			return lend(readDir), nil
		case strtable.MakeDir:
			return lend(makeDir), nil
		case strtable.DeleteDir:
			return lend(deleteDir), nil
		case r.kvOpenAtom:
			return lend(kvOpen), nil
		default:
			return value.Value{}, vmerrors.Sig(vmerrors.Span{}, "system: no such effect "+r.table.Text(sel))
		}
	}

	return lend(r.track("system", dispatch))
}

// Close releases every permanent share Build created and closes whatever OS
// resources the kv-store effect opened, in reverse acquisition order. Call
// this once, after the interpreter has finished running.
func (r *Registry) Close() {
	for i := len(r.dbs) - 1; i >= 0; i-- {
		r.dbs[i].Close()
	}
	for i := len(r.handles) - 1; i >= 0; i-- {
		r.handles[i].Release()
	}
}

func wantString(v value.Value, what string) (string, error) {
	s, ok := v.AsString()
	if !ok {
		v.Drop()
		return "", vmerrors.Sig(vmerrors.Span{}, what+" must be a string")
	}
	text := s.String()
	v.Drop()
	return text, nil
}
