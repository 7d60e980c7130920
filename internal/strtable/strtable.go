// Package strtable implements the Faeyne string interner: an append-only
// mapping between interned text and the small integer ids the rest of the
// engine stores instead of copying strings around.
package strtable

import (
	"fmt"
	"sync"
)

// Id is a stable small integer assigned to a unique piece of interned text.
type Id uint32

// Reserved ids, assigned in this exact order when a Table is constructed.
// The order is load-bearing: spec.md §6.1 requires main == 13, self == 22,
// and so on, on every cold start, the same way original_source/src/system.rs
// pins NIL_ID..STRING_OUT_OF_BOUNDS as constants and asserts them back against
// the table in preload_table.
const (
	Nil Id = iota
	Err
	Ok
	Len

	TypeBool
	TypeString
	TypeInt
	TypeFloat
	TypeAtom
	TypeFunc
	TypeAtomSelf // the :type atom itself, distinct from the 6 type tags above

	ToString
	Underscore
	Main

	Println
	ReadFile
	WriteFile
	DeleteFile
	ReadDir
	MakeDir
	DeleteDir

	StringOutOfBounds
	Self
)

var reserved = []string{
	Nil:               ":nil",
	Err:               ":err",
	Ok:                ":ok",
	Len:                ":len",
	TypeBool:          ":bool",
	TypeString:        ":string",
	TypeInt:           ":int",
	TypeFloat:         ":float",
	TypeAtom:          ":atom",
	TypeFunc:          ":func",
	TypeAtomSelf:      ":type",
	ToString:          ":to_string",
	Underscore:        "_",
	Main:              "main",
	Println:           ":println",
	ReadFile:          ":read_file",
	WriteFile:         ":write_file",
	DeleteFile:        ":delete_file",
	ReadDir:           ":read_dir",
	MakeDir:           ":make_dir",
	DeleteDir:         ":delete_dir",
	StringOutOfBounds: ":string_out_of_bounds",
	Self:              "self",
}

// Table is the append-only text<->id mapping. The zero value is not usable;
// construct one with New, which preloads the reserved prefix.
type Table struct {
	mu    sync.Mutex
	ids   map[string]Id
	texts []string
}

// New builds a Table with the first len(reserved) ids preassigned in the
// order spec.md §6.1 demands, and asserts the assignment landed correctly
// the way original_source/src/system.rs::preload_table does.
func New() *Table {
	t := &Table{
		ids:   make(map[string]Id, len(reserved)*2),
		texts: make([]string, 0, len(reserved)*2),
	}
	for _, text := range reserved {
		t.intern(text)
	}
	assertReserved(t)
	return t
}

func assertReserved(t *Table) {
	for id, text := range reserved {
		got, ok := t.ids[text]
		if !ok || got != Id(id) {
			panic(fmt.Sprintf("strtable: reserved id for %q misassigned: want %d got %d (ok=%v)", text, id, got, ok))
		}
	}
}

func (t *Table) intern(text string) Id {
	if id, ok := t.ids[text]; ok {
		return id
	}
	id := Id(len(t.texts))
	t.ids[text] = id
	t.texts = append(t.texts, text)
	return id
}

// Intern assigns (or returns the existing) id for text, blocking until the
// table's lock is available. The compiler interns every name through this
// path; the interpreter loop only reads ids back with Text.
func (t *Table) Intern(text string) Id {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.intern(text)
}

// TryIntern is Intern's non-blocking sibling: used by host effects that run
// the engine embedded inside a larger concurrent host (spec.md §5's
// "string-interner locking requirement") and must not stall waiting on a
// table another goroutine holds. ok is false when the lock was contended,
// leaving the caller to surface a SyncError rather than block.
func (t *Table) TryIntern(text string) (id Id, ok bool) {
	if !t.mu.TryLock() {
		return 0, false
	}
	defer t.mu.Unlock()
	return t.intern(text), true
}

// Lookup returns the id already assigned to text, if any.
func (t *Table) Lookup(text string) (Id, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.ids[text]
	return id, ok
}

// Text returns the text behind id. Panics on an id the table never assigned:
// that is always a translator or interpreter bug (an invariant violation),
// never a user-facing condition.
func (t *Table) Text(id Id) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(id) >= len(t.texts) {
		panic(fmt.Sprintf("strtable: id %d was never assigned", id))
	}
	return t.texts[id]
}

// Len reports how many ids have been assigned so far.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.texts)
}
