package system

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"faeyne/internal/strtable"
	"faeyne/internal/value"
)

// kvOpen implements the supplemented `system(:kv_open)` effect: opens (or
// creates) a single-file sqlite database and returns a fresh HostStateful
// Function that, called with (:get, key) or (:put, key, value), behaves
// like a small nested `system`-style selector over that database.
//
// Unlike the permanently-registered effects in effects.go, each call opens
// its own *sql.DB and gets its own HostClosure — closing over that specific
// handle rather than sharing one connection across every open call.
func (r *Registry) kvOpen(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("kv_open expects one path argument")
	}
	path, err := wantString(args[0], "kv_open's argument")
	if err != nil {
		return value.Value{}, err
	}

	db, openErr := sql.Open("sqlite", path)
	if openErr != nil {
		return value.Atom(strtable.Err), nil
	}
	if _, execErr := db.Exec(`CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT NOT NULL)`); execErr != nil {
		db.Close()
		return value.Atom(strtable.Err), nil
	}
	r.dbs = append(r.dbs, db)

	handle := &kvHandle{db: db, getAtom: r.kvGetAtom, putAtom: r.kvPutAtom}
	hc := value.NewHostClosure("kv", handle.dispatch)
	return value.Func(&value.Function{Kind: value.FuncHostStateful, Host: hc}), nil
}

type kvHandle struct {
	db      *sql.DB
	getAtom strtable.Id
	putAtom strtable.Id
}

func (h *kvHandle) dispatch(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		for _, a := range args {
			a.Drop()
		}
		return value.Value{}, sig("kv handle expects (:get, key) or (:put, key, value)")
	}
	selector, ok := args[0].AsAtom()
	args[0].Drop()
	if !ok {
		for _, a := range args[1:] {
			a.Drop()
		}
		return value.Value{}, sig("kv handle's first argument must be an atom selector")
	}

	switch selector {
	case h.getAtom:
		if len(args) != 2 {
			for _, a := range args[1:] {
				a.Drop()
			}
			return value.Value{}, sig(":get expects exactly one key")
		}
		key, err := wantString(args[1], ":get's key")
		if err != nil {
			return value.Value{}, err
		}
		var v string
		row := h.db.QueryRow(`SELECT v FROM kv WHERE k = ?`, key)
		if scanErr := row.Scan(&v); scanErr != nil {
			return value.Nil(), nil
		}
		return value.NewString(v), nil

	case h.putAtom:
		if len(args) != 3 {
			for _, a := range args[1:] {
				a.Drop()
			}
			return value.Value{}, sig(":put expects a key and a value")
		}
		key, err := wantString(args[1], ":put's key")
		if err != nil {
			args[2].Drop()
			return value.Value{}, err
		}
		val, err := wantString(args[2], ":put's value")
		if err != nil {
			return value.Value{}, err
		}
		if _, execErr := h.db.Exec(`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, val); execErr != nil {
			return value.Atom(strtable.Err), nil
		}
		return value.Atom(strtable.Ok), nil

	default:
		for _, a := range args[1:] {
			a.Drop()
		}
		return value.Value{}, sig("kv handle: unknown selector")
	}
}
