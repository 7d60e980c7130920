package value

import (
	"fmt"
	"strconv"

	"faeyne/internal/strtable"
)

// ToDisplayString renders v the way system(:to_string) and the `+` operator's
// string-coercion rule (spec.md §4.5) both need: identity on strings, and a
// canonical textual form for everything else. Idempotent by construction —
// ToDisplayString(NewString(ToDisplayString(x))) always equals
// ToDisplayString(x) — satisfying the to_string(to_string(x)) == to_string(x)
// law of spec.md §8.
func ToDisplayString(v Value, table *strtable.Table) string {
	switch v.Tag {
	case TagNil:
		return ":nil"
	case TagBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case TagAtom:
		return table.Text(v.atomVal)
	case TagString:
		return v.stringVal.String()
	case TagInt:
		return strconv.FormatInt(v.intVal, 10)
	case TagFloat:
		return strconv.FormatFloat(v.floatVal, 'g', -1, 64)
	case TagFunc:
		return fmt.Sprintf("<fn %s>", functionDisplayName(v.funcVal, table))
	default:
		return "<unknown>"
	}
}

func functionDisplayName(f *Function, table *strtable.Table) string {
	switch f.Kind {
	case FuncNative:
		return f.Native.Name
	case FuncGlobal:
		return table.Text(f.Global)
	case FuncHostPure:
		return "<host>"
	case FuncHostStateful:
		return f.Host.Name
	default:
		return "?"
	}
}
