package value

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"faeyne/internal/strtable"
)

// TestLawToStringIsIdempotent is spec.md §8's second law:
// to_string(to_string(x)) == to_string(x) for all x.
func TestLawToStringIsIdempotent(t *testing.T) {
	table := strtable.New()
	atomID := table.Intern(":sample")

	samples := []Value{
		Nil(), Bool(true), Bool(false), Int(42), Int(-7),
		Float(3.5), NewString("already a string"), Atom(atomID),
	}
	for _, v := range samples {
		once := ToDisplayString(v, table)
		twice := ToDisplayString(NewString(once), table)
		assert.Equal(t, once, twice, "to_string must be idempotent for %v", v)
	}
}
