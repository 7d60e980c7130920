package strtable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInvariantReservedIdStability is spec.md §8 invariant 6: the reserved
// ids are fixed at these exact values on every cold start.
func TestInvariantReservedIdStability(t *testing.T) {
	cases := map[string]Id{
		":nil":  Nil,
		":err":  Err,
		":ok":   Ok,
		":len":  Len,
		"_":     Underscore,
		"main":  Main,
		"self":  Self,
	}
	for text, want := range cases {
		assert.Equal(t, want, Id(indexOf(reserved, text)), "reserved slice position for %q", text)
	}
	assert.EqualValues(t, 0, Nil)
	assert.EqualValues(t, 13, Main)
	assert.EqualValues(t, 22, Self)

	table := New()
	for text, want := range cases {
		got, ok := table.Lookup(text)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func indexOf(s []string, text string) int {
	for i, v := range s {
		if v == text {
			return i
		}
	}
	return -1
}

func TestInternIsIdempotent(t *testing.T) {
	table := New()
	a := table.Intern("hello")
	b := table.Intern("hello")
	assert.Equal(t, a, b)
	assert.Equal(t, "hello", table.Text(a))
}

func TestInternAssignsFreshIdsPastReserved(t *testing.T) {
	table := New()
	before := table.Len()
	id := table.Intern("a_brand_new_name")
	assert.EqualValues(t, before, id)
	assert.Equal(t, before+1, table.Len())
}

func TestLookupMissingNameFails(t *testing.T) {
	table := New()
	_, ok := table.Lookup("never_interned")
	assert.False(t, ok)
}

func TestTextPanicsOnUnassignedId(t *testing.T) {
	table := New()
	assert.Panics(t, func() { table.Text(Id(table.Len() + 1000)) })
}

// TestTryInternFailsUnderContention exercises the non-blocking path
// spec.md §5's string-interner locking requirement calls for: a goroutine
// already holding the lock makes a concurrent TryIntern report !ok instead
// of blocking.
func TestTryInternFailsUnderContention(t *testing.T) {
	table := New()
	var wg sync.WaitGroup
	holding := make(chan struct{})
	release := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		table.mu.Lock()
		close(holding)
		<-release
		table.mu.Unlock()
	}()

	<-holding
	_, ok := table.TryIntern("contended")
	assert.False(t, ok)
	close(release)
	wg.Wait()
}
