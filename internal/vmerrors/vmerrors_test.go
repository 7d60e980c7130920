package vmerrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFindsTheDirectKind(t *testing.T) {
	err := Match(Span{})
	assert.True(t, Is(err, KindMatch))
	assert.False(t, Is(err, KindSig))
}

func TestIsWalksIntoStackedNestedErrors(t *testing.T) {
	inner := Sig(Span{}, "bad shape")
	outer := Stacked(Span{File: "a.fy", Line: 3}, inner)
	assert.True(t, Is(outer, KindSig))
	assert.True(t, Is(outer, KindStacked))
	assert.False(t, Is(outer, KindMatch))
}

func TestIsRejectsNonVMErrors(t *testing.T) {
	assert.False(t, Is(assertionErr{}, KindBug))
}

type assertionErr struct{}

func (assertionErr) Error() string { return "not a VMError" }

func TestUndefinedNameMessageIncludesSuggestionWhenPresent(t *testing.T) {
	err := &VMError{Kind: KindUndefinedName, Name: "fo", Suggestion: "foo"}
	assert.Contains(t, err.Error(), `"fo"`)
	assert.Contains(t, err.Error(), `did you mean "foo"`)

	bare := UndefinedName(Span{}, "fo")
	assert.NotContains(t, bare.Error(), "did you mean")
}

func TestSpanStringFormatsAsFileLineCol(t *testing.T) {
	s := Span{File: "prog.fy", Line: 3, Col: 9}
	assert.Equal(t, "prog.fy:3:9", s.String())
	assert.Equal(t, "", Span{}.String())
}

func TestErrorMessagesNameEveryKind(t *testing.T) {
	cases := []*VMError{
		Match(Span{}),
		Sig(Span{}, "reason"),
		UndefinedName(Span{}, "x"),
		UnreachableCase(Span{}, "f", 2),
		NoneCallable(Span{}, "5"),
		IllegalSelfRef(Span{}),
		StackOverflow(),
		Bug("oops"),
		SyncError("locked"),
	}
	for _, err := range cases {
		assert.NotEmpty(t, err.Error())
	}
}

func TestStackedErrorMessageListsEveryNestedCause(t *testing.T) {
	err := Stacked(Span{}, Sig(Span{}, "one"), Bug("two"))
	msg := err.Error()
	assert.Contains(t, msg, "one")
	assert.Contains(t, msg, "two")
}

func TestErrorMessageAppendsLocationWhenSpanIsSet(t *testing.T) {
	withSpan := Bug("bad")
	withSpan.Span = Span{File: "f.fy", Line: 1, Col: 1}
	assert.Contains(t, withSpan.Error(), "at f.fy:1:1")

	noSpan := Bug("bad")
	assert.NotContains(t, noSpan.Error(), " at ")
}
