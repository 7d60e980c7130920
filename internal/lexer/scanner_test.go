package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanTypes(t *testing.T, src string) []TokenType {
	t.Helper()
	tokens, err := NewScanner(src).ScanTokens()
	require.NoError(t, err)
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestScanTokensAlwaysTerminatesWithEOF(t *testing.T) {
	types := scanTypes(t, "")
	assert.Equal(t, []TokenType{TokenEOF}, types)
}

func TestKeywordsAreNotScannedAsIdentifiers(t *testing.T) {
	types := scanTypes(t, "def match fn self let return and or true false nil")
	assert.Equal(t, []TokenType{
		TokenDef, TokenMatch, TokenFn, TokenSelf, TokenLet, TokenReturn,
		TokenAnd, TokenOr, TokenTrue, TokenFalse, TokenNil, TokenEOF,
	}, types)
}

func TestUnderscoreAloneIsWildcardButUnderscorePrefixedIsIdent(t *testing.T) {
	types := scanTypes(t, "_ _foo")
	assert.Equal(t, []TokenType{TokenWildcard, TokenIdent, TokenEOF}, types)
}

func TestMaximalMunchOnTwoCharOperators(t *testing.T) {
	types := scanTypes(t, "-> => |> == != <= >= && || ** //  ^^")
	assert.Equal(t, []TokenType{
		TokenArrow, TokenFatArrow, TokenPipe, TokenEqEq, TokenNotEq,
		TokenLE, TokenGE, TokenAndAnd, TokenOrOr, TokenStarStar,
		TokenSlashSlash, TokenCaretCaret, TokenEOF,
	}, types)
}

func TestSingleCharFallbackWhenTheSecondCharDoesNotMatch(t *testing.T) {
	types := scanTypes(t, "- = | & ^")
	assert.Equal(t, []TokenType{
		TokenMinus, TokenAssign, TokenBar, TokenAmp, TokenCaret, TokenEOF,
	}, types)
}

func TestAtomRequiresAnIdentifierAfterColon(t *testing.T) {
	tokens, err := NewScanner(":ok").ScanTokens()
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenAtom, tokens[0].Type)
	assert.Equal(t, ":ok", tokens[0].Lexeme)

	_, err = NewScanner(":").ScanTokens()
	assert.Error(t, err)
}

func TestFloatRequiresADigitAfterTheDot(t *testing.T) {
	types := scanTypes(t, "1.5 2")
	assert.Equal(t, []TokenType{TokenFloat, TokenInt, TokenEOF}, types)

	// A trailing dot with no following digit is not folded into the number;
	// the dot itself has no token meaning of its own, so it is a LexError.
	_, err := NewScanner("2.").ScanTokens()
	assert.Error(t, err)
}

func TestStringEscapesAreUnescaped(t *testing.T) {
	tokens, err := NewScanner(`"a\nb\t\"c\\d"`).ScanTokens()
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "a\nb\t\"c\\d", tokens[0].Lexeme)
}

func TestUnterminatedStringIsALexError(t *testing.T) {
	_, err := NewScanner(`"no closing quote`).ScanTokens()
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
}

func TestHashStartsALineCommentNotAToken(t *testing.T) {
	types := scanTypes(t, "1 # this is a comment\n2")
	assert.Equal(t, []TokenType{TokenInt, TokenInt, TokenEOF}, types)
}

func TestLeadingShebangIsSkipped(t *testing.T) {
	tokens, err := NewScanner("#!/usr/bin/env faeyne\ndef main() { 1 }").ScanTokens()
	require.NoError(t, err)
	require.NotEmpty(t, tokens)
	assert.Equal(t, TokenDef, tokens[0].Type)
}

func TestLineAndColAdvanceAcrossNewlines(t *testing.T) {
	tokens, err := NewScanner("1\n22").ScanTokens()
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 2, tokens[1].Line)
	assert.Equal(t, 1, tokens[1].Col)
}
