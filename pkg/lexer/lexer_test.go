package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenTypes(src string) []TokenType {
	l := New(src)
	var types []TokenType
	for {
		tok := l.Next()
		types = append(types, tok.Type)
		if tok.Type == EOF {
			return types
		}
	}
}

func TestScansPunctuationAndOperators(t *testing.T) {
	types := tokenTypes("(){}.,-+;*/ != == <= >= < > = !")
	require.Equal(t, []TokenType{
		LeftParen, RightParen, LeftBrace, RightBrace, Dot, Comma, Minus, Plus,
		Semicolon, Star, Slash, BangEqual, EqualEqual, LessEqual, GreaterEqual,
		Less, Greater, Equal, Bang, EOF,
	}, types)
}

func TestScansKeywordsAndIdentifiers(t *testing.T) {
	l := New("class fun notakeyword")
	require.Equal(t, Class, l.Next().Type)
	require.Equal(t, Fun, l.Next().Type)
	tok := l.Next()
	require.Equal(t, Identifier, tok.Type)
	require.Equal(t, "notakeyword", tok.Lexeme)
}

func TestScansNumbers(t *testing.T) {
	l := New("123 45.67")
	tok := l.Next()
	require.Equal(t, Number, tok.Type)
	require.Equal(t, "123", tok.Lexeme)
	tok = l.Next()
	require.Equal(t, Number, tok.Type)
	require.Equal(t, "45.67", tok.Lexeme)
}

func TestScansStrings(t *testing.T) {
	l := New(`"hello world"`)
	tok := l.Next()
	require.Equal(t, String, tok.Type)
	require.Equal(t, `"hello world"`, tok.Lexeme)
}

func TestUnterminatedStringIsErrorToken(t *testing.T) {
	l := New(`"oops`)
	tok := l.Next()
	require.Equal(t, Error, tok.Type)
}

func TestSkipsLineCommentsAndTracksLineNumbers(t *testing.T) {
	l := New("1 // a comment\n2")
	first := l.Next()
	require.Equal(t, 1, first.Line)
	second := l.Next()
	require.Equal(t, 2, second.Line)
	require.Equal(t, "2", second.Lexeme)
}

func TestUnexpectedCharacterIsErrorToken(t *testing.T) {
	l := New("@")
	tok := l.Next()
	require.Equal(t, Error, tok.Type)
}
