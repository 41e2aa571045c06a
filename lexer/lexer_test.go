package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/srcmap"
	"github.com/emberlang/ember/token"
)

func scan(t *testing.T, src string) []token.Token {
	t.Helper()
	files := srcmap.NewFiles()
	l := New(files, "test.mbr", []byte(src))
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	return toks
}

func TestTokenize_Punctuation(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected []token.Kind
	}{
		{"longest match wins", "<<=", []token.Kind{token.ShlEqual, token.EOF}},
		{"shift vs relational", "<<", []token.Kind{token.Shl, token.EOF}},
		{"range vs dot", "..", []token.Kind{token.DotDot, token.EOF}},
		{"range assign", "..=", []token.Kind{token.DotDotEqual, token.EOF}},
		{"arrow", "->", []token.Kind{token.Arrow, token.EOF}},
		{"template angle", "::<", []token.Kind{token.ColonColonLess, token.EOF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := scan(t, tt.src)
			kinds := make([]token.Kind, len(toks))
			for i, tok := range toks {
				kinds[i] = tok.Kind
			}
			assert.Equal(t, tt.expected, kinds)
		})
	}
}

func TestTokenize_KeywordsSupersedeIdentifiers(t *testing.T) {
	toks := scan(t, "let mutable mut")
	require.Len(t, toks, 4)
	assert.Equal(t, token.KwLet, toks[0].Kind)
	assert.Equal(t, token.Identifier, toks[1].Kind, "mutable is an identifier, not the mut keyword")
	assert.Equal(t, token.KwMut, toks[2].Kind)
}

func TestTokenize_IntegerPostfix(t *testing.T) {
	toks := scan(t, "42u32 7i64 3.5f32")
	require.Len(t, toks, 4)
	assert.Equal(t, "42", toks[0].Value)
	assert.Equal(t, "u32", toks[0].Postfix)
	assert.Equal(t, token.IntegerLiteral, toks[0].Kind)
	assert.Equal(t, "7", toks[1].Value)
	assert.Equal(t, "i64", toks[1].Postfix)
	assert.Equal(t, token.FloatLiteral, toks[2].Kind)
	assert.Equal(t, "f32", toks[2].Postfix)
}

func TestTokenize_StringEscapes(t *testing.T) {
	toks := scan(t, `"a\nb\t\"c\""`)
	require.Len(t, toks, 2)
	assert.Equal(t, "a\nb\t\"c\"", toks[0].Value)
}

func TestTokenize_AdjacentStringConcatenation(t *testing.T) {
	toks := scan(t, `"foo" "bar"`)
	require.Len(t, toks, 2)
	assert.Equal(t, "foobar", toks[0].Value)
}

func TestTokenize_RawStringNoEscapes(t *testing.T) {
	toks := scan(t, "`a\\nb`")
	require.Len(t, toks, 2)
	assert.Equal(t, `a\nb`, toks[0].Value)
}

func TestTokenize_NestedBlockComments(t *testing.T) {
	toks := scan(t, "1 /* outer /* inner */ still outer */ 2")
	require.Len(t, toks, 3)
	assert.Equal(t, "1", toks[0].Value)
	assert.Equal(t, "2", toks[1].Value)
}

func TestTokenize_LineComment(t *testing.T) {
	toks := scan(t, "1 // comment\n2")
	require.Len(t, toks, 3)
	assert.Equal(t, "1", toks[0].Value)
	assert.Equal(t, "2", toks[1].Value)
	assert.EqualValues(t, 2, toks[1].Line)
}

func TestTokenize_CRStripped(t *testing.T) {
	toks := scan(t, "1\r\n2")
	require.Len(t, toks, 3)
	assert.EqualValues(t, 2, toks[1].Line)
}

func TestTokenize_NonASCIIStringContent(t *testing.T) {
	toks := scan(t, `"é"`)
	require.Len(t, toks, 2)
	assert.Equal(t, "é", toks[0].Value)
}

func TestTokenize_MalformedInputDoesNotPanic(t *testing.T) {
	files := srcmap.NewFiles()
	l := New(files, "bad.mbr", []byte("let x = \x01 1;"))
	require.NotPanics(t, func() { l.Tokenize() })
	assert.NotEmpty(t, l.Errors())
}

func TestTokenize_UnterminatedString(t *testing.T) {
	files := srcmap.NewFiles()
	l := New(files, "bad.mbr", []byte(`"unterminated`))
	l.Tokenize()
	require.NotEmpty(t, l.Errors())
}
