package token

import "github.com/emberlang/ember/srcmap"

// Token is the lexer's output unit (spec.md §3 Tokens).
//
// Postfix carries an integer/float literal's optional type suffix
// (u8, i32, f64, ...) separately from Value, since it drives later
// type selection in the resolver rather than the literal's own
// lexical spelling.
type Token struct {
	Kind    Kind
	Value   string
	Postfix string
	File    srcmap.FileID
	Line    int32
	Begin   srcmap.Pos
	End     srcmap.Pos
}

func (t Token) Span(files *srcmap.Files) srcmap.Span {
	return srcmap.Span{
		Start: files.LocationAt(t.File, t.Begin),
		End:   files.LocationAt(t.File, t.End),
	}
}

func (t Token) IsKeyword() bool  { return t.Kind.Info().Flags.Has(FlagKeyword) }
func (t Token) IsOperator() bool { return t.Kind.Info().Flags.Has(FlagOperator) }
func (t Token) DisplayName() string {
	if t.Kind.Info().DisplayName != "" {
		return t.Kind.Info().DisplayName
	}
	return t.Value
}

// NewEOF builds the synthetic eof token every token stream ends with.
func NewEOF(file srcmap.FileID, line int32, pos srcmap.Pos) Token {
	return Token{Kind: EOF, File: file, Line: line, Begin: pos, End: pos}
}
