package token

import "sort"

// Info is the static per-kind metadata row of spec.md §4.T.
type Info struct {
	Spelling    string
	DisplayName string
	Flags       Flags
	UnaryPrec   Prec
	BinaryPrec  Prec
}

// precedence levels from spec.md §4.P, most-binding first.
const (
	precPostfix  = 2
	precUnary    = 3
	precCast     = 4
	precRange    = 5
	precMul      = 6
	precAdd      = 7
	precShift    = 8
	precRel      = 9
	precEq       = 10
	precBitAnd   = 11
	precBitXor   = 12
	precBitOr    = 13
	precBoolAnd  = 14
	precBoolXor  = 15
	precBoolOr   = 16
	precNoAssign = 17
	precAssign   = 18
	precNoComma  = 19
	precComma    = 20
)

// PrecNoComma and PrecComma are exported so callers composing
// ParseExpression ceilings (spec.md §4.P) don't have to hardcode the
// precedence table's numbering.
const (
	PrecNoComma = precNoComma
	PrecComma   = precComma
)

func left(v int8) Prec  { return Prec{Value: v, LeftAssoc: true} }
func right(v int8) Prec { return Prec{Value: v, LeftAssoc: false} }

// InfoTable is the statically-constructed array indexed by Kind,
// built once at package init — the Go realization of the teacher's
// compile-time sorted grammar tables, keyed by this package's closed
// token-kind enum instead of by PEG rule name (spec.md §4.T).
var InfoTable [KindCount]Info

// Keywords maps spellings to their keyword Kind; keywords supersede
// identifiers of the same spelling (spec.md §4.L).
var Keywords map[string]Kind

// Punctuation is every multi- and single-character punctuation
// spelling, sorted longest-first so the lexer's in-order scan of this
// list always prefers the longest match (spec.md §4.L).
var Punctuation []string

var punctuationKind map[string]Kind

func init() {
	t := &InfoTable

	set := func(k Kind, spelling, display string, flags Flags, unary, binary Prec) {
		t[k] = Info{Spelling: spelling, DisplayName: display, Flags: flags, UnaryPrec: unary, BinaryPrec: binary}
	}

	none := Unparseable
	basic := FlagValidExprOrTypeToken

	set(EOF, "", "end of file", 0, none, none)
	set(IntegerLiteral, "", "integer literal", basic, none, none)
	set(FloatLiteral, "", "float literal", basic, none, none)
	set(StringLiteral, "", "string literal", basic, none, none)
	set(CharLiteral, "", "char literal", basic, none, none)
	set(Identifier, "", "identifier", basic, none, none)

	kw := func(k Kind, spelling string, flags Flags, unary, binary Prec) {
		set(k, spelling, "'"+spelling+"'", flags|FlagKeyword|basic, unary, binary)
	}
	kw(KwLet, "let", 0, none, none)
	kw(KwMut, "mut", FlagUnaryOperator|FlagUnaryTypeOp, right(precUnary), none)
	kw(KwConst, "const", FlagUnaryOperator|FlagUnaryTypeOp, right(precUnary), none)
	kw(KwConsteval, "consteval", FlagUnaryOperator|FlagUnaryTypeOp, right(precUnary), none)
	kw(KwType, "type", 0, none, none)
	kw(KwFunction, "function", 0, none, none)
	kw(KwOperator, "operator", 0, none, none)
	kw(KwStruct, "struct", 0, none, none)
	kw(KwEnum, "enum", 0, none, none)
	kw(KwWhile, "while", 0, none, none)
	kw(KwFor, "for", 0, none, none)
	kw(KwForeach, "foreach", 0, none, none)
	kw(KwIn, "in", 0, none, none)
	kw(KwIf, "if", 0, none, none)
	kw(KwElse, "else", 0, none, none)
	kw(KwSwitch, "switch", 0, none, none)
	kw(KwCase, "case", 0, none, none)
	kw(KwDefault, "default", 0, none, none)
	kw(KwReturn, "return", 0, none, none)
	kw(KwDefer, "defer", 0, none, none)
	kw(KwBreak, "break", 0, none, none)
	kw(KwContinue, "continue", 0, none, none)
	kw(KwStaticAssert, "static_assert", 0, none, none)
	kw(KwExport, "export", 0, none, none)
	kw(KwImport, "import", 0, none, none)
	kw(KwVoid, "void", 0, none, none)
	kw(KwAuto, "auto", 0, none, none)
	kw(KwTypename, "typename", 0, none, none)
	kw(KwSizeof, "sizeof", FlagUnaryOperator, right(precUnary), none)
	kw(KwTypeof, "typeof", FlagUnaryOperator, right(precUnary), none)
	kw(KwMove, "move", FlagUnaryOperator, right(precUnary), none)
	kw(KwNull, "null", 0, none, none)
	kw(KwTrue, "true", 0, none, none)
	kw(KwFalse, "false", 0, none, none)
	kw(KwAs, "as", FlagBinaryOperator, none, left(precCast))
	kw(KwOptional, "optional", FlagUnaryTypeOp, right(precUnary), none)

	op := func(k Kind, spelling string, flags Flags, unary, binary Prec) {
		set(k, spelling, "'"+spelling+"'", flags|FlagOperator|basic, unary, binary)
	}

	op(ColonColonLess, "::<", 0, none, none)
	op(Arrow, "->", FlagBinaryOperator, none, left(precPostfix))
	op(DotDotEqual, "..=", FlagBinaryOperator, none, right(precAssign))
	op(DotDot, "..", FlagBinaryOperator, none, left(precRange))
	op(ColonColon, "::", 0, none, none)
	op(PlusPlus, "++", FlagUnaryOperator|FlagUnaryOverloadable|FlagUnaryBuiltin, right(precUnary), none)
	op(MinusMinus, "--", FlagUnaryOperator|FlagUnaryOverloadable|FlagUnaryBuiltin, right(precUnary), none)
	op(ShlEqual, "<<=", FlagBinaryOperator, none, right(precAssign))
	op(ShrEqual, ">>=", FlagBinaryOperator, none, right(precAssign))
	op(Shl, "<<", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precShift))
	op(Shr, ">>", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precShift))
	op(LessEqual, "<=", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precRel))
	op(GreaterEqual, ">=", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precRel))
	op(EqualEqual, "==", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precEq))
	op(BangEqual, "!=", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precEq))
	op(AndAnd, "&&", FlagBinaryOperator, none, left(precBoolAnd))
	op(OrOr, "||", FlagBinaryOperator, none, left(precBoolOr))
	op(XorXor, "^^", FlagBinaryOperator|FlagBinaryOverloadable, none, left(precBoolXor))
	op(PlusEqual, "+=", FlagBinaryOperator, none, right(precAssign))
	op(MinusEqual, "-=", FlagBinaryOperator, none, right(precAssign))
	op(StarEqual, "*=", FlagBinaryOperator, none, right(precAssign))
	op(SlashEqual, "/=", FlagBinaryOperator, none, right(precAssign))
	op(PercentEqual, "%=", FlagBinaryOperator, none, right(precAssign))
	op(AndEqual, "&=", FlagBinaryOperator, none, right(precAssign))
	op(OrEqual, "|=", FlagBinaryOperator, none, right(precAssign))
	op(CaretEqual, "^=", FlagBinaryOperator, none, right(precAssign))
	op(Ellipsis, "...", FlagUnaryOperator, right(precUnary), none)
	op(ForwardKw, "__forward", FlagUnaryOperator, right(precUnary), none)

	op(Plus, "+", FlagUnaryOperator|FlagBinaryOperator|FlagUnaryOverloadable|FlagBinaryOverloadable|FlagUnaryBuiltin|FlagBinaryBuiltin, right(precUnary), left(precAdd))
	op(Minus, "-", FlagUnaryOperator|FlagBinaryOperator|FlagUnaryOverloadable|FlagBinaryOverloadable|FlagUnaryBuiltin|FlagBinaryBuiltin, right(precUnary), left(precAdd))
	op(Star, "*", FlagUnaryOperator|FlagBinaryOperator|FlagUnaryTypeOp|FlagBinaryOverloadable|FlagBinaryBuiltin, right(precUnary), left(precMul))
	op(Slash, "/", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precMul))
	op(Percent, "%", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precMul))
	op(Tilde, "~", FlagUnaryOperator|FlagUnaryOverloadable|FlagUnaryBuiltin, right(precUnary), none)
	op(Bang, "!", FlagUnaryOperator|FlagUnaryOverloadable|FlagUnaryBuiltin, right(precUnary), none)
	op(Amp, "&", FlagUnaryOperator|FlagBinaryOperator|FlagUnaryTypeOp|FlagBinaryOverloadable|FlagBinaryBuiltin, right(precUnary), left(precBitAnd))
	op(Hash, "#", FlagUnaryOperator, right(precUnary), none)
	op(HashHash, "##", FlagUnaryOperator, right(precUnary), none)
	op(Pipe, "|", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precBitOr))
	op(Caret, "^", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precBitXor))
	op(Less, "<", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precRel))
	op(Greater, ">", FlagBinaryOperator|FlagBinaryOverloadable|FlagBinaryBuiltin, none, left(precRel))
	op(Equal, "=", FlagBinaryOperator, none, right(precAssign))
	op(Comma, ",", FlagBinaryOperator, none, left(precComma))
	op(Dot, ".", FlagBinaryOperator, none, left(precPostfix))
	op(Colon, ":", 0, none, none)
	op(Semicolon, ";", 0, none, none)
	op(At, "@", 0, none, none)
	op(Question, "?", FlagUnaryTypeOp, right(precUnary), none)
	op(LParen, "(", FlagBinaryOperator, none, left(precPostfix))
	op(RParen, ")", 0, none, none)
	op(LBracket, "[", FlagBinaryOperator, none, left(precPostfix))
	op(RBracket, "]", 0, none, none)
	op(LBrace, "{", 0, none, none)
	op(RBrace, "}", 0, none, none)

	Keywords = make(map[string]Kind)
	punctuationKind = make(map[string]Kind)
	for k := Kind(0); k < KindCount; k++ {
		info := t[k]
		if info.Spelling == "" {
			continue
		}
		if info.Flags.Has(FlagKeyword) {
			Keywords[info.Spelling] = k
		} else if info.Flags.Has(FlagOperator) {
			punctuationKind[info.Spelling] = k
			Punctuation = append(Punctuation, info.Spelling)
		}
	}
	sort.Slice(Punctuation, func(i, j int) bool { return len(Punctuation[i]) > len(Punctuation[j]) })
}

// Lookup returns an operator Kind for a punctuation spelling.
func Lookup(spelling string) (Kind, bool) {
	k, ok := punctuationKind[spelling]
	return k, ok
}

func (k Kind) Info() Info { return InfoTable[k] }
