// Package parse is the operator-precedence Parser component (spec.md
// §2 P, §4.P): a Pratt expression parser plus a table-driven
// statement dispatcher, built directly atop the token stream.
//
// Grounded in the teacher's Parser/BaseParser cursor-and-lookahead
// bookkeeping (parser.go/base_parser.go) and its backtracking/thrown
// error split (errors.go), generalized from a PEG combinator parser
// to a table-driven Pratt parser over a fixed token kind enum.
package parse

import (
	"fmt"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/srcmap"
	"github.com/emberlang/ember/token"
)

// Context carries the ambient parsing flags threaded through
// recursive descent, most notably parsing_template_argument (spec.md
// §4.P) which disambiguates `<`/`>` as comparison operators versus
// generic-instantiation brackets.
type Context struct {
	ParsingTemplateArgument bool
}

// Parser holds the token cursor and per-file state. One Parser parses
// exactly one file's token stream (grounded in the teacher's
// one-BaseParser-per-input-string design).
type Parser struct {
	tokens []token.Token
	pos    int
	files  *srcmap.Files
	file   srcmap.FileID
	sink   *diag.Sink
	arena  *ast.Arena

	statementHandlers map[token.Kind]func(*Parser, Context) ast.Stmt
}

func New(arena *ast.Arena, files *srcmap.Files, file srcmap.FileID, tokens []token.Token, sink *diag.Sink) *Parser {
	p := &Parser{tokens: tokens, files: files, file: file, sink: sink, arena: arena}
	p.statementHandlers = defaultStatementHandlers()
	return p
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.NewEOF(p.file, 0, 0)
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(off int) token.Token {
	idx := p.pos + off
	if idx >= len(p.tokens) {
		return token.NewEOF(p.file, 0, 0)
	}
	return p.tokens[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) location(t token.Token) srcmap.Location {
	return p.files.LocationAt(t.File, t.Begin)
}

func (p *Parser) srcTokensFrom(begin token.Token) ast.SrcTokens {
	pivot := p.cur()
	return ast.SrcTokens{Begin: p.location(begin), Pivot: p.location(pivot), End: p.location(pivot)}
}

// expect consumes a token of kind k or reports a thrown error and
// returns the zero Token, leaving the cursor in place so the caller's
// resync loop can make progress (spec.md §4.P "Failure: ... recovers
// to the next plausible synchronisation point").
func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.thrown("expected %s, found %s", k.Info().DisplayName, p.cur().DisplayName())
	return token.Token{}, false
}

// thrown reports a fatal-to-the-current-statement diagnostic, the
// ParsingError half of the teacher's backtrackingError/ParsingError
// split (errors.go): unlike a backtracking error, this one isn't
// swallowed by an alternative — it stops this statement and triggers
// resync.
func (p *Parser) thrown(format string, args ...any) {
	t := p.cur()
	loc := p.location(t)
	p.sink.Error(diag.ParseError, srcmap.Span{Start: loc, End: loc}, format, args...)
}

// synchronize skips tokens until a plausible resync point: a matching
// closer, a semicolon, or a top-level keyword (spec.md §4.P).
func (p *Parser) synchronize() {
	for !p.at(token.EOF) {
		if p.at(token.Semicolon) {
			p.advance()
			return
		}
		switch p.cur().Kind {
		case token.RBrace, token.RParen, token.RBracket,
			token.KwLet, token.KwFunction, token.KwStruct, token.KwEnum,
			token.KwWhile, token.KwFor, token.KwForeach, token.KwReturn,
			token.KwImport, token.KwExport:
			return
		}
		p.advance()
	}
}

// ParseFile parses every top-level declaration in the token stream,
// resynchronizing after any statement/declaration that fails to
// parse so one file can still yield the rest of its declarations
// (spec.md §4.P, §7).
func (p *Parser) ParseFile() []ast.Decl {
	var decls []ast.Decl
	for !p.at(token.EOF) {
		before := p.pos
		d := p.parseTopLevelDecl()
		if d != nil {
			decls = append(decls, d)
		}
		if p.pos == before {
			p.synchronize()
		}
	}
	return decls
}

func (p *Parser) parseTopLevelDecl() ast.Decl {
	exported := false
	if p.at(token.KwExport) {
		p.advance()
		exported = true
	}
	begin := p.cur()
	switch p.cur().Kind {
	case token.KwImport:
		return p.parseImportDecl(begin)
	case token.KwLet, token.KwMut, token.KwConsteval:
		return p.parseVarDecl(begin, exported)
	case token.KwFunction:
		return p.parseFuncDecl(begin, exported)
	case token.KwOperator:
		return p.parseOperatorDecl(begin, exported)
	case token.KwStruct:
		return p.parseStructDecl(begin)
	case token.KwEnum:
		return p.parseEnumDecl(begin)
	case token.KwType:
		return p.parseTypeAliasDecl(begin)
	default:
		p.thrown("expected a top-level declaration, found %s", p.cur().DisplayName())
		p.advance()
		return nil
	}
}

func (p *Parser) parseImportDecl(begin token.Token) ast.Decl {
	p.advance()
	pathTok, ok := p.expect(token.StringLiteral)
	if !ok {
		return nil
	}
	p.expect(token.Semicolon)
	return ast.NewImportDecl(p.arena, p.srcTokensFrom(begin), pathTok.Value)
}

func (p *Parser) parseVarDecl(begin token.Token, exported bool) ast.Decl {
	var flags ast.DeclFlags
	switch p.advance().Kind {
	case token.KwMut:
		flags |= ast.FlagMut
	case token.KwConsteval:
		flags |= ast.FlagConsteval
	}
	if exported {
		flags |= ast.FlagExport
	}
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return nil
	}
	var varType *ast.TypeSpec
	if p.at(token.Colon) {
		p.advance()
		varType = p.parseTypeSpec()
	}
	var init ast.Expr
	if p.at(token.Equal) {
		p.advance()
		init = p.ParseExpression(Context{}, precNoCommaCeiling)
	}
	p.expect(token.Semicolon)
	d := ast.NewVarDecl(p.arena, p.srcTokensFrom(begin), nameTok.Value, varType, init)
	d.Flags = flags
	return d
}

func (p *Parser) parseParameterList() []ast.Param {
	var params []ast.Param
	p.expect(token.LParen)
	for !p.at(token.RParen) && !p.at(token.EOF) {
		nameTok, ok := p.expect(token.Identifier)
		if !ok {
			break
		}
		p.expect(token.Colon)
		variadic := false
		if p.at(token.Ellipsis) {
			p.advance()
			variadic = true
		}
		typ := p.parseTypeSpec()
		params = append(params, ast.Param{Name: nameTok.Value, Type: typ, Variadic: variadic})
		if p.at(token.Comma) {
			if variadic {
				p.thrown("a variadic parameter must be the last parameter")
			}
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parseFuncDecl(begin token.Token, exported bool) ast.Decl {
	p.advance()
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return nil
	}
	params := p.parseParameterList()
	var ret *ast.TypeSpec
	if p.at(token.Arrow) {
		p.advance()
		ret = p.parseTypeSpec()
	}
	body := p.parseBlockStmts()
	flags := ast.DeclFlags(0)
	if exported {
		flags |= ast.FlagExport
	}
	fb := &ast.FunctionBody{Params: params, ReturnType: ret, Body: body, Flags: flags}
	return ast.NewFuncDecl(p.arena, p.srcTokensFrom(begin), nameTok.Value, fb)
}

func (p *Parser) parseOperatorDecl(begin token.Token, exported bool) ast.Decl {
	p.advance()
	opTok := p.advance()
	params := p.parseParameterList()
	var ret *ast.TypeSpec
	if p.at(token.Arrow) {
		p.advance()
		ret = p.parseTypeSpec()
	}
	body := p.parseBlockStmts()
	flags := ast.DeclFlags(0)
	if exported {
		flags |= ast.FlagExport
	}
	fb := &ast.FunctionBody{Params: params, ReturnType: ret, Body: body, Flags: flags}
	d := &ast.OperatorDecl{Body: fb}
	_ = opTok
	fd := ast.NewFuncDecl(p.arena, p.srcTokensFrom(begin), "operator"+opTok.Value, fb)
	d.Body = fd.Body
	return fd
}

func (p *Parser) parseStructDecl(begin token.Token) ast.Decl {
	p.advance()
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return nil
	}
	info := &ast.TypeInfo{Name: nameTok.Value, IsStruct: true}
	p.expect(token.LBrace)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		memberTok, ok := p.expect(token.Identifier)
		if !ok {
			break
		}
		p.expect(token.Colon)
		typ := p.parseTypeSpec()
		info.Members = append(info.Members, ast.Member{Name: memberTok.Value, Type: typ})
		p.expect(token.Semicolon)
	}
	p.expect(token.RBrace)
	return ast.NewStructDecl(p.arena, p.srcTokensFrom(begin), nameTok.Value, info)
}

func (p *Parser) parseEnumDecl(begin token.Token) ast.Decl {
	p.advance()
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return nil
	}
	var underlying *ast.TypeSpec
	if p.at(token.Colon) {
		p.advance()
		underlying = p.parseTypeSpec()
	}
	d := ast.NewEnumDecl(p.arena, p.srcTokensFrom(begin), nameTok.Value, underlying)
	p.expect(token.LBrace)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		memberTok, ok := p.expect(token.Identifier)
		if !ok {
			break
		}
		var value ast.Expr
		if p.at(token.Equal) {
			p.advance()
			value = p.ParseExpression(Context{}, precNoCommaCeiling)
		}
		d.Members = append(d.Members, ast.EnumMember{Name: memberTok.Value, Value: value})
		if p.at(token.Comma) {
			p.advance()
		}
	}
	p.expect(token.RBrace)
	return d
}

func (p *Parser) parseTypeAliasDecl(begin token.Token) ast.Decl {
	p.advance()
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return nil
	}
	p.expect(token.Equal)
	target := p.parseTypeSpec()
	p.expect(token.Semicolon)
	return ast.NewTypeAliasDecl(p.arena, p.srcTokensFrom(begin), nameTok.Value, target)
}

// parseTypeSpec parses a modifier-stack-then-terminator typespec
// (spec.md §3 Typespec). Generic/array/tuple forms beyond the base
// name are intentionally limited here; the resolver completes
// whatever the parser leaves as UnresolvedType.
func (p *Parser) parseTypeSpec() *ast.TypeSpec {
	var modifiers []ast.Modifier
	for {
		switch p.cur().Kind {
		case token.Star:
			p.advance()
			modifiers = append(modifiers, ast.Modifier{Kind: ast.ModPointer})
		case token.Amp:
			p.advance()
			modifiers = append(modifiers, ast.Modifier{Kind: ast.ModLValueReference})
		case token.KwMut:
			p.advance()
			modifiers = append(modifiers, ast.Modifier{Kind: ast.ModMut})
		case token.KwConst:
			p.advance()
			modifiers = append(modifiers, ast.Modifier{Kind: ast.ModConst})
		case token.Question:
			p.advance()
			modifiers = append(modifiers, ast.Modifier{Kind: ast.ModOptional})
		default:
			goto terminator
		}
	}
terminator:
	switch p.cur().Kind {
	case token.KwVoid:
		p.advance()
		return &ast.TypeSpec{Modifiers: modifiers, Terminator: ast.VoidType{}}
	case token.KwAuto:
		p.advance()
		return &ast.TypeSpec{Modifiers: modifiers, Terminator: ast.AutoType{}}
	case token.KwTypename:
		p.advance()
		return &ast.TypeSpec{Modifiers: modifiers, Terminator: ast.TypenameType{}}
	case token.Identifier:
		begin := p.cur()
		p.advance()
		return &ast.TypeSpec{Modifiers: modifiers, Terminator: ast.UnresolvedType{Tokens: p.srcTokensFrom(begin), Name: begin.Value}}
	default:
		p.thrown("expected a type, found %s", p.cur().DisplayName())
		return &ast.TypeSpec{Modifiers: modifiers, Terminator: ast.UnresolvedType{}}
	}
}

func (p *Parser) parseBlockStmts() []ast.Stmt {
	p.expect(token.LBrace)
	var stmts []ast.Stmt
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		stmts = append(stmts, p.ParseStatement(Context{}))
		if p.pos == before {
			p.synchronize()
		}
	}
	p.expect(token.RBrace)
	return stmts
}

func errUnexpected(t token.Token) error {
	return fmt.Errorf("unexpected token %s", t.DisplayName())
}
