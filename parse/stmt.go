package parse

import (
	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/token"
)

// defaultStatementHandlers builds the dispatch table used by
// ParseStatement, one entry per leading keyword a local statement can
// start with (spec.md §4.P "table-driven statement dispatch").
// Anything not in the table falls through to an expression statement.
func defaultStatementHandlers() map[token.Kind]func(*Parser, Context) ast.Stmt {
	return map[token.Kind]func(*Parser, Context) ast.Stmt{
		token.KwLet:          (*Parser).parseLocalVarStmt,
		token.KwMut:          (*Parser).parseLocalVarStmt,
		token.KwConsteval:    (*Parser).parseLocalVarStmt,
		token.KwWhile:        (*Parser).parseWhileStmt,
		token.KwFor:          (*Parser).parseForStmt,
		token.KwForeach:      (*Parser).parseForeachStmt,
		token.KwReturn:       (*Parser).parseReturnStmt,
		token.KwDefer:        (*Parser).parseDeferStmt,
		token.KwBreak:        (*Parser).parseBreakStmt,
		token.KwContinue:     (*Parser).parseContinueStmt,
		token.KwStaticAssert: (*Parser).parseStaticAssertStmt,
		token.LBrace:         (*Parser).parseNestedBlockStmt,
	}
}

// ParseStatement dispatches on the current token's kind, falling back
// to an expression statement terminated by `;` when no handler
// matches (spec.md §4.P).
func (p *Parser) ParseStatement(ctx Context) ast.Stmt {
	if h, ok := p.statementHandlers[p.cur().Kind]; ok {
		return h(p, ctx)
	}
	return p.parseExprStmt(ctx)
}

func (p *Parser) parseLocalVarStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	var flags ast.DeclFlags
	switch p.advance().Kind {
	case token.KwMut:
		flags |= ast.FlagMut
	case token.KwConsteval:
		flags |= ast.FlagConsteval
	}
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return ast.NewErrorStmt(p.srcTokensFrom(begin))
	}
	var varType *ast.TypeSpec
	if p.at(token.Colon) {
		p.advance()
		varType = p.parseTypeSpec()
	}
	var init ast.Expr
	if p.at(token.Equal) {
		p.advance()
		init = p.ParseExpression(ctx, precNoCommaCeiling)
	}
	p.expect(token.Semicolon)
	d := ast.NewVarDecl(p.arena, p.srcTokensFrom(begin), nameTok.Value, varType, init)
	d.Flags = flags
	return ast.NewDeclStmt(p.srcTokensFrom(begin), d)
}

func (p *Parser) parseWhileStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	p.advance() // while
	p.expect(token.LParen)
	cond := p.ParseExpression(ctx, precFullCeiling)
	p.expect(token.RParen)
	body := p.ParseStatement(ctx)
	return ast.NewWhileStmt(p.srcTokensFrom(begin), cond, body)
}

// parseForStmt parses the C-style `for (init; cond; post) body`. Any
// of the three clauses may be empty, matching spec.md §4.P.
func (p *Parser) parseForStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	p.advance() // for
	p.expect(token.LParen)

	var init ast.Stmt
	if !p.at(token.Semicolon) {
		init = p.parseForClauseInit(ctx)
	} else {
		p.advance()
	}

	var cond ast.Expr
	if !p.at(token.Semicolon) {
		cond = p.ParseExpression(ctx, precFullCeiling)
	}
	p.expect(token.Semicolon)

	var post ast.Stmt
	if !p.at(token.RParen) {
		post = ast.NewExprStmt(p.srcTokensFrom(p.cur()), p.ParseExpression(ctx, precFullCeiling))
	}
	p.expect(token.RParen)

	body := p.ParseStatement(ctx)
	return ast.NewForStmt(p.srcTokensFrom(begin), init, cond, post, body)
}

// parseForClauseInit parses the `for` loop's init clause, which is
// either a `let/mut/consteval` local declaration or a bare expression,
// both without requiring their own handler-table lookup.
func (p *Parser) parseForClauseInit(ctx Context) ast.Stmt {
	switch p.cur().Kind {
	case token.KwLet, token.KwMut, token.KwConsteval:
		return p.parseLocalVarStmt(ctx)
	default:
		begin := p.cur()
		e := p.ParseExpression(ctx, precFullCeiling)
		p.expect(token.Semicolon)
		return ast.NewExprStmt(p.srcTokensFrom(begin), e)
	}
}

// parseForeachStmt parses `foreach (x in range) body`; the resolver
// desugars this into the begin/end iterator while-loop of spec.md
// §4.R, so parsing only needs to capture the bound name and the range
// expression.
func (p *Parser) parseForeachStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	p.advance() // foreach
	p.expect(token.LParen)
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return ast.NewErrorStmt(p.srcTokensFrom(begin))
	}
	p.expect(token.KwIn)
	rangeExpr := p.ParseExpression(ctx, precFullCeiling)
	p.expect(token.RParen)
	body := p.ParseStatement(ctx)
	return ast.NewForeachStmt(p.srcTokensFrom(begin), nameTok.Value, rangeExpr, body)
}

func (p *Parser) parseReturnStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	p.advance() // return
	var value ast.Expr
	if !p.at(token.Semicolon) {
		value = p.ParseExpression(ctx, precNoCommaCeiling)
	}
	p.expect(token.Semicolon)
	return ast.NewReturnStmt(p.srcTokensFrom(begin), value)
}

func (p *Parser) parseDeferStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	p.advance() // defer
	e := p.ParseExpression(ctx, precNoCommaCeiling)
	p.expect(token.Semicolon)
	return ast.NewDeferStmt(p.srcTokensFrom(begin), e)
}

func (p *Parser) parseBreakStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	p.advance() // break
	var value ast.Expr
	if !p.at(token.Semicolon) {
		value = p.ParseExpression(ctx, precNoCommaCeiling)
	}
	p.expect(token.Semicolon)
	return ast.NewBreakStmt(p.srcTokensFrom(begin), value)
}

func (p *Parser) parseContinueStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	p.advance() // continue
	p.expect(token.Semicolon)
	return ast.NewContinueStmt(p.srcTokensFrom(begin))
}

func (p *Parser) parseStaticAssertStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	p.advance() // static_assert
	p.expect(token.LParen)
	cond := p.ParseExpression(ctx, precNoCommaCeiling)
	var message ast.Expr
	if p.at(token.Comma) {
		p.advance()
		message = p.ParseExpression(ctx, precNoCommaCeiling)
	}
	p.expect(token.RParen)
	p.expect(token.Semicolon)
	return ast.NewStaticAssertStmt(p.srcTokensFrom(begin), cond, message)
}

func (p *Parser) parseNestedBlockStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	stmts := p.parseBlockStmts()
	return ast.NewBlockStmt(p.srcTokensFrom(begin), stmts)
}

func (p *Parser) parseExprStmt(ctx Context) ast.Stmt {
	begin := p.cur()
	e := p.ParseExpression(ctx, precFullCeiling)
	p.expect(token.Semicolon)
	return ast.NewExprStmt(p.srcTokensFrom(begin), e)
}
