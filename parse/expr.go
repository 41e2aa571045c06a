package parse

import (
	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/token"
)

// precNoCommaCeiling is the ceiling ParseExpression is called with at
// statement boundaries (initializers, return values, case/if/switch
// bodies): every operator binds, including assignment, except the
// bare comma operator itself, matching spec.md §4.P's `expr-no-comma`
// positions.
const precNoCommaCeiling = token.PrecNoComma

// precFullCeiling accepts every operator including comma, for
// positions where a single ParseExpression call owns the whole
// expression (parenthesized groups, subscript indices).
const precFullCeiling = token.PrecComma

// ParseExpression implements the Pratt loop of spec.md §4.P: parse a
// prefix/unary expression, then repeatedly fold in infix/postfix
// operators whose BinaryPrec does not exceed ceiling. Precedence
// values in spec.md §4.T run tightest-first (postfix lowest, comma
// highest), so an operator is only consumed while its Value is no
// greater than ceiling.
func (p *Parser) ParseExpression(ctx Context, ceiling int8) ast.Expr {
	left := p.parseUnary(ctx)
	return p.parseInfix(ctx, left, ceiling)
}

func (p *Parser) parseInfix(ctx Context, left ast.Expr, ceiling int8) ast.Expr {
	for {
		kind := p.cur().Kind
		if ctx.ParsingTemplateArgument && (kind == token.Greater || kind == token.Shr) {
			return left
		}
		info := kind.Info()
		if !info.Flags.Has(token.FlagBinaryOperator) || info.BinaryPrec.IsUnparseable() {
			return left
		}
		if info.BinaryPrec.Value > ceiling {
			return left
		}

		switch kind {
		case token.LParen:
			left = p.parseCallTail(ctx, left)
			continue
		case token.LBracket:
			left = p.parseSubscriptTail(ctx, left)
			continue
		case token.Dot, token.Arrow:
			left = p.parseMemberTail(ctx, left, kind == token.Arrow)
			continue
		case token.KwAs:
			left = p.parseCastTail(ctx, left)
			continue
		}

		opTok := p.advance()
		// Left-assoc operators must not reabsorb another operator at
		// the same level on the right (so a+b+c groups (a+b)+c);
		// right-assoc operators may (so a=b=c groups a=(b=c)).
		rightCeiling := info.BinaryPrec.Value
		if info.BinaryPrec.LeftAssoc {
			rightCeiling--
		}
		right := p.parseUnary(ctx)
		right = p.parseInfix(ctx, right, rightCeiling)
		left = ast.NewUnresolved(p.srcTokensFromExpr(left), left.ParenLevel(), ast.BinaryOpPayload{
			Op: opTok.Value, Left: left, Right: right,
		})
	}
}

func (p *Parser) srcTokensFromExpr(left ast.Expr) ast.SrcTokens {
	src := left.Tokens()
	cur := p.cur()
	return ast.SrcTokens{Begin: src.Begin, Pivot: p.location(cur), End: p.location(cur)}
}

func (p *Parser) parseUnary(ctx Context) ast.Expr {
	kind := p.cur().Kind
	info := kind.Info()
	if info.Flags.Has(token.FlagUnaryOperator) && !info.UnaryPrec.IsUnparseable() {
		opTok := p.advance()
		operand := p.ParseExpression(ctx, info.UnaryPrec.Value)
		return ast.NewUnresolved(ast.SrcTokens{Begin: p.location(opTok), Pivot: p.location(opTok), End: p.location(p.cur())}, 0,
			ast.UnaryOpPayload{Op: opTok.Value, Operand: operand})
	}
	return p.parsePostfixSeed(ctx)
}

func (p *Parser) parsePostfixSeed(ctx Context) ast.Expr {
	begin := p.cur()
	switch begin.Kind {
	case token.LParen:
		p.advance()
		inner := p.ParseExpression(ctx, precFullCeiling)
		p.expect(token.RParen)
		return bumpParenLevel(inner)
	case token.IntegerLiteral:
		p.advance()
		return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.LiteralPayload{Value: parseIntLiteral(begin), TypeName: begin.Postfix})
	case token.FloatLiteral:
		p.advance()
		return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.LiteralPayload{Value: ast.F64{}, TypeName: begin.Postfix})
	case token.StringLiteral:
		p.advance()
		return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.LiteralPayload{Value: ast.Str{V: begin.Value}})
	case token.CharLiteral:
		p.advance()
		var r rune
		for _, c := range begin.Value {
			r = c
			break
		}
		return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.LiteralPayload{Value: ast.Char{V: r}})
	case token.KwTrue:
		p.advance()
		return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.LiteralPayload{Value: ast.Bool{V: true}})
	case token.KwFalse:
		p.advance()
		return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.LiteralPayload{Value: ast.Bool{V: false}})
	case token.KwNull:
		p.advance()
		return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.LiteralPayload{Value: ast.Null{}})
	case token.Identifier:
		p.advance()
		return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.IdentifierPayload{Name: begin.Value})
	case token.KwIf:
		return p.ParseIfExpression(ctx)
	case token.KwSwitch:
		return p.ParseSwitchExpression(ctx)
	case token.LBrace:
		return p.ParseCompoundExpression(ctx)
	default:
		p.thrown("expected an expression, found %s", begin.DisplayName())
		return ast.NewError(p.srcTokensFrom(begin))
	}
}

func bumpParenLevel(e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case ast.UnresolvedExpr:
		v.Paren++
		return v
	default:
		return e
	}
}

func parseIntLiteral(t token.Token) ast.Value {
	var v uint64
	for _, c := range t.Value {
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + uint64(c-'0')
	}
	if len(t.Postfix) > 0 && t.Postfix[0] == 'u' {
		return ast.UInt{V: v}
	}
	return ast.SInt{V: int64(v)}
}

func (p *Parser) parseCallTail(ctx Context, callee ast.Expr) ast.Expr {
	begin := p.cur()
	p.advance() // (
	var args []ast.Expr
	for !p.at(token.RParen) && !p.at(token.EOF) {
		args = append(args, p.ParseExpression(ctx, precNoCommaCeiling))
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RParen)
	return ast.NewUnresolved(ast.SrcTokens{Begin: callee.Tokens().Begin, Pivot: p.location(begin), End: p.location(p.cur())}, 0,
		ast.CallPayload{Callee: callee, Args: args})
}

func (p *Parser) parseSubscriptTail(ctx Context, base ast.Expr) ast.Expr {
	begin := p.cur()
	p.advance() // [
	idx := p.ParseExpression(ctx, precFullCeiling)
	p.expect(token.RBracket)
	return ast.NewUnresolved(ast.SrcTokens{Begin: base.Tokens().Begin, Pivot: p.location(begin), End: p.location(p.cur())}, 0,
		ast.SubscriptPayload{Base: base, Index: idx})
}

func (p *Parser) parseMemberTail(ctx Context, base ast.Expr, arrow bool) ast.Expr {
	begin := p.cur()
	p.advance() // . or ->
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return ast.NewError(p.srcTokensFrom(begin))
	}
	return ast.NewUnresolved(ast.SrcTokens{Begin: base.Tokens().Begin, Pivot: p.location(begin), End: p.location(p.cur())}, 0,
		ast.MemberAccessPayload{Base: base, Member: nameTok.Value, Arrow: arrow})
}

func (p *Parser) parseCastTail(ctx Context, operand ast.Expr) ast.Expr {
	begin := p.cur()
	p.advance() // as
	target := p.parseTypeSpec()
	return ast.NewUnresolved(ast.SrcTokens{Begin: operand.Tokens().Begin, Pivot: p.location(begin), End: p.location(p.cur())}, 0,
		ast.CastPayload{Operand: operand, Target: target})
}

// ParseCompoundExpression parses a `{ stmt...; expr }` block used as
// a value (spec.md §3 Expression "compound"), reusing statement
// parsing for every member but its last, which is the block's value.
func (p *Parser) ParseCompoundExpression(ctx Context) ast.Expr {
	begin := p.cur()
	stmts := p.parseBlockStmts()
	return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.CompoundPayload{Stmts: stmts})
}

// ParseIfExpression parses `if [consteval] (cond) then [else else]` as
// a value-producing expression (spec.md §3 Expression "if").
func (p *Parser) ParseIfExpression(ctx Context) ast.Expr {
	begin := p.cur()
	p.advance() // if
	isConsteval := false
	if p.at(token.KwConsteval) {
		p.advance()
		isConsteval = true
	}
	p.expect(token.LParen)
	cond := p.ParseExpression(ctx, precFullCeiling)
	p.expect(token.RParen)
	then := p.ParseExpression(ctx, precNoCommaCeiling)
	var els ast.Expr
	if p.at(token.KwElse) {
		p.advance()
		els = p.ParseExpression(ctx, precNoCommaCeiling)
	}
	return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.IfPayload{Cond: cond, Then: then, Else: els, IsConsteval: isConsteval})
}

// ParseSwitchExpression parses `switch (subject) { case v, v: body; default: body }`.
func (p *Parser) ParseSwitchExpression(ctx Context) ast.Expr {
	begin := p.cur()
	p.advance() // switch
	p.expect(token.LParen)
	subject := p.ParseExpression(ctx, precFullCeiling)
	p.expect(token.RParen)
	p.expect(token.LBrace)
	var cases []ast.SwitchCase
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		var values []ast.Expr
		if p.at(token.KwDefault) {
			p.advance()
		} else {
			p.expect(token.KwCase)
			values = append(values, p.ParseExpression(ctx, precNoCommaCeiling))
			for p.at(token.Comma) {
				p.advance()
				values = append(values, p.ParseExpression(ctx, precNoCommaCeiling))
			}
		}
		p.expect(token.Colon)
		body := p.ParseExpression(ctx, precNoCommaCeiling)
		cases = append(cases, ast.SwitchCase{Values: values, Body: body})
		p.expect(token.Semicolon)
	}
	p.expect(token.RBrace)
	return ast.NewUnresolved(p.srcTokensFrom(begin), 0, ast.SwitchPayload{Subject: subject, Cases: cases})
}
