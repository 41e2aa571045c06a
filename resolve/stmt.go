package resolve

import (
	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/scope"
)

// resolveStmt resolves one statement in sc, returning its resolved
// replacement (spec.md §4.R "Statement resolution (local)").
// ForeachStmt is desugared away entirely; every other case resolves
// its own sub-expressions/sub-statements in place.
func (r *Resolver) resolveStmt(sc *scope.Scope, s ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case ast.ExprStmt:
		n.Expr = r.resolveExpr(sc, n.Expr)
		return n
	case ast.DeclStmt:
		if vd, ok := n.Decl.(*ast.VarDecl); ok {
			vd.Init = r.resolveExpr(sc, vd.Init)
			sc.Decls.AddVar(vd)
		}
		return n
	case ast.WhileStmt:
		n.Cond = r.resolveExpr(sc, n.Cond)
		n.Body = r.resolveStmt(sc.PushLocal(), n.Body)
		return n
	case ast.ForStmt:
		body := sc.PushLocal()
		if n.Init != nil {
			n.Init = r.resolveStmt(body, n.Init)
		}
		if n.Cond != nil {
			n.Cond = r.resolveExpr(body, n.Cond)
		}
		if n.Post != nil {
			n.Post = r.resolveStmt(body, n.Post)
		}
		n.Body = r.resolveStmt(body, n.Body)
		return n
	case ast.ForeachStmt:
		return r.desugarForeach(sc, n)
	case ast.ReturnStmt:
		if n.Value != nil {
			n.Value = r.resolveExpr(sc, n.Value)
		}
		return n
	case ast.DeferStmt:
		n.Expr = r.resolveExpr(sc, n.Expr)
		return n
	case ast.BreakStmt:
		if n.Value != nil {
			n.Value = r.resolveExpr(sc, n.Value)
		}
		return n
	case ast.ContinueStmt:
		return n
	case ast.StaticAssertStmt:
		return r.resolveStaticAssert(sc, n)
	case ast.BlockStmt:
		inner := sc.PushLocal()
		for i, child := range n.Stmts {
			n.Stmts[i] = r.resolveStmt(inner, child)
		}
		n.Stmts = append(n.Stmts, reversedDefers(n.Stmts)...)
		return n
	default:
		return s
	}
}

// reversedDefers collects every DeferStmt already present in stmts
// and returns them in reverse registration order, appended once at
// block exit, per spec.md §4.R "defer: registers an expression to be
// executed at scope exit in reverse order". The originals stay in
// place as markers; only the synthesized trailing copies actually run
// at scope-exit time once lowered by consteval/codegen.
func reversedDefers(stmts []ast.Stmt) []ast.Stmt {
	var defers []ast.DeferStmt
	for _, s := range stmts {
		if d, ok := s.(ast.DeferStmt); ok {
			defers = append(defers, d)
		}
	}
	out := make([]ast.Stmt, 0, len(defers))
	for i := len(defers) - 1; i >= 0; i-- {
		out = append(out, ast.ExprStmt{Expr: defers[i].Expr})
	}
	return out
}

// desugarForeach rewrites `foreach(x in range) body` into the
// begin/end iterator loop of spec.md §4.R, using universal-function-
// call lookup for begin/end (i.e. `range.begin()` resolves as
// `begin(range)` against the visible overload set).
func (r *Resolver) desugarForeach(sc *scope.Scope, n ast.ForeachStmt) ast.Stmt {
	blockScope := sc.PushLocal()
	rangeExpr := r.resolveExpr(blockScope, n.Range)

	rangeDecl := ast.NewVarDecl(r.arena, n.Tokens(), "__range", ast.GetExprType(rangeExpr), rangeExpr)
	blockScope.Decls.AddVar(rangeDecl)

	rangeIdent := ast.NewDynamic(n.Tokens(), 0, rangeDecl.VarType, ast.KindLValue, ast.IdentifierPayload{Name: "__range"})
	beginPayload := ast.CallPayload{Callee: ast.NewUnresolved(n.Tokens(), 0, ast.IdentifierPayload{Name: "begin"}), Args: []ast.Expr{rangeIdent}}
	endPayload := ast.CallPayload{Callee: ast.NewUnresolved(n.Tokens(), 0, ast.IdentifierPayload{Name: "end"}), Args: []ast.Expr{rangeIdent}}
	beginCall := r.resolveCall(blockScope, ast.NewUnresolved(n.Tokens(), 0, beginPayload), beginPayload)
	endCall := r.resolveCall(blockScope, ast.NewUnresolved(n.Tokens(), 0, endPayload), endPayload)

	iterDecl := ast.NewVarDecl(r.arena, n.Tokens(), "__iter", ast.GetExprType(beginCall), beginCall)
	endDecl := ast.NewVarDecl(r.arena, n.Tokens(), "__end", ast.GetExprType(endCall), endCall)
	blockScope.Decls.AddVar(iterDecl)
	blockScope.Decls.AddVar(endDecl)

	iterIdent := ast.NewDynamic(n.Tokens(), 0, iterDecl.VarType, ast.KindLValue, ast.IdentifierPayload{Name: "__iter"})
	endIdent := ast.NewDynamic(n.Tokens(), 0, endDecl.VarType, ast.KindLValue, ast.IdentifierPayload{Name: "__end"})
	cond := ast.NewDynamic(n.Tokens(), 0, &ast.TypeSpec{Terminator: ast.BaseType{}}, ast.KindRValue,
		ast.BinaryOpPayload{Op: "!=", Left: iterIdent, Right: endIdent})

	loopScope := blockScope.PushLocal()
	elemVal := ast.NewDynamic(n.Tokens(), 0, nil, ast.KindLValue, ast.UnaryOpPayload{Op: "*", Operand: iterIdent})
	elemDecl := ast.NewVarDecl(r.arena, n.Tokens(), n.Var, ast.GetExprType(elemVal), elemVal)
	loopScope.Decls.AddVar(elemDecl)

	body := r.resolveStmt(loopScope, n.Body)
	incr := ast.ExprStmt{Expr: ast.NewDynamic(n.Tokens(), 0, nil, ast.KindRValue, ast.UnaryOpPayload{Op: "++", Operand: iterIdent})}

	loopBody := ast.BlockStmt{Stmts: []ast.Stmt{
		ast.DeclStmt{Decl: elemDecl},
		body,
		incr,
	}}

	whileStmt := ast.WhileStmt{Cond: cond, Body: loopBody}
	return ast.BlockStmt{Stmts: []ast.Stmt{
		ast.DeclStmt{Decl: rangeDecl},
		ast.DeclStmt{Decl: iterDecl},
		ast.DeclStmt{Decl: endDecl},
		whileStmt,
	}}
}

// resolveStaticAssert implements spec.md §4.R: cond must type to bool
// and fold to a constant; false folds emit a diagnostic carrying msg.
func (r *Resolver) resolveStaticAssert(sc *scope.Scope, n ast.StaticAssertStmt) ast.Stmt {
	n.Cond = r.resolveExpr(sc, n.Cond)
	if n.Message != nil {
		n.Message = r.resolveExpr(sc, n.Message)
	}
	v, ok := ast.GetConstantValue(n.Cond)
	if !ok {
		r.sink.Error(diag.ConstevalFailure, n.Tokens().Span(), "static_assert condition did not fold to a constant")
		return n
	}
	b, ok := v.(ast.Bool)
	if !ok {
		r.sink.Error(diag.TypeMismatch, n.Tokens().Span(), "static_assert condition must be bool")
		return n
	}
	if !b.V {
		msg := "static assertion failed"
		if mv, ok := ast.GetConstantValue(n.Message); ok {
			if sv, ok := mv.(ast.Str); ok {
				msg = sv.V
			}
		}
		r.sink.Error(diag.StaticAssertFailure, n.Tokens().Span(), "%s", msg)
	}
	return n
}
