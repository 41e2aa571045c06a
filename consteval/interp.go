package consteval

import (
	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/diag"
)

// execStmt runs one resolved local statement against fr, returning a
// control signal describing whether (and how) the enclosing block
// should stop running further statements (spec.md §4.C's "guaranteed
// folding recurses through a function body the same way a runtime
// call would, minus any side effect outside comptime memory").
func (ctx *Context) execStmt(s ast.Stmt, fr *frame) (control, bool) {
	if !ctx.step() {
		return control{}, false
	}
	switch st := s.(type) {
	case ast.ExprStmt:
		if _, ok := ctx.foldWith(st.Expr, fr); !ok {
			return control{}, false
		}
		return control{}, true

	case ast.DeclStmt:
		v, ok := ctx.declStmtValue(st.Decl, fr)
		if !ok {
			return control{}, false
		}
		return v, true

	case ast.ReturnStmt:
		if st.Value == nil {
			return control{kind: ctrlReturn, value: ast.VoidValue{}}, true
		}
		v, ok := ctx.foldWith(st.Value, fr)
		if !ok {
			return control{}, false
		}
		return control{kind: ctrlReturn, value: v}, true

	case ast.BreakStmt:
		var v ast.Value = ast.VoidValue{}
		if st.Value != nil {
			var ok bool
			v, ok = ctx.foldWith(st.Value, fr)
			if !ok {
				return control{}, false
			}
		}
		return control{kind: ctrlBreak, value: v}, true

	case ast.ContinueStmt:
		return control{kind: ctrlContinue}, true

	case ast.BlockStmt:
		child := newFrame(fr)
		for _, inner := range st.Stmts {
			sig, ok := ctx.execStmt(inner, child)
			if !ok {
				return control{}, false
			}
			if sig.kind != ctrlNone {
				return sig, true
			}
		}
		return control{}, true

	case ast.WhileStmt:
		return ctx.execWhile(st.Cond, st.Body, fr)

	case ast.ForStmt:
		return ctx.execFor(st, fr)

	case ast.StaticAssertStmt:
		cond, ok := ctx.foldWith(st.Cond, fr)
		if !ok {
			return control{}, false
		}
		cb, ok := cond.(ast.Bool)
		if !ok || cb.V {
			return control{}, true
		}
		msg := "static assertion failed"
		if st.Message != nil {
			if mv, ok := ctx.foldWith(st.Message, fr); ok {
				if s, ok := mv.(ast.Str); ok {
					msg = s.V
				}
			}
		}
		if ctx.Sink != nil {
			ctx.Sink.Error(diag.StaticAssertFailure, st.Tokens().Span(), "%s", msg)
		}
		return control{}, false

	case ast.DeferStmt:
		// Deferred side effects have nothing to run against inside a
		// pure fold (spec.md §4.C's fold touches only comptime memory
		// and locals, never the driver-visible world a defer would
		// affect), so it is accepted and ignored rather than rejected.
		return control{}, true

	case ast.ForeachStmt:
		// Resolved function bodies never carry a ForeachStmt: the
		// resolver desugars it into a WhileStmt before consteval ever
		// sees the body (spec.md §4.R "Statement resolution (local)").
		return control{}, false

	default:
		return control{}, false
	}
}

func (ctx *Context) declStmtValue(d ast.Decl, fr *frame) (control, bool) {
	vd, ok := d.(*ast.VarDecl)
	if !ok {
		return control{}, false
	}
	if len(vd.TupleDecls) > 0 {
		v, ok := ctx.foldWith(vd.Init, fr)
		if !ok {
			return control{}, false
		}
		elems, ok := arrayElems(v)
		if !ok || len(elems) != len(vd.TupleDecls) {
			return control{}, false
		}
		for i, sub := range vd.TupleDecls {
			fr.vars[sub.Name] = elems[i]
		}
		return control{}, true
	}
	var v ast.Value = ast.VoidValue{}
	if vd.Init != nil {
		var ok bool
		v, ok = ctx.foldWith(vd.Init, fr)
		if !ok {
			return control{}, false
		}
	}
	fr.vars[vd.Name] = v
	return control{}, true
}

func (ctx *Context) execWhile(cond ast.Expr, body ast.Stmt, fr *frame) (control, bool) {
	for {
		cv, ok := ctx.foldWith(cond, fr)
		if !ok {
			return control{}, false
		}
		cb, ok := cv.(ast.Bool)
		if !ok {
			return control{}, false
		}
		if !cb.V {
			return control{}, true
		}
		sig, ok := ctx.execStmt(body, fr)
		if !ok {
			return control{}, false
		}
		switch sig.kind {
		case ctrlBreak:
			return control{}, true
		case ctrlReturn:
			return sig, true
		case ctrlContinue, ctrlNone:
			continue
		}
	}
}

func (ctx *Context) execFor(st ast.ForStmt, fr *frame) (control, bool) {
	child := newFrame(fr)
	if st.Init != nil {
		sig, ok := ctx.execStmt(st.Init, child)
		if !ok {
			return control{}, false
		}
		if sig.kind != ctrlNone {
			return control{}, false
		}
	}
	for {
		if st.Cond != nil {
			cv, ok := ctx.foldWith(st.Cond, child)
			if !ok {
				return control{}, false
			}
			cb, ok := cv.(ast.Bool)
			if !ok || !cb.V {
				return control{}, true
			}
		}
		sig, ok := ctx.execStmt(st.Body, child)
		if !ok {
			return control{}, false
		}
		switch sig.kind {
		case ctrlBreak:
			return control{}, true
		case ctrlReturn:
			return sig, true
		}
		if st.Post != nil {
			if _, ok := ctx.execStmt(st.Post, child); !ok {
				return control{}, false
			}
		}
	}
}

// foldCall dispatches a resolved call (spec.md §4.C.3): intrinsics go
// through the registry installed by RegisterIntrinsic, ordinary
// functions are run by tree-walking their resolved body in a fresh
// frame seeded with the folded arguments.
func (ctx *Context) foldCall(e ast.Expr, p ast.CallPayload, callerFrame *frame) (ast.Value, bool) {
	args := make([]ast.Value, len(p.Args))
	for i, a := range p.Args {
		v, ok := ctx.foldWith(a, callerFrame)
		if !ok {
			return nil, false
		}
		args[i] = v
	}
	target := calleeFunction(p.Callee)
	if target == nil {
		return nil, false
	}
	if target.IntrinsicKind != "" {
		h, ok := intrinsics[target.IntrinsicKind]
		if !ok {
			return nil, false
		}
		return h(ctx, e.Tokens(), args)
	}
	return ctx.callFunction(target, args)
}

func calleeFunction(callee ast.Expr) *ast.FunctionBody {
	v, ok := ast.GetConstantValue(callee)
	if !ok {
		return nil
	}
	fv, ok := v.(ast.FunctionVal)
	if !ok {
		return nil
	}
	return fv.Decl
}

// callFunction binds params to args in a fresh top-level frame and
// runs the body to a ReturnStmt (or implicit void fall-off), charging
// every statement and sub-expression against the same shared Budget
// so recursive comptime functions cannot loop forever (spec.md §4.C.2).
func (ctx *Context) callFunction(fn *ast.FunctionBody, args []ast.Value) (ast.Value, bool) {
	fr := newFrame(nil)
	for i, param := range fn.Params {
		if i < len(args) {
			fr.vars[param.Name] = args[i]
		}
	}
	for _, s := range fn.Body {
		sig, ok := ctx.execStmt(s, fr)
		if !ok {
			return nil, false
		}
		if sig.kind == ctrlReturn {
			return sig.value, true
		}
	}
	return ast.VoidValue{}, true
}
