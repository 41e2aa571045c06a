package resolve

import (
	"fmt"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/scope"
)

// resolveExpr turns an ast.UnresolvedExpr into a ConstantExpr,
// DynamicExpr, or ErrorExpr, walking sc for identifier lookups. Other
// Expr cases are already resolved (or errored) and pass through
// unchanged, matching the idempotence the stage protocol requires.
func (r *Resolver) resolveExpr(sc *scope.Scope, e ast.Expr) ast.Expr {
	unresolved, ok := e.(ast.UnresolvedExpr)
	if !ok {
		return e
	}
	switch p := unresolved.Payload.(type) {
	case ast.IdentifierPayload:
		return r.resolveIdentifier(sc, unresolved, p)
	case ast.LiteralPayload:
		return ast.NewConstant(unresolved.Tokens(), unresolved.ParenLevel(), literalType(p), literalKind(p.Value), p, p.Value)
	case ast.BinaryOpPayload:
		left := r.resolveExpr(sc, p.Left)
		right := r.resolveExpr(sc, p.Right)
		return r.resolveBinary(unresolved, p.Op, left, right)
	case ast.UnaryOpPayload:
		operand := r.resolveExpr(sc, p.Operand)
		return ast.NewDynamic(unresolved.Tokens(), unresolved.ParenLevel(), ast.GetExprType(operand), ast.KindRValue,
			ast.UnaryOpPayload{Op: p.Op, Operand: operand, Postfix: p.Postfix})
	case ast.CallPayload:
		return r.resolveCall(sc, unresolved, p)
	case ast.CastPayload:
		operand := r.resolveExpr(sc, p.Operand)
		return ast.NewDynamic(unresolved.Tokens(), unresolved.ParenLevel(), p.Target, ast.KindRValue,
			ast.CastPayload{Operand: operand, Target: p.Target})
	case ast.MemberAccessPayload:
		base := r.resolveExpr(sc, p.Base)
		return ast.NewDynamic(unresolved.Tokens(), unresolved.ParenLevel(), nil, ast.KindLValue,
			ast.MemberAccessPayload{Base: base, Member: p.Member, Arrow: p.Arrow})
	case ast.SubscriptPayload:
		base := r.resolveExpr(sc, p.Base)
		idx := r.resolveExpr(sc, p.Index)
		return ast.NewDynamic(unresolved.Tokens(), unresolved.ParenLevel(), nil, ast.KindLValue,
			ast.SubscriptPayload{Base: base, Index: idx})
	case ast.IfPayload:
		cond := r.resolveExpr(sc, p.Cond)
		then := r.resolveExpr(sc, p.Then)
		var els ast.Expr
		if p.Else != nil {
			els = r.resolveExpr(sc, p.Else)
		}
		return ast.NewDynamic(unresolved.Tokens(), unresolved.ParenLevel(), ast.GetExprType(then), ast.KindIfExpr,
			ast.IfPayload{Cond: cond, Then: then, Else: els, IsConsteval: p.IsConsteval})
	case ast.TuplePayload:
		elems := make([]ast.Expr, len(p.Elems))
		for i, el := range p.Elems {
			elems[i] = r.resolveExpr(sc, el)
		}
		return ast.NewDynamic(unresolved.Tokens(), unresolved.ParenLevel(), nil, ast.KindTuple, ast.TuplePayload{Elems: elems})
	default:
		return unresolved
	}
}

func (r *Resolver) resolveIdentifier(sc *scope.Scope, e ast.UnresolvedExpr, p ast.IdentifierPayload) ast.Expr {
	if v, ok := sc.LookupVar(p.Name); ok {
		return ast.NewDynamic(e.Tokens(), e.ParenLevel(), v.VarType, ast.KindLValue, p)
	}
	if funcs := sc.LookupFuncSet(p.Name); len(funcs) > 0 {
		if len(funcs) == 1 {
			return ast.NewConstant(e.Tokens(), e.ParenLevel(), functionType(funcs[0]), ast.KindFunctionName, p, ast.FunctionVal{Decl: funcs[0].Body})
		}
		return ast.NewConstant(e.Tokens(), e.ParenLevel(), nil, ast.KindOverloadSet, p, ast.UnqualifiedFuncSetID{Name: p.Name})
	}
	if td, ok := sc.LookupType(p.Name); ok {
		return ast.NewConstant(e.Tokens(), e.ParenLevel(), nil, ast.KindTypeName, p, ast.TypeVal{Type: typeSpecOf(td)})
	}
	r.sink.Error(diag.UnresolvedName, e.Tokens().Span(), "use of undeclared identifier %q", p.Name)
	return ast.NewError(e.Tokens())
}

func typeSpecOf(d ast.Decl) *ast.TypeSpec {
	switch v := d.(type) {
	case *ast.StructDecl:
		return &ast.TypeSpec{Terminator: ast.BaseType{Info: v.Info}}
	case *ast.EnumDecl:
		return &ast.TypeSpec{Terminator: ast.EnumType{Decl: v}}
	case *ast.TypeAliasDecl:
		return v.Target
	default:
		return nil
	}
}

func functionType(fd *ast.FuncDecl) *ast.TypeSpec {
	params := make([]*ast.TypeSpec, len(fd.Body.Params))
	for i, p := range fd.Body.Params {
		params[i] = p.Type
	}
	return &ast.TypeSpec{Terminator: ast.FunctionType{CallConv: fd.Body.CallConv, Params: params, Return: fd.Body.ReturnType}}
}

// literalType builds the TypeSpec for a literal, carrying its postfix
// spelling ("u32", "i8", ...) through as the BaseType's name so later
// stages (overflow/shift-range checks in consteval) know its width and
// signedness. An untyped literal (no postfix) gets a nameless
// BaseType, picked by narrowest-fit at the use site (spec.md §4.R
// "match_expression_to_type... integer-literal narrowest-fit").
func literalType(p ast.LiteralPayload) *ast.TypeSpec {
	if p.TypeName == "" {
		return &ast.TypeSpec{Terminator: ast.BaseType{}}
	}
	return &ast.TypeSpec{Terminator: ast.BaseType{Info: &ast.TypeInfo{Name: p.TypeName, Complete: true}}}
}

// literalKind reports KindIntegerLiteral for either signedness of
// integer constant_value, typed or untyped alike: the postfix
// spelling (carried separately in literalType's BaseType name) is
// what distinguishes a typed literal from an untyped one, not the
// Go-level value variant, so both ast.SInt and ast.UInt values need
// the same expression-type-kind for match_expression_to_type's
// narrowest-fit rule to see them.
func literalKind(v ast.Value) ast.ExprKind {
	switch v.(type) {
	case ast.SInt, ast.UInt:
		return ast.KindIntegerLiteral
	default:
		return ast.KindRValue
	}
}

// resolveBinary folds constant operands eagerly when both sides are
// ConstantExpr so later stages (and, transitively, consteval's
// Guaranteed entry point) don't have to re-derive trivially constant
// arithmetic, while leaving the general case to consteval.
func (r *Resolver) resolveBinary(e ast.UnresolvedExpr, op string, left, right ast.Expr) ast.Expr {
	lc, lok := ast.GetConstantValue(left)
	rc, rok := ast.GetConstantValue(right)
	if lok && rok {
		if v, ok := foldIntBinary(op, lc, rc); ok {
			return ast.NewConstant(e.Tokens(), e.ParenLevel(), literalType(ast.LiteralPayload{Value: v}), ast.KindRValue,
				ast.BinaryOpPayload{Op: op, Left: left, Right: right}, v)
		}
	}
	return ast.NewDynamic(e.Tokens(), e.ParenLevel(), ast.GetExprType(left), ast.KindRValue,
		ast.BinaryOpPayload{Op: op, Left: left, Right: right})
}

func foldIntBinary(op string, l, r ast.Value) (ast.Value, bool) {
	li, lok := l.(ast.SInt)
	ri, rok := r.(ast.SInt)
	if !lok || !rok {
		return nil, false
	}
	switch op {
	case "+":
		return ast.SInt{V: li.V + ri.V}, true
	case "-":
		return ast.SInt{V: li.V - ri.V}, true
	case "*":
		return ast.SInt{V: li.V * ri.V}, true
	case "==":
		return ast.Bool{V: li.V == ri.V}, true
	case "!=":
		return ast.Bool{V: li.V != ri.V}, true
	case "<":
		return ast.Bool{V: li.V < ri.V}, true
	default:
		return nil, false
	}
}

// resolveCall resolves a call expression, recognizing two shapes per
// spec.md §4.R: an ordinary `f(args...)` call against an identifier
// callee, and the universal-function-call form `base.f(args...)`,
// which rewrites to a call named f with base prepended to args before
// overload resolution runs (spec.md §4.R "Universal function call").
func (r *Resolver) resolveCall(sc *scope.Scope, e ast.UnresolvedExpr, p ast.CallPayload) ast.Expr {
	if name, base, args, ok := r.universalCallTarget(sc, p); ok {
		return r.resolveOverloadCall(sc, e, name, append([]ast.Expr{base}, args...), nil)
	}

	callee := r.resolveExpr(sc, p.Callee)
	args := make([]ast.Expr, len(p.Args))
	for i, a := range p.Args {
		args[i] = r.resolveExpr(sc, a)
	}
	if ident, ok := ast.GetExprPayload(callee).(ast.IdentifierPayload); ok {
		return r.resolveOverloadCall(sc, e, ident.Name, args, callee)
	}
	return ast.NewDynamic(e.Tokens(), e.ParenLevel(), ast.GetExprType(callee), ast.KindRValue, ast.CallPayload{Callee: callee, Args: args})
}

// universalCallTarget detects `base.f(args...)` source syntax, which
// the parser produces as a CallPayload whose still-unresolved Callee
// wraps a MemberAccessPayload (parse.parseMemberTail/parseCallTail):
// there is no method table to dispatch against, so every such call is
// rewritten to the free function f with base as its first argument
// (spec.md §4.R "Universal function call").
func (r *Resolver) universalCallTarget(sc *scope.Scope, p ast.CallPayload) (name string, base ast.Expr, args []ast.Expr, ok bool) {
	unresolvedCallee, isUnresolved := p.Callee.(ast.UnresolvedExpr)
	if !isUnresolved {
		return "", nil, nil, false
	}
	ma, isMember := unresolvedCallee.Payload.(ast.MemberAccessPayload)
	if !isMember {
		return "", nil, nil, false
	}
	resolvedBase := r.resolveExpr(sc, ma.Base)
	args = make([]ast.Expr, len(p.Args))
	for i, a := range p.Args {
		args[i] = r.resolveExpr(sc, a)
	}
	return ma.Member, resolvedBase, args, true
}

// resolveOverloadCall runs overload resolution for name against args
// (already resolved), materializes the winning candidate's argument
// coercions, and rebinds the callee to the single resolved target.
// origIdentCallee is the already-resolved identifier-callee expr for
// the ordinary-call shape, used only as the dynamic fallback's callee
// when name has no overload set at all; it is nil for a UFCS call,
// which has no callee expression of its own to fall back to.
func (r *Resolver) resolveOverloadCall(sc *scope.Scope, e ast.UnresolvedExpr, name string, args []ast.Expr, origIdentCallee ast.Expr) ast.Expr {
	candidates := sc.LookupFuncSet(name)
	if len(candidates) == 0 {
		if origIdentCallee == nil {
			r.sink.Error(diag.UnresolvedName, e.Tokens().Span(), "use of undeclared identifier %q", name)
			return ast.NewError(e.Tokens())
		}
		return ast.NewDynamic(e.Tokens(), e.ParenLevel(), ast.GetExprType(origIdentCallee), ast.KindRValue,
			ast.CallPayload{Callee: origIdentCallee, Args: args})
	}

	best, ambiguous := r.selectOverload(candidates, args)
	if best == nil {
		r.sink.Error(diag.OverloadResolutionFailure, e.Tokens().Span(), "no matching overload for call to %q", name)
		return ast.NewError(e.Tokens())
	}
	if ambiguous != nil {
		d := diag.Diagnostic{Kind: diag.OverloadResolutionFailure, Severity: diag.SeverityError,
			PrimarySpan: e.Tokens().Span(), Message: fmt.Sprintf("ambiguous call to %q: multiple equally-good overloads", name)}
		for _, c := range ambiguous {
			d = d.WithNote(fmt.Sprintf("candidate %s", c.DeclName()), c.Tokens().Span())
		}
		r.sink.Report(d)
		return ast.NewError(e.Tokens())
	}

	target := best
	if best.Body.Flags.Has(ast.FlagGeneric) {
		target = r.specialize(best, args)
	}
	coerced := coerceArgs(target, args)
	// Rebind the callee to the single resolved (and possibly
	// specialized) target rather than leaving it pointing at the
	// overload set: consteval dispatches a call by reading
	// FunctionVal.Decl straight off the callee, so it must name the
	// exact FunctionBody overload resolution picked.
	resolvedCallee := ast.NewConstant(e.Tokens(), 0, functionType(target), ast.KindFunctionName,
		ast.IdentifierPayload{Name: name}, ast.FunctionVal{Decl: target.Body})
	return ast.NewDynamic(e.Tokens(), e.ParenLevel(), target.Body.ReturnType, ast.KindRValue,
		ast.CallPayload{Callee: resolvedCallee, Args: coerced})
}

// selectOverload implements the scoring rule of spec.md §4.R "Overload
// resolution": the lowest-scoring candidate wins; a tie among the best
// score is reported back to the caller as ambiguous.
func (r *Resolver) selectOverload(candidates []*ast.FuncDecl, args []ast.Expr) (best *ast.FuncDecl, ambiguous []*ast.FuncDecl) {
	bestScore := -1
	var tied []*ast.FuncDecl
	for _, c := range candidates {
		if len(c.Body.Params) != len(args) && !hasVariadic(c.Body.Params) {
			continue
		}
		score, ok := scoreCandidate(c, args)
		if !ok {
			continue
		}
		switch {
		case bestScore < 0 || score < bestScore:
			bestScore = score
			tied = []*ast.FuncDecl{c}
		case score == bestScore:
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return tied[0], nil
	}
	if len(tied) > 1 {
		return nil, tied
	}
	return nil, nil
}

func hasVariadic(params []ast.Param) bool {
	return len(params) > 0 && params[len(params)-1].Variadic
}

// scoreCandidate sums matchExpressionToType's per-argument score.
// Lower is better, per spec.md §4.R.
func scoreCandidate(c *ast.FuncDecl, args []ast.Expr) (int, bool) {
	total := 0
	for i, a := range args {
		if i >= len(c.Body.Params) {
			if !hasVariadic(c.Body.Params) {
				return 0, false
			}
			total += scoreVariadicArg
			continue
		}
		s, _, ok := matchExpressionToType(a, c.Body.Params[i].Type)
		if !ok {
			return 0, false
		}
		total += s
	}
	return total, true
}

// coerceArgs applies matchExpressionToType's chosen coercion to each
// argument against target's winning parameter types, so the call's
// final argument list carries the materialized cast/conversion nodes
// spec.md §4.R requires ("all coercions are materialised as explicit
// ... nodes") rather than the bare, uncoerced argument expressions.
func coerceArgs(target *ast.FuncDecl, args []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(args))
	for i, a := range args {
		if i >= len(target.Body.Params) {
			out[i] = a
			continue
		}
		_, kind, ok := matchExpressionToType(a, target.Body.Params[i].Type)
		if !ok {
			out[i] = a
			continue
		}
		out[i] = coerceExpr(a, target.Body.Params[i].Type, kind)
	}
	return out
}

// coercion names which branch of match_expression_to_type produced a
// score, so resolveOverloadCall knows which AST node (if any) to wrap
// the argument in once the winning overload is known.
type coercion int

const (
	coerceNone coercion = iota
	coerceReferenceBind
	coerceMutDrop
	coerceIntLiteral
	coerceArrayToSlice
	coerceNullToOptional
	coerceTuple
	coerceUserDefined
	coerceImplicit
)

// coerceExpr materializes kind as an explicit AST node (spec.md §4.R
// "all coercions are materialised as explicit expr_cast,
// expr_optional_cast, or expr_*_copy_construct nodes"). Binds that
// need no runtime action (reference binding, generic-placeholder
// matches) pass the expression through unchanged.
func coerceExpr(e ast.Expr, target *ast.TypeSpec, kind coercion) ast.Expr {
	switch kind {
	case coerceNone, coerceReferenceBind, coerceTuple:
		return e
	case coerceUserDefined:
		return ast.NewDynamic(e.Tokens(), e.ParenLevel(), target, ast.KindRValue,
			ast.AggregateCopyConstructPayload{Type: target, Source: e})
	default: // coerceMutDrop, coerceIntLiteral, coerceArrayToSlice, coerceNullToOptional, coerceImplicit
		return ast.NewDynamic(e.Tokens(), e.ParenLevel(), target, ast.KindRValue,
			ast.CastPayload{Operand: e, Target: target})
	}
}

// Score constants are spaced by ten (rather than plain iota values)
// so an untyped integer literal's narrowest-vs-wider built-in-width
// fit can be sub-scored within the integer-literal-fit tier
// (matchIntegerLiteral) without disturbing their relative order
// against the other match_expression_to_type outcomes.
const (
	scoreIdentity              = 0
	scoreMutConstAdjust        = 10
	scoreIntegerLiteralFit     = 20
	scoreImplicitConversion    = 30
	scoreUserDefinedConversion = 40
	scoreVariadicArg           = 50
)

// matchExpressionToType is the core typing primitive of spec.md §4.R:
// given an argument expression and a target parameter type, returns a
// score (lower is better), the coercion that would realize the match,
// and whether the match is even possible.
func matchExpressionToType(e ast.Expr, target *ast.TypeSpec) (int, coercion, bool) {
	if target == nil {
		return scoreImplicitConversion, coerceImplicit, true
	}

	// A target that's still an unresolved placeholder name names a
	// generic parameter (spec.md §4.R "Generic specialization"): any
	// argument matches it, at the cost of an implicit-conversion-tier
	// score so a concretely-typed overload is preferred when one
	// exists alongside a generic one.
	if ut, ok := target.Terminator.(ast.UnresolvedType); ok && ut.Name != "" {
		return scoreImplicitConversion, coerceNone, true
	}

	if target.HasModifier(ast.ModAutoReference) || target.HasModifier(ast.ModAutoReferenceMut) {
		if ast.GetExprKind(e).BindsByReference() {
			return scoreIdentity, coerceReferenceBind, true
		}
		return matchExpressionToType(e, target.StripOuterReference())
	}

	if isOptional(target) {
		if v, ok := ast.GetConstantValue(e); ok {
			if _, isNull := v.(ast.Null); isNull {
				return scoreImplicitConversion, coerceNullToOptional, true
			}
		}
	}

	srcType := ast.GetExprType(e)
	if srcType == nil {
		return scoreImplicitConversion, coerceImplicit, true
	}

	if ast.GetExprKind(e) == ast.KindIntegerLiteral {
		if s, kind, ok := matchIntegerLiteral(srcType, target); ok {
			return s, kind, true
		}
		return 0, coerceNone, false
	}

	// mut -> non-mut is allowed; the reverse is not (spec.md §4.R).
	if hasOuterMut(target) && !hasOuterMut(srcType) {
		return 0, coerceNone, false
	}
	if hasOuterMut(srcType) && !hasOuterMut(target) {
		if typeSpecEqual(dropOuterMut(srcType), target) {
			return scoreMutConstAdjust, coerceMutDrop, true
		}
	}

	// array-of-T coerces to slice-of-T when T matches.
	if elemTarget, ok := isSliceOf(target); ok {
		if elemSrc, ok := sliceElem(srcType); ok && typeSpecEqual(elemSrc, elemTarget) {
			return scoreImplicitConversion, coerceArrayToSlice, true
		}
	}

	// tuple -> tuple-type requires pointwise match.
	if tt, ok := target.Terminator.(ast.TupleType); ok {
		st, ok := srcType.Terminator.(ast.TupleType)
		if !ok || len(st.Elements) != len(tt.Elements) {
			return 0, coerceNone, false
		}
		for i := range tt.Elements {
			if !typeSpecEqual(st.Elements[i], tt.Elements[i]) {
				return 0, coerceNone, false
			}
		}
		return scoreImplicitConversion, coerceTuple, true
	}

	if typeSpecEqual(srcType, target) {
		return scoreIdentity, coerceNone, true
	}

	if hasCopyConstructorFrom(target, srcType) {
		return scoreUserDefinedConversion, coerceUserDefined, true
	}

	if sameTerminatorShape(srcType, target) {
		return scoreImplicitConversion, coerceImplicit, true
	}

	return 0, coerceNone, false
}

// matchIntegerLiteral implements "integer literals pick the narrowest
// built-in that fits the target-kind family: sint -> i32/i64; uint ->
// u32/u64" (spec.md §4.R). A typed literal (explicit postfix) must
// share the target's signedness family and is scored identity if the
// spelling matches exactly; an untyped literal matches either width
// within the family, with the 32-bit width scored narrower (cheaper)
// than the 64-bit one.
func matchIntegerLiteral(srcType, target *ast.TypeSpec) (int, coercion, bool) {
	targetBase, ok := target.Terminator.(ast.BaseType)
	if !ok || targetBase.Info == nil {
		return 0, coerceNone, false
	}
	tFamily, tWidth, ok := integerFamily(targetBase.Info.Name)
	if !ok {
		return 0, coerceNone, false
	}

	srcName := ""
	if bt, ok := srcType.Terminator.(ast.BaseType); ok && bt.Info != nil {
		srcName = bt.Info.Name
	}
	if srcName == "" {
		if tWidth != 32 && tWidth != 64 {
			return 0, coerceNone, false
		}
		if tWidth == 32 {
			return scoreIntegerLiteralFit, coerceIntLiteral, true
		}
		return scoreIntegerLiteralFit + 1, coerceIntLiteral, true
	}

	sFamily, _, ok := integerFamily(srcName)
	if !ok || sFamily != tFamily {
		return 0, coerceNone, false
	}
	if srcName == targetBase.Info.Name {
		return scoreIdentity, coerceNone, true
	}
	return scoreIntegerLiteralFit, coerceIntLiteral, true
}

func sameTerminatorShape(a, b *ast.TypeSpec) bool {
	_, aBase := a.Terminator.(ast.BaseType)
	_, bBase := b.Terminator.(ast.BaseType)
	return aBase && bBase
}
