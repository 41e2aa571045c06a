package resolve

import (
	"fmt"
	"strings"

	"github.com/emberlang/ember/ast"
)

// specialize implements spec.md §4.R "Generic specialization": clone
// the template body with concrete argument types substituted for each
// generic parameter, appended to the template's
// GenericSpecializations, and memoized by the concrete parameter-type
// signature so two calls with the same resolved types share one
// *ast.FuncDecl.
//
// The clone is registered through ast.NewFuncDecl (not built as a
// bare struct literal) and memoized before ResolveDeclAll runs on it,
// so a generic function that calls itself recursively with the same
// concrete types hits the memo entry instead of cloning forever.
func (r *Resolver) specialize(template *ast.FuncDecl, args []ast.Expr) *ast.FuncDecl {
	sig := specializationSignature(template.DeclName(), args)
	if existing, ok := r.specializations[sig]; ok {
		return existing
	}

	subst := substitutionFor(template.Body, args)

	clone := cloneFunctionBody(template.Body)
	clone.Flags &^= ast.FlagGeneric
	clone.Flags |= ast.FlagGenericSpecialization
	clone.GenericParent = template.Body
	for i := range clone.Params {
		clone.Params[i].Type = substituteType(clone.Params[i].Type, subst)
	}
	clone.ReturnType = substituteType(clone.ReturnType, subst)

	cloneDecl := ast.NewFuncDecl(r.arena, template.Tokens(), template.DeclName(), clone)
	template.Body.GenericSpecializations = append(template.Body.GenericSpecializations, clone)
	r.specializations[sig] = cloneDecl

	r.ResolveDeclAll(cloneDecl)
	return cloneDecl
}

// substitutionFor matches each template parameter whose declared type
// is still an unresolved placeholder name against the resolved type
// of the corresponding call argument, building the name-> concrete
// type map specialize applies to the clone's params and return type.
func substitutionFor(template *ast.FunctionBody, args []ast.Expr) map[string]*ast.TypeSpec {
	subst := map[string]*ast.TypeSpec{}
	for i, p := range template.Params {
		if i >= len(args) {
			continue
		}
		ut, ok := p.Type.Terminator.(ast.UnresolvedType)
		if !ok || ut.Name == "" {
			continue
		}
		if _, exists := subst[ut.Name]; exists {
			continue
		}
		if t := ast.GetExprType(args[i]); t != nil {
			subst[ut.Name] = t
		}
	}
	return subst
}

// substituteType returns a copy of t with every placeholder name in
// subst replaced by its concrete type, preserving t's own modifier
// stack (e.g. a `*T` parameter keeps its pointer modifier even though
// T itself carries none). Subtrees with no placeholder are returned
// unchanged, sharing structure with the template.
func substituteType(t *ast.TypeSpec, subst map[string]*ast.TypeSpec) *ast.TypeSpec {
	if t == nil {
		return nil
	}
	switch term := t.Terminator.(type) {
	case ast.UnresolvedType:
		repl, ok := subst[term.Name]
		if !ok {
			return t
		}
		cp := *repl
		cp.Modifiers = append(append([]ast.Modifier{}, t.Modifiers...), repl.Modifiers...)
		return &cp
	case ast.TupleType:
		elems := make([]*ast.TypeSpec, len(term.Elements))
		changed := false
		for i, e := range term.Elements {
			elems[i] = substituteType(e, subst)
			if elems[i] != e {
				changed = true
			}
		}
		if !changed {
			return t
		}
		cp := *t
		cp.Terminator = ast.TupleType{Elements: elems}
		return &cp
	default:
		return t
	}
}

func cloneFunctionBody(b *ast.FunctionBody) *ast.FunctionBody {
	cp := *b
	cp.Params = append([]ast.Param{}, b.Params...)
	cp.Body = append([]ast.Stmt{}, b.Body...)
	cp.GenericSpecializations = nil
	return &cp
}

func specializationSignature(name string, args []ast.Expr) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, a := range args {
		t := ast.GetExprType(a)
		sb.WriteString(fmt.Sprintf("|%s", typeSpecSignature(t)))
	}
	return sb.String()
}

// typeSpecSignature renders t into the string two call sites' memo
// keys compare by name rather than pointer, so two arguments of the
// same built-in or declared type always collide onto the same
// specialization regardless of which *ast.TypeSpec value carries it.
func typeSpecSignature(t *ast.TypeSpec) string {
	if t == nil {
		return "<nil>"
	}
	var sb strings.Builder
	for _, m := range t.Modifiers {
		fmt.Fprintf(&sb, "%d:", m.Kind)
	}
	switch term := t.Terminator.(type) {
	case ast.BaseType:
		if term.Info != nil {
			sb.WriteString(term.Info.Name)
		} else {
			sb.WriteString("base")
		}
	case ast.UnresolvedType:
		sb.WriteString("?" + term.Name)
	case ast.TupleType:
		sb.WriteString("(")
		for _, e := range term.Elements {
			sb.WriteString(typeSpecSignature(e))
			sb.WriteString(",")
		}
		sb.WriteString(")")
	case ast.EnumType:
		if term.Decl != nil {
			sb.WriteString("enum:" + term.Decl.DeclName())
		}
	default:
		fmt.Fprintf(&sb, "%T", term)
	}
	return sb.String()
}
