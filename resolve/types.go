package resolve

import "github.com/emberlang/ember/ast"

// primitiveTypes is the closed set of built-in base-type names the
// resolver recognizes without any scope lookup (spec.md §3's
// primitive terminators). Populated once; never mutated per-decl, so
// every *ast.TypeInfo handed out from this table for the same name is
// the same pointer. Type comparisons (terminatorEqual) compare names,
// not pointers.
var primitiveTypes = map[string]*ast.TypeInfo{}

func init() {
	for _, name := range []string{
		"i8", "i16", "i32", "i64",
		"u8", "u16", "u32", "u64",
		"f32", "f64",
		"bool", "str", "char",
	} {
		primitiveTypes[name] = &ast.TypeInfo{Name: name, Complete: true}
	}
}

// integerFamily reports the signedness family a built-in integer
// type name belongs to ("sint" or "uint"), per spec.md §4.R's
// narrowest-fit-by-signedness-family rule. ok is false for anything
// that isn't one of the eight built-in integer names.
func integerFamily(name string) (family string, width int, ok bool) {
	switch name {
	case "i8":
		return "sint", 8, true
	case "i16":
		return "sint", 16, true
	case "i32":
		return "sint", 32, true
	case "i64":
		return "sint", 64, true
	case "u8":
		return "uint", 8, true
	case "u16":
		return "uint", 16, true
	case "u32":
		return "uint", 32, true
	case "u64":
		return "uint", 64, true
	default:
		return "", 0, false
	}
}

// resolveNamedType looks up name as a primitive first, then as a
// struct/enum/alias declared in sc, matching the order computeAll's
// statement walk already applies identifiers in (locals shadow
// nothing here since types and values are different namespaces, but
// primitives always win over a same-named user declaration, mirroring
// the teacher's grammar keywords-before-identifiers precedence).
func resolveNamedType(sc lookupScope, name string) (*ast.TypeSpec, bool) {
	if info, ok := primitiveTypes[name]; ok {
		return &ast.TypeSpec{Terminator: ast.BaseType{Info: info}}, true
	}
	if sc == nil {
		return nil, false
	}
	if d, ok := sc.LookupType(name); ok {
		return typeSpecOf(d), true
	}
	return nil, false
}

// lookupScope is the minimal slice of scope.Scope's API the typespec
// resolution helpers need, kept narrow so resolve/types.go doesn't
// have to import scope for anything but this.
type lookupScope interface {
	LookupType(name string) (ast.Decl, bool)
}

// typeSpecEqual is a structural comparison used by the array-to-slice
// and tuple pointwise coercion rules of spec.md §4.R, where "the same
// type" means the same modifier stack and terminator shape rather
// than pointer identity.
func typeSpecEqual(a, b *ast.TypeSpec) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Modifiers) != len(b.Modifiers) {
		return false
	}
	for i := range a.Modifiers {
		if a.Modifiers[i] != b.Modifiers[i] {
			return false
		}
	}
	return terminatorEqual(a.Terminator, b.Terminator)
}

func terminatorEqual(a, b ast.Terminator) bool {
	switch at := a.(type) {
	case ast.BaseType:
		bt, ok := b.(ast.BaseType)
		if !ok {
			return false
		}
		if at.Info == nil || bt.Info == nil {
			return at.Info == bt.Info
		}
		return at.Info.Name == bt.Info.Name
	case ast.VoidType:
		_, ok := b.(ast.VoidType)
		return ok
	case ast.AutoType:
		_, ok := b.(ast.AutoType)
		return ok
	case ast.TupleType:
		bt, ok := b.(ast.TupleType)
		if !ok || len(at.Elements) != len(bt.Elements) {
			return false
		}
		for i := range at.Elements {
			if !typeSpecEqual(at.Elements[i], bt.Elements[i]) {
				return false
			}
		}
		return true
	case ast.EnumType:
		bt, ok := b.(ast.EnumType)
		return ok && at.Decl == bt.Decl
	default:
		return false
	}
}

// hasCopyConstructorFrom reports whether target's struct declares a
// single-parameter constructor accepting src, backing the
// user-defined-conversion branch of match_expression_to_type
// (spec.md §4.R).
func hasCopyConstructorFrom(target, src *ast.TypeSpec) bool {
	if target == nil {
		return false
	}
	bt, ok := target.Terminator.(ast.BaseType)
	if !ok || bt.Info == nil {
		return false
	}
	for _, ctor := range bt.Info.Constructors {
		if len(ctor.Params) == 1 && typeSpecEqual(ctor.Params[0].Type, src) {
			return true
		}
	}
	return false
}

// sliceElem reports t's element type when t is an array-of-T
// modifier stack, for the array-to-slice coercion rule.
func sliceElem(t *ast.TypeSpec) (*ast.TypeSpec, bool) {
	if t == nil || len(t.Modifiers) == 0 || t.Modifiers[0].Kind != ast.ModArray {
		return nil, false
	}
	cp := *t
	cp.Modifiers = t.Modifiers[1:]
	return &cp, true
}

// isSliceOf reports whether t's outer modifier is ModArraySlice, and
// returns the element type beneath it.
func isSliceOf(t *ast.TypeSpec) (*ast.TypeSpec, bool) {
	if t == nil || len(t.Modifiers) == 0 || t.Modifiers[0].Kind != ast.ModArraySlice {
		return nil, false
	}
	cp := *t
	cp.Modifiers = t.Modifiers[1:]
	return &cp, true
}

// isOptional reports whether t's outer modifier is ModOptional.
func isOptional(t *ast.TypeSpec) bool {
	return t != nil && len(t.Modifiers) > 0 && t.Modifiers[0].Kind == ast.ModOptional
}

// dropOuterMut returns a copy of t with a leading ModMut stripped,
// backing the "mut -> non-mut is allowed" half of the mut-adjustment
// rule (spec.md §4.R).
func dropOuterMut(t *ast.TypeSpec) *ast.TypeSpec {
	if t == nil || len(t.Modifiers) == 0 || t.Modifiers[0].Kind != ast.ModMut {
		return t
	}
	cp := *t
	cp.Modifiers = t.Modifiers[1:]
	return &cp
}

func hasOuterMut(t *ast.TypeSpec) bool {
	return t != nil && len(t.Modifiers) > 0 && t.Modifiers[0].Kind == ast.ModMut
}
