package ast

// ModifierKind enumerates the typespec modifier stack of spec.md §3
// Typespec. A TypeSpec is an ordered list of modifiers ending in a
// Terminator.
type ModifierKind int

const (
	ModPointer ModifierKind = iota
	ModLValueReference
	ModMoveReference
	ModAutoReference
	ModAutoReferenceMut
	ModMut
	ModConst
	ModConsteval
	ModOptional
	ModArray    // carries Size
	ModArraySlice
	ModVariadic
)

// Modifier is one entry in a TypeSpec's modifier stack.
type Modifier struct {
	Kind ModifierKind
	Size int64 // only meaningful for ModArray
}

// Terminator is the closed sum of typespec terminators (spec.md §3).
type Terminator interface {
	isTerminator()
}

type BaseType struct {
	Info *TypeInfo
}

type VoidType struct{}
type AutoType struct{}
type TypenameType struct{}

type TupleType struct {
	Elements []*TypeSpec
}

type EnumType struct {
	Decl *EnumDecl
}

type FunctionType struct {
	CallConv string // "", "c", "fast", "std"
	Params   []*TypeSpec
	Return   *TypeSpec
}

// UnresolvedType wraps a still-unresolved token range, produced by
// the parser before the resolver has had a chance to look the name
// up (spec.md §3 "unresolved(token_range)"). Name carries the
// identifier spelling the parser saw, so the resolver can look it up
// against a primitive table or a scope without re-lexing Tokens.
type UnresolvedType struct {
	Tokens SrcTokens
	Name   string
}

func (BaseType) isTerminator()       {}
func (VoidType) isTerminator()       {}
func (AutoType) isTerminator()       {}
func (TypenameType) isTerminator()   {}
func (TupleType) isTerminator()      {}
func (EnumType) isTerminator()       {}
func (FunctionType) isTerminator()   {}
func (UnresolvedType) isTerminator() {}

// TypeSpec is an ordered modifier stack plus a terminator (spec.md §3).
//
// Invariants of a well-formed TypeSpec:
//   - at most one outer mut/const/consteval modifier
//   - references cannot appear under a modifier other than optional
//   - variadic may only terminate a parameter type, and only as the
//     last parameter
//
// Only the third is checked, by the parser's parameter-list parsing
// (see parse.parseParameterList); nothing checks the first two, and
// parse.parseTypeSpec accepts any sequence of modifiers.
type TypeSpec struct {
	Modifiers  []Modifier
	Terminator Terminator
}

func (t *TypeSpec) IsVoid() bool {
	_, ok := t.Terminator.(VoidType)
	return ok && len(t.Modifiers) == 0
}

func (t *TypeSpec) Outer() (Modifier, bool) {
	if len(t.Modifiers) == 0 {
		return Modifier{}, false
	}
	return t.Modifiers[0], true
}

func (t *TypeSpec) HasModifier(k ModifierKind) bool {
	for _, m := range t.Modifiers {
		if m.Kind == k {
			return true
		}
	}
	return false
}

// StripOuterReference returns a copy of t with a leading reference
// modifier removed, used by match_expression_to_type when an
// auto_reference parameter binds to an rvalue argument (spec.md
// §4.R Match-expression-to-type).
func (t *TypeSpec) StripOuterReference() *TypeSpec {
	if len(t.Modifiers) == 0 {
		return t
	}
	switch t.Modifiers[0].Kind {
	case ModLValueReference, ModMoveReference, ModAutoReference, ModAutoReferenceMut:
		cp := *t
		cp.Modifiers = t.Modifiers[1:]
		return &cp
	default:
		return t
	}
}

// IsComplete reports whether every terminator and array size this
// typespec transitively refers to is fully resolved. Intrinsics that
// accept a typespec must check this before using it (spec.md §9 open
// question 3) instead of silently proceeding on a partially-formed
// value.
func (t *TypeSpec) IsComplete() bool {
	switch term := t.Terminator.(type) {
	case UnresolvedType:
		return false
	case BaseType:
		return term.Info != nil && term.Info.Complete
	case TupleType:
		for _, e := range term.Elements {
			if !e.IsComplete() {
				return false
			}
		}
		return true
	case FunctionType:
		if term.Return != nil && !term.Return.IsComplete() {
			return false
		}
		for _, p := range term.Params {
			if !p.IsComplete() {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// TypeInfo is "the program's representation of a user-defined struct
// or enum declaration, including member layout, destructor,
// constructors" (GLOSSARY).
type TypeInfo struct {
	Name         string
	Complete     bool
	Size         int64
	Align        int64
	Members      []Member
	Constructors []*FunctionBody
	Destructor   *FunctionBody
	IsStruct     bool
}

type Member struct {
	Name   string
	Type   *TypeSpec
	Offset int64
}
