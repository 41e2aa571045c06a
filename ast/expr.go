package ast

// ExprKind is the expression-type-kind of spec.md §3.
type ExprKind int

const (
	KindNone ExprKind = iota
	KindLValue
	KindLValueReference
	KindRValue
	KindRValueReference
	KindMovedLValue
	KindTypeName
	KindIntegerLiteral
	KindEnumLiteral
	KindFunctionName
	KindOverloadSet
	KindNoreturn
	KindSwitchExpr
	KindIfExpr
	KindTuple
)

// BindsByReference implements the rule "an lvalue binds by
// reference" (spec.md §3).
func (k ExprKind) BindsByReference() bool { return k == KindLValue || k == KindLValueReference }

// UnifiesWithAnything implements "noreturn unifies with anything"
// (spec.md §3).
func (k ExprKind) UnifiesWithAnything() bool { return k == KindNoreturn }

// Expr is the closed sum unresolved | constant | dynamic | error
// (spec.md §3 Expression).
type Expr interface {
	Node
	isExpr()
	ParenLevel() int
}

// SuppressesWarnings implements the paren-level suppression rule of
// spec.md §7: a warning nested two or more parens deep is silent.
func SuppressesWarnings(e Expr) bool { return e.ParenLevel() >= 2 }

type exprBase struct {
	NodeBase
	Paren int
}

func (e exprBase) ParenLevel() int { return e.Paren }

// UnresolvedExpr is produced by the parser before any resolution has
// run.
type UnresolvedExpr struct {
	exprBase
	Payload Payload
}

// ConstantExpr carries its type, expression-type-kind, the dynamic
// payload, and a resolved constant_value (spec.md §3).
type ConstantExpr struct {
	exprBase
	Type    *TypeSpec
	Kind    ExprKind
	Payload Payload
	Value   Value
}

// DynamicExpr carries type + kind + payload, with no folded value.
type DynamicExpr struct {
	exprBase
	Type    *TypeSpec
	Kind    ExprKind
	Payload Payload
}

// ErrorExpr marks a node that failed to parse or resolve; traversal
// continues past it (spec.md §4.R "Failure semantics").
type ErrorExpr struct {
	exprBase
}

func (UnresolvedExpr) isExpr() {}
func (ConstantExpr) isExpr()   {}
func (DynamicExpr) isExpr()    {}
func (ErrorExpr) isExpr()      {}

// GetExprType returns the type or nil, implementing the Type
// preservation testable property of spec.md §8: non-empty iff e is
// not ErrorExpr.
func GetExprType(e Expr) *TypeSpec {
	switch v := e.(type) {
	case ConstantExpr:
		return v.Type
	case DynamicExpr:
		return v.Type
	default:
		return nil
	}
}

func GetExprKind(e Expr) ExprKind {
	switch v := e.(type) {
	case ConstantExpr:
		return v.Kind
	case DynamicExpr:
		return v.Kind
	default:
		return KindNone
	}
}

func GetExprPayload(e Expr) Payload {
	switch v := e.(type) {
	case UnresolvedExpr:
		return v.Payload
	case ConstantExpr:
		return v.Payload
	case DynamicExpr:
		return v.Payload
	default:
		return nil
	}
}

// GetConstantValue returns the folded value of a ConstantExpr, or
// (nil, false) otherwise.
func GetConstantValue(e Expr) (Value, bool) {
	c, ok := e.(ConstantExpr)
	if !ok {
		return nil, false
	}
	return c.Value, true
}

// Payload is the large sum described in spec.md §3 Expression: every
// concrete shape an expression can take, independent of whether it
// ended up unresolved/constant/dynamic/error.
type Payload interface {
	isPayload()
}

type IdentifierPayload struct {
	Name      string
	Namespace []string
}

type LiteralPayload struct {
	Value Value
	// TypeName is the numeric-literal postfix of spec.md §4.L
	// ("u32", "i8", "f64", ...), empty for an untyped literal whose
	// width is picked by narrowest-fit at the use site.
	TypeName string
}

type TuplePayload struct{ Elems []Expr }

type UnaryOpPayload struct {
	Op      string
	Operand Expr
	Postfix bool // ++/-- postfix vs prefix
}

type BinaryOpPayload struct {
	Op          string
	Left, Right Expr
}

type CallPayload struct {
	Callee Expr
	Args   []Expr
}

type CastPayload struct {
	Operand Expr
	Target  *TypeSpec
}

type SubscriptPayload struct {
	Base  Expr
	Index Expr
}

type MemberAccessPayload struct {
	Base   Expr
	Member string
	Arrow  bool // -> vs .
}

type CompoundPayload struct{ Stmts []Stmt }

type IfPayload struct {
	Cond       Expr
	Then       Expr
	Else       Expr // nil if no else branch
	IsConsteval bool // `if consteval`
}

type SwitchCase struct {
	Values []Expr // empty means default
	Body   Expr
}

type SwitchPayload struct {
	Subject Expr
	Cases   []SwitchCase
}

type BreakPayload struct{ Value Expr }
type ContinuePayload struct{}

type AggregateInitPayload struct {
	Type   *TypeSpec
	Fields []Expr
}

type AggregateDefaultConstructPayload struct{ Type *TypeSpec }
type AggregateCopyConstructPayload struct {
	Type   *TypeSpec
	Source Expr
}

type OptionalDefaultConstructPayload struct{ Type *TypeSpec }
type OptionalExtractValuePayload struct{ Operand Expr }

type ArrayDestructPayload struct{ Operand Expr }
type TrivialRelocatePayload struct {
	Dest, Source Expr
}

// BitcodeValueReferencePayload is an opaque back-end handle threaded
// through the typed AST without further interpretation by the core
// (spec.md §3); the core only needs to carry it, never introspect it.
type BitcodeValueReferencePayload struct{ Handle any }

func (IdentifierPayload) isPayload()                {}
func (LiteralPayload) isPayload()                   {}
func (TuplePayload) isPayload()                     {}
func (UnaryOpPayload) isPayload()                   {}
func (BinaryOpPayload) isPayload()                  {}
func (CallPayload) isPayload()                      {}
func (CastPayload) isPayload()                      {}
func (SubscriptPayload) isPayload()                 {}
func (MemberAccessPayload) isPayload()               {}
func (CompoundPayload) isPayload()                   {}
func (IfPayload) isPayload()                         {}
func (SwitchPayload) isPayload()                     {}
func (BreakPayload) isPayload()                      {}
func (ContinuePayload) isPayload()                   {}
func (AggregateInitPayload) isPayload()              {}
func (AggregateDefaultConstructPayload) isPayload()  {}
func (AggregateCopyConstructPayload) isPayload()     {}
func (OptionalDefaultConstructPayload) isPayload()   {}
func (OptionalExtractValuePayload) isPayload()       {}
func (ArrayDestructPayload) isPayload()              {}
func (TrivialRelocatePayload) isPayload()            {}
func (BitcodeValueReferencePayload) isPayload()      {}

// NewUnresolved/NewConstant/NewDynamic/NewError are the constructors
// used by parse and resolve to build each Expr case.
func NewUnresolved(src SrcTokens, paren int, p Payload) UnresolvedExpr {
	return UnresolvedExpr{exprBase: exprBase{NodeBase{src}, paren}, Payload: p}
}

func NewConstant(src SrcTokens, paren int, typ *TypeSpec, kind ExprKind, p Payload, v Value) ConstantExpr {
	return ConstantExpr{exprBase: exprBase{NodeBase{src}, paren}, Type: typ, Kind: kind, Payload: p, Value: v}
}

func NewDynamic(src SrcTokens, paren int, typ *TypeSpec, kind ExprKind, p Payload) DynamicExpr {
	return DynamicExpr{exprBase: exprBase{NodeBase{src}, paren}, Type: typ, Kind: kind, Payload: p}
}

func NewError(src SrcTokens) ErrorExpr {
	return ErrorExpr{exprBase: exprBase{NodeBase{src}, 0}}
}

func IsError(e Expr) bool {
	_, ok := e.(ErrorExpr)
	return ok
}
