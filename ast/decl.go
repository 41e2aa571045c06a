package ast

// ResolveState is the per-declaration state machine driving the
// resolver's work queue (spec.md §2, §4.R). Every stage function is
// idempotent and monotonic in this state.
type ResolveState int

const (
	StateNone ResolveState = iota
	StateResolvingParameters
	StateParameters
	StateResolvingSymbol
	StateSymbol
	StateResolvingAll
	StateAll
	StateError
)

func (s ResolveState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateResolvingParameters:
		return "resolving_parameters"
	case StateParameters:
		return "parameters"
	case StateResolvingSymbol:
		return "resolving_symbol"
	case StateSymbol:
		return "symbol"
	case StateResolvingAll:
		return "resolving_all"
	case StateAll:
		return "all"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// DeclID is a stable arena index, used instead of an owning pointer
// wherever a declaration is referenced from somewhere other than its
// owning scope — overload sets, alias targets, constructor/destructor
// back-links, generic parent/specialization links (spec.md §3
// "Ownership", §9 "Cyclic references").
type DeclID int32

// Decl is the closed declaration sum (spec.md §3 Declarations).
type Decl interface {
	Node
	isDecl()
	ID() DeclID
	State() ResolveState
	SetState(ResolveState)
	DeclName() string
}

type declBase struct {
	NodeBase
	id    DeclID
	state ResolveState
	Name  string
}

func (d declBase) ID() DeclID             { return d.id }
func (d declBase) State() ResolveState    { return d.state }
func (d *declBase) SetState(s ResolveState) { d.state = s }
func (d declBase) DeclName() string       { return d.Name }

// DeclFlags is a bitset over the flags FunctionBody and VarDecl carry.
type DeclFlags uint32

const (
	FlagIntrinsic DeclFlags = 1 << iota
	FlagExternalLinkage
	FlagGeneric
	FlagNoComptimeChecking
	FlagBuiltinOperator
	FlagBuiltinAssign
	FlagGenericSpecialization
	FlagNoRuntimeEmit
	FlagMaybeUnused
	FlagExport
	FlagConsteval
	FlagMut
)

func (f DeclFlags) Has(bit DeclFlags) bool { return f&bit != 0 }

// VarDecl models `let`/`mut`/`consteval` variable declarations,
// including destructuring via TupleDecls (spec.md §3 Declarations).
type VarDecl struct {
	declBase
	VarType    *TypeSpec
	Init       Expr
	TupleDecls []*VarDecl
	Flags      DeclFlags
}

// Param is one function parameter: name, type, and whether it is the
// trailing variadic parameter (spec.md §3 Typespec "variadic may only
// terminate a parameter type and only as the last parameter").
type Param struct {
	Name     string
	Type     *TypeSpec
	Variadic bool
}

// FunctionBody owns a function's full signature, body, and resolver
// bookkeeping (spec.md §3 Declarations).
type FunctionBody struct {
	Params     []Param
	ReturnType *TypeSpec
	BodyTokens SrcTokens // unresolved body, before parsing into Body
	Body       []Stmt
	SymbolName string
	CallConv   string
	Flags      DeclFlags

	GenericSpecializations []*FunctionBody
	GenericParent          *FunctionBody

	// ConstructorOrDestructorOf back-points to the struct this body
	// constructs/destructs, or nil.
	ConstructorOrDestructorOf *TypeInfo

	IntrinsicKind string // registry key, set once @__builtin("...") is verified

	state ResolveState
}

func (f *FunctionBody) State() ResolveState      { return f.state }
func (f *FunctionBody) SetState(s ResolveState)  { f.state = s }

type FuncDecl struct {
	declBase
	Body *FunctionBody
}

// OperatorKind enumerates the overloadable operator positions.
type OperatorKind int

type OperatorDecl struct {
	declBase
	Op   OperatorKind
	Body *FunctionBody
}

type FuncAliasDecl struct {
	declBase
	Target DeclID
}

type TypeAliasDecl struct {
	declBase
	Target *TypeSpec
}

type StructDecl struct {
	declBase
	Info *TypeInfo
}

type EnumDecl struct {
	declBase
	Underlying *TypeSpec
	Members    []EnumMember
}

type EnumMember struct {
	Name  string
	Value Expr // may be nil (auto-incremented)
}

type ImportDecl struct {
	declBase
	Path string
}

func (VarDecl) isDecl()       {}
func (FuncDecl) isDecl()      {}
func (OperatorDecl) isDecl()  {}
func (FuncAliasDecl) isDecl() {}
func (TypeAliasDecl) isDecl() {}
func (StructDecl) isDecl()    {}
func (EnumDecl) isDecl()      {}
func (ImportDecl) isDecl()    {}

// NewVarDecl etc. assign a fresh DeclID from the given Arena so
// cross-declaration references are stable indices from the moment a
// declaration is constructed (spec.md §3 "Ownership").
func NewVarDecl(a *Arena, src SrcTokens, name string, varType *TypeSpec, init Expr) *VarDecl {
	d := &VarDecl{declBase: declBase{NodeBase: NodeBase{src}, id: a.next(), Name: name}, VarType: varType, Init: init}
	a.register(d)
	return d
}

func NewFuncDecl(a *Arena, src SrcTokens, name string, body *FunctionBody) *FuncDecl {
	d := &FuncDecl{declBase: declBase{NodeBase: NodeBase{src}, id: a.next(), Name: name}, Body: body}
	a.register(d)
	return d
}

func NewStructDecl(a *Arena, src SrcTokens, name string, info *TypeInfo) *StructDecl {
	d := &StructDecl{declBase: declBase{NodeBase: NodeBase{src}, id: a.next(), Name: name}, Info: info}
	a.register(d)
	return d
}

func NewEnumDecl(a *Arena, src SrcTokens, name string, underlying *TypeSpec) *EnumDecl {
	d := &EnumDecl{declBase: declBase{NodeBase: NodeBase{src}, id: a.next(), Name: name}, Underlying: underlying}
	a.register(d)
	return d
}

func NewImportDecl(a *Arena, src SrcTokens, path string) *ImportDecl {
	d := &ImportDecl{declBase: declBase{NodeBase: NodeBase{src}, id: a.next(), Name: path}, Path: path}
	a.register(d)
	return d
}

func NewTypeAliasDecl(a *Arena, src SrcTokens, name string, target *TypeSpec) *TypeAliasDecl {
	d := &TypeAliasDecl{declBase: declBase{NodeBase: NodeBase{src}, id: a.next(), Name: name}, Target: target}
	a.register(d)
	return d
}
