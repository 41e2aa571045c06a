package resolve

import (
	"fmt"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/scope"
)

// Resolver drives the three-stage protocol of spec.md §4.R over every
// declaration in its arena, using a Database
// to memoize each (DeclID, Stage) pair and to detect cycles.
type Resolver struct {
	db     *Database
	arena  *ast.Arena
	sink   *diag.Sink
	attrs  map[string]AttributeHandler
	global *scope.Scope // set via SetGlobalScope; falls back to an empty scope if never set

	paramsQ *Query[Key, struct{}]
	symbolQ *Query[Key, struct{}]
	allQ    *Query[Key, struct{}]

	specializations map[string]*ast.FuncDecl // mangled signature -> memoized specialization
}

// AttributeHandler applies a named attribute (e.g. `@extern`,
// `@symbol_name`) to a declaration, grounded in the teacher's
// per-attribute handler registration idiom (grammar_builtin_handler.go,
// grammar_capture_handler.go, grammar_charset_handler.go,
// grammar_whitespace_handler.go — each a named transform keyed by
// string and looked up from a registry rather than switched on
// inline).
type AttributeHandler func(d ast.Decl, args []string) error

func NewResolver(arena *ast.Arena, sink *diag.Sink) *Resolver {
	r := &Resolver{
		db:              NewDatabase(),
		arena:           arena,
		sink:            sink,
		attrs:           map[string]AttributeHandler{},
		specializations: map[string]*ast.FuncDecl{},
	}
	r.paramsQ = &Query[Key, struct{}]{Name: "resolve_parameters", Compute: r.computeParameters}
	r.symbolQ = &Query[Key, struct{}]{Name: "resolve_symbol", Compute: r.computeSymbol}
	r.allQ = &Query[Key, struct{}]{Name: "resolve_all", Compute: r.computeAll}
	r.registerDefaultAttributes()
	return r
}

// RegisterAttribute adds or overrides an attribute handler. Per
// DESIGN.md's Open Question decision on duplicate attribute
// application, the last registration for a given name wins, matching
// how the teacher's handler registries are populated by package-init
// order rather than rejecting re-registration.
func (r *Resolver) RegisterAttribute(name string, h AttributeHandler) {
	r.attrs[name] = h
}

// SetGlobalScope wires the scope every function body's statements are
// resolved against (spec.md §4.S/§4.R): without it computeAll has no
// enclosing scope to look identifiers up in beyond a function's own
// parameters. A driver calls this once, after binding every compiled
// file's top-level declarations into its global scope and before
// calling ResolveAll.
func (r *Resolver) SetGlobalScope(sc *scope.Scope) {
	r.global = sc
}

func (r *Resolver) registerDefaultAttributes() {
	r.RegisterAttribute("extern", func(d ast.Decl, args []string) error {
		if fd, ok := d.(*ast.FuncDecl); ok {
			fd.Body.Flags |= ast.FlagExternalLinkage
		}
		return nil
	})
	r.RegisterAttribute("symbol_name", func(d ast.Decl, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("@symbol_name requires exactly one argument")
		}
		if fd, ok := d.(*ast.FuncDecl); ok {
			fd.Body.SymbolName = args[0]
		}
		return nil
	})
	r.RegisterAttribute("__builtin", func(d ast.Decl, args []string) error {
		fd, ok := d.(*ast.FuncDecl)
		if !ok {
			return fmt.Errorf("@__builtin only applies to function declarations")
		}
		if len(args) != 1 {
			return fmt.Errorf("@__builtin requires exactly one argument")
		}
		fd.Body.Flags |= ast.FlagIntrinsic
		fd.Body.Flags |= ast.FlagNoRuntimeEmit
		fd.Body.IntrinsicKind = args[0]
		return nil
	})
	r.RegisterAttribute("__builtin_assign", func(d ast.Decl, args []string) error {
		fd, ok := d.(*ast.FuncDecl)
		if !ok {
			return fmt.Errorf("@__builtin_assign only applies to function declarations")
		}
		fd.Body.Flags |= ast.FlagBuiltinAssign
		return nil
	})
	r.RegisterAttribute("maybe_unused", func(d ast.Decl, args []string) error {
		if vd, ok := d.(*ast.VarDecl); ok {
			vd.Flags |= ast.FlagMaybeUnused
		}
		return nil
	})
	r.RegisterAttribute("export", func(d ast.Decl, args []string) error {
		switch v := d.(type) {
		case *ast.VarDecl:
			v.Flags |= ast.FlagExport
		case *ast.FuncDecl:
			v.Body.Flags |= ast.FlagExport
		case *ast.OperatorDecl:
			v.Body.Flags |= ast.FlagExport
		}
		return nil
	})
	r.RegisterAttribute("__no_comptime_checking", func(d ast.Decl, args []string) error {
		if fd, ok := d.(*ast.FuncDecl); ok {
			fd.Body.Flags |= ast.FlagNoComptimeChecking
		}
		return nil
	})
	r.RegisterAttribute("__no_runtime_emit", func(d ast.Decl, args []string) error {
		if fd, ok := d.(*ast.FuncDecl); ok {
			fd.Body.Flags |= ast.FlagNoRuntimeEmit
		}
		return nil
	})
}

// ApplyAttribute looks up name in the registry and runs it against d,
// emitting a diagnostic if name is unregistered or the handler fails.
func (r *Resolver) ApplyAttribute(d ast.Decl, name string, args []string) {
	h, ok := r.attrs[name]
	if !ok {
		r.sink.Error(diag.AttributeError, d.Tokens().Span(), "unknown attribute @%s", name)
		return
	}
	if err := h(d, args); err != nil {
		r.sink.Error(diag.AttributeError, d.Tokens().Span(), "%s", err.Error())
	}
}

// ResolveAll runs resolve_all (which transitively demands parameters
// and symbol first, per spec.md §2's monotonic state ordering) for
// every declaration in the arena.
func (r *Resolver) ResolveAll() {
	for _, d := range r.arena.All() {
		r.ResolveDeclAll(d)
	}
}

func (r *Resolver) ResolveDeclAll(d ast.Decl) {
	key := Key{Decl: d.ID(), Stage: StageAll}
	_, err := Get(r.db, r.allQ, key)
	if err != nil {
		r.reportIfCycle(d, err)
	}
}

func (r *Resolver) ResolveDeclParameters(d ast.Decl) {
	key := Key{Decl: d.ID(), Stage: StageParameters}
	_, err := Get(r.db, r.paramsQ, key)
	if err != nil {
		r.reportIfCycle(d, err)
	}
}

func (r *Resolver) ResolveDeclSymbol(d ast.Decl) {
	key := Key{Decl: d.ID(), Stage: StageSymbol}
	_, err := Get(r.db, r.symbolQ, key)
	if err != nil {
		r.reportIfCycle(d, err)
	}
}

// reportIfCycle turns an *ErrCycle into one diagnostic with a note
// per participant, and marks every participant's declaration state
// error so later lookups short-circuit instead of re-deriving the
// same cycle (spec.md §4.R "Circular-dependency detection").
func (r *Resolver) reportIfCycle(d ast.Decl, err error) {
	cyc, ok := err.(*ErrCycle)
	if !ok {
		d.SetState(ast.StateError)
		r.sink.Error(diag.UnresolvedName, d.Tokens().Span(), "%s", err.Error())
		return
	}
	diagnostic := diag.Diagnostic{
		Kind:        diag.CircularDependency,
		Severity:    diag.SeverityError,
		PrimarySpan: d.Tokens().Span(),
		Message:     "circular dependency detected during resolution",
	}
	for _, k := range cyc.Chain {
		qk, ok := k.(queryKey)
		if !ok {
			continue
		}
		rk, ok := qk.key.(Key)
		if !ok {
			continue
		}
		participant := r.arena.Get(rk.Decl)
		if participant == nil {
			continue
		}
		participant.SetState(ast.StateError)
		diagnostic = diagnostic.WithNote(
			fmt.Sprintf("%s depends on itself via %s", participant.DeclName(), rk.Stage),
			participant.Tokens().Span(),
		)
	}
	r.sink.Report(diagnostic)
}

func (r *Resolver) computeParameters(db *Database, key Key) (struct{}, error) {
	d := r.arena.Get(key.Decl)
	if d == nil {
		return struct{}{}, fmt.Errorf("resolve: dangling decl id %d", key.Decl)
	}
	if d.State() >= ast.StateParameters {
		return struct{}{}, nil
	}
	d.SetState(ast.StateResolvingParameters)
	switch v := d.(type) {
	case *ast.FuncDecl:
		for i := range v.Body.Params {
			r.resolveTypeSpecInline(v.Body.Params[i].Type)
		}
		if v.Body.ReturnType != nil {
			r.resolveTypeSpecInline(v.Body.ReturnType)
		}
	case *ast.VarDecl:
		if v.VarType != nil {
			r.resolveTypeSpecInline(v.VarType)
		}
	}
	d.SetState(ast.StateParameters)
	return struct{}{}, nil
}

func (r *Resolver) computeSymbol(db *Database, key Key) (struct{}, error) {
	if _, err := Get(db, r.paramsQ, Key{Decl: key.Decl, Stage: StageParameters}); err != nil {
		return struct{}{}, err
	}
	d := r.arena.Get(key.Decl)
	if d == nil {
		return struct{}{}, fmt.Errorf("resolve: dangling decl id %d", key.Decl)
	}
	if d.State() >= ast.StateSymbol {
		return struct{}{}, nil
	}
	d.SetState(ast.StateResolvingSymbol)
	if fd, ok := d.(*ast.FuncDecl); ok && fd.Body.SymbolName == "" {
		fd.Body.SymbolName = mangle(fd)
	}
	d.SetState(ast.StateSymbol)
	return struct{}{}, nil
}

func (r *Resolver) computeAll(db *Database, key Key) (struct{}, error) {
	if _, err := Get(db, r.symbolQ, Key{Decl: key.Decl, Stage: StageSymbol}); err != nil {
		return struct{}{}, err
	}
	d := r.arena.Get(key.Decl)
	if d == nil {
		return struct{}{}, fmt.Errorf("resolve: dangling decl id %d", key.Decl)
	}
	if d.State() >= ast.StateAll {
		return struct{}{}, nil
	}
	d.SetState(ast.StateResolvingAll)
	base := r.global
	if base == nil {
		base = scope.NewGlobalScope()
	}
	switch v := d.(type) {
	case *ast.FuncDecl:
		if r.resolveFuncDeclTypes(base, v) {
			// A parameter or return type that neither a primitive nor
			// a scope lookup could resolve is treated as a generic
			// placeholder (spec.md §4.R "Generic specialization"):
			// the template body is only ever walked once cloned and
			// substituted by specialize(), not here.
			v.Body.Flags |= ast.FlagGeneric
			break
		}
		local := base.PushLocal()
		for _, p := range v.Body.Params {
			local.Decls.AddVar(ast.NewVarDecl(r.arena, ast.SrcTokens{}, p.Name, p.Type, nil))
		}
		for i, s := range v.Body.Body {
			v.Body.Body[i] = r.resolveStmt(local, s)
		}
	case *ast.VarDecl:
		if v.Init != nil {
			v.Init = r.resolveExpr(base, v.Init)
		}
	}
	d.SetState(ast.StateAll)
	return struct{}{}, nil
}

// resolveFuncDeclTypes resolves every parameter and return typespec
// of fd against sc, reporting whether any of them names a type that
// no primitive table entry nor scope lookup could resolve — the
// signal computeAll uses to flag fd generic rather than walk its body
// against an incomplete parameter type (spec.md §4.R).
func (r *Resolver) resolveFuncDeclTypes(sc *scope.Scope, fd *ast.FuncDecl) bool {
	generic := false
	for i := range fd.Body.Params {
		if resolveParamOrReturnType(sc, fd.Body.Params[i].Type) {
			generic = true
		}
	}
	if fd.Body.ReturnType != nil && resolveParamOrReturnType(sc, fd.Body.ReturnType) {
		generic = true
	}
	return generic
}

// resolveParamOrReturnType resolves t's UnresolvedType terminator(s)
// in place against sc, recursing into compound terminators. It
// returns true if t still names an unresolved identifier afterward.
func resolveParamOrReturnType(sc *scope.Scope, t *ast.TypeSpec) bool {
	if t == nil {
		return false
	}
	switch term := t.Terminator.(type) {
	case ast.UnresolvedType:
		if resolved, ok := resolveNamedType(sc, term.Name); ok {
			t.Terminator = resolved.Terminator
			return false
		}
		return true
	case ast.TupleType:
		generic := false
		for _, e := range term.Elements {
			if resolveParamOrReturnType(sc, e) {
				generic = true
			}
		}
		return generic
	case ast.FunctionType:
		generic := false
		for _, p := range term.Params {
			if resolveParamOrReturnType(sc, p) {
				generic = true
			}
		}
		if term.Return != nil && resolveParamOrReturnType(sc, term.Return) {
			generic = true
		}
		return generic
	default:
		return false
	}
}

// resolveTypeSpecInline resolves an UnresolvedType terminator's
// primitive names eagerly, since the eight built-in integer/float
// types, bool, str, and char need no enclosing scope to look up.
// Struct/enum/alias names and generic placeholders are left for
// computeAll's resolveFuncDeclTypes, which does have a scope, to
// finish resolving.
func (r *Resolver) resolveTypeSpecInline(t *ast.TypeSpec) {
	if t == nil {
		return
	}
	switch term := t.Terminator.(type) {
	case ast.UnresolvedType:
		if info, ok := primitiveTypes[term.Name]; ok {
			t.Terminator = ast.BaseType{Info: info}
		}
	case ast.TupleType:
		for _, e := range term.Elements {
			r.resolveTypeSpecInline(e)
		}
	}
}

func mangle(fd *ast.FuncDecl) string {
	return fmt.Sprintf("_E%d%s", len(fd.DeclName()), fd.DeclName())
}
