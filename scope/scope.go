package scope

import "github.com/emberlang/ember/ast"

// DeclSet is the set of declarations visible in one Scope: variables
// by name, types by name, and name-overloaded function/operator sets
// (spec.md §4.S).
type DeclSet struct {
	VarDecls map[string]*ast.VarDecl
	Types    map[string]ast.Decl // *ast.StructDecl | *ast.EnumDecl | *ast.TypeAliasDecl
	FuncSets map[string][]*ast.FuncDecl
	OpSets   map[string][]*ast.OperatorDecl
}

func NewDeclSet() *DeclSet {
	return &DeclSet{
		VarDecls: map[string]*ast.VarDecl{},
		Types:    map[string]ast.Decl{},
		FuncSets: map[string][]*ast.FuncDecl{},
		OpSets:   map[string][]*ast.OperatorDecl{},
	}
}

func (s *DeclSet) AddVar(d *ast.VarDecl)    { s.VarDecls[d.DeclName()] = d }
func (s *DeclSet) AddType(d ast.Decl)       { s.Types[d.DeclName()] = d }
func (s *DeclSet) AddFunc(d *ast.FuncDecl) {
	s.FuncSets[d.DeclName()] = append(s.FuncSets[d.DeclName()], d)
}
func (s *DeclSet) AddOp(d *ast.OperatorDecl) {
	s.OpSets[d.DeclName()] = append(s.OpSets[d.DeclName()], d)
}

// Kind is the position of a Scope in the global/file/namespace tree
// plus the local-block stack spec.md §4.S describes.
type Kind int

const (
	KindGlobal Kind = iota
	KindFile
	KindNamespace
	KindLocal
)

// Scope is one level of the lookup chain: a DeclSet plus a parent
// link. Local scopes form a stack pushed/popped by the resolver while
// walking a function body; global/file/namespace scopes form a tree
// built once while loading the import graph (spec.md §4.S).
type Scope struct {
	Kind     Kind
	Name     string // namespace name, file path, or "" for global/local
	Parent   *Scope
	Decls    *DeclSet
	Children map[string]*Scope // file path / namespace name -> child, nil for local scopes
}

func NewGlobalScope() *Scope {
	return &Scope{Kind: KindGlobal, Decls: NewDeclSet(), Children: map[string]*Scope{}}
}

// PushLocal returns a child local scope used for one block's worth of
// declarations; resolving statements pushes one of these per nested
// block and pops it on scope exit (spec.md §4.R "defer... runs at
// scope exit").
func (s *Scope) PushLocal() *Scope {
	return &Scope{Kind: KindLocal, Parent: s, Decls: NewDeclSet()}
}

// NewFileScope creates (or returns the existing) file-level child of
// the global scope, file scopes being siblings under it.
func (s *Scope) NewFileScope(path string) *Scope {
	if child, ok := s.Children[path]; ok {
		return child
	}
	child := &Scope{Kind: KindFile, Name: path, Parent: s, Decls: NewDeclSet(), Children: map[string]*Scope{}}
	s.Children[path] = child
	return child
}

func (s *Scope) NewNamespaceScope(name string) *Scope {
	if child, ok := s.Children[name]; ok {
		return child
	}
	child := &Scope{Kind: KindNamespace, Name: name, Parent: s, Decls: NewDeclSet(), Children: map[string]*Scope{}}
	s.Children[name] = child
	return child
}

// LookupVar walks the parent chain, innermost scope first, mirroring
// C-family shadowing rules.
func (s *Scope) LookupVar(name string) (*ast.VarDecl, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if d, ok := sc.Decls.VarDecls[name]; ok {
			return d, true
		}
	}
	return nil, false
}

func (s *Scope) LookupType(name string) (ast.Decl, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if d, ok := sc.Decls.Types[name]; ok {
			return d, true
		}
	}
	return nil, false
}

// LookupFuncSet collects every overload of name visible from s,
// innermost-to-outermost, since overload resolution (spec.md §4.R)
// considers the whole visible set rather than stopping at the first
// scope that declares the name.
func (s *Scope) LookupFuncSet(name string) []*ast.FuncDecl {
	var out []*ast.FuncDecl
	for sc := s; sc != nil; sc = sc.Parent {
		out = append(out, sc.Decls.FuncSets[name]...)
	}
	return out
}

func (s *Scope) LookupOpSet(name string) []*ast.OperatorDecl {
	var out []*ast.OperatorDecl
	for sc := s; sc != nil; sc = sc.Parent {
		out = append(out, sc.Decls.OpSets[name]...)
	}
	return out
}

// ImportGraph tracks which file scopes have imported which, used to
// detect import cycles and to avoid re-splicing an already-imported
// file's exports (spec.md §4.S, §9 "Cyclic references" generalized to
// the file graph).
type ImportGraph struct {
	edges map[string]map[string]bool
}

func NewImportGraph() *ImportGraph {
	return &ImportGraph{edges: map[string]map[string]bool{}}
}

// AddEdge records that `from` imports `to`, returning false (without
// recording anything) if the edge would close a cycle.
func (g *ImportGraph) AddEdge(from, to string) bool {
	if g.reaches(to, from) {
		return false
	}
	if g.edges[from] == nil {
		g.edges[from] = map[string]bool{}
	}
	g.edges[from][to] = true
	return true
}

func (g *ImportGraph) reaches(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{}
	var walk func(n string) bool
	walk = func(n string) bool {
		if seen[n] {
			return false
		}
		seen[n] = true
		for next := range g.edges[n] {
			if next == to || walk(next) {
				return true
			}
		}
		return false
	}
	return walk(from)
}

// Import splices fromFile's exported variables, functions and
// operators (those with ast.FlagExport set) into targetScope, per the
// import-graph rule of spec.md §4.S; non-exported ones stay private to
// fromFile. Type declarations carry no export flag and are all
// spliced, exported or not.
func Import(targetScope, fromFile *Scope) {
	for name, d := range fromFile.Decls.VarDecls {
		if d.Flags.Has(ast.FlagExport) {
			targetScope.Decls.VarDecls[name] = d
		}
	}
	for name, d := range fromFile.Decls.Types {
		targetScope.Decls.Types[name] = d
	}
	for name, decls := range fromFile.Decls.FuncSets {
		for _, d := range decls {
			if d.Body != nil && d.Body.Flags.Has(ast.FlagExport) {
				targetScope.Decls.FuncSets[name] = append(targetScope.Decls.FuncSets[name], d)
			}
		}
	}
	for name, decls := range fromFile.Decls.OpSets {
		for _, d := range decls {
			if d.Body != nil && d.Body.Flags.Has(ast.FlagExport) {
				targetScope.Decls.OpSets[name] = append(targetScope.Decls.OpSets[name], d)
			}
		}
	}
}
