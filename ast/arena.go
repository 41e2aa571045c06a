package ast

// Arena is the append-only declaration store backing every DeclID.
// Cross-declaration references (overload sets, alias targets,
// constructor/destructor back-links, generic parent/specialization
// links) are indices into this arena rather than owning pointers, so
// cyclic structures never need a pointer cycle (spec.md §3
// "Ownership: the AST owns declarations... cyclic references (e.g.
// overload sets, generic specializations) are modeled as indices, not
// pointers").
//
// Grounded in the teacher's query.go Database, which keyed memoized
// results by an arena-like index rather than a pointer so dependency
// cycles could be detected by key rather than by pointer identity.
type Arena struct {
	decls []Decl
}

func NewArena() *Arena {
	return &Arena{}
}

// next reserves the DeclID the about-to-be-constructed declaration
// will receive; callers pass it into the declBase literal before
// calling register, since Go struct literals can't self-reference.
func (a *Arena) next() DeclID {
	return DeclID(len(a.decls))
}

// register stores d at the DeclID it was constructed with. It panics
// on a mismatched ID, which would indicate an Arena used out of order
// (e.g. two goroutines racing next()); the core is single-threaded
// per spec.md §5, so this should never trip in practice.
func (a *Arena) register(d Decl) {
	if int(d.ID()) != len(a.decls) {
		panic("ast: Arena.register called out of order")
	}
	a.decls = append(a.decls, d)
}

// Get resolves a DeclID back to its declaration. Returns nil if id is
// out of range, which callers treat the same as an unresolved
// reference rather than panicking, since a dangling DeclID can appear
// transiently while a cycle is still being resolved.
func (a *Arena) Get(id DeclID) Decl {
	if int(id) < 0 || int(id) >= len(a.decls) {
		return nil
	}
	return a.decls[id]
}

func (a *Arena) Len() int { return len(a.decls) }

// All returns every declaration in allocation order, used by
// resolve.Resolver.ResolveAll to visit each declaration.
func (a *Arena) All() []Decl {
	out := make([]Decl, len(a.decls))
	copy(out, a.decls)
	return out
}
