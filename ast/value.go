package ast

import "fmt"

// Value is constant_value (spec.md §3): a tagged union, structurally
// equal and hash-embeddable. Modeled as a closed interface with one
// concrete struct per variant, the same shape as the teacher's Value
// interface in value.go (String/Sequence/Node/Error there; SInt/UInt/
// .../EnumVal here).
type Value interface {
	isValue()
	String() string
}

type SInt struct{ V int64 }
type UInt struct{ V uint64 }
type F32 struct{ V float32 }
type F64 struct{ V float64 }
type Char struct{ V rune }
type Str struct{ V string }
type Bool struct{ V bool }
type Null struct{}
type VoidValue struct{}

type Array struct{ Elems []Value }

// Flat numeric array specializations, kept separate from Array so
// consteval's array-constant folding (spec.md §4.C "Array
// constructors... pack values into a flat typed-array constant_value
// for compactness") never has to box each element as a Value.
type SIntArray struct{ Elems []int64 }
type UIntArray struct{ Elems []uint64 }
type F32Array struct{ Elems []float32 }
type F64Array struct{ Elems []float64 }

type Tuple struct{ Elems []Value }
type Aggregate struct {
	Type  *TypeInfo
	Elems []Value
}

type FunctionVal struct{ Decl *FunctionBody }

// UnqualifiedFuncSetID / QualifiedFuncSetID identify an overload set
// by name (and, for the qualified case, by enclosing namespace path)
// rather than by a single resolved FunctionBody, used when a
// function name is taken as a value before overload resolution picks
// a single candidate (spec.md §3).
type UnqualifiedFuncSetID struct{ Name string }
type QualifiedFuncSetID struct {
	Namespace []string
	Name      string
}

type TypeVal struct{ Type *TypeSpec }

type EnumVal struct {
	Decl    *EnumDecl
	Ordinal uint64
}

func (SInt) isValue()                 {}
func (UInt) isValue()                 {}
func (F32) isValue()                  {}
func (F64) isValue()                  {}
func (Char) isValue()                 {}
func (Str) isValue()                  {}
func (Bool) isValue()                 {}
func (Null) isValue()                 {}
func (VoidValue) isValue()            {}
func (Array) isValue()                {}
func (SIntArray) isValue()            {}
func (UIntArray) isValue()            {}
func (F32Array) isValue()             {}
func (F64Array) isValue()             {}
func (Tuple) isValue()                {}
func (Aggregate) isValue()            {}
func (FunctionVal) isValue()          {}
func (UnqualifiedFuncSetID) isValue() {}
func (QualifiedFuncSetID) isValue()   {}
func (TypeVal) isValue()              {}
func (EnumVal) isValue()              {}

func (v SInt) String() string      { return fmt.Sprintf("%d", v.V) }
func (v UInt) String() string      { return fmt.Sprintf("%d", v.V) }
func (v F32) String() string       { return fmt.Sprintf("%g", v.V) }
func (v F64) String() string       { return fmt.Sprintf("%g", v.V) }
func (v Char) String() string      { return fmt.Sprintf("%q", v.V) }
func (v Str) String() string       { return fmt.Sprintf("%q", v.V) }
func (v Bool) String() string      { return fmt.Sprintf("%t", v.V) }
func (Null) String() string        { return "null" }
func (VoidValue) String() string   { return "void" }
func (v Array) String() string     { return fmt.Sprintf("array(%d)", len(v.Elems)) }
func (v SIntArray) String() string { return fmt.Sprintf("sint_array(%d)", len(v.Elems)) }
func (v UIntArray) String() string { return fmt.Sprintf("uint_array(%d)", len(v.Elems)) }
func (v F32Array) String() string  { return fmt.Sprintf("f32_array(%d)", len(v.Elems)) }
func (v F64Array) String() string  { return fmt.Sprintf("f64_array(%d)", len(v.Elems)) }
func (v Tuple) String() string     { return fmt.Sprintf("tuple(%d)", len(v.Elems)) }
func (v Aggregate) String() string { return fmt.Sprintf("aggregate(%d)", len(v.Elems)) }
func (v FunctionVal) String() string {
	if v.Decl != nil {
		return fmt.Sprintf("function(%s)", v.Decl.SymbolName)
	}
	return "function(<nil>)"
}
func (v UnqualifiedFuncSetID) String() string { return fmt.Sprintf("func_set(%s)", v.Name) }
func (v QualifiedFuncSetID) String() string   { return fmt.Sprintf("func_set(%v::%s)", v.Namespace, v.Name) }
func (v TypeVal) String() string              { return "type(...)" }
func (v EnumVal) String() string              { return fmt.Sprintf("enum(%d)", v.Ordinal) }

// Equal implements the structural equality required by spec.md §3.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case SInt:
		bv, ok := b.(SInt)
		return ok && av.V == bv.V
	case UInt:
		bv, ok := b.(UInt)
		return ok && av.V == bv.V
	case F32:
		bv, ok := b.(F32)
		return ok && av.V == bv.V
	case F64:
		bv, ok := b.(F64)
		return ok && av.V == bv.V
	case Char:
		bv, ok := b.(Char)
		return ok && av.V == bv.V
	case Str:
		bv, ok := b.(Str)
		return ok && av.V == bv.V
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.V == bv.V
	case Null:
		_, ok := b.(Null)
		return ok
	case VoidValue:
		_, ok := b.(VoidValue)
		return ok
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !Equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !Equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case EnumVal:
		bv, ok := b.(EnumVal)
		return ok && av.Decl == bv.Decl && av.Ordinal == bv.Ordinal
	default:
		return false
	}
}
