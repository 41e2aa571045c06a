// Package memory is the Comptime Memory Manager (spec.md §4.M): a
// typed, provenance-tracking model of the bytes the consteval engine
// is allowed to touch while folding. Every address belongs to exactly
// one object in exactly one of four segments, and every pointer
// operation is checked against that object's bounds and lifetime
// before it is allowed to succeed.
//
// Grounded in the teacher's append-only Program tables
// (vm_program.go) for the "never move, only grow" allocation
// discipline, generalized from byte-code storage to typed constant
// objects addressed by segment + offset.
package memory

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/config"
)

func float32FromBits(b uint32) float32 { return math.Float32frombits(b) }
func float32Bits(f float32) uint32     { return math.Float32bits(f) }
func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }
func float64Bits(f float64) uint64     { return math.Float64bits(f) }

// Segment is the fixed-range region an address belongs to (spec.md
// §4.M "Four fixed-range segments").
type Segment int

const (
	SegGlobal Segment = iota
	SegStack
	SegHeap
	SegMeta
)

func (s Segment) String() string {
	switch s {
	case SegGlobal:
		return "global"
	case SegStack:
		return "stack"
	case SegHeap:
		return "heap"
	case SegMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// Address identifies a byte inside an object: the object it was
// derived from plus a byte offset from that object's start. Provenance
// travels with the address, not with the raw offset, so two addresses
// with the same numeric offset but different Object are never equal
// (spec.md §8 "no cross-provenance arithmetic").
type Address struct {
	Segment Segment
	Object  int // index into Manager.objects
	Offset  int64
	// OnePastEnd marks an address computed one element past an
	// array's last element: valid to hold and compare, never to
	// dereference (spec.md §4.M pointer arithmetic).
	OnePastEnd bool
}

// LifetimeState is the StartLifetime/EndLifetime bit spec.md §4.M
// requires tracking per object.
type LifetimeState int

const (
	LifetimeNotStarted LifetimeState = iota
	LifetimeActive
	LifetimeEnded
)

// Object is one allocation: a byte span of a known type, tagged with
// its lifetime and (for heap objects) whether Free has already run.
type Object struct {
	Segment  Segment
	Type     *ast.TypeSpec
	Size     int64
	Bytes    []byte
	Lifetime LifetimeState
	Freed    bool
	FrameID  int // owning stack frame, 0 for global/heap
}

// FreeResult is the outcome of a Free call (spec.md §4.M): the
// allocation record is never erased, only marked, so a double-free or
// a free of a now-dangling address can still be diagnosed precisely.
type FreeResult int

const (
	FreeGood FreeResult = iota
	FreeDoubleFree
	FreeUnknownAddress
	FreeAddressInsideObject
)

func (r FreeResult) String() string {
	switch r {
	case FreeGood:
		return "good"
	case FreeDoubleFree:
		return "double_free"
	case FreeUnknownAddress:
		return "unknown_address"
	case FreeAddressInsideObject:
		return "address_inside_object"
	default:
		return "unknown"
	}
}

// Manager owns every live object across all four segments for the
// lifetime of one consteval.Context fold (spec.md §4.M, §5 "neither
// type is shared mutably across goroutines — each call constructs its
// own").
type Manager struct {
	Target  config.TargetProperties
	objects []*Object
}

func NewManager(target config.TargetProperties) *Manager {
	return &Manager{Target: target}
}

// Alloc reserves a new object of the given size in seg, returning the
// address of its first byte.
func (m *Manager) Alloc(seg Segment, typ *ast.TypeSpec, size int64, frameID int) Address {
	obj := &Object{Segment: seg, Type: typ, Size: size, Bytes: make([]byte, size), Lifetime: LifetimeActive, FrameID: frameID}
	m.objects = append(m.objects, obj)
	return Address{Segment: seg, Object: len(m.objects) - 1, Offset: 0}
}

func (m *Manager) object(addr Address) (*Object, error) {
	if addr.Object < 0 || addr.Object >= len(m.objects) {
		return nil, fmt.Errorf("comptime memory: address refers to no object")
	}
	return m.objects[addr.Object], nil
}

// checkLive verifies the addressed object is allocated, alive, and
// (for heap objects) not yet freed, rejecting use-after-free and
// uninitialised-read style faults before any byte is touched.
func (m *Manager) checkLive(addr Address) (*Object, error) {
	obj, err := m.object(addr)
	if err != nil {
		return nil, err
	}
	if obj.Lifetime != LifetimeActive {
		return nil, fmt.Errorf("comptime memory: access to an object outside its lifetime")
	}
	if obj.Freed {
		return nil, fmt.Errorf("comptime memory: use of a freed heap object")
	}
	if addr.OnePastEnd || addr.Offset < 0 || addr.Offset >= obj.Size {
		return nil, fmt.Errorf("comptime memory: address out of bounds")
	}
	return obj, nil
}

// Load reads the object's bytes starting at addr and decodes them
// per typ using ObjectFromConstantValue's inverse.
func (m *Manager) Load(addr Address, typ *ast.TypeSpec) (ast.Value, error) {
	obj, err := m.checkLive(addr)
	if err != nil {
		return nil, err
	}
	return ConstantValueFromObject(obj.Bytes[addr.Offset:], typ, m.Target.Endianness)
}

// Store encodes v per typ and writes it at addr.
func (m *Manager) Store(addr Address, typ *ast.TypeSpec, v ast.Value) error {
	obj, err := m.checkLive(addr)
	if err != nil {
		return err
	}
	encoded, err := ObjectFromConstantValue(v, typ, m.Target.Endianness)
	if err != nil {
		return err
	}
	copy(obj.Bytes[addr.Offset:], encoded)
	return nil
}

// DoPointerArithmetic implements spec.md §4.M: the result stays within
// the same object (or exactly one-past-its-end), and provenance is
// the same Object index as addr — never recomputed from the raw
// numeric offset.
func (m *Manager) DoPointerArithmetic(addr Address, elemOffset int64, typ *ast.TypeSpec) (Address, error) {
	obj, err := m.object(addr)
	if err != nil {
		return Address{}, err
	}
	newOffset := addr.Offset + elemOffset
	if newOffset < 0 || newOffset > obj.Size {
		return Address{}, fmt.Errorf("comptime memory: pointer arithmetic leaves the bounds of its object")
	}
	return Address{Segment: addr.Segment, Object: addr.Object, Offset: newOffset, OnePastEnd: newOffset == obj.Size}, nil
}

// DoPointerDifference requires both addresses to share an object
// (spec.md §8 "no cross-provenance arithmetic"): if they don't, the
// difference is refused rather than silently computed from raw
// offsets.
func (m *Manager) DoPointerDifference(p, q Address) (int64, error) {
	if p.Object != q.Object {
		return 0, fmt.Errorf("comptime memory: pointer difference across distinct objects")
	}
	return p.Offset - q.Offset, nil
}

// DoPointerCompare requires shared provenance for ordering comparisons
// (`<`, `<=`, `>`, `>=`); equality/inequality between pointers from
// different objects is allowed and always false/true respectively,
// matching ordinary pointer semantics.
func (m *Manager) DoPointerCompare(p, q Address, ordering bool) (bool, error) {
	if ordering && p.Object != q.Object {
		return false, fmt.Errorf("comptime memory: ordered comparison across distinct objects")
	}
	if p.Object != q.Object {
		return false, nil
	}
	return p.Offset == q.Offset && p.OnePastEnd == q.OnePastEnd, nil
}

// StartLifetime / EndLifetime flip an object's lifetime bit without
// touching its bytes (spec.md §4.M).
func (m *Manager) StartLifetime(addr Address) error {
	obj, err := m.object(addr)
	if err != nil {
		return err
	}
	obj.Lifetime = LifetimeActive
	return nil
}

func (m *Manager) EndLifetime(addr Address) error {
	obj, err := m.object(addr)
	if err != nil {
		return err
	}
	obj.Lifetime = LifetimeEnded
	return nil
}

// PopFrame ends the lifetime of every stack object owned by frameID
// and moves each such object into SegMeta, so a dangling address into
// the popped frame still names its (dead) object rather than being
// reused silently. Addresses held elsewhere are not modified (spec.md
// §4.M "meta-address rewriting for stack pointers escaping a frame
// pop").
func (m *Manager) PopFrame(frameID int) {
	for _, obj := range m.objects {
		if obj.Segment == SegStack && obj.FrameID == frameID {
			obj.Lifetime = LifetimeEnded
			obj.Segment = SegMeta
		}
	}
}

// Free marks a heap object as freed, reporting precisely which of the
// four outcomes spec.md §4.M distinguishes. The allocation record
// itself is never erased, so a later Free of the same address is
// still diagnosable as a double free rather than an unknown address.
func (m *Manager) Free(addr Address) FreeResult {
	obj, err := m.object(addr)
	if err != nil {
		return FreeUnknownAddress
	}
	if obj.Segment != SegHeap {
		return FreeUnknownAddress
	}
	if addr.Offset != 0 {
		return FreeAddressInsideObject
	}
	if obj.Freed {
		return FreeDoubleFree
	}
	obj.Freed = true
	obj.Lifetime = LifetimeEnded
	return FreeGood
}

// ConstantValueFromObject decodes raw bytes into a typed constant
// value per typ's terminator, honoring the manager's configured
// endianness (spec.md §4.M).
func ConstantValueFromObject(b []byte, typ *ast.TypeSpec, end config.Endianness) (ast.Value, error) {
	bo := byteOrder(end)
	switch typ.Terminator.(type) {
	case ast.BaseType:
		info := typ.Terminator.(ast.BaseType).Info
		if info == nil {
			return nil, fmt.Errorf("comptime memory: cannot decode a value with no type info")
		}
		switch info.Name {
		case "bool":
			return ast.Bool{V: b[0] != 0}, nil
		case "f32":
			if len(b) < 4 {
				return nil, fmt.Errorf("comptime memory: short read decoding f32")
			}
			return ast.F32{V: float32FromBits(bo.Uint32(b))}, nil
		case "f64":
			if len(b) < 8 {
				return nil, fmt.Errorf("comptime memory: short read decoding f64")
			}
			return ast.F64{V: float64FromBits(bo.Uint64(b))}, nil
		default:
			if len(b) < 8 {
				return nil, fmt.Errorf("comptime memory: short read decoding integer")
			}
			if isUnsignedTypeName(info.Name) {
				return ast.UInt{V: bo.Uint64(b)}, nil
			}
			return ast.SInt{V: int64(bo.Uint64(b))}, nil
		}
	default:
		return nil, fmt.Errorf("comptime memory: unsupported terminator for byte decoding")
	}
}

// ObjectFromConstantValue is the inverse of ConstantValueFromObject.
func ObjectFromConstantValue(v ast.Value, typ *ast.TypeSpec, end config.Endianness) ([]byte, error) {
	bo := byteOrder(end)
	switch val := v.(type) {
	case ast.Bool:
		if val.V {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case ast.SInt:
		b := make([]byte, 8)
		bo.PutUint64(b, uint64(val.V))
		return b, nil
	case ast.UInt:
		b := make([]byte, 8)
		bo.PutUint64(b, val.V)
		return b, nil
	case ast.F32:
		b := make([]byte, 4)
		bo.PutUint32(b, float32Bits(val.V))
		return b, nil
	case ast.F64:
		b := make([]byte, 8)
		bo.PutUint64(b, float64Bits(val.V))
		return b, nil
	default:
		return nil, fmt.Errorf("comptime memory: unsupported value for byte encoding: %T", v)
	}
}

func byteOrder(end config.Endianness) binary.ByteOrder {
	if end == config.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func isUnsignedTypeName(name string) bool {
	switch name {
	case "u8", "u16", "u32", "u64", "usize":
		return true
	default:
		return false
	}
}
