// Package machine is the abstract machine consteval lowers resolved
// function bodies onto (spec.md §4.C.2): a register file of typed
// ast.Values, a call stack of frames each carrying a monotonically
// increasing frame_id, and a step() loop dispatching on a closed
// opcode enum.
//
// Grounded directly in the teacher's bytecode VM
// (vm.go/vm_program.go/vm_instructions.go/vm_stack.go): the same
// slice-backed stack-of-frames shape (vm_stack.go's `stack`/`frame`),
// generalized from a PEG backtracking/capture machine to a
// straight-line register machine executing Instructions built from a
// resolved function body.
package machine

import (
	"fmt"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/comptime/memory"
)

// Opcode is the closed instruction set of spec.md §4.C.2.
type Opcode int

const (
	OpAlloca Opcode = iota
	OpLoad
	OpStore
	OpGEP
	OpPtrAdd
	OpPtrDiff
	OpPtrCmp
	OpCall
	OpReturn
	OpBranch
	OpSwitch
	OpUnreachable
	OpStartLifetime
	OpEndLifetime
	OpHeapAlloc
	OpHeapFree
)

func (op Opcode) String() string {
	names := [...]string{
		"alloca", "load", "store", "gep", "ptr_add", "ptr_diff", "ptr_cmp",
		"call", "return", "branch", "switch", "unreachable",
		"start_lifetime", "end_lifetime", "heap_alloc", "heap_free",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "unknown"
}

// Instruction is one step of a lowered function body. Register
// operands are indices into the owning Frame's Registers slice; Imm
// carries a folded constant operand when the instruction needs one
// (branch conditions, store values, call arguments).
type Instruction struct {
	Op      Opcode
	Dst     int // register written, -1 if none
	A, B    int // register operands, -1 if unused
	Imm     ast.Value
	Type    *ast.TypeSpec
	Target  int // branch/switch destination instruction index
	Callee  *ast.FunctionBody
	CallSrc ast.SrcTokens
}

// Frame is one call's worth of lowered instructions plus the register
// file they operate over (spec.md §4.C.2 "Program-like machine.Frame
// holding a register file").
type Frame struct {
	FrameID  int
	Instrs   []Instruction
	Registers []ast.Value
	PC       int
}

func NewFrame(frameID int, instrs []Instruction, numRegisters int) *Frame {
	return &Frame{FrameID: frameID, Instrs: instrs, Registers: make([]ast.Value, numRegisters)}
}

// CallStack is the teacher's vm_stack.go `stack` generalized from
// backtracking/capture frames to call frames: push/pop/top over a
// plain slice, with frame_id handed out by a monotonic counter so a
// popped frame's escaping addresses can still be named in diagnostics
// (comptime/memory.Manager.PopFrame).
type CallStack struct {
	frames  []*Frame
	nextID  int
}

func (s *CallStack) Push(instrs []Instruction, numRegisters int) *Frame {
	s.nextID++
	f := NewFrame(s.nextID, instrs, numRegisters)
	s.frames = append(s.frames, f)
	return f
}

func (s *CallStack) Pop() *Frame {
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

func (s *CallStack) Top() *Frame { return s.frames[len(s.frames)-1] }
func (s *CallStack) Len() int    { return len(s.frames) }

// Budget bounds total instruction execution across one top-level
// consteval request (spec.md §4.C.2, §5 "a single halt flag aborts
// the in-flight fold").
type Budget struct {
	Remaining int
	Halted    bool
}

func NewBudget(steps int) *Budget { return &Budget{Remaining: steps} }

func (b *Budget) consume() error {
	if b.Halted {
		return fmt.Errorf("consteval: evaluation halted")
	}
	if b.Remaining <= 0 {
		b.Halted = true
		return fmt.Errorf("consteval: step budget exhausted")
	}
	b.Remaining--
	return nil
}

// Machine ties a memory.Manager, a CallStack, and a shared Budget
// together for the duration of one function-body evaluation (spec.md
// §4.C.2). Every memory opcode (OpAlloca/OpLoad/OpStore/OpHeapAlloc/
// OpHeapFree/OpStartLifetime/OpEndLifetime/OpPtrAdd/OpPtrDiff/
// OpPtrCmp) is checked through Mem before touching bytes, per spec.
type Machine struct {
	Mem   *memory.Manager
	Stack CallStack
	Budget *Budget

	// addrs maps a register holding a pointer value to the memory
	// address it denotes; ast.Value has no pointer variant of its
	// own, so the machine tracks provenance out of band.
	addrs map[regKey]memory.Address
}

type regKey struct {
	frameID, reg int
}

func New(mem *memory.Manager, budget *Budget) *Machine {
	return &Machine{Mem: mem, Budget: budget, addrs: map[regKey]memory.Address{}}
}

// Run executes f to completion (an OpReturn or OpUnreachable), honoring
// the shared step Budget, and returns the returned value.
func (m *Machine) Run(f *Frame) (ast.Value, error) {
	m.Stack.frames = append(m.Stack.frames, f)
	defer func() { m.Stack.frames = m.Stack.frames[:len(m.Stack.frames)-1] }()

	for f.PC < len(f.Instrs) {
		if err := m.Budget.consume(); err != nil {
			return nil, err
		}
		instr := f.Instrs[f.PC]
		switch instr.Op {
		case OpAlloca:
			addr := m.Mem.Alloc(memory.SegStack, instr.Type, 8, f.FrameID)
			m.setAddr(f, instr.Dst, addr)
		case OpHeapAlloc:
			addr := m.Mem.Alloc(memory.SegHeap, instr.Type, 8, 0)
			m.setAddr(f, instr.Dst, addr)
		case OpLoad:
			addr, ok := m.getAddr(f, instr.A)
			if !ok {
				return nil, fmt.Errorf("consteval: load from a register holding no address")
			}
			v, err := m.Mem.Load(addr, instr.Type)
			if err != nil {
				return nil, err
			}
			f.Registers[instr.Dst] = v
		case OpStore:
			addr, ok := m.getAddr(f, instr.A)
			if !ok {
				return nil, fmt.Errorf("consteval: store to a register holding no address")
			}
			v := instr.Imm
			if v == nil {
				v = f.Registers[instr.B]
			}
			if err := m.Mem.Store(addr, instr.Type, v); err != nil {
				return nil, err
			}
		case OpGEP, OpPtrAdd:
			addr, ok := m.getAddr(f, instr.A)
			if !ok {
				return nil, fmt.Errorf("consteval: pointer arithmetic on a register holding no address")
			}
			offset := asInt64(instr.Imm)
			next, err := m.Mem.DoPointerArithmetic(addr, offset, instr.Type)
			if err != nil {
				return nil, err
			}
			m.setAddr(f, instr.Dst, next)
		case OpPtrDiff:
			a, aok := m.getAddr(f, instr.A)
			b, bok := m.getAddr(f, instr.B)
			if !aok || !bok {
				return nil, fmt.Errorf("consteval: pointer difference on a register holding no address")
			}
			diff, err := m.Mem.DoPointerDifference(a, b)
			if err != nil {
				return nil, err
			}
			f.Registers[instr.Dst] = ast.SInt{V: diff}
		case OpPtrCmp:
			a, aok := m.getAddr(f, instr.A)
			b, bok := m.getAddr(f, instr.B)
			if !aok || !bok {
				return nil, fmt.Errorf("consteval: pointer comparison on a register holding no address")
			}
			eq, err := m.Mem.DoPointerCompare(a, b, false)
			if err != nil {
				return nil, err
			}
			f.Registers[instr.Dst] = ast.Bool{V: eq}
		case OpStartLifetime:
			addr, ok := m.getAddr(f, instr.A)
			if ok {
				_ = m.Mem.StartLifetime(addr)
			}
		case OpEndLifetime:
			addr, ok := m.getAddr(f, instr.A)
			if ok {
				_ = m.Mem.EndLifetime(addr)
			}
		case OpHeapFree:
			addr, ok := m.getAddr(f, instr.A)
			if !ok {
				return nil, fmt.Errorf("consteval: free of a register holding no address")
			}
			if res := m.Mem.Free(addr); res != memory.FreeGood {
				return nil, fmt.Errorf("consteval: invalid free (%s)", res)
			}
		case OpBranch:
			cond, _ := f.Registers[instr.A].(ast.Bool)
			if cond.V {
				f.PC = instr.Target
				continue
			}
		case OpSwitch:
			f.PC = instr.Target
			continue
		case OpReturn:
			var v ast.Value
			if instr.Imm != nil {
				v = instr.Imm
			} else if instr.A >= 0 {
				v = f.Registers[instr.A]
			}
			m.Mem.PopFrame(f.FrameID)
			return v, nil
		case OpUnreachable:
			return nil, fmt.Errorf("consteval: reached an unreachable instruction")
		case OpCall:
			return nil, fmt.Errorf("consteval: OpCall must be resolved by the caller before Run")
		default:
			return nil, fmt.Errorf("consteval: unknown opcode %v", instr.Op)
		}
		f.PC++
	}
	m.Mem.PopFrame(f.FrameID)
	return ast.VoidValue{}, nil
}

func (m *Machine) setAddr(f *Frame, reg int, addr memory.Address) {
	m.addrs[regKey{f.FrameID, reg}] = addr
}

func (m *Machine) getAddr(f *Frame, reg int) (memory.Address, bool) {
	a, ok := m.addrs[regKey{f.FrameID, reg}]
	return a, ok
}

func asInt64(v ast.Value) int64 {
	switch n := v.(type) {
	case ast.SInt:
		return n.V
	case ast.UInt:
		return int64(n.V)
	default:
		return 0
	}
}
