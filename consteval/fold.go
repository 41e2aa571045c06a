package consteval

import (
	"math"
	"math/bits"

	"github.com/emberlang/ember/ast"
)

// IntrinsicHandler evaluates one @__builtin-registered function body
// against already-folded arguments (spec.md §4.C.3). The intrinsic
// package registers its handlers here rather than consteval importing
// intrinsic, since a handler needs a *Context to recurse back into
// fold for higher-order builtins (e.g. comptime_concatenate_strs
// folding its own string-literal arguments).
type IntrinsicHandler func(ctx *Context, callSrc ast.SrcTokens, args []ast.Value) (ast.Value, bool)

var intrinsics = map[string]IntrinsicHandler{}

// RegisterIntrinsic installs a handler under the registry key set on
// FunctionBody.IntrinsicKind once @__builtin("...") is verified
// (spec.md §4.I).
func RegisterIntrinsic(name string, h IntrinsicHandler) {
	intrinsics[name] = h
}

// controlSignal distinguishes an ordinary fall-through from a
// return/break/continue unwinding a block of statements, mirroring
// the teacher's backtrackingError/ParsingError two-tier signal shape
// generalized from parse recovery to statement control flow.
type controlKind int

const (
	ctrlNone controlKind = iota
	ctrlReturn
	ctrlBreak
	ctrlContinue
)

type control struct {
	kind  controlKind
	value ast.Value
}

// frame is one function activation's local variable bindings during
// a tree-walking fold, keyed by declaration name (spec.md §4.C.2
// "register file" generalized to named locals for the interpreter
// layer sitting above the bytecode machine).
type frame struct {
	parent *frame
	vars   map[string]ast.Value
}

func newFrame(parent *frame) *frame {
	return &frame{parent: parent, vars: map[string]ast.Value{}}
}

func (f *frame) lookup(name string) (ast.Value, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (f *frame) assign(name string, v ast.Value) bool {
	for cur := f; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return true
		}
	}
	return false
}

// step charges one unit against the shared Budget, matching
// machine.Budget's step-exhaustion/halt behavior (spec.md §4.C.2, §5)
// without reaching into machine's unexported consume() — the fields
// are exported precisely so both the bytecode machine and this
// tree-walking layer can share one counter.
func (ctx *Context) step() bool {
	if ctx.Budget.Halted {
		return false
	}
	if ctx.Budget.Remaining <= 0 {
		ctx.Budget.Halted = true
		return false
	}
	ctx.Budget.Remaining--
	return true
}

// fold is the top-level dispatcher of spec.md §4.C: reduce e to an
// ast.Value wherever the expression's shape allows, reporting
// suppressible diagnostics for well-defined-but-surprising runtime
// behavior (overflow, shift range, NaN comparisons, OOB subscripts)
// along the way.
func (ctx *Context) fold(e ast.Expr) (ast.Value, bool) {
	if !ctx.step() {
		return nil, false
	}
	if ast.IsError(e) {
		return nil, false
	}
	if v, ok := ast.GetConstantValue(e); ok {
		return v, true
	}
	payload := ast.GetExprPayload(e)
	if payload == nil {
		return nil, false
	}
	switch p := payload.(type) {
	case ast.LiteralPayload:
		return p.Value, true
	case ast.UnaryOpPayload:
		return ctx.foldUnary(e, p)
	case ast.BinaryOpPayload:
		return ctx.foldBinary(e, p)
	case ast.IfPayload:
		return ctx.foldIf(e, p)
	case ast.SwitchPayload:
		return ctx.foldSwitch(e, p)
	case ast.CastPayload:
		return ctx.foldCast(e, p)
	case ast.SubscriptPayload:
		return ctx.foldSubscript(e, p)
	case ast.MemberAccessPayload:
		return ctx.foldMember(e, p)
	case ast.TuplePayload:
		return ctx.foldTuple(p)
	case ast.CallPayload:
		return ctx.foldCall(e, p, nil)
	case ast.CompoundPayload:
		return ctx.foldCompound(p, nil)
	case ast.AggregateInitPayload:
		return ctx.foldAggregateInit(p)
	default:
		return nil, false
	}
}

func (ctx *Context) foldWith(e ast.Expr, fr *frame) (ast.Value, bool) {
	if fr == nil {
		return ctx.fold(e)
	}
	if !ctx.step() {
		return nil, false
	}
	if ast.IsError(e) {
		return nil, false
	}
	payload := ast.GetExprPayload(e)
	if p, ok := payload.(ast.IdentifierPayload); ok {
		if v, ok := fr.lookup(p.Name); ok {
			return v, true
		}
	}
	if v, ok := ast.GetConstantValue(e); ok {
		return v, true
	}
	switch p := payload.(type) {
	case ast.LiteralPayload:
		return p.Value, true
	case ast.UnaryOpPayload:
		return ctx.foldUnaryWith(e, p, fr)
	case ast.BinaryOpPayload:
		return ctx.foldBinaryWith(e, p, fr)
	case ast.IfPayload:
		return ctx.foldIfWith(e, p, fr)
	case ast.CastPayload:
		v, ok := ctx.foldWith(p.Operand, fr)
		if !ok {
			return nil, false
		}
		return convertValue(v, p.Target)
	case ast.CallPayload:
		return ctx.foldCall(e, p, fr)
	case ast.CompoundPayload:
		return ctx.foldCompound(p, fr)
	default:
		return ctx.fold(e)
	}
}

func (ctx *Context) foldUnary(e ast.Expr, p ast.UnaryOpPayload) (ast.Value, bool) {
	return ctx.foldUnaryWith(e, p, nil)
}

func (ctx *Context) foldUnaryWith(e ast.Expr, p ast.UnaryOpPayload, fr *frame) (ast.Value, bool) {
	operand, ok := ctx.foldWith(p.Operand, fr)
	if !ok {
		return nil, false
	}
	switch p.Op {
	case "-":
		switch v := operand.(type) {
		case ast.SInt:
			return ast.SInt{V: -v.V}, true
		case ast.F32:
			return ast.F32{V: -v.V}, true
		case ast.F64:
			return ast.F64{V: -v.V}, true
		}
	case "!":
		if v, ok := operand.(ast.Bool); ok {
			return ast.Bool{V: !v.V}, true
		}
	case "~":
		switch v := operand.(type) {
		case ast.SInt:
			return ast.SInt{V: ^v.V}, true
		case ast.UInt:
			return ast.UInt{V: ^v.V}, true
		}
	case "+":
		return operand, true
	}
	return nil, false
}

func (ctx *Context) foldBinary(e ast.Expr, p ast.BinaryOpPayload) (ast.Value, bool) {
	return ctx.foldBinaryWith(e, p, nil)
}

func (ctx *Context) foldBinaryWith(e ast.Expr, p ast.BinaryOpPayload, fr *frame) (ast.Value, bool) {
	// Short-circuit && and || fold the right operand only when its
	// value can change the result, per spec.md §4.C "short-circuit
	// operators never evaluate (or require constancy of) a right
	// operand rendered irrelevant by the left".
	if p.Op == "&&" || p.Op == "||" {
		l, ok := ctx.foldWith(p.Left, fr)
		if !ok {
			return nil, false
		}
		lb, ok := l.(ast.Bool)
		if !ok {
			return nil, false
		}
		if p.Op == "&&" && !lb.V {
			return ast.Bool{V: false}, true
		}
		if p.Op == "||" && lb.V {
			return ast.Bool{V: true}, true
		}
		r, ok := ctx.foldWith(p.Right, fr)
		if !ok {
			return nil, false
		}
		rb, ok := r.(ast.Bool)
		if !ok {
			return nil, false
		}
		return rb, true
	}

	l, lok := ctx.foldWith(p.Left, fr)
	r, rok := ctx.foldWith(p.Right, fr)
	if !lok || !rok {
		return nil, false
	}
	return ctx.foldBinaryValues(e, p.Op, l, r)
}

func (ctx *Context) foldBinaryValues(e ast.Expr, op string, l, r ast.Value) (ast.Value, bool) {
	switch lv := l.(type) {
	case ast.SInt:
		rv, ok := r.(ast.SInt)
		if !ok {
			return nil, false
		}
		return ctx.foldSIntBinary(e, op, lv.V, rv.V)
	case ast.UInt:
		rv, ok := r.(ast.UInt)
		if !ok {
			return nil, false
		}
		return ctx.foldUIntBinary(e, op, lv.V, rv.V)
	case ast.F64:
		rv, ok := r.(ast.F64)
		if !ok {
			return nil, false
		}
		return ctx.foldFloatBinary(e, op, lv.V, rv.V)
	case ast.F32:
		rv, ok := r.(ast.F32)
		if !ok {
			return nil, false
		}
		v, ok := ctx.foldFloatBinary(e, op, float64(lv.V), float64(rv.V))
		if !ok {
			return nil, false
		}
		if f, ok := v.(ast.F64); ok {
			return ast.F32{V: float32(f.V)}, true
		}
		return v, true
	case ast.Bool:
		rv, ok := r.(ast.Bool)
		if !ok {
			return nil, false
		}
		switch op {
		case "==":
			return ast.Bool{V: lv.V == rv.V}, true
		case "!=":
			return ast.Bool{V: lv.V != rv.V}, true
		}
	case ast.Str:
		rv, ok := r.(ast.Str)
		if !ok {
			return nil, false
		}
		switch op {
		case "+":
			return ast.Str{V: lv.V + rv.V}, true
		case "==":
			return ast.Bool{V: lv.V == rv.V}, true
		case "!=":
			return ast.Bool{V: lv.V != rv.V}, true
		}
	}
	return nil, false
}

// foldSIntBinary implements spec.md §8's "signed overflow produces a
// wrapped result plus a suppressible warning" testable property,
// alongside divide-by-zero and out-of-range shift amounts.
func (ctx *Context) foldSIntBinary(e ast.Expr, op string, l, r int64) (ast.Value, bool) {
	switch op {
	case "+":
		res := l + r
		if (r > 0 && l > math.MaxInt64-r) || (r < 0 && l < math.MinInt64-r) {
			ctx.warn(e, "signed integer overflow in addition")
		}
		return ast.SInt{V: res}, true
	case "-":
		if (r < 0 && l > math.MaxInt64+r) || (r > 0 && l < math.MinInt64+r) {
			ctx.warn(e, "signed integer overflow in subtraction")
		}
		return ast.SInt{V: l - r}, true
	case "*":
		res := l * r
		if l != 0 && res/l != r {
			ctx.warn(e, "signed integer overflow in multiplication")
		}
		return ast.SInt{V: res}, true
	case "/":
		if r == 0 {
			ctx.warn(e, "division by zero")
			return nil, false
		}
		return ast.SInt{V: l / r}, true
	case "%":
		if r == 0 {
			ctx.warn(e, "modulo by zero")
			return nil, false
		}
		return ast.SInt{V: l % r}, true
	case "<<":
		if r < 0 || r >= 64 {
			ctx.warn(e, "shift amount %d is out of range for a 64-bit operand", r)
			return nil, false
		}
		return ast.SInt{V: l << uint(r)}, true
	case ">>":
		if r < 0 || r >= 64 {
			ctx.warn(e, "shift amount %d is out of range for a 64-bit operand", r)
			return nil, false
		}
		return ast.SInt{V: l >> uint(r)}, true
	case "&":
		return ast.SInt{V: l & r}, true
	case "|":
		return ast.SInt{V: l | r}, true
	case "^":
		return ast.SInt{V: l ^ r}, true
	case "==":
		return ast.Bool{V: l == r}, true
	case "!=":
		return ast.Bool{V: l != r}, true
	case "<":
		return ast.Bool{V: l < r}, true
	case "<=":
		return ast.Bool{V: l <= r}, true
	case ">":
		return ast.Bool{V: l > r}, true
	case ">=":
		return ast.Bool{V: l >= r}, true
	}
	return nil, false
}

func (ctx *Context) foldUIntBinary(e ast.Expr, op string, l, r uint64) (ast.Value, bool) {
	switch op {
	case "+":
		res, carry := bits.Add64(l, r, 0)
		if carry != 0 {
			ctx.warn(e, "unsigned integer overflow in addition")
		}
		return ast.UInt{V: res}, true
	case "-":
		res, borrow := bits.Sub64(l, r, 0)
		if borrow != 0 {
			ctx.warn(e, "unsigned integer overflow in subtraction")
		}
		return ast.UInt{V: res}, true
	case "*":
		hi, lo := bits.Mul64(l, r)
		if hi != 0 {
			ctx.warn(e, "unsigned integer overflow in multiplication")
		}
		return ast.UInt{V: lo}, true
	case "/":
		if r == 0 {
			ctx.warn(e, "division by zero")
			return nil, false
		}
		return ast.UInt{V: l / r}, true
	case "%":
		if r == 0 {
			ctx.warn(e, "modulo by zero")
			return nil, false
		}
		return ast.UInt{V: l % r}, true
	case "<<":
		if r >= 64 {
			ctx.warn(e, "shift amount %d is out of range for a 64-bit operand", r)
			return nil, false
		}
		return ast.UInt{V: l << r}, true
	case ">>":
		if r >= 64 {
			ctx.warn(e, "shift amount %d is out of range for a 64-bit operand", r)
			return nil, false
		}
		return ast.UInt{V: l >> r}, true
	case "&":
		return ast.UInt{V: l & r}, true
	case "|":
		return ast.UInt{V: l | r}, true
	case "^":
		return ast.UInt{V: l ^ r}, true
	case "==":
		return ast.Bool{V: l == r}, true
	case "!=":
		return ast.Bool{V: l != r}, true
	case "<":
		return ast.Bool{V: l < r}, true
	case "<=":
		return ast.Bool{V: l <= r}, true
	case ">":
		return ast.Bool{V: l > r}, true
	case ">=":
		return ast.Bool{V: l >= r}, true
	}
	return nil, false
}

// foldFloatBinary implements the NaN-comparison warning of spec.md
// §8: any ordering or equality comparison where either operand is NaN
// still produces IEEE-754's well-defined result, but is surprising
// enough to warrant a suppressible warning.
func (ctx *Context) foldFloatBinary(e ast.Expr, op string, l, r float64) (ast.Value, bool) {
	isCompare := op == "==" || op == "!=" || op == "<" || op == "<=" || op == ">" || op == ">="
	if isCompare && (math.IsNaN(l) || math.IsNaN(r)) {
		ctx.warn(e, "comparison involving NaN is always false (except !=)")
	}
	switch op {
	case "+":
		return ast.F64{V: l + r}, true
	case "-":
		return ast.F64{V: l - r}, true
	case "*":
		return ast.F64{V: l * r}, true
	case "/":
		if r == 0 {
			ctx.warn(e, "floating-point division by zero")
		}
		return ast.F64{V: l / r}, true
	case "==":
		return ast.Bool{V: l == r}, true
	case "!=":
		return ast.Bool{V: l != r}, true
	case "<":
		return ast.Bool{V: l < r}, true
	case "<=":
		return ast.Bool{V: l <= r}, true
	case ">":
		return ast.Bool{V: l > r}, true
	case ">=":
		return ast.Bool{V: l >= r}, true
	}
	return nil, false
}

func (ctx *Context) foldIf(e ast.Expr, p ast.IfPayload) (ast.Value, bool) {
	return ctx.foldIfWith(e, p, nil)
}

func (ctx *Context) foldIfWith(e ast.Expr, p ast.IfPayload, fr *frame) (ast.Value, bool) {
	cond, ok := ctx.foldWith(p.Cond, fr)
	if !ok {
		return nil, false
	}
	cb, ok := cond.(ast.Bool)
	if !ok {
		return nil, false
	}
	if cb.V {
		return ctx.foldWith(p.Then, fr)
	}
	if p.Else == nil {
		return ast.VoidValue{}, true
	}
	return ctx.foldWith(p.Else, fr)
}

func (ctx *Context) foldSwitch(e ast.Expr, p ast.SwitchPayload) (ast.Value, bool) {
	subject, ok := ctx.fold(p.Subject)
	if !ok {
		return nil, false
	}
	var defaultCase *ast.SwitchCase
	for i := range p.Cases {
		c := &p.Cases[i]
		if len(c.Values) == 0 {
			defaultCase = c
			continue
		}
		for _, cv := range c.Values {
			v, ok := ctx.fold(cv)
			if !ok {
				return nil, false
			}
			if ast.Equal(subject, v) {
				return ctx.fold(c.Body)
			}
		}
	}
	if defaultCase != nil {
		return ctx.fold(defaultCase.Body)
	}
	return nil, false
}

// foldCast implements spec.md §4.C's narrowing-conversion checks:
// folding always succeeds for a representable value, but a value
// that does not survive the round trip gets a suppressible warning.
func (ctx *Context) foldCast(e ast.Expr, p ast.CastPayload) (ast.Value, bool) {
	operand, ok := ctx.fold(p.Operand)
	if !ok {
		return nil, false
	}
	v, ok := convertValue(operand, p.Target)
	if !ok {
		return nil, false
	}
	if !roundTrips(operand, v) {
		ctx.warn(e, "value does not fit in the target type of this cast")
	}
	return v, true
}

func convertValue(v ast.Value, target *ast.TypeSpec) (ast.Value, bool) {
	bt, ok := target.Terminator.(ast.BaseType)
	if !ok || bt.Info == nil {
		return v, true
	}
	name := bt.Info.Name
	switch name {
	case "f32":
		return ast.F32{V: float32(asFloat(v))}, true
	case "f64":
		return ast.F64{V: asFloat(v)}, true
	case "bool":
		return ast.Bool{V: asFloat(v) != 0}, true
	}
	if len(name) > 0 && name[0] == 'u' {
		return ast.UInt{V: uint64(asInt(v))}, true
	}
	return ast.SInt{V: asInt(v)}, true
}

func roundTrips(orig, converted ast.Value) bool {
	return asFloat(orig) == asFloat(converted)
}

func asInt(v ast.Value) int64 {
	switch n := v.(type) {
	case ast.SInt:
		return n.V
	case ast.UInt:
		return int64(n.V)
	case ast.F32:
		return int64(n.V)
	case ast.F64:
		return int64(n.V)
	case ast.Bool:
		if n.V {
			return 1
		}
		return 0
	}
	return 0
}

func asFloat(v ast.Value) float64 {
	switch n := v.(type) {
	case ast.SInt:
		return float64(n.V)
	case ast.UInt:
		return float64(n.V)
	case ast.F32:
		return float64(n.V)
	case ast.F64:
		return n.V
	case ast.Bool:
		if n.V {
			return 1
		}
		return 0
	}
	return 0
}

// foldSubscript implements spec.md §8's out-of-bounds-subscript
// suppressible warning: the fold still fails (ok=false) since there
// is no value to report, but a warning is emitted first so a
// Guaranteed caller's resulting hard error is preceded by context.
func (ctx *Context) foldSubscript(e ast.Expr, p ast.SubscriptPayload) (ast.Value, bool) {
	base, ok := ctx.fold(p.Base)
	if !ok {
		return nil, false
	}
	idx, ok := ctx.fold(p.Index)
	if !ok {
		return nil, false
	}
	i := asInt(idx)
	elems, ok := arrayElems(base)
	if !ok {
		return nil, false
	}
	if i < 0 || i >= int64(len(elems)) {
		ctx.warn(e, "subscript %d is out of bounds for an array of length %d", i, len(elems))
		return nil, false
	}
	return elems[i], true
}

func arrayElems(v ast.Value) ([]ast.Value, bool) {
	switch a := v.(type) {
	case ast.Array:
		return a.Elems, true
	case ast.Tuple:
		return a.Elems, true
	case ast.SIntArray:
		out := make([]ast.Value, len(a.Elems))
		for i, e := range a.Elems {
			out[i] = ast.SInt{V: e}
		}
		return out, true
	case ast.UIntArray:
		out := make([]ast.Value, len(a.Elems))
		for i, e := range a.Elems {
			out[i] = ast.UInt{V: e}
		}
		return out, true
	case ast.F32Array:
		out := make([]ast.Value, len(a.Elems))
		for i, e := range a.Elems {
			out[i] = ast.F32{V: e}
		}
		return out, true
	case ast.F64Array:
		out := make([]ast.Value, len(a.Elems))
		for i, e := range a.Elems {
			out[i] = ast.F64{V: e}
		}
		return out, true
	default:
		return nil, false
	}
}

func (ctx *Context) foldMember(e ast.Expr, p ast.MemberAccessPayload) (ast.Value, bool) {
	base, ok := ctx.fold(p.Base)
	if !ok {
		return nil, false
	}
	agg, ok := base.(ast.Aggregate)
	if !ok || agg.Type == nil {
		return nil, false
	}
	for i, m := range agg.Type.Members {
		if m.Name == p.Member && i < len(agg.Elems) {
			return agg.Elems[i], true
		}
	}
	return nil, false
}

func (ctx *Context) foldTuple(p ast.TuplePayload) (ast.Value, bool) {
	elems := make([]ast.Value, len(p.Elems))
	for i, el := range p.Elems {
		v, ok := ctx.fold(el)
		if !ok {
			return nil, false
		}
		elems[i] = v
	}
	return ast.Tuple{Elems: elems}, true
}

func (ctx *Context) foldAggregateInit(p ast.AggregateInitPayload) (ast.Value, bool) {
	bt, ok := p.Type.Terminator.(ast.BaseType)
	if !ok {
		return nil, false
	}
	elems := make([]ast.Value, len(p.Fields))
	for i, f := range p.Fields {
		v, ok := ctx.fold(f)
		if !ok {
			return nil, false
		}
		elems[i] = v
	}
	return ast.Aggregate{Type: bt.Info, Elems: elems}, true
}

// foldCompound folds a `{ stmt...; expr }` block (spec.md §3
// Expression "compound") by executing every statement but the last in
// a fresh child scope, then folding the trailing expression there.
func (ctx *Context) foldCompound(p ast.CompoundPayload, fr *frame) (ast.Value, bool) {
	if len(p.Stmts) == 0 {
		return ast.VoidValue{}, true
	}
	child := newFrame(fr)
	for _, s := range p.Stmts[:len(p.Stmts)-1] {
		sig, ok := ctx.execStmt(s, child)
		if !ok {
			return nil, false
		}
		if sig.kind != ctrlNone {
			return sig.value, true
		}
	}
	last := p.Stmts[len(p.Stmts)-1]
	if es, ok := last.(ast.ExprStmt); ok {
		return ctx.foldWith(es.Expr, child)
	}
	sig, ok := ctx.execStmt(last, child)
	if !ok {
		return nil, false
	}
	return sig.value, true
}
