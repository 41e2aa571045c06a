// Package consteval is the Consteval component (spec.md §4.C): the
// compile-time evaluator with three entry points of differing
// strictness, folding resolved expressions down to ast.Value constants
// wherever the language guarantees or merely allows it.
//
// Grounded in the teacher's oracle-driven VM execution
// (vm.go/vm_oracle.go): the same split between "run and trust the
// result" and "run speculatively, roll back on failure" shows up here
// as Guaranteed (must fold or report an error) versus Try/
// TryWithoutError (best-effort, never escalate a non-constant
// sub-expression into a hard failure).
package consteval

import (
	"fmt"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/comptime/memory"
	"github.com/emberlang/ember/config"
	"github.com/emberlang/ember/consteval/machine"
	"github.com/emberlang/ember/diag"
)

// ExecKind distinguishes the three entry points plus the forced mode
// __builtin_is_comptime needs (spec.md §4.C.3).
type ExecKind int

const (
	ExecGuaranteed ExecKind = iota
	ExecTry
	ExecWithoutError
	ExecForce
)

// Context carries everything one top-level fold needs: where to
// report diagnostics, the memory manager backing any objects the fold
// allocates, and the step budget shared across every nested call
// (spec.md §4.C.2, §5).
type Context struct {
	Sink   *diag.Sink
	Mem    *memory.Manager
	Budget *machine.Budget
	Kind   ExecKind
}

// NewContext builds a fresh Context for one top-level fold request,
// per spec.md §5 "each call constructs its own" memory manager and
// budget rather than sharing them across requests.
func NewContext(sink *diag.Sink, target config.TargetProperties, kind ExecKind) *Context {
	return &Context{
		Sink:   sink,
		Mem:    memory.NewManager(target),
		Budget: machine.NewBudget(1_000_000),
		Kind:   kind,
	}
}

// Guaranteed implements consteval_guaranteed: e must fold, or a
// ConstevalFailure diagnostic is reported and ok is false. Used where
// the language requires a constant (array sizes, enum values,
// static_assert conditions).
func Guaranteed(e ast.Expr, sink *diag.Sink, target config.TargetProperties) (ast.Value, bool) {
	ctx := NewContext(sink, target, ExecGuaranteed)
	v, ok := ctx.fold(e)
	if !ok {
		sink.Error(diag.ConstevalFailure, e.Tokens().Span(), "expression is not a constant expression")
		return nil, false
	}
	return v, true
}

// Try implements consteval_try: best-effort folding of a `consteval`
// variable or `if consteval` condition. A sub-expression that cannot
// fold simply leaves the whole expression dynamic (ok=false) without
// an error, though runtime-condition warnings (overflow, shift range,
// ...) are still reported unless paren-suppressed.
func Try(e ast.Expr, sink *diag.Sink, target config.TargetProperties) (ast.Value, bool) {
	ctx := NewContext(sink, target, ExecTry)
	return ctx.fold(e)
}

// TryWithoutError folds e speculatively with no diagnostics at all —
// used by callers (e.g. overload resolution probing a default
// argument) that only want to know whether e happens to be constant,
// never to surface a warning about it either way.
func TryWithoutError(e ast.Expr, target config.TargetProperties) (ast.Value, bool) {
	ctx := NewContext(nil, target, ExecWithoutError)
	return ctx.fold(e)
}

// warn reports a diagnostic unless the expression's paren_level
// suppresses it (spec.md §7 "Warnings are suppressible by wrapping
// the sub-expression in extra parentheses") or this Context was asked
// to run silently.
func (ctx *Context) warn(e ast.Expr, format string, args ...any) {
	if ctx.Sink == nil || ctx.Kind == ExecWithoutError {
		return
	}
	if ast.SuppressesWarnings(e) {
		return
	}
	ctx.Sink.Warning(diag.ConstevalFailure, e.Tokens().Span(), format, args...)
}

func (ctx *Context) fail(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Warn exposes warn's paren-level suppression rule to intrinsic
// handlers registered from outside this package (spec.md §7).
func (ctx *Context) Warn(e ast.Expr, format string, args ...any) {
	ctx.warn(e, format, args...)
}

// Fold exposes fold to intrinsic handlers that need to recurse back
// into constant-folding for a higher-order builtin argument.
func (ctx *Context) Fold(e ast.Expr) (ast.Value, bool) {
	return ctx.fold(e)
}
