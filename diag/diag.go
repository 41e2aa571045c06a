// Package diag is the core's single diagnostic channel (spec.md §7).
//
// The teacher's errors.go splits errors into a recoverable
// backtrackingError (discarded on backtrack, used while probing PEG
// alternatives) and a fatal ParsingError (thrown, terminates the
// current production). The core doesn't backtrack PEG alternatives,
// but the same two-tier shape survives as the distinction between
// "local recovery" diagnostics (attached to an ast.ErrorExpr/Stmt,
// siblings keep resolving) and "fatal" diagnostics (arena exhaustion,
// evaluator halt) described in spec.md §7's propagation policy.
package diag

import (
	"fmt"

	"github.com/emberlang/ember/srcmap"
)

// Kind is the diagnostic taxonomy of spec.md §7.
type Kind int

const (
	LexError Kind = iota
	ParseError
	UnresolvedName
	AmbiguousName
	TypeMismatch
	OverloadResolutionFailure
	CircularDependency
	ConstevalFailure
	AttributeError
	StaticAssertFailure
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex-error"
	case ParseError:
		return "parse-error"
	case UnresolvedName:
		return "unresolved-name"
	case AmbiguousName:
		return "ambiguous-name"
	case TypeMismatch:
		return "type-mismatch"
	case OverloadResolutionFailure:
		return "overload-resolution-failure"
	case CircularDependency:
		return "circular-dependency"
	case ConstevalFailure:
		return "consteval-failure"
	case AttributeError:
		return "attribute-error"
	case StaticAssertFailure:
		return "static-assert-failure"
	default:
		return "unknown"
	}
}

// Severity distinguishes a hard error from a warning. Warnings are
// the only diagnostics subject to paren-level suppression (§7).
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Note is an auxiliary pointer attached to a Diagnostic, e.g. one per
// participant in a circular-dependency chain, or one per tied
// candidate in an overload-resolution failure.
type Note struct {
	Message string
	Span    srcmap.Span
}

// Suggestion is a textual fix-it hint. The core never auto-applies
// one; it is surfaced to the driver as-is.
type Suggestion struct {
	Message string
	Span    srcmap.Span
}

// Diagnostic is the single value type every failure in the core is
// expressed through (spec.md §6 get_diagnostics / §7).
type Diagnostic struct {
	Kind        Kind
	Severity    Severity
	PrimarySpan srcmap.Span
	Message     string
	Notes       []Note
	Suggestions []Suggestion
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s @ %s", d.Kind, d.Message, d.PrimarySpan)
}

func (d Diagnostic) WithNote(msg string, span srcmap.Span) Diagnostic {
	d.Notes = append(d.Notes, Note{Message: msg, Span: span})
	return d
}

// Sink collects diagnostics for a single compile. It is always passed
// explicitly (never a package-level global — grounded in the
// teacher's explicit *BaseParser/*Database threading in query.go and
// base_parser.go, never a singleton).
type Sink struct {
	diagnostics []Diagnostic
	halted      bool
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Error(kind Kind, span srcmap.Span, format string, args ...any) Diagnostic {
	d := Diagnostic{Kind: kind, Severity: SeverityError, PrimarySpan: span, Message: fmt.Sprintf(format, args...)}
	s.diagnostics = append(s.diagnostics, d)
	return d
}

func (s *Sink) Warning(kind Kind, span srcmap.Span, format string, args ...any) Diagnostic {
	d := Diagnostic{Kind: kind, Severity: SeverityWarning, PrimarySpan: span, Message: fmt.Sprintf(format, args...)}
	s.diagnostics = append(s.diagnostics, d)
	return d
}

// Report appends an already-constructed Diagnostic, e.g. one built up
// with WithNote calls.
func (s *Sink) Report(d Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
}

// Diagnostics returns every diagnostic collected so far, in report
// order (spec.md §6 get_diagnostics).
func (s *Sink) Diagnostics() []Diagnostic {
	return s.diagnostics
}

func (s *Sink) HasErrors() bool {
	for _, d := range s.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Halt marks the compile as fatally aborted: arena exhaustion or an
// evaluator step-budget halt (spec.md §5 "Cancellation"). All
// in-flight requests unwind without further side effects.
func (s *Sink) Halt() { s.halted = true }

func (s *Sink) Halted() bool { return s.halted }
