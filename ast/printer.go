package ast

import (
	"fmt"
	"strings"
)

// Printer renders a debug dump of an expression/statement tree, used
// by cmd/emberc's -dump-ast flag and by tests that assert on shape
// rather than wiring up golden files.
//
// Grounded in the teacher's treePrinter (tree_printer.go): the same
// indent/unindent/pwritel bookkeeping, generalized from PEG grammar
// nodes to this package's Expr/Stmt/Decl sums.
type Printer struct {
	pad    []string
	out    strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

func (p *Printer) indent()   { p.pad = append(p.pad, "  ") }
func (p *Printer) unindent() { p.pad = p.pad[:len(p.pad)-1] }

func (p *Printer) pwritel(format string, args ...any) {
	for _, s := range p.pad {
		p.out.WriteString(s)
	}
	fmt.Fprintf(&p.out, format, args...)
	p.out.WriteByte('\n')
}

func (p *Printer) String() string { return p.out.String() }

func (p *Printer) PrintDecl(d Decl) {
	switch n := d.(type) {
	case *VarDecl:
		p.pwritel("var_decl %s", n.Name)
		if n.Init != nil {
			p.indent()
			p.PrintExpr(n.Init)
			p.unindent()
		}
	case *FuncDecl:
		p.pwritel("func_decl %s", n.Name)
		p.indent()
		p.printBody(n.Body)
		p.unindent()
	case *OperatorDecl:
		p.pwritel("operator_decl %s", n.Name)
		p.indent()
		p.printBody(n.Body)
		p.unindent()
	case *FuncAliasDecl:
		p.pwritel("func_alias_decl %s -> #%d", n.Name, n.Target)
	case *TypeAliasDecl:
		p.pwritel("type_alias_decl %s", n.Name)
	case *StructDecl:
		p.pwritel("struct_decl %s", n.Name)
	case *EnumDecl:
		p.pwritel("enum_decl %s (%d members)", n.Name, len(n.Members))
	case *ImportDecl:
		p.pwritel("import_decl %q", n.Path)
	default:
		p.pwritel("<unknown decl>")
	}
}

func (p *Printer) printBody(b *FunctionBody) {
	if b == nil {
		return
	}
	p.pwritel("params=%d", len(b.Params))
	for _, s := range b.Body {
		p.PrintStmt(s)
	}
}

func (p *Printer) PrintStmt(s Stmt) {
	switch n := s.(type) {
	case ExprStmt:
		p.pwritel("expr_stmt")
		p.indent()
		p.PrintExpr(n.Expr)
		p.unindent()
	case DeclStmt:
		p.pwritel("decl_stmt")
		p.indent()
		p.PrintDecl(n.Decl)
		p.unindent()
	case WhileStmt:
		p.pwritel("while_stmt")
		p.indent()
		p.PrintExpr(n.Cond)
		p.PrintStmt(n.Body)
		p.unindent()
	case ForStmt:
		p.pwritel("for_stmt")
		p.indent()
		if n.Init != nil {
			p.PrintStmt(n.Init)
		}
		if n.Cond != nil {
			p.PrintExpr(n.Cond)
		}
		if n.Post != nil {
			p.PrintStmt(n.Post)
		}
		p.PrintStmt(n.Body)
		p.unindent()
	case ForeachStmt:
		p.pwritel("foreach_stmt %s", n.Var)
		p.indent()
		p.PrintExpr(n.Range)
		p.PrintStmt(n.Body)
		p.unindent()
	case ReturnStmt:
		p.pwritel("return_stmt")
		if n.Value != nil {
			p.indent()
			p.PrintExpr(n.Value)
			p.unindent()
		}
	case DeferStmt:
		p.pwritel("defer_stmt")
		p.indent()
		p.PrintExpr(n.Expr)
		p.unindent()
	case BreakStmt:
		p.pwritel("break_stmt")
	case ContinueStmt:
		p.pwritel("continue_stmt")
	case StaticAssertStmt:
		p.pwritel("static_assert_stmt")
	case BlockStmt:
		p.pwritel("block_stmt")
		p.indent()
		for _, c := range n.Stmts {
			p.PrintStmt(c)
		}
		p.unindent()
	case ErrorStmt:
		p.pwritel("error_stmt")
	default:
		p.pwritel("<unknown stmt>")
	}
}

func (p *Printer) PrintExpr(e Expr) {
	kind := "unresolved"
	switch e.(type) {
	case ConstantExpr:
		kind = "constant"
	case DynamicExpr:
		kind = "dynamic"
	case ErrorExpr:
		kind = "error"
	}
	payload := GetExprPayload(e)
	p.pwritel("%s_expr %s", kind, payloadName(payload))
	if v, ok := GetConstantValue(e); ok {
		p.indent()
		p.pwritel("value=%s", v.String())
		p.unindent()
	}
	p.indent()
	InspectExpr(e, func(child Expr) bool {
		if child == e {
			return true
		}
		p.PrintExpr(child)
		return false
	})
	p.unindent()
}

func payloadName(p Payload) string {
	switch p.(type) {
	case IdentifierPayload:
		return "identifier"
	case LiteralPayload:
		return "literal"
	case TuplePayload:
		return "tuple"
	case UnaryOpPayload:
		return "unary_op"
	case BinaryOpPayload:
		return "binary_op"
	case CallPayload:
		return "call"
	case CastPayload:
		return "cast"
	case SubscriptPayload:
		return "subscript"
	case MemberAccessPayload:
		return "member_access"
	case CompoundPayload:
		return "compound"
	case IfPayload:
		return "if"
	case SwitchPayload:
		return "switch"
	case BreakPayload:
		return "break"
	case ContinuePayload:
		return "continue"
	case AggregateInitPayload:
		return "aggregate_init"
	case AggregateDefaultConstructPayload:
		return "aggregate_default_construct"
	case AggregateCopyConstructPayload:
		return "aggregate_copy_construct"
	case OptionalDefaultConstructPayload:
		return "optional_default_construct"
	case OptionalExtractValuePayload:
		return "optional_extract_value"
	case ArrayDestructPayload:
		return "array_destruct"
	case TrivialRelocatePayload:
		return "trivial_relocate"
	case BitcodeValueReferencePayload:
		return "bitcode_value_reference"
	default:
		return "?"
	}
}
