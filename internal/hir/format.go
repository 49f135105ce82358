package hir

import (
	"fmt"
	"strings"

	"github.com/roach88/eir/internal/ir"
)

// Format renders e as a single-line s-expression, for debugging and golden
// tests.
func Format(e Expr) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

// FormatModule renders every function of m, one per line.
func FormatModule(m Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %s\n", m.Name.Quoted())
	for _, f := range m.Functions {
		fmt.Fprintf(&sb, "(defun %s/%d %s ", f.Name.Quoted(), f.Arity(), params(f.Params))
		format(&sb, f.Body)
		sb.WriteString(")\n")
	}
	return sb.String()
}

func params(names []ir.Atom) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func formatAll(sb *strings.Builder, head string, es []Expr) {
	sb.WriteString("(")
	sb.WriteString(head)
	for _, e := range es {
		sb.WriteByte(' ')
		format(sb, e)
	}
	sb.WriteString(")")
}

func format(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case Const:
		sb.WriteString(ir.ConstantText(e.Value))
	case Var:
		sb.WriteString(e.Name.String())
	case FunName:
		fmt.Fprintf(sb, "(fname %s/%d)", e.Name.Quoted(), e.Arity)
	case Let:
		fmt.Fprintf(sb, "(let %s ", params(e.Names))
		format(sb, e.Value)
		sb.WriteByte(' ')
		format(sb, e.Body)
		sb.WriteString(")")
	case Values:
		formatAll(sb, "values", e.Elems)
	case Tuple:
		formatAll(sb, "tuple", e.Elems)
	case List:
		sb.WriteString("(list")
		for _, el := range e.Elems {
			sb.WriteByte(' ')
			format(sb, el)
		}
		if e.Tail != nil {
			sb.WriteString(" | ")
			format(sb, e.Tail)
		}
		sb.WriteString(")")
	case Call:
		head := "call " + e.Name.Quoted()
		if e.Module != "" {
			head = "call " + e.Module.Quoted() + ":" + e.Name.Quoted()
		}
		formatAll(sb, head, e.Args)
	case Apply:
		sb.WriteString("(apply ")
		format(sb, e.Fun)
		for _, a := range e.Args {
			sb.WriteByte(' ')
			format(sb, a)
		}
		sb.WriteString(")")
	case PrimOp:
		formatAll(sb, "prim "+e.Name.Quoted(), e.Args)
	case Fun:
		fmt.Fprintf(sb, "(fun %s ", params(e.Params))
		format(sb, e.Body)
		sb.WriteString(")")
	case LetRec:
		sb.WriteString("(letrec (")
		for i, d := range e.Defs {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(sb, "(%s %s ", d.Name.Quoted(), params(d.Params))
			format(sb, d.Body)
			sb.WriteString(")")
		}
		sb.WriteString(") ")
		format(sb, e.Body)
		sb.WriteString(")")
	case If:
		formatAll(sb, "if", []Expr{e.Cond, e.Then, e.Else})
	case Seq:
		formatAll(sb, "seq", e.Exprs)
	case Raise:
		formatAll(sb, "raise", []Expr{e.Class, e.Reason})
	default:
		fmt.Fprintf(sb, "<%T>", e)
	}
}
