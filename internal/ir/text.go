package ir

import (
	"fmt"
	"io"
	"strings"
)

// Text renders fun in layout order. The format is for people; it is not a
// stable machine-readable encoding.
//
//	fun m:f/1 {
//	blk0(%0):
//	    %1 = call m:g/1 %0
//	    return_ok %1
//	}
func (f *Function) Text() string {
	var sb strings.Builder
	f.WriteText(&sb)
	return sb.String()
}

// WriteText writes the text form of fun to w.
func (f *Function) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "fun %s {\n", f.ident); err != nil {
		return err
	}
	for b := range f.Blocks() {
		if _, err := fmt.Fprintf(w, "%s:\n", f.BlockText(b)); err != nil {
			return err
		}
		for op := range f.Ops(b) {
			if _, err := fmt.Fprintf(w, "    %s\n", f.OpText(op)); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, "}\n")
	return err
}

// ValueText renders v: the constant text for constants, %N for variables.
func (f *Function) ValueText(v Value) string {
	if c, ok := f.ValueConstant(v); ok {
		return ConstantText(c)
	}
	return v.String()
}

func (f *Function) valuesText(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = f.ValueText(v)
	}
	return strings.Join(parts, ", ")
}

// BlockText renders a block header: blk0(%0, %1).
func (f *Function) BlockText(b Block) string {
	return fmt.Sprintf("%s(%s)", b, f.valuesText(f.BlockArgs(b)))
}

// BlockCallText renders a block call: blk1(%2, 5).
func (f *Function) BlockCallText(c BlockCall) string {
	return fmt.Sprintf("%s(%s)", f.BlockCallTarget(c), f.valuesText(f.BlockCallArgs(c)))
}

// OpText renders one op on a single line.
func (f *Function) OpText(op Op) string {
	var sb strings.Builder
	if writes := f.OpWrites(op); len(writes) > 0 {
		sb.WriteString(f.valuesText(writes))
		sb.WriteString(" = ")
	}
	kind := f.OpKind(op)
	sb.WriteString(kind.String())
	if r, ok := f.OpFunRef(op); ok {
		sb.WriteByte(' ')
		sb.WriteString(f.FunRefIdent(r).String())
	}
	if kind == OpPrimOp {
		sb.WriteByte(' ')
		sb.WriteString(f.OpPrim(op).Quoted())
	}
	if reads := f.OpReads(op); len(reads) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(f.valuesText(reads))
	}
	if calls := f.OpBranches(op); len(calls) > 0 {
		sb.WriteString(" -> ")
		for i, c := range calls {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.BlockCallText(c))
		}
	}
	return sb.String()
}
