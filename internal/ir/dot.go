package ir

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// DotAnnotations selects the analyses drawn on a graph.
type DotAnnotations struct {
	// Live, when set, appends each block's live-in variables to its label.
	Live *Liveness

	// Loops draws blocks that belong to a loop in bold.
	Loops bool
}

// WriteDot writes the control-flow graph of fun in graphviz dot syntax.
// Block nodes are boxes labelled with their header; op nodes carry the op
// text. Call edges are labelled with the block call and its arguments.
func WriteDot(w io.Writer, fun *Function, cfg *FunctionCFG) error {
	return WriteDotAnnotated(w, fun, cfg, DotAnnotations{})
}

// WriteDotAnnotated is WriteDot with analysis results drawn on the blocks.
func WriteDotAnnotated(w io.Writer, fun *Function, cfg *FunctionCFG, ann DotAnnotations) error {
	inLoop := make(map[Block]bool)
	if ann.Loops {
		for _, loop := range cfg.Loops() {
			for _, b := range loop {
				inLoop[b] = true
			}
		}
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "digraph %s {\n", strconv.Quote(fun.Ident().String()))
	bw.WriteString("    node [fontname=\"monospace\"];\n")
	for id, n := range cfg.Nodes() {
		switch n.Kind {
		case NodeBlock:
			label := fun.BlockText(n.Block)
			if ann.Live != nil {
				label += "\nlive: " + fun.valuesText(ann.Live.LiveIn(n.Block))
			}
			style := ""
			if inLoop[n.Block] {
				style = ", style=bold"
			}
			fmt.Fprintf(bw, "    n%d [shape=box, label=%s%s];\n", id, strconv.Quote(label), style)
		case NodeOp:
			fmt.Fprintf(bw, "    n%d [shape=ellipse, label=%s];\n", id, strconv.Quote(fun.OpText(n.Op)))
		}
	}
	for _, e := range cfg.Edges() {
		switch e.Kind {
		case EdgeFlow:
			fmt.Fprintf(bw, "    n%d -> n%d [style=dashed];\n", e.From, e.To)
		case EdgeCall:
			label := fmt.Sprintf("%s(%s)", e.Call, fun.valuesText(fun.BlockCallArgs(e.Call)))
			fmt.Fprintf(bw, "    n%d -> n%d [label=%s];\n", e.From, e.To, strconv.Quote(label))
		}
	}
	bw.WriteString("}\n")
	return bw.Flush()
}
