package scope

import (
	"fmt"

	"github.com/roach88/eir/internal/ir"
)

// DefinitionKind distinguishes variable names from function names.
type DefinitionKind uint8

const (
	DefVariable DefinitionKind = iota
	DefFunction
)

// Definition is a resolvable source-level name: a variable, or a function
// named by its ident (local functions of a letrec group). It is comparable.
type Definition struct {
	Kind DefinitionKind
	Var  ir.Atom
	Fun  ir.FunctionIdent
}

// VarDef names a source variable.
func VarDef(name ir.Atom) Definition {
	return Definition{Kind: DefVariable, Var: name}
}

// FunDef names a function.
func FunDef(ident ir.FunctionIdent) Definition {
	return Definition{Kind: DefFunction, Fun: ident}
}

func (d Definition) String() string {
	if d.Kind == DefFunction {
		return "fun " + d.Fun.String()
	}
	return string(d.Var)
}

// FrameKind distinguishes binding frames from tracking frames.
type FrameKind uint8

const (
	FrameBinding FrameKind = iota
	FrameTracking
)

func (k FrameKind) String() string {
	if k == FrameTracking {
		return "tracking"
	}
	return "binding"
}

// Capture is one name crossing a closure boundary: the variable it had
// outside and the variable standing for it inside.
type Capture struct {
	Def   Definition
	Outer Variable
	Inner Variable
}

// CaptureMap records captures in first-use order.
type CaptureMap struct {
	index   map[Definition]int
	entries []Capture
}

func newCaptureMap() *CaptureMap {
	return &CaptureMap{index: make(map[Definition]int)}
}

// Get returns the capture recorded for def.
func (m *CaptureMap) Get(def Definition) (Capture, bool) {
	i, ok := m.index[def]
	if !ok {
		return Capture{}, false
	}
	return m.entries[i], true
}

// Len returns the number of captures.
func (m *CaptureMap) Len() int {
	return len(m.entries)
}

// Captures returns a copy of the captures in first-use order.
func (m *CaptureMap) Captures() []Capture {
	return append([]Capture(nil), m.entries...)
}

func (m *CaptureMap) insert(c Capture) {
	m.index[c.Def] = len(m.entries)
	m.entries = append(m.entries, c)
}

// Frame is one entry of the scope stack.
type Frame struct {
	kind     FrameKind
	bindings map[Definition]Variable
	captures *CaptureMap
}

// BindingFrame creates a binding frame. The map is copied.
func BindingFrame(bindings map[Definition]Variable) Frame {
	m := make(map[Definition]Variable, len(bindings))
	for d, v := range bindings {
		m[d] = v
	}
	return Frame{kind: FrameBinding, bindings: m}
}

// TrackingFrame creates an empty tracking frame.
func TrackingFrame() Frame {
	return Frame{kind: FrameTracking, captures: newCaptureMap()}
}

// Kind returns the frame kind.
func (f Frame) Kind() FrameKind {
	return f.kind
}

// Captures returns the capture map of a tracking frame, nil otherwise.
func (f Frame) Captures() *CaptureMap {
	return f.captures
}

// resolve finds the variable def denotes at the top of frames.
//
// The nearest binding frame that binds def supplies the starting variable.
// Every tracking frame above it is then crossed outer to inner: a frame that
// already captured def must have recorded the current variable as outer, and
// yields its inner; otherwise a fresh inner is allocated and recorded. The
// only mutation is insertion into tracking frames' capture maps.
func resolve(frames []Frame, def Definition, gen *Generator) (Variable, *ir.InternalError) {
	bound := -1
	var v Variable
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		if f.kind != FrameBinding {
			continue
		}
		if bv, ok := f.bindings[def]; ok {
			bound, v = i, bv
			break
		}
	}
	if bound < 0 {
		return NoVariable, ir.NewInternalError(ir.ErrCodeUnboundName, "%s is not bound in any enclosing scope", def)
	}

	for i := bound + 1; i < len(frames); i++ {
		f := frames[i]
		if f.kind != FrameTracking {
			continue
		}
		if c, ok := f.captures.Get(def); ok {
			if c.Outer != v {
				return NoVariable, ir.NewInternalError(ir.ErrCodeCaptureMismatch,
					"frame %d captured %s from %s, now reached from %s", i, def, c.Outer, v)
			}
			v = c.Inner
			continue
		}
		inner := gen.Next()
		f.captures.insert(Capture{Def: def, Outer: v, Inner: inner})
		v = inner
	}
	return v, nil
}

func describe(frames []Frame) string {
	kinds := make([]string, len(frames))
	for i, f := range frames {
		kinds[i] = f.kind.String()
	}
	return fmt.Sprint(kinds)
}
