package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ConstantTerm is a sealed interface over compile-time constant terms.
// Only Int, Float, Atom, Binary, Nil, Tuple and List implement it.
//
// String renders the term in the textual IR syntax and doubles as the
// deduplication key of the constant table. Terms that render the same denote
// the same value: an empty List and Nil both render [] and share an entry.
type ConstantTerm interface {
	constantTerm() // Sealed - only these types implement it
	String() string
}

// Int is an integer constant.
type Int int64

// Float is a floating point constant.
type Float float64

// Binary is a binary (byte string) constant.
type Binary string

// Nil is the empty list.
type Nil struct{}

// Tuple is a constant tuple.
type Tuple []ConstantTerm

// List is a constant (possibly improper) list. A nil Tail means the list is
// terminated by Nil.
type List struct {
	Elems []ConstantTerm
	Tail  ConstantTerm
}

func (Int) constantTerm()    {}
func (Float) constantTerm()  {}
func (Atom) constantTerm()   {}
func (Binary) constantTerm() {}
func (Nil) constantTerm()    {}
func (Tuple) constantTerm()  {}
func (List) constantTerm()   {}

func (i Int) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (f Float) String() string {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func (b Binary) String() string {
	return "<<" + strconv.Quote(string(b)) + ">>"
}

func (Nil) String() string {
	return "[]"
}

func (t Tuple) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range t {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(ConstantText(e))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (l List) String() string {
	if len(l.Elems) == 0 && l.Tail == nil {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range l.Elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(ConstantText(e))
	}
	if l.Tail != nil {
		if _, isNil := l.Tail.(Nil); !isNil {
			sb.WriteString(" | ")
			sb.WriteString(ConstantText(l.Tail))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// Quoted renders the atom as it appears in constant position: bare when it is
// a plain lowercase identifier, single-quoted otherwise.
func (a Atom) Quoted() string {
	s := string(a)
	if isBareAtom(s) {
		return s
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}

func isBareAtom(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLower(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '@' {
			return false
		}
	}
	return true
}

// constantKey returns the deduplication key of c.
func constantKey(c ConstantTerm) string {
	if l, ok := c.(List); ok && l.String() == "[]" {
		c = Nil{}
	}
	if a, ok := c.(Atom); ok {
		// Atoms render bare in text; tag them so 'ok' never collides with a
		// bare-rendered term of another kind.
		return "a:" + a.Quoted()
	}
	return fmt.Sprintf("%T:%s", c, c.String())
}

// ConstantText renders c as it appears in the textual IR: atoms quoted when
// needed, other terms as by String.
func ConstantText(c ConstantTerm) string {
	if a, ok := c.(Atom); ok {
		return a.Quoted()
	}
	return c.String()
}
