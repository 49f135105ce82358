package ir

import "golang.org/x/text/unicode/norm"

// Atom is an interned source-level name: a module, function or variable name,
// or an atom constant.
//
// Atoms are stored NFC-normalized so that two spellings of the same name
// written with different Unicode compositions compare equal.
type Atom string

// NewAtom creates an Atom from s, normalizing it to NFC.
func NewAtom(s string) Atom {
	return Atom(norm.NFC.String(s))
}

func (a Atom) String() string {
	return string(a)
}
