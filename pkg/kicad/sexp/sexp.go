// Package sexp is a streaming S-expression reader for KiCad schematic and
// board files, with helpers for navigating the resulting tree.
package sexp

import "strings"

// Sexp represents an S-expression node: an atom or a list
type Sexp interface {
	// IsLeaf returns true if this is an atom (not a list)
	IsLeaf() bool

	// LeafCount returns the number of elements in a list (1 for atoms)
	LeafCount() int

	String() string
}

// Symbol is an unquoted atom (identifier, keyword or number)
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) LeafCount() int { return 1 }
func (s Symbol) String() string { return string(s) }

// String is a quoted atom
type String string

func (s String) IsLeaf() bool   { return true }
func (s String) LeafCount() int { return 1 }
func (s String) String() string { return `"` + strings.ReplaceAll(string(s), `"`, `\"`) + `"` }

// List represents a list of S-expressions
type List struct {
	elements []Sexp
}

// NewList builds a list from elements
func NewList(elements ...Sexp) *List {
	return &List{elements: elements}
}

func (l *List) IsLeaf() bool { return false }

func (l *List) LeafCount() int {
	return len(l.elements)
}

// Items returns the list's elements. The slice must not be modified.
func (l *List) Items() []Sexp {
	return l.elements
}

// Get returns the element at the given index, or nil
func (l *List) Get(index int) Sexp {
	if index < 0 || index >= len(l.elements) {
		return nil
	}
	return l.elements[index]
}

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, elem := range l.elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(elem.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Text returns the text of an atom, quoted or not
func Text(s Sexp) (string, bool) {
	switch v := s.(type) {
	case Symbol:
		return string(v), true
	case String:
		return string(v), true
	}
	return "", false
}
