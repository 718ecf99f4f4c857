package sexp

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/geom"
)

// GetNodeName returns the head symbol of a list, e.g. "wire" for (wire ...)
func GetNodeName(s Sexp) (string, error) {
	l, ok := s.(*List)
	if !ok || l.LeafCount() == 0 {
		return "", fmt.Errorf("expected non-empty list")
	}
	head, ok := l.Get(0).(Symbol)
	if !ok {
		return "", fmt.Errorf("list head is not a symbol: %s", l.Get(0))
	}
	return string(head), nil
}

// IsNode reports whether s is a list whose head symbol is name
func IsNode(s Sexp, name string) bool {
	got, err := GetNodeName(s)
	return err == nil && got == name
}

// FindNode returns the first direct child list named name
func FindNode(s Sexp, name string) (Sexp, bool) {
	l, ok := s.(*List)
	if !ok {
		return nil, false
	}
	for _, child := range l.elements {
		if IsNode(child, name) {
			return child, true
		}
	}
	return nil, false
}

// FindAllNodes returns every direct child list named name, in file order
func FindAllNodes(s Sexp, name string) []Sexp {
	l, ok := s.(*List)
	if !ok {
		return nil
	}
	var result []Sexp
	for _, child := range l.elements {
		if IsNode(child, name) {
			result = append(result, child)
		}
	}
	return result
}

// GetString returns the text of the atom at index
func GetString(s Sexp, index int) (string, error) {
	l, ok := s.(*List)
	if !ok {
		return "", fmt.Errorf("expected list")
	}
	elem := l.Get(index)
	if elem == nil {
		return "", fmt.Errorf("index %d out of range in %s", index, l)
	}
	text, ok := Text(elem)
	if !ok {
		return "", fmt.Errorf("element %d is not an atom", index)
	}
	return text, nil
}

// GetFloat parses the atom at index as a float
func GetFloat(s Sexp, index int) (float64, error) {
	text, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", text, err)
	}
	return f, nil
}

// GetInt parses the atom at index as an integer
func GetInt(s Sexp, index int) (int64, error) {
	text, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", text, err)
	}
	return i, nil
}

// HasSymbol reports whether the list contains the bare symbol sym,
// e.g. HasSymbol((symbol "GND" (power) ...), "power") is false but
// HasSymbol((fill no), "no") is true.
func HasSymbol(s Sexp, sym string) bool {
	l, ok := s.(*List)
	if !ok {
		return false
	}
	for _, child := range l.elements {
		if v, ok := child.(Symbol); ok && string(v) == sym {
			return true
		}
	}
	return false
}

// GetXY reads (keyword X Y) with millimetre coordinates
func GetXY(s Sexp) (geom.Point, error) {
	x, err := GetFloat(s, 1)
	if err != nil {
		return geom.Point{}, fmt.Errorf("failed to parse X: %w", err)
	}
	y, err := GetFloat(s, 2)
	if err != nil {
		return geom.Point{}, fmt.Errorf("failed to parse Y: %w", err)
	}
	return geom.FromMM(x, y), nil
}

// GetAt reads the (at X Y [angle]) child of s
func GetAt(s Sexp) (geom.Point, float64, error) {
	at, ok := FindNode(s, "at")
	if !ok {
		return geom.Point{}, 0, fmt.Errorf("missing (at ...)")
	}
	p, err := GetXY(at)
	if err != nil {
		return geom.Point{}, 0, err
	}
	var angle float64
	if at.LeafCount() > 3 {
		if angle, err = GetFloat(at, 3); err != nil {
			return geom.Point{}, 0, err
		}
	}
	return p, angle, nil
}

// GetUUID reads the (uuid ...) child of s. Files written by KiCad 5
// carry (tstamp ...) instead.
func GetUUID(s Sexp) (uuid.UUID, error) {
	node, ok := FindNode(s, "uuid")
	if !ok {
		if node, ok = FindNode(s, "tstamp"); !ok {
			return uuid.Nil, fmt.Errorf("missing (uuid ...)")
		}
	}
	text, err := GetString(node, 1)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(text)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid %q: %w", text, err)
	}
	return id, nil
}

// GetProperty returns the value of (property "key" "value" ...)
func GetProperty(s Sexp, key string) (string, bool) {
	for _, prop := range FindAllNodes(s, "property") {
		name, err := GetString(prop, 1)
		if err != nil || name != key {
			continue
		}
		value, err := GetString(prop, 2)
		if err != nil {
			return "", false
		}
		return value, true
	}
	return "", false
}
