package netlist

import "github.com/google/uuid"

// NetClass is a named policy group that nets belong to
type NetClass struct {
	UUID      uuid.UUID
	Name      string
	IsDefault bool
}

// NewNetClass creates a non-default net class
func NewNetClass(id uuid.UUID, name string) *NetClass {
	return &NetClass{UUID: id, Name: name}
}
