// Package pool is the library lookup service a Block uses to resolve the
// Entity and Part a Component instantiates.
package pool

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an id is not known to the pool
var ErrNotFound = errors.New("pool: not found")

// PinDirection mirrors the electrical type of a library pin
type PinDirection string

const (
	DirInput         PinDirection = "input"
	DirOutput        PinDirection = "output"
	DirBidirectional PinDirection = "bidirectional"
	DirPassive       PinDirection = "passive"
	DirPowerIn       PinDirection = "power_in"
	DirPowerOut      PinDirection = "power_out"
	DirNotConnected  PinDirection = "not_connected"
)

// Pin is a single pin of a Unit
type Pin struct {
	ID        uuid.UUID
	Name      string
	Direction PinDirection
}

// Unit is the electrical definition of one gate (a set of pins)
type Unit struct {
	ID   uuid.UUID
	Name string
	Pins map[uuid.UUID]*Pin
}

// Gate places a Unit inside an Entity
type Gate struct {
	ID   uuid.UUID
	Name string
	Unit *Unit
}

// Entity is a library symbol definition: one or more gates
type Entity struct {
	ID     uuid.UUID
	Name   string
	Prefix string // reference designator prefix, e.g. "R"
	Gates  map[uuid.UUID]*Gate
}

// Part is a concrete orderable implementation of an Entity
type Part struct {
	ID     uuid.UUID
	MPN    string
	Value  string
	Entity *Entity
}

// Pool resolves library objects by id
type Pool interface {
	GetEntity(id uuid.UUID) (*Entity, error)
	GetPart(id uuid.UUID) (*Part, error)
}

// NewUnit creates a unit with the given pin names, in order
func NewUnit(name string, pins ...string) *Unit {
	u := &Unit{
		ID:   uuid.New(),
		Name: name,
		Pins: make(map[uuid.UUID]*Pin, len(pins)),
	}
	for _, p := range pins {
		u.AddPin(p, DirPassive)
	}
	return u
}

// AddPin adds a pin to the unit and returns it
func (u *Unit) AddPin(name string, dir PinDirection) *Pin {
	p := &Pin{ID: uuid.New(), Name: name, Direction: dir}
	u.Pins[p.ID] = p
	return p
}

// PinByName returns the first pin with the given name
func (u *Unit) PinByName(name string) (*Pin, bool) {
	for _, p := range u.SortedPins() {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// SortedPins returns the pins ordered by name, then id
func (u *Unit) SortedPins() []*Pin {
	pins := make([]*Pin, 0, len(u.Pins))
	for _, p := range u.Pins {
		pins = append(pins, p)
	}
	sort.Slice(pins, func(i, j int) bool {
		if pins[i].Name != pins[j].Name {
			return pins[i].Name < pins[j].Name
		}
		return pins[i].ID.String() < pins[j].ID.String()
	})
	return pins
}

// NewEntity creates an entity with no gates
func NewEntity(name, prefix string) *Entity {
	return &Entity{
		ID:     uuid.New(),
		Name:   name,
		Prefix: prefix,
		Gates:  make(map[uuid.UUID]*Gate),
	}
}

// AddGate adds a gate using unit u and returns it
func (e *Entity) AddGate(name string, u *Unit) *Gate {
	g := &Gate{ID: uuid.New(), Name: name, Unit: u}
	e.Gates[g.ID] = g
	return g
}

// GateByName returns the gate with the given name
func (e *Entity) GateByName(name string) (*Gate, bool) {
	for _, g := range e.Gates {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// HasPin reports whether (gate, pin) is a valid pin path of the entity
func (e *Entity) HasPin(gate, pin uuid.UUID) bool {
	g, ok := e.Gates[gate]
	if !ok || g.Unit == nil {
		return false
	}
	_, ok = g.Unit.Pins[pin]
	return ok
}

// MemoryPool is an in-memory Pool
type MemoryPool struct {
	entities map[uuid.UUID]*Entity
	parts    map[uuid.UUID]*Part
}

// NewMemoryPool creates an empty pool
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{
		entities: make(map[uuid.UUID]*Entity),
		parts:    make(map[uuid.UUID]*Part),
	}
}

// AddEntity registers an entity
func (p *MemoryPool) AddEntity(e *Entity) {
	p.entities[e.ID] = e
}

// AddPart registers a part. Its entity is registered too.
func (p *MemoryPool) AddPart(part *Part) {
	p.parts[part.ID] = part
	if part.Entity != nil {
		p.entities[part.Entity.ID] = part.Entity
	}
}

// GetEntity implements Pool
func (p *MemoryPool) GetEntity(id uuid.UUID) (*Entity, error) {
	e, ok := p.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	return e, nil
}

// GetPart implements Pool
func (p *MemoryPool) GetPart(id uuid.UUID) (*Part, error) {
	part, ok := p.parts[id]
	if !ok {
		return nil, fmt.Errorf("part %s: %w", id, ErrNotFound)
	}
	return part, nil
}

// EntityByName returns the first registered entity with the given name
func (p *MemoryPool) EntityByName(name string) (*Entity, bool) {
	for _, e := range p.entities {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Len returns the number of registered entities
func (p *MemoryPool) Len() int {
	return len(p.entities)
}
