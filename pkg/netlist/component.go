package netlist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/pool"
)

// PinKey identifies a pin inside a component: (gate, pin)
type PinKey struct {
	Gate uuid.UUID
	Pin  uuid.UUID
}

// String formats the key as "gate/pin", the persisted form
func (k PinKey) String() string {
	return k.Gate.String() + "/" + k.Pin.String()
}

// ParsePinKey parses the "gate/pin" form
func ParsePinKey(s string) (PinKey, error) {
	gate, pin, ok := strings.Cut(s, "/")
	if !ok {
		return PinKey{}, fmt.Errorf("netlist: invalid pin path %q", s)
	}
	g, err := uuid.Parse(gate)
	if err != nil {
		return PinKey{}, fmt.Errorf("netlist: invalid gate in pin path %q: %w", s, err)
	}
	p, err := uuid.Parse(pin)
	if err != nil {
		return PinKey{}, fmt.Errorf("netlist: invalid pin in pin path %q: %w", s, err)
	}
	return PinKey{Gate: g, Pin: p}, nil
}

// PinPath identifies a pin inside a Block: (component, gate, pin)
type PinPath struct {
	Component uuid.UUID
	Gate      uuid.UUID
	Pin       uuid.UUID
}

// Key returns the component-local part of the path
func (p PinPath) Key() PinKey {
	return PinKey{Gate: p.Gate, Pin: p.Pin}
}

func (p PinPath) String() string {
	return p.Component.String() + "/" + p.Gate.String() + "/" + p.Pin.String()
}

func pinPathLess(a, b PinPath) bool {
	if a.Component != b.Component {
		return uuidLess(a.Component, b.Component)
	}
	if a.Gate != b.Gate {
		return uuidLess(a.Gate, b.Gate)
	}
	return uuidLess(a.Pin, b.Pin)
}

// Connection is the net a component pin is tied to.
// An unset Net means the pin is explicitly not connected.
type Connection struct {
	Net Ref[Net]
}

// Component is an instance of a library entity inside a Block
type Component struct {
	UUID   uuid.UUID
	Refdes string
	Value  string
	Entity Ref[pool.Entity]
	Part   Ref[pool.Part]

	Connections map[PinKey]*Connection
	PinNames    map[PinKey]string
}

// Connect ties (gate, pin) to net
func (c *Component) Connect(gate, pin uuid.UUID, net *Net) {
	c.Connections[PinKey{Gate: gate, Pin: pin}] = &Connection{Net: NewRef(net.UUID, net)}
}

// MarkNotConnected records that (gate, pin) is deliberately left open
func (c *Component) MarkNotConnected(gate, pin uuid.UUID) {
	c.Connections[PinKey{Gate: gate, Pin: pin}] = &Connection{}
}

// Disconnect forgets any connection of (gate, pin)
func (c *Component) Disconnect(gate, pin uuid.UUID) {
	delete(c.Connections, PinKey{Gate: gate, Pin: pin})
}

// NetOf returns the net of (gate, pin), nil when unconnected
func (c *Component) NetOf(key PinKey) *Net {
	conn, ok := c.Connections[key]
	if !ok {
		return nil
	}
	return conn.Net.Get()
}

// PinName returns the display name of a pin: the per-instance override, the
// library pin name, or the pin id when the entity is not resolved
func (c *Component) PinName(key PinKey) string {
	if name, ok := c.PinNames[key]; ok && name != "" {
		return name
	}
	if e := c.Entity.Get(); e != nil {
		if g, ok := e.Gates[key.Gate]; ok && g.Unit != nil {
			if p, ok := g.Unit.Pins[key.Pin]; ok {
				if len(e.Gates) > 1 {
					return g.Name + "." + p.Name
				}
				return p.Name
			}
		}
	}
	return key.Pin.String()
}

// SortedKeys returns the connected pin keys ordered by display name
func (c *Component) SortedKeys() []PinKey {
	keys := make([]PinKey, 0, len(c.Connections))
	for k := range c.Connections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, nj := c.PinName(keys[i]), c.PinName(keys[j])
		if ni != nj {
			return ni < nj
		}
		return keys[i].String() < keys[j].String()
	})
	return keys
}
