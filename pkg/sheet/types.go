// Package sheet infers connectivity from the loose primitives of one
// schematic sheet: junctions, lines, net labels, power symbols, bus rippers
// and symbol pins.
//
// Lines join junctions and symbol pins into net segments. Every call to
// PropagateNetSegments recomputes the segments from scratch and stamps a fresh
// segment id onto each primitive. AnalyzeNetSegments then decides which net or
// bus each segment stands for, and Update writes that decision back into the
// Block by moving pins with ExtractPins.
package sheet

import (
	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/netlist"
)

// Endpoint is one end of a line: a junction or a pin of a placed symbol
type Endpoint struct {
	Junction uuid.UUID
	Symbol   uuid.UUID
	Pin      uuid.UUID
}

// AtJunction returns an endpoint on junction j
func AtJunction(j uuid.UUID) Endpoint {
	return Endpoint{Junction: j}
}

// AtPin returns an endpoint on pin of symbol sym
func AtPin(sym, pin uuid.UUID) Endpoint {
	return Endpoint{Symbol: sym, Pin: pin}
}

// IsJunction reports whether the endpoint is a junction
func (e Endpoint) IsJunction() bool {
	return e.Junction != uuid.Nil
}

// IsPin reports whether the endpoint is a symbol pin
func (e Endpoint) IsPin() bool {
	return e.Symbol != uuid.Nil
}

// Junction is a connection point of lines
type Junction struct {
	UUID     uuid.UUID
	Position geom.Point
	Net      netlist.Ref[netlist.Net]
	Bus      netlist.Ref[netlist.Bus]
	Segment  uuid.UUID
}

// Line is a wire (or bus wire) between two endpoints
type Line struct {
	UUID    uuid.UUID
	From    Endpoint
	To      Endpoint
	Net     netlist.Ref[netlist.Net]
	Bus     netlist.Ref[netlist.Bus]
	Segment uuid.UUID
}

// NetLabel names the segment it sits on. A label carries either a net or a
// bus.
type NetLabel struct {
	UUID     uuid.UUID
	Junction uuid.UUID
	Net      netlist.Ref[netlist.Net]
	Bus      netlist.Ref[netlist.Bus]
	Segment  uuid.UUID
}

// PowerSymbol ties its segment to a power net
type PowerSymbol struct {
	UUID     uuid.UUID
	Junction uuid.UUID
	Net      netlist.Ref[netlist.Net]
	Segment  uuid.UUID
}

// BusRipper connects the segment at its junction to one member of a bus
type BusRipper struct {
	UUID     uuid.UUID
	Junction uuid.UUID
	Bus      netlist.Ref[netlist.Bus]
	Member   uuid.UUID
	Segment  uuid.UUID
}

// MemberNet returns the net behind the ripper's bus member, or nil
func (r *BusRipper) MemberNet() *netlist.Net {
	bus := r.Bus.Get()
	if bus == nil {
		return nil
	}
	m, ok := bus.Members[r.Member]
	if !ok {
		return nil
	}
	return m.Net.Get()
}

// SchematicSymbol places one gate of a component on the sheet
type SchematicSymbol struct {
	UUID      uuid.UUID
	Component netlist.Ref[netlist.Component]
	Gate      uuid.UUID
	Position  geom.Point
	Pins      map[uuid.UUID]geom.Point // pin id → absolute pin position
}

// PinPath returns the block-level path of one of the symbol's pins
func (s *SchematicSymbol) PinPath(pin uuid.UUID) netlist.PinPath {
	return netlist.PinPath{Component: s.Component.UUID, Gate: s.Gate, Pin: pin}
}

// PinNet returns the net the pin is connected to, or nil
func (s *SchematicSymbol) PinNet(pin uuid.UUID) *netlist.Net {
	c := s.Component.Get()
	if c == nil {
		return nil
	}
	return c.NetOf(netlist.PinKey{Gate: s.Gate, Pin: pin})
}
