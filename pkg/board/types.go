// Package board holds the copper connectivity of a printed circuit board:
// packages and their pads, track junctions and vias, and the tracks joining
// them. It derives track nets from the pads they reach and reduces each
// net's tracks to a minimal graph for export.
package board

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/netlist"
)

// Node is a track endpoint: a junction or a pad of a package
type Node struct {
	Junction uuid.UUID
	Package  uuid.UUID
	Pad      uuid.UUID
}

// AtJunction returns the node of junction j
func AtJunction(j uuid.UUID) Node {
	return Node{Junction: j}
}

// AtPad returns the node of pad on package pkg
func AtPad(pkg, pad uuid.UUID) Node {
	return Node{Package: pkg, Pad: pad}
}

// IsPad reports whether the node is a pad
func (n Node) IsPad() bool {
	return n.Package != uuid.Nil
}

func (n Node) String() string {
	if n.IsPad() {
		return "pad:" + n.Package.String() + "/" + n.Pad.String()
	}
	return "junction:" + n.Junction.String()
}

func nodeLess(a, b Node) bool {
	return a.String() < b.String()
}

// Pad is a copper pad of a package, bound to one pin of the component
type Pad struct {
	UUID     uuid.UUID
	Name     string
	Position geom.Point
	Pin      netlist.PinKey
}

// Package is the footprint of a component placed on the board
type Package struct {
	UUID      uuid.UUID
	Component netlist.Ref[netlist.Component]
	Position  geom.Point
	Pads      map[uuid.UUID]*Pad
}

// AddPad adds a pad connected to the component pin pin
func (p *Package) AddPad(name string, pin netlist.PinKey, pos geom.Point) *Pad {
	pad := &Pad{UUID: uuid.New(), Name: name, Position: pos, Pin: pin}
	p.Pads[pad.UUID] = pad
	return pad
}

// PadByName returns the pad with the given name
func (p *Package) PadByName(name string) (*Pad, bool) {
	for _, pad := range p.Pads {
		if pad.Name == name {
			return pad, true
		}
	}
	return nil, false
}

// PadNet returns the net of the component pin behind pad, or nil
func (p *Package) PadNet(pad *Pad) *netlist.Net {
	c := p.Component.Get()
	if c == nil || pad == nil {
		return nil
	}
	return c.NetOf(pad.Pin)
}

// Refdes returns the reference designator of the package's component
func (p *Package) Refdes() string {
	if c := p.Component.Get(); c != nil {
		return c.Refdes
	}
	return "?"
}

// Junction is a track junction. Vias span all copper layers.
type Junction struct {
	UUID     uuid.UUID
	Position geom.Point
	Layer    string
	Via      bool
	Net      netlist.Ref[netlist.Net]
}

// Track is one straight copper segment
type Track struct {
	UUID  uuid.UUID
	From  Node
	To    Node
	Layer string
	Width int64
	Net   netlist.Ref[netlist.Net]
}

func (t *Track) String() string {
	return fmt.Sprintf("track %s (%s)", t.UUID, t.Layer)
}
