package sheet

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/internal/sweep"
	"github.com/OpenTraceLab/netcore/pkg/diag"
	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/netlist"
)

// ErrNotFound is returned when an edit names a primitive the sheet lacks
var ErrNotFound = errors.New("sheet: not found")

// Sheet holds the graphical primitives of one schematic page. The Block is
// not owned by the sheet.
type Sheet struct {
	UUID  uuid.UUID
	Name  string
	Block *netlist.Block

	Junctions    map[uuid.UUID]*Junction
	Lines        map[uuid.UUID]*Line
	NetLabels    map[uuid.UUID]*NetLabel
	PowerSymbols map[uuid.UUID]*PowerSymbol
	BusRippers   map[uuid.UUID]*BusRipper
	Symbols      map[uuid.UUID]*SchematicSymbol

	Warnings *diag.List

	pinSegments map[Endpoint]uuid.UUID
}

// New creates an empty sheet drawing into block
func New(name string, block *netlist.Block) *Sheet {
	return &Sheet{
		UUID:         uuid.New(),
		Name:         name,
		Block:        block,
		Junctions:    make(map[uuid.UUID]*Junction),
		Lines:        make(map[uuid.UUID]*Line),
		NetLabels:    make(map[uuid.UUID]*NetLabel),
		PowerSymbols: make(map[uuid.UUID]*PowerSymbol),
		BusRippers:   make(map[uuid.UUID]*BusRipper),
		Symbols:      make(map[uuid.UUID]*SchematicSymbol),
		Warnings:     diag.NewList(0),
	}
}

// AddJunction places a junction at pos
func (s *Sheet) AddJunction(pos geom.Point) *Junction {
	j := &Junction{UUID: uuid.New(), Position: pos}
	s.Junctions[j.UUID] = j
	return j
}

// AddSymbol places gate of component c. pins maps pin ids to absolute
// positions.
func (s *Sheet) AddSymbol(c *netlist.Component, gate uuid.UUID, pos geom.Point, pins map[uuid.UUID]geom.Point) *SchematicSymbol {
	sym := &SchematicSymbol{
		UUID:      uuid.New(),
		Component: netlist.NewRef(c.UUID, c),
		Gate:      gate,
		Position:  pos,
		Pins:      make(map[uuid.UUID]geom.Point, len(pins)),
	}
	for id, p := range pins {
		sym.Pins[id] = p
	}
	s.Symbols[sym.UUID] = sym
	return sym
}

// AddLine draws a wire between two endpoints. The nets of both ends are
// merged; a bus end may only meet another end of the same bus.
func (s *Sheet) AddLine(from, to Endpoint) (*Line, error) {
	if err := s.checkEndpoint(from); err != nil {
		return nil, err
	}
	if err := s.checkEndpoint(to); err != nil {
		return nil, err
	}

	net, bus, err := s.joinEnds(from, to)
	if err != nil {
		return nil, err
	}

	l := &Line{UUID: uuid.New(), From: from, To: to}
	if net != nil {
		l.Net = netlist.NewRef(net.UUID, net)
	}
	if bus != nil {
		l.Bus = netlist.NewRef(bus.UUID, bus)
	}
	s.Lines[l.UUID] = l
	s.Update()
	return l, nil
}

// AddNetLabel labels the segment at junction j with net
func (s *Sheet) AddNetLabel(j uuid.UUID, net *netlist.Net) (*NetLabel, error) {
	if s.Junctions[j] == nil {
		return nil, fmt.Errorf("junction %s: %w", j, ErrNotFound)
	}
	if net == nil || s.Block.GetNet(net.UUID) != net {
		return nil, fmt.Errorf("sheet: label net is not part of block")
	}
	l := &NetLabel{UUID: uuid.New(), Junction: j, Net: netlist.NewRef(net.UUID, net)}
	s.NetLabels[l.UUID] = l
	s.Update()
	return l, nil
}

// AddBusLabel labels the segment at junction j with bus
func (s *Sheet) AddBusLabel(j uuid.UUID, bus *netlist.Bus) (*NetLabel, error) {
	if s.Junctions[j] == nil {
		return nil, fmt.Errorf("junction %s: %w", j, ErrNotFound)
	}
	if bus == nil || s.Block.Buses[bus.UUID] != bus {
		return nil, fmt.Errorf("sheet: label bus is not part of block")
	}
	l := &NetLabel{UUID: uuid.New(), Junction: j, Bus: netlist.NewRef(bus.UUID, bus)}
	s.NetLabels[l.UUID] = l
	s.Update()
	return l, nil
}

// AddPowerSymbol ties the segment at junction j to the power net net
func (s *Sheet) AddPowerSymbol(j uuid.UUID, net *netlist.Net) (*PowerSymbol, error) {
	if s.Junctions[j] == nil {
		return nil, fmt.Errorf("junction %s: %w", j, ErrNotFound)
	}
	if net == nil || s.Block.GetNet(net.UUID) != net {
		return nil, fmt.Errorf("sheet: power symbol net is not part of block")
	}
	if !net.IsPower {
		return nil, fmt.Errorf("sheet: net %s is not a power net", net.DisplayName())
	}
	ps := &PowerSymbol{UUID: uuid.New(), Junction: j, Net: netlist.NewRef(net.UUID, net)}
	s.PowerSymbols[ps.UUID] = ps
	s.Update()
	return ps, nil
}

// AddBusRipper connects the segment at junction j to member of bus
func (s *Sheet) AddBusRipper(j uuid.UUID, bus *netlist.Bus, member uuid.UUID) (*BusRipper, error) {
	if s.Junctions[j] == nil {
		return nil, fmt.Errorf("junction %s: %w", j, ErrNotFound)
	}
	if bus == nil || s.Block.Buses[bus.UUID] != bus {
		return nil, fmt.Errorf("sheet: ripper bus is not part of block")
	}
	if _, ok := bus.Members[member]; !ok {
		return nil, fmt.Errorf("bus member %s: %w", member, ErrNotFound)
	}
	r := &BusRipper{UUID: uuid.New(), Junction: j, Bus: netlist.NewRef(bus.UUID, bus), Member: member}
	s.BusRippers[r.UUID] = r
	s.Update()
	return r, nil
}

// DeleteLine removes a line and re-derives connectivity
func (s *Sheet) DeleteLine(id uuid.UUID) error {
	l := s.Lines[id]
	if l == nil {
		return fmt.Errorf("line %s: %w", id, ErrNotFound)
	}
	delete(s.Lines, id)
	s.releasePins(l.From, l.To)
	s.Update()
	return nil
}

// DeleteJunction removes a junction together with every line, label, power
// symbol and ripper attached to it
func (s *Sheet) DeleteJunction(id uuid.UUID) error {
	if s.Junctions[id] == nil {
		return fmt.Errorf("junction %s: %w", id, ErrNotFound)
	}
	for lid, l := range s.Lines {
		if l.From.Junction == id || l.To.Junction == id {
			delete(s.Lines, lid)
			s.releasePins(l.From, l.To)
		}
	}
	for lid, l := range s.NetLabels {
		if l.Junction == id {
			delete(s.NetLabels, lid)
		}
	}
	for pid, p := range s.PowerSymbols {
		if p.Junction == id {
			delete(s.PowerSymbols, pid)
		}
	}
	for rid, r := range s.BusRippers {
		if r.Junction == id {
			delete(s.BusRippers, rid)
		}
	}
	delete(s.Junctions, id)
	s.Update()
	return nil
}

// DeleteNetLabel removes a label and re-derives connectivity
func (s *Sheet) DeleteNetLabel(id uuid.UUID) error {
	if s.NetLabels[id] == nil {
		return fmt.Errorf("net label %s: %w", id, ErrNotFound)
	}
	delete(s.NetLabels, id)
	s.Update()
	return nil
}

// DeletePowerSymbol removes a power symbol and re-derives connectivity. Pins
// that were only on the power net through this symbol move to a fresh net.
func (s *Sheet) DeletePowerSymbol(id uuid.UUID) error {
	if s.PowerSymbols[id] == nil {
		return fmt.Errorf("power symbol %s: %w", id, ErrNotFound)
	}
	delete(s.PowerSymbols, id)
	s.Update()
	return nil
}

// DeleteBusRipper removes a ripper and re-derives connectivity
func (s *Sheet) DeleteBusRipper(id uuid.UUID) error {
	if s.BusRippers[id] == nil {
		return fmt.Errorf("bus ripper %s: %w", id, ErrNotFound)
	}
	delete(s.BusRippers, id)
	s.Update()
	return nil
}

// DeleteSymbol removes a placed symbol and every line ending on its pins. The
// component's connections are left alone.
func (s *Sheet) DeleteSymbol(id uuid.UUID) error {
	if s.Symbols[id] == nil {
		return fmt.Errorf("symbol %s: %w", id, ErrNotFound)
	}
	for lid, l := range s.Lines {
		if l.From.Symbol == id || l.To.Symbol == id {
			delete(s.Lines, lid)
		}
	}
	delete(s.Symbols, id)
	s.Update()
	return nil
}

// releasePins disconnects the given pin endpoints once no line ends on them
func (s *Sheet) releasePins(ends ...Endpoint) {
	for _, e := range ends {
		if !e.IsPin() {
			continue
		}
		wired := false
		for _, l := range s.Lines {
			if l.From == e || l.To == e {
				wired = true
				break
			}
		}
		if wired {
			continue
		}
		sym := s.Symbols[e.Symbol]
		if sym == nil {
			continue
		}
		if c := sym.Component.Get(); c != nil {
			c.Disconnect(sym.Gate, e.Pin)
		}
	}
}

// VacuumJunctions removes junctions that no line, label, power symbol or
// ripper uses
func (s *Sheet) VacuumJunctions() {
	dead := sweep.Unreferenced(sweep.Keys(s.Junctions), func(keep func(uuid.UUID)) {
		for _, l := range s.Lines {
			keep(l.From.Junction)
			keep(l.To.Junction)
		}
		for _, l := range s.NetLabels {
			keep(l.Junction)
		}
		for _, p := range s.PowerSymbols {
			keep(p.Junction)
		}
		for _, r := range s.BusRippers {
			keep(r.Junction)
		}
	}, func(a, b uuid.UUID) bool { return a.String() < b.String() })

	for _, id := range dead {
		delete(s.Junctions, id)
	}
}

// KeepNets reports every net the sheet's primitives refer to. Pass it to
// Block.VacuumNetsKeeping so labelled but unconnected nets survive.
func (s *Sheet) KeepNets(keep func(uuid.UUID)) {
	for _, j := range s.Junctions {
		keep(j.Net.UUID)
	}
	for _, l := range s.Lines {
		keep(l.Net.UUID)
	}
	for _, l := range s.NetLabels {
		keep(l.Net.UUID)
	}
	for _, p := range s.PowerSymbols {
		keep(p.Net.UUID)
	}
}

func (s *Sheet) checkEndpoint(e Endpoint) error {
	switch {
	case e.IsJunction():
		if s.Junctions[e.Junction] == nil {
			return fmt.Errorf("junction %s: %w", e.Junction, ErrNotFound)
		}
	case e.IsPin():
		sym := s.Symbols[e.Symbol]
		if sym == nil {
			return fmt.Errorf("symbol %s: %w", e.Symbol, ErrNotFound)
		}
		if _, ok := sym.Pins[e.Pin]; !ok {
			return fmt.Errorf("pin %s of symbol %s: %w", e.Pin, e.Symbol, ErrNotFound)
		}
	default:
		return fmt.Errorf("sheet: empty endpoint")
	}
	return nil
}

// endNet returns the net and bus currently at an endpoint
func (s *Sheet) endNet(e Endpoint) (*netlist.Net, *netlist.Bus) {
	if e.IsJunction() {
		j := s.Junctions[e.Junction]
		return j.Net.Get(), j.Bus.Get()
	}
	sym := s.Symbols[e.Symbol]
	return sym.PinNet(e.Pin), nil
}

// Position returns the location of an endpoint
func (s *Sheet) Position(e Endpoint) geom.Point {
	if e.IsJunction() {
		if j := s.Junctions[e.Junction]; j != nil {
			return j.Position
		}
		return geom.Point{}
	}
	if sym := s.Symbols[e.Symbol]; sym != nil {
		return sym.Pins[e.Pin]
	}
	return geom.Point{}
}
