package importer

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/internal/config"
	"github.com/OpenTraceLab/netcore/pkg/busexpr"
	"github.com/OpenTraceLab/netcore/pkg/diag"
	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/kicad/schematic"
	"github.com/OpenTraceLab/netcore/pkg/netlist"
	"github.com/OpenTraceLab/netcore/pkg/pool"
	"github.com/OpenTraceLab/netcore/pkg/sheet"
)

// ImportSchematic parses a .kicad_sch and draws it into blk, synthesizing
// the entities its symbols use into p. Nets left empty afterwards are
// removed from blk.
func ImportSchematic(r io.Reader, name string, blk *netlist.Block, p *pool.MemoryPool, cfg *config.Config) (*sheet.Sheet, error) {
	sch, err := schematic.Parse(r)
	if err != nil {
		return nil, err
	}
	s, err := BuildSheet(sch, name, blk, p, cfg)
	if err != nil {
		return nil, err
	}
	blk.VacuumNetsKeeping(s.KeepNets)
	return s, nil
}

// BuildSheet draws a parsed schematic into blk
func BuildSheet(sch *schematic.Schematic, name string, blk *netlist.Block, p *pool.MemoryPool, cfg *config.Config) (*sheet.Sheet, error) {
	s := sheet.New(name, blk)
	s.Warnings = diag.NewList(cfg.Diagnostics.WarningLimit)
	if sch.UUID != uuid.Nil {
		s.UUID = sch.UUID
	}
	b := &sheetBuilder{
		sch:      sch,
		sheet:    s,
		block:    blk,
		pool:     p,
		cfg:      cfg,
		wireJct:  make(map[geom.Point]uuid.UUID),
		busJct:   make(map[geom.Point]uuid.UUID),
		entities: make(map[string]*pool.Entity),
	}
	if err := b.build(); err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}
	return s, nil
}

type placedPin struct {
	symbol *sheet.SchematicSymbol
	pin    uuid.UUID
	lib    schematic.LibPin
	at     geom.Point
}

type powerPort struct {
	net string
	at  geom.Point
}

type sheetBuilder struct {
	sch   *schematic.Schematic
	sheet *sheet.Sheet
	block *netlist.Block
	pool  *pool.MemoryPool
	cfg   *config.Config

	wireJct  map[geom.Point]uuid.UUID
	busJct   map[geom.Point]uuid.UUID
	entities map[string]*pool.Entity

	pins   []placedPin
	powers []powerPort
}

func (b *sheetBuilder) build() error {
	if err := b.placeSymbols(); err != nil {
		return err
	}

	// Points that split a wire passing through them
	wireStops := make(map[geom.Point]bool)
	busStops := make(map[geom.Point]bool)
	for _, w := range b.sch.Wires {
		wireStops[w.Points[0]] = true
		wireStops[w.Points[len(w.Points)-1]] = true
	}
	for _, w := range b.sch.Buses {
		busStops[w.Points[0]] = true
		busStops[w.Points[len(w.Points)-1]] = true
	}
	for _, p := range b.sch.Junctions {
		wireStops[p] = true
		busStops[p] = true
	}
	for _, l := range b.sch.Labels {
		if busexpr.IsBusLabel(l.Text) {
			busStops[l.Position] = true
		} else {
			wireStops[l.Position] = true
		}
	}
	for _, pw := range b.powers {
		wireStops[pw.at] = true
	}

	if err := b.drawWires(b.sch.Wires, wireStops, b.wireJct); err != nil {
		return err
	}
	if err := b.drawWires(b.sch.Buses, busStops, b.busJct); err != nil {
		return err
	}
	for _, p := range sortedPoints(wireStops) {
		if _, ok := b.wireJct[p]; !ok && b.needsJunction(p) {
			b.junction(b.wireJct, p)
		}
	}

	if err := b.connectPins(); err != nil {
		return err
	}
	if err := b.placeLabels(); err != nil {
		return err
	}
	for _, pw := range b.powers {
		net := b.powerNet(pw.net)
		if _, err := b.sheet.AddPowerSymbol(b.junction(b.wireJct, pw.at), net); err != nil {
			return fmt.Errorf("power symbol %s: %w", pw.net, err)
		}
	}
	b.markNoConnects()
	b.connectHiddenPowerPins()
	b.sheet.VacuumJunctions()
	return nil
}

// needsJunction reports whether something other than a wire end sits on p
func (b *sheetBuilder) needsJunction(p geom.Point) bool {
	for _, l := range b.sch.Labels {
		if l.Position == p && !busexpr.IsBusLabel(l.Text) {
			return true
		}
	}
	for _, pw := range b.powers {
		if pw.at == p {
			return true
		}
	}
	return false
}

func (b *sheetBuilder) junction(set map[geom.Point]uuid.UUID, p geom.Point) uuid.UUID {
	if id, ok := set[p]; ok {
		return id
	}
	id := b.sheet.AddJunction(p).UUID
	set[p] = id
	return id
}

// drawWires turns polylines into lines between junctions, splitting every
// straight run at the stops lying on it
func (b *sheetBuilder) drawWires(wires []schematic.Wire, stops map[geom.Point]bool, set map[geom.Point]uuid.UUID) error {
	points := sortedPoints(stops)
	for _, w := range wires {
		for i := 1; i < len(w.Points); i++ {
			run := []geom.Point{w.Points[i-1]}
			run = append(run, interior(w.Points[i-1], w.Points[i], points)...)
			run = append(run, w.Points[i])
			for k := 1; k < len(run); k++ {
				if run[k-1] == run[k] {
					continue
				}
				from := sheet.AtJunction(b.junction(set, run[k-1]))
				to := sheet.AtJunction(b.junction(set, run[k]))
				if _, err := b.sheet.AddLine(from, to); err != nil {
					return fmt.Errorf("wire %v-%v: %w", run[k-1], run[k], err)
				}
			}
		}
	}
	return nil
}

// interior returns the points strictly inside segment a-b, ordered from a
func interior(a, c geom.Point, points []geom.Point) []geom.Point {
	var inside []geom.Point
	d := c.Sub(a)
	length := d.X*d.X + d.Y*d.Y
	for _, p := range points {
		v := p.Sub(a)
		if d.X*v.Y-d.Y*v.X != 0 {
			continue
		}
		if dot := d.X*v.X + d.Y*v.Y; dot > 0 && dot < length {
			inside = append(inside, p)
		}
	}
	sort.Slice(inside, func(i, j int) bool {
		return inside[i].Dist(a) < inside[j].Dist(a)
	})
	return inside
}

// placeSymbols creates components and schematic symbols. Power symbols
// only record where their net enters the sheet.
func (b *sheetBuilder) placeSymbols() error {
	for i := range b.sch.Symbols {
		sym := &b.sch.Symbols[i]
		lib := b.sch.LibSymbols[sym.Lib()]
		if lib == nil {
			return fmt.Errorf("symbol %s: lib symbol %q missing from lib_symbols", sym.Reference(), sym.Lib())
		}
		if lib.Power {
			pins := lib.UnitPins(sym.Unit)
			if len(pins) == 0 {
				return fmt.Errorf("power symbol %s has no pin", sym.Value())
			}
			b.powers = append(b.powers, powerPort{net: sym.Value(), at: sym.PinPosition(pins[0])})
			continue
		}

		entity := b.entity(lib, sym.Reference())
		gate, ok := entity.GateByName(unitName(sym.Unit))
		if !ok {
			return fmt.Errorf("symbol %s: unit %d not defined by %s", sym.Reference(), sym.Unit, lib.Name)
		}
		c, err := b.component(sym, entity, gate)
		if err != nil {
			return err
		}

		positions := make(map[uuid.UUID]geom.Point)
		var placed []placedPin
		for _, lp := range lib.UnitPins(sym.Unit) {
			pin, ok := gate.Unit.PinByName(lp.Number)
			if !ok {
				return fmt.Errorf("symbol %s: pin %s missing from unit", sym.Reference(), lp.Number)
			}
			at := sym.PinPosition(lp)
			if _, dup := positions[pin.ID]; dup {
				continue
			}
			positions[pin.ID] = at
			placed = append(placed, placedPin{pin: pin.ID, lib: lp, at: at})
		}
		ss := b.sheet.AddSymbol(c, gate.ID, sym.Position, positions)
		for _, pp := range placed {
			pp.symbol = ss
			b.pins = append(b.pins, pp)
		}
	}
	return nil
}

// component returns the component behind sym. Units of one multi-unit part
// share a reference and therefore a component.
func (b *sheetBuilder) component(sym *schematic.Symbol, entity *pool.Entity, gate *pool.Gate) (*netlist.Component, error) {
	ref := sym.Reference()
	annotated := ref != "" && !strings.HasSuffix(ref, "?")
	if annotated {
		if c := b.block.ComponentByRefdes(ref); c != nil {
			if c.Entity.UUID != entity.ID {
				return nil, fmt.Errorf("reference %s already used by a symbol other than %s", ref, entity.Name)
			}
			for _, placed := range b.sheet.Symbols {
				if placed.Component.UUID == c.UUID && placed.Gate == gate.ID {
					return nil, fmt.Errorf("duplicate reference %s unit %s", ref, gate.Name)
				}
			}
			return c, nil
		}
	}
	c := b.block.InsertComponent(entity, ref)
	c.Value = sym.Value()
	return c, nil
}

// entity returns the entity synthesized for lib, creating it in the pool
// on first use. Pins are named by their number.
func (b *sheetBuilder) entity(lib *schematic.LibSymbol, ref string) *pool.Entity {
	if e, ok := b.entities[lib.Name]; ok {
		return e
	}
	if e, ok := b.pool.EntityByName(lib.Name); ok {
		b.entities[lib.Name] = e
		return e
	}
	e := pool.NewEntity(lib.Name, strings.TrimRight(ref, "0123456789?"))
	for _, u := range lib.Units() {
		unit := pool.NewUnit(fmt.Sprintf("%s:%s", lib.Name, unitName(u)))
		for _, lp := range lib.UnitPins(u) {
			if _, ok := unit.PinByName(lp.Number); !ok {
				unit.AddPin(lp.Number, pinDirection(lp.Type))
			}
		}
		e.AddGate(unitName(u), unit)
	}
	b.pool.AddEntity(e)
	b.entities[lib.Name] = e
	return e
}

func unitName(unit int) string {
	if unit >= 1 && unit <= 26 {
		return string(rune('A' + unit - 1))
	}
	return fmt.Sprintf("U%d", unit)
}

func pinDirection(kind string) pool.PinDirection {
	switch kind {
	case "input":
		return pool.DirInput
	case "output":
		return pool.DirOutput
	case "bidirectional", "tri_state":
		return pool.DirBidirectional
	case "power_in":
		return pool.DirPowerIn
	case "power_out":
		return pool.DirPowerOut
	case "no_connect":
		return pool.DirNotConnected
	}
	return pool.DirPassive
}

// connectPins draws a stub from every pin to the junction on its position.
// Pins touching only each other get a junction of their own.
func (b *sheetBuilder) connectPins() error {
	loose := make(map[geom.Point][]placedPin)
	for _, pp := range b.pins {
		if _, ok := b.wireJct[pp.at]; ok {
			if err := b.stub(pp); err != nil {
				return err
			}
			continue
		}
		loose[pp.at] = append(loose[pp.at], pp)
	}
	for _, p := range sortedPoints(loose) {
		if len(loose[p]) < 2 {
			continue
		}
		b.junction(b.wireJct, p)
		for _, pp := range loose[p] {
			if err := b.stub(pp); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *sheetBuilder) stub(pp placedPin) error {
	from := sheet.AtJunction(b.wireJct[pp.at])
	to := sheet.AtPin(pp.symbol.UUID, pp.pin)
	if _, err := b.sheet.AddLine(from, to); err != nil {
		return fmt.Errorf("pin %s at %v: %w", pp.lib.Number, pp.at, err)
	}
	return nil
}

func (b *sheetBuilder) placeLabels() error {
	for _, l := range b.sch.Labels {
		if busexpr.IsBusLabel(l.Text) {
			bus := b.block.BusByName(l.Text)
			if bus == nil {
				var err error
				if bus, err = b.block.CreateBusFromExpr(l.Text, l.Text); err != nil {
					return fmt.Errorf("%s %q: %w", l.Kind, l.Text, err)
				}
			}
			if _, err := b.sheet.AddBusLabel(b.junction(b.busJct, l.Position), bus); err != nil {
				return fmt.Errorf("%s %q: %w", l.Kind, l.Text, err)
			}
			continue
		}
		if _, err := b.sheet.AddNetLabel(b.junction(b.wireJct, l.Position), b.namedNet(l.Text)); err != nil {
			return fmt.Errorf("%s %q: %w", l.Kind, l.Text, err)
		}
	}
	return nil
}

// namedNet returns the net called name, creating it when missing. Names
// matching the configured power patterns give power nets.
func (b *sheetBuilder) namedNet(name string) *netlist.Net {
	net := b.block.GetNetByName(name)
	if net == nil {
		net = b.block.InsertNamedNet(name)
		net.IsPower = b.cfg.IsPowerNet(name)
	}
	return net
}

func (b *sheetBuilder) powerNet(name string) *netlist.Net {
	net := b.namedNet(name)
	net.IsPower = true
	return net
}

// markNoConnects flags pins under a no-connect marker that nothing reaches
func (b *sheetBuilder) markNoConnects() {
	marked := make(map[geom.Point]bool, len(b.sch.NoConnects))
	for _, p := range b.sch.NoConnects {
		marked[p] = true
	}
	for _, pp := range b.pins {
		c := pp.symbol.Component.Get()
		key := netlist.PinKey{Gate: pp.symbol.Gate, Pin: pp.pin}
		if _, connected := c.Connections[key]; marked[pp.at] && !connected {
			c.MarkNotConnected(pp.symbol.Gate, pp.pin)
		}
	}
}

// connectHiddenPowerPins ties unwired hidden power inputs to the power net
// named after the pin, as KiCad does
func (b *sheetBuilder) connectHiddenPowerPins() {
	for _, pp := range b.pins {
		if !pp.lib.Hidden || pp.lib.Type != "power_in" || pp.lib.Name == "" {
			continue
		}
		c := pp.symbol.Component.Get()
		key := netlist.PinKey{Gate: pp.symbol.Gate, Pin: pp.pin}
		if _, connected := c.Connections[key]; !connected {
			c.Connect(pp.symbol.Gate, pp.pin, b.powerNet(pp.lib.Name))
		}
	}
}

func sortedPoints[V any](m map[geom.Point]V) []geom.Point {
	points := make([]geom.Point, 0, len(m))
	for p := range m {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Less(points[j]) })
	return points
}
