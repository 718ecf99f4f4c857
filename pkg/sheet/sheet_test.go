package sheet

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/diag"
	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/netlist"
	"github.com/OpenTraceLab/netcore/pkg/pool"
)

type fixture struct {
	block  *netlist.Block
	sheet  *Sheet
	entity *pool.Entity
	gate   *pool.Gate
	pin1   *pool.Pin
	pin2   *pool.Pin
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	unit := pool.NewUnit("R", "1", "2")
	entity := pool.NewEntity("Resistor", "R")
	gate := entity.AddGate("Main", unit)
	p1, _ := unit.PinByName("1")
	p2, _ := unit.PinByName("2")
	b := netlist.NewBlock("top")
	return &fixture{
		block:  b,
		sheet:  New("main", b),
		entity: entity,
		gate:   gate,
		pin1:   p1,
		pin2:   p2,
	}
}

// place adds a resistor symbol at x (mm)
func (f *fixture) place(refdes string, x float64) (*netlist.Component, *SchematicSymbol) {
	c := f.block.InsertComponent(f.entity, refdes)
	pos := geom.FromMM(x, 0)
	sym := f.sheet.AddSymbol(c, f.gate.ID, pos, map[uuid.UUID]geom.Point{
		f.pin1.ID: pos.Add(geom.FromMM(-2.54, 0)),
		f.pin2.ID: pos.Add(geom.FromMM(2.54, 0)),
	})
	return c, sym
}

func (f *fixture) netOf(c *netlist.Component, pin *pool.Pin) *netlist.Net {
	return c.NetOf(netlist.PinKey{Gate: f.gate.ID, Pin: pin.ID})
}

func mustLine(t *testing.T, s *Sheet, from, to Endpoint) *Line {
	t.Helper()
	l, err := s.AddLine(from, to)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	return l
}

func TestAddLineConnectsPins(t *testing.T) {
	f := newFixture(t)
	r1, s1 := f.place("R1", 0)
	r2, s2 := f.place("R2", 10)

	l := mustLine(t, f.sheet, AtPin(s1.UUID, f.pin2.ID), AtPin(s2.UUID, f.pin1.ID))

	n1, n2 := f.netOf(r1, f.pin2), f.netOf(r2, f.pin1)
	if n1 == nil || n1 != n2 {
		t.Fatalf("pins not on one net: %v, %v", n1, n2)
	}
	if l.Net.Get() != n1 {
		t.Errorf("line net = %v, want %v", l.Net.Get(), n1)
	}
	if l.Segment == uuid.Nil {
		t.Error("line has no segment")
	}
	if got := len(f.block.Nets); got != 1 {
		t.Errorf("block has %d nets, want 1", got)
	}
}

func TestAddLineMergesNets(t *testing.T) {
	f := newFixture(t)
	r1, s1 := f.place("R1", 0)
	r2, s2 := f.place("R2", 10)
	j1 := f.sheet.AddJunction(geom.FromMM(3, 5))
	j2 := f.sheet.AddJunction(geom.FromMM(7, 5))

	mustLine(t, f.sheet, AtPin(s1.UUID, f.pin2.ID), AtJunction(j1.UUID))
	mustLine(t, f.sheet, AtPin(s2.UUID, f.pin1.ID), AtJunction(j2.UUID))
	if len(f.block.Nets) != 2 {
		t.Fatalf("block has %d nets before joining, want 2", len(f.block.Nets))
	}

	mustLine(t, f.sheet, AtJunction(j1.UUID), AtJunction(j2.UUID))

	if len(f.block.Nets) != 1 {
		t.Errorf("block has %d nets after joining, want 1", len(f.block.Nets))
	}
	n1, n2 := f.netOf(r1, f.pin2), f.netOf(r2, f.pin1)
	if n1 == nil || n1 != n2 {
		t.Errorf("pins not merged: %v, %v", n1, n2)
	}
	if j1.Net.Get() != n1 || j2.Net.Get() != n1 {
		t.Error("junctions not repointed to the surviving net")
	}
}

func TestAddLineIllegal(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture) (Endpoint, Endpoint)
	}{
		{
			name: "bus to pin",
			setup: func(t *testing.T, f *fixture) (Endpoint, Endpoint) {
				_, s1 := f.place("R1", 0)
				bus, err := f.block.CreateBusFromExpr("DATA", "D[0..3]")
				if err != nil {
					t.Fatal(err)
				}
				j := f.sheet.AddJunction(geom.FromMM(5, 5))
				if _, err := f.sheet.AddBusLabel(j.UUID, bus); err != nil {
					t.Fatal(err)
				}
				return AtJunction(j.UUID), AtPin(s1.UUID, f.pin1.ID)
			},
		},
		{
			name: "two power nets",
			setup: func(t *testing.T, f *fixture) (Endpoint, Endpoint) {
				gnd := f.block.InsertNamedNet("GND")
				gnd.IsPower = true
				vcc := f.block.InsertNamedNet("VCC")
				vcc.IsPower = true
				j1 := f.sheet.AddJunction(geom.FromMM(0, 5))
				j2 := f.sheet.AddJunction(geom.FromMM(5, 5))
				if _, err := f.sheet.AddPowerSymbol(j1.UUID, gnd); err != nil {
					t.Fatal(err)
				}
				if _, err := f.sheet.AddPowerSymbol(j2.UUID, vcc); err != nil {
					t.Fatal(err)
				}
				return AtJunction(j1.UUID), AtJunction(j2.UUID)
			},
		},
		{
			name: "two buses",
			setup: func(t *testing.T, f *fixture) (Endpoint, Endpoint) {
				a, _ := f.block.CreateBusFromExpr("A", "A[0..1]")
				b, _ := f.block.CreateBusFromExpr("B", "B[0..1]")
				j1 := f.sheet.AddJunction(geom.FromMM(0, 5))
				j2 := f.sheet.AddJunction(geom.FromMM(5, 5))
				if _, err := f.sheet.AddBusLabel(j1.UUID, a); err != nil {
					t.Fatal(err)
				}
				if _, err := f.sheet.AddBusLabel(j2.UUID, b); err != nil {
					t.Fatal(err)
				}
				return AtJunction(j1.UUID), AtJunction(j2.UUID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			from, to := tt.setup(t, f)
			lines := len(f.sheet.Lines)
			_, err := f.sheet.AddLine(from, to)
			if !errors.Is(err, netlist.ErrIllegalMerge) {
				t.Fatalf("AddLine error = %v, want ErrIllegalMerge", err)
			}
			if len(f.sheet.Lines) != lines {
				t.Error("rejected line was added")
			}
		})
	}
}

func TestAddLineUnknownEndpoint(t *testing.T) {
	f := newFixture(t)
	j := f.sheet.AddJunction(geom.Point{})
	_, err := f.sheet.AddLine(AtJunction(j.UUID), AtJunction(uuid.New()))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

type classification struct {
	net, bus           uuid.UUID
	label, power, conf bool
}

func classify(infos map[uuid.UUID]*SegmentInfo) map[uuid.UUID]classification {
	out := make(map[uuid.UUID]classification, len(infos))
	for _, si := range infos {
		c := classification{label: si.HasLabel, power: si.HasPowerSymbol, conf: si.Conflict}
		if si.Net != nil {
			c.net = si.Net.UUID
		}
		if si.Bus != nil {
			c.bus = si.Bus.UUID
		}
		out[si.Anchor] = c
	}
	return out
}

func TestAnalyzeIsRepeatable(t *testing.T) {
	f := newFixture(t)
	_, s1 := f.place("R1", 0)
	_, s2 := f.place("R2", 10)
	gnd := f.block.InsertNamedNet("GND")
	gnd.IsPower = true
	sda := f.block.InsertNamedNet("SDA")

	j1 := f.sheet.AddJunction(geom.FromMM(0, 5))
	j2 := f.sheet.AddJunction(geom.FromMM(10, 5))
	f.sheet.AddJunction(geom.FromMM(20, 5))
	mustLine(t, f.sheet, AtPin(s1.UUID, f.pin1.ID), AtJunction(j1.UUID))
	mustLine(t, f.sheet, AtPin(s2.UUID, f.pin1.ID), AtJunction(j2.UUID))
	mustLine(t, f.sheet, AtPin(s1.UUID, f.pin2.ID), AtPin(s2.UUID, f.pin2.ID))
	if _, err := f.sheet.AddPowerSymbol(j1.UUID, gnd); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sheet.AddNetLabel(j2.UUID, sda); err != nil {
		t.Fatal(err)
	}

	f.sheet.PropagateNetSegments()
	first := f.sheet.AnalyzeNetSegments()
	seg := j1.Segment
	warnings := f.sheet.Warnings.Len()

	f.sheet.PropagateNetSegments()
	second := f.sheet.AnalyzeNetSegments()

	if j1.Segment == seg {
		t.Error("segment id was not refreshed")
	}
	a, b := classify(first), classify(second)
	if len(a) != len(b) {
		t.Fatalf("segment count changed: %d != %d", len(a), len(b))
	}
	for anchor, ca := range a {
		if cb, ok := b[anchor]; !ok || ca != cb {
			t.Errorf("segment %s classified %+v then %+v", anchor, ca, cb)
		}
	}
	if f.sheet.Warnings.Len() != warnings {
		t.Errorf("warnings changed: %d then %d", warnings, f.sheet.Warnings.Len())
	}
	if len(a) != 4 {
		t.Errorf("got %d segments, want 4", len(a))
	}
}

func TestConflictingLabels(t *testing.T) {
	f := newFixture(t)
	r1, s1 := f.place("R1", 0)
	j := f.sheet.AddJunction(geom.FromMM(0, 5))
	mustLine(t, f.sheet, AtPin(s1.UUID, f.pin1.ID), AtJunction(j.UUID))

	a := f.block.InsertNamedNet("A")
	b := f.block.InsertNamedNet("B")
	if _, err := f.sheet.AddNetLabel(j.UUID, a); err != nil {
		t.Fatal(err)
	}
	if got := f.netOf(r1, f.pin1); got != a {
		t.Fatalf("label did not move pin: on %v", got)
	}
	if _, err := f.sheet.AddNetLabel(j.UUID, b); err != nil {
		t.Fatal(err)
	}

	infos := f.sheet.Update()
	si := infos[j.Segment]
	if si == nil || !si.Conflict {
		t.Fatalf("segment not in conflict: %+v", si)
	}
	if !f.sheet.Warnings.HasKind(diag.AmbiguousSegment) {
		t.Error("no AmbiguousSegment warning")
	}
	if got := f.netOf(r1, f.pin1); got != a {
		t.Errorf("conflicting segment moved pin to %v", got)
	}
}

func TestConflictingBusLabels(t *testing.T) {
	f := newFixture(t)
	a, err := f.block.CreateBusFromExpr("A", "A[0..1]")
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.block.CreateBusFromExpr("B", "B[0..1]")
	if err != nil {
		t.Fatal(err)
	}
	j1 := f.sheet.AddJunction(geom.FromMM(0, 0))
	j2 := f.sheet.AddJunction(geom.FromMM(10, 0))
	if _, err := f.sheet.AddBusLabel(j1.UUID, a); err != nil {
		t.Fatal(err)
	}
	line := mustLine(t, f.sheet, AtJunction(j1.UUID), AtJunction(j2.UUID))
	if _, err := f.sheet.AddBusLabel(j2.UUID, b); err != nil {
		t.Fatal(err)
	}

	infos := f.sheet.AnalyzeNetSegments()
	si := infos[j1.Segment]
	if si == nil || !si.Conflict {
		t.Fatalf("segment not in conflict: %+v", si)
	}
	if !f.sheet.Warnings.HasKind(diag.AmbiguousSegment) {
		t.Error("no AmbiguousSegment warning")
	}

	f.sheet.Update()
	if got := line.Bus.Get(); got == b {
		t.Errorf("conflicting segment restamped line with bus %s", got.Name)
	}
}

func TestBusAndNetConflict(t *testing.T) {
	f := newFixture(t)
	bus, _ := f.block.CreateBusFromExpr("D", "D[0..1]")
	n := f.block.InsertNamedNet("CLK")
	j := f.sheet.AddJunction(geom.Point{})
	if _, err := f.sheet.AddBusLabel(j.UUID, bus); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sheet.AddNetLabel(j.UUID, n); err != nil {
		t.Fatal(err)
	}
	if !f.sheet.Warnings.HasKind(diag.BusNetConflict) {
		t.Error("no BusNetConflict warning")
	}
}

func TestDeletePowerSymbolReleasesPins(t *testing.T) {
	f := newFixture(t)
	r1, s1 := f.place("R1", 0)
	r2, s2 := f.place("R2", 10)
	gnd := f.block.InsertNamedNet("GND")
	gnd.IsPower = true

	j := f.sheet.AddJunction(geom.FromMM(5, -5))
	ps, err := f.sheet.AddPowerSymbol(j.UUID, gnd)
	if err != nil {
		t.Fatal(err)
	}
	mustLine(t, f.sheet, AtPin(s1.UUID, f.pin1.ID), AtJunction(j.UUID))
	mustLine(t, f.sheet, AtPin(s2.UUID, f.pin1.ID), AtJunction(j.UUID))
	if f.netOf(r1, f.pin1) != gnd || f.netOf(r2, f.pin1) != gnd {
		t.Fatal("pins not on GND")
	}

	if err := f.sheet.DeletePowerSymbol(ps.UUID); err != nil {
		t.Fatal(err)
	}

	n1, n2 := f.netOf(r1, f.pin1), f.netOf(r2, f.pin1)
	if n1 == nil || n1 == gnd {
		t.Fatalf("R1.1 still on %v", n1)
	}
	if n1 != n2 {
		t.Error("pins of one segment ended on different nets")
	}
	if f.block.GetNet(gnd.UUID) == nil {
		t.Error("power net was erased")
	}
}

func TestDeleteLineSplitsNet(t *testing.T) {
	f := newFixture(t)
	r1, s1 := f.place("R1", 0)
	r2, s2 := f.place("R2", 10)
	j1 := f.sheet.AddJunction(geom.FromMM(3, 0))
	j2 := f.sheet.AddJunction(geom.FromMM(7, 0))
	mustLine(t, f.sheet, AtPin(s1.UUID, f.pin2.ID), AtJunction(j1.UUID))
	mid := mustLine(t, f.sheet, AtJunction(j1.UUID), AtJunction(j2.UUID))
	mustLine(t, f.sheet, AtJunction(j2.UUID), AtPin(s2.UUID, f.pin1.ID))

	n := f.netOf(r1, f.pin2)
	if n == nil || f.netOf(r2, f.pin1) != n {
		t.Fatal("pins not joined before delete")
	}

	if err := f.sheet.DeleteLine(mid.UUID); err != nil {
		t.Fatal(err)
	}

	n1, n2 := f.netOf(r1, f.pin2), f.netOf(r2, f.pin1)
	if n1 == nil || n2 == nil {
		t.Fatalf("pin lost its net: %v, %v", n1, n2)
	}
	if n1 == n2 {
		t.Error("net was not split")
	}
	if n1 != n && n2 != n {
		t.Error("neither half kept the original net")
	}
}

func TestDeleteLineReleasesPin(t *testing.T) {
	f := newFixture(t)
	r1, s1 := f.place("R1", 0)
	_, s2 := f.place("R2", 10)
	l := mustLine(t, f.sheet, AtPin(s1.UUID, f.pin2.ID), AtPin(s2.UUID, f.pin1.ID))

	if err := f.sheet.DeleteLine(l.UUID); err != nil {
		t.Fatal(err)
	}
	if n := f.netOf(r1, f.pin2); n != nil {
		t.Errorf("unwired pin still on %v", n)
	}
	f.block.VacuumNets()
	if len(f.block.Nets) != 0 {
		t.Errorf("%d nets left after vacuum, want 0", len(f.block.Nets))
	}
}

func TestBusRipper(t *testing.T) {
	f := newFixture(t)
	r1, s1 := f.place("R1", 0)
	bus, err := f.block.CreateBusFromExpr("DATA", "D[0..1]")
	if err != nil {
		t.Fatal(err)
	}
	d0, ok := bus.MemberByName("D0")
	if !ok {
		t.Fatal("no member D0")
	}

	j := f.sheet.AddJunction(geom.FromMM(0, 5))
	mustLine(t, f.sheet, AtPin(s1.UUID, f.pin1.ID), AtJunction(j.UUID))
	r, err := f.sheet.AddBusRipper(j.UUID, bus, d0.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.netOf(r1, f.pin1); got != d0.Net.Get() {
		t.Fatalf("pin on %v, want D0", got)
	}

	if err := f.sheet.DeleteBusRipper(r.UUID); err != nil {
		t.Fatal(err)
	}
	if got := f.netOf(r1, f.pin1); got == nil || got == d0.Net.Get() {
		t.Errorf("pin still on %v after ripper removal", got)
	}
}

func TestDanglingRipper(t *testing.T) {
	f := newFixture(t)
	bus, _ := f.block.CreateBusFromExpr("DATA", "D[0..1]")
	d1, _ := bus.MemberByName("D1")
	j := f.sheet.AddJunction(geom.Point{})
	if _, err := f.sheet.AddBusRipper(j.UUID, bus, d1.UUID); err != nil {
		t.Fatal(err)
	}
	bus.RemoveMember(d1.UUID)
	f.sheet.Update()
	if !f.sheet.Warnings.HasKind(diag.DanglingRipper) {
		t.Error("no DanglingRipper warning")
	}
}

func TestGetPinsConnectedToNetSegment(t *testing.T) {
	f := newFixture(t)
	r1, s1 := f.place("R1", 0)
	r2, s2 := f.place("R2", 10)
	j := f.sheet.AddJunction(geom.FromMM(5, 5))
	mustLine(t, f.sheet, AtPin(s1.UUID, f.pin2.ID), AtJunction(j.UUID))
	mustLine(t, f.sheet, AtPin(s2.UUID, f.pin1.ID), AtJunction(j.UUID))
	mustLine(t, f.sheet, AtPin(s2.UUID, f.pin2.ID), AtPin(s1.UUID, f.pin1.ID))

	pins := f.sheet.GetPinsConnectedToNetSegment(j.Segment)
	want := map[netlist.PinPath]bool{
		{Component: r1.UUID, Gate: f.gate.ID, Pin: f.pin2.ID}: true,
		{Component: r2.UUID, Gate: f.gate.ID, Pin: f.pin1.ID}: true,
	}
	if len(pins) != len(want) {
		t.Fatalf("got %d pins, want %d", len(pins), len(want))
	}
	for _, p := range pins {
		if !want[p] {
			t.Errorf("unexpected pin %v", p)
		}
	}
	if got := f.sheet.GetPinsConnectedToNetSegment(uuid.New()); len(got) != 0 {
		t.Errorf("unknown segment returned %d pins", len(got))
	}
}

func TestVacuumJunctions(t *testing.T) {
	f := newFixture(t)
	_, s1 := f.place("R1", 0)
	used := f.sheet.AddJunction(geom.FromMM(0, 5))
	labelled := f.sheet.AddJunction(geom.FromMM(5, 5))
	loose := f.sheet.AddJunction(geom.FromMM(9, 5))
	mustLine(t, f.sheet, AtPin(s1.UUID, f.pin1.ID), AtJunction(used.UUID))
	if _, err := f.sheet.AddNetLabel(labelled.UUID, f.block.InsertNamedNet("X")); err != nil {
		t.Fatal(err)
	}

	f.sheet.VacuumJunctions()

	if f.sheet.Junctions[used.UUID] == nil || f.sheet.Junctions[labelled.UUID] == nil {
		t.Error("referenced junction removed")
	}
	if f.sheet.Junctions[loose.UUID] != nil {
		t.Error("loose junction kept")
	}
}

func TestKeepNets(t *testing.T) {
	f := newFixture(t)
	x := f.block.InsertNamedNet("X")
	orphan := f.block.InsertNamedNet("ORPHAN")
	j := f.sheet.AddJunction(geom.Point{})
	if _, err := f.sheet.AddNetLabel(j.UUID, x); err != nil {
		t.Fatal(err)
	}

	f.block.VacuumNetsKeeping(f.sheet.KeepNets)

	if f.block.GetNet(x.UUID) == nil {
		t.Error("labelled net vacuumed")
	}
	if f.block.GetNet(orphan.UUID) != nil {
		t.Error("orphan net survived")
	}
}

func TestUpdateRefsAfterClone(t *testing.T) {
	f := newFixture(t)
	_, s1 := f.place("R1", 0)
	j := f.sheet.AddJunction(geom.FromMM(0, 5))
	mustLine(t, f.sheet, AtPin(s1.UUID, f.pin1.ID), AtJunction(j.UUID))

	clone, err := f.block.Clone()
	if err != nil {
		t.Fatal(err)
	}
	if err := f.sheet.UpdateRefs(clone); err != nil {
		t.Fatal(err)
	}
	if j.Net.Get() != clone.GetNet(j.Net.UUID) {
		t.Error("junction net not resolved into clone")
	}
	if s1.Component.Get() != clone.Components[s1.Component.UUID] {
		t.Error("symbol component not resolved into clone")
	}

	delete(clone.Nets, j.Net.UUID)
	if err := f.sheet.UpdateRefs(clone); !errors.Is(err, netlist.ErrIntegrity) {
		t.Errorf("error = %v, want ErrIntegrity", err)
	}
}
