package sheet

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/OpenTraceLab/netcore/pkg/diag"
	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/netlist"
)

// SourceKind says what kind of primitive declared a segment's net or bus
type SourceKind int

const (
	SourceLabel SourceKind = iota + 1
	SourcePowerSymbol
	SourceBusRipper
	SourcePin
	SourceJunction
	SourceLine
)

func (k SourceKind) String() string {
	switch k {
	case SourceLabel:
		return "label"
	case SourcePowerSymbol:
		return "power symbol"
	case SourceBusRipper:
		return "bus ripper"
	case SourcePin:
		return "pin"
	case SourceJunction:
		return "junction"
	case SourceLine:
		return "line"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// tier ranks sources; labels and power symbols beat rippers, which beat
// whatever pins and wires already carry
func (k SourceKind) tier() int {
	switch k {
	case SourceLabel, SourcePowerSymbol:
		return 0
	case SourceBusRipper:
		return 1
	default:
		return 2
	}
}

// Declared reports whether the source names its net explicitly
func (k SourceKind) Declared() bool {
	return k.tier() < 2
}

// Source is one primitive's claim about a segment
type Source struct {
	Kind   SourceKind
	Object uuid.UUID
	Net    *netlist.Net
	Bus    *netlist.Bus
}

// SegmentInfo is the classification of one net segment
type SegmentInfo struct {
	Segment        uuid.UUID
	Anchor         uuid.UUID // lowest primitive id in the segment, stable across propagations
	Position       geom.Point
	HasLabel       bool
	HasPowerSymbol bool
	Net            *netlist.Net
	Bus            *netlist.Bus
	Sources        []Source
	Conflict       bool
}

// IsBus reports whether the segment was classified as a bus
func (si *SegmentInfo) IsBus() bool {
	return si.Bus != nil
}

// Declares reports whether a label, power symbol or ripper names net on the
// segment
func (si *SegmentInfo) Declares(net *netlist.Net) bool {
	for _, src := range si.Sources {
		if src.Kind.Declared() && src.Net == net {
			return true
		}
	}
	return false
}

// PropagateNetSegments recomputes the net segments of the sheet. Each
// connected group of junctions and pins gets a fresh segment id, stamped onto
// its junctions, lines, labels, power symbols and rippers. Previous segment
// ids are not preserved.
func (s *Sheet) PropagateNetSegments() {
	g := simple.NewUndirectedGraph()
	nodes := make(map[Endpoint]int64)
	var ends []Endpoint

	node := func(e Endpoint) int64 {
		if id, ok := nodes[e]; ok {
			return id
		}
		id, err := safecast.Conv[int64](len(ends))
		if err != nil {
			panic(fmt.Errorf("sheet: segment node overflow: %w", err))
		}
		nodes[e] = id
		ends = append(ends, e)
		g.AddNode(simple.Node(id))
		return id
	}

	for _, id := range sortedIDs(s.Junctions) {
		node(AtJunction(id))
	}
	for _, id := range sortedIDs(s.Lines) {
		l := s.Lines[id]
		a, b := node(l.From), node(l.To)
		if a == b {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
	}

	segOf := make(map[Endpoint]uuid.UUID, len(ends))
	for _, comp := range topo.ConnectedComponents(g) {
		seg := uuid.New()
		for _, n := range comp {
			segOf[ends[n.ID()]] = seg
		}
	}

	for id, j := range s.Junctions {
		j.Segment = segOf[AtJunction(id)]
	}
	for _, l := range s.Lines {
		l.Segment = segOf[l.From]
	}
	for _, l := range s.NetLabels {
		l.Segment = segOf[AtJunction(l.Junction)]
	}
	for _, p := range s.PowerSymbols {
		p.Segment = segOf[AtJunction(p.Junction)]
	}
	for _, r := range s.BusRippers {
		r.Segment = segOf[AtJunction(r.Junction)]
	}
	s.pinSegments = make(map[Endpoint]uuid.UUID)
	for e, seg := range segOf {
		if e.IsPin() {
			s.pinSegments[e] = seg
		}
	}
}

// AnalyzeNetSegments classifies every segment found by the last
// PropagateNetSegments. A label or power symbol outranks a bus ripper, which
// outranks the nets pins and wires already carry. Disagreeing declarations
// leave the segment unresolved and are reported in Warnings. The result is
// deterministic for a given set of primitives.
func (s *Sheet) AnalyzeNetSegments() map[uuid.UUID]*SegmentInfo {
	s.Warnings.Reset()
	infos := make(map[uuid.UUID]*SegmentInfo)

	info := func(seg, obj uuid.UUID, pos geom.Point) *SegmentInfo {
		if seg == uuid.Nil {
			return nil
		}
		si := infos[seg]
		if si == nil {
			si = &SegmentInfo{Segment: seg, Anchor: obj, Position: pos}
			infos[seg] = si
		} else if uuidLess(obj, si.Anchor) {
			si.Anchor = obj
			si.Position = pos
		}
		return si
	}

	for _, id := range sortedIDs(s.Junctions) {
		j := s.Junctions[id]
		info(j.Segment, id, j.Position)
	}

	for _, id := range sortedIDs(s.NetLabels) {
		l := s.NetLabels[id]
		si := info(l.Segment, id, s.junctionPos(l.Junction))
		if si == nil {
			continue
		}
		si.HasLabel = true
		si.Sources = append(si.Sources, Source{Kind: SourceLabel, Object: id, Net: l.Net.Get(), Bus: l.Bus.Get()})
	}
	for _, id := range sortedIDs(s.PowerSymbols) {
		p := s.PowerSymbols[id]
		si := info(p.Segment, id, s.junctionPos(p.Junction))
		if si == nil {
			continue
		}
		si.HasPowerSymbol = true
		si.Sources = append(si.Sources, Source{Kind: SourcePowerSymbol, Object: id, Net: p.Net.Get()})
	}
	for _, id := range sortedIDs(s.BusRippers) {
		r := s.BusRippers[id]
		si := info(r.Segment, id, s.junctionPos(r.Junction))
		if si == nil {
			continue
		}
		net := r.MemberNet()
		if net == nil {
			s.Warnings.Addf(diag.DanglingRipper, []uuid.UUID{id}, "bus ripper at %s has no member net", si.Position)
			continue
		}
		si.Sources = append(si.Sources, Source{Kind: SourceBusRipper, Object: id, Net: net})
	}

	for _, id := range sortedIDs(s.Lines) {
		l := s.Lines[id]
		si := info(l.Segment, id, s.Position(l.From))
		if si == nil {
			continue
		}
		for _, e := range [2]Endpoint{l.From, l.To} {
			if !e.IsPin() {
				continue
			}
			if net := s.Symbols[e.Symbol].PinNet(e.Pin); net != nil {
				si.Sources = append(si.Sources, Source{Kind: SourcePin, Object: e.Symbol, Net: net})
			}
		}
		if bus := l.Bus.Get(); bus != nil {
			si.Sources = append(si.Sources, Source{Kind: SourceLine, Object: id, Bus: bus})
		}
	}
	for _, id := range sortedIDs(s.Junctions) {
		j := s.Junctions[id]
		si := infos[j.Segment]
		if si == nil {
			continue
		}
		if net := j.Net.Get(); net != nil {
			si.Sources = append(si.Sources, Source{Kind: SourceJunction, Object: id, Net: net})
		}
		if bus := j.Bus.Get(); bus != nil {
			si.Sources = append(si.Sources, Source{Kind: SourceJunction, Object: id, Bus: bus})
		}
	}

	for _, seg := range sortedSegments(infos) {
		s.resolve(infos[seg])
	}
	s.Warnings.Sort()
	return infos
}

// resolve picks the segment's net or bus from its sources
func (s *Sheet) resolve(si *SegmentInfo) {
	sort.SliceStable(si.Sources, func(i, j int) bool {
		return si.Sources[i].Kind.tier() < si.Sources[j].Kind.tier()
	})

	var declared bool
	for _, src := range si.Sources {
		if src.Kind.Declared() {
			declared = true
		}
	}

	for _, src := range si.Sources {
		if src.Bus == nil {
			continue
		}
		if si.Bus == nil {
			si.Bus = src.Bus
			continue
		}
		if src.Bus == si.Bus {
			continue
		}
		// wires still carrying an old bus follow a bus label
		if declared && !src.Kind.Declared() {
			continue
		}
		si.Conflict = true
		s.Warnings.Addf(diag.AmbiguousSegment, s.sourceObjects(si), "segment at %s is claimed by buses %s and %s",
			si.Position, si.Bus.Name, src.Bus.Name)
		break
	}
	for _, src := range si.Sources {
		if src.Net == nil {
			continue
		}
		if si.Net == nil {
			si.Net = src.Net
			continue
		}
		if src.Net == si.Net {
			continue
		}
		// pins disagreeing with a declaration are simply moved
		if declared && !src.Kind.Declared() {
			continue
		}
		si.Conflict = true
		s.Warnings.Addf(diag.AmbiguousSegment, s.sourceObjects(si), "segment at %s is claimed by nets %s and %s",
			si.Position, si.Net.DisplayName(), src.Net.DisplayName())
		break
	}

	if si.Bus != nil && si.Net != nil {
		si.Conflict = true
		s.Warnings.Addf(diag.BusNetConflict, s.sourceObjects(si), "segment at %s is claimed by bus %s and net %s",
			si.Position, si.Bus.Name, si.Net.DisplayName())
	}
}

func (s *Sheet) sourceObjects(si *SegmentInfo) []uuid.UUID {
	objs := make([]uuid.UUID, 0, len(si.Sources))
	for _, src := range si.Sources {
		objs = append(objs, src.Object)
	}
	return objs
}

// GetPinsConnectedToNetSegment returns the block paths of every symbol pin
// in segment seg
func (s *Sheet) GetPinsConnectedToNetSegment(seg uuid.UUID) []netlist.PinPath {
	var pins []netlist.PinPath
	seen := make(map[netlist.PinPath]bool)
	for e, pseg := range s.pinSegments {
		if pseg != seg {
			continue
		}
		sym := s.Symbols[e.Symbol]
		if sym == nil {
			continue
		}
		path := sym.PinPath(e.Pin)
		if !seen[path] {
			seen[path] = true
			pins = append(pins, path)
		}
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].String() < pins[j].String() })
	return pins
}

func (s *Sheet) junctionPos(id uuid.UUID) geom.Point {
	if j := s.Junctions[id]; j != nil {
		return j.Position
	}
	return geom.Point{}
}

func uuidLess(a, b uuid.UUID) bool {
	return a.String() < b.String()
}

func sortedIDs[V any](m map[uuid.UUID]V) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return uuidLess(ids[i], ids[j]) })
	return ids
}

// sortedSegments orders segments by anchor so analysis does not depend on the
// random segment ids
func sortedSegments(infos map[uuid.UUID]*SegmentInfo) []uuid.UUID {
	segs := make([]uuid.UUID, 0, len(infos))
	for seg := range infos {
		segs = append(segs, seg)
	}
	sort.Slice(segs, func(i, j int) bool {
		return uuidLess(infos[segs[i]].Anchor, infos[segs[j]].Anchor)
	})
	return segs
}
