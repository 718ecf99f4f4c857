package sheet

import (
	"sort"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/netlist"
)

// Update re-derives the block connectivity implied by the sheet. It
// propagates segments, classifies them and then:
//
//   - splits a net spread over several disconnected segments, keeping it on
//     the segment that declares it (or has the most pins) and moving the pins
//     of the others onto fresh nets
//   - moves pins that disagree with their segment's net onto it
//   - stamps the resolved net or bus onto the segment's junctions and lines
//
// Segments in conflict are left untouched. The returned classification
// reflects the state after the update.
func (s *Sheet) Update() map[uuid.UUID]*SegmentInfo {
	s.PropagateNetSegments()
	infos := s.AnalyzeNetSegments()
	s.SplitNets(infos)
	for _, seg := range sortedSegments(infos) {
		s.applySegment(infos[seg])
	}
	return infos
}

// SplitNets gives every segment that carries a net also carried by another,
// disconnected segment its own net. The segment keeping the original net is
// the one declaring it through a label, power symbol or ripper; otherwise the
// one with the most pins. Segments that declare the net all keep it.
//
// A segment still on a power net or bus member net without declaring it has
// lost its power symbol or ripper; its pins move to a fresh net as well.
func (s *Sheet) SplitNets(infos map[uuid.UUID]*SegmentInfo) []*netlist.Net {
	var created []*netlist.Net
	byNet := make(map[*netlist.Net][]*SegmentInfo)
	for _, seg := range sortedSegments(infos) {
		si := infos[seg]
		if si.Conflict || si.Net == nil {
			continue
		}
		if s.orphaned(si) {
			si.Net = s.Block.ExtractPins(s.GetPinsConnectedToNetSegment(si.Segment), nil)
			if si.Net != nil {
				created = append(created, si.Net)
			}
			continue
		}
		byNet[si.Net] = append(byNet[si.Net], si)
	}

	nets := make([]*netlist.Net, 0, len(byNet))
	for n, segs := range byNet {
		if len(segs) > 1 {
			nets = append(nets, n)
		}
	}
	sort.Slice(nets, func(i, j int) bool { return uuidLess(nets[i].UUID, nets[j].UUID) })

	for _, net := range nets {
		segs := byNet[net]
		pins := make(map[uuid.UUID]int, len(segs))
		for _, si := range segs {
			pins[si.Segment] = len(s.GetPinsConnectedToNetSegment(si.Segment))
		}
		sort.SliceStable(segs, func(i, j int) bool {
			di, dj := segs[i].Declares(net), segs[j].Declares(net)
			if di != dj {
				return di
			}
			return pins[segs[i].Segment] > pins[segs[j].Segment]
		})

		for _, si := range segs[1:] {
			if si.Declares(net) {
				continue
			}
			fresh := s.Block.ExtractPins(s.GetPinsConnectedToNetSegment(si.Segment), nil)
			si.Net = fresh
			if fresh != nil {
				created = append(created, fresh)
			}
		}
	}
	return created
}

// orphaned reports whether the segment carries a net that only a power
// symbol or ripper can give it, with none present
func (s *Sheet) orphaned(si *SegmentInfo) bool {
	if si.Declares(si.Net) {
		return false
	}
	return si.Net.IsPower || s.Block.IsBusMember(si.Net.UUID)
}

// applySegment makes the block and the segment's wires agree with its
// classification
func (s *Sheet) applySegment(si *SegmentInfo) {
	if si.Conflict {
		return
	}

	if si.Net != nil {
		var move []netlist.PinPath
		for _, path := range s.GetPinsConnectedToNetSegment(si.Segment) {
			if s.pinNet(path) != si.Net {
				move = append(move, path)
			}
		}
		s.Block.ExtractPins(move, si.Net)
	}

	var netRef netlist.Ref[netlist.Net]
	var busRef netlist.Ref[netlist.Bus]
	if si.Net != nil {
		netRef = netlist.NewRef(si.Net.UUID, si.Net)
	}
	if si.Bus != nil {
		busRef = netlist.NewRef(si.Bus.UUID, si.Bus)
	}
	for _, j := range s.Junctions {
		if j.Segment == si.Segment {
			j.Net, j.Bus = netRef, busRef
		}
	}
	for _, l := range s.Lines {
		if l.Segment == si.Segment {
			l.Net, l.Bus = netRef, busRef
		}
	}
}

// pinNet returns the net of a block pin, or nil. Pins without a connection
// entry get one so ExtractPins can move them.
func (s *Sheet) pinNet(path netlist.PinPath) *netlist.Net {
	c := s.Block.Components[path.Component]
	if c == nil {
		return nil
	}
	key := path.Key()
	if _, ok := c.Connections[key]; !ok {
		c.Connections[key] = &netlist.Connection{}
	}
	return c.NetOf(key)
}
