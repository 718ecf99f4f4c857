package sheet

import (
	"fmt"

	"github.com/OpenTraceLab/netcore/pkg/netlist"
)

// joinEnds decides what a new line between from and to carries, merging the
// nets at both ends when they differ
func (s *Sheet) joinEnds(from, to Endpoint) (*netlist.Net, *netlist.Bus, error) {
	na, ba := s.endNet(from)
	nb, bb := s.endNet(to)

	if ba != nil || bb != nil {
		if ba != nil && bb != nil {
			if ba != bb {
				return nil, nil, &netlist.IllegalMergeError{
					Reason: fmt.Sprintf("buses %s and %s cannot be joined", ba.Name, bb.Name),
				}
			}
			return nil, ba, nil
		}
		bus, other, otherNet := ba, to, nb
		if bus == nil {
			bus, other, otherNet = bb, from, na
		}
		if other.IsPin() || otherNet != nil {
			return nil, nil, &netlist.IllegalMergeError{
				Reason: fmt.Sprintf("bus %s cannot connect to a net directly, use a bus ripper", bus.Name),
			}
		}
		s.attachBus(other, bus)
		return nil, bus, nil
	}

	switch {
	case na != nil && nb != nil:
		if na == nb {
			return na, nil, nil
		}
		net, into := s.mergeOrder(na, nb)
		if err := s.Block.CheckMerge(net, into); err != nil {
			if err2 := s.Block.CheckMerge(into, net); err2 != nil {
				return nil, nil, err
			}
			net, into = into, net
		}
		s.mergeNets(net, into)
		return into, nil, nil

	case na != nil || nb != nil:
		net := na
		if net == nil {
			net = nb
		}
		s.attachNet(from, net)
		s.attachNet(to, net)
		return net, nil, nil

	case from.IsPin() || to.IsPin():
		net := s.Block.InsertNet()
		s.attachNet(from, net)
		s.attachNet(to, net)
		return net, nil, nil
	}
	return nil, nil, nil
}

// mergeOrder picks which of a and b survives a merge
func (s *Sheet) mergeOrder(a, b *netlist.Net) (net, into *netlist.Net) {
	if s.mergeWeight(b) > s.mergeWeight(a) {
		return a, b
	}
	return b, a
}

func (s *Sheet) mergeWeight(n *netlist.Net) int {
	w := 0
	if n.IsPower {
		w += 4
	}
	if s.Block.IsBusMember(n.UUID) {
		w += 2
	}
	if n.IsNamed() {
		w++
	}
	return w
}

func (s *Sheet) attachNet(e Endpoint, net *netlist.Net) {
	if e.IsJunction() {
		s.Junctions[e.Junction].Net = netlist.NewRef(net.UUID, net)
		return
	}
	sym := s.Symbols[e.Symbol]
	if c := sym.Component.Get(); c != nil && c.NetOf(netlist.PinKey{Gate: sym.Gate, Pin: e.Pin}) == nil {
		c.Connect(sym.Gate, e.Pin, net)
	}
}

func (s *Sheet) attachBus(e Endpoint, bus *netlist.Bus) {
	if e.IsJunction() {
		s.Junctions[e.Junction].Bus = netlist.NewRef(bus.UUID, bus)
	}
}

// mergeNets repoints the sheet's references and the block's net ties from
// net to into before merging the nets
func (s *Sheet) mergeNets(net, into *netlist.Net) {
	ref := netlist.NewRef(into.UUID, into)
	for _, j := range s.Junctions {
		if j.Net.UUID == net.UUID {
			j.Net = ref
		}
	}
	for _, l := range s.Lines {
		if l.Net.UUID == net.UUID {
			l.Net = ref
		}
	}
	for _, l := range s.NetLabels {
		if l.Net.UUID == net.UUID {
			l.Net = ref
		}
	}
	for _, p := range s.PowerSymbols {
		if p.Net.UUID == net.UUID {
			p.Net = ref
		}
	}
	s.Block.RetargetNetTies(net, into)
	s.Block.MergeNets(net, into)
}
