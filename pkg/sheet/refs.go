package sheet

import (
	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/netlist"
)

// UpdateRefs points the sheet at block and re-resolves every net, bus and
// component reference against it. Call it after the block was cloned or
// reloaded.
func (s *Sheet) UpdateRefs(block *netlist.Block) error {
	s.Block = block

	for id, j := range s.Junctions {
		if !j.Net.Resolve(block.Nets) {
			return refError("net", j.Net.UUID, "junction", id)
		}
		if !j.Bus.Resolve(block.Buses) {
			return refError("bus", j.Bus.UUID, "junction", id)
		}
	}
	for id, l := range s.Lines {
		if !l.Net.Resolve(block.Nets) {
			return refError("net", l.Net.UUID, "line", id)
		}
		if !l.Bus.Resolve(block.Buses) {
			return refError("bus", l.Bus.UUID, "line", id)
		}
	}
	for id, l := range s.NetLabels {
		if !l.Net.Resolve(block.Nets) {
			return refError("net", l.Net.UUID, "net label", id)
		}
		if !l.Bus.Resolve(block.Buses) {
			return refError("bus", l.Bus.UUID, "net label", id)
		}
	}
	for id, p := range s.PowerSymbols {
		if !p.Net.Resolve(block.Nets) {
			return refError("net", p.Net.UUID, "power symbol", id)
		}
	}
	for id, r := range s.BusRippers {
		if !r.Bus.Resolve(block.Buses) {
			return refError("bus", r.Bus.UUID, "bus ripper", id)
		}
	}
	for id, sym := range s.Symbols {
		if !sym.Component.Resolve(block.Components) {
			return refError("component", sym.Component.UUID, "symbol", id)
		}
	}
	return nil
}

func refError(kind string, id uuid.UUID, owner string, ownerID uuid.UUID) error {
	return &netlist.IntegrityError{Kind: kind, ID: id, Owner: owner + " " + ownerID.String()}
}
