package netlist

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/busexpr"
)

// InsertNetClass adds a non-default net class
func (b *Block) InsertNetClass(name string) *NetClass {
	nc := NewNetClass(uuid.New(), name)
	b.NetClasses[nc.UUID] = nc
	return nc
}

// NetClassByName returns the net class with the given name, or nil
func (b *Block) NetClassByName(name string) *NetClass {
	for _, nc := range b.NetClasses {
		if nc.Name == name {
			return nc
		}
	}
	return nil
}

// SetDefaultNetClass makes nc the block's only default net class
func (b *Block) SetDefaultNetClass(nc *NetClass) error {
	if nc == nil || b.NetClasses[nc.UUID] != nc {
		return fmt.Errorf("netlist: net class is not owned by block %s", b.Name)
	}
	for _, other := range b.NetClasses {
		other.IsDefault = false
	}
	nc.IsDefault = true
	b.NetClassDefault = NewRef(nc.UUID, nc)
	return nil
}

// DeleteNetClass removes nc and moves its nets to the default class.
// The default net class cannot be deleted.
func (b *Block) DeleteNetClass(nc *NetClass) error {
	if nc == nil || b.NetClasses[nc.UUID] != nc {
		return fmt.Errorf("netlist: net class is not owned by block %s", b.Name)
	}
	if nc.UUID == b.NetClassDefault.UUID {
		return fmt.Errorf("netlist: cannot delete default net class %s", nc.Name)
	}
	for _, n := range b.Nets {
		if n.NetClass.UUID == nc.UUID {
			n.NetClass = b.NetClassDefault
		}
	}
	delete(b.NetClasses, nc.UUID)
	return nil
}

// InsertBus adds an empty bus
func (b *Block) InsertBus(name string) *Bus {
	bus := &Bus{
		UUID:    uuid.New(),
		Name:    name,
		Members: make(map[uuid.UUID]*BusMember),
	}
	b.Buses[bus.UUID] = bus
	return bus
}

// BusByName returns the bus with the given name, or nil
func (b *Block) BusByName(name string) *Bus {
	for _, bus := range b.Buses {
		if bus.Name == name {
			return bus
		}
	}
	return nil
}

// CreateBusFromExpr creates a bus named name whose members are the expansion
// of a bus label such as "D[0..7]" or "I2C{SDA SCL}". Member nets are looked
// up by name and created when missing.
func (b *Block) CreateBusFromExpr(name, expr string) (*Bus, error) {
	members, err := busexpr.Expand(expr)
	if err != nil {
		return nil, fmt.Errorf("netlist: bus %s: %w", name, err)
	}
	bus := b.InsertBus(name)
	for _, member := range members {
		net := b.GetNetByName(member)
		if net == nil {
			net = b.InsertNamedNet(member)
		}
		bus.AddMember(member, net)
	}
	return bus, nil
}

// DeleteBus removes a bus. Its member nets stay.
func (b *Block) DeleteBus(bus *Bus) {
	if bus != nil {
		delete(b.Buses, bus.UUID)
	}
}

// SetDiffpair pairs master with other. master is the side that persists the
// pairing.
func (b *Block) SetDiffpair(master, other *Net) error {
	if master == nil || other == nil {
		return fmt.Errorf("netlist: diffpair needs two nets")
	}
	if master == other {
		return fmt.Errorf("netlist: net %s cannot be its own diffpair", master.DisplayName())
	}
	if b.Nets[master.UUID] != master || b.Nets[other.UUID] != other {
		return fmt.Errorf("netlist: diffpair nets are not owned by block %s", b.Name)
	}
	if master.IsPower || other.IsPower {
		return fmt.Errorf("netlist: power net cannot be part of a diffpair")
	}
	if master.HasDiffpair() || other.HasDiffpair() {
		return fmt.Errorf("netlist: %s or %s is already part of a diffpair", master.DisplayName(), other.DisplayName())
	}
	master.Diffpair = NewRef(other.UUID, other)
	master.DiffpairMaster = true
	other.Diffpair = NewRef(master.UUID, master)
	other.DiffpairMaster = false
	return nil
}

// ClearDiffpair removes the pairing of net and its partner
func (b *Block) ClearDiffpair(net *Net) {
	if net == nil || !net.HasDiffpair() {
		return
	}
	if partner := b.Nets[net.Diffpair.UUID]; partner != nil {
		partner.Diffpair.Clear()
		partner.DiffpairMaster = false
	}
	net.Diffpair.Clear()
	net.DiffpairMaster = false
}

// InsertNetTie joins two distinct nets
func (b *Block) InsertNetTie(primary, secondary *Net) (*NetTie, error) {
	if primary == nil || secondary == nil || primary == secondary {
		return nil, fmt.Errorf("netlist: net tie needs two distinct nets")
	}
	if b.Nets[primary.UUID] != primary || b.Nets[secondary.UUID] != secondary {
		return nil, fmt.Errorf("netlist: net tie nets are not owned by block %s", b.Name)
	}
	tie := &NetTie{
		UUID:         uuid.New(),
		NetPrimary:   NewRef(primary.UUID, primary),
		NetSecondary: NewRef(secondary.UUID, secondary),
	}
	b.NetTies[tie.UUID] = tie
	return tie, nil
}

// IsTied reports whether a net tie joins a and b
func (b *Block) IsTied(a, c uuid.UUID) bool {
	for _, tie := range b.NetTies {
		if tie.Ties(a, c) {
			return true
		}
	}
	return false
}
