package netlist

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/internal/sweep"
	"github.com/OpenTraceLab/netcore/pkg/pool"
)

// DefaultNetClassName is the name of the net class NewBlock creates
const DefaultNetClassName = "default"

// Block owns the connectivity of one design
type Block struct {
	UUID uuid.UUID
	Name string

	NetClasses      map[uuid.UUID]*NetClass
	NetClassDefault Ref[NetClass]
	Nets            map[uuid.UUID]*Net
	Buses           map[uuid.UUID]*Bus
	Components      map[uuid.UUID]*Component
	NetTies         map[uuid.UUID]*NetTie
}

// NewBlock creates an empty block with a default net class
func NewBlock(name string) *Block {
	b := newEmptyBlock(uuid.New(), name)
	nc := &NetClass{UUID: uuid.New(), Name: DefaultNetClassName, IsDefault: true}
	b.NetClasses[nc.UUID] = nc
	b.NetClassDefault = NewRef(nc.UUID, nc)
	return b
}

func newEmptyBlock(id uuid.UUID, name string) *Block {
	return &Block{
		UUID:       id,
		Name:       name,
		NetClasses: make(map[uuid.UUID]*NetClass),
		Nets:       make(map[uuid.UUID]*Net),
		Buses:      make(map[uuid.UUID]*Bus),
		Components: make(map[uuid.UUID]*Component),
		NetTies:    make(map[uuid.UUID]*NetTie),
	}
}

// GetNet returns the net with the given id, or nil
func (b *Block) GetNet(id uuid.UUID) *Net {
	return b.Nets[id]
}

// GetNetByName returns the first net (in id order) with the given name, or nil
func (b *Block) GetNetByName(name string) *Net {
	if name == "" {
		return nil
	}
	var found *Net
	for _, n := range b.Nets {
		if n.Name == name && (found == nil || uuidLess(n.UUID, found.UUID)) {
			found = n
		}
	}
	return found
}

// InsertNet creates an unnamed net in the default net class
func (b *Block) InsertNet() *Net {
	id := uuid.New()
	for b.Nets[id] != nil {
		id = uuid.New()
	}
	n := &Net{
		UUID:     id,
		NetClass: b.NetClassDefault,
	}
	b.Nets[id] = n
	return n
}

// InsertNamedNet creates a net with the given name
func (b *Block) InsertNamedNet(name string) *Net {
	n := b.InsertNet()
	n.Name = name
	return n
}

// SortedNets returns all nets ordered by name, then id
func (b *Block) SortedNets() []*Net {
	nets := make([]*Net, 0, len(b.Nets))
	for _, n := range b.Nets {
		nets = append(nets, n)
	}
	sort.Slice(nets, func(i, j int) bool { return netLess(nets[i], nets[j]) })
	return nets
}

// MergeNets repoints every connection on net to into and erases net.
//
// Bus members, net ties and anything outside the Block that still refers to
// net are not updated; callers must repoint those first.
func (b *Block) MergeNets(net, into *Net) {
	if net == nil || into == nil || net == into {
		return
	}
	for _, c := range b.Components {
		for _, conn := range c.Connections {
			if conn.Net.UUID == net.UUID {
				conn.Net = NewRef(into.UUID, into)
			}
		}
	}
	b.eraseNet(net)
}

// CheckMerge validates that net may be merged into into. MergeNets does not
// call it.
func (b *Block) CheckMerge(net, into *Net) error {
	if net == nil || into == nil {
		return &IllegalMergeError{Reason: "missing net"}
	}
	if net == into {
		return nil
	}
	if b.IsBusMember(net.UUID) {
		return &IllegalMergeError{Net: net.UUID, Into: into.UUID, Reason: fmt.Sprintf("net %s is a bus member", net.DisplayName())}
	}
	if net.IsPower && into.IsPower {
		return &IllegalMergeError{Net: net.UUID, Into: into.UUID, Reason: fmt.Sprintf("power nets %s and %s would be shorted", net.DisplayName(), into.DisplayName())}
	}
	return nil
}

// ExtractPins moves exactly the given pins onto net. A fresh net is created when
// net is nil. Paths that no longer exist are skipped. Returns nil, and changes
// nothing, when pins is empty.
func (b *Block) ExtractPins(pins []PinPath, net *Net) *Net {
	if len(pins) == 0 {
		return nil
	}
	if net == nil {
		net = b.InsertNet()
	}
	for _, path := range pins {
		c, ok := b.Components[path.Component]
		if !ok {
			continue
		}
		conn, ok := c.Connections[path.Key()]
		if !ok {
			continue
		}
		conn.Net = NewRef(net.UUID, net)
	}
	return net
}

// VacuumNets erases every net that no bus member and no component connection
// refers to. Power nets always survive. Net ties left without one of their
// nets are erased as well.
func (b *Block) VacuumNets() {
	b.VacuumNetsKeeping()
}

// NetKeeper reports the ids of nets held by something outside the block
type NetKeeper func(keep func(uuid.UUID))

// VacuumNetsKeeping is VacuumNets with additional keepers, such as the
// labels of a schematic sheet
func (b *Block) VacuumNetsKeeping(keepers ...NetKeeper) {
	dead := sweep.Unreferenced(sweep.Keys(b.Nets), func(keep func(uuid.UUID)) {
		for _, k := range keepers {
			k(keep)
		}
		for id, n := range b.Nets {
			if n.IsPower {
				keep(id)
			}
		}
		for _, bus := range b.Buses {
			for _, m := range bus.Members {
				keep(m.Net.UUID)
			}
		}
		for _, c := range b.Components {
			for _, conn := range c.Connections {
				if conn.Net.IsSet() {
					keep(conn.Net.UUID)
				}
			}
		}
	}, uuidLess)

	for _, id := range dead {
		b.eraseNet(b.Nets[id])
	}
	b.vacuumNetTies()
}

func (b *Block) vacuumNetTies() {
	dead := sweep.Unreferenced(sweep.Keys(b.NetTies), func(keep func(uuid.UUID)) {
		for id, tie := range b.NetTies {
			if b.Nets[tie.NetPrimary.UUID] != nil && b.Nets[tie.NetSecondary.UUID] != nil {
				keep(id)
			}
		}
	}, uuidLess)

	for _, id := range dead {
		delete(b.NetTies, id)
	}
}

// RetargetNetTies moves the ends of net ties on net over to into. Ties
// that would then join into with itself are deleted.
func (b *Block) RetargetNetTies(net, into *Net) {
	if net == nil || into == nil || net == into {
		return
	}
	for id, tie := range b.NetTies {
		if tie.NetPrimary.UUID == net.UUID {
			tie.NetPrimary = NewRef(into.UUID, into)
		}
		if tie.NetSecondary.UUID == net.UUID {
			tie.NetSecondary = NewRef(into.UUID, into)
		}
		if tie.NetPrimary.UUID == tie.NetSecondary.UUID {
			delete(b.NetTies, id)
		}
	}
}

// eraseNet deletes net from the block and drops its diffpair partner's back
// reference
func (b *Block) eraseNet(net *Net) {
	if net == nil {
		return
	}
	if net.Diffpair.IsSet() {
		if partner := b.Nets[net.Diffpair.UUID]; partner != nil && partner.Diffpair.UUID == net.UUID {
			partner.Diffpair.Clear()
			partner.DiffpairMaster = false
		}
	}
	delete(b.Nets, net.UUID)
}

// DeleteNet erases a net on user request. Connections on it become
// unconnected; bus members aliasing it are removed.
func (b *Block) DeleteNet(net *Net) {
	if net == nil {
		return
	}
	for _, c := range b.Components {
		for key, conn := range c.Connections {
			if conn.Net.UUID == net.UUID {
				delete(c.Connections, key)
			}
		}
	}
	for _, bus := range b.Buses {
		for id, m := range bus.Members {
			if m.Net.UUID == net.UUID {
				delete(bus.Members, id)
			}
		}
	}
	b.eraseNet(net)
	b.vacuumNetTies()
}

// UpdateConnectionCount refreshes NPinsConnected and IsBussed on every net
func (b *Block) UpdateConnectionCount() {
	for _, n := range b.Nets {
		n.NPinsConnected = 0
		n.IsBussed = false
	}
	for _, c := range b.Components {
		for _, conn := range c.Connections {
			if n := b.Nets[conn.Net.UUID]; n != nil {
				n.NPinsConnected++
			}
		}
	}
	for _, bus := range b.Buses {
		for _, m := range bus.Members {
			if n := b.Nets[m.Net.UUID]; n != nil {
				n.IsBussed = true
			}
		}
	}
}

// IsBusMember reports whether any bus has a member aliasing net
func (b *Block) IsBusMember(net uuid.UUID) bool {
	for _, bus := range b.Buses {
		if bus.HasNet(net) {
			return true
		}
	}
	return false
}

// NetPins returns every pin connected to net, ordered by refdes and pin name
func (b *Block) NetPins(net uuid.UUID) []PinPath {
	var pins []PinPath
	for _, c := range b.Components {
		for key, conn := range c.Connections {
			if conn.Net.UUID == net {
				pins = append(pins, PinPath{Component: c.UUID, Gate: key.Gate, Pin: key.Pin})
			}
		}
	}
	sort.Slice(pins, func(i, j int) bool {
		li, lj := b.PinLabel(pins[i]), b.PinLabel(pins[j])
		if li != lj {
			return li < lj
		}
		return pinPathLess(pins[i], pins[j])
	})
	return pins
}

// PinLabel formats a pin path as "REFDES.PIN"
func (b *Block) PinLabel(path PinPath) string {
	c, ok := b.Components[path.Component]
	if !ok {
		return path.String()
	}
	return c.Refdes + "." + c.PinName(path.Key())
}

// UpdateRefs re-resolves every non-owning reference against the block's own
// maps. It must run after the maps were copied; Clone and Load call it.
func (b *Block) UpdateRefs() error {
	if !b.NetClassDefault.Resolve(b.NetClasses) {
		return integrityError("net class", b.NetClassDefault.UUID, "block %s default", b.Name)
	}
	for _, nc := range b.NetClasses {
		nc.IsDefault = nc.UUID == b.NetClassDefault.UUID
	}

	for _, n := range b.Nets {
		if !n.NetClass.Resolve(b.NetClasses) {
			return integrityError("net class", n.NetClass.UUID, "net %s", n.DisplayName())
		}
		if !n.Diffpair.Resolve(b.Nets) {
			return integrityError("net", n.Diffpair.UUID, "diffpair of net %s", n.DisplayName())
		}
	}

	for _, bus := range b.Buses {
		for _, m := range bus.Members {
			if !m.Net.Resolve(b.Nets) {
				return integrityError("net", m.Net.UUID, "bus %s member %s", bus.Name, m.Name)
			}
		}
	}

	for _, c := range b.Components {
		for key, conn := range c.Connections {
			if !conn.Net.Resolve(b.Nets) {
				return integrityError("net", conn.Net.UUID, "component %s pin %s", c.Refdes, c.PinName(key))
			}
		}
	}

	for _, tie := range b.NetTies {
		if !tie.NetPrimary.Resolve(b.Nets) {
			return integrityError("net", tie.NetPrimary.UUID, "net tie %s", tie.UUID)
		}
		if !tie.NetSecondary.Resolve(b.Nets) {
			return integrityError("net", tie.NetSecondary.UUID, "net tie %s", tie.UUID)
		}
	}
	return nil
}

// Clone deep-copies the block and re-homes every reference into the copy.
// Library objects (entities, parts) are shared, not copied.
func (b *Block) Clone() (*Block, error) {
	c := newEmptyBlock(b.UUID, b.Name)
	c.NetClassDefault = b.NetClassDefault

	for id, nc := range b.NetClasses {
		cp := *nc
		c.NetClasses[id] = &cp
	}
	for id, n := range b.Nets {
		cp := *n
		cp.HRefs = append([]string(nil), n.HRefs...)
		c.Nets[id] = &cp
	}
	for id, bus := range b.Buses {
		cp := &Bus{UUID: bus.UUID, Name: bus.Name, Members: make(map[uuid.UUID]*BusMember, len(bus.Members))}
		for mid, m := range bus.Members {
			mc := *m
			cp.Members[mid] = &mc
		}
		c.Buses[id] = cp
	}
	for id, comp := range b.Components {
		cp := *comp
		cp.Connections = make(map[PinKey]*Connection, len(comp.Connections))
		for k, conn := range comp.Connections {
			cc := *conn
			cp.Connections[k] = &cc
		}
		cp.PinNames = make(map[PinKey]string, len(comp.PinNames))
		for k, v := range comp.PinNames {
			cp.PinNames[k] = v
		}
		c.Components[id] = &cp
	}
	for id, tie := range b.NetTies {
		cp := *tie
		c.NetTies[id] = &cp
	}

	if err := c.UpdateRefs(); err != nil {
		return nil, fmt.Errorf("netlist: clone: %w", err)
	}
	return c, nil
}

// InsertComponent creates a component instantiating entity
func (b *Block) InsertComponent(entity *pool.Entity, refdes string) *Component {
	c := &Component{
		UUID:        uuid.New(),
		Refdes:      refdes,
		Connections: make(map[PinKey]*Connection),
		PinNames:    make(map[PinKey]string),
	}
	if entity != nil {
		c.Entity = NewRef(entity.ID, entity)
	}
	b.Components[c.UUID] = c
	return c
}

// ComponentByRefdes returns the component with the given reference designator
func (b *Block) ComponentByRefdes(refdes string) *Component {
	for _, c := range b.Components {
		if c.Refdes == refdes {
			return c
		}
	}
	return nil
}

// SortedComponents returns components ordered by refdes, then id
func (b *Block) SortedComponents() []*Component {
	comps := make([]*Component, 0, len(b.Components))
	for _, c := range b.Components {
		comps = append(comps, c)
	}
	sort.Slice(comps, func(i, j int) bool {
		if comps[i].Refdes != comps[j].Refdes {
			return comps[i].Refdes < comps[j].Refdes
		}
		return uuidLess(comps[i].UUID, comps[j].UUID)
	})
	return comps
}
