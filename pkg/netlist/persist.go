package netlist

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/pool"
)

// Persisted records. The struct tags are shared by the JSON form and the
// msgpack undo snapshots.

type netClassRecord struct {
	Name string `json:"name"`
}

type netRecord struct {
	Name             string   `json:"name"`
	IsPower          bool     `json:"is_power"`
	NetClass         string   `json:"net_class"`
	PowerSymbolStyle string   `json:"power_symbol_style"`
	Diffpair         string   `json:"diffpair,omitempty"`
	IsPort           bool     `json:"is_port"`
	PortDirection    string   `json:"port_direction"`
	HRefs            []string `json:"hrefs,omitempty"`
}

type busMemberRecord struct {
	Name string `json:"name"`
	Net  string `json:"net"`
}

type busRecord struct {
	Name    string                     `json:"name"`
	Members map[string]busMemberRecord `json:"members"`
}

type connectionRecord struct {
	Net *string `json:"net"`
}

type componentRecord struct {
	Refdes      string                      `json:"refdes"`
	Value       string                      `json:"value"`
	Entity      string                      `json:"entity"`
	Part        string                      `json:"part,omitempty"`
	Connections map[string]connectionRecord `json:"connections"`
	PinNames    map[string]string           `json:"pin_names,omitempty"`
}

type netTieRecord struct {
	NetPrimary   string `json:"net_primary"`
	NetSecondary string `json:"net_secondary"`
}

// BlockRecord is the persisted form of a Block
type BlockRecord struct {
	UUID            string                     `json:"uuid"`
	Name            string                     `json:"name"`
	NetClassDefault string                     `json:"net_class_default"`
	NetClasses      map[string]netClassRecord  `json:"net_classes"`
	Nets            map[string]netRecord       `json:"nets"`
	Buses           map[string]busRecord       `json:"buses"`
	Components      map[string]componentRecord `json:"components"`
	NetTies         map[string]netTieRecord    `json:"net_ties,omitempty"`
}

// Record converts the block to its persisted form
func (b *Block) Record() *BlockRecord {
	rec := &BlockRecord{
		UUID:            b.UUID.String(),
		Name:            b.Name,
		NetClassDefault: b.NetClassDefault.UUID.String(),
		NetClasses:      make(map[string]netClassRecord, len(b.NetClasses)),
		Nets:            make(map[string]netRecord, len(b.Nets)),
		Buses:           make(map[string]busRecord, len(b.Buses)),
		Components:      make(map[string]componentRecord, len(b.Components)),
	}

	for id, nc := range b.NetClasses {
		rec.NetClasses[id.String()] = netClassRecord{Name: nc.Name}
	}

	for id, n := range b.Nets {
		nr := netRecord{
			Name:             n.Name,
			IsPower:          n.IsPower,
			NetClass:         n.NetClass.UUID.String(),
			PowerSymbolStyle: string(n.PowerSymbolStyle),
			IsPort:           n.IsPort,
			PortDirection:    string(n.PortDirection),
		}
		if n.HasDiffpair() && n.DiffpairMaster {
			nr.Diffpair = n.Diffpair.UUID.String()
		}
		if len(n.HRefs) > 0 {
			nr.HRefs = append([]string(nil), n.HRefs...)
		}
		rec.Nets[id.String()] = nr
	}

	for id, bus := range b.Buses {
		br := busRecord{Name: bus.Name, Members: make(map[string]busMemberRecord, len(bus.Members))}
		for mid, m := range bus.Members {
			br.Members[mid.String()] = busMemberRecord{Name: m.Name, Net: m.Net.UUID.String()}
		}
		rec.Buses[id.String()] = br
	}

	for id, c := range b.Components {
		cr := componentRecord{
			Refdes:      c.Refdes,
			Value:       c.Value,
			Entity:      c.Entity.UUID.String(),
			Connections: make(map[string]connectionRecord, len(c.Connections)),
		}
		if c.Part.IsSet() {
			cr.Part = c.Part.UUID.String()
		}
		for key, conn := range c.Connections {
			var cn connectionRecord
			if conn.Net.IsSet() {
				s := conn.Net.UUID.String()
				cn.Net = &s
			}
			cr.Connections[key.String()] = cn
		}
		if len(c.PinNames) > 0 {
			cr.PinNames = make(map[string]string, len(c.PinNames))
			for key, name := range c.PinNames {
				cr.PinNames[key.String()] = name
			}
		}
		rec.Components[id.String()] = cr
	}

	if len(b.NetTies) > 0 {
		rec.NetTies = make(map[string]netTieRecord, len(b.NetTies))
		for id, tie := range b.NetTies {
			rec.NetTies[id.String()] = netTieRecord{
				NetPrimary:   tie.NetPrimary.UUID.String(),
				NetSecondary: tie.NetSecondary.UUID.String(),
			}
		}
	}

	return rec
}

// Serialize writes the block as indented JSON. Map keys are sorted, so equal
// blocks serialize to equal bytes.
func (b *Block) Serialize() ([]byte, error) {
	data, err := json.MarshalIndent(b.Record(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("netlist: serialize block %s: %w", b.Name, err)
	}
	return data, nil
}

// Load parses the JSON form of a block. Entities and parts are resolved with
// p; when p is nil they keep their ids only.
func Load(data []byte, p pool.Pool) (*Block, error) {
	var rec BlockRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("netlist: failed to parse block: %w", err)
	}
	return FromRecord(&rec, p)
}

// FromRecord builds a block from its persisted form. Objects are loaded in
// dependency order: net classes, nets, diffpairs, buses, components, net ties.
func FromRecord(rec *BlockRecord, p pool.Pool) (*Block, error) {
	id, err := parseID(rec.UUID, "block uuid")
	if err != nil {
		return nil, err
	}
	b := newEmptyBlock(id, rec.Name)

	// Net classes
	for key, ncr := range rec.NetClasses {
		id, err := parseID(key, "net class id")
		if err != nil {
			return nil, err
		}
		b.NetClasses[id] = NewNetClass(id, ncr.Name)
	}
	defID, err := parseID(rec.NetClassDefault, "net_class_default")
	if err != nil {
		return nil, err
	}
	b.NetClassDefault = RefID[NetClass](defID)
	if !b.NetClassDefault.Resolve(b.NetClasses) {
		return nil, integrityError("net class", defID, "block %s default", rec.Name)
	}
	b.NetClassDefault.Get().IsDefault = true

	// Nets
	for key, nr := range rec.Nets {
		id, err := parseID(key, "net id")
		if err != nil {
			return nil, err
		}
		ncID, err := parseID(nr.NetClass, "net class of net "+nr.Name)
		if err != nil {
			return nil, err
		}
		n := &Net{
			UUID:             id,
			Name:             nr.Name,
			IsPower:          nr.IsPower,
			PowerSymbolStyle: PowerSymbolStyle(nr.PowerSymbolStyle),
			NetClass:         RefID[NetClass](ncID),
			IsPort:           nr.IsPort,
			PortDirection:    PortDirection(nr.PortDirection),
			HRefs:            nr.HRefs,
		}
		if !n.NetClass.Resolve(b.NetClasses) {
			return nil, integrityError("net class", ncID, "net %s", n.DisplayName())
		}
		b.Nets[id] = n
	}

	// Diffpairs, written by the master side only
	for _, key := range sortedKeys(rec.Nets) {
		nr := rec.Nets[key]
		if nr.Diffpair == "" {
			continue
		}
		id, _ := uuid.Parse(key)
		master := b.Nets[id]
		pid, err := parseID(nr.Diffpair, "diffpair of net "+nr.Name)
		if err != nil {
			return nil, err
		}
		partner := b.Nets[pid]
		if partner == nil {
			return nil, integrityError("net", pid, "diffpair of net %s", master.DisplayName())
		}
		if partner.HasDiffpair() && partner.Diffpair.UUID != master.UUID {
			return nil, fmt.Errorf("netlist: net %s is diffpair partner of more than one net", partner.DisplayName())
		}
		master.Diffpair = NewRef(partner.UUID, partner)
		master.DiffpairMaster = true
		partner.Diffpair = NewRef(master.UUID, master)
		partner.DiffpairMaster = false
	}

	// Buses
	for key, br := range rec.Buses {
		id, err := parseID(key, "bus id")
		if err != nil {
			return nil, err
		}
		bus := &Bus{UUID: id, Name: br.Name, Members: make(map[uuid.UUID]*BusMember, len(br.Members))}
		for mkey, mr := range br.Members {
			mid, err := parseID(mkey, "bus member id")
			if err != nil {
				return nil, err
			}
			netID, err := parseID(mr.Net, "net of bus member "+mr.Name)
			if err != nil {
				return nil, err
			}
			m := &BusMember{UUID: mid, Name: mr.Name, Net: RefID[Net](netID)}
			if !m.Net.Resolve(b.Nets) {
				return nil, integrityError("net", netID, "bus %s member %s", br.Name, mr.Name)
			}
			bus.Members[mid] = m
		}
		b.Buses[id] = bus
	}

	// Components
	for key, cr := range rec.Components {
		c, err := loadComponent(b, key, cr, p)
		if err != nil {
			return nil, err
		}
		b.Components[c.UUID] = c
	}

	// Net ties
	for key, tr := range rec.NetTies {
		id, err := parseID(key, "net tie id")
		if err != nil {
			return nil, err
		}
		a, err := parseID(tr.NetPrimary, "net tie primary")
		if err != nil {
			return nil, err
		}
		c, err := parseID(tr.NetSecondary, "net tie secondary")
		if err != nil {
			return nil, err
		}
		tie := &NetTie{UUID: id, NetPrimary: RefID[Net](a), NetSecondary: RefID[Net](c)}
		if !tie.NetPrimary.Resolve(b.Nets) {
			return nil, integrityError("net", a, "net tie %s", id)
		}
		if !tie.NetSecondary.Resolve(b.Nets) {
			return nil, integrityError("net", c, "net tie %s", id)
		}
		b.NetTies[id] = tie
	}

	return b, nil
}

func loadComponent(b *Block, key string, cr componentRecord, p pool.Pool) (*Component, error) {
	id, err := parseID(key, "component id")
	if err != nil {
		return nil, err
	}
	entityID, err := parseID(cr.Entity, "entity of component "+cr.Refdes)
	if err != nil {
		return nil, err
	}

	c := &Component{
		UUID:        id,
		Refdes:      cr.Refdes,
		Value:       cr.Value,
		Entity:      RefID[pool.Entity](entityID),
		Connections: make(map[PinKey]*Connection, len(cr.Connections)),
		PinNames:    make(map[PinKey]string, len(cr.PinNames)),
	}
	if cr.Part != "" {
		partID, err := parseID(cr.Part, "part of component "+cr.Refdes)
		if err != nil {
			return nil, err
		}
		c.Part = RefID[pool.Part](partID)
	}

	if p != nil {
		entity, err := p.GetEntity(entityID)
		if err != nil {
			return nil, fmt.Errorf("netlist: component %s: %w", cr.Refdes, err)
		}
		c.Entity = NewRef(entity.ID, entity)
		if c.Part.IsSet() {
			part, err := p.GetPart(c.Part.UUID)
			if err != nil {
				return nil, fmt.Errorf("netlist: component %s: %w", cr.Refdes, err)
			}
			c.Part = NewRef(part.ID, part)
		}
	}

	for pk, conn := range cr.Connections {
		pinKey, err := ParsePinKey(pk)
		if err != nil {
			return nil, err
		}
		if e := c.Entity.Get(); e != nil && !e.HasPin(pinKey.Gate, pinKey.Pin) {
			return nil, integrityError("pin", pinKey.Pin, "component %s (entity %s)", cr.Refdes, e.Name)
		}
		cn := &Connection{}
		if conn.Net != nil {
			netID, err := parseID(*conn.Net, "net of component "+cr.Refdes)
			if err != nil {
				return nil, err
			}
			cn.Net = RefID[Net](netID)
			if !cn.Net.Resolve(b.Nets) {
				return nil, integrityError("net", netID, "component %s pin %s", cr.Refdes, pk)
			}
		}
		c.Connections[pinKey] = cn
	}

	for pk, name := range cr.PinNames {
		pinKey, err := ParsePinKey(pk)
		if err != nil {
			return nil, err
		}
		c.PinNames[pinKey] = name
	}

	return c, nil
}

func parseID(s, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("netlist: invalid %s %q: %w", what, s, err)
	}
	return id, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
