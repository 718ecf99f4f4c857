package board

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/internal/sweep"
	"github.com/OpenTraceLab/netcore/pkg/diag"
	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/netlist"
)

// ErrNotFound is returned when an edit names an object the board lacks
var ErrNotFound = errors.New("board: not found")

// Board is the copper layout of a Block. The Block is not owned by the board.
type Board struct {
	UUID  uuid.UUID
	Block *netlist.Block

	Packages  map[uuid.UUID]*Package
	Junctions map[uuid.UUID]*Junction
	Tracks    map[uuid.UUID]*Track

	Warnings *diag.List
}

// New creates an empty board for block
func New(block *netlist.Block) *Board {
	return &Board{
		UUID:      uuid.New(),
		Block:     block,
		Packages:  make(map[uuid.UUID]*Package),
		Junctions: make(map[uuid.UUID]*Junction),
		Tracks:    make(map[uuid.UUID]*Track),
		Warnings:  diag.NewList(0),
	}
}

// AddPackage places the footprint of component c at pos
func (b *Board) AddPackage(c *netlist.Component, pos geom.Point) *Package {
	p := &Package{
		UUID:      uuid.New(),
		Component: netlist.NewRef(c.UUID, c),
		Position:  pos,
		Pads:      make(map[uuid.UUID]*Pad),
	}
	b.Packages[p.UUID] = p
	return p
}

// PackageByRefdes returns the package of the component with the given refdes
func (b *Board) PackageByRefdes(refdes string) *Package {
	for _, p := range b.Packages {
		if p.Refdes() == refdes {
			return p
		}
	}
	return nil
}

// AddJunction adds a junction on layer
func (b *Board) AddJunction(pos geom.Point, layer string) *Junction {
	j := &Junction{UUID: uuid.New(), Position: pos, Layer: layer}
	b.Junctions[j.UUID] = j
	return j
}

// AddVia adds a via junction
func (b *Board) AddVia(pos geom.Point) *Junction {
	j := b.AddJunction(pos, "")
	j.Via = true
	return j
}

// AddTrack adds a track between two existing nodes
func (b *Board) AddTrack(from, to Node, layer string, width int64) (*Track, error) {
	if err := b.checkNode(from); err != nil {
		return nil, err
	}
	if err := b.checkNode(to); err != nil {
		return nil, err
	}
	t := &Track{UUID: uuid.New(), From: from, To: to, Layer: layer, Width: width}
	b.Tracks[t.UUID] = t
	return t, nil
}

// DeleteTrack removes a track
func (b *Board) DeleteTrack(id uuid.UUID) error {
	if b.Tracks[id] == nil {
		return fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	delete(b.Tracks, id)
	return nil
}

// VacuumJunctions removes junctions no track ends on
func (b *Board) VacuumJunctions() {
	dead := sweep.Unreferenced(sweep.Keys(b.Junctions), func(keep func(uuid.UUID)) {
		for _, t := range b.Tracks {
			keep(t.From.Junction)
			keep(t.To.Junction)
		}
	}, func(a, c uuid.UUID) bool { return a.String() < c.String() })

	for _, id := range dead {
		delete(b.Junctions, id)
	}
}

// PropagateTrackNets assigns every track and junction the net of the pads
// its copper reaches. Copper groups reaching pads of several nets are
// reported as ShortedNets unless net ties join every pair of those nets;
// tied groups are split so each net keeps the copper nearest its own pads.
// Copper reaching no pad carries no net.
func (b *Board) PropagateTrackNets() {
	b.Warnings.Reset()

	ds := newDisjointSet[Node]()
	adj := make(map[Node][]Node)
	for _, id := range sortedIDs(b.Tracks) {
		t := b.Tracks[id]
		ds.Connect(t.From, t.To)
		adj[t.From] = append(adj[t.From], t.To)
		adj[t.To] = append(adj[t.To], t.From)
	}

	groups := ds.Groups()
	roots := make([]Node, 0, len(groups))
	for root, members := range groups {
		sort.Slice(members, func(i, j int) bool { return nodeLess(members[i], members[j]) })
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool {
		return nodeLess(groups[roots[i]][0], groups[roots[j]][0])
	})

	netOf := make(map[Node]*netlist.Net)
	for _, root := range roots {
		members := groups[root]
		nets := b.padNets(members)

		var net *netlist.Net
		if len(nets) > 0 {
			net = nets[0]
		}
		if len(nets) > 1 && !b.allTied(nets) {
			names := make([]string, len(nets))
			for i, n := range nets {
				names[i] = n.DisplayName()
			}
			b.Warnings.Add(diag.Warning{
				Kind:     diag.ShortedNets,
				Message:  "copper shorts nets " + strings.Join(names, ", "),
				Where:    b.NodePosition(members[0]),
				HasWhere: true,
				Objects:  netIDs(nets),
			})
		}
		if len(nets) > 1 && b.allTied(nets) {
			b.splitTied(members, adj, netOf)
			continue
		}
		for _, n := range members {
			netOf[n] = net
		}
	}

	for _, t := range b.Tracks {
		net := netOf[t.From]
		if to := netOf[t.To]; to != net && t.To.IsPad() {
			net = to
		}
		// tied nets keep their own tracks
		if cur := t.Net.Get(); cur != nil && net != nil && cur != net && b.Block.IsTied(cur.UUID, net.UUID) {
			continue
		}
		t.Net = refTo(net)
	}
	for id, j := range b.Junctions {
		j.Net = refTo(netOf[AtJunction(id)])
	}
	b.Warnings.Sort()
}

// splitTied assigns the copper of a group joined by net ties per side: every
// node takes the net of the pad it is fewest tracks away from. Pads seed the
// search in node order, so ties in distance go to the lower pad.
func (b *Board) splitTied(members []Node, adj map[Node][]Node, netOf map[Node]*netlist.Net) {
	var queue []Node
	for _, n := range members {
		if !n.IsPad() {
			continue
		}
		p := b.Packages[n.Package]
		if p == nil {
			continue
		}
		if net := p.PadNet(p.Pads[n.Pad]); net != nil {
			netOf[n] = net
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, next := range adj[n] {
			if _, done := netOf[next]; done {
				continue
			}
			netOf[next] = netOf[n]
			queue = append(queue, next)
		}
	}
}

// padNets returns the distinct nets of the pads among nodes, by name
func (b *Board) padNets(nodes []Node) []*netlist.Net {
	seen := make(map[*netlist.Net]bool)
	var nets []*netlist.Net
	for _, n := range nodes {
		if !n.IsPad() {
			continue
		}
		p := b.Packages[n.Package]
		if p == nil {
			continue
		}
		net := p.PadNet(p.Pads[n.Pad])
		if net != nil && !seen[net] {
			seen[net] = true
			nets = append(nets, net)
		}
	}
	sort.Slice(nets, func(i, j int) bool {
		if nets[i].Name != nets[j].Name {
			return nets[i].Name < nets[j].Name
		}
		return nets[i].UUID.String() < nets[j].UUID.String()
	})
	return nets
}

func (b *Board) allTied(nets []*netlist.Net) bool {
	for i := range nets {
		for j := i + 1; j < len(nets); j++ {
			if !b.Block.IsTied(nets[i].UUID, nets[j].UUID) {
				return false
			}
		}
	}
	return true
}

// NodePosition returns where a node sits on the board
func (b *Board) NodePosition(n Node) geom.Point {
	if n.IsPad() {
		if p := b.Packages[n.Package]; p != nil {
			if pad := p.Pads[n.Pad]; pad != nil {
				return pad.Position
			}
		}
		return geom.Point{}
	}
	if j := b.Junctions[n.Junction]; j != nil {
		return j.Position
	}
	return geom.Point{}
}

// NodeLabel names a node for reports: "R1.2" for pads, "via (x, y)" or
// "F.Cu (x, y)" for junctions
func (b *Board) NodeLabel(n Node) string {
	if n.IsPad() {
		p := b.Packages[n.Package]
		if p == nil || p.Pads[n.Pad] == nil {
			return n.String()
		}
		return p.Refdes() + "." + p.Pads[n.Pad].Name
	}
	j := b.Junctions[n.Junction]
	if j == nil {
		return n.String()
	}
	if j.Via {
		return "via " + j.Position.String()
	}
	return j.Layer + " " + j.Position.String()
}

// UpdateRefs points the board at block and re-resolves its references
func (b *Board) UpdateRefs(block *netlist.Block) error {
	b.Block = block
	for id, p := range b.Packages {
		if !p.Component.Resolve(block.Components) {
			return &netlist.IntegrityError{Kind: "component", ID: p.Component.UUID, Owner: "package " + id.String()}
		}
	}
	for id, j := range b.Junctions {
		if !j.Net.Resolve(block.Nets) {
			return &netlist.IntegrityError{Kind: "net", ID: j.Net.UUID, Owner: "junction " + id.String()}
		}
	}
	for id, t := range b.Tracks {
		if !t.Net.Resolve(block.Nets) {
			return &netlist.IntegrityError{Kind: "net", ID: t.Net.UUID, Owner: "track " + id.String()}
		}
	}
	return nil
}

func (b *Board) checkNode(n Node) error {
	if n.IsPad() {
		p := b.Packages[n.Package]
		if p == nil {
			return fmt.Errorf("package %s: %w", n.Package, ErrNotFound)
		}
		if p.Pads[n.Pad] == nil {
			return fmt.Errorf("pad %s of %s: %w", n.Pad, p.Refdes(), ErrNotFound)
		}
		return nil
	}
	if b.Junctions[n.Junction] == nil {
		return fmt.Errorf("junction %s: %w", n.Junction, ErrNotFound)
	}
	return nil
}

func refTo(n *netlist.Net) netlist.Ref[netlist.Net] {
	if n == nil {
		return netlist.Ref[netlist.Net]{}
	}
	return netlist.NewRef(n.UUID, n)
}

func netIDs(nets []*netlist.Net) []uuid.UUID {
	ids := make([]uuid.UUID, len(nets))
	for i, n := range nets {
		ids[i] = n.UUID
	}
	return ids
}

func sortedIDs[V any](m map[uuid.UUID]V) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
