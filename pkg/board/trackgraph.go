package board

import (
	"sort"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/netlist"
)

// Edge joins two nodes of a track graph. After MergeEdges an edge may stand
// for a chain of several tracks.
type Edge struct {
	From   Node
	To     Node
	Tracks []uuid.UUID
}

// TrackGraph is the copper topology of one net. Nodes are junctions and pads;
// edges start out as single tracks.
type TrackGraph struct {
	Net *netlist.Net

	keep   map[Node]bool
	edges  map[int]*Edge
	adj    map[Node]map[int]bool
	nextID int
}

func newTrackGraph(net *netlist.Net) *TrackGraph {
	return &TrackGraph{
		Net:   net,
		keep:  make(map[Node]bool),
		edges: make(map[int]*Edge),
		adj:   make(map[Node]map[int]bool),
	}
}

// AddNode adds n to the graph. keep marks nodes MergeEdges must not remove.
func (g *TrackGraph) AddNode(n Node, keep bool) {
	if g.adj[n] == nil {
		g.adj[n] = make(map[int]bool)
	}
	if keep {
		g.keep[n] = true
	}
}

// AddEdge joins from and to with an edge standing for tracks
func (g *TrackGraph) AddEdge(from, to Node, tracks ...uuid.UUID) {
	g.AddNode(from, false)
	g.AddNode(to, false)
	if nodeLess(to, from) {
		from, to = to, from
	}
	ts := append([]uuid.UUID(nil), tracks...)
	sort.Slice(ts, func(i, j int) bool { return ts[i].String() < ts[j].String() })

	id := g.nextID
	g.nextID++
	g.edges[id] = &Edge{From: from, To: to, Tracks: ts}
	g.adj[from][id] = true
	g.adj[to][id] = true
}

func (g *TrackGraph) removeEdge(id int) {
	e := g.edges[id]
	delete(g.adj[e.From], id)
	delete(g.adj[e.To], id)
	delete(g.edges, id)
}

// Degree returns the number of edge ends at n. A loop counts twice.
func (g *TrackGraph) Degree(n Node) int {
	d := 0
	for id := range g.adj[n] {
		e := g.edges[id]
		if e.From == n {
			d++
		}
		if e.To == n {
			d++
		}
	}
	return d
}

// MergeEdges removes every node of degree two that is not kept, splicing its
// two edges into one that carries the tracks of both. It repeats until no
// such node is left.
func (g *TrackGraph) MergeEdges() {
	pending := g.Nodes()
	queued := make(map[Node]bool, len(pending))
	for _, n := range pending {
		queued[n] = true
	}

	for len(pending) > 0 {
		n := pending[0]
		pending = pending[1:]
		queued[n] = false

		a, b, ok := g.contract(n)
		if !ok {
			continue
		}
		for _, m := range [2]Node{a, b} {
			if !queued[m] && !g.keep[m] {
				queued[m] = true
				pending = append(pending, m)
			}
		}
	}
}

// contract splices the two edges of n. It returns the far ends of the
// spliced edges.
func (g *TrackGraph) contract(n Node) (Node, Node, bool) {
	if g.keep[n] || g.adj[n] == nil || g.Degree(n) != 2 {
		return Node{}, Node{}, false
	}
	ids := make([]int, 0, 2)
	for id := range g.adj[n] {
		ids = append(ids, id)
	}
	if len(ids) != 2 {
		// a single loop on n
		return Node{}, Node{}, false
	}
	sort.Ints(ids)

	e1, e2 := g.edges[ids[0]], g.edges[ids[1]]
	a, b := e1.other(n), e2.other(n)
	tracks := append(append([]uuid.UUID(nil), e1.Tracks...), e2.Tracks...)

	g.removeEdge(ids[0])
	g.removeEdge(ids[1])
	delete(g.adj, n)
	delete(g.keep, n)
	g.AddEdge(a, b, tracks...)
	return a, b, true
}

func (e *Edge) other(n Node) Node {
	if e.From == n {
		return e.To
	}
	return e.From
}

// Nodes returns the graph's nodes in a stable order
func (g *TrackGraph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.adj))
	for n := range g.adj {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodeLess(nodes[i], nodes[j]) })
	return nodes
}

// Edges returns the graph's edges ordered by endpoints, then first track
func (g *TrackGraph) Edges() []*Edge {
	edges := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return nodeLess(a.From, b.From)
		}
		if a.To != b.To {
			return nodeLess(a.To, b.To)
		}
		return firstTrack(a) < firstTrack(b)
	})
	return edges
}

// IsKept reports whether n is protected from contraction
func (g *TrackGraph) IsKept(n Node) bool {
	return g.keep[n]
}

func firstTrack(e *Edge) string {
	if len(e.Tracks) == 0 {
		return ""
	}
	return e.Tracks[0].String()
}

// BuildTrackGraph returns the graph of the tracks carrying net. Pads of net
// and vias are kept nodes. Run PropagateTrackNets first so track nets are
// current.
func (b *Board) BuildTrackGraph(net *netlist.Net) *TrackGraph {
	g := newTrackGraph(net)
	for _, pid := range sortedIDs(b.Packages) {
		p := b.Packages[pid]
		for _, padID := range sortedIDs(p.Pads) {
			if p.PadNet(p.Pads[padID]) == net {
				g.AddNode(AtPad(pid, padID), true)
			}
		}
	}
	for _, id := range sortedIDs(b.Tracks) {
		t := b.Tracks[id]
		if t.Net.Get() != net {
			continue
		}
		for _, n := range [2]Node{t.From, t.To} {
			g.AddNode(n, b.keepNode(n))
		}
		g.AddEdge(t.From, t.To, id)
	}
	return g
}

// TrackGraphs builds the graph of every net that has tracks, ordered by net
func (b *Board) TrackGraphs() []*TrackGraph {
	seen := make(map[*netlist.Net]bool)
	var nets []*netlist.Net
	for _, t := range b.Tracks {
		if n := t.Net.Get(); n != nil && !seen[n] {
			seen[n] = true
			nets = append(nets, n)
		}
	}
	sort.Slice(nets, func(i, j int) bool {
		if nets[i].Name != nets[j].Name {
			return nets[i].Name < nets[j].Name
		}
		return nets[i].UUID.String() < nets[j].UUID.String()
	})

	graphs := make([]*TrackGraph, len(nets))
	for i, n := range nets {
		graphs[i] = b.BuildTrackGraph(n)
	}
	return graphs
}

func (b *Board) keepNode(n Node) bool {
	if n.IsPad() {
		return true
	}
	j := b.Junctions[n.Junction]
	return j != nil && j.Via
}
