package importer

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/internal/config"
	"github.com/OpenTraceLab/netcore/pkg/board"
	"github.com/OpenTraceLab/netcore/pkg/diag"
	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/kicad/pcb"
	"github.com/OpenTraceLab/netcore/pkg/netlist"
	"github.com/OpenTraceLab/netcore/pkg/pool"
)

// ImportBoard parses a .kicad_pcb and lays it out against blk. Footprints
// whose reference blk does not know become components of a synthesized
// entity in p.
func ImportBoard(r io.Reader, blk *netlist.Block, p *pool.MemoryPool, cfg *config.Config) (*board.Board, error) {
	pb, err := pcb.Parse(r)
	if err != nil {
		return nil, err
	}
	return BuildBoard(pb, blk, p, cfg)
}

// BuildBoard lays out a parsed board against blk and propagates track nets
func BuildBoard(pb *pcb.Board, blk *netlist.Block, p *pool.MemoryPool, cfg *config.Config) (*board.Board, error) {
	b := board.New(blk)
	b.Warnings = diag.NewList(cfg.Diagnostics.WarningLimit)
	bb := &boardBuilder{
		pcb:       pb,
		board:     b,
		block:     blk,
		pool:      p,
		tolerance: float64(cfg.SnapTolerance()),
		vias:      make(map[geom.Point]uuid.UUID),
		junctions: make(map[layerPoint]uuid.UUID),
	}
	if err := bb.build(); err != nil {
		return nil, fmt.Errorf("import board: %w", err)
	}
	b.PropagateTrackNets()
	return b, nil
}

type layerPoint struct {
	at    geom.Point
	layer string
}

type placedPad struct {
	node   board.Node
	at     geom.Point
	layers []string
}

type boardBuilder struct {
	pcb       *pcb.Board
	board     *board.Board
	block     *netlist.Block
	pool      *pool.MemoryPool
	tolerance float64

	pads      []placedPad
	vias      map[geom.Point]uuid.UUID
	junctions map[layerPoint]uuid.UUID
}

func (bb *boardBuilder) build() error {
	for i := range bb.pcb.Footprints {
		if err := bb.placeFootprint(&bb.pcb.Footprints[i]); err != nil {
			return err
		}
	}
	for _, v := range bb.pcb.Vias {
		if _, ok := bb.vias[v.Position]; !ok {
			bb.vias[v.Position] = bb.board.AddVia(v.Position).UUID
		}
	}
	for _, t := range bb.pcb.Tracks {
		from := bb.node(t.Start, t.Layer)
		to := bb.node(t.End, t.Layer)
		if from == to {
			continue
		}
		track, err := bb.board.AddTrack(from, to, t.Layer, t.Width)
		if err != nil {
			return fmt.Errorf("track %v-%v: %w", t.Start, t.End, err)
		}
		if net := bb.block.GetNetByName(t.Net); net != nil && t.Net != "" {
			track.Net = netlist.NewRef(net.UUID, net)
		}
	}
	return nil
}

func (bb *boardBuilder) placeFootprint(fp *pcb.Footprint) error {
	if fp.Reference == "" || len(fp.Pads) == 0 {
		return nil
	}
	c := bb.block.ComponentByRefdes(fp.Reference)
	if c == nil {
		c = bb.block.InsertComponent(bb.entity(fp), fp.Reference)
		c.Value = fp.Value
	}
	entity := c.Entity.Get()

	pkg := bb.board.AddPackage(c, fp.Position)
	for _, pad := range fp.Pads {
		if pad.Number == "" {
			continue
		}
		key, ok := pinKey(entity, pad.Number)
		if ok && pad.Net != "" {
			if _, connected := c.Connections[key]; !connected {
				net := bb.block.GetNetByName(pad.Net)
				if net == nil {
					net = bb.block.InsertNamedNet(pad.Net)
				}
				c.Connect(key.Gate, key.Pin, net)
			}
		}
		bp := pkg.AddPad(pad.Number, key, pad.Position)
		bb.pads = append(bb.pads, placedPad{
			node:   board.AtPad(pkg.UUID, bp.UUID),
			at:     pad.Position,
			layers: pad.Layers,
		})
	}
	return nil
}

// entity synthesizes a single-gate entity whose pins are the pad numbers
func (bb *boardBuilder) entity(fp *pcb.Footprint) *pool.Entity {
	if e, ok := bb.pool.EntityByName(fp.LibID); ok {
		return e
	}
	unit := pool.NewUnit(fp.LibID)
	for _, pad := range fp.Pads {
		if _, ok := unit.PinByName(pad.Number); !ok && pad.Number != "" {
			unit.AddPin(pad.Number, pool.DirPassive)
		}
	}
	e := pool.NewEntity(fp.LibID, prefixOf(fp.Reference))
	e.AddGate(unitName(1), unit)
	bb.pool.AddEntity(e)
	return e
}

func prefixOf(ref string) string {
	for i, r := range ref {
		if r >= '0' && r <= '9' {
			return ref[:i]
		}
	}
	return ref
}

// pinKey finds the entity pin named like a pad, searching gates by name
func pinKey(e *pool.Entity, number string) (netlist.PinKey, bool) {
	if e == nil {
		return netlist.PinKey{}, false
	}
	gates := make([]*pool.Gate, 0, len(e.Gates))
	for _, g := range e.Gates {
		gates = append(gates, g)
	}
	sort.Slice(gates, func(i, j int) bool { return gates[i].Name < gates[j].Name })
	for _, g := range gates {
		if g.Unit == nil {
			continue
		}
		if pin, ok := g.Unit.PinByName(number); ok {
			return netlist.PinKey{Gate: g.ID, Pin: pin.ID}, true
		}
	}
	return netlist.PinKey{}, false
}

// node resolves a track end: the nearest pad on the layer within the snap
// tolerance, then a via at the exact position, then a junction of the layer
func (bb *boardBuilder) node(at geom.Point, layer string) board.Node {
	best, bestDist := -1, math.Inf(1)
	for i, pad := range bb.pads {
		if !padOnLayer(pad.layers, layer) {
			continue
		}
		if d := pad.at.Dist(at); d <= bb.tolerance && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		return bb.pads[best].node
	}
	if id, ok := bb.vias[at]; ok {
		return board.AtJunction(id)
	}
	key := layerPoint{at: at, layer: layer}
	if id, ok := bb.junctions[key]; ok {
		return board.AtJunction(id)
	}
	id := bb.board.AddJunction(at, layer).UUID
	bb.junctions[key] = id
	return board.AtJunction(id)
}

func padOnLayer(layers []string, layer string) bool {
	for _, l := range layers {
		switch {
		case l == layer, l == "*.Cu":
			return true
		case l == "F&B.Cu" && (layer == "F.Cu" || layer == "B.Cu"):
			return true
		}
	}
	return false
}
