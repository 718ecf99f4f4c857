package pcb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/geom"
)

// Board is the copper connectivity of one .kicad_pcb file
type Board struct {
	Version    int
	Generator  string
	Nets       []Net
	Footprints []Footprint
	Tracks     []Track
	Vias       []Via
}

// Net is a board net declaration
type Net struct {
	Number int
	Name   string
}

// Footprint is a placed component
type Footprint struct {
	LibID     string
	Reference string
	Value     string
	Layer     string
	Position  geom.Point
	Angle     float64
	UUID      uuid.UUID
	Pads      []Pad
}

// Pad is a footprint pad, positioned in board coordinates
type Pad struct {
	Number   string
	Type     string // thru_hole, smd, connect, np_thru_hole
	Position geom.Point
	Layers   []string
	Net      string // "" when unconnected
}

// Track is a copper segment
type Track struct {
	Start geom.Point
	End   geom.Point
	Width int64 // nm
	Layer string
	Net   string
	UUID  uuid.UUID
}

// Via is a plated hole joining layers
type Via struct {
	Position geom.Point
	Layers   []string
	Net      string
	UUID     uuid.UUID
}

// NetMap provides efficient lookup of nets by number or name
type NetMap struct {
	byNumber map[int]*Net
	byName   map[string]*Net
}

// NewNetMap creates a NetMap from a slice of nets
func NewNetMap(nets []Net) *NetMap {
	nm := &NetMap{
		byNumber: make(map[int]*Net),
		byName:   make(map[string]*Net),
	}
	for i := range nets {
		net := &nets[i]
		nm.byNumber[net.Number] = net
		// Only index non-empty names
		if net.Name != "" {
			nm.byName[net.Name] = net
		}
	}
	return nm
}

// GetByName retrieves a net by its name
func (nm *NetMap) GetByName(name string) (*Net, bool) {
	net, ok := nm.byName[name]
	return net, ok
}

// GetByNumber retrieves a net by its number
func (nm *NetMap) GetByNumber(num int) (*Net, bool) {
	net, ok := nm.byNumber[num]
	return net, ok
}

// IsUnconnected checks if a net number represents an unconnected net
// In KiCad, net 0 is reserved for unconnected pins
func (nm *NetMap) IsUnconnected(num int) bool {
	return num == 0
}

// GetFootprint returns the footprint with the given reference, or nil
func (b *Board) GetFootprint(reference string) *Footprint {
	for i := range b.Footprints {
		if b.Footprints[i].Reference == reference {
			return &b.Footprints[i]
		}
	}
	return nil
}

// GetAllNetNames returns the sorted names of all named nets
func (b *Board) GetAllNetNames() []string {
	var names []string
	for _, n := range b.Nets {
		if n.Name != "" {
			names = append(names, n.Name)
		}
	}
	sort.Strings(names)
	return names
}

// placePad converts a footprint-relative pad offset to board coordinates.
// Footprint rotation is counter-clockwise on screen (Y down).
func (fp *Footprint) placePad(rel geom.Point) geom.Point {
	return fp.Position.Add(rel.Rotate(-fp.Angle))
}
