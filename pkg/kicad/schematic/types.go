package schematic

import (
	"sort"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/geom"
)

// Schematic is the connectivity-relevant content of one .kicad_sch file
type Schematic struct {
	Version    int                   // File format version
	Generator  string                // Generator info (e.g., "eeschema")
	UUID       uuid.UUID             // Schematic UUID
	LibSymbols map[string]*LibSymbol // Embedded library symbols by name
	Symbols    []Symbol              // Symbol instances
	Wires      []Wire                // Wire connections
	Buses      []Wire                // Bus connections
	Junctions  []geom.Point          // Junction dots
	NoConnects []geom.Point          // No-connect markers
	Labels     []Label               // Local, global and hierarchical labels
}

// LibSymbol is an embedded library symbol
type LibSymbol struct {
	Name  string   // Symbol name (e.g., "Device:R")
	Power bool     // (power) flag: instances are power symbols
	Pins  []LibPin // Pins of all units
}

// LibPin is a pin as drawn in the library, Y axis pointing up
type LibPin struct {
	Number   string
	Name     string
	Type     string     // input, output, passive, power_in, ...
	Position geom.Point // connection point
	Unit     int        // 0 = shared by all units
	Hidden   bool
}

// UnitPins returns the pins present on unit, sorted by number
func (l *LibSymbol) UnitPins(unit int) []LibPin {
	var pins []LibPin
	for _, p := range l.Pins {
		if p.Unit == 0 || p.Unit == unit {
			pins = append(pins, p)
		}
	}
	sort.SliceStable(pins, func(i, j int) bool { return pins[i].Number < pins[j].Number })
	return pins
}

// Units returns the unit numbers the symbol defines pins for, at least 1
func (l *LibSymbol) Units() []int {
	seen := map[int]bool{}
	for _, p := range l.Pins {
		if p.Unit > 0 {
			seen[p.Unit] = true
		}
	}
	if len(seen) == 0 {
		return []int{1}
	}
	units := make([]int, 0, len(seen))
	for u := range seen {
		units = append(units, u)
	}
	sort.Ints(units)
	return units
}

// Symbol is a symbol instance on the schematic
type Symbol struct {
	LibID      string            // Library identifier (e.g., "Device:R")
	LibName    string            // Overrides LibID when the embedded copy was renamed
	Position   geom.Point        // Position on schematic
	Angle      float64           // Rotation angle, counter-clockwise on screen
	Mirror     string            // Mirror mode (x, y, or empty)
	Unit       int               // Unit number (for multi-unit symbols)
	UUID       uuid.UUID         // Instance UUID
	Properties map[string]string // Instance properties (Reference, Value, etc.)
}

// Lib returns the name of the embedded lib symbol this instance uses
func (s *Symbol) Lib() string {
	if s.LibName != "" {
		return s.LibName
	}
	return s.LibID
}

// Reference returns the reference designator
func (s *Symbol) Reference() string {
	return s.Properties["Reference"]
}

// Value returns the Value property
func (s *Symbol) Value() string {
	return s.Properties["Value"]
}

// PinPosition places a library pin on the sheet. Library Y points up, sheet
// Y points down; rotation is applied before mirroring.
func (s *Symbol) PinPosition(p LibPin) geom.Point {
	q := p.Position.MirrorX().Rotate(-s.Angle)
	switch s.Mirror {
	case "x":
		q = q.MirrorX()
	case "y":
		q = q.MirrorY()
	}
	return s.Position.Add(q)
}

// Wire is a wire or bus polyline
type Wire struct {
	Points []geom.Point // Wire points (at least 2)
	UUID   uuid.UUID    // Wire UUID
}

// LabelKind distinguishes local, global and hierarchical labels
type LabelKind int

const (
	LabelLocal LabelKind = iota
	LabelGlobal
	LabelHierarchical
)

func (k LabelKind) String() string {
	switch k {
	case LabelGlobal:
		return "global_label"
	case LabelHierarchical:
		return "hierarchical_label"
	}
	return "label"
}

// Label names the wire it sits on
type Label struct {
	Kind     LabelKind
	Text     string
	Position geom.Point
	UUID     uuid.UUID
}

// GetSymbol returns the first instance with the given reference, or nil
func (s *Schematic) GetSymbol(reference string) *Symbol {
	for i := range s.Symbols {
		if s.Symbols[i].Reference() == reference {
			return &s.Symbols[i]
		}
	}
	return nil
}

// GetAllReferences returns the sorted, de-duplicated references of all
// non-power symbols
func (s *Schematic) GetAllReferences() []string {
	seen := make(map[string]bool)
	var refs []string
	for i := range s.Symbols {
		sym := &s.Symbols[i]
		if lib := s.LibSymbols[sym.Lib()]; lib != nil && lib.Power {
			continue
		}
		ref := sym.Reference()
		if ref != "" && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	sort.Strings(refs)
	return refs
}
