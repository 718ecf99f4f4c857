package schematic

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/kicad/sexp"
)

// Minimum supported KiCad version for schematics (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad schematic file
func ParseFile(filename string) (*Schematic, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	sch, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return sch, nil
}

// Parse reads and parses a KiCad schematic from an io.Reader
func Parse(r io.Reader) (*Schematic, error) {
	sexps, err := sexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}
	if len(sexps) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}

	// The root should be a (kicad_sch ...) expression
	root := sexps[0]
	rootName, err := sexp.GetNodeName(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get root node name: %w", err)
	}
	if rootName != "kicad_sch" {
		return nil, fmt.Errorf("not a KiCad schematic file: expected 'kicad_sch', got '%s'", rootName)
	}

	sch := &Schematic{LibSymbols: make(map[string]*LibSymbol)}
	if err := parseHeader(root, sch); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if id, err := sexp.GetUUID(root); err == nil {
		sch.UUID = id
	}

	if libSymbolsNode, found := sexp.FindNode(root, "lib_symbols"); found {
		for _, node := range sexp.FindAllNodes(libSymbolsNode, "symbol") {
			lib, err := parseLibSymbol(node)
			if err != nil {
				return nil, err
			}
			sch.LibSymbols[lib.Name] = lib
		}
	}

	for _, node := range sexp.FindAllNodes(root, "symbol") {
		sym, err := parseSymbol(node)
		if err != nil {
			return nil, err
		}
		sch.Symbols = append(sch.Symbols, sym)
	}

	if sch.Wires, err = parseWires(root, "wire"); err != nil {
		return nil, err
	}
	if sch.Buses, err = parseWires(root, "bus"); err != nil {
		return nil, err
	}
	if sch.Junctions, err = parsePoints(root, "junction"); err != nil {
		return nil, err
	}
	if sch.NoConnects, err = parsePoints(root, "no_connect"); err != nil {
		return nil, err
	}
	for _, kind := range []LabelKind{LabelLocal, LabelGlobal, LabelHierarchical} {
		labels, err := parseLabels(root, kind)
		if err != nil {
			return nil, err
		}
		sch.Labels = append(sch.Labels, labels...)
	}

	return sch, nil
}

func parseHeader(root sexp.Sexp, sch *Schematic) error {
	versionNode, found := sexp.FindNode(root, "version")
	if !found {
		return fmt.Errorf("missing required 'version' field")
	}
	ver, err := sexp.GetInt(versionNode, 1)
	if err != nil {
		return fmt.Errorf("failed to parse version: %w", err)
	}
	if ver < MinSupportedVersion {
		return fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}
	sch.Version = int(ver)

	if genNode, found := sexp.FindNode(root, "generator"); found {
		sch.Generator, _ = sexp.GetString(genNode, 1)
	}
	return nil
}

// parseLibSymbol reads a lib_symbols entry. Pins live in nested unit
// symbols named "<name>_<unit>_<style>"; only the first body style is
// kept.
func parseLibSymbol(node sexp.Sexp) (*LibSymbol, error) {
	name, err := sexp.GetString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("lib symbol: %w", err)
	}
	lib := &LibSymbol{Name: name}
	_, lib.Power = sexp.FindNode(node, "power")

	for _, unitNode := range sexp.FindAllNodes(node, "symbol") {
		unitName, _ := sexp.GetString(unitNode, 1)
		unit, style := unitSuffix(unitName)
		if style > 1 {
			continue
		}
		for _, pinNode := range sexp.FindAllNodes(unitNode, "pin") {
			pin, err := parsePin(pinNode)
			if err != nil {
				return nil, fmt.Errorf("lib symbol %s: %w", name, err)
			}
			pin.Unit = unit
			lib.Pins = append(lib.Pins, pin)
		}
	}
	return lib, nil
}

// unitSuffix splits "R_1_1" into unit 1, style 1
func unitSuffix(name string) (unit, style int) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return 0, 0
	}
	unit, err1 := strconv.Atoi(parts[len(parts)-2])
	style, err2 := strconv.Atoi(parts[len(parts)-1])
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return unit, style
}

// parsePin reads (pin type style (at x y angle) (length l) (name "n") (number "1"))
func parsePin(node sexp.Sexp) (LibPin, error) {
	pin := LibPin{}
	pin.Type, _ = sexp.GetString(node, 1)

	pos, _, err := sexp.GetAt(node)
	if err != nil {
		return pin, fmt.Errorf("pin: %w", err)
	}
	pin.Position = pos

	if nameNode, found := sexp.FindNode(node, "name"); found {
		pin.Name, _ = sexp.GetString(nameNode, 1)
	}
	numNode, found := sexp.FindNode(node, "number")
	if !found {
		return pin, fmt.Errorf("pin at %v: missing number", pos)
	}
	if pin.Number, err = sexp.GetString(numNode, 1); err != nil {
		return pin, fmt.Errorf("pin at %v: %w", pos, err)
	}

	pin.Hidden = sexp.HasSymbol(node, "hide")
	if hideNode, found := sexp.FindNode(node, "hide"); found {
		pin.Hidden = !sexp.HasSymbol(hideNode, "no")
	}
	return pin, nil
}

func parseSymbol(node sexp.Sexp) (Symbol, error) {
	sym := Symbol{
		Unit:       1,
		Properties: make(map[string]string),
	}

	libNode, found := sexp.FindNode(node, "lib_id")
	if !found {
		return sym, fmt.Errorf("symbol: missing lib_id")
	}
	sym.LibID, _ = sexp.GetString(libNode, 1)
	if libName, found := sexp.FindNode(node, "lib_name"); found {
		sym.LibName, _ = sexp.GetString(libName, 1)
	}

	pos, angle, err := sexp.GetAt(node)
	if err != nil {
		return sym, fmt.Errorf("symbol %s: %w", sym.LibID, err)
	}
	sym.Position, sym.Angle = pos, angle

	if mirrorNode, found := sexp.FindNode(node, "mirror"); found {
		sym.Mirror, _ = sexp.GetString(mirrorNode, 1)
	}
	if unitNode, found := sexp.FindNode(node, "unit"); found {
		unit, err := sexp.GetInt(unitNode, 1)
		if err != nil {
			return sym, fmt.Errorf("symbol %s: %w", sym.LibID, err)
		}
		sym.Unit = int(unit)
	}
	sym.UUID, _ = sexp.GetUUID(node)

	for _, pn := range sexp.FindAllNodes(node, "property") {
		key, err1 := sexp.GetString(pn, 1)
		value, err2 := sexp.GetString(pn, 2)
		if err1 == nil && err2 == nil {
			sym.Properties[key] = value
		}
	}
	return sym, nil
}

func parseWires(root sexp.Sexp, kind string) ([]Wire, error) {
	nodes := sexp.FindAllNodes(root, kind)
	wires := make([]Wire, 0, len(nodes))
	for _, wn := range nodes {
		wire := Wire{}
		if ptsNode, found := sexp.FindNode(wn, "pts"); found {
			for _, xy := range sexp.FindAllNodes(ptsNode, "xy") {
				pos, err := sexp.GetXY(xy)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", kind, err)
				}
				wire.Points = append(wire.Points, pos)
			}
		}
		if len(wire.Points) < 2 {
			return nil, fmt.Errorf("%s: need at least 2 points, got %d", kind, len(wire.Points))
		}
		wire.UUID, _ = sexp.GetUUID(wn)
		wires = append(wires, wire)
	}
	return wires, nil
}

func parsePoints(root sexp.Sexp, kind string) ([]geom.Point, error) {
	nodes := sexp.FindAllNodes(root, kind)
	points := make([]geom.Point, 0, len(nodes))
	for _, n := range nodes {
		pos, _, err := sexp.GetAt(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		points = append(points, pos)
	}
	return points, nil
}

func parseLabels(root sexp.Sexp, kind LabelKind) ([]Label, error) {
	nodes := sexp.FindAllNodes(root, kind.String())
	labels := make([]Label, 0, len(nodes))
	for _, ln := range nodes {
		label := Label{Kind: kind}
		var err error
		if label.Text, err = sexp.GetString(ln, 1); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		if label.Position, _, err = sexp.GetAt(ln); err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, label.Text, err)
		}
		label.UUID, _ = sexp.GetUUID(ln)
		labels = append(labels, label)
	}
	return labels, nil
}
