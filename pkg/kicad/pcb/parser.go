package pcb

import (
	"fmt"
	"io"
	"os"

	"fortio.org/safecast"

	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/kicad/sexp"
)

// Minimum supported KiCad version for boards (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad PCB file
func ParseFile(filename string) (*Board, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	b, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return b, nil
}

// Parse reads and parses a KiCad PCB from an io.Reader
func Parse(r io.Reader) (*Board, error) {
	// Parse s-expressions directly from reader (streaming, no memory limit)
	sexps, err := sexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}
	if len(sexps) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}

	// The root should be a (kicad_pcb ...) expression
	root := sexps[0]
	rootName, err := sexp.GetNodeName(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get root node name: %w", err)
	}
	if rootName != "kicad_pcb" {
		return nil, fmt.Errorf("not a KiCad PCB file: expected 'kicad_pcb', got '%s'", rootName)
	}

	version, generator, err := parseHeader(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	board := &Board{
		Version:   version,
		Generator: generator,
	}

	nets, err := parseNets(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nets: %w", err)
	}
	board.Nets = nets
	netMap := NewNetMap(board.Nets)

	tracks, err := parseTracks(root, netMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tracks: %w", err)
	}
	board.Tracks = tracks

	vias, err := parseVias(root, netMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vias: %w", err)
	}
	board.Vias = vias

	footprints, err := parseFootprints(root, netMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footprints: %w", err)
	}
	board.Footprints = footprints

	return board, nil
}

// parseHeader extracts version and generator information from the root node
// Expected format: (kicad_pcb (version 20221018) (generator pcbnew) ...)
func parseHeader(root sexp.Sexp) (version int, generator string, err error) {
	versionNode, found := sexp.FindNode(root, "version")
	if !found {
		return 0, "", fmt.Errorf("missing required 'version' field")
	}
	v, err := sexp.GetInt(versionNode, 1)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}
	version, err = safecast.Conv[int](v)
	if err != nil {
		return 0, "", fmt.Errorf("version %d: %w", v, err)
	}
	if version < MinSupportedVersion {
		return 0, "", fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", version, MinSupportedVersion)
	}

	// Older files say (host pcbnew "version") instead of (generator pcbnew)
	generator = "unknown"
	for _, key := range []string{"generator", "host"} {
		if genNode, found := sexp.FindNode(root, key); found {
			if gen, err := sexp.GetString(genNode, 1); err == nil {
				generator = gen
				break
			}
		}
	}
	return version, generator, nil
}

// parseNets extracts net definitions from the root node
// Expected format: (net 0 "") (net 1 "GND") (net 2 "+5V") ...
func parseNets(root sexp.Sexp) ([]Net, error) {
	var nets []Net
	for _, netNode := range sexp.FindAllNodes(root, "net") {
		number, err := netNumber(netNode)
		if err != nil {
			return nil, err
		}
		// Name is optional (net 0 often has empty name)
		name, _ := sexp.GetString(netNode, 2)
		nets = append(nets, Net{Number: number, Name: name})
	}
	return nets, nil
}

func netNumber(netNode sexp.Sexp) (int, error) {
	n, err := sexp.GetInt(netNode, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to parse net number: %w", err)
	}
	number, err := safecast.Conv[int](n)
	if err != nil {
		return 0, fmt.Errorf("net number %d: %w", n, err)
	}
	return number, nil
}

// netRef resolves the (net n ["name"]) child of node to a net name. Pads
// carry the name inline; tracks and vias only the number.
func netRef(node sexp.Sexp, netMap *NetMap) (string, error) {
	netNode, found := sexp.FindNode(node, "net")
	if !found {
		return "", nil
	}
	if name, err := sexp.GetString(netNode, 2); err == nil {
		return name, nil
	}
	number, err := netNumber(netNode)
	if err != nil {
		return "", err
	}
	if netMap.IsUnconnected(number) {
		return "", nil
	}
	net, ok := netMap.GetByNumber(number)
	if !ok {
		return "", fmt.Errorf("undeclared net number %d", number)
	}
	return net.Name, nil
}

// parseTracks extracts (segment ...) copper segments. Arcs are treated as
// straight segments between their end points.
func parseTracks(root sexp.Sexp, netMap *NetMap) ([]Track, error) {
	var tracks []Track
	for _, kind := range []string{"segment", "arc"} {
		for _, node := range sexp.FindAllNodes(root, kind) {
			track, err := parseSegment(node, netMap)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", kind, err)
			}
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

// parseSegment extracts a track segment (copper trace)
// Expected format: (segment (start x y) (end x y) (width w) (layer "layer") (net n) ...)
func parseSegment(node sexp.Sexp, netMap *NetMap) (Track, error) {
	track := Track{}

	startNode, found := sexp.FindNode(node, "start")
	if !found {
		return track, fmt.Errorf("missing required 'start' position")
	}
	start, err := sexp.GetXY(startNode)
	if err != nil {
		return track, fmt.Errorf("failed to parse start position: %w", err)
	}
	track.Start = start

	endNode, found := sexp.FindNode(node, "end")
	if !found {
		return track, fmt.Errorf("missing required 'end' position")
	}
	end, err := sexp.GetXY(endNode)
	if err != nil {
		return track, fmt.Errorf("failed to parse end position: %w", err)
	}
	track.End = end

	if widthNode, found := sexp.FindNode(node, "width"); found {
		width, err := sexp.GetFloat(widthNode, 1)
		if err != nil {
			return track, fmt.Errorf("failed to parse width: %w", err)
		}
		track.Width = geom.FromMM(width, 0).X
	}

	layerNode, found := sexp.FindNode(node, "layer")
	if !found {
		return track, fmt.Errorf("missing required 'layer' field")
	}
	if track.Layer, err = sexp.GetString(layerNode, 1); err != nil {
		return track, fmt.Errorf("failed to parse layer: %w", err)
	}

	if track.Net, err = netRef(node, netMap); err != nil {
		return track, err
	}
	track.UUID, _ = sexp.GetUUID(node)
	return track, nil
}

// parseVias extracts via definitions
// Expected format: (via (at x y) (size s) (drill d) (layers "F.Cu" "B.Cu") (net n) ...)
func parseVias(root sexp.Sexp, netMap *NetMap) ([]Via, error) {
	var vias []Via
	for _, node := range sexp.FindAllNodes(root, "via") {
		via := Via{}
		pos, _, err := sexp.GetAt(node)
		if err != nil {
			return nil, fmt.Errorf("via: %w", err)
		}
		via.Position = pos
		if layersNode, found := sexp.FindNode(node, "layers"); found {
			via.Layers = layerList(layersNode)
		}
		if via.Net, err = netRef(node, netMap); err != nil {
			return nil, fmt.Errorf("via at %v: %w", pos, err)
		}
		via.UUID, _ = sexp.GetUUID(node)
		vias = append(vias, via)
	}
	return vias, nil
}

func layerList(node sexp.Sexp) []string {
	var layers []string
	for i := 1; i < node.LeafCount(); i++ {
		if name, err := sexp.GetString(node, i); err == nil {
			layers = append(layers, name)
		}
	}
	return layers
}
