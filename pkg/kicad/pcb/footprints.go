package pcb

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/netcore/pkg/kicad/sexp"
)

// parseFootprints extracts all footprints, sorted by reference
func parseFootprints(root sexp.Sexp, netMap *NetMap) ([]Footprint, error) {
	nodes := sexp.FindAllNodes(root, "footprint")
	footprints := make([]Footprint, 0, len(nodes))
	for _, node := range nodes {
		fp, err := parseFootprint(node, netMap)
		if err != nil {
			return nil, err
		}
		footprints = append(footprints, fp)
	}
	sort.SliceStable(footprints, func(i, j int) bool {
		return footprints[i].Reference < footprints[j].Reference
	})
	return footprints, nil
}

// parseFootprint extracts a footprint (component) definition
// Expected format: (footprint "library:name" (layer "layer") (at x y [angle]) ...)
func parseFootprint(node sexp.Sexp, netMap *NetMap) (Footprint, error) {
	fp := Footprint{}
	var err error
	if fp.LibID, err = sexp.GetString(node, 1); err != nil {
		return fp, fmt.Errorf("footprint: %w", err)
	}
	if fp.Position, fp.Angle, err = sexp.GetAt(node); err != nil {
		return fp, fmt.Errorf("footprint %s: %w", fp.LibID, err)
	}
	if layerNode, found := sexp.FindNode(node, "layer"); found {
		fp.Layer, _ = sexp.GetString(layerNode, 1)
	}
	fp.UUID, _ = sexp.GetUUID(node)

	fp.Reference, _ = sexp.GetProperty(node, "Reference")
	fp.Value, _ = sexp.GetProperty(node, "Value")
	// KiCad 6 and 7 keep reference and value in fp_text
	for _, text := range sexp.FindAllNodes(node, "fp_text") {
		kind, _ := sexp.GetString(text, 1)
		value, _ := sexp.GetString(text, 2)
		switch {
		case kind == "reference" && fp.Reference == "":
			fp.Reference = value
		case kind == "value" && fp.Value == "":
			fp.Value = value
		}
	}

	for _, padNode := range sexp.FindAllNodes(node, "pad") {
		pad, err := parsePad(padNode, &fp, netMap)
		if err != nil {
			return fp, fmt.Errorf("footprint %s: %w", fp.Reference, err)
		}
		fp.Pads = append(fp.Pads, pad)
	}
	return fp, nil
}

// parsePad extracts a pad definition from a footprint
// Expected format: (pad "number" type shape (at x y [angle]) (size w h) (layers ...) (net n "name") ...)
func parsePad(node sexp.Sexp, fp *Footprint, netMap *NetMap) (Pad, error) {
	pad := Pad{}
	var err error

	// Parse pad number/name (second element after "pad")
	if pad.Number, err = sexp.GetString(node, 1); err != nil {
		return pad, fmt.Errorf("failed to parse pad number: %w", err)
	}
	// Parse pad type (third element: thru_hole, smd, connect, np_thru_hole)
	if pad.Type, err = sexp.GetString(node, 2); err != nil {
		return pad, fmt.Errorf("pad %s: failed to parse pad type: %w", pad.Number, err)
	}

	rel, _, err := sexp.GetAt(node)
	if err != nil {
		return pad, fmt.Errorf("pad %s: %w", pad.Number, err)
	}
	pad.Position = fp.placePad(rel)

	if layersNode, found := sexp.FindNode(node, "layers"); found {
		pad.Layers = layerList(layersNode)
	}
	if pad.Net, err = netRef(node, netMap); err != nil {
		return pad, fmt.Errorf("pad %s: %w", pad.Number, err)
	}
	return pad, nil
}
