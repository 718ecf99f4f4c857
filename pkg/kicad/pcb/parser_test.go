package pcb

import (
	"strings"
	"testing"

	"github.com/OpenTraceLab/netcore/pkg/geom"
	"github.com/OpenTraceLab/netcore/pkg/kicad/sexp"
)

// Test parseHeader function
func TestParseHeader(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantGen     string
		wantErr     bool
	}{
		{
			name:        "valid KiCad 6.0 with generator",
			input:       "(kicad_pcb (version 20211014) (generator pcbnew))",
			wantVersion: 20211014,
			wantGen:     "pcbnew",
		},
		{
			name:        "valid KiCad 6.0 with host",
			input:       "(kicad_pcb (version 20221018) (host pcbnew \"(6.0.10)\"))",
			wantVersion: 20221018,
			wantGen:     "pcbnew",
		},
		{
			name:    "missing version",
			input:   "(kicad_pcb (generator pcbnew))",
			wantErr: true,
		},
		{
			name:    "old version (KiCad 5)",
			input:   "(kicad_pcb (version 20171130))",
			wantErr: true,
		},
		{
			name:        "no generator (should default to unknown)",
			input:       "(kicad_pcb (version 20211014))",
			wantVersion: 20211014,
			wantGen:     "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sexps, err := sexp.ParseString(tt.input)
			if err != nil {
				t.Fatalf("Failed to parse s-expression: %v", err)
			}
			version, gen, err := parseHeader(sexps[0])
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHeader() error = %v, wantErr %v", err, tt.wantErr)
			}
			if version != tt.wantVersion || gen != tt.wantGen {
				t.Errorf("parseHeader() = %d, %q, want %d, %q", version, gen, tt.wantVersion, tt.wantGen)
			}
		})
	}
}

const twoResistors = `(kicad_pcb (version 20240108) (generator "pcbnew")
	(net 0 "")
	(net 1 "GND")
	(net 2 "VCC")
	(footprint "Resistor_SMD:R_0603" (layer "F.Cu") (at 100 50 90)
		(property "Reference" "R2" (at 0 0 0))
		(property "Value" "22" (at 0 0 0))
		(pad "1" smd roundrect (at -0.8 0 90) (size 0.8 0.9) (layers "F.Cu" "F.Mask") (net 1 "GND"))
		(pad "2" smd roundrect (at 0.8 0 90) (size 0.8 0.9) (layers "F.Cu" "F.Mask") (net 2 "VCC")))
	(footprint "Resistor_THT:R_Axial" (layer "F.Cu") (at 10 20)
		(fp_text reference "R1" (at 0 0))
		(fp_text value "10k" (at 0 0))
		(pad "1" thru_hole circle (at 0 0) (size 1.6 1.6) (drill 0.8) (layers "*.Cu" "*.Mask") (net 1 "GND"))
		(pad "2" thru_hole circle (at 7.62 0) (size 1.6 1.6) (drill 0.8) (layers "*.Cu" "*.Mask")))
	(segment (start 10 20) (end 30 20) (width 0.25) (layer "F.Cu") (net 1)
		(uuid 4a3b1f3e-7d4c-4fd8-8d5e-2f9b7b1c0a01))
	(arc (start 30 20) (mid 35 25) (end 40 20) (width 0.5) (layer "B.Cu") (net 1))
	(via (at 30 20) (size 0.8) (drill 0.4) (layers "F.Cu" "B.Cu") (net 1))
)`

func TestParseBoard(t *testing.T) {
	board, err := Parse(strings.NewReader(twoResistors))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if names := board.GetAllNetNames(); strings.Join(names, ",") != "GND,VCC" {
		t.Errorf("GetAllNetNames = %v", names)
	}

	if len(board.Footprints) != 2 || board.Footprints[0].Reference != "R1" {
		t.Fatalf("Footprints not sorted by reference: %+v", board.Footprints)
	}

	r1 := board.GetFootprint("R1")
	if r1.Value != "10k" || len(r1.Pads) != 2 {
		t.Errorf("R1 = %+v", r1)
	}
	if r1.Pads[1].Net != "" || r1.Pads[1].Position != geom.FromMM(17.62, 20) {
		t.Errorf("R1 pad 2 = %+v", r1.Pads[1])
	}

	r2 := board.GetFootprint("R2")
	if r2 == nil || r2.Value != "22" || r2.Angle != 90 {
		t.Fatalf("R2 = %+v", r2)
	}
	// Rotated 90 degrees counter-clockwise on screen: +X turns into -Y
	if got, want := r2.Pads[1].Position, geom.FromMM(100, 49.2); got != want {
		t.Errorf("R2 pad 2 at %v, want %v", got, want)
	}
	if r2.Pads[0].Net != "GND" || r2.Pads[1].Net != "VCC" {
		t.Errorf("R2 pad nets = %q, %q", r2.Pads[0].Net, r2.Pads[1].Net)
	}

	if len(board.Tracks) != 2 {
		t.Fatalf("Tracks count = %d, want 2", len(board.Tracks))
	}
	track := board.Tracks[0]
	if track.Start != geom.FromMM(10, 20) || track.End != geom.FromMM(30, 20) {
		t.Errorf("Track 0 = %v-%v", track.Start, track.End)
	}
	if track.Width != 250000 || track.Layer != "F.Cu" || track.Net != "GND" {
		t.Errorf("Track 0 = %+v", track)
	}
	if track.UUID.String() != "4a3b1f3e-7d4c-4fd8-8d5e-2f9b7b1c0a01" {
		t.Errorf("Track 0 uuid = %s", track.UUID)
	}
	if arc := board.Tracks[1]; arc.Layer != "B.Cu" || arc.End != geom.FromMM(40, 20) {
		t.Errorf("Arc = %+v", arc)
	}

	if len(board.Vias) != 1 {
		t.Fatalf("Vias count = %d, want 1", len(board.Vias))
	}
	if via := board.Vias[0]; via.Net != "GND" || len(via.Layers) != 2 || via.Position != geom.FromMM(30, 20) {
		t.Errorf("Via = %+v", via)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "wrong root", input: `(kicad_sch (version 20231120))`},
		{name: "empty", input: ``},
		{name: "segment without layer", input: `(kicad_pcb (version 20240108) (segment (start 0 0) (end 1 0)))`},
		{name: "segment without end", input: `(kicad_pcb (version 20240108) (segment (start 0 0) (layer "F.Cu")))`},
		{name: "undeclared net", input: `(kicad_pcb (version 20240108) (segment (start 0 0) (end 1 0) (layer "F.Cu") (net 7)))`},
		{name: "pad without position", input: `(kicad_pcb (version 20240108)
			(footprint "x" (at 0 0) (pad "1" smd rect (size 1 1))))`},
		{name: "footprint without position", input: `(kicad_pcb (version 20240108) (footprint "x"))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestNetMap(t *testing.T) {
	nm := NewNetMap([]Net{{Number: 0}, {Number: 1, Name: "GND"}})
	if n, ok := nm.GetByName("GND"); !ok || n.Number != 1 {
		t.Errorf("GetByName(GND) = %v, %v", n, ok)
	}
	if _, ok := nm.GetByName(""); ok {
		t.Error("empty name indexed")
	}
	if _, ok := nm.GetByNumber(0); !ok || !nm.IsUnconnected(0) {
		t.Error("net 0 lookup")
	}
}
