package schematic

import (
	"strings"
	"testing"

	"github.com/OpenTraceLab/netcore/pkg/geom"
)

const resistorLib = `(lib_symbols
	(symbol "Device:R"
		(property "Reference" "R" (at 0 0 0))
		(property "Value" "R" (at 0 0 0))
		(symbol "R_0_1"
			(rectangle (start -1.016 -2.54) (end 1.016 2.54)))
		(symbol "R_1_1"
			(pin passive line (at 0 3.81 270) (length 1.27)
				(name "~")
				(number "1"))
			(pin passive line (at 0 -3.81 90) (length 1.27)
				(name "~")
				(number "2"))))
	(symbol "power:GND" (power)
		(property "Reference" "#PWR" (at 0 0 0))
		(property "Value" "GND" (at 0 0 0))
		(symbol "GND_1_1"
			(pin power_in line (at 0 0 270) (length 0) hide
				(name "GND")
				(number "1")))))`

func TestParseMinimalSchematic(t *testing.T) {
	input := `(kicad_sch
		(version 20250114)
		(generator "eeschema")
		(generator_version "9.0")
		(uuid 862335ee-c981-4fe1-9eb9-84db19301dd4)
		(paper "A4")
		(lib_symbols)
		(sheet_instances
			(path "/"
				(page "1")
			)
		)
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if sch.Version != 20250114 {
		t.Errorf("Expected version 20250114, got %d", sch.Version)
	}
	if sch.Generator != "eeschema" {
		t.Errorf("Expected generator 'eeschema', got '%s'", sch.Generator)
	}
	if sch.UUID.String() != "862335ee-c981-4fe1-9eb9-84db19301dd4" {
		t.Errorf("Unexpected uuid %s", sch.UUID)
	}
	if len(sch.LibSymbols) != 0 || len(sch.Symbols) != 0 {
		t.Errorf("Expected empty schematic, got %d lib symbols, %d symbols", len(sch.LibSymbols), len(sch.Symbols))
	}
}

func TestParseSchematicWithSymbol(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(generator "eeschema")
		` + resistorLib + `
		(symbol (lib_id "Device:R")
			(at 100 50 0)
			(unit 1)
			(uuid 3a4f6e2c-0d63-4c3a-9a39-5b6f0f1f1e01)
			(property "Reference" "R1" (at 100 45 0))
			(property "Value" "10k" (at 100 55 0))
		)
		(symbol (lib_id "power:GND") (at 100 60 0) (unit 1)
			(property "Reference" "#PWR01" (at 0 0 0))
			(property "Value" "GND" (at 0 0 0)))
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if len(sch.LibSymbols) != 2 {
		t.Errorf("Expected 2 lib symbols, got %d", len(sch.LibSymbols))
	}
	res := sch.LibSymbols["Device:R"]
	if res == nil || res.Power || len(res.Pins) != 2 {
		t.Fatalf("Device:R parsed as %+v", res)
	}
	if res.Pins[0].Unit != 1 || res.Pins[0].Position != geom.FromMM(0, 3.81) {
		t.Errorf("Unexpected pin 1: %+v", res.Pins[0])
	}
	gnd := sch.LibSymbols["power:GND"]
	if gnd == nil || !gnd.Power || !gnd.Pins[0].Hidden {
		t.Errorf("power:GND parsed as %+v", gnd)
	}

	r1 := sch.GetSymbol("R1")
	if r1 == nil {
		t.Fatal("GetSymbol('R1') returned nil")
	}
	if r1.Value() != "10k" || r1.Position != geom.FromMM(100, 50) {
		t.Errorf("Unexpected R1: %+v", r1)
	}

	refs := sch.GetAllReferences()
	if len(refs) != 1 || refs[0] != "R1" {
		t.Errorf("Expected refs ['R1'], got %v", refs)
	}
}

func TestPinPosition(t *testing.T) {
	pin := LibPin{Number: "1", Position: geom.FromMM(0, 3.81)}

	tests := []struct {
		name   string
		angle  float64
		mirror string
		want   geom.Point
	}{
		{name: "upright", want: geom.FromMM(100, 46.19)},
		{name: "rotated 90", angle: 90, want: geom.FromMM(96.19, 50)},
		{name: "rotated 180", angle: 180, want: geom.FromMM(100, 53.81)},
		{name: "mirror x", mirror: "x", want: geom.FromMM(100, 53.81)},
		{name: "mirror y", mirror: "y", want: geom.FromMM(100, 46.19)},
		{name: "rotated 90 mirror y", angle: 90, mirror: "y", want: geom.FromMM(103.81, 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym := Symbol{Position: geom.FromMM(100, 50), Angle: tt.angle, Mirror: tt.mirror}
			if got := sym.PinPosition(pin); got != tt.want {
				t.Errorf("PinPosition = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnits(t *testing.T) {
	lib := &LibSymbol{Pins: []LibPin{
		{Number: "8", Unit: 0},
		{Number: "1", Unit: 1},
		{Number: "7", Unit: 2},
		{Number: "2", Unit: 1},
	}}
	if got := lib.Units(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Units = %v", got)
	}
	var numbers []string
	for _, p := range lib.UnitPins(2) {
		numbers = append(numbers, p.Number)
	}
	if strings.Join(numbers, ",") != "7,8" {
		t.Errorf("UnitPins(2) = %v", numbers)
	}
	if got := (&LibSymbol{}).Units(); len(got) != 1 || got[0] != 1 {
		t.Errorf("Units of empty symbol = %v", got)
	}
}

func TestParseSchematicWithWires(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(generator "eeschema")
		(lib_symbols)
		(wire (pts (xy 100 50) (xy 150 50))
			(stroke (width 0) (type default))
			(uuid wire-1)
		)
		(wire (pts (xy 150 50) (xy 150 100))
			(stroke (width 0) (type default))
		)
		(bus (pts (xy 10 10) (xy 10 40)))
		(junction (at 150 50) (diameter 0) (color 0 0 0 0))
		(no_connect (at 20 20))
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if len(sch.Wires) != 2 {
		t.Errorf("Expected 2 wires, got %d", len(sch.Wires))
	}
	if len(sch.Buses) != 1 {
		t.Errorf("Expected 1 bus, got %d", len(sch.Buses))
	}
	if len(sch.Junctions) != 1 || sch.Junctions[0] != geom.FromMM(150, 50) {
		t.Errorf("Unexpected junctions %v", sch.Junctions)
	}
	if len(sch.NoConnects) != 1 {
		t.Errorf("Expected 1 no_connect, got %d", len(sch.NoConnects))
	}
}

func TestParseSchematicWithLabels(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(generator "eeschema")
		(lib_symbols)
		(label "VCC" (at 100 50 0)
			(effects (font (size 1.27 1.27)))
		)
		(global_label "GND" (shape input) (at 100 100 0)
			(effects (font (size 1.27 1.27)))
		)
		(hierarchical_label "D[0..7]" (shape bidirectional) (at 10 10 0))
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	want := []Label{
		{Kind: LabelLocal, Text: "VCC", Position: geom.FromMM(100, 50)},
		{Kind: LabelGlobal, Text: "GND", Position: geom.FromMM(100, 100)},
		{Kind: LabelHierarchical, Text: "D[0..7]", Position: geom.FromMM(10, 10)},
	}
	if len(sch.Labels) != len(want) {
		t.Fatalf("Expected %d labels, got %d", len(want), len(sch.Labels))
	}
	for i, l := range want {
		if sch.Labels[i] != l {
			t.Errorf("label %d = %+v, want %+v", i, sch.Labels[i], l)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "wrong root", input: `(kicad_pcb (version 20231120))`},
		{name: "empty", input: ``},
		{name: "old version", input: `(kicad_sch (version 20200101))`},
		{name: "missing version", input: `(kicad_sch (generator "eeschema"))`},
		{name: "short wire", input: `(kicad_sch (version 20231120) (wire (pts (xy 1 1))))`},
		{name: "symbol without lib_id", input: `(kicad_sch (version 20231120) (symbol (at 0 0 0)))`},
		{name: "unbalanced", input: `(kicad_sch (version 20231120)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
