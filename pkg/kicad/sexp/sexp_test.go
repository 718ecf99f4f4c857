package sexp

import (
	"testing"

	"github.com/OpenTraceLab/netcore/pkg/geom"
)

// Helper to parse s-expression from string
func parseSexp(t *testing.T, input string) Sexp {
	t.Helper()
	sexps, err := ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse s-expression %q: %v", input, err)
	}
	if len(sexps) == 0 {
		t.Fatalf("No s-expressions parsed from %q", input)
	}
	return sexps[0]
}

func TestParseString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		count   int
		wantErr bool
	}{
		{name: "empty", input: "", count: 0},
		{name: "flat", input: "(layer F.Cu)", want: "(layer F.Cu)", count: 1},
		{name: "nested", input: "(at (xy 1 2))", want: "(at (xy 1 2))", count: 1},
		{name: "quoted spaces kept", input: `(label "RESET OUT")`, want: `(label "RESET OUT")`, count: 1},
		{name: "escaped quote", input: `(text "a \"b\"")`, want: `(text "a \"b\"")`, count: 1},
		{name: "two roots", input: "(a) (b)", want: "(a)", count: 2},
		{name: "unterminated list", input: "(a (b)", wantErr: true},
		{name: "unterminated string", input: `(a "b)`, wantErr: true},
		{name: "stray paren", input: ")", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseString(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.count {
				t.Fatalf("got %d expressions, want %d", len(got), tt.count)
			}
			if tt.count > 0 && got[0].String() != tt.want {
				t.Errorf("got %s, want %s", got[0], tt.want)
			}
		})
	}
}

func TestQuotedAtomIsNotNodeName(t *testing.T) {
	s := parseSexp(t, `("wire" 1)`)
	if _, err := GetNodeName(s); err == nil {
		t.Error("quoted head accepted as node name")
	}
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		index   int
		want    string
		wantErr bool
	}{
		{name: "head", input: "(layer F.Cu)", index: 0, want: "layer"},
		{name: "symbol", input: "(layer F.Cu)", index: 1, want: "F.Cu"},
		{name: "quoted", input: `(net 1 "GND")`, index: 2, want: "GND"},
		{name: "out of range", input: "(layer F.Cu)", index: 5, wantErr: true},
		{name: "not an atom", input: "(a (b))", index: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetString(parseSexp(t, tt.input), tt.index)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	s := parseSexp(t, "(width 0.25 7 x)")
	if f, err := GetFloat(s, 1); err != nil || f != 0.25 {
		t.Errorf("GetFloat = %v, %v", f, err)
	}
	if i, err := GetInt(s, 2); err != nil || i != 7 {
		t.Errorf("GetInt = %v, %v", i, err)
	}
	if _, err := GetFloat(s, 3); err == nil {
		t.Error("GetFloat accepted x")
	}
	if _, err := GetInt(s, 1); err == nil {
		t.Error("GetInt accepted 0.25")
	}
}

func TestFindNodes(t *testing.T) {
	root := parseSexp(t, `(kicad_sch (wire 1) (junction) (wire 2) (x (wire 3)))`)

	if _, ok := FindNode(root, "junction"); !ok {
		t.Error("junction not found")
	}
	if _, ok := FindNode(root, "missing"); ok {
		t.Error("found missing node")
	}
	wires := FindAllNodes(root, "wire")
	if len(wires) != 2 {
		t.Fatalf("got %d wires, want 2 direct children", len(wires))
	}
	if got, _ := GetString(wires[1], 1); got != "2" {
		t.Errorf("second wire = %s", wires[1])
	}
}

func TestGetAt(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantPos   geom.Point
		wantAngle float64
		wantErr   bool
	}{
		{name: "no angle", input: "(symbol (at 2.54 -1.27))", wantPos: geom.Point{X: 2540000, Y: -1270000}},
		{name: "angle", input: "(symbol (at 10 20 90))", wantPos: geom.Point{X: 10000000, Y: 20000000}, wantAngle: 90},
		{name: "missing", input: "(symbol)", wantErr: true},
		{name: "bad number", input: "(symbol (at a 1))", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, angle, err := GetAt(parseSexp(t, tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if pos != tt.wantPos || angle != tt.wantAngle {
				t.Errorf("got %v %v, want %v %v", pos, angle, tt.wantPos, tt.wantAngle)
			}
		})
	}
}

func TestGetUUID(t *testing.T) {
	const id = "862335ee-c981-4fe1-9eb9-84db19301dd4"
	for _, input := range []string{
		"(wire (uuid " + id + "))",
		`(wire (uuid "` + id + `"))`,
		"(segment (tstamp " + id + "))",
	} {
		got, err := GetUUID(parseSexp(t, input))
		if err != nil || got.String() != id {
			t.Errorf("GetUUID(%s) = %v, %v", input, got, err)
		}
	}
	if _, err := GetUUID(parseSexp(t, "(wire (uuid nope))")); err == nil {
		t.Error("accepted invalid uuid")
	}
}

func TestPropertyAndSymbol(t *testing.T) {
	s := parseSexp(t, `(symbol "power:GND" (power) (in_bom no)
		(property "Reference" "#PWR01" (at 0 0 0))
		(property "Value" "GND"))`)

	if v, ok := GetProperty(s, "Value"); !ok || v != "GND" {
		t.Errorf("Value = %q, %v", v, ok)
	}
	if _, ok := GetProperty(s, "Footprint"); ok {
		t.Error("found missing property")
	}
	if _, ok := FindNode(s, "power"); !ok {
		t.Error("(power) flag not found")
	}
	inBOM, _ := FindNode(s, "in_bom")
	if !HasSymbol(inBOM, "no") || HasSymbol(inBOM, "yes") {
		t.Errorf("HasSymbol on %s", inBOM)
	}
}
