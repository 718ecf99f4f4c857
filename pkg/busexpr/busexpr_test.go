package busexpr

import (
	"reflect"
	"testing"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "ascending vector",
			input: "D[0..3]",
			want:  []string{"D0", "D1", "D2", "D3"},
		},
		{
			name:  "descending vector",
			input: "A[2..0]",
			want:  []string{"A2", "A1", "A0"},
		},
		{
			name:  "single element vector",
			input: "CS[5..5]",
			want:  []string{"CS5"},
		},
		{
			name:  "anonymous group",
			input: "{SDA SCL}",
			want:  []string{"SDA", "SCL"},
		},
		{
			name:  "prefixed group with commas",
			input: "I2C{SDA, SCL}",
			want:  []string{"I2C.SDA", "I2C.SCL"},
		},
		{
			name:  "group with nested vector",
			input: "MEM{A[0..1] WE}",
			want:  []string{"MEM.A0", "MEM.A1", "MEM.WE"},
		},
		{
			name:  "names with digits and signs",
			input: "{3V3 +5V /RESET}",
			want:  []string{"3V3", "+5V", "/RESET"},
		},
		{
			name:  "plain name",
			input: "CLK",
			want:  []string{"CLK"},
		},
		{
			name:    "empty",
			input:   "  ",
			wantErr: true,
		},
		{
			name:    "unterminated range",
			input:   "D[0..]",
			wantErr: true,
		},
		{
			name:    "empty group",
			input:   "{}",
			wantErr: true,
		},
		{
			name:    "range too large",
			input:   "D[0..5000]",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expand(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsBusLabel(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"D[0..7]", true},
		{"{SDA SCL}", true},
		{"GND", false},
		{"D[", false},
	}

	for _, tt := range tests {
		if got := IsBusLabel(tt.input); got != tt.want {
			t.Errorf("IsBusLabel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
