package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Netlist.DefaultNetClass != "default" {
		t.Errorf("DefaultNetClass = %q", c.Netlist.DefaultNetClass)
	}
	if c.SnapTolerance() != 1000 {
		t.Errorf("SnapTolerance() = %d, want 1000", c.SnapTolerance())
	}
}

func TestIsPowerNet(t *testing.T) {
	c := DefaultConfig()
	tests := []struct {
		name string
		want bool
	}{
		{"GND", true},
		{"GNDA", true},
		{"+3V3", true},
		{"5V", true},
		{"VCC_IO", true},
		{"SDA", false},
		{"NGND", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsPowerNet(tt.name); got != tt.want {
				t.Errorf("IsPowerNet(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "overlay",
			path: write("ok.toml", `
[netlist]
power_nets = ["PWR_.*"]

[import]
snap_tolerance_mm = 0.05

[history]
depth = 5
`),
			check: func(t *testing.T, c *Config) {
				if !c.IsPowerNet("PWR_MAIN") || c.IsPowerNet("GND") {
					t.Error("power patterns not replaced")
				}
				if c.SnapTolerance() != 50000 {
					t.Errorf("SnapTolerance() = %d", c.SnapTolerance())
				}
				if c.History.Depth != 5 {
					t.Errorf("Depth = %d", c.History.Depth)
				}
				if c.Netlist.DefaultNetClass != "default" {
					t.Error("unset key lost its default")
				}
			},
		},
		{name: "missing explicit file", path: filepath.Join(dir, "none.toml"), wantErr: true},
		{name: "bad pattern", path: write("bad.toml", "[netlist]\npower_nets = [\"(\"]\n"), wantErr: true},
		{name: "unknown key", path: write("unknown.toml", "[netlist]\ncolour = 1\n"), wantErr: true},
		{name: "syntax", path: write("syntax.toml", "[netlist\n"), wantErr: true},
		{name: "negative tolerance", path: write("neg.toml", "[import]\nsnap_tolerance_mm = -1\n"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Load() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestLoadImplicitMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if c.History.Depth != DefaultConfig().History.Depth {
		t.Error("defaults not used")
	}
}
