// Package config loads otnet.toml, the settings shared by the importers and
// the command line tool.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the config file looked up in the working directory
const FileName = "otnet.toml"

// Config controls import and reporting behaviour
type Config struct {
	Netlist     NetlistConfig     `toml:"netlist"`
	Import      ImportConfig      `toml:"import"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	History     HistoryConfig     `toml:"history"`

	powerRegex []*regexp.Regexp
}

type NetlistConfig struct {
	DefaultNetClass string   `toml:"default_net_class"`
	PowerNets       []string `toml:"power_nets"` // regular expressions, anchored
}

type ImportConfig struct {
	SnapToleranceMM float64 `toml:"snap_tolerance_mm"` // board track ends this close to a pad attach to it
}

type DiagnosticsConfig struct {
	WarningLimit int `toml:"warning_limit"` // 0 = unlimited
}

type HistoryConfig struct {
	Depth int `toml:"depth"`
}

// DefaultConfig returns a Config with sensible defaults for most designs
func DefaultConfig() *Config {
	c := &Config{
		Netlist: NetlistConfig{
			DefaultNetClass: "default",
			PowerNets:       []string{"GND.*", "AGND", "DGND", "VCC.*", "VDD.*", "VSS.*", `\+?[0-9]+V[0-9]*`},
		},
		Import: ImportConfig{
			SnapToleranceMM: 0.001,
		},
		Diagnostics: DiagnosticsConfig{
			WarningLimit: 100,
		},
		History: HistoryConfig{
			Depth: 50,
		},
	}
	if err := c.Validate(); err != nil {
		panic(fmt.Errorf("config: invalid defaults: %w", err))
	}
	return c
}

// Load reads the config at path over the defaults. With an empty path
// otnet.toml in the working directory is used if it exists.
func Load(path string) (*Config, error) {
	c := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks the configuration and compiles the power net patterns
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Netlist.DefaultNetClass) == "" {
		return fmt.Errorf("config: [netlist].default_net_class is empty")
	}
	if c.Import.SnapToleranceMM < 0 || math.IsNaN(c.Import.SnapToleranceMM) {
		return fmt.Errorf("config: [import].snap_tolerance_mm must not be negative")
	}
	if c.Diagnostics.WarningLimit < 0 {
		c.Diagnostics.WarningLimit = 0
	}
	if c.History.Depth < 1 {
		c.History.Depth = 1
	}

	c.powerRegex = c.powerRegex[:0]
	for _, p := range c.Netlist.PowerNets {
		re, err := regexp.Compile("^(?:" + p + ")$")
		if err != nil {
			return fmt.Errorf("config: power net pattern %q: %w", p, err)
		}
		c.powerRegex = append(c.powerRegex, re)
	}
	return nil
}

// IsPowerNet reports whether a net of this name is a power net
func (c *Config) IsPowerNet(name string) bool {
	for _, re := range c.powerRegex {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// SnapTolerance returns the snap tolerance in nanometres
func (c *Config) SnapTolerance() int64 {
	return int64(math.Round(c.Import.SnapToleranceMM * 1e6))
}
