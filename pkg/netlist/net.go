package netlist

import (
	"github.com/google/uuid"
)

// PowerSymbolStyle selects how power symbols of a power net are drawn
type PowerSymbolStyle string

const (
	PowerSymbolGND     PowerSymbolStyle = "gnd"
	PowerSymbolEarth   PowerSymbolStyle = "earth"
	PowerSymbolDot     PowerSymbolStyle = "dot"
	PowerSymbolAntenna PowerSymbolStyle = "antenna"
)

// PortDirection is the direction of a net exported as a hierarchical port
type PortDirection string

const (
	PortBidirectional PortDirection = "bidirectional"
	PortInput         PortDirection = "input"
	PortOutput        PortDirection = "output"
)

// Net is one electrical node of the design
type Net struct {
	UUID             uuid.UUID
	Name             string
	IsPower          bool
	PowerSymbolStyle PowerSymbolStyle
	NetClass         Ref[NetClass]

	// Diffpair partner. Both sides point at each other; only the master side
	// is written when serializing.
	Diffpair       Ref[Net]
	DiffpairMaster bool

	IsPort        bool
	PortDirection PortDirection
	HRefs         []string

	// Transient, refreshed by Block.UpdateConnectionCount
	NPinsConnected int
	IsBussed       bool
}

// IsNamed reports whether the user gave the net a name
func (n *Net) IsNamed() bool {
	return n.Name != ""
}

// DisplayName returns the net name, or a placeholder derived from the id
func (n *Net) DisplayName() string {
	if n.IsNamed() {
		return n.Name
	}
	return "?" + n.UUID.String()[:8]
}

// HasDiffpair reports whether the net is one side of a diffpair
func (n *Net) HasDiffpair() bool {
	return n.Diffpair.IsSet()
}

// netLess orders nets by name, then id
func netLess(a, b *Net) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.UUID.String() < b.UUID.String()
}

func uuidLess(a, b uuid.UUID) bool {
	return a.String() < b.String()
}
