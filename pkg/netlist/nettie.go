package netlist

import "github.com/google/uuid"

// NetTie deliberately joins two distinct nets, letting them share copper
type NetTie struct {
	UUID         uuid.UUID
	NetPrimary   Ref[Net]
	NetSecondary Ref[Net]
}

// Other returns the id of the net on the other side of the tie, or uuid.Nil if
// net is not one of its ends
func (t *NetTie) Other(net uuid.UUID) uuid.UUID {
	switch net {
	case t.NetPrimary.UUID:
		return t.NetSecondary.UUID
	case t.NetSecondary.UUID:
		return t.NetPrimary.UUID
	default:
		return uuid.Nil
	}
}

// Ties reports whether the tie joins a and b, in either order
func (t *NetTie) Ties(a, b uuid.UUID) bool {
	return (t.NetPrimary.UUID == a && t.NetSecondary.UUID == b) ||
		(t.NetPrimary.UUID == b && t.NetSecondary.UUID == a)
}
