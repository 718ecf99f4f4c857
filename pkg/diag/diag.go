// Package diag collects non-fatal design warnings produced while inferring
// connectivity. Warnings never abort an edit; they are attached to the sheet
// or board that produced them and displayed to the user.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/netcore/pkg/geom"
)

// Kind classifies a warning
type Kind int

const (
	// AmbiguousSegment: a net segment carries two disagreeing net/bus sources
	AmbiguousSegment Kind = iota + 1
	// ShortedNets: copper joins pads of different nets without a net tie
	ShortedNets
	// DanglingRipper: a bus ripper refers to a member its bus no longer has
	DanglingRipper
	// BusNetConflict: a segment is declared both as a bus and as a net
	BusNetConflict
)

func (k Kind) String() string {
	switch k {
	case AmbiguousSegment:
		return "ambiguous-segment"
	case ShortedNets:
		return "shorted-nets"
	case DanglingRipper:
		return "dangling-ripper"
	case BusNetConflict:
		return "bus-net-conflict"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Warning is a single user-visible design conflict
type Warning struct {
	Kind     Kind
	Message  string
	Where    geom.Point
	HasWhere bool
	Objects  []uuid.UUID // primitives or nets involved
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(w.Kind.String())
	b.WriteString(": ")
	b.WriteString(w.Message)
	if w.HasWhere {
		b.WriteString(" at ")
		b.WriteString(w.Where.String())
	}
	return b.String()
}

// List accumulates warnings up to an optional limit (0 = unlimited)
type List struct {
	items   []Warning
	limit   int
	dropped int
}

// NewList creates a warning list holding at most limit warnings
func NewList(limit int) *List {
	return &List{limit: limit}
}

// Add appends a warning. Returns false if the limit was reached and the
// warning was dropped.
func (l *List) Add(w Warning) bool {
	if l.limit > 0 && len(l.items) >= l.limit {
		l.dropped++
		return false
	}
	l.items = append(l.items, w)
	return true
}

// Addf is a convenience wrapper around Add for warnings without a position
func (l *List) Addf(kind Kind, objects []uuid.UUID, format string, args ...any) bool {
	return l.Add(Warning{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Objects: objects,
	})
}

// Items returns the collected warnings. The slice must not be modified.
func (l *List) Items() []Warning {
	return l.items
}

// Len returns the number of collected warnings
func (l *List) Len() int {
	return len(l.items)
}

// Dropped returns how many warnings were discarded because of the limit
func (l *List) Dropped() int {
	return l.dropped
}

// HasKind reports whether any collected warning is of the given kind
func (l *List) HasKind(k Kind) bool {
	for i := range l.items {
		if l.items[i].Kind == k {
			return true
		}
	}
	return false
}

// Reset clears all warnings, keeping the limit
func (l *List) Reset() {
	l.items = l.items[:0]
	l.dropped = 0
}

// Sort orders warnings by kind, then message, for stable output
func (l *List) Sort() {
	sort.SliceStable(l.items, func(i, j int) bool {
		a, b := l.items[i], l.items[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Message < b.Message
	})
}
