// Package undo keeps full snapshots of a Block for undo and redo. Snapshots
// are msgpack encodings of the Block's persisted record, so restoring one
// goes through the same reference validation as loading a file.
package undo

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/OpenTraceLab/netcore/pkg/netlist"
	"github.com/OpenTraceLab/netcore/pkg/pool"
)

// DefaultDepth is the number of snapshots kept when no depth is given
const DefaultDepth = 50

var (
	ErrNothingToUndo = errors.New("undo: nothing to undo")
	ErrNothingToRedo = errors.New("undo: nothing to redo")
)

type snapshot struct {
	label string
	data  []byte
}

// History is a linear undo stack. Push records the state after an edit;
// Undo and Redo step the cursor and return a fresh copy of that state.
type History struct {
	pool   pool.Pool
	depth  int
	states []snapshot
	cursor int
}

// New creates a history keeping at most depth snapshots. Restored blocks
// resolve their library objects through p, which may be nil.
func New(p pool.Pool, depth int) *History {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &History{pool: p, depth: depth, cursor: -1}
}

// Push records b as the newest state. Any states that were undone are
// discarded.
func (h *History) Push(label string, b *netlist.Block) error {
	data, err := encode(b)
	if err != nil {
		return fmt.Errorf("undo: snapshot %q: %w", label, err)
	}

	h.states = append(h.states[:h.cursor+1], snapshot{label: label, data: data})
	if over := len(h.states) - h.depth; over > 0 {
		h.states = h.states[over:]
	}
	h.cursor = len(h.states) - 1
	return nil
}

// Undo steps back one state and returns a copy of it
func (h *History) Undo() (*netlist.Block, error) {
	if !h.CanUndo() {
		return nil, ErrNothingToUndo
	}
	b, err := h.restore(h.cursor - 1)
	if err != nil {
		return nil, err
	}
	h.cursor--
	return b, nil
}

// Redo steps forward one state and returns a copy of it
func (h *History) Redo() (*netlist.Block, error) {
	if !h.CanRedo() {
		return nil, ErrNothingToRedo
	}
	b, err := h.restore(h.cursor + 1)
	if err != nil {
		return nil, err
	}
	h.cursor++
	return b, nil
}

// CanUndo reports whether an older state exists
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether an undone state exists
func (h *History) CanRedo() bool {
	return h.cursor >= 0 && h.cursor < len(h.states)-1
}

// Len returns the number of stored snapshots
func (h *History) Len() int {
	return len(h.states)
}

// Label returns the label of the current state
func (h *History) Label() string {
	if h.cursor < 0 {
		return ""
	}
	return h.states[h.cursor].label
}

func (h *History) restore(i int) (*netlist.Block, error) {
	s := h.states[i]
	var rec netlist.BlockRecord
	dec := msgpack.NewDecoder(bytes.NewReader(s.data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("undo: decode %q: %w", s.label, err)
	}
	b, err := netlist.FromRecord(&rec, h.pool)
	if err != nil {
		return nil, fmt.Errorf("undo: restore %q: %w", s.label, err)
	}
	return b, nil
}

func encode(b *netlist.Block) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(b.Record()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
