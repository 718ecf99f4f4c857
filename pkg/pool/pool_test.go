package pool

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryPool(t *testing.T) {
	p := NewMemoryPool()

	u := NewUnit("R", "1", "2")
	e := NewEntity("Device:R", "R")
	g := e.AddGate("Main", u)
	part := &Part{ID: uuid.New(), MPN: "RC0603", Value: "10k", Entity: e}
	p.AddPart(part)

	got, err := p.GetEntity(e.ID)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got != e {
		t.Errorf("GetEntity returned a different entity")
	}

	if _, err := p.GetPart(part.ID); err != nil {
		t.Errorf("GetPart: %v", err)
	}

	_, err = p.GetEntity(uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	pin, ok := u.PinByName("2")
	if !ok {
		t.Fatal("pin 2 not found")
	}
	if !e.HasPin(g.ID, pin.ID) {
		t.Errorf("HasPin(gate, pin 2) = false")
	}
	if e.HasPin(uuid.New(), pin.ID) {
		t.Errorf("HasPin with unknown gate = true")
	}

	if found, ok := p.EntityByName("Device:R"); !ok || found != e {
		t.Errorf("EntityByName failed")
	}
}

func TestSortedPins(t *testing.T) {
	u := NewUnit("U", "B", "A", "C")
	pins := u.SortedPins()
	if pins[0].Name != "A" || pins[1].Name != "B" || pins[2].Name != "C" {
		t.Errorf("pins not sorted: %s %s %s", pins[0].Name, pins[1].Name, pins[2].Name)
	}
}
