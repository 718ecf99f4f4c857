package netlist

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrIntegrity matches every *IntegrityError
	ErrIntegrity = errors.New("netlist: referential integrity")

	// ErrIllegalMerge matches every *IllegalMergeError
	ErrIllegalMerge = errors.New("netlist: illegal merge")
)

// IntegrityError reports an id that does not resolve in its owning map.
// It is fatal for the load or edit that hit it.
type IntegrityError struct {
	Kind  string    // kind of the missing object, e.g. "net"
	ID    uuid.UUID // the missing id
	Owner string    // what referenced it, e.g. "component R1 pin 1"
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("netlist: %s %s referenced by %s does not exist", e.Kind, e.ID, e.Owner)
}

// Is makes errors.Is(err, ErrIntegrity) work
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// IllegalMergeError is returned by CheckMerge when joining two nodes would
// break the bus or power structure of the design.
type IllegalMergeError struct {
	Net    uuid.UUID
	Into   uuid.UUID
	Reason string
}

func (e *IllegalMergeError) Error() string {
	return fmt.Sprintf("netlist: cannot merge %s into %s: %s", e.Net, e.Into, e.Reason)
}

// Is makes errors.Is(err, ErrIllegalMerge) work
func (e *IllegalMergeError) Is(target error) bool {
	return target == ErrIllegalMerge
}

func integrityError(kind string, id uuid.UUID, format string, args ...any) error {
	return &IntegrityError{Kind: kind, ID: id, Owner: fmt.Sprintf(format, args...)}
}
