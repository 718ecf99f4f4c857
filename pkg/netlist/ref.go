package netlist

import "github.com/google/uuid"

// Ref is a non-owning reference to an object owned elsewhere, usually in one
// of a Block's maps. It keeps the object's id next to a cached pointer so the
// pointer can be re-resolved after the owning map was copied.
type Ref[T any] struct {
	UUID uuid.UUID
	ptr  *T
}

// NewRef creates a reference to p, which must be stored under id
func NewRef[T any](id uuid.UUID, p *T) Ref[T] {
	return Ref[T]{UUID: id, ptr: p}
}

// RefID creates an unresolved reference; Resolve must run before Get
func RefID[T any](id uuid.UUID) Ref[T] {
	return Ref[T]{UUID: id}
}

// Get returns the cached pointer (nil when unset or unresolved)
func (r Ref[T]) Get() *T {
	return r.ptr
}

// IsSet reports whether the reference names an object
func (r Ref[T]) IsSet() bool {
	return r.UUID != uuid.Nil
}

// Resolve looks the id up in m and caches the result.
// Returns false if the reference is set but the id is missing.
func (r *Ref[T]) Resolve(m map[uuid.UUID]*T) bool {
	if !r.IsSet() {
		r.ptr = nil
		return true
	}
	p, ok := m[r.UUID]
	r.ptr = p
	return ok
}

// Clear unsets the reference
func (r *Ref[T]) Clear() {
	r.UUID = uuid.Nil
	r.ptr = nil
}
