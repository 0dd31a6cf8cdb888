// Package alloc describes the Allocation Query external collaborator (spec
// component 1): given a pointer, it answers what element type and element
// count is registered for that memory region.
package alloc

import "github.com/typeart-go/typeart/typeid"

// Query is the Allocation Query external collaborator.
type Query interface {
	// Lookup returns the registered element type id and element count for
	// ptr. A non-nil error means the registry has no record of ptr (or
	// otherwise failed); the caller wraps it as builderr.TypeARTError.
	Lookup(ptr uintptr) (typeid.ID, int, error)
}
