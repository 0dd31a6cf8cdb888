// Package buffertree implements the Buffer Descriptor Builder (spec.md
// §4.1): it composes the Allocation Query and Type Registry external
// collaborators into a buffer tree for a pointer.
package buffertree

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/typeart-go/typeart/alloc"
	"github.com/typeart-go/typeart/builderr"
	"github.com/typeart-go/typeart/typeid"
)

// Buffer is a buffer tree node (spec.md §3, "Buffer node").
type Buffer struct {
	// Offset is the byte offset of this node within its parent struct; 0 at
	// the root.
	Offset int
	// Ptr is the raw address this node describes; may be zero.
	Ptr   uintptr
	Count int
	Type  typeid.Type
	Kind  typeid.Kind
	// Members holds this node's children iff Kind == typeid.Struct.
	Members []Buffer
}

// IsStruct reports whether b decomposes into members.
func (b Buffer) IsStruct() bool {
	return b.Kind == typeid.Struct
}

// numWorkers bounds how many struct members are resolved concurrently.
const numWorkers = 16

// asyncErrors fans in builder failures from concurrent goroutines.
type asyncErrors struct {
	mu   sync.Mutex
	errs error
}

func (ae *asyncErrors) add(err error) {
	if err == nil {
		return
	}
	ae.mu.Lock()
	defer ae.mu.Unlock()
	ae.errs = multierr.Append(ae.errs, err)
}

func (ae *asyncErrors) errors() error {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.errs
}

// Builder materializes buffer trees from the Allocation Query and Type
// Registry external collaborators.
type Builder struct {
	Alloc    alloc.Query
	Registry typeid.Registry
}

// Build constructs the root buffer tree for ptr.
func (b *Builder) Build(ptr uintptr) (Buffer, error) {
	if ptr == 0 {
		return nilBuffer(0), nil
	}
	typeID, count, err := b.Alloc.Lookup(ptr)
	if err != nil {
		return Buffer{}, builderr.TypeARTError{
			Message: errors.Wrapf(err, "received an invalid pointer %#x", ptr).Error(),
		}
	}
	return b.build(ptr, 0, count, typeID)
}

func nilBuffer(offset int) Buffer {
	return Buffer{Offset: offset, Type: typeid.Type{ID: typeid.Invalid}}
}

// build constructs the node at ptr, where offset is its byte offset within
// its immediate parent struct (0 at the root).
func (b *Builder) build(ptr uintptr, offset, count int, typeID typeid.ID) (Buffer, error) {
	if ptr == 0 {
		return nilBuffer(offset), nil
	}
	desc, err := b.Registry.Resolve(typeID)
	if err != nil {
		return Buffer{}, builderr.InvalidArgument{
			Message: errors.Wrapf(err, "received an invalid type id %d", int(typeID)).Error(),
		}
	}
	if desc.Kind == typeid.Builtin {
		return Buffer{Offset: offset, Ptr: ptr, Count: count, Type: desc.Type, Kind: typeid.Builtin}, nil
	}
	members, err := b.buildMembers(ptr, desc.Struct)
	if err != nil {
		return Buffer{}, err
	}
	typ := desc.Type
	typ.Size = desc.Struct.Extent
	typ.Name = desc.Struct.Name
	return Buffer{Offset: offset, Ptr: ptr, Count: count, Type: typ, Kind: typeid.Struct, Members: members}, nil
}

// buildMembers resolves every member of sd concurrently, since the
// Allocation Query and Type Registry are specified as safe for concurrent
// reads (spec.md §5); this mirrors the teacher's loader worker pool in
// golang/encoding/loader.go.
func (b *Builder) buildMembers(ptr uintptr, sd typeid.StructDescriptor) ([]Buffer, error) {
	n := len(sd.Members)
	if n == 0 {
		return nil, nil
	}
	members := make([]Buffer, n)
	var ae asyncErrors
	var wg sync.WaitGroup
	sem := make(chan struct{}, numWorkers)
	for i, m := range sd.Members {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, m typeid.Member) {
			defer wg.Done()
			defer func() { <-sem }()
			child, err := b.build(ptr+uintptr(m.Offset), m.Offset, m.Count, m.TypeID)
			if err != nil {
				ae.add(err)
				return
			}
			members[i] = child
		}(i, m)
	}
	wg.Wait()
	if err := ae.errors(); err != nil {
		errs := multierr.Errors(err)
		return nil, errs[0]
	}
	return members, nil
}
