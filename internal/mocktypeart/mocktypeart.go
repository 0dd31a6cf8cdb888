// Package mocktypeart provides in-memory test doubles for the external
// collaborators the checker composes: the Allocation Query, the Type
// Registry, the messaging Library, the rank query, and the source-location
// resolver. The buffertree, combinator, callctx and shim tests build their
// fixtures against these instead of a real MPI runtime.
package mocktypeart

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/typeart-go/typeart/base/iter"
	basesync "github.com/typeart-go/typeart/base/sync"
	"github.com/typeart-go/typeart/callctx"
	"github.com/typeart-go/typeart/combinator"
	"github.com/typeart-go/typeart/typeid"
)

// Registry is a typeid.Registry backed by a concurrency-safe map, since the
// real registry is specified as safe for concurrent reads (spec.md §5) and
// buffertree.Builder fans out struct-member resolution across goroutines.
type Registry struct {
	descriptors basesync.Map[typeid.ID, *typeid.Descriptor]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterBuiltin registers id as a leaf type with the given name and byte
// size.
func (r *Registry) RegisterBuiltin(id typeid.ID, name string, size int) {
	d := typeid.Descriptor{Kind: typeid.Builtin, Type: typeid.Type{ID: id, Name: name, Size: size}}
	r.descriptors.Store(id, &d)
}

// RegisterStruct registers id as a struct type.
func (r *Registry) RegisterStruct(id typeid.ID, sd typeid.StructDescriptor) {
	d := typeid.Descriptor{
		Kind:   typeid.Struct,
		Type:   typeid.Type{ID: id, Name: sd.Name, Size: sd.Extent},
		Struct: sd,
	}
	r.descriptors.Store(id, &d)
}

// RegisterAll registers every descriptor in every given slice, walking them
// with a single iter.All the way the teacher merges independently-sourced
// slices in golang/packager/pkginfo/pkginfo.go.
func (r *Registry) RegisterAll(batches ...[]typeid.Descriptor) {
	for d := range iter.All(batches...) {
		r.descriptors.Store(d.Type.ID, &d)
	}
}

// Resolve implements typeid.Registry.
func (r *Registry) Resolve(id typeid.ID) (typeid.Descriptor, error) {
	d := r.descriptors.Load(id)
	if d == nil {
		return typeid.Descriptor{}, errors.Wrapf(typeid.ErrUnknownID, "id %d", int(id))
	}
	return *d, nil
}

// RegisteredIDs returns every id currently registered, in unspecified
// order. Used by tests that assert a fixture populated the expected set of
// types without caring about registration order.
func (r *Registry) RegisteredIDs() []typeid.ID {
	m := make(map[typeid.ID]*typeid.Descriptor)
	for id, d := range r.descriptors.Iter() {
		m[id] = d
	}
	return maps.Keys(m)
}

// Alloc is an alloc.Query backed by a concurrency-safe map.
type Alloc struct {
	entries basesync.Map[uintptr, *allocEntry]
}

type allocEntry struct {
	typeID typeid.ID
	count  int
}

// NewAlloc returns an empty Alloc.
func NewAlloc() *Alloc {
	return &Alloc{}
}

// Register records that ptr is a count-element buffer of type id.
func (a *Alloc) Register(ptr uintptr, id typeid.ID, count int) {
	a.entries.Store(ptr, &allocEntry{typeID: id, count: count})
}

// Lookup implements alloc.Query.
func (a *Alloc) Lookup(ptr uintptr) (typeid.ID, int, error) {
	e := a.entries.Load(ptr)
	if e == nil {
		return 0, 0, errors.Errorf("no allocation registered for address %#x", ptr)
	}
	return e.typeID, e.count, nil
}

// Library is a combinator.Library backed by a fixed, pre-built tree.
type Library struct {
	handles basesync.Map[combinator.Handle, *handleEntry]
	next    combinator.Handle
}

type handleEntry struct {
	combinerID                              int
	numIntegers, numAddresses, numDatatypes int
	integerArgs, addressArgs                []int
	datatypes                               []combinator.Handle
	name                                    string
}

// NewLibrary returns an empty Library.
func NewLibrary() *Library {
	return &Library{next: 1}
}

// DefineNamed registers a new Named handle and returns it.
func (l *Library) DefineNamed(name string) combinator.Handle {
	h := l.alloc()
	l.handles.Store(h, &handleEntry{combinerID: combinator.RawNamed, name: name})
	return h
}

// DefineComposite registers a new composite handle (Contiguous, Vector,
// IndexedBlock, Struct, Subarray, Dup, or an unrecognized raw id) built
// from the given arguments and child datatypes, and returns it.
func (l *Library) DefineComposite(combinerID int, name string, integerArgs, addressArgs []int, datatypes ...combinator.Handle) combinator.Handle {
	h := l.alloc()
	l.handles.Store(h, &handleEntry{
		combinerID:   combinerID,
		numIntegers:  len(integerArgs),
		numAddresses: len(addressArgs),
		numDatatypes: len(datatypes),
		integerArgs:  integerArgs,
		addressArgs:  addressArgs,
		datatypes:    datatypes,
		name:         name,
	})
	return h
}

func (l *Library) alloc() combinator.Handle {
	h := l.next
	l.next++
	return h
}

// Envelope implements combinator.Library.
func (l *Library) Envelope(h combinator.Handle) (int, int, int, int, error) {
	e := l.handles.Load(h)
	if e == nil {
		return 0, 0, 0, 0, errors.Errorf("unknown datatype handle %v", h)
	}
	return e.combinerID, e.numIntegers, e.numAddresses, e.numDatatypes, nil
}

// Contents implements combinator.Library.
func (l *Library) Contents(h combinator.Handle, _, _, _ int) ([]int, []int, []combinator.Handle, error) {
	e := l.handles.Load(h)
	if e == nil {
		return nil, nil, nil, errors.Errorf("unknown datatype handle %v", h)
	}
	return e.integerArgs, e.addressArgs, e.datatypes, nil
}

// Name implements combinator.Library.
func (l *Library) Name(h combinator.Handle) (string, error) {
	e := l.handles.Load(h)
	if e == nil {
		return "", errors.Errorf("unknown datatype handle %v", h)
	}
	return e.name, nil
}

// Rank is a callctx.RankQuerier returning a fixed rank.
type Rank int

// Rank implements callctx.RankQuerier.
func (r Rank) Rank() (int, error) {
	return int(r), nil
}

// FailingRank is a callctx.RankQuerier that always fails, for exercising
// the MPIError path of callctx.Create.
type FailingRank struct{}

// Rank implements callctx.RankQuerier.
func (FailingRank) Rank() (int, error) {
	return 0, errors.New("MPI_Comm_rank failed: communicator is invalid")
}

// SourceLocation is a callctx.SourceLocationResolver backed by a fixed map
// from address to location.
type SourceLocation struct {
	locations basesync.Map[uintptr, *callctx.SourceLocation]
}

// NewSourceLocation returns an empty SourceLocation resolver.
func NewSourceLocation() *SourceLocation {
	return &SourceLocation{}
}

// Register records the source location for addr.
func (s *SourceLocation) Register(addr uintptr, loc callctx.SourceLocation) {
	s.locations.Store(addr, &loc)
}

// Resolve implements callctx.SourceLocationResolver.
func (s *SourceLocation) Resolve(addr uintptr) (callctx.SourceLocation, error) {
	loc := s.locations.Load(addr)
	if loc == nil {
		return callctx.SourceLocation{}, fmt.Errorf("no debug info for address %#x", addr)
	}
	return *loc, nil
}
