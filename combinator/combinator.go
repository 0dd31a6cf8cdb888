// Package combinator implements the Datatype Descriptor Builder (spec.md
// §4.2): it queries the message-passing library for a datatype envelope and
// materializes an equivalent combinator tree.
package combinator

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/typeart-go/typeart/base/ordered"
	"github.com/typeart-go/typeart/base/stringseq"
	"github.com/typeart-go/typeart/builderr"
	"github.com/typeart-go/typeart/typeid"
)

// Kind tags a combinator node (spec.md §3).
type Kind int

const (
	Named Kind = iota
	Dup
	Contiguous
	Vector
	IndexedBlock
	Struct
	Subarray
	Other
)

func (k Kind) String() string {
	switch k {
	case Named:
		return "named"
	case Dup:
		return "dup"
	case Contiguous:
		return "contiguous"
	case Vector:
		return "vector"
	case IndexedBlock:
		return "indexed_block"
	case Struct:
		return "struct"
	case Subarray:
		return "subarray"
	default:
		return "other"
	}
}

// Raw combiner ids, the values Library.Envelope reports for each kind
// (spec.md §3 "Combinator node" kind table). Everything not listed here
// classifies as Other.
const (
	RawNamed        = 1
	RawDup          = 2
	RawContiguous   = 3
	RawVector       = 4
	RawIndexedBlock = 5
	RawStruct       = 6
	RawSubarray     = 7
)

var rawNames = map[int]string{
	RawNamed:        "MPI_COMBINER_NAMED",
	RawDup:          "MPI_COMBINER_DUP",
	RawContiguous:   "MPI_COMBINER_CONTIGUOUS",
	RawVector:       "MPI_COMBINER_VECTOR",
	RawIndexedBlock: "MPI_COMBINER_INDEXED_BLOCK",
	RawStruct:       "MPI_COMBINER_STRUCT",
	RawSubarray:     "MPI_COMBINER_SUBARRAY",
}

func classify(rawID int) Kind {
	switch rawID {
	case RawNamed:
		return Named
	case RawDup:
		return Dup
	case RawContiguous:
		return Contiguous
	case RawVector:
		return Vector
	case RawIndexedBlock:
		return IndexedBlock
	case RawStruct:
		return Struct
	case RawSubarray:
		return Subarray
	default:
		return Other
	}
}

// nameForRaw returns the combiner's human-readable name, used in
// UnsupportedCombiner diagnostics.
func nameForRaw(rawID int) string {
	if name, ok := rawNames[rawID]; ok {
		return name
	}
	return "MPI_COMBINER_UNKNOWN"
}

// Handle is an opaque message-passing datatype handle.
type Handle uintptr

// Combinator is a datatype combinator node (spec.md §3).
type Combinator struct {
	Kind         Kind
	IntegerArgs  []int
	AddressArgs  []int
	TypeArgs     []Combinator
	Name         string
	MappedTypeID typeid.ID
	CombinerName string
}

// String returns a debugging representation of c, e.g. "vector(4, 1, 3)"
// for a Vector combinator with those integer args. Mirrors the teacher's
// own fmt.String idiom of a compact human-readable form for diagnostics
// rather than a full recursive dump.
func (c Combinator) String() string {
	var b strings.Builder
	if c.Kind == Named {
		b.WriteString(c.Name)
		return b.String()
	}
	b.WriteString(c.Kind.String())
	if len(c.IntegerArgs) == 0 {
		return b.String()
	}
	b.WriteString("(")
	stringseq.Append(&b, func(yield func(string) bool) {
		for _, arg := range c.IntegerArgs {
			if !yield(strconv.Itoa(arg)) {
				return
			}
		}
	}, ", ")
	b.WriteString(")")
	return b.String()
}

// Library is the messaging-library external collaborator the builder
// queries (spec.md §6, "Messaging library: envelope/contents queries, type-
// name query").
type Library interface {
	// Envelope returns the raw combiner id and the argument-count shape for
	// h (MPI_Type_get_envelope).
	Envelope(h Handle) (combinerID, numIntegers, numAddresses, numDatatypes int, err error)
	// Contents returns the combiner's arguments (MPI_Type_get_contents).
	Contents(h Handle, numIntegers, numAddresses, numDatatypes int) (integerArgs []int, addressArgs []int, datatypes []Handle, err error)
	// Name returns the datatype's name (MPI_Type_get_name).
	Name(h Handle) (name string, err error)
}

// NewPredefinedTable returns an empty ordered table mapping a predefined
// NAMED handle to the language-level type id it corresponds to (spec.md
// §4.2, §9(c)): the fixed table must at minimum distinguish the
// integer-byte type from all others.
func NewPredefinedTable() *ordered.Map[Handle, typeid.ID] {
	return ordered.NewMap[Handle, typeid.ID]()
}

// Builder materializes combinator trees from the messaging Library and a
// fixed predefined-handle-to-type-id table.
type Builder struct {
	Lib        Library
	Predefined *ordered.Map[Handle, typeid.ID]
}

// PredefinedHandles returns every handle the predefined table currently
// maps to a language-level type id, in unspecified order, so a caller can
// list which predefined MPI datatypes this builder recognizes.
func (b *Builder) PredefinedHandles() []Handle {
	m := make(map[Handle]typeid.ID, b.Predefined.Size())
	for h, id := range b.Predefined.Iter() {
		m[h] = id
	}
	return maps.Keys(m)
}

// Build constructs the combinator tree rooted at h.
func (b *Builder) Build(h Handle) (Combinator, error) {
	rawID, numInts, numAddrs, numTypes, err := b.Lib.Envelope(h)
	if err != nil {
		return Combinator{}, builderr.MPIError{
			FunctionName: "MPI_Type_get_envelope",
			Message:      errors.Wrapf(err, "handle %v", h).Error(),
		}
	}
	name, err := b.Lib.Name(h)
	if err != nil {
		return Combinator{}, builderr.MPIError{
			FunctionName: "MPI_Type_get_name",
			Message:      errors.Wrapf(err, "handle %v", h).Error(),
		}
	}
	kind := classify(rawID)
	c := Combinator{
		Kind:         kind,
		Name:         name,
		MappedTypeID: typeid.Invalid,
		CombinerName: nameForRaw(rawID),
	}
	if kind == Named {
		if id, ok := b.Predefined.Load(h); ok {
			c.MappedTypeID = id
		}
		return c, nil
	}
	integerArgs, addressArgs, datatypes, err := b.Lib.Contents(h, numInts, numAddrs, numTypes)
	if err != nil {
		return Combinator{}, builderr.MPIError{
			FunctionName: "MPI_Type_get_contents",
			Message:      errors.Wrapf(err, "handle %v", h).Error(),
		}
	}
	c.IntegerArgs = integerArgs
	c.AddressArgs = addressArgs
	c.TypeArgs = make([]Combinator, len(datatypes))
	for i, th := range datatypes {
		child, err := b.Build(th)
		if err != nil {
			return Combinator{}, err
		}
		c.TypeArgs[i] = child
	}
	return c, nil
}
