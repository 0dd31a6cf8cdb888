// Package typeid describes the language-level type system the checker
// compares message-passing datatypes against: a Type Registry external
// collaborator (spec component 2) that resolves a type id to either a
// built-in descriptor or a struct descriptor.
package typeid

import "github.com/pkg/errors"

// ID identifies a language-level type inside the registry.
type ID int

// Invalid is the sentinel id used for a buffer built from a nil pointer.
const Invalid ID = -1

// Reserved ids the engine treats specially. Byte is the dedicated
// integer-byte type (spec.md §4.5.2, §9(c): the mapping table "must at
// minimum distinguish the integer-byte type from all others"). FP128 and
// PPCFP128 are the two 128-bit float variants spec.md §3 and §9(c) require
// to be treated as mutually compatible regardless of which side of a
// comparison each one is on.
const (
	Byte     ID = 0
	FP128    ID = 1
	PPCFP128 ID = 2
)

// Kind distinguishes a leaf (built-in) type from a struct type.
type Kind int

const (
	// Builtin is a leaf, non-decomposable type (e.g. double, int, byte).
	Builtin Kind = iota
	// Struct is a type with an ordered list of members.
	Struct
)

func (k Kind) String() string {
	switch k {
	case Builtin:
		return "builtin"
	case Struct:
		return "struct"
	default:
		return "unknown"
	}
}

// Type is a language-level leaf type: {id, name, size}.
type Type struct {
	ID   ID
	Name string
	// Size is the byte size of one element of this type. For a struct type
	// this is the struct's total extent.
	Size int
}

// IsInvalid reports whether t is the invalid sentinel type.
func (t Type) IsInvalid() bool {
	return t.ID == Invalid
}

// Member describes one field of a struct as reported by the registry: its
// byte offset within the struct, its element count, and its own type id.
type Member struct {
	Offset int
	Count  int
	TypeID ID
}

// StructDescriptor is what the registry returns for a struct type id: a
// name, the struct's total byte extent, and its ordered members.
type StructDescriptor struct {
	Name    string
	Extent  int
	Members []Member
}

// Descriptor is the registry's answer to Resolve: either a built-in type or
// a struct type, tagged by Kind.
type Descriptor struct {
	Kind   Kind
	Type   Type
	Struct StructDescriptor // populated iff Kind == Struct
}

// ErrUnknownID is returned by Registry.Resolve when id is syntactically a
// valid id but the registry has no descriptor registered for it. Per
// spec.md §4.1, this is NOT a TypeARTError (the query itself succeeded) —
// it surfaces as builderr.InvalidArgument.
var ErrUnknownID = errors.New("no such type id")

// Registry is the Type Registry external collaborator (spec component 2).
type Registry interface {
	// Resolve returns the descriptor for id, or wraps ErrUnknownID if id is
	// not registered.
	Resolve(id ID) (Descriptor, error)
}
