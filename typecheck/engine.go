// Package typecheck implements the Type-Check Engine (spec.md §4.5): two
// mutually recursive routines that walk a datatype combinator tree in
// parallel with a buffer tree, compute the multipliers relating the two,
// and report a structured diagnostic on mismatch. The engine is
// state-free between calls; every check is a pure recursion over its two
// input trees.
package typecheck

import (
	"github.com/typeart-go/typeart/buffertree"
	"github.com/typeart-go/typeart/combinator"
	"github.com/typeart-go/typeart/typeid"
)

// Multipliers scales a user-supplied element count (Type) and a buffer's
// element count (Buffer) so that comparing the two scaled values is a
// uniform size check (spec.md GLOSSARY).
type Multipliers struct {
	Type   int
	Buffer int
}

// CheckTypeAndCount checks that buf is large enough and compatible with dt
// for elementCount elements (spec.md §4.5.1). All arithmetic here assumes
// the host's int is wide enough to hold a byte-extent product without
// overflow for realistic buffer sizes — the same assumption the original
// C++ implementation makes computing in size_t (spec.md §9, open question
// (a)).
func CheckTypeAndCount(buf buffertree.Buffer, dt combinator.Combinator, elementCount int) error {
	multipliers, err := CheckType(buf, dt)
	if err != nil {
		if buf.IsStruct() && len(buf.Members) > 0 && buf.Members[0].Offset == 0 {
			return CheckTypeAndCount(buf.Members[0], dt, elementCount)
		}
		return err
	}
	required := elementCount * multipliers.Type
	available := buf.Count * multipliers.Buffer
	if required > available {
		return InsufficientBufferSize{Actual: available, Required: required}
	}
	return nil
}

// CheckType checks that buf's type is compatible with dt, returning the
// multipliers relating their element counts (spec.md §4.5.2).
func CheckType(buf buffertree.Buffer, dt combinator.Combinator) (Multipliers, error) {
	switch dt.Kind {
	case combinator.Named:
		return checkNamed(buf, dt)
	case combinator.Dup:
		return CheckType(buf, dt.TypeArgs[0])
	case combinator.Contiguous:
		return checkContiguous(buf, dt)
	case combinator.Vector:
		return checkVector(buf, dt)
	case combinator.IndexedBlock:
		return checkIndexedBlock(buf, dt)
	case combinator.Struct:
		return checkStruct(buf, dt)
	case combinator.Subarray:
		return checkSubarray(buf, dt)
	default:
		return Multipliers{}, UnsupportedCombiner{CombinerName: dt.CombinerName}
	}
}

func is128BitFloat(id typeid.ID) bool {
	return id == typeid.FP128 || id == typeid.PPCFP128
}

func checkNamed(buf buffertree.Buffer, dt combinator.Combinator) (Multipliers, error) {
	if buf.Type.IsInvalid() {
		return Multipliers{}, NullBuffer{}
	}
	if dt.MappedTypeID == typeid.Byte {
		return Multipliers{Type: 1, Buffer: buf.Type.Size}, nil
	}
	if buf.Type.ID != dt.MappedTypeID && !(is128BitFloat(buf.Type.ID) && is128BitFloat(dt.MappedTypeID)) {
		return Multipliers{}, BuiltinTypeMismatch{BufferTypeName: buf.Type.Name, MPITypeName: dt.Name}
	}
	return Multipliers{Type: 1, Buffer: 1}, nil
}

func checkContiguous(buf buffertree.Buffer, dt combinator.Combinator) (Multipliers, error) {
	count := dt.IntegerArgs[0]
	child, err := CheckType(buf, dt.TypeArgs[0])
	if err != nil {
		return Multipliers{}, err
	}
	return Multipliers{Type: child.Type * count, Buffer: child.Buffer}, nil
}

func checkVector(buf buffertree.Buffer, dt combinator.Combinator) (Multipliers, error) {
	count := dt.IntegerArgs[0]
	blocklength := dt.IntegerArgs[1]
	stride := dt.IntegerArgs[2]
	if stride < 0 {
		return Multipliers{}, UnsupportedCombinerArgs{
			Message: "negative strides for MPI_Type_vector are currently not supported",
		}
	}
	child, err := CheckType(buf, dt.TypeArgs[0])
	if err != nil {
		return Multipliers{}, err
	}
	span := (count-1)*stride + blocklength
	return Multipliers{Type: child.Type * span, Buffer: child.Buffer}, nil
}

func checkIndexedBlock(buf buffertree.Buffer, dt combinator.Combinator) (Multipliers, error) {
	count := dt.IntegerArgs[0]
	blocklength := dt.IntegerArgs[1]
	displacements := dt.IntegerArgs[2 : 2+count]
	maxDisp := displacements[0]
	for _, d := range displacements {
		if d < 0 {
			return Multipliers{}, UnsupportedCombinerArgs{
				Message: "negative displacements for MPI_Type_create_indexed_block are currently not supported",
			}
		}
		if d > maxDisp {
			maxDisp = d
		}
	}
	child, err := CheckType(buf, dt.TypeArgs[0])
	if err != nil {
		return Multipliers{}, err
	}
	return Multipliers{Type: child.Type * (maxDisp + blocklength), Buffer: child.Buffer}, nil
}

func checkStruct(buf buffertree.Buffer, dt combinator.Combinator) (Multipliers, error) {
	if !buf.IsStruct() {
		return Multipliers{}, BufferNotOfStructType{BufferTypeName: buf.Type.Name}
	}
	count := dt.IntegerArgs[0]
	blocklengths := dt.IntegerArgs[1 : 1+count]
	if len(buf.Members) != count {
		return Multipliers{}, MemberCountMismatch{
			BufferTypeName: buf.Type.Name,
			BufferCount:    len(buf.Members),
			MPICount:       count,
		}
	}

	var errs []Error
	for i := range buf.Members {
		if buf.Members[i].Offset != dt.AddressArgs[i] {
			errs = append(errs, MemberOffsetMismatch{
				TypeName:     buf.Type.Name,
				Member:       i + 1,
				StructOffset: buf.Members[i].Offset,
				MPIOffset:    dt.AddressArgs[i],
			})
		}
	}
	for i := range buf.Members {
		child, err := CheckType(buf.Members[i], dt.TypeArgs[i])
		if err != nil {
			errs = append(errs, MemberTypeMismatch{Member: i + 1, Err: err.(Error)})
			continue
		}
		required := blocklengths[i] * child.Type
		available := buf.Members[i].Count * child.Buffer
		if required != available {
			errs = append(errs, MemberElementCountMismatch{
				TypeName: buf.Type.Name,
				Member:   i + 1,
				Count:    required,
				MPICount: available,
			})
		}
	}
	if len(errs) > 0 {
		return Multipliers{}, StructContentsMismatch{Errors: errs}
	}
	return Multipliers{Type: 1, Buffer: 1}, nil
}

func checkSubarray(buf buffertree.Buffer, dt combinator.Combinator) (Multipliers, error) {
	ndims := dt.IntegerArgs[0]
	sizes := dt.IntegerArgs[1 : 1+ndims]
	elementCount := 1
	for _, s := range sizes {
		elementCount *= s
	}
	child, err := CheckType(buf, dt.TypeArgs[0])
	if err != nil {
		return Multipliers{}, err
	}
	return Multipliers{Type: child.Type * elementCount, Buffer: child.Buffer}, nil
}
