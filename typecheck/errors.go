package typecheck

import (
	"fmt"

	gxfmt "github.com/typeart-go/typeart/base/fmt"
)

// Error is the TypeCheckError closed taxonomy (spec.md §7). A TypeCheckError
// means the call type-checked to completion and found a mismatch; it is
// distinct from builderr.Error, which means the call could not even be
// constructed.
type Error interface {
	error
	isTypeCheckError()
}

// NullCount is yielded when the call's element count is <= 0.
type NullCount struct{}

func (NullCount) Error() string    { return "element count is not positive" }
func (NullCount) isTypeCheckError() {}

// NullBuffer is yielded when the call's buffer pointer is nil.
type NullBuffer struct{}

func (NullBuffer) Error() string    { return "buffer is NULL" }
func (NullBuffer) isTypeCheckError() {}

// UnsupportedCombiner is yielded for a combinator kind the engine does not
// know how to check.
type UnsupportedCombiner struct {
	CombinerName string
}

func (e UnsupportedCombiner) Error() string {
	return fmt.Sprintf("the MPI type combiner %s is currently not supported", e.CombinerName)
}
func (UnsupportedCombiner) isTypeCheckError() {}

// InsufficientBufferSize is yielded when the buffer does not hold enough
// elements for the requested count.
type InsufficientBufferSize struct {
	Actual   int
	Required int
}

func (e InsufficientBufferSize) Error() string {
	return fmt.Sprintf("buffer too small (%d elements, %d required)", e.Actual, e.Required)
}
func (InsufficientBufferSize) isTypeCheckError() {}

// BuiltinTypeMismatch is yielded when a Named datatype's mapped type does
// not match the buffer's leaf type.
type BuiltinTypeMismatch struct {
	BufferTypeName string
	MPITypeName    string
}

func (e BuiltinTypeMismatch) Error() string {
	return fmt.Sprintf("expected a type matching MPI type %q, but found type %q", e.MPITypeName, e.BufferTypeName)
}
func (BuiltinTypeMismatch) isTypeCheckError() {}

// UnsupportedCombinerArgs is yielded for malformed combinator arguments
// (negative stride or displacement).
type UnsupportedCombinerArgs struct {
	Message string
}

func (e UnsupportedCombinerArgs) Error() string { return e.Message }
func (UnsupportedCombinerArgs) isTypeCheckError() {}

// BufferNotOfStructType is yielded when a Struct datatype is checked
// against a non-struct buffer.
type BufferNotOfStructType struct {
	BufferTypeName string
}

func (e BufferNotOfStructType) Error() string {
	return fmt.Sprintf("expected a struct type, but found type %q", e.BufferTypeName)
}
func (BufferNotOfStructType) isTypeCheckError() {}

// MemberCountMismatch is yielded when a struct buffer's member count does
// not match the Struct datatype's member count.
type MemberCountMismatch struct {
	BufferTypeName string
	BufferCount    int
	MPICount       int
}

func (e MemberCountMismatch) Error() string {
	return fmt.Sprintf("expected %d members, but the type %q has %d members", e.MPICount, e.BufferTypeName, e.BufferCount)
}
func (MemberCountMismatch) isTypeCheckError() {}

// StructContentsMismatch aggregates every per-member error found while
// checking a struct (spec.md §4.5.2: offset mismatches first, then one
// type-or-count mismatch per member).
type StructContentsMismatch struct {
	Errors []Error
}

func (e StructContentsMismatch) Error() string {
	s := "struct contents mismatch:\n"
	for _, err := range e.Errors {
		s += gxfmt.Indent(err.Error() + "\n")
	}
	return s
}
func (StructContentsMismatch) isTypeCheckError() {}

// MemberOffsetMismatch is yielded when a struct member's buffer offset does
// not match the corresponding MPI displacement.
type MemberOffsetMismatch struct {
	TypeName     string
	Member       int
	StructOffset int
	MPIOffset    int
}

func (e MemberOffsetMismatch) Error() string {
	return fmt.Sprintf("expected a byte offset of %d for member %d, but the type %q has an offset of %d",
		e.MPIOffset, e.Member, e.TypeName, e.StructOffset)
}
func (MemberOffsetMismatch) isTypeCheckError() {}

// MemberTypeMismatch is yielded when a struct member's own check fails.
type MemberTypeMismatch struct {
	Member int
	Err    Error
}

func (e MemberTypeMismatch) Error() string {
	return fmt.Sprintf("the typecheck for member %d failed: %v", e.Member, e.Err)
}
func (MemberTypeMismatch) isTypeCheckError() {}

// MemberElementCountMismatch is yielded when a struct member's required
// element count (blocklength scaled by the child's type multiplier) does
// not match the buffer member's available element count. Field names are
// kept as the original taxonomy stores them: Count is the required count,
// MPICount is the available one.
type MemberElementCountMismatch struct {
	TypeName string
	Member   int
	Count    int
	MPICount int
}

func (e MemberElementCountMismatch) Error() string {
	return fmt.Sprintf("expected element count of %d for member %d, but the type %q has a count of %d",
		e.Count, e.Member, e.TypeName, e.MPICount)
}
func (MemberElementCountMismatch) isTypeCheckError() {}
