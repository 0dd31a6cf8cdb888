package typecheck_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/typeart-go/typeart/buffertree"
	"github.com/typeart-go/typeart/combinator"
	"github.com/typeart-go/typeart/typecheck"
	"github.com/typeart-go/typeart/typeid"
)

const doubleID typeid.ID = 10

var doubleType = typeid.Type{ID: doubleID, Name: "double", Size: 8}

func doubleBuffer(count int) buffertree.Buffer {
	return buffertree.Buffer{Ptr: 0x1000, Count: count, Type: doubleType}
}

func named(mapped typeid.ID, name string) combinator.Combinator {
	return combinator.Combinator{Kind: combinator.Named, MappedTypeID: mapped, Name: name}
}

func contiguous(n int, child combinator.Combinator) combinator.Combinator {
	return combinator.Combinator{Kind: combinator.Contiguous, IntegerArgs: []int{n}, TypeArgs: []combinator.Combinator{child}}
}

func subarray(sizes, subsizes, starts []int, order int, child combinator.Combinator) combinator.Combinator {
	integerArgs := []int{len(sizes)}
	integerArgs = append(integerArgs, sizes...)
	integerArgs = append(integerArgs, subsizes...)
	integerArgs = append(integerArgs, starts...)
	integerArgs = append(integerArgs, order)
	return combinator.Combinator{Kind: combinator.Subarray, IntegerArgs: integerArgs, TypeArgs: []combinator.Combinator{child}}
}

func vector(count, blocklength, stride int, child combinator.Combinator) combinator.Combinator {
	return combinator.Combinator{Kind: combinator.Vector, IntegerArgs: []int{count, blocklength, stride}, TypeArgs: []combinator.Combinator{child}}
}

func indexedBlock(count, blocklength int, disps []int, child combinator.Combinator) combinator.Combinator {
	integerArgs := append([]int{count, blocklength}, disps...)
	return combinator.Combinator{Kind: combinator.IndexedBlock, IntegerArgs: integerArgs, TypeArgs: []combinator.Combinator{child}}
}

// S1/S2: buffer of 16 doubles checked against MPI_DOUBLE with count 16 (ok)
// and count 17 (InsufficientBufferSize).
func TestCheckTypeAndCount_Named(t *testing.T) {
	dt := named(doubleID, "MPI_DOUBLE")
	if err := typecheck.CheckTypeAndCount(doubleBuffer(16), dt, 16); err != nil {
		t.Errorf("S1: unexpected error: %v", err)
	}
	err := typecheck.CheckTypeAndCount(doubleBuffer(16), dt, 17)
	want := typecheck.InsufficientBufferSize{Actual: 16, Required: 17}
	if diff := cmp.Diff(want, err); diff != "" {
		t.Errorf("S2: diff (-want +got):\n%s", diff)
	}
}

// S3: Contiguous(3, MPI_DOUBLE) against 9 doubles (ok), 8 doubles (too small).
func TestCheckTypeAndCount_Contiguous(t *testing.T) {
	dt := contiguous(3, named(doubleID, "MPI_DOUBLE"))
	if err := typecheck.CheckTypeAndCount(doubleBuffer(9), dt, 3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := typecheck.CheckTypeAndCount(doubleBuffer(8), dt, 3)
	want := typecheck.InsufficientBufferSize{Actual: 8, Required: 9}
	if diff := cmp.Diff(want, err); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

// S4: nested Contiguous(3, Contiguous(3, MPI_DOUBLE)).
func TestCheckTypeAndCount_NestedContiguous(t *testing.T) {
	dt := contiguous(3, contiguous(3, named(doubleID, "MPI_DOUBLE")))
	if err := typecheck.CheckTypeAndCount(doubleBuffer(9), dt, 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := typecheck.CheckTypeAndCount(doubleBuffer(8), dt, 1)
	want := typecheck.InsufficientBufferSize{Actual: 8, Required: 9}
	if diff := cmp.Diff(want, err); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

// S5: Subarray(ndims=2, sizes=[3,3], subsizes=[2,2], starts=[0,1], C-order).
func TestCheckTypeAndCount_Subarray(t *testing.T) {
	dt := subarray([]int{3, 3}, []int{2, 2}, []int{0, 1}, 0, named(doubleID, "MPI_DOUBLE"))
	if err := typecheck.CheckTypeAndCount(doubleBuffer(9), dt, 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := typecheck.CheckTypeAndCount(doubleBuffer(8), dt, 1)
	want := typecheck.InsufficientBufferSize{Actual: 8, Required: 9}
	if diff := cmp.Diff(want, err); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

// S6: first-member retry, fired once and twice.
func TestCheckTypeAndCount_FirstMemberRetry(t *testing.T) {
	arrBuf := buffertree.Buffer{Ptr: 0x2000, Count: 16, Type: doubleType}
	structA := buffertree.Buffer{
		Ptr:     0x2000,
		Type:    typeid.Type{ID: 20, Name: "A", Size: 128},
		Kind:    typeid.Struct,
		Members: []buffertree.Buffer{arrBuf},
	}
	dt := named(doubleID, "MPI_DOUBLE")
	if err := typecheck.CheckTypeAndCount(structA, dt, 16); err != nil {
		t.Errorf("one-level retry: unexpected error: %v", err)
	}

	structB := buffertree.Buffer{
		Ptr:     0x2000,
		Type:    typeid.Type{ID: 21, Name: "B", Size: 128},
		Kind:    typeid.Struct,
		Members: []buffertree.Buffer{structA},
	}
	if err := typecheck.CheckTypeAndCount(structB, dt, 16); err != nil {
		t.Errorf("two-level retry: unexpected error: %v", err)
	}
}

// I7: the retry does not fire when the first member is not at offset 0.
func TestCheckTypeAndCount_NoRetryWhenFirstMemberOffsetNonZero(t *testing.T) {
	member := buffertree.Buffer{Ptr: 0x2008, Offset: 8, Count: 16, Type: doubleType}
	s := buffertree.Buffer{
		Ptr:     0x2000,
		Type:    typeid.Type{ID: 22, Name: "S", Size: 136},
		Kind:    typeid.Struct,
		Members: []buffertree.Buffer{member},
	}
	err := typecheck.CheckTypeAndCount(s, named(doubleID, "MPI_DOUBLE"), 16)
	if _, ok := err.(typecheck.BuiltinTypeMismatch); !ok {
		t.Errorf("expected BuiltinTypeMismatch (no retry fired), got %#v", err)
	}
}

// I3: the byte-typed datatype always matches, scaling by sizeof(buffer.type).
func TestCheckType_Byte(t *testing.T) {
	mult, err := typecheck.CheckType(doubleBuffer(4), named(typeid.Byte, "MPI_BYTE"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := typecheck.Multipliers{Type: 1, Buffer: 8}
	if diff := cmp.Diff(want, mult); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

// I2: FP128 <-> PPC_FP128 is treated as mutually compatible in either
// direction.
func TestCheckType_128BitFloatEquivalence(t *testing.T) {
	fp128Buffer := buffertree.Buffer{Ptr: 0x3000, Count: 1, Type: typeid.Type{ID: typeid.FP128, Name: "__float128"}}
	ppcBuffer := buffertree.Buffer{Ptr: 0x3000, Count: 1, Type: typeid.Type{ID: typeid.PPCFP128, Name: "long double"}}

	if _, err := typecheck.CheckType(fp128Buffer, named(typeid.PPCFP128, "MPI_LONG_DOUBLE")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := typecheck.CheckType(ppcBuffer, named(typeid.FP128, "MPI_REAL16")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckType_BuiltinTypeMismatch(t *testing.T) {
	intBuffer := buffertree.Buffer{Ptr: 0x3000, Count: 1, Type: typeid.Type{ID: 99, Name: "int", Size: 4}}
	_, err := typecheck.CheckType(intBuffer, named(doubleID, "MPI_DOUBLE"))
	want := typecheck.BuiltinTypeMismatch{BufferTypeName: "int", MPITypeName: "MPI_DOUBLE"}
	if diff := cmp.Diff(want, err); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

// A nil-pointer struct member carries the typeid.Invalid sentinel. Checking
// it against a Named MPI type that itself has no predefined-table mapping
// (so MappedTypeID also defaults to typeid.Invalid) must not be treated as
// a match just because both ids happen to be the same sentinel value.
func TestCheckType_NamedAgainstInvalidBufferNeverMatches(t *testing.T) {
	nilMember := buffertree.Buffer{Type: typeid.Type{ID: typeid.Invalid}}
	unmapped := named(typeid.Invalid, "MPI_SOME_UNMAPPED_TYPE")
	_, err := typecheck.CheckType(nilMember, unmapped)
	if _, ok := err.(typecheck.NullBuffer); !ok {
		t.Errorf("CheckType() err = %#v, want NullBuffer", err)
	}
}

// I4: Vector's required span is (count-1)*stride + blocklength.
func TestCheckType_Vector(t *testing.T) {
	dt := vector(4, 1, 3, named(doubleID, "MPI_DOUBLE"))
	mult, err := typecheck.CheckType(doubleBuffer(10), dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := typecheck.Multipliers{Type: 10, Buffer: 1} // (4-1)*3+1 = 10
	if diff := cmp.Diff(want, mult); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

// I5: a negative stride is rejected before any buffer comparison.
func TestCheckType_VectorNegativeStride(t *testing.T) {
	dt := vector(4, 1, -3, named(doubleID, "MPI_DOUBLE"))
	_, err := typecheck.CheckType(doubleBuffer(0), dt)
	if _, ok := err.(typecheck.UnsupportedCombinerArgs); !ok {
		t.Errorf("expected UnsupportedCombinerArgs, got %#v", err)
	}
}

// I4: IndexedBlock's required span is max(displacements) + blocklength.
func TestCheckType_IndexedBlock(t *testing.T) {
	dt := indexedBlock(3, 2, []int{0, 4, 9}, named(doubleID, "MPI_DOUBLE"))
	mult, err := typecheck.CheckType(doubleBuffer(20), dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := typecheck.Multipliers{Type: 11, Buffer: 1} // max(0,4,9)+2 = 11
	if diff := cmp.Diff(want, mult); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

// I5: a negative displacement is rejected before any buffer comparison.
func TestCheckType_IndexedBlockNegativeDisplacement(t *testing.T) {
	dt := indexedBlock(2, 2, []int{0, -1}, named(doubleID, "MPI_DOUBLE"))
	_, err := typecheck.CheckType(doubleBuffer(0), dt)
	if _, ok := err.(typecheck.UnsupportedCombinerArgs); !ok {
		t.Errorf("expected UnsupportedCombinerArgs, got %#v", err)
	}
}

func TestCheckType_UnsupportedCombiner(t *testing.T) {
	dt := combinator.Combinator{Kind: combinator.Other, CombinerName: "MPI_COMBINER_F90_INTEGER"}
	_, err := typecheck.CheckType(doubleBuffer(1), dt)
	want := typecheck.UnsupportedCombiner{CombinerName: "MPI_COMBINER_F90_INTEGER"}
	if diff := cmp.Diff(want, err); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

func TestCheckType_Dup(t *testing.T) {
	dt := combinator.Combinator{Kind: combinator.Dup, TypeArgs: []combinator.Combinator{named(doubleID, "MPI_DOUBLE")}}
	mult, err := typecheck.CheckType(doubleBuffer(1), dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(typecheck.Multipliers{Type: 1, Buffer: 1}, mult); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

// Edge case (iii): a struct MPI type against a non-struct buffer is always
// BufferNotOfStructType, never the first-member retry.
func TestCheckType_StructAgainstNonStructBuffer(t *testing.T) {
	dt := combinator.Combinator{
		Kind:        combinator.Struct,
		IntegerArgs: []int{1, 1},
		AddressArgs: []int{0},
		TypeArgs:    []combinator.Combinator{named(doubleID, "MPI_DOUBLE")},
	}
	_, err := typecheck.CheckType(doubleBuffer(1), dt)
	want := typecheck.BufferNotOfStructType{BufferTypeName: "double"}
	if diff := cmp.Diff(want, err); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

func TestCheckType_StructOk(t *testing.T) {
	intBuffer := buffertree.Buffer{Offset: 0, Ptr: 0x4000, Count: 1, Type: typeid.Type{ID: 30, Name: "int", Size: 4}}
	dblBuffer := buffertree.Buffer{Offset: 8, Ptr: 0x4008, Count: 2, Type: doubleType}
	structBuffer := buffertree.Buffer{
		Ptr:     0x4000,
		Type:    typeid.Type{ID: 40, Name: "Pair", Size: 24},
		Kind:    typeid.Struct,
		Members: []buffertree.Buffer{intBuffer, dblBuffer},
	}
	dt := combinator.Combinator{
		Kind:        combinator.Struct,
		IntegerArgs: []int{2, 1, 2},
		AddressArgs: []int{0, 8},
		TypeArgs:    []combinator.Combinator{named(30, "MPI_INT"), named(doubleID, "MPI_DOUBLE")},
	}
	mult, err := typecheck.CheckType(structBuffer, dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(typecheck.Multipliers{Type: 1, Buffer: 1}, mult); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

// I6: the struct check collects every per-member error, offsets first,
// then one type-or-count mismatch per member, and never short-circuits.
func TestCheckType_StructContentsMismatch_AccumulatesAll(t *testing.T) {
	intBuffer := buffertree.Buffer{Offset: 4, Ptr: 0x4004, Count: 1, Type: typeid.Type{ID: 30, Name: "int", Size: 4}}
	dblBuffer := buffertree.Buffer{Offset: 8, Ptr: 0x4008, Count: 1, Type: doubleType}
	structBuffer := buffertree.Buffer{
		Ptr:     0x4000,
		Type:    typeid.Type{ID: 40, Name: "Pair", Size: 24},
		Kind:    typeid.Struct,
		Members: []buffertree.Buffer{intBuffer, dblBuffer},
	}
	dt := combinator.Combinator{
		Kind:        combinator.Struct,
		IntegerArgs: []int{2, 1, 2},
		AddressArgs: []int{0, 8},
		TypeArgs:    []combinator.Combinator{named(30, "MPI_INT"), named(doubleID, "MPI_DOUBLE")},
	}
	_, err := typecheck.CheckType(structBuffer, dt)
	sErr, ok := err.(typecheck.StructContentsMismatch)
	if !ok {
		t.Fatalf("expected StructContentsMismatch, got %#v", err)
	}
	want := []typecheck.Error{
		typecheck.MemberOffsetMismatch{TypeName: "Pair", Member: 1, StructOffset: 4, MPIOffset: 0},
		typecheck.MemberElementCountMismatch{TypeName: "Pair", Member: 2, Count: 2, MPICount: 1},
	}
	if diff := cmp.Diff(want, sErr.Errors); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

func TestCheckType_MemberCountMismatch(t *testing.T) {
	structBuffer := buffertree.Buffer{
		Ptr:  0x4000,
		Type: typeid.Type{ID: 40, Name: "Pair", Size: 24},
		Kind: typeid.Struct,
		Members: []buffertree.Buffer{
			{Offset: 0, Ptr: 0x4000, Count: 1, Type: typeid.Type{ID: 30, Name: "int", Size: 4}},
		},
	}
	dt := combinator.Combinator{
		Kind:        combinator.Struct,
		IntegerArgs: []int{2, 1, 2},
		AddressArgs: []int{0, 8},
		TypeArgs:    []combinator.Combinator{named(30, "MPI_INT"), named(doubleID, "MPI_DOUBLE")},
	}
	_, err := typecheck.CheckType(structBuffer, dt)
	want := typecheck.MemberCountMismatch{BufferTypeName: "Pair", BufferCount: 1, MPICount: 2}
	if diff := cmp.Diff(want, err); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}
}

// I1: ok iff available bytes (here, element counts through the uniform
// multiplier comparison) meet or exceed what is required.
func TestCheckTypeAndCount_Boundary(t *testing.T) {
	dt := named(doubleID, "MPI_DOUBLE")
	for count := 0; count <= 20; count++ {
		err := typecheck.CheckTypeAndCount(doubleBuffer(16), dt, count)
		if count <= 16 && err != nil {
			t.Errorf("count=%d: unexpected error: %v", count, err)
		}
		if count > 16 {
			want := typecheck.InsufficientBufferSize{Actual: 16, Required: count}
			if diff := cmp.Diff(want, err); diff != "" {
				t.Errorf("count=%d: diff (-want +got):\n%s", count, diff)
			}
		}
	}
}
