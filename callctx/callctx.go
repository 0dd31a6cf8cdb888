// Package callctx implements the Call Context component (spec.md §4.3,
// §4.4): it binds one per-call record by composing the Buffer Descriptor
// Builder and the Datatype Descriptor Builder, then runs the call-level
// check.
package callctx

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/typeart-go/typeart/alloc"
	"github.com/typeart-go/typeart/base/ordered"
	"github.com/typeart-go/typeart/buffertree"
	"github.com/typeart-go/typeart/builderr"
	"github.com/typeart-go/typeart/combinator"
	"github.com/typeart-go/typeart/typecheck"
	"github.com/typeart-go/typeart/typeid"
)

// SourceLocation is a resolved source position for a caller address.
type SourceLocation struct {
	Function string
	File     string
	Line     int
}

// SourceLocationResolver is the stacktrace/source-location external
// collaborator (spec.md §2 component list, §6).
type SourceLocationResolver interface {
	Resolve(addr uintptr) (SourceLocation, error)
}

// RankQuerier is the messaging library's rank query (spec.md §6).
type RankQuerier interface {
	Rank() (int, error)
}

// Caller binds a call to the address it was issued from and that
// address's resolved source location.
type Caller struct {
	Addr     uintptr
	Location SourceLocation
}

// Call is the per-call record (spec.md §3, "Call").
type Call struct {
	TraceID      int64
	Rank         int
	Caller       Caller
	FunctionName string
	IsSend       bool
	Buffer       buffertree.Buffer
	Count        int
	Type         combinator.Combinator
}

// nextTraceID is the process-global, atomically-incremented trace id
// counter (spec.md §5; §9 "expose a reset hook for tests").
var nextTraceID int64

// ResetTraceID resets the trace id counter to zero. Exposed for tests.
func ResetTraceID() {
	atomic.StoreInt64(&nextTraceID, 0)
}

// Deps bundles the external collaborators Create composes.
type Deps struct {
	Alloc      alloc.Query
	Registry   typeid.Registry
	Lib        combinator.Library
	Predefined *ordered.Map[combinator.Handle, typeid.ID]
	Rank       RankQuerier
	SourceLoc  SourceLocationResolver
}

// Create assembles a Call from the raw arguments of a send/receive-style
// intercepted call (spec.md §4.3, Call::create).
func Create(deps Deps, functionName string, calledFrom uintptr, bufferPtr uintptr, isSend bool, count int, mpiType combinator.Handle) (Call, error) {
	traceID := atomic.AddInt64(&nextTraceID, 1) - 1

	rank, err := deps.Rank.Rank()
	if err != nil {
		return Call{}, builderr.MPIError{
			FunctionName: "MPI_Comm_rank",
			Message:      errors.Wrap(err, "MPI_Comm_rank").Error(),
		}
	}

	location, err := deps.SourceLoc.Resolve(calledFrom)
	if err != nil {
		return Call{}, builderr.SourceLocationError{
			Message: errors.Wrapf(err, "couldn't acquire source location for address %#x", calledFrom).Error(),
		}
	}

	bufBuilder := buffertree.Builder{Alloc: deps.Alloc, Registry: deps.Registry}
	buf, err := bufBuilder.Build(bufferPtr)
	if err != nil {
		return Call{}, err
	}

	dtBuilder := combinator.Builder{Lib: deps.Lib, Predefined: deps.Predefined}
	dt, err := dtBuilder.Build(mpiType)
	if err != nil {
		return Call{}, err
	}

	return Call{
		TraceID:      traceID,
		Rank:         rank,
		Caller:       Caller{Addr: calledFrom, Location: location},
		FunctionName: functionName,
		IsSend:       isSend,
		Buffer:       buf,
		Count:        count,
		Type:         dt,
	}, nil
}

// Check runs the call-level check (spec.md §4.4). It returns nil or a
// typecheck.Error.
func (c Call) Check() typecheck.Error {
	if c.Count <= 0 {
		return typecheck.NullCount{}
	}
	if c.Buffer.Ptr == 0 {
		return typecheck.NullBuffer{}
	}
	err := typecheck.CheckTypeAndCount(c.Buffer, c.Type, c.Count)
	if err == nil {
		return nil
	}
	return err.(typecheck.Error)
}
