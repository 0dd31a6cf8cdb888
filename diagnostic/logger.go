// Package diagnostic is the outbound Counters & Logger external sink
// (spec.md §2 component 7): it renders the structured diagnostics the
// engine produces into the stderr line formats specified in spec.md §6,
// and tallies the CCounter/MCounter summaries. None of this is part of the
// hard core — rendering human-readable error text is an explicit non-goal
// of the engine itself (spec.md §1) — but it is the ambient sink every
// shim entry point writes to, the way original_source's Logger.cpp is.
package diagnostic

import (
	"fmt"
	"io"

	"github.com/typeart-go/typeart/builderr"
	"github.com/typeart-go/typeart/callctx"
	"github.com/typeart-go/typeart/typecheck"
)

// Logger renders diagnostics to an io.Writer using fmt.Fprintf, the same
// plain-fmt-to-stderr style the teacher uses throughout (no logging
// library appears anywhere in the pack's own go.mod).
type Logger struct {
	Writer io.Writer
}

// NewStderrLogger returns a Logger writing to w.
func NewStderrLogger(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// LogCreateError reports that a call could not be constructed (spec.md §6,
// §7 CreateError taxonomy).
func (l *Logger) LogCreateError(rank int, functionName string, calledFrom uintptr, err builderr.Error) {
	fmt.Fprintf(l.Writer, "R[%d][Error] internal error while typechecking a call to %s from %#x: %s\n",
		rank, functionName, calledFrom, createErrorMessage(err))
}

func createErrorMessage(err builderr.Error) string {
	switch e := err.(type) {
	case builderr.MPIError:
		return fmt.Sprintf("%s failed: %s", e.FunctionName, e.Message)
	case builderr.TypeARTError:
		return fmt.Sprintf("internal runtime error (%s)", e.Message)
	case builderr.InvalidArgument:
		return e.Message
	case builderr.SourceLocationError:
		return e.Message
	default:
		return err.Error()
	}
}

// LogHeader writes the two-line header emitted on every check (spec.md
// §6): the first line identifies the call and the types being compared,
// the second gives the caller's resolved source location.
func (l *Logger) LogHeader(call callctx.Call) {
	direction := "recv"
	if call.IsSend {
		direction = "send"
	}
	fmt.Fprintf(l.Writer, "R[%d][Info]ID[%d] %s: checked %s-buffer %#x of type %q against MPI type %q\n",
		call.Rank, call.TraceID, call.FunctionName, direction, call.Buffer.Ptr, call.Buffer.Type.Name, call.Type.Name)
	fmt.Fprintf(l.Writer, "R[%d][Info]ID[%d] \tin %s[%#x] at %s:%d\n",
		call.Rank, call.TraceID, call.Caller.Location.Function, call.Caller.Addr,
		call.Caller.Location.File, call.Caller.Location.Line)
}

// LogCheckError renders a TypeCheckError, recursing through
// StructContentsMismatch and MemberTypeMismatch exactly the way
// original_source's StderrLoggerTypeCheckErrorVisitor does — one error line
// per leaf diagnostic, in tree order, plus one "the typecheck for member N
// failed" line after the lines of each MemberTypeMismatch's child. NullCount
// prints no line.
func (l *Logger) LogCheckError(call callctx.Call, err typecheck.Error) {
	l.logCheckError(call.Rank, call.TraceID, call.Buffer.Ptr, err)
}

func (l *Logger) logCheckError(rank int, traceID int64, bufPtr uintptr, err typecheck.Error) {
	switch e := err.(type) {
	case typecheck.NullCount:
		// Tallied in MismatchCounter but never printed.
	case typecheck.NullBuffer:
		l.errorLine(rank, traceID, fmt.Sprintf("buffer %#x is NULL", bufPtr))
	case typecheck.UnsupportedCombiner:
		l.errorLine(rank, traceID, fmt.Sprintf("the MPI type combiner %s is currently not supported", e.CombinerName))
	case typecheck.InsufficientBufferSize:
		l.errorLine(rank, traceID, fmt.Sprintf("buffer too small (%d elements, %d required)", e.Actual, e.Required))
	case typecheck.BuiltinTypeMismatch:
		l.errorLine(rank, traceID, fmt.Sprintf("expected a type matching MPI type %q, but found type %q", e.MPITypeName, e.BufferTypeName))
	case typecheck.UnsupportedCombinerArgs:
		l.errorLine(rank, traceID, e.Message)
	case typecheck.BufferNotOfStructType:
		l.errorLine(rank, traceID, fmt.Sprintf("expected a struct type, but found type %q", e.BufferTypeName))
	case typecheck.MemberCountMismatch:
		l.errorLine(rank, traceID, fmt.Sprintf("expected %d members, but the type %q has %d members", e.MPICount, e.BufferTypeName, e.BufferCount))
	case typecheck.StructContentsMismatch:
		for _, child := range e.Errors {
			l.logCheckError(rank, traceID, bufPtr, child)
		}
	case typecheck.MemberOffsetMismatch:
		l.errorLine(rank, traceID, fmt.Sprintf("expected a byte offset of %d for member %d, but the type %q has an offset of %d",
			e.MPIOffset, e.Member, e.TypeName, e.StructOffset))
	case typecheck.MemberTypeMismatch:
		l.logCheckError(rank, traceID, bufPtr, e.Err)
		l.errorLine(rank, traceID, fmt.Sprintf("the typecheck for member %d failed", e.Member))
	case typecheck.MemberElementCountMismatch:
		l.errorLine(rank, traceID, fmt.Sprintf("expected element count of %d for member %d, but the type %q has a count of %d",
			e.Count, e.Member, e.TypeName, e.MPICount))
	}
}

func (l *Logger) errorLine(rank int, traceID int64, message string) {
	fmt.Fprintf(l.Writer, "R[%d][Error]ID[%d] %s\n", rank, traceID, message)
}
