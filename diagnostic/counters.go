package diagnostic

import (
	"fmt"
	"sync/atomic"

	"github.com/typeart-go/typeart/typecheck"
)

// CallCounter tallies CCounter (spec.md §6): one atomic per intercepted
// entry point.
type CallCounter struct {
	Send        atomic.Int64
	Recv        atomic.Int64
	SendRecv    atomic.Int64
	Unsupported atomic.Int64
}

// MismatchCounter tallies MCounter (spec.md §6): one atomic per check
// outcome bucket (spec.md §7: "No diagnostic is fatal... increments a
// counter keyed by the leaf kind (NullCount, NullBuffer, everything else →
// type_error)").
type MismatchCounter struct {
	Error     atomic.Int64
	NullBuf   atomic.Int64
	NullCount atomic.Int64
	TypeError atomic.Int64
}

// Record tallies a TypeCheckError into the right bucket.
func (m *MismatchCounter) Record(err typecheck.Error) {
	switch err.(type) {
	case typecheck.NullCount:
		m.NullCount.Add(1)
	case typecheck.NullBuffer:
		m.NullBuf.Add(1)
	default:
		m.TypeError.Add(1)
	}
}

// ExitSummary writes the two-line CCounter/MCounter summary (spec.md §6)
// emitted at MPI_Finalize time.
func (l *Logger) ExitSummary(rank int, calls *CallCounter, mismatches *MismatchCounter) {
	fmt.Fprintf(l.Writer, "R[%d][Info] CCounter { Send: %d Recv: %d Send_Recv: %d Unsupported: %d MAX RSS[KBytes]: %d }\n",
		rank, calls.Send.Load(), calls.Recv.Load(), calls.SendRecv.Load(), calls.Unsupported.Load(), maxRSSKBytes())
	fmt.Fprintf(l.Writer, "R[%d][Info] MCounter { Error: %d Null_Buf: %d Null_Count: %d Type_Error: %d }\n",
		rank, mismatches.Error.Load(), mismatches.NullBuf.Load(), mismatches.NullCount.Load(), mismatches.TypeError.Load())
}
