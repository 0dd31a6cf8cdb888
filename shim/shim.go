// Package shim implements the inbound shim contract the engine exposes
// (spec.md §6): check_send, check_recv, check_send_and_recv, unsupported,
// and exit. Wrapping the individual MPI entry points themselves (deciding
// which call sites to instrument) is the explicit non-goal named in
// spec.md §1 — these five functions are what that instrumentation calls
// into.
package shim

import (
	"fmt"

	"github.com/typeart-go/typeart/builderr"
	"github.com/typeart-go/typeart/callctx"
	"github.com/typeart-go/typeart/combinator"
	"github.com/typeart-go/typeart/diagnostic"
)

// Checker wires together a Call Context, the Type-Check Engine (via
// callctx.Call.Check), a Logger, and the CCounter/MCounter counters.
type Checker struct {
	Deps       callctx.Deps
	Logger     *diagnostic.Logger
	Calls      diagnostic.CallCounter
	Mismatches diagnostic.MismatchCounter
}

// New returns a Checker ready to service intercepted calls.
func New(deps callctx.Deps, logger *diagnostic.Logger) *Checker {
	return &Checker{Deps: deps, Logger: logger}
}

// CheckSend validates a send-buffer call.
func (c *Checker) CheckSend(functionName string, calledFrom, sendBuf uintptr, count int, dtype combinator.Handle) {
	c.Calls.Send.Add(1)
	c.checkBuffer(functionName, calledFrom, sendBuf, true, count, dtype)
}

// CheckRecv validates a receive-buffer call.
func (c *Checker) CheckRecv(functionName string, calledFrom, recvBuf uintptr, count int, dtype combinator.Handle) {
	c.Calls.Recv.Add(1)
	c.checkBuffer(functionName, calledFrom, recvBuf, false, count, dtype)
}

// CheckSendAndRecv validates a combined send/receive call by running a
// send-check and a recv-check independently (spec.md §6).
func (c *Checker) CheckSendAndRecv(functionName string, calledFrom uintptr,
	sendBuf uintptr, sendCount int, sendType combinator.Handle,
	recvBuf uintptr, recvCount int, recvType combinator.Handle) {
	c.Calls.SendRecv.Add(1)
	c.CheckSend(functionName, calledFrom, sendBuf, sendCount, sendType)
	c.CheckRecv(functionName, calledFrom, recvBuf, recvCount, recvType)
}

// Unsupported records that name is a message-passing call this checker
// does not intercept.
func (c *Checker) Unsupported(name string, calledFrom uintptr) {
	c.Calls.Unsupported.Add(1)
	fmt.Fprintf(c.Logger.Writer, "[Error] The MPI function %s is currently not checked by TypeArt\n", name)
}

// Exit writes the final CCounter/MCounter summary. Called at
// MPI_Finalize time.
func (c *Checker) Exit() {
	c.Logger.ExitSummary(c.rank(), &c.Calls, &c.Mismatches)
}

func (c *Checker) rank() int {
	r, err := c.Deps.Rank.Rank()
	if err != nil {
		return 0
	}
	return r
}

func (c *Checker) checkBuffer(functionName string, calledFrom, bufPtr uintptr, isSend bool, count int, dtype combinator.Handle) {
	call, err := callctx.Create(c.Deps, functionName, calledFrom, bufPtr, isSend, count, dtype)
	if err != nil {
		c.Mismatches.Error.Add(1)
		c.Logger.LogCreateError(c.rank(), functionName, calledFrom, err.(builderr.Error))
		return
	}
	c.Logger.LogHeader(call)
	if checkErr := call.Check(); checkErr != nil {
		c.Mismatches.Record(checkErr)
		c.Logger.LogCheckError(call, checkErr)
	}
}
