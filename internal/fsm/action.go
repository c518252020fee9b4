// Package fsm implements the three sans-I/O state machines described in
// spec §4.E: reader, writer, and exec. Each exposes Resume(event) -> action
// and performs no I/O itself — the run supervisor in internal/redis3 drives
// them, performing the actual transport reads/writes the actions request
// and feeding the results back in as events.
package fsm

import "redis3/internal/resp3"

// Action is the sans-I/O state machines' only output: a request for the
// driving loop to perform exactly one thing (an I/O operation, a
// notification, or completion) before calling Resume again.
type Action interface {
	isAction()
}

// ActionWrite asks the driver to write Buf to the transport and report back
// with EventWriteComplete.
type ActionWrite struct {
	Buf []byte
}

// ActionAppendSome asks the driver to read into the tail of the read buffer
// (reader's own buffer; the driver must call Reader.Prepared() for the
// slice to fill) and report back with EventReadComplete.
type ActionAppendSome struct{}

// ActionWait asks the driver to suspend until new work is available
// (request submitted, or a shutdown) and then call Resume again.
type ActionWait struct{}

// ActionNeedsMore indicates the reader drained everything currently
// buffered without completing a message; equivalent to ActionAppendSome but
// distinguished for callers that want to log differently.
type ActionNeedsMore struct{}

// ActionNotifyPushReceiver asks the driver to hand Size bytes worth of push
// data to the installed receive path and resume once it has been consumed
// (EventPushDelivered). It implements the back-pressure rule: the reader
// does not keep consuming until the push has been accepted.
type ActionNotifyPushReceiver struct {
	Size int
}

// ActionCancelRun asks the driver to tear down the transport; the run
// supervisor treats this as equivalent to a fatal error.
type ActionCancelRun struct {
	Err error
}

// ActionDone reports terminal completion of the FSM with Err (nil on a
// clean, intentional stop).
type ActionDone struct {
	Err error
}

// ActionNotifyWriter asks the driver to wake the writer task (it has new
// work staged in the multiplexer).
type ActionNotifyWriter struct{}

// ActionWaitForResponse asks the driver to suspend the exec call until its
// element either completes or a cancellation arrives.
type ActionWaitForResponse struct{}

func (ActionWrite) isAction()             {}
func (ActionAppendSome) isAction()         {}
func (ActionWait) isAction()               {}
func (ActionNeedsMore) isAction()          {}
func (ActionNotifyPushReceiver) isAction() {}
func (ActionCancelRun) isAction()          {}
func (ActionDone) isAction()               {}
func (ActionNotifyWriter) isAction()       {}
func (ActionWaitForResponse) isAction()    {}

// Node re-exported for callers that only import fsm.
type Node = resp3.Node
