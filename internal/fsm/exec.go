package fsm

import "redis3/internal/mux"

// Exec is the sans-I/O state machine for one async_exec(request, adapter)
// call (spec §4.E). A fresh Exec is created per call; it does not persist
// across the connection's lifetime the way Reader and Writer do.
type Exec struct {
	m    *mux.Mux
	elem *mux.Elem

	started bool
	done    bool
}

// NewExec returns an Exec that will submit elem through m once resumed.
func NewExec(m *mux.Mux, elem *mux.Elem) *Exec {
	return &Exec{m: m, elem: elem}
}

// Resume advances the exec call one step.
func (x *Exec) Resume(ev Event) Action {
	if x.done {
		return ActionDone{Err: x.elem.Err()}
	}

	if !x.started {
		x.started = true
		start, _ := ev.(EventExecStart)
		if !start.Connected && x.elem.Req.GetConfig().CancelIfNotConnected {
			x.done = true
			return ActionDone{Err: ErrNotConnected}
		}
		x.m.Add(x.elem)
		return ActionNotifyWriter{}
	}

	if x.elem.Status() == mux.Done {
		x.done = true
		return ActionDone{Err: x.elem.Err()}
	}

	if cancel, ok := ev.(EventCancel); ok {
		if x.m.Remove(x.elem) {
			x.done = true
			return ActionDone{Err: ErrAborted}
		}
		// Already written: can't abandon mid-response. Only a terminal
		// cancellation (the caller tearing down the whole connection)
		// forces the issue from here.
		if cancel.Err != nil {
			return ActionCancelRun{Err: cancel.Err}
		}
	}

	return ActionWaitForResponse{}
}
