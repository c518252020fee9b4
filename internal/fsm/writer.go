package fsm

import "redis3/internal/mux"

// Writer is the sans-I/O writer state machine (spec §4.E). It repeatedly
// coalesces whatever is Waiting in the multiplexer into one write, waiting
// for notification when there is nothing to do.
type Writer struct {
	mux      *mux.Mux
	cancelled bool
	cancelErr error
}

// NewWriter returns a Writer driving m.
func NewWriter(m *mux.Mux) *Writer {
	return &Writer{mux: m}
}

// Resume advances the writer one step given the outcome of its previous
// action.
func (w *Writer) Resume(ev Event) Action {
	if w.cancelled {
		return ActionDone{Err: w.cancelErr}
	}

	switch e := ev.(type) {
	case EventCancel:
		w.cancelled = true
		w.cancelErr = e.Err
		return ActionDone{Err: e.Err}

	case EventWriteComplete:
		if e.Err != nil {
			return ActionCancelRun{Err: e.Err}
		}
		w.mux.CommitWrite()
		return w.tryWrite()

	case EventWorkAvailable, EventStart:
		return w.tryWrite()

	default:
		return ActionWait{}
	}
}

func (w *Writer) tryWrite() Action {
	if w.mux.PrepareWrite() == 0 {
		return ActionWait{}
	}
	return ActionWrite{Buf: w.mux.WriteBuffer()}
}
