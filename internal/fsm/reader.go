package fsm

import "redis3/internal/mux"

// Reader is the sans-I/O reader state machine (spec §4.E). It owns the read
// buffer and drains it through the multiplexer's parser, notifying the push
// receive path out-of-band and applying back-pressure: it will not request
// more bytes while a delivered push is still being consumed.
type Reader struct {
	mux *mux.Mux
	buf *mux.ReadBuffer

	awaitingPush bool
	cancelled    bool
}

// NewReader returns a Reader driving m with its own read buffer.
func NewReader(m *mux.Mux, buf *mux.ReadBuffer) *Reader {
	return &Reader{mux: m, buf: buf}
}

// Prepared returns the writable tail of the read buffer; the driver must
// read the transport into this slice before reporting EventReadComplete.
func (r *Reader) Prepared() ([]byte, error) {
	return r.buf.Prepared()
}

// Resume advances the reader one step.
func (r *Reader) Resume(ev Event) Action {
	if r.cancelled {
		return ActionDone{Err: nil}
	}

	switch e := ev.(type) {
	case EventCancel:
		r.cancelled = true
		return ActionDone{Err: e.Err}

	case EventReadComplete:
		if e.Err != nil {
			return ActionCancelRun{Err: e.Err}
		}
		if e.N == 0 {
			return ActionCancelRun{Err: ErrConnectionClosed}
		}
		r.buf.Commit(e.N)
		return r.drain()

	case EventPushDelivered:
		r.awaitingPush = false
		return r.drain()

	case EventStart:
		return ActionAppendSome{}

	default:
		return ActionAppendSome{}
	}
}

func (r *Reader) drain() Action {
	for {
		data := r.buf.Committed()
		if len(data) == 0 {
			return ActionAppendSome{}
		}
		res, n, err := r.mux.ConsumeNext(data)
		if n > 0 {
			r.buf.Consume(n)
		}
		if err != nil {
			return ActionCancelRun{Err: err}
		}
		switch res {
		case mux.NeedsMore:
			return ActionAppendSome{}
		case mux.GotPush:
			r.awaitingPush = true
			return ActionNotifyPushReceiver{Size: n}
		case mux.GotResponse:
			// keep draining: more complete messages may already be
			// buffered.
			continue
		}
	}
}
