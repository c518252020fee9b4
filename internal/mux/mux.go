// Package mux implements the pipelining multiplexer: it sequences
// concurrent request submissions into a single ordered write stream,
// matches replies back to the submitting element in FIFO order, and routes
// server push frames out-of-band to a receive adapter.
package mux

import (
	"fmt"

	"redis3/internal/adapter"
	"redis3/internal/resp3"
)

// Result reports what consuming a chunk of bytes produced.
type Result int

const (
	NeedsMore Result = iota
	GotResponse
	GotPush
)

// Mux owns the write-coalescing buffer, the FIFO queue of in-flight
// elements, the incremental parser, and the push receive path. It is not
// safe for concurrent use: all of it is driven from the single task that
// owns the reader, writer, and exec FSMs (spec §5).
type Mux struct {
	queue []*Elem

	writeBuf []byte

	parser *resp3.Parser
	// target is the adapter the in-progress top-level message is being
	// routed to; it is pinned the moment the root node of a message is
	// seen and cleared once the message completes.
	target      adapter.Adapter
	targetIsElem bool
	rootSeen    bool
	bytesThisMsg int
	// msgErr is the first adapter error reported for the in-progress
	// message; it survives across ConsumeNext calls until the message ends.
	msgErr error

	ReceiveAdapter adapter.Adapter

	Usage Usage
}

// New returns an empty Mux. receiveAdapter may be nil; pushes arriving
// before Receive installs one are silently discarded via adapter.Discard.
func New(receiveAdapter adapter.Adapter) *Mux {
	if receiveAdapter == nil {
		receiveAdapter = adapter.Discard{}
	}
	return &Mux{
		parser:         resp3.NewParser(),
		ReceiveAdapter: receiveAdapter,
	}
}

// SetReceiveAdapter installs (or replaces) the push receive adapter.
func (m *Mux) SetReceiveAdapter(a adapter.Adapter) {
	if a == nil {
		a = adapter.Discard{}
	}
	m.ReceiveAdapter = a
}

// Add appends elem in the Waiting state. Priority elements are inserted
// after any other priority element but before non-priority ones.
func (m *Mux) Add(elem *Elem) {
	if !elem.Req.Priority() {
		m.queue = append(m.queue, elem)
		return
	}
	pos := 0
	for pos < len(m.queue) && m.queue[pos].Req.Priority() {
		pos++
	}
	m.queue = append(m.queue, nil)
	copy(m.queue[pos+1:], m.queue[pos:])
	m.queue[pos] = elem
}

// Remove detaches elem from the queue if it is still Waiting, returning
// true on success. It is the cancellation path for an exec that has not
// yet been written.
func (m *Mux) Remove(elem *Elem) bool {
	if elem.Status() != Waiting {
		return false
	}
	for i, e := range m.queue {
		if e == elem {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return true
		}
	}
	return false
}

// PrepareWrite concatenates the wire payload of every currently Waiting
// element into the internal write buffer and marks them Staged. It returns
// the number of elements staged; calling it again before CommitWrite is
// idempotent and returns 0, since no element remains Waiting.
func (m *Mux) PrepareWrite() int {
	n := 0
	for _, e := range m.queue {
		if e.Status() != Waiting {
			continue
		}
		m.writeBuf = append(m.writeBuf, e.Req.Bytes()...)
		e.status = Staged
		n++
	}
	return n
}

// WriteBuffer returns the bytes accumulated by PrepareWrite, ready to be
// handed to the transport.
func (m *Mux) WriteBuffer() []byte {
	return m.writeBuf
}

// CommitWrite transitions every Staged element to Written, except elements
// with zero expected responses (pure push-reply commands such as
// SUBSCRIBE), which go directly to Done and fire their callback. It clears
// the write buffer and returns the number of elements that went directly to
// Done.
func (m *Mux) CommitWrite() int {
	n := 0
	m.Usage.addWrite(len(m.writeBuf))
	m.writeBuf = m.writeBuf[:0]
	for _, e := range m.queue {
		if e.Status() != Staged {
			continue
		}
		e.status = Written
		if e.remaining == 0 {
			e.finish(nil)
			n++
		}
	}
	m.pruneDone()
	return n
}

// IsWriting reports whether there is any Staged or Written element, i.e.
// whether the writer has outstanding work in flight.
func (m *Mux) IsWriting() bool {
	for _, e := range m.queue {
		if e.Status() == Staged || e.Status() == Written {
			return true
		}
	}
	return false
}

// CancelWaiting transitions every Waiting element to Done with
// ErrOperationAborted, invoking callbacks, and returns the count affected.
func (m *Mux) CancelWaiting() int {
	n := 0
	for _, e := range m.queue {
		if e.Status() == Waiting {
			e.finish(ErrOperationAborted)
			n++
		}
	}
	m.pruneDone()
	return n
}

// CancelOnConnLost marks Done, with ErrConnectionLost, every element whose
// policy requests it. Elements marked retry-safe and not yet Written are
// instead retained as Waiting so they can be re-submitted on reconnect. It
// returns the number of elements finished with an error.
func (m *Mux) CancelOnConnLost() int {
	n := 0
	for _, e := range m.queue {
		if e.Status() == Done {
			continue
		}
		cfg := e.Req.GetConfig()
		if cfg.Retry && e.Status() != Written {
			e.status = Waiting
			continue
		}
		if cfg.CancelOnConnectionLost || e.Status() == Written {
			e.finish(ErrConnectionLost)
			n++
		}
	}
	m.pruneDone()
	return n
}

func (m *Mux) pruneDone() {
	kept := m.queue[:0]
	for _, e := range m.queue {
		if e.Status() != Done {
			kept = append(kept, e)
		}
	}
	m.queue = kept
}

// head returns the earliest Written element still awaiting responses, or
// nil if none is in flight.
func (m *Mux) head() *Elem {
	for _, e := range m.queue {
		if e.Status() == Written && e.remaining > 0 {
			return e
		}
	}
	return nil
}

// ConsumeNext feeds buf to the parser, routing completed nodes to either
// the head in-flight element's adapter or, for a push, the receive
// adapter. It returns how many bytes were consumed and what, if anything,
// completed. Call it in a loop until it reports NeedsMore; consumed may be
// nonzero even when the result is NeedsMore, since a message can span
// several calls.
func (m *Mux) ConsumeNext(buf []byte) (Result, int, error) {
	total := 0
	for {
		node, n, err := m.parser.Parse(buf[total:])
		total += n
		if err == resp3.ErrNeedMore {
			return NeedsMore, total, nil
		}
		if err != nil {
			return NeedsMore, total, err
		}

		m.bytesThisMsg += n

		if node == nil {
			// Forward progress (e.g. a streamed-string header) with no
			// node yet; keep pulling from the same buffer.
			continue
		}

		if !m.rootSeen {
			m.rootSeen = true
			if node.Type == resp3.Push {
				m.target = m.ReceiveAdapter
				m.targetIsElem = false
			} else {
				head := m.head()
				if head == nil {
					return NeedsMore, total, fmt.Errorf("mux: response with no element in flight")
				}
				m.target = head.Adapter
				m.targetIsElem = true
			}
			m.target.OnInit()
		}

		var nodeErr error
		m.target.OnNode(*node, &nodeErr)
		if nodeErr != nil && m.msgErr == nil {
			m.msgErr = nodeErr
		}

		if m.parser.Done() {
			m.target.OnDone()
			result := GotPush
			if m.targetIsElem {
				result = GotResponse
				head := m.head()
				if head != nil {
					head.bytesRead += m.bytesThisMsg
					head.remaining--
					if head.remaining == 0 {
						head.finish(m.msgErr)
					}
				}
				m.Usage.addResponse(m.bytesThisMsg)
			} else {
				m.Usage.addPush(m.bytesThisMsg)
			}
			m.rootSeen = false
			m.target = nil
			m.bytesThisMsg = 0
			m.msgErr = nil
			m.pruneDone()
			return result, total, nil
		}
	}
}

// Len reports the number of elements still tracked by the multiplexer
// (Waiting, Staged, or Written; Done elements are pruned eagerly).
func (m *Mux) Len() int {
	return len(m.queue)
}
