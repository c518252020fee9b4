package fsm

import "errors"

var (
	// ErrConnectionClosed is surfaced when a read returns zero bytes with
	// no error: an orderly EOF from the peer.
	ErrConnectionClosed = errors.New("fsm: connection closed")

	// ErrNotConnected is the Exec FSM's immediate-completion error when the
	// connection is down and the request's CancelIfNotConnected is set.
	ErrNotConnected = errors.New("fsm: not connected")

	// ErrAborted is the Exec FSM's completion error for a cancelled,
	// still-waiting request.
	ErrAborted = errors.New("fsm: operation aborted")
)
