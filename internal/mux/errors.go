package mux

import "errors"

var (
	// ErrExceedsMaxReadBuffer is returned by ReadBuffer.Prepared when the
	// configured maximum read buffer size would be exceeded.
	ErrExceedsMaxReadBuffer = errors.New("exceeds maximum read buffer size")

	// ErrOperationAborted marks elements cancelled while still Waiting.
	ErrOperationAborted = errors.New("mux: operation aborted")

	// ErrConnectionLost marks elements cancelled because the underlying
	// transport failed or was closed.
	ErrConnectionLost = errors.New("mux: connection lost")
)
