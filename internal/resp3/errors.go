package resp3

import "errors"

// ErrNeedMore is returned by Parser.Parse when the supplied buffer does not
// yet contain a complete line or bulk body. It is never a fatal error: the
// caller should feed more bytes and call Parse again with the parser's
// internal state unchanged.
var ErrNeedMore = errors.New("resp3: need more data")

// Wire/parser error taxonomy (spec §7). These are fatal for the current
// message: bytes cannot be resynchronized without a framing marker, so the
// caller must tear down the connection.
var (
	ErrInvalidDataType          = errors.New("resp3: invalid data type")
	ErrNotANumber               = errors.New("resp3: not a number")
	ErrExceedsMaxNestedDepth    = errors.New("resp3: exceeeds max nested depth")
	ErrUnexpectedBoolValue      = errors.New("resp3: unexpected bool value")
	ErrEmptyField               = errors.New("resp3: empty field")
	ErrIncompatibleSize         = errors.New("resp3: incompatible size")
	ErrNotADouble               = errors.New("resp3: not a double")
	ErrExceedsMaximumReadBuffer = errors.New("resp3: exceeds maximum read buffer size")
	ErrIncompatibleNodeDepth    = errors.New("resp3: incompatible node depth")
)
