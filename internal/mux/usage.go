package mux

// Usage accumulates the byte counters Boost.Redis exposes via its usage.hpp
// equivalent: total bytes moved in each direction, split out by whether a
// read was a normal response or a server push.
type Usage struct {
	BytesWritten    uint64
	BytesRead       uint64
	ResponseBytes   uint64
	PushBytes       uint64
	ResponsesCount  uint64
	PushesCount     uint64
}

func (u *Usage) addWrite(n int) {
	u.BytesWritten += uint64(n)
}

func (u *Usage) addResponse(n int) {
	u.BytesRead += uint64(n)
	u.ResponseBytes += uint64(n)
	u.ResponsesCount++
}

func (u *Usage) addPush(n int) {
	u.BytesRead += uint64(n)
	u.PushBytes += uint64(n)
	u.PushesCount++
}
