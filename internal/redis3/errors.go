package redis3

import "errors"

// Lifecycle errors (spec §7).
var (
	ErrResolveTimeout      = errors.New("redis3: resolve timeout")
	ErrConnectTimeout      = errors.New("redis3: connect timeout")
	ErrSSLHandshakeTimeout = errors.New("redis3: ssl handshake timeout")
	ErrWriteTimeout        = errors.New("redis3: write timeout")
	ErrPongTimeout         = errors.New("redis3: pong timeout")
	ErrRESP3Hello          = errors.New("redis3: resp3 hello failed")
	ErrNotConnected        = errors.New("redis3: not connected")
)

// Configuration errors (spec §7).
var (
	ErrUnixSocketsUnsupported         = errors.New("redis3: unix sockets unsupported")
	ErrUnixSocketsSSLUnsupported      = errors.New("redis3: unix sockets and ssl are mutually exclusive")
	ErrSentinelUnixSocketsUnsupported = errors.New("redis3: unix sockets and sentinel are mutually exclusive")
)

// Sentinel errors (spec §7).
var (
	ErrSentinelResolveFailed = errors.New("redis3: sentinel resolve failed")
	ErrRoleCheckFailed       = errors.New("redis3: role check failed")
)

const (
	unixSocketsSSLUnsupportedMsg      = "unix_socket 与 use_ssl 不能同时启用"
	sentinelUnixSocketsUnsupportedMsg = "unix_socket 与 sentinel 不能同时启用"
)
