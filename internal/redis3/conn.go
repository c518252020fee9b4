package redis3

import (
	"context"
	"net"
	"sync"

	"redis3/internal/adapter"
	"redis3/internal/fsm"
	"redis3/internal/logger"
	"redis3/internal/mux"
	"redis3/internal/request"
)

// Operation names an operand of Cancel (spec §6).
type Operation int

const (
	OpRun Operation = iota
	OpExec
	OpReceive
	OpReconnection
	OpAll
)

// Conn is the user-facing connection: constructible with a Config and a
// Logger, it owns one Sentinel-aware reconnecting run loop and exposes
// Exec/Receive to submit work against whichever attempt is currently live.
type Conn struct {
	cfg *Config
	log *logger.Logger

	mu        sync.Mutex
	mx        *mux.Mux
	notifyCh  chan struct{}
	connected bool

	cancelRun    context.CancelFunc
	cancelRecv   context.CancelFunc
	sentinelList []Addr
}

// NewConn builds a Conn. log may be nil, in which case a console-only
// default logger is used.
func NewConn(cfg *Config, log *logger.Logger) *Conn {
	if log == nil {
		log = logger.Default()
	}
	var sentinelList []Addr
	if cfg.Sentinel != nil {
		sentinelList = append([]Addr{}, cfg.Sentinel.Addresses...)
	}
	return &Conn{
		cfg:          cfg,
		log:          log,
		notifyCh:     make(chan struct{}, 1),
		sentinelList: sentinelList,
	}
}

// Exec submits req, routes its response through ad, and returns the number
// of bytes read into the adapter (spec §6 connection.exec).
func (c *Conn) Exec(ctx context.Context, req *request.Request, ad adapter.Adapter) (int, error) {
	c.mu.Lock()
	mx := c.mx
	connected := c.connected
	notifyCh := c.notifyCh
	c.mu.Unlock()

	if mx == nil {
		if req.GetConfig().CancelIfNotConnected {
			return 0, ErrNotConnected
		}
		return 0, ErrNotConnected
	}

	doneCh := make(chan struct{}, 1)
	var resultErr error
	var bytesRead int
	elem := mux.NewElem(req, ad, func(err error, n int) {
		resultErr = err
		bytesRead = n
		select {
		case doneCh <- struct{}{}:
		default:
		}
	})

	x := fsm.NewExec(mx, elem)
	action := x.Resume(fsm.EventExecStart{Connected: connected})
	if done, ok := action.(fsm.ActionDone); ok {
		return 0, done.Err
	}

	select {
	case notifyCh <- struct{}{}:
	default:
	}

	select {
	case <-doneCh:
		return bytesRead, resultErr
	case <-ctx.Done():
		x.Resume(fsm.EventCancel{Err: ctx.Err()})
		select {
		case <-doneCh:
			return bytesRead, resultErr
		default:
			return 0, ctx.Err()
		}
	}
}

// Receive installs ad as the push receive adapter for as long as ctx stays
// open (spec §6 connection.receive). Subscriptions do not survive
// reconnects: the caller must re-subscribe and call Receive again after a
// reconnect.
func (c *Conn) Receive(ctx context.Context, ad adapter.Adapter) error {
	c.mu.Lock()
	mx := c.mx
	if mx == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	recvCtx, cancel := context.WithCancel(ctx)
	c.cancelRecv = cancel
	c.mu.Unlock()
	defer cancel()

	mx.SetReceiveAdapter(ad)
	<-recvCtx.Done()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// Cancel cancels the named operation. OpRun and OpAll tear down the whole
// connection (closing the transport is the canonical way to disconnect);
// OpReconnection stops the run loop from reconnecting after the current
// attempt ends.
func (c *Conn) Cancel(op Operation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch op {
	case OpRun, OpAll:
		if c.cancelRun != nil {
			c.cancelRun()
		}
	case OpReceive:
		if c.cancelRecv != nil {
			c.cancelRecv()
		}
	case OpReconnection:
		c.cfg.ReconnectWaitInterval = 0
	}
}

// Usage returns a snapshot of the multiplexer's byte/message counters for
// the current connection attempt, or a zero value if not connected.
// internal/bench uses this to report pipelining throughput.
func (c *Conn) Usage() mux.Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mx == nil {
		return mux.Usage{}
	}
	return c.mx.Usage
}

func (c *Conn) setActive(mx *mux.Mux, connected bool) {
	c.mu.Lock()
	c.mx = mx
	c.connected = connected
	c.mu.Unlock()
}

func (c *Conn) logf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Info(format, args...)
	}
}

func (c *Conn) warnf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Warn(format, args...)
	}
}

// resolveAddr determines the server address for the next connection
// attempt: through Sentinel if configured, otherwise the direct Addr. A
// Sentinel resolution failure is terminal (spec §9): it never falls back to
// a direct Addr even if both are configured.
func (c *Conn) resolveAddr() (Addr, error) {
	if c.cfg.Sentinel == nil || len(c.cfg.Sentinel.Addresses) == 0 {
		return c.cfg.Addr, nil
	}
	sentinelCfg := *c.cfg.Sentinel
	sentinelCfg.Addresses = c.sentinelList
	scopedCfg := *c.cfg
	scopedCfg.Sentinel = &sentinelCfg

	master, updated, err := resolveMaster(&scopedCfg)
	if err != nil {
		return Addr{}, err
	}
	c.sentinelList = updated
	if err := verifyRole(c.cfg, master); err != nil {
		return Addr{}, err
	}
	return master, nil
}

func closeQuietly(conn net.Conn) {
	if conn != nil {
		_ = conn.Close()
	}
}
