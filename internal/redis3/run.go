package redis3

import (
	"context"
	"net"
	"time"

	"redis3/internal/adapter"
	"redis3/internal/fsm"
	"redis3/internal/mux"
	"redis3/internal/request"
	"redis3/internal/resp3"
)

// Run drives the connection for as long as ctx stays open (spec §6
// connection.run / §4.F run supervisor): resolve the server address,
// connect, negotiate RESP3 and auth, then run the reader, writer, and
// health-check tasks side by side until one of them fails, at which point
// the attempt is torn down and, unless ReconnectWaitInterval is zero or ctx
// is done, retried after a backoff sleep.
func (c *Conn) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelRun = cancel
	c.mu.Unlock()
	defer cancel()

	var lastErr error
	for {
		if runCtx.Err() != nil {
			return lastErr
		}

		lastErr = c.runOnce(runCtx)
		c.setActive(nil, false)

		if runCtx.Err() != nil {
			return lastErr
		}
		if c.cfg.ReconnectWaitInterval <= 0 {
			return lastErr
		}
		c.warnf("redis3: connection attempt failed, retrying in %s: %v", c.cfg.ReconnectWaitInterval, lastErr)

		select {
		case <-time.After(c.cfg.ReconnectWaitInterval):
		case <-runCtx.Done():
			return lastErr
		}
	}
}

// runOnce performs exactly one connect-serve-disconnect cycle, blocking
// until the connection fails or runCtx is cancelled.
func (c *Conn) runOnce(runCtx context.Context) error {
	addr, err := c.resolveAddr()
	if err != nil {
		return err
	}

	cfg := *c.cfg
	cfg.Addr = addr

	conn, err := dial(runCtx, &cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(conn)

	mx := mux.New(nil)
	if err := c.handshake(conn, &cfg); err != nil {
		return err
	}

	c.setActive(mx, true)
	c.logf("redis3: connected to %s", addr)

	readBuf := mux.NewReadBuffer(cfg.ReadBufferAppendSize, cfg.MaxReadSize)
	reader := fsm.NewReader(mx, readBuf)
	writer := fsm.NewWriter(mx)

	serveCtx, serveCancel := context.WithCancel(runCtx)
	defer serveCancel()

	errCh := make(chan error, 3)
	go c.readLoop(serveCtx, conn, reader, errCh)
	go c.writeLoop(serveCtx, conn, writer, c.notifyCh, errCh)

	hc := newHealthCheck(cfg.HealthCheckInterval, healthCheckID(&cfg))
	go func() {
		errCh <- hc.run(serveCtx, func(execCtx context.Context, req *request.Request, ad adapter.Adapter) error {
			_, err := c.Exec(execCtx, req, ad)
			return err
		})
	}()

	var finalErr error
	select {
	case finalErr = <-errCh:
	case <-runCtx.Done():
		finalErr = runCtx.Err()
	}

	serveCancel()
	closeQuietly(conn)
	mx.CancelOnConnLost()

	return finalErr
}

// handshake negotiates RESP3, auth, and the selected database via a single
// HELLO/AUTH/SETNAME/SELECT pipeline, parsing replies the same way the
// sentinel helper does: synchronously, without the multiplexer, since
// nothing else is in flight yet.
func (c *Conn) handshake(conn net.Conn, cfg *Config) error {
	req := buildSetupRequest(cfg)
	expected := req.ExpectedResponses()

	if _, err := conn.Write(req.Bytes()); err != nil {
		return err
	}

	parser := resp3.NewParser()
	pending := pendingBuf{}
	readBuf := make([]byte, 4096)

	for i := 0; i < expected; i++ {
		tree := &adapter.Tree{}
		tree.OnInit()
		for {
			node, n, err := parser.Parse(pending.bytes())
			if err == resp3.ErrNeedMore {
				more, rerr := conn.Read(readBuf)
				if rerr != nil {
					return ErrRESP3Hello
				}
				pending.append(readBuf[:more])
				continue
			}
			if err != nil {
				return ErrRESP3Hello
			}
			pending.advance(n)
			if node != nil {
				var adapterErr error
				tree.OnNode(*node, &adapterErr)
				if adapterErr != nil {
					return ErrRESP3Hello
				}
			}
			if parser.Done() {
				tree.OnDone()
				break
			}
		}
	}
	return nil
}

func healthCheckID(cfg *Config) string {
	if cfg.HealthCheckID != "" {
		return cfg.HealthCheckID
	}
	return "redis3"
}

func (c *Conn) readLoop(ctx context.Context, conn net.Conn, r *fsm.Reader, errCh chan<- error) {
	action := r.Resume(fsm.EventStart{})
	for {
		select {
		case <-ctx.Done():
			r.Resume(fsm.EventCancel{Err: ctx.Err()})
			return
		default:
		}

		switch a := action.(type) {
		case fsm.ActionAppendSome:
			buf, err := r.Prepared()
			if err != nil {
				errCh <- err
				return
			}
			n, err := conn.Read(buf)
			action = r.Resume(fsm.EventReadComplete{N: n, Err: err})

		case fsm.ActionNotifyPushReceiver:
			action = r.Resume(fsm.EventPushDelivered{})

		case fsm.ActionCancelRun:
			errCh <- a.Err
			return

		case fsm.ActionDone:
			if a.Err != nil {
				errCh <- a.Err
			}
			return

		default:
			action = r.Resume(fsm.EventStart{})
		}
	}
}

func (c *Conn) writeLoop(ctx context.Context, conn net.Conn, w *fsm.Writer, notifyCh <-chan struct{}, errCh chan<- error) {
	action := w.Resume(fsm.EventStart{})
	for {
		switch a := action.(type) {
		case fsm.ActionWrite:
			if dl := c.cfg.WriteTimeout; dl > 0 {
				_ = conn.SetWriteDeadline(time.Now().Add(dl))
			}
			_, err := conn.Write(a.Buf)
			action = w.Resume(fsm.EventWriteComplete{Err: err})

		case fsm.ActionWait:
			select {
			case <-notifyCh:
				action = w.Resume(fsm.EventWorkAvailable{})
			case <-ctx.Done():
				w.Resume(fsm.EventCancel{Err: ctx.Err()})
				return
			}

		case fsm.ActionCancelRun:
			errCh <- a.Err
			return

		case fsm.ActionDone:
			if a.Err != nil {
				errCh <- a.Err
			}
			return

		default:
			action = w.Resume(fsm.EventWorkAvailable{})
		}
	}
}
