package redis3

import (
	"context"
	"sync"
	"time"

	"redis3/internal/adapter"
	"redis3/internal/request"
)

// healthCheck runs the ping/pong-wait pair described in spec §4.F. It is
// started alongside the reader and writer for the lifetime of one
// connection attempt and stops the moment either sub-task observes a
// problem, surfacing the error through errCh.
type healthCheck struct {
	interval time.Duration
	id       string

	mu        sync.Mutex
	lastReply string
	everGot   bool
}

func newHealthCheck(interval time.Duration, id string) *healthCheck {
	return &healthCheck{interval: interval, id: id}
}

// run drives both the ping and pong-wait sub-tasks until ctx is cancelled or
// one of them detects a problem, in which case it returns that error.
func (h *healthCheck) run(ctx context.Context, exec func(ctx context.Context, req *request.Request, ad adapter.Adapter) error) error {
	if h.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	errCh := make(chan error, 2)
	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go h.pingLoop(pingCtx, exec, errCh)
	go h.pongWaitLoop(pingCtx, errCh)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (h *healthCheck) pingLoop(ctx context.Context, exec func(ctx context.Context, req *request.Request, ad adapter.Adapter) error, errCh chan<- error) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			req := request.New()
			req.Push("PING", h.id)
			var reply adapter.Tree
			if err := exec(ctx, req, &reply); err != nil {
				select {
				case errCh <- err:
				default:
				}
				return
			}
			s, _ := reply.Result.ToString()
			h.mu.Lock()
			h.lastReply = s
			h.everGot = true
			h.mu.Unlock()
		}
	}
}

func (h *healthCheck) pongWaitLoop(ctx context.Context, errCh chan<- error) {
	timeout := 2 * h.interval
	ticker := time.NewTicker(timeout)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.Lock()
			got := h.everGot
			h.lastReply = ""
			h.everGot = false
			h.mu.Unlock()
			if !got {
				select {
				case errCh <- ErrPongTimeout:
				default:
				}
				return
			}
		}
	}
}
