// Package bench implements a small pipelining micro-benchmark harness: it
// submits concurrent Exec calls against a redis3.Conn at a configurable
// rate, the way internal/replica/flow_writer.go throttles RDB replay writes
// with a golang.org/x/time/rate.Limiter, and reports the multiplexer's
// usage counters once the run finishes.
package bench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"redis3/internal/adapter"
	"redis3/internal/redis3"
	"redis3/internal/request"
)

// Config controls one benchmark run.
type Config struct {
	// Command and Args are issued repeatedly, once per iteration.
	Command string
	Args    []interface{}

	// Iterations is the total number of requests to submit.
	Iterations int

	// Concurrency caps how many Exec calls may be in flight at once.
	Concurrency int

	// QPS limits the submission rate; zero or negative means unlimited
	// (mirrors the teacher's rate.Inf default for an un-throttled flow).
	QPS float64
}

// Result reports what one run produced.
type Result struct {
	Iterations   int
	Errors       int
	Elapsed      time.Duration
	BytesWritten int64
	BytesRead    int64
	Responses    int64
	Pushes       int64
}

// Run submits cfg.Iterations copies of cfg.Command/cfg.Args through conn,
// cfg.Concurrency at a time, optionally throttled to cfg.QPS, and returns
// aggregate timing and usage statistics.
func Run(ctx context.Context, conn *redis3.Conn, cfg Config) (Result, error) {
	if cfg.Iterations <= 0 {
		return Result{}, fmt.Errorf("bench: iterations must be positive")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	limit := rate.Inf
	burst := 0
	if cfg.QPS > 0 {
		limit = rate.Limit(cfg.QPS)
		burst = concurrency
	}
	limiter := rate.NewLimiter(limit, burst)

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var errCount int64

	start := time.Now()
	for i := 0; i < cfg.Iterations; i++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			req := request.New()
			req.Push(cfg.Command, cfg.Args...)
			var reply adapter.Tree
			if _, err := conn.Exec(ctx, req, &reply); err != nil {
				atomic.AddInt64(&errCount, 1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	usage := conn.Usage()
	return Result{
		Iterations:   cfg.Iterations,
		Errors:       int(errCount),
		Elapsed:      elapsed,
		BytesWritten: int64(usage.BytesWritten),
		BytesRead:    int64(usage.BytesRead),
		Responses:    int64(usage.ResponsesCount),
		Pushes:       int64(usage.PushesCount),
	}, nil
}
