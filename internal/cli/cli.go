// Package cli implements the redis3cli command dispatch, grounded on the
// migration tool's own flag.FlagSet-per-subcommand style
// (df2redis's cli.Execute): a signal-aware top-level dispatcher, one
// FlagSet per subcommand, and log.Printf status lines.
package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"redis3/internal/adapter"
	"redis3/internal/bench"
	"redis3/internal/logger"
	"redis3/internal/redis3"
	"redis3/internal/request"
)

// Execute dispatches CLI subcommands and returns a process exit code.
func Execute(args []string) int {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("[redis3cli] ")

	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "exec":
		return runExec(args[1:])
	case "ping":
		return runPing(args[1:])
	case "bench":
		return runBench(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	case "version", "--version", "-v":
		fmt.Println("redis3cli 0.1.0-dev")
		return 0
	default:
		log.Printf("Unknown subcommand: %s", args[0])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println(`redis3cli — exercise the redis3 client core from the command line

Usage:
  redis3cli exec  --config FILE COMMAND [ARG...]
  redis3cli ping  --config FILE
  redis3cli bench --config FILE --command COMMAND [--arg ARG]... [--n N] [--concurrency C] [--qps Q]
  redis3cli help
  redis3cli version`)
}

// dialFromArgs parses the --config flag shared by every subcommand, starts
// a Conn's Run loop from the loaded config, and returns the Conn, the
// signal-aware context, and the func that releases it.
func dialFromArgs(fs *flag.FlagSet, args []string) (*redis3.Conn, context.Context, context.CancelFunc, error) {
	var configPath string
	fs.StringVar(&configPath, "config", "", "Configuration file path (YAML)")
	fs.StringVar(&configPath, "c", "", "Configuration file path (YAML)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, err
	}
	if configPath == "" {
		return nil, nil, nil, fmt.Errorf("the --config flag is required")
	}

	cfg, err := redis3.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	lg, err := logger.New(cfg.LogDir, logger.INFO, cfg.Addr.String())
	if err != nil {
		stop()
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	conn := redis3.NewConn(cfg, lg)
	go func() { _ = conn.Run(ctx) }()

	// Give the first connection attempt a moment before allowing callers
	// to submit work; while no connection is up, Exec returns
	// ErrNotConnected to every caller, whatever the request's
	// CancelIfNotConnected setting, and does not queue the request.
	select {
	case <-time.After(200 * time.Millisecond):
	case <-ctx.Done():
	}

	return conn, ctx, stop, nil
}

func runExec(args []string) int {
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	conn, ctx, stop, err := dialFromArgs(fs, args)
	if err != nil {
		log.Printf("%v", err)
		return 2
	}
	defer stop()

	rest := fs.Args()
	if len(rest) == 0 {
		log.Println("exec requires a command, e.g. redis3cli exec --config c.yaml GET foo")
		return 2
	}

	cmdArgs := make([]interface{}, 0, len(rest)-1)
	for _, a := range rest[1:] {
		cmdArgs = append(cmdArgs, a)
	}

	req := request.New()
	req.Push(rest[0], cmdArgs...)

	var reply adapter.Tree
	n, err := conn.Exec(ctx, req, &reply)
	if err != nil {
		log.Printf("exec failed: %v", err)
		conn.Cancel(redis3.OpAll)
		return 1
	}
	log.Printf("exec ok (%d bytes read)", n)
	printValue(reply.Result, 0)

	conn.Cancel(redis3.OpAll)
	return 0
}

func runPing(args []string) int {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	conn, ctx, stop, err := dialFromArgs(fs, args)
	if err != nil {
		log.Printf("%v", err)
		return 2
	}
	defer stop()

	req := request.New()
	req.Push("PING")
	var reply adapter.Tree
	if _, err := conn.Exec(ctx, req, &reply); err != nil {
		log.Printf("ping failed: %v", err)
		conn.Cancel(redis3.OpAll)
		return 1
	}
	s, _ := reply.Result.ToString()
	log.Printf("PONG: %s", s)
	conn.Cancel(redis3.OpAll)
	return 0
}

func runBench(args []string) int {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	var command string
	var argList stringList
	var n int
	var concurrency int
	var qps float64
	fs.StringVar(&command, "command", "PING", "command to repeat")
	fs.Var(&argList, "arg", "command argument (repeatable)")
	fs.IntVar(&n, "n", 1000, "number of iterations")
	fs.IntVar(&concurrency, "concurrency", 10, "concurrent in-flight requests")
	fs.Float64Var(&qps, "qps", 0, "submission rate limit (0 = unlimited)")

	conn, ctx, stop, err := dialFromArgsWithFlags(fs, args)
	if err != nil {
		log.Printf("%v", err)
		return 2
	}
	defer stop()

	cmdArgs := make([]interface{}, 0, len(argList))
	for _, a := range argList {
		cmdArgs = append(cmdArgs, a)
	}

	result, err := bench.Run(ctx, conn, bench.Config{
		Command:     command,
		Args:        cmdArgs,
		Iterations:  n,
		Concurrency: concurrency,
		QPS:         qps,
	})
	conn.Cancel(redis3.OpAll)
	if err != nil {
		log.Printf("bench failed: %v", err)
		return 1
	}

	log.Printf("iterations=%d errors=%d elapsed=%s bytes_written=%d bytes_read=%d responses=%d pushes=%d",
		result.Iterations, result.Errors, result.Elapsed, result.BytesWritten, result.BytesRead, result.Responses, result.Pushes)
	return 0
}

// dialFromArgsWithFlags is dialFromArgs but lets the caller register
// additional flags on fs before --config is parsed.
func dialFromArgsWithFlags(fs *flag.FlagSet, args []string) (*redis3.Conn, context.Context, context.CancelFunc, error) {
	return dialFromArgs(fs, args)
}

func printValue(v adapter.Value, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	if len(v.Children) == 0 {
		fmt.Printf("%s%s: %s\n", indent, v.Type, string(v.Bytes))
		return
	}
	fmt.Printf("%s%s:\n", indent, v.Type)
	for _, c := range v.Children {
		printValue(c, depth+1)
	}
}

// stringList implements flag.Value for a repeatable -arg flag.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
