// Package logger implements the dual console+file leveled logger used
// throughout the client. Unlike a typical package-global logger, Logger is
// instantiable: the run supervisor builds one per redis3.Conn, since the
// logger is an injectable, connection-scoped callback (spec §9), not
// process-wide state. A package-level default instance is still kept for
// cmd/redis3cli and anything that wants the old singleton convenience.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level lists supported log severities.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// Logger writes to an optional file plus the console, gated by Level.
// Debug/Info go to the file only; Warn/Error mirror to both sinks.
type Logger struct {
	mu         sync.Mutex
	fileLogger *log.Logger
	consoleLog *log.Logger
	level      Level
	logFile    *os.File
	tag        string
}

// New builds a standalone Logger. logDir may be empty, in which case
// Debug/Info are dropped rather than written anywhere: a connection run
// without a configured log directory still gets console Warn/Error output.
// tag is printed in each console line (e.g. the server address) so logs
// from multiple concurrent connections stay distinguishable.
func New(logDir string, level Level, tag string) (*Logger, error) {
	l := &Logger{
		level:      level,
		tag:        tag,
		consoleLog: log.New(os.Stdout, "", 0),
	}
	if logDir == "" {
		return l, nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	name := tag
	if name == "" {
		name = "redis3"
	}
	path := filepath.Join(logDir, fmt.Sprintf("%s.log", sanitize(name)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	l.logFile = f
	l.fileLogger = log.New(f, "", 0)
	return l, nil
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// Close releases the backing log file, if any.
func (l *Logger) Close() error {
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}

func (l *Logger) formatMessage(level Level, format string, args ...interface{}) string {
	timestamp := time.Now().Format("2006/01/02 15:04:05")
	return fmt.Sprintf("%s [%s] %s", timestamp, levelNames[level], fmt.Sprintf(format, args...))
}

func (l *Logger) logToFile(level Level, format string, args ...interface{}) {
	if l == nil || l.fileLogger == nil || level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fileLogger.Println(l.formatMessage(level, format, args...))
}

func (l *Logger) logToConsole(format string, args ...interface{}) {
	if l == nil {
		fmt.Printf(format+"\n", args...)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	timestamp := time.Now().Format("2006/01/02 15:04:05")
	prefix := "redis3"
	if l.tag != "" {
		prefix = l.tag
	}
	l.consoleLog.Printf("%s [%s] %s", timestamp, prefix, fmt.Sprintf(format, args...))
}

// Debug logs a file-only debug message.
func (l *Logger) Debug(format string, args ...interface{}) { l.logToFile(DEBUG, format, args...) }

// Info logs a file-only informational message.
func (l *Logger) Info(format string, args ...interface{}) { l.logToFile(INFO, format, args...) }

// Warn logs to both sinks.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logToFile(WARN, format, args...)
	l.logToConsole(format, args...)
}

// Error logs to both sinks.
func (l *Logger) Error(format string, args ...interface{}) {
	l.logToFile(ERROR, format, args...)
	l.logToConsole(format, args...)
}

// Console prints a status line and mirrors it into the file at INFO level.
func (l *Logger) Console(format string, args ...interface{}) {
	l.logToConsole(format, args...)
	l.logToFile(INFO, format, args...)
}

// Writer returns an io.Writer over the backing log file, or os.Stdout if no
// file sink was configured.
func (l *Logger) Writer() io.Writer {
	if l != nil && l.logFile != nil {
		return l.logFile
	}
	return os.Stdout
}

var (
	defaultOnce sync.Once
	defaultLog  *Logger
)

// Default lazily builds a console-only package-level Logger for callers
// (cmd/redis3cli, tests) that don't need a connection-scoped instance.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLog, _ = New("", INFO, "redis3")
	})
	return defaultLog
}
