package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	defaultLogFile = "./logs.txt"

	// logTimeFormat matches ISO-8601 UTC with milliseconds, e.g.
	// 2024-05-01T10:00:00.000Z.
	logTimeFormat = "2006-01-02T15:04:05.000Z"

	logBufferSize = 256
)

// RequestLogger records one line per request and per successful mutation.
// Implementations must not block the caller or report failures to it.
type RequestLogger interface {
	Log(message string)
}

// FileLogger appends timestamped lines to a text file from a single
// background goroutine, so lines land in the order Log was called.
type FileLogger struct {
	path    string
	console *log.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	lines  chan string
	done   chan struct{}
}

// NewFileLogger starts the writer goroutine. Call Close to flush.
func NewFileLogger(path string, console *log.Logger) *FileLogger {
	l := &FileLogger{
		path:    path,
		console: console,
		now:     time.Now,
		lines:   make(chan string, logBufferSize),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

// Log queues message for appending and returns immediately.
func (l *FileLogger) Log(message string) {
	line := fmt.Sprintf("%s - %s\n", l.now().UTC().Format(logTimeFormat), message)

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}

	select {
	case l.lines <- line:
	default:
		l.console.Warn("Log buffer full, dropping line", "line", strings.TrimSpace(line))
	}
}

// Close writes out whatever is still queued and stops the writer.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.lines)
	}
	l.mu.Unlock()

	<-l.done
	return nil
}

func (l *FileLogger) run() {
	defer close(l.done)
	for line := range l.lines {
		if err := l.appendLine(line); err != nil {
			l.console.Error("Failed to log", "path", l.path, "err", err)
			continue
		}
		l.console.Debug("Logged: " + strings.TrimSpace(line))
	}
}

func (l *FileLogger) appendLine(line string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// newConsole builds the operational logger that receives server-side errors
// and diagnostics. Clients never see what goes here.
func newConsole(w io.Writer, level, format string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           parseLogLevel(level),
		Formatter:       parseLogFormatter(format),
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "todo-server",
	})
}

func parseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func parseLogFormatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
