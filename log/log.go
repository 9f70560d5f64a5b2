// Package log is ringdb's leveled logger. Its usage contract
// (Info/Warn/Error/Fatal) mirrors every example repo's own lib/logger, but
// no source for that package was present in the retrieval pack, so this
// implementation is original — a thin wrapper over the standard library
// log.Logger with a level prefix and a dual stdout+file writer, built the
// way every other ambient piece in this corpus is.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}

// Logger writes leveled lines to stdout and, once Attach is called, also
// to log.log through io.MultiWriter. It also keeps a copy of each line,
// exposed through HasPending/Take; the Scheduler's main loop drains that
// copy every cycle without writing it anywhere, since each line has
// already gone through the writer above.
type Logger struct {
	mu      sync.Mutex
	out     *log.Logger
	file    *os.File
	pending [][]byte
}

func New() *Logger {
	return &Logger{out: log.New(os.Stdout, "", log.LstdFlags)}
}

// Attach redirects output through both stdout and the named file.
func (l *Logger) Attach(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.file = f
	l.out = log.New(io.MultiWriter(os.Stdout, f), "", log.LstdFlags)
	l.mu.Unlock()
	return nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...))
	l.mu.Lock()
	l.out.Println(line)
	l.pending = append(l.pending, []byte(line+"\n"))
	l.mu.Unlock()
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// Fatal logs at error level then exits the process with a non-zero status,
// matching spec.md §7: Fatal errors surface as process exit after logging.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
	os.Exit(1)
}

// HasPending reports whether any lines have accumulated since the last
// Take.
func (l *Logger) HasPending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending) > 0
}

// Take drains and returns the accumulated pending lines.
func (l *Logger) Take() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	lines := l.pending
	l.pending = nil
	return lines
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
