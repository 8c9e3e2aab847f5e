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

// Logger is a minimal leveled logger. The package exposes a process-global
// instance through the top-level functions; handlers and commands log
// through those rather than threading a logger around.
type Logger struct {
	mu     sync.Mutex
	level  Level
	writer io.Writer
}

var globalLogger *Logger

func init() {
	globalLogger = &Logger{
		level:  LevelInfo,
		writer: os.Stdout,
	}
}

func Debug(msg string, args ...interface{}) {
	globalLogger.log(LevelDebug, msg, args...)
}

func Info(msg string, args ...interface{}) {
	globalLogger.log(LevelInfo, msg, args...)
}

func Warn(msg string, args ...interface{}) {
	globalLogger.log(LevelWarn, msg, args...)
}

func Error(msg string, args ...interface{}) {
	globalLogger.log(LevelError, msg, args...)
}

func SetLevel(level Level) {
	globalLogger.SetLevel(level)
}

func SetWriter(w io.Writer) {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.writer = w
}

// StdLogger returns a stdlib logger for collaborators that require one.
func StdLogger() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags)
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	prefix := ""
	switch level {
	case LevelDebug:
		prefix = "DEBUG"
	case LevelInfo:
		prefix = "INFO"
	case LevelWarn:
		prefix = "WARN"
	case LevelError:
		prefix = "ERROR"
	}

	logMsg := "[" + prefix + "] " + msg
	if len(args) > 0 {
		for _, arg := range args {
			logMsg += " " + fmt.Sprint(arg)
		}
	}

	fmt.Fprintln(l.writer, logMsg)
}
