package account

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

const loggerModule = "account"

var logFormat = logging.MustStringFormatter(
	`%{time:2006/01/02 15:04:05} %{level:.4s} %{module} %{message}`,
)

// LevelLogger adapts an op/go-logging logger to Logger
type LevelLogger struct {
	log *logging.Logger
}

var _ Logger = (*LevelLogger)(nil)

// NewLogger returns a Logger writing to w at the given level.
// Unknown levels fall back to INFO.
func NewLogger(w io.Writer, level string) *LevelLogger {
	if w == nil {
		w = os.Stderr
	}

	name := strings.ToUpper(strings.TrimSpace(level))
	if name == "WARN" {
		name = "WARNING"
	}

	lvl, err := logging.LogLevel(name)
	if err != nil {
		lvl = logging.INFO
	}

	backend := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), logFormat)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(lvl, loggerModule)

	l := logging.MustGetLogger(loggerModule)
	l.SetBackend(leveled)

	return &LevelLogger{log: l}
}

func (l *LevelLogger) Debug(format string, args ...any) {
	l.log.Debugf(format, args...)
}

func (l *LevelLogger) Info(format string, args ...any) {
	l.log.Infof(format, args...)
}

func (l *LevelLogger) Warn(format string, args ...any) {
	l.log.Warningf(format, args...)
}

func (l *LevelLogger) Error(format string, args ...any) {
	l.log.Errorf(format, args...)
}

var (
	defLoggerOnce sync.Once
	defLoggerInst Logger
)

// defLogger is built once and shared by every component without a logger
func defLogger() Logger {
	defLoggerOnce.Do(func() {
		defLoggerInst = NewLogger(os.Stderr, "INFO")
	})
	return defLoggerInst
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger discards everything
func NopLogger() Logger { return nopLogger{} }

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger()
	}
	return l
}
