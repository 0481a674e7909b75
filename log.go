package serialdma

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Component identifies a subsystem for log filtering.
type Component string

const (
	ComponentTx       Component = "tx"
	ComponentRx       Component = "rx"
	ComponentRegistry Component = "registry"
	ComponentEngine   Component = "engine"
)

var (
	defaultLogger *slog.Logger
	logLevel      = new(slog.LevelVar)
	logMutex      sync.RWMutex
)

func init() {
	logLevel.Set(slog.LevelWarn)
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// SetLogLevel sets the minimum level of the package default logger.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// LogLevel returns the minimum level of the package default logger.
func LogLevel() slog.Level {
	return logLevel.Level()
}

// SetLogger replaces the package default logger. Registries created
// afterwards without WithLogger use it.
func SetLogger(logger *slog.Logger) {
	logMutex.Lock()
	defer logMutex.Unlock()
	defaultLogger = logger
}

// DefaultLogger returns the package default logger.
func DefaultLogger() *slog.Logger {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return defaultLogger
}

// NewLogger returns a text logger writing to w that honours SetLogLevel.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// componentLogger tags every record with the component and, if set, the port.
func componentLogger(base *slog.Logger, c Component, port PortID) *slog.Logger {
	if base == nil {
		base = DefaultLogger()
	}
	l := base.With("component", string(c))
	if port != "" {
		l = l.With("port", string(port))
	}
	return l
}
