package serialdma

import "errors"

// Predefined error types for robust error handling
var (
	// Application-facing results
	ErrInsufficientSpace = errors.New("not enough free space in transmit ring")
	ErrUnknownPort       = errors.New("unknown port")
	ErrPortClosed        = errors.New("port is closed")

	// Raised by an engine that declined to start a transfer. Channels absorb it
	// and fall back to idle; it surfaces only in logs and stats.
	ErrSubmission = errors.New("hardware declined transfer")
	ErrEngineBusy = errors.New("transfer already in flight")
	ErrLineDown   = errors.New("serial line is down")

	// Ring and registry construction
	ErrMarkOutOfRange  = errors.New("cursor advance exceeds available bytes")
	ErrInvalidCapacity = errors.New("ring capacity must be positive")
	ErrRegistryFull    = errors.New("port registry is full")
	ErrPortExists      = errors.New("port already registered")

	// TTY engine
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
)
