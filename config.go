package serialdma

import "time"

// DefaultRingSize is the ring capacity used when a caller has no preference.
const DefaultRingSize = 1024

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// WriteMode represents the write synchronization mode
type WriteMode int

const (
	WriteModeBuffered WriteMode = iota // Default: kernel buffers writes
	WriteModeSynced                    // O_SYNC: a leg completes once the bytes reach hardware
)

// Config holds the line configuration of a tty engine
type Config struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   Parity

	// IdleTimeout is the line-idle gap that ends a receive leg early. It maps
	// to termios VTIME and so has a resolution of 100ms.
	IdleTimeout time.Duration
	WriteMode   WriteMode
}

// Option is a functional option for configuring a tty engine
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		IdleTimeout: 100 * time.Millisecond,
		WriteMode:   WriteModeBuffered,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if !validBaudRate(rate) {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParityEven {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithIdleTimeout sets the line-idle gap that ends a receive leg.
// It must be a positive multiple of 100ms, at most 25.5s.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 || d > 25500*time.Millisecond || d%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.IdleTimeout = d
		return nil
	}
}

// WithSyncWrite enables synchronous writes (O_SYNC)
func WithSyncWrite() Option {
	return func(c *Config) error {
		c.WriteMode = WriteModeSynced
		return nil
	}
}

// idleTenths converts IdleTimeout to termios VTIME units.
func (c Config) idleTenths() uint8 {
	return uint8(c.IdleTimeout / (100 * time.Millisecond))
}

// validBaudRate reports whether rate is one of the standard termios speeds.
func validBaudRate(rate int) bool {
	switch rate {
	case 50, 75, 110, 134, 150, 200, 300, 600, 1200, 1800, 2400, 4800, 9600,
		19200, 38400, 57600, 115200, 230400, 460800, 500000, 576000, 921600,
		1000000, 1152000, 1500000, 2000000, 2500000, 3000000, 3500000, 4000000:
		return true
	default:
		return false
	}
}
