//go:build linux

package serialdma

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// TTYEngine drives a Linux serial device as a transfer engine. Each
// transmit leg is written by a goroutine that signals completion once the
// kernel has accepted every byte. Each receive leg is filled by a goroutine
// reading with VMIN=0 and VTIME set from Config.IdleTimeout; it reports
// running totals as bytes arrive and ends the leg when the buffer is full or
// the line goes idle, the way a receive-to-idle DMA does.
type TTYEngine struct {
	fd     int
	device string
	config Config
	log    *slog.Logger

	mu       sync.Mutex
	events   Events
	txBusy   bool
	closed   bool
	failed   error // set once the line hangs up or fails; wraps ErrLineDown
	rxActive atomic.Bool
	wg       sync.WaitGroup
}

var errHangup = errors.New("hangup")

// Ensure TTYEngine implements Engine at compile time
var _ Engine = (*TTYEngine)(nil)

// OpenTTY opens a serial device with the given options and returns an
// engine ready to be passed to Registry.InitPort.
func OpenTTY(device string, opts ...Option) (*TTYEngine, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	flags := unix.O_RDWR | unix.O_NOCTTY
	if config.WriteMode == WriteModeSynced {
		flags |= unix.O_SYNC
	}

	fd, err := unix.Open(device, flags, 0)
	if err != nil {
		switch {
		case errors.Is(err, unix.ENOENT):
			return nil, fmt.Errorf("open %s: %w", device, ErrDeviceNotFound)
		case errors.Is(err, unix.EACCES):
			return nil, fmt.Errorf("open %s: %w", device, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("failed to open %s: %w", device, err)
	}

	if err := configurePort(fd, config); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &TTYEngine{
		fd:     fd,
		device: device,
		config: config,
		log:    componentLogger(nil, ComponentEngine, PortID(device)),
	}, nil
}

// Bind implements Engine.
func (e *TTYEngine) Bind(ev Events) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = ev
}

// SubmitTransmit implements Engine.
func (e *TTYEngine) SubmitTransmit(buf []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrPortClosed
	}
	if e.failed != nil {
		return e.failed
	}
	if e.txBusy {
		return ErrEngineBusy
	}
	e.txBusy = true
	e.wg.Add(1)
	go e.transmit(buf, e.events)
	return nil
}

// SubmitReceive implements Engine.
func (e *TTYEngine) SubmitReceive(buf []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrPortClosed
	}
	if e.failed != nil {
		return e.failed
	}
	if !e.rxActive.CompareAndSwap(false, true) {
		return ErrEngineBusy
	}
	e.wg.Add(1)
	go e.receive(buf, e.events)
	return nil
}

// IsReceiveActive implements Engine.
func (e *TTYEngine) IsReceiveActive() bool {
	return e.rxActive.Load()
}

// Close stops accepting legs, waits for the in-flight ones to finish and
// closes the device. Receive legs notice within one IdleTimeout.
func (e *TTYEngine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrPortClosed
	}
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	return unix.Close(e.fd)
}

func (e *TTYEngine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Err returns the reason the line went down, or nil while it is usable.
func (e *TTYEngine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failed
}

// fail marks the line down. Every later submission returns the error, so
// the channels settle in idle instead of re-arming against a dead device.
func (e *TTYEngine) fail(cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failed != nil || e.closed {
		return
	}
	e.failed = fmt.Errorf("%w: %s: %w", ErrLineDown, e.device, cause)
	e.log.Error("line down", "err", cause)
}

// hungUp polls the device without blocking. A hung-up tty returns 0 from
// read at once instead of waiting out VTIME, so a zero read alone does not
// mean the line is idle.
func (e *TTYEngine) hungUp() bool {
	fds := []unix.PollFd{{Fd: int32(e.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil || n == 0 {
		return false
	}
	return fds[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0
}

func (e *TTYEngine) transmit(buf []byte, ev Events) {
	defer e.wg.Done()

	sent := 0
	for sent < len(buf) {
		n, err := unix.Write(e.fd, buf[sent:])
		if err == unix.EINTR || err == unix.EAGAIN {
			continue
		}
		if err != nil {
			// The leg still completes; the unsent tail is lost on the wire.
			e.log.Error("write failed", "sent", sent, "len", len(buf), "err", err)
			e.fail(err)
			break
		}
		sent += n
	}

	e.mu.Lock()
	e.txBusy = false
	e.mu.Unlock()

	if ev != nil {
		ev.TransferComplete()
	}
}

func (e *TTYEngine) receive(buf []byte, ev Events) {
	defer e.wg.Done()

	got := 0
	for got < len(buf) {
		n, err := unix.Read(e.fd, buf[got:])
		if err == unix.EINTR || err == unix.EAGAIN {
			continue
		}
		if err != nil {
			e.log.Error("read failed", "received", got, "err", err)
			e.fail(err)
			break
		}
		if n == 0 {
			if got > 0 || e.isClosed() {
				break
			}
			if e.hungUp() {
				e.fail(errHangup)
				break
			}
			// VTIME expired with nothing received: keep the leg open.
			continue
		}
		got += n
		if got < len(buf) && ev != nil {
			ev.ReceiveProgress(got)
		}
	}

	e.rxActive.Store(false)
	if ev != nil {
		ev.ReceiveProgress(got)
	}
}

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	switch rate {
	case 50:
		return unix.B50, nil
	case 75:
		return unix.B75, nil
	case 110:
		return unix.B110, nil
	case 134:
		return unix.B134, nil
	case 150:
		return unix.B150, nil
	case 200:
		return unix.B200, nil
	case 300:
		return unix.B300, nil
	case 600:
		return unix.B600, nil
	case 1200:
		return unix.B1200, nil
	case 1800:
		return unix.B1800, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 500000:
		return unix.B500000, nil
	case 576000:
		return unix.B576000, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 1152000:
		return unix.B1152000, nil
	case 1500000:
		return unix.B1500000, nil
	case 2000000:
		return unix.B2000000, nil
	case 2500000:
		return unix.B2500000, nil
	case 3000000:
		return unix.B3000000, nil
	case 3500000:
		return unix.B3500000, nil
	case 4000000:
		return unix.B4000000, nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

// configurePort puts the device in raw mode with the configured line settings
func configurePort(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	termios.Cflag = unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	// Reads return as soon as data arrives, or with 0 after an idle gap.
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = config.idleTenths()

	baudRate, err := getBaudRate(config.BaudRate)
	if err != nil {
		return err
	}
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | baudRate
	termios.Ispeed = baudRate
	termios.Ospeed = baudRate

	switch config.DataBits {
	case 5:
		termios.Cflag |= unix.CS5
	case 6:
		termios.Cflag |= unix.CS6
	case 7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	if config.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	}

	switch config.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}
	return nil
}
