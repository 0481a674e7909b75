package serialdma

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// TxState is the state of a transmit channel.
type TxState int

const (
	TxIdle         TxState = iota // no leg in flight
	TxTransferring                // one leg in flight
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxTransferring:
		return "transferring"
	default:
		return "unknown"
	}
}

// TxChannel moves bytes from the application to the engine. The application
// copies bytes into the ring; the engine reads them out of the ring in place,
// one contiguous leg at a time.
//
// The mutex is the critical section shared by the foreground caller and the
// engine's completion events. Every plan-submit-update sequence runs under
// it, so a completion can never observe a half-made decision.
type TxChannel struct {
	mu       sync.Mutex
	ring     *RingBuffer
	engine   Engine
	state    TxState
	inFlight int   // bytes in the outstanding leg
	err      error // last declined submission, nil once a leg starts

	writable chan struct{} // coalesced: space freed or leg finished
	stats    *counters
	log      *slog.Logger
}

func newTxChannel(ring *RingBuffer, engine Engine, logger *slog.Logger) *TxChannel {
	return &TxChannel{
		ring:     ring,
		engine:   engine,
		writable: make(chan struct{}, 1),
		stats:    &counters{},
		log:      logger,
	}
}

// Enqueue copies b into the transmit ring and starts a leg if none is in
// flight. It returns ErrInsufficientSpace, with nothing queued, if b does not
// fit in the free space. A leg the engine declines is not an error here: the
// bytes stay queued and the next Enqueue or Kick retries.
func (t *TxChannel) Enqueue(b []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ring.Enqueue(b); err != nil {
		t.stats.rejected.Add(1)
		return err
	}
	t.stats.observeUsed(t.ring.UsedSize())

	if t.state == TxIdle {
		t.armLocked()
	}
	return nil
}

// Kick starts a leg if the channel is idle and bytes are queued.
func (t *TxChannel) Kick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == TxIdle {
		t.armLocked()
	}
}

// HandleTransferComplete retires the outstanding leg and chains the next one
// if more bytes are queued.
func (t *TxChannel) HandleTransferComplete() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TxTransferring {
		t.stats.spurious.Add(1)
		t.log.Warn("transfer complete with no leg in flight")
		return
	}

	done := t.inFlight
	if err := t.ring.MarkConsumed(done); err != nil {
		// Cannot happen while the leg was planned from stored bytes.
		t.log.Error("retire transmit leg", "len", done, "used", t.ring.UsedSize(), "err", err)
		done = 0
	}
	t.stats.bytes.Add(uint64(done))
	t.inFlight = 0
	t.state = TxIdle

	t.armLocked()
	notify(t.writable)
}

// armLocked submits the next contiguous run, if any. t.mu must be held.
func (t *TxChannel) armLocked() {
	run := t.ring.TransmitRun()
	if run == 0 {
		t.state = TxIdle
		return
	}

	c := t.ring.ConsumerCursor()
	if err := t.engine.SubmitTransmit(t.ring.span(c, run)); err != nil {
		t.state = TxIdle
		t.inFlight = 0
		t.err = err
		t.stats.submitFailures.Add(1)
		logSubmitFailure(t.log, "transmit leg not started", c, run, err)
		if errors.Is(err, ErrLineDown) {
			// Wake waiters so they see the line is gone.
			notify(t.writable)
		}
		return
	}

	t.err = nil
	t.inFlight = run
	t.state = TxTransferring
	t.stats.legs.Add(1)
	t.log.Debug("transmit leg started", "offset", c, "len", run)
}

// State returns the current channel state.
func (t *TxChannel) State() TxState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Pending returns the number of queued bytes, including those in flight.
func (t *TxChannel) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ring.UsedSize()
}

// Err returns the error from the last declined transmit leg, or nil if the
// most recent submission was accepted.
func (t *TxChannel) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Capacity returns the size of the transmit ring.
func (t *TxChannel) Capacity() int { return t.ring.Capacity() }

// Free returns the number of bytes Enqueue can currently accept.
func (t *TxChannel) Free() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ring.FreeSize()
}

// Writable returns a coalesced notification sent whenever a leg finishes.
// Callers must re-check state after waking.
func (t *TxChannel) Writable() <-chan struct{} { return t.writable }

// logSubmitFailure records a declined leg. A closed engine is expected
// during shutdown, and a downed line has already been reported by its
// engine; both log at debug only.
func logSubmitFailure(log *slog.Logger, msg string, offset, n int, err error) {
	if errors.Is(err, ErrPortClosed) || errors.Is(err, ErrLineDown) {
		log.Debug(msg, "offset", offset, "len", n, "err", err)
		return
	}
	log.Warn(msg, "offset", offset, "len", n, "err", fmt.Errorf("%w: %w", ErrSubmission, err))
}

// notify performs a non-blocking send on a coalescing channel.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
