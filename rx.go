package serialdma

import (
	"errors"
	"log/slog"
	"sync"
)

// RxState is the state of a receive channel.
type RxState int

const (
	RxIdle      RxState = iota // no leg outstanding
	RxReceiving                // one leg outstanding
)

func (s RxState) String() string {
	switch s {
	case RxIdle:
		return "idle"
	case RxReceiving:
		return "receiving"
	default:
		return "unknown"
	}
}

// RxChannel moves bytes from the engine to the application. The engine
// writes into the ring in place and reports a running total per leg; the
// application copies bytes out with Drain.
//
// Progress events carry the cumulative count since the leg started, not a
// delta, so the channel remembers how much of the current leg it has already
// credited.
type RxChannel struct {
	mu       sync.Mutex
	ring     *RingBuffer
	engine   Engine
	state    RxState
	inFlight int // size of the outstanding leg
	acked    int   // bytes of the outstanding leg already credited
	err      error // last declined submission, nil once a leg starts

	readable chan struct{}
	stats    *counters
	log      *slog.Logger
}

func newRxChannel(ring *RingBuffer, engine Engine, logger *slog.Logger) *RxChannel {
	return &RxChannel{
		ring:     ring,
		engine:   engine,
		readable: make(chan struct{}, 1),
		stats:    &counters{},
		log:      logger,
	}
}

// Start opens reception if the channel is idle and the ring has room.
func (r *RxChannel) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == RxIdle {
		r.armLocked()
	}
}

// HandleReceiveProgress credits the bytes the engine has written since the
// last event and, once the leg has physically ended, chains the next one.
func (r *RxChannel) HandleReceiveProgress(cumulative int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.progress.Add(1)
	if r.state != RxReceiving {
		r.stats.spurious.Add(1)
		r.log.Warn("receive progress with no leg outstanding", "cumulative", cumulative)
		return
	}

	if cumulative < r.acked || cumulative > r.inFlight {
		r.log.Warn("receive progress out of range",
			"cumulative", cumulative, "acked", r.acked, "leg", r.inFlight)
		cumulative = max(r.acked, min(cumulative, r.inFlight))
	}

	delta := cumulative - r.acked
	if delta > 0 {
		if err := r.ring.MarkProduced(delta); err != nil {
			// Cannot happen while the leg was planned from free space.
			r.log.Error("credit receive leg", "delta", delta, "free", r.ring.FreeSize(), "err", err)
			delta = 0
		}
		r.acked += delta
		r.stats.bytes.Add(uint64(delta))
		r.stats.observeUsed(r.ring.UsedSize())
		notify(r.readable)
	}

	if r.engine.IsReceiveActive() {
		// More progress, or the final event, will follow for this leg.
		return
	}

	r.log.Debug("receive leg ended", "len", r.acked, "leg", r.inFlight)
	r.state = RxIdle
	r.inFlight = 0
	r.acked = 0
	r.armLocked()
}

// Drain copies up to len(dst) received bytes into dst and returns the count.
// If reception had stalled on a full ring, the freed space re-opens it.
func (r *RxChannel) Drain(dst []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.ring.Dequeue(dst)
	if r.state == RxIdle && r.ring.FreeSize() > 0 {
		r.armLocked()
	}
	return n
}

// armLocked submits a receive leg over the next contiguous free run.
// r.mu must be held.
func (r *RxChannel) armLocked() {
	run := r.ring.ReceiveRun()
	if run == 0 {
		r.state = RxIdle
		return
	}

	p := r.ring.ProducerCursor()
	if err := r.engine.SubmitReceive(r.ring.span(p, run)); err != nil {
		r.state = RxIdle
		r.err = err
		r.stats.submitFailures.Add(1)
		logSubmitFailure(r.log, "receive leg not started", p, run, err)
		if errors.Is(err, ErrLineDown) {
			notify(r.readable)
		}
		return
	}

	r.err = nil
	r.inFlight = run
	r.acked = 0
	r.state = RxReceiving
	r.stats.legs.Add(1)
	r.log.Debug("receive leg started", "offset", p, "len", run)
}

// State returns the current channel state.
func (r *RxChannel) State() RxState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the error from the last declined receive leg, or nil if the
// most recent submission was accepted.
func (r *RxChannel) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Capacity returns the size of the receive ring.
func (r *RxChannel) Capacity() int { return r.ring.Capacity() }

// Buffered returns the number of received bytes waiting to be drained.
func (r *RxChannel) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ring.UsedSize()
}

// Readable returns a coalesced notification sent whenever bytes are
// credited. Callers must re-check state after waking.
func (r *RxChannel) Readable() <-chan struct{} { return r.readable }
