package serialdma

import (
	"bytes"
	"log/slog"
	"sync"
)

// LoopbackEngine is an in-memory Engine. Bytes transmitted by one engine
// arrive on its peer's wire and are written into the peer's receive legs.
// A single worker goroutine per engine delivers all events, so events never
// arrive from inside a Submit call.
//
// Receive legs end when they are full or when the wire runs dry, like a
// receive-to-idle DMA; with a burst size set, intermediate progress events
// report the running total every burst bytes.
type LoopbackEngine struct {
	mu     sync.Mutex
	peer   *LoopbackEngine
	events Events
	burst  int

	wire     bytes.Buffer // delivered by the peer, not yet received
	txLeg    []byte
	rxLeg    []byte
	rxFill   int
	rxActive bool
	closed   bool

	kick chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
	log  *slog.Logger
}

// Ensure LoopbackEngine implements Engine at compile time
var _ Engine = (*LoopbackEngine)(nil)

// LoopbackOption configures a LoopbackEngine.
type LoopbackOption func(*LoopbackEngine)

// WithBurst limits how many bytes a receive leg absorbs between progress
// events. Zero, the default, absorbs as much as is available.
func WithBurst(n int) LoopbackOption {
	return func(e *LoopbackEngine) {
		if n > 0 {
			e.burst = n
		}
	}
}

// NewLoopback returns an engine whose transmissions arrive on its own
// receive side.
func NewLoopback(opts ...LoopbackOption) *LoopbackEngine {
	e := newLoopbackEngine(opts)
	e.peer = e
	e.start()
	return e
}

// NewLoopbackPair returns two engines wired to each other, like two UARTs
// with crossed TX/RX lines.
func NewLoopbackPair(opts ...LoopbackOption) (*LoopbackEngine, *LoopbackEngine) {
	a := newLoopbackEngine(opts)
	b := newLoopbackEngine(opts)
	a.peer, b.peer = b, a
	a.start()
	b.start()
	return a, b
}

func newLoopbackEngine(opts []LoopbackOption) *LoopbackEngine {
	e := &LoopbackEngine{
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  componentLogger(nil, ComponentEngine, "loopback"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *LoopbackEngine) start() {
	e.wg.Add(1)
	go e.run()
}

// Bind implements Engine.
func (e *LoopbackEngine) Bind(ev Events) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = ev
}

// SubmitTransmit implements Engine.
func (e *LoopbackEngine) SubmitTransmit(buf []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrPortClosed
	}
	if e.txLeg != nil {
		return ErrEngineBusy
	}
	e.txLeg = buf
	notify(e.kick)
	return nil
}

// SubmitReceive implements Engine.
func (e *LoopbackEngine) SubmitReceive(buf []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrPortClosed
	}
	if e.rxActive {
		return ErrEngineBusy
	}
	e.rxLeg = buf
	e.rxFill = 0
	e.rxActive = true
	notify(e.kick)
	return nil
}

// IsReceiveActive implements Engine.
func (e *LoopbackEngine) IsReceiveActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rxActive
}

// Pending returns the number of bytes on the wire that no receive leg has
// taken yet.
func (e *LoopbackEngine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wire.Len()
}

// Close stops the worker. Legs still in flight never complete.
func (e *LoopbackEngine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrPortClosed
	}
	e.closed = true
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()
	return nil
}

func (e *LoopbackEngine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.kick:
		case <-e.done:
			return
		}
		e.pumpTransmit()
		e.pumpReceive()
	}
}

// deliver appends b to the wire and wakes the worker.
func (e *LoopbackEngine) deliver(b []byte) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.log.Debug("dropped bytes for closed engine", "len", len(b))
		return
	}
	e.wire.Write(b)
	e.mu.Unlock()
	notify(e.kick)
}

func (e *LoopbackEngine) pumpTransmit() {
	e.mu.Lock()
	leg, ev := e.txLeg, e.events
	e.mu.Unlock()
	if leg == nil {
		return
	}

	e.peer.deliver(leg)

	e.mu.Lock()
	e.txLeg = nil
	e.mu.Unlock()

	if ev != nil {
		ev.TransferComplete()
	}
}

func (e *LoopbackEngine) pumpReceive() {
	e.mu.Lock()
	for e.rxActive && e.wire.Len() > 0 {
		n := min(len(e.rxLeg)-e.rxFill, e.wire.Len())
		if e.burst > 0 {
			n = min(n, e.burst)
		}
		e.wire.Read(e.rxLeg[e.rxFill : e.rxFill+n])
		e.rxFill += n

		ended := e.rxFill == len(e.rxLeg) || e.wire.Len() == 0
		if ended {
			e.rxLeg = nil
			e.rxActive = false
		}
		fill, ev := e.rxFill, e.events
		e.mu.Unlock()

		if ev != nil {
			ev.ReceiveProgress(fill)
		}
		if ended {
			return
		}
		e.mu.Lock()
	}
	e.mu.Unlock()
}
