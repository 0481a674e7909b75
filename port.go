package serialdma

import (
	"context"
	"errors"
	"io"
	"sync"
)

// PortID is the opaque identity a port is registered under, such as
// "uart1" or a device path.
type PortID string

// Port pairs the transmit and receive channels of one serial peripheral and
// receives its engine's events.
type Port struct {
	id     PortID
	engine Engine
	tx     *TxChannel
	rx     *RxChannel

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// Ensure Port receives engine events at compile time
var _ Events = (*Port)(nil)

// ID returns the identity the port was registered under.
func (p *Port) ID() PortID { return p.id }

// Tx returns the transmit channel.
func (p *Port) Tx() *TxChannel { return p.tx }

// Rx returns the receive channel.
func (p *Port) Rx() *RxChannel { return p.rx }

// TransferComplete implements Events.
func (p *Port) TransferComplete() { p.tx.HandleTransferComplete() }

// ReceiveProgress implements Events.
func (p *Port) ReceiveProgress(cumulative int) { p.rx.HandleReceiveProgress(cumulative) }

// Write queues all of data for transmission or none of it. It never blocks.
func (p *Port) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	if err := p.tx.Enqueue(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Read copies already-received bytes into buf. It never blocks and returns
// 0, nil when nothing is pending.
func (p *Port) Read(buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	return p.rx.Drain(buf), nil
}

// WriteContext queues data, waiting for transmit legs to free space while
// the ring is too full. Data larger than the ring is rejected immediately.
func (p *Port) WriteContext(ctx context.Context, data []byte) (int, error) {
	if len(data) > p.tx.Capacity() {
		return 0, ErrInsufficientSpace
	}
	for {
		n, err := p.Write(data)
		if !errors.Is(err, ErrInsufficientSpace) {
			return n, err
		}
		// A declined leg leaves the channel idle; nudge it before waiting.
		p.tx.Kick()
		if err := p.tx.Err(); errors.Is(err, ErrLineDown) {
			return 0, err
		}

		select {
		case <-p.tx.Writable():
		case <-p.done:
			return 0, ErrPortClosed
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// ReadContext blocks until at least one byte has been received, then reads
// up to len(buf) bytes. Once the buffered bytes are drained from a line that
// is down, it returns the engine's ErrLineDown error.
func (p *Port) ReadContext(ctx context.Context, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	for {
		if n, err := p.Read(buf); n > 0 || err != nil {
			return n, err
		}
		if err := p.rx.Err(); errors.Is(err, ErrLineDown) {
			return 0, err
		}

		select {
		case <-p.rx.Readable():
		case <-p.done:
			return 0, ErrPortClosed
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Flush blocks until every queued byte has been handed to the engine and the
// last leg has completed. It gives up with ErrLineDown if the engine can no
// longer take legs.
func (p *Port) Flush(ctx context.Context) error {
	for {
		if p.tx.Pending() == 0 {
			return nil
		}
		p.tx.Kick()
		if err := p.tx.Err(); errors.Is(err, ErrLineDown) {
			return err
		}

		select {
		case <-p.tx.Writable():
		case <-p.done:
			return ErrPortClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stats returns a snapshot of the port's counters.
func (p *Port) Stats() Stats {
	tx, rx := p.tx.stats, p.rx.stats
	return Stats{
		TxLegs:           tx.legs.Load(),
		TxSubmitFailures: tx.submitFailures.Load(),
		TxBytes:          tx.bytes.Load(),
		TxRejected:       tx.rejected.Load(),
		TxSpurious:       tx.spurious.Load(),
		TxMaxUsed:        tx.maxUsed.Load(),

		RxLegs:           rx.legs.Load(),
		RxSubmitFailures: rx.submitFailures.Load(),
		RxBytes:          rx.bytes.Load(),
		RxProgress:       rx.progress.Load(),
		RxSpurious:       rx.spurious.Load(),
		RxMaxUsed:        rx.maxUsed.Load(),
	}
}

// Close unblocks waiters and closes the engine if it is an io.Closer.
// Further Read and Write calls return ErrPortClosed.
func (p *Port) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPortClosed
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	if c, ok := p.engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
