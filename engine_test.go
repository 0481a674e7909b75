package serialdma

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

var errFakeDeclined = errors.New("fake engine: declined")

// fakeEngine records submissions and lets tests deliver events by hand.
// It counts any submission made while a leg of the same direction is still
// outstanding.
type fakeEngine struct {
	mu sync.Mutex
	ev Events

	txLegs   [][]byte
	txBusy   bool
	rxLegs   [][]byte
	rxFill   int
	rxActive bool

	failTx   int // upcoming transmit submissions to decline
	failRx   int   // upcoming receive submissions to decline
	down     error // when set, every submission returns it
	overlaps int
	unbound  int // submissions made before Bind
}

var _ Engine = (*fakeEngine)(nil)

func (f *fakeEngine) Bind(ev Events) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ev = ev
}

func (f *fakeEngine) SubmitTransmit(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ev == nil {
		f.unbound++
	}
	if f.down != nil {
		return f.down
	}
	if f.failTx > 0 {
		f.failTx--
		return errFakeDeclined
	}
	if f.txBusy {
		f.overlaps++
		return ErrEngineBusy
	}
	f.txBusy = true
	f.txLegs = append(f.txLegs, buf)
	return nil
}

func (f *fakeEngine) SubmitReceive(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ev == nil {
		f.unbound++
	}
	if f.down != nil {
		return f.down
	}
	if f.failRx > 0 {
		f.failRx--
		return errFakeDeclined
	}
	if f.rxActive {
		f.overlaps++
		return ErrEngineBusy
	}
	f.rxActive = true
	f.rxFill = 0
	f.rxLegs = append(f.rxLegs, buf)
	return nil
}

func (f *fakeEngine) IsReceiveActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rxActive
}

// goDown makes every later submission fail the way a hung-up line does.
func (f *fakeEngine) goDown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = fmt.Errorf("%w: fake: hangup", ErrLineDown)
}

// lastTx returns a copy of the most recent transmit leg.
func (f *fakeEngine) lastTx() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.txLegs) == 0 {
		return nil
	}
	return append([]byte(nil), f.txLegs[len(f.txLegs)-1]...)
}

func (f *fakeEngine) transmitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txBusy
}

// completeTx copies out the outstanding transmit leg and reports it done.
func (f *fakeEngine) completeTx() []byte {
	leg := f.lastTx()
	f.mu.Lock()
	f.txBusy = false
	ev := f.ev
	f.mu.Unlock()
	ev.TransferComplete()
	return leg
}

// lastRxLen returns the length of the most recent receive leg.
func (f *fakeEngine) lastRxLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rxLegs) == 0 {
		return 0
	}
	return len(f.rxLegs[len(f.rxLegs)-1])
}

// rxRoom returns the unwritten space left in the outstanding receive leg.
func (f *fakeEngine) rxRoom() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.rxActive {
		return 0
	}
	return len(f.rxLegs[len(f.rxLegs)-1]) - f.rxFill
}

// receive writes data into the outstanding receive leg and reports the
// running total. With end set the leg stops before the event is delivered.
func (f *fakeEngine) receive(data []byte, end bool) {
	f.mu.Lock()
	leg := f.rxLegs[len(f.rxLegs)-1]
	f.rxFill += copy(leg[f.rxFill:], data)
	if end {
		f.rxActive = false
	}
	fill, ev := f.rxFill, f.ev
	f.mu.Unlock()
	ev.ReceiveProgress(fill)
}

// newFakePort registers a port over a fresh fake engine.
func newFakePort(t *testing.T, txCap, rxCap int) (*Port, *fakeEngine) {
	t.Helper()
	return newFakePortWith(t, &fakeEngine{}, txCap, rxCap)
}

func newFakePortWith(t *testing.T, eng *fakeEngine, txCap, rxCap int) (*Port, *fakeEngine) {
	t.Helper()
	reg := NewRegistry(1)
	p, err := reg.InitPort("fake", eng, txCap, rxCap)
	if err != nil {
		t.Fatalf("InitPort: %v", err)
	}
	t.Cleanup(func() {
		if eng.overlaps != 0 {
			t.Errorf("engine saw %d overlapping submissions", eng.overlaps)
		}
		if eng.unbound != 0 {
			t.Errorf("engine saw %d submissions before Bind", eng.unbound)
		}
	})
	return p, eng
}
