package serialdma

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestRegistry_EndToEndTransmit(t *testing.T) {
	reg := NewRegistry(2)
	eng := &fakeEngine{}
	if _, err := reg.InitPort("uart1", eng, 16, 16); err != nil {
		t.Fatal(err)
	}

	data := []byte("0123456789")
	if err := reg.EnqueueTransmit("uart1", data); err != nil {
		t.Fatalf("EnqueueTransmit: %v", err)
	}

	p, _ := reg.Lookup("uart1")
	if p.Tx().State() != TxTransferring {
		t.Fatalf("state = %v, want transferring", p.Tx().State())
	}
	if leg := eng.lastTx(); !bytes.Equal(leg, data) {
		t.Fatalf("submitted leg %q, want %q", leg, data)
	}

	eng.completeTx()
	if p.Tx().Free() != 16 || p.Tx().State() != TxIdle {
		t.Errorf("after completion: free=%d state=%v", p.Tx().Free(), p.Tx().State())
	}
}

func TestRegistry_DrainReceive(t *testing.T) {
	reg := NewRegistry(1)
	eng := &fakeEngine{}
	reg.InitPort("uart2", eng, 8, 8)

	eng.receive([]byte("ping"), true)

	buf := make([]byte, 8)
	n := reg.DrainReceive("uart2", buf)
	if string(buf[:n]) != "ping" {
		t.Errorf("DrainReceive = %q, want %q", buf[:n], "ping")
	}
	if n := reg.DrainReceive("uart2", buf); n != 0 {
		t.Errorf("second DrainReceive = %d, want 0", n)
	}
}

func TestRegistry_EnqueueTransmitEmpty(t *testing.T) {
	reg := NewRegistry(1)
	eng := &fakeEngine{}
	p, _ := reg.InitPort("uart1", eng, 8, 8)

	for _, b := range [][]byte{nil, {}} {
		if err := reg.EnqueueTransmit("uart1", b); err != nil {
			t.Errorf("EnqueueTransmit(%v) = %v, want nil", b, err)
		}
	}
	if len(eng.txLegs) != 0 {
		t.Errorf("empty enqueue started %d legs", len(eng.txLegs))
	}
	if p.Tx().State() != TxIdle || p.Tx().Pending() != 0 {
		t.Errorf("state=%v pending=%d", p.Tx().State(), p.Tx().Pending())
	}
	if st := p.Stats(); st.TxRejected != 0 || st.TxLegs != 0 {
		t.Errorf("stats = %+v", st)
	}

	// Behind a leg in flight an empty enqueue changes nothing either.
	reg.EnqueueTransmit("uart1", []byte("ab"))
	if err := reg.EnqueueTransmit("uart1", nil); err != nil {
		t.Fatal(err)
	}
	if len(eng.txLegs) != 1 || p.Tx().Pending() != 2 {
		t.Errorf("legs=%d pending=%d, want 1 and 2", len(eng.txLegs), p.Tx().Pending())
	}
}

func TestRegistry_UnknownPort(t *testing.T) {
	reg := NewRegistry(1)

	if err := reg.EnqueueTransmit("nope", []byte("x")); err != ErrUnknownPort {
		t.Errorf("EnqueueTransmit: got %v, want ErrUnknownPort", err)
	}
	if n := reg.DrainReceive("nope", make([]byte, 4)); n != 0 {
		t.Errorf("DrainReceive = %d, want 0", n)
	}
	if _, err := reg.Lookup("nope"); err != ErrUnknownPort {
		t.Errorf("Lookup: got %v, want ErrUnknownPort", err)
	}
}

func TestRegistry_InitPortErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(r *Registry)
		id      PortID
		engine  Engine
		txCap   int
		rxCap   int
		wantErr error
	}{
		{
			name:    "duplicate id",
			setup:   func(r *Registry) { r.InitPort("a", &fakeEngine{}, 8, 8) },
			id:      "a",
			engine:  &fakeEngine{},
			txCap:   8,
			rxCap:   8,
			wantErr: ErrPortExists,
		},
		{
			name: "registry full",
			setup: func(r *Registry) {
				r.InitPort("a", &fakeEngine{}, 8, 8)
				r.InitPort("b", &fakeEngine{}, 8, 8)
			},
			id:      "c",
			engine:  &fakeEngine{},
			txCap:   8,
			rxCap:   8,
			wantErr: ErrRegistryFull,
		},
		{
			name:    "negative tx capacity",
			id:      "a",
			engine:  &fakeEngine{},
			txCap:   -1,
			rxCap:   8,
			wantErr: ErrInvalidCapacity,
		},
		{
			name:    "negative rx capacity",
			id:      "a",
			engine:  &fakeEngine{},
			txCap:   8,
			rxCap:   -8,
			wantErr: ErrInvalidCapacity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(2)
			if tt.setup != nil {
				tt.setup(reg)
			}
			_, err := reg.InitPort(tt.id, tt.engine, tt.txCap, tt.rxCap)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_NilEngine(t *testing.T) {
	reg := NewRegistry(1)
	if _, err := reg.InitPort("a", nil, 8, 8); err == nil {
		t.Error("expected error for nil engine")
	}
	if len(reg.Ports()) != 0 {
		t.Error("failed InitPort registered a port")
	}
}

func TestRegistry_DefaultCapacities(t *testing.T) {
	reg := NewRegistry(2, WithDefaultCapacities(32, 64))
	p, err := reg.InitPort("a", &fakeEngine{}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if p.Tx().Free() != 32 || p.Rx().Capacity() != 64 {
		t.Errorf("capacities tx=%d rx=%d, want 32/64", p.Tx().Free(), p.Rx().Capacity())
	}

	plain := NewRegistry(1)
	p, err = plain.InitPort("b", &fakeEngine{}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if p.Tx().Free() != DefaultRingSize {
		t.Errorf("tx capacity %d, want %d", p.Tx().Free(), DefaultRingSize)
	}
}

func TestRegistry_PortsInOrder(t *testing.T) {
	reg := NewRegistry(3)
	for _, id := range []PortID{"uart3", "uart1", "uart2"} {
		if _, err := reg.InitPort(id, &fakeEngine{}, 4, 4); err != nil {
			t.Fatal(err)
		}
	}
	got := reg.Ports()
	want := []PortID{"uart3", "uart1", "uart2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ports() = %v, want %v", got, want)
		}
	}
}

func TestRegistry_Close(t *testing.T) {
	reg := NewRegistry(2)
	a, _ := reg.InitPort("a", NewLoopback(), 8, 8)
	reg.InitPort("b", &fakeEngine{}, 8, 8)

	if err := reg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := a.Write([]byte("x")); err != ErrPortClosed {
		t.Errorf("Write after Close: got %v, want ErrPortClosed", err)
	}
	if err := reg.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestRegistry_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg := NewRegistry(1, WithLogger(logger))
	p, _ := reg.InitPort("uart9", &fakeEngine{}, 8, 8)
	p.TransferComplete()

	out := buf.String()
	for _, want := range []string{"port initialised", "component=tx", "port=uart9", "no leg in flight"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

// gatedEngine holds Bind open until released.
type gatedEngine struct {
	*fakeEngine
	binding chan struct{}
	release chan struct{}
}

func (g *gatedEngine) Bind(ev Events) {
	close(g.binding)
	<-g.release
	g.fakeEngine.Bind(ev)
}

func TestRegistry_PortHiddenUntilBound(t *testing.T) {
	reg := NewRegistry(1)
	eng := &gatedEngine{
		fakeEngine: &fakeEngine{},
		binding:    make(chan struct{}),
		release:    make(chan struct{}),
	}

	initErr := make(chan error, 1)
	go func() {
		_, err := reg.InitPort("uart1", eng, 8, 8)
		initErr <- err
	}()
	<-eng.binding

	enqErr := make(chan error, 1)
	go func() { enqErr <- reg.EnqueueTransmit("uart1", []byte("early")) }()

	time.Sleep(20 * time.Millisecond)
	close(eng.release)

	if err := <-initErr; err != nil {
		t.Fatalf("InitPort: %v", err)
	}
	if err := <-enqErr; err != nil {
		t.Fatalf("EnqueueTransmit: %v", err)
	}

	if eng.unbound != 0 {
		t.Fatalf("%d legs submitted before the engine was bound", eng.unbound)
	}
	if leg := eng.completeTx(); string(leg) != "early" {
		t.Fatalf("leg = %q", leg)
	}
	p, _ := reg.Lookup("uart1")
	if p.Tx().State() != TxIdle || p.Tx().Pending() != 0 {
		t.Errorf("after completion: state=%v pending=%d", p.Tx().State(), p.Tx().Pending())
	}
}
