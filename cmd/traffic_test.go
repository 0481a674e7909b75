package cmd

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func withCapacities(t *testing.T, tx, rx int) {
	t.Helper()
	viper.Set("tx-capacity", tx)
	viper.Set("rx-capacity", rx)
	t.Cleanup(func() {
		viper.Set("tx-capacity", nil)
		viper.Set("rx-capacity", nil)
	})
}

func TestRunTrafficVerifiesBothDirections(t *testing.T) {
	withCapacities(t, 64, 48)

	reg, a, b, err := newLoopbackRegistry(7)
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()

	ab := &trafficStream{name: "a->b", from: a, to: b, total: 20_000, maxChunk: 100, seed: 1}
	ba := &trafficStream{name: "b->a", from: b, to: a, total: 15_000, maxChunk: 33, seed: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := runTraffic(ctx, ab, ba); err != nil {
		t.Fatalf("runTraffic: %v", err)
	}

	for _, s := range []*trafficStream{ab, ba} {
		if !s.verified() {
			t.Errorf("%s: sent %d received %d, digests %x / %x",
				s.name, s.sent.Load(), s.received.Load(), s.sentSum, s.recvSum)
		}
	}

	ports := sampleRegistry(reg)
	if len(ports) != 2 || ports[0].ID != "loop-a" {
		t.Fatalf("sampleRegistry = %+v", ports)
	}
	if ports[0].TxCapacity != 64 || ports[0].RxCapacity != 48 {
		t.Errorf("capacities = %d/%d, want 64/48", ports[0].TxCapacity, ports[0].RxCapacity)
	}
	if ports[0].Stats.TxBytes != 20_000 {
		t.Errorf("TxBytes = %d, want 20000", ports[0].Stats.TxBytes)
	}
}

func TestRunTrafficEndlessStopsOnCancel(t *testing.T) {
	withCapacities(t, 32, 32)

	reg, a, b, err := newLoopbackRegistry(0)
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()

	var paused atomic.Bool
	s := &trafficStream{name: "a->b", from: a, to: b, maxChunk: 16, seed: 3, paused: &paused}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := runTraffic(ctx, s); err != nil {
		t.Fatalf("endless traffic returned %v", err)
	}
	if s.sent.Load() == 0 {
		t.Error("no traffic was generated")
	}
	if s.verified() {
		t.Error("endless stream should never report a verified digest")
	}
}
