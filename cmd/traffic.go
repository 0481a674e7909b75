/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	serialdma "github.com/allbin/go-serial-dma"
	"github.com/allbin/go-serial-dma/internal/tui/components"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

// trafficStream pushes pseudo-random chunks from one port to another and
// digests both ends so delivery can be checked byte for byte.
type trafficStream struct {
	name     string
	from, to *serialdma.Port
	total    int64 // 0 streams until the context ends
	maxChunk int
	seed     uint64
	paused   *atomic.Bool

	sent     atomic.Int64
	received atomic.Int64
	sentSum  []byte
	recvSum  []byte
}

func (s *trafficStream) endless() bool { return s.total == 0 }

func (s *trafficStream) write(ctx context.Context) error {
	rng := rand.New(rand.NewPCG(s.seed, uint64(len(s.name))))
	h, err := blake2b.New256(nil)
	if err != nil {
		return err
	}

	limit := max(1, min(s.maxChunk, s.from.Tx().Capacity()))
	buf := make([]byte, limit)
	for s.endless() || s.sent.Load() < s.total {
		if s.paused != nil && s.paused.Load() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		n := 1 + rng.IntN(limit)
		if !s.endless() {
			n = int(min(int64(n), s.total-s.sent.Load()))
		}
		for i := range buf[:n] {
			buf[i] = byte(rng.Uint32())
		}

		if _, err := s.from.WriteContext(ctx, buf[:n]); err != nil {
			if s.endless() && ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s: write: %w", s.name, err)
		}
		h.Write(buf[:n])
		s.sent.Add(int64(n))
	}

	s.sentSum = h.Sum(nil)
	if err := s.from.Flush(ctx); err != nil {
		return fmt.Errorf("%s: flush: %w", s.name, err)
	}
	return nil
}

func (s *trafficStream) read(ctx context.Context) error {
	h, err := blake2b.New256(nil)
	if err != nil {
		return err
	}

	buf := make([]byte, s.to.Rx().Capacity())
	for s.endless() || s.received.Load() < s.total {
		n, err := s.to.ReadContext(ctx, buf)
		if err != nil {
			if s.endless() && ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s: read after %d bytes: %w", s.name, s.received.Load(), err)
		}
		h.Write(buf[:n])
		s.received.Add(int64(n))
	}

	s.recvSum = h.Sum(nil)
	return nil
}

// verified reports whether every sent byte arrived intact and in order.
func (s *trafficStream) verified() bool {
	return s.sentSum != nil &&
		s.sent.Load() == s.received.Load() &&
		bytes.Equal(s.sentSum, s.recvSum)
}

// runTraffic drives every stream's writer and reader concurrently.
func runTraffic(ctx context.Context, streams ...*trafficStream) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range streams {
		g.Go(func() error { return s.write(ctx) })
		g.Go(func() error { return s.read(ctx) })
	}
	return g.Wait()
}

// newLoopbackRegistry registers two ports wired back to back.
func newLoopbackRegistry(burst int) (*serialdma.Registry, *serialdma.Port, *serialdma.Port, error) {
	ea, eb := serialdma.NewLoopbackPair(serialdma.WithBurst(burst))
	reg := serialdma.NewRegistry(2)
	txCap, rxCap := ringCapacities()

	a, err := reg.InitPort("loop-a", ea, txCap, rxCap)
	if err != nil {
		ea.Close()
		eb.Close()
		return nil, nil, nil, err
	}
	b, err := reg.InitPort("loop-b", eb, txCap, rxCap)
	if err != nil {
		reg.Close()
		eb.Close()
		return nil, nil, nil, err
	}
	return reg, a, b, nil
}

// sampleRegistry snapshots every port of reg for display.
func sampleRegistry(reg *serialdma.Registry) []components.PortStats {
	var out []components.PortStats
	for _, id := range reg.Ports() {
		if p, err := reg.Lookup(id); err == nil {
			out = append(out, components.NewPortStats(p))
		}
	}
	return out
}
