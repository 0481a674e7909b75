package serialdma

import "sync/atomic"

// Stats holds per-port counters since the port was initialised.
type Stats struct {
	// Transmit side
	TxLegs           uint64 // transmit legs accepted by the engine
	TxSubmitFailures uint64 // transmit legs the engine declined
	TxBytes          uint64 // bytes confirmed sent by completion events
	TxRejected       uint64 // enqueues refused for lack of space
	TxSpurious       uint64 // completions with no leg in flight
	TxMaxUsed        uint64 // high-water mark of transmit ring occupancy

	// Receive side
	RxLegs           uint64 // receive legs accepted by the engine
	RxSubmitFailures uint64 // receive legs the engine declined
	RxBytes          uint64 // bytes credited by progress events
	RxProgress       uint64 // progress events handled
	RxSpurious       uint64 // progress events with no leg in flight
	RxMaxUsed        uint64 // high-water mark of receive ring occupancy
}

type counters struct {
	legs           atomic.Uint64
	submitFailures atomic.Uint64
	bytes          atomic.Uint64
	rejected       atomic.Uint64
	progress       atomic.Uint64
	spurious       atomic.Uint64
	maxUsed        atomic.Uint64
}

// observeUsed raises the high-water mark to used if it is higher.
func (c *counters) observeUsed(used int) {
	u := uint64(used)
	for {
		max := c.maxUsed.Load()
		if u <= max {
			return
		}
		if c.maxUsed.CompareAndSwap(max, u) {
			return
		}
	}
}
