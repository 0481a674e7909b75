package serialdma

// Events receives hardware notifications for one port. *Port implements it.
type Events interface {
	// TransferComplete reports that the outstanding transmit leg has been
	// fully read out of the ring.
	TransferComplete()

	// ReceiveProgress reports the running total of bytes written into the
	// outstanding receive leg since it was submitted. It fires on partial
	// progress (line idle, half transfer) and when the leg ends.
	ReceiveProgress(cumulative int)
}

// Engine is the hardware transfer primitive a port is driven by: a DMA
// controller, a tty, or an in-memory simulation.
//
// Engines read from and write to the slices passed to SubmitTransmit and
// SubmitReceive in place until the matching event is delivered. Events must
// be delivered asynchronously, never from inside a Submit call, and at most
// one event per direction may be in progress at a time.
type Engine interface {
	SubmitTransmit(buf []byte) error
	SubmitReceive(buf []byte) error

	// IsReceiveActive reports whether the receive leg is still physically
	// running. It is consulted after every ReceiveProgress.
	IsReceiveActive() bool

	// Bind installs the sink for this engine's events. It is called once,
	// before the first submission.
	Bind(ev Events)
}
