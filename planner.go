package serialdma

// RunKind selects which cursor a planned run starts from.
type RunKind int

const (
	// TransmitRun starts at the consumer cursor and is bounded by the
	// producer cursor: the bytes hardware can read out next.
	TransmitRun RunKind = iota
	// ReceiveRun starts at the producer cursor and is bounded by the
	// consumer cursor: the space hardware can write into next.
	ReceiveRun
)

func (k RunKind) String() string {
	switch k {
	case TransmitRun:
		return "transmit"
	case ReceiveRun:
		return "receive"
	default:
		return "unknown"
	}
}

// PlanRun returns the length of the longest contiguous run starting at from
// that stays inside [from, length) and does not pass to. When from == to
// the empty and full flags decide whether the run covers the rest of storage
// or nothing; cursor equality alone never does.
//
// A zero result means the channel is blocked: nothing to send, or no room to
// receive.
func PlanRun(kind RunKind, from, to int, empty, full bool, length int) int {
	switch kind {
	case TransmitRun:
		switch {
		case from == to && full:
			return length - from
		case from <= to:
			return to - from
		default:
			return length - from
		}
	case ReceiveRun:
		switch {
		case from == to && empty:
			return length - from
		case from < to:
			return to - from
		case from == to:
			return 0
		default:
			return length - from
		}
	}
	return 0
}

// TransmitRun returns the contiguous run of stored bytes at the consumer
// cursor.
func (rb *RingBuffer) TransmitRun() int {
	return PlanRun(TransmitRun, rb.consume, rb.produce, rb.Empty(), rb.Full(), len(rb.data))
}

// ReceiveRun returns the contiguous run of free space at the producer cursor.
func (rb *RingBuffer) ReceiveRun() int {
	return PlanRun(ReceiveRun, rb.produce, rb.consume, rb.Empty(), rb.Full(), len(rb.data))
}
