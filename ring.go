package serialdma

// RingBuffer is a fixed-capacity circular byte store shared by one producer
// and one consumer. The producer writes at the producer cursor, either by
// copying (Enqueue) or by letting hardware write in place and then calling
// MarkProduced. The consumer mirrors this with Dequeue and MarkConsumed.
//
// The cursors are equal both when the buffer is empty and when it is full.
// The cached free count is the only thing that tells the two apart.
//
// RingBuffer does no locking of its own; TxChannel and RxChannel serialize
// access to it.
type RingBuffer struct {
	data    []byte
	produce int // next write offset
	consume int // next read offset
	free    int
}

// NewRingBuffer returns an empty ring with the given capacity in bytes.
func NewRingBuffer(capacity int) (*RingBuffer, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &RingBuffer{
		data: make([]byte, capacity),
		free: capacity,
	}, nil
}

// Capacity returns the total size of the ring in bytes.
func (rb *RingBuffer) Capacity() int { return len(rb.data) }

// FreeSize returns the number of bytes that can still be written.
func (rb *RingBuffer) FreeSize() int { return rb.free }

// UsedSize returns the number of bytes waiting to be read.
func (rb *RingBuffer) UsedSize() int { return len(rb.data) - rb.free }

// Empty reports whether no bytes are stored.
func (rb *RingBuffer) Empty() bool { return rb.free == len(rb.data) }

// Full reports whether no free space remains.
func (rb *RingBuffer) Full() bool { return rb.free == 0 }

// ProducerCursor returns the offset of the next byte to be written.
func (rb *RingBuffer) ProducerCursor() int { return rb.produce }

// ConsumerCursor returns the offset of the next byte to be read.
func (rb *RingBuffer) ConsumerCursor() int { return rb.consume }

// Enqueue copies all of src into the ring. If src does not fit in the free
// space the ring is left untouched and ErrInsufficientSpace is returned;
// there are no partial writes.
func (rb *RingBuffer) Enqueue(src []byte) error {
	n := len(src)
	if n == 0 {
		return nil
	}
	if n > rb.free {
		return ErrInsufficientSpace
	}

	// Copy up to the physical end, then the remainder from offset 0.
	first := copy(rb.data[rb.produce:], src)
	copy(rb.data, src[first:])

	rb.advanceProduce(n)
	return nil
}

// Dequeue copies up to len(dst) stored bytes into dst and returns the count.
func (rb *RingBuffer) Dequeue(dst []byte) int {
	n := min(len(dst), rb.UsedSize())
	if n == 0 {
		return 0
	}

	first := copy(dst[:n], rb.data[rb.consume:])
	copy(dst[first:n], rb.data)

	rb.advanceConsume(n)
	return n
}

// MarkProduced advances the producer cursor by n bytes without copying.
// Use it after hardware has written directly into the ring at the producer
// cursor.
func (rb *RingBuffer) MarkProduced(n int) error {
	if n < 0 || n > rb.free {
		return ErrMarkOutOfRange
	}
	rb.advanceProduce(n)
	return nil
}

// MarkConsumed advances the consumer cursor by n bytes without copying.
// Use it after hardware has read directly from the ring at the consumer
// cursor.
func (rb *RingBuffer) MarkConsumed(n int) error {
	if n < 0 || n > rb.UsedSize() {
		return ErrMarkOutOfRange
	}
	rb.advanceConsume(n)
	return nil
}

// Reset discards all stored bytes and rewinds both cursors to zero.
func (rb *RingBuffer) Reset() {
	rb.produce = 0
	rb.consume = 0
	rb.free = len(rb.data)
}

// span returns the storage window [off, off+n). Callers obtain n from the
// planner, so the window never crosses the physical end.
func (rb *RingBuffer) span(off, n int) []byte {
	return rb.data[off : off+n : off+n]
}

func (rb *RingBuffer) advanceProduce(n int) {
	rb.produce = (rb.produce + n) % len(rb.data)
	rb.free -= n
}

func (rb *RingBuffer) advanceConsume(n int) {
	rb.consume = (rb.consume + n) % len(rb.data)
	rb.free += n
}
