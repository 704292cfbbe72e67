// Package history keeps a short rolling window of CPU percentages for
// sparkline display.
package history

// DefaultCapacity is the window used when a non-positive capacity is given.
const DefaultCapacity = 20

// Buffer is a fixed-capacity FIFO: pushing onto a full buffer evicts the
// oldest value. It has a single owner and no locking.
type Buffer struct {
	data  []float64
	start int
	n     int
}

// New creates a buffer holding at most capacity values.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([]float64, capacity)}
}

// Push appends v, evicting the oldest value when full.
func (b *Buffer) Push(v float64) {
	if b.n < len(b.data) {
		b.data[(b.start+b.n)%len(b.data)] = v
		b.n++
		return
	}
	b.data[b.start] = v
	b.start = (b.start + 1) % len(b.data)
}

// Values returns a copy of the contents, oldest first.
func (b *Buffer) Values() []float64 {
	out := make([]float64, b.n)
	for i := range out {
		out[i] = b.data[(b.start+i)%len(b.data)]
	}
	return out
}

// Last returns the newest value.
func (b *Buffer) Last() (float64, bool) {
	if b.n == 0 {
		return 0, false
	}
	return b.data[(b.start+b.n-1)%len(b.data)], true
}

// Len is the number of values held.
func (b *Buffer) Len() int { return b.n }

// Cap is the fixed capacity.
func (b *Buffer) Cap() int { return len(b.data) }
