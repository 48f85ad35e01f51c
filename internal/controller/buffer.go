package controller

// workBuffer is the fixed-capacity copy of an order that the parser reads.
// One byte is reserved for the terminator, so at most len(data)-1 order
// bytes fit.
type workBuffer struct {
	data []byte
	n    int
}

func newWorkBuffer(usable int) *workBuffer {
	return &workBuffer{data: make([]byte, usable+1)}
}

// load copies as much of order as fits and reports whether all of it did.
// It never writes past the buffer.
func (b *workBuffer) load(order string) bool {
	n := min(len(order), b.usable())
	b.n = copy(b.data[:n], order)
	b.data[b.n] = 0
	return len(order) <= b.usable()
}

func (b *workBuffer) usable() int {
	return len(b.data) - 1
}

func (b *workBuffer) String() string {
	return string(b.data[:b.n])
}
