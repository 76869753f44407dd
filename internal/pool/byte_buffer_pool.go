package pool

import "sync"

// Default sizes for pooled bit-writer buffers.
const (
	BitBufferDefaultSize  = 1024 * 4        // 4KiB
	BitBufferMaxThreshold = 1024 * 256      // 256KiB
	WordBufferDefaultLen  = 512             // 512 words (4KiB)
	WordBufferMaxLen      = 1024 * 1024 / 8 // 1MiB of words
)

// ByteBuffer is the growable backing store of byte-oriented bit writers. Writers append
// whole words to B directly after calling Grow.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates an empty buffer with room for size bytes.
func NewByteBuffer(size int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, size)}
}

// Bytes returns the buffered bytes.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Reset empties the buffer and keeps its memory.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// Len returns the number of buffered bytes.
func (bb *ByteBuffer) Len() int { return len(bb.B) }

// Cap returns the allocated size.
func (bb *ByteBuffer) Cap() int { return cap(bb.B) }

// Grow makes room for n more bytes. Buffers up to four default sizes grow by one default
// size, larger ones by a quarter of their capacity.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	step := BitBufferDefaultSize
	if cap(bb.B) > 4*BitBufferDefaultSize {
		step = cap(bb.B) / 4
	}
	step = max(step, n)

	grown := make([]byte, len(bb.B), len(bb.B)+step)
	copy(grown, bb.B)
	bb.B = grown
}

// ByteBufferPool recycles buffers, dropping those grown past a threshold.
type ByteBufferPool struct {
	pool      sync.Pool
	threshold int
}

// NewByteBufferPool creates a pool of buffers starting at size bytes. Buffers whose
// capacity exceeds threshold are not recycled; zero keeps every buffer.
func NewByteBufferPool(size, threshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool:      sync.Pool{New: func() any { return NewByteBuffer(size) }},
		threshold: threshold,
	}
}

// Get returns an empty buffer.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put recycles bb.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil || (p.threshold > 0 && cap(bb.B) > p.threshold) {
		return
	}
	bb.Reset()
	p.pool.Put(bb)
}

var bitBuffers = NewByteBufferPool(BitBufferDefaultSize, BitBufferMaxThreshold)

// GetBitBuffer takes a buffer from the shared bit-writer pool.
func GetBitBuffer() *ByteBuffer { return bitBuffers.Get() }

// PutBitBuffer hands bb back to the shared bit-writer pool.
func PutBitBuffer(bb *ByteBuffer) { bitBuffers.Put(bb) }
