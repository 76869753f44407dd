package pool

import "sync"

var wordSlicePool = sync.Pool{
	New: func() any {
		s := make([]uint64, 0, WordBufferDefaultLen)
		return &s
	},
}

// GetWords retrieves an empty uint64 slice from the pool.
//
// The caller must hand the slice back with PutWords once it no longer references it.
func GetWords() []uint64 {
	ptr, _ := wordSlicePool.Get().(*[]uint64)
	return (*ptr)[:0]
}

// PutWords returns a word slice to the pool. Slices above WordBufferMaxLen are dropped.
func PutWords(words []uint64) {
	if words == nil || cap(words) > WordBufferMaxLen {
		return
	}

	words = words[:0]
	wordSlicePool.Put(&words)
}
