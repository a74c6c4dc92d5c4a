// ABOUTME: Capture session and lock-free block ring
// ABOUTME: Moves input blocks from the real-time callback to the control context
package fourtrack

import (
	"sync/atomic"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
)

// CaptureSession accumulates the blocks of one recording pass
type CaptureSession struct {
	left   [][]float32
	right  [][]float32
	length int
}

// NewCaptureSession creates an empty session
func NewCaptureSession() *CaptureSession {
	return &CaptureSession{}
}

// Append copies one block pair into the session
func (s *CaptureSession) Append(left, right []float32) {
	l := make([]float32, len(left))
	r := make([]float32, len(right))
	copy(l, left)
	copy(r, right)

	s.left = append(s.left, l)
	s.right = append(s.right, r)
	s.length += len(l)
}

// Len returns the number of captured frames
func (s *CaptureSession) Len() int {
	return s.length
}

// Blocks returns the number of captured blocks
func (s *CaptureSession) Blocks() int {
	return len(s.left)
}

// Flatten merges the captured blocks into one stereo buffer
func (s *CaptureSession) Flatten() (*audio.Buffer, error) {
	left := audio.MergeBlocks(s.left, s.length)
	right := audio.MergeBlocks(s.right, s.length)
	return audio.NewStereo(left, right)
}

type captureBlock struct {
	left  []float32
	right []float32
	n     int
}

// blockRing is a single-producer single-consumer queue of preallocated
// blocks. push never blocks or allocates.
type blockRing struct {
	slots []captureBlock
	head  atomic.Uint64 // next slot to write, owned by the producer
	tail  atomic.Uint64 // next slot to read, owned by the consumer
}

func newBlockRing(capacity, blockSize int) *blockRing {
	r := &blockRing{slots: make([]captureBlock, capacity)}
	for i := range r.slots {
		r.slots[i].left = make([]float32, blockSize)
		r.slots[i].right = make([]float32, blockSize)
	}
	return r
}

// push copies a block into the next free slot; false when the ring is full
func (r *blockRing) push(left, right []float32) bool {
	head := r.head.Load()
	if head-r.tail.Load() >= uint64(len(r.slots)) {
		return false
	}

	slot := &r.slots[head%uint64(len(r.slots))]
	slot.n = copy(slot.left, left)
	copy(slot.right[:slot.n], right)
	r.head.Store(head + 1)
	return true
}

// drain hands every queued block to fn in order and frees the slots.
// The slices passed to fn are only valid during the call.
func (r *blockRing) drain(fn func(left, right []float32)) int {
	tail := r.tail.Load()
	head := r.head.Load()
	drained := 0

	for ; tail < head; tail++ {
		slot := &r.slots[tail%uint64(len(r.slots))]
		fn(slot.left[:slot.n], slot.right[:slot.n])
		drained++
	}

	r.tail.Store(tail)
	return drained
}

// len returns the number of queued blocks
func (r *blockRing) len() int {
	return int(r.head.Load() - r.tail.Load())
}

// reset empties the ring. Only call while the producer is quiescent.
func (r *blockRing) reset() {
	r.tail.Store(r.head.Load())
}
