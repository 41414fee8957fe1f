// Package txring implements the fixed-capacity single-producer/single-
// consumer TX byte ring shared between the session loop (producer) and a
// transport's drain path (consumer), grounded on
// emolog_embedded/emolog_tx_circular_buffer.c.
package txring

import "sync"

// Ring is a byte ring buffer with bulk, all-or-nothing Put and bulk Drain.
// Structural mutation (Put, Drain) is serialised by an internal mutex,
// standing in for the original's interrupts_disable/interrupts_enable
// critical section around the two execution contexts (spec.md §5).
type Ring struct {
	mu       sync.Mutex
	buf      []byte
	readPos  int
	writePos int
	isEmpty  bool
}

// New returns a Ring with the given byte capacity. The reference
// implementations use 5586 or 32768; callers pick what fits their platform.
func New(capacity int) *Ring {
	if capacity <= 0 {
		panic("txring: capacity must be positive")
	}
	return &Ring{buf: make([]byte, capacity), isEmpty: true}
}

// Cap returns the ring's total byte capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Len returns the number of occupied bytes.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lenLocked()
}

func (r *Ring) lenLocked() int {
	if r.isEmpty {
		return 0
	}
	n := r.writePos - r.readPos
	if n <= 0 {
		n += len(r.buf)
	}
	return n
}

// Free returns the number of free bytes.
func (r *Ring) Free() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf) - r.lenLocked()
}

// IsEmpty reports whether the ring currently holds no bytes.
func (r *Ring) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isEmpty
}

// IsFull reports whether the ring has no free space.
func (r *Ring) IsFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.isEmpty && r.readPos == r.writePos
}

// Put appends src atomically: either every byte is appended and Put returns
// true, or none are and it returns false (not enough free space).
func (r *Ring) Put(src []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(src) == 0 {
		return true
	}
	if len(r.buf)-r.lenLocked() < len(src) {
		return false
	}
	n := copy(r.buf[r.writePos:], src)
	if n < len(src) {
		copy(r.buf, src[n:])
	}
	r.writePos = (r.writePos + len(src)) % len(r.buf)
	r.isEmpty = false
	return true
}

// ByteWriter attempts to hand one byte to the transport's hardware FIFO. It
// returns false when the FIFO is full and draining should stop for now.
type ByteWriter func(b byte) bool

// Drain feeds bytes to write one at a time until write returns false or the
// ring empties, and returns how many bytes were consumed. When the ring
// empties exactly, both cursors reset to 0 (spec.md §3's TX ring
// invariant), which keeps long-running cursor values small for diagnostics.
func (r *Ring) Drain(write ByteWriter) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for !r.isEmpty {
		b := r.buf[r.readPos]
		if !write(b) {
			break
		}
		r.readPos = (r.readPos + 1) % len(r.buf)
		count++
		if r.readPos == r.writePos {
			r.isEmpty = true
			r.readPos = 0
			r.writePos = 0
		}
	}
	return count
}
