// Package rxassembler implements the RX side of the Emolog wire protocol:
// a fixed-size buffer fed by the transport, which runs the frame decoder
// after each burst of bytes and exposes at most one decoded message at a
// time, grounded on pkg/usock/usock.go's processByte state machine and
// original_source/protocol_embedded/comm.c's handle_uart_rx.
package rxassembler

import (
	"sync"

	"github.com/emolog/emolog-client/pkg/protocol"
)

// DefaultCapacity is the recommended RX buffer size from spec.md §3.
const DefaultCapacity = 1024

// Assembler holds the RX buffer and the message-available handshake flag.
// Feed is called from the transport context; PeekMessage/ConsumeMessage are
// called from the session loop. The shared state is the buffer itself plus
// the available flag, which spec.md §5 calls out as needing to be
// memory-fenced between the two contexts — the mutex here serves that role.
type Assembler struct {
	mu        sync.Mutex
	buf       []byte
	pos       int
	available bool

	// OnOverflow, if set, is invoked with the number of incoming bytes
	// dropped because the buffer was full or a message was already pending
	// consumption. Used to feed the dropped-bytes observability counter
	// (SPEC_FULL.md's metrics sink); left nil by default.
	OnOverflow func(dropped int)
}

// New returns an Assembler with the given buffer capacity.
func New(capacity int) *Assembler {
	if capacity <= 0 {
		panic("rxassembler: capacity must be positive")
	}
	return &Assembler{buf: make([]byte, capacity)}
}

// Feed appends incoming bytes and, while no message is pending consumption,
// repeatedly attempts to decode a frame out of the buffer. Bytes beyond
// capacity, or arriving while a message is already available, are dropped.
func (a *Assembler) Feed(data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, b := range data {
		if a.available {
			a.reportOverflow(1)
			continue
		}
		if a.pos >= len(a.buf) {
			a.reportOverflow(1)
			continue
		}
		a.buf[a.pos] = b
		a.pos++
	}

	if a.available {
		return
	}
	a.runDecodeLoop()
}

func (a *Assembler) reportOverflow(n int) {
	if a.OnOverflow != nil {
		a.OnOverflow(n)
	}
}

// runDecodeLoop repeatedly calls protocol.Decode, shifting the buffer past
// resync skips, until a complete frame is found (available=true) or more
// bytes are needed (it returns and waits for the next Feed).
func (a *Assembler) runDecodeLoop() {
	for {
		ret := protocol.Decode(a.buf[:a.pos], a.pos)
		switch {
		case ret == 0:
			a.available = true
			return
		case ret < 0:
			skip := -ret
			copy(a.buf, a.buf[skip:a.pos])
			a.pos -= skip
		default:
			return
		}
	}
}

// PeekMessage returns the pending decoded frame, if any. The returned slice
// aliases the assembler's internal buffer and is only valid until the next
// ConsumeMessage call.
func (a *Assembler) PeekMessage() ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.available {
		return nil, false
	}
	hdr := protocol.ParseHeader(a.buf)
	n := protocol.HeaderSize + int(hdr.Length)
	return a.buf[:n], true
}

// ConsumeMessage clears the pending message and resets the buffer for the
// next frame.
func (a *Assembler) ConsumeMessage() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pos = 0
	a.available = false
}
