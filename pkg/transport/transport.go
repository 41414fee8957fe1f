// Package transport defines the boundary between the protocol core and the
// embedding environment's byte-level I/O, grounded on spec.md §4.7/§6's
// enumeration of what the core requires from its host and on
// original_source/source/Linux/emolog_comm_linux.c and
// protocol_embedded/comm.c for the two concrete shapes that boundary takes
// (interrupt-driven UART vs. a polled socket).
package transport

// Transport is the interface-only component C7: byte-level I/O implemented
// by the embedding environment. The original firmware brackets TX ring
// mutation in interrupts_disable/interrupts_enable (spec.md §5); on a host
// the txring.Ring's own internal mutex plays that role, so the interface
// itself carries no separate critical-section primitive.
// Adapters in this module's transport/* subpackages implement it for a
// serial line, a TCP listener, and a PTY.
type Transport interface {
	// Enqueue hands a fully-encoded frame to the transport's outbound path,
	// normally by putting it on a txring.Ring and draining. It returns
	// false when the ring has no room, matching comm_queue_message's bool
	// contract.
	Enqueue(frame []byte) bool

	// PollStep pumps I/O for transports with no interrupt or background
	// goroutine of their own (spec.md §4.7's "poll step for non-interrupt
	// transports", e.g. the reference TCP server). Interrupt-driven
	// transports (serial, PTY) implement this as a no-op; their RX work
	// happens on a background goroutine and TX is drained inside Enqueue.
	PollStep()

	// Close releases the transport's underlying resources.
	Close() error
}
