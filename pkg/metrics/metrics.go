// Package metrics defines the observability sink the session/sampler
// layers report to. spec.md itself declares no persisted state and no
// metrics surface, but §9's call-out for host-side visibility into dropped
// frames (the only way a host can detect the "silent drop" failure mode
// described in spec.md §7) needs *some* counter-reporting collaborator;
// this interface is that seam. Grounded on
// librescoot-bluetooth-service/pkg/redis/client.go's WriteInt/Publish
// pattern, generalised to an interface so tests can use a no-op.
package metrics

// Sink receives counter increments for the handful of conditions spec.md's
// error-handling design says are otherwise invisible to the host: dropped
// samples (TX ring full when the sampler tried to enqueue), dropped
// responses (TX ring full when an ACK/VERSION reply was due), and bytes
// the RX assembler dropped because its buffer was full or a message was
// still pending consumption. Bytes skipped during decoder resync are not
// counted.
type Sink interface {
	IncDroppedSamples(n int)
	IncDroppedResponses(n int)
	IncRXBytesDropped(n int)
	// SetTXOccupancy reports the TX ring's current byte occupancy, letting
	// an operator watch for a ring trending toward full before drops start.
	SetTXOccupancy(occupied, capacity int)
}

// NoOp discards every observation. It is the default Sink when no
// metrics backend is configured.
type NoOp struct{}

func (NoOp) IncDroppedSamples(int) {}
func (NoOp) IncDroppedResponses(int) {}
func (NoOp) IncRXBytesDropped(int) {}
func (NoOp) SetTXOccupancy(occupied, cap int) {}
