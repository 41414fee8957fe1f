// Package sampler implements the periodic variable sampler: a fixed-
// capacity variable table plus the per-tick selection and frame-assembly
// logic, grounded on emolog_embedded/emolog_sampler.cpp.
package sampler

import "github.com/emolog/emolog-client/pkg/protocol"

// MaxVars is the fixed capacity of the variable table (spec.md §3).
const MaxVars = 128

// scratchSize matches the original firmware's per-call sample buffer
// (uint8_t buf[512] in emolog_sampler.cpp). It bounds how many bytes of
// variable contents a single tick's sample frame can carry.
const scratchSize = 512

// Row is one registered variable descriptor.
type Row struct {
	Phase   uint32
	Period  uint32
	Address uint32
	Size    uint16
}

// Enqueue hands an encoded frame to the TX path. It returns false when the
// frame could not be queued (e.g. the TX ring is full), matching
// comm_queue_message's bool return.
type Enqueue func(frame []byte) bool

// Sampler holds the variable table and run state. It is driven from the
// single-threaded session loop (spec.md §5) and carries no internal
// locking.
type Sampler struct {
	mem     MemoryReader
	enqueue Enqueue

	table      [MaxVars]Row
	size       int
	running    bool
	startTicks uint32

	scratch [scratchSize]byte

	// OnDroppedSample, if set, is called once per tick where a sample was
	// assembled but the TX path rejected it (spec.md §4.5 "Failure
	// semantics"). Wired to the observability counter in SPEC_FULL.md.
	OnDroppedSample func()
}

// New returns an empty, stopped Sampler. mem is used to snapshot variable
// contents on Sample; enqueue hands encoded sample frames to the TX path.
func New(mem MemoryReader, enqueue Enqueue) *Sampler {
	return &Sampler{mem: mem, enqueue: enqueue}
}

// RegisterVariable appends a row to the table.
func (s *Sampler) RegisterVariable(phase, period, address uint32, size uint16) protocol.ErrorCode {
	if s.size >= MaxVars {
		return protocol.ErrorSamplerRegisterVariableSizeExceeded
	}
	s.table[s.size] = Row{Phase: phase, Period: period, Address: address, Size: size}
	s.size++
	return protocol.ErrorNone
}

// Clear empties the table and stops sampling.
func (s *Sampler) Clear() {
	s.Stop()
	s.size = 0
}

// Stop freezes emission without clearing the table.
func (s *Sampler) Stop() {
	s.running = false
}

// Start begins sampling at the given tick. It fails if the table is empty.
func (s *Sampler) Start(ticks uint32) protocol.ErrorCode {
	if s.size == 0 {
		return protocol.ErrorSamplerTableEmpty
	}
	s.running = true
	s.startTicks = ticks
	return protocol.ErrorNone
}

// Running reports whether the sampler is currently emitting samples.
func (s *Sampler) Running() bool { return s.running }

// Size reports the current table occupancy.
func (s *Sampler) Size() int { return s.size }

// Sample evaluates every registered row against the current tick and, if
// at least one matches, assembles and enqueues one sample frame. It is a
// no-op when not running. A full TX path silently drops the whole frame for
// this tick — no retry, no partial frame (spec.md §4.5).
func (s *Sampler) Sample(enc *protocol.Encoder, ticks uint32) {
	if !s.running {
		return
	}
	relative := ticks - s.startTicks

	b := protocol.BeginSample(s.scratch[:])
	matched := 0
	var varBuf [scratchSize]byte
	for i := 0; i < s.size; i++ {
		row := &s.table[i]
		if !rowMatches(row, relative) {
			continue
		}
		dst := varBuf[:row.Size]
		if err := s.mem.Read(row.Address, row.Size, dst); err != nil {
			continue
		}
		b.Add(dst)
		matched++
	}
	if matched == 0 {
		return
	}
	n := b.End(enc, relative)
	if !s.enqueue(s.scratch[:n]) && s.OnDroppedSample != nil {
		s.OnDroppedSample()
	}
}

// rowMatches implements the (phase, period) selection law (spec.md §4.5/§8
// property 6): period==1 is the sample-every-tick fast path, avoiding a
// modulo on the common case.
func rowMatches(row *Row, relative uint32) bool {
	if row.Period == 1 {
		return true
	}
	return relative%row.Period == row.Phase
}
