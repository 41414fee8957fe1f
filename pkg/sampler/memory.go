package sampler

import "fmt"

// MemoryReader snapshots size bytes starting at address into dst[:size].
// spec.md's original source reinterprets the wire "address" field as a raw
// pointer and dereferences it directly; Go has no equivalent unchecked
// operation at the language level, so the sampler takes this capability as
// a caller-supplied collaborator instead (see SPEC_FULL.md / DESIGN.md
// "Raw pointer sampling"). The unsafety, where it exists at all, is
// localised to a single implementation of this interface rather than
// spread through the sampling loop.
type MemoryReader interface {
	Read(address uint32, size uint16, dst []byte) error
}

// SimMemory is a MemoryReader backed by a plain byte slice, addressed
// starting at Base. It is meant for host-side testing and for the demo tick
// source in cmd/emolog-client, where "memory" is just a Go byte slice and
// there is no real address space to protect against.
type SimMemory struct {
	Base  uint32
	Bytes []byte
}

// NewSimMemory returns a SimMemory covering bytes addressed [base, base+len(data)).
func NewSimMemory(base uint32, data []byte) *SimMemory {
	return &SimMemory{Base: base, Bytes: data}
}

// Read copies size bytes starting at address into dst.
func (m *SimMemory) Read(address uint32, size uint16, dst []byte) error {
	if address < m.Base {
		return fmt.Errorf("sampler: address 0x%x below base 0x%x", address, m.Base)
	}
	off := int(address - m.Base)
	if off+int(size) > len(m.Bytes) {
		return fmt.Errorf("sampler: read of %d bytes at 0x%x out of range", size, address)
	}
	copy(dst[:size], m.Bytes[off:off+int(size)])
	return nil
}
