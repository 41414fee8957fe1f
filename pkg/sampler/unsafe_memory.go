package sampler

import "unsafe"

// UnsafeMemory implements MemoryReader by reinterpreting the wire address
// field as a real pointer into this process's address space, the way the
// original firmware's sampler does directly inline. This is the one place
// in the sampler that performs that unchecked dereference; everything else
// in pkg/sampler only ever calls through the MemoryReader interface. Only
// use this on a target where "address" is known to be a valid pointer this
// process owns — e.g. a true embedded build, not a general-purpose host
// process sampling arbitrary addresses supplied over the wire.
type UnsafeMemory struct{}

// Read copies size bytes starting at the memory address given by address
// into dst. Callers are responsible for address validity; there is no way
// to check it from here.
func (UnsafeMemory) Read(address uint32, size uint16, dst []byte) error {
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(address))), int(size))
	copy(dst[:size], src)
	return nil
}
