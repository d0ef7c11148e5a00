// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

const (
	alignment = 8

	// headerSize is the size of the header preceding every allocation,
	// which identifies the order of the allocation.
	headerSize = 8

	// Allocations are rounded to powers of two between 8 bytes and 32MiB,
	// both ends inclusive, which gives 23 orders.
	numOrders         = 23
	minAllocationSize = 8
	maxAllocationSize = 1 << 25

	// PageSize is the size of a wasm memory page.
	PageSize     = 65536
	maxWasmPages = 4 * 1024 * 1024 * 1024 / PageSize

	// nilMarker ends a free list.
	nilMarker = math.MaxUint32

	occupiedMask uint64 = 1 << 32
)

var (
	ErrInvalidOrder               = errors.New("invalid order")
	ErrAllocationTooLarge         = errors.New("requested allocation too large")
	ErrCannotReadHeader           = errors.New("cannot read header")
	ErrCannotWriteHeader          = errors.New("cannot write header")
	ErrInvalidHeaderPointer       = errors.New("invalid header pointer detected")
	ErrFreeListCorrupted          = errors.New("free list points to an occupied header")
	ErrAllocatorOutOfSpace        = errors.New("allocator out of space")
	ErrCannotGrowMemory           = errors.New("cannot grow linear memory")
	ErrInvalidDeallocationPtr     = errors.New("invalid pointer for deallocation")
	ErrDeallocatingFreeAllocation = errors.New("allocation points to a free header")
	ErrAllocatorPoisoned          = errors.New("allocator poisoned by a previous error")
)

// Memory is the linear memory of a wasm instance, as seen by the allocator.
// The memory of a wazero module satisfies it.
type Memory interface {
	// Size returns the size in bytes.
	Size() uint32
	// Grow increases memory by the delta in pages, returning the previous
	// number of pages, or false if the memory cannot grow.
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
	ReadUint64Le(offset uint32) (uint64, bool)
	WriteUint64Le(offset uint32, v uint64) bool
	// Read returns a view of the memory, not a copy.
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
}

// order is the exponent of the power of two size of an allocation,
// shifted so that the minimum allocation size has order 0.
type order uint32

func (o order) size() uint32 {
	return minAllocationSize << o
}

func orderFromRaw(raw uint32) (order, error) {
	if raw >= numOrders {
		return 0, fmt.Errorf("%w: order %d should be less than %d", ErrInvalidOrder, raw, numOrders)
	}
	return order(raw), nil
}

func orderFromSize(size uint32) (order, error) {
	if size > maxAllocationSize {
		return 0, fmt.Errorf("%w: requested %d, maximum is %d",
			ErrAllocationTooLarge, size, maxAllocationSize)
	}

	powerOfTwo := nextPowerOf2GT8(size)
	value := bits.TrailingZeros32(powerOfTwo) - bits.TrailingZeros32(minAllocationSize)
	return order(value), nil
}

// header is the 8 bytes word preceding an allocation. An occupied header
// holds the order of the allocation with bit 32 set; a free header holds
// the pointer to the next free header of the same order, or nilMarker.
type header struct {
	occupied bool
	// value is the order when occupied and the next link otherwise.
	value uint32
}

func readHeader(mem Memory, headerPtr uint32) (header, error) {
	raw, ok := mem.ReadUint64Le(headerPtr)
	if !ok {
		return header{}, fmt.Errorf("%w: pointer %d", ErrCannotReadHeader, headerPtr)
	}

	h := header{occupied: raw&occupiedMask != 0, value: uint32(raw)}
	if h.occupied {
		_, err := orderFromRaw(h.value)
		if err != nil {
			return header{}, err
		}
	}
	return h, nil
}

func writeHeader(mem Memory, headerPtr uint32, h header) error {
	raw := uint64(h.value)
	if h.occupied {
		raw |= occupiedMask
	}

	if !mem.WriteUint64Le(headerPtr, raw) {
		return fmt.Errorf("%w: pointer %d", ErrCannotWriteHeader, headerPtr)
	}
	return nil
}

// FreeingBumpHeapAllocator allocates memory for the runtime in its linear
// memory above the heap base. Freed allocations are kept in one free list
// per order and reused; new allocations bump a pointer, growing the memory
// when needed.
//
// Once an error has been returned, every following call fails.
type FreeingBumpHeapAllocator struct {
	originalHeapBase uint32
	bumper           uint32
	freeLists        [numOrders]uint32
	poisoned         bool

	allocated uint32
}

// NewFreeingBumpHeapAllocator returns an allocator using the memory above heapBase.
func NewFreeingBumpHeapAllocator(heapBase uint32) *FreeingBumpHeapAllocator {
	aligned := (heapBase + alignment - 1) / alignment * alignment
	f := &FreeingBumpHeapAllocator{
		originalHeapBase: aligned,
		bumper:           aligned,
	}
	f.resetFreeLists()
	return f
}

func (f *FreeingBumpHeapAllocator) resetFreeLists() {
	for i := range f.freeLists {
		f.freeLists[i] = nilMarker
	}
}

// Allocate returns a pointer to size bytes of memory. The size is rounded to
// the next power of two, with a minimum of 8 bytes and a maximum of 32MiB.
// The memory given must not shrink between calls.
func (f *FreeingBumpHeapAllocator) Allocate(mem Memory, size uint32) (ptr uint32, err error) {
	if f.poisoned {
		return 0, ErrAllocatorPoisoned
	}
	defer func() {
		if err != nil {
			f.poisoned = true
		}
	}()

	o, err := orderFromSize(size)
	if err != nil {
		return 0, err
	}

	var headerPtr uint32
	if link := f.freeLists[o]; link != nilMarker {
		if uint64(link)+uint64(o.size())+headerSize > uint64(mem.Size()) {
			return 0, fmt.Errorf("%w: pointer %d, order size %d",
				ErrInvalidHeaderPointer, link, o.size())
		}

		h, err := readHeader(mem, link)
		if err != nil {
			return 0, fmt.Errorf("reading free header: %w", err)
		}

		if h.occupied {
			return 0, fmt.Errorf("%w: pointer %d", ErrFreeListCorrupted, link)
		}

		f.freeLists[o] = h.value
		headerPtr = link
	} else {
		headerPtr, err = f.bump(mem, o.size()+headerSize)
		if err != nil {
			return 0, err
		}
	}

	err = writeHeader(mem, headerPtr, header{occupied: true, value: uint32(o)})
	if err != nil {
		return 0, err
	}

	f.allocated += o.size() + headerSize
	return headerPtr + headerSize, nil
}

// Deallocate frees the allocation at ptr, previously returned by Allocate.
func (f *FreeingBumpHeapAllocator) Deallocate(mem Memory, ptr uint32) (err error) {
	if f.poisoned {
		return ErrAllocatorPoisoned
	}
	defer func() {
		if err != nil {
			f.poisoned = true
		}
	}()

	if ptr < f.originalHeapBase+headerSize {
		return fmt.Errorf("%w: %d", ErrInvalidDeallocationPtr, ptr)
	}
	headerPtr := ptr - headerSize

	h, err := readHeader(mem, headerPtr)
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	if !h.occupied {
		return fmt.Errorf("%w: pointer %d", ErrDeallocatingFreeAllocation, ptr)
	}
	o := order(h.value)

	err = writeHeader(mem, headerPtr, header{value: f.freeLists[o]})
	if err != nil {
		return err
	}
	f.freeLists[o] = headerPtr

	f.allocated -= o.size() + headerSize
	return nil
}

// Clear forgets every allocation.
func (f *FreeingBumpHeapAllocator) Clear() {
	if f.allocated > 0 {
		logger.Tracef("clearing allocator with %d bytes still allocated", f.allocated)
	}
	f.bumper = f.originalHeapBase
	f.resetFreeLists()
	f.poisoned = false
	f.allocated = 0
}

func (f *FreeingBumpHeapAllocator) bump(mem Memory, size uint32) (uint32, error) {
	required := uint64(f.bumper) + uint64(size)

	if required > uint64(mem.Size()) {
		requiredPages, ok := pagesFromSize(required)
		if !ok || requiredPages > maxWasmPages {
			return 0, fmt.Errorf("%w: %d bytes required", ErrAllocatorOutOfSpace, required)
		}

		currentPages := mem.Size() / PageSize
		if currentPages >= maxWasmPages {
			return 0, fmt.Errorf("%w: already at %d pages", ErrAllocatorOutOfSpace, currentPages)
		}

		// double the memory, or more if that is not enough
		nextPages := min(currentPages*2, maxWasmPages)
		nextPages = max(nextPages, requiredPages)

		_, ok = mem.Grow(nextPages - currentPages)
		if !ok {
			return 0, fmt.Errorf("%w: from %d pages to %d pages",
				ErrCannotGrowMemory, currentPages, nextPages)
		}

		logger.Tracef("grew memory from %d to %d pages", currentPages, nextPages)
	}

	ptr := f.bumper
	f.bumper += size
	return ptr, nil
}

// pagesFromSize returns the number of pages needed to hold size bytes,
// or false if it does not fit in a uint32.
func pagesFromSize(size uint64) (uint32, bool) {
	value := (size + PageSize - 1) / PageSize
	if value > math.MaxUint32 {
		return 0, false
	}
	return uint32(value), true
}

func nextPowerOf2GT8(v uint32) uint32 {
	if v < 8 {
		return 8
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
