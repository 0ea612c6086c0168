// Package heap implements a freestanding first-fit allocator over a single
// caller-provided contiguous memory region. It has no third-party
// dependencies and performs no synchronization: callers needing concurrent
// access must serialize every call themselves (see the doc comment on
// Heap).
package heap

import "unsafe"

// holeHeader is the two-field node written at the start of every free
// block: its size, and the address of the next free block (0 if none).
// Every free block in the managed region begins with exactly one of these.
type holeHeader struct {
	size uintptr
	next uintptr
}

const (
	holeHeaderSize  = unsafe.Sizeof(holeHeader{})
	holeHeaderAlign = unsafe.Alignof(holeHeader{})
)

// alignUp rounds addr up to the next multiple of align. align must be a
// power of two.
func alignUp(addr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}

// holeAt views the memory at addr as a holeHeader. addr must lie within the
// managed region and be aligned to holeHeaderAlign; callers are responsible
// for keeping the backing memory alive and in place for as long as any
// holeAt pointer derived from it is in use.
func holeAt(addr uintptr) *holeHeader {
	return (*holeHeader)(unsafe.Pointer(addr))
}

// addrOfSlice returns the address of region's backing array. The caller
// must keep region alive and must never let it grow or move (e.g. via
// append) for as long as the returned address is in use.
func addrOfSlice(region []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(region)))
}

// Hole is a read-only view of one free block: its address and size. It
// carries no behavior and is never itself written into memory (it exists
// only for reporting: Heap.Holes, diagnostics, tests). The real header
// embedded in the region is holeHeader.
type Hole struct {
	Addr uintptr
	Size uintptr
}

// normalize rounds a request up so that a freed block always has room for
// a Hole header and stays aligned for whatever follows it, and so that
// Heap.Deallocate can deterministically recompute the same size/align pair
// Heap.Allocate used.
func normalize(size, align uintptr) (uintptr, uintptr) {
	if size < holeHeaderSize {
		size = holeHeaderSize
	}

	size = alignUp(size, holeHeaderAlign)

	if align < holeHeaderAlign {
		align = holeHeaderAlign
	}

	return size, align
}

// fitCandidate describes how a free block at (addr, blockSize) would be
// split to satisfy a normalized request of (reqSize, reqAlign).
type fitCandidate struct {
	frontPad   uintptr // bytes before the aligned start; 0 or >= holeHeaderSize
	alignedAt  uintptr // address handed back to the caller
	actualSize uintptr // bytes consumed by the allocation itself (back pad absorbed, if any)
	backHole   uintptr // size of a standalone trailing hole to create; 0 if none
}

// fit decides whether a free block can satisfy a request, and if so how it
// would be split. It rejects front pads too small to host a Hole, and
// absorbs back pads too small to host one into the allocation instead of
// leaving an unusable fragment.
func fit(addr, blockSize, reqSize, reqAlign uintptr) (fitCandidate, bool) {
	frontPad := alignUp(addr, reqAlign) - addr
	if frontPad != 0 && frontPad < holeHeaderSize {
		return fitCandidate{}, false
	}

	alignedStart := addr + frontPad
	requiredEnd := alignedStart + reqSize

	if requiredEnd > addr+blockSize {
		return fitCandidate{}, false
	}

	backPad := (addr + blockSize) - requiredEnd

	actualSize := reqSize
	backHole := uintptr(0)

	if backPad > 0 {
		if backPad < holeHeaderSize {
			actualSize += backPad
		} else {
			backHole = backPad
		}
	}

	return fitCandidate{
		frontPad:   frontPad,
		alignedAt:  alignedStart,
		actualSize: actualSize,
		backHole:   backHole,
	}, true
}
