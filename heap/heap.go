package heap

import "errors"

// ErrOutOfMemory is returned by Allocate when no free block (after
// splitting) can satisfy the requested size and alignment.
var ErrOutOfMemory = errors.New("heap: out of memory")

// Heap is a freestanding allocator over a single contiguous memory region
// supplied by the caller. A Heap is not safe for concurrent use: callers
// sharing one across goroutines must serialize every call with their own
// mutual-exclusion guard (nothing inside this package takes a lock).
type Heap struct {
	holes        holeList
	bottom       uintptr
	top          uintptr
	size         uintptr // top - bottom, i.e. the usable region after alignment
	used         uintptr
	initOverhead uintptr // bytes lost to bottom-alignment at Init, never reused
	initialized  bool
}

// Empty returns a Heap with no backing region. It must be Init'd (or
// replaced via New/NewFromBytes) before Allocate/Deallocate are called.
func Empty() *Heap {
	return &Heap{}
}

// Init installs [bottom, bottom+size) as the managed region. bottom is
// aligned up to holeHeaderAlign internally; any bytes lost to that
// alignment are permanently unavailable and are excluded from Size(). Init
// panics if called on an already-initialized Heap (re-initialization is a
// caller-contract violation, not a recoverable error).
func (h *Heap) Init(bottom, size uintptr) {
	if h.initialized {
		panic("heap: Init called on an already-initialized Heap")
	}

	aligned := alignUp(bottom, holeHeaderAlign)
	lost := aligned - bottom

	usable := uintptr(0)
	if size > lost {
		usable = size - lost
	}

	h.bottom = aligned
	h.top = aligned + usable
	h.size = usable
	h.used = 0
	h.initOverhead = lost
	h.initialized = true

	h.holes = holeList{}
	h.holes.initRegion(aligned, usable)
}

// New allocates a Heap over [bottom, bottom+size) in one step.
func New(bottom, size uintptr) *Heap {
	h := Empty()
	h.Init(bottom, size)

	return h
}

// NewFromBytes backs a Heap with a caller-owned byte slice. The slice must
// outlive the Heap and must never be reallocated, grown, or moved by the
// caller (e.g. via append) for as long as the Heap is in use, since the
// allocator writes hole headers directly into its backing array.
func NewFromBytes(region []byte) *Heap {
	if len(region) == 0 {
		return Empty()
	}

	return New(addrOfSlice(region), uintptr(len(region)))
}

// Allocate finds and reserves size bytes aligned to align, returning the
// address of the usable block. It returns ErrOutOfMemory if no free block,
// after splitting, can satisfy the request.
func (h *Heap) Allocate(size, align uintptr) (uintptr, error) {
	addr, actual, ok := h.holes.allocateFirstFit(size, align)
	if !ok {
		return 0, ErrOutOfMemory
	}

	h.used += actual

	return addr, nil
}

// Deallocate returns a previously allocated block to the free list,
// coalescing with adjacent free blocks. (addr, size, align) must be exactly
// the arguments a prior Allocate call used (or returned); passing anything
// else is undefined behavior.
func (h *Heap) Deallocate(addr, size, align uintptr) {
	normSize, _ := normalize(size, align)

	h.holes.deallocate(addr, normSize)
	h.used -= normSize
}

// Size returns the total usable size of the managed region, excluding any
// bytes lost to Init's bottom-alignment.
func (h *Heap) Size() uintptr {
	return h.size
}

// Used returns the number of bytes currently allocated.
func (h *Heap) Used() uintptr {
	return h.used
}

// Free returns the number of bytes currently available, equal to
// Size()-Used().
func (h *Heap) Free() uintptr {
	return h.size - h.used
}

// Bottom returns the (alignment-adjusted) start address of the managed
// region.
func (h *Heap) Bottom() uintptr {
	return h.bottom
}

// Top returns the address one past the end of the managed region.
func (h *Heap) Top() uintptr {
	return h.top
}

// Extend grows the managed region by appending byMore bytes to the top of
// it, treating the appended range as a newly freed block. The caller must
// ensure the memory immediately following the current Top() is valid and
// owned by the heap before calling Extend.
func (h *Heap) Extend(byMore uintptr) {
	if byMore == 0 {
		return
	}

	newTop := h.top + byMore
	h.holes.deallocate(h.top, byMore)

	h.top = newTop
	h.size += byMore
}
