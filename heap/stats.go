package heap

import "fmt"

// Stats is a read-only snapshot of a Heap's free-list shape, useful for
// logging and diagnostics without exposing the list's internal pointers.
type Stats struct {
	Size            uintptr
	Used            uintptr
	Free            uintptr
	HoleCount       int
	LargestHole     uintptr
	FragmentPercent float64
}

// Stats computes a Stats snapshot by walking the free list once.
func (h *Heap) Stats() Stats {
	holes := h.holes.holes()

	var largest uintptr
	for _, hole := range holes {
		if hole.Size > largest {
			largest = hole.Size
		}
	}

	free := h.Free()

	frag := 0.0
	if free > 0 {
		frag = (1 - float64(largest)/float64(free)) * 100
	}

	return Stats{
		Size:            h.size,
		Used:            h.used,
		Free:            free,
		HoleCount:       len(holes),
		LargestHole:     largest,
		FragmentPercent: frag,
	}
}

// Holes returns every free block currently in the list, in address order.
// It is read-only introspection: the returned slice shares no memory with
// the heap's internal headers.
func (h *Heap) Holes() []Hole {
	return h.holes.holes()
}

// VerifyAccounting recomputes total free space by walking the hole list and
// checks it against Used()/Size(), surfacing any drift between the two. A
// non-nil error means the heap's internal bookkeeping has diverged from its
// actual free-list contents (a bug in this package, not a caller error).
func (h *Heap) VerifyAccounting() error {
	var sum uintptr
	for _, hole := range h.holes.holes() {
		sum += hole.Size
	}

	if sum != h.Free() {
		return fmt.Errorf("heap: accounting mismatch: holes sum to %d, want %d", sum, h.Free())
	}

	return nil
}
